// internal/models/representative.go
package models

// Representative grades, ordinal ascending.
const (
	GradeJunior       = "JUNIOR"
	GradeIntermediate = "INTERMEDIATE"
	GradeSenior       = "SENIOR"
	GradeExpert       = "EXPERT"
)

// GradeOrdinal maps grades to their rank for minimum-grade comparisons.
var GradeOrdinal = map[string]int{
	GradeJunior:       1,
	GradeIntermediate: 2,
	GradeSenior:       3,
	GradeExpert:       4,
}

// Representative availability.
const (
	AvailabilityAvailable = "AVAILABLE"
	AvailabilityBusy      = "BUSY"
)

type FeeRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// RepresentativeCandidate is a descriptive record from the external
// directory. The matching engine filters, scores and ranks a supplied pool;
// it does not own candidate lifecycle.
type RepresentativeCandidate struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Grade              string   `json:"grade"`
	Specialties        []string `json:"specialties"`
	ExperienceYears    int      `json:"experienceYears"`
	SuccessRatePercent float64  `json:"successRatePercent"`
	Location           string   `json:"location"`
	Languages          []string `json:"languages"`
	FeeRange           FeeRange `json:"feeRange"`
	Availability       string   `json:"availability"`
	AvgResponseHours   int      `json:"avgResponseHours,omitempty"`
}

// ClientPreferences constrain and weight the match.
type ClientPreferences struct {
	Budget            int64  `json:"budget,omitempty"`
	PreferredLanguage string `json:"preferredLanguage,omitempty"`
	Location          string `json:"location,omitempty"`
	Urgency           string `json:"urgency,omitempty"`
}

type ServiceStage struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	DurationDays int    `json:"durationDays"`
}

type ServicePlan struct {
	Stages            []ServiceStage `json:"stages"`
	TotalDurationDays int            `json:"totalDurationDays"`
}

// MatchRecommendation is one ranked candidate with its explainability data.
type MatchRecommendation struct {
	Rank                  int                     `json:"rank"`
	Candidate             RepresentativeCandidate `json:"candidate"`
	MatchingScore         int                     `json:"matchingScore"`
	ScoreBreakdown        map[string]float64      `json:"scoreBreakdown"`
	Strengths             []string                `json:"strengths,omitempty"`
	Considerations        []string                `json:"considerations,omitempty"`
	EstimatedTimelineDays int                     `json:"estimatedTimelineDays"`
	RecommendationReason  string                  `json:"recommendationReason"`
	ServicePlan           *ServicePlan            `json:"servicePlan,omitempty"`
}

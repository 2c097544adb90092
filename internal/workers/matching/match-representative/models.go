// internal/workers/matching/match-representative/models.go
package matchrepresentative

import "immigration-workers/internal/models"

type Input struct {
	ApplicationID string                           `json:"applicationId"`
	Evaluation    *models.EvaluationResult         `json:"evaluation"`
	Preferences   models.ClientPreferences         `json:"clientPreferences"`
	CandidatePool []models.RepresentativeCandidate `json:"candidatePool,omitempty"`
}

type Output struct {
	RecommendedGrade    string                       `json:"recommendedGrade"`
	RequiredSpecialties []string                     `json:"requiredSpecialties"`
	Recommendations     []models.MatchRecommendation `json:"recommendations"`

	// FilterReasons explains an empty recommendation list; matching
	// exhaustion is an answer, not an error.
	FilterReasons []string `json:"filterReasons,omitempty"`
	MatchFound    bool     `json:"matchFound"`
}

// internal/workers/matching/match-representative/matching.go
package matchrepresentative

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"immigration-workers/internal/models"
)

const (
	maxRecommendations = 3

	weightComplexityFit = 0.40
	weightExperience    = 0.25
	weightSpecialty     = 0.15
	weightLocation      = 0.10
	weightLanguage      = 0.05
	weightBudget        = 0.05

	experienceCeilingYears = 15.0
	budgetToleranceFactor  = 1.2
)

// gradeTable maps (complexity tier, risk tier) to the minimum acceptable
// representative grade.
var gradeTable = map[string]map[string]string{
	models.ComplexityLow: {
		models.RiskLow:    models.GradeJunior,
		models.RiskMedium: models.GradeIntermediate,
		models.RiskHigh:   models.GradeSenior,
	},
	models.ComplexityMedium: {
		models.RiskLow:    models.GradeIntermediate,
		models.RiskMedium: models.GradeIntermediate,
		models.RiskHigh:   models.GradeSenior,
	},
	models.ComplexityHigh: {
		models.RiskLow:    models.GradeSenior,
		models.RiskMedium: models.GradeSenior,
		models.RiskHigh:   models.GradeExpert,
	},
	models.ComplexityVeryHigh: {
		models.RiskLow:    models.GradeSenior,
		models.RiskMedium: models.GradeExpert,
		models.RiskHigh:   models.GradeExpert,
	},
}

// specialtyTags maps diagnostic keywords to the specialty labels a case with
// that diagnostic needs. Scanned in order for deterministic output.
var specialtyTags = []struct {
	keyword     string
	specialties []string
}{
	{"education", []string{"academic credentials"}},
	{"document", []string{"document preparation"}},
	{"requirement", []string{"eligibility review"}},
	{"approval", []string{"complex cases"}},
	{"confidence", []string{"case assessment"}},
}

// matchResult is the full matching answer for one case.
type matchResult struct {
	RecommendedGrade    string
	RequiredSpecialties []string
	Recommendations     []models.MatchRecommendation
	FilterReasons       []string
}

// match filters, scores and ranks the candidate pool for one evaluated case.
// Pure over its inputs; pool retrieval is the caller's job.
func match(evaluation *models.EvaluationResult, prefs models.ClientPreferences, pool []models.RepresentativeCandidate) *matchResult {
	requiredGrade := recommendedGrade(evaluation.Complexity.Tier, evaluation.Risk.Tier)
	requiredSpecialties := deriveRequiredSpecialties(evaluation)

	passed, filterReasons := filterCandidates(pool, requiredGrade, prefs)

	type scored struct {
		candidate models.RepresentativeCandidate
		score     int
		breakdown map[string]float64
	}
	ranked := make([]scored, 0, len(passed))
	for _, candidate := range passed {
		total, breakdown := scoreCandidate(candidate, requiredGrade, requiredSpecialties, prefs)
		ranked = append(ranked, scored{candidate: candidate, score: total, breakdown: breakdown})
	}

	// Deterministic ordering with explicit tie-break keys.
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.candidate.ExperienceYears != b.candidate.ExperienceYears {
			return a.candidate.ExperienceYears > b.candidate.ExperienceYears
		}
		if a.candidate.SuccessRatePercent != b.candidate.SuccessRatePercent {
			return a.candidate.SuccessRatePercent > b.candidate.SuccessRatePercent
		}
		return a.candidate.ID < b.candidate.ID
	})

	if len(ranked) > maxRecommendations {
		ranked = ranked[:maxRecommendations]
	}

	recommendations := make([]models.MatchRecommendation, 0, len(ranked))
	for i, entry := range ranked {
		plan := buildServicePlan(entry.candidate, prefs)
		rec := models.MatchRecommendation{
			Rank:                  i + 1,
			Candidate:             entry.candidate,
			MatchingScore:         entry.score,
			ScoreBreakdown:        entry.breakdown,
			Strengths:             candidateStrengths(entry.candidate, requiredGrade),
			Considerations:        candidateConsiderations(entry.candidate, prefs),
			EstimatedTimelineDays: plan.TotalDurationDays,
			RecommendationReason:  rankReason(i + 1),
		}
		if i == 0 {
			rec.ServicePlan = plan
		}
		recommendations = append(recommendations, rec)
	}

	return &matchResult{
		RecommendedGrade:    requiredGrade,
		RequiredSpecialties: requiredSpecialties,
		Recommendations:     recommendations,
		FilterReasons:       filterReasons,
	}
}

func recommendedGrade(complexityTier, riskTier string) string {
	if byRisk, ok := gradeTable[complexityTier]; ok {
		if grade, ok := byRisk[riskTier]; ok {
			return grade
		}
	}
	return models.GradeIntermediate
}

// deriveRequiredSpecialties scans the evaluation's complexity factors and
// risk reasons for specialty tags, first-seen order, deduplicated.
func deriveRequiredSpecialties(evaluation *models.EvaluationResult) []string {
	sources := append([]string{}, evaluation.Complexity.Factors...)
	sources = append(sources, evaluation.Risk.Reasons...)

	seen := map[string]bool{}
	specialties := []string{}
	for _, source := range sources {
		lower := strings.ToLower(source)
		for _, tag := range specialtyTags {
			if !strings.Contains(lower, tag.keyword) {
				continue
			}
			for _, specialty := range tag.specialties {
				if seen[specialty] {
					continue
				}
				seen[specialty] = true
				specialties = append(specialties, specialty)
			}
		}
	}
	return specialties
}

// filterCandidates applies the hard gates. Excluded candidates are counted
// per gate so an empty result can explain itself.
func filterCandidates(pool []models.RepresentativeCandidate, requiredGrade string, prefs models.ClientPreferences) ([]models.RepresentativeCandidate, []string) {
	requiredOrdinal := models.GradeOrdinal[requiredGrade]

	passed := []models.RepresentativeCandidate{}
	belowGrade, overBudget, noLanguage := 0, 0, 0

	for _, candidate := range pool {
		if models.GradeOrdinal[candidate.Grade] < requiredOrdinal {
			belowGrade++
			continue
		}
		if prefs.Budget > 0 && float64(candidate.FeeRange.Min) > float64(prefs.Budget)*budgetToleranceFactor {
			overBudget++
			continue
		}
		if prefs.PreferredLanguage != "" && !supportsLanguage(candidate, prefs.PreferredLanguage) {
			noLanguage++
			continue
		}
		passed = append(passed, candidate)
	}

	reasons := []string{}
	if belowGrade > 0 {
		reasons = append(reasons, fmt.Sprintf("%d candidate(s) below required grade %s", belowGrade, requiredGrade))
	}
	if overBudget > 0 {
		reasons = append(reasons, fmt.Sprintf("%d candidate(s) with minimum fee beyond the budget tolerance", overBudget))
	}
	if noLanguage > 0 {
		reasons = append(reasons, fmt.Sprintf("%d candidate(s) not supporting language %s", noLanguage, prefs.PreferredLanguage))
	}
	return passed, reasons
}

func supportsLanguage(candidate models.RepresentativeCandidate, language string) bool {
	for _, l := range candidate.Languages {
		if strings.EqualFold(l, language) {
			return true
		}
	}
	return false
}

// scoreCandidate computes the six weighted factors, each clamped [0,100]
// before weighting.
func scoreCandidate(candidate models.RepresentativeCandidate, requiredGrade string, requiredSpecialties []string, prefs models.ClientPreferences) (int, map[string]float64) {
	breakdown := map[string]float64{
		"complexityFit": complexityFitScore(candidate, requiredGrade),
		"experience":    clamp(float64(candidate.ExperienceYears)/experienceCeilingYears*100, 0, 100),
		"specialty":     specialtyScore(candidate, requiredSpecialties),
		"location":      locationScore(candidate, prefs),
		"language":      languageScore(candidate, prefs),
		"budget":        budgetScore(candidate, prefs),
	}

	total := weightComplexityFit*breakdown["complexityFit"] +
		weightExperience*breakdown["experience"] +
		weightSpecialty*breakdown["specialty"] +
		weightLocation*breakdown["location"] +
		weightLanguage*breakdown["language"] +
		weightBudget*breakdown["budget"]

	return int(math.Round(clamp(total, 0, 100))), breakdown
}

// complexityFitScore rewards headroom above the minimum grade and a track
// record above the 70 percent baseline.
func complexityFitScore(candidate models.RepresentativeCandidate, requiredGrade string) float64 {
	headroom := float64(models.GradeOrdinal[candidate.Grade]-models.GradeOrdinal[requiredGrade]) * 10
	if headroom > 20 {
		headroom = 20
	}
	fit := 70 + headroom + (candidate.SuccessRatePercent-70)/2
	return clamp(fit, 0, 100)
}

// specialtyScore is the fraction of required specialties the candidate
// covers, matched by substring containment in either direction.
func specialtyScore(candidate models.RepresentativeCandidate, required []string) float64 {
	if len(required) == 0 {
		return 100
	}
	matched := 0
	for _, want := range required {
		wantLower := strings.ToLower(want)
		for _, have := range candidate.Specialties {
			haveLower := strings.ToLower(have)
			if strings.Contains(haveLower, wantLower) || strings.Contains(wantLower, haveLower) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(required)) * 100
}

// locationScore never reaches zero; remote consultation keeps a mismatched
// location workable.
func locationScore(candidate models.RepresentativeCandidate, prefs models.ClientPreferences) float64 {
	if prefs.Location == "" || strings.EqualFold(candidate.Location, prefs.Location) {
		return 100
	}
	return 60
}

func languageScore(candidate models.RepresentativeCandidate, prefs models.ClientPreferences) float64 {
	if prefs.PreferredLanguage != "" && supportsLanguage(candidate, prefs.PreferredLanguage) {
		return 100
	}
	return 70
}

func budgetScore(candidate models.RepresentativeCandidate, prefs models.ClientPreferences) float64 {
	if prefs.Budget <= 0 {
		return 100
	}
	feeMin := float64(candidate.FeeRange.Min)
	budget := float64(prefs.Budget)
	switch {
	case feeMin <= budget:
		return 100
	case feeMin <= budget*budgetToleranceFactor:
		return 80
	default:
		return 40
	}
}

func candidateStrengths(candidate models.RepresentativeCandidate, requiredGrade string) []string {
	strengths := []string{}
	if models.GradeOrdinal[candidate.Grade] > models.GradeOrdinal[requiredGrade] {
		strengths = append(strengths, "grade above the required minimum")
	}
	if candidate.SuccessRatePercent >= 90 {
		strengths = append(strengths, fmt.Sprintf("success rate of %.0f%%", candidate.SuccessRatePercent))
	}
	if candidate.ExperienceYears >= 10 {
		strengths = append(strengths, fmt.Sprintf("%d years of casework", candidate.ExperienceYears))
	}
	return strengths
}

func candidateConsiderations(candidate models.RepresentativeCandidate, prefs models.ClientPreferences) []string {
	considerations := []string{}
	if prefs.Budget > 0 && candidate.FeeRange.Min > prefs.Budget {
		considerations = append(considerations, "minimum fee is above the stated budget")
	}
	if candidate.Availability == models.AvailabilityBusy {
		considerations = append(considerations, "currently handling a full caseload")
	}
	if prefs.Location != "" && !strings.EqualFold(candidate.Location, prefs.Location) {
		considerations = append(considerations, "based outside the preferred location")
	}
	return considerations
}

func rankReason(rank int) string {
	switch rank {
	case 1:
		return "best overall match for the case profile"
	case 2:
		return "strong balance of experience and cost"
	default:
		return "budget-efficient option"
	}
}

// buildServicePlan lays out the staged engagement. Durations shrink for
// senior grades and urgent requests, and stretch for slow responders.
func buildServicePlan(candidate models.RepresentativeCandidate, prefs models.ClientPreferences) *models.ServicePlan {
	discovery := 7
	preparation := 14
	submission := 21

	if models.GradeOrdinal[candidate.Grade] >= models.GradeOrdinal[models.GradeSenior] {
		preparation -= 4
		submission -= 5
	}
	if candidate.AvgResponseHours > 24 {
		discovery += 2
	}
	if prefs.Urgency == "high" || prefs.Urgency == "urgent" {
		discovery = shrinkDays(discovery)
		preparation = shrinkDays(preparation)
		submission = shrinkDays(submission)
	}

	stages := []models.ServiceStage{
		{Name: "discovery", Description: "initial consultation and case intake", DurationDays: discovery},
		{Name: "document preparation", Description: "collect, translate and verify the document set", DurationDays: preparation},
		{Name: "submission and follow-up", Description: "file the application and track the authority's response", DurationDays: submission},
	}

	total := 0
	for _, stage := range stages {
		total += stage.DurationDays
	}
	return &models.ServicePlan{Stages: stages, TotalDurationDays: total}
}

func shrinkDays(days int) int {
	shrunk := days * 3 / 4
	if shrunk < 1 {
		return 1
	}
	return shrunk
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

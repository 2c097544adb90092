// internal/workers/evaluation/score-eligibility/scoring.go
package scoreeligibility

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	commonerrors "immigration-workers/internal/common/errors"
	"immigration-workers/internal/models"
	"immigration-workers/pkg/registry"

	"github.com/google/uuid"
)

const (
	defaultConfidence       = 50
	weakCategoryThreshold   = 40.0
	strongCategoryThreshold = 80.0
	recommendCategoryBelow  = 60.0
	maxRecommendations      = 10
)

// score runs the full evaluation for one applicant against one schema. The
// data map must already be normalized.
func score(schema *registry.VisaSchema, schemaVersion string, input *Input, data map[string]interface{}) (*models.EvaluationResult, error) {
	categoryScores := make(map[string]models.CategoryScore, len(schema.Categories))
	degraded := false
	weightedSum := 0.0

	for _, category := range schema.Categories {
		if category.MaxScore < 0 {
			return nil, commonerrors.NewDataIntegrityError(
				fmt.Sprintf("category %q declares negative max score %.1f", category.Name, category.MaxScore))
		}
		if category.MaxScore == 0 || len(category.Criteria) == 0 {
			// Structurally empty rule table. Score it zero and lower the
			// confidence instead of failing the evaluation.
			degraded = true
			categoryScores[category.Name] = models.CategoryScore{Score: 0, MaxScore: category.MaxScore}
			continue
		}

		points, err := scoreCategory(&category, data)
		if err != nil {
			return nil, err
		}
		if points > category.MaxScore {
			points = category.MaxScore
		}

		categoryScores[category.Name] = models.CategoryScore{Score: points, MaxScore: category.MaxScore}
		weightedSum += category.Weight * (points / category.MaxScore * 100)
	}

	overall := int(math.Round(clamp(weightedSum, 0, 100)))

	gateFailed, gateReasons := checkCategoryFloors(schema, categoryScores)
	confidence := computeConfidence(schema, input, data, overall, degraded)
	status := determineStatus(overall, confidence, gateFailed)

	strengths, weaknesses := splitStrengthsWeaknesses(schema, categoryScores)
	growth := computeGrowthPotential(schema, categoryScores)
	complexity := assessComplexity(input, overall, gateFailed, weaknesses)
	risk := assessRisk(overall, confidence, gateFailed, gateReasons)
	recommendations := buildRecommendations(schema, input, categoryScores, status)

	return &models.EvaluationResult{
		EvaluationID:    uuid.New().String(),
		SchemaVersion:   schemaVersion,
		VisaType:        schema.VisaType,
		ApplicationType: schema.ApplicationType,
		OverallScore:    overall,
		Confidence:      confidence,
		Status:          status,
		CategoryScores:  categoryScores,
		Strengths:       strengths,
		Weaknesses:      weaknesses,
		GrowthPotential: growth,
		Recommendations: recommendations,
		Complexity:      complexity,
		Risk:            risk,
		EvaluatedAt:     time.Now().UTC(),
	}, nil
}

// scoreCategory sums the points the applicant earns across the category's
// criteria. Missing fields simply earn nothing.
func scoreCategory(category *registry.CategoryRule, data map[string]interface{}) (float64, error) {
	total := 0.0
	for _, criterion := range category.Criteria {
		points, err := scoreCriterion(&criterion, category.Name, data)
		if err != nil {
			return 0, err
		}
		total += points
	}
	return total, nil
}

func scoreCriterion(criterion *registry.Criterion, categoryName string, data map[string]interface{}) (float64, error) {
	value, ok := data[criterion.Field]
	if !models.FieldPresent(value, ok) {
		return 0, nil
	}

	switch {
	case len(criterion.Thresholds) > 0:
		num, isNum := models.AsNumber(value)
		if !isNum {
			return 0, nil
		}
		for _, threshold := range criterion.Thresholds {
			if num >= threshold.Min {
				if threshold.Points < 0 {
					return 0, commonerrors.NewDataIntegrityError(
						fmt.Sprintf("category %q field %q awards negative points", categoryName, criterion.Field))
				}
				return threshold.Points, nil
			}
		}
		return 0, nil

	case len(criterion.ValuePoints) > 0:
		str, isStr := value.(string)
		if !isStr {
			return 0, nil
		}
		points, found := criterion.ValuePoints[strings.ToLower(str)]
		if !found {
			return 0, nil
		}
		if points < 0 {
			return 0, commonerrors.NewDataIntegrityError(
				fmt.Sprintf("category %q field %q awards negative points", categoryName, criterion.Field))
		}
		return points, nil

	default:
		if criterion.BoolPoints < 0 {
			return 0, commonerrors.NewDataIntegrityError(
				fmt.Sprintf("category %q field %q awards negative points", categoryName, criterion.Field))
		}
		b, isBool := models.AsBool(value)
		if isBool && b {
			return criterion.BoolPoints, nil
		}
		return 0, nil
	}
}

// checkCategoryFloors applies the manual-point floor some visa types enforce
// before the percentage weighting is allowed to matter.
func checkCategoryFloors(schema *registry.VisaSchema, scores map[string]models.CategoryScore) (bool, []string) {
	if len(schema.MinCategoryScores) == 0 {
		return false, nil
	}

	names := make([]string, 0, len(schema.MinCategoryScores))
	for name := range schema.MinCategoryScores {
		names = append(names, name)
	}
	sort.Strings(names)

	var reasons []string
	for _, name := range names {
		floor := schema.MinCategoryScores[name]
		cs, ok := scores[name]
		if !ok || cs.MaxScore <= 0 {
			continue
		}
		if cs.Score/cs.MaxScore*100 < floor {
			reasons = append(reasons, fmt.Sprintf("category %s below required floor of %.0f", name, floor))
		}
	}
	return len(reasons) > 0, reasons
}

// computeConfidence combines input completeness, score stability, internal
// consistency and document quality, then applies the per-visa-type empirical
// adjustment. Deliberately decoupled from the score itself.
func computeConfidence(schema *registry.VisaSchema, input *Input, data map[string]interface{}, overall int, degraded bool) int {
	if degraded {
		return defaultConfidence
	}

	completeness := completenessComponent(schema, data)
	stability := 100.0 - math.Abs(float64(overall)-50)
	consistency := consistencyComponent(data, overall)
	docQuality := documentQualityComponent(input.DocumentLevel)

	combined := 0.35*completeness + 0.20*stability + 0.20*consistency + 0.25*docQuality
	combined += schema.ConfidenceAdjustment

	return int(math.Round(clamp(combined, 0, 100)))
}

// completenessComponent weighs required-field coverage twice as heavily as
// optional-field coverage.
func completenessComponent(schema *registry.VisaSchema, data map[string]interface{}) float64 {
	required := coverage(data, schema.RequiredEvaluationFields)
	if len(schema.OptionalEvaluationFields) == 0 {
		return required * 100
	}
	optional := coverage(data, schema.OptionalEvaluationFields)
	return (2*required + optional) / 3 * 100
}

func coverage(data map[string]interface{}, fields []string) float64 {
	if len(fields) == 0 {
		return 1
	}
	present := 0
	for _, field := range fields {
		v, ok := data[field]
		if models.FieldPresent(v, ok) {
			present++
		}
	}
	return float64(present) / float64(len(fields))
}

// consistencyComponent compares a self-declared outcome, when the applicant
// supplied one, against the status the score band implies.
func consistencyComponent(data map[string]interface{}, overall int) float64 {
	declared, ok := data["declaredStatus"].(string)
	if !ok || strings.TrimSpace(declared) == "" {
		return 100
	}

	implied := scoreBand(overall)
	declaredOrd, known := statusOrdinal(strings.ToUpper(strings.TrimSpace(declared)))
	if !known {
		return 100
	}

	impliedOrd, _ := statusOrdinal(implied)
	switch gap := abs(declaredOrd - impliedOrd); gap {
	case 0:
		return 100
	case 1:
		return 60
	default:
		return 20
	}
}

func documentQualityComponent(level string) float64 {
	switch level {
	case models.DocumentLevelVerified:
		return 100
	case models.DocumentLevelUploaded:
		return 75
	default:
		return 50
	}
}

// scoreBand is the status implied by the score alone, ignoring confidence.
func scoreBand(overall int) string {
	switch {
	case overall >= 85:
		return models.StatusHighlyLikely
	case overall >= 70:
		return models.StatusLikely
	case overall >= 50:
		return models.StatusUncertain
	case overall >= 30:
		return models.StatusUnlikely
	default:
		return models.StatusVeryUnlikely
	}
}

func statusOrdinal(status string) (int, bool) {
	switch status {
	case models.StatusHighlyLikely:
		return 4, true
	case models.StatusLikely:
		return 3, true
	case models.StatusUncertain:
		return 2, true
	case models.StatusUnlikely:
		return 1, true
	case models.StatusVeryUnlikely:
		return 0, true
	default:
		return 0, false
	}
}

// determineStatus bands on (score, confidence) jointly. A failed category
// floor overrides everything.
func determineStatus(overall, confidence int, gateFailed bool) string {
	if gateFailed {
		return models.StatusUnqualified
	}
	switch {
	case overall >= 85 && confidence >= 80:
		return models.StatusHighlyLikely
	case overall >= 70 && confidence >= 70:
		return models.StatusLikely
	case overall >= 50:
		return models.StatusUncertain
	case overall >= 30:
		return models.StatusUnlikely
	default:
		return models.StatusVeryUnlikely
	}
}

func splitStrengthsWeaknesses(schema *registry.VisaSchema, scores map[string]models.CategoryScore) ([]string, []string) {
	strengths := []string{}
	weaknesses := []string{}
	for _, category := range schema.Categories {
		cs, ok := scores[category.Name]
		if !ok || cs.MaxScore <= 0 {
			continue
		}
		pct := cs.Score / cs.MaxScore * 100
		switch {
		case pct >= strongCategoryThreshold:
			strengths = append(strengths, fmt.Sprintf("%s is a strong asset (%.0f of %.0f points)", category.Name, cs.Score, cs.MaxScore))
		case pct <= weakCategoryThreshold:
			weaknesses = append(weaknesses, fmt.Sprintf("%s needs significant improvement (%.0f of %.0f points)", category.Name, cs.Score, cs.MaxScore))
		}
	}
	return strengths, weaknesses
}

// computeGrowthPotential reports the deterministic ceiling gap and ranks the
// categories worth closing first.
func computeGrowthPotential(schema *registry.VisaSchema, scores map[string]models.CategoryScore) models.GrowthPotential {
	total := 0.0
	actions := []models.PriorityAction{}

	for _, category := range schema.Categories {
		cs, ok := scores[category.Name]
		if !ok {
			continue
		}
		gap := cs.MaxScore - cs.Score
		if gap <= 0 {
			continue
		}
		total += gap
		actions = append(actions, models.PriorityAction{
			Category: category.Name,
			Gap:      gap,
			Weight:   category.Weight,
			Message:  fmt.Sprintf("closing the %s gap adds up to %.0f points", category.Name, gap),
		})
	}

	sort.SliceStable(actions, func(i, j int) bool {
		if actions[i].Gap != actions[j].Gap {
			return actions[i].Gap > actions[j].Gap
		}
		return actions[i].Weight > actions[j].Weight
	})

	return models.GrowthPotential{
		TotalPotential:  int(math.Round(total)),
		PriorityActions: actions,
	}
}

func assessComplexity(input *Input, overall int, gateFailed bool, weaknesses []string) models.ComplexityAssessment {
	factors := []string{}
	if len(weaknesses) >= 2 {
		factors = append(factors, "multiple weak categories")
	}
	if overall < 50 {
		factors = append(factors, "low overall score")
	}
	if gateFailed {
		factors = append(factors, "minimum category requirement not met")
	}
	if input.DocumentLevel != models.DocumentLevelVerified && input.DocumentLevel != models.DocumentLevelUploaded {
		factors = append(factors, "documents not yet uploaded")
	}

	tier := models.ComplexityLow
	switch {
	case len(factors) >= 3:
		tier = models.ComplexityVeryHigh
	case len(factors) == 2:
		tier = models.ComplexityHigh
	case len(factors) == 1:
		tier = models.ComplexityMedium
	}
	return models.ComplexityAssessment{Tier: tier, Factors: factors}
}

func assessRisk(overall, confidence int, gateFailed bool, gateReasons []string) models.RiskAssessment {
	reasons := []string{}
	if overall < 30 {
		reasons = append(reasons, "score well below the approval band")
	}
	if confidence < 50 {
		reasons = append(reasons, "low confidence in the evaluation")
	}
	if gateFailed {
		reasons = append(reasons, gateReasons...)
	}

	tier := models.RiskLow
	switch {
	case len(reasons) >= 2:
		tier = models.RiskHigh
	case len(reasons) == 1:
		tier = models.RiskMedium
	}
	return models.RiskAssessment{Tier: tier, Reasons: reasons}
}

// buildRecommendations runs the three generation passes, removes duplicates
// and keeps the top entries by priority, stable within a tier.
func buildRecommendations(schema *registry.VisaSchema, input *Input, scores map[string]models.CategoryScore, status string) []models.Recommendation {
	recs := []models.Recommendation{}
	recs = append(recs, overallRecommendation(status))
	recs = append(recs, categoryRecommendations(schema, scores)...)
	recs = append(recs, documentRecommendations(input.DocumentLevel)...)

	seen := make(map[string]bool, len(recs))
	deduped := recs[:0]
	for _, rec := range recs {
		key := rec.Type + "|" + rec.Message
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, rec)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return priorityRank(deduped[i].Priority) < priorityRank(deduped[j].Priority)
	})

	if len(deduped) > maxRecommendations {
		deduped = deduped[:maxRecommendations]
	}
	return deduped
}

func overallRecommendation(status string) models.Recommendation {
	switch status {
	case models.StatusHighlyLikely:
		return models.Recommendation{Type: "overall", Priority: models.PriorityLow,
			Message: "profile is strong, proceed to application preparation"}
	case models.StatusLikely:
		return models.Recommendation{Type: "overall", Priority: models.PriorityMedium,
			Message: "strengthen the weaker categories before filing"}
	case models.StatusUncertain:
		return models.Recommendation{Type: "overall", Priority: models.PriorityHigh,
			Message: "improve category scores before applying"}
	case models.StatusUnqualified:
		return models.Recommendation{Type: "overall", Priority: models.PriorityHigh,
			Message: "meet the minimum category requirement before the percentage score can count"}
	default:
		return models.Recommendation{Type: "overall", Priority: models.PriorityHigh,
			Message: "consider an alternative visa category or substantial profile improvement"}
	}
}

func categoryRecommendations(schema *registry.VisaSchema, scores map[string]models.CategoryScore) []models.Recommendation {
	recs := []models.Recommendation{}
	for _, category := range schema.Categories {
		cs, ok := scores[category.Name]
		if !ok || cs.MaxScore <= 0 {
			continue
		}
		pct := cs.Score / cs.MaxScore * 100
		if pct >= recommendCategoryBelow {
			continue
		}
		priority := models.PriorityMedium
		if pct < weakCategoryThreshold {
			priority = models.PriorityHigh
		}
		recs = append(recs, models.Recommendation{
			Type:     "category",
			Priority: priority,
			Message:  fmt.Sprintf("improve %s: currently %.0f of %.0f points", category.Name, cs.Score, cs.MaxScore),
		})
	}
	return recs
}

func documentRecommendations(level string) []models.Recommendation {
	switch level {
	case models.DocumentLevelVerified:
		return nil
	case models.DocumentLevelUploaded:
		return []models.Recommendation{{
			Type:     "document",
			Priority: models.PriorityMedium,
			Message:  "have the uploaded documents verified to raise evaluation confidence",
		}}
	default:
		return []models.Recommendation{{
			Type:     "document",
			Priority: models.PriorityHigh,
			Message:  "upload supporting documents, declared-only evidence keeps confidence low",
		}}
	}
}

func priorityRank(priority string) int {
	switch priority {
	case models.PriorityHigh:
		return 0
	case models.PriorityMedium:
		return 1
	default:
		return 2
	}
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

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

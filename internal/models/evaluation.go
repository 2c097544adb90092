// internal/models/evaluation.go
package models

import (
	"strconv"
	"strings"
	"time"
)

// Eligibility status values. The five probability bands come from joint
// (score, confidence) banding; UNQUALIFIED is produced only by the
// minimum-category-score gate.
const (
	StatusHighlyLikely = "HIGHLY_LIKELY"
	StatusLikely       = "LIKELY"
	StatusUncertain    = "UNCERTAIN"
	StatusUnlikely     = "UNLIKELY"
	StatusVeryUnlikely = "VERY_UNLIKELY"
	StatusUnqualified  = "UNQUALIFIED"
)

// Recommendation priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Case complexity tiers, emitted by the scoring diagnostics.
const (
	ComplexityLow      = "low"
	ComplexityMedium   = "medium"
	ComplexityHigh     = "high"
	ComplexityVeryHigh = "very_high"
)

// Case risk tiers.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Document evidence levels, strongest first.
const (
	DocumentLevelVerified = "verified"
	DocumentLevelUploaded = "uploaded"
	DocumentLevelDeclared = "declared"
)

// EvaluationInput is one applicant's data for a single evaluation call.
// EvaluationData and AdministrativeData are expected to be normalized via
// NormalizeEvaluationData before any engine sees them.
type EvaluationInput struct {
	ApplicationID      string                 `json:"applicationId"`
	VisaType           string                 `json:"visaType"`
	ApplicationType    string                 `json:"applicationType"`
	EvaluationData     map[string]interface{} `json:"evaluationData"`
	AdministrativeData map[string]interface{} `json:"administrativeData,omitempty"`
	DocumentLevel      string                 `json:"documentLevel,omitempty"`
}

type CategoryScore struct {
	Score    float64 `json:"score"`
	MaxScore float64 `json:"maxScore"`
}

type PriorityAction struct {
	Category string  `json:"category"`
	Gap      float64 `json:"gap"`
	Weight   float64 `json:"weight"`
	Message  string  `json:"message"`
}

type GrowthPotential struct {
	TotalPotential  int              `json:"totalPotential"`
	PriorityActions []PriorityAction `json:"priorityActions"`
}

type Recommendation struct {
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Message  string `json:"message"`
}

type ComplexityAssessment struct {
	Tier    string   `json:"tier"`
	Factors []string `json:"factors,omitempty"`
}

type RiskAssessment struct {
	Tier    string   `json:"tier"`
	Reasons []string `json:"reasons,omitempty"`
}

// EvaluationResult is the versioned evaluation shape shared by the scoring
// and matching engines. The engine is stateless; each call returns a fresh
// value owned by the caller.
type EvaluationResult struct {
	EvaluationID    string                   `json:"evaluationId"`
	SchemaVersion   string                   `json:"schemaVersion"`
	VisaType        string                   `json:"visaType"`
	ApplicationType string                   `json:"applicationType"`
	OverallScore    int                      `json:"overallScore"`
	Confidence      int                      `json:"confidence"`
	Status          string                   `json:"status"`
	CategoryScores  map[string]CategoryScore `json:"categoryScores"`
	Strengths       []string                 `json:"strengths"`
	Weaknesses      []string                 `json:"weaknesses"`
	GrowthPotential GrowthPotential          `json:"growthPotential"`
	Recommendations []Recommendation         `json:"recommendations"`
	Complexity      ComplexityAssessment     `json:"complexity"`
	Risk            RiskAssessment           `json:"risk"`
	EvaluatedAt     time.Time                `json:"evaluatedAt"`
}

// NormalizeEvaluationData is the single type-coercion step at the input
// boundary; engines never re-coerce. The input map is not mutated.
//
// Rules: strings are trimmed; numeric-looking strings (including "1"/"0",
// where numeric wins over boolean) become float64; "true"/"false" become
// bool; json numbers stay float64; everything else passes through.
func NormalizeEvaluationData(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return map[string]interface{}{}
	}

	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return trimmed
		}
		cleaned := strings.ReplaceAll(trimmed, ",", "")
		if num, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return num
		}
		switch strings.ToLower(trimmed) {
		case "true":
			return true
		case "false":
			return false
		}
		return trimmed
	case int:
		return float64(val)
	case int64:
		return float64(val)
	default:
		return v
	}
}

// FieldPresent reports whether a normalized value counts as supplied:
// defined, non-nil and not an empty string.
func FieldPresent(v interface{}, ok bool) bool {
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// AsNumber extracts a float64 from a normalized value.
func AsNumber(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	default:
		return 0, false
	}
}

// AsBool extracts a boolean from a normalized value. Non-zero numbers count
// as true so "1"/"0" inputs behave the same whether read as flag or count.
func AsBool(v interface{}) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case float64:
		return val != 0, true
	default:
		return false, false
	}
}

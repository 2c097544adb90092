// pkg/registry/schema.go
package registry

// VisaRegistry is the versioned, deploy-time rule set document. One document
// covers every (visaType, applicationType) pair the platform evaluates.
type VisaRegistry struct {
	SchemaVersion string       `json:"schemaVersion"`
	LastUpdated   string       `json:"lastUpdated"`
	Schemas       []VisaSchema `json:"schemas"`
}

// VisaSchema is the declarative rule set for one (visaType, applicationType) pair.
type VisaSchema struct {
	VisaType        string `json:"visaType"`
	ApplicationType string `json:"applicationType"`

	RequiredEvaluationFields     []string `json:"requiredEvaluationFields"`
	OptionalEvaluationFields     []string `json:"optionalEvaluationFields,omitempty"`
	RequiredAdministrativeFields []string `json:"requiredAdministrativeFields,omitempty"`
	OptionalAdministrativeFields []string `json:"optionalAdministrativeFields,omitempty"`

	RequiredDocuments      []string            `json:"requiredDocuments"`
	OptionalDocuments      []string            `json:"optionalDocuments,omitempty"`
	DocumentAlternatives   map[string][]string `json:"documentAlternatives,omitempty"`
	DocumentValidityMonths map[string]int      `json:"documentValidityMonths,omitempty"`

	Categories []CategoryRule `json:"categories"`

	// MinCategoryScores forces status UNQUALIFIED when any listed category
	// scores below its floor, regardless of the weighted overall score.
	MinCategoryScores map[string]float64 `json:"minCategoryScores,omitempty"`

	// ConfidenceAdjustment is the per-visa-type empirical correction applied
	// after the weighted confidence combination.
	ConfidenceAdjustment float64 `json:"confidenceAdjustment,omitempty"`
}

// CategoryRule is one weighted eligibility dimension with its point table.
type CategoryRule struct {
	Name     string      `json:"name"`
	Weight   float64     `json:"weight"`
	MaxScore float64     `json:"maxScore"`
	Criteria []Criterion `json:"criteria"`
}

// Criterion maps one applicant field to points. Exactly one of Thresholds,
// ValuePoints or BoolPoints is expected per criterion.
type Criterion struct {
	Field       string             `json:"field"`
	Thresholds  []Threshold        `json:"thresholds,omitempty"`
	ValuePoints map[string]float64 `json:"valuePoints,omitempty"`
	BoolPoints  float64            `json:"boolPoints,omitempty"`
}

// Threshold awards Points when the numeric field value is >= Min.
// Thresholds are evaluated in order; the first match wins, so tables are
// written highest Min first.
type Threshold struct {
	Min    float64 `json:"min"`
	Points float64 `json:"points"`
}

// IsRequiredDocument reports whether docType is in the required list.
func (s *VisaSchema) IsRequiredDocument(docType string) bool {
	for _, d := range s.RequiredDocuments {
		if d == docType {
			return true
		}
	}
	return false
}

// IsOptionalDocument reports whether docType is in the optional list.
func (s *VisaSchema) IsOptionalDocument(docType string) bool {
	for _, d := range s.OptionalDocuments {
		if d == docType {
			return true
		}
	}
	return false
}

// AlternativesFor returns the accepted substitutes for a required document.
func (s *VisaSchema) AlternativesFor(docType string) []string {
	if s.DocumentAlternatives == nil {
		return nil
	}
	return s.DocumentAlternatives[docType]
}

// ValidityMonths returns the validity window for a document type, zero when
// the type is not expiry-checked.
func (s *VisaSchema) ValidityMonths(docType string) int {
	if s.DocumentValidityMonths == nil {
		return 0
	}
	return s.DocumentValidityMonths[docType]
}

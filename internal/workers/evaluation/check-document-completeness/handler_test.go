// internal/workers/evaluation/check-document-completeness/handler_test.go
package checkdocumentcompleteness

import (
	"context"
	"testing"
	"time"

	"immigration-workers/internal/common/logger"
	"immigration-workers/internal/models"
	"immigration-workers/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.NewFromDocument(&registry.VisaRegistry{
		SchemaVersion: "test.1",
		Schemas: []registry.VisaSchema{
			{
				VisaType:                 "E-1",
				ApplicationType:          "new",
				RequiredEvaluationFields: []string{"educationLevel"},
				RequiredDocuments:        []string{"passport", "diploma", "career_certificate"},
				OptionalDocuments:        []string{"recommendation_letter", "award_certificate"},
				DocumentAlternatives: map[string][]string{
					"career_certificate": {"employment_contract"},
				},
				DocumentValidityMonths: map[string]int{
					"passport":        120,
					"criminal_record": 12,
				},
				Categories: []registry.CategoryRule{
					{
						Name:     "education",
						Weight:   1.0,
						MaxScore: 100,
						Criteria: []registry.Criterion{
							{Field: "educationLevel", ValuePoints: map[string]float64{"doctorate": 100}},
						},
					},
				},
			},
		},
	})
	require.NoError(t, err)
	return reg
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	h := NewHandler(LoadConfig(), testRegistry(t), logger.NewTestLogger(t))
	h.now = func() time.Time { return fixedNow }
	return h
}

func doc(docType string) models.SubmittedDocument {
	return models.SubmittedDocument{DocumentType: docType, OriginalName: docType + ".pdf"}
}

func docIssued(docType string, issued time.Time) models.SubmittedDocument {
	d := doc(docType)
	d.IssueDate = &issued
	return d
}

func TestExecute_AlternativeExcusesMissingRequired(t *testing.T) {
	h := newTestHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		ApplicationID:   "APP-3001",
		VisaType:        "E-1",
		ApplicationType: "new",
		Documents: []models.SubmittedDocument{
			doc("diploma"),
			doc("employment_contract"),
		},
	})
	require.NoError(t, err)

	v := output.Validation
	assert.NotContains(t, v.MissingRequired, "career_certificate",
		"a present alternative satisfies the requirement")
	assert.Contains(t, v.MissingRequired, "passport")
	assert.False(t, v.IsComplete)
}

func TestExecute_CompleteSet(t *testing.T) {
	h := newTestHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		VisaType:        "E-1",
		ApplicationType: "new",
		Documents: []models.SubmittedDocument{
			doc("passport"),
			doc("diploma"),
			doc("career_certificate"),
			doc("recommendation_letter"),
			doc("award_certificate"),
		},
	})
	require.NoError(t, err)

	v := output.Validation
	assert.True(t, v.IsComplete)
	assert.Empty(t, v.MissingRequired)
	assert.Empty(t, v.Suggestions)
	assert.Equal(t, 100, v.Completeness.Overall)
	assert.Equal(t, []string{"recommendation_letter", "award_certificate"}, v.AvailableOptional)
}

func TestExecute_CompletenessInvariant(t *testing.T) {
	h := newTestHandler(t)

	sets := [][]models.SubmittedDocument{
		{},
		{doc("passport")},
		{doc("passport"), doc("diploma"), doc("career_certificate")},
		{doc("diploma"), doc("employment_contract")},
	}

	for _, documents := range sets {
		output, err := h.Execute(context.Background(), &Input{
			VisaType:        "E-1",
			ApplicationType: "new",
			Documents:       documents,
		})
		require.NoError(t, err)
		v := output.Validation
		assert.Equal(t, len(v.MissingRequired) == 0, v.IsComplete)
		assert.GreaterOrEqual(t, v.Completeness.Overall, 0)
		assert.LessOrEqual(t, v.Completeness.Overall, 100)
	}
}

func TestExecute_WeightedCompleteness(t *testing.T) {
	h := newTestHandler(t)

	// Two of three required satisfied (one via alternative), one of two
	// optional present: 0.8 x 66.7 + 0.2 x 50.
	output, err := h.Execute(context.Background(), &Input{
		VisaType:        "E-1",
		ApplicationType: "new",
		Documents: []models.SubmittedDocument{
			doc("passport"),
			doc("employment_contract"),
			doc("recommendation_letter"),
		},
	})
	require.NoError(t, err)

	v := output.Validation
	assert.Equal(t, 67, v.Completeness.Required)
	assert.Equal(t, 50, v.Completeness.Optional)
	assert.Equal(t, 63, v.Completeness.Overall)
}

func TestExecute_ClassifiesUnknownTypesAsOther(t *testing.T) {
	h := newTestHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		VisaType:        "E-1",
		ApplicationType: "new",
		Documents: []models.SubmittedDocument{
			doc("passport"),
			doc("recommendation_letter"),
			doc("selfie_with_pet"),
		},
	})
	require.NoError(t, err)

	categories := map[string]string{}
	for _, cd := range output.Validation.Documents {
		categories[cd.Document.DocumentType] = cd.Category
	}
	assert.Equal(t, models.DocumentCategoryRequired, categories["passport"])
	assert.Equal(t, models.DocumentCategoryOptional, categories["recommendation_letter"])
	assert.Equal(t, models.DocumentCategoryOther, categories["selfie_with_pet"])
}

func TestExecute_ExpiryBands(t *testing.T) {
	h := newTestHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		VisaType:        "E-1",
		ApplicationType: "new",
		Documents: []models.SubmittedDocument{
			// Issued 11 months ago with a 12-month window: 31 days left.
			docIssued("criminal_record", time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC)),
			docIssued("passport", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)),
		},
	})
	require.NoError(t, err)

	byType := map[string]models.DocumentExpiry{}
	for _, e := range output.Validation.Expiries {
		byType[e.DocumentType] = e
	}

	record := byType["criminal_record"]
	assert.Equal(t, models.DocumentStatusRenewalRecommended, record.Status)
	assert.Equal(t, 31, record.DaysRemaining)

	assert.Equal(t, models.DocumentStatusValid, byType["passport"].Status)
}

func TestExecute_ExpiredAndExpiringSoon(t *testing.T) {
	h := newTestHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		VisaType:        "E-1",
		ApplicationType: "new",
		Documents: []models.SubmittedDocument{
			docIssued("criminal_record", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)),
		},
	})
	require.NoError(t, err)

	require.Len(t, output.Validation.Expiries, 1)
	assert.Equal(t, models.DocumentStatusExpired, output.Validation.Expiries[0].Status)
	assert.Negative(t, output.Validation.Expiries[0].DaysRemaining)

	output, err = h.Execute(context.Background(), &Input{
		VisaType:        "E-1",
		ApplicationType: "new",
		Documents: []models.SubmittedDocument{
			docIssued("criminal_record", time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)),
		},
	})
	require.NoError(t, err)

	require.Len(t, output.Validation.Expiries, 1)
	assert.Equal(t, models.DocumentStatusExpiringSoon, output.Validation.Expiries[0].Status)
}

func TestExecute_MissingIssueDateIsNotExpiryChecked(t *testing.T) {
	h := newTestHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		VisaType:        "E-1",
		ApplicationType: "new",
		Documents: []models.SubmittedDocument{
			doc("criminal_record"),
			doc("diploma"),
		},
	})
	require.NoError(t, err)

	require.Len(t, output.Validation.Expiries, 1, "diploma has no validity window")
	assert.Equal(t, models.DocumentStatusNotExpiryChecked, output.Validation.Expiries[0].Status)
}

func TestExecute_SuggestionsOnlyForMissingRequired(t *testing.T) {
	h := newTestHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		VisaType:        "E-1",
		ApplicationType: "new",
		Documents:       []models.SubmittedDocument{doc("diploma")},
	})
	require.NoError(t, err)

	v := output.Validation
	require.Len(t, v.Suggestions, 2)

	byType := map[string]models.Suggestion{}
	for _, s := range v.Suggestions {
		byType[s.DocumentType] = s
	}

	assert.Equal(t, models.UrgencyCritical, byType["passport"].Urgency)
	assert.Equal(t, models.UrgencyCritical, byType["career_certificate"].Urgency)
	assert.Equal(t, []string{"employment_contract"}, byType["career_certificate"].Alternatives)
	assert.Contains(t, byType["career_certificate"].Message, "employment_contract")
}

func TestExecute_UnknownSchemaFailsOpen(t *testing.T) {
	h := newTestHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		VisaType:        "F-99",
		ApplicationType: "new",
		Documents:       []models.SubmittedDocument{doc("passport")},
	})
	require.NoError(t, err)

	assert.False(t, output.SchemaFound)
	assert.True(t, output.IsComplete)
	assert.Empty(t, output.Validation.MissingRequired)
	assert.Equal(t, models.DocumentCategoryOther, output.Validation.Documents[0].Category)
	assert.Equal(t, 100, output.Validation.Completeness.Overall)
}

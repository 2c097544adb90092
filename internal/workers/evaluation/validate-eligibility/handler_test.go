// internal/workers/evaluation/validate-eligibility/handler_test.go
package validateeligibility

import (
	"context"
	"testing"

	"immigration-workers/internal/common/logger"
	"immigration-workers/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.NewFromDocument(&registry.VisaRegistry{
		SchemaVersion: "test.1",
		Schemas: []registry.VisaSchema{
			{
				VisaType:                     "E-1",
				ApplicationType:              "new",
				RequiredEvaluationFields:     []string{"educationLevel", "experienceYears", "researchField"},
				OptionalEvaluationFields:     []string{"publicationCount"},
				RequiredAdministrativeFields: []string{"passportNumber"},
				RequiredDocuments:            []string{"passport", "diploma"},
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
	return NewHandler(LoadConfig(), testRegistry(t), logger.NewTestLogger(t))
}

func TestExecute_ReportsMissingRequiredFields(t *testing.T) {
	h := newTestHandler(t)

	// A doctorate researcher who skipped the research field entirely.
	output, err := h.Execute(context.Background(), &Input{
		ApplicationID:   "APP-1001",
		VisaType:        "E-1",
		ApplicationType: "new",
		EvaluationData: map[string]interface{}{
			"educationLevel":  "doctorate",
			"experienceYears": "7",
		},
		AdministrativeData: map[string]interface{}{
			"passportNumber": "M1234567",
		},
	})
	require.NoError(t, err)

	assert.True(t, output.SchemaFound)
	assert.Equal(t, []string{"researchField"}, output.MissingEvaluation)
	assert.Empty(t, output.MissingAdministrative)
	assert.False(t, output.ReadyForScoring)
}

func TestExecute_CompleteDataIsReadyForScoring(t *testing.T) {
	h := newTestHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		ApplicationID:   "APP-1002",
		VisaType:        "e-1",
		ApplicationType: "NEW",
		EvaluationData: map[string]interface{}{
			"educationLevel":  "doctorate",
			"experienceYears": 7,
			"researchField":   "quantum computing",
		},
		AdministrativeData: map[string]interface{}{
			"passportNumber": "M1234567",
		},
	})
	require.NoError(t, err)

	assert.True(t, output.SchemaFound)
	assert.Empty(t, output.MissingEvaluation)
	assert.Empty(t, output.MissingAdministrative)
	assert.True(t, output.ReadyForScoring)
	assert.Equal(t, "test.1", output.SchemaVersion)
}

func TestExecute_UnknownVisaTypeFailsOpen(t *testing.T) {
	h := newTestHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		ApplicationID:   "APP-1003",
		VisaType:        "F-99",
		ApplicationType: "new",
		EvaluationData:  map[string]interface{}{},
	})
	require.NoError(t, err)

	assert.False(t, output.SchemaFound)
	assert.Empty(t, output.MissingEvaluation)
	assert.Empty(t, output.MissingAdministrative)
	assert.True(t, output.ReadyForScoring)
}

func TestExecute_BlankAndNilValuesCountAsMissing(t *testing.T) {
	h := newTestHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		ApplicationID:   "APP-1004",
		VisaType:        "E-1",
		ApplicationType: "new",
		EvaluationData: map[string]interface{}{
			"educationLevel":  "   ",
			"experienceYears": nil,
			"researchField":   "ai",
		},
		AdministrativeData: map[string]interface{}{},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"educationLevel", "experienceYears"}, output.MissingEvaluation)
	assert.Equal(t, []string{"passportNumber"}, output.MissingAdministrative)
	assert.False(t, output.ReadyForScoring)
}

func TestExecute_ZeroAndFalseAreSuppliedValues(t *testing.T) {
	h := newTestHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		ApplicationID:   "APP-1005",
		VisaType:        "E-1",
		ApplicationType: "new",
		EvaluationData: map[string]interface{}{
			"educationLevel":  "bachelors",
			"experienceYears": 0,
			"researchField":   "ai",
		},
		AdministrativeData: map[string]interface{}{
			"passportNumber": "M1234567",
		},
	})
	require.NoError(t, err)

	assert.Empty(t, output.MissingEvaluation)
	assert.True(t, output.ReadyForScoring)
}

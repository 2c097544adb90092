// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument() *VisaRegistry {
	return &VisaRegistry{
		SchemaVersion: "test.1",
		LastUpdated:   "2026-08-01",
		Schemas: []VisaSchema{
			{
				VisaType:                 "E-1",
				ApplicationType:          "new",
				RequiredEvaluationFields: []string{"educationLevel", "researchField"},
				OptionalEvaluationFields: []string{"koreanProficiency"},
				RequiredDocuments:        []string{"passport", "diploma"},
				OptionalDocuments:        []string{"recommendation_letter"},
				DocumentAlternatives: map[string][]string{
					"diploma": {"degree_verification_report"},
				},
				DocumentValidityMonths: map[string]int{"passport": 120},
				Categories: []CategoryRule{
					{
						Name:     "education",
						Weight:   0.6,
						MaxScore: 100,
						Criteria: []Criterion{
							{Field: "educationLevel", ValuePoints: map[string]float64{"doctorate": 100}},
						},
					},
					{
						Name:     "experience",
						Weight:   0.4,
						MaxScore: 100,
						Criteria: []Criterion{
							{Field: "experienceYears", Thresholds: []Threshold{{Min: 5, Points: 100}}},
						},
					},
				},
			},
		},
	}
}

func TestNewFromDocument_LookupIsCaseInsensitive(t *testing.T) {
	reg, err := NewFromDocument(testDocument())
	require.NoError(t, err)

	snap := reg.Snapshot()
	assert.Equal(t, "test.1", snap.Version)
	assert.Equal(t, 1, snap.Len())

	schema, ok := snap.Lookup("e-1", "NEW")
	require.True(t, ok)
	assert.Equal(t, "E-1", schema.VisaType)

	_, ok = snap.Lookup("E-7", "new")
	assert.False(t, ok)
}

func TestNewFromDocument_RejectsOverlappingFieldSets(t *testing.T) {
	doc := testDocument()
	doc.Schemas[0].OptionalEvaluationFields = append(doc.Schemas[0].OptionalEvaluationFields, "researchField")

	_, err := NewFromDocument(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both required and optional")
}

func TestNewFromDocument_RejectsOverlappingDocumentSets(t *testing.T) {
	doc := testDocument()
	doc.Schemas[0].OptionalDocuments = append(doc.Schemas[0].OptionalDocuments, "passport")

	_, err := NewFromDocument(doc)
	assert.Error(t, err)
}

func TestNewFromDocument_RejectsBadWeightSum(t *testing.T) {
	doc := testDocument()
	doc.Schemas[0].Categories[0].Weight = 0.9

	_, err := NewFromDocument(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights sum")
}

func TestNewFromDocument_RejectsNegativePoints(t *testing.T) {
	doc := testDocument()
	doc.Schemas[0].Categories[1].Criteria[0].Thresholds[0].Points = -10

	_, err := NewFromDocument(doc)
	assert.Error(t, err)
}

func TestNewFromDocument_RejectsDuplicateKey(t *testing.T) {
	doc := testDocument()
	doc.Schemas = append(doc.Schemas, doc.Schemas[0])

	_, err := NewFromDocument(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate schema")
}

func TestLoad_FromFile(t *testing.T) {
	content := `{
		"schemaVersion": "file.1",
		"lastUpdated": "2026-08-01",
		"schemas": [
			{
				"visaType": "E-2",
				"applicationType": "new",
				"requiredEvaluationFields": ["educationLevel"],
				"requiredDocuments": ["passport"],
				"categories": [
					{
						"name": "education",
						"weight": 1.0,
						"maxScore": 100,
						"criteria": [
							{"field": "educationLevel", "valuePoints": {"bachelors": 80}}
						]
					}
				]
			}
		]
	}`

	path := filepath.Join(t.TempDir(), "visa-registry.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	reg, err := Load(path)
	require.NoError(t, err)

	schema, ok := reg.Snapshot().Lookup("E-2", "new")
	require.True(t, ok)
	assert.Equal(t, []string{"passport"}, schema.RequiredDocuments)
}

func TestLoad_RejectsMalformedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "visa-registry.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"schemas": []}`), 0o644))

	_, err := Load(path)
	assert.Error(t, err, "schemaVersion missing should fail meta-schema validation")
}

func TestReload_SwapsSnapshotAtomically(t *testing.T) {
	reg, err := NewFromDocument(testDocument())
	require.NoError(t, err)

	before := reg.Snapshot()

	content := `{
		"schemaVersion": "test.2",
		"schemas": [
			{
				"visaType": "E-1",
				"applicationType": "new",
				"requiredEvaluationFields": ["educationLevel"],
				"requiredDocuments": ["passport"],
				"categories": [
					{"name": "education", "weight": 1.0, "maxScore": 100, "criteria": [
						{"field": "educationLevel", "valuePoints": {"doctorate": 100}}
					]}
				]
			}
		]
	}`
	path := filepath.Join(t.TempDir(), "visa-registry.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	require.NoError(t, reg.Reload(path))

	assert.Equal(t, "test.1", before.Version, "old snapshot stays intact for in-flight readers")
	assert.Equal(t, "test.2", reg.Snapshot().Version)
}

func TestVisaSchema_DocumentHelpers(t *testing.T) {
	schema := &testDocument().Schemas[0]

	assert.True(t, schema.IsRequiredDocument("passport"))
	assert.False(t, schema.IsRequiredDocument("recommendation_letter"))
	assert.True(t, schema.IsOptionalDocument("recommendation_letter"))
	assert.Equal(t, []string{"degree_verification_report"}, schema.AlternativesFor("diploma"))
	assert.Nil(t, schema.AlternativesFor("passport"))
	assert.Equal(t, 120, schema.ValidityMonths("passport"))
	assert.Equal(t, 0, schema.ValidityMonths("diploma"))
}

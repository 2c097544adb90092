// internal/models/evaluation_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEvaluationData(t *testing.T) {
	tests := []struct {
		name     string
		input    map[string]interface{}
		key      string
		expected interface{}
	}{
		{
			name:     "numeric string becomes float64",
			input:    map[string]interface{}{"experienceYears": "7"},
			key:      "experienceYears",
			expected: float64(7),
		},
		{
			name:     "numeric string with separators",
			input:    map[string]interface{}{"annualSalary": "45,000,000"},
			key:      "annualSalary",
			expected: float64(45000000),
		},
		{
			name:     "true string becomes bool",
			input:    map[string]interface{}{"teachingCertificate": "true"},
			key:      "teachingCertificate",
			expected: true,
		},
		{
			name:     "false string becomes bool",
			input:    map[string]interface{}{"teachingCertificate": "FALSE"},
			key:      "teachingCertificate",
			expected: false,
		},
		{
			name:     "numeric wins over boolean for 1",
			input:    map[string]interface{}{"flag": "1"},
			key:      "flag",
			expected: float64(1),
		},
		{
			name:     "plain string trimmed",
			input:    map[string]interface{}{"researchField": "  quantum computing "},
			key:      "researchField",
			expected: "quantum computing",
		},
		{
			name:     "int becomes float64",
			input:    map[string]interface{}{"publicationCount": 3},
			key:      "publicationCount",
			expected: float64(3),
		},
		{
			name:     "bool passes through",
			input:    map[string]interface{}{"managementRole": true},
			key:      "managementRole",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NormalizeEvaluationData(tt.input)
			assert.Equal(t, tt.expected, out[tt.key])
		})
	}
}

func TestNormalizeEvaluationData_DoesNotMutateInput(t *testing.T) {
	input := map[string]interface{}{"experienceYears": "7"}
	_ = NormalizeEvaluationData(input)
	assert.Equal(t, "7", input["experienceYears"])
}

func TestNormalizeEvaluationData_NilInput(t *testing.T) {
	out := NormalizeEvaluationData(nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestFieldPresent(t *testing.T) {
	data := NormalizeEvaluationData(map[string]interface{}{
		"filled":  "value",
		"empty":   "",
		"spaces":  "   ",
		"zero":    0,
		"nilVal":  nil,
		"falsey":  false,
	})

	v, ok := data["filled"]
	assert.True(t, FieldPresent(v, ok))

	v, ok = data["empty"]
	assert.False(t, FieldPresent(v, ok))

	v, ok = data["spaces"]
	assert.False(t, FieldPresent(v, ok))

	// zero and false are supplied values, not missing ones
	v, ok = data["zero"]
	assert.True(t, FieldPresent(v, ok))

	v, ok = data["falsey"]
	assert.True(t, FieldPresent(v, ok))

	v, ok = data["nilVal"]
	assert.False(t, FieldPresent(v, ok))

	v, ok = data["absent"]
	assert.False(t, FieldPresent(v, ok))
}

func TestAsNumberAndAsBool(t *testing.T) {
	n, ok := AsNumber(float64(12))
	assert.True(t, ok)
	assert.Equal(t, float64(12), n)

	_, ok = AsNumber("12")
	assert.False(t, ok, "strings must be normalized before extraction")

	b, ok := AsBool(true)
	assert.True(t, ok)
	assert.True(t, b)

	b, ok = AsBool(float64(1))
	assert.True(t, ok)
	assert.True(t, b)

	b, ok = AsBool(float64(0))
	assert.True(t, ok)
	assert.False(t, b)
}

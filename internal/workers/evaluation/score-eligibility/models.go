// internal/workers/evaluation/score-eligibility/models.go
package scoreeligibility

import "immigration-workers/internal/models"

type Input struct {
	ApplicationID   string                 `json:"applicationId"`
	VisaType        string                 `json:"visaType"`
	ApplicationType string                 `json:"applicationType"`
	EvaluationData  map[string]interface{} `json:"evaluationData"`

	// DocumentLevel is the strongest evidence level of the submitted document
	// set: "verified", "uploaded" or "declared". Empty means declared-only.
	DocumentLevel string `json:"documentLevel,omitempty"`
}

type Output struct {
	Evaluation *models.EvaluationResult `json:"evaluation"`

	// Flat copies for gateway conditions in the orchestrating process.
	OverallScore int    `json:"overallScore"`
	Confidence   int    `json:"confidence"`
	Status       string `json:"status"`
}

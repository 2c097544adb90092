// internal/workers/evaluation/persist-evaluation-record/models.go
package persistevaluationrecord

import "immigration-workers/internal/models"

type Input struct {
	ApplicationID      string                        `json:"applicationId"`
	Evaluation         *models.EvaluationResult      `json:"evaluation"`
	DocumentValidation *models.DocumentSetValidation `json:"documentValidation,omitempty"`
}

type Output struct {
	EvaluationID string `json:"evaluationId"`
	Persisted    bool   `json:"persisted"`
}

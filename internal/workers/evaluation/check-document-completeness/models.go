// internal/workers/evaluation/check-document-completeness/models.go
package checkdocumentcompleteness

import "immigration-workers/internal/models"

type Input struct {
	ApplicationID   string                     `json:"applicationId"`
	VisaType        string                     `json:"visaType"`
	ApplicationType string                     `json:"applicationType"`
	Documents       []models.SubmittedDocument `json:"documents"`
}

type Output struct {
	Validation *models.DocumentSetValidation `json:"documentValidation"`

	// Flat copies for gateway conditions.
	IsComplete  bool `json:"isComplete"`
	SchemaFound bool `json:"schemaFound"`
}

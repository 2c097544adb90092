// internal/workers/evaluation/validate-eligibility/models.go
package validateeligibility

type Input struct {
	ApplicationID      string                 `json:"applicationId"`
	VisaType           string                 `json:"visaType"`
	ApplicationType    string                 `json:"applicationType"`
	EvaluationData     map[string]interface{} `json:"evaluationData"`
	AdministrativeData map[string]interface{} `json:"administrativeData"`
}

type Output struct {
	MissingEvaluation     []string `json:"missingEvaluation"`
	MissingAdministrative []string `json:"missingAdministrative"`
	SchemaFound           bool     `json:"schemaFound"`
	SchemaVersion         string   `json:"schemaVersion"`
	ReadyForScoring       bool     `json:"readyForScoring"`
}

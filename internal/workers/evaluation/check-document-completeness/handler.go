// internal/workers/evaluation/check-document-completeness/handler.go
package checkdocumentcompleteness

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"immigration-workers/internal/common/logger"
	"immigration-workers/internal/common/metrics"
	"immigration-workers/internal/models"
	"immigration-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "check-document-completeness"

	requiredWeight = 0.8
	optionalWeight = 0.2

	expiringSoonDays = 30
	renewalDays      = 90
)

// criticalDocumentTypes are the identity and employment-proof documents whose
// absence blocks a filing outright.
var criticalDocumentTypes = map[string]bool{
	"passport":            true,
	"employment_contract": true,
	"career_certificate":  true,
}

type Handler struct {
	registry *registry.Registry
	logger   logger.Logger
	now      func() time.Time
}

func NewHandler(config *Config, reg *registry.Registry, log logger.Logger) *Handler {
	return &Handler{
		registry: reg,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:      time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, "VALIDATION_FAILED", err.Error())
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	snap := h.registry.Snapshot()

	schema, schemaFound := snap.Lookup(input.VisaType, input.ApplicationType)
	if !schemaFound {
		// Fail-open: with no registered requirements every submitted
		// document is unclassified and nothing can be missing.
		schema = &registry.VisaSchema{}
		h.logger.Warn("no schema registered, completeness is fail-open", map[string]interface{}{
			"visaType":        input.VisaType,
			"applicationType": input.ApplicationType,
		})
	}

	validation := evaluateSet(schema, snap.Version, input.Documents, h.now())

	h.logger.Info("document set evaluated", map[string]interface{}{
		"applicationId":   input.ApplicationID,
		"visaType":        input.VisaType,
		"documents":       len(input.Documents),
		"missingRequired": len(validation.MissingRequired),
		"completeness":    validation.Completeness.Overall,
		"isComplete":      validation.IsComplete,
	})

	return &Output{
		Validation:  validation,
		IsComplete:  validation.IsComplete,
		SchemaFound: schemaFound,
	}, nil
}

// evaluateSet validates one document set against the schema's document
// taxonomy at a given point in time.
func evaluateSet(schema *registry.VisaSchema, schemaVersion string, documents []models.SubmittedDocument, now time.Time) *models.DocumentSetValidation {
	submitted := make(map[string]bool, len(documents))
	classified := make([]models.ClassifiedDocument, 0, len(documents))

	for _, doc := range documents {
		docType := strings.TrimSpace(doc.DocumentType)
		submitted[docType] = true

		category := models.DocumentCategoryOther
		switch {
		case schema.IsRequiredDocument(docType):
			category = models.DocumentCategoryRequired
		case schema.IsOptionalDocument(docType):
			category = models.DocumentCategoryOptional
		}
		classified = append(classified, models.ClassifiedDocument{Document: doc, Category: category})
	}

	missingRequired := []string{}
	satisfiedRequired := 0
	for _, required := range schema.RequiredDocuments {
		if submitted[required] || anySubmitted(submitted, schema.AlternativesFor(required)) {
			satisfiedRequired++
			continue
		}
		missingRequired = append(missingRequired, required)
	}

	availableOptional := []string{}
	for _, optional := range schema.OptionalDocuments {
		if submitted[optional] {
			availableOptional = append(availableOptional, optional)
		}
	}

	completeness := computeCompleteness(schema, satisfiedRequired, len(availableOptional))
	expiries := checkExpiries(schema, documents, now)
	suggestions := buildSuggestions(schema, missingRequired)

	return &models.DocumentSetValidation{
		IsComplete:        len(missingRequired) == 0,
		Completeness:      completeness,
		MissingRequired:   missingRequired,
		AvailableOptional: availableOptional,
		Documents:         classified,
		Expiries:          expiries,
		Suggestions:       suggestions,
		SchemaVersion:     schemaVersion,
		EvaluatedAt:       now.UTC(),
	}
}

func anySubmitted(submitted map[string]bool, docTypes []string) bool {
	for _, docType := range docTypes {
		if submitted[docType] {
			return true
		}
	}
	return false
}

func computeCompleteness(schema *registry.VisaSchema, satisfiedRequired, availableOptional int) models.Completeness {
	required := 100.0
	if len(schema.RequiredDocuments) > 0 {
		required = float64(satisfiedRequired) / float64(len(schema.RequiredDocuments)) * 100
	}
	optional := 100.0
	if len(schema.OptionalDocuments) > 0 {
		optional = float64(availableOptional) / float64(len(schema.OptionalDocuments)) * 100
	}
	overall := requiredWeight*required + optionalWeight*optional

	return models.Completeness{
		Overall:  int(math.Round(overall)),
		Required: int(math.Round(required)),
		Optional: int(math.Round(optional)),
	}
}

// checkExpiries bands every expiry-checked document by its remaining
// validity. Documents without an issue date cannot be aged.
func checkExpiries(schema *registry.VisaSchema, documents []models.SubmittedDocument, now time.Time) []models.DocumentExpiry {
	expiries := []models.DocumentExpiry{}
	for _, doc := range documents {
		months := schema.ValidityMonths(doc.DocumentType)
		if months <= 0 {
			continue
		}
		if doc.IssueDate == nil {
			expiries = append(expiries, models.DocumentExpiry{
				DocumentType: doc.DocumentType,
				Status:       models.DocumentStatusNotExpiryChecked,
			})
			continue
		}

		expiryDate := doc.IssueDate.AddDate(0, months, 0)
		daysRemaining := int(expiryDate.Sub(now).Hours() / 24)

		status := models.DocumentStatusValid
		switch {
		case daysRemaining < 0:
			status = models.DocumentStatusExpired
		case daysRemaining <= expiringSoonDays:
			status = models.DocumentStatusExpiringSoon
		case daysRemaining <= renewalDays:
			status = models.DocumentStatusRenewalRecommended
		}

		expiries = append(expiries, models.DocumentExpiry{
			DocumentType:  doc.DocumentType,
			Status:        status,
			ExpiryDate:    expiryDate,
			DaysRemaining: daysRemaining,
		})
	}
	return expiries
}

// buildSuggestions emits one actionable entry per missing required document,
// in the schema's declaration order.
func buildSuggestions(schema *registry.VisaSchema, missingRequired []string) []models.Suggestion {
	suggestions := make([]models.Suggestion, 0, len(missingRequired))
	for _, docType := range missingRequired {
		urgency := models.UrgencyNormal
		if criticalDocumentTypes[docType] {
			urgency = models.UrgencyCritical
		}

		alternatives := schema.AlternativesFor(docType)
		message := fmt.Sprintf("submit %s", docType)
		if len(alternatives) > 0 {
			message = fmt.Sprintf("submit %s (accepted substitutes: %s)", docType, strings.Join(alternatives, ", "))
		}

		suggestions = append(suggestions, models.Suggestion{
			DocumentType: docType,
			Alternatives: alternatives,
			Urgency:      urgency,
			Message:      message,
		})
	}
	return suggestions
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

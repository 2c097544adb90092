// internal/workers/evaluation/validate-eligibility/handler.go
package validateeligibility

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"immigration-workers/internal/common/logger"
	"immigration-workers/internal/common/metrics"
	"immigration-workers/internal/models"
	"immigration-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-eligibility"
)

type Handler struct {
	registry *registry.Registry
	logger   logger.Logger
}

func NewHandler(config *Config, reg *registry.Registry, log logger.Logger) *Handler {
	return &Handler{
		registry: reg,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
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

	schema, ok := snap.Lookup(input.VisaType, input.ApplicationType)
	if !ok {
		// Fail-open for unregistered visa/application types: nothing is
		// required, so nothing is missing. SchemaFound lets callers tell
		// "nothing required" apart from "nothing registered".
		h.logger.Warn("no schema registered, validation is fail-open", map[string]interface{}{
			"visaType":        input.VisaType,
			"applicationType": input.ApplicationType,
		})
		return &Output{
			MissingEvaluation:     []string{},
			MissingAdministrative: []string{},
			SchemaFound:           false,
			SchemaVersion:         snap.Version,
			ReadyForScoring:       true,
		}, nil
	}

	evaluation := models.NormalizeEvaluationData(input.EvaluationData)
	administrative := models.NormalizeEvaluationData(input.AdministrativeData)

	missingEvaluation := missingFields(evaluation, schema.RequiredEvaluationFields)
	missingAdministrative := missingFields(administrative, schema.RequiredAdministrativeFields)

	output := &Output{
		MissingEvaluation:     missingEvaluation,
		MissingAdministrative: missingAdministrative,
		SchemaFound:           true,
		SchemaVersion:         snap.Version,
		ReadyForScoring:       len(missingEvaluation) == 0 && len(missingAdministrative) == 0,
	}

	h.logger.Info("eligibility data validated", map[string]interface{}{
		"applicationId":         input.ApplicationID,
		"visaType":              input.VisaType,
		"missingEvaluation":     len(missingEvaluation),
		"missingAdministrative": len(missingAdministrative),
		"readyForScoring":       output.ReadyForScoring,
	})

	return output, nil
}

// missingFields reports required fields absent from the normalized data, in
// schema declaration order.
func missingFields(data map[string]interface{}, required []string) []string {
	missing := []string{}
	for _, field := range required {
		v, ok := data[field]
		if !models.FieldPresent(v, ok) {
			missing = append(missing, field)
		}
	}
	return missing
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

// internal/workers/evaluation/score-eligibility/handler.go
package scoreeligibility

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	commonerrors "immigration-workers/internal/common/errors"
	"immigration-workers/internal/common/logger"
	"immigration-workers/internal/common/metrics"
	"immigration-workers/internal/models"
	"immigration-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "score-eligibility"
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
		h.failJob(client, job, &commonerrors.StandardError{
			Code:      commonerrors.ErrCodeParseError,
			Message:   "Failed to parse job variables",
			Details:   err.Error(),
			Timestamp: time.Now().UTC(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		stdErr, ok := err.(*commonerrors.StandardError)
		if !ok {
			stdErr = commonerrors.NewDataIntegrityError(err.Error())
		}
		h.failJob(client, job, stdErr)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	snap := h.registry.Snapshot()

	schema, ok := snap.Lookup(input.VisaType, input.ApplicationType)
	if !ok {
		// Validation is fail-open, scoring is not. A score without a rule
		// table would be meaningless.
		return nil, commonerrors.NewSchemaNotFoundError(input.VisaType, input.ApplicationType)
	}

	data := models.NormalizeEvaluationData(input.EvaluationData)

	result, err := score(schema, snap.Version, input, data)
	if err != nil {
		return nil, err
	}
	result.VisaType = input.VisaType
	result.ApplicationType = input.ApplicationType

	metrics.EvaluationsScored.WithLabelValues(input.VisaType, result.Status).Inc()

	h.logger.Info("eligibility scored", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"evaluationId":  result.EvaluationID,
		"visaType":      input.VisaType,
		"overallScore":  result.OverallScore,
		"confidence":    result.Confidence,
		"status":        result.Status,
	})

	return &Output{
		Evaluation:   result,
		OverallScore: result.OverallScore,
		Confidence:   result.Confidence,
		Status:       result.Status,
	}, nil
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, stdErr *commonerrors.StandardError) {
	bpmnErr := commonerrors.ConvertToBPMNError(stdErr)
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    bpmnErr.Code,
		"errorMessage": bpmnErr.Message,
		"details":      bpmnErr.Details,
	})
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, bpmnErr.Code).Inc()

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(fmt.Sprintf("%s: %s", bpmnErr.Message, bpmnErr.Details)).
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

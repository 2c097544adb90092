// internal/workers/evaluation/persist-evaluation-record/handler.go
package persistevaluationrecord

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	commonerrors "immigration-workers/internal/common/errors"
	"immigration-workers/internal/common/logger"
	"immigration-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "persist-evaluation-record"
)

type Handler struct {
	store  *Store
	logger logger.Logger
}

func NewHandler(config *Config, store *Store, log logger.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
			stdErr = commonerrors.NewEvaluationPersistFailedError(err)
		}
		h.failJob(client, job, stdErr)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Evaluation == nil || input.Evaluation.EvaluationID == "" {
		return nil, commonerrors.NewValidationFailedError(
			"nothing to persist without an evaluation", map[string]interface{}{
				"missing": []string{"evaluation"},
			})
	}

	if err := h.store.InsertEvaluation(ctx, input.ApplicationID, input.Evaluation, input.DocumentValidation); err != nil {
		return nil, err
	}

	h.logger.Info("evaluation record persisted", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"evaluationId":  input.Evaluation.EvaluationID,
		"status":        input.Evaluation.Status,
	})

	return &Output{
		EvaluationID: input.Evaluation.EvaluationID,
		Persisted:    true,
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

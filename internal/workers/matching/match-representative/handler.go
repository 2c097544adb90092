// internal/workers/matching/match-representative/handler.go
package matchrepresentative

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
	TaskType = "match-representative"
)

type Handler struct {
	directory *Directory
	logger    logger.Logger
}

// NewHandler wires the matching worker. The directory may be nil when every
// process instance supplies its own candidate pool.
func NewHandler(config *Config, directory *Directory, log logger.Logger) *Handler {
	return &Handler{
		directory: directory,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
			stdErr = commonerrors.NewDirectorySearchFailedError(err)
		}
		h.failJob(client, job, stdErr)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Evaluation == nil {
		return nil, commonerrors.NewValidationFailedError(
			"matching requires a completed evaluation", map[string]interface{}{
				"missing": []string{"evaluation"},
			})
	}

	pool := input.CandidatePool
	if len(pool) == 0 && h.directory != nil {
		fetched, err := h.directory.FetchPool(ctx)
		if err != nil {
			return nil, err
		}
		pool = fetched
	}

	result := match(input.Evaluation, input.Preferences, pool)

	if len(result.Recommendations) == 0 {
		metrics.MatchingExhausted.WithLabelValues(input.Evaluation.VisaType).Inc()
		h.logger.Warn("no candidates passed the matching filters", map[string]interface{}{
			"applicationId":    input.ApplicationID,
			"recommendedGrade": result.RecommendedGrade,
			"poolSize":         len(pool),
			"filterReasons":    result.FilterReasons,
		})
	} else {
		h.logger.Info("representatives matched", map[string]interface{}{
			"applicationId":    input.ApplicationID,
			"recommendedGrade": result.RecommendedGrade,
			"poolSize":         len(pool),
			"recommendations":  len(result.Recommendations),
			"topScore":         result.Recommendations[0].MatchingScore,
		})
	}

	return &Output{
		RecommendedGrade:    result.RecommendedGrade,
		RequiredSpecialties: result.RequiredSpecialties,
		Recommendations:     result.Recommendations,
		FilterReasons:       result.FilterReasons,
		MatchFound:          len(result.Recommendations) > 0,
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

// internal/workers/notification/notify-expiring-documents/handler.go
package notifyexpiringdocuments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	commonerrors "immigration-workers/internal/common/errors"
	"immigration-workers/internal/common/logger"
	"immigration-workers/internal/common/metrics"
	"immigration-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "notify-expiring-documents"
)

// SESService is the email surface the worker needs; satisfied by the shared
// SES client and by test fakes.
type SESService interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// SNSService is the SMS surface.
type SNSService interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type Handler struct {
	config *Config
	ses    SESService
	sns    SNSService
	logger logger.Logger
}

func NewHandler(config *Config, sesService SESService, snsService SNSService, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		ses:    sesService,
		sns:    snsService,
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
			stdErr = commonerrors.NewNotificationSendFailedError("unknown", err)
		}
		h.failJob(client, job, stdErr)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	urgent := urgentExpiries(input.Expiries)
	if len(urgent) == 0 {
		h.logger.Info("no expiring documents, nothing to notify", map[string]interface{}{
			"applicationId": input.ApplicationID,
		})
		return &Output{Skipped: true, NotifiedDocuments: []string{}}, nil
	}

	docTypes := make([]string, 0, len(urgent))
	for _, expiry := range urgent {
		docTypes = append(docTypes, expiry.DocumentType)
	}

	output := &Output{
		NotificationID:    uuid.New().String(),
		NotifiedDocuments: docTypes,
	}

	if h.config.EmailEnabled && h.ses != nil && input.RecipientEmail != "" {
		messageID, err := h.sendEmail(ctx, input, urgent)
		if err != nil {
			return nil, commonerrors.NewNotificationSendFailedError("email", err)
		}
		output.EmailMessageID = messageID
	}

	if h.config.SMSEnabled && h.sns != nil && input.RecipientPhone != "" {
		messageID, err := h.sendSMS(ctx, input, urgent)
		if err != nil {
			return nil, commonerrors.NewNotificationSendFailedError("sms", err)
		}
		output.SMSMessageID = messageID
	}

	h.logger.Info("expiry notification sent", map[string]interface{}{
		"applicationId":  input.ApplicationID,
		"notificationId": output.NotificationID,
		"documents":      docTypes,
		"email":          output.EmailMessageID != "",
		"sms":            output.SMSMessageID != "",
	})

	return output, nil
}

// urgentExpiries keeps the bands that warrant interrupting the applicant.
func urgentExpiries(expiries []models.DocumentExpiry) []models.DocumentExpiry {
	urgent := []models.DocumentExpiry{}
	for _, expiry := range expiries {
		if expiry.Status == models.DocumentStatusExpired || expiry.Status == models.DocumentStatusExpiringSoon {
			urgent = append(urgent, expiry)
		}
	}
	return urgent
}

func (h *Handler) sendEmail(ctx context.Context, input *Input, urgent []models.DocumentExpiry) (string, error) {
	var body strings.Builder
	name := input.ApplicantName
	if name == "" {
		name = "applicant"
	}
	fmt.Fprintf(&body, "Dear %s,\n\nthe following documents on application %s need attention:\n\n", name, input.ApplicationID)
	for _, expiry := range urgent {
		if expiry.Status == models.DocumentStatusExpired {
			fmt.Fprintf(&body, "- %s: expired on %s\n", expiry.DocumentType, expiry.ExpiryDate.Format("2006-01-02"))
			continue
		}
		fmt.Fprintf(&body, "- %s: expires in %d day(s) on %s\n", expiry.DocumentType, expiry.DaysRemaining, expiry.ExpiryDate.Format("2006-01-02"))
	}
	body.WriteString("\nPlease renew and re-upload them to keep the application on track.\n")

	result, err := h.ses.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(h.config.SenderEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{input.RecipientEmail},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{
				Data: aws.String(fmt.Sprintf("Document renewal needed for application %s", input.ApplicationID)),
			},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body.String())},
			},
		},
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(result.MessageId), nil
}

func (h *Handler) sendSMS(ctx context.Context, input *Input, urgent []models.DocumentExpiry) (string, error) {
	docTypes := make([]string, 0, len(urgent))
	for _, expiry := range urgent {
		docTypes = append(docTypes, expiry.DocumentType)
	}

	result, err := h.sns.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(input.RecipientPhone),
		Message: aws.String(fmt.Sprintf(
			"[Visa] Documents need renewal for application %s: %s",
			input.ApplicationID, strings.Join(docTypes, ", "))),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(result.MessageId), nil
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

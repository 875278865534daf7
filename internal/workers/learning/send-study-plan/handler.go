// internal/workers/learning/send-study-plan/handler.go
package sendstudyplan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	commonaws "learnstyle-workers/internal/common/aws"
	apperrors "learnstyle-workers/internal/common/errors"
	"learnstyle-workers/internal/common/logger"
	"learnstyle-workers/internal/common/metrics"
	"learnstyle-workers/internal/common/validation"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-study-plan"
)

// EmailSender is satisfied by *commonaws.SESClient.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type Handler struct {
	config     *Config
	sender     EmailSender
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

// NewHandler wires the handler. sender may be nil when email is disabled.
func NewHandler(config *Config, sender EmailSender, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		sender:     sender,
		logger:     l,
		errHandler: apperrors.NewErrorHandler(l),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, apperrors.NewParseError(err))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return nil, apperrors.NewInputValidationFailedError("email is required")
	}
	if !validation.ValidateEmail(email) {
		return nil, apperrors.NewInputValidationFailedError(fmt.Sprintf("email is not a valid address: %s", email))
	}

	notificationID := uuid.New().String()
	sentAt := time.Now().UTC().Format(time.RFC3339)

	if !h.config.EmailEnabled || h.sender == nil {
		h.logger.Info("email disabled, study plan not sent", map[string]interface{}{
			"notificationId": notificationID,
		})
		return &Output{NotificationID: notificationID, Status: StatusDisabled, SentAt: sentAt}, nil
	}

	text, html, err := renderPlan(input)
	if err != nil {
		return nil, apperrors.NewNotificationSendFailedError("email", fmt.Errorf("render plan: %w", err))
	}

	if err := h.sendEmail(ctx, email, h.config.Subject, text, html); err != nil {
		h.logger.Error("email send failed", map[string]interface{}{
			"error":          err,
			"email":          email,
			"circuitOpen":    commonaws.IsCircuitOpen(err),
			"notificationId": notificationID,
		})
		return &Output{
			NotificationID: notificationID,
			Status:         StatusFailed,
			SentAt:         sentAt,
			Error:          err.Error(),
		}, nil
	}

	h.logger.Info("study plan sent", map[string]interface{}{
		"notificationId":  notificationID,
		"clusterName":     input.ClusterName,
		"recommendations": len(input.Recommendations),
	})

	return &Output{NotificationID: notificationID, Status: StatusSent, SentAt: sentAt}, nil
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, text, html string) error {
	_, err := h.sender.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(text)},
				Html: &types.Content{Data: aws.String(html)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
	h.errHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

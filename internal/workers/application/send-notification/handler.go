// internal/workers/application/send-notification/handler.go
package sendnotification

import (
	"context"
	"encoding/json"
	"time"

	awsclients "social-support-intake/internal/common/aws"
	"social-support-intake/internal/common/config"
	"social-support-intake/internal/common/errors"
	"social-support-intake/internal/common/i18n"
	"social-support-intake/internal/common/logger"
	"social-support-intake/internal/common/metrics"
	"social-support-intake/internal/common/observability"
	"social-support-intake/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = config.WorkerSendNotification

// SESService is the part of *ses.Client the worker uses.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SNSService is the part of *sns.Client the worker uses.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config     *Config
	sesClient  SESService
	snsClient  SNSService
	errHandler *errors.ErrorHandler
	obs        *observability.Observability
	logger     logger.Logger
	now        func() time.Time
}

func NewHandler(cfg *Config, sesClient SESService, snsClient SNSService, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     cfg,
		sesClient:  sesClient,
		snsClient:  snsClient,
		errHandler: errors.NewErrorHandler(l),
		obs:        obs,
		logger:     l,
		now:        time.Now,
	}
}

// NewHandlerFromClients wires the handler to real AWS clients.
func NewHandlerFromClients(cfg *Config, clients *awsclients.Clients, obs *observability.Observability, log logger.Logger) *Handler {
	return NewHandler(cfg, clients.SES, clients.SNS, obs, log)
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.GetKey(),
		"workflowKey": job.GetProcessInstanceKey(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		h.failJob(client, job, errors.NewInvalidJobInputError(err))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
}

// Execute confirms the submission to the applicant. An email failure fails the job so it
// is retried; an SMS failure after a delivered email is recorded but does not.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	locale := i18n.Parse(input.Locale)
	tmpl, err := lookupTemplate(models.NotificationSubmitted, locale)
	if err != nil {
		return nil, errors.NewInvalidJobInputError(err)
	}

	personal := input.Application.Personal
	data := map[string]string{
		"name":          personal.Name,
		"applicationId": input.ApplicationID,
	}
	sentAt := h.now().UTC().Format(time.RFC3339)
	output := &Output{NotificationID: uuid.New().String(), Status: StatusDisabled, SentAt: sentAt}

	delivery := func(channel, status, messageID string) models.OutboundNotification {
		return models.OutboundNotification{
			ApplicationID: input.ApplicationID,
			Type:          models.NotificationSubmitted,
			Channel:       channel,
			Locale:        string(locale),
			Status:        status,
			MessageID:     messageID,
			SentAt:        sentAt,
		}
	}

	if h.config.EmailEnabled && personal.Email != "" {
		id, err := h.sendEmail(ctx, personal.Email, renderTemplate(tmpl.Subject, data), renderTemplate(tmpl.Body, data))
		if err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"error":         err.Error(),
				"applicationId": input.ApplicationID,
			})
			return nil, errors.NewNotificationSendFailedError(ChannelEmail, err)
		}
		output.Deliveries = append(output.Deliveries, delivery(ChannelEmail, StatusSent, id))
		output.Status = StatusSent
	}

	if h.config.SMSEnabled && personal.Phone != "" {
		id, err := h.sendSMS(ctx, personal.Phone, renderTemplate(tmpl.SMSBody, data))
		switch {
		case err == nil:
			output.Deliveries = append(output.Deliveries, delivery(ChannelSMS, StatusSent, id))
			output.Status = StatusSent
		case output.Status == StatusSent:
			h.logger.Warn("SMS send failed", map[string]interface{}{
				"error":         err.Error(),
				"applicationId": input.ApplicationID,
			})
			output.Deliveries = append(output.Deliveries, delivery(ChannelSMS, StatusFailed, ""))
		default:
			return nil, errors.NewNotificationSendFailedError(ChannelSMS, err)
		}
	}

	h.logger.Info("notification processed", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"status":        output.Status,
		"locale":        string(locale),
		"deliveries":    len(output.Deliveries),
	})
	return output, nil
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) (string, error) {
	out, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.MessageId), nil
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) (string, error) {
	out, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.MessageId), nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.obs.RecordJobProcessed(context.Background(), TaskType, "failed")
	h.errHandler.HandleJobError(context.Background(), client, job, err)
}

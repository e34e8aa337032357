// internal/workers/application/send-notification/handler_test.go
package sendnotification

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"social-support-intake/internal/common/config"
	"social-support-intake/internal/common/errors"
	"social-support-intake/internal/common/i18n"
	"social-support-intake/internal/common/logger"
	"social-support-intake/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	calls         []*ses.SendEmailInput
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.calls = append(m.calls, params)
	if m.SendEmailFunc == nil {
		return &ses.SendEmailOutput{MessageId: aws.String("ses-msg-1")}, nil
	}
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	calls       []*sns.PublishInput
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls = append(m.calls, params)
	if m.PublishFunc == nil {
		return &sns.PublishOutput{MessageId: aws.String("sns-msg-1")}, nil
	}
	return m.PublishFunc(ctx, params, optFns...)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	var ncfg config.NotificationConfig
	ncfg.Email.Enabled = true
	ncfg.Email.FromEmail = "noreply@support.example.gov"
	ncfg.SMS.Enabled = true
	return LoadConfig(config.WorkerConfig{Timeout: 10000}, ncfg)
}

func createTestInput(locale string) *Input {
	return &Input{
		ApplicationID: "app-7781",
		Application: models.ApplicationRecord{
			Personal: models.PersonalInfo{
				Name:  "Huda Saleh",
				Email: "huda@example.com",
				Phone: "+971551234567",
			},
		},
		Locale:      locale,
		SubmittedAt: "2025-02-14T12:00:00Z",
	}
}

func createTestHandler(t *testing.T, cfg *Config, sesMock *MockSESService, snsMock *MockSNSService) *Handler {
	t.Helper()
	h := NewHandler(cfg, sesMock, snsMock, nil, logger.NewTestLogger(t))
	h.now = func() time.Time { return time.Date(2025, time.February, 14, 12, 0, 5, 0, time.UTC) }
	return h
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_EmailAndSMS(t *testing.T) {
	sesMock, snsMock := &MockSESService{}, &MockSNSService{}
	h := createTestHandler(t, createTestConfig(), sesMock, snsMock)

	output, err := h.Execute(context.Background(), createTestInput("en"))
	require.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)
	assert.NotEmpty(t, output.NotificationID)
	assert.Equal(t, "2025-02-14T12:00:05Z", output.SentAt)
	require.Len(t, output.Deliveries, 2)
	assert.Equal(t, ChannelEmail, output.Deliveries[0].Channel)
	assert.Equal(t, "ses-msg-1", output.Deliveries[0].MessageID)
	assert.Equal(t, ChannelSMS, output.Deliveries[1].Channel)

	require.Len(t, sesMock.calls, 1)
	email := sesMock.calls[0]
	assert.Equal(t, []string{"huda@example.com"}, email.Destination.ToAddresses)
	assert.Equal(t, "noreply@support.example.gov", aws.ToString(email.Source))
	assert.Equal(t, "Your application has been received", aws.ToString(email.Message.Subject.Data))
	assert.Contains(t, aws.ToString(email.Message.Body.Text.Data), "Dear Huda Saleh")
	assert.Contains(t, aws.ToString(email.Message.Body.Text.Data), "app-7781")

	require.Len(t, snsMock.calls, 1)
	assert.Equal(t, "+971551234567", aws.ToString(snsMock.calls[0].PhoneNumber))
}

func TestHandler_Execute_ArabicTemplates(t *testing.T) {
	sesMock, snsMock := &MockSESService{}, &MockSNSService{}
	h := createTestHandler(t, createTestConfig(), sesMock, snsMock)

	output, err := h.Execute(context.Background(), createTestInput("ar"))
	require.NoError(t, err)
	assert.Equal(t, "ar", output.Deliveries[0].Locale)
	assert.Equal(t, "تم استلام طلبك", aws.ToString(sesMock.calls[0].Message.Subject.Data))
	assert.Contains(t, aws.ToString(snsMock.calls[0].Message), "app-7781")
}

func TestHandler_Execute_UnknownLocaleFallsBackToEnglish(t *testing.T) {
	sesMock := &MockSESService{}
	h := createTestHandler(t, createTestConfig(), sesMock, &MockSNSService{})

	_, err := h.Execute(context.Background(), createTestInput("fr"))
	require.NoError(t, err)
	assert.Equal(t, "Your application has been received", aws.ToString(sesMock.calls[0].Message.Subject.Data))
}

func TestHandler_Execute_Disabled(t *testing.T) {
	sesMock, snsMock := &MockSESService{}, &MockSNSService{}
	h := createTestHandler(t, LoadConfig(config.WorkerConfig{}, config.NotificationConfig{}), sesMock, snsMock)

	output, err := h.Execute(context.Background(), createTestInput("en"))
	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, output.Status)
	assert.Empty(t, output.Deliveries)
	assert.Empty(t, sesMock.calls)
	assert.Empty(t, snsMock.calls)
}

func TestHandler_Execute_NoContactDetails(t *testing.T) {
	sesMock, snsMock := &MockSESService{}, &MockSNSService{}
	h := createTestHandler(t, createTestConfig(), sesMock, snsMock)
	input := createTestInput("en")
	input.Application.Personal.Email = ""
	input.Application.Personal.Phone = ""

	output, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, output.Status)
}

func TestHandler_Execute_EmailFailure(t *testing.T) {
	sesMock := &MockSESService{
		SendEmailFunc: func(context.Context, *ses.SendEmailInput, ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, stderrors.New("throttled")
		},
	}
	snsMock := &MockSNSService{}
	h := createTestHandler(t, createTestConfig(), sesMock, snsMock)

	output, err := h.Execute(context.Background(), createTestInput("en"))
	assert.Nil(t, output)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotificationSendFailed))
	assert.True(t, errors.IsRetryable(err))
	assert.Empty(t, snsMock.calls)
}

func TestHandler_Execute_SMSFailureAfterEmail(t *testing.T) {
	snsMock := &MockSNSService{
		PublishFunc: func(context.Context, *sns.PublishInput, ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, stderrors.New("invalid parameter")
		},
	}
	h := createTestHandler(t, createTestConfig(), &MockSESService{}, snsMock)

	output, err := h.Execute(context.Background(), createTestInput("en"))
	require.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)
	require.Len(t, output.Deliveries, 2)
	assert.Equal(t, StatusFailed, output.Deliveries[1].Status)
}

func TestHandler_Execute_SMSOnlyFailure(t *testing.T) {
	snsMock := &MockSNSService{
		PublishFunc: func(context.Context, *sns.PublishInput, ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, stderrors.New("endpoint unreachable")
		},
	}
	cfg := createTestConfig()
	cfg.EmailEnabled = false
	h := createTestHandler(t, cfg, &MockSESService{}, snsMock)

	_, err := h.Execute(context.Background(), createTestInput("en"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotificationSendFailed))
}

// ==========================
// Templates
// ==========================

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
		data map[string]string
		want string
	}{
		{"replaces", "Hi {{name}}", map[string]string{"name": "Sara"}, "Hi Sara"},
		{"drops missing", "Ref {{applicationId}}{{missing}}.", map[string]string{"applicationId": "a1"}, "Ref a1."},
		{"unterminated", "Hi {{name", map[string]string{}, "Hi {{name"},
		{"repeated", "{{x}}-{{x}}", map[string]string{"x": "1"}, "1-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderTemplate(tt.tmpl, tt.data))
		})
	}
}

func TestLookupTemplate(t *testing.T) {
	tmpl, err := lookupTemplate(models.NotificationSubmitted, i18n.Arabic)
	require.NoError(t, err)
	assert.Equal(t, "ar", tmpl.Locale)

	_, err = lookupTemplate("unknown_type", i18n.English)
	assert.Error(t, err)
}

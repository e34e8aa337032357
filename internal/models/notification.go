// internal/models/notification.go
package models

import "time"

// Notification kinds surfaced to the wizard UI.
const (
	NotificationSuggestionFailed = "suggestion_failed"
	NotificationSubmitted        = "application_submitted"
	NotificationSubmitFailed     = "submission_failed"
)

// Notification is a transient, auto-expiring message shown alongside the wizard.
type Notification struct {
	Kind       string    `json:"kind"`
	Severity   string    `json:"severity"` // "error", "success", "info"
	MessageKey string    `json:"messageKey"`
	Message    string    `json:"message"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Expired reports whether the notification should no longer be shown at now.
func (n *Notification) Expired(now time.Time) bool {
	return n == nil || !now.Before(n.ExpiresAt)
}

// OutboundNotification records a message sent to the applicant after submission.
type OutboundNotification struct {
	ApplicationID string `json:"applicationId"`
	Type          string `json:"type"`    // "application_submitted"
	Channel       string `json:"channel"` // "email", "sms"
	Locale        string `json:"locale"`
	Status        string `json:"status"` // "sent", "failed", "disabled"
	MessageID     string `json:"messageId,omitempty"`
	SentAt        string `json:"sentAt,omitempty"`
}

type NotificationTemplate struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Locale  string `json:"locale"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	SMSBody string `json:"smsBody"`
}

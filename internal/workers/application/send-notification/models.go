// internal/workers/application/send-notification/models.go
package sendnotification

import "social-support-intake/internal/models"

type Input struct {
	ApplicationID string                   `json:"applicationId"`
	Application   models.ApplicationRecord `json:"application"`
	Locale        string                   `json:"locale"`
	SubmittedAt   string                   `json:"submittedAt"`
}

type Output struct {
	NotificationID string                        `json:"notificationId"`
	Status         string                        `json:"status"` // "sent", "failed", "disabled"
	Deliveries     []models.OutboundNotification `json:"deliveries,omitempty"`
	SentAt         string                        `json:"sentAt"`
}

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

// Channels
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// internal/workers/application/send-notification/models.go
package sendnotification

import json "github.com/goccy/go-json"

type Input struct {
	NotificationType string          `json:"notificationType"`
	ApplicationID    string          `json:"applicationId"`
	TenantID         string          `json:"tenantId"`
	WizardState      json.RawMessage `json:"wizardState"`
	EnvelopeID       string          `json:"envelopeId,omitempty"`
	SigningURL       string          `json:"signingUrl,omitempty"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"` // "sent", "failed", "disabled"
	Channels       []string `json:"channels"`
	FailedChannels []string `json:"failedChannels,omitempty"`
	SentAt         string   `json:"sentAt"` // ISO 8601
}

// Notification types
const (
	TypeApplicationReceived = "application_received"
	TypeSigningRequested    = "signing_requested"
)

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

// Channels
const (
	ChannelEmailSES  = "email:ses"
	ChannelEmailSMTP = "email:smtp"
	ChannelSMS       = "sms"
	ChannelTopic     = "topic"
)

const EventNotificationSent = "notification_sent"

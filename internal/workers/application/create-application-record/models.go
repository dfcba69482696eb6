package createapplicationrecord

import json "github.com/goccy/go-json"

type Input struct {
	ApplicationID string          `json:"applicationId"`
	TenantID      string          `json:"tenantId"`
	WizardState   json.RawMessage `json:"wizardState"`
}

type Output struct {
	RecordID          string `json:"recordId"`
	ApplicationID     string `json:"applicationId"`
	ApplicationStatus string `json:"applicationStatus"`
	CreatedAt         string `json:"createdAt"` // ISO 8601
}

const (
	StatusSubmitted = "submitted"

	EventSubmitted = "application_submitted"
)

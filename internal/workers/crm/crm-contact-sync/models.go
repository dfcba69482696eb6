package crmcontactsync

import json "github.com/goccy/go-json"

type Input struct {
	ApplicationID string          `json:"applicationId"`
	TenantID      string          `json:"tenantId"`
	WizardState   json.RawMessage `json:"wizardState"`
}

type Output struct {
	Status      string `json:"crmStatus"` // "created", "updated", "disabled"
	ContactID   string `json:"crmContactId,omitempty"`
	CRMProvider string `json:"crmProvider,omitempty"`
	SyncedAt    string `json:"crmSyncedAt"` // ISO 8601
}

const (
	StatusCreated  = "created"
	StatusUpdated  = "updated"
	StatusDisabled = "disabled"

	providerZoho = "zoho"
)

package buildsigningsession

import json "github.com/goccy/go-json"

type Input struct {
	ApplicationID string          `json:"applicationId"`
	TenantID      string          `json:"tenantId"`
	WizardState   json.RawMessage `json:"wizardState"`
}

type Output struct {
	ApplicationID string `json:"applicationId"`
	EnvelopeID    string `json:"envelopeId"`
	SigningURL    string `json:"signingUrl,omitempty"`
	SignerCount   int    `json:"signerCount"`
	RequestedAt   string `json:"requestedAt"` // ISO 8601
}

const EventSigningRequested = "signing_requested"

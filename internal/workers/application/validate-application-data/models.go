package validateapplicationdata

import json "github.com/goccy/go-json"

type Input struct {
	ApplicationID string          `json:"applicationId"`
	TenantID      string          `json:"tenantId"`
	WizardState   json.RawMessage `json:"wizardState"`
}

type Output struct {
	IsValid         bool   `json:"isValid"`
	ApplicationID   string `json:"applicationId"`
	Bedrijfsnaam    string `json:"bedrijfsnaam"`
	KvkNummer       string `json:"kvkNummer"`
	ContactEmail    string `json:"contactEmail"`
	OndernemingType string `json:"ondernemingType"`
	DeMinimisType   string `json:"deMinimisType"`
}

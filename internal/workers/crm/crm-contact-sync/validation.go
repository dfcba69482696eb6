package crmcontactsync

import "subsidy-wizard/internal/common/validation"

// GetInputSchema describes the job variables the worker reads. Other process variables pass.
func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"wizardState"},
		Properties: map[string]validation.Property{
			"applicationId": {
				Type:        "string",
				Description: "Application id, used when the wizard state carries none",
				MaxLength:   validation.Int(200),
			},
			"tenantId": {
				Type:        "string",
				Description: "Tenant the application was filed under",
				MaxLength:   validation.Int(50),
			},
			"wizardState": {
				Type:        "object",
				Description: "Draft snapshot of the submitted wizard",
				Required:    []string{"email"},
				Properties: map[string]validation.Property{
					"email": {Type: "string", Format: "email"},
				},
			},
		},
		AdditionalProperties: true,
	}
}

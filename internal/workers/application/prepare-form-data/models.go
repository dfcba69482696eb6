package prepareformdata

import (
	"subsidy-wizard/internal/wizard/export"

	json "github.com/goccy/go-json"
)

type Input struct {
	ApplicationID string          `json:"applicationId"`
	TenantID      string          `json:"tenantId"`
	WizardState   json.RawMessage `json:"wizardState"`
}

type Output struct {
	ApplicationID string            `json:"applicationId"`
	TenantID      string            `json:"tenantId"`
	FormData      export.Structured `json:"formData"`
	PDFFields     export.PDFFields  `json:"pdfFields"`
	PreparedAt    string            `json:"preparedAt"` // ISO 8601
}

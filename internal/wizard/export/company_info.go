package export

import "subsidy-wizard/internal/wizard/state"

// CompanyInfo is the company details submission sent when the applicant leaves the first step.
// The backend uses it to create the application folder and the client record.
type CompanyInfo struct {
	ApplicationID string  `json:"applicationId"`
	TenantID      string  `json:"tenantId"`
	Datum         string  `json:"datum"`
	FolderID      *string `json:"folderId,omitempty"`

	Bedrijfsnaam      string `json:"bedrijfsnaam"`
	KvkNummer         string `json:"kvkNummer"`
	BtwID             string `json:"btwId"`
	Website           string `json:"website"`
	Adres             string `json:"adres"`
	Postcode          string `json:"postcode"`
	Plaats            string `json:"plaats"`
	Provincie         string `json:"provincie"`
	NaceClassificatie string `json:"naceClassificatie"`

	ContactNaam         string `json:"contactNaam"`
	ContactTelefoon     string `json:"contactTelefoon"`
	ContactEmail        string `json:"contactEmail"`
	ContactGeslacht     string `json:"contactGeslacht"`
	HoofdcontactPersoon string `json:"hoofdcontactPersoon"`
}

type CompanyInfoResponse struct {
	Success  bool   `json:"success"`
	FolderID string `json:"folderId,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

const (
	defaultGender      = "anders"
	defaultMainContact = "Wout"
)

// BuildCompanyInfo extracts the first-step fields. An unset gender reads as "anders" and an
// unset main contact as "Wout".
func BuildCompanyInfo(s state.WizardState, tenantID string) CompanyInfo {
	info := CompanyInfo{
		ApplicationID:       s.AppID(),
		TenantID:            tenantID,
		Datum:               s.Datum,
		FolderID:            s.FolderID,
		Bedrijfsnaam:        s.Bedrijfsnaam,
		KvkNummer:           s.KvkNummer,
		BtwID:               s.BtwID,
		Website:             s.Website,
		Adres:               s.Adres,
		Postcode:            s.Postcode,
		Plaats:              s.Plaats,
		Provincie:           s.Provincie,
		NaceClassificatie:   s.NaceClassificatie,
		ContactNaam:         s.ContactNaam,
		ContactTelefoon:     s.ContactTelefoon,
		ContactEmail:        s.Email,
		ContactGeslacht:     s.ContactGeslacht,
		HoofdcontactPersoon: s.HoofdcontactPersoon,
	}
	if info.ContactGeslacht == "" {
		info.ContactGeslacht = defaultGender
	}
	if info.HoofdcontactPersoon == "" {
		info.HoofdcontactPersoon = defaultMainContact
	}
	return info
}

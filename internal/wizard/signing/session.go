// Package signing builds the e-signature template session that pre-fills the subsidy documents.
package signing

import (
	"strconv"
	"strings"
	"time"

	"subsidy-wizard/internal/wizard/classification"
	"subsidy-wizard/internal/wizard/format"
	"subsidy-wizard/internal/wizard/state"
)

type Role string

const (
	RoleApplicant    Role = "Applicant"
	RoleSecondSigner Role = "SecondSigner"
)

const (
	groupDeMinimis   = "de-minimis-radio"
	groupCompanyType = "onderneming-type"
	listCompanySize  = "CompanySize"
	returnPath       = "/bedankt"
)

// RadioOption.Selected is "true" or "false"; the provider expects strings.
type RadioOption struct {
	Value    string `json:"value"`
	Selected string `json:"selected"`
}

type RadioGroupTab struct {
	GroupName string        `json:"groupName"`
	Radios    []RadioOption `json:"radios"`
}

type TextTab struct {
	TabLabel string `json:"tabLabel"`
	Value    string `json:"value"`
}

type CheckboxTab struct {
	TabLabel string `json:"tabLabel"`
	Selected string `json:"selected"`
}

type ListTab struct {
	TabLabel string `json:"tabLabel"`
	Value    string `json:"value"`
}

type SignerTabs struct {
	RadioGroupTabs []RadioGroupTab `json:"radioGroupTabs,omitempty"`
	TextTabs       []TextTab       `json:"textTabs"`
	CheckboxTabs   []CheckboxTab   `json:"checkboxTabs,omitempty"`
	ListTabs       []ListTab       `json:"listTabs,omitempty"`
}

type Signer struct {
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	RoleName Role        `json:"roleName"`
	Tabs     *SignerTabs `json:"tabs,omitempty"`
}

type Session struct {
	TemplateID   string   `json:"templateId"`
	Signers      []Signer `json:"signers"`
	ReturnURL    string   `json:"returnUrl"`
	ForEmbedding bool     `json:"forEmbedding,omitempty"`
}

// Request is the body posted to the signing endpoint.
type Request struct {
	Session
	TenantID      string `json:"tenantId"`
	ApplicationID string `json:"applicationId"`
}

// Response is the signing endpoint reply. On failure the detail is in ValidationErrors, Message or Error.
type Response struct {
	Success          bool     `json:"success"`
	EnvelopeID       string   `json:"envelopeId,omitempty"`
	SigningURL       string   `json:"signingUrl,omitempty"`
	Error            string   `json:"error,omitempty"`
	Message          string   `json:"message,omitempty"`
	ValidationErrors []string `json:"validationErrors,omitempty"`
}

// Builder turns a wizard state into a signing session. Now defaults to time.Now.
type Builder struct {
	ReturnBaseURL string
	Now           func() time.Time
}

// Build never fails; Validate reports payloads the provider would reject.
func (b Builder) Build(s state.WizardState, templateID string) Session {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}

	d1 := s.Bestuurder1
	primaryName := d1.SignerName()
	primaryEmail := firstNonEmpty(d1.Email, s.Email)

	text := make([]TextTab, 0, 26)
	switch s.DeMinimisType {
	case state.StateAidDeMinimis:
		text = append(text, tab("minimis-2.1", amountOrZero(s.DeMinimisAmount)))
	case state.StateAidOther:
		text = append(text,
			tab("minimis-3.1", amountOrZero(s.AndereStaatssteunAmount)),
			tab("minimis-3.2", format.SlashDate(s.AndereStaatssteunDatum)),
		)
	}

	d2 := s.Bestuurder2
	text = append(text,
		tab("bedrijfsnaam", s.Bedrijfsnaam),
		tab("naam", primaryName),
		tab("functie", d1.Functie),
		tab("email", primaryEmail),
		tab("voorletters-tekenbevoegde", d1.Voorletters),
		tab("achternaam-tekenbevoegde", d1.Achternaam),
		tab("functie-tekenbevoegde", d1.Functie),
		tab("voorletters-tekenbevoegde-2", d2.Voorletters),
		tab("achternaam-tekenbevoegde-2", d2.Achternaam),
		tab("functie-tekenbevoegde-2", d2.Functie),
		tab("nace", s.NaceClassificatie),
		tab("kvk", s.KvkNummer),
		tab("onderneming-adres", s.Adres),
		tab("postcode", s.Postcode),
		tab("plaats", s.Plaats),
		tab("fte", s.AantalFte),
		tab("jaaromzet", format.Currency(s.Jaaromzet)),
		tab("balanstotaal", format.Currency(s.Balanstotaal)),
		tab("boekjaar", strconv.Itoa(s.LaatsteBoekjaar)),
		tab("datum", format.ShortDate(now())),
	)

	signers := []Signer{{
		Email:    primaryEmail,
		Name:     primaryName,
		RoleName: RoleApplicant,
		Tabs: &SignerTabs{
			RadioGroupTabs: []RadioGroupTab{
				radioGroup(groupDeMinimis, string(s.DeMinimisType), "geen", "wel", "andere"),
				radioGroup(groupCompanyType, classification.RadioValue(s.OndernemingType), "kleine", "middel", "grote"),
			},
			TextTabs: text,
			ListTabs: []ListTab{{TabLabel: listCompanySize, Value: classification.SizeLabel(s.OndernemingType)}},
		},
	}}

	if d2.Nodig && d2.Achternaam != "" {
		signers = append(signers, Signer{
			Email:    firstNonEmpty(d2.Email, s.Email),
			Name:     d2.SignerName(),
			RoleName: RoleSecondSigner,
			Tabs:     &SignerTabs{TextTabs: []TextTab{}},
		})
	}

	return Session{
		TemplateID: templateID,
		Signers:    signers,
		ReturnURL:  strings.TrimRight(b.ReturnBaseURL, "/") + returnPath,
	}
}

func tab(label, value string) TextTab {
	return TextTab{TabLabel: label, Value: value}
}

func radioGroup(name, selected string, options ...string) RadioGroupTab {
	radios := make([]RadioOption, len(options))
	for i, opt := range options {
		radios[i] = RadioOption{Value: opt, Selected: boolString(opt == selected)}
	}
	return RadioGroupTab{GroupName: name, Radios: radios}
}

func amountOrZero(v string) string {
	if d := format.Digits(v); d != "" {
		return d
	}
	return "0"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// FailureDetail describes a failed submission: validation errors, then the message, then the
// provider error field, then err.
func FailureDetail(resp *Response, err error) string {
	switch {
	case resp != nil && len(resp.ValidationErrors) > 0:
		return strings.Join(resp.ValidationErrors, ", ")
	case resp != nil && resp.Message != "":
		return resp.Message
	case resp != nil && resp.Error != "":
		return resp.Error
	case err != nil:
		return err.Error()
	}
	return "Onbekende fout"
}

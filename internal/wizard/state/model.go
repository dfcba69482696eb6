// Package state owns the wizard aggregate: its defaults, the pure derivation step and the
// debounced, single-writer store that persists drafts.
package state

import (
	"time"

	"subsidy-wizard/internal/wizard/classification"
	"subsidy-wizard/internal/wizard/format"
)

// StateAidType discriminates which state-aid amount is active.
type StateAidType string

const (
	StateAidNone      StateAidType = "geen"
	StateAidDeMinimis StateAidType = "wel"
	StateAidOther     StateAidType = "andere"
)

func (t StateAidType) valid() bool {
	return t == StateAidNone || t == StateAidDeMinimis || t == StateAidOther
}

type Director struct {
	Voorletters   string `json:"voorletters"`
	Achternaam    string `json:"achternaam"`
	Functie       string `json:"functie"`
	Email         string `json:"email"`
	VolledigeNaam string `json:"volledigeNaam"`
	Nodig         bool   `json:"nodig"`
}

// FileHandle is an uploaded document held in memory until it is sent to the backend.
type FileHandle struct {
	Name        string
	Size        int64
	ContentType string
	Data        []byte
}

// WizardState is the root aggregate of one wizard session. The json names are the draft format.
type WizardState struct {
	ApplicationID *string `json:"applicationId"`
	FolderID      *string `json:"folderId"`
	Datum         string  `json:"datum"`

	Bedrijfsnaam      string `json:"bedrijfsnaam"`
	KvkNummer         string `json:"kvkNummer"`
	BtwID             string `json:"btwId"`
	Website           string `json:"website"`
	Straat            string `json:"straat"`
	Huisnummer        string `json:"huisnummer"`
	Adres             string `json:"adres"`
	Postcode          string `json:"postcode"`
	Plaats            string `json:"plaats"`
	Provincie         string `json:"provincie"`
	NaceClassificatie string `json:"naceClassificatie"`
	Email             string `json:"email"`

	ContactNaam         string `json:"contactNaam"`
	ContactTelefoon     string `json:"contactTelefoon"`
	ContactGeslacht     string `json:"contactGeslacht"`
	HoofdcontactPersoon string `json:"hoofdcontactPersoon"`

	Bestuurder1 Director `json:"bestuurder1"`
	Bestuurder2 Director `json:"bestuurder2"`

	BankStatement         *FileHandle `json:"bankStatement"`
	BankStatementName     string      `json:"bankStatementName"`
	BankStatementSize     int64       `json:"bankStatementSize"`
	BankStatementConsent  bool        `json:"bankStatementConsent"`
	BankStatementUploaded bool        `json:"bankStatementUploaded"`

	AantalFte       string `json:"aantalFte"`
	LaatsteBoekjaar int    `json:"laatsteBoekjaar"`
	Jaaromzet       string `json:"jaaromzet"`
	Balanstotaal    string `json:"balanstotaal"`

	OndernemingType classification.Tier `json:"ondernemingType"`

	DeMinimisType           StateAidType `json:"deMinimisType"`
	DeMinimisAmount         string       `json:"deMinimisAmount"`
	AndereStaatssteunAmount string       `json:"andereStaatssteunAmount"`
	AndereStaatssteunDatum  string       `json:"andereStaatssteunDatum"`

	AkkoordMachtiging     bool `json:"akkoordMachtiging"`
	AkkoordWaarheid       bool `json:"akkoordWaarheid"`
	MachtigingIndienen    bool `json:"machtigingIndienen"`
	MachtigingHandelingen bool `json:"machtigingHandelingen"`
	MachtigingBezwaar     bool `json:"machtigingBezwaar"`
}

// Defaults returns an empty wizard created at now.
func Defaults(now time.Time) WizardState {
	return WizardState{
		Datum:           format.ISODate(now),
		Bestuurder1:     Director{Functie: "Directeur"},
		LaatsteBoekjaar: now.Year() - 1,
		DeMinimisType:   StateAidNone,
	}
}

// UsesSplitAddress reports whether the address was entered as street plus house number.
func (s WizardState) UsesSplitAddress() bool {
	return s.Straat != "" || s.Huisnummer != ""
}

// HasBankStatement reports whether a file is held in memory.
func (s WizardState) HasBankStatement() bool {
	return s.BankStatement != nil
}

// AppID returns the application id or "" when none was generated yet.
func (s WizardState) AppID() string {
	if s.ApplicationID == nil {
		return ""
	}
	return *s.ApplicationID
}

// SignerName is the director's full name, falling back to initials and surname.
func (d Director) SignerName() string {
	if d.VolledigeNaam != "" {
		return d.VolledigeNaam
	}
	return fullName(d)
}

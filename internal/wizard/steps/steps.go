// Package steps defines the wizard step sequence and decides when a step may be left.
//
// A step is complete when its presence layer (every mandatory value entered) holds and its
// format layer reports no field errors. Field errors are keyed by the field name, or by
// "bestuurder1.<field>" for director fields.
package steps

import (
	"time"

	"subsidy-wizard/internal/wizard/state"
	"subsidy-wizard/internal/wizard/validation"
)

type Key string

const (
	CompanyDetails Key = "companyDetails"
	BankStatement  Key = "bankStatement"
	Directors      Key = "directors"
	CompanySize    Key = "companySize"
	StateAid       Key = "stateAid"
	Authorization  Key = "authorization"
)

const (
	MaxBankStatementSize = 10 * 1024 * 1024
	PDFContentType       = "application/pdf"
	requiredMessage      = "Dit veld is verplicht"
)

type Step struct {
	Key         Key    `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

var sequence = []Step{
	{CompanyDetails, "Bedrijfsgegevens", "Algemene informatie over uw onderneming"},
	{BankStatement, "Bankverificatie", "Bankafschrift voor verificatie van uw rekeningnummer"},
	{Directors, "Bestuurder(s)", "Gegevens van bevoegde personen"},
	{CompanySize, "Bedrijfsomvang", "FTE, omzet en balans voor MKB-classificatie"},
	{StateAid, "Staatssteun", "De-minimis verklaring"},
	{Authorization, "Machtiging", "Toestemming voor het indienen namens uw onderneming"},
}

func All() []Step {
	out := make([]Step, len(sequence))
	copy(out, sequence)
	return out
}

func Count() int { return len(sequence) }

func Last() int { return len(sequence) - 1 }

// KeyAt returns the key of the step at index.
func KeyAt(index int) (Key, bool) {
	if index < 0 || index >= len(sequence) {
		return "", false
	}
	return sequence[index].Key, true
}

// IndexOf returns the position of key, or -1.
func IndexOf(key Key) int {
	for i, s := range sequence {
		if s.Key == key {
			return i
		}
	}
	return -1
}

// Validator checks steps against a clock; the clock bounds the fiscal year and past-date rules.
type Validator struct {
	now func() time.Time
}

func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

var defaultValidator = NewValidator(time.Now)

// IsStepValid reports whether the step at index may be left.
func IsStepValid(index int, s state.WizardState) bool {
	return defaultValidator.IsStepValid(index, s)
}

func ValidateStep(key Key, s state.WizardState) map[string]string {
	return defaultValidator.ValidateStep(key, s)
}

func (v *Validator) IsStepValid(index int, s state.WizardState) bool {
	key, ok := KeyAt(index)
	if !ok {
		return false
	}
	return Presence(index, s) && len(v.ValidateStep(key, s)) == 0
}

// ValidateAll runs the format layer of every step and merges the errors. Incomplete steps are
// returned in the second value.
func (v *Validator) ValidateAll(s state.WizardState) (map[string]string, []Key) {
	errs := make(map[string]string)
	var incomplete []Key
	for i, step := range sequence {
		stepErrs := v.ValidateStep(step.Key, s)
		for field, msg := range stepErrs {
			errs[field] = msg
		}
		if !Presence(i, s) || len(stepErrs) > 0 {
			incomplete = append(incomplete, step.Key)
		}
	}
	return errs, incomplete
}

// Presence reports whether every mandatory value of the step at index has been entered.
func Presence(index int, s state.WizardState) bool {
	key, ok := KeyAt(index)
	if !ok {
		return false
	}

	switch key {
	case CompanyDetails:
		return allSet(s.Bedrijfsnaam, s.KvkNummer, s.Email, s.Adres, s.Postcode, s.Plaats, s.NaceClassificatie)
	case BankStatement:
		return s.BankStatementUploaded || (s.HasBankStatement() && s.BankStatementConsent)
	case Directors:
		d1 := s.Bestuurder1
		if !allSet(d1.Voorletters, d1.Achternaam, d1.Functie, d1.Email) {
			return false
		}
		if s.Bestuurder2.Nodig {
			d2 := s.Bestuurder2
			return allSet(d2.Voorletters, d2.Achternaam, d2.Email)
		}
		return true
	case CompanySize:
		return allSet(s.AantalFte, s.Jaaromzet, s.Balanstotaal) && s.LaatsteBoekjaar != 0
	case StateAid:
		switch s.DeMinimisType {
		case state.StateAidDeMinimis:
			return s.DeMinimisAmount != ""
		case state.StateAidOther:
			return s.AndereStaatssteunAmount != ""
		}
		return s.DeMinimisType == state.StateAidNone
	case Authorization:
		return s.AkkoordMachtiging && s.AkkoordWaarheid && s.MachtigingIndienen &&
			s.MachtigingHandelingen && s.MachtigingBezwaar
	}
	return false
}

// ValidateStep runs the format layer of one step.
func (v *Validator) ValidateStep(key Key, s state.WizardState) map[string]string {
	fields := validation.Fields(v.now)
	errs := make(map[string]string)
	check := func(name string, value any, rules []validation.Rule) {
		if r := validation.Validate(value, rules...); !r.Valid {
			errs[name] = r.Error
		}
	}

	switch key {
	case CompanyDetails:
		check("bedrijfsnaam", s.Bedrijfsnaam, fields["bedrijfsnaam"])
		check("kvkNummer", s.KvkNummer, fields["kvkNummer"])
		check("email", s.Email, fields["email"])
		if s.UsesSplitAddress() {
			check("straat", s.Straat, fields["straat"])
			check("huisnummer", s.Huisnummer, fields["huisnummer"])
		} else {
			check("adres", s.Adres, fields["adres"])
		}
		check("plaats", s.Plaats, fields["plaats"])
		check("postcode", s.Postcode, fields["postcode"])
		check("naceClassificatie", s.NaceClassificatie, fields["naceClassificatie"])
		check("contactNaam", s.ContactNaam, fields["contactNaam"])
		check("contactTelefoon", s.ContactTelefoon, fields["contactTelefoon"])
		check("hoofdcontactPersoon", s.HoofdcontactPersoon, fields["hoofdcontactPersoon"])
		check("btwId", s.BtwID, fields["btwId"])
		check("website", s.Website, fields["website"])

	case BankStatement:
		if msg := CheckFile(s.BankStatement); msg != "" {
			errs["bankStatement"] = msg
		}

	case Directors:
		checkDirector := func(prefix string, d state.Director) {
			check(prefix+".voorletters", d.Voorletters, fields["voorletters"])
			check(prefix+".achternaam", d.Achternaam, fields["achternaam"])
			check(prefix+".email", d.Email, fields["directeurEmail"])
		}
		checkDirector("bestuurder1", s.Bestuurder1)
		if s.Bestuurder2.Nodig {
			checkDirector("bestuurder2", s.Bestuurder2)
		}

	case CompanySize:
		check("aantalFte", s.AantalFte, fields["aantalFte"])
		check("laatsteBoekjaar", s.LaatsteBoekjaar, fields["laatsteBoekjaar"])
		check("jaaromzet", s.Jaaromzet, fields["jaaromzet"])
		check("balanstotaal", s.Balanstotaal, fields["balanstotaal"])

	case StateAid:
		switch s.DeMinimisType {
		case state.StateAidDeMinimis:
			if s.DeMinimisAmount == "" {
				errs["deMinimisAmount"] = requiredMessage
			} else {
				check("deMinimisAmount", s.DeMinimisAmount, fields["deMinimisAmount"])
			}
		case state.StateAidOther:
			if s.AndereStaatssteunAmount == "" {
				errs["andereStaatssteunAmount"] = requiredMessage
			} else {
				check("andereStaatssteunAmount", s.AndereStaatssteunAmount, fields["andereStaatssteunAmount"])
			}
			if s.AndereStaatssteunDatum != "" {
				check("andereStaatssteunDatum", s.AndereStaatssteunDatum, fields["andereStaatssteunDatum"])
			}
		}
	}

	return errs
}

// CheckFile returns the message for a file the backend would refuse, or "" when it is acceptable.
// A nil file is acceptable; presence is checked separately.
func CheckFile(f *state.FileHandle) string {
	if f == nil {
		return ""
	}
	if f.ContentType != PDFContentType {
		return "Alleen PDF-bestanden zijn toegestaan"
	}
	if f.Size > MaxBankStatementSize {
		return "Het bestand mag niet groter zijn dan 10MB"
	}
	return ""
}

func allSet(values ...string) bool {
	for _, v := range values {
		if v == "" {
			return false
		}
	}
	return true
}

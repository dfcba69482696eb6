package state

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

var (
	ErrUnknownField  = errors.New("unknown field")
	ErrReadOnlyField = errors.New("field is read-only")
	ErrInvalidValue  = errors.New("invalid value")
)

// Fields written only through dedicated store methods or by Derive.
var readOnly = map[string]bool{
	"applicationId":         true,
	"folderId":              true,
	"datum":                 true,
	"ondernemingType":       true,
	"bankStatement":         true,
	"bankStatementName":     true,
	"bankStatementSize":     true,
	"bankStatementUploaded": true,
}

var stringFields = map[string]func(*WizardState) *string{
	"bedrijfsnaam":            func(s *WizardState) *string { return &s.Bedrijfsnaam },
	"kvkNummer":               func(s *WizardState) *string { return &s.KvkNummer },
	"btwId":                   func(s *WizardState) *string { return &s.BtwID },
	"website":                 func(s *WizardState) *string { return &s.Website },
	"straat":                  func(s *WizardState) *string { return &s.Straat },
	"huisnummer":              func(s *WizardState) *string { return &s.Huisnummer },
	"adres":                   func(s *WizardState) *string { return &s.Adres },
	"postcode":                func(s *WizardState) *string { return &s.Postcode },
	"plaats":                  func(s *WizardState) *string { return &s.Plaats },
	"provincie":               func(s *WizardState) *string { return &s.Provincie },
	"naceClassificatie":       func(s *WizardState) *string { return &s.NaceClassificatie },
	"email":                   func(s *WizardState) *string { return &s.Email },
	"contactNaam":             func(s *WizardState) *string { return &s.ContactNaam },
	"contactTelefoon":         func(s *WizardState) *string { return &s.ContactTelefoon },
	"aantalFte":               func(s *WizardState) *string { return &s.AantalFte },
	"jaaromzet":               func(s *WizardState) *string { return &s.Jaaromzet },
	"balanstotaal":            func(s *WizardState) *string { return &s.Balanstotaal },
	"deMinimisAmount":         func(s *WizardState) *string { return &s.DeMinimisAmount },
	"andereStaatssteunAmount": func(s *WizardState) *string { return &s.AndereStaatssteunAmount },
	"andereStaatssteunDatum":  func(s *WizardState) *string { return &s.AndereStaatssteunDatum },
}

var boolFields = map[string]func(*WizardState) *bool{
	"bankStatementConsent":  func(s *WizardState) *bool { return &s.BankStatementConsent },
	"akkoordMachtiging":     func(s *WizardState) *bool { return &s.AkkoordMachtiging },
	"akkoordWaarheid":       func(s *WizardState) *bool { return &s.AkkoordWaarheid },
	"machtigingIndienen":    func(s *WizardState) *bool { return &s.MachtigingIndienen },
	"machtigingHandelingen": func(s *WizardState) *bool { return &s.MachtigingHandelingen },
	"machtigingBezwaar":     func(s *WizardState) *bool { return &s.MachtigingBezwaar },
}

var enumFields = map[string]struct {
	get     func(*WizardState) *string
	allowed []string
}{
	"contactGeslacht":     {func(s *WizardState) *string { return &s.ContactGeslacht }, []string{"", "man", "vrouw", "anders"}},
	"hoofdcontactPersoon": {func(s *WizardState) *string { return &s.HoofdcontactPersoon }, []string{"", "Wout", "Tim", "Nathalie"}},
}

var directorFields = map[string]func(*Director) *string{
	"voorletters": func(d *Director) *string { return &d.Voorletters },
	"achternaam":  func(d *Director) *string { return &d.Achternaam },
	"functie":     func(d *Director) *string { return &d.Functie },
	"email":       func(d *Director) *string { return &d.Email },
}

// IsReadOnly reports whether key may not be written with SetField.
func IsReadOnly(key string) bool {
	return readOnly[key]
}

func assign(s *WizardState, key string, value any) error {
	if readOnly[key] {
		return fmt.Errorf("%s: %w", key, ErrReadOnlyField)
	}
	if get, ok := stringFields[key]; ok {
		v, err := asString(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*get(s) = v
		return nil
	}
	if get, ok := boolFields[key]; ok {
		v, err := asBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*get(s) = v
		return nil
	}
	if f, ok := enumFields[key]; ok {
		v, err := asString(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if !slices.Contains(f.allowed, v) {
			return fmt.Errorf("%s: %q: %w", key, v, ErrInvalidValue)
		}
		*f.get(s) = v
		return nil
	}

	switch key {
	case "laatsteBoekjaar":
		v, err := asInt(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		s.LaatsteBoekjaar = v
		return nil
	case "deMinimisType":
		v, err := asString(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		t := StateAidType(v)
		if !t.valid() {
			return fmt.Errorf("%s: %q: %w", key, v, ErrInvalidValue)
		}
		s.DeMinimisType = t
		return nil
	}
	return fmt.Errorf("%s: %w", key, ErrUnknownField)
}

func assignDirector(s *WizardState, parent, key string, value any) error {
	var d *Director
	switch parent {
	case "bestuurder1":
		d = &s.Bestuurder1
	case "bestuurder2":
		d = &s.Bestuurder2
	default:
		return fmt.Errorf("%s: %w", parent, ErrUnknownField)
	}

	path := parent + "." + key
	if key == "volledigeNaam" {
		return fmt.Errorf("%s: %w", path, ErrReadOnlyField)
	}
	if key == "nodig" && parent == "bestuurder2" {
		v, err := asBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		d.Nodig = v
		return nil
	}
	get, ok := directorFields[key]
	if !ok {
		return fmt.Errorf("%s: %w", path, ErrUnknownField)
	}
	v, err := asString(value)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	*get(d) = v
	return nil
}

func asString(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	}
	return "", fmt.Errorf("expected text, got %T: %w", value, ErrInvalidValue)
}

func asBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("expected boolean, got %q: %w", v, ErrInvalidValue)
		}
		return b, nil
	}
	return false, fmt.Errorf("expected boolean, got %T: %w", value, ErrInvalidValue)
}

func asInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("expected whole number, got %v: %w", v, ErrInvalidValue)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("expected whole number, got %q: %w", v, ErrInvalidValue)
		}
		return n, nil
	}
	return 0, fmt.Errorf("expected whole number, got %T: %w", value, ErrInvalidValue)
}

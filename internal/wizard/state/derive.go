package state

import (
	"strings"
	"time"

	"subsidy-wizard/internal/wizard/classification"
	"subsidy-wizard/internal/wizard/format"
)

// Derive recomputes every derived field of next. prev is the state before the change and is only
// consulted to detect a change of the company email or of the split address.
func Derive(prev, next WizardState) WizardState {
	next.OndernemingType = classification.ClassifyInputs(next.AantalFte, next.Jaaromzet, next.Balanstotaal)

	next.Bestuurder1.VolledigeNaam = fullName(next.Bestuurder1)
	next.Bestuurder2.VolledigeNaam = fullName(next.Bestuurder2)

	switch {
	case next.UsesSplitAddress():
		next.Adres = format.Address(next.Straat, next.Huisnummer)
	case prev.UsesSplitAddress() && next.Adres == format.Address(prev.Straat, prev.Huisnummer):
		// The split fields were cleared; drop the line derived from them.
		next.Adres = ""
	}

	if next.Email != prev.Email && next.Email != "" && next.Bestuurder1.Email == "" {
		next.Bestuurder1.Email = next.Email
	}

	return next
}

func fullName(d Director) string {
	return strings.TrimSpace(d.Voorletters + " " + d.Achternaam)
}

// GenerateApplicationID builds "<company or Unknown>-dd-mm-yyyy".
func GenerateApplicationID(s WizardState, now time.Time) string {
	name := s.Bedrijfsnaam
	if name == "" {
		name = "Unknown"
	}
	return name + "-" + format.LongDate(now)
}

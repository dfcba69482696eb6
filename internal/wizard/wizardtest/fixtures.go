// Package wizardtest provides wizard states for tests of the API and the pipeline workers.
package wizardtest

import (
	"testing"
	"time"

	"subsidy-wizard/internal/wizard/state"

	"github.com/stretchr/testify/require"
)

// Clock is the fixed time every fixture is created at.
func Clock() time.Time {
	return time.Date(2025, time.June, 15, 14, 30, 0, 0, time.UTC)
}

const ApplicationID = "Acme BV-15-06-2025"

// CompleteState is a submitted wizard: every step valid, bank statement already uploaded.
func CompleteState() state.WizardState {
	s := state.Defaults(Clock())
	id := ApplicationID
	folder := "folder-1"
	s.ApplicationID = &id
	s.FolderID = &folder
	s.Bedrijfsnaam = "Acme BV"
	s.KvkNummer = "12345678"
	s.Email = "info@acme.nl"
	s.Adres = "Dorpsstraat 12A"
	s.Postcode = "1234 AB"
	s.Plaats = "Utrecht"
	s.NaceClassificatie = "6201"
	s.ContactNaam = "Jan Jansen"
	s.ContactTelefoon = "06 12 34 56 78"
	s.HoofdcontactPersoon = "Tim"
	s.Bestuurder1 = state.Director{Voorletters: "J.", Achternaam: "Jansen", Functie: "Directeur", Email: "jan@acme.nl", VolledigeNaam: "J. Jansen"}
	s.BankStatementName = "afschrift.pdf"
	s.BankStatementSize = 1024
	s.BankStatementConsent = true
	s.BankStatementUploaded = true
	s.AantalFte = "10"
	s.Jaaromzet = "5000000"
	s.Balanstotaal = "4000000"
	s.AkkoordMachtiging = true
	s.AkkoordWaarheid = true
	s.MachtigingIndienen = true
	s.MachtigingHandelingen = true
	s.MachtigingBezwaar = true
	return s
}

// Snapshot encodes s as a draft would be stored.
func Snapshot(t testing.TB, s state.WizardState) []byte {
	t.Helper()
	data, err := state.Snapshot(s)
	require.NoError(t, err)
	return data
}

package validation

import "time"

const (
	MaxStateAidAmount = 299999
	MaxFinancialValue = 10000000000
	MinFiscalYear     = 2020
)

// Fields returns the per-field rule lists. The clock bounds the fiscal year range and the past-date check.
func Fields(now func() time.Time) map[string][]Rule {
	return map[string][]Rule{
		"bedrijfsnaam":        {Required(), MinLength(2)},
		"kvkNummer":           {Required(), KvkNumber()},
		"email":               {Required(), Email()},
		"straat":              {Required(), MinLength(2)},
		"huisnummer":          {Required(), DutchHouseNumber()},
		"adres":               {Required(), MinLength(2)},
		"plaats":              {Required()},
		"postcode":            {Required(), DutchPostcode()},
		"naceClassificatie":   {Required(), NaceCode()},
		"btwId":               {BtwID()},
		"website":             {URL()},
		"contactNaam":         {Required(), MinLength(2)},
		"contactTelefoon":     {Required(), Phone()},
		"hoofdcontactPersoon": {Required()},

		"voorletters":    {Required(), Initials()},
		"achternaam":     {Required(), MinLength(2), LettersOnly()},
		"directeurEmail": {Required(), Email()},

		"aantalFte":       {Required(), PositiveInteger(), MaxValue(999999)},
		"laatsteBoekjaar": {Required(), YearRange(MinFiscalYear, now().Year())},
		"jaaromzet":       {Required(), MinValue(0), MaxValue(MaxFinancialValue)},
		"balanstotaal":    {Required(), MinValue(0), MaxValue(MaxFinancialValue)},

		"deMinimisAmount":         {MaxValue(MaxStateAidAmount, "Bedrag mag maximaal €299.999 zijn")},
		"andereStaatssteunAmount": {MinValue(0)},
		"andereStaatssteunDatum":  {DateInPastAt(now)},
	}
}

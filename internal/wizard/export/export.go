// Package export maps a finished wizard onto the structured document model and the flat PDF
// field map used by the document generator. Both views are built from the same state in one pass.
package export

import (
	"strings"

	json "github.com/goccy/go-json"

	"subsidy-wizard/internal/wizard/classification"
	"subsidy-wizard/internal/wizard/state"
	"subsidy-wizard/internal/wizard/tenant"
)

type FormExport struct {
	Structured Structured `json:"structured"`
	PDFFields  PDFFields  `json:"pdfFields"`
}

// PDFFields maps PDF form field names onto values. Checkboxes and radio buttons are bools,
// the fiscal year is an int and everything else is text.
type PDFFields map[string]any

type Structured struct {
	Machtiging Machtiging `json:"machtiging"`
	DeMinimis  DeMinimis  `json:"deMinimis"`
	MKB        MKB        `json:"mkb"`
}

type Machtiging struct {
	Aanvrager             Aanvrager             `json:"aanvrager"`
	Gemachtigde           Gemachtigde           `json:"gemachtigde"`
	MachtigingToestemming MachtigingToestemming `json:"machtigingToestemming"`
	Reikwijdte            Reikwijdte            `json:"reikwijdte"`
	Ondertekening         Ondertekening         `json:"ondertekening"`
}

type Aanvrager struct {
	NaamOnderneming string `json:"naamOnderneming"`
	Email           string `json:"email"`
	KvkNummer       string `json:"kvkNummer"`
}

type Gemachtigde struct {
	NaamOrganisatie string `json:"naamOrganisatie"`
	Email           string `json:"email"`
	VolledigeNaam   string `json:"volledigeNaam"`
	Telefoon        string `json:"telefoon"`
	KvkNummer       string `json:"kvkNummer"`
}

type MachtigingToestemming struct {
	Bevoegd  bool `json:"bevoegd"`
	Waarheid bool `json:"waarheid"`
}

type Reikwijdte struct {
	Indienen      bool `json:"indienen"`
	Handelingen   bool `json:"handelingen"`
	BezwaarBeroep bool `json:"bezwaarBeroep"`
}

type Signatory struct {
	Voorletters string `json:"voorletters"`
	Achternaam  string `json:"achternaam"`
	Functie     string `json:"functie"`
	Datum       string `json:"datum"`
}

// Ondertekening.Bestuurder2 is nil when no second director signs; it is then encoded as {}.
type Ondertekening struct {
	Bestuurder1 Signatory
	Bestuurder2 *Signatory
}

func (o Ondertekening) MarshalJSON() ([]byte, error) {
	out := struct {
		Bestuurder1 Signatory `json:"bestuurder1"`
		Bestuurder2 any       `json:"bestuurder2"`
	}{Bestuurder1: o.Bestuurder1, Bestuurder2: struct{}{}}
	if o.Bestuurder2 != nil {
		out.Bestuurder2 = o.Bestuurder2
	}
	return json.Marshal(out)
}

type DeMinimis struct {
	Verklaring              state.StateAidType `json:"verklaring"`
	BedragDeMinimis         string             `json:"bedragDeMinimis"`
	BedragAndereStaatssteun string             `json:"bedragAndereStaatssteun"`
	DatumAndereStaatssteun  string             `json:"datumAndereStaatssteun"`
	Bedrijfsgegevens        Bedrijfsgegevens   `json:"bedrijfsgegevens"`
}

type Bedrijfsgegevens struct {
	Bedrijfsnaam      string `json:"bedrijfsnaam"`
	KvkNummer         string `json:"kvkNummer"`
	NaceClassificatie string `json:"naceClassificatie"`
	NaamFunctionaris  string `json:"naamFunctionaris"`
	Functie           string `json:"functie"`
	Adres             string `json:"adres"`
	Postcode          string `json:"postcode"`
	Plaats            string `json:"plaats"`
	Datum             string `json:"datum"`
}

type MKB struct {
	NaamOnderneming string              `json:"naamOnderneming"`
	AantalFte       string              `json:"aantalFte"`
	LaatsteBoekjaar int                 `json:"laatsteBoekjaar"`
	Jaaromzet       string              `json:"jaaromzet"`
	Balanstotaal    string              `json:"balanstotaal"`
	TypeOnderneming classification.Tier `json:"typeOnderneming"`
	Ondertekening   MKBOndertekening    `json:"ondertekening"`
}

type MKBOndertekening struct {
	Naam        string `json:"naam"`
	Functie     string `json:"functie"`
	DatumPlaats string `json:"datumPlaats"`
}

// PrepareFormData builds the structured export and the PDF field map. auth supplies the
// authorized representative; empty fields fall back to the default representative.
func PrepareFormData(s state.WizardState, auth tenant.Authorization) FormExport {
	auth = auth.WithDefaults()
	phone := strings.Join(strings.Fields(auth.Telefoon), "")
	d1, d2 := s.Bestuurder1, s.Bestuurder2
	datumPlaats := s.Datum + ", " + placeOrCountry(s.Plaats)

	ondertekening := Ondertekening{
		Bestuurder1: Signatory{Voorletters: d1.Voorletters, Achternaam: d1.Achternaam, Functie: d1.Functie, Datum: s.Datum},
	}
	best2Datum := ""
	if d2.Nodig {
		ondertekening.Bestuurder2 = &Signatory{Voorletters: d2.Voorletters, Achternaam: d2.Achternaam, Functie: d2.Functie, Datum: s.Datum}
		best2Datum = s.Datum
	}

	structured := Structured{
		Machtiging: Machtiging{
			Aanvrager: Aanvrager{NaamOnderneming: s.Bedrijfsnaam, Email: s.Email, KvkNummer: s.KvkNummer},
			Gemachtigde: Gemachtigde{
				NaamOrganisatie: auth.Organisatie,
				Email:           auth.Email,
				VolledigeNaam:   auth.Contactpersoon,
				Telefoon:        phone,
				KvkNummer:       auth.KvkNummer,
			},
			MachtigingToestemming: MachtigingToestemming{Bevoegd: s.AkkoordMachtiging, Waarheid: s.AkkoordWaarheid},
			Reikwijdte: Reikwijdte{
				Indienen:      s.MachtigingIndienen,
				Handelingen:   s.MachtigingHandelingen,
				BezwaarBeroep: s.MachtigingBezwaar,
			},
			Ondertekening: ondertekening,
		},
		DeMinimis: DeMinimis{
			Verklaring:              s.DeMinimisType,
			BedragDeMinimis:         s.DeMinimisAmount,
			BedragAndereStaatssteun: s.AndereStaatssteunAmount,
			DatumAndereStaatssteun:  s.AndereStaatssteunDatum,
			Bedrijfsgegevens: Bedrijfsgegevens{
				Bedrijfsnaam:      s.Bedrijfsnaam,
				KvkNummer:         s.KvkNummer,
				NaceClassificatie: s.NaceClassificatie,
				NaamFunctionaris:  d1.VolledigeNaam,
				Functie:           d1.Functie,
				Adres:             s.Adres,
				Postcode:          s.Postcode,
				Plaats:            s.Plaats,
				Datum:             s.Datum,
			},
		},
		MKB: MKB{
			NaamOnderneming: s.Bedrijfsnaam,
			AantalFte:       s.AantalFte,
			LaatsteBoekjaar: s.LaatsteBoekjaar,
			Jaaromzet:       s.Jaaromzet,
			Balanstotaal:    s.Balanstotaal,
			TypeOnderneming: s.OndernemingType,
			Ondertekening:   MKBOndertekening{Naam: d1.VolledigeNaam, Functie: d1.Functie, DatumPlaats: datumPlaats},
		},
	}

	pdf := PDFFields{
		"mach_naam_onderneming":  s.Bedrijfsnaam,
		"mach_email":             s.Email,
		"mach_kvk":               s.KvkNummer,
		"mach_gem_naam":          auth.Organisatie,
		"mach_gem_email":         auth.Email,
		"mach_gem_persoon":       auth.Contactpersoon,
		"mach_gem_telefoon":      phone,
		"mach_gem_kvk":           auth.KvkNummer,
		"mach_check_bevoegd":     s.AkkoordMachtiging,
		"mach_check_waarheid":    s.AkkoordWaarheid,
		"mach_check_indienen":    s.MachtigingIndienen,
		"mach_check_handelingen": s.MachtigingHandelingen,
		"mach_check_bezwaar":     s.MachtigingBezwaar,
		"mach_best1_voorletters": d1.Voorletters,
		"mach_best1_achternaam":  d1.Achternaam,
		"mach_best1_functie":     d1.Functie,
		"mach_best1_datum":       s.Datum,
		"mach_best2_voorletters": d2.Voorletters,
		"mach_best2_achternaam":  d2.Achternaam,
		"mach_best2_functie":     d2.Functie,
		"mach_best2_datum":       best2Datum,

		"deminimis_radio_geen":    s.DeMinimisType == state.StateAidNone,
		"deminimis_radio_wel":     s.DeMinimisType == state.StateAidDeMinimis,
		"deminimis_radio_andere":  s.DeMinimisType == state.StateAidOther,
		"deminimis_bedrag":        s.DeMinimisAmount,
		"deminimis_andere_bedrag": s.AndereStaatssteunAmount,
		"deminimis_andere_datum":  s.AndereStaatssteunDatum,
		"deminimis_bedrijfsnaam":  s.Bedrijfsnaam,
		"deminimis_kvk":           s.KvkNummer,
		"deminimis_nace":          s.NaceClassificatie,
		"deminimis_naam_func":     d1.VolledigeNaam,
		"deminimis_functie":       d1.Functie,
		"deminimis_adres":         s.Adres,
		"deminimis_postcode":      s.Postcode,
		"deminimis_plaats":        s.Plaats,
		"deminimis_datum":         s.Datum,

		"mkb_naam_onderneming":          s.Bedrijfsnaam,
		"mkb_aantal_fte":                s.AantalFte,
		"mkb_boekjaar":                  s.LaatsteBoekjaar,
		"mkb_jaaromzet":                 s.Jaaromzet,
		"mkb_balanstotaal":              s.Balanstotaal,
		"mkb_check_klein":               s.OndernemingType == classification.TierKlein,
		"mkb_check_middelgroot":         s.OndernemingType == classification.TierMiddelgroot,
		"mkb_check_groot":               s.OndernemingType == classification.TierGroot,
		"mkb_ondertekening_naam":        d1.VolledigeNaam,
		"mkb_ondertekening_functie":     d1.Functie,
		"mkb_ondertekening_datum_plaats": datumPlaats,
	}

	return FormExport{Structured: structured, PDFFields: pdf}
}

func placeOrCountry(plaats string) string {
	if plaats == "" {
		return "Nederland"
	}
	return plaats
}

// Package classification derives the company size tier from headcount, revenue and balance sheet total.
package classification

import "subsidy-wizard/internal/wizard/format"

type Tier string

const (
	TierNone        Tier = ""
	TierKlein       Tier = "klein"
	TierMiddelgroot Tier = "middelgroot"
	TierGroot       Tier = "groot"
)

const (
	revenueLarge   = 50_000_000
	balanceLarge   = 43_000_000
	revenueMedium  = 10_000_000
	balanceMedium  = 10_000_000
	headcountLarge = 250
	headcountSmall = 50
)

// Classification is a tier with its presentation text.
type Classification struct {
	Type     Tier   `json:"type"`
	Label    string `json:"label"`
	Color    string `json:"color"`
	Criteria string `json:"criteria"`
}

// Classify is Describe without the presentation text.
func Classify(fte, revenue, balance int64) Tier {
	c, ok := Describe(fte, revenue, balance)
	if !ok {
		return TierNone
	}
	return c.Type
}

// ClassifyInputs sanitizes free-form form values to digits before classifying. Unparsable input counts as zero.
func ClassifyInputs(fte, revenue, balance string) Tier {
	return Classify(format.ParseAmount(fte), format.ParseAmount(revenue), format.ParseAmount(balance))
}

// Describe applies the rules in order; the first match wins. It reports false when
// nothing has been entered yet.
func Describe(fte, revenue, balance int64) (Classification, bool) {
	if fte <= 0 && revenue <= 0 && balance <= 0 {
		return Classification{}, false
	}

	switch {
	case revenue > revenueLarge && balance > balanceLarge:
		return groot("Jaaromzet > €50 miljoen EN balanstotaal > €43 miljoen"), true
	case fte >= headcountLarge:
		return groot("250 of meer werknemers"), true
	case fte < headcountSmall && revenue > revenueMedium && balance > balanceMedium:
		return middelgroot("Minder dan 50 werknemers maar jaaromzet EN balanstotaal > €10 miljoen"), true
	case fte < headcountSmall && (revenue <= revenueMedium || balance <= balanceMedium):
		return Classification{
			Type:     TierKlein,
			Label:    "Kleine onderneming",
			Color:    "green",
			Criteria: "Minder dan 50 werknemers EN jaaromzet of balanstotaal ≤ €10 miljoen",
		}, true
	case fte < headcountLarge && (revenue <= revenueLarge || balance <= balanceLarge):
		return middelgroot("Minder dan 250 werknemers EN jaaromzet ≤ €50 miljoen OF balanstotaal ≤ €43 miljoen"), true
	}
	return groot("Overige ondernemingen"), true
}

func groot(criteria string) Classification {
	return Classification{Type: TierGroot, Label: "Grote onderneming", Color: "purple", Criteria: criteria}
}

func middelgroot(criteria string) Classification {
	return Classification{Type: TierMiddelgroot, Label: "Middelgrote onderneming", Color: "blue", Criteria: criteria}
}

// SizeLabel is the label used in the signing template list tab. Unclassified companies read as small.
func SizeLabel(t Tier) string {
	switch t {
	case TierMiddelgroot:
		return "Middelgroot (50-250 medewerkers)"
	case TierGroot:
		return "Groot (> 250 medewerkers)"
	default:
		return "Klein (< 50 medewerkers)"
	}
}

// RadioValue maps a tier onto the onderneming-type radio option.
func RadioValue(t Tier) string {
	switch t {
	case TierMiddelgroot:
		return "middel"
	case TierGroot:
		return "grote"
	default:
		return "kleine"
	}
}

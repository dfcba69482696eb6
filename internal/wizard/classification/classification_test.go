package classification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		fte     int64
		revenue int64
		balance int64
		want    Tier
	}{
		{"nothing entered", 0, 0, 0, TierNone},
		{"headcount only large", 300, 0, 0, TierGroot},
		{"large financials small headcount", 10, 60_000_000, 50_000_000, TierGroot},
		{"small", 10, 5_000_000, 5_000_000, TierKlein},
		{"small headcount medium financials", 10, 15_000_000, 15_000_000, TierMiddelgroot},
		{"small headcount one medium figure", 10, 15_000_000, 5_000_000, TierKlein},
		{"medium headcount", 100, 20_000_000, 20_000_000, TierMiddelgroot},
		{"medium headcount large revenue only", 100, 60_000_000, 20_000_000, TierMiddelgroot},
		{"headcount boundary", 250, 1, 1, TierGroot},
		{"headcount just below small boundary", 49, 10_000_000, 10_000_000, TierKlein},
		{"headcount at small boundary", 50, 1_000_000, 1_000_000, TierMiddelgroot},
		{"revenue only", 0, 1_000, 0, TierKlein},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.fte, tt.revenue, tt.balance))
			assert.Equal(t, tt.want, Classify(tt.fte, tt.revenue, tt.balance), "classification must be deterministic")
		})
	}
}

func TestClassifyInputs(t *testing.T) {
	assert.Equal(t, TierMiddelgroot, ClassifyInputs("10", "15.000.000", "€ 15.000.000"))
	assert.Equal(t, TierNone, ClassifyInputs("", "", ""))
	assert.Equal(t, TierNone, ClassifyInputs("veel", "n.v.t.", ""))
	assert.Equal(t, TierGroot, ClassifyInputs("10", "99999999999999999999", "99999999999999999999"),
		"overflowing amounts count as very large")
}

func TestDescribe(t *testing.T) {
	c, ok := Describe(300, 0, 0)
	assert.True(t, ok)
	assert.Equal(t, "Grote onderneming", c.Label)
	assert.Equal(t, "purple", c.Color)
	assert.Equal(t, "250 of meer werknemers", c.Criteria)

	_, ok = Describe(0, 0, 0)
	assert.False(t, ok)
}

func TestPresentation(t *testing.T) {
	assert.Equal(t, "Klein (< 50 medewerkers)", SizeLabel(TierNone))
	assert.Equal(t, "Middelgroot (50-250 medewerkers)", SizeLabel(TierMiddelgroot))
	assert.Equal(t, "Groot (> 250 medewerkers)", SizeLabel(TierGroot))

	assert.Equal(t, "kleine", RadioValue(TierNone))
	assert.Equal(t, "kleine", RadioValue(TierKlein))
	assert.Equal(t, "middel", RadioValue(TierMiddelgroot))
	assert.Equal(t, "grote", RadioValue(TierGroot))
}

package validation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock() time.Time {
	return time.Date(2025, time.June, 15, 14, 30, 0, 0, time.UTC)
}

func TestRequired(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"empty string", "", false},
		{"whitespace only", "   ", false},
		{"text", "Acme", true},
		{"zero is a value", 0, true},
		{"zero float", 0.0, true},
		{"NaN", math.NaN(), false},
		{"nil", nil, false},
		{"false is a value", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Required().Test(tt.value))
		})
	}
}

func TestEmail(t *testing.T) {
	assert.False(t, Email().Test("a@b"))
	assert.True(t, Email().Test("a@b.nl"))
	assert.False(t, Email().Test("a b@c.nl"))
	assert.True(t, Email().Test(""), "empty values are left to Required")
}

func TestFormatRules(t *testing.T) {
	tests := []struct {
		name  string
		rule  Rule
		value any
		want  bool
	}{
		{"kvk eight digits", KvkNumber(), "1234 5678", true},
		{"kvk seven digits", KvkNumber(), "1234567", false},
		{"postcode with space", DutchPostcode(), "1234 AB", true},
		{"postcode lowercase", DutchPostcode(), "1234ab", true},
		{"postcode leading zero", DutchPostcode(), "0123 AB", false},
		{"nace four digits", NaceCode(), "62.01", true},
		{"nace five digits", NaceCode(), "62011", false},
		{"initials dotted", Initials(), "J.M.", true},
		{"initials single", Initials(), "j", true},
		{"initials with digits", Initials(), "J1", false},
		{"letters with accents", LettersOnly(), "van 't Hoff-Müller", true},
		{"letters with digits", LettersOnly(), "Jansen2", false},
		{"min length", MinLength(2), "A", false},
		{"max length", MaxLength(3), "ABCD", false},
		{"min value zero", MinValue(0), "0", true},
		{"min value negative", MinValue(0), "-1", false},
		{"max value over", MaxValue(299999), "300000", false},
		{"max value text", MaxValue(10), "abc", false},
		{"year in range", YearRange(2020, 2025), 2024, true},
		{"year out of range", YearRange(2020, 2025), "2019", false},
		{"positive integer", PositiveInteger(), "12", true},
		{"positive integer with decimals", PositiveInteger(), "12.5", false},
		{"positive integer leading zero", PositiveInteger(), "012", false},
		{"btw with spaces", BtwID(), "NL 123456789 B01", true},
		{"btw wrong shape", BtwID(), "NL123456789", false},
		{"url without scheme", URL(), "example.nl", true},
		{"url with spaces", URL(), "exa mple.nl", false},
		{"phone with separators", Phone(), "06 (11) 24-13-60", true},
		{"phone international", Phone(), "+31611241360", true},
		{"phone too short", Phone(), "12345", false},
		{"house number suffix", DutchHouseNumber(), "301B", true},
		{"house number dash", DutchHouseNumber(), "45-A", true},
		{"house number zero", DutchHouseNumber(), "0", false},
		{"house number leading zero", DutchHouseNumber(), "012", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Test(tt.value))
		})
	}
}

func TestDateInPast(t *testing.T) {
	rule := DateInPastAt(fixedClock)

	assert.True(t, rule.Test("2025-06-14"))
	assert.False(t, rule.Test("2025-06-15"), "today is not in the past")
	assert.False(t, rule.Test("2026-01-01"))
	assert.False(t, rule.Test("15-06-2024"))
	assert.True(t, rule.Test(""))
}

func TestValidate_StopsAtFirstFailure(t *testing.T) {
	result := Validate("", Required("verplicht"), MinLength(2, "te kort"))
	assert.False(t, result.Valid)
	assert.Equal(t, "verplicht", result.Error)

	result = Validate("A", Required("verplicht"), MinLength(2, "te kort"))
	assert.Equal(t, "te kort", result.Error)

	result = Validate("AB", Required(), MinLength(2))
	assert.True(t, result.Valid)
	assert.Empty(t, result.Error)
}

func TestFields(t *testing.T) {
	fields := Fields(fixedClock)

	result := Validate("300000", fields["deMinimisAmount"]...)
	assert.Equal(t, "Bedrag mag maximaal €299.999 zijn", result.Error)

	assert.True(t, Validate(2025, fields["laatsteBoekjaar"]...).Valid)
	assert.False(t, Validate(2026, fields["laatsteBoekjaar"]...).Valid)
	assert.Equal(t, "Dit veld is verplicht", Validate("", fields["bedrijfsnaam"]...).Error)
}

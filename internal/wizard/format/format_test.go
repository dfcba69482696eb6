package format

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDigits(t *testing.T) {
	assert.Equal(t, "1234567", Digits("€ 1.234.567,-"))
	assert.Equal(t, "", Digits(""))
	assert.Equal(t, "", Digits("abc"))
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, int64(5000000), ParseAmount("5.000.000"))
	assert.Equal(t, int64(0), ParseAmount("geen"))
	assert.Equal(t, int64(math.MaxInt64), ParseAmount("99999999999999999999999"))
	assert.Equal(t, int64(math.MaxInt64), ParseAmount("€ 99.999.999.999.999.999.999"))
}

func TestCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1234567", "€ 1.234.567"},
		{"15.000.000", "€ 15.000.000"},
		{"999", "€ 999"},
		{"", ""},
		{"n.v.t.", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Currency(tt.in))
		})
	}
	assert.Equal(t, "1.234", Number("1234"))
}

func TestDates(t *testing.T) {
	day := time.Date(2025, time.March, 7, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "07-03-25", ShortDate(day))
	assert.Equal(t, "07-03-2025", LongDate(day))
	assert.Equal(t, "2025-03-07", ISODate(day))
	assert.Equal(t, "14/02/2024", SlashDate("2024-02-14"))
	assert.Equal(t, "", SlashDate(""))
}

func TestAddress(t *testing.T) {
	assert.Equal(t, "Dorpsstraat 12A", Address("Dorpsstraat", "12A"))
	assert.Equal(t, "Dorpsstraat", Address("Dorpsstraat", ""))
	assert.Equal(t, "", Address("", ""))
}

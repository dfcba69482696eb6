// Package format holds the number, currency, date and address shapes shared by the payload builders.
package format

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var nonDigits = regexp.MustCompile(`\D`)

var dutch = message.NewPrinter(language.Dutch)

// Digits strips everything that is not a digit.
func Digits(value string) string {
	if value == "" {
		return ""
	}
	return nonDigits.ReplaceAllString(value, "")
}

// ParseAmount reads the digits of a free-form amount. A value without digits counts as zero and
// a value too large for int64 saturates at math.MaxInt64.
func ParseAmount(value string) int64 {
	digits := Digits(value)
	if digits == "" {
		return 0
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt64
	}
	if err != nil {
		return 0
	}
	return n
}

// Number renders the digits of value with Dutch thousands separators, e.g. "1.234.567".
// It returns "" when value holds no digits.
func Number(value string) string {
	digits := Digits(value)
	if digits == "" {
		return ""
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return ""
	}
	return dutch.Sprintf("%d", n)
}

// Currency is Number prefixed with the euro sign, e.g. "€ 1.234.567".
func Currency(value string) string {
	n := Number(value)
	if n == "" {
		return ""
	}
	return "€ " + n
}

// SlashDate turns YYYY-MM-DD into dd/mm/yyyy. Empty input stays empty.
func SlashDate(iso string) string {
	if iso == "" {
		return ""
	}
	parts := strings.SplitN(iso, "-", 3)
	if len(parts) != 3 {
		return iso
	}
	return fmt.Sprintf("%s/%s/%s", parts[2], parts[1], parts[0])
}

// ShortDate renders t as dd-mm-yy.
func ShortDate(t time.Time) string {
	return t.Format("02-01-06")
}

// LongDate renders t as dd-mm-yyyy.
func LongDate(t time.Time) string {
	return t.Format("02-01-2006")
}

// ISODate renders t as YYYY-MM-DD.
func ISODate(t time.Time) string {
	return t.Format("2006-01-02")
}

func Address(straat, huisnummer string) string {
	return strings.TrimSpace(straat + " " + huisnummer)
}

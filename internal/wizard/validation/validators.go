package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	emailPattern       = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	postcodePattern    = regexp.MustCompile(`(?i)^[1-9]\d{3}\s?[A-Z]{2}$`)
	initialsPattern    = regexp.MustCompile(`(?i)^[A-Z](\.[A-Z])*\.?$`)
	lettersPattern     = regexp.MustCompile(`^[a-zA-ZÀ-ÿĀ-žÇçÑñ\s\-']+$`)
	btwPattern         = regexp.MustCompile(`(?i)^[A-Z]{2}[0-9]{9}B[0-9]{2}$`)
	phonePattern       = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	phoneSeparators    = regexp.MustCompile(`[\s\-()]`)
	houseNumberPattern = regexp.MustCompile(`^[1-9]\d{0,4}([A-Za-z]{1,3}|-[A-Za-z0-9]{1,3}|[A-Za-z]{1,3}-\d{1,2})?$`)
	whitespace         = regexp.MustCompile(`\s`)
)

// Required passes for non-blank strings, any number that is not NaN and any non-nil value.
func Required(message ...string) Rule {
	return Rule{
		Test: func(value any) bool {
			switch v := value.(type) {
			case nil:
				return false
			case string:
				return strings.TrimSpace(v) != ""
			case float64, float32, int, int32, int64:
				_, ok := number(v)
				return ok
			}
			return true
		},
		Message: messageOr("Dit veld is verplicht", message),
	}
}

func Email(message ...string) Rule {
	return Rule{
		Test: func(value any) bool {
			if blank(value) {
				return true
			}
			return emailPattern.MatchString(text(value))
		},
		Message: messageOr("Voer een geldig e-mailadres in", message),
	}
}

// KvkNumber accepts exactly eight digits once separators are stripped.
func KvkNumber(message ...string) Rule {
	return digitCount(8, messageOr("KvK-nummer moet 8 cijfers zijn", message))
}

// NaceCode accepts exactly four digits once separators are stripped.
func NaceCode(message ...string) Rule {
	return digitCount(4, messageOr("NACE-code moet 4 cijfers zijn", message))
}

func digitCount(n int, message string) Rule {
	return Rule{
		Test: func(value any) bool {
			if blank(value) {
				return true
			}
			return len(nonDigits.ReplaceAllString(text(value), "")) == n
		},
		Message: message,
	}
}

func DutchPostcode(message ...string) Rule {
	return Rule{
		Test: func(value any) bool {
			if blank(value) {
				return true
			}
			normalized := strings.TrimSpace(whitespace.ReplaceAllString(text(value), " "))
			return postcodePattern.MatchString(normalized)
		},
		Message: messageOr("Postcode moet in formaat 1234 AB zijn", message),
	}
}

func Initials(message ...string) Rule {
	return pattern(initialsPattern, messageOr("Gebruik alleen letters en punten (bijv. J.M.)", message))
}

func LettersOnly(message ...string) Rule {
	return pattern(lettersPattern, messageOr("Gebruik alleen letters", message))
}

func pattern(re *regexp.Regexp, message string) Rule {
	return Rule{
		Test: func(value any) bool {
			if blank(value) {
				return true
			}
			return re.MatchString(text(value))
		},
		Message: message,
	}
}

func MinLength(min int, message ...string) Rule {
	return Rule{
		Test: func(value any) bool {
			if blank(value) {
				return true
			}
			return utf8.RuneCountInString(text(value)) >= min
		},
		Message: messageOr(fmt.Sprintf("Minimaal %d karakters vereist", min), message),
	}
}

func MaxLength(max int, message ...string) Rule {
	return Rule{
		Test: func(value any) bool {
			if blank(value) {
				return true
			}
			return utf8.RuneCountInString(text(value)) <= max
		},
		Message: messageOr(fmt.Sprintf("Maximaal %d karakters toegestaan", max), message),
	}
}

// MinValue only skips nil and the empty string; zero is checked like any other number.
func MinValue(min float64, message ...string) Rule {
	return Rule{
		Test: func(value any) bool {
			if value == nil || value == "" {
				return true
			}
			n, ok := number(value)
			return ok && n >= min
		},
		Message: messageOr(fmt.Sprintf("Waarde moet minimaal %s zijn", text(min)), message),
	}
}

func MaxValue(max float64, message ...string) Rule {
	return Rule{
		Test: func(value any) bool {
			if value == nil || value == "" {
				return true
			}
			n, ok := number(value)
			return ok && n <= max
		},
		Message: messageOr(fmt.Sprintf("Waarde mag maximaal %s zijn", text(max)), message),
	}
}

func YearRange(min, max int, message ...string) Rule {
	return Rule{
		Test: func(value any) bool {
			if blank(value) {
				return true
			}
			year, ok := integer(value)
			return ok && year >= int64(min) && year <= int64(max)
		},
		Message: messageOr(fmt.Sprintf("Jaar moet tussen %d en %d liggen", min, max), message),
	}
}

// PositiveInteger requires the value to survive an integer round trip unchanged, so "12.5" and "012" fail.
func PositiveInteger(message ...string) Rule {
	return Rule{
		Test: func(value any) bool {
			if blank(value) {
				return true
			}
			n, ok := integer(value)
			return ok && n > 0 && fmt.Sprint(n) == text(value)
		},
		Message: messageOr("Voer een positief geheel getal in", message),
	}
}

// DateInPast accepts YYYY-MM-DD dates strictly before today at midnight.
func DateInPast(message ...string) Rule {
	return DateInPastAt(time.Now, message...)
}

// DateInPastAt is DateInPast with an explicit clock.
func DateInPastAt(now func() time.Time, message ...string) Rule {
	return Rule{
		Test: func(value any) bool {
			if blank(value) {
				return true
			}
			current := now()
			date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(text(value)), current.Location())
			if err != nil {
				return false
			}
			y, m, d := current.Date()
			return date.Before(time.Date(y, m, d, 0, 0, 0, 0, current.Location()))
		},
		Message: messageOr("Datum moet in het verleden liggen", message),
	}
}

func BtwID(message ...string) Rule {
	return Rule{
		Test: func(value any) bool {
			if blank(value) {
				return true
			}
			return btwPattern.MatchString(whitespace.ReplaceAllString(text(value), ""))
		},
		Message: messageOr("BTW-nummer moet geldig zijn (bijv. NL123456789B01)", message),
	}
}

// URL assumes https:// when the value carries no scheme.
func URL(message ...string) Rule {
	return Rule{
		Test: func(value any) bool {
			if blank(value) {
				return true
			}
			raw := text(value)
			if !strings.HasPrefix(raw, "http") {
				raw = "https://" + raw
			}
			u, err := url.Parse(raw)
			return err == nil && u.Host != "" && !strings.ContainsAny(u.Host, " \t")
		},
		Message: messageOr("Voer een geldige URL in", message),
	}
}

func Phone(message ...string) Rule {
	return Rule{
		Test: func(value any) bool {
			if blank(value) {
				return true
			}
			return phonePattern.MatchString(phoneSeparators.ReplaceAllString(text(value), ""))
		},
		Message: messageOr("Voer een geldig telefoonnummer in", message),
	}
}

// DutchHouseNumber accepts forms like 12, 301B, 45-A, 12bis and 34-2.
func DutchHouseNumber(message ...string) Rule {
	return Rule{
		Test: func(value any) bool {
			if blank(value) {
				return true
			}
			return houseNumberPattern.MatchString(strings.TrimSpace(text(value)))
		},
		Message: messageOr("Voer een geldig huisnummer in (bijv. 12, 123A, 301B)", message),
	}
}

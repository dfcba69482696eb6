// Package validation holds the composable field rules used by the wizard steps.
//
// Every rule except Required treats an empty value as valid, so a format rule never
// reports on a field the user has not filled in yet.
package validation

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Rule is a predicate paired with the message shown when it fails.
type Rule struct {
	Test    func(value any) bool
	Message string
}

// Result is the outcome of running a value through a list of rules.
type Result struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Validate runs the rules in order and stops at the first failure.
func Validate(value any, rules ...Rule) Result {
	for _, rule := range rules {
		if !rule.Test(value) {
			return Result{Valid: false, Error: rule.Message}
		}
	}
	return Result{Valid: true}
}

func messageOr(def string, override []string) string {
	if len(override) > 0 && override[0] != "" {
		return override[0]
	}
	return def
}

// blank mirrors the "nothing entered" notion of the form: nil, "", false, 0 and NaN.
func blank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	case int:
		return v == 0
	case int32:
		return v == 0
	case int64:
		return v == 0
	case float32:
		return v == 0 || math.IsNaN(float64(v))
	case float64:
		return v == 0 || math.IsNaN(v)
	}
	return false
}

func text(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

var (
	leadingFloat = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)
	leadingInt   = regexp.MustCompile(`^[+-]?\d+`)
	nonDigits    = regexp.MustCompile(`\D`)
)

// number parses like a lenient form field: leading numeric prefix wins, anything else is NaN.
func number(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), !math.IsNaN(float64(v))
	case float64:
		return v, !math.IsNaN(v)
	case string:
		m := leadingFloat.FindString(strings.TrimSpace(v))
		if m == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(m, 64)
		return f, err == nil
	}
	return 0, false
}

func integer(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float32:
		return int64(v), !math.IsNaN(float64(v))
	case float64:
		return int64(v), !math.IsNaN(v)
	case string:
		m := leadingInt.FindString(strings.TrimSpace(v))
		if m == "" {
			return 0, false
		}
		n, err := strconv.ParseInt(m, 10, 64)
		return n, err == nil
	}
	return 0, false
}

package signing

import (
	_ "embed"
	"errors"
	"fmt"

	"subsidy-wizard/internal/common/validation"
)

//go:embed session.schema.json
var sessionSchema []byte

var sessionValidator = validation.MustCompile(sessionSchema)

var ErrInvalidSession = errors.New("invalid signing session")

// Validate checks a session or request against the provider contract. The returned messages
// are suitable for showing to the applicant.
func Validate(v any) ([]string, error) {
	result := sessionValidator.Validate(v)
	if result.Valid {
		return nil, nil
	}
	msgs := result.Messages()
	return msgs, fmt.Errorf("%w: %s", ErrInvalidSession, result.Error())
}

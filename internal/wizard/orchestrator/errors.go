package orchestrator

import (
	"errors"
	"fmt"

	"subsidy-wizard/internal/wizard/signing"
	"subsidy-wizard/internal/wizard/steps"
)

var (
	ErrStepIncomplete  = errors.New("step is not complete")
	ErrUploadFailed    = errors.New("bank statement upload failed")
	ErrSigningFailed   = errors.New("signing session could not be created")
	ErrNoNextStep      = errors.New("already at the last step")
	ErrStepUnreachable = errors.New("step is not reachable yet")
)

// StepError carries the field errors of the step that refused to be left. Errors may be empty
// when only mandatory values are missing.
type StepError struct {
	Step   steps.Key
	Errors map[string]string
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, ErrStepIncomplete)
}

func (e *StepError) Unwrap() error { return ErrStepIncomplete }

// SubmissionError is a failed signing submission. Detail is what the applicant sees.
type SubmissionError struct {
	Detail           string
	ValidationErrors []string
	Err              error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%v: %s", ErrSigningFailed, e.Detail)
}

func (e *SubmissionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSigningFailed}
	}
	return []error{ErrSigningFailed, e.Err}
}

func newSubmissionError(resp *signing.Response, err error) *SubmissionError {
	se := &SubmissionError{Detail: signing.FailureDetail(resp, err), Err: err}
	if resp != nil {
		se.ValidationErrors = resp.ValidationErrors
	}
	return se
}

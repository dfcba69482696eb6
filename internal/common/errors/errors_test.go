package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	dup := NewDuplicateApplicationError("Acme-15-06-2025")

	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"standard error passes through", dup, ErrCodeDuplicateApplication},
		{"wrapped standard error", fmt.Errorf("archive: %w", dup), ErrCodeDuplicateApplication},
		{"deadline becomes timeout", fmt.Errorf("call: %w", context.DeadlineExceeded), ErrCodeTimeout},
		{"anything else is internal", stderrors.New("boom"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.err).Code)
		})
	}
}

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewSigningSubmissionFailedError("template niet gevonden").WithMetadata("applicationId", "Acme-15-06-2025")

	bpmnErr := ConvertToBPMNError(stdErr)
	assert.Equal(t, "SIGNING_FAILED", bpmnErr.Code)
	assert.Equal(t, 2, bpmnErr.Retries)
	assert.True(t, bpmnErr.Retryable)

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "SIGNING_SUBMISSION_FAILED", vars["originalErrorCode"])
	assert.Equal(t, "Acme-15-06-2025", vars["applicationId"])
	assert.Equal(t, "template niet gevonden", vars["errorDetails"])
}

func TestConvertToBPMNError_BusinessErrorsDoNotRetry(t *testing.T) {
	bpmnErr := ConvertToBPMNError(NewApplicationValidationFailedError("companyDetails: kvkNummer"))
	assert.Equal(t, 0, bpmnErr.Retries)
	assert.False(t, IsRetryableErrorCode(ErrCodeApplicationValidationFailed))

	unknown := ConvertToBPMNError(&StandardError{Code: "SOMETHING_NEW", Retryable: true})
	assert.Equal(t, "SOMETHING_NEW", unknown.Code)
	assert.Equal(t, 0, unknown.Retries)
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeDatabaseInsertFailed:        "DATABASE",
		ErrCodeDuplicateApplication:        "DATABASE",
		ErrCodeUploadFailed:                "BACKEND",
		ErrCodeSigningSessionInvalid:       "BACKEND",
		ErrCodeCRMSyncFailed:               "CRM",
		ErrCodeNotificationSendFailed:      "NOTIFICATION",
		ErrCodeTenantNotFound:              "TENANT",
		ErrCodeApplicationValidationFailed: "VALIDATION",
		ErrCodeInternal:                    "OTHER",
	}

	for code, want := range tests {
		assert.Equal(t, want, GetErrorCategory(code), code)
	}
}

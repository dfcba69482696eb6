package errors

import (
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeInvalidInput                ErrorCode = "INVALID_INPUT"
	ErrCodeApplicationValidationFailed ErrorCode = "APPLICATION_VALIDATION_FAILED"
	ErrCodeSigningSessionInvalid       ErrorCode = "SIGNING_SESSION_INVALID"
	ErrCodeTenantNotFound              ErrorCode = "TENANT_NOT_FOUND"

	ErrCodeUploadFailed                ErrorCode = "UPLOAD_FAILED"
	ErrCodeSigningSubmissionFailed     ErrorCode = "SIGNING_SUBMISSION_FAILED"
	ErrCodeCompanyInfoSubmissionFailed ErrorCode = "COMPANY_INFO_SUBMISSION_FAILED"
	ErrCodeCRMSyncFailed               ErrorCode = "CRM_SYNC_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeDuplicateApplication     ErrorCode = "DUPLICATE_APPLICATION"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT_ERROR"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// StandardError is the error shape every pipeline handler returns.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key to the error's metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", details, false)
}

// NewApplicationValidationFailedError lists the incomplete steps and their field errors in Details.
func NewApplicationValidationFailedError(details string) *StandardError {
	return newError(ErrCodeApplicationValidationFailed, "Application data validation failed", details, false)
}

func NewSigningSessionInvalidError(violations []string) *StandardError {
	return newError(ErrCodeSigningSessionInvalid, "Signing session payload is invalid", strings.Join(violations, "; "), false)
}

func NewTenantNotFoundError(tenantID string) *StandardError {
	return newError(ErrCodeTenantNotFound, "Tenant is not configured", fmt.Sprintf("tenantId: %s", tenantID), false)
}

func NewUploadFailedError(err error) *StandardError {
	return newError(ErrCodeUploadFailed, "Bank statement upload failed", err.Error(), true)
}

func NewSigningSubmissionFailedError(detail string) *StandardError {
	return newError(ErrCodeSigningSubmissionFailed, "Signing session could not be created", detail, true)
}

func NewCompanyInfoSubmissionFailedError(err error) *StandardError {
	return newError(ErrCodeCompanyInfoSubmissionFailed, "Company info submission failed", err.Error(), true)
}

func NewCRMSyncFailedError(err error) *StandardError {
	return newError(ErrCodeCRMSyncFailed, "CRM contact sync failed", err.Error(), true)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), true)
}

func NewDuplicateApplicationError(applicationID string) *StandardError {
	return newError(ErrCodeDuplicateApplication, "Application already exists", fmt.Sprintf("applicationId: %s", applicationID), false)
}

func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()), true)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err.Error(), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:                "INVALID_INPUT",
	ErrCodeApplicationValidationFailed: "APPLICATION_VALIDATION_FAILED",
	ErrCodeSigningSessionInvalid:       "SIGNING_SESSION_INVALID",
	ErrCodeTenantNotFound:              "TENANT_NOT_FOUND",
	ErrCodeUploadFailed:                "UPLOAD_FAILED",
	ErrCodeSigningSubmissionFailed:     "SIGNING_FAILED",
	ErrCodeCompanyInfoSubmissionFailed: "COMPANY_INFO_FAILED",
	ErrCodeCRMSyncFailed:               "CRM_SYNC_FAILED",
	ErrCodeDatabaseConnectionFailed:    "DATABASE_CONNECTION_FAILED",
	ErrCodeDatabaseInsertFailed:        "DATABASE_INSERT_FAILED",
	ErrCodeDuplicateApplication:        "DUPLICATE_APPLICATION",
	ErrCodeNotificationSendFailed:      "NOTIFICATION_SEND_FAILED",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeCRMSyncFailed,
		ErrCodeCompanyInfoSubmissionFailed,
		ErrCodeExternalService:
		return 3

	case ErrCodeUploadFailed,
		ErrCodeSigningSubmissionFailed,
		ErrCodeTimeout:
		return 2

	default:
		return 0 // business errors
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "DUPLICATE"):
		return "DATABASE"
	case strings.Contains(codeStr, "SIGNING") || strings.Contains(codeStr, "UPLOAD") || strings.Contains(codeStr, "COMPANY_INFO"):
		return "BACKEND"
	case strings.Contains(codeStr, "CRM"):
		return "CRM"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "TENANT"):
		return "TENANT"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

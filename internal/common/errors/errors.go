// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeSchemaNotFound   ErrorCode = "SCHEMA_NOT_FOUND"
	ErrCodeDataIntegrity    ErrorCode = "DATA_INTEGRITY"

	ErrCodeMatchingExhausted ErrorCode = "MATCHING_EXHAUSTED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeEvaluationPersistFailed  ErrorCode = "EVALUATION_PERSIST_FAILED"
	ErrCodeDuplicateEvaluation      ErrorCode = "DUPLICATE_EVALUATION"

	ErrCodeDirectorySearchFailed ErrorCode = "DIRECTORY_SEARCH_FAILED"
	ErrCodeDirectoryTimeout      ErrorCode = "DIRECTORY_TIMEOUT"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeParseError ErrorCode = "PARSE_ERROR"
)

// StandardError represents a structured application error.
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

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
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

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewValidationFailedError reports missing required data. Always recoverable
// by supplying more data; carries the missing field lists in metadata.
func NewValidationFailedError(details string, missing map[string]interface{}) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Applicant data validation failed",
		Details:   details,
		Retryable: false,
		Metadata:  missing,
		Timestamp: time.Now().UTC(),
	}
}

// NewSchemaNotFoundError reports an unregistered (visaType, applicationType) pair.
func NewSchemaNotFoundError(visaType, applicationType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSchemaNotFound,
		Message:   "No rule schema registered for visa/application type",
		Details:   fmt.Sprintf("visaType: %s, applicationType: %s", visaType, applicationType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDataIntegrityError reports malformed rule-table data. This is the only
// class that aborts a computation instead of degrading.
func NewDataIntegrityError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDataIntegrity,
		Message:   "Rule table data is structurally invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMatchingExhaustedError records that no candidates passed the hard filters.
// Surfaced as an empty recommendation list, never thrown to the workflow.
func NewMatchingExhaustedError(reasons map[string]interface{}) *StandardError {
	return &StandardError{
		Code:      ErrCodeMatchingExhausted,
		Message:   "No representatives passed the matching filters",
		Retryable: false,
		Metadata:  reasons,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEvaluationPersistFailedError creates a retryable insert error.
func NewEvaluationPersistFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEvaluationPersistFailed,
		Message:   "Evaluation record insert failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateEvaluationError creates a non-retryable duplicate record error.
func NewDuplicateEvaluationError(evaluationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateEvaluation,
		Message:   "Evaluation record already exists",
		Details:   fmt.Sprintf("evaluationId: %s", evaluationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDirectorySearchFailedError creates a retryable representative directory error.
func NewDirectorySearchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDirectorySearchFailed,
		Message:   "Representative directory query error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDirectoryTimeoutError creates a retryable directory timeout error.
func NewDirectoryTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeDirectoryTimeout,
		Message:   "Representative directory query timeout",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes (same values).
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeValidationFailed:         "VALIDATION_FAILED",
	ErrCodeSchemaNotFound:           "SCHEMA_NOT_FOUND",
	ErrCodeDataIntegrity:            "DATA_INTEGRITY",
	ErrCodeMatchingExhausted:        "MATCHING_EXHAUSTED",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeEvaluationPersistFailed:  "EVALUATION_PERSIST_FAILED",
	ErrCodeDuplicateEvaluation:      "DUPLICATE_EVALUATION",
	ErrCodeDirectorySearchFailed:    "DIRECTORY_SEARCH_FAILED",
	ErrCodeDirectoryTimeout:         "DIRECTORY_TIMEOUT",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
	ErrCodeParseError:               "PARSE_ERROR",
}

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeEvaluationPersistFailed,
		ErrCodeDirectorySearchFailed,
		ErrCodeNotificationSendFailed:
		return 3 // Retryable technical errors

	case ErrCodeDirectoryTimeout:
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "PARSE"):
		return "VALIDATION"
	case strings.Contains(codeStr, "SCHEMA") || strings.Contains(codeStr, "INTEGRITY"):
		return "RULESET"
	case strings.Contains(codeStr, "MATCHING") || strings.Contains(codeStr, "DIRECTORY"):
		return "MATCHING"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "EVALUATION"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}

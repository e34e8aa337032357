// Package errors provides the structured error type shared by the wizard, its gateways
// and the post-submission workflow workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Wizard errors
const (
	ErrCodeValidationFailed      ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidStepTransition ErrorCode = "INVALID_STEP_TRANSITION"
	ErrCodeSessionNotFound       ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeNoStagedSuggestion    ErrorCode = "NO_STAGED_SUGGESTION"
	ErrCodeUnknownField          ErrorCode = "UNKNOWN_FIELD"
)

// Persistence errors
const (
	ErrCodeStoreReadFailed  ErrorCode = "STORE_READ_FAILED"
	ErrCodeStoreWriteFailed ErrorCode = "STORE_WRITE_FAILED"
)

// Gateway errors
const (
	ErrCodeSuggestionFailed  ErrorCode = "SUGGESTION_FAILED"
	ErrCodeSuggestionTimeout ErrorCode = "SUGGESTION_TIMEOUT"
	ErrCodeSubmissionFailed  ErrorCode = "SUBMISSION_FAILED"
	ErrCodeSubmissionTimeout ErrorCode = "SUBMISSION_TIMEOUT"
)

// Workflow worker errors
const (
	ErrCodeDatabaseInsertFailed   ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeIndexFailed            ErrorCode = "INDEX_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInvalidJobInput        ErrorCode = "INVALID_JOB_INPUT"
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

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

// AsStandard unwraps err into a *StandardError if one is in the chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandard(err)
	return ok && stdErr.Code == code
}

// IsRetryable reports whether err is a StandardError marked retryable.
func IsRetryable(err error) bool {
	stdErr, ok := AsStandard(err)
	return ok && stdErr.Retryable
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
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// NewValidationFailedError carries the per-field messages of a rejected step.
func NewValidationFailedError(step int, fieldErrors map[string]string) *StandardError {
	e := newError(ErrCodeValidationFailed, "Step validation failed", fmt.Sprintf("step: %d, fields: %d", step, len(fieldErrors)), false)
	e.Metadata = map[string]interface{}{"fieldErrors": fieldErrors, "step": step}
	return e
}

func NewInvalidStepTransitionError(details string) *StandardError {
	return newError(ErrCodeInvalidStepTransition, "Step transition not allowed", details, false)
}

func NewSessionNotFoundError(sessionID string) *StandardError {
	return newError(ErrCodeSessionNotFound, "Wizard session not found", fmt.Sprintf("sessionId: %s", sessionID), false)
}

func NewNoStagedSuggestionError() *StandardError {
	return newError(ErrCodeNoStagedSuggestion, "No suggestion is staged", "", false)
}

func NewUnknownFieldError(field string) *StandardError {
	return newError(ErrCodeUnknownField, "Unknown field", fmt.Sprintf("field: %s", field), false)
}

// NewStoreReadFailedError is logged, never surfaced to the applicant.
func NewStoreReadFailedError(key string, err error) *StandardError {
	return newError(ErrCodeStoreReadFailed, "Could not read persisted application", fmt.Sprintf("key: %s, error: %s", key, errDetails(err)), true)
}

func NewStoreWriteFailedError(key string, err error) *StandardError {
	return newError(ErrCodeStoreWriteFailed, "Could not persist application", fmt.Sprintf("key: %s, error: %s", key, errDetails(err)), true)
}

func NewSuggestionFailedError(field string, err error) *StandardError {
	return newError(ErrCodeSuggestionFailed, "Suggestion request failed", fmt.Sprintf("field: %s, error: %s", field, errDetails(err)), true)
}

func NewSuggestionTimeoutError(field string) *StandardError {
	return newError(ErrCodeSuggestionTimeout, "Suggestion request timed out", fmt.Sprintf("field: %s", field), true)
}

// NewSubmissionFailedError wraps a backend failure. Retryable tells the applicant whether trying again can help.
func NewSubmissionFailedError(err error, retryable bool) *StandardError {
	return newError(ErrCodeSubmissionFailed, "Application submission failed", errDetails(err), retryable)
}

func NewSubmissionTimeoutError(err error) *StandardError {
	return newError(ErrCodeSubmissionTimeout, "Application submission timed out", errDetails(err), true)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", errDetails(err), true)
}

func NewIndexFailedError(index string, err error) *StandardError {
	return newError(ErrCodeIndexFailed, "Search indexing failed", fmt.Sprintf("index: %s, error: %s", index, errDetails(err)), true)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed", fmt.Sprintf("type: %s, error: %s", channel, errDetails(err)), true)
}

func NewInvalidJobInputError(err error) *StandardError {
	return newError(ErrCodeInvalidJobInput, "Job variables could not be parsed", errDetails(err), false)
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return newError("EXTERNAL_SERVICE_ERROR", fmt.Sprintf("External service '%s' error", service), errDetails(err), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError("TIMEOUT_ERROR", fmt.Sprintf("Service '%s' timeout", service), errDetails(err), true)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError("RESOURCE_NOT_FOUND", fmt.Sprintf("Resource not found in %s", service), details, false)
}

func NewBusinessRuleError(message, details string) *StandardError {
	return newError("BUSINESS_RULE_VIOLATION", message, details, false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal codes to the error codes modelled in the BPMN diagram.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeSubmissionFailed:       "SUBMISSION_FAILED",
	ErrCodeDatabaseInsertFailed:   "DATABASE_INSERT_FAILED",
	ErrCodeIndexFailed:            "INDEX_FAILED",
	ErrCodeNotificationSendFailed: "NOTIFICATION_SEND_FAILED",
	ErrCodeInvalidJobInput:        "INVALID_JOB_INPUT",
	ErrCodeValidationFailed:       "APPLICATION_VALIDATION_FAILED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseInsertFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeStoreWriteFailed,
		ErrCodeSubmissionFailed:
		return 3

	case ErrCodeIndexFailed,
		ErrCodeSubmissionTimeout:
		return 2

	case ErrCodeSuggestionTimeout,
		ErrCodeSuggestionFailed:
		return 1

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
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
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "FIELD") || strings.Contains(codeStr, "STEP"):
		return "VALIDATION"
	case strings.Contains(codeStr, "STORE") || strings.Contains(codeStr, "DATABASE"):
		return "PERSISTENCE"
	case strings.Contains(codeStr, "SUGGESTION"):
		return "SUGGESTION"
	case strings.Contains(codeStr, "SUBMISSION"):
		return "SUBMISSION"
	case strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "SESSION"):
		return "SESSION"
	default:
		return "OTHER"
	}
}

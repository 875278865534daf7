// Package errors provides standardized error handling for the inference
// pipeline and its BPMN workflow integration.
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

// Inference pipeline errors
const (
	ErrCodeSchemaMismatch ErrorCode = "SCHEMA_MISMATCH"
	ErrCodeTransformError ErrorCode = "TRANSFORM_ERROR"
	ErrCodeShapeError     ErrorCode = "SHAPE_ERROR"
	ErrCodeUnknownCluster ErrorCode = "UNKNOWN_CLUSTER"
	ErrCodeConfigLoad     ErrorCode = "CONFIG_LOAD_ERROR"
)

// Worker boundary / infrastructure errors
const (
	ErrCodeParseError             ErrorCode = "PARSE_ERROR"
	ErrCodeInputValidationFailed  ErrorCode = "INPUT_VALIDATION_FAILED"
	ErrCodeDatabaseInsertFailed   ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeCacheUnavailable       ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
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
	if e.Details == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
}

// Is matches another *StandardError by code, so errors.Is works against the
// sentinel values below.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrSchemaMismatch = &StandardError{Code: ErrCodeSchemaMismatch}
	ErrTransform      = &StandardError{Code: ErrCodeTransformError}
	ErrShape          = &StandardError{Code: ErrCodeShapeError}
	ErrUnknownCluster = &StandardError{Code: ErrCodeUnknownCluster}
	ErrConfigLoad     = &StandardError{Code: ErrCodeConfigLoad}
)

// CodeOf extracts the ErrorCode of err, or "INTERNAL_ERROR" when err does not
// wrap a StandardError.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return "INTERNAL_ERROR"
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

// NewSchemaMismatchError reports a required column that is absent after defaulting.
func NewSchemaMismatchError(column string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSchemaMismatch,
		Message:   "required column missing from input record",
		Details:   fmt.Sprintf("column: %s", column),
		Retryable: false,
		Metadata:  map[string]interface{}{"column": column},
		Timestamp: time.Now().UTC(),
	}
}

// NewTransformError reports a value the fitted transform cannot accept.
func NewTransformError(column, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransformError,
		Message:   "value incompatible with fitted transform",
		Details:   fmt.Sprintf("column: %s, %s", column, details),
		Retryable: false,
		Metadata:  map[string]interface{}{"column": column},
		Timestamp: time.Now().UTC(),
	}
}

// NewShapeError reports a vector width that does not match the fitted transform.
func NewShapeError(stage string, expected, got int) *StandardError {
	return &StandardError{
		Code:      ErrCodeShapeError,
		Message:   "feature vector width mismatch",
		Details:   fmt.Sprintf("stage: %s, expected: %d, got: %d", stage, expected, got),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownClusterError reports a cluster id with no entry in the name table.
func NewUnknownClusterError(id int) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownCluster,
		Message:   "cluster id has no configured name",
		Details:   fmt.Sprintf("clusterId: %d", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigLoadError reports a model bundle that could not be loaded or is inconsistent.
func NewConfigLoadError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigLoad,
		Message:   "model bundle load failed",
		Details:   fmt.Sprintf("source: %s, error: %v", source, err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewParseError creates a non-retryable job variable parse error.
func NewParseError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeParseError,
		Message:   "failed to parse job variables",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInputValidationFailedError creates a non-retryable validation error.
func NewInputValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputValidationFailed,
		Message:   "student profile failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseInsertFailedError creates a retryable insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification sending failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the BPMN error codes modelled
// on the boundary events of the learning-style process.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeSchemaMismatch:         "PROFILE_INCOMPLETE",
	ErrCodeTransformError:         "PROFILE_INVALID",
	ErrCodeInputValidationFailed:  "PROFILE_INVALID",
	ErrCodeShapeError:             "MODEL_MISCONFIGURED",
	ErrCodeUnknownCluster:         "MODEL_MISCONFIGURED",
	ErrCodeConfigLoad:             "MODEL_MISCONFIGURED",
	ErrCodeParseError:             "PARSE_ERROR",
	ErrCodeDatabaseInsertFailed:   "DATABASE_INSERT_FAILED",
	ErrCodeNotificationSendFailed: "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseInsertFailed,
		ErrCodeNotificationSendFailed,
		"EXTERNAL_SERVICE_ERROR":
		return 3

	case "TIMEOUT_ERROR":
		return 2

	default:
		return 0 // data and configuration errors never succeed on retry
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
	case code == ErrCodeSchemaMismatch || code == ErrCodeTransformError ||
		strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "PARSE"):
		return "INPUT"
	case code == ErrCodeShapeError || code == ErrCodeUnknownCluster || code == ErrCodeConfigLoad:
		return "MODEL"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "CACHE"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}

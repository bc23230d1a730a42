// Package errors provides unified error handling across the promptpack system.
//
// It standardizes error representation for every interface the suite exposes
// (CLI, HTTP API, TUI): business logic returns *AppError values carrying a
// stable code, severity and category, and the interface-specific handlers in
// handlers.go format them for display or transport.
//
// INTEGRATION POINTS:
// - internal/validation: ValidationResult.ToAppError() converts slot failures
// - internal/conformance: Report.ToAppError() converts contract violations
// - internal/service: wraps storage, render and git failures as AppErrors
// - internal/api: HTTPErrorHandler maps AppErrors to status codes and JSON
// - internal/cli: CLIErrorHandler formats AppErrors for terminal display
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	// Validation errors (bad or missing template inputs)
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeMissingSlot   ErrorCode = "MISSING_SLOT"
	ErrCodeInvalidOption ErrorCode = "INVALID_OPTION"
	ErrCodeOutOfRange    ErrorCode = "OUT_OF_RANGE"

	// Rendering errors
	ErrCodeRenderFailure  ErrorCode = "RENDER_FAILURE"
	ErrCodeTemplateSyntax ErrorCode = "TEMPLATE_SYNTAX"

	// Conformance errors (agent output violating the template contract)
	ErrCodeContractViolation ErrorCode = "CONTRACT_VIOLATION"
	ErrCodeUnparsableOutput  ErrorCode = "UNPARSABLE_OUTPUT"
	ErrCodeNoContract        ErrorCode = "NO_CONTRACT"

	// Resource errors
	ErrCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrCodeAlreadyExists  ErrorCode = "ALREADY_EXISTS"
	ErrCodeInternalError  ErrorCode = "INTERNAL_ERROR"
	ErrCodeNotImplemented ErrorCode = "NOT_IMPLEMENTED"

	// Storage errors
	ErrCodeStorageFailure ErrorCode = "STORAGE_FAILURE"
	ErrCodeFileNotFound   ErrorCode = "FILE_NOT_FOUND"
	ErrCodeFileCorrupted  ErrorCode = "FILE_CORRUPTED"

	// Command errors
	ErrCodeCommandNotFound ErrorCode = "COMMAND_NOT_FOUND"
	ErrCodeCommandFailed   ErrorCode = "COMMAND_FAILED"
	ErrCodeInvalidCommand  ErrorCode = "INVALID_COMMAND"

	// Git sync errors
	ErrCodeGitFailure       ErrorCode = "GIT_FAILURE"
	ErrCodeGitNotConfigured ErrorCode = "GIT_NOT_CONFIGURED"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityInfo     ErrorSeverity = "info"
	SeverityWarning  ErrorSeverity = "warning"
	SeverityError    ErrorSeverity = "error"
	SeverityCritical ErrorSeverity = "critical"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	CategoryValidation  ErrorCategory = "validation"
	CategoryRender      ErrorCategory = "render"
	CategoryConformance ErrorCategory = "conformance"
	CategoryStorage     ErrorCategory = "storage"
	CategoryCommand     ErrorCategory = "command"
	CategoryGit         ErrorCategory = "git"
	CategorySystem      ErrorCategory = "system"
)

// AppError represents a standardized application error
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Severity  ErrorSeverity          `json:"severity"`
	Category  ErrorCategory          `json:"category"`
	Cause     error                  `json:"-"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string) *AppError {
	category, severity := categorizeError(code)
	return &AppError{
		Code:      code,
		Message:   message,
		Severity:  severity,
		Category:  category,
		Timestamp: time.Now(),
	}
}

// Wrap wraps an existing error with application error context
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := NewAppError(code, message)
	appErr.Cause = err
	return appErr
}

// categorizeError determines the category and severity based on error code
func categorizeError(code ErrorCode) (ErrorCategory, ErrorSeverity) {
	switch code {
	case ErrCodeValidation, ErrCodeInvalidInput, ErrCodeMissingSlot,
		ErrCodeInvalidOption, ErrCodeOutOfRange:
		return CategoryValidation, SeverityWarning

	case ErrCodeRenderFailure, ErrCodeTemplateSyntax:
		return CategoryRender, SeverityError

	case ErrCodeContractViolation, ErrCodeUnparsableOutput:
		return CategoryConformance, SeverityWarning
	case ErrCodeNoContract:
		return CategoryConformance, SeverityInfo

	case ErrCodeNotFound:
		return CategorySystem, SeverityInfo
	case ErrCodeAlreadyExists:
		return CategorySystem, SeverityWarning
	case ErrCodeInternalError:
		return CategorySystem, SeverityCritical
	case ErrCodeNotImplemented:
		return CategorySystem, SeverityInfo

	case ErrCodeStorageFailure, ErrCodeFileCorrupted:
		return CategoryStorage, SeverityError
	case ErrCodeFileNotFound:
		return CategoryStorage, SeverityInfo

	case ErrCodeCommandNotFound:
		return CategoryCommand, SeverityInfo
	case ErrCodeCommandFailed, ErrCodeInvalidCommand:
		return CategoryCommand, SeverityError

	case ErrCodeGitFailure:
		return CategoryGit, SeverityError
	case ErrCodeGitNotConfigured:
		return CategoryGit, SeverityInfo

	default:
		return CategorySystem, SeverityError
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError extracts an AppError from an error, or converts it to one
func GetAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return Wrap(err, ErrCodeInternalError, "Internal error occurred")
}

// Common error constructors for frequently used errors

func ValidationError(message string) *AppError {
	return NewAppError(ErrCodeValidation, message)
}

func NotFoundError(resource string) *AppError {
	return NewAppError(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func AlreadyExistsError(resource string) *AppError {
	return NewAppError(ErrCodeAlreadyExists, fmt.Sprintf("%s already exists", resource))
}

func InternalError(message string) *AppError {
	return NewAppError(ErrCodeInternalError, message)
}

func StorageError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeStorageFailure, fmt.Sprintf("Storage operation failed: %s", operation))
}

func RenderError(templateID string, err error) *AppError {
	return Wrap(err, ErrCodeRenderFailure, fmt.Sprintf("Failed to render template '%s'", templateID))
}

func ContractViolationError(templateID string, count int) *AppError {
	return NewAppError(ErrCodeContractViolation,
		fmt.Sprintf("Output violates the '%s' contract (%d violations)", templateID, count))
}

func GitError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeGitFailure, fmt.Sprintf("Git operation failed: %s", operation))
}

func CommandNotFoundError(command string) *AppError {
	return NewAppError(ErrCodeCommandNotFound, fmt.Sprintf("Command '%s' not found", command))
}

func InvalidCommandError(command string, reason string) *AppError {
	return NewAppError(ErrCodeInvalidCommand, fmt.Sprintf("Invalid command '%s': %s", command, reason))
}

// Interface-specific error handling: the CLI, HTTP API and TUI each format
// the same AppError data for their own medium.
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// ErrorHandler provides interface-specific error handling
type ErrorHandler interface {
	HandleError(err error) error
	FormatError(err error) string
}

// CLIErrorHandler handles errors for CLI interface
type CLIErrorHandler struct {
	Verbose bool
	logger  *zap.Logger
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler(verbose bool, logger *zap.Logger) *CLIErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CLIErrorHandler{Verbose: verbose, logger: logger}
}

// HandleError handles errors for CLI interface
func (h *CLIErrorHandler) HandleError(err error) error {
	appErr := GetAppError(err)

	if h.Verbose {
		h.logger.Error("command failed",
			zap.String("code", string(appErr.Code)),
			zap.String("category", string(appErr.Category)),
			zap.Error(appErr.Cause))
	}

	return fmt.Errorf("%s", h.FormatError(appErr))
}

// FormatError formats an error for CLI display
func (h *CLIErrorHandler) FormatError(err error) string {
	appErr := GetAppError(err)

	switch appErr.Severity {
	case SeverityCritical:
		return fmt.Sprintf("❌ CRITICAL: %s", appErr.Message)
	case SeverityError:
		return fmt.Sprintf("❌ ERROR: %s", appErr.Message)
	case SeverityWarning:
		return fmt.Sprintf("⚠️  WARNING: %s", appErr.Message)
	case SeverityInfo:
		return fmt.Sprintf("ℹ️  INFO: %s", appErr.Message)
	default:
		return fmt.Sprintf("❌ %s", appErr.Message)
	}
}

// HTTPErrorHandler handles errors for HTTP interface
type HTTPErrorHandler struct {
	IncludeDetails bool
	logger         *zap.Logger
}

// NewHTTPErrorHandler creates a new HTTP error handler
func NewHTTPErrorHandler(includeDetails bool, logger *zap.Logger) *HTTPErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPErrorHandler{IncludeDetails: includeDetails, logger: logger}
}

// HandleError handles errors for HTTP interface
func (h *HTTPErrorHandler) HandleError(err error) error {
	appErr := GetAppError(err)

	h.logger.Error("request failed",
		zap.String("code", string(appErr.Code)),
		zap.String("severity", string(appErr.Severity)),
		zap.String("message", appErr.Message),
		zap.Error(appErr.Cause))

	return appErr
}

// FormatError formats an error as a JSON response body
func (h *HTTPErrorHandler) FormatError(err error) string {
	appErr := GetAppError(err)

	errBody := map[string]interface{}{
		"code":      appErr.Code,
		"message":   appErr.Message,
		"timestamp": appErr.Timestamp,
	}
	if h.IncludeDetails && appErr.Details != "" {
		errBody["details"] = appErr.Details
	}
	if h.IncludeDetails && appErr.Context != nil {
		errBody["context"] = appErr.Context
	}

	jsonBytes, _ := json.Marshal(map[string]interface{}{"error": errBody})
	return string(jsonBytes)
}

// WriteHTTPError writes an error response to HTTP
func (h *HTTPErrorHandler) WriteHTTPError(w http.ResponseWriter, err error) {
	appErr := GetAppError(err)

	h.HandleError(appErr)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(h.getHTTPStatusCode(appErr))
	w.Write([]byte(h.FormatError(appErr)))
}

// getHTTPStatusCode maps error codes to HTTP status codes
func (h *HTTPErrorHandler) getHTTPStatusCode(appErr *AppError) int {
	switch appErr.Code {
	case ErrCodeValidation, ErrCodeInvalidInput, ErrCodeMissingSlot,
		ErrCodeInvalidOption, ErrCodeOutOfRange, ErrCodeNoContract:
		return http.StatusBadRequest
	case ErrCodeContractViolation, ErrCodeUnparsableOutput:
		return http.StatusUnprocessableEntity
	case ErrCodeNotFound, ErrCodeFileNotFound:
		return http.StatusNotFound
	case ErrCodeAlreadyExists:
		return http.StatusConflict
	case ErrCodeNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// TUIErrorHandler handles errors for TUI interface
type TUIErrorHandler struct {
	ShowDetails bool
}

// NewTUIErrorHandler creates a new TUI error handler
func NewTUIErrorHandler(showDetails bool) *TUIErrorHandler {
	return &TUIErrorHandler{ShowDetails: showDetails}
}

// HandleError handles errors for TUI interface
func (h *TUIErrorHandler) HandleError(err error) error {
	return GetAppError(err)
}

// FormatError formats an error for TUI display
func (h *TUIErrorHandler) FormatError(err error) string {
	appErr := GetAppError(err)

	message := appErr.Message
	if h.ShowDetails && appErr.Details != "" {
		message = fmt.Sprintf("%s\nDetails: %s", message, appErr.Details)
	}

	return message
}

// GetErrorStyle returns an icon and hex color for TUI display by severity
func (h *TUIErrorHandler) GetErrorStyle(err error) (string, string) {
	appErr := GetAppError(err)

	switch appErr.Severity {
	case SeverityCritical:
		return "🔥", "#ff0000"
	case SeverityError:
		return "❌", "#ff6b6b"
	case SeverityWarning:
		return "⚠️", "#feca57"
	case SeverityInfo:
		return "ℹ️", "#48cae4"
	default:
		return "❌", "#ff6b6b"
	}
}

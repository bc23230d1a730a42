// Package conformance checks generated agent output against a template's
// declared output contract.
//
// The templates state their output rules as instructional text; nothing makes
// a generation agent obey them. This package closes that gap: after an agent
// responds, the output is parsed and every structural rule the template
// declares (findings table columns, severity vocabulary, score ranges,
// commit header grammar, variant counts) is verified mechanically before the
// text is surfaced to a user.
//
// INTEGRATION POINTS:
// - internal/models: Contract selects the checker; results use the domain
//   types (CommitMessage, AuditReport, Finding, Severity)
// - internal/service: Verify() runs the checker for a stored template
// - internal/api: POST /api/v1/verify exposes the checker over HTTP
// - internal/errors: Report.ToAppError() bridges violations into AppError
package conformance

import (
	"fmt"
	"strings"

	"github.com/dbod-pe/promptpack/internal/errors"
	"github.com/dbod-pe/promptpack/internal/models"
)

// Violation severities. Errors fail the report; warnings are advisory.
const (
	LevelError   = "error"
	LevelWarning = "warning"
)

// Violation is one detected deviation from the output contract
type Violation struct {
	Code     string `json:"code"`
	Level    string `json:"level"`
	Location string `json:"location,omitempty"` // e.g. "message 2", "findings table row 3"
	Message  string `json:"message"`
	Value    string `json:"value,omitempty"`
}

// Report is the result of verifying one agent response
type Report struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations,omitempty"`

	// Parsed output, populated as far as parsing succeeded
	Commits []models.CommitMessage `json:"commits,omitempty"`
	Audit   *models.AuditReport    `json:"audit,omitempty"`
}

func (r *Report) addError(code, location, message, value string) {
	r.Valid = false
	r.Violations = append(r.Violations, Violation{
		Code: code, Level: LevelError, Location: location, Message: message, Value: value,
	})
}

func (r *Report) addWarning(code, location, message, value string) {
	r.Violations = append(r.Violations, Violation{
		Code: code, Level: LevelWarning, Location: location, Message: message, Value: value,
	})
}

// ErrorCount returns the number of error-level violations
func (r *Report) ErrorCount() int {
	count := 0
	for _, v := range r.Violations {
		if v.Level == LevelError {
			count++
		}
	}
	return count
}

// ToAppError converts a failed report into an AppError; nil if the report passed
func (r *Report) ToAppError(templateID string) *errors.AppError {
	if r.Valid {
		return nil
	}

	appErr := errors.ContractViolationError(templateID, r.ErrorCount())

	var details []string
	for _, v := range r.Violations {
		if v.Level != LevelError {
			continue
		}
		if v.Location != "" {
			details = append(details, fmt.Sprintf("%s: %s", v.Location, v.Message))
		} else {
			details = append(details, v.Message)
		}
	}
	appErr.WithDetails(strings.Join(details, "; "))
	appErr.WithContext("violations", r.Violations)

	return appErr
}

// Verifier dispatches output verification by contract kind
type Verifier struct{}

// NewVerifier creates a new verifier instance
func NewVerifier() *Verifier {
	return &Verifier{}
}

// Verify checks output against the template's contract. The inputs map is the
// validated slot data of the originating render; for commit templates it
// carries the requested variant count.
func (v *Verifier) Verify(tmpl *models.Template, output string, inputs map[string]interface{}) (*Report, error) {
	if tmpl.Contract == nil {
		return nil, errors.NewAppError(errors.ErrCodeNoContract,
			fmt.Sprintf("Template '%s' declares no output contract", tmpl.ID))
	}

	switch tmpl.Contract.Kind {
	case models.ContractCommitMessages:
		wantVariants := 0
		if raw, ok := inputs["variant_count"]; ok {
			switch n := raw.(type) {
			case int:
				wantVariants = n
			case float64:
				wantVariants = int(n)
			}
		}
		return VerifyCommits(tmpl.Contract, output, wantVariants), nil

	case models.ContractAuditReport:
		return VerifyAudit(tmpl.Contract, output), nil

	default:
		return nil, errors.NewAppError(errors.ErrCodeNoContract,
			fmt.Sprintf("Unknown contract kind '%s'", tmpl.Contract.Kind))
	}
}

// StripFences removes a wrapping markdown code fence from agent output.
// Generation agents routinely wrap whole responses in ``` blocks even when
// told not to; the contract applies to the content inside.
func StripFences(output string) string {
	cleaned := strings.TrimSpace(output)

	if !strings.HasPrefix(cleaned, "```") || !strings.HasSuffix(cleaned, "```") {
		return cleaned
	}

	// Drop the opening fence line (which may carry a language tag)
	if idx := strings.Index(cleaned, "\n"); idx >= 0 {
		cleaned = cleaned[idx+1:]
	} else {
		return strings.TrimSpace(strings.Trim(cleaned, "`"))
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")

	return strings.TrimSpace(cleaned)
}

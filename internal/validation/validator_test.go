package validation

import (
	"testing"

	"github.com/dbod-pe/promptpack/internal/models"
)

func commitTemplate() *models.Template {
	return &models.Template{
		ID: "commit-assistant",
		Slots: []models.Slot{
			{Name: "change_summary", Required: true},
			{Name: "diff"},
			{Name: "language", Type: models.SlotEnum, Options: []string{"pt-br", "en"}, Default: "pt-br"},
			{Name: "formality", Type: models.SlotEnum, Options: []string{"concise", "detailed"}, Default: "concise"},
			{Name: "variant_count", Type: models.SlotInt, Default: "1", Min: 1, Max: 3},
		},
	}
}

func TestValidateTemplateAcceptsMinimalInput(t *testing.T) {
	v := NewValidator()

	result := v.ValidateTemplate(commitTemplate(), map[string]interface{}{
		"change_summary": "corrige timeout no login",
	})
	if !result.Valid {
		t.Fatalf("Expected valid result, got errors: %+v", result.Errors)
	}

	data := result.GetValidatedData()
	if data["language"] != "pt-br" {
		t.Errorf("Expected default language pt-br, got %v", data["language"])
	}
	if data["formality"] != "concise" {
		t.Errorf("Expected default formality concise, got %v", data["formality"])
	}
	if data["variant_count"] != 1 {
		t.Errorf("Expected default variant_count 1, got %v", data["variant_count"])
	}
}

func TestValidateTemplateRejectsMissingRequired(t *testing.T) {
	v := NewValidator()

	result := v.ValidateTemplate(commitTemplate(), map[string]interface{}{})
	if result.Valid {
		t.Fatal("Expected validation to fail without change_summary")
	}
	assertErrorCode(t, result, "change_summary", "REQUIRED_FIELD_MISSING")

	// An empty string counts as absent
	result = v.ValidateTemplate(commitTemplate(), map[string]interface{}{
		"change_summary": "",
	})
	if result.Valid {
		t.Fatal("Expected validation to fail for empty change_summary")
	}
	assertErrorCode(t, result, "change_summary", "REQUIRED_FIELD_MISSING")
}

func TestValidateTemplateRejectsInvalidOption(t *testing.T) {
	v := NewValidator()

	result := v.ValidateTemplate(commitTemplate(), map[string]interface{}{
		"change_summary": "corrige timeout",
		"language":       "fr",
	})
	if result.Valid {
		t.Fatal("Expected validation to fail for unknown language")
	}
	assertErrorCode(t, result, "language", "INVALID_OPTION")
}

func TestValidateTemplateIntRange(t *testing.T) {
	v := NewValidator()

	for _, count := range []string{"0", "4"} {
		result := v.ValidateTemplate(commitTemplate(), map[string]interface{}{
			"change_summary": "corrige timeout",
			"variant_count":  count,
		})
		if result.Valid {
			t.Fatalf("Expected variant_count %s to be rejected", count)
		}
		assertErrorCode(t, result, "variant_count", "OUT_OF_RANGE")
	}

	result := v.ValidateTemplate(commitTemplate(), map[string]interface{}{
		"change_summary": "corrige timeout",
		"variant_count":  "3",
	})
	if !result.Valid {
		t.Fatalf("Expected variant_count 3 to be accepted, got %+v", result.Errors)
	}
	if result.GetValidatedData()["variant_count"] != 3 {
		t.Errorf("Expected string input converted to int 3, got %v",
			result.GetValidatedData()["variant_count"])
	}
}

func TestValidateTemplateRejectsNonNumericInt(t *testing.T) {
	v := NewValidator()

	result := v.ValidateTemplate(commitTemplate(), map[string]interface{}{
		"change_summary": "corrige timeout",
		"variant_count":  "muitos",
	})
	if result.Valid {
		t.Fatal("Expected non-numeric variant_count to be rejected")
	}
	assertErrorCode(t, result, "variant_count", "INVALID_TYPE")
}

func TestValidateTemplateRejectsUnknownField(t *testing.T) {
	v := NewValidator()

	result := v.ValidateTemplate(commitTemplate(), map[string]interface{}{
		"change_summary": "corrige timeout",
		"tone":           "formal",
	})
	if result.Valid {
		t.Fatal("Expected undeclared slot value to be rejected")
	}
	assertErrorCode(t, result, "tone", "UNKNOWN_FIELD")
}

func TestValidateUnregisteredSchema(t *testing.T) {
	v := NewValidator()

	result := v.Validate("nope", map[string]interface{}{})
	if result.Valid {
		t.Fatal("Expected unknown schema to fail validation")
	}
	assertErrorCode(t, result, "schema", "SCHEMA_NOT_FOUND")
}

func TestValidationResultToAppError(t *testing.T) {
	v := NewValidator()

	result := v.ValidateTemplate(commitTemplate(), map[string]interface{}{})
	appErr := result.ToAppError()
	if appErr == nil {
		t.Fatal("Expected AppError for invalid result")
	}
	if appErr.Details == "" {
		t.Error("Expected error details listing the failing fields")
	}

	result = v.ValidateTemplate(commitTemplate(), map[string]interface{}{
		"change_summary": "corrige timeout",
	})
	if result.ToAppError() != nil {
		t.Error("Expected nil AppError for valid result")
	}
}

func assertErrorCode(t *testing.T, result *ValidationResult, field, code string) {
	t.Helper()
	for _, e := range result.Errors {
		if e.Field == field && e.Code == code {
			return
		}
	}
	t.Errorf("Expected error %s on field %s, got %+v", code, field, result.Errors)
}

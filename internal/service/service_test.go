package service

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/dbod-pe/promptpack/internal/config"
	"github.com/dbod-pe/promptpack/internal/errors"
	"github.com/dbod-pe/promptpack/internal/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	cfg := &config.Config{
		LibraryDir:    t.TempDir(),
		RecordRenders: false,
	}

	svc, err := NewService(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	return svc
}

func TestNewServiceSeedsBuiltins(t *testing.T) {
	svc := newTestService(t)

	templates, err := svc.ListTemplates()
	if err != nil {
		t.Fatalf("Failed to list templates: %v", err)
	}
	if len(templates) != 2 {
		t.Fatalf("Expected 2 seeded templates, got %d", len(templates))
	}

	ids := map[string]bool{}
	for _, tmpl := range templates {
		ids[tmpl.ID] = true
	}
	if !ids["python-code-audit"] || !ids["commit-assistant"] {
		t.Errorf("Missing builtin templates, got: %v", ids)
	}
}

func TestSeedingNeverOverwritesLocalEdits(t *testing.T) {
	svc := newTestService(t)

	tmpl, err := svc.GetTemplate("commit-assistant")
	if err != nil {
		t.Fatalf("Failed to get template: %v", err)
	}

	tmpl.Description = "edição local"
	if err := svc.SaveTemplate(tmpl); err != nil {
		t.Fatalf("Failed to save edited template: %v", err)
	}

	// Re-running init must keep the local edit
	if err := svc.InitLibrary(); err != nil {
		t.Fatalf("Re-init failed: %v", err)
	}

	reloaded, err := svc.GetTemplate("commit-assistant")
	if err != nil {
		t.Fatalf("Failed to reload template: %v", err)
	}
	if reloaded.Description != "edição local" {
		t.Errorf("Local edit was overwritten: %q", reloaded.Description)
	}
}

func TestGetTemplateNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetTemplate("does-not-exist")
	if err == nil {
		t.Fatal("Expected error for unknown template")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("Expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeNotFound {
		t.Errorf("Expected not-found code, got %s", appErr.Code)
	}
}

func TestSearchTemplates(t *testing.T) {
	svc := newTestService(t)

	results, err := svc.SearchTemplates("audit")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("Expected at least one match for 'audit'")
	}
	if results[0].ID != "python-code-audit" {
		t.Errorf("Expected python-code-audit first, got %s", results[0].ID)
	}
}

func TestRenderPipeline(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.Render("python-code-audit", map[string]interface{}{
		"code": "def process(data):\n    return data\n",
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if !strings.Contains(result.Text, "def process(data):") {
		t.Error("Rendered prompt does not contain the code")
	}
	if strings.Contains(result.Text, "{{.") {
		t.Error("Rendered prompt still contains unexpanded actions")
	}
	if result.TemplateID != "python-code-audit" {
		t.Errorf("Unexpected template id: %s", result.TemplateID)
	}
}

func TestRenderRejectsInvalidInput(t *testing.T) {
	svc := newTestService(t)

	// Missing required slot
	_, err := svc.Render("python-code-audit", map[string]interface{}{})
	if err == nil {
		t.Fatal("Expected render to fail without code")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("Expected AppError, got %T", err)
	}
	if appErr.Category != errors.CategoryValidation {
		t.Errorf("Expected validation category, got %s", appErr.Category)
	}

	// Out-of-range variant count
	_, err = svc.Render("commit-assistant", map[string]interface{}{
		"change_summary": "corrige timeout",
		"variant_count":  "7",
	})
	if err == nil {
		t.Fatal("Expected render to fail for variant_count 7")
	}
}

func TestRenderRecordsTranscript(t *testing.T) {
	cfg := &config.Config{
		LibraryDir:    t.TempDir(),
		RecordRenders: true,
	}
	svc, err := NewService(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}

	result, err := svc.Render("commit-assistant", map[string]interface{}{
		"change_summary": "corrige timeout no login",
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if result.TranscriptPath == "" {
		t.Error("Expected a transcript path when render recording is on")
	}
}

func TestVerifyEndToEnd(t *testing.T) {
	svc := newTestService(t)

	valid := `feat(auth): adiciona autenticação multifator

Closes #12`

	report, err := svc.Verify("commit-assistant", valid, map[string]interface{}{
		"change_summary": "adiciona MFA",
		"variant_count":  "1",
	})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !report.Valid {
		t.Fatalf("Expected output to conform, got %+v", report.Violations)
	}

	report, err = svc.Verify("commit-assistant", "Feature: Added MFA.", map[string]interface{}{
		"change_summary": "adiciona MFA",
	})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if report.Valid {
		t.Fatal("Expected malformed output to be rejected")
	}
}

func TestVerifyWithoutContract(t *testing.T) {
	svc := newTestService(t)

	tmpl := &models.Template{
		ID:      "plain",
		Version: "1.0.0",
		Name:    "Plain",
		Content: "no contract here",
	}
	if err := svc.SaveTemplate(tmpl); err != nil {
		t.Fatalf("Failed to save template: %v", err)
	}

	_, err := svc.Verify("plain", "anything", nil)
	if err == nil {
		t.Fatal("Expected error verifying a template without a contract")
	}
}

func TestDeleteTemplate(t *testing.T) {
	svc := newTestService(t)

	if err := svc.DeleteTemplate("commit-assistant"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := svc.GetTemplate("commit-assistant"); err == nil {
		t.Error("Expected template to be gone after delete")
	}
}

package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dbod-pe/promptpack/internal/models"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	tmpDir := t.TempDir()
	s, err := NewStorage(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	if err := s.InitLibrary(); err != nil {
		t.Fatalf("Failed to init library: %v", err)
	}
	return s
}

func sampleTemplate() *models.Template {
	return &models.Template{
		ID:          "commit-helper",
		Version:     "1.0.0",
		Name:        "Commit Helper",
		Description: "Generates commit messages",
		Slots: []models.Slot{
			{Name: "change_summary", Description: "What changed", Required: true},
			{Name: "language", Type: models.SlotEnum, Options: []string{"pt-br", "en"}, Default: "pt-br"},
			{Name: "variant_count", Type: models.SlotInt, Default: "1", Min: 1, Max: 3},
		},
		Contract: &models.Contract{
			Kind:            models.ContractCommitMessages,
			MaxHeaderLength: 72,
			WrapColumn:      72,
		},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
		Content:   "Resuma a mudança:\n\n{{.change_summary}}\n",
	}
}

func TestSaveAndLoadTemplateRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	original := sampleTemplate()
	if err := s.SaveTemplate(original); err != nil {
		t.Fatalf("Failed to save template: %v", err)
	}

	loaded, err := s.LoadTemplate(TemplatePath("commit-helper"))
	if err != nil {
		t.Fatalf("Failed to load template: %v", err)
	}

	if loaded.ID != original.ID {
		t.Errorf("ID mismatch: got %q, want %q", loaded.ID, original.ID)
	}
	if loaded.Version != original.Version {
		t.Errorf("Version mismatch: got %q, want %q", loaded.Version, original.Version)
	}
	if len(loaded.Slots) != 3 {
		t.Fatalf("Expected 3 slots, got %d", len(loaded.Slots))
	}
	if !loaded.Slots[0].Required {
		t.Error("Expected change_summary to stay required")
	}
	if loaded.Slots[1].Default != "pt-br" {
		t.Errorf("Expected language default pt-br, got %q", loaded.Slots[1].Default)
	}
	if loaded.Slots[2].Max != 3 {
		t.Errorf("Expected variant_count max 3, got %d", loaded.Slots[2].Max)
	}
	if loaded.Contract == nil || loaded.Contract.Kind != models.ContractCommitMessages {
		t.Errorf("Contract not preserved: %+v", loaded.Contract)
	}
	if !strings.Contains(loaded.Content, "{{.change_summary}}") {
		t.Errorf("Content not preserved: %q", loaded.Content)
	}
}

func TestParseTemplateRejectsMissingFrontmatter(t *testing.T) {
	_, err := ParseTemplate([]byte("# Just markdown\n\nNo frontmatter here.\n"))
	if err == nil {
		t.Fatal("Expected error for content without frontmatter")
	}
}

func TestParseTemplateRejectsBadYAML(t *testing.T) {
	content := "---\nid: [unclosed\n---\n\nbody\n"
	if _, err := ParseTemplate([]byte(content)); err == nil {
		t.Fatal("Expected error for malformed frontmatter")
	}
}

func TestListTemplates(t *testing.T) {
	s := newTestStorage(t)

	first := sampleTemplate()
	second := sampleTemplate()
	second.ID = "code-audit"
	second.FilePath = ""

	if err := s.SaveTemplate(first); err != nil {
		t.Fatalf("Failed to save first template: %v", err)
	}
	if err := s.SaveTemplate(second); err != nil {
		t.Fatalf("Failed to save second template: %v", err)
	}

	templates, err := s.ListTemplates()
	if err != nil {
		t.Fatalf("Failed to list templates: %v", err)
	}
	if len(templates) != 2 {
		t.Fatalf("Expected 2 templates, got %d", len(templates))
	}

	ids := map[string]bool{}
	for _, tmpl := range templates {
		ids[tmpl.ID] = true
	}
	if !ids["commit-helper"] || !ids["code-audit"] {
		t.Errorf("Unexpected template ids: %v", ids)
	}
}

func TestListTemplatesUsesCache(t *testing.T) {
	s := newTestStorage(t)

	if err := s.SaveTemplate(sampleTemplate()); err != nil {
		t.Fatalf("Failed to save template: %v", err)
	}

	// First list parses the file and populates the cache
	if _, err := s.ListTemplates(); err != nil {
		t.Fatalf("First list failed: %v", err)
	}

	cachePath := filepath.Join(s.GetBaseDir(), ".promptpack", "cache", "metadata.json")
	if _, err := os.Stat(cachePath); err != nil {
		t.Fatalf("Expected cache file after listing: %v", err)
	}

	// A fresh storage instance should serve the template from the cache
	s2, err := NewStorage(s.GetBaseDir())
	if err != nil {
		t.Fatalf("Failed to reopen storage: %v", err)
	}
	templates, err := s2.ListTemplates()
	if err != nil {
		t.Fatalf("Cached list failed: %v", err)
	}
	if len(templates) != 1 {
		t.Fatalf("Expected 1 cached template, got %d", len(templates))
	}
	if templates[0].ID != "commit-helper" {
		t.Errorf("Cached template has wrong id: %q", templates[0].ID)
	}
	if len(templates[0].Slots) != 3 {
		t.Errorf("Cached template lost its slots: %d", len(templates[0].Slots))
	}
	if templates[0].Contract == nil {
		t.Error("Cached template lost its contract")
	}
}

func TestListTemplatesSkipsCorruptFiles(t *testing.T) {
	s := newTestStorage(t)

	if err := s.SaveTemplate(sampleTemplate()); err != nil {
		t.Fatalf("Failed to save template: %v", err)
	}

	corrupt := filepath.Join(s.GetBaseDir(), "templates", "broken.md")
	if err := os.WriteFile(corrupt, []byte("no frontmatter at all"), 0644); err != nil {
		t.Fatalf("Failed to write corrupt file: %v", err)
	}

	templates, err := s.ListTemplates()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(templates) != 1 {
		t.Fatalf("Expected corrupt file to be skipped, got %d templates", len(templates))
	}
}

func TestDeleteTemplate(t *testing.T) {
	s := newTestStorage(t)

	tmpl := sampleTemplate()
	if err := s.SaveTemplate(tmpl); err != nil {
		t.Fatalf("Failed to save template: %v", err)
	}
	if err := s.DeleteTemplate(tmpl); err != nil {
		t.Fatalf("Failed to delete template: %v", err)
	}

	if _, err := s.LoadTemplate(tmpl.FilePath); err == nil {
		t.Error("Expected load to fail after delete")
	}

	// Deleting again reports the missing file
	if err := s.DeleteTemplate(tmpl); err == nil {
		t.Error("Expected error deleting a missing template")
	}
}

func TestSaveRenderWritesTranscript(t *testing.T) {
	s := newTestStorage(t)

	path, err := s.SaveRender("commit-helper", "rendered text")
	if err != nil {
		t.Fatalf("Failed to save render: %v", err)
	}
	if !strings.HasPrefix(path, "renders"+string(filepath.Separator)) && !strings.HasPrefix(path, "renders/") {
		t.Errorf("Expected library-relative renders path, got %q", path)
	}

	content, err := os.ReadFile(filepath.Join(s.GetBaseDir(), path))
	if err != nil {
		t.Fatalf("Failed to read transcript: %v", err)
	}
	if string(content) != "rendered text" {
		t.Errorf("Transcript content mismatch: %q", string(content))
	}
}

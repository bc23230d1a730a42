// Package builtin ships the template documents bundled with promptpack.
//
// Two templates are embedded in the binary: the Python code-audit template
// and the Conventional Commits assistant. They are seeded into the library
// on init and from then on behave like any other stored template.
package builtin

import (
	"embed"
	"fmt"
	"sort"

	"github.com/dbod-pe/promptpack/internal/models"
	"github.com/dbod-pe/promptpack/internal/storage"
)

//go:embed templates/*.md
var templateFS embed.FS

// Templates parses and returns the embedded templates, sorted by id
func Templates() ([]*models.Template, error) {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded templates: %w", err)
	}

	var templates []*models.Template
	for _, entry := range entries {
		content, err := templateFS.ReadFile("templates/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded template %s: %w", entry.Name(), err)
		}

		template, err := storage.ParseTemplate(content)
		if err != nil {
			return nil, fmt.Errorf("failed to parse embedded template %s: %w", entry.Name(), err)
		}
		template.FilePath = storage.TemplatePath(template.ID)

		templates = append(templates, template)
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].ID < templates[j].ID
	})

	return templates, nil
}

// Template returns a single embedded template by id
func Template(id string) (*models.Template, error) {
	templates, err := Templates()
	if err != nil {
		return nil, err
	}

	for _, t := range templates {
		if t.ID == id {
			return t, nil
		}
	}

	return nil, fmt.Errorf("no builtin template with id '%s'", id)
}

package models

import (
	"fmt"
	"strings"
	"time"
)

// Template represents an instruction document with named input slots and a
// structural contract for the output its consumer must produce
type Template struct {
	// Frontmatter fields
	ID          string            `yaml:"id" json:"id"`
	Version     string            `yaml:"version" json:"version"`
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description" json:"description"`
	Slots       []Slot            `yaml:"slots" json:"slots"`
	Contract    *Contract         `yaml:"contract,omitempty" json:"contract,omitempty"`
	Metadata    map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt   time.Time         `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `yaml:"updated_at" json:"updated_at"`

	// Content fields
	Content  string `yaml:"-" json:"content,omitempty"`   // The template markdown content
	FilePath string `yaml:"-" json:"file_path,omitempty"` // Path to the file
}

// SlotType identifies how a slot value is validated before substitution
type SlotType string

const (
	SlotText SlotType = "text"
	SlotEnum SlotType = "enum"
	SlotInt  SlotType = "int"
)

// Slot represents a named placeholder in a template
type Slot struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Type        SlotType `yaml:"type,omitempty" json:"type,omitempty"` // empty means text
	Required    bool     `yaml:"required" json:"required"`
	Default     string   `yaml:"default,omitempty" json:"default,omitempty"`
	Options     []string `yaml:"options,omitempty" json:"options,omitempty"` // enum value set
	Min         int      `yaml:"min,omitempty" json:"min,omitempty"`         // int bounds, inclusive
	Max         int      `yaml:"max,omitempty" json:"max,omitempty"`
}

// EffectiveType returns the slot type, defaulting to text
func (s Slot) EffectiveType() SlotType {
	if s.Type == "" {
		return SlotText
	}
	return s.Type
}

// Slot looks up a slot by name
func (t *Template) Slot(name string) (Slot, bool) {
	for _, s := range t.Slots {
		if s.Name == name {
			return s, true
		}
	}
	return Slot{}, false
}

// RequiredSlots returns the slots that must be supplied by the caller
func (t *Template) RequiredSlots() []Slot {
	var required []Slot
	for _, s := range t.Slots {
		if s.Required {
			required = append(required, s)
		}
	}
	return required
}

// Implement list.Item interface for bubbles list component

// FilterValue returns the value used for filtering in lists
func (t Template) FilterValue() string {
	return cleanString(t.Name)
}

// Title satisfies the list.Item interface
func (t Template) Title() string {
	if t.Name != "" {
		return cleanString(t.Name)
	}
	return cleanString(t.ID)
}

// ListDescription renders the one-line summary shown under the title in lists
func (t Template) ListDescription() string {
	var parts []string

	if t.Description != "" {
		desc := cleanString(t.Description)
		maxLength := 60
		if len(desc) > maxLength {
			desc = desc[:maxLength-3] + "..."
		}
		parts = append(parts, desc)
	}

	parts = append(parts, fmt.Sprintf("%d slots", len(t.Slots)))

	if t.Contract != nil {
		parts = append(parts, "contract: "+string(t.Contract.Kind))
	}

	return strings.Join(parts, " • ")
}

// cleanString removes control characters that break single-line rendering
func cleanString(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' {
			b.WriteRune(' ')
		} else if r >= 32 && r != 127 {
			b.WriteRune(r)
		}
	}

	cleaned := b.String()
	for strings.Contains(cleaned, "  ") {
		cleaned = strings.ReplaceAll(cleaned, "  ", " ")
	}

	return strings.TrimSpace(cleaned)
}

package renderer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/dbod-pe/promptpack/internal/models"
)

// Renderer substitutes slot values into a template body. Rendering is pure
// text substitution: the same template and inputs always produce the same
// bytes, and nothing is carried over between invocations.
type Renderer struct {
	template *models.Template
}

// NewRenderer creates a new renderer instance
func NewRenderer(tmpl *models.Template) *Renderer {
	return &Renderer{template: tmpl}
}

// RenderText renders the template as plain text with the given slot values.
// Inputs are expected to have passed validation already; values for slots the
// caller left unset fall back to the slot default, then to the empty string.
func (r *Renderer) RenderText(inputs map[string]interface{}) (string, error) {
	tmpl, err := template.New(r.template.ID).Option("missingkey=error").Parse(r.template.Content)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	data := r.slotData(inputs)

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// RenderJSON renders the template as a JSON message array for LLM APIs
func (r *Renderer) RenderJSON(inputs map[string]interface{}) (string, error) {
	text, err := r.RenderText(inputs)
	if err != nil {
		return "", err
	}

	messages := []Message{
		{
			Role:    "user",
			Content: text,
		},
	}

	jsonBytes, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal to JSON: %w", err)
	}

	return string(jsonBytes), nil
}

// Message represents a chat message for LLM APIs
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// slotData builds the substitution map: declared defaults first, then
// caller-supplied values, then empty strings so every declared slot resolves
func (r *Renderer) slotData(inputs map[string]interface{}) map[string]interface{} {
	data := make(map[string]interface{}, len(r.template.Slots))

	for _, slot := range r.template.Slots {
		if slot.Default != "" {
			data[slot.Name] = slot.Default
		} else {
			data[slot.Name] = ""
		}
	}

	for name, value := range inputs {
		if _, declared := data[name]; declared {
			data[name] = value
		}
	}

	return data
}

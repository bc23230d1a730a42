package cli

import (
	"strings"
	"testing"
)

func TestParseVars(t *testing.T) {
	args := []string{"commit-assistant", "--var", "change_summary=corrige timeout", "--var", "variant_count=2", "--format", "json"}

	inputs, err := parseVars("render", args)
	if err != nil {
		t.Fatalf("Failed to parse vars: %v", err)
	}

	if len(inputs) != 2 {
		t.Fatalf("Expected 2 inputs, got %d", len(inputs))
	}
	if inputs["change_summary"] != "corrige timeout" {
		t.Errorf("Unexpected change_summary: %v", inputs["change_summary"])
	}
	if inputs["variant_count"] != "2" {
		t.Errorf("Unexpected variant_count: %v", inputs["variant_count"])
	}
}

func TestParseVarsErrorsNameTheCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		args    []string
	}{
		{"dangling flag", "verify", []string{"commit-assistant", "--var"}},
		{"missing equals", "verify", []string{"commit-assistant", "--var", "language"}},
		{"empty name", "render", []string{"commit-assistant", "--var", "=pt-br"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseVars(tt.command, tt.args)
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), "'"+tt.command+"'") {
				t.Errorf("Error must name the failing command %q, got: %v", tt.command, err)
			}
		})
	}
}

func TestParseFlag(t *testing.T) {
	args := []string{"show", "--format", "json"}

	if got := parseFlag(args, "--format", "text"); got != "json" {
		t.Errorf("Expected json, got %q", got)
	}
	if got := parseFlag(args, "--file", ""); got != "" {
		t.Errorf("Expected fallback for absent flag, got %q", got)
	}
	if !hasFlag(args, "--format") || hasFlag(args, "--copy") {
		t.Error("hasFlag misreported flag presence")
	}
}

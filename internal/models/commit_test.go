package models

import (
	"strings"
	"testing"
)

func TestCommitHeaderString(t *testing.T) {
	tests := []struct {
		name   string
		header CommitHeader
		want   string
	}{
		{
			name:   "type and summary",
			header: CommitHeader{Type: TypeFix, Summary: "corrige timeout no login"},
			want:   "fix: corrige timeout no login",
		},
		{
			name:   "with scope",
			header: CommitHeader{Type: TypeFeat, Scope: "auth", Summary: "adiciona MFA"},
			want:   "feat(auth): adiciona MFA",
		},
		{
			name:   "breaking with scope",
			header: CommitHeader{Type: TypeFeat, Scope: "api", Breaking: true, Summary: "remove formato v1"},
			want:   "feat(api)!: remove formato v1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.header.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommitMessageString(t *testing.T) {
	msg := CommitMessage{
		Header: CommitHeader{Type: TypeFix, Scope: "auth", Summary: "corrige expiração da sessão"},
		Body:   "A sessão expirava antes do TTL configurado.",
		Footers: []Footer{
			{Token: FooterCloses, Value: "#42"},
			{Token: FooterBreakingChange, Value: "o TTL agora é lido em segundos"},
		},
	}

	got := msg.String()
	want := "fix(auth): corrige expiração da sessão\n\n" +
		"A sessão expirava antes do TTL configurado.\n\n" +
		"Closes #42\nBREAKING CHANGE: o TTL agora é lido em segundos"
	if got != want {
		t.Errorf("message mismatch:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestCommitMessageWrapped(t *testing.T) {
	msg := CommitMessage{
		Header: CommitHeader{Type: TypeDocs, Summary: "atualiza guia"},
		Body:   strings.Repeat("palavra ", 20),
	}

	for _, line := range strings.Split(msg.Wrapped(72), "\n") {
		if len(line) > 72 {
			t.Errorf("line exceeds wrap column: %q", line)
		}
	}
}

func TestIsCommitType(t *testing.T) {
	for _, ct := range CommitTypes {
		if !IsCommitType(string(ct)) {
			t.Errorf("Expected %s to be recognized", ct)
		}
	}
	for _, bad := range []string{"feature", "bugfix", "FEAT", ""} {
		if IsCommitType(bad) {
			t.Errorf("Expected %q to be rejected", bad)
		}
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		label string
		want  Severity
		ok    bool
	}{
		{"Baixa", SeverityLow, true},
		{"média", SeverityMedium, true},
		{"Media", SeverityMedium, true},
		{"ALTA", SeverityHigh, true},
		{"Crítica", SeverityCritical, true},
		{"critica", SeverityCritical, true},
		{"Critical", SeverityCritical, true},
		{"  Low  ", SeverityLow, true},
		{"Urgente", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseSeverity(tt.label)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseSeverity(%q) = %v, %v; want %v, %v", tt.label, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSeverityOrdering(t *testing.T) {
	if !(SeverityLow < SeverityMedium && SeverityMedium < SeverityHigh && SeverityHigh < SeverityCritical) {
		t.Error("Severity levels are not ordered low to critical")
	}
}

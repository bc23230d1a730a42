package models

import "strings"

// Severity is the fixed 4-level ordinal scale used by audit findings
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// String returns the English severity label
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "Low"
	case SeverityMedium:
		return "Medium"
	case SeverityHigh:
		return "High"
	case SeverityCritical:
		return "Critical"
	}
	return "Unknown"
}

// Portuguese returns the pt-br severity label used by the builtin templates
func (s Severity) Portuguese() string {
	switch s {
	case SeverityLow:
		return "Baixa"
	case SeverityMedium:
		return "Média"
	case SeverityHigh:
		return "Alta"
	case SeverityCritical:
		return "Crítica"
	}
	return "Desconhecida"
}

// severityLabels maps every accepted spelling (pt-br with and without
// accents, plus English) to its ordinal value
var severityLabels = map[string]Severity{
	"baixa":    SeverityLow,
	"low":      SeverityLow,
	"média":    SeverityMedium,
	"media":    SeverityMedium,
	"medium":   SeverityMedium,
	"alta":     SeverityHigh,
	"high":     SeverityHigh,
	"crítica":  SeverityCritical,
	"critica":  SeverityCritical,
	"critical": SeverityCritical,
}

// ParseSeverity matches a severity label in either language, case-insensitively
func ParseSeverity(label string) (Severity, bool) {
	s, ok := severityLabels[strings.ToLower(strings.TrimSpace(label))]
	return s, ok
}

// Finding is one row of the audit findings table
type Finding struct {
	Category       string   `json:"category"`
	Severity       Severity `json:"severity"`
	Impact         string   `json:"impact"`
	Evidence       string   `json:"evidence"`
	Recommendation string   `json:"recommendation"`
}

// Score is one 0-100 category score from the audit report
type Score struct {
	Label   string `json:"label"`
	Value   int    `json:"value"`
	Overall bool   `json:"overall,omitempty"`
}

// AuditReport is the structured view of a generated audit, as recovered by
// the conformance parser. Sections the parser does not model are kept only
// as raw text.
type AuditReport struct {
	Summary  []string  `json:"summary"` // executive summary, one entry per line
	Scores   []Score   `json:"scores"`
	Findings []Finding `json:"findings"`
	Raw      string    `json:"-"`
}

// OverallScore returns the overall score entry, if present
func (r *AuditReport) OverallScore() (Score, bool) {
	for _, s := range r.Scores {
		if s.Overall {
			return s, true
		}
	}
	return Score{}, false
}

// CategoryScores returns the non-overall score entries
func (r *AuditReport) CategoryScores() []Score {
	var scores []Score
	for _, s := range r.Scores {
		if !s.Overall {
			scores = append(scores, s)
		}
	}
	return scores
}

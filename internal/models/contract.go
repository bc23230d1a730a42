package models

// ContractKind selects which conformance checker applies to a template's output
type ContractKind string

const (
	// ContractAuditReport expects a structured markdown code-audit report
	ContractAuditReport ContractKind = "audit-report"
	// ContractCommitMessages expects one or more Conventional Commits messages
	ContractCommitMessages ContractKind = "commit-messages"
)

// Contract declares the structural shape a generated response must satisfy.
// The template text states these rules to the generation agent; the contract
// makes them machine-checkable after the fact.
type Contract struct {
	Kind ContractKind `yaml:"kind" json:"kind"`

	// Audit report rules. Heading fields and column/category entries accept
	// "|"-separated alternatives so pt-br and English reports both verify.
	RequiredHeadings []string `yaml:"required_headings,omitempty" json:"required_headings,omitempty"`
	SummaryHeading   string   `yaml:"summary_heading,omitempty" json:"summary_heading,omitempty"`
	ScoresHeading    string   `yaml:"scores_heading,omitempty" json:"scores_heading,omitempty"`
	FindingsHeading  string   `yaml:"findings_heading,omitempty" json:"findings_heading,omitempty"`
	FindingsColumns  []string `yaml:"findings_columns,omitempty" json:"findings_columns,omitempty"`
	ScoreCategories  []string `yaml:"score_categories,omitempty" json:"score_categories,omitempty"`
	SummaryMaxLines  int      `yaml:"summary_max_lines,omitempty" json:"summary_max_lines,omitempty"`
	ScoreMax         int      `yaml:"score_max,omitempty" json:"score_max,omitempty"`

	// Commit message rules
	MaxHeaderLength  int    `yaml:"max_header_length,omitempty" json:"max_header_length,omitempty"`
	WrapColumn       int    `yaml:"wrap_column,omitempty" json:"wrap_column,omitempty"`
	VariantSeparator string `yaml:"variant_separator,omitempty" json:"variant_separator,omitempty"`
}

// HeaderLimit returns the commit header length bound, defaulting to 72
func (c *Contract) HeaderLimit() int {
	if c.MaxHeaderLength > 0 {
		return c.MaxHeaderLength
	}
	return 72
}

// BodyWrap returns the commit body wrap column, defaulting to 72
func (c *Contract) BodyWrap() int {
	if c.WrapColumn > 0 {
		return c.WrapColumn
	}
	return 72
}

// SummaryLimit returns the executive summary line bound, defaulting to 10
func (c *Contract) SummaryLimit() int {
	if c.SummaryMaxLines > 0 {
		return c.SummaryMaxLines
	}
	return 10
}

// ScoreCeiling returns the upper score bound, defaulting to 100
func (c *Contract) ScoreCeiling() int {
	if c.ScoreMax > 0 {
		return c.ScoreMax
	}
	return 100
}

// SummarySection returns the executive summary heading pattern
func (c *Contract) SummarySection() string {
	if c.SummaryHeading != "" {
		return c.SummaryHeading
	}
	return "Resumo Executivo|Executive Summary"
}

// ScoresSection returns the scores heading pattern
func (c *Contract) ScoresSection() string {
	if c.ScoresHeading != "" {
		return c.ScoresHeading
	}
	return "Pontuação|Scores"
}

// FindingsSection returns the findings table heading pattern
func (c *Contract) FindingsSection() string {
	if c.FindingsHeading != "" {
		return c.FindingsHeading
	}
	return "Achados|Findings"
}

// Separator returns the line that splits commit message variants
func (c *Contract) Separator() string {
	if c.VariantSeparator != "" {
		return c.VariantSeparator
	}
	return "---"
}

package conformance

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dbod-pe/promptpack/internal/models"
)

// scoreLine matches entries like "- Nomenclatura: 85/100" or "**Overall**: 90/100"
var scoreLine = regexp.MustCompile(`^(?:[-*]\s+)?\**([^:*]+)\**\s*:\s*(\d{1,3})\s*/\s*(\d{1,3})$`)

// VerifyAudit checks agent output against the audit-report contract: all
// required headings present, executive summary within its line bound, the
// declared category scores plus an overall score each inside [0,max], a
// findings table with the exact column set, and severity values drawn from
// the fixed vocabulary.
func VerifyAudit(contract *models.Contract, output string) *Report {
	report := &Report{Valid: true}

	cleaned := StripFences(output)
	if cleaned == "" {
		report.addError("EMPTY_OUTPUT", "", "Output contains no report", "")
		return report
	}

	report.Audit = &models.AuditReport{Raw: cleaned}

	src := []byte(cleaned)
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(src))

	sections := splitSections(doc, src)

	for _, required := range contract.RequiredHeadings {
		if findSection(sections, required) == nil {
			report.addError("MISSING_HEADING", "",
				fmt.Sprintf("Required section '%s' is missing", firstAlternative(required)), "")
		}
	}

	checkSummary(contract, sections, report)
	checkScores(contract, sections, src, report)
	checkFindings(contract, sections, src, report)

	return report
}

// section groups the block nodes that follow one heading
type section struct {
	heading string
	nodes   []ast.Node
}

// splitSections partitions the document's top-level blocks by heading
func splitSections(doc ast.Node, src []byte) []*section {
	var sections []*section
	current := &section{} // preamble before the first heading

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			sections = append(sections, current)
			current = &section{heading: string(h.Text(src))}
			continue
		}
		current.nodes = append(current.nodes, n)
	}
	sections = append(sections, current)

	return sections
}

// findSection returns the first section whose heading matches the pattern.
// Patterns carry "|"-separated alternatives; matching is case-insensitive and
// tolerates numbering prefixes ("3. Achados").
func findSection(sections []*section, pattern string) *section {
	for _, sec := range sections {
		if headingMatches(sec.heading, pattern) {
			return sec
		}
	}
	return nil
}

func headingMatches(heading, pattern string) bool {
	lower := strings.ToLower(heading)
	for _, alt := range strings.Split(pattern, "|") {
		if strings.Contains(lower, strings.ToLower(strings.TrimSpace(alt))) {
			return true
		}
	}
	return false
}

func firstAlternative(pattern string) string {
	return strings.TrimSpace(strings.SplitN(pattern, "|", 2)[0])
}

// checkSummary enforces the executive summary line bound
func checkSummary(contract *models.Contract, sections []*section, report *Report) {
	sec := findSection(sections, contract.SummarySection())
	if sec == nil {
		return // covered by the required-headings check
	}

	var lines []string
	for _, n := range sec.nodes {
		lines = append(lines, blockLines(n, []byte(report.Audit.Raw))...)
	}
	report.Audit.Summary = lines

	limit := contract.SummaryLimit()
	if len(lines) > limit {
		report.addError("SUMMARY_TOO_LONG", "",
			fmt.Sprintf("Executive summary has %d lines, limit is %d", len(lines), limit), "")
	}
}

// checkScores enforces category score presence and the [0,max] range
func checkScores(contract *models.Contract, sections []*section, src []byte, report *Report) {
	sec := findSection(sections, contract.ScoresSection())
	if sec == nil {
		return
	}

	ceiling := contract.ScoreCeiling()

	var scores []models.Score
	for _, n := range sec.nodes {
		for _, line := range blockLines(n, src) {
			match := scoreLine.FindStringSubmatch(strings.TrimSpace(line))
			if match == nil {
				continue
			}

			label := strings.TrimSpace(match[1])
			value, _ := strconv.Atoi(match[2])
			denominator, _ := strconv.Atoi(match[3])

			if denominator != ceiling {
				report.addError("SCORE_OUT_OF_RANGE", "",
					fmt.Sprintf("Score '%s' is measured out of %d, expected %d", label, denominator, ceiling), line)
			}
			if value > ceiling {
				report.addError("SCORE_OUT_OF_RANGE", "",
					fmt.Sprintf("Score '%s' is %d, above the %d ceiling", label, value, ceiling), line)
			}

			scores = append(scores, models.Score{
				Label:   label,
				Value:   value,
				Overall: headingMatches(label, "Geral|Overall"),
			})
		}
	}
	report.Audit.Scores = scores

	if _, ok := report.Audit.OverallScore(); !ok {
		report.addError("MISSING_OVERALL_SCORE", "", "No overall score found", "")
	}

	expected := contract.ScoreCategories
	for _, pattern := range expected {
		found := false
		for _, s := range report.Audit.CategoryScores() {
			if headingMatches(s.Label, pattern) {
				found = true
				break
			}
		}
		if !found {
			report.addError("MISSING_SCORE_CATEGORY", "",
				fmt.Sprintf("No score for category '%s'", firstAlternative(pattern)), "")
		}
	}
	if len(expected) > 0 && len(report.Audit.CategoryScores()) != len(expected) {
		report.addError("SCORE_COUNT_MISMATCH", "",
			fmt.Sprintf("Expected %d category scores, found %d", len(expected), len(report.Audit.CategoryScores())), "")
	}
}

// checkFindings enforces the findings table columns and severity vocabulary
func checkFindings(contract *models.Contract, sections []*section, src []byte, report *Report) {
	sec := findSection(sections, contract.FindingsSection())
	if sec == nil {
		return
	}

	var table *east.Table
	for _, n := range sec.nodes {
		if t, ok := n.(*east.Table); ok {
			table = t
			break
		}
	}
	if table == nil {
		report.addError("MISSING_FINDINGS_TABLE", "", "Findings section contains no table", "")
		return
	}

	var headerCells []string
	var rows [][]string

	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, strings.TrimSpace(string(cell.Text(src))))
		}
		if _, ok := row.(*east.TableHeader); ok {
			headerCells = cells
		} else {
			rows = append(rows, cells)
		}
	}

	columns := contract.FindingsColumns
	if len(columns) > 0 {
		if len(headerCells) != len(columns) {
			report.addError("WRONG_TABLE_COLUMNS", "findings table",
				fmt.Sprintf("Expected %d columns, found %d", len(columns), len(headerCells)), strings.Join(headerCells, " | "))
			return
		}
		for i, pattern := range columns {
			if !headingMatches(headerCells[i], pattern) {
				report.addError("WRONG_TABLE_COLUMNS", "findings table",
					fmt.Sprintf("Column %d is '%s', expected '%s'", i+1, headerCells[i], firstAlternative(pattern)), "")
			}
		}
	}

	severityIdx := columnIndex(columns, "Severidade|Severity")

	for i, cells := range rows {
		location := fmt.Sprintf("findings table row %d", i+1)
		if len(cells) != len(headerCells) {
			report.addError("ROW_CELL_COUNT", location,
				fmt.Sprintf("Row has %d cells, header has %d", len(cells), len(headerCells)), "")
			continue
		}

		finding := models.Finding{}
		if len(cells) >= 5 {
			finding.Category = cells[0]
			finding.Impact = cells[2]
			finding.Evidence = cells[3]
			finding.Recommendation = cells[4]
		}

		if severityIdx < len(cells) {
			severity, ok := models.ParseSeverity(cells[severityIdx])
			if !ok {
				report.addError("UNKNOWN_SEVERITY", location,
					fmt.Sprintf("'%s' is not a recognized severity", cells[severityIdx]), "")
			}
			finding.Severity = severity
		}

		report.Audit.Findings = append(report.Audit.Findings, finding)
	}
}

// columnIndex finds the column matching pattern, defaulting to 1 (the position
// the builtin templates document for severity)
func columnIndex(columns []string, pattern string) int {
	for i, c := range columns {
		if headingMatches(firstAlternative(c), pattern) || headingMatches(c, firstAlternative(pattern)) {
			return i
		}
	}
	return 1
}

// blockLines returns the source lines of a block node and its block children
func blockLines(n ast.Node, src []byte) []string {
	var out []string

	if n.Type() == ast.TypeBlock {
		segments := n.Lines()
		for i := 0; i < segments.Len(); i++ {
			seg := segments.At(i)
			line := strings.TrimRight(string(seg.Value(src)), "\n")
			if strings.TrimSpace(line) != "" {
				out = append(out, line)
			}
		}
	}

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Type() == ast.TypeBlock {
			out = append(out, blockLines(c, src)...)
		}
	}

	return out
}

package conformance

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dbod-pe/promptpack/internal/models"
)

var (
	// type(scope?)!?: summary
	headerPattern = regexp.MustCompile(`^([a-z]+)(?:\(([^()]+)\))?(!)?: (.+)$`)

	footerCloses     = regexp.MustCompile(`^Closes #(\d+)$`)
	footerRefs       = regexp.MustCompile(`^Refs #(\d+)$`)
	footerCoAuthored = regexp.MustCompile(`^Co-authored-by: ([^<]+) <([^<>@]+@[^<>]+)>$`)
	footerBreaking   = regexp.MustCompile(`^BREAKING CHANGE: (.*)$`)
)

// VerifyCommits checks agent output against the commit-messages contract:
// exactly wantVariants messages, each with a valid Conventional Commits
// header, an optional soft-wrapped body and well-formed footers.
// A wantVariants of zero skips the count check.
func VerifyCommits(contract *models.Contract, output string, wantVariants int) *Report {
	report := &Report{Valid: true}

	cleaned := StripFences(output)
	if cleaned == "" {
		report.addError("EMPTY_OUTPUT", "", "Output contains no commit message", "")
		return report
	}

	variants := splitVariants(cleaned, contract.Separator())
	if len(variants) == 0 {
		report.addError("EMPTY_OUTPUT", "", "Output contains no commit message", "")
		return report
	}

	if wantVariants > 0 && len(variants) != wantVariants {
		report.addError("VARIANT_COUNT_MISMATCH", "",
			fmt.Sprintf("Requested %d message(s) but output contains %d", wantVariants, len(variants)), "")
	}

	for i, raw := range variants {
		location := fmt.Sprintf("message %d", i+1)
		msg := checkMessage(contract, raw, location, report)
		report.Commits = append(report.Commits, msg)
	}

	return report
}

// NormalizedCommits re-renders the parsed messages in canonical form, with
// bodies soft-wrapped at width columns, for display after verification
func (r *Report) NormalizedCommits(width int) []string {
	normalized := make([]string, len(r.Commits))
	for i, msg := range r.Commits {
		normalized[i] = msg.Wrapped(width)
	}
	return normalized
}

// splitVariants splits output on lines consisting solely of the separator
func splitVariants(output, separator string) []string {
	var variants []string
	var current []string

	flush := func() {
		joined := strings.TrimSpace(strings.Join(current, "\n"))
		if joined != "" {
			variants = append(variants, joined)
		}
		current = current[:0]
	}

	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == separator {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	return variants
}

// checkMessage validates a single commit message and records violations
func checkMessage(contract *models.Contract, raw, location string, report *Report) models.CommitMessage {
	lines := strings.Split(raw, "\n")
	header := lines[0]

	var msg models.CommitMessage

	match := headerPattern.FindStringSubmatch(header)
	if match == nil {
		report.addError("MALFORMED_HEADER", location,
			"Header does not match 'type(scope?): summary'", header)
	} else {
		msg.Header = models.CommitHeader{
			Type:     models.CommitType(match[1]),
			Scope:    match[2],
			Breaking: match[3] == "!",
			Summary:  match[4],
		}

		if !models.IsCommitType(match[1]) {
			report.addError("UNKNOWN_TYPE", location,
				fmt.Sprintf("Type '%s' is not a recognized commit type", match[1]), header)
		}

		summary := match[4]
		if first, _ := utf8.DecodeRuneInString(summary); unicode.IsUpper(first) {
			report.addError("SUMMARY_CAPITALIZED", location,
				"Summary must start lowercase", summary)
		}
		if strings.HasSuffix(summary, ".") {
			report.addError("TRAILING_PERIOD", location,
				"Summary must not end with a period", summary)
		}
	}

	limit := contract.HeaderLimit()
	if utf8.RuneCountInString(header) > limit {
		report.addError("HEADER_TOO_LONG", location,
			fmt.Sprintf("Header is %d characters, limit is %d", utf8.RuneCountInString(header), limit), header)
	}

	if len(lines) > 1 && strings.TrimSpace(lines[1]) != "" {
		report.addError("MISSING_BLANK_LINE", location,
			"Body must be separated from the header by a blank line", lines[1])
	}

	body, footers := splitBodyAndFooters(lines[1:])
	msg.Body = body

	wrap := contract.BodyWrap()
	for _, line := range strings.Split(body, "\n") {
		if utf8.RuneCountInString(line) > wrap {
			report.addWarning("BODY_LINE_OVERLONG", location,
				fmt.Sprintf("Body line exceeds %d columns", wrap), line)
		}
	}

	msg.Footers = checkFooters(footers, location, report)

	return msg
}

// splitBodyAndFooters separates the trailing footer paragraph, if any, from
// the body paragraphs
func splitBodyAndFooters(lines []string) (string, []string) {
	paragraphs := splitParagraphs(lines)
	if len(paragraphs) == 0 {
		return "", nil
	}

	last := paragraphs[len(paragraphs)-1]
	if isFooterParagraph(last) {
		body := joinParagraphs(paragraphs[:len(paragraphs)-1])
		return body, last
	}

	return joinParagraphs(paragraphs), nil
}

func splitParagraphs(lines []string) [][]string {
	var paragraphs [][]string
	var current []string

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				paragraphs = append(paragraphs, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, current)
	}

	return paragraphs
}

func joinParagraphs(paragraphs [][]string) string {
	parts := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		parts[i] = strings.Join(p, "\n")
	}
	return strings.Join(parts, "\n\n")
}

func isFooterParagraph(lines []string) bool {
	if len(lines) == 0 {
		return false
	}
	first := lines[0]
	return footerCloses.MatchString(first) ||
		footerRefs.MatchString(first) ||
		footerCoAuthored.MatchString(first) ||
		footerBreaking.MatchString(first)
}

// checkFooters validates footer lines and converts them to structured form.
// A BREAKING CHANGE footer may continue across subsequent lines.
func checkFooters(lines []string, location string, report *Report) []models.Footer {
	var footers []models.Footer
	inBreaking := false

	for _, line := range lines {
		switch {
		case footerCloses.MatchString(line):
			footers = append(footers, models.Footer{
				Token: models.FooterCloses,
				Value: footerCloses.FindStringSubmatch(line)[1],
			})
			footers[len(footers)-1].Value = "#" + footers[len(footers)-1].Value
			inBreaking = false

		case footerRefs.MatchString(line):
			footers = append(footers, models.Footer{
				Token: models.FooterRefs,
				Value: "#" + footerRefs.FindStringSubmatch(line)[1],
			})
			inBreaking = false

		case footerCoAuthored.MatchString(line):
			match := footerCoAuthored.FindStringSubmatch(line)
			footers = append(footers, models.Footer{
				Token: models.FooterCoAuthoredBy,
				Value: strings.TrimSpace(match[1]) + " <" + match[2] + ">",
			})
			inBreaking = false

		case footerBreaking.MatchString(line):
			value := footerBreaking.FindStringSubmatch(line)[1]
			footers = append(footers, models.Footer{
				Token: models.FooterBreakingChange,
				Value: value,
			})
			inBreaking = true

		case inBreaking:
			// Continuation of the breaking-change migration guidance
			last := &footers[len(footers)-1]
			if last.Value == "" {
				last.Value = line
			} else {
				last.Value += "\n" + line
			}

		default:
			report.addError("MALFORMED_FOOTER", location,
				"Footer line does not match a recognized metadata tag", line)
		}
	}

	for _, f := range footers {
		if f.Token == models.FooterBreakingChange && strings.TrimSpace(f.Value) == "" {
			report.addError("EMPTY_BREAKING_CHANGE", location,
				"BREAKING CHANGE must carry migration guidance", "")
		}
	}

	return footers
}

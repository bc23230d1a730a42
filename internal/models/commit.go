package models

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"
)

// CommitType is one of the Conventional Commits change types
type CommitType string

const (
	TypeFeat     CommitType = "feat"
	TypeFix      CommitType = "fix"
	TypeDocs     CommitType = "docs"
	TypeStyle    CommitType = "style"
	TypeRefactor CommitType = "refactor"
	TypePerf     CommitType = "perf"
	TypeTest     CommitType = "test"
	TypeBuild    CommitType = "build"
	TypeCI       CommitType = "ci"
	TypeChore    CommitType = "chore"
	TypeRevert   CommitType = "revert"
)

// CommitTypes is the full value set, in the order the templates document it
var CommitTypes = []CommitType{
	TypeFeat, TypeFix, TypeDocs, TypeStyle, TypeRefactor, TypePerf,
	TypeTest, TypeBuild, TypeCI, TypeChore, TypeRevert,
}

// IsCommitType reports whether s is a recognized commit type
func IsCommitType(s string) bool {
	for _, t := range CommitTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

// CommitHeader is the first line of a Conventional Commits message,
// following the grammar "type(scope?): summary"
type CommitHeader struct {
	Type     CommitType `json:"type"`
	Scope    string     `json:"scope,omitempty"`
	Breaking bool       `json:"breaking,omitempty"` // "!" marker after type/scope
	Summary  string     `json:"summary"`
}

// String renders the header in wire form
func (h CommitHeader) String() string {
	var b strings.Builder
	b.WriteString(string(h.Type))
	if h.Scope != "" {
		fmt.Fprintf(&b, "(%s)", h.Scope)
	}
	if h.Breaking {
		b.WriteString("!")
	}
	b.WriteString(": ")
	b.WriteString(h.Summary)
	return b.String()
}

// Footer is a structured trailer line, e.g. "Closes #12" or
// "BREAKING CHANGE: renamed the config key"
type Footer struct {
	Token string `json:"token"`
	Value string `json:"value"`
}

// Recognized footer tokens
const (
	FooterCloses         = "Closes"
	FooterRefs           = "Refs"
	FooterCoAuthoredBy   = "Co-authored-by"
	FooterBreakingChange = "BREAKING CHANGE"
)

func (f Footer) String() string {
	if f.Token == FooterBreakingChange {
		return f.Token + ": " + f.Value
	}
	if f.Token == FooterCloses || f.Token == FooterRefs {
		return f.Token + " " + f.Value
	}
	return f.Token + ": " + f.Value
}

// CommitMessage is one fully formed Conventional Commits message
type CommitMessage struct {
	Header  CommitHeader `json:"header"`
	Body    string       `json:"body,omitempty"`
	Footers []Footer     `json:"footers,omitempty"`
}

// String renders the message as header, blank line, body, blank line, footers
func (m CommitMessage) String() string {
	parts := []string{m.Header.String()}
	if m.Body != "" {
		parts = append(parts, m.Body)
	}
	if len(m.Footers) > 0 {
		lines := make([]string, len(m.Footers))
		for i, f := range m.Footers {
			lines[i] = f.String()
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

// Wrapped renders the message with the body soft-wrapped at width columns
func (m CommitMessage) Wrapped(width int) string {
	if m.Body == "" {
		return m.String()
	}
	wrapped := m
	wrapped.Body = wordwrap.String(m.Body, width)
	return wrapped.String()
}

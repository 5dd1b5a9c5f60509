// Package selection filters the features and scenarios of a validated
// program by name, pattern and tag expression. Filter categories AND
// together; within the name/pattern category multiple values OR. An
// empty result is an error, never a silently empty program.
package selection

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/verolang/vero/internal/ast"
)

// Options are the selection filters. Zero-valued options select
// everything.
type Options struct {
	ScenarioNames []string
	NamePatterns  []string
	TagExpression string
}

func (o Options) hasFilters() bool {
	return len(o.ScenarioNames) > 0 || len(o.NamePatterns) > 0 || o.TagExpression != ""
}

func (o Options) describe() string {
	var parts []string
	if len(o.ScenarioNames) > 0 {
		parts = append(parts, fmt.Sprintf("names %v", o.ScenarioNames))
	}
	if len(o.NamePatterns) > 0 {
		parts = append(parts, fmt.Sprintf("patterns %v", o.NamePatterns))
	}
	if o.TagExpression != "" {
		parts = append(parts, fmt.Sprintf("tag expression %q", o.TagExpression))
	}
	return strings.Join(parts, ", ")
}

// Diagnostics reports what a selection did.
type Diagnostics struct {
	TotalScenarios    int
	SelectedScenarios int
	SelectedFeatures  int
	HasFilters        bool
	Filters           string
}

// Error is a fatal selection failure: a malformed filter or a filter
// set that matches nothing.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// Apply returns a filtered copy of the program. Features with no
// matching scenario are dropped entirely; matched features keep only
// their matching scenarios. The input program is never modified.
func Apply(prog *ast.Program, opts Options) (*ast.Program, Diagnostics, error) {
	diag := Diagnostics{HasFilters: opts.hasFilters(), Filters: opts.describe()}
	for _, feat := range prog.Features {
		diag.TotalScenarios += len(feat.Scenarios)
	}

	if !diag.HasFilters {
		diag.SelectedScenarios = diag.TotalScenarios
		diag.SelectedFeatures = len(prog.Features)
		return prog, diag, nil
	}

	matcher, err := newMatcher(opts)
	if err != nil {
		return nil, diag, err
	}

	out := &ast.Program{
		Pages:            prog.Pages,
		PageActionBlocks: prog.PageActionBlocks,
	}
	for _, feat := range prog.Features {
		var kept []*ast.Scenario
		for _, sc := range feat.Scenarios {
			if matcher.matches(sc) {
				kept = append(kept, sc)
			}
		}
		if len(kept) == 0 {
			continue
		}
		out.Features = append(out.Features, &ast.Feature{
			Name:      feat.Name,
			Line:      feat.Line,
			Hooks:     feat.Hooks,
			Scenarios: kept,
		})
		diag.SelectedScenarios += len(kept)
	}
	diag.SelectedFeatures = len(out.Features)

	if diag.SelectedScenarios == 0 {
		return nil, diag, &Error{
			Message: fmt.Sprintf("no scenarios match the active filters (%s)", opts.describe()),
		}
	}
	return out, diag, nil
}

type matcher struct {
	names    []string // lowercased exact names
	patterns []*regexp.Regexp
	tags     tagExpr
}

func newMatcher(opts Options) (*matcher, error) {
	m := &matcher{}
	for _, name := range opts.ScenarioNames {
		m.names = append(m.names, strings.ToLower(name))
	}
	for _, pat := range opts.NamePatterns {
		re, err := regexp.Compile("(?i)" + pat)
		if err != nil {
			return nil, &Error{Message: fmt.Sprintf("invalid name pattern %q: %v", pat, err)}
		}
		m.patterns = append(m.patterns, re)
	}
	if opts.TagExpression != "" {
		expr, err := parseTagExpr(opts.TagExpression)
		if err != nil {
			return nil, err
		}
		m.tags = expr
	}
	return m, nil
}

// matches applies every non-empty filter category; all of them must
// agree for the scenario to be kept.
func (m *matcher) matches(sc *ast.Scenario) bool {
	if len(m.names) > 0 || len(m.patterns) > 0 {
		if !m.matchesName(sc.Name) {
			return false
		}
	}
	if m.tags != nil {
		tags := make(map[string]bool, len(sc.Tags))
		for _, tag := range sc.Tags {
			tags[normalizeTag(tag)] = true
		}
		if !m.tags.eval(tags) {
			return false
		}
	}
	return true
}

func (m *matcher) matchesName(name string) bool {
	lower := strings.ToLower(name)
	comparable := splitWords(name)
	for _, want := range m.names {
		if want == lower || want == comparable {
			return true
		}
	}
	for _, re := range m.patterns {
		if re.MatchString(name) || re.MatchString(comparable) {
			return true
		}
	}
	return false
}

// splitWords turns a camel- or Pascal-case identifier into lowercase
// space-joined words, so LoginWithValidCredentials compares equal to
// "login with valid credentials". Runs of capitals stay one word
// (HTTPServer -> "http server").
func splitWords(name string) string {
	runes := []rune(name)
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = nil
		}
	}
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush()
		case unicode.IsUpper(r):
			prevLower := i > 0 && unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (nextLower && len(cur) > 0) {
				flush()
			}
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return strings.Join(words, " ")
}

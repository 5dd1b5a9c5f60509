package transpiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/verolang/vero/internal/ast"
)

// locator compiles a selector into a Playwright locator expression on
// the given receiver. Modifiers chain in parse order; reordering them
// changes which element is targeted.
func (u *unit) locator(recv string, sel *ast.Selector) string {
	var b strings.Builder
	b.WriteString(recv)
	switch sel.Type {
	case ast.SelCSS:
		fmt.Fprintf(&b, ".locator(%s)", u.str(sel.Value))
	case ast.SelRole:
		if sel.NameParam != "" {
			fmt.Fprintf(&b, ".getByRole(%s, { name: %s })", u.str(sel.Value), u.str(sel.NameParam))
		} else {
			fmt.Fprintf(&b, ".getByRole(%s)", u.str(sel.Value))
		}
	case ast.SelText:
		fmt.Fprintf(&b, ".getByText(%s)", u.str(sel.Value))
	case ast.SelTestID:
		fmt.Fprintf(&b, ".getByTestId(%s)", u.str(sel.Value))
	case ast.SelLabel:
		fmt.Fprintf(&b, ".getByLabel(%s)", u.str(sel.Value))
	case ast.SelPlaceholder:
		fmt.Fprintf(&b, ".getByPlaceholder(%s)", u.str(sel.Value))
	}
	for _, mod := range sel.Modifiers {
		switch mod.Kind {
		case ast.ModFirst:
			b.WriteString(".first()")
		case ast.ModLast:
			b.WriteString(".last()")
		case ast.ModNth:
			fmt.Fprintf(&b, ".nth(%d)", mod.Index)
		case ast.ModWithText:
			fmt.Fprintf(&b, ".filter({ hasText: %s })", u.str(mod.Text))
		case ast.ModWithoutText:
			fmt.Fprintf(&b, ".filter({ hasNotText: %s })", u.str(mod.Text))
		case ast.ModHas:
			fmt.Fprintf(&b, ".filter({ has: %s })", u.locator(recv, mod.Selector))
		case ast.ModHasNot:
			fmt.Fprintf(&b, ".filter({ hasNot: %s })", u.locator(recv, mod.Selector))
		}
	}
	return b.String()
}

// target compiles a statement target: a page field access or an inline
// selector rooted at the page handle.
func (u *unit) target(t ast.Target) string {
	if t.IsRef() {
		u.usePage(t.Page)
		return fmt.Sprintf("%s.%s", pageVar(t.Page), t.Field)
	}
	return u.locator("page", t.Selector)
}

// targetLabel names a target for debug step events.
func targetLabel(t ast.Target) string {
	if t.IsRef() {
		return t.Page + "." + t.Field
	}
	return string(t.Selector.Type) + " " + t.Selector.Value
}

// value compiles a statement operand to a TypeScript expression.
func (u *unit) value(v ast.Value) string {
	switch v.Kind {
	case ast.NumberValue, ast.VarValue:
		return v.Text
	default:
		return u.str(v.Text)
	}
}

var envPlaceholder = regexp.MustCompile(`\{\{([A-Za-z_][A-Za-z0-9_]*)\}\}`)

// str quotes a string literal. Strings carrying {{NAME}} placeholders
// become template literals with env('NAME') lookups.
func (u *unit) str(s string) string {
	locs := envPlaceholder.FindAllStringSubmatchIndex(s, -1)
	if len(locs) == 0 {
		return singleQuote(s)
	}
	u.needsEnv = true
	var b strings.Builder
	b.WriteByte('`')
	last := 0
	for _, loc := range locs {
		b.WriteString(templateEscape(s[last:loc[0]]))
		fmt.Fprintf(&b, "${env('%s')}", s[loc[2]:loc[3]])
		last = loc[1]
	}
	b.WriteString(templateEscape(s[last:]))
	b.WriteByte('`')
	return b.String()
}

func singleQuote(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			b.WriteString(`\'`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

func templateEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "`", "\\`")
	s = strings.ReplaceAll(s, "${", `\${`)
	return s
}

// Package transpiler turns a validated, filtered program into
// Playwright TypeScript source units: one locator class per page, one
// dispatcher module per page-action block, one test suite per feature,
// plus shared runtime support. Generation walks the syntax tree in
// declaration order, so identical input always produces identical
// output.
package transpiler

import (
	"fmt"
	"strings"

	"github.com/verolang/vero/internal/ast"
)

// Options control code generation.
type Options struct {
	// Debug wraps every generated statement in a step hook and emits
	// the debug runtime unit.
	Debug bool
	// Env supplies defaults for {{NAME}} placeholders, baked into the
	// runtime unit. process.env still wins at run time.
	Env map[string]string
}

// Result maps declared names to generated TypeScript source. Support
// holds the shared runtime units keyed by file stem.
type Result struct {
	Pages       map[string]string
	PageActions map[string]string
	Tests       map[string]string
	Support     map[string]string
}

// Error is a fatal generation failure. No partial unit is useful once
// one occurs.
type Error struct {
	Message string
	Line    int
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

func errorf(line int, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Line: line}
}

// Generate compiles the program. The program is expected to have
// passed validation; reference and arity problems that slipped through
// still surface as generation errors rather than broken output.
func Generate(prog *ast.Program, opts Options) (*Result, error) {
	g := &gen{
		prog:    prog,
		opts:    opts,
		actions: map[string]map[string]map[int]*ast.Action{},
	}
	if err := g.indexActions(); err != nil {
		return nil, err
	}

	res := &Result{
		Pages:       map[string]string{},
		PageActions: map[string]string{},
		Tests:       map[string]string{},
		Support:     map[string]string{},
	}
	for _, page := range prog.Pages {
		res.Pages[page.Name] = g.pageUnit(page)
	}
	for _, block := range prog.PageActionBlocks {
		src, err := g.actionUnit(block)
		if err != nil {
			return nil, err
		}
		res.PageActions[block.Name] = src
	}
	for _, feat := range prog.Features {
		src, err := g.featureUnit(feat)
		if err != nil {
			return nil, err
		}
		res.Tests[feat.Name] = src
	}
	res.Support[runtimeUnitName] = g.runtimeUnit()
	if opts.Debug {
		res.Support[debugUnitName] = debugRuntimeSource
	}
	return res, nil
}

type gen struct {
	prog *ast.Program
	opts Options

	// block name -> action name -> arity -> body
	actions map[string]map[string]map[int]*ast.Action
}

// indexActions builds the overload table and rejects two bodies that
// share a name and an arity, since argument-count dispatch cannot
// tell them apart.
func (g *gen) indexActions() error {
	for _, block := range g.prog.PageActionBlocks {
		byName := map[string]map[int]*ast.Action{}
		for _, action := range block.Actions {
			arities := byName[action.Name]
			if arities == nil {
				arities = map[int]*ast.Action{}
				byName[action.Name] = arities
			}
			if prev, ok := arities[len(action.Params)]; ok {
				return errorf(action.Line,
					"action %s.%s declared twice with %d parameters (first at line %d)",
					block.Name, action.Name, len(action.Params), prev.Line)
			}
			arities[len(action.Params)] = action
		}
		g.actions[block.Name] = byName
	}
	return nil
}

func (g *gen) lookupAction(block, name string, arity int) (*ast.Action, bool) {
	byName, ok := g.actions[block]
	if !ok {
		return nil, false
	}
	arities, ok := byName[name]
	if !ok {
		return nil, false
	}
	action, ok := arities[arity]
	return action, ok
}

// unit accumulates one generated file: body text plus the imports the
// body turned out to need.
type unit struct {
	g *gen

	body   strings.Builder
	indent int

	pwImports []string       // named imports from @playwright/test
	selfBlock string         // action block this unit defines, if any
	pages     []string       // page classes instantiated in bodies
	actions   []actionImport // dispatcher functions called in bodies
	needsEnv  bool
	needsData bool
	needsStep bool
}

func (g *gen) newUnit(pwImports ...string) *unit {
	return &unit{g: g, pwImports: pwImports}
}

func (u *unit) line(format string, args ...any) {
	u.body.WriteString(strings.Repeat("  ", u.indent))
	fmt.Fprintf(&u.body, format, args...)
	u.body.WriteByte('\n')
}

func (u *unit) blank() { u.body.WriteByte('\n') }

func (u *unit) usePW(name string) {
	for _, n := range u.pwImports {
		if n == name {
			return
		}
	}
	u.pwImports = append(u.pwImports, name)
}

func (u *unit) usePage(name string) {
	for _, p := range u.pages {
		if p == name {
			return
		}
	}
	u.pages = append(u.pages, name)
}

type actionImport struct {
	fn    string // dispatcher function name
	block string // source unit it lives in
}

func (u *unit) useAction(fn, block string) {
	for _, a := range u.actions {
		if a.fn == fn {
			return
		}
	}
	u.actions = append(u.actions, actionImport{fn: fn, block: block})
}

// source assembles the final file: imports first, then the body.
func (u *unit) source() string {
	var out strings.Builder
	out.WriteString(fileHeader)
	if len(u.pwImports) > 0 {
		fmt.Fprintf(&out, "import { %s } from '@playwright/test';\n",
			strings.Join(u.pwImports, ", "))
	}
	var runtime []string
	if u.needsEnv {
		runtime = append(runtime, "env")
	}
	if u.needsData {
		runtime = append(runtime, "data")
	}
	if len(runtime) > 0 {
		fmt.Fprintf(&out, "import { %s } from './%s';\n",
			strings.Join(runtime, ", "), runtimeUnitName)
	}
	if u.needsStep {
		fmt.Fprintf(&out, "import { __vero } from './%s';\n", debugUnitName)
	}
	for _, page := range u.pages {
		fmt.Fprintf(&out, "import { %s } from './%s';\n", page, page)
	}
	for _, a := range u.actions {
		if a.block == u.selfBlock {
			continue
		}
		fmt.Fprintf(&out, "import { %s } from './%s';\n", a.fn, a.block)
	}
	out.WriteByte('\n')
	out.WriteString(u.body.String())
	return out.String()
}

const fileHeader = "// Generated by vero. Do not edit.\n"

// pageVar is the local instance name for a page class.
func pageVar(name string) string {
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}

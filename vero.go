// Package vero is the Vero compiler: a declarative language for
// browser test cases, compiled to Playwright TypeScript. The pipeline
// is lex, parse, validate, select, generate; the first three collect
// diagnostics and keep going, the last two fail fast.
package vero

import (
	"fmt"

	"github.com/verolang/vero/internal/ast"
	"github.com/verolang/vero/internal/lexer"
	"github.com/verolang/vero/internal/parser"
	"github.com/verolang/vero/internal/selection"
	"github.com/verolang/vero/internal/token"
	"github.com/verolang/vero/internal/transpiler"
	"github.com/verolang/vero/internal/validator"
)

// Source is one input file.
type Source struct {
	Path string
	Text string
}

// Diagnostic is a stage-tagged problem anchored to a source position.
// Column is 0 when the stage only tracks lines.
type Diagnostic struct {
	Stage   string // lex, parse, validate
	File    string
	Line    int
	Column  int
	Message string
}

func (d Diagnostic) String() string {
	if d.Column > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", d.File, d.Line, d.Column, d.Stage, d.Message)
	}
	return fmt.Sprintf("%s:%d: %s: %s", d.File, d.Line, d.Stage, d.Message)
}

// Tokenize lexes one source text.
func Tokenize(source string) lexer.Result {
	return lexer.Lex(source)
}

// Parse builds a program from one token stream. A best-effort program
// is always returned alongside the diagnostics; callers working with
// several files should prefer Check, which merges them.
func Parse(tokens []token.Token) (*ast.Program, []Diagnostic) {
	prog, errs := parser.Parse(tokens)
	var diags []Diagnostic
	for _, e := range errs {
		diags = append(diags, Diagnostic{
			Stage: "parse", Line: e.Line, Column: e.Column, Message: e.Message,
		})
	}
	return prog, diags
}

// Validate reports semantic problems in a program without mutating it.
func Validate(prog *ast.Program) []Diagnostic {
	var diags []Diagnostic
	for _, e := range validator.Validate(prog) {
		diags = append(diags, Diagnostic{
			Stage: "validate", Line: e.Line, Message: e.Message,
		})
	}
	return diags
}

// Check lexes, parses and validates the sources, merging them into
// one program. A best-effort program is always returned alongside the
// diagnostics.
func Check(sources []Source) (*ast.Program, []Diagnostic) {
	var diags []Diagnostic
	merged := &ast.Program{}
	for _, src := range sources {
		lexed := lexer.Lex(src.Text)
		for _, e := range lexed.Errors {
			diags = append(diags, Diagnostic{
				Stage: "lex", File: src.Path, Line: e.Line, Column: e.Column, Message: e.Message,
			})
		}
		prog, parseErrs := parser.Parse(lexed.Tokens)
		for _, e := range parseErrs {
			diags = append(diags, Diagnostic{
				Stage: "parse", File: src.Path, Line: e.Line, Column: e.Column, Message: e.Message,
			})
		}
		merged.Pages = append(merged.Pages, prog.Pages...)
		merged.PageActionBlocks = append(merged.PageActionBlocks, prog.PageActionBlocks...)
		merged.Features = append(merged.Features, prog.Features...)
	}
	for _, e := range validator.Validate(merged) {
		diags = append(diags, Diagnostic{
			Stage: "validate", Line: e.Line, Message: e.Message,
		})
	}
	return merged, diags
}

// SelectScenarios filters a program by name, pattern and tag
// expression. It fails on a malformed expression or an empty result.
func SelectScenarios(prog *ast.Program, opts selection.Options) (*ast.Program, selection.Diagnostics, error) {
	return selection.Apply(prog, opts)
}

// Transpile generates the output units for a validated program.
func Transpile(prog *ast.Program, opts transpiler.Options) (*transpiler.Result, error) {
	return transpiler.Generate(prog, opts)
}

// CompileOptions parameterize a full pipeline run.
type CompileOptions struct {
	Selection selection.Options
	Debug     bool
	Env       map[string]string
}

// CompileResult is the output of a successful run.
type CompileResult struct {
	Units     *transpiler.Result
	Selection selection.Diagnostics
}

// Compile runs the whole pipeline. Lex, parse and validation problems
// come back as diagnostics with no result; selection and generation
// failures come back as the error.
func Compile(sources []Source, opts CompileOptions) (*CompileResult, []Diagnostic, error) {
	prog, diags := Check(sources)
	if len(diags) > 0 {
		return nil, diags, nil
	}
	selected, selDiags, err := selection.Apply(prog, opts.Selection)
	if err != nil {
		return nil, nil, err
	}
	units, err := transpiler.Generate(selected, transpiler.Options{
		Debug: opts.Debug,
		Env:   opts.Env,
	})
	if err != nil {
		return nil, nil, err
	}
	return &CompileResult{Units: units, Selection: selDiags}, nil, nil
}

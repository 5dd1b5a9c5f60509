// Package parser builds the Vero AST from a token stream by recursive
// descent. Parsing never aborts: unexpected tokens are recorded as
// diagnostics, the parser resynchronizes at the next block boundary or
// top-level keyword, and a best-effort Program is always returned.
package parser

import (
	"fmt"
	"strings"

	"github.com/verolang/vero/internal/ast"
	"github.com/verolang/vero/internal/token"
)

// Error is a parse diagnostic anchored to a source position.
type Error struct {
	Message string
	Line    int
	Column  int
}

func (e Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

type parser struct {
	toks   []token.Token
	pos    int
	errors []Error
}

// Parse consumes a token stream (as produced by the lexer, COMMENT
// tokens included) and returns the program together with any parse
// errors.
func Parse(toks []token.Token) (*ast.Program, []Error) {
	// Comments are retained by the lexer for tooling; the grammar
	// ignores them.
	filtered := make([]token.Token, 0, len(toks))
	for _, t := range toks {
		if t.Type != token.COMMENT {
			filtered = append(filtered, t)
		}
	}
	if len(filtered) == 0 {
		filtered = append(filtered, token.Token{Type: token.EOF, Line: 1, Column: 1})
	}

	p := &parser{toks: filtered}
	prog := p.parseProgram()
	return prog, p.errors
}

func (p *parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	for {
		switch p.cur().Type {
		case token.EOF:
			return prog
		case token.PAGE:
			if page := p.parsePage(); page != nil {
				prog.Pages = append(prog.Pages, page)
			}
		case token.PAGEACTIONS:
			if block := p.parsePageActions(); block != nil {
				prog.PageActionBlocks = append(prog.PageActionBlocks, block)
			}
		case token.FEATURE:
			if feat := p.parseFeature(); feat != nil {
				prog.Features = append(prog.Features, feat)
			}
		default:
			p.errorExpected("PAGE, PAGEACTIONS or FEATURE")
			p.syncTopLevel()
		}
	}
}

// parsePage parses PAGE <name> { FIELD <name> = <selector> ... }.
func (p *parser) parsePage() *ast.Page {
	start := p.cur()
	p.advance() // PAGE
	name, ok := p.expectIdent("page name")
	if !ok {
		p.syncTopLevel()
		return nil
	}
	page := &ast.Page{Name: name, Line: start.Line}
	if !p.expect(token.LBRACE) {
		p.syncTopLevel()
		return page
	}

	for {
		switch p.cur().Type {
		case token.FIELD:
			fieldTok := p.cur()
			p.advance()
			fname, ok := p.expectIdent("field name")
			if !ok {
				p.skipLine(fieldTok.Line)
				continue
			}
			if !p.expect(token.EQUALS) {
				p.skipLine(fieldTok.Line)
				continue
			}
			sel, ok := p.parseSelector(false)
			if !ok {
				p.skipLine(fieldTok.Line)
				continue
			}
			page.Fields = append(page.Fields, ast.Field{
				Name:     fname,
				Line:     fieldTok.Line,
				Selector: sel,
			})
		case token.RBRACE:
			p.advance()
			return page
		case token.EOF, token.PAGE, token.PAGEACTIONS, token.FEATURE:
			p.errorExpected("FIELD or }")
			return page
		default:
			p.errorExpected("FIELD or }")
			p.advance()
		}
	}
}

// parsePageActions parses
// PAGEACTIONS <name> FOR <page> { ACTION <name>(<params>) { ... } ... }.
func (p *parser) parsePageActions() *ast.PageActionBlock {
	start := p.cur()
	p.advance() // PAGEACTIONS
	name, ok := p.expectIdent("page-action block name")
	if !ok {
		p.syncTopLevel()
		return nil
	}
	block := &ast.PageActionBlock{Name: name, Line: start.Line}
	if !p.expect(token.FOR) {
		p.syncTopLevel()
		return block
	}
	pageName, ok := p.expectIdent("page name")
	if !ok {
		p.syncTopLevel()
		return block
	}
	block.PageName = pageName
	if !p.expect(token.LBRACE) {
		p.syncTopLevel()
		return block
	}

	for {
		switch p.cur().Type {
		case token.ACTION:
			if act := p.parseAction(); act != nil {
				block.Actions = append(block.Actions, act)
			}
		case token.RBRACE:
			p.advance()
			return block
		case token.EOF, token.PAGE, token.PAGEACTIONS, token.FEATURE:
			p.errorExpected("ACTION or }")
			return block
		default:
			p.errorExpected("ACTION or }")
			p.advance()
		}
	}
}

func (p *parser) parseAction() *ast.Action {
	start := p.cur()
	p.advance() // ACTION
	name, ok := p.expectIdent("action name")
	if !ok {
		p.syncBlock()
		return nil
	}
	act := &ast.Action{Name: name, Line: start.Line}
	if !p.expect(token.LPAREN) {
		p.syncBlock()
		return act
	}
	if p.cur().Type != token.RPAREN {
		for {
			param, ok := p.expectIdent("parameter name")
			if !ok {
				p.syncBlock()
				return act
			}
			act.Params = append(act.Params, param)
			if p.cur().Type != token.COMMA {
				break
			}
			p.advance()
		}
	}
	if !p.expect(token.RPAREN) {
		p.syncBlock()
		return act
	}
	act.Body = p.parseBlock()
	return act
}

// parseFeature parses FEATURE <name> { hooks and scenarios }.
func (p *parser) parseFeature() *ast.Feature {
	start := p.cur()
	p.advance() // FEATURE
	name, ok := p.expectIdent("feature name")
	if !ok {
		p.syncTopLevel()
		return nil
	}
	feat := &ast.Feature{Name: name, Line: start.Line}
	if !p.expect(token.LBRACE) {
		p.syncTopLevel()
		return feat
	}

	for {
		switch p.cur().Type {
		case token.BEFORE, token.AFTER:
			if hook := p.parseHook(); hook != nil {
				feat.Hooks = append(feat.Hooks, hook)
			}
		case token.SCENARIO:
			if sc := p.parseScenario(); sc != nil {
				feat.Scenarios = append(feat.Scenarios, sc)
			}
		case token.RBRACE:
			p.advance()
			return feat
		case token.EOF, token.PAGE, token.PAGEACTIONS, token.FEATURE:
			p.errorExpected("SCENARIO, BEFORE, AFTER or }")
			return feat
		default:
			p.errorExpected("SCENARIO, BEFORE, AFTER or }")
			p.advance()
		}
	}
}

func (p *parser) parseHook() *ast.Hook {
	start := p.cur()
	before := start.Type == token.BEFORE
	p.advance() // BEFORE or AFTER

	var kind ast.HookKind
	switch p.cur().Type {
	case token.EACH:
		if before {
			kind = ast.BeforeEach
		} else {
			kind = ast.AfterEach
		}
	case token.ALL:
		if before {
			kind = ast.BeforeAll
		} else {
			kind = ast.AfterAll
		}
	default:
		p.errorExpected("EACH or ALL")
		p.syncBlock()
		return nil
	}
	p.advance()

	return &ast.Hook{Kind: kind, Line: start.Line, Body: p.parseBlock()}
}

func (p *parser) parseScenario() *ast.Scenario {
	start := p.cur()
	p.advance() // SCENARIO

	var name string
	switch p.cur().Type {
	case token.IDENT, token.STRING:
		name = p.cur().Value
		p.advance()
	default:
		p.errorExpected("scenario name")
		p.syncBlock()
		return nil
	}

	sc := &ast.Scenario{Name: name, Line: start.Line}
	for p.cur().Type == token.TAG {
		sc.Tags = append(sc.Tags, p.cur().Value)
		p.advance()
	}
	sc.Statements = p.parseBlock()
	return sc
}

// parseBlock parses { stmt* } and returns the statements. A missing
// closing brace is reported once and the block ends at the offending
// token.
func (p *parser) parseBlock() []ast.Stmt {
	if !p.expect(token.LBRACE) {
		p.syncBlock()
		return nil
	}
	var stmts []ast.Stmt
	for {
		switch p.cur().Type {
		case token.RBRACE:
			p.advance()
			return stmts
		case token.EOF, token.PAGE, token.PAGEACTIONS, token.FEATURE:
			p.errorExpected("statement or }")
			return stmts
		default:
			if s, ok := p.parseStatement(); ok {
				stmts = append(stmts, s)
			}
		}
	}
}

// --- token cursor helpers ---

func (p *parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos]
}

func (p *parser) peek() token.Token {
	return p.peekAt(1)
}

func (p *parser) peekAt(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) advance() {
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
}

// expect consumes a token of the given type or records a diagnostic
// without consuming.
func (p *parser) expect(t token.Type) bool {
	if p.cur().Type == t {
		p.advance()
		return true
	}
	p.errorExpected(t.String())
	return false
}

func (p *parser) expectIdent(what string) (string, bool) {
	c := p.cur()
	if c.Type == token.IDENT {
		p.advance()
		return c.Value, true
	}
	p.errorExpected(what)
	return "", false
}

func (p *parser) errorExpected(what string) {
	c := p.cur()
	got := c.Type.String()
	switch c.Type {
	case token.IDENT, token.STRING, token.NUMBER:
		got = fmt.Sprintf("%s %q", strings.ToLower(got), c.Value)
	}
	p.errors = append(p.errors, Error{
		Message: fmt.Sprintf("expected %s, got %s", what, got),
		Line:    c.Line,
		Column:  c.Column,
	})
}

// syncTopLevel skips tokens until the next top-level keyword or EOF.
func (p *parser) syncTopLevel() {
	for {
		switch p.cur().Type {
		case token.EOF, token.PAGE, token.PAGEACTIONS, token.FEATURE:
			return
		}
		p.advance()
	}
}

// syncBlock skips to the matching closing brace of the block being
// parsed, or bails at the next top-level keyword when braces never
// balance.
func (p *parser) syncBlock() {
	depth := 0
	for {
		switch p.cur().Type {
		case token.EOF, token.PAGE, token.PAGEACTIONS, token.FEATURE:
			return
		case token.LBRACE:
			depth++
		case token.RBRACE:
			if depth == 0 {
				p.advance()
				return
			}
			depth--
		}
		p.advance()
	}
}

// skipLine skips the remaining tokens of a malformed line so one bad
// statement yields one diagnostic.
func (p *parser) skipLine(line int) {
	for {
		switch p.cur().Type {
		case token.EOF, token.RBRACE, token.PAGE, token.PAGEACTIONS, token.FEATURE:
			return
		}
		if p.cur().Line != line {
			return
		}
		p.advance()
	}
}

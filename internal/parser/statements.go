package parser

import (
	"strconv"

	"github.com/verolang/vero/internal/ast"
	"github.com/verolang/vero/internal/token"
)

// parseStatement dispatches on the leading keyword of a statement. On
// failure it records a diagnostic, skips the rest of the line, and
// reports ok=false so the block keeps parsing.
func (p *parser) parseStatement() (ast.Stmt, bool) {
	start := p.cur()
	n := ast.Node{Pos: start.Line}

	var s ast.Stmt
	ok := true
	switch start.Type {
	case token.CLICK:
		p.advance()
		t, tok := p.parseTarget()
		s, ok = &ast.Click{Node: n, Target: t}, tok
	case token.DOUBLECLICK:
		p.advance()
		t, tok := p.parseTarget()
		s, ok = &ast.DoubleClick{Node: n, Target: t}, tok
	case token.RIGHTCLICK:
		p.advance()
		t, tok := p.parseTarget()
		s, ok = &ast.RightClick{Node: n, Target: t}, tok
	case token.HOVER:
		p.advance()
		t, tok := p.parseTarget()
		s, ok = &ast.Hover{Node: n, Target: t}, tok
	case token.FOCUS:
		p.advance()
		t, tok := p.parseTarget()
		s, ok = &ast.Focus{Node: n, Target: t}, tok
	case token.CLEAR:
		p.advance()
		t, tok := p.parseTarget()
		s, ok = &ast.Clear{Node: n, Target: t}, tok
	case token.CHECK:
		p.advance()
		t, tok := p.parseTarget()
		s, ok = &ast.Check{Node: n, Target: t}, tok
	case token.UNCHECK:
		p.advance()
		t, tok := p.parseTarget()
		s, ok = &ast.Uncheck{Node: n, Target: t}, tok
	case token.FILL:
		s, ok = p.parseFill(n)
	case token.TYPE:
		s, ok = p.parseType(n)
	case token.PRESS:
		p.advance()
		v, vok := p.parseValue()
		s, ok = &ast.Press{Node: n, Key: v}, vok
	case token.SELECT:
		s, ok = p.parseSelect(n)
	case token.UPLOAD:
		s, ok = p.parseUpload(n)
	case token.DRAG:
		s, ok = p.parseDrag(n)
	case token.SCROLL:
		s, ok = p.parseScroll(n)
	case token.OPEN:
		p.advance()
		v, vok := p.parseValue()
		s, ok = &ast.Open{Node: n, URL: v}, vok
	case token.GO:
		s, ok = p.parseGo(n)
	case token.RELOAD:
		p.advance()
		s = &ast.Reload{Node: n}
	case token.WAIT:
		s, ok = p.parseWait(n)
	case token.VERIFY:
		s, ok = p.parseVerify(n)
	case token.SCREENSHOT:
		s, ok = p.parseScreenshot(n)
	case token.IF:
		s, ok = p.parseIf(n)
	case token.REPEAT:
		s, ok = p.parseRepeat(n)
	case token.FOR:
		s, ok = p.parseForEach(n)
	case token.TRY:
		s, ok = p.parseTryCatch(n)
	case token.LOAD:
		p.advance()
		table, tok := p.expectString("table name")
		s, ok = &ast.LoadData{Node: n, Table: table}, tok
	case token.ROW:
		s, ok = p.parseDataInto(n, func(table, varName string) ast.Stmt {
			return &ast.UseRow{Node: n, Table: table, Var: varName}
		})
	case token.ROWS:
		s, ok = p.parseDataInto(n, func(table, varName string) ast.Stmt {
			return &ast.UseRows{Node: n, Table: table, Var: varName}
		})
	case token.COUNT:
		s, ok = p.parseDataInto(n, func(table, varName string) ast.Stmt {
			return &ast.CountRows{Node: n, Table: table, Var: varName}
		})
	case token.SET:
		s, ok = p.parseSet(n)
	case token.LOG:
		p.advance()
		v, vok := p.parseValue()
		s, ok = &ast.Log{Node: n, Message: v}, vok
	case token.PERFORM:
		s, ok = p.parsePerform(n)
	default:
		p.errorExpected("statement")
		p.advance()
		return nil, false
	}

	if !ok {
		p.skipLine(start.Line)
		return nil, false
	}
	return s, true
}

func (p *parser) parseFill(n ast.Node) (ast.Stmt, bool) {
	p.advance() // FILL
	t, ok := p.parseTarget()
	if !ok {
		return nil, false
	}
	if !p.expect(token.WITH) {
		return nil, false
	}
	v, ok := p.parseValue()
	return &ast.Fill{Node: n, Target: t, Value: v}, ok
}

func (p *parser) parseType(n ast.Node) (ast.Stmt, bool) {
	p.advance() // TYPE
	v, ok := p.parseValue()
	if !ok {
		return nil, false
	}
	if !p.expect(token.INTO) {
		return nil, false
	}
	t, ok := p.parseTarget()
	return &ast.TypeText{Node: n, Target: t, Value: v}, ok
}

func (p *parser) parseSelect(n ast.Node) (ast.Stmt, bool) {
	p.advance() // SELECT
	v, ok := p.parseValue()
	if !ok {
		return nil, false
	}
	if !p.expect(token.FROM) {
		return nil, false
	}
	t, ok := p.parseTarget()
	return &ast.SelectOption{Node: n, Target: t, Value: v}, ok
}

func (p *parser) parseUpload(n ast.Node) (ast.Stmt, bool) {
	p.advance() // UPLOAD
	v, ok := p.parseValue()
	if !ok {
		return nil, false
	}
	if !p.expect(token.TO) {
		return nil, false
	}
	t, ok := p.parseTarget()
	return &ast.Upload{Node: n, Target: t, Path: v}, ok
}

func (p *parser) parseDrag(n ast.Node) (ast.Stmt, bool) {
	p.advance() // DRAG
	src, ok := p.parseTarget()
	if !ok {
		return nil, false
	}
	if !p.expect(token.TO) {
		return nil, false
	}
	dst, ok := p.parseTarget()
	return &ast.Drag{Node: n, Source: src, Dest: dst}, ok
}

func (p *parser) parseScroll(n ast.Node) (ast.Stmt, bool) {
	p.advance() // SCROLL
	switch p.cur().Type {
	case token.TO:
		p.advance()
		t, ok := p.parseTarget()
		return &ast.ScrollTo{Node: n, Target: t}, ok
	case token.DOWN:
		p.advance()
		return &ast.Scroll{Node: n, Down: true}, true
	case token.UP:
		p.advance()
		return &ast.Scroll{Node: n, Down: false}, true
	default:
		p.errorExpected("TO, UP or DOWN")
		return nil, false
	}
}

func (p *parser) parseGo(n ast.Node) (ast.Stmt, bool) {
	p.advance() // GO
	switch p.cur().Type {
	case token.BACK:
		p.advance()
		return &ast.GoBack{Node: n}, true
	case token.FORWARD:
		p.advance()
		return &ast.GoForward{Node: n}, true
	default:
		p.errorExpected("BACK or FORWARD")
		return nil, false
	}
}

func (p *parser) parseWait(n ast.Node) (ast.Stmt, bool) {
	p.advance() // WAIT
	if p.cur().Type == token.FOR {
		p.advance()
		t, ok := p.parseTarget()
		if !ok {
			return nil, false
		}
		if !p.expect(token.TO) || !p.expect(token.BE) {
			return nil, false
		}
		state, ok := p.parseState()
		return &ast.WaitFor{Node: n, Target: t, State: state}, ok
	}
	c := p.cur()
	if c.Type != token.NUMBER {
		p.errorExpected("duration or FOR")
		return nil, false
	}
	p.advance()
	if !p.expect(token.SECONDS) {
		return nil, false
	}
	return &ast.Wait{Node: n, Seconds: c.Value}, true
}

func (p *parser) parseVerify(n ast.Node) (ast.Stmt, bool) {
	p.advance() // VERIFY

	switch p.cur().Type {
	case token.URL:
		p.advance()
		if !p.expect(token.IS) {
			return nil, false
		}
		v, ok := p.parseValue()
		return &ast.VerifyURL{Node: n, URL: v}, ok
	case token.TITLE:
		p.advance()
		if !p.expect(token.IS) {
			return nil, false
		}
		v, ok := p.parseValue()
		return &ast.VerifyTitle{Node: n, Title: v}, ok
	}

	t, ok := p.parseTarget()
	if !ok {
		return nil, false
	}
	switch p.cur().Type {
	case token.IS:
		p.advance()
		state, ok := p.parseState()
		return &ast.VerifyState{Node: n, Target: t, State: state}, ok
	case token.CONTAINS:
		p.advance()
		if !p.expect(token.TEXT) {
			return nil, false
		}
		v, ok := p.parseValue()
		return &ast.VerifyText{Node: n, Target: t, Text: v, Exact: false}, ok
	case token.HAS:
		p.advance()
		switch p.cur().Type {
		case token.TEXT:
			p.advance()
			v, ok := p.parseValue()
			return &ast.VerifyText{Node: n, Target: t, Text: v, Exact: true}, ok
		case token.VALUE:
			p.advance()
			v, ok := p.parseValue()
			return &ast.VerifyValue{Node: n, Target: t, Value: v}, ok
		case token.COUNT:
			p.advance()
			c := p.cur()
			if c.Type != token.NUMBER {
				p.errorExpected("count")
				return nil, false
			}
			p.advance()
			return &ast.VerifyCount{Node: n, Target: t, Count: c.Value}, true
		case token.ATTRIBUTE:
			p.advance()
			name, ok := p.parseValue()
			if !ok {
				return nil, false
			}
			v, ok := p.parseValue()
			return &ast.VerifyAttr{Node: n, Target: t, Name: name, Value: v}, ok
		default:
			p.errorExpected("TEXT, VALUE, COUNT or ATTRIBUTE")
			return nil, false
		}
	default:
		p.errorExpected("IS, HAS or CONTAINS")
		return nil, false
	}
}

// parseScreenshot accepts the optional clauses in source order:
// OF target, AS name, preset keyword, then numeric overrides.
func (p *parser) parseScreenshot(n ast.Node) (ast.Stmt, bool) {
	p.advance() // SCREENSHOT
	shot := &ast.Screenshot{Node: n}

	if p.cur().Type == token.OF {
		p.advance()
		t, ok := p.parseTarget()
		if !ok {
			return nil, false
		}
		shot.Target = &t
	}
	if p.cur().Type == token.AS {
		p.advance()
		name, ok := p.expectString("screenshot name")
		if !ok {
			return nil, false
		}
		shot.Name = name
	}
	switch p.cur().Type {
	case token.STRICT:
		shot.Preset = "strict"
		p.advance()
	case token.BALANCED:
		shot.Preset = "balanced"
		p.advance()
	case token.RELAXED:
		shot.Preset = "relaxed"
		p.advance()
	}
	for {
		var dst *string
		switch p.cur().Type {
		case token.THRESHOLD:
			dst = &shot.Threshold
		case token.MAXDIFFPIXELS:
			dst = &shot.MaxDiffPixels
		case token.MAXDIFFRATIO:
			dst = &shot.MaxDiffRatio
		default:
			return shot, true
		}
		p.advance()
		c := p.cur()
		if c.Type != token.NUMBER {
			p.errorExpected("number")
			return nil, false
		}
		*dst = c.Value
		p.advance()
	}
}

func (p *parser) parseIf(n ast.Node) (ast.Stmt, bool) {
	p.advance() // IF
	t, ok := p.parseTarget()
	if !ok {
		return nil, false
	}
	if !p.expect(token.IS) {
		return nil, false
	}
	cond := ast.Condition{Target: t}
	if p.cur().Type == token.NOT {
		cond.Negated = true
		p.advance()
	}
	cond.State, ok = p.parseState()
	if !ok {
		return nil, false
	}
	stmt := &ast.If{Node: n, Cond: cond}
	stmt.Then = p.parseBlock()
	if p.cur().Type == token.ELSE {
		p.advance()
		stmt.Else = p.parseBlock()
	}
	return stmt, true
}

func (p *parser) parseRepeat(n ast.Node) (ast.Stmt, bool) {
	p.advance() // REPEAT
	c := p.cur()
	if c.Type != token.NUMBER {
		p.errorExpected("repetition count")
		return nil, false
	}
	p.advance()
	if !p.expect(token.TIMES) {
		return nil, false
	}
	return &ast.Repeat{Node: n, Count: c.Value, Body: p.parseBlock()}, true
}

func (p *parser) parseForEach(n ast.Node) (ast.Stmt, bool) {
	p.advance() // FOR
	if !p.expect(token.EACH) {
		return nil, false
	}
	varName, ok := p.expectIdent("loop variable")
	if !ok {
		return nil, false
	}
	if !p.expect(token.IN) || !p.expect(token.ROWS) {
		return nil, false
	}
	table, ok := p.expectString("table name")
	if !ok {
		return nil, false
	}
	return &ast.ForEach{Node: n, Var: varName, Table: table, Body: p.parseBlock()}, true
}

func (p *parser) parseTryCatch(n ast.Node) (ast.Stmt, bool) {
	p.advance() // TRY
	stmt := &ast.TryCatch{Node: n}
	stmt.Try = p.parseBlock()
	if !p.expect(token.CATCH) {
		return stmt, true // TRY without CATCH still executes
	}
	stmt.Catch = p.parseBlock()
	return stmt, true
}

func (p *parser) parseDataInto(n ast.Node, build func(table, varName string) ast.Stmt) (ast.Stmt, bool) {
	p.advance() // ROW, ROWS or COUNT
	table, ok := p.expectString("table name")
	if !ok {
		return nil, false
	}
	if !p.expect(token.INTO) {
		return nil, false
	}
	varName, ok := p.expectIdent("variable name")
	if !ok {
		return nil, false
	}
	return build(table, varName), true
}

func (p *parser) parseSet(n ast.Node) (ast.Stmt, bool) {
	p.advance() // SET
	name, ok := p.expectIdent("variable name")
	if !ok {
		return nil, false
	}
	if !p.expect(token.TO) {
		return nil, false
	}
	v, ok := p.parseValue()
	return &ast.SetVar{Node: n, Name: name, Value: v}, ok
}

func (p *parser) parsePerform(n ast.Node) (ast.Stmt, bool) {
	p.advance() // PERFORM
	block, ok := p.expectIdent("page-action block name")
	if !ok {
		return nil, false
	}
	if !p.expect(token.DOT) {
		return nil, false
	}
	action, ok := p.expectIdent("action name")
	if !ok {
		return nil, false
	}
	stmt := &ast.Perform{Node: n, Block: block, Action: action}
	if !p.expect(token.LPAREN) {
		return nil, false
	}
	if p.cur().Type != token.RPAREN {
		for {
			v, ok := p.parseValue()
			if !ok {
				return nil, false
			}
			stmt.Args = append(stmt.Args, v)
			if p.cur().Type != token.COMMA {
				break
			}
			p.advance()
		}
	}
	if !p.expect(token.RPAREN) {
		return nil, false
	}
	if p.cur().Type == token.INTO {
		p.advance()
		stmt.Into, ok = p.expectIdent("variable name")
		if !ok {
			return nil, false
		}
	}
	return stmt, true
}

// parseTarget parses either a Page.field reference or an inline
// selector.
func (p *parser) parseTarget() (ast.Target, bool) {
	c := p.cur()
	if c.Type == token.IDENT && p.peek().Type == token.DOT {
		p.advance()
		p.advance() // '.'
		field, ok := p.expectIdent("field name")
		if !ok {
			return ast.Target{}, false
		}
		return ast.Target{Page: c.Value, Field: field, Line: c.Line}, true
	}
	if isSelectorType(c.Type) {
		sel, ok := p.parseSelector(false)
		if !ok {
			return ast.Target{}, false
		}
		return ast.Target{Selector: &sel, Line: c.Line}, true
	}
	p.errorExpected("Page.field reference or selector")
	return ast.Target{}, false
}

func (p *parser) parseState() (ast.ElementState, bool) {
	switch p.cur().Type {
	case token.VISIBLE:
		p.advance()
		return ast.StateVisible, true
	case token.HIDDEN:
		p.advance()
		return ast.StateHidden, true
	case token.ENABLED:
		p.advance()
		return ast.StateEnabled, true
	case token.DISABLED:
		p.advance()
		return ast.StateDisabled, true
	case token.CHECKED:
		p.advance()
		return ast.StateChecked, true
	case token.UNCHECKED:
		p.advance()
		return ast.StateUnchecked, true
	default:
		p.errorExpected("element state")
		return "", false
	}
}

func (p *parser) parseValue() (ast.Value, bool) {
	c := p.cur()
	switch c.Type {
	case token.STRING:
		p.advance()
		return ast.Value{Kind: ast.StringValue, Text: c.Value}, true
	case token.NUMBER:
		p.advance()
		return ast.Value{Kind: ast.NumberValue, Text: c.Value}, true
	case token.IDENT:
		p.advance()
		return ast.Value{Kind: ast.VarValue, Text: c.Value}, true
	default:
		p.errorExpected("string, number or variable")
		return ast.Value{}, false
	}
}

func (p *parser) expectString(what string) (string, bool) {
	c := p.cur()
	if c.Type == token.STRING {
		p.advance()
		return c.Value, true
	}
	p.errorExpected(what)
	return "", false
}

func isSelectorType(t token.Type) bool {
	switch t {
	case token.CSS, token.ROLE, token.TEXT, token.TESTID, token.LABEL, token.PLACEHOLDER:
		return true
	}
	return false
}

// parseSelector parses <type> <value> [NAME <string>] <modifier>*.
// Nested selectors inside HAS / HAS NOT carry no modifiers, which
// bounds selector recursion to one level.
func (p *parser) parseSelector(nested bool) (ast.Selector, bool) {
	c := p.cur()
	if !isSelectorType(c.Type) {
		p.errorExpected("selector type (css, role, text, testid, label, placeholder)")
		return ast.Selector{}, false
	}
	p.advance()

	sel := ast.Selector{Line: c.Line}
	switch c.Type {
	case token.CSS:
		sel.Type = ast.SelCSS
	case token.ROLE:
		sel.Type = ast.SelRole
	case token.TEXT:
		sel.Type = ast.SelText
	case token.TESTID:
		sel.Type = ast.SelTestID
	case token.LABEL:
		sel.Type = ast.SelLabel
	case token.PLACEHOLDER:
		sel.Type = ast.SelPlaceholder
	}

	value, ok := p.expectString("selector value")
	if !ok {
		return ast.Selector{}, false
	}
	sel.Value = value

	if p.cur().Type == token.NAME {
		p.advance()
		name, ok := p.expectString("accessible name")
		if !ok {
			return ast.Selector{}, false
		}
		sel.NameParam = name
	}

	if nested {
		return sel, true
	}

	for {
		switch p.cur().Type {
		case token.FIRST:
			p.advance()
			sel.Modifiers = append(sel.Modifiers, ast.Modifier{Kind: ast.ModFirst})
		case token.LAST:
			p.advance()
			sel.Modifiers = append(sel.Modifiers, ast.Modifier{Kind: ast.ModLast})
		case token.NTH:
			p.advance()
			c := p.cur()
			if c.Type != token.NUMBER {
				p.errorExpected("index")
				return ast.Selector{}, false
			}
			idx, err := strconv.Atoi(c.Value)
			if err != nil {
				p.errorExpected("integer index")
				return ast.Selector{}, false
			}
			p.advance()
			sel.Modifiers = append(sel.Modifiers, ast.Modifier{Kind: ast.ModNth, Index: idx})
		case token.WITH:
			// WITH is a modifier only as WITH TEXT; elsewhere it
			// belongs to the enclosing statement (FILL ... WITH).
			if p.peek().Type != token.TEXT {
				return sel, true
			}
			p.advance()
			p.advance() // TEXT
			text, ok := p.expectString("filter text")
			if !ok {
				return ast.Selector{}, false
			}
			sel.Modifiers = append(sel.Modifiers, ast.Modifier{Kind: ast.ModWithText, Text: text})
		case token.WITHOUT:
			p.advance()
			if !p.expect(token.TEXT) {
				return ast.Selector{}, false
			}
			text, ok := p.expectString("filter text")
			if !ok {
				return ast.Selector{}, false
			}
			sel.Modifiers = append(sel.Modifiers, ast.Modifier{Kind: ast.ModWithoutText, Text: text})
		case token.HAS:
			// The nested selector is parenthesized, which keeps
			// HAS (text "x") distinct from VERIFY ... HAS TEXT "x".
			next := p.peek()
			if next.Type != token.LPAREN && !(next.Type == token.NOT && p.peekAt(2).Type == token.LPAREN) {
				return sel, true
			}
			p.advance()
			kind := ast.ModHas
			if p.cur().Type == token.NOT {
				p.advance()
				kind = ast.ModHasNot
			}
			p.advance() // '('
			sub, ok := p.parseSelector(true)
			if !ok {
				return ast.Selector{}, false
			}
			if !p.expect(token.RPAREN) {
				return ast.Selector{}, false
			}
			sel.Modifiers = append(sel.Modifiers, ast.Modifier{Kind: kind, Selector: &sub})
		default:
			return sel, true
		}
	}
}

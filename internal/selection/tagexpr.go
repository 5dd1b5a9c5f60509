package selection

import (
	"fmt"
	"strings"
)

// tagExpr is the boolean AST of a tag expression. Atoms match against
// a scenario's normalized tag set; AND binds tighter than OR and NOT
// binds tightest.
type tagExpr interface {
	eval(tags map[string]bool) bool
}

type tagAtom struct{ name string }
type tagNot struct{ expr tagExpr }
type tagAnd struct{ left, right tagExpr }
type tagOr struct{ left, right tagExpr }

func (a tagAtom) eval(tags map[string]bool) bool { return tags[a.name] }
func (n tagNot) eval(tags map[string]bool) bool  { return !n.expr.eval(tags) }
func (a tagAnd) eval(tags map[string]bool) bool {
	return a.left.eval(tags) && a.right.eval(tags)
}
func (o tagOr) eval(tags map[string]bool) bool {
	return o.left.eval(tags) || o.right.eval(tags)
}

type tagToken struct {
	kind  tagTokenKind
	value string
	index int // byte index into the expression
}

type tagTokenKind int

const (
	tagTokAtom tagTokenKind = iota
	tagTokAnd
	tagTokOr
	tagTokNot
	tagTokLParen
	tagTokRParen
	tagTokEnd
)

func tokenizeTagExpr(expr string) ([]tagToken, error) {
	var toks []tagToken
	i := 0
	for i < len(expr) {
		ch := expr[i]
		switch {
		case ch == ' ' || ch == '\t':
			i++
		case ch == '(':
			toks = append(toks, tagToken{kind: tagTokLParen, index: i})
			i++
		case ch == ')':
			toks = append(toks, tagToken{kind: tagTokRParen, index: i})
			i++
		case ch == '@' || isTagWordChar(ch):
			start := i
			if ch == '@' {
				i++
			}
			for i < len(expr) && isTagWordChar(expr[i]) {
				i++
			}
			word := expr[start:i]
			if word == "@" {
				return nil, &Error{
					Message: fmt.Sprintf("tag expression %q: dangling @ at index %d", expr, start),
				}
			}
			switch strings.ToLower(word) {
			case "and":
				toks = append(toks, tagToken{kind: tagTokAnd, index: start})
			case "or":
				toks = append(toks, tagToken{kind: tagTokOr, index: start})
			case "not":
				toks = append(toks, tagToken{kind: tagTokNot, index: start})
			default:
				toks = append(toks, tagToken{kind: tagTokAtom, value: normalizeTag(word), index: start})
			}
		default:
			return nil, &Error{
				Message: fmt.Sprintf("tag expression %q: unexpected character %q at index %d", expr, ch, i),
			}
		}
	}
	toks = append(toks, tagToken{kind: tagTokEnd, index: len(expr)})
	return toks, nil
}

func isTagWordChar(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' ||
		ch >= '0' && ch <= '9' || ch == '_' || ch == '-' || ch == ':'
}

// normalizeTag lowercases a tag and strips its leading @. Applied both
// to expression atoms and to scenario tags, so casing and the @ prefix
// never affect matching.
func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimPrefix(tag, "@"))
}

type tagExprParser struct {
	raw  string
	toks []tagToken
	pos  int
}

// parseTagExpr compiles a tag expression, reporting malformed input
// with the byte index of the offending token.
func parseTagExpr(raw string) (tagExpr, error) {
	toks, err := tokenizeTagExpr(raw)
	if err != nil {
		return nil, err
	}
	p := &tagExprParser{raw: raw, toks: toks}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tagTokEnd {
		return nil, p.errorf("unexpected token")
	}
	return expr, nil
}

func (p *tagExprParser) cur() tagToken { return p.toks[p.pos] }

func (p *tagExprParser) advance() {
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
}

func (p *tagExprParser) errorf(msg string) error {
	return &Error{
		Message: fmt.Sprintf("tag expression %q: %s at index %d", p.raw, msg, p.cur().index),
	}
}

func (p *tagExprParser) parseOr() (tagExpr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tagTokOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = tagOr{left: left, right: right}
	}
	return left, nil
}

func (p *tagExprParser) parseAnd() (tagExpr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tagTokAnd {
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = tagAnd{left: left, right: right}
	}
	return left, nil
}

func (p *tagExprParser) parseUnary() (tagExpr, error) {
	switch p.cur().kind {
	case tagTokNot:
		p.advance()
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return tagNot{expr: expr}, nil
	case tagTokLParen:
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.cur().kind != tagTokRParen {
			return nil, p.errorf("expected closing parenthesis")
		}
		p.advance()
		return expr, nil
	case tagTokAtom:
		atom := tagAtom{name: p.cur().value}
		p.advance()
		return atom, nil
	case tagTokEnd:
		return nil, p.errorf("unexpected end of expression")
	default:
		return nil, p.errorf("unexpected token")
	}
}

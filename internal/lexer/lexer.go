// Package lexer turns Vero source text into a token stream. Lexing
// never aborts: bad input is recorded as an Error and scanning
// continues with the next character.
package lexer

import (
	"fmt"
	"unicode/utf8"

	"github.com/verolang/vero/internal/token"
)

// Error is a lexical diagnostic anchored to a source position.
type Error struct {
	Message string
	Line    int
	Column  int
}

func (e Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// Result holds the tokens and errors from one lex pass.
type Result struct {
	Tokens []token.Token
	Errors []Error
}

type lexer struct {
	source []byte
	cursor int
	line   int
	col    int

	tokens []token.Token
	errors []Error
}

// Lex scans the entire source and returns every token, terminated by
// an EOF token, together with any lexical errors.
func Lex(source string) Result {
	l := &lexer{source: []byte(source), line: 1, col: 1}
	l.run()
	return Result{Tokens: l.tokens, Errors: l.errors}
}

func (l *lexer) run() {
	for {
		l.skipWhitespace()
		if l.cursor >= len(l.source) {
			l.emit(token.Token{Type: token.EOF, Line: l.line, Column: l.col})
			return
		}

		ch := l.source[l.cursor]
		switch {
		case ch == '#':
			l.scanComment()
		case ch == '"' || ch == '\'':
			l.scanString(ch)
		case isDigit(ch) || (ch == '-' && isDigit(l.peek())):
			l.scanNumber()
		case ch == '@' && isAlpha(l.peek()):
			l.scanTag()
		case isAlpha(ch) || ch == '_':
			l.scanWord()
		default:
			l.scanPunct(ch)
		}
	}
}

func (l *lexer) skipWhitespace() {
	for l.cursor < len(l.source) {
		switch l.source[l.cursor] {
		case ' ', '\t', '\r':
			l.cursor++
			l.col++
		case '\n':
			l.cursor++
			l.line++
			l.col = 1
		default:
			return
		}
	}
}

func (l *lexer) scanComment() {
	line, col := l.line, l.col
	start := l.cursor
	for l.cursor < len(l.source) && l.source[l.cursor] != '\n' {
		l.advance()
	}
	l.emit(token.Token{
		Type:   token.COMMENT,
		Value:  string(l.source[start:l.cursor]),
		Line:   line,
		Column: col,
	})
}

func (l *lexer) scanString(quote byte) {
	line, col := l.line, l.col
	l.advance() // opening quote
	var out []byte
	for l.cursor < len(l.source) {
		ch := l.source[l.cursor]
		if ch == '\n' {
			// Leave the newline for skipWhitespace so line accounting
			// stays in one place.
			l.errorf(line, col, "unterminated string")
			return
		}
		if ch == quote {
			l.advance()
			l.emit(token.Token{Type: token.STRING, Value: string(out), Line: line, Column: col})
			return
		}
		if ch == '\\' && l.cursor+1 < len(l.source) {
			l.advance()
			esc := l.source[l.cursor]
			switch esc {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case '\\', '"', '\'':
				out = append(out, esc)
			default:
				// Unknown escape passes through verbatim.
				out = append(out, '\\', esc)
			}
			l.advance()
			continue
		}
		out = append(out, ch)
		l.advance()
	}
	l.errorf(line, col, "unterminated string")
}

func (l *lexer) scanNumber() {
	line, col := l.line, l.col
	start := l.cursor
	if l.source[l.cursor] == '-' {
		l.advance()
	}
	for l.cursor < len(l.source) && isDigit(l.source[l.cursor]) {
		l.advance()
	}
	if l.cursor < len(l.source) && l.source[l.cursor] == '.' && isDigit(l.peek()) {
		l.advance()
		for l.cursor < len(l.source) && isDigit(l.source[l.cursor]) {
			l.advance()
		}
	}
	l.emit(token.Token{
		Type:   token.NUMBER,
		Value:  string(l.source[start:l.cursor]),
		Line:   line,
		Column: col,
	})
}

func (l *lexer) scanTag() {
	line, col := l.line, l.col
	start := l.cursor
	l.advance() // '@'
	for l.cursor < len(l.source) && isWordChar(l.source[l.cursor]) {
		l.advance()
	}
	l.emit(token.Token{
		Type:   token.TAG,
		Value:  string(l.source[start:l.cursor]),
		Line:   line,
		Column: col,
	})
}

func (l *lexer) scanWord() {
	line, col := l.line, l.col
	start := l.cursor
	for l.cursor < len(l.source) && isWordChar(l.source[l.cursor]) {
		l.advance()
	}
	word := string(l.source[start:l.cursor])
	l.emit(token.Token{
		Type:   token.Lookup(word),
		Value:  word,
		Line:   line,
		Column: col,
	})
}

var punct = map[byte]token.Type{
	'{': token.LBRACE,
	'}': token.RBRACE,
	'(': token.LPAREN,
	')': token.RPAREN,
	',': token.COMMA,
	'.': token.DOT,
	'=': token.EQUALS,
}

func (l *lexer) scanPunct(ch byte) {
	line, col := l.line, l.col
	t, ok := punct[ch]
	if !ok {
		r, size := utf8.DecodeRune(l.source[l.cursor:])
		l.cursor += size
		l.col++
		l.errorf(line, col, "unexpected character %q", r)
		return
	}
	l.advance()
	l.emit(token.Token{Type: t, Value: string(ch), Line: line, Column: col})
}

// advance consumes one byte. Columns count runes, so UTF-8
// continuation bytes do not move the column.
func (l *lexer) advance() {
	if l.source[l.cursor]&0xC0 != 0x80 {
		l.col++
	}
	l.cursor++
}

func (l *lexer) peek() byte {
	if l.cursor+1 >= len(l.source) {
		return 0
	}
	return l.source[l.cursor+1]
}

func (l *lexer) emit(t token.Token) {
	l.tokens = append(l.tokens, t)
}

func (l *lexer) errorf(line, col int, format string, args ...any) {
	l.errors = append(l.errors, Error{
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Column:  col,
	})
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isWordChar(ch byte) bool {
	return isAlpha(ch) || isDigit(ch) || ch == '_'
}

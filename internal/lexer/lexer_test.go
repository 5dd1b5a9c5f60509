package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verolang/vero/internal/token"
)

func types(res Result) []token.Type {
	out := make([]token.Type, len(res.Tokens))
	for i, t := range res.Tokens {
		out[i] = t.Type
	}
	return out
}

func TestLex_Keywords_CaseInsensitive(t *testing.T) {
	res := Lex("page Page PAGE pAgE")
	require.Empty(t, res.Errors)
	require.Len(t, res.Tokens, 5) // 4 + EOF
	for i := 0; i < 4; i++ {
		assert.Equal(t, token.PAGE, res.Tokens[i].Type)
	}
}

func TestLex_IdentifierKeepsCasing(t *testing.T) {
	res := Lex("LoginPage emailInput")
	require.Empty(t, res.Errors)
	assert.Equal(t, token.IDENT, res.Tokens[0].Type)
	assert.Equal(t, "LoginPage", res.Tokens[0].Value)
	assert.Equal(t, "emailInput", res.Tokens[1].Value)
}

func TestLex_StringEscapes(t *testing.T) {
	res := Lex(`"a\nb\t\\\"" 'it\'s'`)
	require.Empty(t, res.Errors)
	require.Len(t, res.Tokens, 3)
	assert.Equal(t, "a\nb\t\\\"", res.Tokens[0].Value)
	assert.Equal(t, "it's", res.Tokens[1].Value)
}

func TestLex_UnterminatedString(t *testing.T) {
	res := Lex("\"oops\nCLICK x")
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "unterminated string", res.Errors[0].Message)
	assert.Equal(t, 1, res.Errors[0].Line)
	// Lexing continues on the next line.
	assert.Equal(t, []token.Type{token.CLICK, token.IDENT, token.EOF}, types(res))
	assert.Equal(t, 2, res.Tokens[0].Line)
}

func TestLex_Numbers(t *testing.T) {
	res := Lex("3 -7 0.25 -1.5")
	require.Empty(t, res.Errors)
	require.Len(t, res.Tokens, 5)
	assert.Equal(t, "3", res.Tokens[0].Value)
	assert.Equal(t, "-7", res.Tokens[1].Value)
	assert.Equal(t, "0.25", res.Tokens[2].Value)
	assert.Equal(t, "-1.5", res.Tokens[3].Value)
	for i := 0; i < 4; i++ {
		assert.Equal(t, token.NUMBER, res.Tokens[i].Type)
	}
}

func TestLex_CommentRetained(t *testing.T) {
	res := Lex("# note to self\nCLICK btn")
	require.Empty(t, res.Errors)
	assert.Equal(t, token.COMMENT, res.Tokens[0].Type)
	assert.Equal(t, "# note to self", res.Tokens[0].Value)
	assert.Equal(t, token.CLICK, res.Tokens[1].Type)
}

func TestLex_Tags(t *testing.T) {
	res := Lex("@smoke @Auth_2")
	require.Empty(t, res.Errors)
	assert.Equal(t, token.TAG, res.Tokens[0].Type)
	assert.Equal(t, "@smoke", res.Tokens[0].Value)
	assert.Equal(t, "@Auth_2", res.Tokens[1].Value)
}

func TestLex_UnknownCharactersCollected(t *testing.T) {
	res := Lex("CLICK $ ^ btn")
	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[0].Message, "unexpected character")
	// Both bad characters are reported and lexing never aborts.
	assert.Equal(t, []token.Type{token.CLICK, token.IDENT, token.EOF}, types(res))
}

func TestLex_Positions(t *testing.T) {
	res := Lex("PAGE Login {\n  FIELD a = css \".x\"\n}")
	require.Empty(t, res.Errors)
	assert.Equal(t, 1, res.Tokens[0].Line)
	assert.Equal(t, 1, res.Tokens[0].Column)
	field := res.Tokens[3]
	assert.Equal(t, token.FIELD, field.Type)
	assert.Equal(t, 2, field.Line)
	assert.Equal(t, 3, field.Column)
}

func TestLex_Columns_CountRunes(t *testing.T) {
	res := Lex(`OPEN "héllo" x`)
	require.Empty(t, res.Errors)
	ident := res.Tokens[2]
	assert.Equal(t, token.IDENT, ident.Type)
	assert.Equal(t, 14, ident.Column)

	res = Lex(`"café" £`)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "unexpected character '£'", res.Errors[0].Message)
	assert.Equal(t, 8, res.Errors[0].Column)
}

func TestLex_Punctuation(t *testing.T) {
	res := Lex("{ } ( ) , . =")
	require.Empty(t, res.Errors)
	want := []token.Type{
		token.LBRACE, token.RBRACE, token.LPAREN, token.RPAREN,
		token.COMMA, token.DOT, token.EQUALS, token.EOF,
	}
	assert.Equal(t, want, types(res))
}

package token

import "strings"

// Type identifies the lexical class of a token.
type Type int

const (
	EOF Type = iota
	IDENT
	STRING
	NUMBER
	COMMENT
	TAG // @smoke

	// Punctuation
	LBRACE
	RBRACE
	LPAREN
	RPAREN
	COMMA
	DOT
	EQUALS

	// Block keywords
	PAGE
	PAGEACTIONS
	FEATURE
	SCENARIO
	FIELD
	ACTION
	BEFORE
	AFTER
	EACH
	ALL

	// Selector types
	CSS
	ROLE
	TEXT
	TESTID
	LABEL
	PLACEHOLDER

	// Selector modifiers
	NAME
	FIRST
	LAST
	NTH

	// Actions
	CLICK
	DOUBLECLICK
	RIGHTCLICK
	HOVER
	FOCUS
	CLEAR
	CHECK
	UNCHECK
	FILL
	TYPE
	PRESS
	SELECT
	UPLOAD
	DRAG
	SCROLL

	// Navigation
	OPEN
	GO
	BACK
	FORWARD
	RELOAD
	WAIT
	SECONDS
	BE

	// Assertions
	VERIFY
	IS
	NOT
	HAS
	CONTAINS
	VALUE
	COUNT
	ATTRIBUTE
	URL
	TITLE
	VISIBLE
	HIDDEN
	ENABLED
	DISABLED
	CHECKED
	UNCHECKED

	// Visual assertions
	SCREENSHOT
	OF
	AS
	STRICT
	BALANCED
	RELAXED
	THRESHOLD
	MAXDIFFPIXELS
	MAXDIFFRATIO

	// Control flow
	IF
	ELSE
	REPEAT
	TIMES
	TRY
	CATCH

	// Data
	LOAD
	ROW
	ROWS

	// Variables and calls
	SET
	LOG
	PERFORM

	// Connectives
	FOR
	WITH
	WITHOUT
	INTO
	FROM
	TO
	IN
	UP
	DOWN
)

var names = map[Type]string{
	EOF:     "EOF",
	IDENT:   "IDENT",
	STRING:  "STRING",
	NUMBER:  "NUMBER",
	COMMENT: "COMMENT",
	TAG:     "TAG",
	LBRACE:  "{",
	RBRACE:  "}",
	LPAREN:  "(",
	RPAREN:  ")",
	COMMA:   ",",
	DOT:     ".",
	EQUALS:  "=",

	PAGE: "PAGE", PAGEACTIONS: "PAGEACTIONS", FEATURE: "FEATURE",
	SCENARIO: "SCENARIO", FIELD: "FIELD", ACTION: "ACTION",
	BEFORE: "BEFORE", AFTER: "AFTER", EACH: "EACH", ALL: "ALL",

	CSS: "CSS", ROLE: "ROLE", TEXT: "TEXT", TESTID: "TESTID",
	LABEL: "LABEL", PLACEHOLDER: "PLACEHOLDER",

	NAME: "NAME", FIRST: "FIRST", LAST: "LAST", NTH: "NTH",

	CLICK: "CLICK", DOUBLECLICK: "DOUBLECLICK", RIGHTCLICK: "RIGHTCLICK",
	HOVER: "HOVER", FOCUS: "FOCUS", CLEAR: "CLEAR", CHECK: "CHECK",
	UNCHECK: "UNCHECK", FILL: "FILL", TYPE: "TYPE", PRESS: "PRESS",
	SELECT: "SELECT", UPLOAD: "UPLOAD", DRAG: "DRAG", SCROLL: "SCROLL",

	OPEN: "OPEN", GO: "GO", BACK: "BACK", FORWARD: "FORWARD",
	RELOAD: "RELOAD", WAIT: "WAIT", SECONDS: "SECONDS", BE: "BE",

	VERIFY: "VERIFY", IS: "IS", NOT: "NOT", HAS: "HAS",
	CONTAINS: "CONTAINS", VALUE: "VALUE", COUNT: "COUNT",
	ATTRIBUTE: "ATTRIBUTE", URL: "URL", TITLE: "TITLE",
	VISIBLE: "VISIBLE", HIDDEN: "HIDDEN", ENABLED: "ENABLED",
	DISABLED: "DISABLED", CHECKED: "CHECKED", UNCHECKED: "UNCHECKED",

	SCREENSHOT: "SCREENSHOT", OF: "OF", AS: "AS", STRICT: "STRICT",
	BALANCED: "BALANCED", RELAXED: "RELAXED", THRESHOLD: "THRESHOLD",
	MAXDIFFPIXELS: "MAXDIFFPIXELS", MAXDIFFRATIO: "MAXDIFFRATIO",

	IF: "IF", ELSE: "ELSE", REPEAT: "REPEAT", TIMES: "TIMES",
	TRY: "TRY", CATCH: "CATCH",

	LOAD: "LOAD", ROW: "ROW", ROWS: "ROWS",

	SET: "SET", LOG: "LOG", PERFORM: "PERFORM",

	FOR: "FOR", WITH: "WITH", WITHOUT: "WITHOUT", INTO: "INTO",
	FROM: "FROM", TO: "TO", IN: "IN", UP: "UP", DOWN: "DOWN",
}

func (t Type) String() string {
	if s, ok := names[t]; ok {
		return s
	}
	return "UNKNOWN"
}

// keywords maps lowercased source words to their token type. Words not
// present lex as IDENT with original casing preserved.
var keywords = map[string]Type{}

func init() {
	for t := PAGE; t <= DOWN; t++ {
		keywords[strings.ToLower(names[t])] = t
	}
}

// Lookup returns the keyword type for word, matched case-insensitively,
// or IDENT when word is not a keyword.
func Lookup(word string) Type {
	if t, ok := keywords[strings.ToLower(word)]; ok {
		return t
	}
	return IDENT
}

// Token is a single lexical unit with its 1-based source position.
type Token struct {
	Type   Type
	Value  string
	Line   int
	Column int
}

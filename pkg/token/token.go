// Package token defines the lexical tokens produced by the lexer.
//
// Tokens are plain values: a Kind tag plus the payload field matching that
// kind. Every token carries its 0-based line and its start and end columns
// (end is exclusive) relative to the scanned buffer.
package token

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind represents the type of a lexical token.
type Kind int

//nolint:revive // ALL_CAPS kind names follow the SQL token conventions of the keyword table
const (
	EOF Kind = iota

	// Literals and names
	KEYWORD
	IDENT
	NUMBER
	STRING
	BLOB
	BOOLEAN

	// Punctuation
	STAR      // *
	SEMICOLON // ;
	COMMA     // ,
	PERCENT   // %
	EQ        // =
	AT        // @
	COLON     // :
	DOLLAR    // $
	QUESTION  // ?
	LPAREN    // (
	RPAREN    // )
	LBRACKET  // [
	RBRACKET  // ]
	DOT       // .

	// INSTRUCTION is an inline directive such as -- @sqleibniz::expect
	INSTRUCTION
)

var kindNames = map[Kind]string{
	EOF:         "EOF",
	KEYWORD:     "Keyword",
	IDENT:       "Ident",
	NUMBER:      "Number",
	STRING:      "String",
	BLOB:        "Blob",
	BOOLEAN:     "Boolean",
	STAR:        "Asterisk",
	SEMICOLON:   "Semicolon",
	COMMA:       "Comma",
	PERCENT:     "Percent",
	EQ:          "Equal",
	AT:          "At",
	COLON:       "Colon",
	DOLLAR:      "Dollar",
	QUESTION:    "Question",
	LPAREN:      "ParenLeft",
	RPAREN:      "ParenRight",
	LBRACKET:    "BracketLeft",
	RBRACKET:    "BracketRight",
	DOT:         "Dot",
	INSTRUCTION: "Instruction",
}

// String returns the display name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// punctuation maps single-byte punctuation to its kind.
var punctuation = map[byte]Kind{
	'*': STAR,
	';': SEMICOLON,
	',': COMMA,
	'%': PERCENT,
	'=': EQ,
	'@': AT,
	':': COLON,
	'$': DOLLAR,
	'?': QUESTION,
	'(': LPAREN,
	')': RPAREN,
	'[': LBRACKET,
	']': RBRACKET,
}

// LookupPunctuation returns the kind for a single punctuation byte.
func LookupPunctuation(c byte) (Kind, bool) {
	k, ok := punctuation[c]
	return k, ok
}

// Instruction names understood after the "sqleibniz::" directive prefix.
const (
	InstructionPrefix = "sqleibniz::"
	InstructionExpect = "expect"
)

// Instructions lists every known directive name.
var Instructions = []string{InstructionExpect}

// Token represents a lexical token with position information.
type Token struct {
	Kind Kind

	Keyword Keyword // KEYWORD
	Text    string  // IDENT, STRING and INSTRUCTION
	Number  float64 // NUMBER
	Blob    []byte  // BLOB
	Bool    bool    // BOOLEAN

	Line  int // 0-based line
	Start int // 0-based column of the first byte
	End   int // 0-based column after the last byte
}

// Is reports whether the token has the given kind.
func (t Token) Is(k Kind) bool {
	return t.Kind == k
}

// IsKeyword reports whether the token is one of the given keywords.
func (t Token) IsKeyword(kws ...Keyword) bool {
	if t.Kind != KEYWORD {
		return false
	}
	for _, kw := range kws {
		if t.Keyword == kw {
			return true
		}
	}
	return false
}

// IsLiteral reports whether the token is a literal value: a number, string,
// blob, boolean, NULL or one of the CURRENT_* keywords.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case NUMBER, STRING, BLOB, BOOLEAN:
		return true
	case KEYWORD:
		return t.IsKeyword(NULL, CURRENT_DATE, CURRENT_TIME, CURRENT_TIMESTAMP)
	}
	return false
}

// Lexeme returns the token's payload as text.
func (t Token) Lexeme() string {
	switch t.Kind {
	case KEYWORD:
		return t.Keyword.String()
	case IDENT, STRING, INSTRUCTION:
		return t.Text
	case NUMBER:
		return strconv.FormatFloat(t.Number, 'g', -1, 64)
	case BLOB:
		return string(t.Blob)
	case BOOLEAN:
		return strconv.FormatBool(t.Bool)
	case EOF:
		return ""
	}
	for c, k := range punctuation {
		if k == t.Kind {
			return string(c)
		}
	}
	if t.Kind == DOT {
		return "."
	}
	return ""
}

// String renders the token for diagnostics, e.g. Keyword(VACUUM) or Semicolon.
func (t Token) String() string {
	switch t.Kind {
	case KEYWORD, IDENT, NUMBER, BOOLEAN, INSTRUCTION:
		return fmt.Sprintf("%s(%s)", t.Kind, t.Lexeme())
	case STRING:
		return fmt.Sprintf("%s('%s')", t.Kind, strings.ReplaceAll(t.Text, "'", "''"))
	case BLOB:
		return fmt.Sprintf("%s(x'%s')", t.Kind, t.Blob)
	}
	return t.Kind.String()
}

// Package lexer turns SQLite source into tokens.
//
// The scanner never fails: every malformed construct becomes a diagnostic and
// scanning resumes after the offending span, so a single pass reports every
// lexical defect in a file.
package lexer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/sqleibniz/pkg/diag"
	"github.com/leapstack-labs/sqleibniz/pkg/token"
)

// Lexer scans one source buffer.
type Lexer struct {
	file    string
	input   []byte
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination

	line      int // 0-based line of pos
	lineStart int // offset of the first byte of line

	// expecting is set by an expect directive and cleared by the next
	// semicolon; diagnostics found in between are dropped.
	expecting bool

	tokens []token.Token
	diags  []diag.Diagnostic
}

// New creates a Lexer for src. file names the buffer in diagnostics.
func New(src []byte, file string) *Lexer {
	l := &Lexer{file: file, input: src}
	l.readChar()
	return l
}

// Lex scans src and returns its tokens and lexical diagnostics.
func Lex(src []byte, file string) ([]token.Token, []diag.Diagnostic) {
	return New(src, file).Run()
}

// Run scans the whole buffer.
func (l *Lexer) Run() ([]token.Token, []diag.Diagnostic) {
	if len(l.input) == 0 {
		l.diags = append(l.diags, diag.Diagnostic{
			File:    l.file,
			Rule:    diag.NoContent,
			Message: "No content found in source file",
			Note:    fmt.Sprintf("consider adding statements to '%s'", l.file),
		})
		return nil, l.diags
	}

	for {
		l.skipWhitespaceAndComments()
		if l.atEnd() {
			break
		}
		l.next()
	}

	if len(l.tokens) == 0 && len(l.diags) == 0 {
		l.diags = append(l.diags, diag.Diagnostic{
			File:    l.file,
			Rule:    diag.NoStatements,
			Message: "No statements found in source file",
			Note:    fmt.Sprintf("consider adding statements to '%s'", l.file),
		})
	}
	return l.tokens, l.diags
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos > len(l.input) {
		return
	}
	if l.readPos > 0 && l.ch == '\n' && l.pos < len(l.input) {
		l.line++
		l.lineStart = l.readPos
	}
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	return l.peekAt(1)
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.input)
}

// col returns the 0-based column of the current character.
func (l *Lexer) col() int {
	return l.pos - l.lineStart
}

func (l *Lexer) emit(t token.Token) {
	l.tokens = append(l.tokens, t)
	if t.Kind == token.SEMICOLON {
		l.expecting = false
	}
}

func (l *Lexer) report(d diag.Diagnostic) {
	if l.expecting {
		return
	}
	d.File = l.file
	l.diags = append(l.diags, d)
}

// skipWhitespaceAndComments skips whitespace, block comments and line
// comments. A line comment starting with "--@" is a directive and is left
// for next.
func (l *Lexer) skipWhitespaceAndComments() {
	for !l.atEnd() {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '*':
			l.skipBlockComment()
		case l.ch == '-' && l.peekChar() == '-':
			if l.isDirective() {
				return
			}
			l.skipLine()
		default:
			return
		}
	}
}

// isDirective reports whether the line comment under the cursor is of the
// form "--@word" or "-- @word".
func (l *Lexer) isDirective() bool {
	i := 2
	for c := l.peekAt(i); c == ' ' || c == '\t'; c = l.peekAt(i) {
		i++
	}
	return l.peekAt(i) == '@'
}

// skipBlockComment consumes a block comment up to and including "*/". An
// unterminated block comment silently runs to the end of the buffer.
func (l *Lexer) skipBlockComment() {
	l.readChar() // skip '/'
	l.readChar() // skip '*'
	for !l.atEnd() {
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar()
			l.readChar()
			return
		}
		l.readChar()
	}
}

// skipLine consumes everything up to, not including, the next newline.
func (l *Lexer) skipLine() {
	for !l.atEnd() && l.ch != '\n' {
		l.readChar()
	}
}

// next scans one token starting at the current, non blank character.
func (l *Lexer) next() {
	switch {
	case l.ch == '-' && l.peekChar() == '-':
		l.readDirective()
	case l.ch == '\'':
		l.readString()
	case (l.ch == 'x' || l.ch == 'X') && l.peekChar() == '\'':
		l.readBlob()
	case l.ch == 'x' || l.ch == 'X':
		if isIdentChar(l.peekChar()) {
			l.readIdentifier()
			return
		}
		start := l.col()
		l.report(diag.Diagnostic{
			Line:    l.line,
			Rule:    diag.InvalidBlob,
			Message: "Malformed blob literal",
			Note:    "Blob literals are a 'x' or 'X' followed by a string of hexadecimal data, e.g. x'1234'",
			Start:   start,
			End:     start + 1,
			DocURL:  "https://www.sqlite.org/lang_expr.html#literal_values_constants_",
		})
		l.readChar()
	case l.ch == '.' && !l.dotStartsNumber():
		l.emit(token.Token{Kind: token.DOT, Line: l.line, Start: l.col(), End: l.col() + 1})
		l.readChar()
	case isDigit(l.ch) || l.ch == '.':
		l.readNumber()
	case isIdentStart(l.ch):
		l.readIdentifier()
	default:
		if kind, ok := token.LookupPunctuation(l.ch); ok {
			l.emit(token.Token{Kind: kind, Line: l.line, Start: l.col(), End: l.col() + 1})
			l.readChar()
			return
		}
		l.readUnknown()
	}
}

// dotStartsNumber reports whether the '.' under the cursor begins a numeric
// literal such as .5 or .e5 rather than a member access.
func (l *Lexer) dotStartsNumber() bool {
	next := l.peekChar()
	if isDigit(next) {
		return true
	}
	if next == 'e' || next == 'E' {
		after := l.peekAt(2)
		return isDigit(after) || after == '+' || after == '-'
	}
	return false
}

// readDirective scans "-- @word". A known sqleibniz instruction becomes an
// INSTRUCTION token, anything else is reported. The rest of the line is
// skipped either way.
func (l *Lexer) readDirective() {
	line := l.line
	l.readChar() // skip '-'
	l.readChar() // skip '-'
	for l.ch == ' ' || l.ch == '\t' {
		l.readChar()
	}
	l.readChar() // skip '@'

	start := l.col()
	begin := l.pos
	for !l.atEnd() && !isSpace(l.ch) {
		l.readChar()
	}
	word := string(l.input[begin:l.pos])
	end := l.col()

	name, ok := strings.CutPrefix(word, token.InstructionPrefix)
	if ok && name == token.InstructionExpect {
		l.emit(token.Token{Kind: token.INSTRUCTION, Text: name, Line: line, Start: start, End: end})
		l.expecting = true
	} else {
		l.report(diag.Diagnostic{
			Line:    line,
			Rule:    diag.BadSqleibnizInstruction,
			Message: fmt.Sprintf("Unknown sqleibniz instruction '%s'", word),
			Note:    fmt.Sprintf("known instructions are: %s", knownInstructions()),
			Start:   start,
			End:     max(end, start+1),
		})
	}
	l.skipLine()
}

func knownInstructions() string {
	names := make([]string, len(token.Instructions))
	for i, n := range token.Instructions {
		names[i] = "'" + token.InstructionPrefix + n + "'"
	}
	return strings.Join(names, ", ")
}

// scanString reads a single quoted string starting at the opening quote.
// Doubled quotes are unescaped. On a newline or the end of input it reports
// an unterminated string and returns ok == false; the cursor is then left on
// the newline.
func (l *Lexer) scanString() (text string, start, end int, ok bool) {
	start = l.col()
	line := l.line
	l.readChar() // skip opening quote

	var b strings.Builder
	for {
		switch {
		case l.atEnd() || l.ch == '\n':
			col := l.col()
			l.report(diag.Diagnostic{
				Line:    line,
				Rule:    diag.UnterminatedString,
				Message: fmt.Sprintf("Unterminated String in '%s'", l.file),
				Note:    "Consider adding a \"'\" at the end of this string",
				Start:   start,
				End:     col,
				Fix:     &diag.Fix{Snippet: "'", Start: col},
			})
			return "", start, col, false
		case l.ch == '\'' && l.peekChar() == '\'':
			b.WriteByte('\'')
			l.readChar()
			l.readChar()
		case l.ch == '\'':
			l.readChar() // skip closing quote
			return b.String(), start, l.col(), true
		default:
			b.WriteByte(l.ch)
			l.readChar()
		}
	}
}

func (l *Lexer) readString() {
	line := l.line
	text, start, end, ok := l.scanString()
	if !ok {
		return
	}
	l.emit(token.Token{Kind: token.STRING, Text: text, Line: line, Start: start, End: end})
}

// readBlob reads x'...'. Every payload character must be a hex digit; the
// first one that is not is reported and no token is produced.
func (l *Lexer) readBlob() {
	line := l.line
	start := l.col()
	l.readChar() // skip 'x'

	text, _, end, ok := l.scanString()
	if !ok {
		return
	}
	for i := 0; i < len(text); i++ {
		if isHex(text[i]) {
			continue
		}
		at := start + 2 + i
		l.report(diag.Diagnostic{
			Line:    line,
			Rule:    diag.InvalidBlob,
			Message: "Invalid blob literal",
			Note:    fmt.Sprintf("%q is not a hexadecimal digit, blob data must consist of a-f, A-F and 0-9", text[i]),
			Start:   at,
			End:     at + 1,
			DocURL:  "https://www.sqlite.org/lang_expr.html#literal_values_constants_",
		})
		return
	}
	l.emit(token.Token{Kind: token.BLOB, Blob: []byte(text), Line: line, Start: start, End: end})
}

// readNumber reads a numeric literal. The scanned class is deliberately wide
// and validity is decided by strconv afterwards.
func (l *Lexer) readNumber() {
	start := l.col()
	begin := l.pos
	hex := false
	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		hex = true
		l.readChar()
		l.readChar()
	}
	digits := l.pos
	for !l.atEnd() && isNumberChar(l.ch) {
		l.readChar()
	}
	raw := string(l.input[begin:l.pos])
	text := strings.ReplaceAll(string(l.input[digits:l.pos]), "_", "")

	var (
		value float64
		err   error
	)
	if hex {
		var n int64
		n, err = strconv.ParseInt(text, 16, 64)
		value = float64(n)
	} else {
		value, err = strconv.ParseFloat(text, 64)
	}
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			err = numErr.Err
		}
		l.report(diag.Diagnostic{
			Line:    l.line,
			Rule:    diag.InvalidNumericLiteral,
			Message: "Invalid numeric literal",
			Note:    fmt.Sprintf("Failed to parse %q as a number: %s", raw, err),
			Start:   start,
			End:     l.col(),
			DocURL:  "https://www.sqlite.org/syntax/numeric-literal.html",
		})
		return
	}
	l.emit(token.Token{Kind: token.NUMBER, Number: value, Line: l.line, Start: start, End: l.col()})
}

// readIdentifier reads a keyword, boolean or identifier.
func (l *Lexer) readIdentifier() {
	start := l.col()
	begin := l.pos
	for !l.atEnd() && isIdentChar(l.ch) {
		l.readChar()
	}
	text := string(l.input[begin:l.pos])
	t := token.Token{Line: l.line, Start: start, End: l.col()}

	switch upper := strings.ToUpper(text); {
	case upper == "TRUE" || upper == "FALSE":
		t.Kind = token.BOOLEAN
		t.Bool = upper == "TRUE"
	default:
		if kw, ok := token.LookupKeyword(text); ok {
			t.Kind = token.KEYWORD
			t.Keyword = kw
		} else {
			t.Kind = token.IDENT
			t.Text = text
		}
	}
	l.emit(t)
}

// readUnknown reports the character under the cursor and skips it.
func (l *Lexer) readUnknown() {
	r, size := utf8.DecodeRune(l.input[l.pos:])
	start := l.col()
	l.report(diag.Diagnostic{
		Line:    l.line,
		Rule:    diag.UnknownCharacter,
		Message: fmt.Sprintf("Unknown character '%c'", r),
		Note:    fmt.Sprintf("character (ascii: %q, decimal: %d, hex: %#x) is unknown at this time", r, r, r),
		Start:   start,
		End:     start + 1,
	})
	for range max(size, 1) {
		l.readChar()
	}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHex(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isNumberChar(ch byte) bool {
	return isHex(ch) || ch == '+' || ch == '-' || ch == '.' || ch == '_'
}

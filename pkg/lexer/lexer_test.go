package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqleibniz/pkg/diag"
	"github.com/leapstack-labs/sqleibniz/pkg/lexer"
	"github.com/leapstack-labs/sqleibniz/pkg/token"
)

func rulesOf(diags []diag.Diagnostic) []diag.Rule {
	rules := make([]diag.Rule, len(diags))
	for i, d := range diags {
		rules[i] = d.Rule
	}
	return rules
}

func kindsOf(toks []token.Token) []token.Kind {
	kinds := make([]token.Kind, len(toks))
	for i, t := range toks {
		kinds[i] = t.Kind
	}
	return kinds
}

func TestLex_ShouldPass(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"string", "'text'"},
		{"empty string", "''"},
		{"escaped quote", "'it''s'"},
		{"star", "* "},
		{"semicolon", "; "},
		{"comma", ", "},
		{"percent", "% "},
		{"punctuation", "= @ : $ ? ( ) [ ]"},
		{"integer", "1234"},
		{"float", "12.5"},
		{"leading dot number", ".5"},
		{"exponent", "1e10"},
		{"hex", "0xFF"},
		{"separators", "1_000_000"},
		{"blob", "X'1234'"},
		{"lowercase blob", "x'abcdef'"},
		{"empty blob", "x''"},
		{"keyword", "VACUUM"},
		{"lowercase keyword", "vacuum"},
		{"identifier", "schema_name"},
		{"identifier starting with x", "xmax"},
		{"boolean", "true FALSE"},
		{"dot access", "main.table_name"},
		{"statement", "VACUUM schema_name INTO 'filename';"},
		{"comment before statement", "-- comment\nVACUUM;"},
		{"block comment before statement", "/* a\n b */ VACUUM;"},
		{"expect directive", "-- @sqleibniz::expect\nVACUUM;"},
		{"directive without space", "--@sqleibniz::expect\nVACUUM;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, diags := lexer.Lex([]byte(tt.input), "lexer_tests_pass")
			assert.NotEmpty(t, toks)
			assert.Empty(t, diags)
		})
	}
}

func TestLex_ShouldFail(t *testing.T) {
	tests := []struct {
		name  string
		input string
		rule  diag.Rule
	}{
		{"empty", "", diag.NoContent},
		{"escaped", "\\", diag.UnknownCharacter},
		{"whitespace only", " \t\n\r", diag.NoStatements},
		{"unterminated string eof", "'", diag.UnterminatedString},
		{"unterminated string newline", "'\n\t\r\n ", diag.UnterminatedString},
		{"line comment", "-- comment", diag.NoStatements},
		{"block comment single line", "/**/", diag.NoStatements},
		{"block comment", "/*\n\n\n*/", diag.NoStatements},
		{"unterminated block comment", "/* never closed", diag.NoStatements},
		{"bad blob", "X'12G4'", diag.InvalidBlob},
		{"lone x", "x", diag.InvalidBlob},
		{"unterminated blob", "x'12", diag.UnterminatedString},
		{"bad number", "1-2", diag.InvalidNumericLiteral},
		{"bad hex", "0x", diag.InvalidNumericLiteral},
		{"bare exponent", ".e5", diag.InvalidNumericLiteral},
		{"hex overflow", "0xFFFFFFFFFFFFFFFFFF", diag.InvalidNumericLiteral},
		{"unknown character", "#", diag.UnknownCharacter},
		{"bad directive", "-- @sqleibniz::frobnicate", diag.BadSqleibnizInstruction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, diags := lexer.Lex([]byte(tt.input), "lexer_tests_fail")
			assert.Empty(t, toks)
			require.Len(t, diags, 1)
			assert.Equal(t, tt.rule, diags[0].Rule)
			assert.Equal(t, "lexer_tests_fail", diags[0].File)
		})
	}
}

func TestLex_Numbers(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"1_000.12_000e+3_5", 1.00012e38},
		{"0xABCDEF", 11259375},
		{"0x_ff", 255},
		{"42", 42},
		{".25", 0.25},
		{"1e-3", 0.001},
		{"1_000", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks, diags := lexer.Lex([]byte(tt.input), "numbers")
			require.Empty(t, diags)
			require.Len(t, toks, 1)
			assert.Equal(t, token.NUMBER, toks[0].Kind)
			assert.InDelta(t, tt.want, toks[0].Number, tt.want*1e-12)
			assert.Equal(t, 0, toks[0].Start)
			assert.Equal(t, len(tt.input), toks[0].End)
		})
	}
}

func TestLex_InvalidNumberNote(t *testing.T) {
	_, diags := lexer.Lex([]byte("1.2.3"), "n")
	require.Len(t, diags, 1)
	assert.Equal(t, `Failed to parse "1.2.3" as a number: invalid syntax`, diags[0].Note)
	assert.Equal(t, 0, diags[0].Start)
	assert.Equal(t, 5, diags[0].End)

	_, diags = lexer.Lex([]byte("0xFFFFFFFFFFFFFFFFFF"), "n")
	require.Len(t, diags, 1)
	assert.Equal(t, `Failed to parse "0xFFFFFFFFFFFFFFFFFF" as a number: value out of range`, diags[0].Note)
}

func TestLex_Blob(t *testing.T) {
	toks, diags := lexer.Lex([]byte("X'1234'"), "blob")
	require.Empty(t, diags)
	require.Len(t, toks, 1)
	assert.Equal(t, token.BLOB, toks[0].Kind)
	assert.Equal(t, []byte("1234"), toks[0].Blob)
	assert.Equal(t, 0, toks[0].Start)
	assert.Equal(t, 7, toks[0].End)

	toks, diags = lexer.Lex([]byte("X'12G4'"), "blob")
	assert.Empty(t, toks)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.InvalidBlob, diags[0].Rule)
	assert.Equal(t, 4, diags[0].Start, "points at G")
	assert.Equal(t, 5, diags[0].End)
}

func TestLex_UnterminatedString(t *testing.T) {
	toks, diags := lexer.Lex([]byte("VACUUM 'text\nVACUUM;"), "str")
	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, diag.UnterminatedString, d.Rule)
	assert.Equal(t, 0, d.Line)
	assert.Equal(t, 7, d.Start)
	assert.Equal(t, 12, d.End)
	require.NotNil(t, d.Fix)
	assert.Equal(t, diag.Fix{Snippet: "'", Start: 12}, *d.Fix)

	assert.Equal(t, []token.Kind{token.KEYWORD, token.KEYWORD, token.SEMICOLON}, kindsOf(toks))
	assert.Equal(t, 1, toks[1].Line)
}

func TestLex_Strings(t *testing.T) {
	toks, diags := lexer.Lex([]byte("'it''s' ''"), "str")
	require.Empty(t, diags)
	require.Len(t, toks, 2)
	assert.Equal(t, "it's", toks[0].Text)
	assert.Equal(t, 0, toks[0].Start)
	assert.Equal(t, 7, toks[0].End)
	assert.Equal(t, "", toks[1].Text)
}

func TestLex_Positions(t *testing.T) {
	src := "VACUUM main\n  INTO 'file.db';"
	toks, diags := lexer.Lex([]byte(src), "pos")
	require.Empty(t, diags)

	want := []struct {
		kind              token.Kind
		line, start, end int
	}{
		{token.KEYWORD, 0, 0, 6},
		{token.IDENT, 0, 7, 11},
		{token.KEYWORD, 1, 2, 6},
		{token.STRING, 1, 7, 16},
		{token.SEMICOLON, 1, 16, 17},
	}
	require.Len(t, toks, len(want))
	for i, w := range want {
		assert.Equal(t, w.kind, toks[i].Kind, "token %d", i)
		assert.Equal(t, w.line, toks[i].Line, "token %d", i)
		assert.Equal(t, w.start, toks[i].Start, "token %d", i)
		assert.Equal(t, w.end, toks[i].End, "token %d", i)
	}
}

func TestLex_Identifiers(t *testing.T) {
	toks, diags := lexer.Lex([]byte("vacuum Schema_1 TRUE false xmax"), "ident")
	require.Empty(t, diags)
	require.Len(t, toks, 5)

	assert.Equal(t, token.KEYWORD, toks[0].Kind)
	assert.Equal(t, token.VACUUM, toks[0].Keyword)
	assert.Equal(t, token.IDENT, toks[1].Kind)
	assert.Equal(t, "Schema_1", toks[1].Text)
	assert.Equal(t, token.BOOLEAN, toks[2].Kind)
	assert.True(t, toks[2].Bool)
	assert.Equal(t, token.BOOLEAN, toks[3].Kind)
	assert.False(t, toks[3].Bool)
	assert.Equal(t, token.IDENT, toks[4].Kind)
	assert.Equal(t, "xmax", toks[4].Text)
}

func TestLex_Dot(t *testing.T) {
	tests := []struct {
		input string
		want  []token.Kind
	}{
		{"a.b", []token.Kind{token.IDENT, token.DOT, token.IDENT}},
		{".5", []token.Kind{token.NUMBER}},
		{"a.end", []token.Kind{token.IDENT, token.DOT, token.KEYWORD}},
		{"a .", []token.Kind{token.IDENT, token.DOT}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks, diags := lexer.Lex([]byte(tt.input), "dot")
			require.Empty(t, diags)
			assert.Equal(t, tt.want, kindsOf(toks))
		})
	}
}

func TestLex_Directives(t *testing.T) {
	src := "-- @sqleibniz::expect\nVACUUM 'x\n;\nVACUUM #;"
	toks, diags := lexer.Lex([]byte(src), "directive")

	require.NotEmpty(t, toks)
	assert.Equal(t, token.INSTRUCTION, toks[0].Kind)
	assert.Equal(t, token.InstructionExpect, toks[0].Text)
	assert.Equal(t, 4, toks[0].Start)

	// the unterminated string belongs to the expected statement, the unknown
	// character comes after its semicolon
	assert.Equal(t, []diag.Rule{diag.UnknownCharacter}, rulesOf(diags))
	assert.Equal(t, 3, diags[0].Line)
}

func TestLex_BadDirective(t *testing.T) {
	toks, diags := lexer.Lex([]byte("--@nope rest of line\nVACUUM;"), "directive")
	require.Len(t, diags, 1)
	assert.Equal(t, diag.BadSqleibnizInstruction, diags[0].Rule)
	assert.Equal(t, 3, diags[0].Start)
	assert.Equal(t, 7, diags[0].End)
	assert.Equal(t, []token.Kind{token.KEYWORD, token.SEMICOLON}, kindsOf(toks))
}

func TestLex_UnknownCharacter(t *testing.T) {
	toks, diags := lexer.Lex([]byte("VACUUM ä;"), "unknown")
	require.Len(t, diags, 1)
	assert.Equal(t, "Unknown character 'ä'", diags[0].Message)
	assert.Equal(t, "character (ascii: 'ä', decimal: 228, hex: 0xe4) is unknown at this time", diags[0].Note)
	assert.Equal(t, 7, diags[0].Start)
	assert.Equal(t, 8, diags[0].End)
	assert.Equal(t, []token.Kind{token.KEYWORD, token.SEMICOLON}, kindsOf(toks))
}

func TestLex_ManyErrorsOnePass(t *testing.T) {
	src := "# 'open\n0x\nX'GG'\n--@bad"
	toks, diags := lexer.Lex([]byte(src), "many")
	assert.Empty(t, toks)
	assert.Equal(t, []diag.Rule{
		diag.UnknownCharacter,
		diag.UnterminatedString,
		diag.InvalidNumericLiteral,
		diag.InvalidBlob,
		diag.BadSqleibnizInstruction,
	}, rulesOf(diags))
	for i, d := range diags {
		assert.Equal(t, max(0, i-1), d.Line, "diagnostic %d", i)
	}
}

func TestLexer_Run(t *testing.T) {
	toks, diags := lexer.New([]byte("COMMIT;"), "run").Run()
	assert.Empty(t, diags)
	assert.Equal(t, []token.Kind{token.KEYWORD, token.SEMICOLON}, kindsOf(toks))
}

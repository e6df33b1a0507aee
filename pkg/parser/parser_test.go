package parser_test

import (
	"bytes"
	"log/slog"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqleibniz/internal/testutil"
	"github.com/leapstack-labs/sqleibniz/pkg/ast"
	"github.com/leapstack-labs/sqleibniz/pkg/diag"
	"github.com/leapstack-labs/sqleibniz/pkg/lexer"
	"github.com/leapstack-labs/sqleibniz/pkg/parser"
	"github.com/leapstack-labs/sqleibniz/pkg/token"
)

// parse scans and parses src, requiring the scan to be clean.
func parse(t *testing.T, src string) ([]ast.Node, []diag.Diagnostic) {
	t.Helper()
	toks, lexDiags := lexer.Lex([]byte(src), "parser_test")
	require.Empty(t, lexDiags, "lexer diagnostics for %q", src)
	return parser.Parse(toks, "parser_test", parser.WithLogger(testutil.NewTestLogger(t)))
}

func kindsOf(nodes []ast.Node) []ast.Kind {
	kinds := make([]ast.Kind, len(nodes))
	for i, n := range nodes {
		if n != nil {
			kinds[i] = n.Kind()
		}
	}
	return kinds
}

func rulesOf(diags []diag.Diagnostic) []diag.Rule {
	rules := make([]diag.Rule, len(diags))
	for i, d := range diags {
		rules[i] = d.Rule
	}
	return rules
}

func TestParse_ShouldPass(t *testing.T) {
	tests := []struct {
		input string
		want  []ast.Kind
	}{
		{"VACUUM;", []ast.Kind{ast.KindVacuum}},
		{"VACUUM schema_name;", []ast.Kind{ast.KindVacuum}},
		{"VACUUM INTO 'filename';", []ast.Kind{ast.KindVacuum}},
		{"VACUUM schema_name INTO 'filename';", []ast.Kind{ast.KindVacuum}},
		{"EXPLAIN VACUUM;", []ast.Kind{ast.KindExplain}},
		{"EXPLAIN QUERY PLAN VACUUM;", []ast.Kind{ast.KindExplain}},
		{"BEGIN;", []ast.Kind{ast.KindBegin}},
		{"BEGIN DEFERRED;", []ast.Kind{ast.KindBegin}},
		{"BEGIN IMMEDIATE TRANSACTION;", []ast.Kind{ast.KindBegin}},
		{"BEGIN TRANSACTION;", []ast.Kind{ast.KindBegin}},
		{"COMMIT;", []ast.Kind{ast.KindCommit}},
		{"END TRANSACTION;", []ast.Kind{ast.KindCommit}},
		{"ROLLBACK;", []ast.Kind{ast.KindRollback}},
		{"ROLLBACK TRANSACTION;", []ast.Kind{ast.KindRollback}},
		{"ROLLBACK TO sp;", []ast.Kind{ast.KindRollback}},
		{"ROLLBACK TRANSACTION TO SAVEPOINT sp;", []ast.Kind{ast.KindRollback}},
		{"SAVEPOINT sp;", []ast.Kind{ast.KindSavepoint}},
		{"RELEASE sp;", []ast.Kind{ast.KindRelease}},
		{"RELEASE SAVEPOINT sp;", []ast.Kind{ast.KindRelease}},
		{"DETACH aux;", []ast.Kind{ast.KindDetach}},
		{"DETACH DATABASE aux;", []ast.Kind{ast.KindDetach}},
		{"ATTACH 'file.db' AS aux;", []ast.Kind{ast.KindAttach}},
		{"ATTACH DATABASE :file AS aux;", []ast.Kind{ast.KindAttach}},
		{"ATTACH ? AS aux;", []ast.Kind{ast.KindAttach}},
		{"ATTACH db_path AS aux;", []ast.Kind{ast.KindAttach}},
		{"ANALYZE;", []ast.Kind{ast.KindAnalyze}},
		{"ANALYZE main;", []ast.Kind{ast.KindAnalyze}},
		{"ANALYZE main.idx;", []ast.Kind{ast.KindAnalyze}},
		{"DROP TABLE t;", []ast.Kind{ast.KindDrop}},
		{"DROP INDEX IF EXISTS main.idx;", []ast.Kind{ast.KindDrop}},
		{"DROP VIEW v;", []ast.Kind{ast.KindDrop}},
		{"DROP TRIGGER IF EXISTS trg;", []ast.Kind{ast.KindDrop}},
		{"REINDEX;", []ast.Kind{ast.KindReindex}},
		{"REINDEX nocase_collation;", []ast.Kind{ast.KindReindex}},
		{"REINDEX main.t;", []ast.Kind{ast.KindReindex}},
		{"ALTER TABLE t RENAME TO u;", []ast.Kind{ast.KindAlter}},
		{"ALTER TABLE main.t RENAME COLUMN a TO b;", []ast.Kind{ast.KindAlter}},
		{"ALTER TABLE t RENAME a TO b;", []ast.Kind{ast.KindAlter}},
		{"ALTER TABLE t ADD COLUMN c VARCHAR(255);", []ast.Kind{ast.KindAlter}},
		{"ALTER TABLE t ADD c;", []ast.Kind{ast.KindAlter}},
		{"ALTER TABLE t DROP COLUMN c;", []ast.Kind{ast.KindAlter}},
		{"BEGIN;\nSAVEPOINT a;\nRELEASE a;\nCOMMIT;", []ast.Kind{ast.KindBegin, ast.KindSavepoint, ast.KindRelease, ast.KindCommit}},
		{"-- comment\nvacuum; /* trailing */", []ast.Kind{ast.KindVacuum}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			nodes, diags := parse(t, tt.input)
			assert.Empty(t, diags)
			assert.Equal(t, tt.want, kindsOf(nodes))
		})
	}
}

func TestParse_ShouldFail(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"string at eof", "'str'"},
		{"number at eof", "0x0"},
		{"blob at eof", "x''"},
		{"null at eof", "NULL"},
		{"boolean at eof", "true"},
		{"current time at eof", "CURRENT_TIME"},
		{"current date at eof", "CURRENT_DATE"},
		{"current timestamp at eof", "CURRENT_TIMESTAMP"},
		{"literal statement", "'str';"},
		{"explain", "EXPLAIN;"},
		{"explain query plan", "EXPLAIN QUERY PLAN;"},
		{"vacuum no semicolon", "VACUUM"},
		{"vacuum invalid schema", "VACUUM 1;"},
		{"vacuum invalid filename", "VACUUM INTO 5;"},
		{"vacuum invalid combined", "VACUUM 5 INTO 5;"},
		{"vacuum continuation", "VACUUM main INTO 'f' extra;"},
		{"begin multiple modifiers", "BEGIN DEFERRED IMMEDIATE;"},
		{"begin garbage", "BEGIN 5;"},
		{"commit garbage", "COMMIT 5;"},
		{"rollback garbage", "ROLLBACK 5;"},
		{"rollback to nothing", "ROLLBACK TO;"},
		{"savepoint without name", "SAVEPOINT;"},
		{"release without name", "RELEASE SAVEPOINT;"},
		{"detach without name", "DETACH;"},
		{"attach without expr", "ATTACH AS aux;"},
		{"attach without as", "ATTACH 'f' aux;"},
		{"attach spaced parameter", "ATTACH : file AS aux;"},
		{"analyze dangling dot", "ANALYZE main.;"},
		{"drop without object", "DROP something;"},
		{"drop without name", "DROP TABLE;"},
		{"drop if without exists", "DROP TABLE IF t;"},
		{"reindex literal", "REINDEX 5;"},
		{"alter without table", "ALTER t;"},
		{"alter without action", "ALTER TABLE t;"},
		{"alter column constraint", "ALTER TABLE t ADD c INTEGER NOT NULL;"},
		{"unimplemented", "SELECT 1;"},
		{"unknown keyword", "selct;"},
		{"lone semicolon", ";"},
		{"punctuation", "(;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := parse(t, tt.input)
			assert.NotEmpty(t, diags)
		})
	}
}

func TestParse_Vacuum(t *testing.T) {
	nodes, diags := parse(t, "VACUUM schema_name INTO 'filename';")
	require.Empty(t, diags)
	require.Len(t, nodes, 1)

	v, ok := nodes[0].(*ast.Vacuum)
	require.True(t, ok)
	assert.Equal(t, "schema_name", v.SchemaName)
	assert.Equal(t, "filename", v.Filename)
	assert.Equal(t, token.VACUUM, v.Tok.Keyword)
}

func TestParse_VacuumPartial(t *testing.T) {
	nodes, diags := parse(t, "VACUUM 5 INTO 5;")
	require.Len(t, nodes, 1)
	v, ok := nodes[0].(*ast.Vacuum)
	require.True(t, ok, "node is kept despite field errors")
	assert.Empty(t, v.SchemaName)
	assert.Empty(t, v.Filename)

	require.Len(t, diags, 2)
	assert.Equal(t, []diag.Rule{diag.Syntax, diag.Syntax}, rulesOf(diags))
	assert.Equal(t, "Wanted Keyword(INTO) with String(<filename>) or Ident(<schema_name>) for VACUUM stmt, got Number(5)", diags[0].Note)
	assert.Equal(t, 7, diags[0].Start)
	assert.Equal(t, "Wanted String(<filename>) after Keyword(INTO) for VACUUM stmt, got Number(5)", diags[1].Note)
	assert.Equal(t, 14, diags[1].Start)
	for _, d := range diags {
		assert.Equal(t, "https://www.sqlite.org/lang_vacuum.html", d.DocURL)
		assert.Equal(t, "parser_test", d.File)
	}
}

func TestParse_BeginMultipleModifiers(t *testing.T) {
	nodes, diags := parse(t, "BEGIN DEFERRED IMMEDIATE;\nCOMMIT;")
	require.Len(t, diags, 1)
	assert.Equal(t, diag.Syntax, diags[0].Rule)
	assert.Equal(t, "BEGIN does not allow multiple transaction behaviour modifiers", diags[0].Note)
	assert.Equal(t, 15, diags[0].Start)

	require.Equal(t, []ast.Kind{ast.KindBegin, ast.KindCommit}, kindsOf(nodes))
	assert.Equal(t, token.DEFERRED, nodes[0].(*ast.Begin).Modifier)
}

func TestParse_MissingSemicolon(t *testing.T) {
	nodes, diags := parse(t, "VACUUM")
	require.Equal(t, []ast.Kind{ast.KindVacuum}, kindsOf(nodes))
	require.Len(t, diags, 1)

	d := diags[0]
	assert.Equal(t, diag.Semicolon, d.Rule)
	assert.Equal(t, "Missing semicolon", d.Message)
	assert.Equal(t, "Wanted Semicolon, got EOF, terminate statements with ';'", d.Note)
	assert.Equal(t, 0, d.Line)
	assert.Equal(t, 6, d.Start)
	require.NotNil(t, d.Fix)
	assert.Equal(t, diag.Fix{Snippet: ";", Start: 6}, *d.Fix)
}

func TestParse_UnknownKeyword(t *testing.T) {
	nodes, diags := parse(t, "VACCUM;\nxyzxyzxyz;")
	assert.Equal(t, []ast.Node{nil, nil}, nodes)
	require.Len(t, diags, 2)

	assert.Equal(t, diag.UnknownKeyword, diags[0].Rule)
	assert.Equal(t, "Unknown Keyword", diags[0].Message)
	assert.True(t, strings.HasPrefix(diags[0].Note, "'VACCUM' is not a known keyword, did you mean: \n\t- VACUUM"), diags[0].Note)

	assert.Equal(t, "'xyzxyzxyz' is not a known keyword", diags[1].Note)
	assert.Equal(t, 1, diags[1].Line)
}

func TestParse_StatementStarts(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		rule    diag.Rule
		message string
		note    string
	}{
		{"literal", "'str';", diag.Syntax, "Unexpected Literal", "Literal String('str') disallowed at this point."},
		{"null", "NULL;", diag.Syntax, "Unexpected Literal", "Literal Keyword(NULL) disallowed at this point."},
		{"semicolon", ";", diag.Syntax, "Unexpected Token", "Semicolon makes no sense at this point"},
		{"unimplemented", "SELECT 1;", diag.Unimplemented, "Unimplemented", "sqleibniz can not yet analyse the token Keyword(SELECT), skipping ahead to next statement"},
		{"punctuation", "( 1;", diag.Unimplemented, "Unknown Token", "sqleibniz does not understand the token ParenLeft, skipping ahead to next statement"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes, diags := parse(t, tt.input)
			assert.Equal(t, []ast.Node{nil}, nodes)
			require.Len(t, diags, 1)
			assert.Equal(t, tt.rule, diags[0].Rule)
			assert.Equal(t, tt.message, diags[0].Message)
			assert.Equal(t, tt.note, diags[0].Note)
		})
	}
}

func TestParse_Resynchronises(t *testing.T) {
	src := "VACUUM 1;\nBEGIN;\nselct * from t;\nSELECT 1;\nCOMMIT;"
	nodes, diags := parse(t, src)

	assert.Equal(t, []ast.Kind{ast.KindVacuum, ast.KindBegin, 0, 0, ast.KindCommit}, kindsOf(nodes))
	assert.Equal(t, []diag.Rule{diag.Syntax, diag.UnknownKeyword, diag.Unimplemented}, rulesOf(diags))
	assert.Equal(t, []int{0, 2, 3}, []int{diags[0].Line, diags[1].Line, diags[2].Line})
}

func TestParse_ExpectInstruction(t *testing.T) {
	src := "-- @sqleibniz::expect this is broken\nVACUUM 5 INTO 5;\nCOMMIT;"
	toks, lexDiags := lexer.Lex([]byte(src), "instruction")
	require.Empty(t, lexDiags)

	nodes, diags := parser.Parse(toks, "instruction")
	assert.Empty(t, diags)
	assert.Equal(t, []ast.Kind{ast.KindCommit}, kindsOf(nodes))

	toks, lexDiags = lexer.Lex([]byte("-- @sqleibniz::expect\nSELECT"), "instruction")
	require.Empty(t, lexDiags)
	nodes, diags = parser.Parse(toks, "instruction")
	assert.Empty(t, diags)
	assert.Empty(t, nodes)
}

func TestParse_Explain(t *testing.T) {
	nodes, diags := parse(t, "EXPLAIN QUERY PLAN ANALYZE main.t;")
	require.Empty(t, diags)
	require.Len(t, nodes, 1)

	e, ok := nodes[0].(*ast.Explain)
	require.True(t, ok)
	assert.True(t, e.QueryPlan)
	a, ok := e.Stmt.(*ast.Analyze)
	require.True(t, ok)
	assert.Equal(t, "main", a.Schema)
	assert.Equal(t, "t", a.Name)

	nodes, diags = parse(t, "EXPLAIN;")
	assert.Equal(t, []ast.Node{nil}, nodes)
	require.Len(t, diags, 1)
}

func TestParse_ExplainQueryStopsAtSemicolon(t *testing.T) {
	nodes, diags := parse(t, "EXPLAIN QUERY; VACUUM;")
	require.Len(t, diags, 1)
	assert.Equal(t, diag.Syntax, diags[0].Rule)
	assert.Equal(t, 13, diags[0].Start)
	assert.Equal(t, []ast.Kind{0, ast.KindVacuum}, kindsOf(nodes))
	assert.Nil(t, nodes[0])
}

func TestParse_Transactions(t *testing.T) {
	nodes, diags := parse(t, "BEGIN EXCLUSIVE TRANSACTION;\nROLLBACK TO SAVEPOINT sp;\nSAVEPOINT sp;\nRELEASE SAVEPOINT sp;")
	require.Empty(t, diags)
	require.Len(t, nodes, 4)

	b := nodes[0].(*ast.Begin)
	assert.Equal(t, token.EXCLUSIVE, b.Modifier)
	assert.True(t, b.Transaction)
	assert.Equal(t, "sp", nodes[1].(*ast.Rollback).Savepoint)
	assert.Equal(t, "sp", nodes[2].(*ast.Savepoint).Name)
	assert.Equal(t, "sp", nodes[3].(*ast.Release).Name)
}

func TestParse_Attach(t *testing.T) {
	tests := []struct {
		input   string
		operand ast.Kind
		content string
	}{
		{"ATTACH 'file.db' AS aux;", ast.KindLiteral, "file.db"},
		{"ATTACH DATABASE x'00' AS aux;", ast.KindLiteral, "00"},
		{"ATTACH ? AS aux;", ast.KindBindParameter, "?"},
		{"ATTACH ?12 AS aux;", ast.KindBindParameter, "?12"},
		{"ATTACH :file AS aux;", ast.KindBindParameter, ":file"},
		{"ATTACH @file AS aux;", ast.KindBindParameter, "@file"},
		{"ATTACH $file AS aux;", ast.KindBindParameter, "$file"},
		{"ATTACH db_path AS aux;", 0, "db_path"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			nodes, diags := parse(t, tt.input)
			require.Empty(t, diags)
			require.Len(t, nodes, 1)

			a, ok := nodes[0].(*ast.Attach)
			require.True(t, ok)
			assert.Equal(t, "aux", a.SchemaName)
			require.NotNil(t, a.Expr)
			if tt.operand == 0 {
				assert.Nil(t, a.Expr.Operand)
				assert.Equal(t, tt.content, a.Expr.Name)
				return
			}
			require.NotNil(t, a.Expr.Operand)
			assert.Equal(t, tt.operand, a.Expr.Operand.Kind())
			assert.Equal(t, tt.content, ast.Content(a.Expr.Operand))
		})
	}
}

func TestParse_BindParameterIndex(t *testing.T) {
	tests := []struct {
		input string
		name  string
		diags int
	}{
		{"ATTACH ?1 AS aux;", "?1", 0},
		{"ATTACH ?32766 AS aux;", "?32766", 0},
		{"ATTACH ?32767 AS aux;", "", 1},
		{"ATTACH ?99999999999999999999 AS aux;", "", 1},
		{"ATTACH ?0 AS aux;", "", 1},
		{"ATTACH ?1.5 AS aux;", "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			nodes, diags := parse(t, tt.input)
			require.Len(t, diags, tt.diags)
			require.Len(t, nodes, 1)
			if tt.diags > 0 {
				assert.Nil(t, nodes[0])
				assert.Equal(t, diag.Syntax, diags[0].Rule)
				return
			}
			param := nodes[0].(*ast.Attach).Expr.Operand.(*ast.BindParameter)
			assert.Equal(t, tt.name, param.Name)
		})
	}
}

func TestParse_BindParameterSpan(t *testing.T) {
	nodes, diags := parse(t, "ATTACH :file AS aux;")
	require.Empty(t, diags)
	param := nodes[0].(*ast.Attach).Expr.Operand.(*ast.BindParameter)
	assert.Equal(t, 7, param.Tok.Start)
	assert.Equal(t, 12, param.Tok.End)
}

func TestParse_Drop(t *testing.T) {
	tests := []struct {
		input    string
		object   token.Keyword
		ifExists bool
		schema   string
		name     string
	}{
		{"DROP TABLE t;", token.TABLE, false, "", "t"},
		{"DROP INDEX IF EXISTS main.idx;", token.INDEX, true, "main", "idx"},
		{"DROP VIEW aux.v;", token.VIEW, false, "aux", "v"},
		{"DROP TRIGGER IF EXISTS trg;", token.TRIGGER, true, "", "trg"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			nodes, diags := parse(t, tt.input)
			require.Empty(t, diags)
			d := nodes[0].(*ast.Drop)
			assert.Equal(t, tt.object, d.Object)
			assert.Equal(t, tt.ifExists, d.IfExists)
			assert.Equal(t, tt.schema, d.Schema)
			assert.Equal(t, tt.name, d.Name)
		})
	}

	_, diags := parse(t, "DROP something;")
	require.Len(t, diags, 1)
	assert.Equal(t, "DROP requires either INDEX, TABLE, TRIGGER or VIEW at this point, got Ident(something)", diags[0].Note)
}

func TestParse_Alter(t *testing.T) {
	tests := []struct {
		input string
		want  ast.Alter
	}{
		{"ALTER TABLE t RENAME TO u;", ast.Alter{Table: "t", Action: ast.AlterRenameTable, NewName: "u"}},
		{"ALTER TABLE main.t RENAME COLUMN a TO b;", ast.Alter{Schema: "main", Table: "t", Action: ast.AlterRenameColumn, Column: "a", NewName: "b"}},
		{"ALTER TABLE t ADD COLUMN c varchar(255);", ast.Alter{Table: "t", Action: ast.AlterAddColumn, Column: "c", ColumnType: "VARCHAR(255)"}},
		{"ALTER TABLE t ADD c decimal(10, 2);", ast.Alter{Table: "t", Action: ast.AlterAddColumn, Column: "c", ColumnType: "DECIMAL(10, 2)"}},
		{"ALTER TABLE t ADD c unsigned big int;", ast.Alter{Table: "t", Action: ast.AlterAddColumn, Column: "c", ColumnType: "UNSIGNED BIG INT"}},
		{"ALTER TABLE t DROP c;", ast.Alter{Table: "t", Action: ast.AlterDropColumn, Column: "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			nodes, diags := parse(t, tt.input)
			require.Empty(t, diags)
			a := nodes[0].(*ast.Alter)
			tt.want.Tok = a.Tok
			assert.Equal(t, &tt.want, a)
		})
	}
}

func TestParse_Trace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	toks, _ := lexer.Lex([]byte("EXPLAIN VACUUM;"), "trace")
	_, diags := parser.Parse(toks, "trace", parser.WithLogger(logger))
	require.Empty(t, diags)

	out := buf.String()
	for _, production := range []string{"parse", "sql_stmt_list", "sql_stmt_prefix", "sql_stmt", "vacuum_stmt"} {
		assert.Contains(t, out, "production="+production)
	}
	assert.Contains(t, out, "token=Keyword(EXPLAIN)")
}

// Parsing must terminate on any token sequence, with every statement slot
// backed by at least one consumed token.
func TestParse_Terminates(t *testing.T) {
	pool := []token.Token{
		{Kind: token.KEYWORD, Keyword: token.VACUUM},
		{Kind: token.KEYWORD, Keyword: token.BEGIN},
		{Kind: token.KEYWORD, Keyword: token.DEFERRED},
		{Kind: token.KEYWORD, Keyword: token.EXPLAIN},
		{Kind: token.KEYWORD, Keyword: token.QUERY},
		{Kind: token.KEYWORD, Keyword: token.ALTER},
		{Kind: token.KEYWORD, Keyword: token.TABLE},
		{Kind: token.KEYWORD, Keyword: token.ATTACH},
		{Kind: token.KEYWORD, Keyword: token.AS},
		{Kind: token.KEYWORD, Keyword: token.DROP},
		{Kind: token.KEYWORD, Keyword: token.INTO},
		{Kind: token.KEYWORD, Keyword: token.SELECT},
		{Kind: token.IDENT, Text: "name"},
		{Kind: token.STRING, Text: "s"},
		{Kind: token.NUMBER, Number: 1},
		{Kind: token.SEMICOLON},
		{Kind: token.DOT},
		{Kind: token.COLON},
		{Kind: token.QUESTION},
		{Kind: token.LPAREN},
		{Kind: token.INSTRUCTION, Text: token.InstructionExpect},
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		toks := make([]token.Token, rng.Intn(20)+1)
		for j := range toks {
			toks[j] = pool[rng.Intn(len(pool))]
			toks[j].Start = j * 2
			toks[j].End = j*2 + 1
		}
		nodes, _ := parser.Parse(toks, "random")
		assert.LessOrEqual(t, len(nodes), len(toks))
	}
}

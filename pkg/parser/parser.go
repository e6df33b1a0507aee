// Package parser implements a recursive-descent parser for SQLite
// statements.
//
// The parser is statement oriented and error resilient: a malformed
// statement produces diagnostics and the parser resynchronises at the next
// semicolon, so every statement of a file is analysed in one pass. Function
// names follow the grammar productions of https://www.sqlite.org/lang.html.
package parser

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/sqleibniz/pkg/ast"
	"github.com/leapstack-labs/sqleibniz/pkg/diag"
	"github.com/leapstack-labs/sqleibniz/pkg/token"
)

// Documentation references attached to diagnostics.
const (
	docSQLStmt     = "https://www.sqlite.org/syntax/sql-stmt.html"
	docExpr        = "https://www.sqlite.org/lang_expr.html"
	docBindParam   = "https://www.sqlite.org/lang_expr.html#varparam"
	docExplain     = "https://www.sqlite.org/lang_explain.html"
	docVacuum      = "https://www.sqlite.org/lang_vacuum.html"
	docTransaction = "https://www.sqlite.org/lang_transaction.html"
	docSavepoint   = "https://www.sqlite.org/lang_savepoint.html"
	docDetach      = "https://www.sqlite.org/lang_detach.html"
	docAttach      = "https://www.sqlite.org/lang_attach.html"
	docAnalyze     = "https://www.sqlite.org/lang_analyze.html"
	docReindex     = "https://www.sqlite.org/lang_reindex.html"
	docAlter       = "https://www.sqlite.org/lang_altertable.html"
	docDrop        = "https://www.sqlite.org/lang.html"
)

var docDropObject = map[token.Keyword]string{
	token.INDEX:   "https://www.sqlite.org/lang_dropindex.html",
	token.TABLE:   "https://www.sqlite.org/lang_droptable.html",
	token.TRIGGER: "https://www.sqlite.org/lang_droptrigger.html",
	token.VIEW:    "https://www.sqlite.org/lang_dropview.html",
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger enables a debug trace of every grammar production entered.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// Parser turns a token sequence into syntax trees.
type Parser struct {
	file   string
	tokens []token.Token
	pos    int
	diags  []diag.Diagnostic

	logger *slog.Logger
	depth  int
}

// New creates a parser over tokens. file names the source in diagnostics.
func New(tokens []token.Token, file string, opts ...Option) *Parser {
	p := &Parser{file: file, tokens: tokens}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses tokens into one slot per top-level statement. A slot is nil
// when its statement could not be recovered.
func Parse(tokens []token.Token, file string, opts ...Option) ([]ast.Node, []diag.Diagnostic) {
	return New(tokens, file, opts...).Parse()
}

// Parse runs the parser over all tokens.
func (p *Parser) Parse() ([]ast.Node, []diag.Diagnostic) {
	defer p.trace("parse")()
	return p.sqlStmtList(), p.diags
}

// ---------- Cursor ----------

// cur returns the current token. Past the end it returns an EOF token placed
// directly after the last token.
func (p *Parser) cur() token.Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	if len(p.tokens) == 0 {
		return token.Token{Kind: token.EOF}
	}
	last := p.tokens[len(p.tokens)-1]
	return token.Token{Kind: token.EOF, Line: last.Line, Start: last.End, End: last.End}
}

func (p *Parser) atEnd() bool {
	return p.pos >= len(p.tokens)
}

// advance moves to the next token, it is a no-op at the end.
func (p *Parser) advance() {
	if !p.atEnd() {
		p.pos++
	}
}

func (p *Parser) is(k token.Kind) bool {
	return !p.atEnd() && p.tokens[p.pos].Kind == k
}

func (p *Parser) isKeyword(kws ...token.Keyword) bool {
	return !p.atEnd() && p.tokens[p.pos].IsKeyword(kws...)
}

// atStmtEnd reports whether the current statement is complete.
func (p *Parser) atStmtEnd() bool {
	return p.atEnd() || p.is(token.SEMICOLON)
}

// skipToSemicolon resynchronises at the next semicolon or the end of input.
func (p *Parser) skipToSemicolon() {
	for !p.atStmtEnd() {
		p.advance()
	}
}

// ---------- Diagnostics ----------

func (p *Parser) report(at token.Token, rule diag.Rule, msg, note, doc string) {
	p.diags = append(p.diags, diag.Diagnostic{
		File:    p.file,
		Line:    at.Line,
		Rule:    rule,
		Message: msg,
		Note:    note,
		Start:   at.Start,
		End:     at.End,
		DocURL:  doc,
	})
}

// unexpected reports a syntax error at the current token.
func (p *Parser) unexpected(note, doc string) {
	cur := p.cur()
	p.report(cur, diag.Syntax, unexpectedMessage(cur), note, doc)
}

func unexpectedMessage(t token.Token) string {
	if t.Kind == token.EOF {
		return "Unexpected End of input"
	}
	return "Unexpected Token"
}

// consume checks the current token is of kind k and reports it otherwise.
// It advances either way so the parser never stalls on a bad token.
func (p *Parser) consume(k token.Kind) {
	if p.is(k) {
		p.advance()
		return
	}
	cur := p.cur()
	note := fmt.Sprintf("Wanted %s, got %s", k, cur)
	if k != token.SEMICOLON {
		p.report(cur, diag.Syntax, unexpectedMessage(cur), note, docSQLStmt)
		p.advance()
		return
	}

	// the terminator belongs directly after the previous token
	at := cur
	if p.pos > 0 {
		prev := p.tokens[p.pos-1]
		at = token.Token{Line: prev.Line, Start: prev.End, End: prev.End}
	}
	p.diags = append(p.diags, diag.Diagnostic{
		File:    p.file,
		Line:    at.Line,
		Rule:    diag.Semicolon,
		Message: "Missing semicolon",
		Note:    note + ", terminate statements with ';'",
		Start:   at.Start,
		End:     at.End,
		DocURL:  docSQLStmt,
		Fix:     &diag.Fix{Snippet: ";", Start: at.Start},
	})
	p.advance()
}

// consumeKeyword is consume for a keyword, except that it never steps over
// the end of the statement. It reports whether the keyword was present.
func (p *Parser) consumeKeyword(kw token.Keyword, doc string) bool {
	ok := p.isKeyword(kw)
	if !ok {
		p.unexpected(fmt.Sprintf("Wanted %s, got %s", keywordToken(kw), p.cur()), doc)
		if p.atStmtEnd() {
			return false
		}
	}
	p.advance()
	return ok
}

// expectKeyword checks the current token is kw and advances past it. On a
// mismatch it reports and resynchronises at the next semicolon.
func (p *Parser) expectKeyword(kw token.Keyword, doc string) bool {
	if p.isKeyword(kw) {
		p.advance()
		return true
	}
	p.unexpected(fmt.Sprintf("Wanted %s, got %s", keywordToken(kw), p.cur()), doc)
	p.skipToSemicolon()
	return false
}

// expect is expectKeyword for any token kind.
func (p *Parser) expect(k token.Kind, doc string) (token.Token, bool) {
	if p.is(k) {
		t := p.cur()
		p.advance()
		return t, true
	}
	p.unexpected(fmt.Sprintf("Wanted %s, got %s", k, p.cur()), doc)
	p.skipToSemicolon()
	return token.Token{}, false
}

// consumeIdent returns the text of the current identifier and advances. If
// the current token is not an identifier it reports, resynchronises and
// returns false.
func (p *Parser) consumeIdent(doc, name string) (string, bool) {
	if p.is(token.IDENT) {
		text := p.cur().Text
		p.advance()
		return text, true
	}
	p.unexpected(fmt.Sprintf("Expected Ident(<%s>), got %s", name, p.cur()), doc)
	p.skipToSemicolon()
	return "", false
}

// expectEnd flags trailing tokens after a complete statement and skips them.
func (p *Parser) expectEnd(doc string) {
	if p.atStmtEnd() {
		return
	}
	cur := p.cur()
	p.report(cur, diag.Syntax, "Unexpected Statement Continuation",
		fmt.Sprintf("End of statement via Semicolon expected, got %s", cur), doc)
	p.skipToSemicolon()
}

func keywordToken(kw token.Keyword) token.Token {
	return token.Token{Kind: token.KEYWORD, Keyword: kw}
}

// trace logs entering a production and returns the matching exit func.
func (p *Parser) trace(production string) func() {
	if p.logger == nil {
		return func() {}
	}
	p.logger.Debug("parser call",
		slog.String("production", production),
		slog.Int("depth", p.depth),
		slog.String("token", p.cur().String()),
	)
	p.depth++
	return func() { p.depth-- }
}

// ---------- Statement list ----------

// sqlStmtList parses statements until the input is exhausted. Every
// iteration advances at least one token.
//
// see: https://www.sqlite.org/syntax/sql-stmt-list.html
func (p *Parser) sqlStmtList() []ast.Node {
	defer p.trace("sql_stmt_list")()
	var nodes []ast.Node
	for !p.atEnd() {
		if p.is(token.INSTRUCTION) {
			// the instruction covers the next statement, which is not analysed
			p.skipToSemicolon()
			p.advance()
			continue
		}
		nodes = append(nodes, p.sqlStmtPrefix())
		p.consume(token.SEMICOLON)
	}
	return nodes
}

// sqlStmtPrefix handles the EXPLAIN [QUERY PLAN] wrapper.
func (p *Parser) sqlStmtPrefix() ast.Node {
	defer p.trace("sql_stmt_prefix")()
	if !p.isKeyword(token.EXPLAIN) {
		return p.sqlStmt()
	}

	e := &ast.Explain{Tok: p.cur()}
	p.advance()
	if p.isKeyword(token.QUERY) {
		p.advance()
		if !p.consumeKeyword(token.PLAN, docExplain) && p.atStmtEnd() {
			return nil
		}
		e.QueryPlan = true
	}
	stmt := p.sqlStmt()
	if stmt == nil {
		return nil
	}
	e.Stmt = stmt
	return e
}

// sqlStmt dispatches on the leading keyword of a statement.
//
// see: https://www.sqlite.org/syntax/sql-stmt.html
func (p *Parser) sqlStmt() ast.Node {
	defer p.trace("sql_stmt")()
	cur := p.cur()

	switch {
	case cur.Kind == token.EOF:
		return nil
	case cur.Kind == token.SEMICOLON:
		// left for the caller to consume
		p.report(cur, diag.Syntax, "Unexpected Token", "Semicolon makes no sense at this point", docSQLStmt)
		return nil
	case cur.IsLiteral():
		// rejected explicitly for a clearer message than "unimplemented"
		p.report(cur, diag.Syntax, "Unexpected Literal",
			fmt.Sprintf("Literal %s disallowed at this point.", cur), docSQLStmt)
		p.skipToSemicolon()
		return nil
	case cur.Kind == token.IDENT:
		p.report(cur, diag.UnknownKeyword, "Unknown Keyword", unknownKeywordNote(cur.Text), docSQLStmt)
		p.skipToSemicolon()
		return nil
	case cur.Kind != token.KEYWORD:
		p.report(cur, diag.Unimplemented, "Unknown Token",
			fmt.Sprintf("sqleibniz does not understand the token %s, skipping ahead to next statement", cur), docSQLStmt)
		p.skipToSemicolon()
		return nil
	}

	switch cur.Keyword {
	case token.VACUUM:
		return p.vacuumStmt()
	case token.BEGIN:
		return p.beginStmt()
	case token.COMMIT, token.END:
		return p.commitStmt()
	case token.ROLLBACK:
		return p.rollbackStmt()
	case token.SAVEPOINT:
		return p.savepointStmt()
	case token.RELEASE:
		return p.releaseStmt()
	case token.DETACH:
		return p.detachStmt()
	case token.ATTACH:
		return p.attachStmt()
	case token.ANALYZE:
		return p.analyzeStmt()
	case token.DROP:
		return p.dropStmt()
	case token.REINDEX:
		return p.reindexStmt()
	case token.ALTER:
		return p.alterStmt()
	}

	p.report(cur, diag.Unimplemented, "Unimplemented",
		fmt.Sprintf("sqleibniz can not yet analyse the token %s, skipping ahead to next statement", cur), docSQLStmt)
	p.skipToSemicolon()
	return nil
}

func unknownKeywordNote(word string) string {
	note := fmt.Sprintf("'%s' is not a known keyword", word)
	suggestions := token.Suggest(word)
	if len(suggestions) == 0 {
		return note
	}
	return note + ", did you mean: \n\t- " + strings.Join(suggestions, "\n\t- ")
}

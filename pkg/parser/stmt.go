package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/sqleibniz/pkg/ast"
	"github.com/leapstack-labs/sqleibniz/pkg/diag"
	"github.com/leapstack-labs/sqleibniz/pkg/token"
)

// Statement parsers are entered with the leading keyword as the current
// token. They return nil after reporting when a required part is missing;
// in that case the cursor already sits on the next semicolon.

// ---------- VACUUM ----------

// vacuumStmt parses VACUUM [schema-name] [INTO filename]. Field level errors
// still yield the node.
//
// see: https://www.sqlite.org/lang_vacuum.html
func (p *Parser) vacuumStmt() ast.Node {
	defer p.trace("vacuum_stmt")()
	v := &ast.Vacuum{Tok: p.cur()}
	p.advance()

	if !p.atStmtEnd() && !p.is(token.IDENT) && !p.isKeyword(token.INTO) {
		p.unexpected(fmt.Sprintf("Wanted %s with String(<filename>) or Ident(<schema_name>) for VACUUM stmt, got %s",
			keywordToken(token.INTO), p.cur()), docVacuum)
		p.advance()
	}

	if p.atStmtEnd() {
		return v
	}

	if p.is(token.IDENT) {
		v.SchemaName = p.cur().Text
		p.advance()
	}

	if p.isKeyword(token.INTO) {
		p.advance()
		if p.is(token.STRING) {
			v.Filename = p.cur().Text
			p.advance()
		} else {
			p.unexpected(fmt.Sprintf("Wanted String(<filename>) after %s for VACUUM stmt, got %s",
				keywordToken(token.INTO), p.cur()), docVacuum)
			if !p.atStmtEnd() {
				p.advance()
			}
		}
	}

	p.expectEnd(docVacuum)
	return v
}

// ---------- Transactions ----------

// beginStmt parses BEGIN [DEFERRED|IMMEDIATE|EXCLUSIVE] [TRANSACTION].
//
// see: https://www.sqlite.org/lang_transaction.html
func (p *Parser) beginStmt() ast.Node {
	defer p.trace("begin_stmt")()
	b := &ast.Begin{Tok: p.cur()}
	p.advance()

	if p.isKeyword(token.DEFERRED, token.IMMEDIATE, token.EXCLUSIVE) {
		b.Modifier = p.cur().Keyword
		p.advance()
	}

	switch {
	case p.atStmtEnd():
		return b
	case p.isKeyword(token.TRANSACTION):
		b.Transaction = true
		p.advance()
	case p.isKeyword(token.DEFERRED, token.IMMEDIATE, token.EXCLUSIVE):
		p.unexpected("BEGIN does not allow multiple transaction behaviour modifiers", docTransaction)
		p.skipToSemicolon()
		return b
	default:
		p.unexpected(fmt.Sprintf("Wanted any of TRANSACTION, DEFERRED, IMMEDIATE or EXCLUSIVE before this point, got %s", p.cur()), docTransaction)
		p.skipToSemicolon()
		return b
	}

	p.expectEnd(docTransaction)
	return b
}

// commitStmt parses COMMIT|END [TRANSACTION].
//
// see: https://www.sqlite.org/syntax/commit-stmt.html
func (p *Parser) commitStmt() ast.Node {
	defer p.trace("commit_stmt")()
	c := &ast.Commit{Tok: p.cur()}
	p.advance()

	switch {
	case p.atStmtEnd():
		return c
	case p.isKeyword(token.TRANSACTION):
		p.advance()
	default:
		p.unexpected(fmt.Sprintf("Wanted %s or Semicolon, got %s", keywordToken(token.TRANSACTION), p.cur()), docTransaction)
		p.skipToSemicolon()
		return c
	}

	p.expectEnd(docTransaction)
	return c
}

// rollbackStmt parses ROLLBACK [TRANSACTION] [TO [SAVEPOINT] savepoint-name].
//
// see: https://www.sqlite.org/syntax/rollback-stmt.html
func (p *Parser) rollbackStmt() ast.Node {
	defer p.trace("rollback_stmt")()
	r := &ast.Rollback{Tok: p.cur()}
	p.advance()

	if !p.atStmtEnd() && !p.isKeyword(token.TRANSACTION, token.TO) {
		p.unexpected(fmt.Sprintf("ROLLBACK requires TRANSACTION, TO or to end at this point, got %s", p.cur()), docTransaction)
		p.skipToSemicolon()
		return r
	}

	if p.isKeyword(token.TRANSACTION) {
		p.advance()
	}

	if p.isKeyword(token.TO) {
		p.advance()
		if p.isKeyword(token.SAVEPOINT) {
			p.advance()
		}
		if !p.is(token.IDENT) {
			p.unexpected(fmt.Sprintf("ROLLBACK wants Ident as <savepoint-name>, got %s", p.cur()), docTransaction)
			p.skipToSemicolon()
			return r
		}
		r.Savepoint = p.cur().Text
		p.advance()
	}

	p.expectEnd(docTransaction)
	return r
}

// savepointStmt parses SAVEPOINT savepoint-name.
//
// see: https://www.sqlite.org/syntax/savepoint-stmt.html
func (p *Parser) savepointStmt() ast.Node {
	defer p.trace("savepoint_stmt")()
	s := &ast.Savepoint{Tok: p.cur()}
	p.advance()

	name, ok := p.consumeIdent(docSavepoint, "savepoint_name")
	if !ok {
		return nil
	}
	s.Name = name

	p.expectEnd(docSavepoint)
	return s
}

// releaseStmt parses RELEASE [SAVEPOINT] savepoint-name.
//
// see: https://www.sqlite.org/syntax/release-stmt.html
func (p *Parser) releaseStmt() ast.Node {
	defer p.trace("release_stmt")()
	r := &ast.Release{Tok: p.cur()}
	p.advance()

	if p.isKeyword(token.SAVEPOINT) {
		p.advance()
	}
	name, ok := p.consumeIdent(docSavepoint, "savepoint_name")
	if !ok {
		return nil
	}
	r.Name = name

	p.expectEnd(docSavepoint)
	return r
}

// ---------- Databases ----------

// detachStmt parses DETACH [DATABASE] schema-name.
//
// see: https://www.sqlite.org/syntax/detach-stmt.html
func (p *Parser) detachStmt() ast.Node {
	defer p.trace("detach_stmt")()
	d := &ast.Detach{Tok: p.cur()}
	p.advance()

	if p.isKeyword(token.DATABASE) {
		p.advance()
	}
	if !p.is(token.IDENT) {
		p.unexpected(fmt.Sprintf("DETACH requires Ident(<schema_name>) at this point, got %s", p.cur()), docDetach)
		p.skipToSemicolon()
		return nil
	}
	d.SchemaName = p.cur().Text
	p.advance()

	p.expectEnd(docDetach)
	return d
}

// attachStmt parses ATTACH [DATABASE] expr AS schema-name.
//
// see: https://www.sqlite.org/syntax/attach-stmt.html
func (p *Parser) attachStmt() ast.Node {
	defer p.trace("attach_stmt")()
	a := &ast.Attach{Tok: p.cur()}
	p.advance()

	if p.isKeyword(token.DATABASE) {
		p.advance()
	}

	expr := p.expr()
	if expr == nil {
		return nil
	}
	a.Expr = expr

	if !p.expectKeyword(token.AS, docAttach) {
		return nil
	}
	name, ok := p.consumeIdent(docAttach, "schema_name")
	if !ok {
		return nil
	}
	a.SchemaName = name

	p.expectEnd(docAttach)
	return a
}

// analyzeStmt parses ANALYZE [schema-name | table-or-index-name |
// schema-name.table-or-index-name]. A single name is kept in Name.
//
// see: https://www.sqlite.org/syntax/analyze-stmt.html
func (p *Parser) analyzeStmt() ast.Node {
	defer p.trace("analyze_stmt")()
	a := &ast.Analyze{Tok: p.cur()}
	p.advance()

	if p.is(token.IDENT) {
		a.Name = p.cur().Text
		p.advance()
		if p.is(token.DOT) {
			p.advance()
			if !p.is(token.IDENT) {
				p.unexpected(fmt.Sprintf("ANALYZE requires Ident(<table_or_index_name>) after Dot and Ident(<schema_name>), got %s", p.cur()), docAnalyze)
				p.skipToSemicolon()
				return a
			}
			a.Schema = a.Name
			a.Name = p.cur().Text
			p.advance()
		}
	}

	p.expectEnd(docAnalyze)
	return a
}

// reindexStmt parses REINDEX [collation-name | [schema-name.]table-or-index].
//
// see: https://www.sqlite.org/syntax/reindex-stmt.html
func (p *Parser) reindexStmt() ast.Node {
	defer p.trace("reindex_stmt")()
	r := &ast.Reindex{Tok: p.cur()}
	p.advance()

	if p.atStmtEnd() {
		return r
	}

	name, ok := p.consumeIdent(docReindex, "collation_or_schema_or_table_or_index")
	if !ok {
		return nil
	}
	r.Name = name

	if p.is(token.DOT) {
		p.advance()
		table, ok := p.consumeIdent(docReindex, "table_or_index_name")
		if !ok {
			return nil
		}
		r.Schema = name
		r.Name = table
	}

	p.expectEnd(docReindex)
	return r
}

// ---------- Schema ----------

// dropStmt parses DROP INDEX|TABLE|TRIGGER|VIEW [IF EXISTS] [schema-name.]name.
//
// see: https://www.sqlite.org/lang_droptable.html
func (p *Parser) dropStmt() ast.Node {
	defer p.trace("drop_stmt")()
	d := &ast.Drop{Tok: p.cur()}
	p.advance()

	if !p.isKeyword(token.INDEX, token.TABLE, token.TRIGGER, token.VIEW) {
		p.unexpected(fmt.Sprintf("DROP requires either INDEX, TABLE, TRIGGER or VIEW at this point, got %s", p.cur()), docDrop)
		p.skipToSemicolon()
		return nil
	}
	d.Object = p.cur().Keyword
	doc := docDropObject[d.Object]
	p.advance()

	if p.isKeyword(token.IF) {
		p.advance()
		if !p.expectKeyword(token.EXISTS, doc) {
			return nil
		}
		d.IfExists = true
	}

	object := strings.ToLower(d.Object.String())
	if !p.is(token.IDENT) {
		p.unexpected(fmt.Sprintf("DROP requires Ident(<%s_name>) or Ident(<schema_name>).Ident(<%s_name>), got %s", object, object, p.cur()), doc)
		p.skipToSemicolon()
		return nil
	}
	d.Name = p.cur().Text
	p.advance()

	if p.is(token.DOT) {
		p.advance()
		if !p.is(token.IDENT) {
			p.unexpected(fmt.Sprintf("DROP requires Ident(<%s_name>) after Dot and Ident(<schema_name>), got %s", object, p.cur()), doc)
			p.skipToSemicolon()
			return nil
		}
		d.Schema = d.Name
		d.Name = p.cur().Text
		p.advance()
	}

	p.expectEnd(doc)
	return d
}

// alterStmt parses ALTER TABLE [schema-name.]table-name followed by
// RENAME TO, RENAME [COLUMN], ADD [COLUMN] or DROP [COLUMN].
//
// see: https://www.sqlite.org/lang_altertable.html
func (p *Parser) alterStmt() ast.Node {
	defer p.trace("alter_stmt")()
	a := &ast.Alter{Tok: p.cur()}
	p.advance()

	if !p.expectKeyword(token.TABLE, docAlter) {
		return nil
	}
	name, ok := p.consumeIdent(docAlter, "table_name")
	if !ok {
		return nil
	}
	a.Table = name
	if p.is(token.DOT) {
		p.advance()
		if a.Table, ok = p.consumeIdent(docAlter, "table_name"); !ok {
			return nil
		}
		a.Schema = name
	}

	switch {
	case p.isKeyword(token.RENAME):
		p.advance()
		if p.isKeyword(token.TO) {
			p.advance()
			a.Action = ast.AlterRenameTable
			if a.NewName, ok = p.consumeIdent(docAlter, "new_table_name"); !ok {
				return nil
			}
			break
		}
		if p.isKeyword(token.COLUMN) {
			p.advance()
		}
		a.Action = ast.AlterRenameColumn
		if a.Column, ok = p.consumeIdent(docAlter, "column_name"); !ok {
			return nil
		}
		if !p.expectKeyword(token.TO, docAlter) {
			return nil
		}
		if a.NewName, ok = p.consumeIdent(docAlter, "new_column_name"); !ok {
			return nil
		}
	case p.isKeyword(token.ADD):
		p.advance()
		if p.isKeyword(token.COLUMN) {
			p.advance()
		}
		a.Action = ast.AlterAddColumn
		if a.Column, ok = p.consumeIdent(docAlter, "column_name"); !ok {
			return nil
		}
		if a.ColumnType, ok = p.typeName(); !ok {
			return nil
		}
		if p.is(token.KEYWORD) {
			cur := p.cur()
			p.report(cur, diag.Unimplemented, "Unimplemented",
				fmt.Sprintf("sqleibniz can not yet analyse the column constraint %s, skipping ahead to next statement", cur), docAlter)
			p.skipToSemicolon()
			return a
		}
	case p.isKeyword(token.DROP):
		p.advance()
		if p.isKeyword(token.COLUMN) {
			p.advance()
		}
		a.Action = ast.AlterDropColumn
		if a.Column, ok = p.consumeIdent(docAlter, "column_name"); !ok {
			return nil
		}
	default:
		p.unexpected(fmt.Sprintf("ALTER TABLE requires RENAME, ADD or DROP at this point, got %s", p.cur()), docAlter)
		p.skipToSemicolon()
		return nil
	}

	p.expectEnd(docAlter)
	return a
}

// typeName parses an optional column type: one or more identifiers,
// optionally followed by (n) or (n, m). The result is normalised to upper
// case, e.g. "VARCHAR(255)".
//
// see: https://www.sqlite.org/syntax/type-name.html
func (p *Parser) typeName() (string, bool) {
	defer p.trace("type_name")()
	var names []string
	for p.is(token.IDENT) {
		names = append(names, strings.ToUpper(p.cur().Text))
		p.advance()
	}
	if len(names) == 0 || !p.is(token.LPAREN) {
		return strings.Join(names, " "), true
	}
	p.advance()

	var b strings.Builder
	b.WriteString(strings.Join(names, " "))
	b.WriteByte('(')
	n, ok := p.expect(token.NUMBER, docAlter)
	if !ok {
		return "", false
	}
	b.WriteString(strconv.FormatFloat(n.Number, 'g', -1, 64))
	if p.is(token.COMMA) {
		p.advance()
		m, ok := p.expect(token.NUMBER, docAlter)
		if !ok {
			return "", false
		}
		b.WriteString(", ")
		b.WriteString(strconv.FormatFloat(m.Number, 'g', -1, 64))
	}
	if _, ok := p.expect(token.RPAREN, docAlter); !ok {
		return "", false
	}
	b.WriteByte(')')
	return b.String(), true
}

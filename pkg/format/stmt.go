package format

import (
	"github.com/leapstack-labs/sqleibniz/pkg/ast"
	"github.com/leapstack-labs/sqleibniz/pkg/token"
)

func (p *Printer) formatStmt(n ast.Node) {
	switch stmt := n.(type) {
	case *ast.Explain:
		p.formatExplain(stmt)
	case *ast.Vacuum:
		p.formatVacuum(stmt)
	case *ast.Begin:
		p.formatBegin(stmt)
	case *ast.Commit:
		p.kw(token.COMMIT)
	case *ast.Rollback:
		p.formatRollback(stmt)
	case *ast.Savepoint:
		p.kw(token.SAVEPOINT)
		p.space()
		p.write(stmt.Name)
	case *ast.Release:
		p.kw(token.RELEASE, token.SAVEPOINT)
		p.space()
		p.write(stmt.Name)
	case *ast.Detach:
		p.kw(token.DETACH, token.DATABASE)
		p.space()
		p.write(stmt.SchemaName)
	case *ast.Attach:
		p.formatAttach(stmt)
	case *ast.Analyze:
		p.kw(token.ANALYZE)
		p.formatOptionalName(stmt.Schema, stmt.Name)
	case *ast.Drop:
		p.formatDrop(stmt)
	case *ast.Reindex:
		p.kw(token.REINDEX)
		p.formatOptionalName(stmt.Schema, stmt.Name)
	case *ast.Alter:
		p.formatAlter(stmt)
	case *ast.Expr:
		p.formatExpr(stmt)
	case *ast.Literal:
		p.formatLiteral(stmt)
	case *ast.BindParameter:
		p.write(stmt.Name)
	}
}

func (p *Printer) formatExplain(stmt *ast.Explain) {
	p.kw(token.EXPLAIN)
	if stmt.QueryPlan {
		p.space()
		p.kw(token.QUERY, token.PLAN)
	}
	p.writeln()

	p.indent()
	p.formatStmt(stmt.Stmt)
	p.dedent()
}

func (p *Printer) formatVacuum(stmt *ast.Vacuum) {
	p.kw(token.VACUUM)
	if stmt.SchemaName != "" {
		p.space()
		p.write(stmt.SchemaName)
	}
	if stmt.Filename != "" {
		p.space()
		p.kw(token.INTO)
		p.space()
		p.write(quoteString(stmt.Filename))
	}
}

func (p *Printer) formatBegin(stmt *ast.Begin) {
	p.kw(token.BEGIN)
	if stmt.Modifier != 0 {
		p.space()
		p.kw(stmt.Modifier)
	}
	if stmt.Transaction {
		p.space()
		p.kw(token.TRANSACTION)
	}
}

func (p *Printer) formatRollback(stmt *ast.Rollback) {
	p.kw(token.ROLLBACK)
	if stmt.Savepoint != "" {
		p.space()
		p.kw(token.TO, token.SAVEPOINT)
		p.space()
		p.write(stmt.Savepoint)
	}
}

func (p *Printer) formatAttach(stmt *ast.Attach) {
	p.kw(token.ATTACH, token.DATABASE)
	p.space()
	p.formatExpr(stmt.Expr)
	p.space()
	p.kw(token.AS)
	p.space()
	p.write(stmt.SchemaName)
}

func (p *Printer) formatDrop(stmt *ast.Drop) {
	p.kw(token.DROP, stmt.Object)
	if stmt.IfExists {
		p.space()
		p.kw(token.IF, token.EXISTS)
	}
	p.space()
	p.write(qualifiedName(stmt.Schema, stmt.Name))
}

func (p *Printer) formatAlter(stmt *ast.Alter) {
	p.kw(token.ALTER, token.TABLE)
	p.space()
	p.write(qualifiedName(stmt.Schema, stmt.Table))
	p.writeln()

	p.indent()
	switch stmt.Action {
	case ast.AlterRenameTable:
		p.kw(token.RENAME, token.TO)
		p.space()
		p.write(stmt.NewName)
	case ast.AlterRenameColumn:
		p.kw(token.RENAME, token.COLUMN)
		p.space()
		p.write(stmt.Column)
		p.space()
		p.kw(token.TO)
		p.space()
		p.write(stmt.NewName)
	case ast.AlterAddColumn:
		p.kw(token.ADD, token.COLUMN)
		p.space()
		p.write(stmt.Column)
		if stmt.ColumnType != "" {
			p.space()
			p.write(stmt.ColumnType)
		}
	case ast.AlterDropColumn:
		p.kw(token.DROP, token.COLUMN)
		p.space()
		p.write(stmt.Column)
	}
	p.dedent()
}

// formatOptionalName prints " [schema.]name" when a name is present.
func (p *Printer) formatOptionalName(schema, name string) {
	if name == "" {
		return
	}
	p.space()
	p.write(qualifiedName(schema, name))
}

func qualifiedName(schema, name string) string {
	if schema == "" {
		return name
	}
	return schema + "." + name
}

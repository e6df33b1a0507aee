package format

import (
	"strings"

	"github.com/leapstack-labs/sqleibniz/pkg/ast"
	"github.com/leapstack-labs/sqleibniz/pkg/token"
)

func (p *Printer) formatExpr(e *ast.Expr) {
	if e == nil {
		return
	}

	switch operand := e.Operand.(type) {
	case *ast.Literal:
		p.formatLiteral(operand)
	case *ast.BindParameter:
		p.write(operand.Name)
	case nil:
		p.write(e.Name)
	}
}

func (p *Printer) formatLiteral(lit *ast.Literal) {
	t := lit.Tok
	switch t.Kind {
	case token.STRING:
		p.write(quoteString(t.Text))
	case token.BLOB:
		p.write("X'" + strings.ToUpper(string(t.Blob)) + "'")
	case token.BOOLEAN:
		p.write(strings.ToUpper(t.Lexeme()))
	default:
		p.write(t.Lexeme())
	}
}

// quoteString renders s as a single quoted SQL string, doubling quotes.
func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

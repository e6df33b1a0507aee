package parser

import (
	"fmt"
	"math"
	"strconv"

	"github.com/leapstack-labs/sqleibniz/pkg/ast"
	"github.com/leapstack-labs/sqleibniz/pkg/diag"
	"github.com/leapstack-labs/sqleibniz/pkg/token"
)

// expr parses the expression subset the supported statements need: a
// literal value, a bind parameter or an identifier. On failure it reports,
// resynchronises and returns nil.
//
// see: https://www.sqlite.org/lang_expr.html
func (p *Parser) expr() *ast.Expr {
	defer p.trace("expr")()
	cur := p.cur()

	switch {
	case cur.IsLiteral():
		lit := p.literalValue()
		return &ast.Expr{Tok: cur, Operand: lit}
	case isBindParameterStart(cur):
		param := p.bindParameter()
		if param == nil {
			return nil
		}
		return &ast.Expr{Tok: param.Tok, Operand: param}
	case cur.Kind == token.IDENT:
		p.advance()
		return &ast.Expr{Tok: cur, Name: cur.Text}
	}

	p.unexpected(fmt.Sprintf("Wanted an expression (literal, bind parameter or identifier), got %s", cur), docExpr)
	p.skipToSemicolon()
	return nil
}

// literalValue parses a literal. The caller checks the current token is one.
//
// see: https://www.sqlite.org/syntax/literal-value.html
func (p *Parser) literalValue() *ast.Literal {
	defer p.trace("literal_value")()
	lit := &ast.Literal{Tok: p.cur()}
	p.advance()
	return lit
}

func isBindParameterStart(t token.Token) bool {
	switch t.Kind {
	case token.QUESTION, token.COLON, token.AT, token.DOLLAR:
		return true
	}
	return false
}

// adjacent reports whether b directly follows a without whitespace.
func adjacent(a, b token.Token) bool {
	return a.Line == b.Line && a.End == b.Start
}

// maxBindIndex is SQLite's default SQLITE_MAX_VARIABLE_NUMBER.
const maxBindIndex = 32766

// bindParameter parses ?, ?NNN, :AAAA, @AAAA or $AAAA. The returned
// parameter's token spans the whole parameter.
//
// see: https://www.sqlite.org/lang_expr.html#varparam
func (p *Parser) bindParameter() *ast.BindParameter {
	defer p.trace("bind_parameter")()
	prefix := p.cur()
	p.advance()
	next := p.cur()

	if prefix.Kind == token.QUESTION {
		param := &ast.BindParameter{Tok: prefix, Name: "?"}
		if next.Kind == token.NUMBER && adjacent(prefix, next) {
			n := next.Number
			if n < 1 || n != math.Trunc(n) {
				p.unexpected(fmt.Sprintf("Wanted a positive integer after ?, got %s", next), docBindParam)
				p.skipToSemicolon()
				return nil
			}
			if n > maxBindIndex {
				p.report(next, diag.Syntax, "Bind parameter out of range",
					fmt.Sprintf("?NNN must be between 1 and %d, got %s", maxBindIndex, next), docBindParam)
				p.skipToSemicolon()
				return nil
			}
			param.Name += strconv.FormatInt(int64(n), 10)
			param.Tok.End = next.End
			p.advance()
		}
		return param
	}

	if next.Kind != token.IDENT || !adjacent(prefix, next) {
		p.unexpected(fmt.Sprintf("Wanted Ident(<parameter_name>) directly after %s, got %s", prefix, next), docBindParam)
		p.skipToSemicolon()
		return nil
	}
	p.advance()
	tok := prefix
	tok.End = next.End
	return &ast.BindParameter{Tok: tok, Name: prefix.Lexeme() + next.Text}
}

// Package format prints parsed statements: Format re-prints them as
// canonical SQL and Tree dumps their structure for debugging.
package format

import (
	"fmt"

	"github.com/leapstack-labs/sqleibniz/pkg/ast"
)

// Format prints every parsed statement as canonical SQL, one statement per
// line group, each terminated by a semicolon. Nil slots are skipped.
func Format(nodes []ast.Node) string {
	stmts := make([]ast.Node, 0, len(nodes))
	for _, n := range nodes {
		if n != nil {
			stmts = append(stmts, n)
		}
	}

	p := newPrinter()
	p.formatList(len(stmts), func(i int) { p.formatStmt(stmts[i]) }, ";", true)
	if len(stmts) > 0 {
		p.write(";")
	}
	return p.String()
}

// Statement prints a single statement without a terminator.
func Statement(n ast.Node) string {
	p := newPrinter()
	p.formatStmt(n)
	return p.String()
}

// Tree dumps the nodes as an indented outline, one node per line:
//
//	attach "aux" @1:1-6
//	  expr @1:8-12
//	    bind_parameter ":file" @1:8-12
//
// Positions are 1-based line:start-end columns. Nil slots are skipped.
func Tree(nodes []ast.Node) string {
	p := newPrinter()
	for _, n := range nodes {
		if n != nil {
			p.formatView(ast.NewView(n))
		}
	}
	return p.String()
}

func (p *Printer) formatView(v ast.View) {
	p.write(v.Kind)
	if v.Content != "" {
		p.write(fmt.Sprintf(" %q", v.Content))
	}
	p.write(fmt.Sprintf(" @%d:%d-%d", v.Line+1, v.Start+1, max(v.End, v.Start+1)))
	p.writeln()

	p.indent()
	for _, c := range v.Children {
		p.formatView(c)
	}
	p.dedent()
}

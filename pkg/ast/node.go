// Package ast defines the syntax tree produced by the parser.
//
// The variant set is closed: Node can only be implemented inside this
// package, so a type switch over the exported node types is exhaustive.
package ast

import (
	"fmt"

	"github.com/leapstack-labs/sqleibniz/pkg/token"
)

// Kind identifies a node variant.
type Kind int

// Node kinds.
const (
	KindExplain Kind = iota + 1
	KindVacuum
	KindBegin
	KindCommit
	KindRollback
	KindSavepoint
	KindRelease
	KindDetach
	KindAttach
	KindAnalyze
	KindDrop
	KindReindex
	KindAlter
	KindLiteral
	KindExpr
	KindBindParameter
)

var kindNames = map[Kind]string{
	KindExplain:       "explain",
	KindVacuum:        "vacuum",
	KindBegin:         "begin",
	KindCommit:        "commit",
	KindRollback:      "rollback",
	KindSavepoint:     "savepoint",
	KindRelease:       "release",
	KindDetach:        "detach",
	KindAttach:        "attach",
	KindAnalyze:       "analyze",
	KindDrop:          "drop",
	KindReindex:       "reindex",
	KindAlter:         "alter",
	KindLiteral:       "literal",
	KindExpr:          "expr",
	KindBindParameter: "bind_parameter",
}

// String returns the lowercase kind name used by hooks, e.g. "vacuum".
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind resolves a kind by its name.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	all := make([]Kind, 0, len(kindNames))
	for k := KindExplain; k <= KindBindParameter; k++ {
		all = append(all, k)
	}
	return all
}

// Node is implemented by every syntax tree variant.
type Node interface {
	// Kind returns the variant tag.
	Kind() Kind
	// Token returns the token anchoring the node in the source.
	Token() token.Token
	// Children returns the owned child nodes, nil for leaves.
	Children() []Node

	node()
}

// ---------- Statements ----------

// Explain wraps exactly one statement: EXPLAIN [QUERY PLAN] stmt.
type Explain struct {
	Tok       token.Token
	QueryPlan bool
	Stmt      Node
}

// Vacuum is VACUUM [schema-name] [INTO filename].
type Vacuum struct {
	Tok        token.Token
	SchemaName string
	Filename   string
}

// Begin is BEGIN [DEFERRED|IMMEDIATE|EXCLUSIVE] [TRANSACTION].
// Modifier is zero when absent.
type Begin struct {
	Tok         token.Token
	Modifier    token.Keyword
	Transaction bool
}

// Commit is COMMIT or END, optionally followed by TRANSACTION.
type Commit struct {
	Tok token.Token
}

// Rollback is ROLLBACK [TRANSACTION] [TO [SAVEPOINT] name].
type Rollback struct {
	Tok       token.Token
	Savepoint string
}

// Savepoint is SAVEPOINT name.
type Savepoint struct {
	Tok  token.Token
	Name string
}

// Release is RELEASE [SAVEPOINT] name.
type Release struct {
	Tok  token.Token
	Name string
}

// Detach is DETACH [DATABASE] schema-name.
type Detach struct {
	Tok        token.Token
	SchemaName string
}

// Attach is ATTACH [DATABASE] expr AS schema-name.
type Attach struct {
	Tok        token.Token
	Expr       *Expr
	SchemaName string
}

// Analyze is ANALYZE [schema-name | [schema.]table-or-index].
type Analyze struct {
	Tok    token.Token
	Schema string
	Name   string
}

// Drop is DROP INDEX|TABLE|TRIGGER|VIEW [IF EXISTS] [schema.]name.
type Drop struct {
	Tok      token.Token
	Object   token.Keyword
	IfExists bool
	Schema   string
	Name     string
}

// Reindex is REINDEX [collation | [schema.]table-or-index].
type Reindex struct {
	Tok    token.Token
	Schema string
	Name   string
}

// AlterAction selects the ALTER TABLE form.
type AlterAction int

// ALTER TABLE actions.
const (
	AlterRenameTable AlterAction = iota + 1
	AlterRenameColumn
	AlterAddColumn
	AlterDropColumn
)

var alterActionNames = map[AlterAction]string{
	AlterRenameTable:  "RENAME TO",
	AlterRenameColumn: "RENAME COLUMN",
	AlterAddColumn:    "ADD COLUMN",
	AlterDropColumn:   "DROP COLUMN",
}

func (a AlterAction) String() string {
	if name, ok := alterActionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("AlterAction(%d)", int(a))
}

// Alter is ALTER TABLE [schema.]table followed by one action.
//
// Column is the renamed, added or dropped column; NewName is the new table
// name for AlterRenameTable and the new column name for AlterRenameColumn.
type Alter struct {
	Tok        token.Token
	Schema     string
	Table      string
	Action     AlterAction
	Column     string
	NewName    string
	ColumnType string
}

// ---------- Expressions ----------

// Literal is a literal value: number, string, blob, boolean, NULL or
// CURRENT_DATE/TIME/TIMESTAMP.
type Literal struct {
	Tok token.Token
}

// Expr is an expression. Operand holds a Literal or BindParameter; when it
// is nil the expression is the identifier Name.
type Expr struct {
	Tok     token.Token
	Name    string
	Operand Node
}

// BindParameter is ?, ?NNN, :name, @name or $name. Name keeps the full
// parameter text including its prefix.
type BindParameter struct {
	Tok  token.Token
	Name string
}

func (n *Explain) Kind() Kind       { return KindExplain }
func (n *Vacuum) Kind() Kind        { return KindVacuum }
func (n *Begin) Kind() Kind         { return KindBegin }
func (n *Commit) Kind() Kind        { return KindCommit }
func (n *Rollback) Kind() Kind      { return KindRollback }
func (n *Savepoint) Kind() Kind     { return KindSavepoint }
func (n *Release) Kind() Kind       { return KindRelease }
func (n *Detach) Kind() Kind        { return KindDetach }
func (n *Attach) Kind() Kind        { return KindAttach }
func (n *Analyze) Kind() Kind       { return KindAnalyze }
func (n *Drop) Kind() Kind          { return KindDrop }
func (n *Reindex) Kind() Kind       { return KindReindex }
func (n *Alter) Kind() Kind         { return KindAlter }
func (n *Literal) Kind() Kind       { return KindLiteral }
func (n *Expr) Kind() Kind          { return KindExpr }
func (n *BindParameter) Kind() Kind { return KindBindParameter }

func (n *Explain) Token() token.Token       { return n.Tok }
func (n *Vacuum) Token() token.Token        { return n.Tok }
func (n *Begin) Token() token.Token         { return n.Tok }
func (n *Commit) Token() token.Token        { return n.Tok }
func (n *Rollback) Token() token.Token      { return n.Tok }
func (n *Savepoint) Token() token.Token     { return n.Tok }
func (n *Release) Token() token.Token       { return n.Tok }
func (n *Detach) Token() token.Token        { return n.Tok }
func (n *Attach) Token() token.Token        { return n.Tok }
func (n *Analyze) Token() token.Token       { return n.Tok }
func (n *Drop) Token() token.Token          { return n.Tok }
func (n *Reindex) Token() token.Token       { return n.Tok }
func (n *Alter) Token() token.Token         { return n.Tok }
func (n *Literal) Token() token.Token       { return n.Tok }
func (n *Expr) Token() token.Token          { return n.Tok }
func (n *BindParameter) Token() token.Token { return n.Tok }

func (n *Explain) Children() []Node {
	if n.Stmt == nil {
		return nil
	}
	return []Node{n.Stmt}
}

func (n *Attach) Children() []Node {
	if n.Expr == nil {
		return nil
	}
	return []Node{n.Expr}
}

func (n *Expr) Children() []Node {
	if n.Operand == nil {
		return nil
	}
	return []Node{n.Operand}
}

func (*Vacuum) Children() []Node        { return nil }
func (*Begin) Children() []Node         { return nil }
func (*Commit) Children() []Node        { return nil }
func (*Rollback) Children() []Node      { return nil }
func (*Savepoint) Children() []Node     { return nil }
func (*Release) Children() []Node       { return nil }
func (*Detach) Children() []Node        { return nil }
func (*Analyze) Children() []Node       { return nil }
func (*Drop) Children() []Node          { return nil }
func (*Reindex) Children() []Node       { return nil }
func (*Alter) Children() []Node         { return nil }
func (*Literal) Children() []Node       { return nil }
func (*BindParameter) Children() []Node { return nil }

func (*Explain) node()       {}
func (*Vacuum) node()        {}
func (*Begin) node()         {}
func (*Commit) node()        {}
func (*Rollback) node()      {}
func (*Savepoint) node()     {}
func (*Release) node()       {}
func (*Detach) node()        {}
func (*Attach) node()        {}
func (*Analyze) node()       {}
func (*Drop) node()          {}
func (*Reindex) node()       {}
func (*Alter) node()         {}
func (*Literal) node()       {}
func (*Expr) node()          {}
func (*BindParameter) node() {}

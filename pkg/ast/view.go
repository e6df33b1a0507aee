package ast

// View is a read-only, generic rendition of a node: its kind name, its
// principal text and its children. Hook dispatchers walk views instead of
// switching over the concrete node types.
type View struct {
	Kind     string
	Content  string
	Line     int
	Start    int
	End      int
	Children []View
}

// NewView builds the view tree rooted at n.
func NewView(n Node) View {
	tok := n.Token()
	v := View{
		Kind:    n.Kind().String(),
		Content: Content(n),
		Line:    tok.Line,
		Start:   tok.Start,
		End:     tok.End,
	}
	for _, c := range n.Children() {
		v.Children = append(v.Children, NewView(c))
	}
	return v
}

// Content returns the principal text of n: the name a statement acts on,
// the value of a literal or the text of a bind parameter.
func Content(n Node) string {
	switch n := n.(type) {
	case *Explain:
		if n.QueryPlan {
			return "QUERY PLAN"
		}
		return ""
	case *Vacuum:
		return n.SchemaName
	case *Begin:
		if n.Modifier == 0 {
			return ""
		}
		return n.Modifier.String()
	case *Commit:
		return ""
	case *Rollback:
		return n.Savepoint
	case *Savepoint:
		return n.Name
	case *Release:
		return n.Name
	case *Detach:
		return n.SchemaName
	case *Attach:
		return n.SchemaName
	case *Analyze:
		return qualified(n.Schema, n.Name)
	case *Drop:
		return qualified(n.Schema, n.Name)
	case *Reindex:
		return qualified(n.Schema, n.Name)
	case *Alter:
		return qualified(n.Schema, n.Table)
	case *Literal:
		return n.Tok.Lexeme()
	case *Expr:
		return n.Name
	case *BindParameter:
		return n.Name
	}
	return ""
}

func qualified(schema, name string) string {
	if schema == "" {
		return name
	}
	return schema + "." + name
}

// Walk traverses the tree rooted at n depth first. fn is called for every
// node before its children; returning false skips the children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}

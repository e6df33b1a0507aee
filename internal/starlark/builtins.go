package starlark

import (
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/leapstack-labs/sqleibniz/pkg/ast"
	"github.com/leapstack-labs/sqleibniz/pkg/diag"
)

// Predeclared returns the builtin globals of the configuration script:
//
//	rules  struct with one field per rule name, e.g. rules.Semicolon, and
//	       rules.all, the list of every rule name
//	kinds  struct with one field per node kind, e.g. kinds.vacuum
//
// Every field value is the plain name string, so scripts may also spell
// names out.
func Predeclared() starlark.StringDict {
	ruleFields := starlark.StringDict{}
	names := make([]string, 0, len(diag.AllRules()))
	for _, r := range diag.AllRules() {
		ruleFields[r.String()] = starlark.String(r.String())
		names = append(names, r.String())
	}
	all, _ := GoToStarlark(names)
	ruleFields["all"] = all

	kindFields := starlark.StringDict{}
	for _, k := range ast.Kinds() {
		kindFields[k.String()] = starlark.String(k.String())
	}

	globals := starlark.StringDict{
		"rules": starlarkstruct.FromStringDict(starlark.String("rules"), ruleFields),
		"kinds": starlarkstruct.FromStringDict(starlark.String("kinds"), kindFields),
	}
	globals.Freeze()
	return globals
}

// Package starlark loads the sqleibniz configuration script and runs the
// hooks it declares.
//
// The script (leibniz.star by default) is plain Starlark. It must define a
// global dict named leibniz:
//
//	leibniz = {
//	    "disabled_rules": [rules.NoStatements, "Unimplemented"],
//	    "hooks": [
//	        {
//	            "name": "schema-vacuum",
//	            "node": kinds.vacuum,
//	            "hook": lambda node: "vacuum of schema " + node.text if node.text else None,
//	        },
//	    ],
//	}
//
// Hooks receive one node struct per tree node of the matching kind and
// return None or a message string.
package starlark

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/leapstack-labs/sqleibniz/pkg/ast"
)

// GoToStarlark converts a Go value to a Starlark value.
// Supported types: string, int, int64, float64, bool, []string, []any, map[string]any
func GoToStarlark(v any) (starlark.Value, error) {
	if v == nil {
		return starlark.None, nil
	}

	switch val := v.(type) {
	case string:
		return starlark.String(val), nil

	case int:
		return starlark.MakeInt(val), nil

	case int64:
		return starlark.MakeInt64(val), nil

	case float64:
		return starlark.Float(val), nil

	case bool:
		return starlark.Bool(val), nil

	case []string:
		list := make([]starlark.Value, len(val))
		for i, s := range val {
			list[i] = starlark.String(s)
		}
		return starlark.NewList(list), nil

	case []any:
		list := make([]starlark.Value, len(val))
		for i, item := range val {
			sv, err := GoToStarlark(item)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			list[i] = sv
		}
		return starlark.NewList(list), nil

	case map[string]any:
		dict := starlark.NewDict(len(val))
		for k, v := range val {
			sv, err := GoToStarlark(v)
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", k, err)
			}
			if err := dict.SetKey(starlark.String(k), sv); err != nil {
				return nil, fmt.Errorf("dict setkey %q: %w", k, err)
			}
		}
		return dict, nil

	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ToGo converts a Starlark value back to a Go value.
// Returns: string, int64, float64, bool, []any, map[string]any, nil, or the
// starlark.Callable itself for functions.
func ToGo(v starlark.Value) (any, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil

	case starlark.String:
		return string(val), nil

	case starlark.Int:
		i64, ok := val.Int64()
		if !ok {
			// Fallback for very large integers - convert to string
			return val.String(), nil
		}
		return i64, nil

	case starlark.Float:
		return float64(val), nil

	case starlark.Bool:
		return bool(val), nil

	case *starlark.List:
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			gv, err := ToGo(val.Index(i))
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			result[i] = gv
		}
		return result, nil

	case *starlark.Dict:
		result := make(map[string]any)
		for _, item := range val.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict key must be string, got %s", item[0].Type())
			}
			gv, err := ToGo(item[1])
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", key, err)
			}
			result[string(key)] = gv
		}
		return result, nil

	case starlark.Tuple:
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			gv, err := ToGo(val.Index(i))
			if err != nil {
				return nil, fmt.Errorf("tuple index %d: %w", i, err)
			}
			result[i] = gv
		}
		return result, nil

	case starlark.Callable:
		return val, nil

	default:
		// Try to get a string representation
		return val.String(), nil
	}
}

// nodeConstructor names the struct type of node values.
const nodeConstructor = starlark.String("node")

// ViewToStarlark converts a tree view into a frozen node struct with the
// fields kind, text, line, start, end and children. Positions are 0-based.
func ViewToStarlark(v ast.View) starlark.Value {
	children := make([]starlark.Value, len(v.Children))
	for i, c := range v.Children {
		children[i] = ViewToStarlark(c)
	}
	s := starlarkstruct.FromStringDict(nodeConstructor, starlark.StringDict{
		"kind":     starlark.String(v.Kind),
		"text":     starlark.String(v.Content),
		"line":     starlark.MakeInt(v.Line),
		"start":    starlark.MakeInt(v.Start),
		"end":      starlark.MakeInt(v.End),
		"children": starlark.Tuple(children),
	})
	s.Freeze()
	return s
}

package starlark

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqleibniz/internal/testutil"
	"github.com/leapstack-labs/sqleibniz/pkg/ast"
	"github.com/leapstack-labs/sqleibniz/pkg/lexer"
	"github.com/leapstack-labs/sqleibniz/pkg/lint"
	"github.com/leapstack-labs/sqleibniz/pkg/parser"
)

func parse(t *testing.T, src string) []ast.Node {
	t.Helper()
	toks, _ := lexer.Lex([]byte(src), "hooks.sql")
	nodes, _ := parser.Parse(toks, "hooks.sql")
	return nodes
}

func newRunner(t *testing.T, script string) *Runner {
	t.Helper()
	cfg, err := LoadSource("leibniz.star", []byte(script), testutil.NewTestLogger(t))
	require.NoError(t, err)
	return NewRunner(cfg, testutil.NewTestLogger(t))
}

func TestRunner_Findings(t *testing.T) {
	r := newRunner(t, `
def schema_vacuum(node):
    if node.text:
        return "vacuum of schema " + node.text

def count_children(node):
    if node.kind == "attach":
        return "attach with %d child" % len(node.children)

leibniz = {"hooks": [
    {"name": "schema-vacuum", "node": kinds.vacuum, "hook": schema_vacuum},
    {"name": "children", "hook": count_children},
]}
`)

	nodes := parse(t, "VACUUM;\nVACUUM main;\nSELECT 1;\nATTACH 'f' AS aux;")
	findings, err := r.RunHooks(context.Background(), "hooks.sql", nodes)
	require.NoError(t, err)

	assert.Equal(t, []lint.HookFinding{
		{File: "hooks.sql", Hook: "schema-vacuum", Node: "vacuum", Message: "vacuum of schema main", Line: 1, Start: 0, End: 6},
		{File: "hooks.sql", Hook: "children", Node: "attach", Message: "attach with 1 child", Line: 3, Start: 0, End: 6},
	}, findings)
}

func TestRunner_VisitsChildren(t *testing.T) {
	r := newRunner(t, `
leibniz = {"hooks": [
    {"name": "params", "node": kinds.bind_parameter, "hook": lambda node: node.text},
]}
`)
	findings, err := r.RunHooks(context.Background(), "hooks.sql", parse(t, "EXPLAIN ATTACH :db AS aux;"))
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, ":db", findings[0].Message)
	assert.Equal(t, 15, findings[0].Start)
}

func TestRunner_NoHooks(t *testing.T) {
	r := newRunner(t, `leibniz = {}`)
	findings, err := r.RunHooks(context.Background(), "hooks.sql", parse(t, "VACUUM;"))
	require.NoError(t, err)
	assert.Nil(t, findings)
}

func TestRunner_Errors(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		wantErr string
	}{
		{"failing hook", `leibniz = {"hooks": [{"name": "fail", "hook": lambda node: fail("boom")}]}`, "boom"},
		{"bad return", `leibniz = {"hooks": [{"name": "int", "hook": lambda node: 1}]}`, "returned int, want string or None"},
		{"frozen globals", `
seen = []
def record(node):
    seen.append(node.kind)
leibniz = {"hooks": [{"name": "record", "hook": record}]}
`, "frozen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRunner(t, tt.script)
			_, err := r.RunHooks(context.Background(), "hooks.sql", parse(t, "VACUUM;"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var scriptErr *ScriptError
			require.True(t, errors.As(err, &scriptErr))
			assert.NotEmpty(t, scriptErr.Hook)
		})
	}
}

func TestRunner_Cancelled(t *testing.T) {
	r := newRunner(t, `
def spin(node):
    while True:
        pass
leibniz = {"hooks": [{"name": "spin", "hook": spin}]}
`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.RunHooks(ctx, "hooks.sql", parse(t, "VACUUM;"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context canceled")
	assert.Equal(t, 0, r.pool.Size(), "cancelled threads are not reused")
}

func TestRunner_Concurrent(t *testing.T) {
	r := newRunner(t, `leibniz = {"hooks": [{"name": "kind", "hook": lambda node: node.kind}]}`)
	nodes := parse(t, "BEGIN;\nCOMMIT;")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			findings, err := r.RunHooks(context.Background(), "hooks.sql", nodes)
			assert.NoError(t, err)
			assert.Len(t, findings, 2)
		}()
	}
	wg.Wait()
}

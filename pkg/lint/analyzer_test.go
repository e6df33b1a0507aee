package lint_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqleibniz/internal/testutil"
	"github.com/leapstack-labs/sqleibniz/pkg/ast"
	"github.com/leapstack-labs/sqleibniz/pkg/diag"
	"github.com/leapstack-labs/sqleibniz/pkg/lint"
)

func rulesOf(diags []diag.Diagnostic) []diag.Rule {
	rules := make([]diag.Rule, len(diags))
	for i, d := range diags {
		rules[i] = d.Rule
	}
	return rules
}

func TestAnalyzer_Analyze(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		disabled   []diag.Rule
		wantRules  []diag.Rule
		wantIgnore int
		statements int
	}{
		{"valid", testutil.ValidSQL, nil, []diag.Rule{}, 0, 6},
		{"broken", testutil.BrokenSQL, nil, []diag.Rule{diag.Syntax, diag.UnknownKeyword, diag.Unimplemented, diag.Semicolon}, 0, 4},
		{"broken with disabled rules", testutil.BrokenSQL, []diag.Rule{diag.Unimplemented, diag.Semicolon}, []diag.Rule{diag.Syntax, diag.UnknownKeyword}, 2, 4},
		{"expected", testutil.ExpectedSQL, nil, []diag.Rule{}, 0, 1},
		{"empty", "", nil, []diag.Rule{diag.NoContent}, 0, 0},
		{"comments only", "-- nothing here\n", nil, []diag.Rule{diag.NoStatements}, 0, 0},
		{"lexical before syntactic", "VACUUM 'open\n", nil, []diag.Rule{diag.UnterminatedString, diag.Semicolon}, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := lint.NewAnalyzer(lint.NewConfig().Disable(tt.disabled...), lint.WithLogger(testutil.NewTestLogger(t)))
			res, err := a.Analyze(context.Background(), "analyzer.sql", []byte(tt.src))
			require.NoError(t, err)

			assert.Equal(t, "analyzer.sql", res.File)
			assert.Equal(t, tt.wantRules, rulesOf(res.Diagnostics))
			assert.Equal(t, tt.wantIgnore, res.Ignored)
			assert.Len(t, res.Nodes, tt.statements)
			assert.Equal(t, len(tt.wantRules) == 0, res.OK())
		})
	}
}

func TestAnalyzer_Trace(t *testing.T) {
	a := lint.NewAnalyzer(nil, lint.WithLogger(testutil.NewTestLogger(t)), lint.WithTrace(true))
	res, err := a.Analyze(context.Background(), "trace.sql", []byte("VACUUM;"))
	require.NoError(t, err)
	assert.True(t, res.OK())
}

func TestAnalyzer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := lint.NewAnalyzer(nil).Analyze(ctx, "cancelled.sql", []byte("VACUUM;"))
	require.ErrorIs(t, err, context.Canceled)
}

type fakeHooks struct {
	findings []lint.HookFinding
	err      error
	calls    atomic.Int32

	mu    sync.Mutex
	nodes []ast.Node
}

func (f *fakeHooks) RunHooks(_ context.Context, file string, nodes []ast.Node) ([]lint.HookFinding, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.nodes = nodes
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]lint.HookFinding, len(f.findings))
	for i, finding := range f.findings {
		finding.File = file
		out[i] = finding
	}
	return out, nil
}

func TestAnalyzer_Hooks(t *testing.T) {
	hooks := &fakeHooks{findings: []lint.HookFinding{{Hook: "no-vacuum", Node: "vacuum", Message: "avoid VACUUM"}}}
	a := lint.NewAnalyzer(nil, lint.WithHooks(hooks))

	res, err := a.Analyze(context.Background(), "hooks.sql", []byte("VACUUM;"))
	require.NoError(t, err)
	assert.True(t, res.OK(), "findings do not fail verification")
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "hooks.sql", res.Findings[0].File)
	assert.Equal(t, "hooks.sql:1:1: warning[no-vacuum]: avoid VACUUM", res.Findings[0].String())
	require.Len(t, hooks.nodes, 1)
	assert.Equal(t, ast.KindVacuum, hooks.nodes[0].Kind())

	failing := &fakeHooks{err: errors.New("boom")}
	_, err = lint.NewAnalyzer(nil, lint.WithHooks(failing)).Analyze(context.Background(), "hooks.sql", []byte("VACUUM;"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "running hooks for hooks.sql: boom")
}

func TestAnalyzer_AnalyzeFiles(t *testing.T) {
	_, paths := testutil.SetupSQLFiles(t, map[string]string{
		"a_valid.sql":  testutil.ValidSQL,
		"b_broken.sql": testutil.BrokenSQL,
		"c_empty.sql":  "",
	})

	hooks := &fakeHooks{}
	a := lint.NewAnalyzer(nil, lint.WithHooks(hooks))
	results, err := a.AnalyzeFiles(context.Background(), paths, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, res := range results {
		assert.Equal(t, paths[i], res.File)
	}
	assert.True(t, results[0].OK())
	assert.Len(t, results[1].Diagnostics, 4)
	assert.Equal(t, []diag.Rule{diag.NoContent}, rulesOf(results[2].Diagnostics))
	assert.Equal(t, int32(3), hooks.calls.Load())
}

func TestAnalyzer_AnalyzeFilesMissing(t *testing.T) {
	dir, paths := testutil.SetupSQLFiles(t, map[string]string{"ok.sql": "VACUUM;"})
	paths = append(paths, filepath.Join(dir, "missing.sql"))

	_, err := lint.NewAnalyzer(nil).AnalyzeFiles(context.Background(), paths, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

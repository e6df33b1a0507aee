package starlark

import (
	"context"
	"fmt"
	"log/slog"

	"go.starlark.net/starlark"

	"github.com/leapstack-labs/sqleibniz/pkg/ast"
	"github.com/leapstack-labs/sqleibniz/pkg/lint"
)

// Runner executes the hooks of a configuration script. It is safe for
// concurrent use: every call runs on its own pooled thread.
type Runner struct {
	config *Config
	pool   *ThreadPool
	logger *slog.Logger
}

var _ lint.HookRunner = (*Runner)(nil)

// NewRunner creates a hook runner for cfg.
func NewRunner(cfg *Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		config: cfg,
		pool:   NewThreadPool(0, logPrint(logger)),
		logger: logger,
	}
}

// RunHooks calls every matching hook for every node of every statement,
// in pre-order. A hook returning a string produces a finding; a failing
// hook aborts the run with a *ScriptError.
func (r *Runner) RunHooks(ctx context.Context, file string, nodes []ast.Node) ([]lint.HookFinding, error) {
	if len(r.config.Hooks) == 0 {
		return nil, nil
	}

	thread := r.pool.Get("hooks:" + file)
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})
	defer func() {
		if stop() {
			r.pool.Put(thread)
		}
	}()

	var findings []lint.HookFinding
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if err := r.visit(thread, file, ast.NewView(n), &findings); err != nil {
			return nil, err
		}
	}

	r.logger.Debug("ran hooks",
		slog.String("file", file),
		slog.Int("findings", len(findings)),
	)
	return findings, nil
}

func (r *Runner) visit(thread *starlark.Thread, file string, v ast.View, findings *[]lint.HookFinding) error {
	var node starlark.Value
	for _, h := range r.config.Hooks {
		if h.Node != "" && h.Node != v.Kind {
			continue
		}
		if node == nil {
			node = ViewToStarlark(v)
		}

		res, err := starlark.Call(thread, h.Fn, starlark.Tuple{node}, nil)
		if err != nil {
			return &ScriptError{Path: r.config.Path, Hook: h.Name, Err: err}
		}
		switch res := res.(type) {
		case starlark.NoneType:
		case starlark.String:
			*findings = append(*findings, lint.HookFinding{
				File:     file,
				Hook:     h.Name,
				Node:     v.Kind,
				Severity: lint.SeverityWarning,
				Message:  string(res),
				Line:     v.Line,
				Start:    v.Start,
				End:      v.End,
			})
		default:
			return &ScriptError{Path: r.config.Path, Hook: h.Name, Err: fmt.Errorf("returned %s, want string or None", res.Type())}
		}
	}

	for _, c := range v.Children {
		if err := r.visit(thread, file, c, findings); err != nil {
			return err
		}
	}
	return nil
}

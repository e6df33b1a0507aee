package lint

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/sqleibniz/pkg/diag"
	"github.com/leapstack-labs/sqleibniz/pkg/lexer"
	"github.com/leapstack-labs/sqleibniz/pkg/parser"
)

// Analyzer runs the analysis pipeline over source files.
type Analyzer struct {
	config *Config
	hooks  HookRunner
	logger *slog.Logger
	trace  bool
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithHooks runs hooks over every successfully analysed file.
func WithHooks(h HookRunner) Option {
	return func(a *Analyzer) {
		a.hooks = h
	}
}

// WithLogger sets the logger for analysis progress.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// WithTrace logs every grammar production the parser enters at debug level.
func WithTrace(trace bool) Option {
	return func(a *Analyzer) {
		a.trace = trace
	}
}

// NewAnalyzer creates a new analyzer with optional configuration.
func NewAnalyzer(config *Config, opts ...Option) *Analyzer {
	if config == nil {
		config = NewConfig()
	}
	a := &Analyzer{config: config}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.DiscardHandler)
	}
	return a
}

// Config returns the analyzer's rule configuration.
func (a *Analyzer) Config() *Config {
	return a.config
}

// Analyze scans and parses src, runs hooks and filters disabled rules.
// file names the source in diagnostics.
func (a *Analyzer) Analyze(ctx context.Context, file string, src []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens, lexDiags := lexer.Lex(src, file)

	var opts []parser.Option
	if a.trace {
		opts = append(opts, parser.WithLogger(a.logger.With(slog.String("file", file))))
	}
	nodes, parseDiags := parser.Parse(tokens, file, opts...)

	merged := append(lexDiags, parseDiags...)
	kept, ignored := diag.Filter(merged, a.config.DisabledRules)

	res := &Result{
		File:        file,
		Source:      src,
		Tokens:      tokens,
		Nodes:       nodes,
		Diagnostics: kept,
		Ignored:     ignored,
	}

	if a.hooks != nil {
		findings, err := a.hooks.RunHooks(ctx, file, nodes)
		if err != nil {
			return nil, fmt.Errorf("running hooks for %s: %w", file, err)
		}
		res.Findings = findings
	}

	a.logger.Debug("analyzed file",
		slog.String("file", file),
		slog.Int("tokens", len(tokens)),
		slog.Int("statements", len(nodes)),
		slog.Int("diagnostics", len(kept)),
		slog.Int("ignored", ignored),
	)
	return res, nil
}

// AnalyzeFile reads and analyses the file at path.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return a.Analyze(ctx, path, src)
}

// AnalyzeFiles analyses files with at most jobs files in flight; jobs < 1
// means no limit. Results are returned in the order of paths. The first
// error cancels the remaining work.
func (a *Analyzer) AnalyzeFiles(ctx context.Context, paths []string, jobs int) ([]*Result, error) {
	results := make([]*Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, path := range paths {
		g.Go(func() error {
			res, err := a.AnalyzeFile(gctx, path)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

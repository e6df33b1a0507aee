package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqleibniz/internal/cli/config"
	"github.com/leapstack-labs/sqleibniz/internal/cli/output"
	"github.com/leapstack-labs/sqleibniz/internal/starlark"
	"github.com/leapstack-labs/sqleibniz/pkg/lint"
)

// AnalysisAnnotation marks commands that analyse SQL with the configured
// rules and script.
const AnalysisAnnotation = "sqleibniz/analyses-sql"

func analysisAnnotations() map[string]string {
	return map[string]string{AnalysisAnnotation: "true"}
}

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded settings.
// Silent settings send all rendered output to io.Discard.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	if cfg.Silent {
		out, errOut = io.Discard, io.Discard
	}
	r := output.NewRenderer(out, errOut, output.Mode(cfg.OutputFormat))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the current settings, or the defaults when none were
// loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Defaults()
}

// NewAnalyzer builds the analyzer the settings describe: the configuration
// script, unless ignored, contributes disabled rules and hooks, and the
// settings add their own disabled rules. A missing script is only an error
// when its path was given explicitly.
func (c *CommandContext) NewAnalyzer() (*lint.Analyzer, error) {
	rules, err := c.Cfg.LintConfig()
	if err != nil {
		return nil, err
	}

	opts := []lint.Option{
		lint.WithLogger(c.Logger),
		lint.WithTrace(c.Cfg.Trace),
	}

	if !c.Cfg.IgnoreConfig {
		script, err := starlark.Load(c.Cfg.Script, c.Logger)
		switch {
		case errors.Is(err, starlark.ErrNoConfig) && !c.Cfg.ScriptExplicit:
			c.Logger.Debug("no configuration script, using defaults", slog.String("path", c.Cfg.Script))
		case err != nil:
			return nil, fmt.Errorf("loading configuration script: %w", err)
		default:
			rules.Merge(script.LintConfig())
			opts = append(opts, lint.WithHooks(starlark.NewRunner(script, c.Logger)))
		}
	}

	return lint.NewAnalyzer(rules, opts...), nil
}

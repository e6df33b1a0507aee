// Package cli provides the command-line interface for sqleibniz.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqleibniz/internal/cli/commands"
	"github.com/leapstack-labs/sqleibniz/internal/cli/config"
	"github.com/leapstack-labs/sqleibniz/internal/cli/output"
	"github.com/leapstack-labs/sqleibniz/pkg/diag"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// rendererKey is used to store renderer in context.
type rendererKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var (
		settingsFile string
		lspMode      bool
	)

	rootCmd := &cobra.Command{
		Use:   "sqleibniz [paths...]",
		Short: "sqleibniz - static analysis for SQLite SQL",
		Long: `sqleibniz lexes and parses SQLite SQL files and reports every problem it
finds with the offending source lines, an explanation and a link to the
SQLite documentation.

Rules are disabled through the sqleibniz.yaml settings file, the
SQLEIBNIZ_ environment variables, the -D flag and the leibniz.star
configuration script, which can also register hooks run on every
statement.`,
		Example: `  # Analyse files
  sqleibniz schema.sql migrations/*.sql

  # Ignore two rules for this run
  sqleibniz -D Semicolon -D Unimplemented schema.sql

  # Machine readable report
  sqleibniz -o json schema.sql`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip settings loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(settingsFile, cmd.Flags())
			if err != nil {
				return err
			}

			logger := config.NewLogger(cmd.ErrOrStderr(), cfg.Verbose || cfg.Trace)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = config.WithLogger(ctx, logger)
			ctx = context.WithValue(ctx, configKey{}, cfg)

			// Create and store renderer based on output mode
			renderer := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
			ctx = context.WithValue(ctx, rendererKey{}, renderer)
			cmd.SetContext(ctx)

			if settings := config.GetConfigFileUsed(); settings != "" {
				logger.Debug("using settings file", "path", settings)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if lspMode {
				return commands.RunLSP(cmd, Version)
			}
			return commands.RunLint(cmd, args)
		},
		Annotations:   map[string]string{commands.AnalysisAnnotation: "true"},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Static analysis for SQLite SQL
`)

	// Global persistent flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&settingsFile, "settings", "", "settings file (default: sqleibniz.yaml in the working directory or a parent)")
	pf.StringP("config", "c", config.DefaultScriptFile, "configuration script")
	pf.BoolP("ignore-config", "i", false, "do not load the configuration script")
	pf.BoolP("silent", "s", false, "print nothing, report through the exit status only")
	pf.StringSliceP("disable", "D", nil, "disable a rule, repeatable or comma separated")
	pf.StringP("output", "o", config.DefaultOutput, "Output format (auto|text|json)")
	pf.IntP("jobs", "j", config.DefaultJobs, "files analysed concurrently (0 for no limit)")
	pf.BoolP("verbose", "v", false, "Verbose output")
	pf.Bool("trace", false, "log parser entry and exit")
	pf.Bool("ast", false, "print the syntax tree of every file")

	rootCmd.Flags().BoolVar(&lspMode, "lsp", false, "start the language server instead of analysing files")

	// Register completion for output and disable flags
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return output.Modes(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("disable", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		rules := diag.AllRules()
		names := make([]string, len(rules))
		for i, r := range rules {
			names[i] = r.String()
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewRulesCommand())
	rootCmd.AddCommand(commands.NewFmtCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(commands.NewREPLCommand())
	rootCmd.AddCommand(commands.NewLSPCommand(Version))
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		// Verification failures were reported by the command itself
		if !errors.Is(err, commands.ErrVerificationFailed) && !errors.Is(err, commands.ErrNoSources) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return err
	}
	return nil
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	// Return default config if none in context
	return config.Defaults()
}

// GetRenderer retrieves the renderer from the command context.
func GetRenderer(ctx context.Context) *output.Renderer {
	if r, ok := ctx.Value(rendererKey{}).(*output.Renderer); ok {
		return r
	}
	// Return default renderer if none in context
	return output.NewRenderer(os.Stdout, os.Stderr, output.ModeAuto)
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for sqleibniz.

To load completions:

Bash:
  $ source <(sqleibniz completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ sqleibniz completion bash > /etc/bash_completion.d/sqleibniz
  # macOS:
  $ sqleibniz completion bash > $(brew --prefix)/etc/bash_completion.d/sqleibniz

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ sqleibniz completion zsh > "${fpath[1]}/_sqleibniz"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ sqleibniz completion fish | source

  # To load completions for each session, execute once:
  $ sqleibniz completion fish > ~/.config/fish/completions/sqleibniz.fish

PowerShell:
  PS> sqleibniz completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> sqleibniz completion powershell > sqleibniz.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}

package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqleibniz/pkg/format"
	"github.com/leapstack-labs/sqleibniz/pkg/lint"
)

// stdinName names standard input in diagnostics.
const stdinName = "<stdin>"

// FmtOptions holds options for the fmt command.
type FmtOptions struct {
	Write bool // Rewrite files in place
}

// NewFmtCommand creates the fmt command.
func NewFmtCommand() *cobra.Command {
	opts := &FmtOptions{}
	cmd := &cobra.Command{
		Use:   "fmt [paths...]",
		Short: "Print statements as canonical SQL",
		Long: `Parse SQL files and print every recovered statement as canonical SQL:
upper case keywords, single spaces and one statement per line.

Statements that fail to parse are left out, so --write refuses to rewrite
files with diagnostics. Without paths, SQL is read from stdin.`,
		Example: `  # Print canonical SQL
  sqleibniz fmt schema.sql

  # Rewrite files in place
  sqleibniz fmt -w migrations/*.sql

  # Format stdin
  echo "vacuum main into 'x.db'" | sqleibniz fmt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(cmd, args, opts)
		},
		Annotations: analysisAnnotations(),
	}

	cmd.Flags().BoolVarP(&opts.Write, "write", "w", false, "Rewrite files in place instead of printing")

	return cmd
}

func runFmt(cmd *cobra.Command, paths []string, opts *FmtOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer
	analyzer, err := cmdCtx.NewAnalyzer()
	if err != nil {
		return err
	}

	if len(paths) == 0 {
		if opts.Write {
			return fmt.Errorf("--write needs file paths")
		}
		src, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		res, err := analyzer.Analyze(cmd.Context(), stdinName, src)
		if err != nil {
			return err
		}
		return printFormatted(cmdCtx, res)
	}

	results, err := analyzer.AnalyzeFiles(cmd.Context(), paths, cmdCtx.Cfg.Jobs)
	if err != nil {
		return err
	}

	failed := false
	for _, res := range results {
		if !opts.Write {
			if err := printFormatted(cmdCtx, res); err != nil {
				failed = true
			}
			continue
		}
		if !res.OK() {
			r.FileResult(res)
			r.Error(fmt.Sprintf("not rewriting %s: %d diagnostic(s)", res.File, len(res.Diagnostics)))
			failed = true
			continue
		}
		if err := writeFormatted(res); err != nil {
			return err
		}
		cmdCtx.Logger.Debug("formatted file", "file", res.File)
	}

	if failed {
		return ErrVerificationFailed
	}
	return nil
}

// printFormatted prints the canonical SQL of res and the diagnostics of any
// statement left out. It returns ErrVerificationFailed when res has
// diagnostics.
func printFormatted(cmdCtx *CommandContext, res *lint.Result) error {
	r := cmdCtx.Renderer
	r.Printf("%s", format.Format(res.Nodes))
	if res.OK() {
		return nil
	}
	// Diagnostics go to stderr so stdout stays valid SQL.
	for _, d := range res.Diagnostics {
		_, _ = fmt.Fprintln(r.ErrWriter(), d.String())
	}
	return ErrVerificationFailed
}

func writeFormatted(res *lint.Result) error {
	formatted := format.Format(res.Nodes)
	info, err := os.Stat(res.File)
	if err != nil {
		return fmt.Errorf("stat %s: %w", res.File, err)
	}
	if err := os.WriteFile(res.File, []byte(formatted), info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing %s: %w", res.File, err)
	}
	return nil
}

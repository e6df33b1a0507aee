package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqleibniz/internal/cli/output"
	"github.com/leapstack-labs/sqleibniz/pkg/format"
	"github.com/leapstack-labs/sqleibniz/pkg/lint"
)

// Errors returned to make the CLI exit with status 1. They are reported
// through the renderer already, so the caller prints nothing more.
var (
	ErrVerificationFailed = errors.New("verification failed")
	ErrNoSources          = errors.New("no source file(s) provided")
)

// RunLint analyses paths and reports every diagnostic, the trees when asked
// for, and a summary. It returns ErrVerificationFailed when any file has
// diagnostics left after filtering.
func RunLint(cmd *cobra.Command, paths []string) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	if len(paths) == 0 {
		r.Error("no source file(s) provided, exiting")
		return ErrNoSources
	}

	analyzer, err := cmdCtx.NewAnalyzer()
	if err != nil {
		return err
	}
	disabled := analyzer.Config().Disabled()

	jsonMode := r.EffectiveMode() == output.ModeJSON
	if !jsonMode {
		r.DisabledRules(disabled)
	}

	results, err := analyzer.AnalyzeFiles(cmd.Context(), paths, cmdCtx.Cfg.Jobs)
	if err != nil {
		return err
	}

	if jsonMode {
		if err := r.JSON(output.NewReport(results, disabled)); err != nil {
			return err
		}
	} else {
		renderLintResults(r, results, cmdCtx.Cfg.AST)
	}

	for _, res := range results {
		if !res.OK() {
			return ErrVerificationFailed
		}
	}
	return nil
}

func renderLintResults(r *output.Renderer, results []*lint.Result, showAST bool) {
	for _, res := range results {
		r.FileResult(res)
		if showAST {
			renderAST(r, res)
		}
	}
	r.Summary(results)
}

// renderAST prints the recovered statements of res as a table followed by
// the indented node outline.
func renderAST(r *output.Renderer, res *lint.Result) {
	r.Banner("AST " + res.File)
	writeStatementTable(r.Writer(), res)
	if tree := format.Tree(res.Nodes); tree != "" {
		r.Println()
		r.Printf("%s", tree)
	}
}

// writeStatementTable lists one row per statement slot. Slots the parser
// could not recover are shown as such.
func writeStatementTable(w io.Writer, res *lint.Result) {
	if len(res.Nodes) == 0 {
		_, _ = fmt.Fprintln(w, "(0 statements)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Kind", "Line", "Statement"})

	for i, n := range res.Nodes {
		if n == nil {
			t.AppendRow(table.Row{i + 1, "-", "-", "(not recovered)"})
			continue
		}
		stmt := strings.Join(strings.Fields(format.Statement(n)), " ")
		t.AppendRow(table.Row{i + 1, n.Kind().String(), n.Token().Line + 1, stmt})
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d statements)\n", len(res.Nodes))
}

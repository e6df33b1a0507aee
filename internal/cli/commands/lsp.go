package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqleibniz/internal/lsp"
)

// NewLSPCommand creates the lsp command.
func NewLSPCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start the LSP server for editor integration.

The server communicates over stdin/stdout using JSON-RPC. Documents are
analysed on open, change and save with the same settings, configuration
script and hooks as the command line.`,
		Example: `  # Start LSP server (usually called by an editor)
  sqleibniz lsp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return RunLSP(cmd, version)
		},
		Annotations: analysisAnnotations(),
	}

	return cmd
}

// RunLSP serves the language server on stdin and stdout until the client
// exits.
func RunLSP(cmd *cobra.Command, version string) error {
	cmdCtx := NewCommandContext(cmd)
	analyzer, err := cmdCtx.NewAnalyzer()
	if err != nil {
		return err
	}

	server := lsp.NewServerWithLogger(os.Stdin, os.Stdout, cmdCtx.Logger,
		lsp.WithAnalyzer(analyzer),
		lsp.WithVersion(version),
	)
	return server.Run()
}

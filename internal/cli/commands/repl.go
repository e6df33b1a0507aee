package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqleibniz/internal/cli/output"
	"github.com/leapstack-labs/sqleibniz/pkg/format"
	"github.com/leapstack-labs/sqleibniz/pkg/lint"
	"github.com/leapstack-labs/sqleibniz/pkg/token"
)

const (
	replPrompt     = "sqleibniz> "
	replContPrompt = "       ...> "
	replSource     = "repl.sql"
)

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Analyse SQL interactively",
		Long: `Start an interactive session. Input is collected until a line ends with
a semicolon, then analysed with the current settings and configuration
script. Valid input is echoed as canonical SQL.

Type .help for commands, .quit to exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd)
		},
		Annotations: analysisAnnotations(),
	}

	return cmd
}

func runREPL(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)
	analyzer, err := cmdCtx.NewAnalyzer()
	if err != nil {
		return err
	}
	session := newREPLSession(cmdCtx.Renderer, analyzer)
	session.showAST = cmdCtx.Cfg.AST

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     replHistoryFile(),
		AutoComplete:    newREPLCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	cmdCtx.Renderer.Println("sqleibniz REPL, type .help for commands, .quit to exit")
	cmdCtx.Renderer.Println()

	ctx := cmd.Context()
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			session.reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		if quit := session.feed(ctx, line); quit {
			return nil
		}
		if session.buffering() {
			rl.SetPrompt(replContPrompt)
		} else {
			rl.SetPrompt(replPrompt)
		}
	}
}

// replHistoryFile returns the history path in the user cache directory, or
// "" to disable history.
func replHistoryFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "sqleibniz")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return ""
	}
	return filepath.Join(dir, "repl_history")
}

// newREPLCompleter completes dot commands and keywords.
func newREPLCompleter() *readline.PrefixCompleter {
	items := []readline.PrefixCompleterInterface{
		readline.PcItem(".help"),
		readline.PcItem(".rules"),
		readline.PcItem(".ast"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	}
	for _, kw := range token.Keywords() {
		items = append(items, readline.PcItem(kw))
	}
	return readline.NewPrefixCompleter(items...)
}

// replSession accumulates input and analyses complete statements.
type replSession struct {
	r        *output.Renderer
	analyzer *lint.Analyzer
	buf      strings.Builder
	showAST  bool
}

func newREPLSession(r *output.Renderer, analyzer *lint.Analyzer) *replSession {
	return &replSession{r: r, analyzer: analyzer}
}

func (s *replSession) reset() {
	s.buf.Reset()
}

func (s *replSession) buffering() bool {
	return s.buf.Len() > 0
}

// feed handles one input line and reports whether the session should end.
func (s *replSession) feed(ctx context.Context, line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" && !s.buffering() {
		return false
	}

	// Handle dot-commands
	if !s.buffering() && strings.HasPrefix(trimmed, ".") {
		return s.dotCommand(trimmed)
	}

	// Accumulate multi-line SQL until semicolon
	s.buf.WriteString(line)
	s.buf.WriteString("\n")
	if !strings.HasSuffix(trimmed, ";") {
		return false
	}

	src := s.buf.String()
	s.buf.Reset()
	s.evaluate(ctx, src)
	return false
}

func (s *replSession) evaluate(ctx context.Context, src string) {
	res, err := s.analyzer.Analyze(ctx, replSource, []byte(src))
	if err != nil {
		s.r.Error(err.Error())
		return
	}

	for i := range res.Diagnostics {
		s.r.Diagnostic(&res.Diagnostics[i], res.Source)
	}
	for _, f := range res.Findings {
		s.r.Warning(fmt.Sprintf("%s[%s]: %s", f.Severity, f.Hook, f.Message))
	}
	if res.OK() {
		s.r.Printf("%s", format.Format(res.Nodes))
		if res.Ignored > 0 {
			s.r.Muted(fmt.Sprintf("%d diagnostic(s) ignored", res.Ignored))
		}
	}
	if s.showAST {
		s.r.Printf("%s", format.Tree(res.Nodes))
	}
}

func (s *replSession) dotCommand(line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.r.Writer())

	case ".rules":
		for _, rule := range s.analyzer.Config().Disabled() {
			s.r.Printf("%s (disabled)\n", rule)
		}
		if len(s.analyzer.Config().Disabled()) == 0 {
			s.r.Println("all rules enabled")
		}

	case ".ast":
		s.showAST = !s.showAST
		state := "off"
		if s.showAST {
			state = "on"
		}
		s.r.Printf("ast output %s\n", state)

	case ".clear":
		s.r.Printf("\033[H\033[2J")

	default:
		s.r.Error(fmt.Sprintf("unknown command: %s (type .help for commands)", command))
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .rules          List disabled rules
  .ast            Toggle printing the syntax tree
  .clear          Clear the screen
  .quit / .exit   Exit the REPL

Tips:
  - Input is analysed once a line ends with a semicolon (;)
  - Ctrl+C discards the current input
  - Tab completes keywords and commands
`
	_, _ = fmt.Fprintln(w, help)
}

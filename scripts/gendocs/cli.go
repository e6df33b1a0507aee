package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/sqleibniz/internal/cli"
	"github.com/leapstack-labs/sqleibniz/internal/cli/commands"
	"github.com/leapstack-labs/sqleibniz/internal/cli/config"
	"github.com/leapstack-labs/sqleibniz/pkg/diag"
)

// settingFlags names the flag feeding a settings key when it is not the
// key's own flag.
var settingFlags = map[string]string{"disabled_rules": "disable"}

// maxListedValues bounds how many completion values a flag row lists.
const maxListedValues = 5

// cliReference documents the command tree of one root command.
type cliReference struct {
	root *cobra.Command
}

// generateCLIDocs writes index.md and one page per documented command.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ref := &cliReference{root: cli.NewRootCmd()}
	pages := map[string][]byte{"index.md": ref.indexPage()}
	for _, cmd := range ref.documented() {
		pages[cmd.Name()+".md"] = ref.commandPage(cmd)
	}

	names := make([]string, 0, len(pages))
	for name := range pages {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(outDir, name), pages[name], 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		log.Printf("  Generated %s", name)
	}
	return nil
}

// documented returns the subcommands that get a page.
func (ref *cliReference) documented() []*cobra.Command {
	var cmds []*cobra.Command
	for _, cmd := range ref.root.Commands() {
		if cmd.Hidden || cmd.Name() == "help" || cmd.Name() == "__complete" {
			continue
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

func (ref *cliReference) indexPage() []byte {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for sqleibniz")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph(ref.root.Long)

	w.Header(2, "Installation")
	w.CodeBlock("bash", "go install github.com/leapstack-labs/sqleibniz/cmd/sqleibniz@latest")

	w.Header(2, "Usage")
	w.CodeBlock("bash", usageLine(ref.root)+"\nsqleibniz <command> [options]")
	if ref.root.Example != "" {
		w.CodeBlock("bash", dedent(ref.root.Example))
	}

	w.Header(2, "Commands")
	var rows [][]string
	for _, cmd := range ref.documented() {
		link := fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name())
		rows = append(rows, []string{link, cleanDescription(cmd.Short), analysesMark(cmd)})
	}
	w.Table([]string{"Command", "Description", "Analyses SQL"}, rows)

	w.Header(2, "Global Options")
	w.Paragraph("These flags are available for all commands:")
	ref.flagTable(w, ref.root.PersistentFlags())
	if ref.root.LocalNonPersistentFlags().HasFlags() {
		w.Paragraph("Only without a command:")
		ref.flagTable(w, ref.root.LocalNonPersistentFlags())
	}

	w.Header(2, "Settings")
	w.Paragraph(fmt.Sprintf("Settings are read from %s (found in the working directory or a parent, or named with %s), then from the environment, then from flags. Later layers win.",
		InlineCode(config.DefaultSettingsFile), InlineCode("--settings")))
	w.Table([]string{"Key", "Environment", "Flag", "Default"}, ref.settingRows())
	w.Paragraph(fmt.Sprintf("Rules given with %s are added to %s instead of replacing them.", InlineCode("--disable"), InlineCode("disabled_rules")))

	w.Header(2, "Exit Status")
	w.Table([]string{"Code", "Meaning"}, exitRows())

	return w.Bytes()
}

func (ref *cliReference) commandPage(cmd *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter(cmd.Name(), cmd.Short)
	w.GeneratedMarker()

	w.Header(1, cmd.Name())
	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}

	w.Header(2, "Usage")
	w.CodeBlock("bash", usageLine(cmd))

	if cmd.HasLocalFlags() {
		w.Header(2, "Options")
		ref.flagTable(w, cmd.LocalFlags())
	}
	if cmd.HasInheritedFlags() {
		w.Header(2, "Global Options")
		ref.flagTable(w, cmd.InheritedFlags())
	}

	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", dedent(cmd.Example))
	}

	if analyses(cmd) {
		w.Header(2, "Rules")
		w.Paragraph(fmt.Sprintf("%s reports diagnostics of every rule below unless the rule is disabled with %s, %s or the configuration script.",
			InlineCode(cmd.CommandPath()), InlineCode("-D"), InlineCode("disabled_rules")))
		w.Table([]string{"Rule", "Group", "Disable"}, ruleRows())
	}

	return w.Bytes()
}

// flagTable writes one row per visible flag. Flags with a completion
// function list the values it offers.
func (ref *cliReference) flagTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		short := ""
		if f.Shorthand != "" {
			short = InlineCode("-" + f.Shorthand)
		}
		rows = append(rows, []string{
			InlineCode("--" + f.Name),
			short,
			defaultCell(f),
			ref.valuesCell(f.Name),
			cleanDescription(f.Usage),
		})
	})
	w.Table([]string{"Option", "Short", "Default", "Values", "Description"}, rows)
}

func (ref *cliReference) valuesCell(name string) string {
	complete, ok := ref.root.GetFlagCompletionFunc(name)
	if !ok {
		return ""
	}
	values, _ := complete(ref.root, nil, "")
	if len(values) > maxListedValues {
		return fmt.Sprintf("%d names, see [rules](/rules/)", len(values))
	}
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = InlineCode(v)
	}
	return strings.Join(cells, ", ")
}

func defaultCell(f *pflag.Flag) string {
	switch {
	case f.DefValue == "", f.DefValue == "[]":
		return ""
	case f.Value.Type() == "string":
		return InlineCode(f.DefValue)
	default:
		return f.DefValue
	}
}

// settingRows pairs every settings key with its environment variable and
// flag.
func (ref *cliReference) settingRows() [][]string {
	pf := ref.root.PersistentFlags()
	var rows [][]string
	for _, key := range config.SettingKeys() {
		name, ok := settingFlags[key]
		if !ok {
			name = strings.ReplaceAll(key, "_", "-")
		}
		flagCell, def := "", ""
		if f := pf.Lookup(name); f != nil && (config.FlagKey(f.Name) == key || ok) {
			flagCell = InlineCode("--" + f.Name)
			def = defaultCell(f)
		}
		rows = append(rows, []string{InlineCode(key), InlineCode(config.EnvVar(key)), flagCell, def})
	}
	return rows
}

func exitRows() [][]string {
	return [][]string{
		{InlineCode("0"), "Every file verified"},
		{InlineCode("1"), commands.ErrVerificationFailed.Error() + ": diagnostics remain after disabled rules are removed"},
		{InlineCode("1"), commands.ErrNoSources.Error()},
		{InlineCode("1"), "Any other error, printed to stderr"},
	}
}

func ruleRows() [][]string {
	rules := diag.AllRules()
	rows := make([][]string, len(rules))
	for i, rule := range rules {
		name := rule.String()
		rows[i] = []string{
			fmt.Sprintf("[%s](/rules/#%s)", InlineCode(name), name),
			rule.Group(),
			InlineCode("-D " + name),
		}
	}
	return rows
}

func analyses(cmd *cobra.Command) bool {
	_, ok := cmd.Annotations[commands.AnalysisAnnotation]
	return ok
}

func analysesMark(cmd *cobra.Command) string {
	if analyses(cmd) {
		return "yes"
	}
	return ""
}

// usageLine is the command's use line prefixed with the program name.
func usageLine(cmd *cobra.Command) string {
	if cmd.HasSubCommands() && cmd.HasParent() {
		return cmd.CommandPath() + " <subcommand> [options]"
	}
	line := cmd.UseLine()
	if !strings.HasPrefix(line, "sqleibniz") {
		line = "sqleibniz " + line
	}
	return line
}

// dedent strips the indentation of the first non-blank line from every line.
func dedent(text string) string {
	lines := strings.Split(strings.Trim(text, "\n"), "\n")
	indent := ""
	for _, line := range lines {
		if trimmed := strings.TrimLeft(line, " \t"); trimmed != "" {
			indent = line[:len(line)-len(trimmed)]
			break
		}
	}
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, indent)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

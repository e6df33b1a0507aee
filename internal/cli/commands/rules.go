package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/sqleibniz/internal/cli/output"
	"github.com/leapstack-labs/sqleibniz/pkg/diag"
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Group  string // Filter by group
	Format string // Output format
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules [rule-name]",
		Short: "List diagnostic rules",
		Long: `List every diagnostic rule with its group and description.

Rule names are what -D/--disable, the disabled_rules setting and the
configuration script accept.`,
		Example: `  # List all rules
  sqleibniz rules

  # Show a single rule
  sqleibniz rules Semicolon

  # List lexical rules only
  sqleibniz rules --group lexical

  # Output as JSON
  sqleibniz rules --format json`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return ruleNames(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return showRule(cmd, args[0], opts)
			}
			return listRules(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Group, "group", "g", "", "Filter by group: lexical, syntactic")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")

	return cmd
}

func ruleNames() []string {
	all := diag.AllRules()
	names := make([]string, len(all))
	for i, r := range all {
		names[i] = r.String()
	}
	return names
}

func rulesRenderer(cmd *cobra.Command, opts *RulesOptions) *output.Renderer {
	r := NewCommandContext(cmd).Renderer
	// Override renderer if format flag is set
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}
	return r
}

func listRules(cmd *cobra.Command, opts *RulesOptions) error {
	r := rulesRenderer(cmd, opts)

	rules := filterRulesByGroup(diag.AllRules(), opts.Group)
	if opts.Group != "" && len(rules) == 0 {
		return fmt.Errorf("unknown rule group %q (want %s or %s)", opts.Group, diag.GroupLexical, diag.GroupSyntactic)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return listRulesJSON(r, rules)
	}
	listRulesText(r, rules)
	return nil
}

func filterRulesByGroup(rules []diag.Rule, group string) []diag.Rule {
	if group == "" {
		return rules
	}
	var filtered []diag.Rule
	for _, rule := range rules {
		if rule.Group() == group {
			filtered = append(filtered, rule)
		}
	}
	return filtered
}

func showRule(cmd *cobra.Command, name string, opts *RulesOptions) error {
	r := rulesRenderer(cmd, opts)

	rule, err := diag.ParseRule(name)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(rule.Info())
	}

	styles := r.Styles()
	titleCaser := cases.Title(language.English)
	r.Println(styles.Bold.Render(rule.String()))
	r.Printf("  %s %s\n", styles.Muted.Render("Group:"), titleCaser.String(rule.Group()))
	r.Printf("  %s %s\n", styles.Muted.Render("Description:"), rule.Description())
	return nil
}

// listRulesText outputs rules as a table.
func listRulesText(r *output.Renderer, rules []diag.Rule) {
	titleCaser := cases.Title(language.English)

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Rule", "Group", "Description"})
	for _, rule := range rules {
		t.AppendRow(table.Row{rule.String(), titleCaser.String(rule.Group()), rule.Description()})
	}
	t.Render()

	r.Println(r.Styles().Muted.Render("Disable rules with -D <rule> or disabled_rules in sqleibniz.yaml or leibniz.star"))
}

// RulesJSONOutput is the JSON output structure for rules listing.
type RulesJSONOutput struct {
	Rules []diag.RuleInfo `json:"rules"`
	Count struct {
		Lexical   int `json:"lexical"`
		Syntactic int `json:"syntactic"`
		Total     int `json:"total"`
	} `json:"count"`
}

// listRulesJSON outputs rules in JSON format.
func listRulesJSON(r *output.Renderer, rules []diag.Rule) error {
	jsonOutput := RulesJSONOutput{
		Rules: make([]diag.RuleInfo, 0, len(rules)),
	}

	for _, rule := range rules {
		jsonOutput.Rules = append(jsonOutput.Rules, rule.Info())
		if rule.Group() == diag.GroupLexical {
			jsonOutput.Count.Lexical++
		} else {
			jsonOutput.Count.Syntactic++
		}
	}
	jsonOutput.Count.Total = len(rules)

	return r.JSON(jsonOutput)
}

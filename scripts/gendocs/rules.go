package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/sqleibniz/internal/starlark"
	"github.com/leapstack-labs/sqleibniz/pkg/ast"
	"github.com/leapstack-labs/sqleibniz/pkg/diag"
)

// groupDescriptions provides human-readable descriptions for rule groups.
var groupDescriptions = map[string]string{
	diag.GroupLexical:   "Defects found while splitting the source into tokens.",
	diag.GroupSyntactic: "Defects found while parsing tokens into statements.",
}

// groupOrder is the order groups appear in on the rules page.
var groupOrder = []string{diag.GroupLexical, diag.GroupSyntactic}

// generateRuleDocs generates the rules reference.
func generateRuleDocs(outDir string) error {
	log.Printf("Generating rule docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	rules := diag.AllRules()
	if err := generateRulesIndex(outDir, rules); err != nil {
		return err
	}
	log.Printf("  Generated index.md")

	if err := generateConfigPage(outDir); err != nil {
		return err
	}
	log.Printf("  Generated configuration.md")

	return nil
}

// generateRulesIndex writes every rule grouped by lexical and syntactic.
func generateRulesIndex(outDir string, rules []diag.Rule) error {
	w := NewMarkdownWriter()

	w.Frontmatter("Rules", "Diagnostic rules reported by sqleibniz")
	w.GeneratedMarker()

	w.Header(1, "Rules")
	w.Paragraph(fmt.Sprintf("sqleibniz reports %d rules. Every diagnostic names its rule, and every rule can be disabled by that name.", len(rules)))

	grouped := groupRules(rules)
	for _, group := range groupOrder {
		groupRules := grouped[group]
		if len(groupRules) == 0 {
			continue
		}

		// Write group header with anchor
		w.Line(fmt.Sprintf("## %s {#%s}", capitalizeFirst(group), group))
		w.Newline()
		if desc, ok := groupDescriptions[group]; ok {
			w.Paragraph(desc)
		}

		for _, rule := range groupRules {
			writeRuleDoc(w, rule)
		}
	}

	return os.WriteFile(filepath.Join(outDir, "index.md"), w.Bytes(), 0600)
}

// generateConfigPage documents the ways to disable rules and the hook
// node kinds of the configuration script.
func generateConfigPage(outDir string) error {
	w := NewMarkdownWriter()

	w.Frontmatter("Configuration", "Disabling rules and registering hooks")
	w.GeneratedMarker()

	w.Header(1, "Configuration")

	w.Header(2, "Settings File")
	w.Paragraph("`sqleibniz.yaml` is searched for in the working directory and its parents:")
	w.CodeBlock("yaml", `config: leibniz.star
output: auto
jobs: 4
disabled_rules:
  - Unimplemented`)

	w.Header(2, "Configuration Script")
	w.Paragraph(fmt.Sprintf("%s is a Starlark script defining a %s dict:", InlineCode(starlark.DefaultConfigFile), InlineCode("leibniz")))
	w.CodeBlock("python", `def schema_vacuum(node):
    if node.text:
        return "vacuum of schema " + node.text

leibniz = {
    "disabled_rules": [rules.Semicolon, "Unimplemented"],
    "hooks": [
        {"name": "schema-vacuum", "node": kinds.vacuum, "hook": schema_vacuum},
    ],
}`)

	w.Header(3, "Node Kinds")
	w.Paragraph("Hooks run on every node of the given kind, or on every node when the kind is empty:")
	kinds := make([]string, 0, len(ast.Kinds()))
	for _, k := range ast.Kinds() {
		kinds = append(kinds, InlineCode(k.String()))
	}
	w.Paragraph(strings.Join(kinds, ", "))

	return os.WriteFile(filepath.Join(outDir, "configuration.md"), w.Bytes(), 0600)
}

// groupRules organizes rules by their group, keeping declaration order.
func groupRules(rules []diag.Rule) map[string][]diag.Rule {
	grouped := make(map[string][]diag.Rule)
	for _, r := range rules {
		grouped[r.Group()] = append(grouped[r.Group()], r)
	}
	return grouped
}

// capitalizeFirst capitalizes the first letter of a string.
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// writeRuleDoc writes the documentation for a single rule.
func writeRuleDoc(w *MarkdownWriter, rule diag.Rule) {
	w.Line(fmt.Sprintf("### %s {#%s}", rule, rule))
	w.Newline()

	w.Paragraph(cleanDescription(rule.Description()) + ".")

	w.Header(4, "Disable")
	w.CodeBlock("bash", "sqleibniz -D "+rule.String()+" file.sql")

	// Horizontal rule between rules for readability
	w.Line("---")
	w.Newline()
}

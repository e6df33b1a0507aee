// Package config provides settings management for the sqleibniz CLI.
//
// Settings are layered with koanf: built-in defaults, then sqleibniz.yaml,
// then SQLEIBNIZ_* environment variables, then explicitly set flags. The
// Starlark configuration script named by the config setting is a separate
// layer loaded by the commands.
package config

import (
	"strings"

	"github.com/leapstack-labs/sqleibniz/internal/starlark"
)

// Default values.
const (
	DefaultSettingsFile = "sqleibniz.yaml"
	DefaultScriptFile   = starlark.DefaultConfigFile
	DefaultOutput       = "auto"
	DefaultJobs         = 0
)

// settingsFiles are looked up, in order, when no settings file is given.
var settingsFiles = []string{"sqleibniz.yaml", "sqleibniz.yml"}

// Config holds all CLI settings.
type Config struct {
	// DisabledRules names rules whose diagnostics are withheld.
	DisabledRules []string `koanf:"disabled_rules"`
	// Disable holds rules disabled on the command line; they add to
	// DisabledRules instead of replacing them.
	Disable []string `koanf:"disable"`
	// Script is the path of the Starlark configuration script.
	Script       string `koanf:"config"`
	IgnoreConfig bool   `koanf:"ignore_config"`
	Silent       bool   `koanf:"silent"`
	OutputFormat string `koanf:"output"`
	// Jobs bounds how many files are analysed at once; 0 means no limit.
	Jobs    int  `koanf:"jobs"`
	Verbose bool `koanf:"verbose"`
	Trace   bool `koanf:"trace"`
	AST     bool `koanf:"ast"`

	// ScriptExplicit is set when the script path was given by the user
	// rather than defaulted, making a missing script an error.
	ScriptExplicit bool `koanf:"-"`
}

// Defaults returns the built-in settings.
func Defaults() *Config {
	return &Config{
		Script:       DefaultScriptFile,
		OutputFormat: DefaultOutput,
		Jobs:         DefaultJobs,
	}
}

// RuleNames returns the union of DisabledRules and Disable, without
// duplicates and in first seen order. Comma separated entries, as given by
// environment variables, are split.
func (c *Config) RuleNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, list := range [][]string{c.DisabledRules, c.Disable} {
		for _, entry := range list {
			for _, name := range strings.Split(entry, ",") {
				name = strings.TrimSpace(name)
				if name == "" || seen[name] {
					continue
				}
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

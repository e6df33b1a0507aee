package lint

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/sqleibniz/pkg/diag"
)

// Config controls which rules are reported.
type Config struct {
	// DisabledRules contains the rules whose diagnostics are ignored
	DisabledRules map[diag.Rule]bool
}

// NewConfig creates a default configuration with all rules enabled.
func NewConfig() *Config {
	return &Config{
		DisabledRules: make(map[diag.Rule]bool),
	}
}

// IsDisabled returns true if diagnostics of the rule should be ignored.
func (c *Config) IsDisabled(rule diag.Rule) bool {
	if c == nil {
		return false
	}
	return c.DisabledRules[rule]
}

// Disable disables rules.
func (c *Config) Disable(rules ...diag.Rule) *Config {
	for _, r := range rules {
		c.DisabledRules[r] = true
	}
	return c
}

// DisableNames disables rules by name. Unknown names leave the config
// unchanged and return an error wrapping diag.ErrUnknownRule.
func (c *Config) DisableNames(names []string) error {
	rules := make([]diag.Rule, 0, len(names))
	for _, name := range names {
		r, err := diag.ParseRule(name)
		if err != nil {
			return fmt.Errorf("disabling rule: %w", err)
		}
		rules = append(rules, r)
	}
	c.Disable(rules...)
	return nil
}

// Merge disables every rule disabled in other.
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}
	for r, disabled := range other.DisabledRules {
		if disabled {
			c.DisabledRules[r] = true
		}
	}
	return c
}

// Disabled returns the disabled rules in declaration order.
func (c *Config) Disabled() []diag.Rule {
	if c == nil {
		return nil
	}
	var rules []diag.Rule
	for r, disabled := range c.DisabledRules {
		if disabled {
			rules = append(rules, r)
		}
	}
	slices.Sort(rules)
	return rules
}

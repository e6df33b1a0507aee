package config

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/sqleibniz/internal/cli/output"
	"github.com/leapstack-labs/sqleibniz/pkg/lint"
)

// Validate checks the settings and returns every problem found.
func (c *Config) Validate() error {
	var errs []error

	if _, err := output.ParseMode(c.OutputFormat); err != nil {
		errs = append(errs, fmt.Errorf("output: %w", err))
	}
	if c.Jobs < 0 {
		errs = append(errs, fmt.Errorf("jobs must not be negative, got %d", c.Jobs))
	}
	if c.Script == "" && !c.IgnoreConfig {
		errs = append(errs, errors.New("config must name a script, or set ignore_config"))
	}
	if _, err := c.LintConfig(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// LintConfig returns the rule configuration the settings declare.
func (c *Config) LintConfig() (*lint.Config, error) {
	cfg := lint.NewConfig()
	if err := cfg.DisableNames(c.RuleNames()); err != nil {
		return nil, fmt.Errorf("disabled_rules: %w", err)
	}
	return cfg, nil
}

package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// envPrefix prefixes every environment variable read as a setting.
const envPrefix = "SQLEIBNIZ_"

// maxUpwardSearchLevels limits how far up the directory tree to search for settings files.
const maxUpwardSearchLevels = 10

// Package-level koanf instance and settings file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded settings for access by commands
)

// settingsIn returns the settings file in dir, or "".
func settingsIn(dir string) string {
	for _, name := range settingsFiles {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findSettingsUpward searches upward from startDir for a settings file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findSettingsUpward(startDir string) string {
	dir := startDir
	for range maxUpwardSearchLevels {
		if found := settingsIn(dir); found != "" {
			return found
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// findSettingsFile finds the settings file to use.
// Priority: explicit path > sqleibniz.yaml or .yml in the working directory or a parent.
func findSettingsFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return findSettingsUpward(cwd)
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// FlagKey maps a flag name to its settings key: kebab-case becomes snake_case.
func FlagKey(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// EnvVar returns the environment variable read for a settings key.
func EnvVar(key string) string {
	return envPrefix + strings.ToUpper(key)
}

// defaultValues is the defaults layer keyed by settings key.
func defaultValues(def *Config) map[string]interface{} {
	return map[string]interface{}{
		"config":         def.Script,
		"output":         def.OutputFormat,
		"jobs":           def.Jobs,
		"ignore_config":  false,
		"silent":         false,
		"verbose":        false,
		"trace":          false,
		"ast":            false,
		"disabled_rules": []string{},
	}
}

// SettingKeys returns every key accepted in the settings file, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, 9)
	for key := range defaultValues(Defaults()) {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads settings from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > settings file > defaults.
// settingsFile may be empty to search the working directory and its parents.
func LoadConfig(settingsFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	// 1. Load defaults
	def := Defaults()
	if err := k.Load(confmap.Provider(defaultValues(def), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load settings file
	configFileUsed = findSettingsFile(settingsFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading settings file %s: %w", configFileUsed, err)
		}
	}
	fileSetScript := configFileUsed != "" && k.Exists("config") && k.String("config") != def.Script

	// 3. Load environment variables (SQLEIBNIZ_ prefix)
	// Transform: SQLEIBNIZ_DISABLED_RULES -> disabled_rules
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}
	_, envSetScript := os.LookupEnv(envPrefix + "CONFIG")

	// 4. Load flags (highest priority - overrides env vars and settings file)
	flagSetScript := false
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			key := FlagKey(f.Name)
			if key == "config" {
				flagSetScript = true
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode settings: %w", err)
	}
	cfg.ScriptExplicit = fileSetScript || envSetScript || flagSetScript

	// 6. A script named in the settings file is relative to that file
	if fileSetScript && !envSetScript && !flagSetScript {
		cfg.Script = resolvePathRelativeTo(cfg.Script, filepath.Dir(configFileUsed))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	// Store settings for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// GetConfigFileUsed returns the path to the settings file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded settings.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// NewLogger builds the CLI logger: text records on w, Debug level when
// verbose, Warn otherwise.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

package starlark

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/leapstack-labs/sqleibniz/pkg/ast"
	"github.com/leapstack-labs/sqleibniz/pkg/diag"
	"github.com/leapstack-labs/sqleibniz/pkg/lint"
)

// DefaultConfigFile is the script looked up in the working directory.
const DefaultConfigFile = "leibniz.star"

// configGlobal is the global the script must define.
const configGlobal = "leibniz"

// ErrNoConfig is returned by Load when the script does not exist.
var ErrNoConfig = errors.New("configuration script not found")

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
}

// ScriptError is a failure while loading the script or running one of its
// hooks.
type ScriptError struct {
	Path string
	Hook string // empty while loading
	Err  error
}

func (e *ScriptError) Error() string {
	if e.Hook != "" {
		return fmt.Sprintf("%s: hook %q: %v", e.Path, e.Hook, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// Hook is a user function called for every tree node of kind Node, or for
// every node when Node is empty.
type Hook struct {
	Name string
	Node string
	Fn   starlark.Callable
}

// Config is the evaluated configuration script.
type Config struct {
	Path          string
	DisabledRules []diag.Rule
	Hooks         []Hook
}

// scriptConfig mirrors the leibniz dict.
type scriptConfig struct {
	DisabledRules []string     `mapstructure:"disabled_rules"`
	Hooks         []hookConfig `mapstructure:"hooks"`
}

type hookConfig struct {
	Name string `mapstructure:"name"`
	Node string `mapstructure:"node"`
	Hook any    `mapstructure:"hook"`
}

// Load reads and evaluates the script at path. A missing file yields an
// error wrapping ErrNoConfig.
func Load(path string, logger *slog.Logger) (*Config, error) {
	src, err := os.ReadFile(path) //nolint:gosec // G304: path is the user supplied configuration script
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoConfig, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return LoadSource(path, src, logger)
}

// LoadSource evaluates script source. path is used in error messages.
// print() output is logged at info level.
func LoadSource(path string, src []byte, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	thread := &starlark.Thread{
		Name:  "load:" + path,
		Print: logPrint(logger),
	}
	globals, err := starlark.ExecFileOptions(fileOptions, thread, path, src, Predeclared())
	if err != nil {
		return nil, &ScriptError{Path: path, Err: err}
	}
	// hooks run concurrently, their captured globals must be immutable
	globals.Freeze()

	value, ok := globals[configGlobal]
	if !ok {
		return nil, &ScriptError{Path: path, Err: fmt.Errorf("global %q is not defined", configGlobal)}
	}
	dict, ok := value.(*starlark.Dict)
	if !ok {
		return nil, &ScriptError{Path: path, Err: fmt.Errorf("global %q must be a dict, got %s", configGlobal, value.Type())}
	}

	raw, err := ToGo(dict)
	if err != nil {
		return nil, &ScriptError{Path: path, Err: err}
	}
	var sc scriptConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &sc,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, &ScriptError{Path: path, Err: fmt.Errorf("decoding %s: %w", configGlobal, err)}
	}

	cfg := &Config{Path: path}
	for _, name := range sc.DisabledRules {
		r, err := diag.ParseRule(name)
		if err != nil {
			return nil, &ScriptError{Path: path, Err: err}
		}
		cfg.DisabledRules = append(cfg.DisabledRules, r)
	}

	for i, h := range sc.Hooks {
		fn, ok := h.Hook.(starlark.Callable)
		if !ok {
			return nil, &ScriptError{Path: path, Err: fmt.Errorf("hooks[%d]: \"hook\" must be callable", i)}
		}
		if h.Node != "" {
			if _, ok := ast.ParseKind(h.Node); !ok {
				return nil, &ScriptError{Path: path, Err: fmt.Errorf("hooks[%d]: unknown node kind %q", i, h.Node)}
			}
		}
		name := h.Name
		if name == "" {
			name = fn.Name()
		}
		cfg.Hooks = append(cfg.Hooks, Hook{Name: name, Node: h.Node, Fn: fn})
	}

	logger.Debug("loaded configuration script",
		slog.String("path", path),
		slog.Int("disabled_rules", len(cfg.DisabledRules)),
		slog.Int("hooks", len(cfg.Hooks)),
	)
	return cfg, nil
}

// LintConfig returns the rule configuration the script declares.
func (c *Config) LintConfig() *lint.Config {
	return lint.NewConfig().Disable(c.DisabledRules...)
}

func logPrint(logger *slog.Logger) PrintFunc {
	return func(thread *starlark.Thread, msg string) {
		logger.Info(msg, slog.String("thread", thread.Name))
	}
}

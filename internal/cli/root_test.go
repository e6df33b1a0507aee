package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqleibniz/internal/cli/commands"
	"github.com/leapstack-labs/sqleibniz/internal/cli/config"
	"github.com/leapstack-labs/sqleibniz/internal/cli/output"
	"github.com/leapstack-labs/sqleibniz/internal/testutil"
)

// execute runs the root command with args in an empty working directory.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cmd := NewRootCmd()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCmd_Metadata(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "sqleibniz", cmd.Name())
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)

	for _, flag := range []string{"settings", "config", "ignore-config", "silent", "disable", "output", "jobs", "verbose", "trace", "ast"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "persistent flag %q should exist", flag)
	}
	assert.NotNil(t, cmd.Flags().Lookup("lsp"))

	for _, short := range []string{"c", "i", "s", "D", "o", "j", "v"} {
		assert.NotNil(t, cmd.PersistentFlags().ShorthandLookup(short), "shorthand -%s should exist", short)
	}
}

func TestRootCmd_Help(t *testing.T) {
	out, _, err := execute(t, "--help")
	require.NoError(t, err)

	for _, sub := range []string{"version", "rules", "fmt", "watch", "repl", "lsp", "completion"} {
		assert.Contains(t, out, sub)
	}
}

func TestRootCmd_Version(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sqleibniz v"+Version)

	out, _, err = execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "sqleibniz "+Version)
}

func TestRootCmd_NoSources(t *testing.T) {
	_, errOut, err := execute(t)
	require.ErrorIs(t, err, commands.ErrNoSources)
	assert.Contains(t, errOut, "no source file(s) provided, exiting")
}

func TestRootCmd_Lint(t *testing.T) {
	_, paths := testutil.SetupSQLFiles(t, map[string]string{
		"bad.sql":  testutil.BrokenSQL,
		"good.sql": testutil.ValidSQL,
	})

	out, _, err := execute(t, paths...)
	require.ErrorIs(t, err, commands.ErrVerificationFailed)
	assert.Contains(t, out, "=> 1/2 Files verified successfully, 1 verification failed.")

	out, _, err = execute(t, paths[1])
	require.NoError(t, err)
	assert.Contains(t, out, "=> 1/1 Files verified successfully, 0 verification failed.")
}

func TestRootCmd_SettingsFile(t *testing.T) {
	dir, paths := testutil.SetupSQLFiles(t, map[string]string{"bad.sql": testutil.BrokenSQL})
	settings := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(settings, []byte(`
output: json
disabled_rules: [Syntax, UnknownKeyword, Unimplemented, Semicolon]
`), 0o644))

	out, _, err := execute(t, "--settings", settings, paths[0])
	require.NoError(t, err)

	var report output.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.Summary.Verified)
	assert.Equal(t, 4, report.Summary.Ignored)
}

func TestRootCmd_InvalidSettings(t *testing.T) {
	_, _, err := execute(t, "-o", "yaml", "x.sql")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid settings")

	_, _, err = execute(t, "-D", "NoSuchRule", "x.sql")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NoSuchRule")
}

func TestRootCmd_Completion(t *testing.T) {
	out, _, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "sqleibniz")

	_, _, err = execute(t, "completion", "tcsh")
	require.Error(t, err)
}

func TestGetConfigAndRenderer_Defaults(t *testing.T) {
	ctx := t.Context()

	assert.Equal(t, config.Defaults(), GetConfig(ctx))
	assert.Equal(t, output.ModeAuto, GetRenderer(ctx).Mode())
}

package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqleibniz/internal/cli/config"
)

// testCommand is a command whose settings were loaded from its flags, the
// way the root command does it.
type testCommand struct {
	cmd    *cobra.Command
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

// newTestCommand changes into an empty directory, parses args as settings
// flags and loads the settings. A non-empty script is written to the
// default configuration script in that directory.
func newTestCommand(t *testing.T, script string, args ...string) *testCommand {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)
	if script != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultScriptFile), []byte(script), 0o644))
	}

	cmd := &cobra.Command{Use: "test"}
	fs := cmd.Flags()
	fs.StringP("config", "c", config.DefaultScriptFile, "")
	fs.BoolP("ignore-config", "i", false, "")
	fs.BoolP("silent", "s", false, "")
	fs.StringSliceP("disable", "D", nil, "")
	fs.StringP("output", "o", config.DefaultOutput, "")
	fs.IntP("jobs", "j", config.DefaultJobs, "")
	fs.BoolP("verbose", "v", false, "")
	fs.Bool("trace", false, "")
	fs.Bool("ast", false, "")
	require.NoError(t, fs.Parse(args))

	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	_, err := config.LoadConfig("", fs)
	require.NoError(t, err)

	tc := &testCommand{cmd: cmd, out: new(bytes.Buffer), errOut: new(bytes.Buffer)}
	cmd.SetOut(tc.out)
	cmd.SetErr(tc.errOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetContext(context.Background())
	return tc
}

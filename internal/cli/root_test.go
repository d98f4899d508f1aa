package cli

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "spread", cmd.Use)
	assert.Contains(t, cmd.Long, "reference objects")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"load", "validate", "play", "interactive", "replay", "test", "trace"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	logFlag := cmd.PersistentFlags().Lookup("log-file")
	require.NotNil(t, logFlag)
	assert.Equal(t, "", logFlag.DefValue)
}

func TestSessionCommandFlags(t *testing.T) {
	for _, name := range []string{"play", "interactive"} {
		t.Run(name, func(t *testing.T) {
			cmd := NewRootCommand()
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)

			for _, flag := range []string{"db", "rig", "count", "seed", "mode", "matrices"} {
				assert.NotNil(t, sub.Flags().Lookup(flag), "missing --%s", flag)
			}
			assert.Equal(t, "3", sub.Flags().Lookup("count").DefValue)
			assert.Equal(t, "linear", sub.Flags().Lookup("mode").DefValue)
		})
	}

	cmd := NewRootCommand()
	interactive, _, err := cmd.Find([]string{"interactive"})
	require.NoError(t, err)
	assert.NotNil(t, interactive.Flags().Lookup("metrics-addr"))
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	updateFlag := testCmd.Flags().Lookup("update")
	require.NotNil(t, updateFlag)
	assert.Equal(t, "false", updateFlag.DefValue)

	filterFlag := testCmd.Flags().Lookup("filter")
	require.NotNil(t, filterFlag)
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "invalid", "validate", "."})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootCommand_LogFile(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	logPath := filepath.Join(t.TempDir(), "spread.log")
	rigDir := writeRig(t, pairRig)

	cmd := NewRootCommand()
	out, err := execute(t, cmd, "--verbose", "--log-file", logPath, "validate", rigDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Rig valid")

	_, err = os.Stat(logPath)
	require.NoError(t, err, "log file should be created")
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "simevents version "))
}

func TestBindingsCommand(t *testing.T) {
	out, err := execute(t, "bindings")
	require.NoError(t, err)
	assert.Contains(t, out, "AP_APR_HOLD_ON")
	assert.Contains(t, out, "HEADING_SLOT_INDEX_SET")
}

func TestRunCommand_Steps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simevents.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: error\n"), 0o644))

	out, err := execute(t, "run", "--config", path, "--steps", "2", "--period", "1ms", "--output", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "step 1: -")
	assert.Contains(t, out, "step 2: -")
}

func TestRunCommand_InvalidFlags(t *testing.T) {
	// Flags persist on the shared root command, so every call sets what it relies on.
	_, err := execute(t, "run", "--config", "", "--backend", "memory", "--log-level", "loud", "--steps", "1")
	assert.ErrorContains(t, err, "loud")

	_, err = execute(t, "run", "--config", "", "--log-level", "error", "--backend", "serial", "--steps", "1")
	assert.ErrorContains(t, err, "serial")
}

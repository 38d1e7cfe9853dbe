package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "pvm version "))

	// Flags stick to the command tree between executions, so --dir is only
	// used once positional directories are no longer needed.
	_, err = execute(t, "", "validate", t.TempDir())
	assert.ErrorContains(t, err, "validation failed")

	out, err = execute(t, "", "validate", "../../examples/processes")
	require.NoError(t, err)
	assert.Contains(t, out, "expense")

	out, err = execute(t, "", "graph", "--dir", "../../examples/processes", "-p", "order")
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")

	out, err = execute(t, "\n", "run", "../../examples/processes", "-p", "expense", "--headless", "--vars", `{"amount": 3}`)
	require.NoError(t, err)
	assert.Contains(t, out, "ended")
}

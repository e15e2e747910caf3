package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		suggestAll = false
	})

	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "version")
	assert.True(t, strings.HasPrefix(out, "Stock Analyzer dev"))
	assert.Contains(t, out, "Git commit:")
}

func TestSuggestCommand(t *testing.T) {
	out := execute(t, "suggest", "AAP")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "TICKER")
	assert.Contains(t, lines[1], "AAPL")
	assert.Contains(t, lines[1], "Apple Inc.")
}

func TestSuggestCommand_NoMatch(t *testing.T) {
	out := execute(t, "suggest", "zzz-no-match")
	assert.Equal(t, "No suggestions for \"zzz-no-match\"\n", out)
}

func TestSuggestCommand_All(t *testing.T) {
	out := execute(t, "suggest", "--all")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 11)
	assert.Contains(t, lines[10], "Visa Inc.")
}

func TestNewAssembler_UnknownProvider(t *testing.T) {
	cfgFile = ""
	t.Setenv("STOCKANALYZER_UPSTREAM_PROVIDER", "bloomberg")

	cfg, log, err := bootstrap()
	require.NoError(t, err)

	_, err = newAssembler(cfg, log, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bloomberg")
	assert.Contains(t, err.Error(), "yahoo")
}

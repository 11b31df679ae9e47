package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// resetGlobals zeroes the package-level flag vars so prior tests don't leak.
func resetGlobals(t *testing.T) {
	t.Helper()

	configDir = "."
	genre, plotFile, engineType, modelID, strategy = "", "", "", "", ""
	outputDir, leaguePath, format, runCacheDir, eventLog = "", "", "text", "", ""
	verbose, noLeague, enableCache, disableCache = false, false, false, false

	leagueFile, leagueFormat = "", "text"
	assumeYes, noArchive, pruneKeep = false, false, 100

	analyticsDir, analyticsFormat, headToHead = "", "text", ""
	showTimeline, jsonOutput = false, false

	cacheDir = ""

	orig := promptConfirm
	t.Cleanup(func() { promptConfirm = orig })
}

// workspace writes a .forge.yaml using the mock engine with fast retries and
// points every path flag into a temp dir.
func workspace(t *testing.T) string {
	t.Helper()
	resetGlobals(t)

	dir := t.TempDir()
	cfg := `defaults:
  engine: mock
retry:
  initial_delay: 0.001
paths:
  output: ` + filepath.Join(dir, "out") + `
  league: ` + filepath.Join(dir, "league.json") + `
cache:
  dir: ` + filepath.Join(dir, "cache") + `
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".forge.yaml"), []byte(cfg), 0o644))
	configDir = dir
	return dir
}

func execCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(bytes.NewReader(nil))
	err := cmd.Execute()
	return out.String(), err
}

func stringsReader(s string) *bytes.Reader {
	return bytes.NewReader([]byte(s))
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSolveCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
names: [Ada, Brook, Cy, Dee]
groups: 2
of_size: 2
rounds: 3
seed: 11
`), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"solve", path})
	require.NoError(t, rootCmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Equal(t, "round,group,participant,conflict_score", lines[0])
	// 3 rounds of 4 participants; 2x2 over 3 rounds has a perfect schedule.
	require.Len(t, lines, 13)
	for _, l := range lines[1:] {
		require.True(t, strings.HasSuffix(l, ",0"), l)
	}

	outFile := filepath.Join(dir, "out.csv")
	rootCmd.SetArgs([]string{"solve", path, "--seed", "5", "--out", outFile})
	require.NoError(t, rootCmd.Execute())
	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	require.Contains(t, string(data), "Ada")
}

func TestSolveCommand_BadFile(t *testing.T) {
	rootCmd.SetArgs([]string{"solve", filepath.Join(t.TempDir(), "plan.txt")})
	require.Error(t, rootCmd.Execute())
}

package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--settings", filepath.Join(t.TempDir(), "none.yaml"), "--log-level", "warn"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestGenerateValidateRunSnapshot(t *testing.T) {
	dir := t.TempDir()
	worldPath := filepath.Join(dir, "world.yaml")

	out, err := execute(t, "generate", "--seed", "3", "--locations", "6", "--agents", "4", "--actions", "8", "-o", worldPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 6 locations, 4 agents, 8 actions")
	assert.Contains(t, out, "Tags: ")

	out, err = execute(t, "validate", worldPath)
	require.NoError(t, err)
	assert.Contains(t, out, "ok (5 motives, 10 actions, 4 agents, 6 locations)")

	snaps := filepath.Join(dir, "snaps")
	out, err = execute(t, "run", worldPath, "--ticks", "30", "--seed", "3",
		"--db", filepath.Join(dir, "history.db"), "--snapshot-dir", snaps)
	require.NoError(t, err)
	assert.Contains(t, out, "Stopped at tick")
	assert.Contains(t, out, "saved to")
	assert.Contains(t, out, "Average motives: m1=")
	assert.Contains(t, out, "Busiest locations: ")

	db := filepath.Join(dir, "history.db")
	out, err = execute(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "1 runs")
	assert.Contains(t, out, "world.yaml")

	out, err = execute(t, "history", "--db", db, "--agent", "a_0")
	require.NoError(t, err)
	assert.Contains(t, out, "a_0 in run ")

	out, err = execute(t, "history", "--db", db, "--agents")
	require.NoError(t, err)
	assert.Contains(t, out, "a_0")

	files, err := filepath.Glob(filepath.Join(snaps, "*.json.zst"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	out, err = execute(t, "snapshot", "--header", files[0])
	require.NoError(t, err)
	assert.Contains(t, out, "seed 3, 4 agents")

	out, err = execute(t, "snapshot", files[0])
	require.NoError(t, err)
	assert.Contains(t, out, "a_0")
}

func TestValidateRejectsBadWorld(t *testing.T) {
	_, err := execute(t, "validate", "../../internal/config/testdata/bad_location.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "current_location")
}

func TestRunWithoutDB(t *testing.T) {
	out, err := execute(t, "run", "../../internal/config/testdata/campus.yaml", "--ticks", "5", "--no-db")
	require.NoError(t, err)
	assert.Contains(t, out, "Stopped at tick 5")
	assert.NotContains(t, out, "saved to")
}

package cmd

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_CreatesProjectFiles(t *testing.T) {
	inTempDir(t)

	var buf bytes.Buffer
	require.NoError(t, RunInit(&buf))

	out := buf.String()
	assert.Contains(t, out, "vero.yaml created")
	assert.Contains(t, out, "tests/ created")
	assert.Contains(t, out, ".vero/ added to .gitignore")

	_, err := os.Stat("vero.yaml")
	assert.NoError(t, err)
	info, err := os.Stat("tests")
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	ignore, err := os.ReadFile(".gitignore")
	require.NoError(t, err)
	assert.Contains(t, string(ignore), ".vero/")
}

func TestInit_IsIdempotent(t *testing.T) {
	inTempDir(t)

	var buf bytes.Buffer
	require.NoError(t, RunInit(&buf))
	buf.Reset()
	require.NoError(t, RunInit(&buf))

	out := buf.String()
	assert.Contains(t, out, "vero.yaml already exists")
	assert.Contains(t, out, "tests/ already exists")
	assert.Contains(t, out, ".vero/ already in .gitignore")
}

func TestInit_AppendsToExistingGitignore(t *testing.T) {
	inTempDir(t)
	require.NoError(t, os.WriteFile(".gitignore", []byte("node_modules"), 0o644))

	var buf bytes.Buffer
	require.NoError(t, RunInit(&buf))

	ignore, err := os.ReadFile(".gitignore")
	require.NoError(t, err)
	assert.Equal(t, "node_modules\n.vero/\n", string(ignore))
}

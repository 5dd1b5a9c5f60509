package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "vero.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "generated", cfg.Output)
	assert.Equal(t, "127.0.0.1:9229", cfg.Debug.Listen)
	assert.Equal(t, "50ms", cfg.Debug.PollInterval)
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vero.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
output: build/tests
env:
  BASE_URL: https://staging.example.com
debug:
  listen: 127.0.0.1:4000
  commandFile: .vero/commands.json
  pollInterval: 50ms
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "build/tests", cfg.Output)
	assert.Equal(t, "https://staging.example.com", cfg.Env["BASE_URL"])
	assert.Equal(t, "127.0.0.1:4000", cfg.Debug.Listen)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vero.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: [\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vero.yaml")
	want := Default()
	want.Env = map[string]string{"API_KEY": "secret"}
	require.NoError(t, Write(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

package cmd

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_ValidSource(t *testing.T) {
	inTempDir(t)
	writeLoginVero(t)

	var buf bytes.Buffer
	require.NoError(t, RunCheck(&buf, []string{"login.vero"}))
	assert.Contains(t, buf.String(), "login.vero")
}

func TestCheck_DiscoversSourcesWithoutArgs(t *testing.T) {
	inTempDir(t)
	writeLoginVero(t)

	var buf bytes.Buffer
	require.NoError(t, RunCheck(&buf, nil))
	assert.Contains(t, buf.String(), "login.vero")
}

func TestCheck_ReportsAllDiagnostics(t *testing.T) {
	inTempDir(t)
	require.NoError(t, os.WriteFile("bad.vero", []byte(`
PAGE P {
    FIELD item = css ".item" NTH -1
}
FEATURE F {
    SCENARIO S {
        CLICK P.missing
    }
}
`), 0o644))

	var buf bytes.Buffer
	err := RunCheck(&buf, []string{"bad.vero"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 problems")

	out := buf.String()
	assert.Contains(t, out, "validate")
	assert.Contains(t, out, "missing")
}

func TestCheck_NoSources(t *testing.T) {
	inTempDir(t)

	var buf bytes.Buffer
	err := RunCheck(&buf, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .vero files found")
}

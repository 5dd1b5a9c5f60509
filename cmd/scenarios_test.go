package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_ListsAll(t *testing.T) {
	inTempDir(t)
	writeLoginVero(t)

	var buf bytes.Buffer
	require.NoError(t, RunScenarios(&buf, []string{"login.vero"}, nil, ""))

	out := buf.String()
	assert.Contains(t, out, "ValidLogin")
	assert.Contains(t, out, "WrongPassword")
	assert.Contains(t, out, "@smoke")
}

func TestScenarios_TagFilter(t *testing.T) {
	inTempDir(t)
	writeLoginVero(t)

	var buf bytes.Buffer
	require.NoError(t, RunScenarios(&buf, []string{"login.vero"}, nil, "@smoke"))

	out := buf.String()
	assert.Contains(t, out, "ValidLogin")
	assert.NotContains(t, out, "WrongPassword")
}

func TestScenarios_PatternFilter(t *testing.T) {
	inTempDir(t)
	writeLoginVero(t)

	var buf bytes.Buffer
	require.NoError(t, RunScenarios(&buf, []string{"login.vero"}, []string{"wrong password"}, ""))

	out := buf.String()
	assert.Contains(t, out, "WrongPassword")
	assert.NotContains(t, out, "ValidLogin")
}

func TestScenarios_MalformedTagExpression(t *testing.T) {
	inTempDir(t)
	writeLoginVero(t)

	var buf bytes.Buffer
	err := RunScenarios(&buf, []string{"login.vero"}, nil, "@a and")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tag expression")
}

func TestRuns_EmptyDatabase(t *testing.T) {
	inTempDir(t)

	var buf bytes.Buffer
	require.NoError(t, RunRuns(&buf))
	assert.Contains(t, buf.String(), "no runs recorded")
}

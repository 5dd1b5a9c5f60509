package vero

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verolang/vero/internal/selection"
)

const pagesSrc = `
PAGE LoginPage {
    FIELD emailInput = placeholder "Email"
    FIELD submitBtn = role "button" NAME "Sign in"
}
`

const featureSrc = `
FEATURE Login {
    SCENARIO ValidLogin @smoke {
        OPEN "/login"
        FILL LoginPage.emailInput WITH "user@example.com"
        CLICK LoginPage.submitBtn
    }

    SCENARIO WrongPassword {
        OPEN "/login"
        VERIFY text "Invalid credentials" IS VISIBLE
    }
}
`

func TestTokenize(t *testing.T) {
	res := Tokenize(`PAGE P { }`)
	assert.Empty(t, res.Errors)
	assert.NotEmpty(t, res.Tokens)
}

func TestParseAndValidate(t *testing.T) {
	lexed := Tokenize(pagesSrc + featureSrc)
	require.Empty(t, lexed.Errors)

	prog, diags := Parse(lexed.Tokens)
	assert.Empty(t, diags)
	require.Len(t, prog.Pages, 1)
	require.Len(t, prog.Features, 1)
	assert.Empty(t, Validate(prog))
}

func TestParseReportsDiagnostics(t *testing.T) {
	lexed := Tokenize("PAGE P {\n    FIELD f = css\n}")
	require.Empty(t, lexed.Errors)

	prog, diags := Parse(lexed.Tokens)
	require.NotEmpty(t, diags)
	assert.Equal(t, "parse", diags[0].Stage)
	assert.Equal(t, 2, diags[0].Line)
	require.NotNil(t, prog)
}

func TestValidateReportsDiagnostics(t *testing.T) {
	lexed := Tokenize(featureSrc)
	require.Empty(t, lexed.Errors)
	prog, diags := Parse(lexed.Tokens)
	require.Empty(t, diags)

	// LoginPage is declared in another file that was not parsed here
	vdiags := Validate(prog)
	require.NotEmpty(t, vdiags)
	assert.Equal(t, "validate", vdiags[0].Stage)
	assert.Contains(t, vdiags[0].Message, "LoginPage")
}

func TestCheckMergesSources(t *testing.T) {
	prog, diags := Check([]Source{
		{Path: "pages.vero", Text: pagesSrc},
		{Path: "login.vero", Text: featureSrc},
	})
	assert.Empty(t, diags)
	require.Len(t, prog.Pages, 1)
	require.Len(t, prog.Features, 1)
	assert.Len(t, prog.Features[0].Scenarios, 2)
}

func TestCheckReportsStageAndFile(t *testing.T) {
	_, diags := Check([]Source{
		{Path: "bad.vero", Text: "PAGE P {\n    FIELD f = css\n}"},
		{Path: "feature.vero", Text: featureSrc},
	})
	require.NotEmpty(t, diags)
	assert.Equal(t, "parse", diags[0].Stage)
	assert.Equal(t, "bad.vero", diags[0].File)
	// the feature references a page declared in a file that failed to
	// parse its field, so validation may add more, but parse problems
	// from one file never hide the other file's content
	for _, d := range diags {
		assert.NotEmpty(t, d.Message)
	}
}

func TestCompileEndToEnd(t *testing.T) {
	result, diags, err := Compile([]Source{
		{Path: "pages.vero", Text: pagesSrc},
		{Path: "login.vero", Text: featureSrc},
	}, CompileOptions{})
	require.NoError(t, err)
	require.Empty(t, diags)
	require.NotNil(t, result)

	assert.Contains(t, result.Units.Pages, "LoginPage")
	assert.Contains(t, result.Units.Tests, "Login")
	assert.Contains(t, result.Units.Support, "vero-runtime")
	assert.Equal(t, 2, result.Selection.TotalScenarios)
	assert.Equal(t, 2, result.Selection.SelectedScenarios)
	assert.False(t, result.Selection.HasFilters)
}

func TestCompileWithSelection(t *testing.T) {
	result, diags, err := Compile([]Source{
		{Path: "pages.vero", Text: pagesSrc},
		{Path: "login.vero", Text: featureSrc},
	}, CompileOptions{
		Selection: selection.Options{TagExpression: "@smoke"},
	})
	require.NoError(t, err)
	require.Empty(t, diags)
	assert.Equal(t, 1, result.Selection.SelectedScenarios)
	assert.Contains(t, result.Units.Tests["Login"], "ValidLogin")
	assert.NotContains(t, result.Units.Tests["Login"], "WrongPassword")
}

func TestCompileStopsOnDiagnostics(t *testing.T) {
	result, diags, err := Compile([]Source{
		{Path: "bad.vero", Text: "FEATURE F {\n    SCENARIO S {\n        CLICK Nowhere.btn\n    }\n}"},
	}, CompileOptions{})
	require.NoError(t, err)
	assert.Nil(t, result)
	require.NotEmpty(t, diags)
	assert.Equal(t, "validate", diags[0].Stage)
}

func TestCompileSelectionError(t *testing.T) {
	_, _, err := Compile([]Source{
		{Path: "login.vero", Text: pagesSrc + featureSrc},
	}, CompileOptions{
		Selection: selection.Options{TagExpression: "@missing"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scenarios match")
}

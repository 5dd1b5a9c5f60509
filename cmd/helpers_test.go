package cmd

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func inTempDir(t *testing.T) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(orig) })
}

const loginVero = `
PAGE LoginPage {
    FIELD emailInput = placeholder "Email"
    FIELD submitBtn = role "button" NAME "Sign in"
}

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

func writeLoginVero(t *testing.T) {
	t.Helper()
	require.NoError(t, os.WriteFile("login.vero", []byte(loginVero), 0o644))
}

package transpiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verolang/vero/internal/lexer"
	"github.com/verolang/vero/internal/parser"
)

func generate(t *testing.T, src string, opts Options) *Result {
	t.Helper()
	lexed := lexer.Lex(src)
	require.Empty(t, lexed.Errors)
	prog, errs := parser.Parse(lexed.Tokens)
	require.Empty(t, errs)
	res, err := Generate(prog, opts)
	require.NoError(t, err)
	return res
}

func TestPageUnit(t *testing.T) {
	res := generate(t, `
		PAGE LoginPage {
			FIELD emailInput = placeholder "Email"
			FIELD submitBtn = role "button" NAME "Sign in"
		}
	`, Options{})

	src, ok := res.Pages["LoginPage"]
	require.True(t, ok)
	assert.Contains(t, src, "export class LoginPage {")
	assert.Contains(t, src, "get emailInput(): Locator {")
	assert.Contains(t, src, "return this.page.getByPlaceholder('Email');")
	assert.Contains(t, src, "return this.page.getByRole('button', { name: 'Sign in' });")
}

func TestSelectorModifierOrderPreserved(t *testing.T) {
	res := generate(t, `
		PAGE P {
			FIELD activeItem = css ".item" WITH TEXT "Active" FIRST
			FIELD firstItem = css ".item" FIRST WITH TEXT "Active"
		}
	`, Options{})

	src := res.Pages["P"]
	assert.Contains(t, src, `.locator('.item').filter({ hasText: 'Active' }).first()`)
	assert.Contains(t, src, `.locator('.item').first().filter({ hasText: 'Active' })`)
}

func TestSelectorModifiers(t *testing.T) {
	res := generate(t, `
		PAGE P {
			FIELD a = css ".row" NTH 2
			FIELD b = css ".row" WITHOUT TEXT "Archived"
			FIELD c = css ".card" HAS (text "Paid") LAST
			FIELD d = css ".card" HAS NOT (css ".error")
		}
	`, Options{})

	src := res.Pages["P"]
	assert.Contains(t, src, `.locator('.row').nth(2)`)
	assert.Contains(t, src, `.filter({ hasNotText: 'Archived' })`)
	assert.Contains(t, src, `.filter({ has: this.page.getByText('Paid') }).last()`)
	assert.Contains(t, src, `.filter({ hasNot: this.page.locator('.error') })`)
}

func TestFeatureUnit(t *testing.T) {
	res := generate(t, `
		PAGE LoginPage {
			FIELD emailInput = placeholder "Email"
			FIELD submitBtn = role "button" NAME "Sign in"
		}
		FEATURE Login {
			BEFORE EACH {
				OPEN "/login"
			}
			SCENARIO ValidLogin @smoke @auth {
				FILL LoginPage.emailInput WITH "user@example.com"
				CLICK LoginPage.submitBtn
				VERIFY text "Welcome" IS VISIBLE
			}
		}
	`, Options{})

	src, ok := res.Tests["Login"]
	require.True(t, ok)
	assert.Contains(t, src, "import { test, expect } from '@playwright/test';")
	assert.Contains(t, src, "import { LoginPage } from './LoginPage';")
	assert.Contains(t, src, "test.describe('Login', () => {")
	assert.Contains(t, src, "test.beforeEach(async ({ page }) => {")
	assert.Contains(t, src, "test('ValidLogin', { tag: ['@smoke', '@auth'] }, async ({ page }) => {")
	assert.Contains(t, src, "const loginPage = new LoginPage(page);")
	assert.Contains(t, src, "await loginPage.emailInput.fill('user@example.com');")
	assert.Contains(t, src, "await loginPage.submitBtn.click();")
	assert.Contains(t, src, "await expect(page.getByText('Welcome')).toBeVisible();")
}

func TestOverloadDispatcher(t *testing.T) {
	res := generate(t, `
		PAGE LoginPage {
			FIELD emailInput = placeholder "Email"
		}
		PAGEACTIONS LoginActions FOR LoginPage {
			ACTION login() {
				OPEN "/login"
			}
			ACTION login(email, password, remember) {
				FILL LoginPage.emailInput WITH email
			}
		}
	`, Options{})

	src := res.PageActions["LoginActions"]
	assert.Equal(t, 1, strings.Count(src, "export async function LoginActions_login"))
	assert.Contains(t, src, "if (args.length === 0) {")
	assert.Contains(t, src, "if (args.length === 3) {")
	assert.Contains(t, src, "const [email, password, remember] = args;")
	assert.Contains(t, src, "await loginPage.emailInput.fill(email);")
}

func TestPerformUnmatchedArityIsGenerationError(t *testing.T) {
	lexed := lexer.Lex(`
		PAGEACTIONS Actions FOR P {
			ACTION login() {
				OPEN "/login"
			}
			ACTION login(email, password, remember) {
				OPEN "/login"
			}
		}
		FEATURE F {
			SCENARIO S {
				PERFORM Actions.login("only-one")
			}
		}
	`)
	require.Empty(t, lexed.Errors)
	prog, errs := parser.Parse(lexed.Tokens)
	require.Empty(t, errs)

	_, err := Generate(prog, Options{})
	require.Error(t, err)
	var genErr *Error
	require.ErrorAs(t, err, &genErr)
	assert.Contains(t, genErr.Message, "no overload of Actions.login takes 1 arguments")
}

func TestDuplicateOverloadArityIsGenerationError(t *testing.T) {
	lexed := lexer.Lex(`
		PAGEACTIONS Actions FOR P {
			ACTION visit(a) {
				OPEN a
			}
			ACTION visit(b) {
				OPEN b
			}
		}
	`)
	require.Empty(t, lexed.Errors)
	prog, errs := parser.Parse(lexed.Tokens)
	require.Empty(t, errs)

	_, err := Generate(prog, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared twice with 1 parameters")
}

func TestPerformCall(t *testing.T) {
	res := generate(t, `
		PAGEACTIONS Actions FOR P {
			ACTION login(email) {
				OPEN email
			}
		}
		FEATURE F {
			SCENARIO S {
				PERFORM Actions.login("user@example.com") INTO result
				LOG result
			}
		}
	`, Options{})

	src := res.Tests["F"]
	assert.Contains(t, src, "import { Actions_login } from './Actions';")
	assert.Contains(t, src, "let result = await Actions_login(page, 'user@example.com');")
	assert.Contains(t, src, "console.log(result);")
}

func TestScreenshotPresetAndOverride(t *testing.T) {
	res := generate(t, `
		PAGE P {
			FIELD hero = css ".hero"
		}
		FEATURE F {
			SCENARIO S {
				SCREENSHOT
				SCREENSHOT OF P.hero AS "hero" BALANCED
				SCREENSHOT AS "tight.png" STRICT MAXDIFFPIXELS 5
			}
		}
	`, Options{})

	src := res.Tests["F"]
	assert.Contains(t, src, "await expect(page).toHaveScreenshot();")
	assert.Contains(t, src, "await expect(p.hero).toHaveScreenshot('hero.png', { threshold: 0.2, maxDiffPixels: 200, maxDiffPixelRatio: 0.05 });")
	// explicit override beats the strict preset's 50
	assert.Contains(t, src, "toHaveScreenshot('tight.png', { threshold: 0.05, maxDiffPixels: 5, maxDiffPixelRatio: 0.01 });")
}

func TestControlFlowAndData(t *testing.T) {
	res := generate(t, `
		PAGE P {
			FIELD banner = css ".banner"
		}
		FEATURE F {
			SCENARIO S {
				IF P.banner IS VISIBLE {
					CLICK P.banner
				} ELSE {
					LOG "no banner"
				}
				REPEAT 3 TIMES {
					REPEAT 2 TIMES {
						SCROLL DOWN
					}
				}
				FOR EACH user IN ROWS "users" {
					LOG user
				}
				COUNT "users" INTO total
				LOG total
				VERIFY P.banner HAS COUNT 3
			}
		}
	`, Options{})

	src := res.Tests["F"]
	assert.Contains(t, src, "if (await p.banner.isVisible()) {")
	assert.Contains(t, src, "} else {")
	assert.Contains(t, src, "for (let i = 0; i < 3; i++) {")
	assert.Contains(t, src, "for (let i2 = 0; i2 < 2; i2++) {")
	assert.Contains(t, src, "await data.ensureLoaded('users');")
	assert.Contains(t, src, "for (const user of data.rows('users')) {")
	assert.Contains(t, src, "let total = data.count('users');")
	assert.Contains(t, src, "import { data } from './vero-runtime';")
}

func TestEnvPlaceholders(t *testing.T) {
	res := generate(t, `
		FEATURE F {
			SCENARIO S {
				OPEN "{{BASE_URL}}/login"
			}
		}
	`, Options{Env: map[string]string{
		"BASE_URL":    "https://staging.example.com",
		"api.version": "v2",
	}})

	src := res.Tests["F"]
	assert.Contains(t, src, "await page.goto(`${env('BASE_URL')}/login`);")
	assert.Contains(t, src, "import { env } from './vero-runtime';")

	runtime := res.Support["vero-runtime"]
	assert.Contains(t, runtime, "BASE_URL: 'https://staging.example.com',")
	// keys that are not identifiers stay quoted
	assert.Contains(t, runtime, "'api.version': 'v2',")
	assert.Contains(t, runtime, "export function env(name: string): string {")
}

func TestDebugInstrumentation(t *testing.T) {
	src := `
		PAGE P {
			FIELD btn = css ".btn"
		}
		FEATURE F {
			SCENARIO S {
				CLICK P.btn
				SET visitor TO "alice"
				LOG visitor
			}
		}
	`
	plain := generate(t, src, Options{})
	assert.NotContains(t, plain.Tests["F"], "__vero")
	_, hasDebug := plain.Support["vero-debug"]
	assert.False(t, hasDebug)

	debug := generate(t, src, Options{Debug: true})
	out := debug.Tests["F"]
	assert.Contains(t, out, "import { __vero } from './vero-debug';")
	assert.Contains(t, out, "await __vero.step(7, 'click', 'P.btn', async () => {")
	// bindings are hoisted so later statements still see them
	assert.Contains(t, out, "let visitor;")
	assert.Contains(t, out, "visitor = 'alice';")

	runtime := debug.Support["vero-debug"]
	assert.Contains(t, runtime, "type Mode = 'running' | 'paused' | 'stepping';")
	assert.Contains(t, runtime, "process.exit(1)")
}

func TestImportsOnlyWhatBodiesUse(t *testing.T) {
	res := generate(t, `
		PAGEACTIONS Nav FOR P {
			ACTION home() {
				OPEN "/"
			}
		}
		FEATURE Plain {
			SCENARIO JustNavigate {
				OPEN "/about"
				GO BACK
			}
		}
		FEATURE Checked {
			SCENARIO WithAssertion {
				VERIFY text "Done" IS VISIBLE
			}
		}
	`, Options{})

	assert.Contains(t, res.PageActions["Nav"], "import { Page } from '@playwright/test';")
	assert.Contains(t, res.Tests["Plain"], "import { test } from '@playwright/test';")
	assert.Contains(t, res.Tests["Checked"], "import { test, expect } from '@playwright/test';")
}

func TestGenerationDeterminism(t *testing.T) {
	src := `
		PAGE P {
			FIELD a = css ".a"
			FIELD b = css ".b" WITH TEXT "x" NTH 1
		}
		PAGEACTIONS A FOR P {
			ACTION visit() {
				CLICK P.a
			}
		}
		FEATURE F {
			SCENARIO One @smoke {
				PERFORM A.visit()
			}
			SCENARIO Two {
				CLICK P.b
			}
		}
	`
	first := generate(t, src, Options{Env: map[string]string{"X": "1", "Y": "2"}})
	second := generate(t, src, Options{Env: map[string]string{"X": "1", "Y": "2"}})
	assert.Equal(t, first, second)
}

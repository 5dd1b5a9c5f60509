package transpiler

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/verolang/vero/internal/ast"
)

// pageUnit emits the locator class for a page. Fields become getters
// so every access re-resolves against the live page.
func (g *gen) pageUnit(page *ast.Page) string {
	u := g.newUnit("Page", "Locator")
	u.line("export class %s {", page.Name)
	u.indent++
	u.line("readonly page: Page;")
	u.blank()
	u.line("constructor(page: Page) {")
	u.indent++
	u.line("this.page = page;")
	u.indent--
	u.line("}")
	for _, field := range page.Fields {
		u.blank()
		u.line("get %s(): Locator {", field.Name)
		u.indent++
		u.line("return %s;", u.locator("this.page", &field.Selector))
		u.indent--
		u.line("}")
	}
	u.indent--
	u.line("}")
	return u.source()
}

// actionUnit emits one exported async dispatcher per action name.
// Overloads under one name share the dispatcher, which branches on
// argument count and destructures the matched overload's parameters.
func (g *gen) actionUnit(block *ast.PageActionBlock) (string, error) {
	u := g.newUnit("Page")
	u.selfBlock = block.Name

	// group overloads by name, declaration order preserved
	var names []string
	grouped := map[string][]*ast.Action{}
	for _, action := range block.Actions {
		if _, ok := grouped[action.Name]; !ok {
			names = append(names, action.Name)
		}
		grouped[action.Name] = append(grouped[action.Name], action)
	}

	for i, name := range names {
		if i > 0 {
			u.blank()
		}
		overloads := grouped[name]
		fn := block.Name + "_" + name
		u.line("export async function %s(page: Page, ...args: unknown[]): Promise<unknown> {", fn)
		u.indent++
		for _, action := range overloads {
			u.line("if (args.length === %d) {", len(action.Params))
			u.indent++
			if len(action.Params) > 0 {
				u.line("const [%s] = args;", strings.Join(action.Params, ", "))
			}
			if err := u.openBody(action.Body, newBodyState(action.Params...)); err != nil {
				return "", err
			}
			u.line("return;")
			u.indent--
			u.line("}")
		}
		u.line("throw new Error(`%s.%s: no overload takes ${args.length} arguments`);", block.Name, name)
		u.indent--
		u.line("}")
	}
	return u.source(), nil
}

// featureUnit emits the test suite for a feature: hooks in declaration
// order, one tagged test per scenario.
func (g *gen) featureUnit(feat *ast.Feature) (string, error) {
	u := g.newUnit("test")

	u.line("test.describe(%s, () => {", singleQuote(feat.Name))
	u.indent++
	first := true
	for _, hook := range feat.Hooks {
		if !first {
			u.blank()
		}
		first = false
		if err := u.hook(hook); err != nil {
			return "", err
		}
	}
	for _, sc := range feat.Scenarios {
		if !first {
			u.blank()
		}
		first = false
		if err := u.scenario(sc); err != nil {
			return "", err
		}
	}
	u.indent--
	u.line("});")
	return u.source(), nil
}

func (u *unit) hook(hook *ast.Hook) error {
	var open string
	perPage := true
	switch hook.Kind {
	case ast.BeforeEach:
		open = "test.beforeEach(async ({ page }) => {"
	case ast.AfterEach:
		open = "test.afterEach(async ({ page }) => {"
	case ast.BeforeAll:
		open = "test.beforeAll(async ({ browser }) => {"
		perPage = false
	default:
		open = "test.afterAll(async ({ browser }) => {"
		perPage = false
	}
	u.line("%s", open)
	u.indent++
	if !perPage {
		u.usePW("Page")
		u.line("const page: Page = await browser.newPage();")
	}
	err := u.openBody(hook.Body, newBodyState())
	if err == nil && !perPage {
		u.line("await page.close();")
	}
	u.indent--
	u.line("});")
	return err
}

func (u *unit) scenario(sc *ast.Scenario) error {
	if len(sc.Tags) > 0 {
		quoted := make([]string, len(sc.Tags))
		for i, tag := range sc.Tags {
			quoted[i] = singleQuote(tag)
		}
		u.line("test(%s, { tag: [%s] }, async ({ page }) => {", singleQuote(sc.Name), strings.Join(quoted, ", "))
	} else {
		u.line("test(%s, async ({ page }) => {", singleQuote(sc.Name))
	}
	u.indent++
	err := u.openBody(sc.Statements, newBodyState())
	u.indent--
	u.line("});")
	return err
}

const (
	runtimeUnitName = "vero-runtime"
	debugUnitName   = "vero-debug"
)

// runtimeUnit emits the shared env and data helpers. Config defaults
// for {{NAME}} placeholders are baked in sorted by name; process.env
// overrides them at run time.
func (g *gen) runtimeUnit() string {
	var keys []string
	for k := range g.opts.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fileHeader)
	b.WriteString("\nconst envDefaults: Record<string, string> = {\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "  %s: %s,\n", objectKey(k), singleQuote(g.opts.Env[k]))
	}
	b.WriteString("};\n")
	b.WriteString(runtimeSource)
	return b.String()
}

var bareKey = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// objectKey renders a TypeScript object key, bare when the name is an
// identifier and quoted otherwise.
func objectKey(k string) string {
	if bareKey.MatchString(k) {
		return k
	}
	return singleQuote(k)
}

const runtimeSource = `
export function env(name: string): string {
  return process.env[name] ?? envDefaults[name] ?? '';
}

type Row = Record<string, unknown>;

// Test data tables, loaded at most once per process. ensureLoaded is
// a no-op after the first call for a table.
class DataStore {
  private tables = new Map<string, Row[]>();
  private loading = new Map<string, Promise<Row[]>>();

  async ensureLoaded(table: string): Promise<void> {
    if (this.tables.has(table)) {
      return;
    }
    let pending = this.loading.get(table);
    if (!pending) {
      pending = this.fetch(table);
      this.loading.set(table, pending);
    }
    this.tables.set(table, await pending);
  }

  row(table: string): Row {
    return this.rows(table)[0] ?? {};
  }

  rows(table: string): Row[] {
    return this.tables.get(table) ?? [];
  }

  count(table: string): number {
    return this.rows(table).length;
  }

  private async fetch(table: string): Promise<Row[]> {
    const base = env('VERO_DATA_URL');
    if (base === '') {
      return [];
    }
    const res = await fetch(base + '/' + encodeURIComponent(table));
    if (!res.ok) {
      throw new Error('data table ' + table + ': ' + res.status);
    }
    return (await res.json()) as Row[];
  }
}

export const data = new DataStore();
`

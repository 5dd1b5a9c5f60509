package transpiler

import (
	"fmt"
	"strings"

	"github.com/verolang/vero/internal/ast"
)

// bodyState tracks per-body generation context: which variables have
// been declared (first binding uses let, later ones assign) and how
// deep REPEAT nesting is, so counter names never collide.
type bodyState struct {
	declared  map[string]bool
	loopDepth int
}

func newBodyState(params ...string) *bodyState {
	st := &bodyState{declared: map[string]bool{}}
	for _, p := range params {
		st.declared[p] = true
	}
	return st
}

// openBody emits the page instances the statements reference and then
// the statements themselves.
func (u *unit) openBody(stmts []ast.Stmt, st *bodyState) error {
	for _, page := range referencedPages(stmts) {
		u.usePage(page)
		u.line("const %s = new %s(page);", pageVar(page), page)
	}
	return u.block(stmts, st)
}

func (u *unit) block(stmts []ast.Stmt, st *bodyState) error {
	for _, s := range stmts {
		if err := u.stmt(s, st); err != nil {
			return err
		}
	}
	return nil
}

// stmt generates one statement. Control flow recurses into its bodies;
// everything else is a leaf that may be wrapped for debugging.
func (u *unit) stmt(s ast.Stmt, st *bodyState) error {
	switch s := s.(type) {
	case *ast.If:
		return u.ifStmt(s, st)
	case *ast.Repeat:
		return u.repeatStmt(s, st)
	case *ast.ForEach:
		return u.forEachStmt(s, st)
	case *ast.TryCatch:
		u.line("try {")
		u.indent++
		if err := u.block(s.Try, st); err != nil {
			return err
		}
		u.indent--
		u.line("} catch {")
		u.indent++
		if err := u.block(s.Catch, st); err != nil {
			return err
		}
		u.indent--
		u.line("}")
		return nil
	default:
		return u.leaf(s, st)
	}
}

func (u *unit) ifStmt(s *ast.If, st *bodyState) error {
	u.line("if (%s) {", u.condition(s.Cond))
	u.indent++
	if err := u.block(s.Then, st); err != nil {
		return err
	}
	u.indent--
	if len(s.Else) > 0 {
		u.line("} else {")
		u.indent++
		if err := u.block(s.Else, st); err != nil {
			return err
		}
		u.indent--
	}
	u.line("}")
	return nil
}

func (u *unit) repeatStmt(s *ast.Repeat, st *bodyState) error {
	st.loopDepth++
	counter := "i"
	if st.loopDepth > 1 {
		counter = fmt.Sprintf("i%d", st.loopDepth)
	}
	u.line("for (let %s = 0; %s < %s; %s++) {", counter, counter, s.Count, counter)
	u.indent++
	err := u.block(s.Body, st)
	u.indent--
	st.loopDepth--
	if err != nil {
		return err
	}
	u.line("}")
	return nil
}

func (u *unit) forEachStmt(s *ast.ForEach, st *bodyState) error {
	u.needsData = true
	u.line("await data.ensureLoaded(%s);", u.str(s.Table))
	u.line("for (const %s of data.rows(%s)) {", s.Var, u.str(s.Table))
	st.declared[s.Var] = true
	u.indent++
	err := u.block(s.Body, st)
	u.indent--
	delete(st.declared, s.Var)
	if err != nil {
		return err
	}
	u.line("}")
	return nil
}

func (u *unit) condition(c ast.Condition) string {
	loc := u.target(c.Target)
	var expr string
	negate := c.Negated
	switch c.State {
	case ast.StateVisible:
		expr = fmt.Sprintf("await %s.isVisible()", loc)
	case ast.StateHidden:
		expr = fmt.Sprintf("await %s.isHidden()", loc)
	case ast.StateEnabled:
		expr = fmt.Sprintf("await %s.isEnabled()", loc)
	case ast.StateDisabled:
		expr = fmt.Sprintf("await %s.isDisabled()", loc)
	case ast.StateChecked:
		expr = fmt.Sprintf("await %s.isChecked()", loc)
	case ast.StateUnchecked:
		expr = fmt.Sprintf("await %s.isChecked()", loc)
		negate = !negate
	}
	if negate {
		return "!(" + expr + ")"
	}
	return expr
}

// leaf generates one non-compound statement. In debug mode the code
// is wrapped in a step hook; variable bindings are hoisted above the
// wrapper so they stay visible to later statements.
func (u *unit) leaf(s ast.Stmt, st *bodyState) error {
	bind, lines, err := u.leafCode(s)
	if err != nil {
		return err
	}
	if !u.g.opts.Debug {
		if bind != "" && !st.declared[bind] {
			st.declared[bind] = true
			lines[len(lines)-1] = "let " + lines[len(lines)-1]
		}
		for _, code := range lines {
			u.line("%s", code)
		}
		return nil
	}
	u.needsStep = true
	if bind != "" && !st.declared[bind] {
		st.declared[bind] = true
		u.line("let %s;", bind)
	}
	action, label := describe(s)
	u.line("await __vero.step(%d, %s, %s, async () => {", s.Line(), singleQuote(action), singleQuote(label))
	u.indent++
	for _, code := range lines {
		u.line("%s", code)
	}
	u.indent--
	u.line("});")
	return nil
}

func one(code string) []string { return []string{code} }

// leafCode returns the variable the statement binds (empty for none)
// and the generated lines; the binding line, if any, is the last one
// and comes without a let prefix.
func (u *unit) leafCode(s ast.Stmt) (string, []string, error) {
	switch s := s.(type) {
	case *ast.Click:
		return "", one(fmt.Sprintf("await %s.click();", u.target(s.Target))), nil
	case *ast.DoubleClick:
		return "", one(fmt.Sprintf("await %s.dblclick();", u.target(s.Target))), nil
	case *ast.RightClick:
		return "", one(fmt.Sprintf("await %s.click({ button: 'right' });", u.target(s.Target))), nil
	case *ast.Hover:
		return "", one(fmt.Sprintf("await %s.hover();", u.target(s.Target))), nil
	case *ast.Focus:
		return "", one(fmt.Sprintf("await %s.focus();", u.target(s.Target))), nil
	case *ast.Clear:
		return "", one(fmt.Sprintf("await %s.clear();", u.target(s.Target))), nil
	case *ast.Check:
		return "", one(fmt.Sprintf("await %s.check();", u.target(s.Target))), nil
	case *ast.Uncheck:
		return "", one(fmt.Sprintf("await %s.uncheck();", u.target(s.Target))), nil

	case *ast.Fill:
		return "", one(fmt.Sprintf("await %s.fill(%s);", u.target(s.Target), u.value(s.Value))), nil
	case *ast.TypeText:
		return "", one(fmt.Sprintf("await %s.pressSequentially(%s);", u.target(s.Target), u.value(s.Value))), nil
	case *ast.Press:
		return "", one(fmt.Sprintf("await page.keyboard.press(%s);", u.value(s.Key))), nil
	case *ast.SelectOption:
		return "", one(fmt.Sprintf("await %s.selectOption(%s);", u.target(s.Target), u.value(s.Value))), nil
	case *ast.Upload:
		return "", one(fmt.Sprintf("await %s.setInputFiles(%s);", u.target(s.Target), u.value(s.Path))), nil
	case *ast.Drag:
		return "", one(fmt.Sprintf("await %s.dragTo(%s);", u.target(s.Source), u.target(s.Dest))), nil
	case *ast.ScrollTo:
		return "", one(fmt.Sprintf("await %s.scrollIntoViewIfNeeded();", u.target(s.Target))), nil
	case *ast.Scroll:
		delta := "-600"
		if s.Down {
			delta = "600"
		}
		return "", one(fmt.Sprintf("await page.mouse.wheel(0, %s);", delta)), nil

	case *ast.Open:
		return "", one(fmt.Sprintf("await page.goto(%s);", u.value(s.URL))), nil
	case *ast.GoBack:
		return "", one("await page.goBack();"), nil
	case *ast.GoForward:
		return "", one("await page.goForward();"), nil
	case *ast.Reload:
		return "", one("await page.reload();"), nil
	case *ast.Wait:
		return "", one(fmt.Sprintf("await page.waitForTimeout(%s * 1000);", s.Seconds)), nil
	case *ast.WaitFor:
		return "", one(u.waitFor(s)), nil

	case *ast.VerifyState:
		return "", one(u.verifyState(s)), nil
	case *ast.VerifyText:
		matcher := "toContainText"
		if s.Exact {
			matcher = "toHaveText"
		}
		return "", one(u.expectCall("await expect(%s).%s(%s);", u.target(s.Target), matcher, u.value(s.Text))), nil
	case *ast.VerifyValue:
		return "", one(u.expectCall("await expect(%s).toHaveValue(%s);", u.target(s.Target), u.value(s.Value))), nil
	case *ast.VerifyCount:
		return "", one(u.expectCall("await expect(%s).toHaveCount(%s);", u.target(s.Target), s.Count)), nil
	case *ast.VerifyAttr:
		return "", one(u.expectCall("await expect(%s).toHaveAttribute(%s, %s);",
			u.target(s.Target), u.value(s.Name), u.value(s.Value))), nil
	case *ast.VerifyURL:
		return "", one(u.expectCall("await expect(page).toHaveURL(%s);", u.value(s.URL))), nil
	case *ast.VerifyTitle:
		return "", one(u.expectCall("await expect(page).toHaveTitle(%s);", u.value(s.Title))), nil

	case *ast.Screenshot:
		return "", one(u.screenshot(s)), nil

	case *ast.LoadData:
		u.needsData = true
		return "", one(fmt.Sprintf("await data.ensureLoaded(%s);", u.str(s.Table))), nil
	case *ast.UseRow:
		return s.Var, u.dataBinding(s.Var, "row", s.Table), nil
	case *ast.UseRows:
		return s.Var, u.dataBinding(s.Var, "rows", s.Table), nil
	case *ast.CountRows:
		return s.Var, u.dataBinding(s.Var, "count", s.Table), nil

	case *ast.SetVar:
		return s.Name, one(fmt.Sprintf("%s = %s;", s.Name, u.value(s.Value))), nil
	case *ast.Log:
		return "", one(fmt.Sprintf("console.log(%s);", u.value(s.Message))), nil
	case *ast.Perform:
		return u.perform(s)
	}
	return "", nil, errorf(s.Line(), "unsupported statement")
}

// screenshotPresets holds the named comparison tolerance bundles.
// Explicit numeric clauses in source always override preset values.
var screenshotPresets = map[string][3]string{
	"strict":   {"0.05", "50", "0.01"},
	"balanced": {"0.2", "200", "0.05"},
	"relaxed":  {"0.35", "1000", "0.1"},
}

func (u *unit) screenshot(s *ast.Screenshot) string {
	recv := "page"
	if s.Target != nil {
		recv = u.target(*s.Target)
	}

	threshold, pixels, ratio := s.Threshold, s.MaxDiffPixels, s.MaxDiffRatio
	if preset, ok := screenshotPresets[strings.ToLower(s.Preset)]; ok {
		if threshold == "" {
			threshold = preset[0]
		}
		if pixels == "" {
			pixels = preset[1]
		}
		if ratio == "" {
			ratio = preset[2]
		}
	}
	var opts []string
	if threshold != "" {
		opts = append(opts, "threshold: "+threshold)
	}
	if pixels != "" {
		opts = append(opts, "maxDiffPixels: "+pixels)
	}
	if ratio != "" {
		opts = append(opts, "maxDiffPixelRatio: "+ratio)
	}

	var args []string
	if s.Name != "" {
		name := s.Name
		if !strings.HasSuffix(strings.ToLower(name), ".png") {
			name += ".png"
		}
		args = append(args, singleQuote(name))
	}
	if len(opts) > 0 {
		args = append(args, "{ "+strings.Join(opts, ", ")+" }")
	}
	return u.expectCall("await expect(%s).toHaveScreenshot(%s);", recv, strings.Join(args, ", "))
}

// dataBinding loads the table, then binds one of the data reads. The
// runtime dedupes the load so repeated statements fetch once.
func (u *unit) dataBinding(varName, read, table string) []string {
	u.needsData = true
	return []string{
		fmt.Sprintf("await data.ensureLoaded(%s);", u.str(table)),
		fmt.Sprintf("%s = data.%s(%s);", varName, read, u.str(table)),
	}
}

// expectCall formats an assertion line and records that the unit
// imports expect.
func (u *unit) expectCall(format string, args ...any) string {
	u.usePW("expect")
	return fmt.Sprintf(format, args...)
}

func (u *unit) waitFor(s *ast.WaitFor) string {
	loc := u.target(s.Target)
	switch s.State {
	case ast.StateVisible:
		return fmt.Sprintf("await %s.waitFor({ state: 'visible' });", loc)
	case ast.StateHidden:
		return fmt.Sprintf("await %s.waitFor({ state: 'hidden' });", loc)
	case ast.StateEnabled:
		return u.expectCall("await expect(%s).toBeEnabled();", loc)
	default:
		return u.expectCall("await expect(%s).toBeDisabled();", loc)
	}
}

func (u *unit) verifyState(s *ast.VerifyState) string {
	loc := u.target(s.Target)
	switch s.State {
	case ast.StateVisible:
		return u.expectCall("await expect(%s).toBeVisible();", loc)
	case ast.StateHidden:
		return u.expectCall("await expect(%s).toBeHidden();", loc)
	case ast.StateEnabled:
		return u.expectCall("await expect(%s).toBeEnabled();", loc)
	case ast.StateDisabled:
		return u.expectCall("await expect(%s).toBeDisabled();", loc)
	case ast.StateChecked:
		return u.expectCall("await expect(%s).toBeChecked();", loc)
	default:
		return u.expectCall("await expect(%s).not.toBeChecked();", loc)
	}
}

func (u *unit) perform(s *ast.Perform) (string, []string, error) {
	if _, ok := u.g.lookupAction(s.Block, s.Action, len(s.Args)); !ok {
		return "", nil, errorf(s.Line(),
			"no overload of %s.%s takes %d arguments", s.Block, s.Action, len(s.Args))
	}
	fn := s.Block + "_" + s.Action
	u.useAction(fn, s.Block)
	args := []string{"page"}
	for _, a := range s.Args {
		args = append(args, u.value(a))
	}
	call := fmt.Sprintf("await %s(%s);", fn, strings.Join(args, ", "))
	if s.Into != "" {
		return s.Into, one(fmt.Sprintf("%s = %s", s.Into, call)), nil
	}
	return "", one(call), nil
}

// referencedPages walks statements in source order and collects every
// page named by a field reference, first appearance first.
func referencedPages(stmts []ast.Stmt) []string {
	var pages []string
	seen := map[string]bool{}
	add := func(t ast.Target) {
		if t.IsRef() && !seen[t.Page] {
			seen[t.Page] = true
			pages = append(pages, t.Page)
		}
	}
	var walk func(stmts []ast.Stmt)
	walk = func(stmts []ast.Stmt) {
		for _, s := range stmts {
			switch s := s.(type) {
			case *ast.Click:
				add(s.Target)
			case *ast.DoubleClick:
				add(s.Target)
			case *ast.RightClick:
				add(s.Target)
			case *ast.Hover:
				add(s.Target)
			case *ast.Focus:
				add(s.Target)
			case *ast.Clear:
				add(s.Target)
			case *ast.Check:
				add(s.Target)
			case *ast.Uncheck:
				add(s.Target)
			case *ast.Fill:
				add(s.Target)
			case *ast.TypeText:
				add(s.Target)
			case *ast.SelectOption:
				add(s.Target)
			case *ast.Upload:
				add(s.Target)
			case *ast.Drag:
				add(s.Source)
				add(s.Dest)
			case *ast.ScrollTo:
				add(s.Target)
			case *ast.WaitFor:
				add(s.Target)
			case *ast.VerifyState:
				add(s.Target)
			case *ast.VerifyText:
				add(s.Target)
			case *ast.VerifyValue:
				add(s.Target)
			case *ast.VerifyCount:
				add(s.Target)
			case *ast.VerifyAttr:
				add(s.Target)
			case *ast.Screenshot:
				if s.Target != nil {
					add(*s.Target)
				}
			case *ast.If:
				add(s.Cond.Target)
				walk(s.Then)
				walk(s.Else)
			case *ast.Repeat:
				walk(s.Body)
			case *ast.ForEach:
				walk(s.Body)
			case *ast.TryCatch:
				walk(s.Try)
				walk(s.Catch)
			}
		}
	}
	walk(stmts)
	return pages
}

// describe labels a statement for debug step events.
func describe(s ast.Stmt) (action, target string) {
	switch s := s.(type) {
	case *ast.Click:
		return "click", targetLabel(s.Target)
	case *ast.DoubleClick:
		return "doubleclick", targetLabel(s.Target)
	case *ast.RightClick:
		return "rightclick", targetLabel(s.Target)
	case *ast.Hover:
		return "hover", targetLabel(s.Target)
	case *ast.Focus:
		return "focus", targetLabel(s.Target)
	case *ast.Clear:
		return "clear", targetLabel(s.Target)
	case *ast.Check:
		return "check", targetLabel(s.Target)
	case *ast.Uncheck:
		return "uncheck", targetLabel(s.Target)
	case *ast.Fill:
		return "fill", targetLabel(s.Target)
	case *ast.TypeText:
		return "type", targetLabel(s.Target)
	case *ast.Press:
		return "press", ""
	case *ast.SelectOption:
		return "select", targetLabel(s.Target)
	case *ast.Upload:
		return "upload", targetLabel(s.Target)
	case *ast.Drag:
		return "drag", targetLabel(s.Source)
	case *ast.ScrollTo:
		return "scroll", targetLabel(s.Target)
	case *ast.Scroll:
		return "scroll", ""
	case *ast.Open:
		return "open", ""
	case *ast.GoBack:
		return "back", ""
	case *ast.GoForward:
		return "forward", ""
	case *ast.Reload:
		return "reload", ""
	case *ast.Wait:
		return "wait", ""
	case *ast.WaitFor:
		return "wait", targetLabel(s.Target)
	case *ast.VerifyState:
		return "verify", targetLabel(s.Target)
	case *ast.VerifyText:
		return "verify", targetLabel(s.Target)
	case *ast.VerifyValue:
		return "verify", targetLabel(s.Target)
	case *ast.VerifyCount:
		return "verify", targetLabel(s.Target)
	case *ast.VerifyAttr:
		return "verify", targetLabel(s.Target)
	case *ast.VerifyURL:
		return "verify", "url"
	case *ast.VerifyTitle:
		return "verify", "title"
	case *ast.Screenshot:
		if s.Target != nil {
			return "screenshot", targetLabel(*s.Target)
		}
		return "screenshot", ""
	case *ast.LoadData:
		return "load", s.Table
	case *ast.UseRow:
		return "row", s.Table
	case *ast.UseRows:
		return "rows", s.Table
	case *ast.CountRows:
		return "count", s.Table
	case *ast.SetVar:
		return "set", s.Name
	case *ast.Log:
		return "log", ""
	case *ast.Perform:
		return "perform", s.Block + "." + s.Action
	}
	return "step", ""
}

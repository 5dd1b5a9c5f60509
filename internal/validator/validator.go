// Package validator checks the non-grammatical constraints of a parsed
// program: selector ranges, reference resolution, overload arity. It
// never mutates the AST; callers decide whether its diagnostics block
// generation.
package validator

import (
	"fmt"

	"github.com/verolang/vero/internal/ast"
)

// Error is a semantic diagnostic anchored to a source line.
type Error struct {
	Message string
	Line    int
}

func (e Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

type checker struct {
	prog   *ast.Program
	pages  map[string]*ast.Page
	blocks map[string]*ast.PageActionBlock
	errors []Error
}

// Validate runs every semantic check over the program and returns the
// collected diagnostics.
func Validate(prog *ast.Program) []Error {
	c := &checker{
		prog:   prog,
		pages:  map[string]*ast.Page{},
		blocks: map[string]*ast.PageActionBlock{},
	}
	c.collectDeclarations()
	c.checkPages()
	c.checkBlocks()
	c.checkFeatures()
	return c.errors
}

func (c *checker) errorf(line int, format string, args ...any) {
	c.errors = append(c.errors, Error{
		Message: fmt.Sprintf(format, args...),
		Line:    line,
	})
}

func (c *checker) collectDeclarations() {
	for _, page := range c.prog.Pages {
		if prev, ok := c.pages[page.Name]; ok {
			c.errorf(page.Line, "page %q already declared on line %d", page.Name, prev.Line)
			continue
		}
		c.pages[page.Name] = page
	}
	for _, block := range c.prog.PageActionBlocks {
		if prev, ok := c.blocks[block.Name]; ok {
			c.errorf(block.Line, "page-action block %q already declared on line %d", block.Name, prev.Line)
			continue
		}
		c.blocks[block.Name] = block
	}
	seen := map[string]int{}
	for _, feat := range c.prog.Features {
		if prev, ok := seen[feat.Name]; ok {
			c.errorf(feat.Line, "feature %q already declared on line %d", feat.Name, prev)
			continue
		}
		seen[feat.Name] = feat.Line
	}
}

func (c *checker) checkPages() {
	for _, page := range c.prog.Pages {
		fields := map[string]int{}
		for _, f := range page.Fields {
			if prev, ok := fields[f.Name]; ok {
				c.errorf(f.Line, "field %q already declared on line %d", f.Name, prev)
			} else {
				fields[f.Name] = f.Line
			}
			c.checkSelector(&f.Selector, f.Line)
		}
	}
}

func (c *checker) checkSelector(sel *ast.Selector, line int) {
	if sel.Value == "" {
		c.errorf(line, "selector value must not be empty")
	}
	if sel.NameParam != "" && sel.Type != ast.SelRole {
		c.errorf(line, "NAME parameter is only valid on role selectors")
	}
	for _, m := range sel.Modifiers {
		switch m.Kind {
		case ast.ModNth:
			if m.Index < 0 {
				c.errorf(line, "NTH index must not be negative, got %d", m.Index)
			}
		case ast.ModWithText, ast.ModWithoutText:
			if m.Text == "" {
				c.errorf(line, "text filter must not be empty")
			}
		case ast.ModHas, ast.ModHasNot:
			if m.Selector == nil {
				c.errorf(line, "HAS modifier is missing its selector")
				continue
			}
			if len(m.Selector.Modifiers) > 0 {
				c.errorf(line, "nested HAS selectors must not carry modifiers")
			}
			if m.Selector.Value == "" {
				c.errorf(line, "nested selector value must not be empty")
			}
			if m.Selector.NameParam != "" && m.Selector.Type != ast.SelRole {
				c.errorf(line, "NAME parameter is only valid on role selectors")
			}
		}
	}
}

func (c *checker) checkBlocks() {
	for _, block := range c.prog.PageActionBlocks {
		if _, ok := c.pages[block.PageName]; !ok {
			c.errorf(block.Line, "page-action block %q is bound to undeclared page %q", block.Name, block.PageName)
		}
		arities := map[string]map[int]int{} // action name -> arity -> line
		for _, act := range block.Actions {
			if arities[act.Name] == nil {
				arities[act.Name] = map[int]int{}
			}
			if prev, ok := arities[act.Name][len(act.Params)]; ok {
				c.errorf(act.Line, "action %q with %d parameter(s) already declared on line %d", act.Name, len(act.Params), prev)
			} else {
				arities[act.Name][len(act.Params)] = act.Line
			}
			scope := newScope(nil)
			for _, param := range act.Params {
				scope.declare(param)
			}
			c.checkStmts(act.Body, scope)
		}
	}
}

func (c *checker) checkFeatures() {
	for _, feat := range c.prog.Features {
		names := map[string]int{}
		for _, sc := range feat.Scenarios {
			if prev, ok := names[sc.Name]; ok {
				c.errorf(sc.Line, "scenario %q already declared on line %d", sc.Name, prev)
			} else {
				names[sc.Name] = sc.Line
			}
		}
		for _, hook := range feat.Hooks {
			c.checkStmts(hook.Body, newScope(nil))
		}
		for _, sc := range feat.Scenarios {
			c.checkStmts(sc.Statements, newScope(nil))
		}
	}
}

// scope tracks variable bindings introduced by SET, INTO, action
// parameters and FOR EACH loop variables.
type scope struct {
	parent *scope
	vars   map[string]bool
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: map[string]bool{}}
}

func (s *scope) declare(name string) { s.vars[name] = true }

func (s *scope) resolves(name string) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.vars[name] {
			return true
		}
	}
	return false
}

func (c *checker) checkStmts(stmts []ast.Stmt, sc *scope) {
	for _, s := range stmts {
		c.checkStmt(s, sc)
	}
}

func (c *checker) checkStmt(s ast.Stmt, sc *scope) {
	switch st := s.(type) {
	case *ast.Click:
		c.checkTarget(st.Target, st.Line())
	case *ast.DoubleClick:
		c.checkTarget(st.Target, st.Line())
	case *ast.RightClick:
		c.checkTarget(st.Target, st.Line())
	case *ast.Hover:
		c.checkTarget(st.Target, st.Line())
	case *ast.Focus:
		c.checkTarget(st.Target, st.Line())
	case *ast.Clear:
		c.checkTarget(st.Target, st.Line())
	case *ast.Check:
		c.checkTarget(st.Target, st.Line())
	case *ast.Uncheck:
		c.checkTarget(st.Target, st.Line())
	case *ast.Fill:
		c.checkTarget(st.Target, st.Line())
		c.checkValue(st.Value, sc, st.Line())
	case *ast.TypeText:
		c.checkTarget(st.Target, st.Line())
		c.checkValue(st.Value, sc, st.Line())
	case *ast.Press:
		c.checkValue(st.Key, sc, st.Line())
	case *ast.SelectOption:
		c.checkTarget(st.Target, st.Line())
		c.checkValue(st.Value, sc, st.Line())
	case *ast.Upload:
		c.checkTarget(st.Target, st.Line())
		c.checkValue(st.Path, sc, st.Line())
	case *ast.Drag:
		c.checkTarget(st.Source, st.Line())
		c.checkTarget(st.Dest, st.Line())
	case *ast.ScrollTo:
		c.checkTarget(st.Target, st.Line())
	case *ast.Scroll:
	case *ast.Open:
		c.checkValue(st.URL, sc, st.Line())
	case *ast.GoBack, *ast.GoForward, *ast.Reload:
	case *ast.Wait:
	case *ast.WaitFor:
		c.checkTarget(st.Target, st.Line())
	case *ast.VerifyState:
		c.checkTarget(st.Target, st.Line())
	case *ast.VerifyText:
		c.checkTarget(st.Target, st.Line())
		c.checkValue(st.Text, sc, st.Line())
	case *ast.VerifyValue:
		c.checkTarget(st.Target, st.Line())
		c.checkValue(st.Value, sc, st.Line())
	case *ast.VerifyCount:
		c.checkTarget(st.Target, st.Line())
	case *ast.VerifyAttr:
		c.checkTarget(st.Target, st.Line())
		c.checkValue(st.Name, sc, st.Line())
		c.checkValue(st.Value, sc, st.Line())
	case *ast.VerifyURL:
		c.checkValue(st.URL, sc, st.Line())
	case *ast.VerifyTitle:
		c.checkValue(st.Title, sc, st.Line())
	case *ast.Screenshot:
		if st.Target != nil {
			c.checkTarget(*st.Target, st.Line())
		}
		if st.Target != nil && st.Name == "" {
			c.errorf(st.Line(), "targeted screenshot comparison requires AS \"name\"")
		}
	case *ast.If:
		c.checkTarget(st.Cond.Target, st.Line())
		c.checkStmts(st.Then, newScope(sc))
		c.checkStmts(st.Else, newScope(sc))
	case *ast.Repeat:
		c.checkStmts(st.Body, newScope(sc))
	case *ast.ForEach:
		if st.Table == "" {
			c.errorf(st.Line(), "FOR EACH table name must not be empty")
		}
		inner := newScope(sc)
		inner.declare(st.Var)
		c.checkStmts(st.Body, inner)
	case *ast.TryCatch:
		c.checkStmts(st.Try, newScope(sc))
		c.checkStmts(st.Catch, newScope(sc))
	case *ast.LoadData:
		if st.Table == "" {
			c.errorf(st.Line(), "LOAD table name must not be empty")
		}
	case *ast.UseRow:
		c.checkDataInto(st.Table, st.Var, sc, st.Line())
	case *ast.UseRows:
		c.checkDataInto(st.Table, st.Var, sc, st.Line())
	case *ast.CountRows:
		c.checkDataInto(st.Table, st.Var, sc, st.Line())
	case *ast.SetVar:
		c.checkValue(st.Value, sc, st.Line())
		sc.declare(st.Name)
	case *ast.Log:
		c.checkValue(st.Message, sc, st.Line())
	case *ast.Perform:
		c.checkPerform(st, sc)
	}
}

func (c *checker) checkDataInto(table, varName string, sc *scope, line int) {
	if table == "" {
		c.errorf(line, "table name must not be empty")
	}
	sc.declare(varName)
}

func (c *checker) checkTarget(t ast.Target, line int) {
	if t.Selector != nil {
		c.checkSelector(t.Selector, line)
		return
	}
	page, ok := c.pages[t.Page]
	if !ok {
		c.errorf(line, "reference to undeclared page %q", t.Page)
		return
	}
	for _, f := range page.Fields {
		if f.Name == t.Field {
			return
		}
	}
	c.errorf(line, "page %q has no field %q", t.Page, t.Field)
}

func (c *checker) checkValue(v ast.Value, sc *scope, line int) {
	if v.Kind != ast.VarValue {
		return
	}
	if !sc.resolves(v.Text) {
		c.errorf(line, "reference to undefined variable %q", v.Text)
	}
}

func (c *checker) checkPerform(st *ast.Perform, sc *scope) {
	for _, arg := range st.Args {
		c.checkValue(arg, sc, st.Line())
	}
	if st.Into != "" {
		sc.declare(st.Into)
	}

	block, ok := c.blocks[st.Block]
	if !ok {
		c.errorf(st.Line(), "reference to undeclared page-action block %q", st.Block)
		return
	}
	var found bool
	var arities []int
	for _, act := range block.Actions {
		if act.Name != st.Action {
			continue
		}
		found = true
		arities = append(arities, len(act.Params))
		if len(act.Params) == len(st.Args) {
			return
		}
	}
	if !found {
		c.errorf(st.Line(), "block %q has no action %q", st.Block, st.Action)
		return
	}
	c.errorf(st.Line(), "action %s.%s has no overload taking %d argument(s), declared arities: %v",
		st.Block, st.Action, len(st.Args), arities)
}

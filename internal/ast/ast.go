// Package ast defines the Vero syntax tree. Statements form a closed
// sum: every variant embeds Node and is dispatched by type switch in
// the validator and the transpiler. Nodes are built once by the parser
// and never mutated afterwards.
package ast

// Program is the root of a parsed source file.
type Program struct {
	Pages            []*Page
	PageActionBlocks []*PageActionBlock
	Features         []*Feature
}

// Page is a named set of locator fields for one UI surface.
type Page struct {
	Name   string
	Line   int
	Fields []Field
}

// Field binds a name to a selector inside a page.
type Field struct {
	Name     string
	Line     int
	Selector Selector
}

// SelectorType is the base locator strategy of a selector.
type SelectorType string

const (
	SelCSS         SelectorType = "css"
	SelRole        SelectorType = "role"
	SelText        SelectorType = "text"
	SelTestID      SelectorType = "testid"
	SelLabel       SelectorType = "label"
	SelPlaceholder SelectorType = "placeholder"
)

// Selector is a base locator plus ordered refinement modifiers.
// Modifier order is insertion order and is semantically load-bearing:
// filtering before or after FIRST targets different elements.
type Selector struct {
	Type      SelectorType
	Value     string
	NameParam string // accessible name, role selectors only
	Modifiers []Modifier
	Line      int
}

// ModifierKind enumerates the closed set of selector modifiers.
type ModifierKind int

const (
	ModFirst ModifierKind = iota
	ModLast
	ModNth
	ModWithText
	ModWithoutText
	ModHas
	ModHasNot
)

// Modifier is one refinement step. Exactly one of Index, Text or
// Selector is meaningful depending on Kind. Nested HAS / HAS NOT
// selectors never carry modifiers of their own.
type Modifier struct {
	Kind     ModifierKind
	Index    int       // ModNth
	Text     string    // ModWithText, ModWithoutText
	Selector *Selector // ModHas, ModHasNot
}

// PageActionBlock is a named set of reusable action sequences bound to
// a page. Actions sharing a name at different arities are overloads.
type PageActionBlock struct {
	Name     string
	PageName string
	Line     int
	Actions  []*Action
}

// Action is one callable body inside a page-action block.
type Action struct {
	Name   string
	Line   int
	Params []string
	Body   []Stmt
}

// Feature groups scenarios with setup and teardown hooks.
type Feature struct {
	Name      string
	Line      int
	Hooks     []*Hook
	Scenarios []*Scenario
}

// HookKind enumerates feature hook positions.
type HookKind int

const (
	BeforeEach HookKind = iota
	AfterEach
	BeforeAll
	AfterAll
)

func (k HookKind) String() string {
	switch k {
	case BeforeEach:
		return "BEFORE EACH"
	case AfterEach:
		return "AFTER EACH"
	case BeforeAll:
		return "BEFORE ALL"
	default:
		return "AFTER ALL"
	}
}

// Hook is one setup or teardown block.
type Hook struct {
	Kind HookKind
	Line int
	Body []Stmt
}

// Scenario is one test case. Tags keep their source casing (including
// the leading @); normalization happens at selection time only.
type Scenario struct {
	Name       string
	Line       int
	Tags       []string
	Statements []Stmt
}

// ValueKind discriminates Value.
type ValueKind int

const (
	StringValue ValueKind = iota
	NumberValue
	VarValue
)

// Value is a statement operand: a string literal (possibly containing
// {{NAME}} placeholders), a numeric literal kept in source form, or a
// variable reference.
type Value struct {
	Kind ValueKind
	Text string
}

// Target is what an action or assertion operates on: either a
// Page.field reference or an inline selector.
type Target struct {
	Page     string // with Field, set for references
	Field    string
	Selector *Selector // set for inline selectors
	Line     int
}

// IsRef reports whether the target is a Page.field reference.
func (t Target) IsRef() bool { return t.Selector == nil }

// ElementState is the state tested by WAIT FOR, VERIFY and IF.
type ElementState string

const (
	StateVisible   ElementState = "visible"
	StateHidden    ElementState = "hidden"
	StateEnabled   ElementState = "enabled"
	StateDisabled  ElementState = "disabled"
	StateChecked   ElementState = "checked"
	StateUnchecked ElementState = "unchecked"
)

// Condition is the element-state test of an IF statement.
type Condition struct {
	Target  Target
	State   ElementState
	Negated bool
}

// Stmt is the closed statement union. Only types in this package
// implement it.
type Stmt interface {
	Line() int
	stmtNode()
}

// Node carries the source line shared by every statement variant.
type Node struct {
	Pos int
}

func (n Node) Line() int { return n.Pos }
func (Node) stmtNode()   {}

// Pointer and click actions.
type (
	Click       struct{ Node; Target Target }
	DoubleClick struct{ Node; Target Target }
	RightClick  struct{ Node; Target Target }
	Hover       struct{ Node; Target Target }
	Focus       struct{ Node; Target Target }
	Clear       struct{ Node; Target Target }
	Check       struct{ Node; Target Target }
	Uncheck     struct{ Node; Target Target }
)

// Input actions.
type (
	Fill         struct{ Node; Target Target; Value Value }
	TypeText     struct{ Node; Target Target; Value Value }
	Press        struct{ Node; Key Value }
	SelectOption struct{ Node; Target Target; Value Value }
	Upload       struct{ Node; Target Target; Path Value }
	Drag         struct{ Node; Source, Dest Target }
	ScrollTo     struct{ Node; Target Target }
	Scroll       struct{ Node; Down bool }
)

// Navigation.
type (
	Open      struct{ Node; URL Value }
	GoBack    struct{ Node }
	GoForward struct{ Node }
	Reload    struct{ Node }
	Wait      struct{ Node; Seconds string }
	WaitFor   struct{ Node; Target Target; State ElementState }
)

// Assertions.
type (
	VerifyState struct{ Node; Target Target; State ElementState }
	VerifyText  struct{ Node; Target Target; Text Value; Exact bool }
	VerifyValue struct{ Node; Target Target; Value Value }
	VerifyCount struct{ Node; Target Target; Count string }
	VerifyAttr  struct{ Node; Target Target; Name, Value Value }
	VerifyURL   struct{ Node; URL Value }
	VerifyTitle struct{ Node; Title Value }
)

// Screenshot covers both the generic full-viewport comparison and the
// named, optionally targeted form. Numeric overrides are kept in
// source form; empty string means "not set".
type Screenshot struct {
	Node
	Target        *Target // OF clause, optional
	Name          string  // AS clause, optional
	Preset        string  // strict, balanced, relaxed or empty
	Threshold     string
	MaxDiffPixels string
	MaxDiffRatio  string
}

// Control flow.
type (
	If       struct{ Node; Cond Condition; Then, Else []Stmt }
	Repeat   struct{ Node; Count string; Body []Stmt }
	ForEach  struct{ Node; Var, Table string; Body []Stmt }
	TryCatch struct{ Node; Try, Catch []Stmt }
)

// Data statements.
type (
	LoadData  struct{ Node; Table string }
	UseRow    struct{ Node; Table, Var string }
	UseRows   struct{ Node; Table, Var string }
	CountRows struct{ Node; Table, Var string }
)

// Variables and calls.
type (
	SetVar  struct{ Node; Name string; Value Value }
	Log     struct{ Node; Message Value }
	Perform struct {
		Node
		Block  string
		Action string
		Args   []Value
		Into   string
	}
)

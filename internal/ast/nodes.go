package ast

// Kind identifies the shape of an expression-tree node
type Kind int

const (
	KindOther Kind = iota // anything the checker does not understand
	KindLiteral
	KindParam
	KindResult
	KindVar
	KindReturn
	KindDeclStmt
	KindVarDecl
	KindAssign
	KindMul
	KindDiv
	KindAdd
	KindSub
	KindNeg
	KindEq
	KindNe
	KindGe
	KindLe
	KindGt
	KindLt
	KindBind
	KindStmtList
	KindCast
)

var kindNames = map[Kind]string{
	KindOther:    "other",
	KindLiteral:  "literal",
	KindParam:    "param",
	KindResult:   "result",
	KindVar:      "var",
	KindReturn:   "return",
	KindDeclStmt: "decl_stmt",
	KindVarDecl:  "var_decl",
	KindAssign:   "assign",
	KindMul:      "mul",
	KindDiv:      "div",
	KindAdd:      "add",
	KindSub:      "sub",
	KindNeg:      "neg",
	KindEq:       "eq",
	KindNe:       "ne",
	KindGe:       "ge",
	KindLe:       "le",
	KindGt:       "gt",
	KindLt:       "lt",
	KindBind:     "bind",
	KindStmtList: "stmt_list",
	KindCast:     "cast",
}

// String returns the string representation of the kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsComparison reports whether k is one of the six comparison operators
func (k Kind) IsComparison() bool {
	return k >= KindEq && k <= KindLt
}

// Node is an expression-tree node
type Node interface {
	Pos() (line, col int)
	Kind() Kind
	Operands() []Node
}

// DeclNode is a node that refers to or introduces a declaration
type DeclNode interface {
	Node
	Declaration() Declaration
}

// Declaration is the read-only view of a declaration the unit checker
// needs. Each *UnitAttr method returns the raw text of the unit attribute
// at that site, if one is present.
type Declaration interface {
	Name() string
	Pos() (line, col int)
	IsResult() bool
	TypeUnitAttr() (string, bool)
	UnitAttr() (string, bool)
	FunctionUnitAttr() (string, bool)
}

// Attribute is the text of one unit attribute and where it was written
type Attribute struct {
	Text   string
	Line   int
	Column int
}

func (a *Attribute) Pos() (int, int) { return a.Line, a.Column }

func attrText(a *Attribute) (string, bool) {
	if a == nil {
		return "", false
	}
	return a.Text, true
}

// TypeRef names a type together with the unit attribute attached to it
type TypeRef struct {
	Name   string
	Unit   *Attribute
	Line   int
	Column int
}

func (t *TypeRef) Pos() (int, int) { return t.Line, t.Column }

// UnitAttr returns the unit attribute of the type, if any
func (t *TypeRef) UnitAttr() (string, bool) {
	if t == nil {
		return "", false
	}
	return attrText(t.Unit)
}

// Decl is a variable, parameter, or function-result declaration
type Decl struct {
	Ident    string
	Type     *TypeRef
	Unit     *Attribute // attribute on the declaration itself
	FuncUnit *Attribute // attribute on the enclosing function (result declarations only)
	Result   bool
	Line     int
	Column   int
}

func (d *Decl) Name() string { return d.Ident }
func (d *Decl) Pos() (int, int) { return d.Line, d.Column }
func (d *Decl) IsResult() bool { return d.Result }
func (d *Decl) TypeUnitAttr() (string, bool) { return d.Type.UnitAttr() }
func (d *Decl) UnitAttr() (string, bool) { return attrText(d.Unit) }

func (d *Decl) FunctionUnitAttr() (string, bool) {
	if !d.Result {
		return "", false
	}
	return attrText(d.FuncUnit)
}

// Site says where a unit attribute was written relative to its owner
type Site string

const (
	SiteType        Site = "type"
	SiteDeclaration Site = "declaration"
	SiteFunction    Site = "function"
	SiteTypedef     Site = "typedef"
)

// Annotation records one unit attribute as written in the source, even
// when it was not the one attached to the tree
type Annotation struct {
	Attr  *Attribute
	Site  Site
	Owner string
	// OwnerLine and OwnerColumn locate the declaration, function, or
	// type the attribute belongs to
	OwnerLine   int
	OwnerColumn int
}

// Program is one translation unit handed to the checker
type Program struct {
	Globals     []*VarDecl
	Functions   []*Function
	Annotations []*Annotation
}

// Function is a function definition: its result declaration, its
// parameters, and its body
type Function struct {
	Name   string
	Unit   *Attribute
	Result *Decl
	Params []*Decl
	Body   Node
	Line   int
	Column int
}

func (f *Function) Pos() (int, int) { return f.Line, f.Column }

// Literal is an integer or real constant
type Literal struct {
	Value  string
	Real   bool
	Line   int
	Column int
}

func (l *Literal) Pos() (int, int) { return l.Line, l.Column }
func (l *Literal) Kind() Kind { return KindLiteral }
func (l *Literal) Operands() []Node { return nil }

// Ref is a use of a parameter, function result, or variable
type Ref struct {
	RefKind Kind // KindParam, KindResult, or KindVar
	Decl    *Decl
	Line    int
	Column  int
}

func (r *Ref) Pos() (int, int) { return r.Line, r.Column }
func (r *Ref) Kind() Kind { return r.RefKind }
func (r *Ref) Operands() []Node { return nil }
func (r *Ref) Declaration() Declaration {
	if r.Decl == nil {
		return nil
	}
	return r.Decl
}

// Return is a return statement; Value may be nil
type Return struct {
	Value  Node
	Line   int
	Column int
}

func (r *Return) Pos() (int, int) { return r.Line, r.Column }
func (r *Return) Kind() Kind { return KindReturn }

func (r *Return) Operands() []Node {
	if r.Value == nil {
		return nil
	}
	return []Node{r.Value}
}

// DeclStmt is a statement that introduces a local declaration
type DeclStmt struct {
	Decl   *VarDecl
	Line   int
	Column int
}

func (d *DeclStmt) Pos() (int, int) { return d.Line, d.Column }
func (d *DeclStmt) Kind() Kind { return KindDeclStmt }
func (d *DeclStmt) Operands() []Node {
	if d.Decl == nil {
		return nil
	}
	return []Node{d.Decl}
}

// VarDecl is a variable declaration with an optional initializer
type VarDecl struct {
	Decl   *Decl
	Init   Node
	Line   int
	Column int
}

func (v *VarDecl) Pos() (int, int) { return v.Line, v.Column }
func (v *VarDecl) Kind() Kind { return KindVarDecl }
func (v *VarDecl) Declaration() Declaration {
	if v.Decl == nil {
		return nil
	}
	return v.Decl
}

func (v *VarDecl) Operands() []Node {
	if v.Init == nil {
		return nil
	}
	return []Node{v.Init}
}

// Assign stores Right into Left. Label names the operation in
// diagnostics; empty means "assignment".
type Assign struct {
	Left   Node
	Right  Node
	Label  string
	Line   int
	Column int
}

func (a *Assign) Pos() (int, int) { return a.Line, a.Column }
func (a *Assign) Kind() Kind { return KindAssign }
func (a *Assign) Operands() []Node { return []Node{a.Left, a.Right} }

// Binary is an arithmetic or comparison operator
type Binary struct {
	Op     Kind
	Left   Node
	Right  Node
	Line   int
	Column int
}

func (b *Binary) Pos() (int, int) { return b.Line, b.Column }
func (b *Binary) Kind() Kind { return b.Op }
func (b *Binary) Operands() []Node { return []Node{b.Left, b.Right} }

// Unary is a negation
type Unary struct {
	Operand Node
	Line    int
	Column  int
}

func (u *Unary) Pos() (int, int) { return u.Line, u.Column }
func (u *Unary) Kind() Kind { return KindNeg }
func (u *Unary) Operands() []Node { return []Node{u.Operand} }

// Bind is a scope: the variables it introduces and its body
type Bind struct {
	Vars   []*Decl
	Body   Node
	Line   int
	Column int
}

func (b *Bind) Pos() (int, int) { return b.Line, b.Column }
func (b *Bind) Kind() Kind { return KindBind }

func (b *Bind) Operands() []Node {
	if b.Body == nil {
		return nil
	}
	return []Node{b.Body}
}

// StmtList is a sequence of statements
type StmtList struct {
	Stmts  []Node
	Line   int
	Column int
}

func (s *StmtList) Pos() (int, int) { return s.Line, s.Column }
func (s *StmtList) Kind() Kind { return KindStmtList }
func (s *StmtList) Operands() []Node { return s.Stmts }

// Cast converts Value to Type
type Cast struct {
	Type   *TypeRef
	Value  Node
	Line   int
	Column int
}

func (c *Cast) Pos() (int, int) { return c.Line, c.Column }
func (c *Cast) Kind() Kind { return KindCast }
func (c *Cast) Operands() []Node { return []Node{c.Value} }

// Other is any construct the tree does not model. Label names it in
// diagnostics and dumps.
type Other struct {
	Label  string
	Args   []Node
	Line   int
	Column int
}

func (o *Other) Pos() (int, int) { return o.Line, o.Column }
func (o *Other) Kind() Kind { return KindOther }
func (o *Other) Operands() []Node { return o.Args }

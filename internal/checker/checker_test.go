package checker

import (
	"strings"
	"testing"

	"github.com/magnusjonsson/unitc/internal/ast"
	"github.com/magnusjonsson/unitc/internal/diagnostic"
	"github.com/magnusjonsson/unitc/internal/units"
)

func attr(text string) *ast.Attribute {
	return &ast.Attribute{Text: text, Line: 1, Column: 1}
}

func decl(name, unit string) *ast.Decl {
	d := &ast.Decl{Ident: name, Type: &ast.TypeRef{Name: "double"}, Line: 1, Column: 1}
	if unit != "" {
		d.Unit = attr(unit)
	}
	return d
}

func ref(d *ast.Decl) *ast.Ref {
	return &ast.Ref{RefKind: ast.KindVar, Decl: d, Line: 2, Column: 5}
}

func lit(v string) *ast.Literal {
	return &ast.Literal{Value: v, Line: 2, Column: 9}
}

func bin(op ast.Kind, l, r ast.Node) *ast.Binary {
	return &ast.Binary{Op: op, Left: l, Right: r, Line: 3, Column: 7}
}

func newChecker(opts Options) (*Checker, *diagnostic.Diagnostics) {
	d := diagnostic.New()
	opts.Interner = units.NewInterner()
	return New(d, opts), d
}

func expectErrorContaining(t *testing.T, d *diagnostic.Diagnostics, substr string) {
	t.Helper()
	for _, item := range d.All() {
		if item.Severity == diagnostic.Error && strings.Contains(item.Message, substr) {
			return
		}
	}
	t.Errorf("expected error containing %q, got:\n%s", substr, d.Format("test"))
}

func expectClean(t *testing.T, d *diagnostic.Diagnostics) {
	t.Helper()
	if d.Count() != 0 {
		t.Errorf("expected no diagnostics, got:\n%s", d.Format("test"))
	}
}

func TestInitializationMismatch(t *testing.T) {
	c, d := newChecker(DefaultOptions())
	elapsed := decl("elapsed", "seconds")
	distance := &ast.VarDecl{Decl: decl("distance", "meters"), Init: ref(elapsed), Line: 4, Column: 3}

	got := c.Check(&ast.DeclStmt{Decl: distance, Line: 4, Column: 3})
	if got.HasUnit {
		t.Errorf("expected declaration statement to have no unit, got %s", got)
	}
	expectErrorContaining(t, d, "initialization from unit seconds to unit meters")
	if d.ErrorCount() != 1 {
		t.Errorf("expected exactly one error, got %d", d.ErrorCount())
	}
	if items := d.All(); items[0].Line != 4 || items[0].Column != 3 {
		t.Errorf("expected error at 4:3, got %d:%d", items[0].Line, items[0].Column)
	}
}

func TestTooManyUnitAttributes(t *testing.T) {
	c, d := newChecker(DefaultOptions())
	x := &ast.Decl{
		Ident: "x",
		Type:  &ast.TypeRef{Name: "length_t", Unit: attr("meters")},
		Unit:  attr("meters"),
	}
	got := c.Resolve(x)
	if got.HasUnit {
		t.Errorf("expected unconstrained declaration, got %s", got)
	}
	expectErrorContaining(t, d, `too many unit attributes on "x"`)
}

func TestResolveSources(t *testing.T) {
	tests := []struct {
		name string
		decl *ast.Decl
		want string
	}{
		{"none", &ast.Decl{Ident: "n"}, "unconstrained"},
		{"type", &ast.Decl{Ident: "t", Type: &ast.TypeRef{Unit: attr("meters")}}, "meters"},
		{"declaration", &ast.Decl{Ident: "d", Unit: attr("meters / seconds")}, "meters / seconds"},
		{"function on result", &ast.Decl{Ident: "r", Result: true, FuncUnit: attr("1")}, "1"},
		{"function ignored on non-result", &ast.Decl{Ident: "p", FuncUnit: attr("meters")}, "unconstrained"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, d := newChecker(DefaultOptions())
			got := c.Resolve(tt.decl)
			if got.String() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
			expectClean(t, d)
		})
	}
}

func TestMalformedAttributeDegradesOnlyThatSite(t *testing.T) {
	c, d := newChecker(DefaultOptions())
	x := &ast.Decl{
		Ident: "x",
		Type:  &ast.TypeRef{Unit: attr("metres + feet")},
		Unit:  attr("meters"),
	}
	got := c.Resolve(x)
	if got.String() != "meters" {
		t.Errorf("expected meters from the well-formed site, got %s", got)
	}
	expectErrorContaining(t, d, `malformed unit attribute "metres + feet"`)
}

func TestResolveIsCachedPerSession(t *testing.T) {
	c, d := newChecker(DefaultOptions())
	bad := decl("bad", "2")
	c.Check(ref(bad))
	c.Check(ref(bad))
	if d.ErrorCount() != 1 {
		t.Errorf("expected the malformed attribute to be reported once, got %d", d.ErrorCount())
	}
}

func TestMultiplyAndDivide(t *testing.T) {
	c, d := newChecker(DefaultOptions())
	m, s := decl("m", "meters"), decl("s", "seconds")

	area := c.Check(bin(ast.KindMul, ref(m), ref(m)))
	if area.String() != "meters * meters" {
		t.Errorf("expected meters * meters, got %s", area)
	}
	speed := c.Check(bin(ast.KindDiv, ref(m), ref(s)))
	if speed.String() != "meters / seconds" {
		t.Errorf("expected meters / seconds, got %s", speed)
	}
	ratio := c.Check(bin(ast.KindDiv, ref(m), ref(m)))
	if !ratio.HasUnit || !ratio.Unit.IsDimensionless() {
		t.Errorf("expected dimensionless ratio, got %s", ratio)
	}
	scaled := c.Check(bin(ast.KindMul, lit("2"), ref(m)))
	if scaled.String() != "meters" {
		t.Errorf("expected literal to be dimensionless, got %s", scaled)
	}
	unknown := c.Check(bin(ast.KindMul, ref(decl("free", "")), ref(m)))
	if unknown.HasUnit {
		t.Errorf("expected product with unconstrained operand to be unconstrained, got %s", unknown)
	}
	expectClean(t, d)
}

func TestAdditionRequiresCompatibleUnits(t *testing.T) {
	c, d := newChecker(DefaultOptions())
	m, s := decl("m", "meters"), decl("s", "seconds")

	got := c.Check(bin(ast.KindAdd, ref(m), ref(m)))
	if got.String() != "meters" {
		t.Errorf("expected meters, got %s", got)
	}
	expectClean(t, d)

	c.Check(bin(ast.KindSub, ref(m), ref(s)))
	expectErrorContaining(t, d, "subtraction of incompatible units meters and seconds")

	got = c.Check(bin(ast.KindAdd, ref(decl("free", "")), ref(s)))
	if got.String() != "seconds" {
		t.Errorf("expected the known operand's unit, got %s", got)
	}
}

func TestNegationPropagates(t *testing.T) {
	c, _ := newChecker(DefaultOptions())
	got := c.Check(&ast.Unary{Operand: ref(decl("v", "meters / seconds"))})
	if got.String() != "meters / seconds" {
		t.Errorf("expected meters / seconds, got %s", got)
	}
}

func TestAssignmentResultIsTarget(t *testing.T) {
	c, d := newChecker(DefaultOptions())
	m, s := decl("m", "meters"), decl("s", "seconds")

	got := c.Check(&ast.Assign{Left: ref(m), Right: ref(s), Line: 7, Column: 2})
	if got.String() != "meters" {
		t.Errorf("expected the target unit, got %s", got)
	}
	expectErrorContaining(t, d, "assignment from unit seconds to unit meters")

	d.Clear()
	c.Check(&ast.Assign{Left: ref(m), Right: ref(s), Label: "return"})
	expectErrorContaining(t, d, "return from unit seconds to unit meters")

	d.Clear()
	c.Check(&ast.Assign{Left: ref(m), Right: ref(decl("free", ""))})
	expectClean(t, d)
}

func TestComparisonPolicy(t *testing.T) {
	m, s := decl("m", "meters"), decl("s", "seconds")

	c, d := newChecker(DefaultOptions())
	got := c.Check(bin(ast.KindLt, ref(m), ref(s)))
	if got.String() != "1" {
		t.Errorf("expected comparison to be dimensionless, got %s", got)
	}
	expectErrorContaining(t, d, "comparison of unit meters with unit seconds")

	opts := DefaultOptions()
	opts.StrictComparisons = false
	c, d = newChecker(opts)
	c.Check(bin(ast.KindEq, ref(m), ref(s)))
	expectClean(t, d)
}

func TestCastChecksConversion(t *testing.T) {
	c, d := newChecker(DefaultOptions())
	lengthType := &ast.TypeRef{Name: "length_t", Unit: attr("meters")}

	got := c.Check(&ast.Cast{Type: lengthType, Value: ref(decl("s", "seconds"))})
	if got.String() != "meters" {
		t.Errorf("expected cast to yield target unit, got %s", got)
	}
	expectErrorContaining(t, d, "conversion from unit seconds to unit meters")

	got = c.Check(&ast.Cast{Type: &ast.TypeRef{Name: "double"}, Value: ref(decl("s2", "seconds"))})
	if got.HasUnit {
		t.Errorf("expected cast to plain type to be unconstrained, got %s", got)
	}
}

func TestStatementsAndReturn(t *testing.T) {
	c, d := newChecker(DefaultOptions())
	result := &ast.Decl{Ident: "result", Result: true, FuncUnit: attr("meters")}
	s := decl("s", "seconds")

	body := &ast.StmtList{Stmts: []ast.Node{
		&ast.Return{Value: &ast.Assign{
			Label: "return",
			Left:  &ast.Ref{RefKind: ast.KindResult, Decl: result},
			Right: ref(s),
		}},
	}}
	got := c.Check(body)
	if got.String() != "meters" {
		t.Errorf("expected statement list to yield its last statement's unit, got %s", got)
	}
	expectErrorContaining(t, d, "return from unit seconds to unit meters")

	if got := c.Check(&ast.Return{}); got.HasUnit {
		t.Errorf("expected bare return to be unconstrained, got %s", got)
	}
}

func TestUnhandledConstructs(t *testing.T) {
	c, d := newChecker(DefaultOptions())
	call := &ast.Other{Label: "call_expression", Args: []ast.Node{lit("1")}, Line: 9, Column: 4}

	got := c.Check(bin(ast.KindMul, call, ref(decl("m", "meters"))))
	if got.HasUnit {
		t.Errorf("expected unhandled operand to make the product unconstrained, got %s", got)
	}
	if d.WarningCount() != 1 || d.ErrorCount() != 0 {
		t.Fatalf("expected one warning, got:\n%s", d.Format("test"))
	}
	if msg := d.All()[0].Message; msg != "construct not yet handled: call_expression" {
		t.Errorf("unexpected message %q", msg)
	}

	opts := DefaultOptions()
	opts.WarnUnhandled = false
	c, d = newChecker(opts)
	c.Check(call)
	expectClean(t, d)
}

func TestEmptyDeclStmt(t *testing.T) {
	c, d := newChecker(DefaultOptions())
	if got := c.Check(&ast.DeclStmt{Line: 4, Column: 1}); got.HasUnit {
		t.Errorf("expected no unit, got %s", got)
	}
	expectClean(t, d)
}

func TestMaxBaseUnits(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxBaseUnits = 1
	c, d := newChecker(opts)

	c.Check(bin(ast.KindMul, ref(decl("m", "meters")), ref(decl("s", "seconds"))))
	expectErrorContaining(t, d, "unit meters * seconds exceeds 1 distinct base units")
}

func TestCheckProgram(t *testing.T) {
	elapsed := decl("elapsed", "seconds")
	result := &ast.Decl{Ident: "result", Result: true, FuncUnit: attr("meters")}
	prog := &ast.Program{
		Globals: []*ast.VarDecl{{Decl: elapsed}},
		Functions: []*ast.Function{{
			Name:   "distance",
			Result: result,
			Params: []*ast.Decl{decl("v", "meters / seconds")},
			Body: &ast.StmtList{Stmts: []ast.Node{
				&ast.Return{Value: &ast.Assign{
					Label: "return",
					Left:  &ast.Ref{RefKind: ast.KindResult, Decl: result},
					Right: bin(ast.KindMul, ref(elapsed), ref(decl("v2", "meters / seconds"))),
				}},
			}},
		}},
	}

	res := CheckWithResult(prog, DefaultOptions())
	if res.Diagnostics.Count() != 0 {
		t.Errorf("expected clean program, got:\n%s", res.Diagnostics.Format("test"))
	}
	if got := res.DeclUnits[result]; got.String() != "meters" {
		t.Errorf("expected result unit meters, got %s", got)
	}
	if len(res.NodeUnits) == 0 {
		t.Error("expected node units to be recorded")
	}
	ret := prog.Functions[0].Body.(*ast.StmtList).Stmts[0].(*ast.Return)
	if got, ok := res.UnitOf(ret.Value.(*ast.Assign).Right); !ok || got.String() != "meters" {
		t.Errorf("expected the returned product to be meters, got %s %v", got, ok)
	}
	if _, ok := res.UnitOf(lit("2")); ok {
		t.Error("expected no unit for a node outside the program")
	}
}

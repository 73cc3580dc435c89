package cfront

import (
	"strings"
	"testing"

	"github.com/magnusjonsson/unitc/internal/ast"
	"github.com/magnusjonsson/unitc/internal/diagnostic"
)

func parseC(t *testing.T, source string) (*ast.Program, *diagnostic.Diagnostics) {
	t.Helper()
	prog, diags, err := Parse([]byte(source), "")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return prog, diags
}

func parseClean(t *testing.T, source string) *ast.Program {
	t.Helper()
	prog, diags := parseC(t, source)
	if diags.Count() != 0 {
		t.Fatalf("unexpected diagnostics:\n%s", diags.Format("test.c"))
	}
	return prog
}

func attrText(a *ast.Attribute) string {
	if a == nil {
		return "<none>"
	}
	return a.Text
}

const distanceSource = `
typedef double length_t __attribute__((unit("meters")));
typedef double duration_t __attribute__((unit("seconds")));

length_t distance(__attribute__((unit("meters / seconds"))) double speed, duration_t t)
{
    length_t d = speed * t;
    return d;
}
`

func TestFunctionLowering(t *testing.T) {
	prog := parseClean(t, distanceSource)

	if len(prog.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(prog.Functions))
	}
	fn := prog.Functions[0]
	if fn.Name != "distance" {
		t.Errorf("expected distance, got %s", fn.Name)
	}
	if fn.Result == nil || !fn.Result.Result {
		t.Fatal("expected a result declaration")
	}
	if got := attrText(fn.Result.Type.Unit); got != "meters" {
		t.Errorf("expected result type unit meters, got %s", got)
	}
	if len(fn.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(fn.Params))
	}
	if got := attrText(fn.Params[0].Unit); got != "meters / seconds" {
		t.Errorf("expected declaration unit on speed, got %s", got)
	}
	if got := attrText(fn.Params[1].Type.Unit); got != "seconds" {
		t.Errorf("expected typedef unit on t, got %s", got)
	}

	dump := ast.Print(fn.Body)
	for _, want := range []string{"Bind", "DeclStmt", "VarDecl: d: length_t", "Binary: mul", "Param: speed", "Assign (return)", "Result: distance", "Var: d"} {
		if !strings.Contains(dump, want) {
			t.Errorf("expected %q in body dump:\n%s", want, dump)
		}
	}
}

func TestAttributePlacement(t *testing.T) {
	source := `
__attribute__((unit("meters"))) double before;
double __attribute__((unit("seconds"))) after;
__attribute__((unit(meters * meters))) double area;
`
	prog := parseClean(t, source)
	if len(prog.Globals) != 3 {
		t.Fatalf("expected 3 globals, got %d", len(prog.Globals))
	}

	before, after, area := prog.Globals[0].Decl, prog.Globals[1].Decl, prog.Globals[2].Decl
	if attrText(before.Unit) != "meters" || before.Type.Unit != nil {
		t.Errorf("expected declaration site attribute, got decl=%s type=%s", attrText(before.Unit), attrText(before.Type.Unit))
	}
	if attrText(after.Type.Unit) != "seconds" || after.Unit != nil {
		t.Errorf("expected type site attribute, got decl=%s type=%s", attrText(after.Unit), attrText(after.Type.Unit))
	}
	if attrText(area.Unit) != "meters * meters" {
		t.Errorf("expected raw argument text, got %s", attrText(area.Unit))
	}

	if len(prog.Annotations) != 3 {
		t.Errorf("expected 3 recorded annotations, got %d", len(prog.Annotations))
	}
}

func TestFunctionSiteAttribute(t *testing.T) {
	source := `
double speed(double d, double t) __attribute__((unit("meters / seconds")));

__attribute__((unit("meters"))) double twice(double x)
{
    return x + x;
}
`
	prog := parseClean(t, source)
	if len(prog.Functions) != 1 {
		t.Fatalf("expected 1 function definition, got %d", len(prog.Functions))
	}
	fn := prog.Functions[0]
	if attrText(fn.Unit) != "meters" {
		t.Errorf("expected function attribute, got %s", attrText(fn.Unit))
	}
	if text, ok := fn.Result.FunctionUnitAttr(); !ok || text != "meters" {
		t.Errorf("expected result to see the function attribute, got %q %v", text, ok)
	}
	if _, ok := fn.Result.UnitAttr(); ok {
		t.Error("expected no declaration attribute on the result")
	}
}

func TestVoidFunctionHasNoResult(t *testing.T) {
	prog := parseClean(t, "void reset(double x) { x = 0; return; }\n")
	fn := prog.Functions[0]
	if fn.Result != nil {
		t.Errorf("expected no result declaration, got %+v", fn.Result)
	}
}

func TestInlineTypeAttributeOverridesTypedef(t *testing.T) {
	source := `
typedef double length_t __attribute__((unit("meters")));
length_t __attribute__((unit("feet"))) height;
`
	prog := parseClean(t, source)
	if got := attrText(prog.Globals[0].Decl.Type.Unit); got != "feet" {
		t.Errorf("expected inline attribute to win, got %s", got)
	}
}

func TestTypedefOfTypedefInheritsUnit(t *testing.T) {
	source := `
typedef double length_t __attribute__((unit("meters")));
typedef length_t height_t;
height_t h;
`
	prog := parseClean(t, source)
	if got := attrText(prog.Globals[0].Decl.Type.Unit); got != "meters" {
		t.Errorf("expected inherited unit meters, got %s", got)
	}
}

func TestCustomAttributeName(t *testing.T) {
	prog, diags, err := Parse([]byte(`__attribute__((dim("meters"), unit("seconds"))) double x;`), "dim")
	if err != nil {
		t.Fatal(err)
	}
	if diags.Count() != 0 {
		t.Fatalf("unexpected diagnostics:\n%s", diags.Format("test.c"))
	}
	if got := attrText(prog.Globals[0].Decl.Unit); got != "meters" {
		t.Errorf("expected only the dim attribute to be read, got %s", got)
	}
}

func TestAttributeArgumentCount(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"two", `__attribute__((unit("m", "s"))) double x;`, "unit attribute takes exactly one argument, got 2"},
		{"none", `__attribute__((unit())) double x;`, "unit attribute takes exactly one argument, got 0"},
		{"bare", `__attribute__((unit)) double x;`, "unit attribute takes exactly one argument, got 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, diags := parseC(t, tt.source)
			if !strings.Contains(diags.Format("test.c"), tt.want) {
				t.Errorf("expected %q, got:\n%s", tt.want, diags.Format("test.c"))
			}
			if prog.Globals[0].Decl.Unit != nil {
				t.Error("expected the malformed attribute to be dropped")
			}
		})
	}
}

func TestSyntaxErrorsAreDiagnostics(t *testing.T) {
	_, diags := parseC(t, "double x = ;\n")
	if !diags.HasErrors() {
		t.Fatal("expected a syntax error")
	}
	if !strings.Contains(diags.Format("test.c"), "syntax error") {
		t.Errorf("expected syntax error message, got:\n%s", diags.Format("test.c"))
	}
}

func TestUnmodelledExpressions(t *testing.T) {
	source := `
double f(double x)
{
    double y = sqrt(x);
    double z = x % 2;
    return y;
}
`
	prog := parseClean(t, source)
	dump := ast.Print(prog.Functions[0].Body)
	for _, want := range []string{"Other: call_expression", "Other: operator %"} {
		if !strings.Contains(dump, want) {
			t.Errorf("expected %q in dump:\n%s", want, dump)
		}
	}
}

func TestControlFlowIsFlattened(t *testing.T) {
	source := `
double clamp(double x, double hi)
{
    if (x > hi) {
        x = hi;
    } else {
        x -= 1;
    }
    for (int i = 0; i < 3; i++)
        x *= 2;
    return x;
}
`
	prog := parseClean(t, source)
	dump := ast.Print(prog.Functions[0].Body)
	for _, want := range []string{"Binary: gt", "Assign", "Binary: sub", "Binary: lt", "VarDecl: i: int"} {
		if !strings.Contains(dump, want) {
			t.Errorf("expected %q in dump:\n%s", want, dump)
		}
	}
}

func TestScopes(t *testing.T) {
	source := `
double g;
double f(double g)
{
    {
        double g = 1;
        g = 2;
    }
    return g;
}
`
	prog := parseClean(t, source)
	body := prog.Functions[0].Body.(*ast.Bind)
	list := body.Body.(*ast.StmtList)
	ret := list.Stmts[len(list.Stmts)-1].(*ast.Return)
	assign := ret.Value.(*ast.Assign)
	ref, ok := assign.Right.(*ast.Ref)
	if !ok || ref.RefKind != ast.KindParam {
		t.Errorf("expected return to reference the parameter, got %s", ast.Print(assign.Right))
	}
	if ref.Decl != prog.Functions[0].Params[0] {
		t.Error("expected the parameter declaration to be shared")
	}
}

func TestRedeclarationInBlock(t *testing.T) {
	_, diags := parseC(t, "void f(void) { double x; double x; }\n")
	if !strings.Contains(diags.Format("test.c"), "symbol 'x' already defined in this scope") {
		t.Errorf("expected redeclaration error, got:\n%s", diags.Format("test.c"))
	}
}

func TestClosedFrontend(t *testing.T) {
	f, err := New("")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	if _, _, err := f.Parse([]byte("int x;")); err == nil {
		t.Error("expected error from closed frontend")
	}
}

func TestTrailingDeclarationAttribute(t *testing.T) {
	source := `
int length1 __attribute__((unit("meters")));
int __attribute__((unit("meters"))) length2;
__attribute__((unit("meters"))) int length3;
double a __attribute__((unit("seconds"))), b;
double c __attribute__((unit("meters"))) = 2;
`
	prog := parseClean(t, source)
	if len(prog.Globals) != 6 {
		t.Fatalf("expected 6 globals, got %d", len(prog.Globals))
	}

	length1 := prog.Globals[0].Decl
	if attrText(length1.Unit) != "meters" || length1.Type.Unit != nil {
		t.Errorf("expected declaration site attribute on length1, got decl=%s type=%s", attrText(length1.Unit), attrText(length1.Type.Unit))
	}
	if length1.Unit != nil && (length1.Unit.Line != 2 || length1.Unit.Column != 28) {
		t.Errorf("expected attribute at 2:28, got %d:%d", length1.Unit.Line, length1.Unit.Column)
	}
	if got := attrText(prog.Globals[1].Decl.Type.Unit); got != "meters" {
		t.Errorf("expected type site attribute on length2, got %s", got)
	}
	if got := attrText(prog.Globals[2].Decl.Unit); got != "meters" {
		t.Errorf("expected declaration site attribute on length3, got %s", got)
	}
	if got := attrText(prog.Globals[3].Decl.Unit); got != "seconds" {
		t.Errorf("expected seconds on a, got %s", got)
	}
	if b := prog.Globals[4].Decl; b.Unit != nil || b.Type.Unit != nil {
		t.Errorf("expected b to carry no unit, got %s", attrText(b.Unit))
	}
	c := prog.Globals[5]
	if attrText(c.Decl.Unit) != "meters" || c.Init == nil {
		t.Errorf("expected c to keep its unit and initializer, got %s", attrText(c.Decl.Unit))
	}

	if len(prog.Annotations) != 6 {
		t.Errorf("expected 6 recorded annotations, got %d", len(prog.Annotations))
	}
}

func TestTrailingAttributeArgumentCount(t *testing.T) {
	_, diags := parseC(t, `double x __attribute__((unit("m", "s")));`)
	want := "error[test.c:1:25]: unit attribute takes exactly one argument, got 2"
	if out := diags.Format("test.c"); !strings.Contains(out, want) {
		t.Errorf("expected %q, got:\n%s", want, out)
	}
}

func TestTrailingParameterAttribute(t *testing.T) {
	source := `
double f(double x __attribute__((unit("meters"))), double __attribute__((unit("seconds"))) t)
{
    return x;
}
`
	prog := parseClean(t, source)
	params := prog.Functions[0].Params
	if attrText(params[0].Unit) != "meters" || params[0].Type.Unit != nil {
		t.Errorf("expected declaration site attribute on x, got decl=%s type=%s", attrText(params[0].Unit), attrText(params[0].Type.Unit))
	}
	if attrText(params[1].Type.Unit) != "seconds" || params[1].Unit != nil {
		t.Errorf("expected type site attribute on t, got decl=%s type=%s", attrText(params[1].Unit), attrText(params[1].Type.Unit))
	}
}

func TestPreprocessorConditionals(t *testing.T) {
	source := `
#ifndef KINEMATICS_H
#define KINEMATICS_H

typedef double length_t __attribute__((unit("meters")));

#ifdef WITH_SPEED
__attribute__((unit("meters / seconds"))) double speed;
#else
__attribute__((unit("meters / seconds"))) double speed;
#endif

length_t f(void)
{
#if FAST
    __attribute__((unit("seconds"))) double t;
#else
    __attribute__((unit("seconds"))) double t;
#endif
    length_t d = speed * t;
    return d;
}

#endif
`
	prog := parseClean(t, source)
	if len(prog.Functions) != 1 || prog.Functions[0].Name != "f" {
		t.Fatalf("expected the guarded function to be lowered, got %d functions", len(prog.Functions))
	}
	if len(prog.Globals) != 2 {
		t.Errorf("expected both branches to be lowered, got %d globals", len(prog.Globals))
	}
	if got := attrText(prog.Functions[0].Result.Type.Unit); got != "meters" {
		t.Errorf("expected the guarded typedef to be visible, got %s", got)
	}
	dump := ast.Print(prog.Functions[0].Body)
	for _, want := range []string{"VarDecl: t: double", "Var: speed", "Var: t"} {
		if !strings.Contains(dump, want) {
			t.Errorf("expected %q in body dump:\n%s", want, dump)
		}
	}
}

func TestRedeclarationInGuardedFunction(t *testing.T) {
	source := `
#ifdef ENABLED
void f(void) { double x; double x; }
#endif
`
	_, diags := parseC(t, source)
	if !strings.Contains(diags.Format("test.c"), "symbol 'x' already defined in this scope") {
		t.Errorf("expected redeclaration error, got:\n%s", diags.Format("test.c"))
	}
}

package linter

import (
	"fmt"

	"github.com/hashicorp/go-set/v3"

	"github.com/magnusjonsson/unitc/internal/ast"
	"github.com/magnusjonsson/unitc/internal/diagnostic"
	"github.com/magnusjonsson/unitc/internal/parser"
	"github.com/magnusjonsson/unitc/internal/units"
)

// Options configures the linter
type Options struct {
	// BaseUnits, when not empty, is the vocabulary of known base units
	BaseUnits []string
}

// Linter performs style and best-practice checks on unit annotations.
// It reports warnings (never errors) using the diagnostic system.
type Linter struct {
	prog     *ast.Program
	diag     *diagnostic.Diagnostics
	known    *set.Set[string]
	interner *units.Interner
}

// Lint runs all lint rules on the given program and returns diagnostics.
func Lint(prog *ast.Program, opts Options) *diagnostic.Diagnostics {
	l := &Linter{
		prog:     prog,
		diag:     diagnostic.New(),
		known:    set.From(opts.BaseUnits),
		interner: units.NewInterner(),
	}

	l.lintAnnotations()
	l.lintFunctions()

	return l.diag
}

// lintAnnotations checks every unit attribute written in the source.
// Malformed annotations are left to the checker.
func (l *Linter) lintAnnotations() {
	seen := set.New[string](len(l.prog.Annotations))
	for _, a := range l.prog.Annotations {
		l.checkDuplicate(a, seen)

		u, err := parser.New(a.Attr.Text).Parse(l.interner)
		if err != nil {
			continue
		}
		l.checkCanonical(a.Attr, u)
		l.checkVocabulary(a.Attr, u)
	}
}

// lintFunctions checks all function definitions.
func (l *Linter) lintFunctions() {
	for _, fn := range l.prog.Functions {
		if fn.Body == nil {
			continue
		}
		used := collectUsedDecls(fn.Body)
		l.checkUnusedParams(fn.Name, fn.Params, used)
	}
}

// --- Lint rules ---

// checkDuplicate warns about a second unit attribute at the same site of
// the same owner; only the first one is used.
func (l *Linter) checkDuplicate(a *ast.Annotation, seen *set.Set[string]) {
	key := fmt.Sprintf("%s %s %d:%d", a.Site, a.Owner, a.OwnerLine, a.OwnerColumn)
	if seen.Insert(key) {
		return
	}
	l.diag.WarningWithHint(a.Attr.Line, a.Attr.Column,
		fmt.Sprintf("duplicate unit attribute on the %s of '%s'", a.Site, a.Owner),
		"only the first attribute is used")
}

// checkCanonical warns if an annotation is not written the way the unit
// renders, e.g. "seconds*meters" instead of "meters * seconds".
func (l *Linter) checkCanonical(attr *ast.Attribute, u units.Unit) {
	canonical := u.String()
	if attr.Text == canonical {
		return
	}
	l.diag.WarningWithHint(attr.Line, attr.Column,
		fmt.Sprintf("unit annotation %q is not in canonical form", attr.Text),
		fmt.Sprintf("write %q", canonical))
}

// checkVocabulary warns about base units outside the configured vocabulary.
func (l *Linter) checkVocabulary(attr *ast.Attribute, u units.Unit) {
	if l.known.Empty() {
		return
	}
	for _, term := range u.Terms() {
		if name := term.Base.Name(); !l.known.Contains(name) {
			l.diag.Warningf(attr.Line, attr.Column, "unknown base unit '%s'", name)
		}
	}
}

// checkUnusedParams warns about unit-annotated parameters that are never
// read in the body. Their annotations constrain nothing.
func (l *Linter) checkUnusedParams(scopeName string, params []*ast.Decl, used *set.Set[*ast.Decl]) {
	for _, p := range params {
		if !hasUnit(p) || used.Contains(p) {
			continue
		}
		l.diag.Warningf(p.Line, p.Column,
			"parameter '%s' in '%s' is never used", p.Ident, scopeName)
	}
}

func hasUnit(d *ast.Decl) bool {
	_, onType := d.TypeUnitAttr()
	_, onDecl := d.UnitAttr()
	return onType || onDecl
}

// --- Name collection helpers ---

// collectUsedDecls walks a tree and collects every declaration that is
// referenced.
func collectUsedDecls(root ast.Node) *set.Set[*ast.Decl] {
	used := set.New[*ast.Decl](0)
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		if n == nil {
			return
		}
		if ref, ok := n.(*ast.Ref); ok && ref.Decl != nil {
			used.Insert(ref.Decl)
		}
		for _, op := range n.Operands() {
			walk(op)
		}
	}
	walk(root)
	return used
}

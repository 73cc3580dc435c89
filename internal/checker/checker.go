package checker

import (
	"github.com/magnusjonsson/unitc/internal/ast"
	"github.com/magnusjonsson/unitc/internal/config"
	"github.com/magnusjonsson/unitc/internal/diagnostic"
	"github.com/magnusjonsson/unitc/internal/units"
)

// Options controls checker policy
type Options struct {
	// StrictComparisons reports comparisons between incompatible units
	StrictComparisons bool
	// WarnUnhandled reports constructs the checker does not understand
	WarnUnhandled bool
	// MaxBaseUnits, when positive, bounds the number of distinct base
	// units a declared or inferred unit may have
	MaxBaseUnits int
	// Interner interns base unit names; nil means the process-wide one
	Interner *units.Interner
}

// DefaultOptions returns the options matching config.Default
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

// OptionsFromConfig derives checker options from a configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		StrictComparisons: cfg.Comparisons != config.ComparisonsPermissive,
		WarnUnhandled:     cfg.Unhandled != config.UnhandledIgnore,
		MaxBaseUnits:      cfg.MaxBaseUnits,
	}
}

// Checker infers the unit of every node of an expression tree and reports
// dimensional errors. It never modifies the tree. A Checker is one
// checking session: declaration units are resolved, and their attribute
// problems reported, once per session.
type Checker struct {
	diag     *diagnostic.Diagnostics
	opts     Options
	interner *units.Interner

	decls     map[ast.Declaration]units.Maybe
	typeUnits map[*ast.Attribute]units.Maybe
	nodeUnits map[ast.Node]units.Maybe
}

// New creates a checker reporting into diag
func New(diag *diagnostic.Diagnostics, opts Options) *Checker {
	interner := opts.Interner
	if interner == nil {
		interner = units.Default()
	}
	return &Checker{
		diag:      diag,
		opts:      opts,
		interner:  interner,
		decls:     make(map[ast.Declaration]units.Maybe),
		typeUnits: make(map[*ast.Attribute]units.Maybe),
		nodeUnits: make(map[ast.Node]units.Maybe),
	}
}

// CheckResult holds the results of checking a program
type CheckResult struct {
	Diagnostics *diagnostic.Diagnostics
	NodeUnits   map[ast.Node]units.Maybe
	DeclUnits   map[ast.Declaration]units.Maybe
}

// UnitOf returns the unit inferred for node, if the checker visited it
func (r *CheckResult) UnitOf(node ast.Node) (units.Maybe, bool) {
	m, ok := r.NodeUnits[node]
	return m, ok
}

// CheckWithResult checks every global declaration and every function of
// prog, and returns the inferred units alongside the diagnostics
func CheckWithResult(prog *ast.Program, opts Options) *CheckResult {
	c := New(diagnostic.New(), opts)
	c.CheckProgram(prog)
	return &CheckResult{
		Diagnostics: c.diag,
		NodeUnits:   c.nodeUnits,
		DeclUnits:   c.decls,
	}
}

// Check checks prog and returns its diagnostics
func Check(prog *ast.Program, opts Options) *diagnostic.Diagnostics {
	return CheckWithResult(prog, opts).Diagnostics
}

// CheckProgram checks each global declaration once, then each function:
// its result and parameter declarations, then its body
func (c *Checker) CheckProgram(prog *ast.Program) {
	for _, g := range prog.Globals {
		c.Check(g)
	}
	for _, fn := range prog.Functions {
		c.CheckFunction(fn)
	}
}

// CheckFunction checks one function definition
func (c *Checker) CheckFunction(fn *ast.Function) {
	if fn.Result != nil {
		c.Resolve(fn.Result)
	}
	for _, p := range fn.Params {
		c.Resolve(p)
	}
	if fn.Body != nil {
		c.Check(fn.Body)
	}
}

// Check returns the unit of node, reporting any dimensional errors found
// in it. It always completes: nodes it does not understand contribute no
// unit.
func (c *Checker) Check(node ast.Node) units.Maybe {
	if node == nil {
		return units.NoUnit()
	}
	result := c.check(node)
	c.nodeUnits[node] = result
	return result
}

func (c *Checker) check(node ast.Node) units.Maybe {
	line, col := node.Pos()
	ops := node.Operands()

	switch kind := node.Kind(); kind {
	case ast.KindLiteral:
		return units.JustOne()

	case ast.KindParam, ast.KindResult, ast.KindVar:
		dn, ok := node.(ast.DeclNode)
		if !ok {
			return c.unhandled(node)
		}
		return c.Resolve(dn.Declaration())

	case ast.KindReturn:
		if len(ops) == 0 {
			return units.NoUnit()
		}
		return c.Check(ops[0])

	case ast.KindDeclStmt:
		for _, op := range ops {
			c.Check(op)
		}
		return units.NoUnit()

	case ast.KindVarDecl:
		dn, ok := node.(ast.DeclNode)
		if !ok {
			return c.unhandled(node)
		}
		declared := c.Resolve(dn.Declaration())
		if len(ops) > 0 {
			c.checkAssignment("initialization", declared, c.Check(ops[0]), line, col)
		}
		return units.NoUnit()

	case ast.KindAssign:
		if len(ops) != 2 {
			return c.unhandled(node)
		}
		label := "assignment"
		if a, ok := node.(*ast.Assign); ok && a.Label != "" {
			label = a.Label
		}
		target := c.Check(ops[0])
		c.checkAssignment(label, target, c.Check(ops[1]), line, col)
		return target

	case ast.KindMul, ast.KindDiv:
		if len(ops) != 2 {
			return c.unhandled(node)
		}
		left, right := c.Check(ops[0]), c.Check(ops[1])
		var result units.Maybe
		if kind == ast.KindMul {
			result = units.MulMaybe(left, right)
		} else {
			result = units.DivMaybe(left, right)
		}
		c.checkBound(result, line, col)
		return result

	case ast.KindAdd, ast.KindSub:
		if len(ops) != 2 {
			return c.unhandled(node)
		}
		label := "addition"
		if kind == ast.KindSub {
			label = "subtraction"
		}
		return c.checkSum(label, c.Check(ops[0]), c.Check(ops[1]), line, col)

	case ast.KindNeg:
		if len(ops) != 1 {
			return c.unhandled(node)
		}
		return c.Check(ops[0])

	case ast.KindEq, ast.KindNe, ast.KindGe, ast.KindLe, ast.KindGt, ast.KindLt:
		if len(ops) != 2 {
			return c.unhandled(node)
		}
		c.checkComparison(c.Check(ops[0]), c.Check(ops[1]), line, col)
		return units.JustOne()

	case ast.KindBind:
		if b, ok := node.(*ast.Bind); ok {
			for _, v := range b.Vars {
				c.Resolve(v)
			}
		}
		for _, op := range ops {
			c.Check(op)
		}
		return units.NoUnit()

	case ast.KindStmtList:
		result := units.NoUnit()
		for _, op := range ops {
			result = c.Check(op)
		}
		return result

	case ast.KindCast:
		cast, ok := node.(*ast.Cast)
		if !ok || len(ops) != 1 {
			return c.unhandled(node)
		}
		target := c.resolveType(cast.Type, line, col)
		c.checkAssignment("conversion", target, c.Check(ops[0]), line, col)
		return target

	default:
		return c.unhandled(node)
	}
}

// checkAssignment reports an error when a value of unit source is stored
// into a target of unit target and the two are incompatible. An
// unconstrained side imposes no obligation.
func (c *Checker) checkAssignment(label string, target, source units.Maybe, line, col int) units.Maybe {
	if !target.HasUnit || !source.HasUnit {
		return units.NoUnit()
	}
	if !units.Compatible(target.Unit, source.Unit) {
		c.diag.Errorf(line, col, "%s from unit %s to unit %s", label, source.Unit, target.Unit)
	}
	return target
}

// checkSum requires both operands of + and - to have compatible units
func (c *Checker) checkSum(label string, left, right units.Maybe, line, col int) units.Maybe {
	if left.HasUnit && right.HasUnit && !units.Compatible(left.Unit, right.Unit) {
		c.diag.Errorf(line, col, "%s of incompatible units %s and %s", label, left.Unit, right.Unit)
	}
	if left.HasUnit {
		return left
	}
	return right
}

func (c *Checker) checkComparison(left, right units.Maybe, line, col int) {
	if !c.opts.StrictComparisons || !left.HasUnit || !right.HasUnit {
		return
	}
	if !units.Compatible(left.Unit, right.Unit) {
		c.diag.Errorf(line, col, "comparison of unit %s with unit %s", left.Unit, right.Unit)
	}
}

// checkBound reports a unit with more distinct base units than allowed
func (c *Checker) checkBound(m units.Maybe, line, col int) {
	if c.opts.MaxBaseUnits <= 0 || !m.HasUnit {
		return
	}
	if m.Unit.Len() > c.opts.MaxBaseUnits {
		c.diag.Errorf(line, col, "unit %s exceeds %d distinct base units", m.Unit, c.opts.MaxBaseUnits)
	}
}

func (c *Checker) unhandled(node ast.Node) units.Maybe {
	if c.opts.WarnUnhandled {
		line, col := node.Pos()
		label := node.Kind().String()
		if o, ok := node.(*ast.Other); ok && o.Label != "" {
			label = o.Label
		}
		c.diag.Warningf(line, col, "construct not yet handled: %s", label)
	}
	return units.NoUnit()
}

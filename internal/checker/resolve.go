package checker

import (
	"fmt"

	"github.com/magnusjonsson/unitc/internal/ast"
	"github.com/magnusjonsson/unitc/internal/parser"
	"github.com/magnusjonsson/unitc/internal/units"
)

// unitSource is one place a unit attribute may be written for a declaration
type unitSource struct {
	site string
	text string
}

// Resolve returns the declared unit of decl. At most one of the type,
// declaration, and (for a function result) function attributes may give
// a unit; a declaration with none is unconstrained, not dimensionless.
// Results are cached so each declaration's problems are reported once.
func (c *Checker) Resolve(decl ast.Declaration) units.Maybe {
	if decl == nil {
		return units.NoUnit()
	}
	if m, ok := c.decls[decl]; ok {
		return m
	}
	m := c.resolve(decl)
	c.decls[decl] = m
	return m
}

func (c *Checker) resolve(decl ast.Declaration) units.Maybe {
	line, col := decl.Pos()

	var sources []unitSource
	if text, ok := decl.TypeUnitAttr(); ok {
		sources = append(sources, unitSource{site: "type", text: text})
	}
	if text, ok := decl.UnitAttr(); ok {
		sources = append(sources, unitSource{site: "declaration", text: text})
	}
	if decl.IsResult() {
		if text, ok := decl.FunctionUnitAttr(); ok {
			sources = append(sources, unitSource{site: "function", text: text})
		}
	}

	var resolved []units.Unit
	for _, src := range sources {
		u, err := c.parseAttr(src.text)
		if err != nil {
			c.diag.ErrorWithHint(line, col,
				fmt.Sprintf("malformed unit attribute %q: %s", src.text, err),
				fmt.Sprintf("on the %s of %q", src.site, decl.Name()))
			continue
		}
		resolved = append(resolved, u)
	}

	switch len(resolved) {
	case 0:
		return units.NoUnit()
	case 1:
		m := units.Known(resolved[0])
		c.checkBound(m, line, col)
		return m
	default:
		c.diag.Errorf(line, col, "too many unit attributes on %q", decl.Name())
		return units.NoUnit()
	}
}

// resolveType returns the unit attached to a type named in a cast. Types
// are shared between many casts, so the result is cached per attribute.
func (c *Checker) resolveType(t *ast.TypeRef, line, col int) units.Maybe {
	if t == nil || t.Unit == nil {
		return units.NoUnit()
	}
	if m, ok := c.typeUnits[t.Unit]; ok {
		return m
	}
	m := units.NoUnit()
	u, err := c.parseAttr(t.Unit.Text)
	if err != nil {
		c.diag.Errorf(line, col, "malformed unit attribute %q: %s", t.Unit.Text, err)
	} else {
		m = units.Known(u)
		c.checkBound(m, line, col)
	}
	c.typeUnits[t.Unit] = m
	return m
}

func (c *Checker) parseAttr(text string) (units.Unit, error) {
	return parser.New(text).Parse(c.interner)
}

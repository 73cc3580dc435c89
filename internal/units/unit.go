package units

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Term is one factor of a Unit: a base unit raised to a non-zero power
type Term struct {
	Base  *BaseUnit
	Power int
}

// Unit is a product of base units raised to integer powers. Terms are
// kept sorted by base unit with no duplicates and no zero powers, so two
// equal units have identical term vectors. The zero value is One.
//
// A Unit is immutable: every operation returns a new value.
type Unit struct {
	terms []Term
}

// One is the dimensionless unit
var One = Unit{}

// Of returns the unit consisting of base raised to the first power
func Of(base *BaseUnit) Unit {
	return Unit{terms: []Term{{Base: base, Power: 1}}}
}

// FromTerms builds a canonical unit from arbitrary terms, combining
// repeated base units and dropping zero powers.
func FromTerms(terms ...Term) Unit {
	u := One
	for _, t := range terms {
		u = u.mulTerm(t.Base, t.Power)
	}
	return u
}

// Terms returns a copy of the unit's canonical term vector
func (u Unit) Terms() []Term {
	return slices.Clone(u.terms)
}

// Len returns the number of distinct base units in u
func (u Unit) Len() int {
	return len(u.terms)
}

// Power returns the exponent of base in u, zero if absent
func (u Unit) Power(base *BaseUnit) int {
	i, found := u.search(base)
	if !found {
		return 0
	}
	return u.terms[i].Power
}

func (u Unit) search(base *BaseUnit) (int, bool) {
	return slices.BinarySearchFunc(u.terms, base, func(t Term, b *BaseUnit) int {
		return compare(t.Base, b)
	})
}

// mulTerm returns u * base^power
func (u Unit) mulTerm(base *BaseUnit, power int) Unit {
	if power == 0 {
		return u
	}
	terms := slices.Clone(u.terms)
	i, found := u.search(base)
	switch {
	case !found:
		terms = slices.Insert(terms, i, Term{Base: base, Power: power})
	case terms[i].Power+power == 0:
		terms = slices.Delete(terms, i, i+1)
	default:
		terms[i].Power += power
	}
	return Unit{terms: terms}
}

// Mul returns the product a * b
func Mul(a, b Unit) Unit {
	result := a
	for _, t := range b.terms {
		result = result.mulTerm(t.Base, t.Power)
	}
	return result
}

// Inverse returns 1 / u
func Inverse(u Unit) Unit {
	terms := make([]Term, len(u.terms))
	for i, t := range u.terms {
		terms[i] = Term{Base: t.Base, Power: -t.Power}
	}
	return Unit{terms: terms}
}

// Div returns the quotient a / b
func Div(a, b Unit) Unit {
	return Mul(a, Inverse(b))
}

// IsDimensionless reports whether u is One
func (u Unit) IsDimensionless() bool {
	return len(u.terms) == 0
}

// Equal reports whether a and b are the same unit
func Equal(a, b Unit) bool {
	if len(a.terms) != len(b.terms) {
		return false
	}
	for i := range a.terms {
		if a.terms[i] != b.terms[i] {
			return false
		}
	}
	return true
}

// Compatible reports whether a value of unit b may be used where unit a
// is expected, i.e. whether a / b is dimensionless.
func Compatible(a, b Unit) bool {
	return Div(a, b).IsDimensionless()
}

// String renders u by repeating each base unit once per unit of its
// exponent: {m: 2, s: -1} renders as "m * m / s". A unit with only
// negative powers is prefixed with "1" and One renders as "1".
func (u Unit) String() string {
	if len(u.terms) == 0 {
		return "1"
	}

	var sb strings.Builder
	first := true
	for _, t := range u.terms {
		for i := 0; i < t.Power; i++ {
			if !first {
				sb.WriteString(" * ")
			}
			sb.WriteString(t.Base.Name())
			first = false
		}
	}
	if first {
		sb.WriteString("1")
	}
	for _, t := range u.terms {
		for i := 0; i > t.Power; i-- {
			sb.WriteString(" / ")
			sb.WriteString(t.Base.Name())
		}
	}
	return sb.String()
}

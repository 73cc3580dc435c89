package units

// Maybe is the unit of an expression when it is statically known. A
// Maybe without a unit is unconstrained: no claim is made about it and
// nothing is ever reported against it. That is different from Known(One),
// which claims the value is dimensionless.
type Maybe struct {
	HasUnit bool
	Unit    Unit
}

// NoUnit returns the unconstrained Maybe
func NoUnit() Maybe {
	return Maybe{}
}

// JustOne returns a Maybe holding the dimensionless unit
func JustOne() Maybe {
	return Maybe{HasUnit: true, Unit: One}
}

// Known wraps u as a known unit
func Known(u Unit) Maybe {
	return Maybe{HasUnit: true, Unit: u}
}

// String renders the unit, or "unconstrained"
func (m Maybe) String() string {
	if !m.HasUnit {
		return "unconstrained"
	}
	return m.Unit.String()
}

// MulMaybe multiplies two maybe-units; the result is unconstrained unless
// both sides are known.
func MulMaybe(a, b Maybe) Maybe {
	if !a.HasUnit || !b.HasUnit {
		return NoUnit()
	}
	return Known(Mul(a.Unit, b.Unit))
}

// DivMaybe divides two maybe-units; the result is unconstrained unless
// both sides are known.
func DivMaybe(a, b Maybe) Maybe {
	if !a.HasUnit || !b.HasUnit {
		return NoUnit()
	}
	return Known(Div(a.Unit, b.Unit))
}

// Package attrs implements the attribute-value lattice of spec §4.A: a
// closed family of possibly infinite sets — Empty, Universal, Finite,
// IntegerInterval, and Regex — with set operations that lift heterogeneous
// operands to the most expressive variant that exactly represents the
// result.
package attrs

import (
	"fmt"

	"github.com/Kappa-Dev/ReGraph/rgerr"
)

// Atom is a single comparable member of an attribute value: a string, an
// int64, or a bool. Values of any other underlying type are rejected by the
// constructors.
type Atom = interface{}

// Kind names which variant of the closed family a Value is.
type Kind int

const (
	KindEmpty Kind = iota
	KindUniversal
	KindFinite
	KindIntegerInterval
	KindRegex
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "EmptySet"
	case KindUniversal:
		return "UniversalSet"
	case KindFinite:
		return "FiniteSet"
	case KindIntegerInterval:
		return "IntegerSet"
	case KindRegex:
		return "RegexSet"
	default:
		return "UnknownSet"
	}
}

// Value is an attribute value: a possibly infinite set of atoms.
//
// Every method is pure; operations never mutate the receiver or the
// argument. Implementations satisfy the lattice laws of spec §4.A (absorption
// of Empty/Universal, canonical output form), so structural Equals coincides
// with set equality between two Finite or two IntegerInterval values. Equals
// does not canonicalize across variants: a Finite and an IntegerInterval (or
// a Regex) denoting the same set compare unequal, as do two Regex values
// whose patterns differ textually.
type Value interface {
	Kind() Kind
	Contains(x Atom) bool
	IsEmpty() bool
	IsUniversal() bool
	IsSubset(other Value) (bool, error)
	Union(other Value) (Value, error)
	Intersection(other Value) (Value, error)
	Difference(other Value) (Value, error)
	Complement() (Value, error)
	Equals(other Value) bool
	String() string
}

// Empty returns the empty set, the bottom of the lattice.
func Empty() Value { return emptyValue{} }

// Universal returns the universal set, the top of the lattice.
func Universal() Value { return universalValue{} }

func validAtom(x Atom) error {
	switch x.(type) {
	case string, bool, int64, int:
		return nil
	default:
		return rgerr.AttributeSet("atom %v has unsupported type %T (want string, bool, or integer)", x, x)
	}
}

func normalizeAtom(x Atom) Atom {
	if i, ok := x.(int); ok {
		return int64(i)
	}
	return x
}

// atomRank gives a total order across the atom's underlying types so
// Finite values have one canonical sorted form: bool < int64 < string.
func atomRank(x Atom) int {
	switch x.(type) {
	case bool:
		return 0
	case int64:
		return 1
	case string:
		return 2
	default:
		return 3
	}
}

func atomLess(a, b Atom) bool {
	ra, rb := atomRank(a), atomRank(b)
	if ra != rb {
		return ra < rb
	}
	switch av := a.(type) {
	case bool:
		return !av && b.(bool)
	case int64:
		return av < b.(int64)
	case string:
		return av < b.(string)
	default:
		return fmt.Sprint(a) < fmt.Sprint(b)
	}
}

func atomEqual(a, b Atom) bool {
	return a == b
}

func toInt64(x Atom) (int64, bool) {
	switch v := x.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}

func toStr(x Atom) (string, bool) {
	v, ok := x.(string)
	return v, ok
}

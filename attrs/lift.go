package attrs

import (
	"regexp"
	"strings"

	"github.com/Kappa-Dev/ReGraph/rgerr"
)

// unionFiniteInterval implements the example from spec §4.A: "Finite ∪
// IntegerInterval → IntegerInterval (if all atoms are integers) else Regex
// (if stringable) else error."
func unionFiniteInterval(f finiteValue, iv intervalValue) (Value, error) {
	if len(f.atoms) == 0 {
		return iv, nil
	}
	allInt := true
	allStr := true
	for _, a := range f.atoms {
		if _, ok := a.(int64); !ok {
			allInt = false
		}
		if _, ok := a.(string); !ok {
			allStr = false
		}
	}
	if allInt {
		extra := make([]Interval, 0, len(f.atoms))
		for _, a := range f.atoms {
			n := a.(int64)
			extra = append(extra, Interval{Lo: n, Hi: n})
		}
		return NewIntegerInterval(append(append([]Interval{}, iv.intervals...), extra...)...)
	}
	if allStr {
		return unionLiteralsWithExpandedInterval(f.atoms, iv)
	}
	return nil, rgerr.AttributeSet("union: FiniteSet atoms are neither all integers nor all strings, cannot lift against IntegerSet")
}

// intervalToFiniteOrError expands a bounded, small-enough IntegerInterval
// into an explicit FiniteSet, the only direction stdlib regexp lets us go
// when a caller needs to combine an interval with a Regex value.
func intervalToFiniteOrError(iv intervalValue, context string) (Value, error) {
	atoms := make([]Atom, 0)
	for _, r := range iv.intervals {
		if r.Lo == NegInf || r.Hi == PosInf {
			return nil, rgerr.AttributeSet("%s: cannot express an unbounded IntegerSet as a RegexSet", context)
		}
		if r.Hi-r.Lo+1 > int64(maxEnumeration) {
			return nil, rgerr.AttributeSet("%s: interval [%d, %d] too large to expand into a RegexSet", context, r.Lo, r.Hi)
		}
		for n := r.Lo; n <= r.Hi; n++ {
			atoms = append(atoms, n)
		}
	}
	out := make([]Atom, 0, len(atoms))
	for _, a := range atoms {
		out = append(out, itoa(a.(int64)))
	}
	return NewFinite(out...)
}

func unionLiteralsWithExpandedInterval(stringAtoms []Atom, iv intervalValue) (Value, error) {
	total := int64(0)
	for _, r := range iv.intervals {
		if r.Lo == NegInf || r.Hi == PosInf {
			return nil, rgerr.AttributeSet("union: cannot express an unbounded IntegerSet as a RegexSet")
		}
		total += r.Hi - r.Lo + 1
		if total > int64(maxEnumeration) {
			return nil, rgerr.AttributeSet("union: IntegerSet too large to expand into a RegexSet")
		}
	}
	literals := make([]string, 0, len(stringAtoms)+int(total))
	for _, a := range stringAtoms {
		literals = append(literals, a.(string))
	}
	for _, r := range iv.intervals {
		for n := r.Lo; n <= r.Hi; n++ {
			literals = append(literals, itoa(n))
		}
	}
	return NewRegex(literalAlternationPattern(literals))
}

// unionFiniteRegex lifts a FiniteSet of strings into a RegexSet alternation
// and unions it with r's own pattern — spec's "lift to the most general
// faithful variant": a finite set of strings is always representable as a
// regex, so Finite ∪ Regex never needs to fail on the Finite side.
func unionFiniteRegex(f finiteValue, r regexValue) (Value, error) {
	if r.negated {
		return nil, rgerr.AttributeSet("union: FiniteSet/complemented-RegexSet combination unsupported")
	}
	literals := make([]string, 0, len(f.atoms))
	for _, a := range f.atoms {
		s, ok := a.(string)
		if !ok {
			return nil, rgerr.AttributeSet("union: FiniteSet atom %v is not a string, cannot lift against RegexSet", a)
		}
		literals = append(literals, s)
	}
	if len(literals) == 0 {
		return r, nil
	}
	return NewRegex(altPattern(literalAlternationPattern(literals), r.pattern))
}

func literalAlternationPattern(literals []string) string {
	escaped := make([]string, len(literals))
	for i, l := range literals {
		escaped[i] = regexp.QuoteMeta(l)
	}
	return strings.Join(escaped, "|")
}

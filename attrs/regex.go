package attrs

import (
	"regexp"
	"strings"

	"github.com/Kappa-Dev/ReGraph/rgerr"
)

// regexValue is a regular-language value. negated represents its complement
// (over the alphabet of all strings) without leaving the Regex variant,
// since spec §4.A lists Regex as one of the family members complement is
// defined for, and the family is closed.
//
// Containment decisions (IsSubset, set ops) between two regex patterns that
// are not textually identical fall back to a conservative "not decidable
// with this engine" outcome rather than a silent wrong answer: Go's regexp
// package (RE2) has no complement or product-automaton primitive, so full
// language-containment is out of reach without an external automata library
// (none of the example repos in the retrieval pack carry one — see
// DESIGN.md). This matches spec §9's own acknowledgment that regex
// subsumption is left for implementers to "surface explicitly".
type regexValue struct {
	pattern string
	re      *regexp.Regexp
	negated bool
}

// NewRegex compiles pattern and wraps it as a Regex value. The pattern is
// always matched in full (anchored), since a Value represents set
// membership of an atom, not substring search.
func NewRegex(pattern string) (Value, error) {
	anchored := "^(?:" + pattern + ")$"
	re, err := regexp.Compile(anchored)
	if err != nil {
		return nil, rgerr.AttributeSet("malformed regex %q", pattern).WithCause(err)
	}
	return regexValue{pattern: pattern, re: re}, nil
}

func (r regexValue) Kind() Kind { return KindRegex }

func (r regexValue) Contains(x Atom) bool {
	s, ok := toStr(normalizeAtom(x))
	if !ok {
		return false
	}
	match := r.re.MatchString(s)
	if r.negated {
		return !match
	}
	return match
}

// literalAlternatives reports whether the pattern is exactly an alternation
// of escaped literals (the shape this package itself builds when lifting a
// Finite value into a Regex), returning those literals when so. This lets
// IsEmpty/IsSubset be exact for regex values that originated
// from a Finite lift, while staying conservative for hand-written patterns.
func (r regexValue) literalAlternatives() ([]string, bool) {
	segments := strings.Split(r.pattern, "|")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		seg = strings.TrimPrefix(seg, "(?:")
		seg = strings.TrimSuffix(seg, ")")
		unescaped := unescapeLiteral(seg)
		if regexp.QuoteMeta(unescaped) != seg {
			return nil, false
		}
		out = append(out, unescaped)
	}
	return out, true
}

func unescapeLiteral(p string) string {
	var b strings.Builder
	for i := 0; i < len(p); i++ {
		if p[i] == '\\' && i+1 < len(p) {
			i++
		}
		b.WriteByte(p[i])
	}
	return b.String()
}

func (r regexValue) IsEmpty() bool {
	if !r.negated {
		if lits, ok := r.literalAlternatives(); ok {
			return len(lits) == 0
		}
		return false
	}
	return r.pattern == ".*" || r.pattern == "(?s).*"
}

func (r regexValue) IsUniversal() bool {
	if r.negated {
		return false
	}
	return r.pattern == ".*" || r.pattern == "(?s).*"
}

func (r regexValue) String() string {
	if r.negated {
		return "!/" + r.pattern + "/"
	}
	return "/" + r.pattern + "/"
}

func (r regexValue) Equals(other Value) bool {
	o, ok := other.(regexValue)
	if !ok {
		return false
	}
	return r.pattern == o.pattern && r.negated == o.negated
}

func (r regexValue) IsSubset(other Value) (bool, error) {
	switch o := other.(type) {
	case universalValue:
		return true, nil
	case emptyValue:
		return r.IsEmpty(), nil
	case regexValue:
		if r.Equals(o) {
			return true, nil
		}
		if o.IsUniversal() {
			return true, nil
		}
		if r.IsEmpty() {
			return true, nil
		}
		if r.negated || o.negated {
			return false, rgerr.AttributeSet("is_subset: complemented RegexSet containment not decidable with this engine")
		}
		return false, rgerr.AttributeSet("is_subset: RegexSet-RegexSet containment for distinct patterns not decidable with this engine")
	case finiteValue:
		lits, ok := r.literalAlternatives()
		if !ok {
			return false, rgerr.AttributeSet("is_subset: RegexSet is not known finite, cannot decide subset of FiniteSet")
		}
		for _, lit := range lits {
			if !o.Contains(lit) {
				return false, nil
			}
		}
		return true, nil
	case intervalValue:
		return false, rgerr.AttributeSet("is_subset: RegexSet/IntegerSet comparison unsupported")
	default:
		return false, rgerr.AttributeSet("is_subset: unsupported variant %T for RegexSet", other)
	}
}

func (r regexValue) Union(other Value) (Value, error) {
	switch o := other.(type) {
	case emptyValue:
		return r, nil
	case universalValue:
		return Universal(), nil
	case regexValue:
		if r.negated || o.negated {
			if r.Equals(o) {
				return r, nil
			}
			return nil, rgerr.AttributeSet("union: complemented RegexSet union not representable with this engine")
		}
		return NewRegex(altPattern(r.pattern, o.pattern))
	case finiteValue:
		return unionFiniteRegex(o, r)
	case intervalValue:
		return nil, rgerr.AttributeSet("union: RegexSet/IntegerSet combination unsupported")
	default:
		return nil, rgerr.AttributeSet("union: unsupported variant %T for RegexSet", other)
	}
}

func altPattern(a, b string) string {
	return "(?:" + a + ")|(?:" + b + ")"
}

func (r regexValue) Intersection(other Value) (Value, error) {
	switch o := other.(type) {
	case emptyValue:
		return Empty(), nil
	case universalValue:
		return r, nil
	case regexValue:
		if r.Equals(o) {
			return r, nil
		}
		return nil, rgerr.AttributeSet("intersection: RegexSet-RegexSet intersection for distinct patterns not representable with this engine")
	case finiteValue:
		out := make([]Atom, 0, len(o.atoms))
		for _, a := range o.atoms {
			if r.Contains(a) {
				out = append(out, a)
			}
		}
		return NewFinite(out...)
	case intervalValue:
		return nil, rgerr.AttributeSet("intersection: RegexSet/IntegerSet combination unsupported")
	default:
		return nil, rgerr.AttributeSet("intersection: unsupported variant %T for RegexSet", other)
	}
}

func (r regexValue) Difference(other Value) (Value, error) {
	switch o := other.(type) {
	case emptyValue:
		return r, nil
	case universalValue:
		return Empty(), nil
	case regexValue:
		if r.Equals(o) {
			return Empty(), nil
		}
		return nil, rgerr.AttributeSet("difference: RegexSet-RegexSet difference for distinct patterns not representable with this engine")
	case finiteValue:
		_ = o
		return nil, rgerr.AttributeSet("difference: RegexSet minus FiniteSet is not representable with Go's RE2 regex engine (no negative lookahead)")
	case intervalValue:
		return nil, rgerr.AttributeSet("difference: RegexSet/IntegerSet combination unsupported")
	default:
		return nil, rgerr.AttributeSet("difference: unsupported variant %T for RegexSet", other)
	}
}

func (r regexValue) Complement() (Value, error) {
	return regexValue{pattern: r.pattern, re: r.re, negated: !r.negated}, nil
}

package attrs

// FiniteAtoms returns the canonical sorted atom list of a Finite value, for
// callers (jsonio) that need to serialize a Value's contents. ok is false
// for any other Kind.
func FiniteAtoms(v Value) (atoms []Atom, ok bool) {
	f, ok := v.(finiteValue)
	if !ok {
		return nil, false
	}
	return append([]Atom(nil), f.atoms...), true
}

// IntegerIntervals returns the canonical merged interval list of an
// IntegerInterval value. ok is false for any other Kind.
func IntegerIntervals(v Value) (intervals []Interval, ok bool) {
	iv, ok := v.(intervalValue)
	if !ok {
		return nil, false
	}
	return append([]Interval(nil), iv.intervals...), true
}

// RegexPattern returns the source pattern and negation flag of a Regex
// value. ok is false for any other Kind.
func RegexPattern(v Value) (pattern string, negated bool, ok bool) {
	r, ok := v.(regexValue)
	if !ok {
		return "", false, false
	}
	return r.pattern, r.negated, true
}

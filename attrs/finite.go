package attrs

import (
	"sort"
	"strings"

	"github.com/Kappa-Dev/ReGraph/rgerr"
)

type finiteValue struct {
	atoms []Atom // sorted, de-duplicated: the canonical form
}

// NewFinite builds a Finite value from the given atoms, de-duplicating and
// sorting into canonical form. An empty atom list returns Empty, matching
// the lattice's bottom element rather than introducing a degenerate Finite.
func NewFinite(atoms ...Atom) (Value, error) {
	seen := make(map[Atom]struct{}, len(atoms))
	out := make([]Atom, 0, len(atoms))
	for _, a := range atoms {
		a = normalizeAtom(a)
		if err := validAtom(a); err != nil {
			return nil, err
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	if len(out) == 0 {
		return Empty(), nil
	}
	sort.Slice(out, func(i, j int) bool { return atomLess(out[i], out[j]) })
	return finiteValue{atoms: out}, nil
}

func (f finiteValue) Kind() Kind { return KindFinite }

func (f finiteValue) Contains(x Atom) bool {
	x = normalizeAtom(x)
	for _, a := range f.atoms {
		if atomEqual(a, x) {
			return true
		}
	}
	return false
}

func (f finiteValue) IsEmpty() bool     { return len(f.atoms) == 0 }
func (finiteValue) IsUniversal() bool   { return false }

func (f finiteValue) String() string {
	parts := make([]string, len(f.atoms))
	for i, a := range f.atoms {
		parts[i] = atomString(a)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func atomString(a Atom) string {
	switch v := a.(type) {
	case string:
		return "\"" + v + "\""
	default:
		return toDisplay(v)
	}
}

func toDisplay(v interface{}) string {
	switch t := v.(type) {
	case bool:
		if t {
			return "true"
		}
		return "false"
	case int64:
		return itoa(t)
	default:
		return "?"
	}
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	if neg {
		b = append([]byte{'-'}, b...)
	}
	return string(b)
}

func (f finiteValue) Equals(other Value) bool {
	o, ok := other.(finiteValue)
	if !ok {
		if other.IsEmpty() {
			return f.IsEmpty()
		}
		return false
	}
	if len(f.atoms) != len(o.atoms) {
		return false
	}
	for i := range f.atoms {
		if !atomEqual(f.atoms[i], o.atoms[i]) {
			return false
		}
	}
	return true
}

func (f finiteValue) IsSubset(other Value) (bool, error) {
	switch o := other.(type) {
	case universalValue:
		return true, nil
	case emptyValue:
		return f.IsEmpty(), nil
	case finiteValue:
		for _, a := range f.atoms {
			if !o.Contains(a) {
				return false, nil
			}
		}
		return true, nil
	default:
		// Regex / IntegerInterval: every atom must be contained.
		for _, a := range f.atoms {
			if !other.Contains(a) {
				return false, nil
			}
		}
		return true, nil
	}
}

func (f finiteValue) Union(other Value) (Value, error) {
	switch o := other.(type) {
	case emptyValue:
		return f, nil
	case universalValue:
		return Universal(), nil
	case finiteValue:
		return NewFinite(append(append([]Atom{}, f.atoms...), o.atoms...)...)
	case intervalValue:
		return unionFiniteInterval(f, o)
	case regexValue:
		return unionFiniteRegex(f, o)
	default:
		return nil, rgerr.AttributeSet("union: unsupported variant %T", other)
	}
}

func (f finiteValue) Intersection(other Value) (Value, error) {
	switch o := other.(type) {
	case emptyValue:
		return Empty(), nil
	case universalValue:
		return f, nil
	case finiteValue:
		out := make([]Atom, 0, len(f.atoms))
		for _, a := range f.atoms {
			if o.Contains(a) {
				out = append(out, a)
			}
		}
		return NewFinite(out...)
	default:
		out := make([]Atom, 0, len(f.atoms))
		for _, a := range f.atoms {
			if other.Contains(a) {
				out = append(out, a)
			}
		}
		return NewFinite(out...)
	}
}

func (f finiteValue) Difference(other Value) (Value, error) {
	switch other.(type) {
	case emptyValue:
		return f, nil
	case universalValue:
		return Empty(), nil
	default:
		out := make([]Atom, 0, len(f.atoms))
		for _, a := range f.atoms {
			if !other.Contains(a) {
				out = append(out, a)
			}
		}
		return NewFinite(out...)
	}
}

// Complement is undefined for Finite without a declared universe: spec §4.A
// defines it only "over a specified universe", which this closed family has
// no slot for, so Finite never exposes one implicitly.
func (f finiteValue) Complement() (Value, error) {
	return nil, rgerr.AttributeSet("complement undefined for FiniteSet without a declared universe")
}

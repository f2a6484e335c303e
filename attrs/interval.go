package attrs

import (
	"math"
	"sort"
	"strings"

	"github.com/Kappa-Dev/ReGraph/config"
	"github.com/Kappa-Dev/ReGraph/rgerr"
)

// NegInf and PosInf are the sentinels representing ±∞ in an Interval's
// bounds, per spec §3 ("IntegerInterval(set of disjoint closed intervals
// over ℤ∪{±∞})").
const (
	NegInf int64 = math.MinInt64
	PosInf int64 = math.MaxInt64
)

// Interval is one closed integer interval [Lo, Hi].
type Interval struct {
	Lo, Hi int64
}

type intervalValue struct {
	intervals []Interval // sorted, merged, canonical
}

// NewIntegerInterval builds an IntegerInterval value from zero or more
// (possibly overlapping, unordered) intervals, merging into canonical form.
func NewIntegerInterval(intervals ...Interval) (Value, error) {
	clean := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.Lo > iv.Hi {
			return nil, rgerr.AttributeSet("invalid interval [%d, %d]: lo > hi", iv.Lo, iv.Hi)
		}
		clean = append(clean, iv)
	}
	merged := mergeIntervals(clean)
	if len(merged) == 0 {
		return Empty(), nil
	}
	return intervalValue{intervals: merged}, nil
}

func mergeIntervals(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}
	sorted := append([]Interval{}, intervals...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Lo != sorted[j].Lo {
			return sorted[i].Lo < sorted[j].Lo
		}
		return sorted[i].Hi < sorted[j].Hi
	})
	out := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &out[len(out)-1]
		touching := iv.Lo <= last.Hi || (last.Hi != PosInf && iv.Lo == last.Hi+1)
		if touching {
			if iv.Hi > last.Hi {
				last.Hi = iv.Hi
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

func (iv intervalValue) Kind() Kind { return KindIntegerInterval }

func (iv intervalValue) Contains(x Atom) bool {
	n, ok := toInt64(normalizeAtom(x))
	if !ok {
		return false
	}
	for _, r := range iv.intervals {
		if n >= r.Lo && n <= r.Hi {
			return true
		}
	}
	return false
}

func (iv intervalValue) IsEmpty() bool      { return len(iv.intervals) == 0 }
func (iv intervalValue) IsUniversal() bool  { return iv.isUnboundedUniversal() }

func (iv intervalValue) isUnboundedUniversal() bool {
	return len(iv.intervals) == 1 && iv.intervals[0].Lo == NegInf && iv.intervals[0].Hi == PosInf
}

func (iv intervalValue) String() string {
	parts := make([]string, len(iv.intervals))
	for i, r := range iv.intervals {
		parts[i] = "[" + boundStr(r.Lo) + ", " + boundStr(r.Hi) + "]"
	}
	return strings.Join(parts, " U ")
}

func boundStr(b int64) string {
	if b == NegInf {
		return "-inf"
	}
	if b == PosInf {
		return "inf"
	}
	return itoa(b)
}

func (iv intervalValue) Equals(other Value) bool {
	o, ok := other.(intervalValue)
	if !ok {
		return other.IsEmpty() && iv.IsEmpty()
	}
	if len(iv.intervals) != len(o.intervals) {
		return false
	}
	for i := range iv.intervals {
		if iv.intervals[i] != o.intervals[i] {
			return false
		}
	}
	return true
}

// covers reports whether iv's intervals entirely cover target.
func (iv intervalValue) covers(target Interval) bool {
	cur := target.Lo
	for _, r := range iv.intervals {
		if r.Lo > cur {
			return false
		}
		if r.Hi >= target.Hi {
			return true
		}
		if r.Hi >= cur {
			cur = r.Hi + 1
			if r.Hi == PosInf { // unreachable in practice, guards overflow
				return true
			}
		}
		if cur > target.Hi {
			return true
		}
	}
	return false
}

func (iv intervalValue) IsSubset(other Value) (bool, error) {
	switch o := other.(type) {
	case universalValue:
		return true, nil
	case emptyValue:
		return iv.IsEmpty(), nil
	case intervalValue:
		for _, r := range iv.intervals {
			if !o.covers(r) {
				return false, nil
			}
		}
		return true, nil
	case finiteValue:
		// Decidable only when iv is bounded; an interval touching ±inf can
		// never be a subset of a Finite value.
		for _, r := range iv.intervals {
			if r.Lo == NegInf || r.Hi == PosInf {
				return false, nil
			}
			if r.Hi-r.Lo+1 > int64(maxEnumeration) {
				return false, rgerr.AttributeSet("interval [%d, %d] too large to decide subset of a FiniteSet", r.Lo, r.Hi)
			}
			for n := r.Lo; n <= r.Hi; n++ {
				if !o.Contains(n) {
					return false, nil
				}
			}
		}
		return true, nil
	default:
		return false, rgerr.AttributeSet("is_subset: unsupported variant %T for IntegerSet", other)
	}
}

// maxEnumeration bounds how large a bounded interval may be before a lift
// into Finite/Regex alternation form is refused, kept in sync with
// config.Config's MaxFiniteLiftSize default. attrs.Value operations are
// pure and carry no config argument, so this tracks the default rather
// than a per-call override.
var maxEnumeration = config.DefaultConfig().MaxFiniteLiftSize

func (iv intervalValue) Union(other Value) (Value, error) {
	switch o := other.(type) {
	case emptyValue:
		return iv, nil
	case universalValue:
		return Universal(), nil
	case intervalValue:
		return NewIntegerInterval(append(append([]Interval{}, iv.intervals...), o.intervals...)...)
	case finiteValue:
		return unionFiniteInterval(o, iv)
	case regexValue:
		fin, err := intervalToFiniteOrError(iv, "union with RegexSet")
		if err != nil {
			return nil, err
		}
		return unionFiniteRegex(fin.(finiteValue), o)
	default:
		return nil, rgerr.AttributeSet("union: unsupported variant %T for IntegerSet", other)
	}
}

func (iv intervalValue) Intersection(other Value) (Value, error) {
	switch o := other.(type) {
	case emptyValue:
		return Empty(), nil
	case universalValue:
		return iv, nil
	case intervalValue:
		var out []Interval
		for _, a := range iv.intervals {
			for _, b := range o.intervals {
				lo, hi := maxI(a.Lo, b.Lo), minI(a.Hi, b.Hi)
				if lo <= hi {
					out = append(out, Interval{Lo: lo, Hi: hi})
				}
			}
		}
		return NewIntegerInterval(out...)
	case finiteValue:
		out := make([]Atom, 0, len(o.atoms))
		for _, a := range o.atoms {
			if iv.Contains(a) {
				out = append(out, a)
			}
		}
		return NewFinite(out...)
	default:
		return nil, rgerr.AttributeSet("intersection: unsupported variant %T for IntegerSet", other)
	}
}

func (iv intervalValue) Difference(other Value) (Value, error) {
	switch o := other.(type) {
	case emptyValue:
		return iv, nil
	case universalValue:
		return Empty(), nil
	case intervalValue:
		comp, err := o.Complement()
		if err != nil {
			return nil, err
		}
		return iv.Intersection(comp)
	case finiteValue:
		// Remove finitely many points from (possibly infinite) intervals:
		// still expressible as an IntegerInterval by splitting around each point.
		out := append([]Interval{}, iv.intervals...)
		for _, a := range o.atoms {
			n, ok := toInt64(a)
			if !ok {
				continue
			}
			out = subtractPoint(out, n)
		}
		return NewIntegerInterval(out...)
	default:
		return nil, rgerr.AttributeSet("difference: unsupported variant %T for IntegerSet", other)
	}
}

func subtractPoint(intervals []Interval, n int64) []Interval {
	out := make([]Interval, 0, len(intervals)+1)
	for _, r := range intervals {
		if n < r.Lo || n > r.Hi {
			out = append(out, r)
			continue
		}
		if r.Lo < n {
			out = append(out, Interval{Lo: r.Lo, Hi: n - 1})
		}
		if r.Hi > n {
			out = append(out, Interval{Lo: n + 1, Hi: r.Hi})
		}
	}
	return out
}

func (iv intervalValue) Complement() (Value, error) {
	if iv.IsEmpty() {
		return Universal(), nil
	}
	var out []Interval
	cur := NegInf
	for _, r := range iv.intervals {
		if r.Lo > cur {
			out = append(out, Interval{Lo: cur, Hi: r.Lo - 1})
		}
		if r.Hi == PosInf {
			cur = PosInf
			break
		}
		cur = r.Hi + 1
	}
	if cur != PosInf {
		out = append(out, Interval{Lo: cur, Hi: PosInf})
	}
	return NewIntegerInterval(out...)
}

func maxI(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minI(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

package graph

import (
	"sort"

	"github.com/Kappa-Dev/ReGraph/attrs"
)

// AttributeMap is a mapping from attribute names to attribute values,
// carried by every node and edge (spec §3 "Attribute map"). An attribute
// name present with an Empty value is distinct from the name being absent
// at the storage layer, but the two are equivalent for subsumption
// purposes (spec §3) — Erase drops such keys to keep maps tidy.
type AttributeMap map[string]attrs.Value

// Clone returns a shallow copy (attrs.Value is itself immutable, so a
// shallow copy of the map is a full deep copy of the semantic content).
func (m AttributeMap) Clone() AttributeMap {
	if m == nil {
		return AttributeMap{}
	}
	out := make(AttributeMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Keys returns the attribute names in sorted order, for deterministic
// iteration (matcher enumeration order, JSON export, checksum input).
func (m AttributeMap) Keys() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Get returns the value for key, or the Empty value if the key is absent —
// the subsumption-equivalence spec §3 calls out explicitly.
func (m AttributeMap) Get(key string) attrs.Value {
	if v, ok := m[key]; ok {
		return v
	}
	return attrs.Empty()
}

// Erase removes keys whose value became Empty, per spec §3 "erasure removes
// the key".
func (m AttributeMap) Erase() AttributeMap {
	out := make(AttributeMap, len(m))
	for k, v := range m {
		if v.IsEmpty() {
			continue
		}
		out[k] = v
	}
	return out
}

// IsSubsumedBy reports whether every attribute value of m is a subset of
// the corresponding value of other, the attribute half of homomorphism
// preservation (spec §3).
func IsSubsumedBy(m, other AttributeMap) (bool, error) {
	for _, k := range m.Keys() {
		ok, err := m.Get(k).IsSubset(other.Get(k))
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// UnionAttrs unions two attribute maps key-wise, used by merge (union
// contributing members' values) and by AddNodeAttrs/AddEdgeAttrs.
func UnionAttrs(a, b AttributeMap) (AttributeMap, error) {
	out := make(AttributeMap)
	keys := make(map[string]struct{})
	for _, k := range a.Keys() {
		keys[k] = struct{}{}
	}
	for _, k := range b.Keys() {
		keys[k] = struct{}{}
	}
	for k := range keys {
		v, err := a.Get(k).Union(b.Get(k))
		if err != nil {
			return nil, err
		}
		if v.IsEmpty() {
			continue
		}
		out[k] = v
	}
	return out, nil
}

// DifferenceAttrs computes a key-wise set difference a ∖ b, used by the
// rewrite engine's delete phase.
func DifferenceAttrs(a, b AttributeMap) (AttributeMap, error) {
	out := make(AttributeMap)
	for _, k := range a.Keys() {
		v, err := a.Get(k).Difference(b.Get(k))
		if err != nil {
			return nil, err
		}
		if v.IsEmpty() {
			continue
		}
		out[k] = v
	}
	return out, nil
}

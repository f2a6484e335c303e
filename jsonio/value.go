package jsonio

import (
	"encoding/json"

	"github.com/Kappa-Dev/ReGraph/attrs"
	"github.com/Kappa-Dev/ReGraph/rgerr"
)

// ValueToDTO renders v as its wire form (spec §6).
func ValueToDTO(v attrs.Value) (*AttrValueDTO, error) {
	switch v.Kind() {
	case attrs.KindEmpty:
		return &AttrValueDTO{Type: "EmptySet"}, nil
	case attrs.KindUniversal:
		return &AttrValueDTO{Type: "UniversalSet"}, nil
	case attrs.KindFinite:
		atoms, _ := attrs.FiniteAtoms(v)
		data, err := json.Marshal(atoms)
		if err != nil {
			return nil, rgerr.AttributeSet("encoding FiniteSet atoms").WithCause(err)
		}
		return &AttrValueDTO{Type: "FiniteSet", Data: data}, nil
	case attrs.KindIntegerInterval:
		intervals, _ := attrs.IntegerIntervals(v)
		pairs := make([]IntervalPair, len(intervals))
		for i, iv := range intervals {
			pairs[i] = IntervalPair{boundOf(iv.Lo), boundOf(iv.Hi)}
		}
		data, err := json.Marshal(pairs)
		if err != nil {
			return nil, rgerr.AttributeSet("encoding IntegerSet intervals").WithCause(err)
		}
		return &AttrValueDTO{Type: "IntegerSet", Data: data}, nil
	case attrs.KindRegex:
		pattern, negated, _ := attrs.RegexPattern(v)
		if negated {
			// The wire format has no negated-regex variant; surface the
			// complement explicitly rather than silently dropping it.
			return nil, rgerr.AttributeSet("RegexSet %q is a complement, which the JSON surface cannot represent", pattern)
		}
		data, err := json.Marshal(pattern)
		if err != nil {
			return nil, rgerr.AttributeSet("encoding RegexSet pattern").WithCause(err)
		}
		return &AttrValueDTO{Type: "RegexSet", Data: data}, nil
	default:
		return nil, rgerr.AttributeSet("unknown value kind %v", v.Kind())
	}
}

// decodeAtoms decodes a FiniteSet's atom list element-by-element, since
// Go's default JSON decoding into interface{} maps every number to
// float64, a type attrs.NewFinite rejects (spec §4.A atoms are string,
// bool, or integer).
func decodeAtoms(data json.RawMessage) ([]attrs.Atom, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	atoms := make([]attrs.Atom, len(raw))
	for i, r := range raw {
		var b bool
		if err := json.Unmarshal(r, &b); err == nil {
			atoms[i] = b
			continue
		}
		var n int64
		if err := json.Unmarshal(r, &n); err == nil {
			atoms[i] = n
			continue
		}
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			atoms[i] = s
			continue
		}
		return nil, rgerr.AttributeSet("atom %s is not a string, bool, or integer", string(r))
	}
	return atoms, nil
}

// ValueFromDTO rebuilds an attrs.Value from its wire form.
func ValueFromDTO(dto *AttrValueDTO) (attrs.Value, error) {
	if err := validate.Struct(dto); err != nil {
		return nil, rgerr.AttributeSet("invalid attribute value DTO").WithCause(err)
	}
	switch dto.Type {
	case "EmptySet":
		return attrs.Empty(), nil
	case "UniversalSet":
		return attrs.Universal(), nil
	case "FiniteSet":
		atoms, err := decodeAtoms(dto.Data)
		if err != nil {
			return nil, rgerr.AttributeSet("decoding FiniteSet atoms").WithCause(err)
		}
		return attrs.NewFinite(atoms...)
	case "IntegerSet":
		var pairs []IntervalPair
		if err := json.Unmarshal(dto.Data, &pairs); err != nil {
			return nil, rgerr.AttributeSet("decoding IntegerSet intervals").WithCause(err)
		}
		intervals := make([]attrs.Interval, len(pairs))
		for i, p := range pairs {
			intervals[i] = attrs.Interval{Lo: p[0].toInt64(), Hi: p[1].toInt64()}
		}
		return attrs.NewIntegerInterval(intervals...)
	case "RegexSet":
		var pattern string
		if err := json.Unmarshal(dto.Data, &pattern); err != nil {
			return nil, rgerr.AttributeSet("decoding RegexSet pattern").WithCause(err)
		}
		return attrs.NewRegex(pattern)
	default:
		return nil, rgerr.AttributeSet("unknown attribute value type %q", dto.Type)
	}
}

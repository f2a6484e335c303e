package jsonio

import (
	"encoding/json"

	"github.com/Kappa-Dev/ReGraph/attrs"
	"github.com/Kappa-Dev/ReGraph/rgerr"
)

// Bound is one endpoint of an IntegerSet interval: either a finite int64 or
// the ±∞ sentinel, spelled "-inf"/"inf" on the wire (spec §6).
type Bound struct {
	Infinite bool
	Negative bool
	Value    int64
}

func (b Bound) MarshalJSON() ([]byte, error) {
	if b.Infinite {
		if b.Negative {
			return json.Marshal("-inf")
		}
		return json.Marshal("inf")
	}
	return json.Marshal(b.Value)
}

func (b *Bound) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case "-inf":
			*b = Bound{Infinite: true, Negative: true}
			return nil
		case "inf":
			*b = Bound{Infinite: true}
			return nil
		default:
			return rgerr.AttributeSet("invalid interval bound sentinel %q", s)
		}
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return rgerr.AttributeSet("interval bound must be an integer or \"-inf\"/\"inf\"").WithCause(err)
	}
	*b = Bound{Value: n}
	return nil
}

func boundOf(n int64) Bound {
	switch n {
	case attrs.NegInf:
		return Bound{Infinite: true, Negative: true}
	case attrs.PosInf:
		return Bound{Infinite: true}
	default:
		return Bound{Value: n}
	}
}

func (b Bound) toInt64() int64 {
	if b.Infinite {
		if b.Negative {
			return attrs.NegInf
		}
		return attrs.PosInf
	}
	return b.Value
}

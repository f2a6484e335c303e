package attrs

type emptyValue struct{}

func (emptyValue) Kind() Kind           { return KindEmpty }
func (emptyValue) Contains(Atom) bool   { return false }
func (emptyValue) IsEmpty() bool        { return true }
func (emptyValue) IsUniversal() bool    { return false }
func (emptyValue) String() string       { return "{}" }
func (emptyValue) Complement() (Value, error) { return Universal(), nil }

func (emptyValue) Equals(other Value) bool {
	return other.IsEmpty()
}

func (emptyValue) IsSubset(Value) (bool, error) {
	return true, nil // bottom of the lattice
}

func (emptyValue) Union(other Value) (Value, error) {
	return other, nil
}

func (emptyValue) Intersection(Value) (Value, error) {
	return Empty(), nil
}

func (emptyValue) Difference(Value) (Value, error) {
	return Empty(), nil
}

type universalValue struct{}

func (universalValue) Kind() Kind              { return KindUniversal }
func (universalValue) Contains(Atom) bool      { return true }
func (universalValue) IsEmpty() bool           { return false }
func (universalValue) IsUniversal() bool       { return true }
func (universalValue) String() string          { return "U" }
func (universalValue) Complement() (Value, error) { return Empty(), nil }

func (universalValue) Equals(other Value) bool {
	return other.IsUniversal()
}

func (universalValue) IsSubset(other Value) (bool, error) {
	return other.IsUniversal(), nil
}

func (universalValue) Union(Value) (Value, error) {
	return Universal(), nil
}

func (universalValue) Intersection(other Value) (Value, error) {
	return other, nil
}

func (universalValue) Difference(other Value) (Value, error) {
	return other.Complement()
}

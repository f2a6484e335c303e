package graph

import (
	"sort"

	"github.com/Kappa-Dev/ReGraph/rgerr"
)

// Homomorphism is a total, structure- and attribute-preserving mapping
// between two graphs' node sets (spec §3). It is data, not a method on
// Graph — source and target are carried explicitly so a Homomorphism can
// be passed around, composed, and validated independently of any one
// graph's lifetime (spec §9 "Design Notes": "Homomorphism objects are data,
// not methods on graphs").
type Homomorphism struct {
	Source, Target *Graph
	Mapping        map[NodeID]NodeID
}

// NewHomomorphism builds a Homomorphism from a mapping dictionary,
// validating totality, edge preservation, and attribute subsumption on
// both nodes and edges (spec §3, §4.B).
func NewHomomorphism(source, target *Graph, mapping map[NodeID]NodeID) (*Homomorphism, error) {
	h := &Homomorphism{Source: source, Target: target, Mapping: mapping}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// Validate re-checks totality, edge preservation, and attribute
// subsumption — useful after mutating Source/Target/Mapping in place.
func (h *Homomorphism) Validate() error {
	for _, n := range h.Source.Nodes() {
		img, ok := h.Mapping[n]
		if !ok {
			return rgerr.Homomorphism("mapping is not total: node %q has no image", n).WithDetail("node", n)
		}
		if !h.Target.HasNode(img) {
			return rgerr.Homomorphism("image %q of node %q is not in the target graph", img, n).
				WithDetails(map[string]interface{}{"node": n, "image": img})
		}
		sourceAttrs, _ := h.Source.NodeAttrs(n)
		targetAttrs, _ := h.Target.NodeAttrs(img)
		ok2, err := IsSubsumedBy(sourceAttrs, targetAttrs)
		if err != nil {
			return rgerr.Homomorphism("attribute check failed for node %q", n).WithDetail("node", n).WithCause(err)
		}
		if !ok2 {
			return rgerr.Homomorphism("node %q attributes are not subsumed by image %q", n, img).
				WithDetails(map[string]interface{}{"node": n, "image": img})
		}
	}

	for _, e := range h.Source.Edges() {
		u, v := h.Mapping[e.From], h.Mapping[e.To]
		if !h.Target.HasEdge(u, v) {
			return rgerr.Homomorphism("edge (%q, %q) is not preserved: no edge (%q, %q) in target", e.From, e.To, u, v).
				WithDetails(map[string]interface{}{"from": e.From, "to": e.To})
		}
		sourceAttrs, _ := h.Source.EdgeAttrs(e.From, e.To)
		targetAttrs, _ := h.Target.EdgeAttrs(u, v)
		ok, err := IsSubsumedBy(sourceAttrs, targetAttrs)
		if err != nil {
			return rgerr.Homomorphism("attribute check failed for edge (%q, %q)", e.From, e.To).WithCause(err)
		}
		if !ok {
			return rgerr.Homomorphism("edge (%q, %q) attributes are not subsumed by image (%q, %q)", e.From, e.To, u, v).
				WithDetails(map[string]interface{}{"from": e.From, "to": e.To})
		}
	}
	return nil
}

// Compose returns g∘f — apply f then g — checking that f's codomain matches
// g's domain (same target/source graph pointer) before composing.
func Compose(f, g *Homomorphism) (*Homomorphism, error) {
	if f.Target != g.Source {
		return nil, rgerr.Homomorphism("cannot compose: f's target graph is not g's source graph")
	}
	composed := make(map[NodeID]NodeID, len(f.Mapping))
	for n, img := range f.Mapping {
		next, ok := g.Mapping[img]
		if !ok {
			return nil, rgerr.Homomorphism("cannot compose: %q has no image under g", img)
		}
		composed[n] = next
	}
	return NewHomomorphism(f.Source, g.Target, composed)
}

// Image returns the sorted set of target nodes hit by nodes under h.
func (h *Homomorphism) Image(nodes []NodeID) []NodeID {
	seen := make(map[NodeID]struct{})
	for _, n := range nodes {
		if img, ok := h.Mapping[n]; ok {
			seen[img] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// Preimage returns the sorted set of source nodes mapping into targets.
func (h *Homomorphism) Preimage(targets []NodeID) []NodeID {
	want := make(map[NodeID]struct{}, len(targets))
	for _, t := range targets {
		want[t] = struct{}{}
	}
	var out []NodeID
	for n, img := range h.Mapping {
		if _, ok := want[img]; ok {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Fiber returns every source node mapping to target t under h — the
// preimage of a single node, used throughout §4.D/§4.E/§4.F to detect
// clone/merge classes.
func (h *Homomorphism) Fiber(t NodeID) []NodeID {
	return h.Preimage([]NodeID{t})
}

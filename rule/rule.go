// Package rule implements the span L←P→R of spec §4.D: construction
// (explicit or by incremental transformation of a pattern), validation, and
// the derived predicates the rewrite and propagation engines query to
// classify every element as preserved, deleted, cloned, added, or merged.
package rule

import (
	"sort"

	"github.com/Kappa-Dev/ReGraph/graph"
	"github.com/Kappa-Dev/ReGraph/rgerr"
)

// Rule is a span L←ℓ P→ρ R: L the matched pattern, P the preserved
// interface, R the result. Left is the homomorphism P→L (ℓ); Right is P→R
// (ρ).
type Rule struct {
	L, P, R *graph.Graph
	Left    *graph.Homomorphism // P -> L
	Right   *graph.Homomorphism // P -> R
}

// New builds a rule explicitly from three graphs and two mapping
// dictionaries, validating both homomorphisms (spec §4.D mode 1).
func New(l, p, r *graph.Graph, left, right map[graph.NodeID]graph.NodeID) (*Rule, error) {
	leftHom, err := graph.NewHomomorphism(p, l, left)
	if err != nil {
		return nil, rgerr.Rule("invalid left leg of rule span").WithCause(err)
	}
	rightHom, err := graph.NewHomomorphism(p, r, right)
	if err != nil {
		return nil, rgerr.Rule("invalid right leg of rule span").WithCause(err)
	}
	return &Rule{L: l, P: p, R: r, Left: leftHom, Right: rightHom}, nil
}

// FromPattern starts a rule in "transform-from-pattern" mode (spec §4.D
// mode 2): P and R begin as identical copies of L under the identity
// homomorphism, and are then built up by Inject* calls.
func FromPattern(l *graph.Graph) (*Rule, error) {
	p := l.Copy()
	r := l.Copy()
	identity := make(map[graph.NodeID]graph.NodeID, len(l.Nodes()))
	for _, n := range l.Nodes() {
		identity[n] = n
	}
	leftMap := make(map[graph.NodeID]graph.NodeID, len(identity))
	rightMap := make(map[graph.NodeID]graph.NodeID, len(identity))
	for k, v := range identity {
		leftMap[k] = v
		rightMap[k] = v
	}
	return New(l, p, r, leftMap, rightMap)
}

// InjectCloneNode adds a second P-preimage of the L-node x and a
// corresponding fresh R-node, per spec §4.D. newPID/newRID are auto-minted
// if empty.
func (r *Rule) InjectCloneNode(x, newPID, newRID graph.NodeID) (graph.NodeID, graph.NodeID, error) {
	p0, ok := r.findLeftPreimage(x)
	if !ok {
		return "", "", rgerr.Rule("node %q has no preserved preimage to clone", x)
	}
	pNew, err := r.P.CloneNode(p0, newPID)
	if err != nil {
		return "", "", err
	}
	r.Left.Mapping[pNew] = x

	r0 := r.Right.Mapping[p0]
	rNew, err := r.R.CloneNode(r0, newRID)
	if err != nil {
		return "", "", err
	}
	r.Right.Mapping[pNew] = rNew

	if err := r.revalidate(); err != nil {
		return "", "", err
	}
	return pNew, rNew, nil
}

// InjectRemoveNode deletes every P-preimage of the L-node x, and — for each
// R-image that loses its last contributing preimage — removes it from R too
// (spec §4.D "deletes node": element in L with no preimage under ℓ").
func (r *Rule) InjectRemoveNode(x graph.NodeID) error {
	preimages := r.allLeftPreimages(x)
	if len(preimages) == 0 {
		return rgerr.Rule("node %q has no preserved preimage to remove", x)
	}
	for _, p := range preimages {
		rImg := r.Right.Mapping[p]
		delete(r.Left.Mapping, p)
		delete(r.Right.Mapping, p)
		if err := r.P.RemoveNode(p); err != nil {
			return err
		}
		if len(r.rightPreimages(rImg)) == 0 {
			if err := r.R.RemoveNode(rImg); err != nil {
				return err
			}
		}
	}
	return r.revalidate()
}

// InjectRemoveEdge removes the P-edges (and, where orphaned, the R-edges)
// corresponding to the L-edge (u,v).
func (r *Rule) InjectRemoveEdge(u, v graph.NodeID) error {
	removed := false
	for _, pu := range r.allLeftPreimages(u) {
		for _, pv := range r.allLeftPreimages(v) {
			if !r.P.HasEdge(pu, pv) {
				continue
			}
			if err := r.P.RemoveEdge(pu, pv); err != nil {
				return err
			}
			removed = true
			ru, rv := r.Right.Mapping[pu], r.Right.Mapping[pv]
			if r.R.HasEdge(ru, rv) && !r.anySurvivingPEdgeMapsTo(ru, rv) {
				if err := r.R.RemoveEdge(ru, rv); err != nil {
					return err
				}
			}
		}
	}
	if !removed {
		return rgerr.Rule("edge (%q, %q) has no preserved preimage to remove", u, v)
	}
	return r.revalidate()
}

// InjectAddNode adds a fresh, unpreserved node directly to R (spec §4.D
// "adds node": element in R with no image under ρ").
func (r *Rule) InjectAddNode(id graph.NodeID, attrs graph.AttributeMap) error {
	if err := r.R.AddNode(id, attrs); err != nil {
		return err
	}
	return r.revalidate()
}

// InjectAddEdge adds an edge between two existing R-nodes.
func (r *Rule) InjectAddEdge(u, v graph.NodeID, attrs graph.AttributeMap) error {
	if err := r.R.AddEdge(u, v, attrs); err != nil {
		return err
	}
	return r.revalidate()
}

// InjectMergeNodes merges the R-images of the given P-nodes into one,
// repointing Right so every merged P-node maps to the same R-node (spec
// §4.D "merges nodes": |ρ⁻¹(y)| ≥ 2).
func (r *Rule) InjectMergeNodes(pNodes []graph.NodeID, newID graph.NodeID) (graph.NodeID, error) {
	if len(pNodes) < 2 {
		return "", rgerr.Rule("merge requires at least two preserved nodes")
	}
	seen := map[graph.NodeID]struct{}{}
	var rImages []graph.NodeID
	for _, p := range pNodes {
		img, ok := r.Right.Mapping[p]
		if !ok {
			return "", rgerr.Rule("node %q is not a preserved node", p)
		}
		if _, dup := seen[img]; dup {
			continue
		}
		seen[img] = struct{}{}
		rImages = append(rImages, img)
	}
	merged, err := r.R.MergeNodes(rImages, newID)
	if err != nil {
		return "", err
	}
	for _, p := range pNodes {
		r.Right.Mapping[p] = merged
	}
	if err := r.revalidate(); err != nil {
		return "", err
	}
	return merged, nil
}

// InjectAddAttrs adds attrs to the R-image of a preserved P-node, widening
// R's attribute set relative to P (spec §4.D "adds attr").
func (r *Rule) InjectAddAttrs(pNode graph.NodeID, attrs graph.AttributeMap) error {
	rImg, ok := r.Right.Mapping[pNode]
	if !ok {
		return rgerr.Rule("node %q is not a preserved node", pNode)
	}
	if err := r.R.AddNodeAttrs(rImg, attrs); err != nil {
		return err
	}
	return r.revalidate()
}

// InjectRemoveAttrs narrows a preserved P-node's attribute set relative to
// its L-preimage, producing a "removes attr" difference at rewrite time.
func (r *Rule) InjectRemoveAttrs(pNode graph.NodeID, attrs graph.AttributeMap) error {
	if err := r.P.RemoveNodeAttrs(pNode, attrs); err != nil {
		return err
	}
	return r.revalidate()
}

func (r *Rule) revalidate() error {
	if err := r.Left.Validate(); err != nil {
		return rgerr.Rule("rule span invalid after injection").WithCause(err)
	}
	if err := r.Right.Validate(); err != nil {
		return rgerr.Rule("rule span invalid after injection").WithCause(err)
	}
	return nil
}

func (r *Rule) findLeftPreimage(x graph.NodeID) (graph.NodeID, bool) {
	preimages := r.allLeftPreimages(x)
	if len(preimages) == 0 {
		return "", false
	}
	return preimages[0], true
}

func (r *Rule) allLeftPreimages(x graph.NodeID) []graph.NodeID {
	var out []graph.NodeID
	for p, img := range r.Left.Mapping {
		if img == x {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Rule) rightPreimages(y graph.NodeID) []graph.NodeID {
	var out []graph.NodeID
	for p, img := range r.Right.Mapping {
		if img == y {
			out = append(out, p)
		}
	}
	return out
}

func (r *Rule) anySurvivingPEdgeMapsTo(ru, rv graph.NodeID) bool {
	for _, e := range r.P.Edges() {
		if r.Right.Mapping[e.From] == ru && r.Right.Mapping[e.To] == rv {
			return true
		}
	}
	return false
}

// Preimages returns the sorted set of P-nodes mapping to the L-node x under
// Left (ℓ⁻¹(x)).
func (r *Rule) Preimages(x graph.NodeID) []graph.NodeID {
	return r.allLeftPreimages(x)
}

// RightPreimages returns the P-nodes mapping to the R-node y under Right
// (ρ⁻¹(y)).
func (r *Rule) RightPreimages(y graph.NodeID) []graph.NodeID {
	return r.rightPreimages(y)
}

// LeftImage returns ℓ(p) for a P-node p.
func (r *Rule) LeftImage(p graph.NodeID) graph.NodeID {
	return r.Left.Mapping[p]
}

// RightImage returns ρ(p) for a P-node p.
func (r *Rule) RightImage(p graph.NodeID) graph.NodeID {
	return r.Right.Mapping[p]
}

// HasPEdge reports whether the preserved interface has an edge pu->pv.
func (r *Rule) HasPEdge(pu, pv graph.NodeID) bool {
	return r.P.HasEdge(pu, pv)
}

// HasRightEdge reports whether some surviving P-edge maps (via Right) onto
// the R-edge (u,v) — the negation of AddsEdge.
func (r *Rule) HasRightEdge(u, v graph.NodeID) bool {
	return r.anySurvivingPEdgeMapsTo(u, v)
}

// DeletesNode reports whether x (an L-node) has no P-preimage.
func (r *Rule) DeletesNode(x graph.NodeID) bool {
	return len(r.allLeftPreimages(x)) == 0
}

// DeletesEdge reports whether the L-edge (u,v) has no surviving P-preimage.
func (r *Rule) DeletesEdge(u, v graph.NodeID) bool {
	for _, pu := range r.allLeftPreimages(u) {
		for _, pv := range r.allLeftPreimages(v) {
			if r.P.HasEdge(pu, pv) {
				return false
			}
		}
	}
	return true
}

// ClonesNode reports whether the L-node x has two or more P-preimages.
func (r *Rule) ClonesNode(x graph.NodeID) bool {
	return len(r.allLeftPreimages(x)) >= 2
}

// CloneMultiplicity returns |ℓ⁻¹(x)|.
func (r *Rule) CloneMultiplicity(x graph.NodeID) int {
	return len(r.allLeftPreimages(x))
}

// AddsNode reports whether the R-node y has no P-preimage under ρ.
func (r *Rule) AddsNode(y graph.NodeID) bool {
	return len(r.rightPreimages(y)) == 0
}

// AddsEdge reports whether the R-edge (u,v) has no P-preimage pair under ρ.
func (r *Rule) AddsEdge(u, v graph.NodeID) bool {
	return !r.anySurvivingPEdgeMapsTo(u, v)
}

// MergesNodes reports whether the R-node y has two or more P-preimages.
func (r *Rule) MergesNodes(y graph.NodeID) bool {
	return len(r.rightPreimages(y)) >= 2
}

// RemovedNodeAttrs returns the per-key attribute values present on the
// L-preimage of p but not on p itself (spec §4.D "removes attr").
func (r *Rule) RemovedNodeAttrs(p graph.NodeID) (graph.AttributeMap, error) {
	lNode, ok := r.Left.Mapping[p]
	if !ok {
		return nil, rgerr.Rule("node %q is not a preserved node", p)
	}
	lAttrs, err := r.L.NodeAttrs(lNode)
	if err != nil {
		return nil, err
	}
	pAttrs, err := r.P.NodeAttrs(p)
	if err != nil {
		return nil, err
	}
	return graph.DifferenceAttrs(lAttrs, pAttrs)
}

// AddedNodeAttrs returns the per-key attribute values present on the
// R-image of p but not on p itself (spec §4.D "adds attr").
func (r *Rule) AddedNodeAttrs(p graph.NodeID) (graph.AttributeMap, error) {
	rNode, ok := r.Right.Mapping[p]
	if !ok {
		return nil, rgerr.Rule("node %q is not a preserved node", p)
	}
	rAttrs, err := r.R.NodeAttrs(rNode)
	if err != nil {
		return nil, err
	}
	pAttrs, err := r.P.NodeAttrs(p)
	if err != nil {
		return nil, err
	}
	return graph.DifferenceAttrs(rAttrs, pAttrs)
}

// Validate re-checks both legs of the span.
func (r *Rule) Validate() error {
	return r.revalidate()
}

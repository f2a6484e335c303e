// Package rewrite implements the sesqui-pushout rewrite engine of spec
// §4.E: given a target graph, a rule span, and a match, it produces the
// derived graph and the RHS-instance by running the clone, delete, add, and
// merge phases in that strict order.
package rewrite

import (
	"sort"

	"github.com/Kappa-Dev/ReGraph/graph"
	"github.com/Kappa-Dev/ReGraph/match"
	"github.com/Kappa-Dev/ReGraph/rgerr"
	"github.com/Kappa-Dev/ReGraph/rule"
)

// Result bundles the derived graph's RHS-instance and, for callers that
// want to continue tracking provenance (hierarchy propagation, audit
// inversion), the final per-P-node and per-added-R-node image maps.
type Result struct {
	RHSMatch  match.Match
	ImageOfP  map[graph.NodeID]graph.NodeID // P-node -> final G-node, post clone/merge
	AddedByR  map[graph.NodeID]graph.NodeID // R-node -> newly minted G-node
	MergedSet map[graph.NodeID][]graph.NodeID // merged G-node -> the pre-merge G-nodes it absorbed
}

// Apply mutates g in place, applying r at instance m, and returns the
// RHS-instance together with provenance bookkeeping. Instance validity
// (totality, injectivity, edge and attribute preservation) is checked
// first; on any failure g is left untouched.
func Apply(g *graph.Graph, r *rule.Rule, m match.Match) (*Result, error) {
	if err := validateMatch(r, g, m); err != nil {
		return nil, err
	}

	imageOfP := make(map[graph.NodeID]graph.NodeID, len(r.P.Nodes()))

	if err := clonePhase(g, r, m, imageOfP); err != nil {
		return nil, err
	}
	if err := deletePhase(g, r, m, imageOfP); err != nil {
		return nil, err
	}
	addedByR := make(map[graph.NodeID]graph.NodeID)
	if err := addPhase(g, r, imageOfP, addedByR); err != nil {
		return nil, err
	}
	mergedSet, err := mergePhase(g, r, imageOfP)
	if err != nil {
		return nil, err
	}

	rhs := make(match.Match, len(r.R.Nodes()))
	for _, y := range r.R.Nodes() {
		if gID, ok := addedByR[y]; ok {
			rhs[y] = gID
			continue
		}
		preimages := r.RightPreimages(y)
		if len(preimages) == 0 {
			return nil, rgerr.Rewriting("R-node %q has neither a preimage nor an added image", y)
		}
		rhs[y] = imageOfP[preimages[0]]
	}

	return &Result{RHSMatch: rhs, ImageOfP: imageOfP, AddedByR: addedByR, MergedSet: mergedSet}, nil
}

// ApplyPure applies r at instance m to a fresh copy of g, leaving g
// untouched, per spec §4.E "a pure variant returns a fresh graph".
func ApplyPure(g *graph.Graph, r *rule.Rule, m match.Match) (*graph.Graph, *Result, error) {
	derived := g.Copy()
	res, err := Apply(derived, r, m)
	if err != nil {
		return nil, nil, err
	}
	return derived, res, nil
}

func validateMatch(r *rule.Rule, g *graph.Graph, m match.Match) error {
	if len(m) != len(r.L.Nodes()) {
		return rgerr.Rewriting("invalid match: not total over the pattern")
	}
	seen := make(map[graph.NodeID]struct{}, len(m))
	for _, target := range m {
		if _, dup := seen[target]; dup {
			return rgerr.Rewriting("invalid match: not injective")
		}
		seen[target] = struct{}{}
	}
	if _, err := graph.NewHomomorphism(r.L, g, map[graph.NodeID]graph.NodeID(m)); err != nil {
		return rgerr.Rewriting("invalid match").WithCause(err)
	}
	return nil
}

// clonePhase clones m(x) in g once per extra P-preimage of every L-node x,
// populating imageOfP with, for every P-node, the specific G-node it now
// denotes.
func clonePhase(g *graph.Graph, r *rule.Rule, m match.Match, imageOfP map[graph.NodeID]graph.NodeID) error {
	for _, x := range r.L.Nodes() {
		preimages := r.Preimages(x)
		if len(preimages) == 0 {
			continue // handled in the delete phase
		}
		imageOfP[preimages[0]] = m[x]
		for _, p := range preimages[1:] {
			clone, err := g.CloneNode(m[x], "")
			if err != nil {
				return rgerr.Rewriting("clone phase failed for %q", x).WithCause(err)
			}
			imageOfP[p] = clone
		}
	}
	return nil
}

// deletePhase removes every L-element with no P-preimage — nodes first
// (cascading their edges), then any remaining undeleted edges whose
// specific preimage pair isn't a P-edge, then attribute differences on
// every surviving P-element.
func deletePhase(g *graph.Graph, r *rule.Rule, m match.Match, imageOfP map[graph.NodeID]graph.NodeID) error {
	for _, x := range r.L.Nodes() {
		if r.DeletesNode(x) {
			if err := g.RemoveNode(m[x]); err != nil {
				return rgerr.Rewriting("delete phase failed for node %q", x).WithCause(err)
			}
		}
	}

	for _, e := range r.L.Edges() {
		for _, pu := range r.Preimages(e.From) {
			for _, pv := range r.Preimages(e.To) {
				if r.HasPEdge(pu, pv) {
					continue
				}
				gu, gv := imageOfP[pu], imageOfP[pv]
				if g.HasEdge(gu, gv) {
					if err := g.RemoveEdge(gu, gv); err != nil {
						return rgerr.Rewriting("delete phase failed for edge (%q, %q)", e.From, e.To).WithCause(err)
					}
				}
			}
		}
	}

	for _, p := range r.P.Nodes() {
		gNode, ok := imageOfP[p]
		if !ok {
			continue
		}
		removed, err := r.RemovedNodeAttrs(p)
		if err != nil {
			return rgerr.Rewriting("attribute incompatible while computing removal for %q", p).WithCause(err)
		}
		if len(removed) > 0 {
			if err := g.RemoveNodeAttrs(gNode, removed); err != nil {
				return rgerr.Rewriting("attribute incompatible removing attrs on %q", p).WithCause(err)
			}
		}
	}
	for _, e := range r.P.Edges() {
		gu, gv := imageOfP[e.From], imageOfP[e.To]
		lu, lv := r.LeftImage(e.From), r.LeftImage(e.To)
		lAttrs, err := r.L.EdgeAttrs(lu, lv)
		if err != nil {
			continue
		}
		pAttrs, _ := r.P.EdgeAttrs(e.From, e.To)
		removed, err := graph.DifferenceAttrs(lAttrs, pAttrs)
		if err != nil {
			return rgerr.Rewriting("attribute incompatible computing edge removal (%q, %q)", e.From, e.To).WithCause(err)
		}
		if len(removed) > 0 {
			if err := g.RemoveEdgeAttrs(gu, gv, removed); err != nil {
				return rgerr.Rewriting("attribute incompatible removing edge attrs (%q, %q)", e.From, e.To).WithCause(err)
			}
		}
	}
	return nil
}

// addPhase mints fresh G-nodes for every unpreserved R-node, then adds
// edges between the (newly added ∪ preserved) endpoints, then widens
// attribute sets on preserved and new elements by the R-minus-P difference.
func addPhase(g *graph.Graph, r *rule.Rule, imageOfP map[graph.NodeID]graph.NodeID, addedByR map[graph.NodeID]graph.NodeID) error {
	for _, y := range r.R.Nodes() {
		if !r.AddsNode(y) {
			continue
		}
		attrs, _ := r.R.NodeAttrs(y)
		fresh := g.FreshNodeID(y)
		if err := g.AddNode(fresh, attrs.Clone()); err != nil {
			return rgerr.Rewriting("add phase failed for node %q", y).WithCause(err)
		}
		addedByR[y] = fresh
	}

	resolve := func(y graph.NodeID) (graph.NodeID, bool) {
		if gID, ok := addedByR[y]; ok {
			return gID, true
		}
		preimages := r.RightPreimages(y)
		if len(preimages) == 0 {
			return "", false
		}
		return imageOfP[preimages[0]], true
	}

	for _, e := range r.R.Edges() {
		if !r.AddsEdge(e.From, e.To) {
			continue
		}
		u, ok1 := resolve(e.From)
		v, ok2 := resolve(e.To)
		if !ok1 || !ok2 {
			return rgerr.Rewriting("add phase failed: edge (%q, %q) endpoints unresolved", e.From, e.To)
		}
		attrs, _ := r.R.EdgeAttrs(e.From, e.To)
		if g.HasEdge(u, v) {
			if err := g.AddEdgeAttrs(u, v, attrs); err != nil {
				return rgerr.Rewriting("attribute incompatible adding edge (%q, %q)", e.From, e.To).WithCause(err)
			}
			continue
		}
		if err := g.AddEdge(u, v, attrs.Clone()); err != nil {
			return rgerr.Rewriting("add phase failed for edge (%q, %q)", e.From, e.To).WithCause(err)
		}
	}

	for _, p := range r.P.Nodes() {
		gNode, ok := imageOfP[p]
		if !ok {
			continue
		}
		added, err := r.AddedNodeAttrs(p)
		if err != nil {
			return rgerr.Rewriting("attribute incompatible computing addition for %q", p).WithCause(err)
		}
		if len(added) > 0 {
			if err := g.AddNodeAttrs(gNode, added); err != nil {
				return rgerr.Rewriting("attribute incompatible adding attrs on %q", p).WithCause(err)
			}
		}
	}
	for _, e := range r.P.Edges() {
		gu, gv := imageOfP[e.From], imageOfP[e.To]
		ru, rv := r.RightImage(e.From), r.RightImage(e.To)
		rAttrs, err := r.R.EdgeAttrs(ru, rv)
		if err != nil {
			continue
		}
		pAttrs, _ := r.P.EdgeAttrs(e.From, e.To)
		added, err := graph.DifferenceAttrs(rAttrs, pAttrs)
		if err != nil {
			return rgerr.Rewriting("attribute incompatible computing edge addition (%q, %q)", e.From, e.To).WithCause(err)
		}
		if len(added) > 0 {
			if err := g.AddEdgeAttrs(gu, gv, added); err != nil {
				return rgerr.Rewriting("attribute incompatible adding edge attrs (%q, %q)", e.From, e.To).WithCause(err)
			}
		}
	}
	return nil
}

// mergePhase partitions preserved G-elements by the ρ-fiber of their
// P-node and merges each class of size ≥2 via graph.MergeNodes, updating
// imageOfP so every member of a merged fiber resolves to the single
// surviving node.
func mergePhase(g *graph.Graph, r *rule.Rule, imageOfP map[graph.NodeID]graph.NodeID) (map[graph.NodeID][]graph.NodeID, error) {
	merged := make(map[graph.NodeID][]graph.NodeID)
	for _, y := range r.R.Nodes() {
		preimages := r.RightPreimages(y)
		if len(preimages) < 2 {
			continue
		}
		seen := make(map[graph.NodeID]struct{})
		var gNodes []graph.NodeID
		for _, p := range preimages {
			gID, ok := imageOfP[p]
			if !ok {
				continue
			}
			if _, dup := seen[gID]; dup {
				continue
			}
			seen[gID] = struct{}{}
			gNodes = append(gNodes, gID)
		}
		if len(gNodes) < 2 {
			continue
		}
		sort.Slice(gNodes, func(i, j int) bool { return gNodes[i] < gNodes[j] })
		mergedID, err := g.MergeNodes(gNodes, "")
		if err != nil {
			return nil, rgerr.Rewriting("merge phase failed for %q", y).WithCause(err)
		}
		for _, p := range preimages {
			imageOfP[p] = mergedID
		}
		merged[mergedID] = gNodes
	}
	return merged, nil
}

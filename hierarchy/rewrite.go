package hierarchy

import (
	"sort"

	"go.uber.org/zap"

	"github.com/Kappa-Dev/ReGraph/graph"
	"github.com/Kappa-Dev/ReGraph/match"
	"github.com/Kappa-Dev/ReGraph/rewrite"
	"github.com/Kappa-Dev/ReGraph/rgerr"
	"github.com/Kappa-Dev/ReGraph/rule"
)

// TypingAssignment maps, per graph id, a choice of how a specific ancestor
// or descendant node should be handled during propagation: p_typing pins a
// clone target, rhs_typing pins an addition target (spec §4.F).
type TypingAssignment map[string]map[graph.NodeID]graph.NodeID

// RewriteReport summarizes what a hierarchy rewrite did, for audit
// bookkeeping and tests.
type RewriteReport struct {
	Result          *rewrite.Result
	ClonedAncestors  map[string][]graph.NodeID // ancestor graph id -> new nodes created there
	AddedDescendants map[string][]graph.NodeID // descendant graph id -> new nodes created there
}

// Rewrite applies r at instance m to the named graph, then — unless strict
// rejects it first — propagates backward to ancestors and forward to
// descendants so every typing triangle keeps commuting (spec §4.F).
func (h *Hierarchy) Rewrite(graphID string, r *rule.Rule, m match.Match, pTyping, rhsTyping TypingAssignment, strict bool) (*RewriteReport, error) {
	g, err := h.Graph(graphID)
	if err != nil {
		return nil, err
	}
	if strict {
		if err := h.checkStrict(graphID, r, m, pTyping, rhsTyping); err != nil {
			return nil, err
		}
	}

	oldTypingToDescendant := make(map[string]map[graph.NodeID]graph.NodeID, len(h.outEdges[graphID]))
	for d, hom := range h.outEdges[graphID] {
		snap := make(map[graph.NodeID]graph.NodeID, len(hom.Mapping))
		for k, v := range hom.Mapping {
			snap[k] = v
		}
		oldTypingToDescendant[d] = snap
	}

	res, err := rewrite.Apply(g, r, m)
	if err != nil {
		return nil, err
	}

	deletedOld, mergedOld := h.classifyOldNodes(r, m, res)
	report := &RewriteReport{Result: res, ClonedAncestors: map[string][]graph.NodeID{}, AddedDescendants: map[string][]graph.NodeID{}}

	h.repairInboundTyping(graphID, deletedOld, mergedOld)
	h.repairOutboundTyping(graphID, deletedOld, mergedOld)

	h.logger.Debug("hierarchy rewrite applied", zap.String("graph", graphID), zap.Int("deleted", len(deletedOld)), zap.Int("merged", len(mergedOld)))

	if err := h.propagateBackward(graphID, r, m, res, pTyping, report); err != nil {
		return nil, err
	}
	if err := h.propagateForward(graphID, res, oldTypingToDescendant, rhsTyping, report); err != nil {
		return nil, err
	}

	h.revalidateRelations()
	return report, nil
}

// classifyOldNodes determines, for each pre-rewrite graphID node id, what
// happened to it: deletedOld holds ids that no longer exist at all;
// mergedOld maps an absorbed id to the surviving merged id. Ids of
// cloned-but-not-merged nodes are intentionally absent from both (clone
// reuses the original id for the first preimage; see rewrite.clonePhase).
func (h *Hierarchy) classifyOldNodes(r *rule.Rule, m match.Match, res *rewrite.Result) (map[graph.NodeID]struct{}, map[graph.NodeID]graph.NodeID) {
	deleted := make(map[graph.NodeID]struct{})
	for _, x := range r.L.Nodes() {
		if r.DeletesNode(x) {
			deleted[m[x]] = struct{}{}
		}
	}
	merged := make(map[graph.NodeID]graph.NodeID)
	for mergedID, absorbed := range res.MergedSet {
		for _, old := range absorbed {
			if old != mergedID {
				merged[old] = mergedID
			}
		}
	}
	return deleted, merged
}

// repairInboundTyping rewrites every direct ancestor's mapping values that
// pointed at a now-deleted or now-merged graphID node.
func (h *Hierarchy) repairInboundTyping(graphID string, deleted map[graph.NodeID]struct{}, merged map[graph.NodeID]graph.NodeID) {
	for _, hom := range h.inEdges[graphID] {
		for k, v := range hom.Mapping {
			if newID, ok := merged[v]; ok {
				hom.Mapping[k] = newID
			} else if _, gone := deleted[v]; gone {
				delete(hom.Mapping, k)
			}
		}
	}
}

// repairOutboundTyping collapses graphID's own outbound typing map keys
// when the source side of the typing (graphID's nodes) were merged away.
func (h *Hierarchy) repairOutboundTyping(graphID string, deleted map[graph.NodeID]struct{}, merged map[graph.NodeID]graph.NodeID) {
	for _, hom := range h.outEdges[graphID] {
		for k, v := range hom.Mapping {
			if _, gone := deleted[k]; gone {
				delete(hom.Mapping, k)
				continue
			}
			if newID, ok := merged[k]; ok {
				delete(hom.Mapping, k)
				hom.Mapping[newID] = v
			}
		}
	}
}

// propagateBackward walks direct ancestors of graphID, removing elements
// typed by anything graphID deleted and cloning ancestor nodes typed by
// anything graphID cloned (unless p_typing pins a specific target clone),
// then recurses into each ancestor's own ancestors (spec §4.F).
func (h *Hierarchy) propagateBackward(graphID string, r *rule.Rule, m match.Match, res *rewrite.Result, pTyping TypingAssignment, report *RewriteReport) error {
	for _, ancestor := range h.ImmediateAncestors(graphID) {
		hom, ok := h.outEdges[ancestor][graphID]
		if !ok {
			continue
		}
		ag, err := h.Graph(ancestor)
		if err != nil {
			return err
		}

		for _, x := range r.L.Nodes() {
			if !r.DeletesNode(x) {
				continue
			}
			target := m[x]
			for _, a := range h.nodesTypedTo(hom, target) {
				h.logger.Debug("backward propagation: removing node", zap.String("ancestor", ancestor), zap.String("node", string(a)))
				if err := ag.RemoveNode(a); err != nil && !rgerr.IsKind(err, rgerr.KindGraph) {
					return err
				}
				delete(hom.Mapping, a)
				if err := h.cascadeAncestorDeletion(ancestor, a, report); err != nil {
					return err
				}
			}
		}

		for _, x := range r.L.Nodes() {
			if !r.ClonesNode(x) {
				continue
			}
			original := m[x]
			preimages := r.Preimages(x) // ordered: preimages[0] keeps `original`, the rest were freshly cloned
			for _, a := range h.nodesTypedTo(hom, original) {
				assigned, pinned := pTyping[ancestor][a]
				if pinned {
					hom.Mapping[a] = assigned
					continue
				}
				hom.Mapping[a] = res.ImageOfP[preimages[0]]
				for _, p := range preimages[1:] {
					newA, err := ag.CloneNode(a, "")
					if err != nil {
						return err
					}
					hom.Mapping[newA] = res.ImageOfP[p]
					report.ClonedAncestors[ancestor] = append(report.ClonedAncestors[ancestor], newA)
					h.logger.Debug("backward propagation: cloning ancestor node",
						zap.String("ancestor", ancestor), zap.String("source", string(a)), zap.String("clone", string(newA)))
				}
			}
		}
	}
	return nil
}

// cascadeAncestorDeletion propagates a just-removed ancestor node further
// up that ancestor's own ancestors.
func (h *Hierarchy) cascadeAncestorDeletion(graphID string, removed graph.NodeID, report *RewriteReport) error {
	for _, ancestor := range h.ImmediateAncestors(graphID) {
		hom, ok := h.outEdges[ancestor][graphID]
		if !ok {
			continue
		}
		ag, err := h.Graph(ancestor)
		if err != nil {
			return err
		}
		for _, a := range h.nodesTypedTo(hom, removed) {
			if err := ag.RemoveNode(a); err != nil && !rgerr.IsKind(err, rgerr.KindGraph) {
				return err
			}
			delete(hom.Mapping, a)
			if err := h.cascadeAncestorDeletion(ancestor, a, report); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *Hierarchy) nodesTypedTo(hom *graph.Homomorphism, target graph.NodeID) []graph.NodeID {
	var out []graph.NodeID
	for node, img := range hom.Mapping {
		if img == target {
			out = append(out, node)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// propagateForward walks direct descendants of graphID, giving every added
// node a typing image (from rhs_typing or a fresh addition) and merging
// descendant images of any merged graphID nodes, then recurses (spec
// §4.F).
func (h *Hierarchy) propagateForward(graphID string, res *rewrite.Result, oldTyping map[string]map[graph.NodeID]graph.NodeID, rhsTyping TypingAssignment, report *RewriteReport) error {
	for _, descendant := range h.ImmediateDescendants(graphID) {
		hom, ok := h.outEdges[graphID][descendant]
		if !ok {
			continue
		}
		dg, err := h.Graph(descendant)
		if err != nil {
			return err
		}

		for rNode, gNode := range res.AddedByR {
			if assigned, ok := rhsTyping[descendant][rNode]; ok {
				hom.Mapping[gNode] = assigned
				continue
			}
			freshD := dg.FreshNodeID(gNode)
			if err := dg.AddNode(freshD, graph.AttributeMap{}); err != nil {
				return err
			}
			hom.Mapping[gNode] = freshD
			report.AddedDescendants[descendant] = append(report.AddedDescendants[descendant], freshD)
			h.logger.Debug("forward propagation: adding descendant node",
				zap.String("descendant", descendant), zap.String("node", string(freshD)))
			if err := h.cascadeDescendantAddition(descendant, freshD, report); err != nil {
				return err
			}
		}

		for mergedID, absorbed := range res.MergedSet {
			seen := map[graph.NodeID]struct{}{}
			var images []graph.NodeID
			for _, old := range absorbed {
				if img, ok := oldTyping[descendant][old]; ok {
					if _, dup := seen[img]; !dup {
						seen[img] = struct{}{}
						images = append(images, img)
					}
				}
			}
			if len(images) < 2 {
				if len(images) == 1 {
					hom.Mapping[mergedID] = images[0]
				}
				continue
			}
			sort.Slice(images, func(i, j int) bool { return images[i] < images[j] })
			mergedD, err := dg.MergeNodes(images, "")
			if err != nil {
				return err
			}
			hom.Mapping[mergedID] = mergedD
			h.logger.Debug("forward propagation: merging descendant nodes",
				zap.String("descendant", descendant), zap.String("merged", string(mergedD)))
		}
	}
	return nil
}

func (h *Hierarchy) cascadeDescendantAddition(graphID string, added graph.NodeID, report *RewriteReport) error {
	for _, descendant := range h.ImmediateDescendants(graphID) {
		hom, ok := h.outEdges[graphID][descendant]
		if !ok {
			continue
		}
		dg, err := h.Graph(descendant)
		if err != nil {
			return err
		}
		freshD := dg.FreshNodeID(added)
		if err := dg.AddNode(freshD, graph.AttributeMap{}); err != nil {
			return err
		}
		hom.Mapping[added] = freshD
		report.AddedDescendants[descendant] = append(report.AddedDescendants[descendant], freshD)
		if err := h.cascadeDescendantAddition(descendant, freshD, report); err != nil {
			return err
		}
	}
	return nil
}

// checkStrict rejects any rule whose application would force propagation
// into ancestors or descendants, per spec §4.F "Strict mode".
func (h *Hierarchy) checkStrict(graphID string, r *rule.Rule, m match.Match, pTyping, rhsTyping TypingAssignment) error {
	for _, y := range r.R.Nodes() {
		if !r.AddsNode(y) {
			continue
		}
		for _, descendant := range h.ImmediateDescendants(graphID) {
			if _, ok := rhsTyping[descendant][y]; !ok {
				return rgerr.Hierarchy("strict mode: added node %q is not typed for descendant %q", y, descendant).
					WithDetails(map[string]interface{}{"node": y, "graph": descendant})
			}
		}
	}

	for _, x := range r.L.Nodes() {
		if !r.ClonesNode(x) {
			continue
		}
		target := m[x]
		for _, ancestor := range h.ImmediateAncestors(graphID) {
			hom, ok := h.outEdges[ancestor][graphID]
			if !ok {
				continue
			}
			instances := h.nodesTypedTo(hom, target)
			if len(instances) == 0 {
				continue
			}
			for _, a := range instances {
				if _, pinned := pTyping[ancestor][a]; !pinned {
					return rgerr.Hierarchy("strict mode: clone of %q forces propagation into ancestor %q", x, ancestor).
						WithDetails(map[string]interface{}{"node": x, "graph": ancestor})
				}
			}
		}
	}

	for _, y := range r.R.Nodes() {
		if !r.MergesNodes(y) {
			continue
		}
		preimages := r.RightPreimages(y)
		for _, descendant := range h.ImmediateDescendants(graphID) {
			hom, ok := h.outEdges[graphID][descendant]
			if !ok {
				continue
			}
			seen := map[graph.NodeID]struct{}{}
			distinct := 0
			for _, p := range preimages {
				lNode := r.LeftImage(p)
				if lNode == "" {
					continue
				}
				if img, ok := hom.Mapping[m[lNode]]; ok {
					if _, dup := seen[img]; !dup {
						seen[img] = struct{}{}
						distinct++
					}
				}
			}
			if distinct >= 2 {
				return rgerr.Hierarchy("strict mode: merge producing %q forces propagation into descendant %q", y, descendant).
					WithDetails(map[string]interface{}{"node": y, "graph": descendant})
			}
		}
	}

	for _, x := range r.L.Nodes() {
		if !r.DeletesNode(x) {
			continue
		}
		target := m[x]
		for _, ancestor := range h.ImmediateAncestors(graphID) {
			hom, ok := h.outEdges[ancestor][graphID]
			if !ok {
				continue
			}
			if len(h.nodesTypedTo(hom, target)) > 0 {
				return rgerr.Hierarchy("strict mode: deletion of %q forces propagation into ancestor %q", x, ancestor).
					WithDetails(map[string]interface{}{"node": x, "graph": ancestor})
			}
		}
	}
	return nil
}

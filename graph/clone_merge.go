package graph

import "github.com/Kappa-Dev/ReGraph/rgerr"

// CloneNode creates a disjoint copy of id's attribute map under newID (auto
// minted if empty), duplicating every incident edge (spec §4.B). A
// self-loop on id becomes four edges — orig→orig, orig→clone, clone→orig,
// clone→clone — each carrying a duplicate of the original loop's
// attributes.
func (g *Graph) CloneNode(id NodeID, newID NodeID) (NodeID, error) {
	if !g.HasNode(id) {
		return "", rgerr.Graph("node %q not found", id).WithDetail("node", id)
	}
	if newID == "" {
		newID = g.FreshNodeID(id)
	} else if g.HasNode(newID) {
		return "", rgerr.Graph("clone target %q already exists", newID).WithDetail("node", newID)
	}

	if err := g.AddNode(newID, g.nodes[id].Clone()); err != nil {
		return "", err
	}

	isLoop := g.HasEdge(id, id)
	if isLoop {
		loopAttrs := g.edges[EdgeKey{From: id, To: id}]
		if err := g.AddEdge(id, newID, loopAttrs.Clone()); err != nil {
			return "", err
		}
		if err := g.AddEdge(newID, id, loopAttrs.Clone()); err != nil {
			return "", err
		}
		if err := g.AddEdge(newID, newID, loopAttrs.Clone()); err != nil {
			return "", err
		}
	}

	for _, v := range g.Successors(id) {
		if v == id || v == newID {
			continue // loop already handled above
		}
		a := g.edges[EdgeKey{From: id, To: v}]
		if err := g.AddEdge(newID, v, a.Clone()); err != nil {
			return "", err
		}
	}
	for _, u := range g.Predecessors(id) {
		if u == id || u == newID {
			continue
		}
		a := g.edges[EdgeKey{From: u, To: id}]
		if err := g.AddEdge(u, newID, a.Clone()); err != nil {
			return "", err
		}
	}

	return newID, nil
}

// MergeNodes collapses ids into a single node newID (auto minted from the
// first id if empty): attribute maps union per key, every incident edge
// redirects to newID, parallel redirected edges union their attributes, and
// any loop among the merged nodes (self-loops or edges between members)
// becomes a single loop on newID whose attributes union every contributor
// (spec §4.B). A single-element set is the identity operation.
func (g *Graph) MergeNodes(ids []NodeID, newID NodeID) (NodeID, error) {
	if len(ids) == 0 {
		return "", rgerr.Graph("merge_nodes requires at least one node")
	}
	for _, id := range ids {
		if !g.HasNode(id) {
			return "", rgerr.Graph("node %q not found", id).WithDetail("node", id)
		}
	}
	members := make(map[NodeID]struct{}, len(ids))
	for _, id := range ids {
		members[id] = struct{}{}
	}

	if newID == "" {
		newID = ids[0]
		if len(ids) > 1 {
			newID = g.FreshNodeID(ids[0])
		}
	} else if _, isMember := members[newID]; !isMember && g.HasNode(newID) {
		return "", rgerr.Graph("merge target %q already exists and is not one of the merged nodes", newID).WithDetail("node", newID)
	}

	mergedAttrs := AttributeMap{}
	for _, id := range ids {
		var err error
		mergedAttrs, err = UnionAttrs(mergedAttrs, g.nodes[id])
		if err != nil {
			return "", err
		}
	}

	type redirected struct {
		other NodeID
		attrs AttributeMap
	}
	var outRedirects, inRedirects []redirected
	loopAttrs := AttributeMap{}
	hasLoop := false

	for _, id := range ids {
		for _, v := range g.Successors(id) {
			a := g.edges[EdgeKey{From: id, To: v}]
			if _, isMember := members[v]; isMember {
				var err error
				loopAttrs, err = UnionAttrs(loopAttrs, a)
				if err != nil {
					return "", err
				}
				hasLoop = true
				continue
			}
			outRedirects = append(outRedirects, redirected{other: v, attrs: a})
		}
		for _, u := range g.Predecessors(id) {
			if _, isMember := members[u]; isMember {
				continue // already folded into the loop pass above
			}
			a := g.edges[EdgeKey{From: u, To: id}]
			inRedirects = append(inRedirects, redirected{other: u, attrs: a})
		}
	}

	for _, id := range ids {
		if err := g.RemoveNode(id); err != nil {
			return "", err
		}
	}
	if err := g.AddNode(newID, mergedAttrs); err != nil {
		return "", err
	}
	if hasLoop {
		if err := g.mergeEdgeInto(newID, newID, loopAttrs); err != nil {
			return "", err
		}
	}
	for _, r := range outRedirects {
		if err := g.mergeEdgeInto(newID, r.other, r.attrs); err != nil {
			return "", err
		}
	}
	for _, r := range inRedirects {
		if err := g.mergeEdgeInto(r.other, newID, r.attrs); err != nil {
			return "", err
		}
	}

	return newID, nil
}

// mergeEdgeInto adds attrs onto edge u->v, creating it if absent and
// union-merging with whatever's already there if present (parallel
// redirected edges union, per spec §4.B).
func (g *Graph) mergeEdgeInto(u, v NodeID, attrs AttributeMap) error {
	if g.HasEdge(u, v) {
		return g.AddEdgeAttrs(u, v, attrs)
	}
	return g.AddEdge(u, v, attrs)
}

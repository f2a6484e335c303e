// Package graph implements the simple directed attributed graph and the
// homomorphism abstraction of spec §4.B: arena-style storage (two adjacency
// maps keyed by opaque node id, no pointer cycles — spec §9 "Design Notes"),
// the primitive mutation operations (add/remove node and edge, attribute
// union/difference, clone, merge, relabel), and deterministic fresh-id
// minting.
package graph

import (
	"fmt"
	"sort"

	"github.com/Kappa-Dev/ReGraph/config"
	"github.com/Kappa-Dev/ReGraph/rgerr"
)

// NodeID is an opaque, hashable node identifier — "usually strings" per
// spec §3.
type NodeID string

// EdgeKey identifies an edge by its ordered endpoint pair.
type EdgeKey struct {
	From, To NodeID
}

// Graph is a simple directed graph: at most one edge per ordered pair,
// loops permitted, every node and edge carrying an AttributeMap.
type Graph struct {
	nodes map[NodeID]AttributeMap
	edges map[EdgeKey]AttributeMap
	out   map[NodeID]map[NodeID]struct{}
	in    map[NodeID]map[NodeID]struct{}

	idCounter int64
	cfg       *config.Config
}

// New creates an empty graph using the default configuration.
func New() *Graph {
	return NewWithConfig(config.DefaultConfig())
}

// NewWithConfig creates an empty graph using the given configuration (for
// the id-minting suffix format).
func NewWithConfig(cfg *config.Config) *Graph {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Graph{
		nodes: make(map[NodeID]AttributeMap),
		edges: make(map[EdgeKey]AttributeMap),
		out:   make(map[NodeID]map[NodeID]struct{}),
		in:    make(map[NodeID]map[NodeID]struct{}),
		cfg:   cfg,
	}
}

// AddNode adds a node with the given attributes (nil is treated as empty).
// It fails if id is already present, per spec §4.B.
func (g *Graph) AddNode(id NodeID, attrs AttributeMap) error {
	if _, exists := g.nodes[id]; exists {
		return rgerr.Graph("node %q already exists", id).WithDetail("node", id)
	}
	if attrs == nil {
		attrs = AttributeMap{}
	}
	g.nodes[id] = attrs.Erase()
	g.out[id] = make(map[NodeID]struct{})
	g.in[id] = make(map[NodeID]struct{})
	return nil
}

// RemoveNode removes a node and cascades removal of every incident edge.
func (g *Graph) RemoveNode(id NodeID) error {
	if _, exists := g.nodes[id]; !exists {
		return rgerr.Graph("node %q not found", id).WithDetail("node", id)
	}
	for to := range g.out[id] {
		delete(g.edges, EdgeKey{From: id, To: to})
		delete(g.in[to], id)
	}
	for from := range g.in[id] {
		delete(g.edges, EdgeKey{From: from, To: id})
		delete(g.out[from], id)
	}
	delete(g.out, id)
	delete(g.in, id)
	delete(g.nodes, id)
	return nil
}

// HasNode reports whether id is present.
func (g *Graph) HasNode(id NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// NodeAttrs returns a node's attribute map.
func (g *Graph) NodeAttrs(id NodeID) (AttributeMap, error) {
	attrs, ok := g.nodes[id]
	if !ok {
		return nil, rgerr.Graph("node %q not found", id).WithDetail("node", id)
	}
	return attrs, nil
}

// Nodes returns every node id in deterministic sorted order.
func (g *Graph) Nodes() []NodeID {
	out := make([]NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AddEdge adds an edge u->v. Fails if either endpoint is missing or the
// edge already exists (multi-edges are forbidden, per spec §3).
func (g *Graph) AddEdge(u, v NodeID, attrs AttributeMap) error {
	if !g.HasNode(u) {
		return rgerr.Graph("edge endpoint %q not found", u).WithDetail("node", u)
	}
	if !g.HasNode(v) {
		return rgerr.Graph("edge endpoint %q not found", v).WithDetail("node", v)
	}
	key := EdgeKey{From: u, To: v}
	if _, exists := g.edges[key]; exists {
		return rgerr.Graph("edge (%q, %q) already exists", u, v).WithDetails(map[string]interface{}{"from": u, "to": v})
	}
	if attrs == nil {
		attrs = AttributeMap{}
	}
	g.edges[key] = attrs.Erase()
	g.out[u][v] = struct{}{}
	g.in[v][u] = struct{}{}
	return nil
}

// RemoveEdge removes an edge. Fails if it's absent.
func (g *Graph) RemoveEdge(u, v NodeID) error {
	key := EdgeKey{From: u, To: v}
	if _, exists := g.edges[key]; !exists {
		return rgerr.Graph("edge (%q, %q) not found", u, v).WithDetails(map[string]interface{}{"from": u, "to": v})
	}
	delete(g.edges, key)
	delete(g.out[u], v)
	delete(g.in[v], u)
	return nil
}

// HasEdge reports whether u->v exists.
func (g *Graph) HasEdge(u, v NodeID) bool {
	_, ok := g.edges[EdgeKey{From: u, To: v}]
	return ok
}

// EdgeAttrs returns an edge's attribute map.
func (g *Graph) EdgeAttrs(u, v NodeID) (AttributeMap, error) {
	attrs, ok := g.edges[EdgeKey{From: u, To: v}]
	if !ok {
		return nil, rgerr.Graph("edge (%q, %q) not found", u, v).WithDetails(map[string]interface{}{"from": u, "to": v})
	}
	return attrs, nil
}

// Edges returns every edge key in deterministic order (by From, then To).
func (g *Graph) Edges() []EdgeKey {
	out := make([]EdgeKey, 0, len(g.edges))
	for k := range g.edges {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// Successors returns the sorted set of nodes v such that id->v exists.
func (g *Graph) Successors(id NodeID) []NodeID {
	return sortedKeys(g.out[id])
}

// Predecessors returns the sorted set of nodes u such that u->id exists.
func (g *Graph) Predecessors(id NodeID) []NodeID {
	return sortedKeys(g.in[id])
}

func sortedKeys(m map[NodeID]struct{}) []NodeID {
	out := make([]NodeID, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AddNodeAttrs unions attrs into the node's existing attribute map, key by
// key (spec §4.B).
func (g *Graph) AddNodeAttrs(id NodeID, attrs AttributeMap) error {
	cur, err := g.NodeAttrs(id)
	if err != nil {
		return err
	}
	merged, err := UnionAttrs(cur, attrs)
	if err != nil {
		return err
	}
	g.nodes[id] = merged
	return nil
}

// RemoveNodeAttrs subtracts attrs from the node's existing attribute map,
// key by key.
func (g *Graph) RemoveNodeAttrs(id NodeID, attrs AttributeMap) error {
	cur, err := g.NodeAttrs(id)
	if err != nil {
		return err
	}
	diff, err := DifferenceAttrs(cur, attrs)
	if err != nil {
		return err
	}
	g.nodes[id] = diff
	return nil
}

// AddEdgeAttrs unions attrs into an edge's existing attribute map.
func (g *Graph) AddEdgeAttrs(u, v NodeID, attrs AttributeMap) error {
	cur, err := g.EdgeAttrs(u, v)
	if err != nil {
		return err
	}
	merged, err := UnionAttrs(cur, attrs)
	if err != nil {
		return err
	}
	g.edges[EdgeKey{From: u, To: v}] = merged
	return nil
}

// RemoveEdgeAttrs subtracts attrs from an edge's existing attribute map.
func (g *Graph) RemoveEdgeAttrs(u, v NodeID, attrs AttributeMap) error {
	cur, err := g.EdgeAttrs(u, v)
	if err != nil {
		return err
	}
	diff, err := DifferenceAttrs(cur, attrs)
	if err != nil {
		return err
	}
	g.edges[EdgeKey{From: u, To: v}] = diff
	return nil
}

// RelabelNode renames a node, preserving its attributes and every incident
// edge.
func (g *Graph) RelabelNode(old, newID NodeID) error {
	if !g.HasNode(old) {
		return rgerr.Graph("node %q not found", old).WithDetail("node", old)
	}
	if old == newID {
		return nil
	}
	if g.HasNode(newID) {
		return rgerr.Graph("relabel target %q already exists", newID).WithDetail("node", newID)
	}
	attrs := g.nodes[old]
	outNbrs := g.Successors(old)
	inNbrs := g.Predecessors(old)
	edgeOut := make(map[NodeID]AttributeMap, len(outNbrs))
	edgeIn := make(map[NodeID]AttributeMap, len(inNbrs))
	for _, v := range outNbrs {
		edgeOut[v] = g.edges[EdgeKey{From: old, To: v}]
	}
	for _, u := range inNbrs {
		edgeIn[u] = g.edges[EdgeKey{From: u, To: old}]
	}

	if err := g.RemoveNode(old); err != nil {
		return err
	}
	if err := g.AddNode(newID, attrs); err != nil {
		return err
	}
	for v, a := range edgeOut {
		to := v
		if to == old {
			to = newID
		}
		if err := g.AddEdge(newID, to, a); err != nil {
			return err
		}
	}
	for u, a := range edgeIn {
		if u == old {
			continue // the (old,old) loop was already re-added above as (newID,newID)
		}
		if err := g.AddEdge(u, newID, a); err != nil {
			return err
		}
	}
	return nil
}

// FreshNodeID deterministically mints a node id derived from base: base
// itself if free, else base with a monotonically increasing numeric suffix
// (spec §9: "fresh-id generation must be deterministic given prior ids").
func (g *Graph) FreshNodeID(base NodeID) NodeID {
	if !g.HasNode(base) {
		return base
	}
	for {
		g.idCounter++
		candidate := NodeID(string(base) + fmt.Sprintf(g.cfg.IDSuffixFormat, g.idCounter))
		if !g.HasNode(candidate) {
			return candidate
		}
	}
}

// Copy returns an independent deep copy of the graph (attribute values are
// immutable, so copying the maps suffices) using the same configuration.
func (g *Graph) Copy() *Graph {
	out := NewWithConfig(g.cfg)
	for _, n := range g.Nodes() {
		_ = out.AddNode(n, g.nodes[n].Clone())
	}
	for _, e := range g.Edges() {
		_ = out.AddEdge(e.From, e.To, g.edges[e].Clone())
	}
	out.idCounter = g.idCounter
	return out
}

// Validate checks the simple-graph invariants of spec §3: every edge's
// endpoints exist, and (by construction of EdgeKey as a map key) no
// duplicate ordered-pair edge.
func (g *Graph) Validate() error {
	for k := range g.edges {
		if !g.HasNode(k.From) {
			return rgerr.Graph("edge references missing source node %q", k.From)
		}
		if !g.HasNode(k.To) {
			return rgerr.Graph("edge references missing target node %q", k.To)
		}
	}
	return nil
}

// Package hierarchy implements the DAG-of-graphs abstraction of spec §4.F:
// graphs connected by typing homomorphisms, symmetric relations between
// graph pairs, and the backward/forward propagation protocol that restores
// every typing triangle's commutativity after a rewrite at one level.
package hierarchy

import (
	"sort"

	"go.uber.org/zap"

	"github.com/Kappa-Dev/ReGraph/config"
	"github.com/Kappa-Dev/ReGraph/graph"
	"github.com/Kappa-Dev/ReGraph/match"
	"github.com/Kappa-Dev/ReGraph/rgerr"
)

// Relation is a symmetric node-set relation between two graphs: each node
// of one side maps to a set of related nodes of the other. It is not a
// function and carries no propagation obligation (spec §3).
type Relation map[graph.NodeID][]graph.NodeID

type relKey struct{ a, b string }

func makeRelKey(a, b string) relKey {
	if a > b {
		a, b = b, a
	}
	return relKey{a, b}
}

// Hierarchy owns a DAG of named graphs, the typing homomorphism on each
// edge, and the symmetric relations between graph pairs.
type Hierarchy struct {
	graphs    map[string]*graph.Graph
	outEdges  map[string]map[string]*graph.Homomorphism // src -> tgt -> (src typed by tgt)
	inEdges   map[string]map[string]*graph.Homomorphism // tgt -> src -> same homomorphism, reverse index
	relations map[relKey]Relation

	cfg    *config.Config
	logger *zap.Logger
}

// New builds an empty hierarchy with default configuration and a no-op
// logger.
func New() *Hierarchy {
	return NewWithOptions(config.DefaultConfig(), zap.NewNop())
}

// NewWithOptions builds an empty hierarchy with an explicit configuration
// and structured logger — propagation traces are emitted at debug level.
func NewWithOptions(cfg *config.Config, logger *zap.Logger) *Hierarchy {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hierarchy{
		graphs:    make(map[string]*graph.Graph),
		outEdges:  make(map[string]map[string]*graph.Homomorphism),
		inEdges:   make(map[string]map[string]*graph.Homomorphism),
		relations: make(map[relKey]Relation),
		cfg:       cfg,
		logger:    logger,
	}
}

// AddGraph adds a named graph with no typings yet.
func (h *Hierarchy) AddGraph(id string, g *graph.Graph) error {
	if _, exists := h.graphs[id]; exists {
		return rgerr.Hierarchy("graph %q already exists", id).WithDetail("graph", id)
	}
	if g == nil {
		g = graph.New()
	}
	h.graphs[id] = g
	h.outEdges[id] = make(map[string]*graph.Homomorphism)
	h.inEdges[id] = make(map[string]*graph.Homomorphism)
	return nil
}

// Graph returns the named graph.
func (h *Hierarchy) Graph(id string) (*graph.Graph, error) {
	g, ok := h.graphs[id]
	if !ok {
		return nil, rgerr.Hierarchy("graph %q not found", id).WithDetail("graph", id)
	}
	return g, nil
}

// GraphIDs returns every graph id in sorted order.
func (h *Hierarchy) GraphIDs() []string {
	out := make([]string, 0, len(h.graphs))
	for id := range h.graphs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// RemoveGraph removes a graph and its incident typing edges. If reconnect
// is set, every ancestor-typing is composed through the removed node onto
// every descendant, preserving ancestor→descendant typing (spec §4.F).
func (h *Hierarchy) RemoveGraph(id string, reconnect bool) error {
	if _, ok := h.graphs[id]; !ok {
		return rgerr.Hierarchy("graph %q not found", id).WithDetail("graph", id)
	}
	if reconnect {
		for src, ancestorHom := range h.inEdges[id] {
			for tgt, descendantHom := range h.outEdges[id] {
				composed, err := graph.Compose(ancestorHom, descendantHom)
				if err != nil {
					return rgerr.Hierarchy("reconnect failed composing %q->%q->%q", src, id, tgt).WithCause(err)
				}
				if err := h.addTypingHom(src, tgt, composed); err != nil {
					return err
				}
			}
		}
	}
	for tgt := range h.outEdges[id] {
		delete(h.inEdges[tgt], id)
	}
	for src := range h.inEdges[id] {
		delete(h.outEdges[src], id)
	}
	delete(h.outEdges, id)
	delete(h.inEdges, id)
	delete(h.graphs, id)
	for k := range h.relations {
		if k.a == id || k.b == id {
			delete(h.relations, k)
		}
	}
	return nil
}

// AddTyping adds a typing edge src→tgt (src typed by tgt), validating the
// homomorphism, DAG acyclicity, and commutativity with every
// already-existing one-hop extension through src or tgt and with every
// existing two-step path src->mid->tgt (spec §4.F).
func (h *Hierarchy) AddTyping(src, tgt string, mapping map[graph.NodeID]graph.NodeID) error {
	srcGraph, err := h.Graph(src)
	if err != nil {
		return err
	}
	tgtGraph, err := h.Graph(tgt)
	if err != nil {
		return err
	}
	hom, err := graph.NewHomomorphism(srcGraph, tgtGraph, mapping)
	if err != nil {
		return rgerr.Hierarchy("invalid typing %q -> %q", src, tgt).WithCause(err)
	}
	if h.reaches(tgt, src) {
		return rgerr.Hierarchy("adding typing %q -> %q would create a cycle", src, tgt)
	}
	if err := h.checkCommutativity(src, tgt, hom); err != nil {
		return err
	}
	return h.addTypingHom(src, tgt, hom)
}

func (h *Hierarchy) addTypingHom(src, tgt string, hom *graph.Homomorphism) error {
	if h.outEdges[src] == nil {
		h.outEdges[src] = make(map[string]*graph.Homomorphism)
	}
	if h.inEdges[tgt] == nil {
		h.inEdges[tgt] = make(map[string]*graph.Homomorphism)
	}
	h.outEdges[src][tgt] = hom
	h.inEdges[tgt][src] = hom
	return nil
}

// checkCommutativity verifies that composing the proposed src->tgt edge
// with every existing ancestor->src edge, or with every existing
// tgt->descendant edge, agrees with any already-existing direct edge
// between those same two endpoints, and that the proposed edge agrees with
// the composition of every existing src->mid->tgt pair of edges.
func (h *Hierarchy) checkCommutativity(src, tgt string, proposed *graph.Homomorphism) error {
	for ancestor, ancestorHom := range h.inEdges[src] {
		composed, err := graph.Compose(ancestorHom, proposed)
		if err != nil {
			continue
		}
		if direct, ok := h.outEdges[ancestor][tgt]; ok {
			if !homomorphismsAgree(direct, composed) {
				return rgerr.Hierarchy("typing %q -> %q does not commute with existing %q -> %q", src, tgt, ancestor, tgt)
			}
		}
	}
	for descendant, descendantHom := range h.outEdges[tgt] {
		composed, err := graph.Compose(proposed, descendantHom)
		if err != nil {
			continue
		}
		if direct, ok := h.outEdges[src][descendant]; ok {
			if !homomorphismsAgree(direct, composed) {
				return rgerr.Hierarchy("typing %q -> %q does not commute with existing %q -> %q", src, tgt, src, descendant)
			}
		}
	}
	for mid, srcToMid := range h.outEdges[src] {
		midToTgt, ok := h.outEdges[mid][tgt]
		if !ok {
			continue
		}
		composed, err := graph.Compose(srcToMid, midToTgt)
		if err != nil {
			continue
		}
		if !homomorphismsAgree(proposed, composed) {
			return rgerr.Hierarchy("typing %q -> %q does not commute with existing path through %q", src, tgt, mid)
		}
	}
	return nil
}

func homomorphismsAgree(a, b *graph.Homomorphism) bool {
	if len(a.Mapping) != len(b.Mapping) {
		return false
	}
	for k, v := range a.Mapping {
		if b.Mapping[k] != v {
			return false
		}
	}
	return true
}

// reaches reports whether there is a directed typing path from->to
// (from -typed-by-> ... -typed-by-> to).
func (h *Hierarchy) reaches(from, to string) bool {
	if from == to {
		return true
	}
	seen := map[string]struct{}{from: {}}
	stack := []string{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for next := range h.outEdges[cur] {
			if next == to {
				return true
			}
			if _, visited := seen[next]; visited {
				continue
			}
			seen[next] = struct{}{}
			stack = append(stack, next)
		}
	}
	return false
}

// Ancestors returns every graph transitively typed by id (graphs with a
// directed path into id), nearest first.
func (h *Hierarchy) Ancestors(id string) []string {
	return h.traverse(id, h.inEdges)
}

// Descendants returns every graph id is transitively typed by (graphs
// reachable by following typing edges out of id), nearest first.
func (h *Hierarchy) Descendants(id string) []string {
	return h.traverse(id, h.outEdges)
}

func (h *Hierarchy) traverse(id string, edges map[string]map[string]*graph.Homomorphism) []string {
	var order []string
	seen := map[string]struct{}{id: {}}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		neighbors := make([]string, 0, len(edges[cur]))
		for n := range edges[cur] {
			neighbors = append(neighbors, n)
		}
		sort.Strings(neighbors)
		for _, n := range neighbors {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			order = append(order, n)
			queue = append(queue, n)
		}
	}
	return order
}

// ImmediateAncestors/ImmediateDescendants return direct (one-hop) edges
// only, sorted, for propagation that needs to process one DAG level at a
// time.
func (h *Hierarchy) ImmediateAncestors(id string) []string {
	out := make([]string, 0, len(h.inEdges[id]))
	for a := range h.inEdges[id] {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

func (h *Hierarchy) ImmediateDescendants(id string) []string {
	out := make([]string, 0, len(h.outEdges[id]))
	for d := range h.outEdges[id] {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Typing returns the homomorphism for a direct typing edge src->tgt.
func (h *Hierarchy) Typing(src, tgt string) (*graph.Homomorphism, bool) {
	hom, ok := h.outEdges[src][tgt]
	return hom, ok
}

// AddRelation records a symmetric relation between two graphs. No
// propagation obligation attaches to it (spec §3).
func (h *Hierarchy) AddRelation(a, b string, rel Relation) error {
	if _, ok := h.graphs[a]; !ok {
		return rgerr.Hierarchy("graph %q not found", a).WithDetail("graph", a)
	}
	if _, ok := h.graphs[b]; !ok {
		return rgerr.Hierarchy("graph %q not found", b).WithDetail("graph", b)
	}
	h.relations[makeRelKey(a, b)] = rel
	return nil
}

// Relation returns the relation stored between a and b, if any.
func (h *Hierarchy) Relation(a, b string) (Relation, bool) {
	rel, ok := h.relations[makeRelKey(a, b)]
	return rel, ok
}

// revalidateRelations drops relation entries referencing nodes that no
// longer exist — spec §4.F "Relations are re-validated... otherwise the
// relation entry is dropped".
func (h *Hierarchy) revalidateRelations() {
	for k, rel := range h.relations {
		ga, okA := h.graphs[k.a]
		gb, okB := h.graphs[k.b]
		if !okA || !okB {
			delete(h.relations, k)
			continue
		}
		cleaned := make(Relation, len(rel))
		for node, related := range rel {
			if !ga.HasNode(node) {
				continue
			}
			var survivors []graph.NodeID
			for _, r := range related {
				if gb.HasNode(r) {
					survivors = append(survivors, r)
				}
			}
			if len(survivors) > 0 {
				cleaned[node] = survivors
			}
		}
		h.relations[k] = cleaned
	}
}

// NodeType reports, for every outbound typing edge of graphID, the image
// of node (spec §4.F "can be multi-valued across different targets").
func (h *Hierarchy) NodeType(graphID string, node graph.NodeID) map[string][]graph.NodeID {
	out := make(map[string][]graph.NodeID)
	for tgt, hom := range h.outEdges[graphID] {
		if img, ok := hom.Mapping[node]; ok {
			out[tgt] = []graph.NodeID{img}
		}
	}
	return out
}

// Copy returns an independent deep copy of the hierarchy: every graph,
// typing homomorphism, and relation is duplicated so mutating the copy
// never touches the original (used by the audit layer to materialize a new
// branch).
func (h *Hierarchy) Copy() *Hierarchy {
	out := NewWithOptions(h.cfg, h.logger)
	for _, id := range h.GraphIDs() {
		_ = out.AddGraph(id, h.graphs[id].Copy())
	}
	for src, targets := range h.outEdges {
		for tgt, hom := range targets {
			mapping := make(map[graph.NodeID]graph.NodeID, len(hom.Mapping))
			for k, v := range hom.Mapping {
				mapping[k] = v
			}
			newHom, err := graph.NewHomomorphism(out.graphs[src], out.graphs[tgt], mapping)
			if err != nil {
				continue
			}
			_ = out.addTypingHom(src, tgt, newHom)
		}
	}
	for k, rel := range h.relations {
		cloned := make(Relation, len(rel))
		for node, related := range rel {
			cloned[node] = append([]graph.NodeID(nil), related...)
		}
		out.relations[k] = cloned
	}
	return out
}

// FindMatching enumerates pattern occurrences in the named graph, with an
// optional typing restriction (spec §4.F).
func (h *Hierarchy) FindMatching(graphID string, pattern *graph.Graph, typing match.Typing) ([]match.Match, error) {
	g, err := h.Graph(graphID)
	if err != nil {
		return nil, err
	}
	return match.FindMatchingWithConfig(pattern, g, typing, h.cfg), nil
}

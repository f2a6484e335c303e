// Package match implements the pattern matcher of spec §4.C: enumeration of
// node-injective homomorphisms (monomorphisms) from a pattern graph into a
// target graph, respecting attribute subsumption and an optional typing
// restriction. The search is a deterministic backtracking generator over a
// lexicographic order of candidate node ids, matching the "lazy sequence,
// cancel by dropping the iterator" design of spec §9.
package match

import (
	"sort"

	"github.com/Kappa-Dev/ReGraph/config"
	"github.com/Kappa-Dev/ReGraph/graph"
)

// Typing restricts a pattern node to a permitted subset of target nodes —
// used when matching inside a hierarchy (spec §4.F "find_matching").
type Typing map[graph.NodeID][]graph.NodeID

// Match is one total injective assignment of pattern nodes to target nodes.
type Match map[graph.NodeID]graph.NodeID

// Clone returns an independent copy of the match (callers may hold onto
// past matches across mutations of the underlying search).
func (m Match) Clone() Match {
	out := make(Match, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Matcher enumerates occurrences of a pattern graph in a target graph.
type Matcher struct {
	pattern *graph.Graph
	target  *graph.Graph
	typing  Typing
	cfg     *config.Config

	patternNodes []graph.NodeID
	candidates   map[graph.NodeID][]graph.NodeID
	targetSig    map[graph.NodeID][]int
}

// New builds a matcher for pattern L inside target G, with an optional
// typing restriction (nil for none) and the default search configuration.
func New(pattern, target *graph.Graph, typing Typing) *Matcher {
	return NewWithConfig(pattern, target, typing, config.DefaultConfig())
}

// NewWithConfig is New with an explicit configuration, honoring
// EnableDegreePruning, EnableSignaturePruning, and MaxMatches (spec §4.C,
// §9 "standard backtracking refinements").
func NewWithConfig(pattern, target *graph.Graph, typing Typing, cfg *config.Config) *Matcher {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	m := &Matcher{pattern: pattern, target: target, typing: typing, cfg: cfg}
	m.patternNodes = orderPatternNodes(pattern)
	m.targetSig = computeSignatures(target)
	m.candidates = m.computeCandidates()
	return m
}

// orderPatternNodes picks a deterministic search order: highest pattern
// degree first (standard backtracking refinement — constrains the search
// tree fastest), ties broken lexicographically on node id so the overall
// enumeration order is reproducible (spec §4.C "Determinism").
func orderPatternNodes(l *graph.Graph) []graph.NodeID {
	nodes := l.Nodes()
	degree := make(map[graph.NodeID]int, len(nodes))
	for _, n := range nodes {
		degree[n] = len(l.Successors(n)) + len(l.Predecessors(n))
	}
	sort.Slice(nodes, func(i, j int) bool {
		if degree[nodes[i]] != degree[nodes[j]] {
			return degree[nodes[i]] > degree[nodes[j]]
		}
		return nodes[i] < nodes[j]
	})
	return nodes
}

// computeCandidates precomputes, per pattern node, the sorted set of target
// nodes passing the typing restriction (if any), node-attribute subsumption,
// a degree lower bound, and a neighborhood-signature check — the standard
// backtracking refinements of spec §9, each individually switchable via
// config.Config.
func (m *Matcher) computeCandidates() map[graph.NodeID][]graph.NodeID {
	out := make(map[graph.NodeID][]graph.NodeID, len(m.patternNodes))
	targetNodes := m.target.Nodes()
	for _, pn := range m.patternNodes {
		pAttrs, _ := m.pattern.NodeAttrs(pn)
		pOutDeg := len(m.pattern.Successors(pn))
		pInDeg := len(m.pattern.Predecessors(pn))
		pSig := signatureOf(m.pattern, pn)

		var allowed []graph.NodeID
		if m.typing != nil {
			if restricted, ok := m.typing[pn]; ok {
				allowed = restricted
			} else {
				allowed = targetNodes
			}
		} else {
			allowed = targetNodes
		}

		var candidates []graph.NodeID
		for _, tn := range allowed {
			if !m.target.HasNode(tn) {
				continue
			}
			if m.cfg.EnableDegreePruning {
				if len(m.target.Successors(tn)) < pOutDeg || len(m.target.Predecessors(tn)) < pInDeg {
					continue
				}
			}
			if m.cfg.EnableSignaturePruning && !signatureDominates(pSig, m.targetSig[tn]) {
				continue
			}
			tAttrs, _ := m.target.NodeAttrs(tn)
			ok, err := graph.IsSubsumedBy(pAttrs, tAttrs)
			if err != nil || !ok {
				continue
			}
			candidates = append(candidates, tn)
		}
		sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })
		out[pn] = candidates
	}
	return out
}

// computeSignatures precomputes every node's neighborhood signature once,
// shared across all pattern nodes' candidate filtering.
func computeSignatures(g *graph.Graph) map[graph.NodeID][]int {
	out := make(map[graph.NodeID][]int, len(g.Nodes()))
	for _, n := range g.Nodes() {
		out[n] = signatureOf(g, n)
	}
	return out
}

// signatureOf is n's neighborhood signature: the multiset of total degrees
// of n's neighbors (successors and predecessors), sorted descending. Two
// nodes can only correspond under a monomorphism if the target node's
// signature "dominates" the pattern node's — a cheap necessary condition
// that prunes candidates degree pruning alone misses (e.g. same degree, but
// neighbors of much lower degree than the pattern requires).
func signatureOf(g *graph.Graph, n graph.NodeID) []int {
	succ := g.Successors(n)
	pred := g.Predecessors(n)
	sig := make([]int, 0, len(succ)+len(pred))
	for _, s := range succ {
		sig = append(sig, len(g.Successors(s))+len(g.Predecessors(s)))
	}
	for _, p := range pred {
		sig = append(sig, len(g.Successors(p))+len(g.Predecessors(p)))
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sig)))
	return sig
}

// signatureDominates reports whether targetSig can cover patternSig: at
// least as many neighbors, and the i-th largest target-neighbor degree is
// at least the i-th largest pattern-neighbor degree, for every i.
func signatureDominates(patternSig, targetSig []int) bool {
	if len(targetSig) < len(patternSig) {
		return false
	}
	for i, v := range patternSig {
		if targetSig[i] < v {
			return false
		}
	}
	return true
}

// FindAll eagerly collects every match, in deterministic order. Use
// Each for lazy enumeration over large search spaces.
func (m *Matcher) FindAll() []Match {
	var all []Match
	m.Each(func(match Match) bool {
		all = append(all, match)
		return true
	})
	return all
}

// FindFirst returns the first match, or nil if the pattern has no
// occurrence.
func (m *Matcher) FindFirst() Match {
	var first Match
	m.Each(func(match Match) bool {
		first = match
		return false
	})
	return first
}

// Each lazily enumerates matches in deterministic order, calling visit for
// each one; visit returns false to stop early (spec §4.C "lazy... callers
// may stop after the first match"). Enumeration also stops once
// config.Config.MaxMatches matches have been produced, if set.
func (m *Matcher) Each(visit func(Match) bool) {
	assignment := make(Match, len(m.patternNodes))
	used := make(map[graph.NodeID]struct{}, len(m.patternNodes))
	found := 0
	m.search(0, assignment, used, func(match Match) bool {
		found++
		if !visit(match) {
			return false
		}
		return m.cfg.MaxMatches <= 0 || found < m.cfg.MaxMatches
	})
}

func (m *Matcher) search(idx int, assignment Match, used map[graph.NodeID]struct{}, visit func(Match) bool) bool {
	if idx == len(m.patternNodes) {
		return visit(assignment.Clone())
	}
	pn := m.patternNodes[idx]
	for _, tn := range m.candidates[pn] {
		if _, taken := used[tn]; taken {
			continue
		}
		if !m.consistent(pn, tn, assignment) {
			continue
		}
		assignment[pn] = tn
		used[tn] = struct{}{}
		cont := m.search(idx+1, assignment, used, visit)
		delete(assignment, pn)
		delete(used, tn)
		if !cont {
			return false
		}
	}
	return true
}

// consistent checks that adding pn->tn to assignment preserves every edge
// (in both directions) already fixed by assignment, with edge-attribute
// subsumption, per spec §4.C clauses (i)-(iii).
func (m *Matcher) consistent(pn, tn graph.NodeID, assignment Match) bool {
	for other, otherTarget := range assignment {
		if m.pattern.HasEdge(pn, other) {
			if !m.target.HasEdge(tn, otherTarget) {
				return false
			}
			if !m.edgeSubsumed(pn, other, tn, otherTarget) {
				return false
			}
		}
		if m.pattern.HasEdge(other, pn) {
			if !m.target.HasEdge(otherTarget, tn) {
				return false
			}
			if !m.edgeSubsumed(other, pn, otherTarget, tn) {
				return false
			}
		}
	}
	if m.pattern.HasEdge(pn, pn) {
		if !m.target.HasEdge(tn, tn) {
			return false
		}
		if !m.edgeSubsumed(pn, pn, tn, tn) {
			return false
		}
	}
	return true
}

func (m *Matcher) edgeSubsumed(pu, pv, tu, tv graph.NodeID) bool {
	pAttrs, err := m.pattern.EdgeAttrs(pu, pv)
	if err != nil {
		return true
	}
	tAttrs, err := m.target.EdgeAttrs(tu, tv)
	if err != nil {
		return false
	}
	ok, err := graph.IsSubsumedBy(pAttrs, tAttrs)
	return err == nil && ok
}

// ToHomomorphism converts a Match into a validated Homomorphism against the
// matcher's pattern and target graphs.
func (m *Matcher) ToHomomorphism(match Match) (*graph.Homomorphism, error) {
	return graph.NewHomomorphism(m.pattern, m.target, map[graph.NodeID]graph.NodeID(match))
}

// FindMatching is a convenience entry point mirroring spec §4.F's
// "find_matching(graph_id, L, typing?)" — enumerate all occurrences of L in
// target, honoring an optional typing restriction, with the default search
// configuration.
func FindMatching(pattern, target *graph.Graph, typing Typing) []Match {
	return New(pattern, target, typing).FindAll()
}

// FindMatchingWithConfig is FindMatching with an explicit configuration, so
// callers (e.g. hierarchy.Hierarchy) can honor their own MaxMatches/pruning
// settings.
func FindMatchingWithConfig(pattern, target *graph.Graph, typing Typing, cfg *config.Config) []Match {
	return NewWithConfig(pattern, target, typing, cfg).FindAll()
}

// Package backend declares the persistent-backend adapter port of spec §6:
// an interface the core consumes opaquely, exposing the same primitive
// operations as the graph module plus pattern search. No implementation
// lives here — a concrete adapter (SQL, key-value, in-memory) plugs in
// behind this interface the way the teacher's application/ports package
// keeps domain code free of a storage choice.
package backend

import (
	"context"

	"github.com/Kappa-Dev/ReGraph/graph"
	"github.com/Kappa-Dev/ReGraph/match"
)

// GraphStore is the persistent-backend adapter of spec §6: every method is
// synchronous and assumed transactional per call, so a caller never
// observes a partially-applied mutation.
type GraphStore interface {
	// AddNode persists a new node with the given attributes.
	AddNode(ctx context.Context, graphID string, id graph.NodeID, attrs graph.AttributeMap) error

	// RemoveNode deletes a node and its incident edges.
	RemoveNode(ctx context.Context, graphID string, id graph.NodeID) error

	// NodeAttrs retrieves the attribute map of an existing node.
	NodeAttrs(ctx context.Context, graphID string, id graph.NodeID) (graph.AttributeMap, error)

	// AddNodeAttrs unions attrs into an existing node's attribute map.
	AddNodeAttrs(ctx context.Context, graphID string, id graph.NodeID, attrs graph.AttributeMap) error

	// RemoveNodeAttrs subtracts attrs from an existing node's attribute map.
	RemoveNodeAttrs(ctx context.Context, graphID string, id graph.NodeID, attrs graph.AttributeMap) error

	// AddEdge persists a new edge with the given attributes.
	AddEdge(ctx context.Context, graphID string, u, v graph.NodeID, attrs graph.AttributeMap) error

	// RemoveEdge deletes an edge.
	RemoveEdge(ctx context.Context, graphID string, u, v graph.NodeID) error

	// EdgeAttrs retrieves the attribute map of an existing edge.
	EdgeAttrs(ctx context.Context, graphID string, u, v graph.NodeID) (graph.AttributeMap, error)

	// CloneNode duplicates a node (and its incident edges) under a fresh id,
	// returning the id actually used.
	CloneNode(ctx context.Context, graphID string, id graph.NodeID, newID graph.NodeID) (graph.NodeID, error)

	// MergeNodes collapses a set of nodes into one, unioning attributes and
	// incident edges, returning the id actually used.
	MergeNodes(ctx context.Context, graphID string, ids []graph.NodeID, newID graph.NodeID) (graph.NodeID, error)

	// Nodes lists every node id of a stored graph.
	Nodes(ctx context.Context, graphID string) ([]graph.NodeID, error)

	// Edges lists every edge of a stored graph.
	Edges(ctx context.Context, graphID string) ([]graph.EdgeKey, error)

	// FindMatching runs pattern search against a stored graph, returning
	// every match of pattern with the given typing constraint (spec §4.C).
	FindMatching(ctx context.Context, graphID string, pattern *graph.Graph, typing match.Typing) ([]match.Match, error)

	// LoadGraph materializes a stored graph in full, for callers that need
	// to run rewrite.Apply or hierarchy.Hierarchy.Rewrite against it
	// in-process rather than through this interface node-by-node.
	LoadGraph(ctx context.Context, graphID string) (*graph.Graph, error)

	// SaveGraph persists a full in-memory graph back to the store,
	// overwriting whatever was there under graphID.
	SaveGraph(ctx context.Context, graphID string, g *graph.Graph) error
}

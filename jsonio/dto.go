// Package jsonio implements the JSON wire surface of spec §6: graphs,
// attribute values, and hierarchies round-trip through a validated DTO
// layer before becoming domain objects.
package jsonio

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// AttrValueDTO is the wire form of an attrs.Value: {type, data}. Data is
// kept raw since its shape (atom list, interval-pair list, pattern string,
// or absent) depends on Type.
type AttrValueDTO struct {
	Type string          `json:"type" validate:"required,oneof=FiniteSet IntegerSet RegexSet UniversalSet EmptySet"`
	Data json.RawMessage `json:"data,omitempty"`
}

// IntervalPair is one [lo, hi] entry of an IntegerSet's data, where each
// bound is either a JSON number or the sentinel string "-inf"/"inf".
type IntervalPair [2]Bound

// NodeDTO is the wire form of one graph node.
type NodeDTO struct {
	ID    string                   `json:"id" validate:"required"`
	Attrs map[string]*AttrValueDTO `json:"attrs,omitempty" validate:"dive,keys,required,endkeys,required"`
}

// EdgeDTO is the wire form of one graph edge.
type EdgeDTO struct {
	From  string                   `json:"from" validate:"required"`
	To    string                   `json:"to" validate:"required"`
	Attrs map[string]*AttrValueDTO `json:"attrs,omitempty" validate:"dive,keys,required,endkeys,required"`
}

// GraphDTO is the wire form of a graph.Graph (spec §6 "{nodes, edges}").
type GraphDTO struct {
	Nodes []NodeDTO `json:"nodes" validate:"dive"`
	Edges []EdgeDTO `json:"edges" validate:"dive"`
}

// TypingDTO is one typing homomorphism between two named graphs of a
// hierarchy.
type TypingDTO struct {
	Source  string            `json:"source" validate:"required"`
	Target  string            `json:"target" validate:"required"`
	Mapping map[string]string `json:"mapping"`
}

// RelationDTO is one symmetric cross-graph relation of a hierarchy.
type RelationDTO struct {
	A     string              `json:"a" validate:"required"`
	B     string              `json:"b" validate:"required"`
	Pairs map[string][]string `json:"pairs"`
}

// ChildDTO names a non-top graph of a hierarchy alongside its contents.
type ChildDTO struct {
	Name  string    `json:"name" validate:"required"`
	Graph *GraphDTO `json:"graph" validate:"required"`
}

// HierarchyDTO is the wire form of a hierarchy.Hierarchy (spec §6 "{name,
// top_graph, children, typings, relations}"). The hierarchy's internal graph
// DAG is flattened around one distinguished "top" graph chosen by the
// caller; every other graph is listed under children.
type HierarchyDTO struct {
	Name      string        `json:"name"`
	TopGraph  *GraphDTO     `json:"top_graph" validate:"required"`
	Children  []ChildDTO    `json:"children"`
	Typings   []TypingDTO   `json:"typings"`
	Relations []RelationDTO `json:"relations"`
}

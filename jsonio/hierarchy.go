package jsonio

import (
	"encoding/json"
	"sort"

	"github.com/Kappa-Dev/ReGraph/graph"
	"github.com/Kappa-Dev/ReGraph/hierarchy"
	"github.com/Kappa-Dev/ReGraph/rgerr"
)

// topGraphID is the canonical internal id the top graph is reconstituted
// under by HierarchyFromDTO. The wire format's top_graph key carries no
// name of its own (spec §6), so typings/relations referencing the top
// graph are rewritten to this id on the way out and read back under it on
// the way in — a round trip preserves structure, not the caller's original
// id for the top graph.
const topGraphID = "top"

// HierarchyToDTO renders h as its wire form (spec §6 "{name, top_graph,
// children, typings, relations}"), flattening the hierarchy's graph DAG
// around the caller-chosen top graph.
func HierarchyToDTO(h *hierarchy.Hierarchy, name, topID string) (*HierarchyDTO, error) {
	topGraph, err := h.Graph(topID)
	if err != nil {
		return nil, err
	}
	topDTO, err := GraphToDTO(topGraph)
	if err != nil {
		return nil, err
	}
	dto := &HierarchyDTO{Name: name, TopGraph: topDTO}

	rewrite := func(id string) string {
		if id == topID {
			return topGraphID
		}
		return id
	}

	ids := h.GraphIDs()
	sort.Strings(ids)
	for _, id := range ids {
		if id == topID {
			continue
		}
		g, err := h.Graph(id)
		if err != nil {
			return nil, err
		}
		gdto, err := GraphToDTO(g)
		if err != nil {
			return nil, err
		}
		dto.Children = append(dto.Children, ChildDTO{Name: rewrite(id), Graph: gdto})
	}

	for _, src := range ids {
		for _, tgt := range h.ImmediateDescendants(src) {
			hom, ok := h.Typing(src, tgt)
			if !ok {
				continue
			}
			mapping := make(map[string]string, len(hom.Mapping))
			for k, v := range hom.Mapping {
				mapping[string(k)] = string(v)
			}
			dto.Typings = append(dto.Typings, TypingDTO{Source: rewrite(src), Target: rewrite(tgt), Mapping: mapping})
		}
	}

	seen := map[[2]string]bool{}
	for _, a := range ids {
		for _, b := range ids {
			if a >= b {
				continue
			}
			rel, ok := h.Relation(a, b)
			if !ok {
				continue
			}
			key := [2]string{a, b}
			if seen[key] {
				continue
			}
			seen[key] = true
			pairs := make(map[string][]string, len(rel))
			for node, related := range rel {
				strs := make([]string, len(related))
				for i, r := range related {
					strs[i] = string(r)
				}
				pairs[string(node)] = strs
			}
			dto.Relations = append(dto.Relations, RelationDTO{A: rewrite(a), B: rewrite(b), Pairs: pairs})
		}
	}
	return dto, nil
}

// HierarchyFromDTO rebuilds a hierarchy.Hierarchy from its wire form,
// returning the top graph's reconstituted id (topGraphID) alongside it.
func HierarchyFromDTO(dto *HierarchyDTO) (h *hierarchy.Hierarchy, topID string, err error) {
	if verr := validate.Struct(dto); verr != nil {
		return nil, "", rgerr.Hierarchy("invalid hierarchy DTO").WithCause(verr)
	}
	h = hierarchy.New()
	topID = topGraphID
	topGraph, gerr := GraphFromDTO(dto.TopGraph)
	if gerr != nil {
		return nil, "", gerr
	}
	if aerr := h.AddGraph(topID, topGraph); aerr != nil {
		return nil, "", aerr
	}
	for _, child := range dto.Children {
		cg, gerr := GraphFromDTO(child.Graph)
		if gerr != nil {
			return nil, "", gerr
		}
		if aerr := h.AddGraph(child.Name, cg); aerr != nil {
			return nil, "", aerr
		}
	}
	for _, t := range dto.Typings {
		mapping := make(map[graph.NodeID]graph.NodeID, len(t.Mapping))
		for k, v := range t.Mapping {
			mapping[graph.NodeID(k)] = graph.NodeID(v)
		}
		if aerr := h.AddTyping(t.Source, t.Target, mapping); aerr != nil {
			return nil, "", aerr
		}
	}
	for _, r := range dto.Relations {
		rel := make(hierarchy.Relation, len(r.Pairs))
		for node, related := range r.Pairs {
			ids := make([]graph.NodeID, len(related))
			for i, x := range related {
				ids[i] = graph.NodeID(x)
			}
			rel[graph.NodeID(node)] = ids
		}
		if aerr := h.AddRelation(r.A, r.B, rel); aerr != nil {
			return nil, "", aerr
		}
	}
	return h, topID, nil
}

// HierarchyToJSON marshals h per spec §6.
func HierarchyToJSON(h *hierarchy.Hierarchy, name, topID string) ([]byte, error) {
	dto, err := HierarchyToDTO(h, name, topID)
	if err != nil {
		return nil, err
	}
	data, jerr := json.Marshal(dto)
	if jerr != nil {
		return nil, rgerr.Hierarchy("encoding hierarchy").WithCause(jerr)
	}
	return data, nil
}

// HierarchyFromJSON unmarshals per spec §6, so that
// HierarchyFromJSON(HierarchyToJSON(h)) reproduces h up to graph naming
// (spec §8 "round-trips").
func HierarchyFromJSON(data []byte) (h *hierarchy.Hierarchy, topID string, err error) {
	var dto HierarchyDTO
	if jerr := json.Unmarshal(data, &dto); jerr != nil {
		return nil, "", rgerr.Hierarchy("malformed hierarchy JSON").WithCause(jerr)
	}
	return HierarchyFromDTO(&dto)
}

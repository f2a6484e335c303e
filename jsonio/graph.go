package jsonio

import (
	"encoding/json"
	"fmt"

	"github.com/Kappa-Dev/ReGraph/graph"
	"github.com/Kappa-Dev/ReGraph/rgerr"
)

func attrsToDTO(m graph.AttributeMap, path string) (map[string]*AttrValueDTO, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[string]*AttrValueDTO, len(m))
	for k, v := range m {
		dto, err := ValueToDTO(v)
		if err != nil {
			return nil, err.(*rgerr.Error).WithDetail("path", fmt.Sprintf("%s.attrs.%s", path, k))
		}
		out[k] = dto
	}
	return out, nil
}

func attrsFromDTO(m map[string]*AttrValueDTO, path string) (graph.AttributeMap, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(graph.AttributeMap, len(m))
	for k, dto := range m {
		v, err := ValueFromDTO(dto)
		if err != nil {
			return nil, err.(*rgerr.Error).WithDetail("path", fmt.Sprintf("%s.attrs.%s", path, k))
		}
		out[k] = v
	}
	return out, nil
}

// GraphToDTO renders g as its wire form (spec §6 "{nodes, edges}"), with
// nodes and edges listed in a stable, id-sorted order.
func GraphToDTO(g *graph.Graph) (*GraphDTO, error) {
	ids := g.Nodes()
	dto := &GraphDTO{Nodes: make([]NodeDTO, 0, len(ids))}
	for _, id := range ids {
		attrsMap, err := g.NodeAttrs(id)
		if err != nil {
			return nil, err
		}
		attrsDTO, err := attrsToDTO(attrsMap, fmt.Sprintf("nodes[%s]", id))
		if err != nil {
			return nil, err
		}
		dto.Nodes = append(dto.Nodes, NodeDTO{ID: string(id), Attrs: attrsDTO})
	}
	for _, e := range g.Edges() {
		attrsMap, err := g.EdgeAttrs(e.From, e.To)
		if err != nil {
			return nil, err
		}
		attrsDTO, err := attrsToDTO(attrsMap, fmt.Sprintf("edges[%s->%s]", e.From, e.To))
		if err != nil {
			return nil, err
		}
		dto.Edges = append(dto.Edges, EdgeDTO{From: string(e.From), To: string(e.To), Attrs: attrsDTO})
	}
	return dto, nil
}

// GraphFromDTO rebuilds a graph.Graph from its wire form, rejecting
// duplicate node ids and edges over undeclared nodes.
func GraphFromDTO(dto *GraphDTO) (*graph.Graph, error) {
	if err := validate.Struct(dto); err != nil {
		return nil, rgerr.Graph("invalid graph DTO").WithCause(err)
	}
	g := graph.New()
	for _, n := range dto.Nodes {
		attrsMap, err := attrsFromDTO(n.Attrs, fmt.Sprintf("nodes[%s]", n.ID))
		if err != nil {
			return nil, err
		}
		if err := g.AddNode(graph.NodeID(n.ID), attrsMap); err != nil {
			return nil, err
		}
	}
	for _, e := range dto.Edges {
		attrsMap, err := attrsFromDTO(e.Attrs, fmt.Sprintf("edges[%s->%s]", e.From, e.To))
		if err != nil {
			return nil, err
		}
		if err := g.AddEdge(graph.NodeID(e.From), graph.NodeID(e.To), attrsMap); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// GraphToJSON marshals g per spec §6.
func GraphToJSON(g *graph.Graph) ([]byte, error) {
	dto, err := GraphToDTO(g)
	if err != nil {
		return nil, err
	}
	data, jerr := json.Marshal(dto)
	if jerr != nil {
		return nil, rgerr.Graph("encoding graph").WithCause(jerr)
	}
	return data, nil
}

// GraphFromJSON unmarshals per spec §6, so that
// GraphFromJSON(GraphToJSON(g)) reproduces g (spec §8 "round-trips").
func GraphFromJSON(data []byte) (*graph.Graph, error) {
	var dto GraphDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, rgerr.Graph("malformed graph JSON").WithCause(err)
	}
	return GraphFromDTO(&dto)
}

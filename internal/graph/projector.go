package graph

import "termgraph/internal/terms"

// DefaultGroup is the group of every node
const DefaultGroup = 1

// DefaultLinkValue is the weight of every link
const DefaultLinkValue = 1

// Node is one term
type Node struct {
	ID    string `json:"id"`
	Group int    `json:"group"`
}

// Link is one association from an expanded term
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Value  int    `json:"value"`
}

// Data is the node/link shape consumed by the force-directed renderer
type Data struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Project turns a term map into graph data: one node per term and one
// link per association of an expanded term. Frontier terms contribute a
// node but no links. A link target that is not a term gets no node.
func Project(m *terms.Map) Data {
	data := Data{
		Nodes: make([]Node, 0, m.Len()),
		Links: []Link{},
	}
	m.Each(func(term string, associations []string) {
		data.Nodes = append(data.Nodes, Node{ID: term, Group: DefaultGroup})
		for _, target := range associations {
			data.Links = append(data.Links, Link{Source: term, Target: target, Value: DefaultLinkValue})
		}
	})
	return data
}

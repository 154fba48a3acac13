package graph

// NodeSummary holds the degree counts of one node.
type NodeSummary struct {
	ID        string `json:"id"`
	Degree    int    `json:"degree"`
	InDegree  int    `json:"in_degree"`
	OutDegree int    `json:"out_degree"`
	Attrs     int    `json:"attrs"`
}

// Summary describes the shape of a graph.
type Summary struct {
	Name      string        `json:"name,omitempty"`
	Directed  bool          `json:"directed"`
	NodeCount int           `json:"node_count"`
	EdgeCount int           `json:"edge_count"`
	SelfLoops int           `json:"self_loops"`
	Keyed     int           `json:"keyed_edges"`
	Isolated  int           `json:"isolated_nodes"`
	Nodes     []NodeSummary `json:"nodes"`
}

// Summarize computes per-node degrees and edge counts for g, with nodes in
// insertion order.
func Summarize(g *Graph) Summary {
	s := Summary{
		Name:      g.Name().OrElse(""),
		Directed:  g.Directed(),
		NodeCount: g.NodeCount(),
		EdgeCount: g.EdgeCount(),
		Nodes:     make([]NodeSummary, 0, g.NodeCount()),
	}
	for _, id := range g.EdgesAll() {
		if id.A == id.B {
			s.SelfLoops++
		}
		if id.Key.IsSet() {
			s.Keyed++
		}
	}
	for _, key := range g.Nodes() {
		n, _ := g.Node(key)
		deg, _ := g.Degree(key)
		in, _ := g.InDegree(key)
		out, _ := g.OutDegree(key)
		if deg == 0 {
			s.Isolated++
		}
		s.Nodes = append(s.Nodes, NodeSummary{
			ID: key, Degree: deg, InDegree: in, OutDegree: out, Attrs: n.Attrs.Len(),
		})
	}
	return s
}

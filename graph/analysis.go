package graph

// UnconnectedInput is an input socket nothing feeds.
type UnconnectedInput struct {
	Node   string `json:"node"`
	Socket string `json:"socket"`
}

// Analysis summarizes the connectivity of a graph.
type Analysis struct {
	Nodes             int                `json:"nodes"`
	Links             int                `json:"links"`
	Components        [][]string         `json:"components"`
	IsolatedNodes     []string           `json:"isolated_nodes"`
	UnconnectedInputs []UnconnectedInput `json:"unconnected_inputs"`
	StatefulNodes     []string           `json:"stateful_nodes"`
	Status            string             `json:"status"` // "healthy" or "warnings"
}

// Analyze reports connected components, isolated nodes and inputs with no
// producer. Unconnected inputs read as empty values at run time, so they are
// warnings rather than errors.
func (g *Graph) Analyze() *Analysis {
	a := &Analysis{
		Nodes:             len(g.nodes),
		Links:             len(g.links),
		Components:        [][]string{},
		IsolatedNodes:     []string{},
		UnconnectedInputs: []UnconnectedInput{},
		StatefulNodes:     []string{},
		Status:            "healthy",
	}

	// Undirected adjacency for connectivity
	adj := make(map[NodeID][]NodeID)
	for _, l := range g.links {
		adj[l.From.Node] = append(adj[l.From.Node], l.To.Node)
		adj[l.To.Node] = append(adj[l.To.Node], l.From.Node)
	}

	visited := make(map[NodeID]bool)
	for _, id := range g.order {
		if visited[id] {
			continue
		}
		var cluster []string
		g.collect(id, adj, visited, &cluster)
		a.Components = append(a.Components, cluster)
	}

	for _, id := range g.order {
		n := g.nodes[id]
		if len(adj[id]) == 0 && len(g.nodes) > 1 {
			a.IsolatedNodes = append(a.IsolatedNodes, n.name)
		}
		for i, s := range n.config.InputSockets() {
			if !g.IsInputConnected(SocketAddress{Node: id, Socket: i}) {
				a.UnconnectedInputs = append(a.UnconnectedInputs, UnconnectedInput{Node: n.name, Socket: s.Name})
			}
		}
	}
	for _, id := range g.StateNodes() {
		a.StatefulNodes = append(a.StatefulNodes, g.nodes[id].name)
	}

	if len(a.IsolatedNodes) > 0 || len(a.UnconnectedInputs) > 0 {
		a.Status = "warnings"
	}
	return a
}

func (g *Graph) collect(id NodeID, adj map[NodeID][]NodeID, visited map[NodeID]bool, cluster *[]string) {
	visited[id] = true
	*cluster = append(*cluster, g.nodes[id].name)

	for _, next := range adj[id] {
		if !visited[next] {
			g.collect(next, adj, visited, cluster)
		}
	}
}

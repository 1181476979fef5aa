package graph

import "sort"

// Edge is a directed weighted edge.
type Edge struct {
	From   string
	To     string
	Weight float64
}

// Directed is a weighted directed graph. It is the result container for
// per-topic influence graphs: the engine writes it, consumers read it.
type Directed struct {
	nodes map[string]struct{}
	out   map[string]map[string]float64
}

// NewDirected creates an empty directed graph.
func NewDirected() *Directed {
	return &Directed{
		nodes: make(map[string]struct{}),
		out:   make(map[string]map[string]float64),
	}
}

// AddNode adds a node to the graph. Adding an existing node is a no-op.
func (g *Directed) AddNode(id string) {
	g.nodes[id] = struct{}{}
}

// AddEdge adds an edge from one node to another, creating the endpoints if
// they are not present. Adding the same pair again overwrites the weight.
// Self-loops are ignored.
func (g *Directed) AddEdge(from, to string, weight float64) {
	if from == to {
		return
	}
	g.AddNode(from)
	g.AddNode(to)
	if g.out[from] == nil {
		g.out[from] = make(map[string]float64)
	}
	g.out[from][to] = weight
}

// HasNode reports whether the node is present.
func (g *Directed) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Weight returns the weight of the edge from one node to another, if present.
func (g *Directed) Weight(from, to string) (float64, bool) {
	w, ok := g.out[from][to]
	return w, ok
}

// Nodes returns all node identifiers in lexicographic order.
func (g *Directed) Nodes() []string {
	nodes := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		nodes = append(nodes, id)
	}
	sort.Strings(nodes)
	return nodes
}

// Successors returns the targets of the node's outgoing edges in
// lexicographic order.
func (g *Directed) Successors(id string) []string {
	succ := make([]string, 0, len(g.out[id]))
	for other := range g.out[id] {
		succ = append(succ, other)
	}
	sort.Strings(succ)
	return succ
}

// Edges returns all edges ordered by source, then target.
func (g *Directed) Edges() []Edge {
	edges := make([]Edge, 0)
	for from, targets := range g.out {
		for to, w := range targets {
			edges = append(edges, Edge{From: from, To: to, Weight: w})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

// NodeCount returns the number of nodes.
func (g *Directed) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Directed) EdgeCount() int {
	total := 0
	for _, targets := range g.out {
		total += len(targets)
	}
	return total
}

// Package graph provides the weighted graph types used by the influence
// engine: an undirected relationship graph as input and a directed
// influence graph as output. Node identifiers are opaque strings.
package graph

import (
	"fmt"
	"sort"
)

// Undirected is a weighted undirected relationship graph. Edge weights
// express relationship strength and must not be negative.
type Undirected struct {
	adj map[string]map[string]float64
}

// NewUndirected creates an empty undirected graph.
func NewUndirected() *Undirected {
	return &Undirected{
		adj: make(map[string]map[string]float64),
	}
}

// AddNode adds a node to the graph. Adding an existing node is a no-op.
func (g *Undirected) AddNode(id string) {
	if _, ok := g.adj[id]; !ok {
		g.adj[id] = make(map[string]float64)
	}
}

// AddEdge adds an edge between a and b with the given weight, creating the
// endpoints if they are not present. Adding the same pair again overwrites
// the weight. Self-loops and negative weights are rejected.
func (g *Undirected) AddEdge(a, b string, weight float64) error {
	if a == b {
		return fmt.Errorf("self-loop not allowed for node %q", a)
	}
	if weight < 0 {
		return fmt.Errorf("edge weight must be non-negative, got %v for %q-%q", weight, a, b)
	}
	g.AddNode(a)
	g.AddNode(b)
	g.adj[a][b] = weight
	g.adj[b][a] = weight
	return nil
}

// HasNode reports whether the node is present.
func (g *Undirected) HasNode(id string) bool {
	_, ok := g.adj[id]
	return ok
}

// Weight returns the weight of the edge between a and b, if present.
func (g *Undirected) Weight(a, b string) (float64, bool) {
	neighbors, ok := g.adj[a]
	if !ok {
		return 0, false
	}
	w, ok := neighbors[b]
	return w, ok
}

// Nodes returns all node identifiers in lexicographic order.
func (g *Undirected) Nodes() []string {
	nodes := make([]string, 0, len(g.adj))
	for id := range g.adj {
		nodes = append(nodes, id)
	}
	sort.Strings(nodes)
	return nodes
}

// Neighbors returns the neighbors of the node in lexicographic order.
func (g *Undirected) Neighbors(id string) []string {
	neighbors := make([]string, 0, len(g.adj[id]))
	for other := range g.adj[id] {
		neighbors = append(neighbors, other)
	}
	sort.Strings(neighbors)
	return neighbors
}

// Degree returns the number of neighbors of the node.
func (g *Undirected) Degree(id string) int {
	return len(g.adj[id])
}

// NodeCount returns the number of nodes.
func (g *Undirected) NodeCount() int {
	return len(g.adj)
}

// EdgeCount returns the number of edges.
func (g *Undirected) EdgeCount() int {
	total := 0
	for _, neighbors := range g.adj {
		total += len(neighbors)
	}
	return total / 2
}

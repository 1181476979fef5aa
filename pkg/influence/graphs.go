package influence

import (
	"fmt"
	"math"

	"github.com/maizifang/tethne/pkg/graph"
)

// ComputeInfluenceGraphs materializes one directed influence graph per
// topic from the current messages. Each graph covers the full node set. A
// node whose strongest candidate under a topic is another node j gets an
// edge to j, weighted by the influence score: the logistic of the combined
// message strength, so weights fall in (0, 1). Nodes that are their own
// exemplar under a topic contribute no edge there.
func (m *Model) ComputeInfluenceGraphs() {
	graphs := make(map[int]*graph.Directed, m.topics)
	for z := 0; z < m.topics; z++ {
		dg := graph.NewDirected()
		for _, id := range m.nodes {
			dg.AddNode(id)
		}
		for i := range m.nodes {
			selfRow := len(m.adj[i])
			bestRow, bestScore := 0, math.Inf(-1)
			for s := 0; s <= selfRow; s++ {
				score := m.r[i].at(s, z) + m.a[i].at(s, z)
				if score > bestScore {
					bestScore = score
					bestRow = s
				}
			}
			if bestRow == selfRow {
				continue
			}
			j := m.adj[i][bestRow]
			dg.AddEdge(m.nodes[i], m.nodes[j], logistic(bestScore))
		}
		graphs[z] = dg
	}
	m.graphs = graphs
}

// logistic squashes a message score into (0, 1).
func logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// InfluenceGraph returns the influence graph of one topic.
func (m *Model) InfluenceGraph(topic int) (*graph.Directed, error) {
	if m.graphs == nil {
		return nil, fmt.Errorf("%w: call Build first", ErrNotReady)
	}
	if topic < 0 || topic >= m.topics {
		return nil, fmt.Errorf("%w: topic %d, model has %d topics", ErrTopicOutOfRange, topic, m.topics)
	}
	return m.graphs[topic], nil
}

// InfluenceGraphs returns all influence graphs keyed by topic index, or nil
// before the model is built.
func (m *Model) InfluenceGraphs() map[int]*graph.Directed {
	if m.graphs == nil {
		return nil
	}
	graphs := make(map[int]*graph.Directed, len(m.graphs))
	for z, dg := range m.graphs {
		graphs[z] = dg
	}
	return graphs
}

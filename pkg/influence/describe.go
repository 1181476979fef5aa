package influence

import (
	"fmt"
	"sort"
)

// TopicWeight pairs a topic index with a weight.
type TopicWeight struct {
	Topic  int
	Weight float64
}

// DescribeNode returns the node's topic mixture as (topic, weight) pairs
// sorted by descending weight, ties broken by topic index.
func (m *Model) DescribeNode(node string) ([]TopicWeight, error) {
	i, ok := m.index[node]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, node)
	}
	weights := make([]TopicWeight, m.topics)
	for z, w := range m.theta[i] {
		weights[z] = TopicWeight{Topic: z, Weight: w}
	}
	sort.SliceStable(weights, func(a, b int) bool {
		return weights[a].Weight > weights[b].Weight
	})
	return weights, nil
}

// DescribeRelationship returns the per-topic influence strength from one
// node to another as (topic, weight) pairs in ascending topic order, read
// off the influence graphs. Topics without an edge between the two nodes
// are omitted rather than reported as zero. It fails with ErrNotReady
// before the model is built.
func (m *Model) DescribeRelationship(from, to string) ([]TopicWeight, error) {
	if m.graphs == nil {
		return nil, fmt.Errorf("%w: call Build first", ErrNotReady)
	}
	if _, ok := m.index[from]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, from)
	}
	if _, ok := m.index[to]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, to)
	}
	weights := make([]TopicWeight, 0)
	for z := 0; z < m.topics; z++ {
		if w, ok := m.graphs[z].Weight(from, to); ok {
			weights = append(weights, TopicWeight{Topic: z, Weight: w})
		}
	}
	return weights, nil
}

// Package influence implements topical affinity propagation: given an
// undirected relationship graph and a per-node topic mixture, it infers one
// directed influence graph per topic by passing responsibility and
// availability messages along the relationship edges until the per-node
// exemplar assignment stabilizes.
package influence

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/maizifang/tethne/pkg/graph"
	"github.com/maizifang/tethne/pkg/logging"
)

// simEpsilon keeps the log-similarity finite for zero baseline entries.
const simEpsilon = 1e-12

// Model infers per-topic influence relationships for one relationship
// graph. A model is built once and frozen; it is not safe for concurrent
// use while building.
//
// Message state is kept per node: one row per candidate exemplar (the
// node's neighbors in identifier order, then the node itself in the last
// row) and one column per topic.
type Model struct {
	config Config
	logger logging.Logger

	graph *graph.Undirected
	nodes []string
	index map[string]int

	// adj[i] holds i's neighbors as node indices in ascending order. The
	// peer table is the reverse slot lookup: peer[i][s] is the row of i
	// inside the candidate rows of adj[i][s].
	adj  [][]int
	peer [][]int

	topics int
	theta  [][]float64

	g   []*matrix // global appeal of each candidate, normalized per topic
	b   []*matrix // appeal weighted by the node's own topic engagement
	sim []*matrix // log(b), the similarity the message updates consume
	r   []*matrix // responsibility messages
	a   []*matrix // availability messages

	// support is scratch space for availability updates: per node, the
	// positive responsibility mass pointed at it under each topic.
	support *matrix

	yold      []int
	history   []int
	stable    int
	iteration int
	converged bool
	primed    bool
	built     bool

	graphs map[int]*graph.Directed
}

// Option represents an option for configuring the model
type Option func(*Model)

// WithConfig sets the engine parameters
func WithConfig(config Config) Option {
	return func(m *Model) {
		m.config = config
	}
}

// WithLogger sets the logger for the model
func WithLogger(logger logging.Logger) Option {
	return func(m *Model) {
		m.logger = logger
	}
}

// NewModel creates a model over the given relationship graph and node topic
// mixtures. Every graph node must have a topic vector; all vectors must
// share one width, with non-negative finite entries. Vectors for
// identifiers absent from the graph are ignored.
func NewModel(g *graph.Undirected, theta map[string][]float64, options ...Option) (*Model, error) {
	m := &Model{
		config: DefaultConfig(),
		logger: logging.New(),
	}
	for _, option := range options {
		option(m)
	}

	if err := m.config.Validate(); err != nil {
		return nil, err
	}
	if g == nil || g.NodeCount() == 0 {
		return nil, fmt.Errorf("%w: graph must have at least one node", ErrConfiguration)
	}

	m.graph = g
	m.nodes = g.Nodes()
	m.index = make(map[string]int, len(m.nodes))
	for i, id := range m.nodes {
		m.index[id] = i
	}

	if err := m.initTheta(theta); err != nil {
		return nil, err
	}
	m.initAdjacency()
	m.initWeights()
	m.initMessages()

	return m, nil
}

// initTheta validates the topic vectors and stores them in node order.
func (m *Model) initTheta(theta map[string][]float64) error {
	m.topics = -1
	m.theta = make([][]float64, len(m.nodes))
	for i, id := range m.nodes {
		vector, ok := theta[id]
		if !ok {
			return fmt.Errorf("%w: node %q has no topic weight vector", ErrConfiguration, id)
		}
		if m.topics == -1 {
			m.topics = len(vector)
			if m.topics == 0 {
				return fmt.Errorf("%w: node %q has an empty topic weight vector", ErrConfiguration, id)
			}
		}
		if len(vector) != m.topics {
			return fmt.Errorf("%w: node %q has %d topic weights, want %d", ErrConfiguration, id, len(vector), m.topics)
		}
		stored := make([]float64, m.topics)
		for z, w := range vector {
			if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
				return fmt.Errorf("%w: node %q has invalid weight %v for topic %d", ErrConfiguration, id, w, z)
			}
			stored[z] = w
		}
		m.theta[i] = stored
	}
	return nil
}

// initAdjacency fixes the candidate rows per node and the peer lookup used
// by availability updates.
func (m *Model) initAdjacency() {
	n := len(m.nodes)
	m.adj = make([][]int, n)
	for i, id := range m.nodes {
		neighbors := m.graph.Neighbors(id)
		row := make([]int, len(neighbors))
		for s, other := range neighbors {
			row[s] = m.index[other]
		}
		m.adj[i] = row
	}
	m.peer = make([][]int, n)
	for i := range m.adj {
		m.peer[i] = make([]int, len(m.adj[i]))
		for s, j := range m.adj[i] {
			m.peer[i][s] = sort.SearchInts(m.adj[j], i)
		}
	}
}

// initWeights derives the appeal and baseline scores from graph weights and
// topic vectors. For node i, candidate j and topic z the raw affinity is
// w(i,j)*theta_j[z]; the self row uses SelfAffinity*theta_i[z]. Appeal g is
// the raw affinity normalized across i's candidates per topic, with a
// uniform fallback when a topic carries no affinity at all. Baseline b
// weighs the appeal by i's own engagement with the topic.
func (m *Model) initWeights() {
	n := len(m.nodes)
	m.g = make([]*matrix, n)
	m.b = make([]*matrix, n)
	m.sim = make([]*matrix, n)
	for i := range m.nodes {
		rows := len(m.adj[i]) + 1
		gm := newMatrix(rows, m.topics)
		for z := 0; z < m.topics; z++ {
			colSum := 0.0
			for s, j := range m.adj[i] {
				w, _ := m.graph.Weight(m.nodes[i], m.nodes[j])
				raw := w * m.theta[j][z]
				gm.set(s, z, raw)
				colSum += raw
			}
			self := m.config.SelfAffinity * m.theta[i][z]
			gm.set(rows-1, z, self)
			colSum += self

			if colSum > 0 {
				for s := 0; s < rows; s++ {
					gm.set(s, z, gm.at(s, z)/colSum)
				}
			} else {
				uniform := 1.0 / float64(rows)
				for s := 0; s < rows; s++ {
					gm.set(s, z, uniform)
				}
			}
		}
		bm := newMatrix(rows, m.topics)
		sm := newMatrix(rows, m.topics)
		for z := 0; z < m.topics; z++ {
			for s := 0; s < rows; s++ {
				bv := m.theta[i][z] * gm.at(s, z)
				bm.set(s, z, bv)
				sm.set(s, z, math.Log(bv+simEpsilon))
			}
		}
		m.g[i] = gm
		m.b[i] = bm
		m.sim[i] = sm
	}
}

// initMessages zeroes the mutable message state.
func (m *Model) initMessages() {
	n := len(m.nodes)
	m.r = make([]*matrix, n)
	m.a = make([]*matrix, n)
	for i := range m.nodes {
		rows := len(m.adj[i]) + 1
		m.r[i] = newMatrix(rows, m.topics)
		m.a[i] = newMatrix(rows, m.topics)
	}
	m.support = newMatrix(n, m.topics)
	m.yold = make([]int, n)
}

// Build runs the inference loop to termination, then computes the influence
// graphs and freezes the model. Calling Build on a built model is a no-op.
// The context feeds logging only; the iteration cap is the sole bound on
// the loop.
func (m *Model) Build(ctx context.Context) {
	if m.built {
		return
	}
	start := time.Now()
	for {
		m.UpdateResponsibility()
		m.UpdateAvailability()
		changed, cont := m.CheckConvergence(m.iteration)
		m.iteration++
		if m.iteration%100 == 0 {
			m.logger.Debug(ctx, "Inference progress", map[string]interface{}{
				"iteration": m.iteration,
				"changed":   changed,
			})
		}
		if !cont {
			break
		}
	}
	m.converged = m.stable >= m.config.Patience
	m.ComputeInfluenceGraphs()
	m.built = true
	m.logger.Info(ctx, "Influence inference finished", map[string]interface{}{
		"nodes":      len(m.nodes),
		"topics":     m.topics,
		"iterations": m.iteration,
		"converged":  m.converged,
		"primed":     m.primed,
		"elapsed":    time.Since(start).String(),
	})
}

// NodeCount returns the number of nodes in the model.
func (m *Model) NodeCount() int {
	return len(m.nodes)
}

// TopicCount returns the number of topics in the model.
func (m *Model) TopicCount() int {
	return m.topics
}

// Nodes returns the node identifiers in model order.
func (m *Model) Nodes() []string {
	nodes := make([]string, len(m.nodes))
	copy(nodes, m.nodes)
	return nodes
}

// Graph returns the relationship graph the model was built over.
func (m *Model) Graph() *graph.Undirected {
	return m.graph
}

// Iteration returns the number of completed update rounds.
func (m *Model) Iteration() int {
	return m.iteration
}

// Converged reports whether the exemplar assignment stabilized before the
// iteration cap.
func (m *Model) Converged() bool {
	return m.converged
}

// ConvergenceHistory returns the changed-node count recorded by every
// convergence check, in order.
func (m *Model) ConvergenceHistory() []int {
	history := make([]int, len(m.history))
	copy(history, m.history)
	return history
}

// Primed reports whether message state was seeded from a prior model.
func (m *Model) Primed() bool {
	return m.primed
}

package influence

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/maizifang/tethne/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGraph(t *testing.T) *graph.Undirected {
	t.Helper()
	g := graph.NewUndirected()
	require.NoError(t, g.AddEdge("alice", "bob", 2))
	require.NoError(t, g.AddEdge("alice", "carol", 1))
	require.NoError(t, g.AddEdge("bob", "carol", 1))
	require.NoError(t, g.AddEdge("carol", "dave", 3))
	return g
}

func testTheta() map[string][]float64 {
	return map[string][]float64{
		"alice": {0.7, 0.2, 0.1},
		"bob":   {0.1, 0.8, 0.1},
		"carol": {0.3, 0.3, 0.4},
		"dave":  {0.05, 0.05, 0.9},
	}
}

// randomInputs builds a reproducible 10-node graph with 20 weighted edges
// and 5-topic mixtures per node.
func randomInputs(t *testing.T, seed int64) (*graph.Undirected, map[string][]float64) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	g := graph.NewUndirected()
	nodes := make([]string, 10)
	for i := range nodes {
		nodes[i] = fmt.Sprintf("node-%02d", i)
		g.AddNode(nodes[i])
	}
	for g.EdgeCount() < 20 {
		a, b := rng.Intn(len(nodes)), rng.Intn(len(nodes))
		if a == b {
			continue
		}
		if _, ok := g.Weight(nodes[a], nodes[b]); ok {
			continue
		}
		require.NoError(t, g.AddEdge(nodes[a], nodes[b], 0.1+rng.Float64()))
	}
	theta := make(map[string][]float64, len(nodes))
	for _, id := range nodes {
		vector := make([]float64, 5)
		total := 0.0
		for z := range vector {
			vector[z] = 0.05 + rng.Float64()
			total += vector[z]
		}
		for z := range vector {
			vector[z] /= total
		}
		theta[id] = vector
	}
	return g, theta
}

func TestNewModelValidation(t *testing.T) {
	t.Run("rejects nil and empty graphs", func(t *testing.T) {
		_, err := NewModel(nil, testTheta())
		assert.ErrorIs(t, err, ErrConfiguration)

		_, err = NewModel(graph.NewUndirected(), testTheta())
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("rejects a graph node without a vector", func(t *testing.T) {
		theta := testTheta()
		delete(theta, "dave")
		_, err := NewModel(testGraph(t), theta)
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.Contains(t, err.Error(), "dave")
	})

	t.Run("rejects inconsistent vector widths", func(t *testing.T) {
		theta := testTheta()
		theta["carol"] = []float64{0.5, 0.5}
		_, err := NewModel(testGraph(t), theta)
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("rejects invalid weights", func(t *testing.T) {
		theta := testTheta()
		theta["bob"] = []float64{0.1, -0.8, 0.1}
		_, err := NewModel(testGraph(t), theta)
		assert.ErrorIs(t, err, ErrConfiguration)

		theta = testTheta()
		theta["bob"] = []float64{0.1, math.NaN(), 0.1}
		_, err = NewModel(testGraph(t), theta)
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("rejects empty vectors", func(t *testing.T) {
		g := graph.NewUndirected()
		require.NoError(t, g.AddEdge("a", "b", 1))
		_, err := NewModel(g, map[string][]float64{"a": {}, "b": {}})
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("rejects invalid engine parameters", func(t *testing.T) {
		bad := DefaultConfig()
		bad.Damping = 1.2
		_, err := NewModel(testGraph(t), testTheta(), WithConfig(bad))
		assert.ErrorIs(t, err, ErrConfiguration)

		bad = DefaultConfig()
		bad.MaxIterations = 0
		_, err = NewModel(testGraph(t), testTheta(), WithConfig(bad))
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("ignores vectors for unknown identifiers", func(t *testing.T) {
		theta := testTheta()
		theta["stranger"] = []float64{1, 0, 0}
		model, err := NewModel(testGraph(t), theta)
		require.NoError(t, err)
		assert.Equal(t, 4, model.NodeCount())
	})
}

func TestNewModelState(t *testing.T) {
	model, err := NewModel(testGraph(t), testTheta())
	require.NoError(t, err)

	assert.Equal(t, 4, model.NodeCount())
	assert.Equal(t, 3, model.TopicCount())
	assert.Equal(t, []string{"alice", "bob", "carol", "dave"}, model.Nodes())

	t.Run("message matrices have one row per candidate", func(t *testing.T) {
		require.Len(t, model.r, 4)
		require.Len(t, model.a, 4)
		for i, id := range model.nodes {
			rows := model.graph.Degree(id) + 1
			assert.Equal(t, rows, model.r[i].rows, "node %s", id)
			assert.Equal(t, rows, model.a[i].rows, "node %s", id)
			assert.Equal(t, 3, model.r[i].cols, "node %s", id)
		}
	})

	t.Run("peer table is the reverse slot lookup", func(t *testing.T) {
		for i := range model.adj {
			for s, j := range model.adj[i] {
				row := model.peer[i][s]
				assert.Equal(t, i, model.adj[j][row])
			}
		}
	})

	t.Run("appeal and baseline carry positive mass", func(t *testing.T) {
		gSum, bSum := 0.0, 0.0
		for i := range model.nodes {
			gSum += model.g[i].sum()
			bSum += model.b[i].sum()
		}
		assert.Greater(t, gSum, 0.0)
		assert.Greater(t, bSum, 0.0)
	})

	t.Run("appeal is normalized per node and topic", func(t *testing.T) {
		for i := range model.nodes {
			for z := 0; z < model.topics; z++ {
				colSum := 0.0
				for s := 0; s < model.g[i].rows; s++ {
					colSum += model.g[i].at(s, z)
				}
				assert.InDelta(t, 1.0, colSum, 1e-9)
			}
		}
	})

	t.Run("messages and assignment start at zero", func(t *testing.T) {
		for i := range model.nodes {
			assert.Equal(t, 0.0, model.r[i].sum())
			assert.Equal(t, 0.0, model.a[i].sum())
		}
		assert.Equal(t, []int{0, 0, 0, 0}, model.yold)
		assert.Equal(t, 0, model.Iteration())
	})
}

func allFinite(m *matrix) bool {
	for _, v := range m.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func TestUpdateResponsibility(t *testing.T) {
	model, err := NewModel(testGraph(t), testTheta())
	require.NoError(t, err)

	model.UpdateResponsibility()

	changedAny := false
	for i := range model.nodes {
		require.True(t, allFinite(model.r[i]))
		if model.r[i].sum() != 0 {
			changedAny = true
		}
	}
	assert.True(t, changedAny, "at least one responsibility must change")
}

func TestUpdateAvailability(t *testing.T) {
	model, err := NewModel(testGraph(t), testTheta())
	require.NoError(t, err)

	model.UpdateResponsibility()
	model.UpdateAvailability()

	changedAny := false
	for i := range model.nodes {
		require.True(t, allFinite(model.a[i]))
		selfRow := len(model.adj[i])
		for z := 0; z < model.topics; z++ {
			// Self-availability accumulates positive support.
			assert.GreaterOrEqual(t, model.a[i].at(selfRow, z), 0.0)
			// Cross-availability is capped at zero.
			for s := 0; s < selfRow; s++ {
				assert.LessOrEqual(t, model.a[i].at(s, z), 0.0)
			}
		}
		if model.a[i].sum() != 0 {
			changedAny = true
		}
	}
	assert.True(t, changedAny, "at least one availability must change")
}

func TestCheckConvergence(t *testing.T) {
	t.Run("repeated checks over static messages stabilize", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Patience = 2
		model, err := NewModel(testGraph(t), testTheta(), WithConfig(cfg))
		require.NoError(t, err)

		model.UpdateResponsibility()
		model.UpdateAvailability()

		checks := 1
		changed, cont := model.CheckConvergence(0)
		assert.GreaterOrEqual(t, changed, 0)
		assert.LessOrEqual(t, changed, model.NodeCount())

		// Messages are untouched between checks, so the assignment cannot
		// move again and cont must go false within the patience window.
		for i := 1; cont; i++ {
			require.LessOrEqual(t, i, 3, "patience window must terminate the loop")
			changed, cont = model.CheckConvergence(i)
			checks++
			assert.GreaterOrEqual(t, changed, 0)
			assert.LessOrEqual(t, changed, model.NodeCount())
		}
		assert.Len(t, model.ConvergenceHistory(), checks)
	})

	t.Run("iteration cap forces termination", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxIterations = 10
		model, err := NewModel(testGraph(t), testTheta(), WithConfig(cfg))
		require.NoError(t, err)

		model.UpdateResponsibility()
		model.UpdateAvailability()
		_, cont := model.CheckConvergence(9)
		assert.False(t, cont)
	})

	t.Run("history records every check", func(t *testing.T) {
		model, err := NewModel(testGraph(t), testTheta())
		require.NoError(t, err)

		model.UpdateResponsibility()
		model.UpdateAvailability()
		model.CheckConvergence(0)
		model.CheckConvergence(1)

		assert.Len(t, model.ConvergenceHistory(), 2)
	})
}

func TestBuild(t *testing.T) {
	ctx := context.Background()

	t.Run("terminates and freezes the model", func(t *testing.T) {
		model, err := NewModel(testGraph(t), testTheta())
		require.NoError(t, err)

		model.Build(ctx)

		assert.True(t, model.Converged())
		assert.LessOrEqual(t, model.Iteration(), DefaultConfig().MaxIterations)
		assert.NotEmpty(t, model.ConvergenceHistory())
		assert.NotNil(t, model.InfluenceGraphs())

		// Build is idempotent.
		iterations := model.Iteration()
		model.Build(ctx)
		assert.Equal(t, iterations, model.Iteration())
	})

	t.Run("iteration cap is a stop, not an error", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxIterations = 2
		cfg.Patience = 50
		model, err := NewModel(testGraph(t), testTheta(), WithConfig(cfg))
		require.NoError(t, err)

		model.Build(ctx)

		assert.Equal(t, 2, model.Iteration())
		assert.False(t, model.Converged())
		// Graphs are still computed from the best available assignment.
		assert.NotNil(t, model.InfluenceGraphs())
	})
}

func TestComputeInfluenceGraphs(t *testing.T) {
	model, err := NewModel(testGraph(t), testTheta())
	require.NoError(t, err)
	model.Build(context.Background())

	graphs := model.InfluenceGraphs()
	require.Len(t, graphs, 3)

	for z := 0; z < 3; z++ {
		dg, ok := graphs[z]
		require.True(t, ok, "topic %d must be present", z)
		assert.Equal(t, []string{"alice", "bob", "carol", "dave"}, dg.Nodes())
		for _, edge := range dg.Edges() {
			assert.NotEqual(t, edge.From, edge.To)
			assert.Greater(t, edge.Weight, 0.0)
			assert.Less(t, edge.Weight, 1.0)
		}
	}
}

func TestInfluenceGraphAccess(t *testing.T) {
	model, err := NewModel(testGraph(t), testTheta())
	require.NoError(t, err)

	_, err = model.InfluenceGraph(0)
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Nil(t, model.InfluenceGraphs())

	model.Build(context.Background())

	_, err = model.InfluenceGraph(0)
	assert.NoError(t, err)
	_, err = model.InfluenceGraph(-1)
	assert.ErrorIs(t, err, ErrTopicOutOfRange)
	_, err = model.InfluenceGraph(3)
	assert.ErrorIs(t, err, ErrTopicOutOfRange)
}

func TestDescribeNode(t *testing.T) {
	model, err := NewModel(testGraph(t), testTheta())
	require.NoError(t, err)

	weights, err := model.DescribeNode("alice")
	require.NoError(t, err)
	require.Len(t, weights, 3)
	assert.Equal(t, TopicWeight{Topic: 0, Weight: 0.7}, weights[0])
	assert.Equal(t, TopicWeight{Topic: 1, Weight: 0.2}, weights[1])
	assert.Equal(t, TopicWeight{Topic: 2, Weight: 0.1}, weights[2])

	_, err = model.DescribeNode("stranger")
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestDescribeRelationship(t *testing.T) {
	model, err := NewModel(testGraph(t), testTheta())
	require.NoError(t, err)

	_, err = model.DescribeRelationship("alice", "bob")
	assert.ErrorIs(t, err, ErrNotReady)

	model.Build(context.Background())

	_, err = model.DescribeRelationship("stranger", "bob")
	assert.ErrorIs(t, err, ErrUnknownNode)

	// Entries must agree with the influence graphs, and topics without an
	// edge must be omitted.
	for _, from := range model.Nodes() {
		for _, to := range model.Nodes() {
			if from == to {
				continue
			}
			weights, err := model.DescribeRelationship(from, to)
			require.NoError(t, err)
			expected := 0
			for z := 0; z < model.TopicCount(); z++ {
				dg, err := model.InfluenceGraph(z)
				require.NoError(t, err)
				if w, ok := dg.Weight(from, to); ok {
					expected++
					assert.Contains(t, weights, TopicWeight{Topic: z, Weight: w})
				}
			}
			assert.Len(t, weights, expected)
		}
	}
}

func TestPrimeFrom(t *testing.T) {
	ctx := context.Background()

	buildPrior := func(t *testing.T) *Model {
		t.Helper()
		prior, err := NewModel(testGraph(t), testTheta())
		require.NoError(t, err)
		prior.Build(ctx)
		return prior
	}

	t.Run("seeds shared slots from the prior state", func(t *testing.T) {
		prior := buildPrior(t)

		// Next slice: alice and bob persist, dave is replaced by erin.
		g := graph.NewUndirected()
		require.NoError(t, g.AddEdge("alice", "bob", 2))
		require.NoError(t, g.AddEdge("bob", "erin", 1))
		theta := map[string][]float64{
			"alice": {0.6, 0.3, 0.1},
			"bob":   {0.2, 0.7, 0.1},
			"erin":  {0.1, 0.1, 0.8},
		}
		model, err := NewModel(g, theta)
		require.NoError(t, err)

		require.NoError(t, model.PrimeFrom(prior))
		assert.True(t, model.Primed())

		// The alice-bob slot and self slots start from the terminal prior
		// values rather than zero.
		nonzero := 0.0
		for i := range model.nodes {
			nonzero += math.Abs(model.r[i].sum()) + math.Abs(model.a[i].sum())
		}
		assert.Greater(t, nonzero, 0.0)

		model.Build(ctx)
		assert.True(t, model.Primed())
	})

	t.Run("disjoint node sets are a no-op", func(t *testing.T) {
		prior := buildPrior(t)

		g := graph.NewUndirected()
		require.NoError(t, g.AddEdge("xavier", "yuri", 1))
		theta := map[string][]float64{
			"xavier": {0.5, 0.4, 0.1},
			"yuri":   {0.2, 0.2, 0.6},
		}
		model, err := NewModel(g, theta)
		require.NoError(t, err)

		require.NoError(t, model.PrimeFrom(prior))
		assert.False(t, model.Primed())
		for i := range model.nodes {
			assert.Equal(t, 0.0, model.r[i].sum())
			assert.Equal(t, 0.0, model.a[i].sum())
		}
	})

	t.Run("rejects incompatible prior state", func(t *testing.T) {
		prior := buildPrior(t)

		g := graph.NewUndirected()
		require.NoError(t, g.AddEdge("alice", "bob", 1))
		model, err := NewModel(g, map[string][]float64{
			"alice": {0.5, 0.5},
			"bob":   {0.5, 0.5},
		})
		require.NoError(t, err)

		err = model.PrimeFrom(prior)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("rejects an unbuilt prior", func(t *testing.T) {
		unbuilt, err := NewModel(testGraph(t), testTheta())
		require.NoError(t, err)
		model, err := NewModel(testGraph(t), testTheta())
		require.NoError(t, err)

		err = model.PrimeFrom(unbuilt)
		assert.ErrorIs(t, err, ErrDimensionMismatch)

		err = model.PrimeFrom(nil)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("rejects priming a built model", func(t *testing.T) {
		prior := buildPrior(t)
		model := buildPrior(t)

		err := model.PrimeFrom(prior)
		assert.ErrorIs(t, err, ErrConfiguration)
	})
}

func TestIsolatedNode(t *testing.T) {
	g := testGraph(t)
	g.AddNode("loner")
	theta := testTheta()
	theta["loner"] = []float64{0.4, 0.3, 0.3}

	model, err := NewModel(g, theta)
	require.NoError(t, err)
	model.Build(context.Background())

	for i := range model.nodes {
		require.True(t, allFinite(model.r[i]))
		require.True(t, allFinite(model.a[i]))
	}

	// An isolated node is always its own exemplar: no outgoing influence.
	for z := 0; z < model.TopicCount(); z++ {
		dg, err := model.InfluenceGraph(z)
		require.NoError(t, err)
		assert.True(t, dg.HasNode("loner"))
		assert.Empty(t, dg.Successors("loner"))
	}
}

func TestEndToEndRandom(t *testing.T) {
	g, theta := randomInputs(t, 42)
	model, err := NewModel(g, theta)
	require.NoError(t, err)

	model.Build(context.Background())

	assert.True(t, model.Converged())
	assert.Less(t, model.Iteration(), DefaultConfig().MaxIterations)
	graphs := model.InfluenceGraphs()
	require.Len(t, graphs, 5)
	for z := 0; z < 5; z++ {
		dg := graphs[z]
		require.NotNil(t, dg)
		assert.Equal(t, 10, dg.NodeCount())
		assert.Equal(t, g.Nodes(), dg.Nodes())
	}

	t.Run("identical inputs reproduce identical graphs", func(t *testing.T) {
		g2, theta2 := randomInputs(t, 42)
		model2, err := NewModel(g2, theta2)
		require.NoError(t, err)
		model2.Build(context.Background())

		assert.Equal(t, model.Iteration(), model2.Iteration())
		for z := 0; z < 5; z++ {
			assert.Equal(t, graphs[z].Edges(), model2.InfluenceGraphs()[z].Edges())
		}
	})
}

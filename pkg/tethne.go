package tethne

import (
	"github.com/maizifang/tethne/pkg/graph"
	"github.com/maizifang/tethne/pkg/influence"
	"github.com/maizifang/tethne/pkg/interfaces"
	"github.com/maizifang/tethne/pkg/logging"
	"github.com/maizifang/tethne/pkg/orchestration"
	"github.com/maizifang/tethne/pkg/topicmodel"
	"github.com/maizifang/tethne/pkg/tracing"
)

// NewInfluenceModel creates a new influence model with the given options
func NewInfluenceModel(g *graph.Undirected, theta map[string][]float64, options ...influence.Option) (*influence.Model, error) {
	return influence.NewModel(g, theta, options...)
}

// WithConfig sets the engine parameters for the influence model
func WithConfig(config influence.Config) influence.Option {
	return influence.WithConfig(config)
}

// WithLogger sets the logger for the influence model
func WithLogger(logger logging.Logger) influence.Option {
	return influence.WithLogger(logger)
}

// DefaultConfig returns the default engine parameters
func DefaultConfig() influence.Config {
	return influence.DefaultConfig()
}

// Orchestration

// NewOrchestrator creates an orchestrator over an externally fitted topic model
func NewOrchestrator(model interfaces.TopicModel, options ...orchestration.Option) (*orchestration.Orchestrator, error) {
	return orchestration.New(model, options...)
}

// WithPriming controls message carry-over between temporally adjacent slices
func WithPriming(enabled bool) orchestration.Option {
	return orchestration.WithPriming(enabled)
}

// WithSkipFailedSlices records slice failures and continues the run
func WithSkipFailedSlices() orchestration.Option {
	return orchestration.WithSkipFailedSlices()
}

// Topic Models

// NewStaticTopicModel creates a topic model from precomputed document mixtures
func NewStaticTopicModel(topics int, mixtures map[string][]float64) (*topicmodel.Static, error) {
	return topicmodel.NewStatic(topics, mixtures)
}

// Graphs

// NewGraph creates an empty undirected relationship graph
func NewGraph() *graph.Undirected {
	return graph.NewUndirected()
}

// Observability

// NewLogger creates a new structured logger
func NewLogger(options ...logging.Option) logging.Logger {
	return logging.New(options...)
}

// NewOTelTracer creates an OpenTelemetry tracer for the given config
func NewOTelTracer(config tracing.OTelConfig) (*tracing.OTelTracer, error) {
	return tracing.NewOTelTracer(config)
}

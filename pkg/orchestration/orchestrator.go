// Package orchestration runs topical influence inference across a temporal
// sequence of graph slices, carrying message state between adjacent slices
// and collecting the per-topic results.
package orchestration

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	pkgcontext "github.com/maizifang/tethne/pkg/context"
	"github.com/maizifang/tethne/pkg/graph"
	"github.com/maizifang/tethne/pkg/influence"
	"github.com/maizifang/tethne/pkg/interfaces"
	"github.com/maizifang/tethne/pkg/logging"
	"github.com/maizifang/tethne/pkg/tracing"
)

// Orchestrator builds one influence model per slice. With priming enabled
// (the default) slices are processed strictly in order, each model seeded
// from the previous successful slice's terminal state; with priming
// disabled the slices are independent and run concurrently.
type Orchestrator struct {
	model      interfaces.TopicModel
	config     influence.Config
	logger     logging.Logger
	tracer     interfaces.Tracer
	prime      bool
	skipFailed bool
	runID      string

	mu     sync.RWMutex
	order  []string
	models map[string]*influence.Model
	failed map[string]error
}

// Option represents an option for configuring the orchestrator
type Option func(*Orchestrator)

// WithLogger sets the logger for the orchestrator
func WithLogger(logger logging.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithTracer sets the tracer for the orchestrator
func WithTracer(tracer interfaces.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = tracer
	}
}

// WithEngineConfig sets the engine parameters used for every slice model
func WithEngineConfig(config influence.Config) Option {
	return func(o *Orchestrator) {
		o.config = config
	}
}

// WithPriming controls whether message state is carried between temporally
// adjacent slices. Priming is enabled by default.
func WithPriming(enabled bool) Option {
	return func(o *Orchestrator) {
		o.prime = enabled
	}
}

// WithSkipFailedSlices records slice failures and continues the run instead
// of aborting it. Failures are available through FailedSlices; with priming
// enabled, later slices prime from the last successful one.
func WithSkipFailedSlices() Option {
	return func(o *Orchestrator) {
		o.skipFailed = true
	}
}

// New creates an orchestrator over an externally fitted topic model.
func New(model interfaces.TopicModel, options ...Option) (*Orchestrator, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: topic model is required", influence.ErrConfiguration)
	}

	o := &Orchestrator{
		model:  model,
		config: influence.DefaultConfig(),
		logger: logging.New(),
		tracer: tracing.NewNoopTracer(),
		prime:  true,
		models: make(map[string]*influence.Model),
		failed: make(map[string]error),
	}
	for _, option := range options {
		option(o)
	}

	if err := o.config.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Run processes the slices in the given temporal order and fills the result
// table with one frozen model per non-empty slice. A repeated Run starts a
// fresh run: the result table and failure record are reset. By default a
// slice failure aborts the run; see WithSkipFailedSlices.
func (o *Orchestrator) Run(ctx context.Context, slices []interfaces.Slice) error {
	o.runID = uuid.New().String()

	seen := make(map[string]struct{}, len(slices))
	order := make([]string, 0, len(slices))
	for _, slice := range slices {
		if _, ok := seen[slice.Key]; ok {
			return fmt.Errorf("%w: duplicate slice key %q", influence.ErrConfiguration, slice.Key)
		}
		seen[slice.Key] = struct{}{}
		order = append(order, slice.Key)
	}

	o.mu.Lock()
	o.order = order
	o.models = make(map[string]*influence.Model, len(slices))
	o.failed = make(map[string]error)
	o.mu.Unlock()

	ctx = pkgcontext.WithRunID(ctx, o.runID)
	ctx, span := o.tracer.StartSpan(ctx, "orchestration.Run")
	defer span.End()
	span.SetAttribute("run_id", o.runID)
	span.SetAttribute("slices", len(slices))

	o.logger.Info(ctx, "Starting influence run", map[string]interface{}{
		"run_id": o.runID,
		"slices": len(slices),
		"prime":  o.prime,
	})

	if o.prime {
		return o.runSequential(ctx, slices)
	}
	return o.runParallel(ctx, slices)
}

// runSequential processes the slices in order, priming each model from the
// last successfully built one.
func (o *Orchestrator) runSequential(ctx context.Context, slices []interfaces.Slice) error {
	var prior *influence.Model
	for _, slice := range slices {
		model, err := o.processSlice(ctx, slice, prior)
		if err != nil {
			if o.skipFailed {
				o.recordFailure(ctx, slice.Key, err)
				continue
			}
			return fmt.Errorf("slice %q: %w", slice.Key, err)
		}
		if model == nil {
			continue
		}
		o.store(slice.Key, model)
		prior = model
	}
	return nil
}

// runParallel processes the slices concurrently. Only valid without
// priming: the slices share nothing and write disjoint result keys.
func (o *Orchestrator) runParallel(ctx context.Context, slices []interfaces.Slice) error {
	group, ctx := errgroup.WithContext(ctx)
	for _, slice := range slices {
		group.Go(func() error {
			model, err := o.processSlice(ctx, slice, nil)
			if err != nil {
				if o.skipFailed {
					o.recordFailure(ctx, slice.Key, err)
					return nil
				}
				return fmt.Errorf("slice %q: %w", slice.Key, err)
			}
			if model != nil {
				o.store(slice.Key, model)
			}
			return nil
		})
	}
	return group.Wait()
}

// processSlice builds the influence model of one slice. It returns a nil
// model for slices skipped because their graph is empty.
func (o *Orchestrator) processSlice(ctx context.Context, slice interfaces.Slice, prior *influence.Model) (*influence.Model, error) {
	ctx = pkgcontext.WithSliceKey(ctx, slice.Key)
	ctx, span := o.tracer.StartSpan(ctx, "orchestration.slice")
	defer span.End()
	span.SetAttribute("slice_key", slice.Key)

	if slice.Graph == nil || slice.Graph.NodeCount() == 0 {
		o.logger.Info(ctx, "Skipping slice with empty graph", map[string]interface{}{
			"run_id":    o.runID,
			"slice_key": slice.Key,
		})
		return nil, nil
	}

	nodes := slice.Graph.Nodes()
	nodeIndex := make(map[string]int, len(nodes))
	for i, id := range nodes {
		nodeIndex[id] = i
	}

	weights, err := o.AggregateTopicWeights(ctx, slice.Documents, nodeIndex)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	theta := make(map[string][]float64, len(weights))
	for idx, vector := range weights {
		theta[nodes[idx]] = vector
	}

	model, err := influence.NewModel(slice.Graph, theta,
		influence.WithConfig(o.config),
		influence.WithLogger(o.logger),
	)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if prior != nil {
		if err := model.PrimeFrom(prior); err != nil {
			span.RecordError(err)
			return nil, err
		}
		span.SetAttribute("primed", model.Primed())
	}

	model.Build(ctx)

	o.logger.Debug(ctx, "Slice model built", map[string]interface{}{
		"run_id":     o.runID,
		"slice_key":  slice.Key,
		"nodes":      model.NodeCount(),
		"iterations": model.Iteration(),
		"converged":  model.Converged(),
		"primed":     model.Primed(),
	})
	return model, nil
}

func (o *Orchestrator) store(key string, model *influence.Model) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.models[key] = model
}

func (o *Orchestrator) recordFailure(ctx context.Context, key string, err error) {
	o.logger.Warn(ctx, "Skipping failed slice", map[string]interface{}{
		"run_id":    o.runID,
		"slice_key": key,
		"error":     err.Error(),
	})
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed[key] = err
}

// CollectByTopic returns, for one topic, the influence graph of every slice
// in the result table, keyed by slice key. It fails with ErrTopicOutOfRange
// when the topic index is invalid for any stored model.
func (o *Orchestrator) CollectByTopic(topic int) (map[string]*graph.Directed, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	collection := make(map[string]*graph.Directed, len(o.models))
	for key, model := range o.models {
		dg, err := model.InfluenceGraph(topic)
		if err != nil {
			return nil, fmt.Errorf("slice %q: %w", key, err)
		}
		collection[key] = dg
	}
	return collection, nil
}

// Model returns the influence model stored for a slice key.
func (o *Orchestrator) Model(key string) (*influence.Model, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	model, ok := o.models[key]
	return model, ok
}

// Keys returns the keys of the result table in temporal order.
func (o *Orchestrator) Keys() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	keys := make([]string, 0, len(o.models))
	for _, key := range o.order {
		if _, ok := o.models[key]; ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// FailedSlices returns the failures recorded by the last run, keyed by
// slice key. It is empty unless WithSkipFailedSlices is set.
func (o *Orchestrator) FailedSlices() map[string]error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	failed := make(map[string]error, len(o.failed))
	for key, err := range o.failed {
		failed[key] = err
	}
	return failed
}

// RunID returns the identifier of the most recent run.
func (o *Orchestrator) RunID() string {
	return o.runID
}

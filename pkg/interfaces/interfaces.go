// Package interfaces defines the contracts shared across the library.
package interfaces

import (
	"context"

	"github.com/maizifang/tethne/pkg/graph"
)

// Document is a unit of content attributed to one or more nodes of the
// relationship graph. The ID resolves the document in the topic model and
// the author identifiers resolve nodes in the slice graph.
type Document struct {
	ID      string
	Authors []string
}

// TopicModel exposes the output of an externally fitted topic model.
type TopicModel interface {
	// TopicCount returns the number of topics the model was fitted with.
	TopicCount() int

	// Mixture returns the per-topic weight vector of a document. The second
	// return value reports whether the document is known to the model.
	Mixture(docID string) ([]float64, bool)
}

// Slice is one temporal snapshot: a relationship graph and the documents
// produced during the slice's period. Keys identify slices in result
// collections and must be unique within a run.
type Slice struct {
	Key       string
	Graph     *graph.Undirected
	Documents []Document
}

// Tracer creates spans for tracing operations.
type Tracer interface {
	// StartSpan starts a new span and returns the updated context and the span
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Span represents a tracing span.
type Span interface {
	// End ends the span
	End()

	// AddEvent adds an event to the span
	AddEvent(name string, attributes map[string]interface{})

	// SetAttribute sets an attribute on the span
	SetAttribute(key string, value interface{})

	// RecordError records an error on the span
	RecordError(err error)
}

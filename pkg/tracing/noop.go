package tracing

import (
	"context"

	"github.com/maizifang/tethne/pkg/interfaces"
)

// NoopTracer is a tracer that records nothing. It is the default for
// components created without an explicit tracer.
type NoopTracer struct{}

// NewNoopTracer creates a new no-op tracer
func NewNoopTracer() *NoopTracer {
	return &NoopTracer{}
}

// StartSpan implements interfaces.Tracer
func (t *NoopTracer) StartSpan(ctx context.Context, name string) (context.Context, interfaces.Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End() {}

func (noopSpan) AddEvent(name string, attributes map[string]interface{}) {}

func (noopSpan) SetAttribute(key string, value interface{}) {}

func (noopSpan) RecordError(err error) {}

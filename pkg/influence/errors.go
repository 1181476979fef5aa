package influence

import "errors"

// Sentinel errors returned by the influence engine. Errors are wrapped with
// context at the call site; match them with errors.Is.
var (
	// ErrConfiguration indicates invalid construction input or settings
	ErrConfiguration = errors.New("invalid configuration")

	// ErrDimensionMismatch indicates prior state incompatible with this model
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrNotReady indicates a query before influence graphs were computed
	ErrNotReady = errors.New("influence graphs not computed")

	// ErrTopicOutOfRange indicates a topic index outside the fitted range
	ErrTopicOutOfRange = errors.New("topic index out of range")

	// ErrUnknownNode indicates a node identifier absent from the model
	ErrUnknownNode = errors.New("unknown node")
)

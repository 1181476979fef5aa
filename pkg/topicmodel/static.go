// Package topicmodel adapts externally fitted topic models to the
// interfaces.TopicModel contract.
package topicmodel

import (
	"fmt"
	"math"
)

// Static is a map-backed topic model holding fixed per-document mixtures,
// typically loaded from the output of an external fitting tool. It is
// read-only after construction apart from Add.
type Static struct {
	topics   int
	mixtures map[string][]float64
}

// NewStatic creates a static topic model with the given topic count and
// per-document mixtures. Every mixture must have exactly one weight per
// topic, and weights must be non-negative.
func NewStatic(topics int, mixtures map[string][]float64) (*Static, error) {
	if topics <= 0 {
		return nil, fmt.Errorf("topic count must be positive, got %d", topics)
	}
	s := &Static{
		topics:   topics,
		mixtures: make(map[string][]float64, len(mixtures)),
	}
	for docID, mixture := range mixtures {
		if err := s.Add(docID, mixture); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add registers the mixture of a document, overwriting any previous one.
func (s *Static) Add(docID string, mixture []float64) error {
	if len(mixture) != s.topics {
		return fmt.Errorf("document %q: mixture has %d weights, want %d", docID, len(mixture), s.topics)
	}
	stored := make([]float64, s.topics)
	for z, w := range mixture {
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("document %q: invalid weight %v for topic %d", docID, w, z)
		}
		stored[z] = w
	}
	s.mixtures[docID] = stored
	return nil
}

// TopicCount implements interfaces.TopicModel
func (s *Static) TopicCount() int {
	return s.topics
}

// Mixture implements interfaces.TopicModel. Callers must not modify the
// returned slice.
func (s *Static) Mixture(docID string) ([]float64, bool) {
	mixture, ok := s.mixtures[docID]
	return mixture, ok
}

// Len returns the number of documents known to the model.
func (s *Static) Len() int {
	return len(s.mixtures)
}

package orchestration

import (
	"context"
	"fmt"

	"github.com/maizifang/tethne/pkg/influence"
	"github.com/maizifang/tethne/pkg/interfaces"
)

// AggregateTopicWeights combines document topic mixtures into one vector
// per node: the mean of the mixtures of all documents attributed to the
// node. The result maps node index (per nodeIndex) to a vector of the topic
// model's width, with exactly one entry per node that is attributed at
// least one document known to the topic model.
//
// Documents the topic model does not know are skipped with a warning, as
// are attributed names missing from nodeIndex. A mixture of the wrong width
// fails the aggregation.
func (o *Orchestrator) AggregateTopicWeights(ctx context.Context, documents []interfaces.Document, nodeIndex map[string]int) (map[int][]float64, error) {
	topics := o.model.TopicCount()
	sums := make(map[int][]float64)
	counts := make(map[int]int)

	for _, document := range documents {
		mixture, ok := o.model.Mixture(document.ID)
		if !ok {
			o.logger.Warn(ctx, "Document missing from topic model", map[string]interface{}{
				"document_id": document.ID,
			})
			continue
		}
		if len(mixture) != topics {
			return nil, fmt.Errorf("%w: document %q has %d topic weights, want %d",
				influence.ErrConfiguration, document.ID, len(mixture), topics)
		}
		for _, author := range document.Authors {
			idx, ok := nodeIndex[author]
			if !ok {
				o.logger.Debug(ctx, "Attributed name not in slice graph", map[string]interface{}{
					"document_id": document.ID,
					"author":      author,
				})
				continue
			}
			vector := sums[idx]
			if vector == nil {
				vector = make([]float64, topics)
				sums[idx] = vector
			}
			for z, w := range mixture {
				vector[z] += w
			}
			counts[idx]++
		}
	}

	for idx, vector := range sums {
		total := float64(counts[idx])
		for z := range vector {
			vector[z] /= total
		}
	}
	return sums, nil
}

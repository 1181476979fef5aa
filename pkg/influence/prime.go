package influence

import (
	"fmt"
	"sort"
)

// PrimeFrom seeds this model's responsibility and availability messages
// from the terminal state of a model built for a temporally adjacent slice.
// Values are copied for every (node, candidate) slot both graphs share,
// including self slots; slots absent from the prior graph keep their zero
// start. Priming across disjoint node sets is a no-op, not an error.
//
// It fails with ErrDimensionMismatch when the prior model's topic width
// differs or it has no terminal state, and with ErrConfiguration on a model
// that is already built.
func (m *Model) PrimeFrom(prior *Model) error {
	if m.built {
		return fmt.Errorf("%w: cannot prime a built model", ErrConfiguration)
	}
	if prior == nil || !prior.built {
		return fmt.Errorf("%w: prior model has no terminal message state", ErrDimensionMismatch)
	}
	if prior.topics != m.topics {
		return fmt.Errorf("%w: prior model has %d topics, want %d", ErrDimensionMismatch, prior.topics, m.topics)
	}

	sharedNodes := 0
	sharedSlots := 0
	for i, id := range m.nodes {
		pi, ok := prior.index[id]
		if !ok {
			continue
		}
		sharedNodes++
		for s, j := range m.adj[i] {
			row, ok := priorRow(prior, pi, m.nodes[j])
			if !ok {
				continue
			}
			for z := 0; z < m.topics; z++ {
				m.r[i].set(s, z, prior.r[pi].at(row, z))
				m.a[i].set(s, z, prior.a[pi].at(row, z))
			}
			sharedSlots++
		}
		selfRow := len(m.adj[i])
		priorSelf := len(prior.adj[pi])
		for z := 0; z < m.topics; z++ {
			m.r[i].set(selfRow, z, prior.r[pi].at(priorSelf, z))
			m.a[i].set(selfRow, z, prior.a[pi].at(priorSelf, z))
		}
		sharedSlots++
	}

	m.primed = sharedSlots > 0
	return nil
}

// priorRow locates the candidate row of the named neighbor inside the
// prior model's slots for node pi.
func priorRow(prior *Model, pi int, neighbor string) (int, bool) {
	pj, ok := prior.index[neighbor]
	if !ok {
		return 0, false
	}
	row := sort.SearchInts(prior.adj[pi], pj)
	if row == len(prior.adj[pi]) || prior.adj[pi][row] != pj {
		return 0, false
	}
	return row, true
}

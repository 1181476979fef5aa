package influence

import "math"

// UpdateResponsibility recomputes the responsibility messages from the
// current availabilities. A node's responsibility toward a candidate is the
// similarity to that candidate minus the best competing
// similarity-plus-availability among its other candidates. Updates are
// damped against the previous values. Build drives this; it is exported so
// callers can step the loop by hand.
func (m *Model) UpdateResponsibility() {
	lambda := m.config.Damping
	for i := range m.nodes {
		rows := m.r[i].rows
		for z := 0; z < m.topics; z++ {
			best, second := math.Inf(-1), math.Inf(-1)
			bestRow := -1
			for s := 0; s < rows; s++ {
				v := m.a[i].at(s, z) + m.sim[i].at(s, z)
				if v > best {
					second = best
					best = v
					bestRow = s
				} else if v > second {
					second = v
				}
			}
			for s := 0; s < rows; s++ {
				competing := best
				if s == bestRow {
					competing = second
				}
				update := m.sim[i].at(s, z)
				// A node with a single candidate has no competition.
				if !math.IsInf(competing, -1) {
					update -= competing
				}
				m.r[i].set(s, z, (1-lambda)*update+lambda*m.r[i].at(s, z))
			}
		}
	}
}

// UpdateAvailability recomputes the availability messages from the current
// responsibilities. A candidate's self-availability accumulates the
// positive responsibility mass its neighbors point at it; the availability
// it offers each neighbor is capped at zero and shrinks as other neighbors
// claim the candidate. Updates are damped against the previous values.
func (m *Model) UpdateAvailability() {
	lambda := m.config.Damping
	for j := range m.nodes {
		selfRow := len(m.adj[j])
		for z := 0; z < m.topics; z++ {
			sumPos := 0.0
			for s := range m.adj[j] {
				k := m.adj[j][s]
				if v := m.r[k].at(m.peer[j][s], z); v > 0 {
					sumPos += v
				}
			}
			m.support.set(j, z, sumPos)
			old := m.a[j].at(selfRow, z)
			m.a[j].set(selfRow, z, (1-lambda)*sumPos+lambda*old)
		}
	}
	for i := range m.nodes {
		for s, j := range m.adj[i] {
			selfJ := len(m.adj[j])
			for z := 0; z < m.topics; z++ {
				contribution := m.r[i].at(s, z)
				if contribution < 0 {
					contribution = 0
				}
				update := m.r[j].at(selfJ, z) + m.support.at(j, z) - contribution
				if update > 0 {
					update = 0
				}
				old := m.a[i].at(s, z)
				m.a[i].set(s, z, (1-lambda)*update+lambda*old)
			}
		}
	}
}

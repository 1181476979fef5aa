package influence

import "math"

// CheckConvergence compares the exemplar assignment implied by the current
// messages against the previous check, overwriting the stored assignment as
// a side effect. It returns the number of nodes whose assignment changed,
// always in [0, N], and whether the loop should continue: false once the
// assignment has been unchanged for Patience consecutive checks or the next
// iteration would exceed MaxIterations. The iteration argument is the
// zero-based index of the round just completed.
func (m *Model) CheckConvergence(iteration int) (int, bool) {
	changed := 0
	for i := range m.nodes {
		assigned := m.assignment(i)
		if assigned != m.yold[i] {
			changed++
			m.yold[i] = assigned
		}
	}
	m.history = append(m.history, changed)

	if changed == 0 {
		m.stable++
	} else {
		m.stable = 0
	}
	cont := m.stable < m.config.Patience && iteration+1 < m.config.MaxIterations
	return changed, cont
}

// assignment returns the node index of i's current exemplar: the candidate
// maximizing responsibility plus availability, aggregated across topics.
// Ties resolve to the earliest candidate row, which keeps runs over
// identical inputs deterministic.
func (m *Model) assignment(i int) int {
	rows := m.r[i].rows
	bestRow, bestScore := 0, math.Inf(-1)
	for s := 0; s < rows; s++ {
		score := 0.0
		for z := 0; z < m.topics; z++ {
			score += m.r[i].at(s, z) + m.a[i].at(s, z)
		}
		if score > bestScore {
			bestScore = score
			bestRow = s
		}
	}
	if bestRow == len(m.adj[i]) {
		return i
	}
	return m.adj[i][bestRow]
}

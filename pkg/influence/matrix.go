package influence

// matrix is a dense row-major float64 matrix. Message state is one matrix
// per node: a row per candidate exemplar, a column per topic.
type matrix struct {
	rows int
	cols int
	data []float64
}

func newMatrix(rows, cols int) *matrix {
	return &matrix{
		rows: rows,
		cols: cols,
		data: make([]float64, rows*cols),
	}
}

func (m *matrix) at(i, j int) float64 {
	return m.data[i*m.cols+j]
}

func (m *matrix) set(i, j int, v float64) {
	m.data[i*m.cols+j] = v
}

func (m *matrix) sum() float64 {
	total := 0.0
	for _, v := range m.data {
		total += v
	}
	return total
}

func (m *matrix) clone() *matrix {
	c := newMatrix(m.rows, m.cols)
	copy(c.data, m.data)
	return c
}

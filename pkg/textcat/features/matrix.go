package features

import (
	"math"
	"sort"
)

// Matrix is a sparse row-major (CSR) matrix of term weights: one row per
// document, one column per vocabulary term. Column indices within a row are
// strictly increasing.
type Matrix struct {
	rows, cols int
	indptr     []int // row i spans indices[indptr[i]:indptr[i+1]]
	indices    []int
	data       []float64
}

func newMatrix(cols int) *Matrix {
	return &Matrix{cols: cols, indptr: []int{0}}
}

// appendRow adds a row given as column -> value. Zero values are skipped.
func (m *Matrix) appendRow(row map[int]float64) {
	cols := make([]int, 0, len(row))
	for c, v := range row {
		if v != 0 {
			cols = append(cols, c)
		}
	}
	sort.Ints(cols)
	for _, c := range cols {
		m.indices = append(m.indices, c)
		m.data = append(m.data, row[c])
	}
	m.indptr = append(m.indptr, len(m.indices))
	m.rows++
}

// Rows returns the number of documents.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the vocabulary size.
func (m *Matrix) Cols() int { return m.cols }

// NNZ returns the number of stored non-zero weights.
func (m *Matrix) NNZ() int { return len(m.data) }

// Row returns the non-zero columns and weights of row i. The slices alias
// the matrix and must not be modified.
func (m *Matrix) Row(i int) ([]int, []float64) {
	lo, hi := m.indptr[i], m.indptr[i+1]
	return m.indices[lo:hi], m.data[lo:hi]
}

// At returns the weight at (i, j).
func (m *Matrix) At(i, j int) float64 {
	cols, vals := m.Row(i)
	k := sort.SearchInts(cols, j)
	if k < len(cols) && cols[k] == j {
		return vals[k]
	}
	return 0
}

// Dense expands the matrix. Intended for small corpora and tests.
func (m *Matrix) Dense() [][]float64 {
	out := make([][]float64, m.rows)
	for i := range out {
		out[i] = make([]float64, m.cols)
		cols, vals := m.Row(i)
		for k, c := range cols {
			out[i][c] = vals[k]
		}
	}
	return out
}

// RowNorm returns the norm of row i under the given metric.
func (m *Matrix) RowNorm(i int, norm Norm) float64 {
	_, vals := m.Row(i)
	return vectorNorm(vals, norm)
}

func vectorNorm(vals []float64, norm Norm) float64 {
	var s float64
	switch norm {
	case NormL1:
		for _, v := range vals {
			s += math.Abs(v)
		}
		return s
	case NormNone:
		return 1
	}
	for _, v := range vals {
		s += v * v
	}
	return math.Sqrt(s)
}

// Vocabulary maps terms to matrix columns. Terms are sorted, so the column
// of a term is its position in lexicographic order.
type Vocabulary struct {
	terms []string
	index map[string]int
}

func newVocabulary(sorted []string) *Vocabulary {
	v := &Vocabulary{terms: sorted, index: make(map[string]int, len(sorted))}
	for i, t := range sorted {
		v.index[t] = i
	}
	return v
}

// Terms returns the vocabulary in column order.
func (v *Vocabulary) Terms() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

// Index returns the column of term.
func (v *Vocabulary) Index(term string) (int, bool) {
	i, ok := v.index[term]
	return i, ok
}

// Term returns the term of column i.
func (v *Vocabulary) Term(i int) string { return v.terms[i] }

// Len returns the number of terms.
func (v *Vocabulary) Len() int { return len(v.terms) }

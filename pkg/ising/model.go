package ising

import (
	"errors"
	"fmt"
	"math"
)

// Tolerance is the largest difference between two floating point values
// which are treated as the same value.
var Tolerance = 1e-6

var ErrInvalidModel = errors.New("invalid ising model")

// Pair is an unordered pair of variable indexes.
//
// Build it with PairOf to normalize ordering.
type Pair [2]int

// PairOf returns the Pair for indexes i and j.
//
// Pairs are unordered, so PairOf(2, 5) == PairOf(5, 2).
func PairOf(i, j int) Pair {
	if j < i {
		i, j = j, i
	}
	return Pair{i, j}
}

// Model is an Ising objective: per-variable biases and pairwise couplings.
//
// A Model holds couplings either densely (symmetric square matrix with zero
// diagonal) or sparsely (map from unordered index pair to weight), never both.
// Models are immutable once built. Accessors return internal buffers which
// callers must not modify.
type Model struct {
	biases []float64
	dense  [][]float64
	edges  map[Pair]float64
}

// Dense builds a Model from a biases vector and a dense coupling matrix.
//
// # Args
//
// - biases: per-variable bias terms. May be nil for all-zero biases.
//
// - couplings: square symmetric matrix. Entries on the diagonal are folded
// into biases (diagonal-as-bias convention) and the stored matrix keeps a
// zero diagonal.
//
// # Returns
//
// - Model: dense model of size len(couplings).
//
// - error: ErrInvalidModel when the matrix is not square, is asymmetric
// beyond Tolerance, or biases length does not match the matrix size.
func Dense(biases []float64, couplings [][]float64) (Model, error) {
	l := len(couplings)
	if l == 0 {
		return Model{}, fmt.Errorf("%w: empty coupling matrix", ErrInvalidModel)
	}
	if biases != nil && len(biases) != l {
		return Model{}, fmt.Errorf(
			"%w: biases length %d does not match coupling size %d",
			ErrInvalidModel, len(biases), l,
		)
	}

	b := make([]float64, l)
	copy(b, biases)

	j := make([][]float64, l)
	for r := range couplings {
		if len(couplings[r]) != l {
			return Model{}, fmt.Errorf(
				"%w: coupling matrix is not square (row %d has %d columns, expected %d)",
				ErrInvalidModel, r, len(couplings[r]), l,
			)
		}
		j[r] = make([]float64, l)
		copy(j[r], couplings[r])
	}
	for r := 0; r < l; r++ {
		for c := r + 1; c < l; c++ {
			if math.Abs(j[r][c]-j[c][r]) > Tolerance {
				return Model{}, fmt.Errorf(
					"%w: coupling matrix is asymmetric at (%d, %d): %g != %g",
					ErrInvalidModel, r, c, j[r][c], j[c][r],
				)
			}
		}
		b[r] += j[r][r]
		j[r][r] = 0
	}

	return Model{biases: b, dense: j}, nil
}

// Sparse builds a Model of size n from a biases vector and an edge map.
//
// # Args
//
// - n: number of variables.
//
// - biases: per-variable bias terms. May be nil for all-zero biases.
//
// - edges: weight per unordered variable pair. Self pairs are rejected;
// diagonal terms belong to biases.
//
// # Returns
//
// - Model: sparse model.
//
// - error: ErrInvalidModel on size mismatch, out-of-range index or self pair.
func Sparse(n int, biases []float64, edges map[Pair]float64) (Model, error) {
	if n <= 0 {
		return Model{}, fmt.Errorf("%w: size must be positive, got %d", ErrInvalidModel, n)
	}
	if biases != nil && len(biases) != n {
		return Model{}, fmt.Errorf(
			"%w: biases length %d does not match size %d",
			ErrInvalidModel, len(biases), n,
		)
	}

	b := make([]float64, n)
	copy(b, biases)

	e := make(map[Pair]float64, len(edges))
	for p, v := range edges {
		q := PairOf(p[0], p[1])
		if q[0] < 0 || n <= q[1] {
			return Model{}, fmt.Errorf(
				"%w: edge (%d, %d) is out of range [0, %d)",
				ErrInvalidModel, p[0], p[1], n,
			)
		}
		if q[0] == q[1] {
			return Model{}, fmt.Errorf(
				"%w: self coupling at variable %d (diagonal terms belong to biases)",
				ErrInvalidModel, q[0],
			)
		}
		e[q] += v
	}

	return Model{biases: b, edges: e}, nil
}

// FromCOO builds a sparse Model from coordinate triplets.
//
// Entries with row == col populate biases; other entries become edges keyed
// by the unordered pair. Duplicate entries for the same target accumulate.
//
// # Args
//
// - n: number of variables. Pass 0 (or negative) to infer it as the largest
// index plus one.
//
// - rows, cols, values: triplet arrays of equal length.
//
// # Returns
//
// - Model: sparse model.
//
// - error: ErrInvalidModel on length mismatch, negative index, or an index
// at or beyond a declared n.
func FromCOO(n int, rows, cols []int, values []float64) (Model, error) {
	if len(rows) != len(cols) || len(rows) != len(values) {
		return Model{}, fmt.Errorf(
			"%w: triplet arrays differ in length: %d rows, %d cols, %d values",
			ErrInvalidModel, len(rows), len(cols), len(values),
		)
	}

	max := -1
	for k := range rows {
		if rows[k] < 0 || cols[k] < 0 {
			return Model{}, fmt.Errorf(
				"%w: negative index in entry (%d, %d)",
				ErrInvalidModel, rows[k], cols[k],
			)
		}
		if max < rows[k] {
			max = rows[k]
		}
		if max < cols[k] {
			max = cols[k]
		}
	}
	if n <= 0 {
		n = max + 1
	}
	if n <= max {
		return Model{}, fmt.Errorf(
			"%w: index %d is out of range [0, %d)", ErrInvalidModel, max, n,
		)
	}
	if n <= 0 {
		return Model{}, fmt.Errorf("%w: no entries and no declared size", ErrInvalidModel)
	}

	b := make([]float64, n)
	e := map[Pair]float64{}
	for k := range rows {
		if rows[k] == cols[k] {
			b[rows[k]] += values[k]
			continue
		}
		e[PairOf(rows[k], cols[k])] += values[k]
	}

	return Model{biases: b, edges: e}, nil
}

// Size returns the number of variables.
func (m Model) Size() int {
	return len(m.biases)
}

// IsSparse is true when couplings are held as an edge map.
func (m Model) IsSparse() bool {
	return m.edges != nil
}

// Biases returns the bias vector, of length Size.
func (m Model) Biases() []float64 {
	return m.biases
}

// Couplings returns the dense coupling matrix, or nil for a sparse model.
func (m Model) Couplings() [][]float64 {
	return m.dense
}

// Edges returns the edge map, or nil for a dense model.
func (m Model) Edges() map[Pair]float64 {
	return m.edges
}

// Edge returns the coupling weight for the unordered pair (i, j),
// whichever representation the model holds.
func (m Model) Edge(i, j int) float64 {
	p := PairOf(i, j)
	if p[0] < 0 || len(m.biases) <= p[1] || p[0] == p[1] {
		return 0
	}
	if m.edges != nil {
		return m.edges[p]
	}
	return m.dense[p[0]][p[1]]
}

// Energy evaluates the objective for a spin assignment.
//
// # Args
//
// - state: one spin per variable, each +1 or -1.
//
// # Returns
//
// - float64: sum of bias terms plus coupling terms over unordered pairs.
//
// - error: ErrInvalidModel when state length or entries are wrong.
func (m Model) Energy(state []int8) (float64, error) {
	if len(state) != len(m.biases) {
		return 0, fmt.Errorf(
			"%w: state length %d does not match size %d",
			ErrInvalidModel, len(state), len(m.biases),
		)
	}
	for i, s := range state {
		if s != 1 && s != -1 {
			return 0, fmt.Errorf(
				"%w: state[%d] = %d is not a spin (+1 or -1)", ErrInvalidModel, i, s,
			)
		}
	}

	energy := 0.0
	for i, h := range m.biases {
		energy += h * float64(state[i])
	}
	if m.edges != nil {
		for p, v := range m.edges {
			energy += v * float64(state[p[0]]) * float64(state[p[1]])
		}
		return energy, nil
	}
	for i := range m.dense {
		for j := i + 1; j < len(m.dense); j++ {
			energy += m.dense[i][j] * float64(state[i]) * float64(state[j])
		}
	}
	return energy, nil
}

// Equal compares two models exactly, including representation.
func (m Model) Equal(o Model) bool {
	return m.Equiv(o, 0)
}

// Equiv compares two models within tol, including representation
// (a dense model never equals a sparse one).
func (m Model) Equiv(o Model, tol float64) bool {
	if len(m.biases) != len(o.biases) || m.IsSparse() != o.IsSparse() {
		return false
	}
	near := func(a, b float64) bool {
		return math.Abs(a-b) <= tol
	}
	for i := range m.biases {
		if !near(m.biases[i], o.biases[i]) {
			return false
		}
	}
	if m.IsSparse() {
		for p, v := range m.edges {
			if !near(v, o.edges[p]) {
				return false
			}
		}
		for p, v := range o.edges {
			if !near(v, m.edges[p]) {
				return false
			}
		}
		return true
	}
	for i := range m.dense {
		for j := range m.dense[i] {
			if !near(m.dense[i][j], o.dense[i][j]) {
				return false
			}
		}
	}
	return true
}

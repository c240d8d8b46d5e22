package ising_test

import (
	"errors"
	"math"
	"testing"

	"github.com/veloxq/veloxq-go/pkg/ising"
)

func TestDense(t *testing.T) {
	t.Run("it builds a model from biases and a symmetric matrix", func(t *testing.T) {
		m, err := ising.Dense(
			[]float64{1, -1, 0},
			[][]float64{
				{0, -1, 0},
				{-1, 0, -1},
				{0, -1, 0},
			},
		)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		if m.Size() != 3 {
			t.Errorf("unexpected size: %d", m.Size())
		}
		if m.IsSparse() {
			t.Error("model is sparse, unexpectedly")
		}
		if b := m.Biases(); b[0] != 1 || b[1] != -1 || b[2] != 0 {
			t.Errorf("unexpected biases: %v", b)
		}
		if m.Edge(0, 1) != -1 || m.Edge(1, 0) != -1 {
			t.Errorf("unexpected edge (0, 1): %f", m.Edge(0, 1))
		}
		if m.Edge(0, 2) != 0 {
			t.Errorf("unexpected edge (0, 2): %f", m.Edge(0, 2))
		}
	})

	t.Run("it folds diagonal entries into biases", func(t *testing.T) {
		m, err := ising.Dense(nil, [][]float64{
			{2, 1},
			{1, 0},
		})
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		if b := m.Biases(); b[0] != 2 || b[1] != 0 {
			t.Errorf("diagonal is not folded into biases: %v", b)
		}
		if j := m.Couplings(); j[0][0] != 0 {
			t.Errorf("stored diagonal is not zero: %v", j)
		}
		if m.Edge(0, 1) != 1 {
			t.Errorf("unexpected edge (0, 1): %f", m.Edge(0, 1))
		}
	})

	t.Run("it does not alias caller arrays", func(t *testing.T) {
		biases := []float64{1, 2}
		couplings := [][]float64{
			{0, 3},
			{3, 0},
		}
		m, err := ising.Dense(biases, couplings)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		biases[0] = 100
		couplings[0][1] = 100

		if m.Biases()[0] != 1 {
			t.Error("model biases share memory with caller")
		}
		if m.Edge(0, 1) != 3 {
			t.Error("model couplings share memory with caller")
		}
	})

	theoryNg := func(biases []float64, couplings [][]float64) func(*testing.T) {
		return func(t *testing.T) {
			if _, err := ising.Dense(biases, couplings); !errors.Is(err, ising.ErrInvalidModel) {
				t.Errorf("unexpected error: %v", err)
			}
		}
	}
	t.Run("it rejects empty matrix", theoryNg(nil, [][]float64{}))
	t.Run("it rejects non-square matrix", theoryNg(nil, [][]float64{
		{0, 1},
		{1},
	}))
	t.Run("it rejects asymmetric matrix", theoryNg(nil, [][]float64{
		{0, 1},
		{2, 0},
	}))
	t.Run("it rejects biases length mismatch", theoryNg([]float64{1}, [][]float64{
		{0, 1},
		{1, 0},
	}))
}

func TestSparse(t *testing.T) {
	t.Run("it normalizes edge pairs", func(t *testing.T) {
		m, err := ising.Sparse(4, nil, map[ising.Pair]float64{
			{2, 0}: 1.5,
			{1, 3}: -0.5,
		})
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		if !m.IsSparse() {
			t.Error("model is dense, unexpectedly")
		}
		if m.Edge(0, 2) != 1.5 || m.Edge(2, 0) != 1.5 {
			t.Errorf("unexpected edge (0, 2): %f", m.Edge(0, 2))
		}
		if m.Edge(3, 1) != -0.5 {
			t.Errorf("unexpected edge (1, 3): %f", m.Edge(3, 1))
		}
	})

	theoryNg := func(n int, biases []float64, edges map[ising.Pair]float64) func(*testing.T) {
		return func(t *testing.T) {
			if _, err := ising.Sparse(n, biases, edges); !errors.Is(err, ising.ErrInvalidModel) {
				t.Errorf("unexpected error: %v", err)
			}
		}
	}
	t.Run("it rejects non-positive size", theoryNg(0, nil, nil))
	t.Run("it rejects self pairs", theoryNg(3, nil, map[ising.Pair]float64{{1, 1}: 1}))
	t.Run("it rejects out-of-range edges", theoryNg(3, nil, map[ising.Pair]float64{{0, 3}: 1}))
	t.Run("it rejects biases length mismatch", theoryNg(3, []float64{1}, nil))
}

func TestFromCOO(t *testing.T) {
	t.Run("diagonal entries populate biases and duplicates accumulate", func(t *testing.T) {
		m, err := ising.FromCOO(
			0,
			[]int{0, 1, 0, 2, 1},
			[]int{1, 2, 0, 2, 0},
			[]float64{0.5, 1.5, 1, 0.75, 0.25},
		)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		if m.Size() != 3 {
			t.Errorf("unexpected size: %d", m.Size())
		}
		if b := m.Biases(); b[0] != 1 || b[1] != 0 || b[2] != 0.75 {
			t.Errorf("unexpected biases: %v", b)
		}
		if m.Edge(0, 1) != 0.75 {
			t.Errorf("duplicated unordered pair is not accumulated: %f", m.Edge(0, 1))
		}
		if m.Edge(1, 2) != 1.5 {
			t.Errorf("unexpected edge (1, 2): %f", m.Edge(1, 2))
		}
		if m.Edge(0, 0) != 0 {
			t.Error("diagonal entry leaked into edges")
		}
	})

	t.Run("a declared size wider than the indexes is kept", func(t *testing.T) {
		m, err := ising.FromCOO(5, []int{0}, []int{1}, []float64{1})
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if m.Size() != 5 {
			t.Errorf("unexpected size: %d", m.Size())
		}
	})

	theoryNg := func(n int, rows, cols []int, values []float64) func(*testing.T) {
		return func(t *testing.T) {
			if _, err := ising.FromCOO(n, rows, cols, values); !errors.Is(err, ising.ErrInvalidModel) {
				t.Errorf("unexpected error: %v", err)
			}
		}
	}
	t.Run("it rejects triplet length mismatch", theoryNg(0, []int{0, 1}, []int{1}, []float64{1}))
	t.Run("it rejects negative indexes", theoryNg(0, []int{-1}, []int{1}, []float64{1}))
	t.Run("it rejects indexes beyond a declared size", theoryNg(2, []int{0}, []int{2}, []float64{1}))
	t.Run("it rejects empty input without declared size", theoryNg(0, nil, nil, nil))
}

func TestEnergy(t *testing.T) {
	model := func(t *testing.T) ising.Model {
		m, err := ising.Dense(
			[]float64{1, -1, 0},
			[][]float64{
				{0, -1, 0},
				{-1, 0, -1},
				{0, -1, 0},
			},
		)
		if err != nil {
			t.Fatal(err)
		}
		return m
	}

	theory := func(state []int8, expected float64) func(*testing.T) {
		return func(t *testing.T) {
			actual, err := model(t).Energy(state)
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if math.Abs(actual-expected) > 1e-9 {
				t.Errorf("unexpected energy: %f (expected %f)", actual, expected)
			}
		}
	}
	t.Run("all up", theory([]int8{1, 1, 1}, -2))
	t.Run("all down", theory([]int8{-1, -1, -1}, -2))
	t.Run("mixed", theory([]int8{-1, 1, -1}, 0))

	t.Run("sparse and dense evaluation agree", func(t *testing.T) {
		dense := model(t)
		sparse, err := ising.Sparse(3, []float64{1, -1, 0}, map[ising.Pair]float64{
			{0, 1}: -1,
			{1, 2}: -1,
		})
		if err != nil {
			t.Fatal(err)
		}

		for _, state := range [][]int8{
			{1, 1, 1}, {1, -1, 1}, {-1, -1, 1}, {-1, -1, -1},
		} {
			ed, err := dense.Energy(state)
			if err != nil {
				t.Fatal(err)
			}
			es, err := sparse.Energy(state)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(ed-es) > 1e-9 {
				t.Errorf("energies disagree for %v: dense %f, sparse %f", state, ed, es)
			}
		}
	})

	t.Run("it rejects non-spin entries", func(t *testing.T) {
		if _, err := model(t).Energy([]int8{1, 0, 1}); !errors.Is(err, ising.ErrInvalidModel) {
			t.Errorf("unexpected error: %v", err)
		}
	})
	t.Run("it rejects state length mismatch", func(t *testing.T) {
		if _, err := model(t).Energy([]int8{1, 1}); !errors.Is(err, ising.ErrInvalidModel) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestEquiv(t *testing.T) {
	t.Run("models within tolerance are equivarent", func(t *testing.T) {
		a, err := ising.Dense([]float64{1, 2}, [][]float64{{0, 1}, {1, 0}})
		if err != nil {
			t.Fatal(err)
		}
		b, err := ising.Dense([]float64{1 + 1e-9, 2}, [][]float64{{0, 1 - 1e-9}, {1 - 1e-9, 0}})
		if err != nil {
			t.Fatal(err)
		}

		if !a.Equiv(b, 1e-6) {
			t.Error("a is not equivarent to b, unexpectedly")
		}
		if a.Equal(b) {
			t.Error("a equals b exactly, unexpectedly")
		}
	})

	t.Run("a dense model never equals a sparse one", func(t *testing.T) {
		a, err := ising.Dense(nil, [][]float64{{0, 1}, {1, 0}})
		if err != nil {
			t.Fatal(err)
		}
		b, err := ising.Sparse(2, nil, map[ising.Pair]float64{{0, 1}: 1})
		if err != nil {
			t.Fatal(err)
		}

		if a.Equiv(b, 1e-6) {
			t.Error("dense a is equivarent to sparse b, unexpectedly")
		}
	})
}

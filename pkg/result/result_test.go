package result_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/veloxq/veloxq-go/pkg/container"
	"github.com/veloxq/veloxq-go/pkg/result"
	"github.com/veloxq/veloxq-go/pkg/utils/try"
)

func TestSpectrum(t *testing.T) {
	t.Run("it round-trips through the container encoding", func(t *testing.T) {
		expected := &result.Spectrum{
			Energies: []float32{-2.5, -4.0, -1.25},
			States: []int8{
				1, -1, 1, 1,
				-1, -1, 1, -1,
				1, 1, 1, 1,
			},
			L:          4,
			NumBatches: 1,
			NumRep:     3,
			Metadata:   []byte(`{"solver":"veloxq"}`),
		}

		buf := bytes.NewBuffer(nil)
		if err := result.Encode(buf, expected); err != nil {
			t.Fatalf("encode failed: %+v", err)
		}

		actual := try.To(result.Decode(bytes.NewReader(buf.Bytes()))).OrFatal(t)
		if !actual.Equal(expected) {
			t.Errorf("spectrum unmatch (actual, expected) = (%+v, %+v)", actual, expected)
		}
		if actual.Samples() != 3 {
			t.Errorf("samples unmatch: %d", actual.Samples())
		}
	})

	t.Run("Best picks the lowest energy sample", func(t *testing.T) {
		testee := &result.Spectrum{
			Energies: []float32{-2.5, -4.0, -1.25},
			States: []int8{
				1, -1,
				-1, -1,
				1, 1,
			},
			L: 2,
		}

		best, ok := testee.Best()
		if !ok {
			t.Fatal("Best should find a sample")
		}
		if best.Index != 1 || best.Energy != -4.0 {
			t.Errorf("best sample unmatch: %+v", best)
		}
		if len(best.State) != 2 || best.State[0] != -1 || best.State[1] != -1 {
			t.Errorf("best state unmatch: %v", best.State)
		}
	})

	t.Run("Best on an empty spectrum reports not ok", func(t *testing.T) {
		testee := &result.Spectrum{L: 2}
		if _, ok := testee.Best(); ok {
			t.Error("Best should not find a sample")
		}
	})

	t.Run("State addresses one sample row", func(t *testing.T) {
		testee := &result.Spectrum{
			Energies: []float32{0, 0},
			States:   []int8{1, 1, 1, -1, -1, -1},
			L:        3,
		}
		row := testee.State(1)
		if len(row) != 3 || row[0] != -1 || row[1] != -1 || row[2] != -1 {
			t.Errorf("state row unmatch: %v", row)
		}
	})
}

func TestDecode(t *testing.T) {
	encode := func(t *testing.T, mutate func(g *container.Group)) []byte {
		t.Helper()

		root := container.NewGroup()
		g := root.PutGroup("Spectrum")
		g.Put("energies", try.To(container.NewFloat32s([]int{2}, []float32{-1, -2})).OrFatal(t))
		g.Put("states", try.To(container.NewInt8s([]int{2, 2}, []int8{1, -1, -1, 1})).OrFatal(t))
		g.Put("L", container.NewScalarInt64(2))
		g.Put("num_batches", container.NewScalarInt64(1))
		g.Put("num_rep", container.NewScalarInt64(2))
		if mutate != nil {
			mutate(g)
		}

		buf := bytes.NewBuffer(nil)
		if err := container.Encode(buf, root); err != nil {
			t.Fatal(err.Error())
		}
		return buf.Bytes()
	}

	t.Run("metadata is optional", func(t *testing.T) {
		encoded := encode(t, nil)
		spectrum := try.To(result.Decode(bytes.NewReader(encoded))).OrFatal(t)
		if len(spectrum.Metadata) != 0 {
			t.Errorf("metadata should be empty: %v", spectrum.Metadata)
		}
	})

	theories := map[string]func(t *testing.T, g *container.Group){
		"when energies are missing, it rejects": func(t *testing.T, g *container.Group) {
			g.Put("energies", container.NewBytes(nil))
		},
		"when states carry a non-spin value, it rejects": func(t *testing.T, g *container.Group) {
			ds := try.To(container.NewInt8s([]int{2, 2}, []int8{1, 0, -1, 1})).OrFatal(t)
			g.Put("states", ds)
		},
		"when the state count does not match the samples, it rejects": func(t *testing.T, g *container.Group) {
			ds := try.To(container.NewInt8s([]int{3}, []int8{1, -1, 1})).OrFatal(t)
			g.Put("states", ds)
		},
		"when L is not a scalar, it rejects": func(t *testing.T, g *container.Group) {
			ds := try.To(container.NewInt64s([]int{2}, []int64{2, 2})).OrFatal(t)
			g.Put("L", ds)
		},
	}
	for name, mutate := range theories {
		t.Run(name, func(t *testing.T) {
			encoded := encode(t, func(g *container.Group) { mutate(t, g) })
			if _, err := result.Decode(bytes.NewReader(encoded)); !errors.Is(err, result.ErrFormat) {
				t.Errorf("error should be ErrFormat: %+v", err)
			}
		})
	}

	t.Run("when the Spectrum group is missing, it rejects", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		if err := container.Encode(buf, container.NewGroup()); err != nil {
			t.Fatal(err.Error())
		}
		if _, err := result.Decode(bytes.NewReader(buf.Bytes())); !errors.Is(err, result.ErrFormat) {
			t.Errorf("error should be ErrFormat: %+v", err)
		}
	})
}

// Package result reads the solver result container.
//
// A finished job stores its samples as a container with a "Spectrum"
// group: sampled energies, the sampled spin states and the run shape.
package result

import (
	"errors"
	"fmt"
	"io"

	"github.com/veloxq/veloxq-go/pkg/container"
)

var ErrFormat = errors.New("invalid result format")

// Spectrum is the parsed result of a solver run.
//
// States is flat and row-major: sample i occupies
// States[i*L : (i+1)*L], each value being a spin, +1 or -1.
type Spectrum struct {
	Energies   []float32
	States     []int8
	L          int
	NumBatches int
	NumRep     int
	Metadata   []byte
}

// Samples returns how many samples the spectrum holds.
func (s *Spectrum) Samples() int {
	return len(s.Energies)
}

// State returns the spin state of sample i.
//
// The returned slice aliases the spectrum's backing array.
func (s *Spectrum) State(i int) []int8 {
	return s.States[i*s.L : (i+1)*s.L]
}

// Sample is one row of a Spectrum.
type Sample struct {
	Index  int
	Energy float32
	State  []int8
}

// Best returns the sample with the lowest energy.
//
// # Returns
//
// - Sample
//
// - bool: false when the spectrum is empty.
func (s *Spectrum) Best() (Sample, bool) {
	if len(s.Energies) == 0 {
		return Sample{}, false
	}

	best := 0
	for i, e := range s.Energies {
		if e < s.Energies[best] {
			best = i
		}
	}
	return Sample{Index: best, Energy: s.Energies[best], State: s.State(best)}, true
}

func (s *Spectrum) Equal(o *Spectrum) bool {
	if s.L != o.L || s.NumBatches != o.NumBatches || s.NumRep != o.NumRep {
		return false
	}
	if len(s.Energies) != len(o.Energies) || len(s.States) != len(o.States) {
		return false
	}
	for i := range s.Energies {
		if s.Energies[i] != o.Energies[i] {
			return false
		}
	}
	for i := range s.States {
		if s.States[i] != o.States[i] {
			return false
		}
	}
	if len(s.Metadata) != len(o.Metadata) {
		return false
	}
	for i := range s.Metadata {
		if s.Metadata[i] != o.Metadata[i] {
			return false
		}
	}
	return true
}

// Decode reads a result container from r.
//
// # Returns
//
// - *Spectrum
//
// - error: ErrFormat (wrapped) when the container has no well-formed
// Spectrum group. container.ErrMalformed passes through for broken
// containers.
func Decode(r io.Reader) (*Spectrum, error) {
	root, err := container.Decode(r)
	if err != nil {
		return nil, err
	}

	g, ok := root.Group("Spectrum")
	if !ok {
		return nil, fmt.Errorf("%w: no Spectrum group", ErrFormat)
	}

	s := &Spectrum{}

	if ds, ok := g.Dataset("energies"); ok {
		if s.Energies, ok = ds.Float32s(); !ok {
			return nil, fmt.Errorf("%w: energies should be float32, but %s", ErrFormat, ds.DType())
		}
	} else {
		return nil, fmt.Errorf("%w: no energies", ErrFormat)
	}

	if ds, ok := g.Dataset("states"); ok {
		if s.States, ok = ds.Int8s(); !ok {
			return nil, fmt.Errorf("%w: states should be int8, but %s", ErrFormat, ds.DType())
		}
	} else {
		return nil, fmt.Errorf("%w: no states", ErrFormat)
	}

	if s.L, err = scalar(g, "L"); err != nil {
		return nil, err
	}
	if s.NumBatches, err = scalar(g, "num_batches"); err != nil {
		return nil, err
	}
	if s.NumRep, err = scalar(g, "num_rep"); err != nil {
		return nil, err
	}
	if ds, ok := g.Dataset("metadata"); ok {
		if s.Metadata, ok = ds.Raw(); !ok {
			return nil, fmt.Errorf("%w: metadata should be bytes, but %s", ErrFormat, ds.DType())
		}
	}

	if s.L <= 0 {
		return nil, fmt.Errorf("%w: L = %d", ErrFormat, s.L)
	}
	if len(s.States) != len(s.Energies)*s.L {
		return nil, fmt.Errorf(
			"%w: %d states for %d samples of length %d",
			ErrFormat, len(s.States), len(s.Energies), s.L,
		)
	}
	for _, v := range s.States {
		if v != 1 && v != -1 {
			return nil, fmt.Errorf("%w: state value %d is not a spin", ErrFormat, v)
		}
	}

	return s, nil
}

func scalar(g *container.Group, name string) (int, error) {
	ds, ok := g.Dataset(name)
	if !ok {
		return 0, fmt.Errorf("%w: no %s", ErrFormat, name)
	}
	vs, ok := ds.Int64s()
	if !ok || len(vs) != 1 {
		return 0, fmt.Errorf("%w: %s should be a single int64", ErrFormat, name)
	}
	return int(vs[0]), nil
}

// Encode writes s as a result container to w.
func Encode(w io.Writer, s *Spectrum) error {
	if s.L <= 0 {
		return fmt.Errorf("%w: L = %d", ErrFormat, s.L)
	}
	if len(s.States) != len(s.Energies)*s.L {
		return fmt.Errorf(
			"%w: %d states for %d samples of length %d",
			ErrFormat, len(s.States), len(s.Energies), s.L,
		)
	}

	root := container.NewGroup()
	g := root.PutGroup("Spectrum")

	energies, err := container.NewFloat32s([]int{len(s.Energies)}, s.Energies)
	if err != nil {
		return err
	}
	g.Put("energies", energies)

	states, err := container.NewInt8s([]int{len(s.Energies), s.L}, s.States)
	if err != nil {
		return err
	}
	g.Put("states", states)

	g.Put("L", container.NewScalarInt64(int64(s.L)))
	g.Put("num_batches", container.NewScalarInt64(int64(s.NumBatches)))
	g.Put("num_rep", container.NewScalarInt64(int64(s.NumRep)))
	g.Put("metadata", container.NewBytes(s.Metadata))

	return container.Encode(w, root)
}

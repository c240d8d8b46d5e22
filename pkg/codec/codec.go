// Package codec maps problem instances between the canonical ising.Model
// and the supported on-disk encodings.
//
// Decoders exist for the hierarchical binary container, MATLAB MAT-files,
// Matrix-Market coordinate text, plain COO text and DAT/TSP (QAP) text.
// The encoder targets the hierarchical binary container only, which is the
// canonical upload format.
package codec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/veloxq/veloxq-go/pkg/container"
	"github.com/veloxq/veloxq-go/pkg/ising"
	"github.com/veloxq/veloxq-go/pkg/utils"
)

var (
	ErrFormat            = errors.New("invalid problem format")
	ErrUnsupportedFormat = errors.New("unsupported problem format")
)

type Format string

const (
	// Container is the hierarchical binary container (canonical format).
	Container Format = "container"
	// MATLAB is a MAT-file holding couplings/biases or I/J/V variables.
	MATLAB Format = "mat"
	// MatrixMarket is coordinate-format Matrix-Market text.
	MatrixMarket Format = "matrix-market"
	// COO is plain text with whitespace- or comma-separated triplets.
	COO Format = "coo"
	// DAT is QAP text: a size line, then flow and distance matrices.
	DAT Format = "dat"
)

// Extension returns the canonical file extension of the format, with dot.
func (f Format) Extension() string {
	switch f {
	case Container:
		return ".h5"
	case MATLAB:
		return ".mat"
	case MatrixMarket:
		return ".mtx"
	case COO:
		return ".csv"
	case DAT:
		return ".dat"
	}
	return ""
}

// FormatForPath maps a file path to its Format by extension.
//
// # Returns
//
// - Format
//
// - error: ErrUnsupportedFormat, naming the extension, when it is unknown.
func FormatForPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".h5", ".hdf5":
		return Container, nil
	case ".mat":
		return MATLAB, nil
	case ".mtx", ".mm":
		return MatrixMarket, nil
	case ".csv", ".txt":
		return COO, nil
	case ".dat", ".tsp":
		return DAT, nil
	}
	return "", fmt.Errorf("%w: unknown extension %q in %q", ErrUnsupportedFormat, ext, path)
}

// Sniff guesses the Format from the head of a stream.
//
// # Args
//
// - head: leading bytes of the content. A few hundred bytes are enough.
//
// # Returns
//
// - Format
//
// - error: ErrUnsupportedFormat when the content is not recognized.
func Sniff(head []byte) (Format, error) {
	if bytes.HasPrefix(head, []byte(container.Magic)) {
		return Container, nil
	}
	if bytes.HasPrefix(head, []byte("MATLAB")) {
		return MATLAB, nil
	}
	if bytes.HasPrefix(head, []byte("%%MatrixMarket")) {
		return MatrixMarket, nil
	}

	sc := bufio.NewScanner(bytes.NewReader(head))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "%") {
			continue
		}
		fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
		for _, f := range fields {
			if !isNumeric(f) {
				return "", fmt.Errorf("%w: content is not recognized", ErrUnsupportedFormat)
			}
		}
		switch len(fields) {
		case 1:
			return DAT, nil
		case 2, 3:
			return COO, nil
		}
		return "", fmt.Errorf("%w: content is not recognized", ErrUnsupportedFormat)
	}
	return "", fmt.Errorf("%w: content is not recognized", ErrUnsupportedFormat)
}

func isNumeric(s string) bool {
	for _, r := range s {
		switch {
		case '0' <= r && r <= '9':
		case r == '+' || r == '-' || r == '.' || r == 'e' || r == 'E':
		default:
			return false
		}
	}
	return s != ""
}

// DecodeModel reads an Ising model from r in the given format.
//
// # Args
//
// - r: content stream.
//
// - f: format of the content.
//
// # Returns
//
// - ising.Model
//
// - error: ErrFormat on structurally invalid content; ErrUnsupportedFormat
// for unknown formats and for DAT, which holds a QAP instance rather than
// an Ising model (use DecodeQAP).
func DecodeModel(r io.Reader, f Format) (ising.Model, error) {
	switch f {
	case Container:
		return decodeContainer(r)
	case MATLAB:
		return decodeMAT(r)
	case MatrixMarket:
		return decodeMatrixMarket(r)
	case COO:
		return decodeCOO(r)
	case DAT:
		return ising.Model{}, fmt.Errorf(
			"%w: dat holds a QAP instance, not an Ising model", ErrUnsupportedFormat,
		)
	}
	return ising.Model{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// Validate checks that r holds well-formed content for format f,
// including DAT, without keeping the decoded value.
func Validate(r io.Reader, f Format) error {
	if f == DAT {
		_, err := DecodeQAP(r)
		return err
	}
	_, err := DecodeModel(r, f)
	return err
}

// Encode writes m to w as a hierarchical binary container.
//
// Sparse models are written as the Ising/J_coo triplet group, dense models
// as the Ising/couplings matrix. The biases vector is always written, so
// decoding the output reproduces m exactly.
func Encode(w io.Writer, m ising.Model) error {
	if m.Size() == 0 {
		return fmt.Errorf("%w: empty model", ErrFormat)
	}

	root := container.NewGroup()
	ig := root.PutGroup("Ising")

	biases, err := container.NewFloat64s([]int{m.Size()}, m.Biases())
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFormat, err)
	}
	ig.Put("biases", biases)

	if !m.IsSparse() {
		l := m.Size()
		flat := make([]float64, 0, l*l)
		for _, row := range m.Couplings() {
			flat = append(flat, row...)
		}
		couplings, err := container.NewFloat64s([]int{l, l}, flat)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrFormat, err)
		}
		ig.Put("couplings", couplings)
		return container.Encode(w, root)
	}

	edges := m.Edges()
	pairs := make([]ising.Pair, 0, len(edges))
	for p := range edges {
		pairs = append(pairs, p)
	}
	pairs = utils.Sorted(pairs, func(a, b ising.Pair) bool {
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		return a[1] < b[1]
	})

	is := make([]int64, len(pairs))
	js := make([]int64, len(pairs))
	vs := make([]float64, len(pairs))
	for k, p := range pairs {
		is[k], js[k], vs[k] = int64(p[0]), int64(p[1]), edges[p]
	}

	jg := ig.PutGroup("J_coo")
	di, err := container.NewInt64s([]int{len(pairs)}, is)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFormat, err)
	}
	dj, err := container.NewInt64s([]int{len(pairs)}, js)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFormat, err)
	}
	dv, err := container.NewFloat64s([]int{len(pairs)}, vs)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFormat, err)
	}
	jg.Put("I", di)
	jg.Put("J", dj)
	jg.Put("V", dv)

	return container.Encode(w, root)
}

func decodeContainer(r io.Reader) (ising.Model, error) {
	root, err := container.Decode(r)
	if err != nil {
		return ising.Model{}, fmt.Errorf("%w: %s", ErrFormat, err)
	}

	ig, ok := root.Group("Ising")
	if !ok {
		return ising.Model{}, fmt.Errorf("%w: missing Ising group", ErrFormat)
	}

	var biases []float64
	if ds, ok := ig.Dataset("biases"); ok {
		if biases, err = ds.Numbers(); err != nil {
			return ising.Model{}, fmt.Errorf("%w: biases: %s", ErrFormat, err)
		}
	}

	if ds, ok := ig.Dataset("couplings"); ok {
		matrix, err := denseMatrix(ds)
		if err != nil {
			return ising.Model{}, err
		}
		m, err := ising.Dense(biases, matrix)
		if err != nil {
			return ising.Model{}, fmt.Errorf("%w: %s", ErrFormat, err)
		}
		return m, nil
	}

	jg, ok := ig.Group("J_coo")
	if !ok {
		return ising.Model{}, fmt.Errorf(
			"%w: Ising group holds neither couplings nor J_coo", ErrFormat,
		)
	}
	rows, err := indexDataset(jg, "I")
	if err != nil {
		return ising.Model{}, err
	}
	cols, err := indexDataset(jg, "J")
	if err != nil {
		return ising.Model{}, err
	}
	vds, ok := jg.Dataset("V")
	if !ok {
		return ising.Model{}, fmt.Errorf("%w: J_coo misses V", ErrFormat)
	}
	values, err := vds.Numbers()
	if err != nil {
		return ising.Model{}, fmt.Errorf("%w: V: %s", ErrFormat, err)
	}

	return cooToModel(0, rows, cols, values, biases)
}

// denseMatrix converts a 2-dimensional square dataset to rows.
func denseMatrix(ds *container.Dataset) ([][]float64, error) {
	shape := ds.Shape()
	if len(shape) != 2 || shape[0] != shape[1] {
		return nil, fmt.Errorf("%w: couplings shape %v is not square", ErrFormat, shape)
	}
	flat, err := ds.Numbers()
	if err != nil {
		return nil, fmt.Errorf("%w: couplings: %s", ErrFormat, err)
	}
	l := shape[0]
	matrix := make([][]float64, l)
	for i := range matrix {
		matrix[i] = flat[i*l : (i+1)*l]
	}
	return matrix, nil
}

func indexDataset(g *container.Group, name string) ([]int, error) {
	ds, ok := g.Dataset(name)
	if !ok {
		return nil, fmt.Errorf("%w: J_coo misses %s", ErrFormat, name)
	}
	nums, err := ds.Numbers()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrFormat, name, err)
	}
	return intIndexes(name, nums)
}

func intIndexes(name string, nums []float64) ([]int, error) {
	out := make([]int, len(nums))
	for k, v := range nums {
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("%w: %s holds non-integer index %g", ErrFormat, name, v)
		}
		out[k] = int(v)
	}
	return out, nil
}

// cooToModel builds a sparse model out of triplets plus an optional explicit
// biases vector. Entries on the diagonal accumulate into biases; duplicated
// unordered pairs accumulate into one edge.
//
// n declares the model size; pass 0 to take it from biases or the largest
// index.
func cooToModel(n int, rows, cols []int, values []float64, biases []float64) (ising.Model, error) {
	if len(rows) != len(cols) || len(rows) != len(values) {
		return ising.Model{}, fmt.Errorf(
			"%w: triplet arrays differ in length: %d, %d, %d",
			ErrFormat, len(rows), len(cols), len(values),
		)
	}
	if biases != nil {
		if 0 < n && n != len(biases) {
			return ising.Model{}, fmt.Errorf(
				"%w: biases length %d does not match declared size %d",
				ErrFormat, len(biases), n,
			)
		}
		n = len(biases)
	}

	max := -1
	for k := range rows {
		if rows[k] < 0 || cols[k] < 0 {
			return ising.Model{}, fmt.Errorf(
				"%w: negative index in entry (%d, %d)", ErrFormat, rows[k], cols[k],
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
		return ising.Model{}, fmt.Errorf(
			"%w: index %d is out of range [0, %d)", ErrFormat, max, n,
		)
	}
	if n <= 0 {
		return ising.Model{}, fmt.Errorf("%w: no entries and no declared size", ErrFormat)
	}

	b := make([]float64, n)
	copy(b, biases)
	edges := map[ising.Pair]float64{}
	for k := range rows {
		if rows[k] == cols[k] {
			b[rows[k]] += values[k]
			continue
		}
		edges[ising.PairOf(rows[k], cols[k])] += values[k]
	}

	m, err := ising.Sparse(n, b, edges)
	if err != nil {
		return ising.Model{}, fmt.Errorf("%w: %s", ErrFormat, err)
	}
	return m, nil
}

package codec

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/veloxq/veloxq-go/pkg/ising"
)

// MAT-file (Level 5) element and class tags, as far as this decoder needs.
const (
	miINT8       = 1
	miUINT8      = 2
	miINT16      = 3
	miUINT16     = 4
	miINT32      = 5
	miUINT32     = 6
	miSINGLE     = 7
	miDOUBLE     = 9
	miINT64      = 12
	miUINT64     = 13
	miMATRIX     = 14
	miCOMPRESSED = 15

	mxCHAR   = 4
	mxSPARSE = 5
	mxDOUBLE = 6
	mxUINT64 = 15
)

const matHeaderLen = 128

type matVar struct {
	dims   []int
	values []float64 // column-major
}

// decodeMAT reads a little-endian Level 5 MAT-file holding either a dense
// `couplings` matrix (plus optional `biases`) or `I`/`J`/`V` triplet vectors
// (0-indexed, plus optional `biases`). Compressed elements are inflated;
// non-numeric variables are ignored; MATLAB sparse arrays are rejected.
func decodeMAT(r io.Reader) (ising.Model, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return ising.Model{}, fmt.Errorf("%w: %s", ErrFormat, err)
	}
	if len(buf) < matHeaderLen {
		return ising.Model{}, fmt.Errorf("%w: MAT header is truncated", ErrFormat)
	}
	switch string(buf[126:128]) {
	case "IM":
	case "MI":
		return ising.Model{}, fmt.Errorf("%w: big-endian MAT-files are not supported", ErrFormat)
	default:
		return ising.Model{}, fmt.Errorf("%w: malformed MAT header", ErrFormat)
	}

	vars := map[string]matVar{}
	if err := matElements(buf[matHeaderLen:], vars); err != nil {
		return ising.Model{}, err
	}
	return assembleMAT(vars)
}

// matElements walks top-level data elements, collecting numeric variables.
func matElements(buf []byte, vars map[string]matVar) error {
	off := 0
	for off < len(buf) {
		etype, data, next, err := matElement(buf, off)
		if err != nil {
			return err
		}
		switch etype {
		case miMATRIX:
			name, v, ok, err := matMatrix(data)
			if err != nil {
				return err
			}
			if ok {
				vars[name] = v
			}
		case miCOMPRESSED:
			zr, err := zlib.NewReader(bytes.NewReader(data))
			if err != nil {
				return fmt.Errorf("%w: bad compressed element: %s", ErrFormat, err)
			}
			inflated, err := io.ReadAll(zr)
			zr.Close()
			if err != nil {
				return fmt.Errorf("%w: bad compressed element: %s", ErrFormat, err)
			}
			if err := matElements(inflated, vars); err != nil {
				return err
			}
		default:
			// skip
		}
		off = next
	}
	return nil
}

// matElement reads the element at off, handling the small-data layout where
// type and size share the first word.
func matElement(buf []byte, off int) (etype uint32, data []byte, next int, err error) {
	if len(buf) < off+8 {
		return 0, nil, 0, fmt.Errorf("%w: MAT element tag is truncated", ErrFormat)
	}
	word := binary.LittleEndian.Uint32(buf[off:])
	if small := word >> 16; small != 0 {
		if 4 < small {
			return 0, nil, 0, fmt.Errorf("%w: small element claims %d bytes", ErrFormat, small)
		}
		return word & 0xFFFF, buf[off+4 : off+4+int(small)], off + 8, nil
	}

	size := int(binary.LittleEndian.Uint32(buf[off+4:]))
	if len(buf) < off+8+size {
		return 0, nil, 0, fmt.Errorf("%w: MAT element data is truncated", ErrFormat)
	}
	data = buf[off+8 : off+8+size]
	next = off + 8 + size
	// compressed elements are the one kind not padded to 8 bytes
	if word != miCOMPRESSED {
		if pad := (8 - size%8) % 8; pad != 0 {
			next += pad
			if len(buf) < next {
				next = len(buf)
			}
		}
	}
	return word, data, next, nil
}

// matMatrix parses one miMATRIX element. ok is false for variables this
// decoder deliberately ignores (char arrays, cells, structs and so on).
func matMatrix(data []byte) (string, matVar, bool, error) {
	off := 0

	ftype, fdata, next, err := matElement(data, off)
	if err != nil {
		return "", matVar{}, false, err
	}
	if ftype != miUINT32 || len(fdata) < 8 {
		return "", matVar{}, false, fmt.Errorf("%w: malformed array flags", ErrFormat)
	}
	flags := binary.LittleEndian.Uint32(fdata)
	class := flags & 0xFF
	off = next

	dtype, ddata, next, err := matElement(data, off)
	if err != nil {
		return "", matVar{}, false, err
	}
	if dtype != miINT32 {
		return "", matVar{}, false, fmt.Errorf("%w: malformed dimensions element", ErrFormat)
	}
	dims := make([]int, len(ddata)/4)
	count := 1
	for i := range dims {
		dims[i] = int(int32(binary.LittleEndian.Uint32(ddata[i*4:])))
		if dims[i] < 0 {
			return "", matVar{}, false, fmt.Errorf("%w: negative dimension %d", ErrFormat, dims[i])
		}
		count *= dims[i]
	}
	off = next

	ntype, ndata, next, err := matElement(data, off)
	if err != nil {
		return "", matVar{}, false, err
	}
	if ntype != miINT8 {
		return "", matVar{}, false, fmt.Errorf("%w: malformed array name element", ErrFormat)
	}
	name := string(ndata)
	off = next

	if class == mxSPARSE {
		return "", matVar{}, false, fmt.Errorf(
			"%w: variable %q is a MATLAB sparse array; provide I/J/V vectors instead",
			ErrFormat, name,
		)
	}
	if class < mxDOUBLE || mxUINT64 < class {
		// char arrays, cells, structs, objects: not problem data
		return "", matVar{}, false, nil
	}
	if flags&0x0800 != 0 {
		return "", matVar{}, false, fmt.Errorf("%w: variable %q is complex", ErrFormat, name)
	}

	vtype, vdata, _, err := matElement(data, off)
	if err != nil {
		return "", matVar{}, false, err
	}
	values, err := matNumbers(vtype, vdata)
	if err != nil {
		return "", matVar{}, false, fmt.Errorf("variable %q: %w", name, err)
	}
	if len(values) != count {
		return "", matVar{}, false, fmt.Errorf(
			"%w: variable %q has %d values for dimensions %v", ErrFormat, name, len(values), dims,
		)
	}

	return name, matVar{dims: dims, values: values}, true, nil
}

func matNumbers(etype uint32, data []byte) ([]float64, error) {
	widen := func(size int, get func(i int) float64) []float64 {
		out := make([]float64, len(data)/size)
		for i := range out {
			out[i] = get(i)
		}
		return out
	}
	le := binary.LittleEndian
	switch etype {
	case miDOUBLE:
		return widen(8, func(i int) float64 { return math.Float64frombits(le.Uint64(data[i*8:])) }), nil
	case miSINGLE:
		return widen(4, func(i int) float64 { return float64(math.Float32frombits(le.Uint32(data[i*4:]))) }), nil
	case miINT8:
		return widen(1, func(i int) float64 { return float64(int8(data[i])) }), nil
	case miUINT8:
		return widen(1, func(i int) float64 { return float64(data[i]) }), nil
	case miINT16:
		return widen(2, func(i int) float64 { return float64(int16(le.Uint16(data[i*2:]))) }), nil
	case miUINT16:
		return widen(2, func(i int) float64 { return float64(le.Uint16(data[i*2:])) }), nil
	case miINT32:
		return widen(4, func(i int) float64 { return float64(int32(le.Uint32(data[i*4:]))) }), nil
	case miUINT32:
		return widen(4, func(i int) float64 { return float64(le.Uint32(data[i*4:])) }), nil
	case miINT64:
		return widen(8, func(i int) float64 { return float64(int64(le.Uint64(data[i*8:]))) }), nil
	case miUINT64:
		return widen(8, func(i int) float64 { return float64(le.Uint64(data[i*8:])) }), nil
	}
	return nil, fmt.Errorf("%w: numeric type %d is not supported", ErrFormat, etype)
}

func assembleMAT(vars map[string]matVar) (ising.Model, error) {
	var biases []float64
	if b, ok := vars["biases"]; ok {
		biases = b.values
	}

	if c, ok := vars["couplings"]; ok {
		if len(c.dims) != 2 || c.dims[0] != c.dims[1] {
			return ising.Model{}, fmt.Errorf(
				"%w: couplings dimensions %v are not square", ErrFormat, c.dims,
			)
		}
		l := c.dims[0]
		matrix := make([][]float64, l)
		for row := range matrix {
			matrix[row] = make([]float64, l)
			for col := range matrix[row] {
				matrix[row][col] = c.values[col*l+row]
			}
		}
		m, err := ising.Dense(biases, matrix)
		if err != nil {
			return ising.Model{}, fmt.Errorf("%w: %s", ErrFormat, err)
		}
		return m, nil
	}

	iv, iok := vars["I"]
	jv, jok := vars["J"]
	vv, vok := vars["V"]
	if !iok || !jok || !vok {
		return ising.Model{}, fmt.Errorf(
			"%w: MAT-file holds neither couplings nor I/J/V variables", ErrFormat,
		)
	}
	rows, err := intIndexes("I", iv.values)
	if err != nil {
		return ising.Model{}, err
	}
	cols, err := intIndexes("J", jv.values)
	if err != nil {
		return ising.Model{}, err
	}
	return cooToModel(0, rows, cols, vv.values, biases)
}

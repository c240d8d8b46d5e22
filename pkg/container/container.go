// Package container implements the hierarchical binary container used for
// problem uploads and job results: nested named groups holding typed,
// shaped datasets.
//
// Layout, all little-endian:
//
//	file    = magic "VXQC" | version u8 | group
//	group   = count uvarint | { name-len uvarint | name | kind u8 | body }...
//	dataset = dtype u8 | ndim u8 | dims uvarint... | packed values
package container

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

var ErrMalformed = errors.New("malformed container")

const (
	Magic   = "VXQC"
	Version = 1
)

const (
	kindGroup   = 1
	kindDataset = 2

	// sanity bounds of the format
	maxDims         = 8
	maxNameLen      = 4096
	maxEntries      = 1 << 16
	maxDatasetBytes = 1 << 30
	maxDepth        = 32
)

// Encode writes root and everything below it to w.
func Encode(w io.Writer, root *Group) error {
	e := &encoder{w: bufio.NewWriter(w)}
	e.write([]byte(Magic))
	e.byte(Version)
	e.group(root, 0)
	if e.err != nil {
		return e.err
	}
	return e.w.Flush()
}

type encoder struct {
	w   *bufio.Writer
	err error
}

func (e *encoder) write(p []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(p)
}

func (e *encoder) byte(b byte) {
	if e.err != nil {
		return
	}
	e.err = e.w.WriteByte(b)
}

func (e *encoder) uvarint(v uint64) {
	if e.err != nil {
		return
	}
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(buf, v)
	_, e.err = e.w.Write(buf[:n])
}

func (e *encoder) group(g *Group, depth int) {
	if e.err != nil {
		return
	}
	if maxDepth < depth {
		e.err = fmt.Errorf("%w: groups nested deeper than %d", ErrMalformed, maxDepth)
		return
	}
	e.uvarint(uint64(len(g.order)))
	for _, name := range g.order {
		e.uvarint(uint64(len(name)))
		e.write([]byte(name))
		if sub, ok := g.groups[name]; ok {
			e.byte(kindGroup)
			e.group(sub, depth+1)
			continue
		}
		e.byte(kindDataset)
		e.dataset(g.datasets[name])
	}
}

func (e *encoder) dataset(d *Dataset) {
	e.byte(byte(d.dtype))
	e.byte(byte(len(d.shape)))
	for _, dim := range d.shape {
		e.uvarint(uint64(dim))
	}
	switch v := d.data.(type) {
	case []float64:
		buf := make([]byte, 8)
		for _, x := range v {
			binary.LittleEndian.PutUint64(buf, math.Float64bits(x))
			e.write(buf)
		}
	case []float32:
		buf := make([]byte, 4)
		for _, x := range v {
			binary.LittleEndian.PutUint32(buf, math.Float32bits(x))
			e.write(buf)
		}
	case []int64:
		buf := make([]byte, 8)
		for _, x := range v {
			binary.LittleEndian.PutUint64(buf, uint64(x))
			e.write(buf)
		}
	case []int8:
		for _, x := range v {
			e.byte(byte(x))
		}
	case []byte:
		e.write(v)
	default:
		if e.err == nil {
			e.err = fmt.Errorf("%w: dataset holds no data", ErrMalformed)
		}
	}
}

// Decode reads one container from r.
//
// Bytes after the root group, if any, are left unread.
func Decode(r io.Reader) (*Group, error) {
	d := &decoder{r: bufio.NewReader(r)}

	head := make([]byte, len(Magic)+1)
	if _, err := io.ReadFull(d.r, head); err != nil {
		return nil, fmt.Errorf("%w: missing header: %s", ErrMalformed, err)
	}
	if string(head[:len(Magic)]) != Magic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrMalformed, head[:len(Magic)])
	}
	if head[len(Magic)] != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformed, head[len(Magic)])
	}

	root := NewGroup()
	if err := d.group(root, 0); err != nil {
		return nil, err
	}
	return root, nil
}

type decoder struct {
	r *bufio.Reader
}

func (d *decoder) uvarint(limit uint64) (int, error) {
	v, err := binary.ReadUvarint(d.r)
	if err != nil {
		return 0, fmt.Errorf("%w: truncated: %s", ErrMalformed, err)
	}
	if limit < v {
		return 0, fmt.Errorf("%w: value %d exceeds limit %d", ErrMalformed, v, limit)
	}
	return int(v), nil
}

func (d *decoder) group(g *Group, depth int) error {
	if maxDepth < depth {
		return fmt.Errorf("%w: groups nested deeper than %d", ErrMalformed, maxDepth)
	}

	count, err := d.uvarint(maxEntries)
	if err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		nameLen, err := d.uvarint(maxNameLen)
		if err != nil {
			return err
		}
		name := make([]byte, nameLen)
		if _, err := io.ReadFull(d.r, name); err != nil {
			return fmt.Errorf("%w: truncated entry name: %s", ErrMalformed, err)
		}
		if _, ok := g.groups[string(name)]; ok {
			return fmt.Errorf("%w: duplicated entry %q", ErrMalformed, name)
		}
		if _, ok := g.datasets[string(name)]; ok {
			return fmt.Errorf("%w: duplicated entry %q", ErrMalformed, name)
		}

		kind, err := d.r.ReadByte()
		if err != nil {
			return fmt.Errorf("%w: truncated: %s", ErrMalformed, err)
		}
		switch kind {
		case kindGroup:
			sub := g.PutGroup(string(name))
			if err := d.group(sub, depth+1); err != nil {
				return err
			}
		case kindDataset:
			ds, err := d.dataset()
			if err != nil {
				return fmt.Errorf("dataset %q: %w", name, err)
			}
			g.Put(string(name), ds)
		default:
			return fmt.Errorf("%w: unknown entry kind %d", ErrMalformed, kind)
		}
	}
	return nil
}

func (d *decoder) dataset() (*Dataset, error) {
	tb, err := d.r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: truncated: %s", ErrMalformed, err)
	}
	dtype := DType(tb)
	switch dtype {
	case Float64, Float32, Int64, Int8, Bytes:
	default:
		return nil, fmt.Errorf("%w: unknown dtype %d", ErrMalformed, tb)
	}

	nd, err := d.r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: truncated: %s", ErrMalformed, err)
	}
	if maxDims < int(nd) {
		return nil, fmt.Errorf("%w: %d dimensions (limit %d)", ErrMalformed, nd, maxDims)
	}
	shape := make([]int, nd)
	for i := range shape {
		if shape[i], err = d.uvarint(maxDatasetBytes); err != nil {
			return nil, err
		}
	}
	count, err := shapeLen(shape)
	if err != nil {
		return nil, err
	}
	if maxDatasetBytes/dtype.size() < count {
		return nil, fmt.Errorf("%w: shape %v is too large for %s", ErrMalformed, shape, dtype)
	}

	raw, err := d.packed(count * dtype.size())
	if err != nil {
		return nil, err
	}

	var data any
	switch dtype {
	case Float64:
		v := make([]float64, count)
		for i := range v {
			v[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
		}
		data = v
	case Float32:
		v := make([]float32, count)
		for i := range v {
			v[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		}
		data = v
	case Int64:
		v := make([]int64, count)
		for i := range v {
			v[i] = int64(binary.LittleEndian.Uint64(raw[i*8:]))
		}
		data = v
	case Int8:
		v := make([]int8, count)
		for i := range v {
			v[i] = int8(raw[i])
		}
		data = v
	case Bytes:
		data = raw
	}
	return &Dataset{dtype: dtype, shape: shape, data: data}, nil
}

// packed reads exactly total bytes, growing the buffer as bytes actually
// arrive so a lying shape cannot allocate the whole claimed payload up front.
func (d *decoder) packed(total int) ([]byte, error) {
	out := make([]byte, 0, min(total, 1<<20))
	buf := make([]byte, 64*1024)
	for len(out) < total {
		n := min(len(buf), total-len(out))
		if _, err := io.ReadFull(d.r, buf[:n]); err != nil {
			return nil, fmt.Errorf("%w: truncated dataset: %s", ErrMalformed, err)
		}
		out = append(out, buf[:n]...)
	}
	return out, nil
}

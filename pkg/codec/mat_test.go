package codec_test

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/veloxq/veloxq-go/pkg/codec"
	"github.com/veloxq/veloxq-go/pkg/utils/try"
)

// builders for Level 5 MAT-file streams, enough to feed the decoder.

func matHeader() *bytes.Buffer {
	b := bytes.NewBuffer(nil)
	desc := make([]byte, 116)
	copy(desc, "MATLAB 5.0 MAT-file, Platform: test")
	for i := range desc {
		if desc[i] == 0 {
			desc[i] = ' '
		}
	}
	b.Write(desc)
	b.Write(make([]byte, 8)) // subsystem data offset
	b.Write([]byte{0x00, 0x01})
	b.Write([]byte("IM"))
	return b
}

func matTag(b *bytes.Buffer, etype, size uint32) {
	binary.Write(b, binary.LittleEndian, etype)
	binary.Write(b, binary.LittleEndian, size)
}

func matPad(b *bytes.Buffer) {
	for b.Len()%8 != 0 {
		b.WriteByte(0)
	}
}

// matVariable builds one miMATRIX element. Values go in column-major order,
// written with the given numeric element type (9 = miDOUBLE, 5 = miINT32).
func matVariable(class uint32, name string, dims []int32, etype uint32, values []float64) []byte {
	sub := bytes.NewBuffer(nil)

	matTag(sub, 6, 8) // array flags, miUINT32 x2
	binary.Write(sub, binary.LittleEndian, class)
	binary.Write(sub, binary.LittleEndian, uint32(0))

	matTag(sub, 5, uint32(4*len(dims))) // dimensions, miINT32
	for _, d := range dims {
		binary.Write(sub, binary.LittleEndian, d)
	}
	matPad(sub)

	matTag(sub, 1, uint32(len(name))) // name, miINT8
	sub.WriteString(name)
	matPad(sub)

	switch etype {
	case 9:
		matTag(sub, etype, uint32(8*len(values)))
		for _, v := range values {
			binary.Write(sub, binary.LittleEndian, math.Float64bits(v))
		}
	case 5:
		matTag(sub, etype, uint32(4*len(values)))
		for _, v := range values {
			binary.Write(sub, binary.LittleEndian, int32(v))
		}
	}
	matPad(sub)

	out := bytes.NewBuffer(nil)
	matTag(out, 14, uint32(sub.Len())) // miMATRIX
	out.Write(sub.Bytes())
	return out.Bytes()
}

func matCompressed(element []byte) []byte {
	z := bytes.NewBuffer(nil)
	zw := zlib.NewWriter(z)
	zw.Write(element)
	zw.Close()

	out := bytes.NewBuffer(nil)
	matTag(out, 15, uint32(z.Len())) // miCOMPRESSED
	out.Write(z.Bytes())
	return out.Bytes()
}

func TestDecodeMAT(t *testing.T) {
	t.Run("dense couplings with biases", func(t *testing.T) {
		f := matHeader()
		f.Write(matVariable(6, "biases", []int32{1, 3}, 9, []float64{1, -1, 0}))
		f.Write(matVariable(6, "couplings", []int32{3, 3}, 9, []float64{
			0, -1, 0,
			-1, 0, -1,
			0, -1, 0,
		}))

		m := try.To(codec.DecodeModel(bytes.NewReader(f.Bytes()), codec.MATLAB)).OrFatal(t)

		if m.Size() != 3 || m.IsSparse() {
			t.Fatalf("unexpected model: size %d, sparse %v", m.Size(), m.IsSparse())
		}
		if b := m.Biases(); b[0] != 1 || b[1] != -1 || b[2] != 0 {
			t.Errorf("unexpected biases: %v", b)
		}
		if m.Edge(0, 1) != -1 || m.Edge(0, 2) != 0 {
			t.Errorf("unexpected edges: %f, %f", m.Edge(0, 1), m.Edge(0, 2))
		}
	})

	t.Run("I/J/V triplet vectors", func(t *testing.T) {
		f := matHeader()
		f.Write(matVariable(6, "I", []int32{1, 3}, 9, []float64{0, 1, 0}))
		f.Write(matVariable(6, "J", []int32{1, 3}, 9, []float64{1, 2, 0}))
		f.Write(matVariable(6, "V", []int32{1, 3}, 9, []float64{0.5, 1.5, 2}))

		m := try.To(codec.DecodeModel(bytes.NewReader(f.Bytes()), codec.MATLAB)).OrFatal(t)

		if !m.IsSparse() || m.Size() != 3 {
			t.Fatalf("unexpected model: size %d, sparse %v", m.Size(), m.IsSparse())
		}
		if b := m.Biases(); b[0] != 2 {
			t.Errorf("diagonal entry is not folded into biases: %v", b)
		}
		if m.Edge(0, 1) != 0.5 || m.Edge(1, 2) != 1.5 {
			t.Errorf("unexpected edges: %f, %f", m.Edge(0, 1), m.Edge(1, 2))
		}
	})

	t.Run("integer-narrowed values widen back to float", func(t *testing.T) {
		f := matHeader()
		f.Write(matVariable(6, "couplings", []int32{2, 2}, 5, []float64{0, 2, 2, 0}))

		m := try.To(codec.DecodeModel(bytes.NewReader(f.Bytes()), codec.MATLAB)).OrFatal(t)
		if m.Edge(0, 1) != 2 {
			t.Errorf("unexpected edge (0, 1): %f", m.Edge(0, 1))
		}
	})

	t.Run("compressed elements are inflated", func(t *testing.T) {
		f := matHeader()
		f.Write(matCompressed(matVariable(6, "couplings", []int32{2, 2}, 9, []float64{0, -3, -3, 0})))

		m := try.To(codec.DecodeModel(bytes.NewReader(f.Bytes()), codec.MATLAB)).OrFatal(t)
		if m.Edge(0, 1) != -3 {
			t.Errorf("unexpected edge (0, 1): %f", m.Edge(0, 1))
		}
	})

	t.Run("unrelated variables are ignored", func(t *testing.T) {
		f := matHeader()
		f.Write(matVariable(4, "readme", []int32{1, 2}, 9, []float64{65, 66})) // mxCHAR
		f.Write(matVariable(6, "couplings", []int32{2, 2}, 9, []float64{0, 1, 1, 0}))

		if _, err := codec.DecodeModel(bytes.NewReader(f.Bytes()), codec.MATLAB); err != nil {
			t.Errorf("unexpected error: %s", err)
		}
	})

	theoryNg := func(build func() []byte, hint string) func(*testing.T) {
		return func(t *testing.T) {
			_, err := codec.DecodeModel(bytes.NewReader(build()), codec.MATLAB)
			if !errors.Is(err, codec.ErrFormat) {
				t.Fatalf("unexpected error: %v", err)
			}
			if hint != "" && !strings.Contains(err.Error(), hint) {
				t.Errorf("error %q does not mention %q", err, hint)
			}
		}
	}

	t.Run("truncated header", theoryNg(func() []byte {
		return []byte("MATLAB 5.0")
	}, ""))
	t.Run("big-endian file", theoryNg(func() []byte {
		f := matHeader()
		b := f.Bytes()
		copy(b[126:128], "MI")
		return b
	}, "big-endian"))
	t.Run("MATLAB sparse array", theoryNg(func() []byte {
		f := matHeader()
		f.Write(matVariable(5, "couplings", []int32{2, 2}, 9, []float64{0, 1, 1, 0}))
		return f.Bytes()
	}, "sparse"))
	t.Run("no recognized variables", theoryNg(func() []byte {
		f := matHeader()
		f.Write(matVariable(6, "other", []int32{1, 1}, 9, []float64{1}))
		return f.Bytes()
	}, "couplings"))
	t.Run("non-square couplings", theoryNg(func() []byte {
		f := matHeader()
		f.Write(matVariable(6, "couplings", []int32{1, 2}, 9, []float64{1, 2}))
		return f.Bytes()
	}, "square"))
}

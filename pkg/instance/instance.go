// Package instance turns user-supplied problem shapes into uploadable
// payloads.
//
// Normalize accepts the documented input shapes (an already-uploaded
// file, a local path or raw content, bias/coupling terms in slices,
// arrays or maps, or a quadratic model) and produces either a payload
// ready for upload or the existing file to reuse. Normalization is
// stateless and safe for concurrent use.
package instance

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/veloxq/veloxq-go/pkg/codec"
	"github.com/veloxq/veloxq-go/pkg/files"
	"github.com/veloxq/veloxq-go/pkg/ising"
	vio "github.com/veloxq/veloxq-go/pkg/utils/io"
)

var ErrUnrecognizedInstance = errors.New("unrecognized instance shape")

// sniffLen bounds how much content Sniff gets to look at.
const sniffLen = 512

// Ising passes bias and coupling terms explicitly.
//
// Biases takes a numeric slice or array, or a map from variable index
// to number. Couplings takes a dense square matrix (slice or array of
// numeric rows) or a map from a two-int pair to number. Either field
// may be nil, not both. Diagonal couplings fold into biases.
type Ising struct {
	Biases    any
	Couplings any
}

// QuadraticModel is the capability set a model object must expose to be
// submitted directly.
//
// Diagonal quadratic terms fold into the linear terms. Variables may
// report 0; the size is then inferred from the terms.
type QuadraticModel interface {
	Variables() int
	LinearTerms() map[int]float64
	QuadraticTerms() map[[2]int]float64
}

// Normalized is the outcome of Normalize: exactly one of File (an
// existing remote file to reuse as-is) and Payload is set.
type Normalized struct {
	File    *files.File
	Payload files.Payload
}

// Normalize coerces value into an uploadable form.
//
// # Args
//
// - value: one of *files.File, files.Payload, a path string, []byte,
// io.Reader, ising.Model, Ising, a QuadraticModel, or a string-keyed
// map with "biases" and "couplings" (or "coupling") entries.
//
// - name: upload name. When empty, raw content keeps its file name and
// synthesized content gets a content-hash name, so byte-identical
// unnamed inputs collide on the same upload target.
//
// # Returns
//
// - Normalized
//
// - error: ErrUnrecognizedInstance when value matches no documented
// shape, codec errors when content does not validate.
func Normalize(value any, name string) (Normalized, error) {
	switch x := value.(type) {
	case *files.File:
		return Normalized{File: x}, nil
	case files.Payload:
		if name != "" {
			x.Name = name
		}
		return Normalized{Payload: x}, nil
	case string:
		return fromPath(x, name)
	case []byte:
		return fromBytes(x, name)
	case io.Reader:
		content, err := io.ReadAll(x)
		if err != nil {
			return Normalized{}, fmt.Errorf("reading instance content: %w", err)
		}
		return fromBytes(content, name)
	case ising.Model:
		return fromModel(x, name)
	case *ising.Model:
		if x == nil {
			return Normalized{}, fmt.Errorf("%w: (*ising.Model)(nil)", ErrUnrecognizedInstance)
		}
		return fromModel(*x, name)
	case Ising:
		return fromTerms(x.Biases, x.Couplings, name)
	case QuadraticModel:
		return fromQuadratic(x, name)
	}

	if biases, couplings, ok := dictTerms(value); ok {
		return fromTerms(biases, couplings, name)
	}
	return Normalized{}, fmt.Errorf("%w: %T", ErrUnrecognizedInstance, value)
}

// dictTerms unpacks a string-keyed mapping holding "biases" and
// "couplings" (or "coupling") entries, whatever its value type is.
func dictTerms(value any) (biases any, couplings any, ok bool) {
	v := reflectMap(value)
	if v == nil {
		return nil, nil, false
	}

	biases, hasBiases := v["biases"]
	couplings, hasCouplings := v["couplings"]
	if !hasCouplings {
		couplings, hasCouplings = v["coupling"]
	}
	return biases, couplings, hasBiases || hasCouplings
}

func fromModel(m ising.Model, name string) (Normalized, error) {
	if m.Size() == 0 {
		return Normalized{}, fmt.Errorf("%w: empty ising.Model", ErrUnrecognizedInstance)
	}

	buf := bytes.NewBuffer(nil)
	hasher := vio.NewSHA256Writer(buf)
	if err := codec.Encode(hasher, m); err != nil {
		return Normalized{}, err
	}

	return Normalized{
		Payload: files.InMemory(encodedName(name, hasher.Sum()), buf.Bytes()),
	}, nil
}

func fromTerms(biases any, couplings any, name string) (Normalized, error) {
	b, err := coerceBiases(biases)
	if err != nil {
		return Normalized{}, err
	}
	c, err := coerceCouplings(couplings)
	if err != nil {
		return Normalized{}, err
	}

	m, err := buildModel(b, c, 0)
	if err != nil {
		return Normalized{}, err
	}
	return fromModel(m, name)
}

func fromQuadratic(q QuadraticModel, name string) (Normalized, error) {
	b := biasTerms{idx: q.LinearTerms()}

	edges := make(map[ising.Pair]float64)
	for k, v := range q.QuadraticTerms() {
		edges[ising.PairOf(k[0], k[1])] += v
	}

	m, err := buildModel(b, couplingTerms{edges: edges}, q.Variables())
	if err != nil {
		return Normalized{}, err
	}
	return fromModel(m, name)
}

// buildModel assembles an ising.Model out of coerced terms. atLeast, when
// positive, forces a minimum model size for sparse inputs.
func buildModel(b biasTerms, c couplingTerms, atLeast int) (ising.Model, error) {
	if b.empty() && c.empty() {
		return ising.Model{}, fmt.Errorf("%w: neither biases nor couplings", ErrUnrecognizedInstance)
	}

	if c.dense != nil {
		vec, err := b.vector(len(c.dense))
		if err != nil {
			return ising.Model{}, err
		}
		return ising.Dense(vec, c.dense)
	}

	n := b.minSize()
	if s := c.minSize(); n < s {
		n = s
	}
	if n < atLeast {
		n = atLeast
	}

	vec, err := b.vector(n)
	if err != nil {
		return ising.Model{}, err
	}

	// pull diagonal couplings over to biases
	edges := make(map[ising.Pair]float64, len(c.edges))
	for p, v := range c.edges {
		if p[0] != p[1] {
			edges[p] = v
			continue
		}
		if vec == nil {
			vec = make([]float64, n)
		}
		vec[p[0]] += v
	}

	return ising.Sparse(n, vec, edges)
}

func fromBytes(content []byte, name string) (Normalized, error) {
	format, err := formatOf(name, content)
	if err != nil {
		return Normalized{}, err
	}
	if err := codec.Validate(bytes.NewReader(content), format); err != nil {
		return Normalized{}, err
	}

	if name == "" {
		name = contentHashName(content, format)
	} else if filepath.Ext(name) == "" {
		name += format.Extension()
	}
	return Normalized{Payload: files.InMemory(name, content)}, nil
}

func fromPath(path string, name string) (Normalized, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return Normalized{}, fmt.Errorf("reading instance %s: %w", path, err)
	}
	if stat.IsDir() {
		return Normalized{}, fmt.Errorf("%w: %s is a directory", ErrUnrecognizedInstance, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return Normalized{}, fmt.Errorf("reading instance %s: %w", path, err)
	}
	defer f.Close()

	var src io.Reader = f
	format, err := codec.FormatForPath(path)
	if err != nil {
		head := make([]byte, sniffLen)
		n, rerr := io.ReadFull(f, head)
		if rerr != nil && rerr != io.ErrUnexpectedEOF && rerr != io.EOF {
			return Normalized{}, fmt.Errorf("reading instance %s: %w", path, rerr)
		}
		if format, err = codec.Sniff(head[:n]); err != nil {
			return Normalized{}, err
		}
		src = io.MultiReader(bytes.NewReader(head[:n]), f)
	}
	if err := codec.Validate(src, format); err != nil {
		return Normalized{}, fmt.Errorf("validating %s: %w", path, err)
	}

	if name == "" {
		name = filepath.Base(path)
	}
	if filepath.Ext(name) == "" {
		name += format.Extension()
	}

	return Normalized{
		Payload: files.Payload{
			Name: name,
			Size: stat.Size(),
			Open: func() (io.ReadCloser, error) { return os.Open(path) },
		},
	}, nil
}

// formatOf resolves the content format, by the name's extension when it
// has a known one, by sniffing otherwise.
func formatOf(name string, content []byte) (codec.Format, error) {
	if name != "" {
		if format, err := codec.FormatForPath(name); err == nil {
			return format, nil
		}
	}

	head := content
	if sniffLen < len(head) {
		head = head[:sniffLen]
	}
	return codec.Sniff(head)
}

func contentHashName(content []byte, format codec.Format) string {
	hasher := vio.NewSHA256Writer(io.Discard)
	hasher.Write(content)
	return hex.EncodeToString(hasher.Sum()) + format.Extension()
}

// encodedName names a synthesized payload: the given name truncated at its
// first dot, or the content hash, always with the canonical extension.
func encodedName(name string, sum []byte) string {
	if name == "" {
		return hex.EncodeToString(sum) + codec.Container.Extension()
	}
	if i := strings.IndexByte(name, '.'); 0 <= i {
		name = name[:i]
	}
	return name + codec.Container.Extension()
}

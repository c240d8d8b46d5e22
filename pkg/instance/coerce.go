package instance

import (
	"fmt"
	"reflect"

	"github.com/veloxq/veloxq-go/pkg/ising"
)

// biasTerms is a coerced bias input: a vector, an index-keyed map, or
// neither when the input was nil.
type biasTerms struct {
	vec []float64
	idx map[int]float64
}

func (b biasTerms) empty() bool {
	return b.vec == nil && len(b.idx) == 0
}

// minSize returns the smallest model size covering every bias index.
func (b biasTerms) minSize() int {
	n := len(b.vec)
	for i := range b.idx {
		if n <= i {
			n = i + 1
		}
	}
	return n
}

// vector lays the terms out as a slice of length n.
func (b biasTerms) vector(n int) ([]float64, error) {
	if b.empty() {
		return nil, nil
	}

	vec := make([]float64, n)
	copy(vec, b.vec)
	for i, v := range b.idx {
		if i < 0 || n <= i {
			return nil, fmt.Errorf(
				"%w: bias index %d is out of range [0, %d)", ising.ErrInvalidModel, i, n,
			)
		}
		vec[i] += v
	}
	return vec, nil
}

func coerceBiases(value any) (biasTerms, error) {
	if value == nil {
		return biasTerms{}, nil
	}
	if vec, ok := numberSlice(value); ok {
		return biasTerms{vec: vec}, nil
	}
	if idx, ok := indexNumberMap(value); ok {
		return biasTerms{idx: idx}, nil
	}
	return biasTerms{}, fmt.Errorf("%w: biases of type %T", ErrUnrecognizedInstance, value)
}

// couplingTerms is a coerced coupling input: a dense square matrix or a
// pair-keyed edge map. Diagonal entries are kept as-is here; the
// normalizer folds them into biases.
type couplingTerms struct {
	dense [][]float64
	edges map[ising.Pair]float64
}

func (c couplingTerms) empty() bool {
	return c.dense == nil && len(c.edges) == 0
}

func (c couplingTerms) minSize() int {
	n := len(c.dense)
	for p := range c.edges {
		if n <= p[1] {
			n = p[1] + 1
		}
	}
	return n
}

func coerceCouplings(value any) (couplingTerms, error) {
	if value == nil {
		return couplingTerms{}, nil
	}
	if dense, ok := numberMatrix(value); ok {
		return couplingTerms{dense: dense}, nil
	}
	if edges, ok := pairNumberMap(value); ok {
		return couplingTerms{edges: edges}, nil
	}
	return couplingTerms{}, fmt.Errorf("%w: couplings of type %T", ErrUnrecognizedInstance, value)
}

// reflectMap converts any string-keyed map into map[string]any, so
// map[string][]float64 and friends dispatch like map[string]any.
func reflectMap(value any) map[string]any {
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Map || v.Type().Key().Kind() != reflect.String {
		return nil
	}

	out := make(map[string]any, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out
}

// number unwraps a reflected value to float64. Interface cells (as in
// []any) are dereferenced first.
func number(v reflect.Value) (float64, bool) {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return 0, false
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}

func index(v reflect.Value) (int, bool) {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return 0, false
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(v.Uint()), true
	}
	return 0, false
}

// numberSlice accepts any slice or array of numbers.
func numberSlice(value any) ([]float64, bool) {
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, false
	}

	out := make([]float64, v.Len())
	for i := 0; i < v.Len(); i++ {
		f, ok := number(v.Index(i))
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

// numberMatrix accepts any slice or array of numeric rows.
func numberMatrix(value any) ([][]float64, bool) {
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, false
	}
	if v.Len() == 0 {
		return nil, false
	}

	out := make([][]float64, v.Len())
	for i := 0; i < v.Len(); i++ {
		row := v.Index(i)
		if row.Kind() == reflect.Interface {
			if row.IsNil() {
				return nil, false
			}
			row = row.Elem()
		}
		cells, ok := numberSlice(row.Interface())
		if !ok {
			return nil, false
		}
		out[i] = cells
	}
	return out, true
}

// indexNumberMap accepts any map from integer index to number.
func indexNumberMap(value any) (map[int]float64, bool) {
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Map {
		return nil, false
	}

	out := make(map[int]float64, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		i, ok := index(iter.Key())
		if !ok {
			return nil, false
		}
		f, ok := number(iter.Value())
		if !ok {
			return nil, false
		}
		out[i] += f
	}
	return out, true
}

// pairNumberMap accepts any map from a two-int key to number. Keys of
// different order for the same unordered pair accumulate.
func pairNumberMap(value any) (map[ising.Pair]float64, bool) {
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Map {
		return nil, false
	}

	out := make(map[ising.Pair]float64, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		key := iter.Key()
		if key.Kind() == reflect.Interface {
			if key.IsNil() {
				return nil, false
			}
			key = key.Elem()
		}
		if key.Kind() != reflect.Array || key.Len() != 2 {
			return nil, false
		}
		i, ok := index(key.Index(0))
		if !ok {
			return nil, false
		}
		j, ok := index(key.Index(1))
		if !ok {
			return nil, false
		}
		f, ok := number(iter.Value())
		if !ok {
			return nil, false
		}
		out[ising.PairOf(i, j)] += f
	}
	return out, true
}

// Package utils holds small generic slice helpers shared across the SDK.
package utils

import (
	"sort"
)

// Map applies mapper to each element and collects the results in order.
func Map[T any, R any](sli []T, mapper func(v T) R) []R {
	out := make([]R, len(sli))
	for i, v := range sli {
		out[i] = mapper(v)
	}
	return out
}

// MapUntilError maps like Map but stops at the first mapper error.
//
// # Returns
//
// - []R: the mapped slice, nil when any element failed.
//
// - error: the first error mapper returned.
func MapUntilError[T any, R any](sli []T, mapper func(v T) (R, error)) ([]R, error) {
	out := make([]R, len(sli))
	for i, v := range sli {
		r, err := mapper(v)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// Filter returns the elements pred accepts, keeping their order.
func Filter[T any](sli []T, pred func(T) bool) []T {
	out := []T{}
	for _, v := range sli {
		if pred(v) {
			out = append(out, v)
		}
	}
	return out
}

// First returns the first element pred accepts.
//
// # Returns
//
// - T: the matching element, or the zero value.
//
// - bool: false when nothing matched.
func First[T any](sli []T, pred func(T) bool) (T, bool) {
	for _, v := range sli {
		if pred(v) {
			return v, true
		}
	}
	return *new(T), false
}

// Sorted returns a sorted copy of sli, leaving the input untouched.
// The sort is not stable.
func Sorted[T any](sli []T, less func(a, b T) bool) []T {
	out := make([]T, len(sli))
	copy(out, sli)
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

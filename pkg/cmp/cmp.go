// Package cmp compares slices element-wise or as bags.
package cmp

// SliceEq reports whether a and b hold the same elements in the same
// order.
func SliceEq[T comparable](a, b []T) bool {
	return SliceEqWith(a, b, func(x, y T) bool { return x == y })
}

// SliceEqWith reports whether a and b match index by index under eq.
func SliceEqWith[A any, B any](a []A, b []B, eq func(a A, b B) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !eq(a[i], b[i]) {
			return false
		}
	}
	return true
}

// BagEqWith reports whether a and b hold equivalent elements regardless
// of order.
//
// Multiplicity counts: each element of a claims one so-far-unclaimed
// element of b, so {x, x, y} and {x, y, y} do not match even when all
// elements are pairwise equivalent somewhere.
func BagEqWith[A any, B any](a []A, b []B, eq func(a A, b B) bool) bool {
	if len(a) != len(b) {
		return false
	}

	claimed := make([]bool, len(b))
	for _, va := range a {
		found := false
		for i := range b {
			if claimed[i] || !eq(va, b[i]) {
				continue
			}
			claimed[i] = true
			found = true
			break
		}
		if !found {
			return false
		}
	}
	return true
}

package cmp

// SliceEqual checks two slices hold equal elements in the same order.
func SliceEqual[T interface{ Equal(T) bool }](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}

	return true
}

// SliceEqualWith checks two slices hold pairwise equal elements,
// deciding equality with pred.
func SliceEqualWith[T any](a, b []T, pred func(T, T) bool) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if !pred(a[i], b[i]) {
			return false
		}
	}

	return true
}

// MapEqualWith checks two maps hold the same keys and pairwise equal
// values, deciding equality with pred.
func MapEqualWith[K comparable, V any](a, b map[K]V, pred func(V, V) bool) bool {
	if len(a) != len(b) {
		return false
	}

	for k, va := range a {
		vb, ok := b[k]
		if !ok || !pred(va, vb) {
			return false
		}
	}

	return true
}

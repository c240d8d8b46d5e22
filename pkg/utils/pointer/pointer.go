// Package pointer takes addresses of values in expression position.
package pointer

// Ref returns a pointer to a copy of v. Handy for literal struct
// fields of pointer type.
func Ref[T any](v T) *T {
	return &v
}

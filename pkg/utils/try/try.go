// Package try collapses (value, error) pairs at call sites that cannot
// proceed on error, like test setup and program initialization.
package try

// Fataler is the part of *testing.T and *log.Logger that aborts with a
// message.
type Fataler interface {
	Fatal(...any)
}

// Either holds the outcome of a fallible call: a value, or the error
// that prevented it.
type Either[T any] struct {
	value T
	err   error
}

// To wraps a (value, error) pair, typically a call placed directly in
// the argument position:
//
//	f := try.To(os.Open(name)).OrFatal(t)
func To[T any](ok T, ng error) Either[T] {
	return Either[T]{value: ok, err: ng}
}

// OrFatal returns the value, or hands the error to ftl.Fatal.
//
// When ftl has a Helper method, as *testing.T does, it is called first
// so the failure points at the caller.
func (e Either[T]) OrFatal(ftl Fataler) T {
	if e.err == nil {
		return e.value
	}
	if h, ok := ftl.(interface{ Helper() }); ok {
		h.Helper()
	}
	ftl.Fatal(e.err)
	return *new(T)
}

// OrDefault returns the value, or d when the call failed.
func (e Either[T]) OrDefault(d T) T {
	if e.err != nil {
		return d
	}
	return e.value
}

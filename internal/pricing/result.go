package pricing

// State describes whether a derived value is usable yet.
type State int

const (
	// StateLoading means an input (usually the oracle rate) is not available yet.
	StateLoading State = iota
	// StateReady means the value was computed from live inputs.
	StateReady
	// StateErr means a dependency failed and the value must not be shown as zero.
	StateErr
)

// Result wraps a derived value so a missing rate reads as "still loading"
// instead of a free price.
type Result[T any] struct {
	state State
	value T
	err   error
}

// Ready wraps a computed value.
func Ready[T any](value T) Result[T] {
	return Result[T]{state: StateReady, value: value}
}

// Loading marks the value as not yet derivable.
func Loading[T any]() Result[T] {
	return Result[T]{state: StateLoading}
}

// Errf marks the value as failed.
func Errf[T any](err error) Result[T] {
	return Result[T]{state: StateErr, err: err}
}

// IsReady reports whether Value is safe to read.
func (r Result[T]) IsReady() bool {
	return r.state == StateReady
}

// IsLoading reports whether the inputs are still unavailable.
func (r Result[T]) IsLoading() bool {
	return r.state == StateLoading
}

// Err returns the failure cause, if any.
func (r Result[T]) Err() error {
	return r.err
}

// Value returns the computed value. Callers must check IsReady first;
// a non-ready result yields the zero value.
func (r Result[T]) Value() T {
	return r.value
}

// Map transforms a ready value, passing loading/error states through.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	switch r.state {
	case StateReady:
		return Ready(fn(r.value))
	case StateErr:
		return Errf[U](r.err)
	default:
		return Loading[U]()
	}
}

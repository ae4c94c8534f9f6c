package domain

import "fmt"

// Result is the uniform success/failure wrapper returned by store operations.
// Callers must check Err before trusting Data.
type Result[T any] struct {
	Data T
	Err  error
}

// OK reports whether the result carries no error.
func (r Result[T]) OK() bool { return r.Err == nil }

// Unwrap returns the payload and error as a conventional pair.
func (r Result[T]) Unwrap() (T, error) { return r.Data, r.Err }

// Try runs fn and captures both its error and any panic into a Result.
func Try[T any](fn func() (T, error)) (res Result[T]) {
	defer func() {
		if p := recover(); p != nil {
			var zero T
			res = Result[T]{Data: zero, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	data, err := fn()
	if err != nil {
		var zero T
		return Result[T]{Data: zero, Err: err}
	}
	return Result[T]{Data: data}
}

// Fail builds a failed Result without running anything.
func Fail[T any](err error) Result[T] {
	var zero T
	return Result[T]{Data: zero, Err: err}
}

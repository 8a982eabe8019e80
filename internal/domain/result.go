package domain

// Result carries either a value or a classified upstream failure.
type Result[T any] struct {
	val  T
	err  error
	kind FailureKind
	ok   bool
}

// Ok creates a successful Result.
func Ok[T any](v T) Result[T] {
	return Result[T]{val: v, ok: true}
}

// Fail creates a failed Result of the given kind.
func Fail[T any](kind FailureKind, err error) Result[T] {
	return Result[T]{err: err, kind: kind}
}

// FromPair creates a Result from a (value, error) pair, classifying the error with KindOf.
func FromPair[T any](v T, err error) Result[T] {
	if err != nil {
		return Fail[T](KindOf(err), err)
	}
	return Ok(v)
}

// IsOk returns true if the result is successful.
func (r Result[T]) IsOk() bool { return r.ok }

// Kind returns the failure kind, empty on success.
func (r Result[T]) Kind() FailureKind { return r.kind }

// Err returns the failure cause, nil on success.
func (r Result[T]) Err() error { return r.err }

// Unwrap returns the value and error.
func (r Result[T]) Unwrap() (T, error) { return r.val, r.err }

// UnwrapOr returns the value or a fallback on failure.
func (r Result[T]) UnwrapOr(fallback T) T {
	if !r.ok {
		return fallback
	}
	return r.val
}

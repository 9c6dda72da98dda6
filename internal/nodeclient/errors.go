package nodeclient

import (
	"errors"
	"fmt"
)

// Kind classifies a node client failure so callers can apply their own
// retry or backoff policy. The engine never retries and never downgrades
// a node error into a default value.
type Kind int

const (
	KindUnreachable Kind = iota
	KindTimeout
	KindMalformedResponse
	KindNotFound
)

// Sentinel errors matched with errors.Is.
var (
	ErrUnreachable       = errors.New("node unreachable")
	ErrTimeout           = errors.New("node request timed out")
	ErrMalformedResponse = errors.New("malformed node response")
	ErrNotFound          = errors.New("not found")
)

// sentinel returns the errors.Is target for a kind.
func (k Kind) sentinel() error {
	switch k {
	case KindTimeout:
		return ErrTimeout
	case KindMalformedResponse:
		return ErrMalformedResponse
	case KindNotFound:
		return ErrNotFound
	default:
		return ErrUnreachable
	}
}

// Error is a typed node client failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind.sentinel(), e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Kind.sentinel())
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

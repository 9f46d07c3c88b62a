package chat

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when Send is called while a turn is already in
// flight. Second sends are rejected, not queued.
var ErrBusy = errors.New("a turn is already in flight")

// ErrStreamTruncated marks a stream that ended before a done fragment.
var ErrStreamTruncated = errors.New("stream ended before done fragment")

// TransportError wraps a network or stream failure. It is fatal to the
// current turn and is not retried by this layer.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport %s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// MaxIterationsError means the model kept requesting tools past the
// configured round limit.
type MaxIterationsError struct {
	Limit int
}

func (e *MaxIterationsError) Error() string {
	return fmt.Sprintf("tool-call loop exceeded %d rounds", e.Limit)
}

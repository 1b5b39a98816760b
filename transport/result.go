package transport

import (
	"errors"
	"fmt"
)

// State is the lifecycle position of a Result.
type State int

const (
	StateLoading State = iota
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result is one value on a fetch stream: Loading, then exactly one of
// Success or Error.
type Result[T any] struct {
	State   State
	Data    T
	Message string
}

func Loading[T any]() Result[T] {
	return Result[T]{State: StateLoading}
}

func Success[T any](data T) Result[T] {
	return Result[T]{State: StateSuccess, Data: data}
}

func Failure[T any](message string) Result[T] {
	return Result[T]{State: StateError, Message: message}
}

// Terminal reports whether r ends the stream.
func (r Result[T]) Terminal() bool {
	return r.State == StateSuccess || r.State == StateError
}

var (
	// ErrAlreadyTerminated is returned when a stream that already emitted
	// Success or Error is asked to emit anything else.
	ErrAlreadyTerminated = errors.New("result stream already terminated")
	// ErrNoResult is the Await message for a stream closed before a terminal
	// value arrived.
	ErrNoResult = errors.New("result stream closed without a terminal value")
)

type emitter[T any] struct {
	out        chan<- Result[T]
	terminated bool
}

func (e *emitter[T]) emit(r Result[T]) error {
	if e.terminated {
		return ErrAlreadyTerminated
	}
	if r.Terminal() {
		e.terminated = true
	}
	e.out <- r
	return nil
}

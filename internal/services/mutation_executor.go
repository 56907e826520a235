package services

import (
	"context"
	"fmt"
	"sync"

	sensasi_errors "sensasi-chat/pkg/errors"
)

type MutationState int

const (
	MutationIdle MutationState = iota
	MutationLoading
	MutationSuccess
	MutationFailure
)

func (s MutationState) String() string {
	switch s {
	case MutationIdle:
		return "idle"
	case MutationLoading:
		return "loading"
	case MutationSuccess:
		return "success"
	case MutationFailure:
		return "failure"
	default:
		return "unknown"
	}
}

type MutationFunc[V any, R any] func(ctx context.Context, vars V) (R, error)

// MutationSnapshot is the last-observed outcome of an executor. Exactly one
// of Data and Err is set after a completed call.
type MutationSnapshot[R any] struct {
	State    MutationState
	Data     *R
	Err      error
	InFlight bool
}

// MutationExecutor wraps a single remote write operation with explicit
// loading/outcome state. Each Mutate call runs the operation exactly once
// and its return values are authoritative for that call; the shared
// snapshot holds whichever call completed most recently. Overlapping calls
// are therefore last-write-wins on the snapshot — callers that need
// sequencing must serialize above this layer.
type MutationExecutor[V any, R any] struct {
	mu       sync.Mutex
	fn       MutationFunc[V, R]
	state    MutationState
	data     *R
	err      error
	inFlight int
}

func NewMutationExecutor[V any, R any](fn MutationFunc[V, R]) *MutationExecutor[V, R] {
	return &MutationExecutor[V, R]{fn: fn, state: MutationIdle}
}

// Mutate executes the wrapped operation. The error is never re-panicked:
// failures, including panics inside the operation, surface through the
// return value and the snapshot.
func (e *MutationExecutor[V, R]) Mutate(ctx context.Context, vars V) (R, error) {
	e.mu.Lock()
	e.inFlight++
	e.state = MutationLoading
	e.mu.Unlock()

	result, err := e.run(ctx, vars)

	e.mu.Lock()
	e.inFlight--
	if err != nil {
		e.data = nil
		e.err = err
		e.state = MutationFailure
	} else {
		stored := result
		e.data = &stored
		e.err = nil
		e.state = MutationSuccess
	}
	e.mu.Unlock()

	return result, err
}

func (e *MutationExecutor[V, R]) run(ctx context.Context, vars V) (result R, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: panic in mutation: %v", sensasi_errors.ErrTransient, p)
		}
	}()
	return e.fn(ctx, vars)
}

// Snapshot returns the last-observed state. Data and Err are never both set.
func (e *MutationExecutor[V, R]) Snapshot() MutationSnapshot[R] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return MutationSnapshot[R]{
		State:    e.state,
		Data:     e.data,
		Err:      e.err,
		InFlight: e.inFlight > 0,
	}
}

// Reset discards the stored outcome. In-flight calls keep running and will
// publish their own outcome when they finish; Reset does not abort them.
func (e *MutationExecutor[V, R]) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.data = nil
	e.err = nil
	if e.inFlight > 0 {
		e.state = MutationLoading
	} else {
		e.state = MutationIdle
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package deadline runs a unit of work under a wall-clock bound and reports
// how it ended.
package deadline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"
)

// ErrDeadlineExceeded is the cancellation cause installed on the context
// passed to the bounded function when the timeout expires.
var ErrDeadlineExceeded = errors.New("deadline exceeded")

// Outcome classifies how a bounded call ended.
type Outcome int

const (
	Succeeded Outcome = iota
	TimedOut
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case TimedOut:
		return "timed_out"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the tagged result of Call. Value is only meaningful when
// Outcome is Succeeded.
type Result[T any] struct {
	Value   T
	Outcome Outcome
	Err     error
	Elapsed time.Duration
}

// PanicError wraps a panic recovered from the bounded function.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in bounded call: %v", e.Value)
}

type outcome[T any] struct {
	value T
	err   error
}

// Call runs fn on its own goroutine and waits at most timeout for it.
//
// fn receives a context that is cancelled with ErrDeadlineExceeded once the
// timeout expires; work that ignores it keeps running in the background, but
// Call returns on time and the goroutine exits as soon as fn does. A timeout
// of zero or less means no bound beyond ctx. Cancellation of the parent ctx
// is reported as Failed with the context's error.
func Call[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) Result[T] {
	started := time.Now()

	var (
		callCtx context.Context
		cancel  context.CancelFunc
	)
	if timeout > 0 {
		callCtx, cancel = context.WithTimeoutCause(ctx, timeout, ErrDeadlineExceeded)
	} else {
		callCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	done := make(chan outcome[T], 1)
	go func() {
		var out outcome[T]
		defer func() {
			if r := recover(); r != nil {
				out.err = &PanicError{Value: r, Stack: debug.Stack()}
			}
			done <- out
		}()
		out.value, out.err = fn(callCtx)
	}()

	var res Result[T]
	select {
	case out := <-done:
		res = classify(callCtx, out)
	case <-callCtx.Done():
		cause := context.Cause(callCtx)
		if errors.Is(cause, ErrDeadlineExceeded) {
			res.Outcome = TimedOut
		} else {
			res.Outcome = Failed
		}
		res.Err = cause
	}
	res.Elapsed = time.Since(started)
	return res
}

func classify[T any](callCtx context.Context, out outcome[T]) Result[T] {
	if out.err == nil {
		return Result[T]{Value: out.value, Outcome: Succeeded}
	}
	// fn gave up because our deadline fired, not because it failed on its own.
	if errors.Is(context.Cause(callCtx), ErrDeadlineExceeded) {
		return Result[T]{Outcome: TimedOut, Err: fmt.Errorf("%w: %w", ErrDeadlineExceeded, out.err)}
	}
	return Result[T]{Outcome: Failed, Err: out.err}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package deadline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCallSucceeded(t *testing.T) {
	res := Call(context.Background(), time.Second, func(context.Context) (string, error) {
		return "ok", nil
	})
	assert.Equal(t, Succeeded, res.Outcome)
	assert.Equal(t, "ok", res.Value)
	assert.NoError(t, res.Err)
}

func TestCallFailed(t *testing.T) {
	boom := errors.New("boom")
	res := Call(context.Background(), time.Second, func(context.Context) (int, error) {
		return 0, boom
	})
	assert.Equal(t, Failed, res.Outcome)
	assert.ErrorIs(t, res.Err, boom)
}

func TestCallTimesOutWithinBound(t *testing.T) {
	const timeout = 50 * time.Millisecond
	release := make(chan struct{})
	var finished atomic.Bool

	start := time.Now()
	res := Call(context.Background(), timeout, func(context.Context) (int, error) {
		// Ignores its context on purpose.
		<-release
		finished.Store(true)
		return 1, nil
	})
	elapsed := time.Since(start)

	assert.Equal(t, TimedOut, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrDeadlineExceeded)
	assert.Zero(t, res.Value)
	assert.Less(t, elapsed, timeout+500*time.Millisecond)
	assert.False(t, finished.Load())

	// The worker goroutine must exit once the work returns; goleak checks it.
	close(release)
	require.Eventually(t, finished.Load, time.Second, 5*time.Millisecond)
}

func TestCallCancelsWorkContextOnTimeout(t *testing.T) {
	res := Call(context.Background(), 20*time.Millisecond, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.Equal(t, TimedOut, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrDeadlineExceeded)
}

func TestCallRecoversPanic(t *testing.T) {
	res := Call(context.Background(), time.Second, func(context.Context) (int, error) {
		panic("kaboom")
	})
	require.Equal(t, Failed, res.Outcome)

	var pe *PanicError
	require.ErrorAs(t, res.Err, &pe)
	assert.Equal(t, "kaboom", pe.Value)
	assert.NotEmpty(t, pe.Stack)
}

func TestCallUnbounded(t *testing.T) {
	res := Call(context.Background(), 0, func(ctx context.Context) (int, error) {
		_, hasDeadline := ctx.Deadline()
		assert.False(t, hasDeadline)
		time.Sleep(10 * time.Millisecond)
		return 7, nil
	})
	assert.Equal(t, Succeeded, res.Outcome)
	assert.Equal(t, 7, res.Value)
	assert.GreaterOrEqual(t, res.Elapsed, 10*time.Millisecond)
}

func TestCallParentCancelledIsFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := Call(ctx, time.Second, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.Equal(t, Failed, res.Outcome)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "succeeded", Succeeded.String())
	assert.Equal(t, "timed_out", TimedOut.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "outcome(9)", Outcome(9).String())
}

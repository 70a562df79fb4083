package breaker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend failure")

func failing(ctx context.Context) error { return errBackend }
func succeeding(ctx context.Context) error { return nil }

// TestTripsAfterThreshold verifies that consecutive failures open the
// breaker and further calls fail fast without invoking the operation
func TestTripsAfterThreshold(t *testing.T) {
	b := New("chat", Config{FailureThreshold: 2, ResetTimeout: time.Minute})
	ctx := context.Background()

	require.ErrorIs(t, b.Execute(ctx, failing), errBackend)
	assert.Equal(t, StateClosed, b.State())

	require.ErrorIs(t, b.Execute(ctx, failing), errBackend)
	assert.Equal(t, StateOpen, b.State())

	invoked := false
	err := b.Execute(ctx, func(ctx context.Context) error {
		invoked = true
		return nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, invoked, "open breaker must not invoke the operation")
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := New("chat", Config{FailureThreshold: 2, ResetTimeout: time.Minute})
	ctx := context.Background()

	require.Error(t, b.Execute(ctx, failing))
	require.NoError(t, b.Execute(ctx, succeeding))
	require.Error(t, b.Execute(ctx, failing))

	// One failure after a success: still closed
	assert.Equal(t, StateClosed, b.State())
}

// TestTrialAfterResetTimeout verifies the open -> half-open -> closed path
func TestTrialAfterResetTimeout(t *testing.T) {
	b := New("chat", Config{FailureThreshold: 1, ResetTimeout: 30 * time.Millisecond})
	ctx := context.Background()

	require.Error(t, b.Execute(ctx, failing))
	require.Equal(t, StateOpen, b.State())

	time.Sleep(50 * time.Millisecond)

	// Trial succeeds: breaker closes
	require.NoError(t, b.Execute(ctx, succeeding))
	assert.Equal(t, StateClosed, b.State())
}

func TestFailedTrialReopens(t *testing.T) {
	b := New("chat", Config{FailureThreshold: 1, ResetTimeout: 30 * time.Millisecond})
	ctx := context.Background()

	require.Error(t, b.Execute(ctx, failing))
	time.Sleep(50 * time.Millisecond)

	require.ErrorIs(t, b.Execute(ctx, failing), errBackend)
	assert.Equal(t, StateOpen, b.State())

	// Reset timeout restarted: calls fail fast again
	assert.ErrorIs(t, b.Execute(ctx, succeeding), ErrOpen)
}

// TestSingleTrialAdmitted verifies that only one trial call runs per
// open-to-half-open transition; concurrent callers are rejected while
// the trial is in flight
func TestSingleTrialAdmitted(t *testing.T) {
	b := New("chat", Config{FailureThreshold: 1, ResetTimeout: 10 * time.Millisecond})
	ctx := context.Background()

	require.Error(t, b.Execute(ctx, failing))
	time.Sleep(20 * time.Millisecond)

	started := make(chan struct{})
	release := make(chan struct{})
	trialDone := make(chan error, 1)

	go func() {
		trialDone <- b.Execute(ctx, func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started

	// Trial in flight: concurrent callers must be rejected, not run
	// parallel trials
	var wg sync.WaitGroup
	var rejected int64
	var mu sync.Mutex
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := b.Execute(ctx, succeeding)
			if errors.Is(err, ErrOpen) {
				mu.Lock()
				rejected++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 5, rejected)

	close(release)
	require.NoError(t, <-trialDone)
	assert.Equal(t, StateClosed, b.State())
}

// TestCancelledTrialReleasesSlot verifies the trial-in-flight guard is
// released when the caller cancels mid-trial, so the next caller can
// re-run the trial
func TestCancelledTrialReleasesSlot(t *testing.T) {
	b := New("chat", Config{FailureThreshold: 1, ResetTimeout: 10 * time.Millisecond})

	require.Error(t, b.Execute(context.Background(), failing))
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	err := b.Execute(ctx, func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	})
	require.Error(t, err)

	// Slot released without an outcome: the next call is a fresh trial
	require.NoError(t, b.Execute(context.Background(), succeeding))
	assert.Equal(t, StateClosed, b.State())
}

package client

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/cuemby/relay/pkg/balancer"
	"github.com/cuemby/relay/pkg/breaker"
	"github.com/cuemby/relay/pkg/log"
	"github.com/cuemby/relay/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

func TestMain(m *testing.M) {
	log.Init(log.Config{Level: log.ErrorLevel, JSONOutput: true, Output: io.Discard})
	m.Run()
}

type fakeHealth struct {
	mu       sync.Mutex
	endpoints []string
	marked   map[string]string
}

func newFakeHealth(endpoints ...string) *fakeHealth {
	return &fakeHealth{endpoints: endpoints, marked: make(map[string]string)}
}

func (f *fakeHealth) Healthy() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.endpoints...)
}

func (f *fakeHealth) MarkUnhealthy(endpoint, cause string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked[endpoint] = cause
}

func (f *fakeHealth) markedCause(endpoint string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cause, ok := f.marked[endpoint]
	return cause, ok
}

func testConfigs() (breaker.Config, retry.Config) {
	return breaker.Config{FailureThreshold: 3, ResetTimeout: 50 * time.Millisecond},
		retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond}
}

func newTestCaller(t *testing.T, health *fakeHealth, breakerCfg breaker.Config, retryCfg retry.Config) *Caller {
	t.Helper()
	b, err := balancer.New(balancer.StrategyRoundRobin, health)
	require.NoError(t, err)
	c := NewCaller(b, health, breakerCfg, retryCfg)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCallSuccess(t *testing.T) {
	health := newFakeHealth("127.0.0.1:50051")
	breakerCfg, retryCfg := testConfigs()
	c := newTestCaller(t, health, breakerCfg, retryCfg)

	var target string
	err := c.Call(context.Background(), "chat", func(ctx context.Context, conn *grpc.ClientConn) error {
		target = conn.Target()
		return nil
	})

	require.NoError(t, err)
	assert.Contains(t, target, "127.0.0.1:50051")
	_, marked := health.markedCause("127.0.0.1:50051")
	assert.False(t, marked)
}

func TestCallRetriesTransientFailures(t *testing.T) {
	health := newFakeHealth("127.0.0.1:50051")
	breakerCfg, retryCfg := testConfigs()
	c := newTestCaller(t, health, breakerCfg, retryCfg)

	attempts := 0
	err := c.Call(context.Background(), "chat", func(ctx context.Context, conn *grpc.ClientConn) error {
		attempts++
		if attempts < 3 {
			return retry.Transient(errors.New("transport hiccup"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestCallTransientFailureMarksEndpoint(t *testing.T) {
	health := newFakeHealth("127.0.0.1:50051")
	breakerCfg, retryCfg := testConfigs()
	retryCfg.MaxAttempts = 1
	c := newTestCaller(t, health, breakerCfg, retryCfg)

	wantErr := retry.Transient(errors.New("transport hiccup"))
	err := c.Call(context.Background(), "chat", func(ctx context.Context, conn *grpc.ClientConn) error {
		return wantErr
	})

	require.Error(t, err)
	cause, marked := health.markedCause("127.0.0.1:50051")
	assert.True(t, marked, "transient failure must evict the endpoint")
	assert.Contains(t, cause, "transport hiccup")
}

func TestCallPermanentFailureNotRetried(t *testing.T) {
	health := newFakeHealth("127.0.0.1:50051")
	breakerCfg, retryCfg := testConfigs()
	c := newTestCaller(t, health, breakerCfg, retryCfg)

	attempts := 0
	wantErr := errors.New("invalid argument")
	err := c.Call(context.Background(), "chat", func(ctx context.Context, conn *grpc.ClientConn) error {
		attempts++
		return wantErr
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	_, marked := health.markedCause("127.0.0.1:50051")
	assert.False(t, marked, "permanent failures must not evict the endpoint")
}

func TestCallNoHealthyEndpoints(t *testing.T) {
	health := newFakeHealth()
	breakerCfg, retryCfg := testConfigs()
	c := newTestCaller(t, health, breakerCfg, retryCfg)

	err := c.Call(context.Background(), "chat", func(ctx context.Context, conn *grpc.ClientConn) error {
		t.Fatal("invoker must not run with an empty healthy set")
		return nil
	})

	assert.ErrorIs(t, err, balancer.ErrNoHealthyEndpoints)
}

func TestCallBreakerTripsAndFastFails(t *testing.T) {
	health := newFakeHealth("127.0.0.1:50051")
	breakerCfg, retryCfg := testConfigs()
	breakerCfg.FailureThreshold = 2
	retryCfg.MaxAttempts = 1
	c := newTestCaller(t, health, breakerCfg, retryCfg)

	failing := func(ctx context.Context, conn *grpc.ClientConn) error {
		return errors.New("backend broken")
	}
	require.Error(t, c.Call(context.Background(), "chat", failing))
	require.Error(t, c.Call(context.Background(), "chat", failing))

	invoked := false
	err := c.Call(context.Background(), "chat", func(ctx context.Context, conn *grpc.ClientConn) error {
		invoked = true
		return nil
	})

	assert.ErrorIs(t, err, breaker.ErrOpen)
	assert.False(t, invoked, "open breaker must reject without invoking")
}

func TestBreakerPerService(t *testing.T) {
	health := newFakeHealth("127.0.0.1:50051")
	breakerCfg, retryCfg := testConfigs()
	breakerCfg.FailureThreshold = 1
	retryCfg.MaxAttempts = 1
	c := newTestCaller(t, health, breakerCfg, retryCfg)

	require.Error(t, c.Call(context.Background(), "chat", func(ctx context.Context, conn *grpc.ClientConn) error {
		return errors.New("backend broken")
	}))

	// The presence breaker is independent of the tripped chat breaker
	err := c.Call(context.Background(), "presence", func(ctx context.Context, conn *grpc.ClientConn) error {
		return nil
	})
	assert.NoError(t, err)

	assert.Len(t, c.Breakers(), 2)
}

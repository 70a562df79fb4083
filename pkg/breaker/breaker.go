package breaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cuemby/relay/pkg/events"
	"github.com/cuemby/relay/pkg/metrics"
)

// State represents the circuit breaker state
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// ErrOpen is returned when the breaker rejects a call without invoking
// the operation. Callers must treat it as "do not retry now", not as a
// failure to retry further up.
var ErrOpen = errors.New("circuit breaker is open")

// Config holds circuit breaker configuration
type Config struct {
	// FailureThreshold is the number of consecutive failures that trips
	// the breaker from closed to open
	FailureThreshold int

	// ResetTimeout is how long the breaker stays open before admitting
	// a single trial call
	ResetTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
	}
}

// Breaker protects one backend service class. All calls to that service
// share the same instance.
//
// Closed passes operations through and counts consecutive failures.
// Open fails fast until the reset timeout elapses, then admits exactly
// one trial call. The trial's outcome decides closed (success) or open
// again (failure). Concurrent callers arriving while a trial is in
// flight are rejected rather than issuing parallel trials.
type Breaker struct {
	name   string
	config Config
	broker *events.Broker

	mu            sync.Mutex
	state         State
	failures      int
	nextAttempt   time.Time
	trialInFlight bool
}

// New creates a breaker for the named service class
func New(name string, config Config) *Breaker {
	b := &Breaker{
		name:   name,
		config: config,
		state:  StateClosed,
	}
	b.exportState(StateClosed)
	return b
}

// WithBroker attaches an event broker for state transition events
func (b *Breaker) WithBroker(broker *events.Broker) *Breaker {
	b.broker = broker
	return b
}

// Name returns the protected service class name
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Execute runs op through the breaker. When the breaker is open it
// returns ErrOpen without invoking op. The operation's error is
// propagated unchanged.
func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	trial, err := b.allow()
	if err != nil {
		return err
	}

	opErr := op(ctx)
	b.record(ctx, trial, opErr)
	return opErr
}

// allow decides whether a call may proceed and whether it is the trial
// call of an open-to-half-open transition.
func (b *Breaker) allow() (trial bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return false, nil

	case StateOpen:
		if time.Now().Before(b.nextAttempt) {
			return false, ErrOpen
		}
		// Reset timeout elapsed: admit exactly one trial
		b.setState(StateHalfOpen)
		b.trialInFlight = true
		return true, nil

	default: // half-open
		if b.trialInFlight {
			// A trial is already probing the backend
			return false, ErrOpen
		}
		b.trialInFlight = true
		return true, nil
	}
}

// record applies the outcome of a call to the state machine
func (b *Breaker) record(ctx context.Context, trial bool, opErr error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if trial {
		b.trialInFlight = false

		switch {
		case opErr == nil:
			b.failures = 0
			b.setState(StateClosed)
			b.emit(events.EventBreakerClosed, "trial call succeeded")

		case errors.Is(ctx.Err(), context.Canceled):
			// Caller cancelled mid-trial: release the slot without an
			// outcome so the next caller can re-run the trial
			b.setState(StateOpen)

		default:
			b.setState(StateOpen)
			b.nextAttempt = time.Now().Add(b.config.ResetTimeout)
		}
		return
	}

	// Closed-path bookkeeping
	if opErr == nil {
		b.failures = 0
		return
	}

	b.failures++
	if b.state == StateClosed && b.failures >= b.config.FailureThreshold {
		b.setState(StateOpen)
		b.nextAttempt = time.Now().Add(b.config.ResetTimeout)
		metrics.BreakerTrips.WithLabelValues(b.name).Inc()
		b.emit(events.EventBreakerOpen, "failure threshold reached")
	}
}

// setState updates the state and the exported gauge. Caller holds the lock.
func (b *Breaker) setState(state State) {
	b.state = state
	b.exportState(state)
}

func (b *Breaker) exportState(state State) {
	var v float64
	switch state {
	case StateOpen:
		v = 1
	case StateHalfOpen:
		v = 2
	}
	metrics.BreakerState.WithLabelValues(b.name).Set(v)
}

func (b *Breaker) emit(t events.EventType, msg string) {
	if b.broker != nil {
		b.broker.Emit(t, msg, map[string]string{"service": b.name})
	}
}

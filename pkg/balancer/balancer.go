package balancer

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
)

// Strategy selects how the balancer picks among healthy endpoints
type Strategy string

const (
	StrategyRoundRobin       Strategy = "round-robin"
	StrategyRandom           Strategy = "random"
	StrategyLeastConnections Strategy = "least-connections"
)

// ErrNoHealthyEndpoints is returned when the healthy set is empty.
// Callers must not retry indefinitely against an empty set.
var ErrNoHealthyEndpoints = errors.New("no healthy endpoints available")

// HealthView provides the currently healthy endpoints. Health state is
// read-only here; it is mutated only by the health monitor.
type HealthView interface {
	Healthy() []string
}

// Balancer selects an endpoint from the currently healthy set per the
// configured strategy.
type Balancer struct {
	strategy Strategy
	health   HealthView

	mu     sync.Mutex
	next   int            // round-robin cursor, shared across calls
	active map[string]int // active call count per endpoint
}

// New creates a balancer over the given health view
func New(strategy Strategy, health HealthView) (*Balancer, error) {
	switch strategy {
	case StrategyRoundRobin, StrategyRandom, StrategyLeastConnections:
	default:
		return nil, fmt.Errorf("unknown balancing strategy: %q", strategy)
	}

	return &Balancer{
		strategy: strategy,
		health:   health,
		active:   make(map[string]int),
	}, nil
}

// Pick returns one endpoint from the currently healthy set, or
// ErrNoHealthyEndpoints when the set is empty.
//
// The round-robin cursor advances modulo the current healthy-set size,
// so strict rotation fairness is not preserved when the set shrinks or
// grows between calls. That is expected, not corrected.
func (b *Balancer) Pick() (string, error) {
	healthy := b.health.Healthy()
	if len(healthy) == 0 {
		return "", ErrNoHealthyEndpoints
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.strategy {
	case StrategyRandom:
		return healthy[rand.IntN(len(healthy))], nil

	case StrategyLeastConnections:
		// Ties broken by encounter order
		selected := healthy[0]
		for _, ep := range healthy[1:] {
			if b.active[ep] < b.active[selected] {
				selected = ep
			}
		}
		return selected, nil

	default: // round-robin
		index := b.next % len(healthy)
		b.next = (index + 1) % len(healthy)
		return healthy[index], nil
	}
}

// Acquire records the start of a call against an endpoint. Only the
// least-connections strategy reads the counts, but callers may track
// unconditionally.
func (b *Balancer) Acquire(endpoint string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active[endpoint]++
}

// Release records the completion of a call against an endpoint
func (b *Balancer) Release(endpoint string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active[endpoint] > 0 {
		b.active[endpoint]--
	}
}

// ActiveCalls returns the current active call count for an endpoint
func (b *Balancer) ActiveCalls(endpoint string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active[endpoint]
}

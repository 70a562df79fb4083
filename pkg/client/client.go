package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/cuemby/relay/pkg/balancer"
	"github.com/cuemby/relay/pkg/breaker"
	"github.com/cuemby/relay/pkg/events"
	"github.com/cuemby/relay/pkg/log"
	"github.com/cuemby/relay/pkg/retry"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Invoker performs one RPC attempt against a dialed endpoint
type Invoker func(ctx context.Context, conn *grpc.ClientConn) error

// HealthMarker is the fast-path eviction hook into the health monitor
type HealthMarker interface {
	MarkUnhealthy(endpoint, cause string)
}

// Caller wraps every outbound call to a backend service in the
// resilience chain: breaker(retry(pick -> invoke)). One circuit breaker
// exists per backend service class, shared across all calls to it.
type Caller struct {
	balancer   *balancer.Balancer
	health     HealthMarker
	breakerCfg breaker.Config
	retryCfg   retry.Config
	broker     *events.Broker

	mu       sync.Mutex
	breakers map[string]*breaker.Breaker
	conns    map[string]*grpc.ClientConn
}

// NewCaller creates a resilient caller over the given balancer and
// health monitor
func NewCaller(b *balancer.Balancer, health HealthMarker, breakerCfg breaker.Config, retryCfg retry.Config) *Caller {
	return &Caller{
		balancer:   b,
		health:     health,
		breakerCfg: breakerCfg,
		retryCfg:   retryCfg,
		breakers:   make(map[string]*breaker.Breaker),
		conns:      make(map[string]*grpc.ClientConn),
	}
}

// WithBroker attaches an event broker, passed through to the per-service
// breakers for state transition events
func (c *Caller) WithBroker(broker *events.Broker) *Caller {
	c.broker = broker
	return c
}

// Call invokes an RPC against the named backend service class through
// the full resilience chain. Each retry attempt picks an endpoint from
// the currently healthy set; a transient attempt failure eagerly marks
// that endpoint unhealthy before the next attempt runs.
func (c *Caller) Call(ctx context.Context, service string, invoke Invoker) error {
	br := c.breakerFor(service)

	return br.Execute(ctx, func(ctx context.Context) error {
		return retry.Do(ctx, c.retryCfg, func(ctx context.Context) error {
			return c.attempt(ctx, service, invoke)
		})
	})
}

// attempt performs a single pick -> dial -> invoke cycle
func (c *Caller) attempt(ctx context.Context, service string, invoke Invoker) error {
	endpoint, err := c.balancer.Pick()
	if err != nil {
		// Empty healthy set: not transient, fails the call immediately
		return err
	}

	conn, err := c.conn(endpoint)
	if err != nil {
		c.health.MarkUnhealthy(endpoint, err.Error())
		return retry.Transient(err)
	}

	c.balancer.Acquire(endpoint)
	defer c.balancer.Release(endpoint)

	if err := invoke(ctx, conn); err != nil {
		if retry.IsTransient(err) {
			// Fast path: evict before the next probe cycle
			c.health.MarkUnhealthy(endpoint, err.Error())
			logger := log.WithComponent("client")
			logger.Warn().
				Str("service", service).
				Str("endpoint", endpoint).
				Err(err).
				Msg("call failed, endpoint marked unhealthy")
		}
		return err
	}

	return nil
}

// Breakers returns the per-service breakers created so far
func (c *Caller) Breakers() []*breaker.Breaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	breakers := make([]*breaker.Breaker, 0, len(c.breakers))
	for _, br := range c.breakers {
		breakers = append(breakers, br)
	}
	return breakers
}

// breakerFor returns the shared breaker for a service class, creating
// it on first use
func (c *Caller) breakerFor(service string) *breaker.Breaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	br, exists := c.breakers[service]
	if !exists {
		br = breaker.New(service, c.breakerCfg)
		if c.broker != nil {
			br.WithBroker(c.broker)
		}
		c.breakers[service] = br
	}
	return br
}

// conn returns the lazily-dialed connection for an endpoint
func (c *Caller) conn(endpoint string) (*grpc.ClientConn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if conn, exists := c.conns[endpoint]; exists {
		return conn, nil
	}

	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", endpoint, err)
	}

	c.conns[endpoint] = conn
	return conn, nil
}

// Close closes all endpoint connections
func (c *Caller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for endpoint, conn := range c.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.conns, endpoint)
	}
	return firstErr
}

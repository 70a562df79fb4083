package health

import (
	"context"
	"sync"
	"time"

	"github.com/cuemby/relay/pkg/events"
	"github.com/cuemby/relay/pkg/log"
	"github.com/cuemby/relay/pkg/metrics"
	"github.com/cuemby/relay/pkg/types"
)

// Monitor runs periodic health probes against a fixed set of endpoints
// and maintains the healthy/unhealthy partition. The periodic probe is
// the slow path for recovery detection; MarkUnhealthy is the fast path
// for reacting to live call failures.
type Monitor struct {
	config     Config
	newChecker CheckerFunc
	broker     *events.Broker

	mu     sync.RWMutex
	order  []string
	status map[string]*types.EndpointStatus

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewMonitor creates a monitor for the given endpoints. Endpoints start
// healthy until the first probe says otherwise, so a freshly started
// fabric can route before the first cycle completes.
func NewMonitor(endpoints []string, newChecker CheckerFunc, config Config) *Monitor {
	m := &Monitor{
		config:     config,
		newChecker: newChecker,
		order:      make([]string, 0, len(endpoints)),
		status:     make(map[string]*types.EndpointStatus),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}

	now := time.Now()
	for _, ep := range endpoints {
		if _, exists := m.status[ep]; exists {
			continue
		}
		m.order = append(m.order, ep)
		m.status[ep] = &types.EndpointStatus{
			Endpoint:  ep,
			Healthy:   true,
			Message:   "not yet probed",
			CheckedAt: now,
		}
	}

	metrics.EndpointsTotal.Set(float64(len(m.order)))
	metrics.EndpointsHealthy.Set(float64(len(m.order)))
	return m
}

// WithBroker attaches an event broker for endpoint transition events
func (m *Monitor) WithBroker(broker *events.Broker) *Monitor {
	m.broker = broker
	return m
}

// Start begins the probe loop
func (m *Monitor) Start() {
	go m.run()
}

// Stop stops the probe loop and waits for it to exit
func (m *Monitor) Stop() {
	close(m.stopCh)
	<-m.doneCh
}

func (m *Monitor) run() {
	defer close(m.doneCh)

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	// Run initial cycle immediately
	m.probeAll()

	for {
		select {
		case <-ticker.C:
			m.probeAll()
		case <-m.stopCh:
			return
		}
	}
}

// probeAll probes every endpoint concurrently, each with a bounded timeout
func (m *Monitor) probeAll() {
	m.mu.RLock()
	endpoints := make([]string, len(m.order))
	copy(endpoints, m.order)
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, ep := range endpoints {
		wg.Add(1)
		go func(endpoint string) {
			defer wg.Done()
			m.probe(endpoint)
		}(ep)
	}
	wg.Wait()
}

func (m *Monitor) probe(endpoint string) {
	ctx, cancel := context.WithTimeout(context.Background(), m.config.Timeout)
	defer cancel()

	result := m.newChecker(endpoint).Check(ctx)
	if result.Healthy {
		metrics.HealthProbesTotal.WithLabelValues("success").Inc()
	} else {
		metrics.HealthProbesTotal.WithLabelValues("failure").Inc()
	}

	m.setStatus(endpoint, result.Healthy, result.Message, result.CheckedAt)
}

// MarkUnhealthy eagerly evicts an endpoint from the healthy set, typically
// after a live call failure, without waiting for the next probe cycle.
// Recovery happens only through the periodic probe.
func (m *Monitor) MarkUnhealthy(endpoint, cause string) {
	m.setStatus(endpoint, false, cause, time.Now())
}

func (m *Monitor) setStatus(endpoint string, healthy bool, message string, checkedAt time.Time) {
	m.mu.Lock()
	st, exists := m.status[endpoint]
	if !exists {
		m.mu.Unlock()
		return
	}

	transitioned := st.Healthy != healthy
	st.Healthy = healthy
	st.Message = message
	st.CheckedAt = checkedAt

	healthyCount := 0
	for _, s := range m.status {
		if s.Healthy {
			healthyCount++
		}
	}
	m.mu.Unlock()

	metrics.EndpointsHealthy.Set(float64(healthyCount))

	if !transitioned {
		return
	}

	logger := log.WithEndpoint(endpoint)
	if healthy {
		logger.Info().Msg("endpoint recovered")
	} else {
		logger.Warn().Str("cause", message).Msg("endpoint marked unhealthy")
	}

	if m.broker != nil {
		eventType := events.EventEndpointRecovered
		if !healthy {
			eventType = events.EventEndpointDown
		}
		m.broker.Emit(eventType, message, map[string]string{"endpoint": endpoint})
	}
}

// Healthy returns the currently healthy endpoints in registration order
func (m *Monitor) Healthy() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	healthy := make([]string, 0, len(m.order))
	for _, ep := range m.order {
		if m.status[ep].Healthy {
			healthy = append(healthy, ep)
		}
	}
	return healthy
}

// IsHealthy reports the current health of a single endpoint
func (m *Monitor) IsHealthy(endpoint string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, exists := m.status[endpoint]
	return exists && st.Healthy
}

// Snapshot returns the operational view of the endpoint fleet
func (m *Monitor) Snapshot() types.HealthSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := types.HealthSnapshot{
		Total:     len(m.order),
		Endpoints: make([]types.EndpointStatus, 0, len(m.order)),
	}
	for _, ep := range m.order {
		st := *m.status[ep]
		if st.Healthy {
			snapshot.Healthy++
		}
		snapshot.Endpoints = append(snapshot.Endpoints, st)
	}
	return snapshot
}

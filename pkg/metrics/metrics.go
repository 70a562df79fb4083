package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Endpoint fleet metrics
	EndpointsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_endpoints_total",
			Help: "Total number of monitored backend endpoints",
		},
	)

	EndpointsHealthy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_endpoints_healthy",
			Help: "Number of backend endpoints currently passing health checks",
		},
	)

	HealthProbesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_health_probes_total",
			Help: "Total number of health probes by outcome",
		},
		[]string{"outcome"},
	)

	// Circuit breaker metrics
	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "relay_breaker_state",
			Help: "Circuit breaker state per service (0 = closed, 1 = open, 2 = half-open)",
		},
		[]string{"service"},
	)

	BreakerTrips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_breaker_trips_total",
			Help: "Total number of circuit breaker open transitions per service",
		},
		[]string{"service"},
	)

	// Retry metrics
	RetryAttempts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_retry_attempts_total",
			Help: "Total number of retry attempts after a transient failure",
		},
	)

	// Chat metrics
	ConnectedClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_connected_clients",
			Help: "Number of currently connected chat streams",
		},
	)

	RoomsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_rooms_total",
			Help: "Number of active rooms",
		},
	)

	MessagesPersisted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_messages_persisted_total",
			Help: "Total number of messages appended to room history",
		},
	)

	MessagesBroadcast = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_messages_broadcast_total",
			Help: "Total number of messages fanned out to members by type",
		},
		[]string{"type"},
	)

	BroadcastFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_broadcast_failures_total",
			Help: "Total number of per-connection write failures during fan-out",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(EndpointsTotal)
	prometheus.MustRegister(EndpointsHealthy)
	prometheus.MustRegister(HealthProbesTotal)
	prometheus.MustRegister(BreakerState)
	prometheus.MustRegister(BreakerTrips)
	prometheus.MustRegister(RetryAttempts)
	prometheus.MustRegister(ConnectedClients)
	prometheus.MustRegister(RoomsTotal)
	prometheus.MustRegister(MessagesPersisted)
	prometheus.MustRegister(MessagesBroadcast)
	prometheus.MustRegister(BroadcastFailures)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

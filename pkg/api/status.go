package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/cuemby/relay/pkg/breaker"
	"github.com/cuemby/relay/pkg/events"
	"github.com/cuemby/relay/pkg/metrics"
	"github.com/cuemby/relay/pkg/types"
)

// recentEventsMax bounds the ring of recent events kept for /status
const recentEventsMax = 50

// FleetSource provides the endpoint health snapshot
type FleetSource interface {
	Snapshot() types.HealthSnapshot
}

// FabricStats provides the chat engine's operational counters
type FabricStats interface {
	ConnectionCount() int
	RoomCount() int
}

// BreakerSource provides the per-service circuit breakers
type BreakerSource interface {
	Breakers() []*breaker.Breaker
}

// StatusServer exposes the read-only operational surface: liveness,
// the endpoint/breaker/room snapshot, and Prometheus metrics
type StatusServer struct {
	fleet    FleetSource
	stats    FabricStats
	breakers BreakerSource
	mux      *http.ServeMux

	mu     sync.Mutex
	recent []*events.Event
}

// NewStatusServer creates the status HTTP server
func NewStatusServer(fleet FleetSource, stats FabricStats, breakers BreakerSource) *StatusServer {
	mux := http.NewServeMux()
	s := &StatusServer{
		fleet:    fleet,
		stats:    stats,
		breakers: breakers,
		mux:      mux,
	}

	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/status", s.statusHandler)
	mux.Handle("/metrics", metrics.Handler())

	return s
}

// WatchEvents records broker events into the recent-events ring until
// the subscription channel closes
func (s *StatusServer) WatchEvents(sub events.Subscriber) {
	go func() {
		for event := range sub {
			s.mu.Lock()
			s.recent = append(s.recent, event)
			if len(s.recent) > recentEventsMax {
				s.recent = s.recent[len(s.recent)-recentEventsMax:]
			}
			s.mu.Unlock()
		}
	}()
}

// Start starts the status HTTP server
func (s *StatusServer) Start(addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// GetHandler returns the HTTP handler for embedding in other servers
func (s *StatusServer) GetHandler() http.Handler {
	return s.mux
}

// HealthResponse represents the liveness response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// EndpointStatus is the per-endpoint entry of the status response
type EndpointStatus struct {
	Endpoint  string    `json:"endpoint"`
	Healthy   bool      `json:"healthy"`
	Message   string    `json:"message,omitempty"`
	LastCheck time.Time `json:"last_check"`
}

// BreakerStatus is the per-service breaker entry of the status response
type BreakerStatus struct {
	Service string `json:"service"`
	State   string `json:"state"`
}

// StatusResponse represents the /status snapshot
type StatusResponse struct {
	Timestamp        time.Time        `json:"timestamp"`
	EndpointsTotal   int              `json:"endpoints_total"`
	EndpointsHealthy int              `json:"endpoints_healthy"`
	Endpoints        []EndpointStatus `json:"endpoints"`
	Breakers         []BreakerStatus  `json:"breakers,omitempty"`
	ConnectedClients int              `json:"connected_clients"`
	Rooms            int              `json:"rooms"`
	RecentEvents     []*events.Event  `json:"recent_events,omitempty"`
}

// healthHandler implements the /health endpoint
// This is a simple liveness check - returns 200 if the process is alive
func (s *StatusServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// statusHandler implements the /status endpoint
func (s *StatusServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := StatusResponse{Timestamp: time.Now()}

	if s.fleet != nil {
		snapshot := s.fleet.Snapshot()
		response.EndpointsTotal = snapshot.Total
		response.EndpointsHealthy = snapshot.Healthy
		for _, ep := range snapshot.Endpoints {
			response.Endpoints = append(response.Endpoints, EndpointStatus{
				Endpoint:  ep.Endpoint,
				Healthy:   ep.Healthy,
				Message:   ep.Message,
				LastCheck: ep.CheckedAt,
			})
		}
	}

	if s.breakers != nil {
		for _, br := range s.breakers.Breakers() {
			response.Breakers = append(response.Breakers, BreakerStatus{
				Service: br.Name(),
				State:   string(br.State()),
			})
		}
	}

	if s.stats != nil {
		response.ConnectedClients = s.stats.ConnectionCount()
		response.Rooms = s.stats.RoomCount()
	}

	s.mu.Lock()
	response.RecentEvents = append(response.RecentEvents, s.recent...)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

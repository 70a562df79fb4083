package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cuemby/relay/pkg/breaker"
	"github.com/cuemby/relay/pkg/events"
	"github.com/cuemby/relay/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFleet struct {
	snapshot types.HealthSnapshot
}

func (f *fakeFleet) Snapshot() types.HealthSnapshot {
	return f.snapshot
}

type fakeStats struct {
	connections int
	rooms       int
}

func (f *fakeStats) ConnectionCount() int { return f.connections }
func (f *fakeStats) RoomCount() int       { return f.rooms }

type fakeBreakers struct {
	breakers []*breaker.Breaker
}

func (f *fakeBreakers) Breakers() []*breaker.Breaker { return f.breakers }

func testFleet() *fakeFleet {
	return &fakeFleet{snapshot: types.HealthSnapshot{
		Total:   2,
		Healthy: 1,
		Endpoints: []types.EndpointStatus{
			{Endpoint: "10.0.0.1:50051", Healthy: true, Message: "ok", CheckedAt: time.Now()},
			{Endpoint: "10.0.0.2:50051", Healthy: false, Message: "connection failed", CheckedAt: time.Now()},
		},
	}}
}

func TestHealthEndpoint(t *testing.T) {
	server := NewStatusServer(testFleet(), &fakeStats{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "healthy", response.Status)
	assert.False(t, response.Timestamp.IsZero())
}

func TestHealthEndpointMethodNotAllowed(t *testing.T) {
	server := NewStatusServer(testFleet(), &fakeStats{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	w := httptest.NewRecorder()
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestStatusEndpoint(t *testing.T) {
	brk := breaker.New("chat", breaker.Config{FailureThreshold: 3, ResetTimeout: time.Second})
	server := NewStatusServer(testFleet(), &fakeStats{connections: 7, rooms: 3}, &fakeBreakers{
		breakers: []*breaker.Breaker{brk},
	})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response StatusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

	assert.Equal(t, 2, response.EndpointsTotal)
	assert.Equal(t, 1, response.EndpointsHealthy)
	require.Len(t, response.Endpoints, 2)
	assert.Equal(t, "10.0.0.1:50051", response.Endpoints[0].Endpoint)
	assert.True(t, response.Endpoints[0].Healthy)
	assert.False(t, response.Endpoints[1].Healthy)

	require.Len(t, response.Breakers, 1)
	assert.Equal(t, "chat", response.Breakers[0].Service)
	assert.Equal(t, string(breaker.StateClosed), response.Breakers[0].State)

	assert.Equal(t, 7, response.ConnectedClients)
	assert.Equal(t, 3, response.Rooms)
}

func TestStatusEndpointMethodNotAllowed(t *testing.T) {
	server := NewStatusServer(testFleet(), &fakeStats{}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/status", nil)
	w := httptest.NewRecorder()
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestStatusWithoutSources(t *testing.T) {
	server := NewStatusServer(nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response StatusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 0, response.EndpointsTotal)
	assert.Empty(t, response.Endpoints)
}

func TestStatusRecentEvents(t *testing.T) {
	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	server := NewStatusServer(testFleet(), &fakeStats{}, nil)
	server.WatchEvents(broker.Subscribe())

	broker.Emit(events.EventEndpointDown, "connection failed", map[string]string{"endpoint": "10.0.0.2:50051"})

	// The ring fills asynchronously
	deadline := time.Now().Add(2 * time.Second)
	for {
		req := httptest.NewRequest(http.MethodGet, "/status", nil)
		w := httptest.NewRecorder()
		server.GetHandler().ServeHTTP(w, req)

		var response StatusResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		if len(response.RecentEvents) == 1 {
			assert.Equal(t, events.EventEndpointDown, response.RecentEvents[0].Type)
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("event never reached the status ring")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server := NewStatusServer(testFleet(), &fakeStats{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "relay_")
}

/*
Package api provides Relay's read-only operational HTTP surface.

# Endpoints

	GET /health   liveness probe, 200 while the process is up
	GET /status   JSON snapshot: endpoint fleet health, breaker states,
	              connected clients, room count, recent fabric events
	GET /metrics  Prometheus exposition

The status server pulls from narrow interfaces (FleetSource, FabricStats,
BreakerSource) rather than concrete types, so tests and embedding callers
can substitute their own sources. Recent events are collected from a
broker subscription into a bounded ring.

# Usage

	server := api.NewStatusServer(monitor, engine, caller)
	server.WatchEvents(broker.Subscribe())
	go server.Start(":8080")
*/
package api

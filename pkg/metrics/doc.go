/*
Package metrics defines Relay's Prometheus collectors.

All collectors carry the relay_ prefix and register themselves at init
time. The fabric exposes them through the status server's /metrics
endpoint.

	relay_endpoints_total            gauge     configured backend endpoints
	relay_endpoints_healthy          gauge     currently healthy endpoints
	relay_health_probes_total        counter   probes by outcome
	relay_breaker_state              gauge     per-service breaker state (0/1/2)
	relay_breaker_trips_total        counter   closed-to-open transitions
	relay_retry_attempts_total       counter   retry attempts beyond the first
	relay_connected_clients          gauge     live chat streams
	relay_rooms_total                gauge     active rooms
	relay_messages_persisted_total   counter   messages appended to history
	relay_messages_broadcast_total   counter   fan-outs by message type
	relay_broadcast_failures_total   counter   evicting write failures
*/
package metrics

/*
Package registry provides in-process service discovery for Relay's
backend fleet.

A registry maps service names to ordered endpoint lists. Registration is
idempotent and refreshing, heartbeats bump last-seen timestamps, and
Cleanup purges entries older than a caller-chosen age. Purging happens
only on demand; the registry runs no background goroutine.

# Usage

	reg := registry.New()
	reg.Register("chat", "10.0.0.1:50051", map[string]string{"zone": "a"})
	reg.Heartbeat("chat", "10.0.0.1:50051")

	endpoints := reg.Endpoints("chat")
	purged := reg.Cleanup(90 * time.Second)
*/
package registry

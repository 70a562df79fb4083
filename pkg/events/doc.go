/*
Package events provides an in-memory event broker for Relay's pub/sub messaging.

The events package implements a lightweight event bus for broadcasting fabric
events to interested subscribers. It supports asynchronous event delivery with
per-subscriber buffering, enabling loose coupling between Relay components for
lifecycle notifications and operational monitoring.

# Architecture

	┌──────────────────── EVENT BROKER ─────────────────────┐
	│                                                        │
	│  Publisher → Event Channel (buffer: 100)               │
	│       ↓                                                │
	│  Broadcast Loop                                        │
	│       ↓                                                │
	│  Subscriber Channels (buffer: 50 each)                 │
	│                                                        │
	│  Event Types:                                          │
	│    Room:     room.created, room.deleted                │
	│    User:     user.connected, user.disconnected         │
	│    Endpoint: endpoint.down, endpoint.recovered         │
	│    Breaker:  breaker.open, breaker.closed              │
	│                                                        │
	│  Subscribers:                                          │
	│    Status API: recent-events ring for /status          │
	│    Logging:    structured event log                    │
	└────────────────────────────────────────────────────────┘

# Core Components

Event Broker:
  - Central message bus for event distribution
  - Non-blocking publish (buffered channel)
  - Full subscriber buffers skip, never block
  - Graceful shutdown via stop channel

Event:
  - ID: Unique event identifier (assigned on publish if empty)
  - Type: Event type (room.created, endpoint.down, etc.)
  - Timestamp: When the event occurred
  - Message: Human-readable description
  - Metadata: Key-value pairs for additional context

# Usage

Creating and starting a broker:

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

Subscribing to events:

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	go func() {
		for event := range sub {
			fmt.Printf("Event: %s - %s\n", event.Type, event.Message)
		}
	}()

Publishing events:

	broker.Emit(events.EventRoomCreated, "room general created", map[string]string{
		"room_id": "general",
	})

# Performance Characteristics

  - Publish: O(1), non-blocking
  - Broadcast: O(n) in subscriber count
  - Slow subscribers lose events instead of applying backpressure
*/
package events

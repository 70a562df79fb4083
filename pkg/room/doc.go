/*
Package room provides Relay's room membership registry, message history,
and presence tracking.

# Core Components

Registry:
  - Named rooms created implicitly on first join
  - Membership is a set: rejoining is idempotent
  - The last member leaving deletes the room and drops its history
  - Membership survives disconnects; only an explicit leave removes it

HistoryStore:
  - Append-only per-room message log, volatile
  - Query pages backward from a cursor, returns chronological order
  - HasMore is approximated as "the page came back full"
  - History lifetime equals room lifetime

PresenceStore:
  - Last-write-wins status per user (online, away, offline)
  - Unknown users read as offline

All three are safe for concurrent use. Nothing here touches a stream;
fan-out to live connections is the chat engine's job.

# Usage

	history := room.NewMemoryHistory()
	rooms := room.NewRegistry(history)

	members := rooms.Join("general", "alice", "Alice")
	msgs, hasMore := history.Query("general", 50, time.Time{})
	removed, deleted := rooms.Leave("general", "alice")
*/
package room

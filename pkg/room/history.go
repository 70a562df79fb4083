package room

import (
	"sort"
	"sync"
	"time"

	"github.com/cuemby/relay/pkg/metrics"
	"github.com/cuemby/relay/pkg/types"
)

// HistoryStore is the append-only per-room message log. History is
// volatile and lives exactly as long as its room; a durable backend can
// be substituted without touching the broadcast engine.
type HistoryStore interface {
	// Append adds a message to a room's log in arrival order
	Append(roomID string, msg *types.Message)

	// Query returns up to limit messages older than before (exclusive;
	// zero time means "from the latest"), in chronological order.
	// hasMore is approximated as len(result) == limit.
	Query(roomID string, limit int, before time.Time) (msgs []*types.Message, hasMore bool)

	// Drop discards a room's entire log
	Drop(roomID string)
}

// MemoryHistory is the in-process HistoryStore
type MemoryHistory struct {
	mu   sync.RWMutex
	logs map[string][]*types.Message
}

// NewMemoryHistory creates an empty in-memory history store
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{
		logs: make(map[string][]*types.Message),
	}
}

// Append adds a message to the room's log
func (h *MemoryHistory) Append(roomID string, msg *types.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.logs[roomID] = append(h.logs[roomID], msg)
	metrics.MessagesPersisted.Inc()
}

// Query implements time-bounded pagination over a room's log
func (h *MemoryHistory) Query(roomID string, limit int, before time.Time) ([]*types.Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit <= 0 {
		return nil, false
	}

	var filtered []*types.Message
	for _, msg := range h.logs[roomID] {
		if !before.IsZero() && !msg.Timestamp.Before(before) {
			continue
		}
		filtered = append(filtered, msg)
	}

	// Newest first, take the page, then back to chronological order
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.After(filtered[j].Timestamp)
	})
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	page := make([]*types.Message, len(filtered))
	for i, msg := range filtered {
		page[len(filtered)-1-i] = msg
	}

	// Approximation: a full page means "probably more"
	return page, len(page) == limit
}

// Drop discards a room's log
func (h *MemoryHistory) Drop(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.logs, roomID)
}

// Len returns the number of messages held for a room
func (h *MemoryHistory) Len(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.logs[roomID])
}

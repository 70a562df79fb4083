package room

import (
	"sync"
	"time"

	"github.com/cuemby/relay/pkg/types"
)

// PresenceStore holds each user's reported status. Last write wins; no
// history is kept.
type PresenceStore struct {
	mu       sync.RWMutex
	statuses map[string]types.Presence
}

// NewPresenceStore creates an empty presence store
func NewPresenceStore() *PresenceStore {
	return &PresenceStore{
		statuses: make(map[string]types.Presence),
	}
}

// Set overwrites a user's status and returns the new record
func (p *PresenceStore) Set(userID string, status types.PresenceStatus) types.Presence {
	p.mu.Lock()
	defer p.mu.Unlock()

	presence := types.Presence{
		UserID:    userID,
		Status:    status,
		UpdatedAt: time.Now(),
	}
	p.statuses[userID] = presence
	return presence
}

// Get returns a user's current presence. Users never seen report offline.
func (p *PresenceStore) Get(userID string) types.Presence {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if presence, exists := p.statuses[userID]; exists {
		return presence
	}
	return types.Presence{UserID: userID, Status: types.PresenceOffline}
}

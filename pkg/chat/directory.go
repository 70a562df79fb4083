package chat

import (
	"sync"

	"github.com/cuemby/relay/pkg/metrics"
)

// Directory maps live user identities to their open stream handles.
// A user has at most one live connection; binding a new one replaces
// (and closes) the previous.
type Directory struct {
	mu     sync.RWMutex
	byUser map[string]*Connection
}

// NewDirectory creates an empty connection directory
func NewDirectory() *Directory {
	return &Directory{
		byUser: make(map[string]*Connection),
	}
}

// Bind registers a connection under its user id, returning the replaced
// connection if the user was already connected
func (d *Directory) Bind(conn *Connection) (replaced *Connection) {
	d.mu.Lock()
	replaced = d.byUser[conn.UserID]
	d.byUser[conn.UserID] = conn
	count := len(d.byUser)
	d.mu.Unlock()

	if replaced != nil {
		replaced.Close()
	}
	metrics.ConnectedClients.Set(float64(count))
	return replaced
}

// Get returns the live connection for a user, if any
func (d *Directory) Get(userID string) (*Connection, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	conn, exists := d.byUser[userID]
	return conn, exists
}

// Remove evicts a connection. The connection id must still match so a
// stale cleanup cannot evict a newer reconnection of the same user.
// Returns whether an eviction happened.
func (d *Directory) Remove(userID, connID string) bool {
	d.mu.Lock()
	conn, exists := d.byUser[userID]
	if !exists || conn.ID != connID {
		d.mu.Unlock()
		return false
	}
	delete(d.byUser, userID)
	count := len(d.byUser)
	d.mu.Unlock()

	conn.Close()
	metrics.ConnectedClients.Set(float64(count))
	return true
}

// Count returns the number of live connections
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byUser)
}

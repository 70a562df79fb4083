package room

import (
	"sort"
	"sync"

	"github.com/cuemby/relay/pkg/events"
	"github.com/cuemby/relay/pkg/log"
	"github.com/cuemby/relay/pkg/metrics"
)

// Registry tracks which users belong to which rooms. Rooms are created
// implicitly on first join and deleted, history included, when the
// member set becomes empty. Membership survives disconnects so a
// reconnecting user can idempotently rejoin previously-held rooms.
//
// The registry map has its own lock; each room carries a per-room lock
// so unrelated rooms never serialize on each other.
type Registry struct {
	history HistoryStore
	broker  *events.Broker

	mu    sync.RWMutex
	rooms map[string]*Room
}

// Room is a named channel with a member set
type Room struct {
	ID string

	mu      sync.Mutex
	members map[string]string // user id -> display name
}

// NewRegistry creates a registry whose room histories live in the given
// store. Deleting a room drops its history from the store.
func NewRegistry(history HistoryStore) *Registry {
	return &Registry{
		history: history,
		rooms:   make(map[string]*Room),
	}
}

// WithBroker attaches an event broker for room lifecycle events
func (r *Registry) WithBroker(broker *events.Broker) *Registry {
	r.broker = broker
	return r
}

// Join adds a user to a room, creating the room on first join. The add
// is idempotent: joining twice does not duplicate the member. Returns
// the member list after the join.
func (r *Registry) Join(roomID, userID, username string) []string {
	for {
		room := r.getOrCreate(roomID)

		// Re-verify under the registry lock: a concurrent last-member
		// leave may have deleted the room between lookup and here, and a
		// member added to an orphaned room would be invisible to every
		// other operation. Holding the read lock across the add keeps
		// Leave's delete out until the member is in place.
		r.mu.RLock()
		if r.rooms[roomID] != room {
			r.mu.RUnlock()
			continue
		}

		room.mu.Lock()
		room.members[userID] = username
		members := room.memberIDs()
		room.mu.Unlock()
		r.mu.RUnlock()

		return members
	}
}

// Leave removes a user from a room. Leaving a room the user is not in
// is a no-op. When the member set becomes empty the room is deleted and
// its history dropped; deleted reports that.
func (r *Registry) Leave(roomID, userID string) (removed, deleted bool) {
	r.mu.RLock()
	room, exists := r.rooms[roomID]
	r.mu.RUnlock()
	if !exists {
		return false, false
	}

	room.mu.Lock()
	_, removed = room.members[userID]
	delete(room.members, userID)
	empty := len(room.members) == 0
	room.mu.Unlock()

	if !empty {
		return removed, false
	}

	// Re-check under the registry lock: a concurrent join may have
	// repopulated the room between the two lock scopes
	r.mu.Lock()
	room.mu.Lock()
	if len(room.members) == 0 {
		delete(r.rooms, roomID)
		deleted = true
	}
	room.mu.Unlock()
	r.mu.Unlock()

	if deleted {
		r.history.Drop(roomID)
		metrics.RoomsTotal.Dec()
		logger := log.WithRoomID(roomID)
		logger.Info().Msg("room deleted, last member left")
		if r.broker != nil {
			r.broker.Emit(events.EventRoomDeleted, "last member left", map[string]string{"room_id": roomID})
		}
	}
	return removed, deleted
}

// Members returns the current member ids of a room, sorted for stable
// iteration. An unknown room returns nil.
func (r *Registry) Members(roomID string) []string {
	r.mu.RLock()
	room, exists := r.rooms[roomID]
	r.mu.RUnlock()
	if !exists {
		return nil
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	return room.memberIDs()
}

// IsMember reports whether a user currently belongs to a room
func (r *Registry) IsMember(roomID, userID string) bool {
	r.mu.RLock()
	room, exists := r.rooms[roomID]
	r.mu.RUnlock()
	if !exists {
		return false
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	_, member := room.members[userID]
	return member
}

// RoomsOf returns the ids of every room the user belongs to
func (r *Registry) RoomsOf(userID string) []string {
	r.mu.RLock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.RUnlock()

	var memberOf []string
	for _, room := range rooms {
		room.mu.Lock()
		if _, member := room.members[userID]; member {
			memberOf = append(memberOf, room.ID)
		}
		room.mu.Unlock()
	}
	sort.Strings(memberOf)
	return memberOf
}

// Count returns the number of active rooms
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func (r *Registry) getOrCreate(roomID string) *Room {
	r.mu.RLock()
	room, exists := r.rooms[roomID]
	r.mu.RUnlock()
	if exists {
		return room
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if room, exists = r.rooms[roomID]; exists {
		return room
	}

	room = &Room{
		ID:      roomID,
		members: make(map[string]string),
	}
	r.rooms[roomID] = room
	metrics.RoomsTotal.Inc()
	logger := log.WithRoomID(roomID)
	logger.Info().Msg("room created")
	if r.broker != nil {
		r.broker.Emit(events.EventRoomCreated, "room created on first join", map[string]string{"room_id": roomID})
	}
	return room
}

// memberIDs returns sorted member ids. Caller holds the room lock.
func (room *Room) memberIDs() []string {
	ids := make([]string, 0, len(room.members))
	for id := range room.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

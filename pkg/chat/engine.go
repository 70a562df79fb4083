package chat

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cuemby/relay/pkg/events"
	"github.com/cuemby/relay/pkg/log"
	"github.com/cuemby/relay/pkg/metrics"
	"github.com/cuemby/relay/pkg/room"
	"github.com/cuemby/relay/pkg/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrIdentityRequired terminates a stream whose user identity could
	// not be determined from metadata or the first inbound message
	ErrIdentityRequired = errors.New("identity required")

	// ErrNotInRoom rejects a content message sent to a room the sender
	// does not belong to
	ErrNotInRoom = errors.New("user is not a member of the room")
)

// DefaultHistoryLimit is the page size used when a history request
// carries no limit
const DefaultHistoryLimit = 50

// Engine is the stream-handling state machine. It binds duplex streams
// to user identities, dispatches inbound messages by type, persists
// them, and fans them out to room members' live connections. Fan-out is
// best-effort at-most-once: members without a live connection are
// skipped, and a failing connection is evicted without aborting
// delivery to the rest of the room.
type Engine struct {
	rooms     *room.Registry
	presence  *room.PresenceStore
	history   room.HistoryStore
	directory *Directory
	broker    *events.Broker
	logger    zerolog.Logger
}

// NewEngine creates a broadcast engine over the given room registry,
// presence store and history store
func NewEngine(rooms *room.Registry, presence *room.PresenceStore, history room.HistoryStore) *Engine {
	return &Engine{
		rooms:     rooms,
		presence:  presence,
		history:   history,
		directory: NewDirectory(),
		logger:    log.WithComponent("chat"),
	}
}

// WithBroker attaches an event broker for connection lifecycle events
func (e *Engine) WithBroker(broker *events.Broker) *Engine {
	e.broker = broker
	return e
}

// ServeStream drives the per-connection state machine until the stream
// ends. The connection starts unbound; verified claims bind it
// immediately, otherwise the first inbound message must carry a user
// id. End-of-stream, transport error, and cancellation are equivalent
// terminal events: the connection is evicted, presence set offline, and
// a "left" notice broadcast to every room the user belonged to.
//
// Each live stream is served by its own goroutine; the engine's shared
// state is safe for concurrent use.
func (e *Engine) ServeStream(stream Stream, claims *types.Claims) error {
	var conn *Connection

	if claims != nil {
		conn = e.bind(stream, claims.UserID, claims.UserID)
	}

	for {
		msg, err := stream.Recv()
		if err != nil {
			e.disconnect(conn)
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if conn == nil {
			if msg.UserID == "" {
				return ErrIdentityRequired
			}
			username := msg.Username
			if username == "" {
				username = msg.UserID
			}
			conn = e.bind(stream, msg.UserID, username)
		}

		if err := e.dispatch(conn, msg); err != nil {
			e.disconnect(conn)
			return err
		}
	}
}

// bind transitions a stream from unbound to bound. Room memberships
// from before a reconnect are still in the registry, so nothing needs
// re-attaching beyond the directory entry.
func (e *Engine) bind(stream Stream, userID, username string) *Connection {
	conn := &Connection{
		ID:       uuid.New().String(),
		UserID:   userID,
		Username: username,
		stream:   stream,
	}

	e.directory.Bind(conn)
	e.presence.Set(userID, types.PresenceOnline)
	e.emit(events.EventUserConnected, userID)
	logger := log.WithUserID(userID)
	logger.Info().Str("conn_id", conn.ID).Msg("stream bound")
	return conn
}

// disconnect runs the terminal cleanup for a bound connection. A nil
// connection (stream ended while still unbound) needs none.
func (e *Engine) disconnect(conn *Connection) {
	if conn == nil {
		return
	}

	// If the entry no longer matches, the user already reconnected and
	// the newer connection owns the cleanup state
	if !e.directory.Remove(conn.UserID, conn.ID) {
		return
	}

	e.presence.Set(conn.UserID, types.PresenceOffline)

	for _, roomID := range e.rooms.RoomsOf(conn.UserID) {
		notice := e.systemMessage(roomID, fmt.Sprintf("%s left the room", conn.Username))
		e.history.Append(roomID, notice)
		e.fanOut(roomID, notice, "")
	}

	e.emit(events.EventUserDisconnected, conn.UserID)
	logger := log.WithUserID(conn.UserID)
	logger.Info().Str("conn_id", conn.ID).Msg("stream closed")
}

// dispatch routes one inbound message while the connection is bound
func (e *Engine) dispatch(conn *Connection, msg *types.Message) error {
	switch msg.Type {
	case types.MessageTypeText, types.MessageTypeImage, types.MessageTypeFile:
		if !e.rooms.IsMember(msg.RoomID, conn.UserID) {
			return fmt.Errorf("%w: user %q, room %q", ErrNotInRoom, conn.UserID, msg.RoomID)
		}
		stamped := e.stamp(conn, msg)
		e.history.Append(stamped.RoomID, stamped)
		e.fanOut(stamped.RoomID, stamped, "")
		return nil

	case types.MessageTypeTyping:
		// Non-members are ignored without an error, unlike content
		// messages; typing indicators are fan-out only
		if !e.rooms.IsMember(msg.RoomID, conn.UserID) {
			return nil
		}
		stamped := e.stamp(conn, msg)
		e.fanOut(stamped.RoomID, stamped, conn.UserID)
		return nil

	case types.MessageTypeSystem:
		// Client-sent system messages take the same path as the
		// internally generated ones
		stamped := e.stamp(conn, msg)
		e.history.Append(stamped.RoomID, stamped)
		e.fanOut(stamped.RoomID, stamped, "")
		return nil

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

// JoinRoom adds a user to a room, creating it on first join, marks the
// user online, and broadcasts a system notice to the room, joiner
// included.
func (e *Engine) JoinRoom(req *types.JoinRoomRequest) *types.JoinRoomResponse {
	if req.RoomID == "" || req.UserID == "" {
		return &types.JoinRoomResponse{Success: false, Message: "room_id and user_id are required"}
	}

	username := req.Username
	if username == "" {
		username = req.UserID
	}

	members := e.rooms.Join(req.RoomID, req.UserID, username)
	e.presence.Set(req.UserID, types.PresenceOnline)

	notice := e.systemMessage(req.RoomID, fmt.Sprintf("%s joined the room", username))
	e.history.Append(req.RoomID, notice)
	e.fanOut(req.RoomID, notice, "")

	return &types.JoinRoomResponse{
		Success:      true,
		Message:      fmt.Sprintf("joined room %s", req.RoomID),
		Participants: members,
	}
}

// LeaveRoom removes a user from a room. Leaving a room the user is not
// in is a no-op. The last member leaving deletes the room, history
// included.
func (e *Engine) LeaveRoom(req *types.LeaveRoomRequest) *types.LeaveRoomResponse {
	if req.RoomID == "" || req.UserID == "" {
		return &types.LeaveRoomResponse{Success: false, Message: "room_id and user_id are required"}
	}

	removed, deleted := e.rooms.Leave(req.RoomID, req.UserID)
	if !removed {
		return &types.LeaveRoomResponse{Success: true, Message: "not a member"}
	}

	if !deleted {
		username := req.UserID
		if conn, ok := e.directory.Get(req.UserID); ok {
			username = conn.Username
		}
		notice := e.systemMessage(req.RoomID, fmt.Sprintf("%s left the room", username))
		e.history.Append(req.RoomID, notice)
		e.fanOut(req.RoomID, notice, "")
	}

	return &types.LeaveRoomResponse{Success: true, Message: fmt.Sprintf("left room %s", req.RoomID)}
}

// GetHistory pages through a room's persisted messages in chronological
// order. HasMore is approximated as a full page.
func (e *Engine) GetHistory(req *types.HistoryRequest) *types.HistoryResponse {
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	msgs, hasMore := e.history.Query(req.RoomID, limit, req.Before)
	return &types.HistoryResponse{Messages: msgs, HasMore: hasMore}
}

// UpdatePresence overwrites a user's status and notifies every room the
// user belongs to, excluding the user itself.
func (e *Engine) UpdatePresence(req *types.PresenceRequest) *types.PresenceResponse {
	if req.UserID == "" || req.Status == "" {
		return &types.PresenceResponse{Success: false}
	}

	e.presence.Set(req.UserID, req.Status)

	for _, roomID := range e.rooms.RoomsOf(req.UserID) {
		notice := e.systemMessage(roomID, fmt.Sprintf("%s is now %s", req.UserID, req.Status))
		e.history.Append(roomID, notice)
		e.fanOut(roomID, notice, req.UserID)
	}

	return &types.PresenceResponse{Success: true}
}

// Presence returns a user's current status
func (e *Engine) Presence(userID string) types.Presence {
	return e.presence.Get(userID)
}

// ConnectionCount returns the number of live streams
func (e *Engine) ConnectionCount() int {
	return e.directory.Count()
}

// RoomCount returns the number of active rooms
func (e *Engine) RoomCount() int {
	return e.rooms.Count()
}

// fanOut delivers a message to every current member's live connection.
// Members without one are skipped. A write failure evicts that
// connection and delivery continues to the rest of the room.
func (e *Engine) fanOut(roomID string, msg *types.Message, excludeUserID string) {
	for _, userID := range e.rooms.Members(roomID) {
		if userID == excludeUserID {
			continue
		}

		conn, ok := e.directory.Get(userID)
		if !ok {
			continue
		}

		if err := conn.Send(msg); err != nil {
			metrics.BroadcastFailures.Inc()
			e.logger.Warn().
				Str("room_id", roomID).
				Str("user_id", userID).
				Err(err).
				Msg("broadcast write failed, evicting connection")
			e.directory.Remove(userID, conn.ID)
		}
	}

	metrics.MessagesBroadcast.WithLabelValues(string(msg.Type)).Inc()
}

// stamp produces the persisted form of an inbound message: a
// server-assigned id and timestamp, and the sender identity of the
// bound connection, whatever the client supplied.
func (e *Engine) stamp(conn *Connection, msg *types.Message) *types.Message {
	stamped := *msg
	stamped.ID = uuid.New().String()
	stamped.Timestamp = time.Now()
	stamped.UserID = conn.UserID
	if stamped.Username == "" {
		stamped.Username = conn.Username
	}
	return &stamped
}

// systemMessage builds an internally generated system notice
func (e *Engine) systemMessage(roomID, content string) *types.Message {
	return &types.Message{
		ID:        uuid.New().String(),
		RoomID:    roomID,
		UserID:    "system",
		Username:  "system",
		Content:   content,
		Type:      types.MessageTypeSystem,
		Timestamp: time.Now(),
	}
}

func (e *Engine) emit(t events.EventType, userID string) {
	if e.broker != nil {
		e.broker.Emit(t, "", map[string]string{"user_id": userID})
	}
}

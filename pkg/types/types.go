package types

import (
	"time"
)

// Message represents a single chat message flowing through the fabric
type Message struct {
	ID        string            // Server-assigned, unique
	RoomID    string
	UserID    string
	Username  string
	Content   string
	Type      MessageType
	Timestamp time.Time // Server clock, assigned on receipt
	Metadata  map[string]string
}

// MessageType defines the kind of message
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeFile   MessageType = "file"
	MessageTypeTyping MessageType = "typing"
	MessageTypeSystem MessageType = "system"
)

// Persistent reports whether messages of this type are written to history.
// Typing indicators are fan-out only.
func (t MessageType) Persistent() bool {
	return t != MessageTypeTyping
}

// PresenceStatus represents a user's reported connectivity status
type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceOffline PresenceStatus = "offline"
	PresenceAway    PresenceStatus = "away"
	PresenceBusy    PresenceStatus = "busy"
)

// Presence is the last-write-wins presence record for a user
type Presence struct {
	UserID    string
	Status    PresenceStatus
	UpdatedAt time.Time
}

// Claims is the result of verifying an identity token.
// Token issuance and validation live in an external auth service;
// the fabric only consumes the verified result.
type Claims struct {
	UserID string
	Role   string
}

// EndpointStatus tracks the last observed health of a backend endpoint
type EndpointStatus struct {
	Endpoint  string
	Healthy   bool
	Message   string
	CheckedAt time.Time
}

// HealthSnapshot is the read-only operational view of the endpoint fleet
type HealthSnapshot struct {
	Total     int
	Healthy   int
	Endpoints []EndpointStatus
}

// ServiceInstance is one registered endpoint of a named backend service
type ServiceInstance struct {
	Service  string
	Endpoint string
	Metadata map[string]string
	LastSeen time.Time
}

// JoinRoomRequest joins a user to a room, creating the room on first join
type JoinRoomRequest struct {
	RoomID   string
	UserID   string
	Username string
}

// JoinRoomResponse returns the member list after the join
type JoinRoomResponse struct {
	Success      bool
	Message      string
	Participants []string
}

// LeaveRoomRequest removes a user from a room
type LeaveRoomRequest struct {
	RoomID string
	UserID string
}

// LeaveRoomResponse reports the outcome of a leave
type LeaveRoomResponse struct {
	Success bool
	Message string
}

// HistoryRequest pages through a room's message history.
// Before is exclusive; zero means "from the latest".
type HistoryRequest struct {
	RoomID string
	Limit  int
	Before time.Time
}

// HistoryResponse returns messages in chronological order.
// HasMore is approximated as len(Messages) == Limit.
type HistoryResponse struct {
	Messages []*Message
	HasMore  bool
}

// PresenceRequest overwrites a user's presence status
type PresenceRequest struct {
	UserID string
	Status PresenceStatus
}

// PresenceResponse reports the outcome of a presence update
type PresenceResponse struct {
	Success bool
}

package chat

import (
	"errors"
	"sync"

	"github.com/cuemby/relay/pkg/types"
)

// Stream is the abstract duplex message channel bound to one client
// connection. The gateway layer adapts its transport (gRPC bidi stream,
// WebSocket) to this interface; end-of-stream, transport error, and
// cancellation all surface as a Recv error.
type Stream interface {
	// Send writes one message to the client
	Send(msg *types.Message) error

	// Recv blocks for the next inbound message. It returns io.EOF on a
	// clean end-of-stream and any other error on transport failure or
	// cancellation.
	Recv() (*types.Message, error)
}

// TokenVerifier validates an identity token. Issuance and validation
// live in an external auth service.
type TokenVerifier interface {
	VerifyToken(token string) (types.Claims, error)
}

// ErrConnectionClosed is returned when sending on a connection that has
// already been evicted
var ErrConnectionClosed = errors.New("connection closed")

// Connection is a live stream handle bound to exactly one user for its
// lifetime. It is owned by the directory and removed on stream
// end/error/cancel, the sole authoritative signal of disconnection.
type Connection struct {
	ID       string
	UserID   string
	Username string

	stream Stream

	mu     sync.Mutex
	closed bool
}

// Send writes a message to the client. Writes are serialized so
// concurrent broadcasts never interleave on the transport.
func (c *Connection) Send(msg *types.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}
	return c.stream.Send(msg)
}

// Close marks the connection closed. Subsequent sends fail without
// touching the transport.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

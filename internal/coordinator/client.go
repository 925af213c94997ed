// internal/coordinator/client.go
package coordinator

import (
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Custom WebSocket close codes used when the coordinator severs a connection.
const (
	CloseBadSubprotocol websocket.StatusCode = 3000 // client connected with an unsupported subprotocol
	CloseInvalidToken   websocket.StatusCode = 3001 // credential was missing, invalid, or expired
	CloseAuthRevoked    websocket.StatusCode = 3002 // account was banned while connected
	CloseSuperseded     websocket.StatusCode = 3003 // a newer connection authenticated as the same user
)

// Message is the wire envelope for everything sent to a connection.
// Event names are part of the client protocol and must not change.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Client is one authenticated live connection. At most one Client exists
// per user id at a time; a fresh authentication supersedes the old record.
//
// Writes go through a buffered out-channel drained by the connection's
// write pump, so broadcasts enqueued under a session lock reach the wire
// in enqueue order.
type Client struct {
	UserID   uuid.UUID
	Username string
	Role     string
	Conn     *websocket.Conn

	mu        sync.Mutex
	out       chan Message
	closed    bool
	closeCode websocket.StatusCode
	closeText string
}

// NewClient wraps an authenticated connection.
func NewClient(userID uuid.UUID, username, role string, conn *websocket.Conn) *Client {
	return &Client{
		UserID:   userID,
		Username: username,
		Role:     role,
		Conn:     conn,
		out:      make(chan Message, 32),
	}
}

// Send pushes a message onto the out-channel without blocking. Messages to
// a closed or saturated connection are dropped; the read loop notices a
// dead peer soon enough and slow consumers must not stall a session.
func (c *Client) Send(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.out <- msg:
	default:
		logrus.Warnf("client %s: out channel full, dropped %q", c.UserID, msg.Event)
	}
}

// SendError is a convenience for private error reports.
func (c *Client) SendError(e *Error) {
	c.Send(Message{Event: "error", Data: map[string]string{
		"kind":    string(e.Kind),
		"message": e.Message,
	}})
}

// Close marks the client closed and closes the out-channel. The write
// pump drains what is already queued, then closes the socket with the
// recorded status. Safe to call more than once.
func (c *Client) Close(code websocket.StatusCode, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.closeCode = code
	c.closeText = reason
	close(c.out)
}

// Out exposes the outbound queue to the write pump.
func (c *Client) Out() <-chan Message {
	return c.out
}

// CloseStatus returns the status recorded by Close. The zero value means
// the client was never explicitly closed.
func (c *Client) CloseStatus() (websocket.StatusCode, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCode, c.closeText
}

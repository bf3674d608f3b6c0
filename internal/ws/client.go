package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Event is the envelope every socket frame uses, in both directions.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Client is one websocket connection of one user. Writes are serialized; the
// underlying gorilla connection does not allow concurrent writers.
type Client struct {
	info ConnInfo

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewClient wraps a connection. A nil conn is tolerated (tests).
func NewClient(conn *websocket.Conn, info ConnInfo) *Client {
	return &Client{conn: conn, info: info}
}

// UserID returns the authenticated owner of this connection.
func (c *Client) UserID() string { return c.info.UserID }

// ID returns the unique connection id.
func (c *Client) ID() string { return c.info.ConnID }

// Info returns the connection metadata captured at handshake time.
func (c *Client) Info() ConnInfo { return c.info }

// Send writes one event to the connection.
func (c *Client) Send(event string, data any) error {
	if c.conn == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(Event{Event: event, Data: data})
}

// Close closes the underlying connection.
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

package ws

import (
	"sync"
	"time"

	"github.com/artpar/socketgate/core/schema"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Client represents one connected websocket peer. It is the transport
// handle handed to message handlers; writes are serialized so concurrent
// replies never interleave on the wire.
type Client struct {
	conn   *websocket.Conn
	acct   schema.Accountability
	logger zerolog.Logger

	writeMu      sync.Mutex
	writeTimeout time.Duration
}

// Accountability returns the caller identity established at handshake.
func (c *Client) Accountability() schema.Accountability {
	return c.acct
}

// Send writes one text frame to the peer.
func (c *Client) Send(text string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// ping writes a ping control frame.
func (c *Client) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

// close closes the underlying connection.
func (c *Client) close() error {
	return c.conn.Close()
}

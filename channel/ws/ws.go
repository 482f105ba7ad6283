// Package ws provides the websocket channel. It upgrades HTTP requests to
// persistent connections, establishes caller accountability at handshake,
// and publishes every inbound JSON message on the bus for routers to handle.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/artpar/socketgate/adapters/metrics"
	"github.com/artpar/socketgate/core/events"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Config configures the websocket channel.
type Config struct {
	// Path is the HTTP path the channel is mounted on.
	Path string

	// PingInterval is the keepalive ping period.
	PingInterval time.Duration

	// WriteTimeout bounds each outbound frame write.
	WriteTimeout time.Duration

	// MaxMessageSize caps inbound frame size in bytes.
	MaxMessageSize int64

	// JWTSecret verifies connection tokens.
	JWTSecret string

	// RequireAuth rejects connections without a valid token.
	RequireAuth bool
}

// Channel accepts websocket connections and feeds their messages to the bus.
type Channel struct {
	cfg       Config
	bus       *events.Bus
	logger    zerolog.Logger
	collector *metrics.Collector

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*Client]struct{}
}

// New creates a websocket channel. The collector may be nil.
func New(bus *events.Bus, cfg Config, logger zerolog.Logger, collector *metrics.Collector) *Channel {
	if cfg.Path == "" {
		cfg.Path = "/ws"
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 1 << 20
	}

	return &Channel{
		cfg:       cfg,
		bus:       bus,
		logger:    logger.With().Str("channel", "websocket").Logger(),
		collector: collector,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*Client]struct{}),
	}
}

// Name returns the channel name.
func (c *Channel) Name() string {
	return "websocket"
}

// Path returns the HTTP path the channel serves on.
func (c *Channel) Path() string {
	return c.cfg.Path
}

// Start starts the channel. The HTTP server owns the listener; nothing to do.
func (c *Channel) Start(ctx context.Context) error {
	return nil
}

// Stop closes all open connections.
func (c *Channel) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for client := range c.clients {
		client.close()
		delete(c.clients, client)
	}
	return nil
}

// ServeHTTP upgrades a request to a websocket connection.
func (c *Channel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	acct, err := c.authenticate(r)
	if err != nil {
		if c.collector != nil {
			c.collector.AuthFailures.WithLabelValues("token").Inc()
		}
		c.logger.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("connection rejected")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("upgrade failed")
		return
	}

	client := &Client{
		conn:         conn,
		acct:         acct,
		logger:       c.logger.With().Str("remote", r.RemoteAddr).Logger(),
		writeTimeout: c.cfg.WriteTimeout,
	}

	c.mu.Lock()
	c.clients[client] = struct{}{}
	c.mu.Unlock()

	if c.collector != nil {
		c.collector.ConnectionsTotal.Inc()
		c.collector.ConnectionsActive.Inc()
	}

	c.logger.Debug().Str("remote", r.RemoteAddr).Str("user", acct.UserID).Msg("connection opened")

	// The request context dies when this handler returns; the hijacked
	// connection outlives it.
	go c.pingLoop(client)
	go c.readLoop(context.Background(), client)
}

// readLoop reads frames until the connection drops. Each decoded JSON object
// is published on the bus; frames that are not JSON objects are dropped with
// a debug log since no handler could own them.
func (c *Channel) readLoop(ctx context.Context, client *Client) {
	defer c.drop(client)

	pongWait := 2 * c.cfg.PingInterval
	client.conn.SetReadLimit(c.cfg.MaxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				client.logger.Debug().Err(err).Msg("connection closed")
			}
			return
		}

		var message map[string]any
		if err := json.Unmarshal(data, &message); err != nil {
			client.logger.Debug().Err(err).Msg("dropped undecodable frame")
			continue
		}

		c.bus.Publish(ctx, events.Event{
			Name:           events.EventMessage,
			Client:         client,
			Accountability: client.acct,
			Message:        message,
		})
	}
}

// pingLoop keeps the connection alive until it drops.
func (c *Channel) pingLoop(client *Client) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for range ticker.C {
		if err := client.ping(); err != nil {
			return
		}
	}
}

// drop unregisters and closes a client.
func (c *Channel) drop(client *Client) {
	c.mu.Lock()
	_, open := c.clients[client]
	delete(c.clients, client)
	c.mu.Unlock()

	client.close()

	if open && c.collector != nil {
		c.collector.ConnectionsActive.Dec()
	}
}

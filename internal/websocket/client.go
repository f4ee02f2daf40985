package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"signage-service/internal/config"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// ClientConfig holds per-connection limits.
type ClientConfig struct {
	WriteWait      time.Duration
	PingInterval   time.Duration // zero disables ping/pong keepalive
	MaxMessageSize int64
	SendBufferSize int
	InboundRate    float64 // messages per second, zero disables throttling
	InboundBurst   int
}

func NewClientConfig(cfg config.WebSocketConfig) ClientConfig {
	return ClientConfig{
		WriteWait:      cfg.WriteWait,
		PingInterval:   cfg.PingInterval,
		MaxMessageSize: cfg.MaxMessageSize,
		SendBufferSize: cfg.SendBufferSize,
		InboundRate:    cfg.InboundRate,
		InboundBurst:   cfg.InboundBurst,
	}
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 64 * 1024
	}
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = 256
	}
	if c.InboundRate > 0 && c.InboundBurst <= 0 {
		c.InboundBurst = 1
	}
	return c
}

// pongWait is how long to wait for a pong once keepalive is enabled.
func (c ClientConfig) pongWait() time.Duration {
	return c.PingInterval * 10 / 9
}

// NewUpgrader builds the gorilla upgrader. An empty allowedOrigins accepts any
// origin; players are usually not browsers and send none.
func NewUpgrader(cfg config.WebSocketConfig, allowedOrigins []string) *websocket.Upgrader {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if len(allowed) == 0 || origin == "" || allowed["*"] {
				return true
			}
			return allowed[origin]
		},
	}
}

// Client is one player socket. It implements Conn.
type Client struct {
	id      string
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	cfg     ClientConfig
	limiter *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc
	closed int32

	wg sync.WaitGroup
}

func NewClient(hub *Hub, conn *websocket.Conn, cfg ClientConfig) *Client {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		id:     uuid.New().String(),
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, cfg.SendBufferSize),
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}
	if cfg.InboundRate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.InboundRate), cfg.InboundBurst)
	}
	return c
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) IsOpen() bool {
	return atomic.LoadInt32(&c.closed) == 0
}

// Send queues a frame for the write pump. It never blocks; a full buffer
// closes the client since the player is not keeping up.
func (c *Client) Send(data []byte) error {
	if !c.IsOpen() {
		return ErrClientDisconnected
	}

	select {
	case c.send <- data:
		return nil
	case <-c.ctx.Done():
		return ErrClientDisconnected
	default:
		slog.Warn("Send buffer full, closing client", "clientID", c.id)
		c.Close()
		return ErrSendBufferFull
	}
}

// Close marks the client closed. The write pump then sends a close frame and
// tears down the socket, which ends the read pump.
func (c *Client) Close() error {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		c.cancel()
		slog.Debug("Client marked as closed", "clientID", c.id)
	}
	return nil
}

func (c *Client) readPump() {
	defer func() {
		c.wg.Done()
		c.Close()
		c.hub.Unregister(c)
		if err := c.conn.Close(); err != nil {
			slog.Debug("Error closing connection", "clientID", c.id, "error", err)
		}
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	if c.cfg.PingInterval > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.pongWait()))
		c.conn.SetPongHandler(func(string) error {
			if !c.IsOpen() {
				return websocket.ErrCloseSent
			}
			return c.conn.SetReadDeadline(time.Now().Add(c.cfg.pongWait()))
		})
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Warn("WebSocket error", "clientID", c.id, "error", err)
			} else {
				slog.Debug("WebSocket connection closed", "clientID", c.id, "error", err)
			}
			return
		}

		if c.limiter != nil && !c.limiter.Allow() {
			c.hub.replyError(c, ErrCodeRateLimited, "too many messages")
			continue
		}

		c.hub.HandleMessage(c.ctx, c, data)
	}
}

func (c *Client) writePump() {
	var tick <-chan time.Time
	if c.cfg.PingInterval > 0 {
		ticker := time.NewTicker(c.cfg.PingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}
	defer func() {
		c.wg.Done()
		// Unblocks ReadMessage in the read pump.
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Debug("Error writing message", "clientID", c.id, "error", err)
				c.Close()
				return
			}

		case <-tick:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.Debug("Error sending ping", "clientID", c.id, "error", err)
				c.Close()
				return
			}

		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Wait blocks until both pumps have returned.
func (c *Client) Wait() {
	c.wg.Wait()
}

// ServeWS upgrades the request and runs the client's pumps. Players identify
// themselves afterwards with PLAYER_REGISTER.
func ServeWS(hub *Hub, upgrader *websocket.Upgrader, cfg ClientConfig, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket connection", "remoteAddr", r.RemoteAddr, "error", err)
		return
	}

	client := NewClient(hub, conn, cfg)
	if err := hub.Attach(client); err != nil {
		slog.Warn("Rejecting WebSocket connection", "remoteAddr", r.RemoteAddr, "error", err)
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}
	slog.Info("New WebSocket connection established", "clientID", client.id, "remoteAddr", r.RemoteAddr)

	client.wg.Add(2)
	go client.writePump()
	go client.readPump()
}

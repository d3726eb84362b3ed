package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/tipurk/neechat/internal/events"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // 1 MB
	sendBufferSize = 256
)

// Client is one live connection bound to an authenticated user. A user may
// hold several clients at once (multiple tabs/devices).
type Client struct {
	ID     string
	UserID int64
	Conn   *websocket.Conn
	Send   chan []byte

	hub       *Hub
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu       sync.Mutex
	lastSeen time.Time
}

func newClient(hub *Hub, conn *websocket.Conn, userID int64) *Client {
	ctx, cancel := context.WithCancel(hub.ctx)
	return &Client{
		ID:       uuid.New().String(),
		UserID:   userID,
		Conn:     conn,
		Send:     make(chan []byte, sendBufferSize),
		hub:      hub,
		ctx:      ctx,
		cancel:   cancel,
		lastSeen: time.Now(),
	}
}

// Start launches the read/write pumps. Call once, after the client is
// registered with the hub.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		if c.Conn != nil {
			_ = c.Conn.Close()
		}
	})
}

func (c *Client) IsActive() bool {
	select {
	case <-c.ctx.Done():
		return false
	default:
		return true
	}
}

func (c *Client) GetLastSeen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

func (c *Client) touchLastSeen() {
	c.mu.Lock()
	c.lastSeen = time.Now()
	c.mu.Unlock()
}

// writePump drains c.Send onto the socket and keeps the connection alive
// with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// readPump handles pongs for keep-alive and the two inbound commands a
// client may send: joinChat and typing.
func (c *Client) readPump() {
	defer func() {
		c.hub.Disconnect(c)
		c.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.touchLastSeen()
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			return
		}

		c.touchLastSeen()
		c.handleInbound(raw)
	}
}

type inboundFrame struct {
	Event string `json:"event"`
	Data  struct {
		ChatID int64 `json:"chatId"`
		Typing bool  `json:"typing"`
	} `json:"data"`
}

func (c *Client) handleInbound(raw []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		log.Warn().Str("clientID", c.ID).Msg("ws: dropping malformed inbound frame")
		return
	}

	switch frame.Event {
	case "joinChat":
		c.hub.JoinRoom(frame.Data.ChatID, c)
	case "typing":
		// Relay to the room, excluding the sender's own connection. No
		// membership check here: rooms are broadcast channels, access is
		// enforced at the HTTP layer.
		c.hub.broadcastToRoom(frame.Data.ChatID, events.TypingEvent(c.UserID, frame.Data.Typing), c)
	default:
		log.Debug().Str("clientID", c.ID).Str("event", frame.Event).Msg("ws: unknown inbound event")
	}
}

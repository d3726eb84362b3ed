package websocket

import (
	"context"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/tipurk/neechat/internal/events"
	"github.com/tipurk/neechat/internal/presence"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Hub is the connection registry: it maps users to their live connections
// and chat rooms to their subscribers, and implements events.Sink.
// Owned by the server process lifecycle, constructed at startup.
type Hub struct {
	// Room management: chat id -> subscribed clients
	rooms map[int64]map[*Client]struct{}
	// clientRooms tracks the reverse mapping so disconnect can release
	// every subscription the connection holds.
	clientRooms map[*Client]map[int64]struct{}
	mu          sync.RWMutex

	// Personal channels: user id -> that user's clients
	userClients map[int64][]*Client
	userMu      sync.RWMutex

	tracker *presence.Tracker

	ctx    context.Context
	cancel context.CancelFunc

	stats   HubStats
	statsMu sync.RWMutex

	cleanupTicker *time.Ticker
}

type HubStats struct {
	TotalRooms       int       `json:"total_rooms"`
	TotalClients     int       `json:"total_clients"`
	TotalConnections int64     `json:"total_connections"`
	EventsSent       int64     `json:"events_sent"`
	LastReset        time.Time `json:"last_reset"`
}

func NewHub(tracker *presence.Tracker) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	hub := &Hub{
		rooms:       make(map[int64]map[*Client]struct{}),
		clientRooms: make(map[*Client]map[int64]struct{}),
		userClients: make(map[int64][]*Client),
		tracker:     tracker,
		ctx:         ctx,
		cancel:      cancel,
		stats: HubStats{
			LastReset: time.Now(),
		},
		cleanupTicker: time.NewTicker(1 * time.Minute),
	}

	go hub.cleanupRoutine()

	return hub
}

// Connect binds an authenticated connection to its user identity: the
// client joins the user's personal channel and presence is touched. Room
// subscriptions happen later via joinChat commands.
func (h *Hub) Connect(client *Client) {
	h.userMu.Lock()
	h.userClients[client.UserID] = append(h.userClients[client.UserID], client)
	h.userMu.Unlock()

	if h.tracker != nil {
		if err := h.tracker.Touch(h.ctx, client.UserID); err != nil {
			log.Warn().Err(err).Int64("userID", client.UserID).Msg("ws: presence touch failed")
		}
	}

	h.updateStats(func(stats *HubStats) {
		stats.TotalConnections++
	})

	log.Info().Str("clientID", client.ID).Int64("userID", client.UserID).Msg("ws: client connected")
}

// JoinRoom subscribes the connection to a chat room. No membership check:
// the room is a broadcast channel keyed by chat id, not an access-control
// boundary. Membership is enforced at the HTTP layer before any event
// reaches the room.
func (h *Hub) JoinRoom(chatID int64, client *Client) {
	h.mu.Lock()
	if h.rooms[chatID] == nil {
		h.rooms[chatID] = make(map[*Client]struct{})
	}
	h.rooms[chatID][client] = struct{}{}

	if h.clientRooms[client] == nil {
		h.clientRooms[client] = make(map[int64]struct{})
	}
	h.clientRooms[client][chatID] = struct{}{}
	roomSize := len(h.rooms[chatID])
	h.mu.Unlock()

	log.Info().Int64("chatID", chatID).Str("clientID", client.ID).Int64("userID", client.UserID).Int("roomSize", roomSize).Msg("ws: client joined room")
}

// Disconnect releases every room subscription and the personal channel
// binding for the connection. No eager offline push: presence lapses on its
// own once the freshness window expires.
func (h *Hub) Disconnect(client *Client) {
	h.mu.Lock()
	for chatID := range h.clientRooms[client] {
		if clients, ok := h.rooms[chatID]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.rooms, chatID)
			}
		}
	}
	delete(h.clientRooms, client)
	h.mu.Unlock()

	h.userMu.Lock()
	userClients := h.userClients[client.UserID]
	for i, c := range userClients {
		if c == client {
			h.userClients[client.UserID] = append(userClients[:i], userClients[i+1:]...)
			break
		}
	}
	if len(h.userClients[client.UserID]) == 0 {
		delete(h.userClients, client.UserID)
	}
	h.userMu.Unlock()

	log.Info().Str("clientID", client.ID).Int64("userID", client.UserID).Msg("ws: client disconnected")
}

// EmitToRoom implements events.Sink. Within one room, events reach every
// subscriber's buffer in emit order: enqueueing is sequential and
// non-blocking, so a slow consumer never stalls the triggering action.
func (h *Hub) EmitToRoom(chatID int64, e events.Event) {
	h.broadcastToRoom(chatID, e, nil)
}

func (h *Hub) broadcastToRoom(chatID int64, e events.Event, except *Client) {
	data, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Int64("chatID", chatID).Msg("ws: failed to marshal room event")
		return
	}

	h.mu.RLock()
	var targets []*Client
	if clients, ok := h.rooms[chatID]; ok {
		targets = make([]*Client, 0, len(clients))
		for client := range clients {
			if except != nil && client == except {
				continue
			}
			if client.IsActive() {
				targets = append(targets, client)
			}
		}
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	for _, client := range targets {
		h.deliver(client, data)
	}

	h.updateStats(func(stats *HubStats) {
		stats.EventsSent += int64(len(targets))
	})

	log.Debug().Int64("chatID", chatID).Int("targets", len(targets)).Str("event", e.Name).Msg("ws: room broadcast completed")
}

// EmitToUser implements events.Sink: delivery to every connection on the
// user's personal channel. Used for direct-to-user events (unread updates,
// chat created/deleted).
func (h *Hub) EmitToUser(userID int64, e events.Event) {
	h.userMu.RLock()
	clients := make([]*Client, len(h.userClients[userID]))
	copy(clients, h.userClients[userID])
	h.userMu.RUnlock()

	if len(clients) == 0 {
		return
	}

	data, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Int64("userID", userID).Msg("ws: failed to marshal user event")
		return
	}

	for _, client := range clients {
		if !client.IsActive() {
			continue
		}
		h.deliver(client, data)
	}
}

// deliver pushes into the client buffer without blocking. A full buffer
// marks a slow consumer: the event is dropped and the connection closed,
// never surfacing an error to the producer. The client recovers the data on
// its next reload.
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.Send <- data:
	case <-client.ctx.Done():
	default:
		log.Warn().Str("clientID", client.ID).Int64("userID", client.UserID).Msg("ws: slow consumer, dropping event")
		go client.Close()
	}
}

// Utility methods

func (h *Hub) GetUserClients(userID int64) []*Client {
	h.userMu.RLock()
	defer h.userMu.RUnlock()

	var activeClients []*Client
	for _, client := range h.userClients[userID] {
		if client.IsActive() {
			activeClients = append(activeClients, client)
		}
	}
	return activeClients
}

func (h *Hub) GetHubStats() HubStats {
	h.mu.RLock()
	totalRooms := len(h.rooms)
	totalClients := 0
	for client := range h.clientRooms {
		if client.IsActive() {
			totalClients++
		}
	}
	h.mu.RUnlock()

	h.statsMu.Lock()
	defer h.statsMu.Unlock()
	h.stats.TotalRooms = totalRooms
	h.stats.TotalClients = totalClients
	return h.stats
}

func (h *Hub) updateStats(fn func(*HubStats)) {
	h.statsMu.Lock()
	fn(&h.stats)
	h.statsMu.Unlock()
}

func (h *Hub) cleanupRoutine() {
	defer h.cleanupTicker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-h.cleanupTicker.C:
			h.performCleanup()
		}
	}
}

func (h *Hub) performCleanup() {
	now := time.Now()
	inactiveThreshold := 2 * time.Minute

	var toRemove []*Client

	h.mu.RLock()
	for client := range h.clientRooms {
		if !client.IsActive() || now.Sub(client.GetLastSeen()) > inactiveThreshold {
			toRemove = append(toRemove, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range toRemove {
		log.Info().Str("clientID", client.ID).Int64("userID", client.UserID).Msg("ws: cleaning up inactive client")
		client.Close()
	}
}

// Close gracefully shuts down the hub and every client.
func (h *Hub) Close() {
	log.Info().Msg("ws: shutting down hub")

	h.cancel()

	h.userMu.RLock()
	var allClients []*Client
	for _, clients := range h.userClients {
		allClients = append(allClients, clients...)
	}
	h.userMu.RUnlock()

	for _, client := range allClients {
		client.Close()
	}

	log.Info().Int("clients", len(allClients)).Msg("ws: hub shutdown completed")
}

package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tipurk/neechat/internal/events"
)

// Tests run against clients with no underlying socket: delivery lands in
// the Send buffer, which is exactly the boundary the hub guarantees.

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(nil)
	t.Cleanup(h.Close)
	return h
}

func connect(t *testing.T, h *Hub, userID int64) *Client {
	t.Helper()
	c := newClient(h, nil, userID)
	h.Connect(c)
	return c
}

func drain(c *Client) []string {
	var frames []string
	for {
		select {
		case data := <-c.Send:
			frames = append(frames, string(data))
		default:
			return frames
		}
	}
}

func TestEmitToRoom_ReachesSubscribersInOrder(t *testing.T) {
	h := newTestHub(t)

	alice := connect(t, h, 1)
	bob := connect(t, h, 2)
	outsider := connect(t, h, 3)

	h.JoinRoom(10, alice)
	h.JoinRoom(10, bob)

	h.EmitToRoom(10, events.TypingEvent(1, true))
	h.EmitToRoom(10, events.TypingEvent(1, false))

	for _, c := range []*Client{alice, bob} {
		frames := drain(c)
		require.Len(t, frames, 2)
		assert.Contains(t, frames[0], `"typing":true`)
		assert.Contains(t, frames[1], `"typing":false`)
	}

	assert.Empty(t, drain(outsider), "non-subscriber receives nothing")
}

func TestBroadcastToRoom_ExcludesSender(t *testing.T) {
	h := newTestHub(t)

	alice := connect(t, h, 1)
	bob := connect(t, h, 2)
	h.JoinRoom(10, alice)
	h.JoinRoom(10, bob)

	h.broadcastToRoom(10, events.TypingEvent(1, true), alice)

	assert.Empty(t, drain(alice), "sender's own connection is excluded")
	assert.Len(t, drain(bob), 1)
}

func TestEmitToUser_AllConnectionsOfThatUserOnly(t *testing.T) {
	h := newTestHub(t)

	tab1 := connect(t, h, 1)
	tab2 := connect(t, h, 1)
	other := connect(t, h, 2)

	h.EmitToUser(1, events.UnreadUpdatedEvent(10, 3))

	assert.Len(t, drain(tab1), 1)
	assert.Len(t, drain(tab2), 1)
	assert.Empty(t, drain(other))

	// Unknown user: silently nothing.
	h.EmitToUser(999, events.UnreadUpdatedEvent(10, 1))
}

func TestDisconnect_ReleasesRoomsAndPersonalChannel(t *testing.T) {
	h := newTestHub(t)

	alice := connect(t, h, 1)
	bob := connect(t, h, 2)
	h.JoinRoom(10, alice)
	h.JoinRoom(11, alice)
	h.JoinRoom(10, bob)

	h.Disconnect(alice)

	h.EmitToRoom(10, events.TypingEvent(2, true))
	h.EmitToRoom(11, events.TypingEvent(2, true))
	h.EmitToUser(1, events.UnreadUpdatedEvent(10, 1))

	assert.Empty(t, drain(alice), "disconnected client receives nothing")
	assert.Len(t, drain(bob), 1)
	assert.Empty(t, h.GetUserClients(1))
}

func TestDeliver_SlowConsumerDropsAndCloses(t *testing.T) {
	h := newTestHub(t)

	slow := connect(t, h, 1)
	h.JoinRoom(10, slow)

	// Fill the buffer past capacity. The overflow event is dropped, the
	// producer never blocks, and the connection gets closed.
	for i := 0; i < sendBufferSize+1; i++ {
		h.EmitToRoom(10, events.TypingEvent(2, true))
	}

	assert.Len(t, drain(slow), sendBufferSize)
}

func TestGetHubStats(t *testing.T) {
	h := newTestHub(t)

	alice := connect(t, h, 1)
	connect(t, h, 2)
	h.JoinRoom(10, alice)

	stats := h.GetHubStats()
	assert.Equal(t, 1, stats.TotalRooms)
	assert.Equal(t, int64(2), stats.TotalConnections)
}

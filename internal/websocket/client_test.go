package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tipurk/neechat/internal/events"
)

func TestHandleInbound_JoinChatSubscribesToRoom(t *testing.T) {
	h := newTestHub(t)
	c := connect(t, h, 1)

	c.handleInbound([]byte(`{"event":"joinChat","data":{"chatId":7}}`))

	h.EmitToRoom(7, events.TypingEvent(2, true))
	assert.Len(t, drain(c), 1, "joined client receives room events")
}

func TestHandleInbound_TypingRelaysToRoomExceptSender(t *testing.T) {
	h := newTestHub(t)
	sender := connect(t, h, 1)
	peer := connect(t, h, 2)
	h.JoinRoom(7, sender)
	h.JoinRoom(7, peer)

	sender.handleInbound([]byte(`{"event":"typing","data":{"chatId":7,"typing":true}}`))

	assert.Empty(t, drain(sender), "sender's own connection is excluded")

	frames := drain(peer)
	require.Len(t, frames, 1)
	assertFrame(t, frames[0], "typing", "userId", "typing")
}

func TestHandleInbound_MalformedAndUnknownFramesAreDropped(t *testing.T) {
	h := newTestHub(t)
	c := connect(t, h, 1)
	peer := connect(t, h, 2)
	h.JoinRoom(7, c)
	h.JoinRoom(7, peer)

	c.handleInbound([]byte(`{not json`))
	c.handleInbound([]byte(`{"event":"selfDestruct","data":{"chatId":7}}`))

	assert.Empty(t, drain(c))
	assert.Empty(t, drain(peer), "neither frame produces an emission")
}

// assertFrame decodes one outbound frame and checks the envelope and the
// exact payload field set. Clients depend on these names bit-exactly.
func assertFrame(t *testing.T, frame string, event string, fields ...string) map[string]any {
	t.Helper()

	var envelope struct {
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(frame), &envelope))
	assert.Equal(t, event, envelope.Event)

	keys := make([]string, 0, len(envelope.Data))
	for k := range envelope.Data {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, fields, keys, "payload field names for %s", event)
	return envelope.Data
}

func TestWireShapes_AllEventTypes(t *testing.T) {
	h := newTestHub(t)
	member := connect(t, h, 2)
	h.JoinRoom(5, member)

	replyTo := int64(100)
	replyText := "earlier"
	replyName := "Bob"
	h.EmitToRoom(5, events.NewMessageEvent(events.NewMessage{
		ID:        101,
		ChatID:    5,
		UserID:    1,
		Text:      "hello",
		ReplyTo:   &replyTo,
		ReplyText: &replyText,
		ReplyName: &replyName,
		CreatedAt: time.Now(),
		Name:      "Alice",
		Avatar:    "👤",
	}))
	h.EmitToRoom(5, events.TypingEvent(1, true))
	h.EmitToUser(2, events.UnreadUpdatedEvent(5, 3))
	h.EmitToUser(2, events.ChatDeletedEvent(5))
	h.EmitToUser(2, events.ChatCreatedEvent(events.ChatCreated{ID: 9, Name: "Alice", IsGroup: false}))

	frames := drain(member)
	require.Len(t, frames, 5)

	data := assertFrame(t, frames[0], "new-message",
		"id", "chat_id", "user_id", "text", "reply_to", "reply_text", "reply_name", "created_at", "name", "avatar")
	assert.Equal(t, float64(101), data["id"])
	assert.Equal(t, "hello", data["text"])
	assert.Equal(t, "earlier", data["reply_text"])

	data = assertFrame(t, frames[1], "typing", "userId", "typing")
	assert.Equal(t, true, data["typing"])

	data = assertFrame(t, frames[2], "unread-updated", "chatId", "count")
	assert.Equal(t, float64(3), data["count"])

	data = assertFrame(t, frames[3], "chat-deleted", "chatId")
	assert.Equal(t, float64(5), data["chatId"])

	data = assertFrame(t, frames[4], "chat-created", "id", "name", "is_group")
	assert.Equal(t, false, data["is_group"])
}

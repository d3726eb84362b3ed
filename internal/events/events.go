package events

import (
	"time"
)

// Event is the wire envelope for every socket frame the server pushes.
// Payload shapes are consumed by clients and must stay bit-exact.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// Sink decouples event producers from the socket transport. The hub is the
// production implementation; tests substitute a recorder and assert which
// (target, payload) pairs were emitted.
type Sink interface {
	// EmitToRoom delivers to every connection subscribed to the chat's room.
	// Calls for the same chat id must be delivered in call order.
	EmitToRoom(chatID int64, e Event)
	// EmitToUser delivers to every connection on the user's personal channel.
	EmitToUser(userID int64, e Event)
}

// NewMessage is both the hydrated message view returned by the HTTP layer
// and the payload of the new-message event.
type NewMessage struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	UserID    int64     `json:"user_id"`
	Text      string    `json:"text"`
	ReplyTo   *int64    `json:"reply_to"`
	ReplyText *string   `json:"reply_text"`
	ReplyName *string   `json:"reply_name"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
}

type Typing struct {
	UserID int64 `json:"userId"`
	Typing bool  `json:"typing"`
}

// UnreadUpdated carries an absolute count, never a delta. Clients apply the
// last one received; ordering between count events is not guaranteed.
type UnreadUpdated struct {
	ChatID int64 `json:"chatId"`
	Count  int64 `json:"count"`
}

type ChatDeleted struct {
	ChatID int64 `json:"chatId"`
}

type ChatCreated struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	IsGroup bool   `json:"is_group"`
}

func NewMessageEvent(m NewMessage) Event {
	return Event{Name: "new-message", Data: m}
}

func TypingEvent(userID int64, typing bool) Event {
	return Event{Name: "typing", Data: Typing{UserID: userID, Typing: typing}}
}

func UnreadUpdatedEvent(chatID, count int64) Event {
	return Event{Name: "unread-updated", Data: UnreadUpdated{ChatID: chatID, Count: count}}
}

func ChatDeletedEvent(chatID int64) Event {
	return Event{Name: "chat-deleted", Data: ChatDeleted{ChatID: chatID}}
}

func ChatCreatedEvent(c ChatCreated) Event {
	return Event{Name: "chat-created", Data: c}
}

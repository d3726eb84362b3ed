package queue

import (
	"encoding/json"
	"fmt"
)

const (
	// JobUnreadFanout recomputes unread counts for a chat's members after a
	// new message and emits unread-updated to each non-author member.
	JobUnreadFanout = "unread_fanout"
	// JobChatDeletedFanout notifies the former members of a deleted chat.
	// The member list rides in the payload: the store can no longer answer
	// membership queries for a deleted chat.
	JobChatDeletedFanout = "chat_deleted_fanout"
)

type Job struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Retry     int             `json:"retry"`
	MaxRetry  int             `json:"max_retry"`
	ErrorMsg  string          `json:"error_msg,omitempty"`
	CreatedAt int64           `json:"created_at"`
	ExpireAt  int64           `json:"expired_at"`
}

type UnreadFanoutPayload struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int64 `json:"message_id"`
	AuthorID  int64 `json:"author_id"`
}

type ChatDeletedFanoutPayload struct {
	ChatID      int64   `json:"chat_id"`
	MemberIDs   []int64 `json:"member_ids"`
	RequesterID int64   `json:"requester_id"`
}

// MustMarshal encodes a job payload. Payloads are plain structs, so a
// marshal failure is a programming mistake and panics instead of letting a
// nil payload reach the worker and burn its retries.
func MustMarshal(payload any) json.RawMessage {
	b, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("queue: marshal job payload: %v", err))
	}

	return b
}

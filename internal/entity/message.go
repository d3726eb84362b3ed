package entity

import (
	"time"
)

// Message id is monotonically increasing and defines delivery/display order
// within a chat. Text may hold a media reference instead of plain text.
type Message struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	ChatID    int64 `gorm:"index;not null"`
	UserID    int64 `gorm:"not null"`
	Text      string
	ReplyTo   *int64 // nulled when the referenced message is deleted
	CreatedAt time.Time
}

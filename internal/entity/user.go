package entity

import (
	"time"
)

// DefaultAvatar is assigned at registration; users swap it for a custom
// glyph or image URL via profile update.
const DefaultAvatar = "👤"

type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Name         string
	Avatar       string    // glyph or URL, client renders either
	LastSeen     time.Time // last-activity instant, drives the online indicator
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

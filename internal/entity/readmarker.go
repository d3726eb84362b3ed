package entity

// ReadMarker stores the last message id a user acknowledged as read in a
// chat. A missing row or nil LastReadMessageID means nothing was read yet.
type ReadMarker struct {
	UserID            int64 `gorm:"primaryKey;autoIncrement:false"`
	ChatID            int64 `gorm:"primaryKey;autoIncrement:false"`
	LastReadMessageID *int64
}

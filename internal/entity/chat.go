package entity

// GeneralChatName is the seeded group chat every user is joined to at
// registration. It can never be deleted.
const GeneralChatName = "general"

type Chat struct {
	ID      int64  `gorm:"primaryKey;autoIncrement"`
	Name    string `gorm:"not null"`
	IsGroup bool
}

// ChatMember links users to chats, many-to-many. A private chat carries
// exactly two members.
type ChatMember struct {
	ChatID int64 `gorm:"primaryKey;autoIncrement:false"`
	UserID int64 `gorm:"primaryKey;autoIncrement:false"`
}

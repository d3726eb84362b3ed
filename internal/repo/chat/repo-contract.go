package chat_repo

import (
	"context"

	app_error "github.com/tipurk/neechat/internal/errors"
	"github.com/tipurk/neechat/internal/entity"
	"github.com/tipurk/neechat/internal/events"
)

type ChatRepoContract interface {
	// Chats and memberships
	FindChatByID(ctx context.Context, chatID int64) (*entity.Chat, *app_error.AppError)
	FindGeneralChat(ctx context.Context) (*entity.Chat, *app_error.AppError)
	CreateChat(ctx context.Context, name string, isGroup bool) (*entity.Chat, *app_error.AppError)
	FindPrivateChat(ctx context.Context, userA, userB int64) (*entity.Chat, *app_error.AppError)
	ChatsOf(ctx context.Context, userID int64) ([]*entity.Chat, *app_error.AppError)
	MembersOf(ctx context.Context, chatID int64) ([]*entity.User, *app_error.AppError)
	MemberIDs(ctx context.Context, chatID int64) ([]int64, *app_error.AppError)
	IsMember(ctx context.Context, chatID, userID int64) (bool, *app_error.AppError)
	AddMember(ctx context.Context, chatID, userID int64) *app_error.AppError
	DeleteChatCascade(ctx context.Context, chatID int64) *app_error.AppError

	// Messages
	InsertMessage(ctx context.Context, msg *entity.Message) *app_error.AppError
	FindMessageByID(ctx context.Context, messageID int64) (*entity.Message, *app_error.AppError)
	DeleteMessage(ctx context.Context, messageID int64) *app_error.AppError
	HydrateMessage(ctx context.Context, messageID int64) (*events.NewMessage, *app_error.AppError)
	GetMessagesSince(ctx context.Context, chatID, afterID int64) ([]events.NewMessage, *app_error.AppError)
	MaxMessageID(ctx context.Context, chatID int64) (*int64, *app_error.AppError)

	// Read markers / unread counts
	GetReadMarker(ctx context.Context, userID, chatID int64) (*entity.ReadMarker, *app_error.AppError)
	UpsertReadMarker(ctx context.Context, userID, chatID, messageID int64) *app_error.AppError
	UnreadCount(ctx context.Context, userID, chatID int64) (int64, *app_error.AppError)
	UnreadCounts(ctx context.Context, userID int64) (map[int64]int64, *app_error.AppError)
}

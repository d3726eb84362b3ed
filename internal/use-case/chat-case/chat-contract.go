package chat_service

import (
	"context"

	"github.com/tipurk/neechat/internal/dtos/chat_dto"
	app_error "github.com/tipurk/neechat/internal/errors"
	"github.com/tipurk/neechat/internal/events"
)

type ChatServiceContract interface {
	SendMessage(ctx context.Context, senderID int64, req chat_dto.SendMessageRequest) (*events.NewMessage, *app_error.AppError)
	GetMessages(ctx context.Context, userID, chatID, afterID int64) ([]events.NewMessage, *app_error.AppError)
	DeleteMessage(ctx context.Context, userID, messageID int64) *app_error.AppError
	MarkRead(ctx context.Context, userID, chatID int64) *app_error.AppError
	UnreadCounts(ctx context.Context, userID int64) (map[int64]int64, *app_error.AppError)
	ListChats(ctx context.Context, userID int64) ([]chat_dto.ChatResponse, *app_error.AppError)
	ListMembers(ctx context.Context, chatID int64) ([]chat_dto.MemberResponse, *app_error.AppError)
	CreatePrivateChat(ctx context.Context, userID, targetID int64) (*chat_dto.ChatResponse, *app_error.AppError)
	DeleteChat(ctx context.Context, userID, chatID int64) *app_error.AppError
}

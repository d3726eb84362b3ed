package chat_dto

type SendMessageRequest struct {
	ChatID  int64  `json:"chatId" validate:"required,gt=0"`
	Text    string `json:"text" validate:"required,min=1"`
	ReplyTo *int64 `json:"reply_to" validate:"omitempty,gt=0"`
}

type CreatePrivateChatRequest struct {
	UserID int64 `json:"userId" validate:"required,gt=0"`
}

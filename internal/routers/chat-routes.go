package routers

import (
	"github.com/go-chi/chi/v5"
	"github.com/tipurk/neechat/internal/handlers"
	chat_handler "github.com/tipurk/neechat/internal/handlers/chat-handler"
	"github.com/tipurk/neechat/internal/middleware"
)

func ChatRouter(r chi.Router, deps Deps) {
	chatHandler := chat_handler.NewChatHandler(deps.State, deps.Sink, deps.Producer)

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.JWTAuth(deps.State.JwtSecret.Public))
		protected.Get("/api/v1/chats", handlers.WrapHandler(chatHandler.ListChats))
		protected.Post("/api/v1/chats", handlers.WrapHandler(chatHandler.CreatePrivateChat))
		protected.Delete("/api/v1/chats/{chatId}", handlers.WrapHandler(chatHandler.DeleteChat))
		protected.Get("/api/v1/chats/{chatId}/members", handlers.WrapHandler(chatHandler.ListMembers))
		protected.Get("/api/v1/chats/{chatId}/messages", handlers.WrapHandler(chatHandler.GetMessages))
		protected.Patch("/api/v1/chats/{chatId}/read", handlers.WrapHandler(chatHandler.MarkRead))
		protected.Get("/api/v1/chats/unread", handlers.WrapHandler(chatHandler.UnreadCounts))
		protected.Post("/api/v1/messages", handlers.WrapHandler(chatHandler.SendMessage))
		protected.Delete("/api/v1/messages/{messageId}", handlers.WrapHandler(chatHandler.DeleteMessage))
	})
}

package chat_handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/tipurk/neechat/internal/dtos/chat_dto"
	app_error "github.com/tipurk/neechat/internal/errors"
	"github.com/tipurk/neechat/internal/events"
	"github.com/tipurk/neechat/internal/handlers"
	"github.com/tipurk/neechat/internal/middleware"
	"github.com/tipurk/neechat/internal/queue"
	chat_service "github.com/tipurk/neechat/internal/use-case/chat-case"
	"github.com/tipurk/neechat/state"
)

type ChatHandler struct {
	State    *state.AppState
	Validate *validator.Validate
	Service  chat_service.ChatServiceContract
}

func NewChatHandler(state *state.AppState, sink events.Sink, producer queue.Producer) *ChatHandler {
	return &ChatHandler{
		State:    state,
		Validate: validator.New(),
		Service:  chat_service.NewChatService(state, sink, producer),
	}
}

func requestID(r *http.Request) string {
	reqID, ok := r.Context().Value(middleware.RequestIdKey).(string)
	if !ok {
		return "unknown"
	}
	return reqID
}

func authedUserID(r *http.Request) (int64, *app_error.AppError) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		return 0, app_error.NewAppError(http.StatusUnauthorized, "Missing authenticated user", "auth")
	}
	return userID, nil
}

func pathID(r *http.Request, param, field string) (int64, *app_error.AppError) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		return 0, app_error.Validation(fmt.Sprintf("invalid %s", field), field)
	}
	return id, nil
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, err := authedUserID(r)
	if err != nil {
		return err
	}

	var req chat_dto.SendMessageRequest
	defer r.Body.Close()

	if jsonErr := json.NewDecoder(r.Body).Decode(&req); jsonErr != nil {
		return app_error.NewAppError(http.StatusBadRequest, "Invalid JSON", "body")
	}

	if valErr := h.Validate.Struct(req); valErr != nil {
		return app_error.NewAppError(http.StatusBadRequest, fmt.Sprintf("Invalid fields: %v", valErr), "validation")
	}

	msg, err := h.Service.SendMessage(r.Context(), userID, req)
	if err != nil {
		return err
	}

	handlers.WriteJSON(w, http.StatusCreated, handlers.CreateResponse("message sent", *msg, requestID(r)))
	return nil
}

// GetMessages serves the chat history, optionally only messages after the
// after query param so reconnecting clients can catch up incrementally.
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, err := authedUserID(r)
	if err != nil {
		return err
	}

	chatID, err := pathID(r, "chatId", "chat-id")
	if err != nil {
		return err
	}

	var afterID int64
	if after := r.URL.Query().Get("after"); after != "" {
		parsed, parseErr := strconv.ParseInt(after, 10, 64)
		if parseErr != nil || parsed < 0 {
			return app_error.Validation("invalid after cursor", "after")
		}
		afterID = parsed
	}

	msgs, err := h.Service.GetMessages(r.Context(), userID, chatID, afterID)
	if err != nil {
		return err
	}

	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("messages fetched", msgs, requestID(r)))
	return nil
}

func (h *ChatHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, err := authedUserID(r)
	if err != nil {
		return err
	}

	messageID, err := pathID(r, "messageId", "message-id")
	if err != nil {
		return err
	}

	if err := h.Service.DeleteMessage(r.Context(), userID, messageID); err != nil {
		return err
	}

	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("message deleted", struct{}{}, requestID(r)))
	return nil
}

func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, err := authedUserID(r)
	if err != nil {
		return err
	}

	chatID, err := pathID(r, "chatId", "chat-id")
	if err != nil {
		return err
	}

	if err := h.Service.MarkRead(r.Context(), userID, chatID); err != nil {
		return err
	}

	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("chat marked as read", struct{}{}, requestID(r)))
	return nil
}

func (h *ChatHandler) UnreadCounts(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, err := authedUserID(r)
	if err != nil {
		return err
	}

	counts, err := h.Service.UnreadCounts(r.Context(), userID)
	if err != nil {
		return err
	}

	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("unread counts fetched", counts, requestID(r)))
	return nil
}

func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, err := authedUserID(r)
	if err != nil {
		return err
	}

	chats, err := h.Service.ListChats(r.Context(), userID)
	if err != nil {
		return err
	}

	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("chats fetched", chats, requestID(r)))
	return nil
}

func (h *ChatHandler) ListMembers(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	if _, err := authedUserID(r); err != nil {
		return err
	}

	chatID, err := pathID(r, "chatId", "chat-id")
	if err != nil {
		return err
	}

	members, err := h.Service.ListMembers(r.Context(), chatID)
	if err != nil {
		return err
	}

	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("members fetched", members, requestID(r)))
	return nil
}

func (h *ChatHandler) CreatePrivateChat(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, err := authedUserID(r)
	if err != nil {
		return err
	}

	var req chat_dto.CreatePrivateChatRequest
	defer r.Body.Close()

	if jsonErr := json.NewDecoder(r.Body).Decode(&req); jsonErr != nil {
		return app_error.NewAppError(http.StatusBadRequest, "Invalid JSON", "body")
	}

	if valErr := h.Validate.Struct(req); valErr != nil {
		return app_error.NewAppError(http.StatusBadRequest, fmt.Sprintf("Invalid fields: %v", valErr), "validation")
	}

	chat, err := h.Service.CreatePrivateChat(r.Context(), userID, req.UserID)
	if err != nil {
		return err
	}

	handlers.WriteJSON(w, http.StatusCreated, handlers.CreateResponse("chat ready", *chat, requestID(r)))
	return nil
}

func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, err := authedUserID(r)
	if err != nil {
		return err
	}

	chatID, err := pathID(r, "chatId", "chat-id")
	if err != nil {
		return err
	}

	if err := h.Service.DeleteChat(r.Context(), userID, chatID); err != nil {
		return err
	}

	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("chat deleted", struct{}{}, requestID(r)))
	return nil
}

package chat_service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tipurk/neechat/internal/dtos/chat_dto"
	"github.com/tipurk/neechat/internal/entity"
	app_error "github.com/tipurk/neechat/internal/errors"
	"github.com/tipurk/neechat/internal/events"
	"github.com/tipurk/neechat/internal/queue"
	chat_repo "github.com/tipurk/neechat/internal/repo/chat"
	user_repo "github.com/tipurk/neechat/internal/repo/user"
	"github.com/tipurk/neechat/state"
)

type ChatService struct {
	AppState *state.AppState
	ChatRepo chat_repo.ChatRepoContract
	UserRepo user_repo.UserRepoContract
	Sink     events.Sink
	Producer queue.Producer

	// chatLocks serializes the insert-then-broadcast sequence per chat so
	// room subscribers observe new-message events in commit order. Sends to
	// different chats proceed independently.
	chatLocks sync.Map
}

func NewChatService(appState *state.AppState, sink events.Sink, producer queue.Producer) ChatServiceContract {
	return &ChatService{
		AppState: appState,
		ChatRepo: chat_repo.NewChatRepo(appState),
		UserRepo: user_repo.NewUserRepo(appState),
		Sink:     sink,
		Producer: producer,
	}
}

// lockFor returns the mutex serializing sends within one chat. Entries are
// never evicted: the map grows with the set of chats this process has sent
// to, one idle mutex per chat.
func (c *ChatService) lockFor(chatID int64) *sync.Mutex {
	lock, _ := c.chatLocks.LoadOrStore(chatID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// SendMessage persists the message, emits new-message to the chat's room
// and schedules the unread recount for the other members. The store write
// always completes before any event is dispatched, so a client reacting to
// the event and re-querying observes the message.
func (c *ChatService) SendMessage(ctx context.Context, senderID int64, req chat_dto.SendMessageRequest) (*events.NewMessage, *app_error.AppError) {
	if _, err := c.ChatRepo.FindChatByID(ctx, req.ChatID); err != nil {
		return nil, err
	}

	isMember, err := c.ChatRepo.IsMember(ctx, req.ChatID, senderID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, app_error.Forbidden("not a member of this chat", "chat-id")
	}

	if req.ReplyTo != nil {
		replied, err := c.ChatRepo.FindMessageByID(ctx, *req.ReplyTo)
		if err != nil {
			return nil, err
		}
		if replied.ChatID != req.ChatID {
			return nil, app_error.Validation("reply target belongs to another chat", "reply-to")
		}
	}

	lock := c.lockFor(req.ChatID)
	lock.Lock()

	msg := &entity.Message{
		ChatID:    req.ChatID,
		UserID:    senderID,
		Text:      req.Text,
		ReplyTo:   req.ReplyTo,
		CreatedAt: time.Now(),
	}
	if err := c.ChatRepo.InsertMessage(ctx, msg); err != nil {
		lock.Unlock()
		return nil, err
	}

	hydrated, err := c.ChatRepo.HydrateMessage(ctx, msg.ID)
	if err != nil {
		lock.Unlock()
		return nil, err
	}

	c.Sink.EmitToRoom(req.ChatID, events.NewMessageEvent(*hydrated))
	lock.Unlock()

	c.enqueueUnreadFanout(ctx, req.ChatID, msg.ID, senderID)

	return hydrated, nil
}

func (c *ChatService) enqueueUnreadFanout(ctx context.Context, chatID, messageID, authorID int64) {
	now := time.Now()
	job := queue.Job{
		ID:   uuid.New().String(),
		Type: queue.JobUnreadFanout,
		Payload: queue.MustMarshal(queue.UnreadFanoutPayload{
			ChatID:    chatID,
			MessageID: messageID,
			AuthorID:  authorID,
		}),
		MaxRetry:  3,
		CreatedAt: now.Unix(),
		ExpireAt:  now.Add(5 * time.Minute).Unix(),
	}

	// Delivery failures never bounce back to the sender: the message is
	// already persisted and the client catches up on its next reload.
	if err := c.Producer.Enqueue(ctx, job); err != nil {
		log.Error().Err(err).Int64("chatID", chatID).Msg("failed to enqueue unread fan-out")
	}
}

func (c *ChatService) GetMessages(ctx context.Context, userID, chatID, afterID int64) ([]events.NewMessage, *app_error.AppError) {
	if _, err := c.ChatRepo.FindChatByID(ctx, chatID); err != nil {
		return nil, err
	}

	isMember, err := c.ChatRepo.IsMember(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, app_error.Forbidden("not a member of this chat", "chat-id")
	}

	return c.ChatRepo.GetMessagesSince(ctx, chatID, afterID)
}

func (c *ChatService) DeleteMessage(ctx context.Context, userID, messageID int64) *app_error.AppError {
	msg, err := c.ChatRepo.FindMessageByID(ctx, messageID)
	if err != nil {
		return err
	}

	if msg.UserID != userID {
		return app_error.Forbidden("cannot delete another user's message", "message-id")
	}

	return c.ChatRepo.DeleteMessage(ctx, messageID)
}

// MarkRead moves the user's marker to the chat's newest message id.
// Idempotent: repeated calls with no new messages change nothing, and a
// chat with no messages keeps its marker absent.
func (c *ChatService) MarkRead(ctx context.Context, userID, chatID int64) *app_error.AppError {
	isMember, err := c.ChatRepo.IsMember(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return app_error.Forbidden("not a member of this chat", "chat-id")
	}

	maxID, err := c.ChatRepo.MaxMessageID(ctx, chatID)
	if err != nil {
		return err
	}
	if maxID == nil {
		return nil
	}

	return c.ChatRepo.UpsertReadMarker(ctx, userID, chatID, *maxID)
}

func (c *ChatService) UnreadCounts(ctx context.Context, userID int64) (map[int64]int64, *app_error.AppError) {
	return c.ChatRepo.UnreadCounts(ctx, userID)
}

func (c *ChatService) ListChats(ctx context.Context, userID int64) ([]chat_dto.ChatResponse, *app_error.AppError) {
	chats, err := c.ChatRepo.ChatsOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]chat_dto.ChatResponse, 0, len(chats))
	for _, chat := range chats {
		resp = append(resp, chat_dto.ChatResponse{ID: chat.ID, Name: chat.Name, IsGroup: chat.IsGroup})
	}
	return resp, nil
}

func (c *ChatService) ListMembers(ctx context.Context, chatID int64) ([]chat_dto.MemberResponse, *app_error.AppError) {
	members, err := c.ChatRepo.MembersOf(ctx, chatID)
	if err != nil {
		return nil, err
	}

	resp := make([]chat_dto.MemberResponse, 0, len(members))
	for _, m := range members {
		resp = append(resp, chat_dto.MemberResponse{ID: m.ID, Username: m.Username, Name: m.Name, Avatar: m.Avatar})
	}
	return resp, nil
}

// CreatePrivateChat is idempotent across argument order: an existing
// non-group chat between the pair is returned unchanged. A fresh chat is
// named after the counterpart, and only the counterpart learns about it
// via chat-created on their personal channel.
func (c *ChatService) CreatePrivateChat(ctx context.Context, userID, targetID int64) (*chat_dto.ChatResponse, *app_error.AppError) {
	if targetID == userID {
		return nil, app_error.Validation("cannot start a chat with yourself", "user-id")
	}

	target, err := c.UserRepo.FindUserByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	existing, err := c.ChatRepo.FindPrivateChat(ctx, userID, targetID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &chat_dto.ChatResponse{ID: existing.ID, Name: existing.Name, IsGroup: existing.IsGroup}, nil
	}

	name := target.Name
	if name == "" {
		name = target.Username
	}

	chat, err := c.ChatRepo.CreateChat(ctx, name, false)
	if err != nil {
		return nil, err
	}
	if err := c.ChatRepo.AddMember(ctx, chat.ID, userID); err != nil {
		return nil, err
	}
	if err := c.ChatRepo.AddMember(ctx, chat.ID, targetID); err != nil {
		return nil, err
	}

	c.Sink.EmitToUser(targetID, events.ChatCreatedEvent(events.ChatCreated{
		ID:      chat.ID,
		Name:    chat.Name,
		IsGroup: chat.IsGroup,
	}))

	return &chat_dto.ChatResponse{ID: chat.ID, Name: chat.Name, IsGroup: chat.IsGroup}, nil
}

// DeleteChat removes a private chat with all its messages and memberships.
// The general chat and group chats are protected; the requester must be a
// member. Former members other than the requester are notified via the
// deferred chat-deleted fan-out, using the member list captured before the
// cascade.
func (c *ChatService) DeleteChat(ctx context.Context, userID, chatID int64) *app_error.AppError {
	chat, err := c.ChatRepo.FindChatByID(ctx, chatID)
	if err != nil {
		return err
	}

	// Protection outranks membership: general and group chats refuse
	// deletion for everyone.
	if chat.IsGroup || chat.Name == entity.GeneralChatName {
		return app_error.Forbidden("cannot delete this chat", "chat-id")
	}

	isMember, err := c.ChatRepo.IsMember(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return app_error.NotFound("chat not found", "chat-id")
	}

	memberIDs, err := c.ChatRepo.MemberIDs(ctx, chatID)
	if err != nil {
		return err
	}

	if err := c.ChatRepo.DeleteChatCascade(ctx, chatID); err != nil {
		return err
	}

	now := time.Now()
	job := queue.Job{
		ID:   uuid.New().String(),
		Type: queue.JobChatDeletedFanout,
		Payload: queue.MustMarshal(queue.ChatDeletedFanoutPayload{
			ChatID:      chatID,
			MemberIDs:   memberIDs,
			RequesterID: userID,
		}),
		MaxRetry:  3,
		CreatedAt: now.Unix(),
		ExpireAt:  now.Add(5 * time.Minute).Unix(),
	}
	if err := c.Producer.Enqueue(ctx, job); err != nil {
		log.Error().Err(err).Int64("chatID", chatID).Msg("failed to enqueue chat-deleted fan-out")
	}

	return nil
}

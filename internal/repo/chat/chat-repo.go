package chat_repo

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/tipurk/neechat/internal/entity"
	app_error "github.com/tipurk/neechat/internal/errors"
	"github.com/tipurk/neechat/internal/events"
	"github.com/tipurk/neechat/state"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatRepo struct {
	AppState *state.AppState
}

func NewChatRepo(appState *state.AppState) ChatRepoContract {
	return &ChatRepo{
		AppState: appState,
	}
}

func (r *ChatRepo) FindChatByID(ctx context.Context, chatID int64) (*entity.Chat, *app_error.AppError) {
	var chat entity.Chat
	if err := r.AppState.DB.WithContext(ctx).Where("id = ?", chatID).First(&chat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NotFound("chat not found", "chat-id")
		}
		return nil, app_error.Store("failed to fetch chat", "db-error")
	}
	return &chat, nil
}

// FindGeneralChat resolves the seeded shared group chat every user joins.
func (r *ChatRepo) FindGeneralChat(ctx context.Context) (*entity.Chat, *app_error.AppError) {
	var chat entity.Chat
	err := r.AppState.DB.WithContext(ctx).
		Where("name = ? AND is_group = ?", entity.GeneralChatName, true).
		First(&chat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NotFound("general chat not found", "chat")
		}
		return nil, app_error.Store("failed to fetch general chat", "db-error")
	}
	return &chat, nil
}

func (r *ChatRepo) CreateChat(ctx context.Context, name string, isGroup bool) (*entity.Chat, *app_error.AppError) {
	chat := &entity.Chat{Name: name, IsGroup: isGroup}
	if err := r.AppState.DB.WithContext(ctx).Create(chat).Error; err != nil {
		return nil, app_error.Store("failed to create chat", "db-create")
	}
	return chat, nil
}

// FindPrivateChat looks for an existing non-group chat whose member set is
// exactly {userA, userB}. Returns (nil, nil) when none exists.
func (r *ChatRepo) FindPrivateChat(ctx context.Context, userA, userB int64) (*entity.Chat, *app_error.AppError) {
	var chat entity.Chat

	query := `
		SELECT c.* FROM chats c
		WHERE c.is_group = false
		AND c.id IN (
			SELECT cm1.chat_id
			FROM chat_members cm1
			WHERE cm1.user_id = ?
			AND EXISTS (
				SELECT 1 FROM chat_members cm2
				WHERE cm2.chat_id = cm1.chat_id
				AND cm2.user_id = ?
			)
			AND (
				SELECT COUNT(*) FROM chat_members cm3
				WHERE cm3.chat_id = cm1.chat_id
			) = 2
		)
	`
	err := r.AppState.DB.WithContext(ctx).Raw(query, userA, userB).First(&chat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Error().Err(err).Msg("failed to query private chat")
		return nil, app_error.Store("failed to query private chat", "db-error")
	}
	return &chat, nil
}

func (r *ChatRepo) ChatsOf(ctx context.Context, userID int64) ([]*entity.Chat, *app_error.AppError) {
	var chats []*entity.Chat
	err := r.AppState.DB.WithContext(ctx).Raw(`
		SELECT c.* FROM chats c
		JOIN chat_members cm ON c.id = cm.chat_id
		WHERE cm.user_id = ?
		ORDER BY c.id ASC
	`, userID).Scan(&chats).Error
	if err != nil {
		return nil, app_error.Store("failed to fetch chats", "db-error")
	}
	return chats, nil
}

func (r *ChatRepo) MembersOf(ctx context.Context, chatID int64) ([]*entity.User, *app_error.AppError) {
	var members []*entity.User
	err := r.AppState.DB.WithContext(ctx).Raw(`
		SELECT u.* FROM users u
		JOIN chat_members cm ON u.id = cm.user_id
		WHERE cm.chat_id = ?
	`, chatID).Scan(&members).Error
	if err != nil {
		return nil, app_error.Store("failed to fetch chat members", "db-error")
	}
	return members, nil
}

func (r *ChatRepo) MemberIDs(ctx context.Context, chatID int64) ([]int64, *app_error.AppError) {
	var ids []int64
	err := r.AppState.DB.WithContext(ctx).
		Model(&entity.ChatMember{}).
		Where("chat_id = ?", chatID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, app_error.Store("failed to fetch member ids", "db-error")
	}
	return ids, nil
}

func (r *ChatRepo) IsMember(ctx context.Context, chatID, userID int64) (bool, *app_error.AppError) {
	var count int64
	err := r.AppState.DB.WithContext(ctx).
		Model(&entity.ChatMember{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	if err != nil {
		return false, app_error.Store("failed to check membership", "db-error")
	}
	return count > 0, nil
}

// AddMember is idempotent: re-adding an existing pair is a no-op.
func (r *ChatRepo) AddMember(ctx context.Context, chatID, userID int64) *app_error.AppError {
	member := entity.ChatMember{ChatID: chatID, UserID: userID}
	err := r.AppState.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&member).Error
	if err != nil {
		return app_error.Store("failed to add chat member", "db-create")
	}
	return nil
}

// DeleteChatCascade removes memberships, messages, read markers and the chat
// record in one transaction.
func (r *ChatRepo) DeleteChatCascade(ctx context.Context, chatID int64) *app_error.AppError {
	err := r.AppState.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", chatID).Delete(&entity.ChatMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("chat_id = ?", chatID).Delete(&entity.ReadMarker{}).Error; err != nil {
			return err
		}
		if err := tx.Where("chat_id = ?", chatID).Delete(&entity.Message{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", chatID).Delete(&entity.Chat{}).Error
	})
	if err != nil {
		log.Error().Err(err).Int64("chatID", chatID).Msg("chat cascade delete failed")
		return app_error.Store("failed to delete chat", "db-delete")
	}
	return nil
}

func (r *ChatRepo) InsertMessage(ctx context.Context, msg *entity.Message) *app_error.AppError {
	if err := r.AppState.DB.WithContext(ctx).Create(msg).Error; err != nil {
		return app_error.Store("failed to insert message", "db-create")
	}
	return nil
}

func (r *ChatRepo) FindMessageByID(ctx context.Context, messageID int64) (*entity.Message, *app_error.AppError) {
	var msg entity.Message
	if err := r.AppState.DB.WithContext(ctx).Where("id = ?", messageID).First(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NotFound("message not found", "message-id")
		}
		return nil, app_error.Store("failed to fetch message", "db-error")
	}
	return &msg, nil
}

// DeleteMessage nulls the reply reference of any message pointing at the
// deleted one, never cascades.
func (r *ChatRepo) DeleteMessage(ctx context.Context, messageID int64) *app_error.AppError {
	err := r.AppState.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Message{}).
			Where("reply_to = ?", messageID).
			Update("reply_to", nil).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", messageID).Delete(&entity.Message{}).Error
	})
	if err != nil {
		return app_error.Store("failed to delete message", "db-delete")
	}
	return nil
}

const hydratedMessageQuery = `
	SELECT
		m.id, m.chat_id, m.user_id, m.text, m.reply_to, m.created_at,
		u.name, u.avatar,
		rm.text AS reply_text,
		ru.name AS reply_name
	FROM messages m
	JOIN users u ON m.user_id = u.id
	LEFT JOIN messages rm ON m.reply_to = rm.id
	LEFT JOIN users ru ON rm.user_id = ru.id
`

// HydrateMessage returns the message joined with author name/avatar and
// reply context, the exact shape the new-message event carries.
func (r *ChatRepo) HydrateMessage(ctx context.Context, messageID int64) (*events.NewMessage, *app_error.AppError) {
	var row events.NewMessage
	err := r.AppState.DB.WithContext(ctx).
		Raw(hydratedMessageQuery+" WHERE m.id = ?", messageID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NotFound("message not found", "message-id")
		}
		return nil, app_error.Store("failed to hydrate message", "db-error")
	}
	return &row, nil
}

// GetMessagesSince returns hydrated messages with id > afterID in id order.
// afterID 0 returns the whole history.
func (r *ChatRepo) GetMessagesSince(ctx context.Context, chatID, afterID int64) ([]events.NewMessage, *app_error.AppError) {
	var rows []events.NewMessage
	err := r.AppState.DB.WithContext(ctx).
		Raw(hydratedMessageQuery+" WHERE m.chat_id = ? AND m.id > ? ORDER BY m.id ASC", chatID, afterID).
		Scan(&rows).Error
	if err != nil {
		return nil, app_error.Store("failed to fetch messages", "db-error")
	}
	return rows, nil
}

// MaxMessageID returns nil when the chat has no messages yet.
func (r *ChatRepo) MaxMessageID(ctx context.Context, chatID int64) (*int64, *app_error.AppError) {
	var maxID *int64
	err := r.AppState.DB.WithContext(ctx).
		Model(&entity.Message{}).
		Where("chat_id = ?", chatID).
		Select("MAX(id)").
		Scan(&maxID).Error
	if err != nil {
		return nil, app_error.Store("failed to fetch max message id", "db-error")
	}
	return maxID, nil
}

func (r *ChatRepo) GetReadMarker(ctx context.Context, userID, chatID int64) (*entity.ReadMarker, *app_error.AppError) {
	var marker entity.ReadMarker
	err := r.AppState.DB.WithContext(ctx).
		Where("user_id = ? AND chat_id = ?", userID, chatID).
		First(&marker).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, app_error.Store("failed to fetch read marker", "db-error")
	}
	return &marker, nil
}

func (r *ChatRepo) UpsertReadMarker(ctx context.Context, userID, chatID, messageID int64) *app_error.AppError {
	marker := entity.ReadMarker{UserID: userID, ChatID: chatID, LastReadMessageID: &messageID}
	err := r.AppState.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "chat_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_read_message_id"}),
		}).
		Create(&marker).Error
	if err != nil {
		return app_error.Store("failed to upsert read marker", "db-upsert")
	}
	return nil
}

// UnreadCount counts messages with id greater than the user's marker. A
// missing marker means nothing was read: the whole chat counts.
func (r *ChatRepo) UnreadCount(ctx context.Context, userID, chatID int64) (int64, *app_error.AppError) {
	var count int64
	err := r.AppState.DB.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM messages m
		WHERE m.chat_id = ?
		AND m.id > COALESCE((
			SELECT last_read_message_id FROM read_markers
			WHERE user_id = ? AND chat_id = ?
		), 0)
	`, chatID, userID, chatID).Scan(&count).Error
	if err != nil {
		return 0, app_error.Store("failed to count unread messages", "db-error")
	}
	return count, nil
}

// UnreadCounts computes the whole chatId -> count mapping for a user in a
// single grouped query, avoiding an N+1 over the user's chats.
func (r *ChatRepo) UnreadCounts(ctx context.Context, userID int64) (map[int64]int64, *app_error.AppError) {
	var rows []struct {
		ChatID int64
		Count  int64
	}
	err := r.AppState.DB.WithContext(ctx).Raw(`
		SELECT cm.chat_id AS chat_id, COUNT(m.id) AS count
		FROM chat_members cm
		LEFT JOIN read_markers rmk
			ON rmk.chat_id = cm.chat_id AND rmk.user_id = cm.user_id
		LEFT JOIN messages m
			ON m.chat_id = cm.chat_id
			AND m.id > COALESCE(rmk.last_read_message_id, 0)
		WHERE cm.user_id = ?
		GROUP BY cm.chat_id
	`, userID).Scan(&rows).Error
	if err != nil {
		return nil, app_error.Store("failed to compute unread counts", "db-error")
	}

	counts := make(map[int64]int64, len(rows))
	for _, row := range rows {
		counts[row.ChatID] = row.Count
	}
	return counts, nil
}

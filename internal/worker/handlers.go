package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tipurk/neechat/internal/events"
	"github.com/tipurk/neechat/internal/queue"
)

func (wp *Pool) HandleJob(ctx context.Context, job queue.Job) error {
	switch job.Type {
	case queue.JobUnreadFanout:
		return wp.handleUnreadFanout(ctx, job.Payload)
	case queue.JobChatDeletedFanout:
		return wp.handleChatDeletedFanout(ctx, job.Payload)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleUnreadFanout recomputes the unread count of every member of the
// chat except the author and emits the fresh absolute count to each
// member's personal channel. If the chat vanished in the meantime the
// member list is empty and the job is a no-op.
func (wp *Pool) handleUnreadFanout(ctx context.Context, raw json.RawMessage) error {
	var payload queue.UnreadFanoutPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("invalid unread fan-out payload: %w", err)
	}

	memberIDs, appErr := wp.chatRepo.MemberIDs(ctx, payload.ChatID)
	if appErr != nil {
		return appErr
	}

	for _, memberID := range memberIDs {
		if memberID == payload.AuthorID {
			continue
		}

		count, appErr := wp.chatRepo.UnreadCount(ctx, memberID, payload.ChatID)
		if appErr != nil {
			return appErr
		}

		wp.sink.EmitToUser(memberID, events.UnreadUpdatedEvent(payload.ChatID, count))
	}

	log.Debug().Int64("chatID", payload.ChatID).Int("members", len(memberIDs)).Msg("unread fan-out completed")
	return nil
}

func (wp *Pool) handleChatDeletedFanout(ctx context.Context, raw json.RawMessage) error {
	var payload queue.ChatDeletedFanoutPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("invalid chat-deleted fan-out payload: %w", err)
	}

	for _, memberID := range payload.MemberIDs {
		if memberID == payload.RequesterID {
			continue
		}
		wp.sink.EmitToUser(memberID, events.ChatDeletedEvent(payload.ChatID))
	}

	return nil
}

package worker

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tipurk/neechat/internal/entity"
	"github.com/tipurk/neechat/internal/events"
	"github.com/tipurk/neechat/internal/queue"
	chat_repo "github.com/tipurk/neechat/internal/repo/chat"
	"github.com/tipurk/neechat/state"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type userEmit struct {
	UserID int64
	Event  events.Event
}

type recordingSink struct {
	Users []userEmit
}

func (s *recordingSink) EmitToRoom(chatID int64, e events.Event) {}

func (s *recordingSink) EmitToUser(userID int64, e events.Event) {
	s.Users = append(s.Users, userEmit{UserID: userID, Event: e})
}

func newTestPool(t *testing.T) (*Pool, *recordingSink, chat_repo.ChatRepoContract, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entity.User{},
		&entity.Chat{},
		&entity.ChatMember{},
		&entity.Message{},
		&entity.ReadMarker{},
	))

	mockRedis := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mockRedis.Addr()})
	t.Cleanup(func() { rdb.Close() })

	repo := chat_repo.NewChatRepo(&state.AppState{DB: db})
	sink := &recordingSink{}
	return NewPool(rdb, 1, sink, repo), sink, repo, db
}

func seedPairChat(t *testing.T, db *gorm.DB, repo chat_repo.ChatRepoContract) (*entity.Chat, *entity.User, *entity.User) {
	t.Helper()
	ctx := context.Background()

	alice := &entity.User{Username: "alice", PasswordHash: "x", Name: "Alice"}
	bob := &entity.User{Username: "bob", PasswordHash: "x", Name: "Bob"}
	require.NoError(t, db.Create(alice).Error)
	require.NoError(t, db.Create(bob).Error)

	chat, appErr := repo.CreateChat(ctx, "pair", false)
	require.Nil(t, appErr)
	require.Nil(t, repo.AddMember(ctx, chat.ID, alice.ID))
	require.Nil(t, repo.AddMember(ctx, chat.ID, bob.ID))
	return chat, alice, bob
}

func TestHandleUnreadFanout_EmitsCountsExceptAuthor(t *testing.T) {
	pool, sink, repo, db := newTestPool(t)
	ctx := context.Background()

	chat, alice, bob := seedPairChat(t, db, repo)

	msg := &entity.Message{ChatID: chat.ID, UserID: alice.ID, Text: "hi", CreatedAt: time.Now()}
	require.Nil(t, repo.InsertMessage(ctx, msg))

	job := queue.Job{
		ID:   "job-1",
		Type: queue.JobUnreadFanout,
		Payload: queue.MustMarshal(queue.UnreadFanoutPayload{
			ChatID:    chat.ID,
			MessageID: msg.ID,
			AuthorID:  alice.ID,
		}),
	}
	require.NoError(t, pool.HandleJob(ctx, job))

	require.Len(t, sink.Users, 1, "only the non-author member is notified")
	assert.Equal(t, bob.ID, sink.Users[0].UserID)
	assert.Equal(t, "unread-updated", sink.Users[0].Event.Name)

	payload, ok := sink.Users[0].Event.Data.(events.UnreadUpdated)
	require.True(t, ok)
	assert.Equal(t, chat.ID, payload.ChatID)
	assert.Equal(t, int64(1), payload.Count, "absolute count computed at job time")
}

func TestHandleUnreadFanout_DeletedChatIsNoop(t *testing.T) {
	pool, sink, _, _ := newTestPool(t)

	job := queue.Job{
		ID:   "job-2",
		Type: queue.JobUnreadFanout,
		Payload: queue.MustMarshal(queue.UnreadFanoutPayload{
			ChatID:    9999,
			MessageID: 1,
			AuthorID:  1,
		}),
	}
	require.NoError(t, pool.HandleJob(context.Background(), job))
	assert.Empty(t, sink.Users, "vanished chat yields no emissions")
}

func TestHandleChatDeletedFanout_SkipsRequester(t *testing.T) {
	pool, sink, _, _ := newTestPool(t)

	job := queue.Job{
		ID:   "job-3",
		Type: queue.JobChatDeletedFanout,
		Payload: queue.MustMarshal(queue.ChatDeletedFanoutPayload{
			ChatID:      7,
			MemberIDs:   []int64{1, 2, 3},
			RequesterID: 2,
		}),
	}
	require.NoError(t, pool.HandleJob(context.Background(), job))

	require.Len(t, sink.Users, 2)
	notified := []int64{sink.Users[0].UserID, sink.Users[1].UserID}
	assert.ElementsMatch(t, []int64{1, 3}, notified)
	for _, emit := range sink.Users {
		assert.Equal(t, "chat-deleted", emit.Event.Name)
		payload, ok := emit.Event.Data.(events.ChatDeleted)
		require.True(t, ok)
		assert.Equal(t, int64(7), payload.ChatID)
	}
}

func TestHandleJob_UnknownType(t *testing.T) {
	pool, _, _, _ := newTestPool(t)

	err := pool.HandleJob(context.Background(), queue.Job{ID: "job-4", Type: "bogus"})
	assert.Error(t, err)
}

func TestDispatcher_RequeuesClaimedJobOnShutdown(t *testing.T) {
	pool, _, _, _ := newTestPool(t)
	pool.WorkerNum = 0 // no consumers: the channel fills and the dispatcher blocks

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	producer := queue.NewProducer(pool.Redis)
	ready := time.Now().Add(-time.Minute).Unix()
	for i := 0; i < cap(pool.JobChannel)+1; i++ {
		job := queue.Job{
			ID:        fmt.Sprintf("job-%d", i),
			Type:      queue.JobUnreadFanout,
			Payload:   queue.MustMarshal(queue.UnreadFanoutPayload{ChatID: int64(i)}),
			MaxRetry:  3,
			CreatedAt: ready,
			ExpireAt:  time.Now().Add(time.Hour).Unix(),
		}
		require.NoError(t, producer.Enqueue(ctx, job))
	}

	pool.Start(ctx)

	require.Eventually(t, func() bool {
		n, err := pool.Redis.ZCard(context.Background(), queue.QueueKey).Result()
		return err == nil && n == 0
	}, 5*time.Second, 10*time.Millisecond, "dispatcher should claim every ready job")

	cancel()

	require.Eventually(t, func() bool {
		n, err := pool.Redis.ZCard(context.Background(), queue.QueueKey).Result()
		return err == nil && n == 1
	}, 5*time.Second, 10*time.Millisecond, "the claimed but undelivered job goes back on the queue")
}

func TestRetryOrBury_RequeuesThenBuries(t *testing.T) {
	pool, _, _, _ := newTestPool(t)
	ctx := context.Background()

	job := queue.Job{
		ID:       "job-5",
		Type:     queue.JobUnreadFanout,
		MaxRetry: 2,
		ExpireAt: time.Now().Add(time.Hour).Unix(),
	}

	pool.retryOrBury(ctx, job, assert.AnError)
	requeued, err := pool.Redis.ZCard(ctx, queue.QueueKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), requeued, "first failure goes back on the queue")

	job.Retry = 2
	pool.retryOrBury(ctx, job, assert.AnError)
	buried, err := pool.Redis.LLen(ctx, queue.DLQKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), buried, "exhausted job lands in the DLQ")
}

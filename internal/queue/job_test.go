package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustMarshal_RoundTrips(t *testing.T) {
	raw := MustMarshal(UnreadFanoutPayload{ChatID: 5, MessageID: 101, AuthorID: 1})

	var payload UnreadFanoutPayload
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, int64(5), payload.ChatID)
	assert.Equal(t, int64(101), payload.MessageID)
}

func TestMustMarshal_PanicsOnUnmarshalablePayload(t *testing.T) {
	assert.Panics(t, func() {
		MustMarshal(make(chan int))
	})
}

func TestProducer_EnqueueSchedulesAtCreatedAt(t *testing.T) {
	mockRedis := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mockRedis.Addr()})
	t.Cleanup(func() { rdb.Close() })

	producer := NewProducer(rdb)
	createdAt := time.Now().Unix()
	job := Job{
		ID:        "job-1",
		Type:      JobUnreadFanout,
		Payload:   MustMarshal(UnreadFanoutPayload{ChatID: 5}),
		MaxRetry:  3,
		CreatedAt: createdAt,
		ExpireAt:  createdAt + 300,
	}
	require.NoError(t, producer.Enqueue(context.Background(), job))

	ctx := context.Background()
	members, err := rdb.ZRangeByScoreWithScores(ctx, QueueKey, &redis.ZRangeBy{Min: "-inf", Max: "+inf"}).Result()
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, float64(createdAt), members[0].Score, "ready-at score is the creation instant")

	var stored Job
	require.NoError(t, json.Unmarshal([]byte(members[0].Member.(string)), &stored))
	assert.Equal(t, "job-1", stored.ID)
}

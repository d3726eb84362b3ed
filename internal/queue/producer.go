package queue

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

const (
	QueueKey = "fanout_jobs"
	DLQKey   = "fanout_jobs_dlq"
)

type Producer interface {
	Enqueue(ctx context.Context, job Job) error
}

type RedisProducer struct {
	Redis *redis.Client
}

func NewProducer(redis *redis.Client) Producer {
	return &RedisProducer{Redis: redis}
}

// Enqueue schedules the job; the score is the unix second at which the job
// becomes eligible, which doubles as the retry-backoff mechanism.
func (p *RedisProducer) Enqueue(ctx context.Context, job Job) error {
	jobBytes, err := json.Marshal(job)
	if err != nil {
		return err
	}

	return p.Redis.ZAdd(ctx, QueueKey, redis.Z{
		Score:  float64(job.CreatedAt),
		Member: jobBytes,
	}).Err()
}

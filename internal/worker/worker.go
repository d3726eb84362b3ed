package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/tipurk/neechat/internal/events"
	"github.com/tipurk/neechat/internal/queue"
	chat_repo "github.com/tipurk/neechat/internal/repo/chat"
)

// Pool drains deferred fan-out jobs from the redis queue. Per-user events
// carry no ordering guarantee, so multiple workers are safe; each job
// computes its counts at processing time, making every emitted count
// independently correct.
type Pool struct {
	Redis      *redis.Client
	WorkerNum  int
	JobChannel chan string
	wg         sync.WaitGroup

	sink     events.Sink
	chatRepo chat_repo.ChatRepoContract
}

func NewPool(redis *redis.Client, workerNum int, sink events.Sink, chatRepo chat_repo.ChatRepoContract) *Pool {
	return &Pool{
		Redis:      redis,
		WorkerNum:  workerNum,
		JobChannel: make(chan string, 100),
		sink:       sink,
		chatRepo:   chatRepo,
	}
}

func (wp *Pool) Start(ctx context.Context) {
	log.Info().Msgf("Starting fan-out worker pool with %d workers", wp.WorkerNum)

	for i := 0; i < wp.WorkerNum; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}

	go func() {
		defer close(wp.JobChannel)
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("Stopping fan-out worker pool")
				return
			default:
				now := float64(time.Now().Unix())
				result, err := wp.Redis.ZRangeByScore(ctx, queue.QueueKey, &redis.ZRangeBy{
					Min:    "-inf",
					Max:    fmt.Sprintf("%f", now),
					Offset: 0,
					Count:  1,
				}).Result()

				if err != nil {
					if err != redis.Nil && ctx.Err() == nil {
						log.Error().Err(err).Msg("worker: failed to pop job")
					}
					time.Sleep(1 * time.Second)
					continue
				}

				if len(result) == 0 {
					time.Sleep(1 * time.Second)
					continue
				}

				payload := result[0]
				wp.Redis.ZRem(ctx, queue.QueueKey, payload)

				select {
				case wp.JobChannel <- payload:
				case <-ctx.Done():
					// Claimed but undelivered: hand the job back so it
					// survives the shutdown instead of vanishing.
					wp.Redis.ZAdd(context.Background(), queue.QueueKey, redis.Z{
						Score:  float64(time.Now().Unix()),
						Member: payload,
					})
					log.Info().Msg("Stopping fan-out worker pool")
					return
				}
			}
		}
	}()
}

func (wp *Pool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	log.Info().Msgf("Fan-out worker %d started", id)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("Fan-out worker %d stopping", id)
			return
		case payload, ok := <-wp.JobChannel:
			if !ok {
				return
			}

			var job queue.Job
			if err := json.Unmarshal([]byte(payload), &job); err != nil {
				log.Warn().Err(err).Msgf("worker %d: failed to unmarshal job payload", id)
				continue
			}

			if err := wp.HandleJob(ctx, job); err != nil {
				wp.retryOrBury(ctx, job, err)
			}
		}
	}
}

func (wp *Pool) retryOrBury(ctx context.Context, job queue.Job, cause error) {
	job.Retry++
	job.ErrorMsg = cause.Error()

	now := time.Now().Unix()
	if job.Retry >= job.MaxRetry || now > job.ExpireAt {
		log.Error().Str("job_id", job.ID).Str("type", job.Type).Err(cause).Msg("job moved to DLQ")
		dlqBytes, _ := json.Marshal(job)
		wp.Redis.RPush(ctx, queue.DLQKey, dlqBytes)
		return
	}

	// exponential backoff via the ready-at score
	delay := time.Duration(5*(1<<job.Retry)) * time.Second
	retryAt := time.Now().Add(delay).Unix()

	jobBytes, _ := json.Marshal(job)
	wp.Redis.ZAdd(ctx, queue.QueueKey, redis.Z{
		Score:  float64(retryAt),
		Member: jobBytes,
	})
	log.Warn().Str("job_id", job.ID).Msgf("retrying in %v (%d/%d)", delay, job.Retry, job.MaxRetry)
}

func (wp *Pool) Stop() {
	wp.wg.Wait()
	log.Info().Msg("All fan-out workers have stopped")
}

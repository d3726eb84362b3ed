package utils

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	app_error "github.com/tipurk/neechat/internal/errors"
)

func GetCacheData[T any](ctx context.Context, rdb *redis.Client, cacheKey string) (*T, *app_error.AppError) {
	val, err := rdb.Get(ctx, cacheKey).Result()
	if err == redis.Nil {
		return nil, nil // cache-miss
	} else if err != nil {
		return nil, app_error.Store("unexpected error occur when trying to get from redis", "redis")
	}

	var data T
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return nil, app_error.Store("unexpected error occur when unmarshal json", "json")
	}

	return &data, nil
}

func SetCacheData[T any](ctx context.Context, rdb *redis.Client, cacheKey string, data *T, expire time.Duration) error {
	bytes, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return rdb.Set(ctx, cacheKey, bytes, expire).Err()
}

func DeleteCacheData(ctx context.Context, rdb *redis.Client, cacheKey string) error {
	return rdb.Del(ctx, cacheKey).Err()
}

package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adivardhan/storefront-api/internal/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func NewRedisClient(cfg *config.Config) (*redis.Client, error) {

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

type RateLimitRepository interface {
	// Increment records an attempt and reports how many attempts remain
	// inside the sliding window. remaining <= 0 means the caller is locked
	// out until retryAfter elapses.
	Increment(ctx context.Context, key string) (remaining int, retryAfter time.Duration, err error)
	Reset(ctx context.Context, key string) error
}

type rateLimitRepository struct {
	client      *redis.Client
	maxAttempts int
	windowSize  time.Duration
}

func NewRateLimitRepo(client *redis.Client, cfg *config.Config) RateLimitRepository {
	return &rateLimitRepository{
		client:      client,
		maxAttempts: int(cfg.RateConfig.MaxAttempts),
		windowSize:  cfg.RateConfig.WindowSize,
	}
}

func (r *rateLimitRepository) Increment(ctx context.Context, key string) (int, time.Duration, error) {

	now := time.Now()
	windowStart := now.Add(-r.windowSize)
	redisKey := "ratelimit:" + key

	pipe := r.client.TxPipeline()

	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: uuid.NewString(),
	})
	count := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, r.windowSize)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to execute rate limit pipeline: %w", err)
	}

	attempts := int(count.Val())
	remaining := r.maxAttempts - attempts

	if remaining > 0 {
		return remaining, 0, nil
	}

	// Oldest entry in the window decides when a slot frees up.
	oldest, err := r.client.ZRangeWithScores(ctx, redisKey, 0, 0).Result()
	if err != nil || len(oldest) == 0 {
		return remaining, r.windowSize, nil
	}

	oldestAt := time.Unix(0, int64(oldest[0].Score))
	retryAfter := r.windowSize - now.Sub(oldestAt)

	if retryAfter < 0 {
		retryAfter = 0
	}

	return remaining, retryAfter, nil
}

func (r *rateLimitRepository) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, "ratelimit:"+key).Err(); err != nil {
		return fmt.Errorf("failed to reset rate limit: %w", err)
	}

	return nil
}

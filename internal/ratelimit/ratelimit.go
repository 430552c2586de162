package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RateLimiter enforces a fixed hourly request budget per client in Redis.
type RateLimiter struct {
	client *redis.Client
	limit  int
	now    func() time.Time
}

func NewRateLimiter(redisURL string, limitPerHour int) (*RateLimiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	return &RateLimiter{client: client, limit: limitPerHour, now: time.Now}, nil
}

func (rl *RateLimiter) Ping(ctx context.Context) error {
	return rl.client.Ping(ctx).Err()
}

// Allow counts one request for client in the current hour window.
func (rl *RateLimiter) Allow(ctx context.Context, client string) (bool, error) {
	key := fmt.Sprintf("ratelimit:analyze:%s:%s", client, rl.now().UTC().Format("2006-01-02-15"))

	count, err := rl.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := rl.client.Expire(ctx, key, time.Hour).Err(); err != nil {
			// The key outlives its window but the next hour uses a new key.
			logrus.Warnf("Failed to set expiry on %s: %v", key, err)
		}
	}

	return count <= int64(rl.limit), nil
}

func (rl *RateLimiter) Close() error {
	return rl.client.Close()
}

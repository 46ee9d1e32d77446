package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisThrottle allows one notification per user and kind per window using
// SET NX with a TTL.
type RedisThrottle struct {
	rdb    redis.Cmdable
	window time.Duration
}

// NewRedisThrottle creates a throttle on rdb.
func NewRedisThrottle(rdb redis.Cmdable, window time.Duration) *RedisThrottle {
	return &RedisThrottle{rdb: rdb, window: window}
}

func throttleKey(userID, kind string) string {
	return "notify:" + kind + ":" + userID
}

// Allow reports whether the window for userID and kind was free, claiming it if so.
func (t *RedisThrottle) Allow(ctx context.Context, userID, kind string) (bool, error) {
	ok, err := t.rdb.SetNX(ctx, throttleKey(userID, kind), time.Now().Unix(), t.window).Result()
	if err != nil {
		return false, fmt.Errorf("redis: throttle %s: %w", userID, err)
	}
	return ok, nil
}

// NewRedisClient parses url, connects and pings.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return rdb, nil
}

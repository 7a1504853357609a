package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultThrottleTTL = 5 * time.Minute

// ResetThrottle limits password reset mails to one per account per window.
// Key format: reset:<user_id>
type ResetThrottle struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResetThrottle creates a ResetThrottle wrapping the given Redis client.
func NewResetThrottle(client *redis.Client, ttl time.Duration) *ResetThrottle {
	if ttl <= 0 {
		ttl = defaultThrottleTTL
	}
	return &ResetThrottle{client: client, ttl: ttl}
}

// Allow claims the window for userID. Only the first caller inside the
// window gets true.
func (t *ResetThrottle) Allow(ctx context.Context, userID int64) (bool, error) {
	ok, err := t.client.SetNX(ctx, t.key(userID), "1", t.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reset throttle: %w", err)
	}
	return ok, nil
}

// Release drops a claimed window so the next request may send again.
func (t *ResetThrottle) Release(ctx context.Context, userID int64) error {
	if err := t.client.Del(ctx, t.key(userID)).Err(); err != nil {
		return fmt.Errorf("reset throttle release: %w", err)
	}
	return nil
}

func (t *ResetThrottle) key(userID int64) string {
	return "reset:" + strconv.FormatInt(userID, 10)
}

package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"anoa.com/studentroster/pkg/apperror"
	"github.com/redis/go-redis/v9"
)

const ScopeLogin = "login"

// RateLimitError carries the remaining cooldown so handlers can set Retry-After.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

func (e *RateLimitError) Unwrap() error {
	return apperror.ErrRateLimitExceeded
}

func key(subject, scope string) string {
	return fmt.Sprintf("rate_limit:%s:%s", scope, subject)
}

// CheckAndSetRateLimit reports whether the action is allowed and, if so,
// starts a cooldown of limit. A nil client always allows.
func CheckAndSetRateLimit(ctx context.Context, rdb *redis.Client, subject, scope string, limit time.Duration) (bool, error) {
	if rdb == nil || limit <= 0 {
		return true, nil
	}

	wasSet, err := rdb.SetNX(ctx, key(subject, scope), "locked", limit).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	return wasSet, nil
}

func GetRateLimitTTL(ctx context.Context, rdb *redis.Client, subject, scope string) (time.Duration, error) {
	if rdb == nil {
		return 0, nil
	}
	return rdb.TTL(ctx, key(subject, scope)).Result()
}

func ClearRateLimit(ctx context.Context, rdb *redis.Client, subject, scope string) error {
	if rdb == nil {
		return nil
	}
	_, err := rdb.Del(ctx, key(subject, scope)).Result()
	return err
}

package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"anoa.com/classhub/pkg/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	ScopeGlobal  = "global"
	ScopeNote    = "note"
	ScopeComment = "comment"
)

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

// Limiter applies per-user cooldowns stored as expiring redis keys.
// A nil redis client disables limiting.
type Limiter struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Limiter {
	return &Limiter{rdb: rdb}
}

func key(userID uuid.UUID, scope string) string {
	return fmt.Sprintf("rate_limit:user:%s:%s", userID.String(), scope)
}

// CheckAndSet reports whether the action is allowed and starts the cooldown if so.
func (l *Limiter) CheckAndSet(ctx context.Context, userID uuid.UUID, scope string, limit time.Duration) (bool, error) {
	if l == nil || l.rdb == nil || limit <= 0 {
		return true, nil
	}

	wasSet, err := l.rdb.SetNX(ctx, key(userID, scope), "locked", limit).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}
	return wasSet, nil
}

func (l *Limiter) TTL(ctx context.Context, userID uuid.UUID, scope string) (time.Duration, error) {
	if l == nil || l.rdb == nil {
		return 0, nil
	}
	return l.rdb.TTL(ctx, key(userID, scope)).Result()
}

func (l *Limiter) Clear(ctx context.Context, userID uuid.UUID, scope string) error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Del(ctx, key(userID, scope)).Err()
}

// Acquire checks the global cooldown and then the scoped one. When the scoped check fails the
// global cooldown is rolled back. The returned release func clears both, for callers whose
// write failed afterwards.
func (l *Limiter) Acquire(ctx context.Context, userID uuid.UUID, scope string, global, scoped time.Duration) (func(), error) {
	allowed, err := l.CheckAndSet(ctx, userID, ScopeGlobal, global)
	if err != nil {
		return nil, err
	}
	if !allowed {
		ttl, _ := l.TTL(ctx, userID, ScopeGlobal)
		return nil, &RateLimitError{
			Message:    fmt.Sprintf("you are doing that too fast. Please wait %.0f seconds", ttl.Seconds()),
			RetryAfter: ttl,
		}
	}

	allowed, err = l.CheckAndSet(ctx, userID, scope, scoped)
	if err != nil {
		_ = l.Clear(ctx, userID, ScopeGlobal)
		return nil, err
	}
	if !allowed {
		_ = l.Clear(ctx, userID, ScopeGlobal)
		ttl, _ := l.TTL(ctx, userID, scope)
		return nil, &RateLimitError{
			Message:    fmt.Sprintf("you can only do that once every %.0f seconds. Please wait %.0f seconds", scoped.Seconds(), ttl.Seconds()),
			RetryAfter: ttl,
		}
	}

	release := func() {
		_ = l.Clear(ctx, userID, ScopeGlobal)
		_ = l.Clear(ctx, userID, scope)
	}
	return release, nil
}

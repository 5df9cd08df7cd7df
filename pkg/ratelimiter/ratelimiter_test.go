package ratelimiter

import (
	"context"
	"testing"
	"time"

	"anoa.com/classhub/pkg/apperror"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb), mr
}

func TestAcquireBlocksSecondCall(t *testing.T) {
	l, _ := newLimiter(t)
	ctx := context.Background()
	userID := uuid.New()

	release, err := l.Acquire(ctx, userID, ScopeNote, 5*time.Second, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, release)

	_, err = l.Acquire(ctx, userID, ScopeNote, 5*time.Second, time.Minute)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrRateLimitExceeded)

	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Greater(t, rlErr.RetryAfter, time.Duration(0))
}

func TestScopedFailureRollsBackGlobal(t *testing.T) {
	l, mr := newLimiter(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := l.Acquire(ctx, userID, ScopeComment, time.Second, time.Minute)
	require.NoError(t, err)

	// global expires, scoped cooldown is still running
	mr.FastForward(2 * time.Second)

	_, err = l.Acquire(ctx, userID, ScopeComment, time.Second, time.Minute)
	require.Error(t, err)
	assert.False(t, mr.Exists(key(userID, ScopeGlobal)))
}

func TestReleaseClearsCooldowns(t *testing.T) {
	l, _ := newLimiter(t)
	ctx := context.Background()
	userID := uuid.New()

	release, err := l.Acquire(ctx, userID, ScopeNote, time.Minute, time.Minute)
	require.NoError(t, err)
	release()

	_, err = l.Acquire(ctx, userID, ScopeNote, time.Minute, time.Minute)
	assert.NoError(t, err)
}

func TestNilClientAllowsEverything(t *testing.T) {
	l := New(nil)
	for i := 0; i < 3; i++ {
		_, err := l.Acquire(context.Background(), uuid.New(), ScopeNote, time.Minute, time.Minute)
		assert.NoError(t, err)
	}
}

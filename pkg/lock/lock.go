// Package lock serializes classify-then-insert per scope so that two
// concurrent submissions in the same event see each other's writes.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/redis"
)

// ErrTimeout is returned when the scope lock could not be taken in time.
// Callers should treat it as retryable.
var ErrTimeout = errors.New("timed out waiting for scope lock")

// Unlock releases a held scope lock
type Unlock func()

// ScopeLocker hands out one writer at a time per scope
type ScopeLocker interface {
	Lock(ctx context.Context, scopeID string) (Unlock, error)
}

// Noop never blocks. Use it when the store constraint alone is enough.
type Noop struct{}

func (Noop) Lock(ctx context.Context, scopeID string) (Unlock, error) {
	return func() {}, nil
}

// RedisLocker is a ScopeLocker shared by every instance pointed at the same Redis
type RedisLocker struct {
	locker  *redis.Locker
	ttl     time.Duration
	timeout time.Duration
	logger  ectologger.Logger
}

// NewRedisLocker builds a scope locker on top of a Redis client. ttl bounds
// how long a crashed holder can block a scope.
func NewRedisLocker(client *redis.Client, ttl, timeout time.Duration, logger ectologger.Logger) *RedisLocker {
	return &RedisLocker{
		locker:  redis.NewLocker(client, "fern:scope-lock:"),
		ttl:     ttl,
		timeout: timeout,
		logger:  logger,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, scopeID string) (Unlock, error) {
	held, err := l.locker.TryAcquire(ctx, scopeID, l.ttl, l.timeout)
	if err != nil {
		if errors.Is(err, redis.ErrLockNotAcquired) {
			return nil, ErrTimeout
		}
		return nil, err
	}

	return func() {
		// released on a fresh context so a cancelled request still frees the scope
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := held.Release(releaseCtx); err != nil {
			l.logger.WithContext(ctx).WithError(err).WithField("scope_id", scopeID).Warn("Failed to release scope lock")
		}
	}, nil
}

// Package lock provides a Redis-backed reconciliation.RunLocker so that only
// one matching pass per run is in flight across API replicas.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation"
)

const DefaultTTL = 2 * time.Minute

type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

var _ reconciliation.RunLocker = (*RedisLocker)(nil)

func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &RedisLocker{client: redislock.New(rdb), ttl: ttl}
}

func Key(runID uuid.UUID) string {
	return fmt.Sprintf("lock:reconciliation-run:%s", runID)
}

// Lock obtains the run's lock without waiting. The lock is refreshed every
// half TTL until release is called.
func (l *RedisLocker) Lock(ctx context.Context, runID uuid.UUID) (func(), error) {
	lk, err := l.client.Obtain(ctx, Key(runID), l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, reconciliation.ErrRunBusy
	}

	if err != nil {
		return nil, fmt.Errorf("obtaining run lock: %w", err)
	}

	done := make(chan struct{})
	go l.keepAlive(lk, runID, done)

	release := func() {
		close(done)

		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := lk.Release(rctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			slog.Warn("failed to release run lock", "run_id", runID, "error", err)
		}
	}

	return release, nil
}

func (l *RedisLocker) keepAlive(lk *redislock.Lock, runID uuid.UUID, done <-chan struct{}) {
	ticker := time.NewTicker(l.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), l.ttl/2)
			err := lk.Refresh(ctx, l.ttl, nil)
			cancel()

			if err != nil {
				slog.Warn("failed to refresh run lock", "run_id", runID, "error", err)
				return
			}
		}
	}
}

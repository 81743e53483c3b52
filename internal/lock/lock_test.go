package lock_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/boqrecon/internal/lock"
	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation"
)

func TestKey(t *testing.T) {
	id := uuid.MustParse("6f1c1b8e-3f0a-4c55-9d8e-0b7b1f3a2c11")
	assert.Equal(t, "lock:reconciliation-run:6f1c1b8e-3f0a-4c55-9d8e-0b7b1f3a2c11", lock.Key(id))
}

func getTestRedis(t *testing.T) redis.UniversalClient {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if testing.Short() || addr == "" {
		t.Skip("Skipping redis integration test: REDIS_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	require.NoError(t, rdb.Ping(context.Background()).Err())

	return rdb
}

func TestRedisLocker_Exclusive(t *testing.T) {
	locker := lock.NewRedisLocker(getTestRedis(t), 5*time.Second)
	ctx := context.Background()
	runID := uuid.New()

	release, err := locker.Lock(ctx, runID)
	require.NoError(t, err)

	_, err = locker.Lock(ctx, runID)
	require.ErrorIs(t, err, reconciliation.ErrRunBusy)

	other, err := locker.Lock(ctx, uuid.New())
	require.NoError(t, err)
	other()

	release()

	again, err := locker.Lock(ctx, runID)
	require.NoError(t, err)
	again()
}

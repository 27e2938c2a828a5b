package worker_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/team-sallang/matching-poc/internal/app"
	"github.com/team-sallang/matching-poc/internal/cache"
	"github.com/team-sallang/matching-poc/internal/config"
	"github.com/team-sallang/matching-poc/internal/db"
	"github.com/team-sallang/matching-poc/internal/worker"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

func setupFastPath(t *testing.T) (*worker.FastPathWorker, *app.AppContext, *gorm.DB) {
	t.Helper()

	database := setupTestDB(t)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	redisCache := cache.NewRedisCache(cfg)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(database, redisCache, logger)

	w := worker.NewFastPathWorker(appCtx, 50*time.Millisecond, 50, 20*time.Second)
	return w, appCtx, database
}

// enqueueFast registers a participant in the fast-path queue the way the
// queue service would, with a controllable join time.
func enqueueFast(t *testing.T, appCtx *app.AppContext, gender string, joinedAt time.Time) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	userID := uuid.New()
	id := userID.String()

	rdb := appCtx.RedisCache
	require.NoError(t, rdb.SetStatus(ctx, id, cache.StatusWaiting))
	require.NoError(t, rdb.SetLastJoinAt(ctx, id, joinedAt))
	require.NoError(t, rdb.SetGender(ctx, id, gender))
	require.NoError(t, rdb.AddToQueue(ctx, id, joinedAt.UnixMilli()))
	return userID
}

func fastStatus(t *testing.T, appCtx *app.AppContext, userID uuid.UUID) cache.Status {
	t.Helper()
	status, err := appCtx.RedisCache.GetStatus(context.Background(), userID.String())
	require.NoError(t, err)
	return status
}

func TestTickMatchesOppositeGenderPair(t *testing.T) {
	ctx := context.Background()
	w, appCtx, database := setupFastPath(t)

	now := time.Now()
	userA := enqueueFast(t, appCtx, "MALE", now.Add(-2*time.Second))
	userB := enqueueFast(t, appCtx, "FEMALE", now.Add(-time.Second))

	w.RunOnce(ctx)

	assert.Equal(t, cache.StatusMatched, fastStatus(t, appCtx, userA))
	assert.Equal(t, cache.StatusMatched, fastStatus(t, appCtx, userB))

	partner, err := appCtx.RedisCache.GetMatchedWith(ctx, userA.String())
	require.NoError(t, err)
	assert.Equal(t, userB.String(), partner)
	partner, err = appCtx.RedisCache.GetMatchedWith(ctx, userB.String())
	require.NoError(t, err)
	assert.Equal(t, userA.String(), partner)

	n, err := appCtx.RedisCache.QueueLen(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	var histories []db.MatchHistory
	require.NoError(t, database.Find(&histories).Error)
	require.Len(t, histories, 1)
	got := []uuid.UUID{histories[0].UserAID, histories[0].UserBID}
	assert.ElementsMatch(t, []uuid.UUID{userA, userB}, got)
}

func TestOneMatchPerTick(t *testing.T) {
	ctx := context.Background()
	w, appCtx, _ := setupFastPath(t)

	now := time.Now()
	users := []uuid.UUID{
		enqueueFast(t, appCtx, "MALE", now.Add(-4*time.Second)),
		enqueueFast(t, appCtx, "FEMALE", now.Add(-3*time.Second)),
		enqueueFast(t, appCtx, "MALE", now.Add(-2*time.Second)),
		enqueueFast(t, appCtx, "FEMALE", now.Add(-time.Second)),
	}

	w.RunOnce(ctx)

	matched := 0
	for _, u := range users {
		if fastStatus(t, appCtx, u) == cache.StatusMatched {
			matched++
		}
	}
	assert.Equal(t, 2, matched, "one pair per tick")

	w.RunOnce(ctx)

	for _, u := range users {
		assert.Equal(t, cache.StatusMatched, fastStatus(t, appCtx, u))
	}
}

// TestSameGenderNeverMatches: a gender-imbalanced queue produces no pairs
// no matter how many ticks run, and the entries eventually time out.
func TestSameGenderNeverMatches(t *testing.T) {
	ctx := context.Background()
	w, appCtx, database := setupFastPath(t)

	now := time.Now()
	userA := enqueueFast(t, appCtx, "MALE", now.Add(-5*time.Second))
	userB := enqueueFast(t, appCtx, "MALE", now.Add(-4*time.Second))

	for i := 0; i < 3; i++ {
		w.RunOnce(ctx)
	}
	assert.Equal(t, cache.StatusWaiting, fastStatus(t, appCtx, userA))
	assert.Equal(t, cache.StatusWaiting, fastStatus(t, appCtx, userB))

	// Past the queue timeout both are evicted back to IDLE.
	require.NoError(t, appCtx.RedisCache.SetLastJoinAt(ctx, userA.String(), now.Add(-21*time.Second)))
	require.NoError(t, appCtx.RedisCache.SetLastJoinAt(ctx, userB.String(), now.Add(-21*time.Second)))

	w.RunOnce(ctx)

	assert.Equal(t, cache.StatusIdle, fastStatus(t, appCtx, userA))
	assert.Equal(t, cache.StatusIdle, fastStatus(t, appCtx, userB))

	n, err := appCtx.RedisCache.QueueLen(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	var histories int64
	require.NoError(t, database.Model(&db.MatchHistory{}).Count(&histories).Error)
	assert.EqualValues(t, 0, histories)
}

func TestEvictionBoundary(t *testing.T) {
	ctx := context.Background()
	w, appCtx, _ := setupFastPath(t)

	now := time.Now()
	fresh := enqueueFast(t, appCtx, "MALE", now.Add(-19*time.Second))
	stale := enqueueFast(t, appCtx, "MALE", now.Add(-20*time.Second))

	w.RunOnce(ctx)

	assert.Equal(t, cache.StatusWaiting, fastStatus(t, appCtx, fresh))
	assert.Equal(t, cache.StatusIdle, fastStatus(t, appCtx, stale))
}

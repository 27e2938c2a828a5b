package queue_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-sallang/matching-poc/internal/app"
	"github.com/team-sallang/matching-poc/internal/cache"
	"github.com/team-sallang/matching-poc/internal/config"
	svcErr "github.com/team-sallang/matching-poc/internal/errors"
	"github.com/team-sallang/matching-poc/internal/service/queue"
)

func setupService(t *testing.T) (*queue.Service, *cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	redisCache := cache.NewRedisCache(cfg)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(nil, redisCache, logger)
	return queue.NewService(appCtx, time.Second), redisCache, mr
}

func lastJoinKey(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s:lastJoinAt", userID)
}

func TestJoinAndStatus(t *testing.T) {
	ctx := context.Background()
	svc, rdb, _ := setupService(t)

	userID := uuid.New()
	status, err := svc.Join(ctx, userID, "FEMALE")
	require.NoError(t, err)
	assert.Equal(t, cache.StatusWaiting, status)

	info, err := svc.Status(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, cache.StatusWaiting, info.Status)
	assert.False(t, info.JoinedAt.IsZero())
	assert.Empty(t, info.MatchedWith)

	members, err := rdb.TopCandidates(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{userID.String()}, members)

	gender, err := rdb.GetGender(ctx, userID.String())
	require.NoError(t, err)
	assert.Equal(t, "FEMALE", gender)
}

func TestJoinWhileWaitingRejected(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupService(t)

	userID := uuid.New()
	_, err := svc.Join(ctx, userID, "MALE")
	require.NoError(t, err)

	_, err = svc.Join(ctx, userID, "MALE")
	assert.ErrorIs(t, err, svcErr.ErrAlreadyInQueue)
}

func TestJoinDebounce(t *testing.T) {
	ctx := context.Background()
	svc, _, mr := setupService(t)

	userID := uuid.New()
	_, err := svc.Join(ctx, userID, "MALE")
	require.NoError(t, err)

	_, err = svc.Leave(ctx, userID)
	require.NoError(t, err)

	// Re-joining right away is still inside the debounce window.
	_, err = svc.Join(ctx, userID, "MALE")
	assert.ErrorIs(t, err, svcErr.ErrTooManyRequests)

	// 1001ms after the last join the window has passed.
	past := time.Now().UnixMilli() - 1001
	require.NoError(t, mr.Set(lastJoinKey(userID), strconv.FormatInt(past, 10)))

	status, err := svc.Join(ctx, userID, "MALE")
	require.NoError(t, err)
	assert.Equal(t, cache.StatusWaiting, status)
}

func TestLeave(t *testing.T) {
	ctx := context.Background()
	svc, rdb, _ := setupService(t)

	userID := uuid.New()

	// Never joined.
	_, err := svc.Leave(ctx, userID)
	assert.ErrorIs(t, err, svcErr.ErrNotInQueue)

	_, err = svc.Join(ctx, userID, "MALE")
	require.NoError(t, err)

	status, err := svc.Leave(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, cache.StatusIdle, status)

	members, err := rdb.TopCandidates(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestLeaveWhileMatchedRejected(t *testing.T) {
	ctx := context.Background()
	svc, rdb, _ := setupService(t)

	userID := uuid.New()
	require.NoError(t, rdb.SetStatus(ctx, userID.String(), cache.StatusMatched))

	_, err := svc.Leave(ctx, userID)
	assert.ErrorIs(t, err, svcErr.ErrCannotLeaveMatched)
}

func TestStatusDefaultsToIdle(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupService(t)

	info, err := svc.Status(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, cache.StatusIdle, info.Status)
}

func TestStatusExposesPartnerWhileMatched(t *testing.T) {
	ctx := context.Background()
	svc, rdb, mr := setupService(t)

	userID := uuid.New()
	partnerID := uuid.New()
	require.NoError(t, rdb.SetStatus(ctx, userID.String(), cache.StatusMatched))
	require.NoError(t, mr.Set(fmt.Sprintf("user:%s:matchedWith", userID), partnerID.String()))

	info, err := svc.Status(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, cache.StatusMatched, info.Status)
	assert.Equal(t, partnerID.String(), info.MatchedWith)
}

func TestAcknowledge(t *testing.T) {
	ctx := context.Background()
	svc, rdb, mr := setupService(t)

	userID := uuid.New()
	require.NoError(t, rdb.SetStatus(ctx, userID.String(), cache.StatusMatched))
	require.NoError(t, mr.Set(fmt.Sprintf("user:%s:matchedWith", userID), uuid.NewString()))

	status, err := svc.Acknowledge(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, cache.StatusIdle, status)

	info, err := svc.Status(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, cache.StatusIdle, info.Status)
	assert.Empty(t, info.MatchedWith)
}

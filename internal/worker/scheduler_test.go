package worker_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/team-sallang/matching-poc/internal/app"
	"github.com/team-sallang/matching-poc/internal/db"
	"github.com/team-sallang/matching-poc/internal/repository"
	"github.com/team-sallang/matching-poc/internal/service/match"
	"github.com/team-sallang/matching-poc/internal/worker"
)

func setupScheduler(t *testing.T) (*worker.Scheduler, *gorm.DB) {
	t.Helper()

	database := setupTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(database, nil, logger)
	matchSvc := match.NewService(appCtx)
	return worker.NewScheduler(appCtx, matchSvc, time.Second), database
}

func enqueueWaiting(t *testing.T, database *gorm.DB, gender db.Gender, region db.Region, birthYear int, tier db.Tier, waitedFor time.Duration, hobbies ...int32) uuid.UUID {
	t.Helper()
	repo := repository.NewMatchQueueRepository(database)
	entry := db.MatchQueue{
		UserID:    uuid.New(),
		Status:    db.StatusWaiting,
		Tier:      tier,
		Region:    region,
		BirthYear: birthYear,
		Gender:    gender,
		CreatedAt: time.Now().UTC().Add(-waitedFor),
		HobbyIDs:  hobbies,
	}
	require.NoError(t, repo.Enqueue(context.Background(), &entry))
	return entry.UserID
}

func backdateAll(t *testing.T, database *gorm.DB, waitedFor time.Duration) {
	t.Helper()
	require.NoError(t, database.Model(&db.MatchQueue{}).
		Where("status = ?", db.StatusWaiting).
		Update("created_at", time.Now().UTC().Add(-waitedFor)).Error)
}

func countRooms(t *testing.T, database *gorm.DB) int64 {
	t.Helper()
	var rooms int64
	require.NoError(t, database.Model(&db.Room{}).Count(&rooms).Error)
	return rooms
}

func entryStatus(t *testing.T, database *gorm.DB, userID uuid.UUID) db.MatchStatus {
	t.Helper()
	var entry db.MatchQueue
	require.NoError(t, database.Where("user_id = ?", userID).Take(&entry).Error)
	return entry.Status
}

// TestSweepMatchesOncePhaseRelaxes: a cross-region pair with no shared
// hobby stays apart while the early phases hold, then pairs up as soon as
// the region constraint falls away.
func TestSweepMatchesOncePhaseRelaxes(t *testing.T) {
	ctx := context.Background()
	sched, database := setupScheduler(t)

	userA := enqueueWaiting(t, database, db.GenderMale, db.RegionSeoul, 1995, db.TierSprout, 2*time.Second, 1, 2)
	userC := enqueueWaiting(t, database, db.GenderFemale, db.RegionBusan, 1995, db.TierSprout, 2*time.Second, 3)

	sched.RunOnce(ctx)

	assert.Equal(t, db.StatusWaiting, entryStatus(t, database, userA))
	assert.Equal(t, db.StatusWaiting, entryStatus(t, database, userC))
	assert.EqualValues(t, 0, countRooms(t, database))

	backdateAll(t, database, 10*time.Second)
	sched.RunOnce(ctx)

	assert.Equal(t, db.StatusMatched, entryStatus(t, database, userA))
	assert.Equal(t, db.StatusMatched, entryStatus(t, database, userC))
	require.EqualValues(t, 1, countRooms(t, database))

	var room db.Room
	require.NoError(t, database.Take(&room).Error)
	got := []uuid.UUID{room.User1ID, room.User2ID}
	assert.ElementsMatch(t, []uuid.UUID{userA, userC}, got)
}

// TestSweepPhase5PairsAnyone: past 30s even a same-gender, excluded-tier
// pair gets matched.
func TestSweepPhase5PairsAnyone(t *testing.T) {
	ctx := context.Background()
	sched, database := setupScheduler(t)

	userA := enqueueWaiting(t, database, db.GenderMale, db.RegionSeoul, 1990, db.TierFertilizer, 35*time.Second)
	userB := enqueueWaiting(t, database, db.GenderMale, db.RegionJeju, 1970, db.TierFertilizer, 35*time.Second)

	sched.RunOnce(ctx)

	assert.Equal(t, db.StatusMatched, entryStatus(t, database, userA))
	assert.Equal(t, db.StatusMatched, entryStatus(t, database, userB))
	assert.EqualValues(t, 1, countRooms(t, database))
}

// TestSweepNeverDoubleMatches: one sweep over four mutually compatible
// entries yields two disjoint rooms.
func TestSweepNeverDoubleMatches(t *testing.T) {
	ctx := context.Background()
	sched, database := setupScheduler(t)

	users := make([]uuid.UUID, 4)
	for i := range users {
		users[i] = enqueueWaiting(t, database, db.GenderMale, db.RegionSeoul, 1995, db.TierSprout, 35*time.Second)
	}

	sched.RunOnce(ctx)

	for _, u := range users {
		assert.Equal(t, db.StatusMatched, entryStatus(t, database, u))
	}
	require.EqualValues(t, 2, countRooms(t, database))

	var rooms []db.Room
	require.NoError(t, database.Find(&rooms).Error)
	seen := make(map[uuid.UUID]int)
	for _, r := range rooms {
		seen[r.User1ID]++
		seen[r.User2ID]++
	}
	for _, u := range users {
		assert.Equal(t, 1, seen[u], "each participant belongs to exactly one room")
	}
}

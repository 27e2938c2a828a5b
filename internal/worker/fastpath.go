package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/team-sallang/matching-poc/internal/app"
	"github.com/team-sallang/matching-poc/internal/cache"
	"github.com/team-sallang/matching-poc/internal/repository"
)

// FastPathWorker polls the Redis queue on a short tick. Each tick scans the
// front topK entries pairwise for an opposite-gender pair of still-WAITING
// participants and commits at most one pair through the atomic match
// script. An eviction pass over the same scan removes entries that waited
// past the timeout, so unmatchable participants cannot occupy the queue
// forever.
//
// Atomicity comes from the script alone; running workers in several
// processes stays correct, only per-instance throughput is affected.
type FastPathWorker struct {
	appCtx      *app.AppContext
	historyRepo *repository.MatchHistoryRepository
	tick        time.Duration
	topK        int
	timeout     time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

func NewFastPathWorker(
	appCtx *app.AppContext,
	tick time.Duration,
	topK int,
	timeout time.Duration,
) *FastPathWorker {
	return &FastPathWorker{
		appCtx:      appCtx,
		historyRepo: repository.NewMatchHistoryRepository(appCtx.DB),
		tick:        tick,
		topK:        topK,
		timeout:     timeout,
		stopChan:    make(chan struct{}),
	}
}

// Start launches the polling loop.
func (w *FastPathWorker) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.appCtx.Logger.Info("fast-path worker started",
		"tick", w.tick, "top_k", w.topK, "timeout", w.timeout)

	w.wg.Add(1)
	go w.loop()
}

// Stop signals the loop to stop and waits for the in-flight tick.
func (w *FastPathWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopChan)
	w.wg.Wait()
	w.appCtx.Logger.Info("fast-path worker stopped")
}

func (w *FastPathWorker) loop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.RunOnce(context.Background())
		case <-w.stopChan:
			return
		}
	}
}

// RunOnce executes one tick: match attempt over the queue front, then the
// eviction pass. Exported for tests and for the loop.
func (w *FastPathWorker) RunOnce(ctx context.Context) {
	candidates, err := w.appCtx.RedisCache.TopCandidates(ctx, w.topK)
	if err != nil {
		w.appCtx.Logger.Error("failed to read queue front", "err", err)
		return
	}
	if len(candidates) > 0 {
		w.matchPass(ctx, candidates)
		w.evictionPass(ctx, candidates)
	}
}

// matchPass scans pairwise for the first opposite-gender WAITING pair and
// invokes the atomic script. One committed pair per tick.
func (w *FastPathWorker) matchPass(ctx context.Context, candidates []string) {
	rdb := w.appCtx.RedisCache

	for i := 0; i < len(candidates); i++ {
		userA := candidates[i]
		if !w.isWaiting(ctx, userA) {
			continue
		}
		genderA, err := rdb.GetGender(ctx, userA)
		if err != nil || genderA == "" {
			continue
		}

		for j := i + 1; j < len(candidates); j++ {
			userB := candidates[j]
			if !w.isWaiting(ctx, userB) {
				continue
			}
			genderB, err := rdb.GetGender(ctx, userB)
			if err != nil || genderB == "" {
				continue
			}
			if genderA == genderB {
				continue
			}

			result, err := rdb.ExecuteMatch(ctx, userA, userB)
			if err != nil {
				// Treated as no-match; the pair is not retried this tick.
				w.appCtx.Logger.Error("match script error",
					"user_a", userA, "user_b", userB, "err", err)
				continue
			}
			if result == 1 {
				w.appCtx.Logger.Info("fast-path matched", "user_a", userA, "user_b", userB)
				w.saveHistory(ctx, userA, userB)
				return
			}
		}
	}
}

// evictionPass resets WAITING scan entries whose last join is older than
// the timeout.
func (w *FastPathWorker) evictionPass(ctx context.Context, candidates []string) {
	rdb := w.appCtx.RedisCache
	nowMillis := time.Now().UnixMilli()

	for _, userID := range candidates {
		if !w.isWaiting(ctx, userID) {
			continue
		}
		lastJoinAt, err := rdb.GetLastJoinAt(ctx, userID)
		if err != nil || lastJoinAt == 0 {
			continue
		}
		if nowMillis-lastJoinAt < w.timeout.Milliseconds() {
			continue
		}

		if err := rdb.RemoveFromQueue(ctx, userID); err != nil {
			w.appCtx.Logger.Error("failed to evict from queue", "user", userID, "err", err)
			continue
		}
		if err := rdb.SetStatus(ctx, userID, cache.StatusIdle); err != nil {
			w.appCtx.Logger.Error("failed to reset evicted status", "user", userID, "err", err)
			continue
		}
		w.appCtx.Logger.Info("evicted from queue",
			"user", userID, "waited_ms", nowMillis-lastJoinAt)
	}
}

func (w *FastPathWorker) isWaiting(ctx context.Context, userID string) bool {
	status, err := w.appCtx.RedisCache.GetStatus(ctx, userID)
	return err == nil && status == cache.StatusWaiting
}

func (w *FastPathWorker) saveHistory(ctx context.Context, userA, userB string) {
	idA, errA := uuid.Parse(userA)
	idB, errB := uuid.Parse(userB)
	if errA != nil || errB != nil {
		w.appCtx.Logger.Error("invalid uuid in matched pair", "user_a", userA, "user_b", userB)
		return
	}
	if err := w.historyRepo.Create(ctx, idA, idB); err != nil {
		w.appCtx.Logger.Error("failed to save match history",
			"user_a", userA, "user_b", userB, "err", err)
	}
}

package worker

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/team-sallang/matching-poc/internal/app"
	"github.com/team-sallang/matching-poc/internal/db"
	svcErr "github.com/team-sallang/matching-poc/internal/errors"
	"github.com/team-sallang/matching-poc/internal/repository"
	"github.com/team-sallang/matching-poc/internal/service/match"
)

// Scheduler periodically sweeps the relational waiting population. Each
// tick it shuffles the WAITING entries, runs one phase query per entry and
// funnels found pairs through the confirm protocol. Per-entry failures are
// logged and never abort the sweep.
type Scheduler struct {
	appCtx    *app.AppContext
	matchSvc  *match.Service
	queueRepo *repository.MatchQueueRepository
	interval  time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

func NewScheduler(appCtx *app.AppContext, matchSvc *match.Service, interval time.Duration) *Scheduler {
	return &Scheduler{
		appCtx:    appCtx,
		matchSvc:  matchSvc,
		queueRepo: repository.NewMatchQueueRepository(appCtx.DB),
		interval:  interval,
		stopChan:  make(chan struct{}),
	}
}

// Start launches the sweep loop.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.appCtx.Logger.Info("match scheduler started", "interval", s.interval)

	s.wg.Add(1)
	go s.loop()
}

// Stop signals the loop to stop and waits for the in-flight sweep to
// finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopChan)
	s.wg.Wait()
	s.appCtx.Logger.Info("match scheduler stopped")
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-s.stopChan:
			return
		}
	}
}

// RunOnce executes a single sweep. Exported for tests and for the loop.
func (s *Scheduler) RunOnce(ctx context.Context) {
	entries, err := s.queueRepo.FindByStatus(ctx, db.StatusWaiting)
	if err != nil {
		s.appCtx.Logger.Error("failed to fetch waiting entries", "err", err)
		return
	}
	if len(entries) == 0 {
		return
	}

	s.appCtx.Logger.Info("running matching sweep", "waiting", len(entries))

	// Shuffle to avoid systematic bias toward rows the store returns first.
	rand.Shuffle(len(entries), func(i, j int) {
		entries[i], entries[j] = entries[j], entries[i]
	})

	claimed := make(map[uuid.UUID]struct{})
	now := time.Now().UTC()

	for i := range entries {
		requester := &entries[i]
		if _, done := claimed[requester.UserID]; done {
			continue
		}

		partner, err := s.matchSvc.FindPartnerByPhase(ctx, requester, now)
		if err != nil {
			s.appCtx.Logger.Error("phase query failed", "user", requester.UserID, "err", err)
			continue
		}
		if partner == nil {
			continue
		}

		if _, err := s.matchSvc.ConfirmMatch(ctx, requester.UserID, partner.UserID); err != nil {
			if errors.Is(err, svcErr.ErrConfirmationRace) {
				s.appCtx.Logger.Debug("sweep race lost",
					"user", requester.UserID, "partner", partner.UserID)
			} else {
				s.appCtx.Logger.Error("confirm failed",
					"user", requester.UserID, "partner", partner.UserID, "err", err)
			}
			continue
		}

		claimed[requester.UserID] = struct{}{}
		claimed[partner.UserID] = struct{}{}
	}
}

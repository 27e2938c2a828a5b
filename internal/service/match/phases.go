package match

import (
	"context"
	"time"

	"github.com/team-sallang/matching-poc/internal/db"
)

const (
	// AgeToleranceYears bounds the birth-year range in phases 1-3.
	AgeToleranceYears = 5

	// ExcludedTier members are invisible to phases 1-4.
	ExcludedTier = db.TierFertilizer
)

// Phase escalation thresholds. An entry's elapsed wait selects exactly one
// phase; longer waits relax more constraints.
const (
	phase2After = 5 * time.Second
	phase3After = 10 * time.Second
	phase4After = 20 * time.Second
	phase5After = 30 * time.Second
)

// FindPartnerByPhase runs the single phase query appropriate for the
// entry's elapsed wait and returns the oldest eligible candidate, or nil.
// One relational read per call.
func (s *Service) FindPartnerByPhase(ctx context.Context, requester *db.MatchQueue, now time.Time) (*db.MatchQueue, error) {
	elapsed := now.Sub(requester.CreatedAt)

	switch {
	case elapsed >= phase5After:
		return s.queueRepo.FindPhase5Match(ctx, requester.UserID)

	case elapsed >= phase4After:
		return s.queueRepo.FindPhase4Match(ctx, requester.UserID, requester.Gender, ExcludedTier)

	case elapsed >= phase3After:
		return s.queueRepo.FindPhase3Match(
			ctx,
			requester.UserID,
			requester.Gender,
			requester.BirthYear-AgeToleranceYears,
			requester.BirthYear+AgeToleranceYears,
			ExcludedTier,
		)

	case elapsed >= phase2After:
		return s.queueRepo.FindPhase2Match(
			ctx,
			requester.UserID,
			requester.Gender,
			requester.Region,
			requester.BirthYear-AgeToleranceYears,
			requester.BirthYear+AgeToleranceYears,
			ExcludedTier,
		)

	default:
		return s.queueRepo.FindPhase1Match(
			ctx,
			requester.UserID,
			requester.Gender,
			requester.Region,
			requester.BirthYear-AgeToleranceYears,
			requester.BirthYear+AgeToleranceYears,
			requester.HobbyIDs,
			ExcludedTier,
		)
	}
}

package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/team-sallang/matching-poc/internal/app"
	"github.com/team-sallang/matching-poc/internal/db"
	svcErr "github.com/team-sallang/matching-poc/internal/errors"
	"github.com/team-sallang/matching-poc/internal/repository"
)

// KST is used for API-facing timestamps.
var KST = time.FixedZone("KST", 9*60*60)

// Result is the outcome of a relational match request.
type Result struct {
	Status    db.MatchStatus
	RoomID    uuid.UUID
	MatchedAt time.Time
	QueuedAt  time.Time
}

// Service implements the relational matching path: the synchronous
// intercept attempt on request, queue cancellation, and the confirm
// protocol the scheduler funnels its pairs through.
type Service struct {
	appCtx    *app.AppContext
	userRepo  *repository.UserRepository
	queueRepo *repository.MatchQueueRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		userRepo:  repository.NewUserRepository(appCtx.DB),
		queueRepo: repository.NewMatchQueueRepository(appCtx.DB),
	}
}

// RequestMatch performs the intercept attempt: a single phase-1 query for
// the freshly arrived requester. On a hit the partner's waiting row is
// claimed and a room created; otherwise the requester is enqueued for the
// scheduler to pick up.
func (s *Service) RequestMatch(ctx context.Context, userID uuid.UUID) (*Result, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.queueRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, svcErr.ErrAlreadyInQueue
	}

	hobbyIDs, err := s.userRepo.HobbyIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	birthYear := user.BirthDate.Year()
	partner, err := s.queueRepo.FindPhase1Match(
		ctx,
		userID,
		user.Gender,
		user.Region,
		birthYear-AgeToleranceYears,
		birthYear+AgeToleranceYears,
		hobbyIDs,
		ExcludedTier,
	)
	if err != nil {
		return nil, err
	}

	if partner != nil {
		room, err := s.claimInterceptPartner(ctx, user, partner.UserID)
		if err == nil {
			s.appCtx.Logger.Info("intercept match committed",
				"requester", userID, "partner", partner.UserID, "room", room.RoomID)
			return &Result{Status: db.StatusMatched, RoomID: room.RoomID, MatchedAt: room.CreatedAt.In(KST)}, nil
		}
		if !errors.Is(err, svcErr.ErrConfirmationRace) {
			return nil, err
		}
		// Partner was claimed between selection and commit; fall through and
		// wait like everyone else.
		s.appCtx.Logger.Debug("intercept race lost", "requester", userID, "partner", partner.UserID)
	}

	entry := db.MatchQueue{
		UserID:    userID,
		Status:    db.StatusWaiting,
		Tier:      user.Tier,
		Region:    user.Region,
		BirthYear: birthYear,
		Gender:    user.Gender,
		CreatedAt: time.Now().UTC(),
		HobbyIDs:  hobbyIDs,
	}
	if err := s.queueRepo.Enqueue(ctx, &entry); err != nil {
		return nil, fmt.Errorf("failed to enqueue: %w", err)
	}

	s.appCtx.Logger.Debug("requester enqueued", "user", userID)
	return &Result{Status: db.StatusWaiting, QueuedAt: entry.CreatedAt.In(KST)}, nil
}

// Cancel removes the requester's waiting entry. Entries already MATCHED
// cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, userID uuid.UUID) error {
	entry, err := s.queueRepo.FindByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if entry == nil {
		return svcErr.ErrNotInQueue
	}
	if entry.Status != db.StatusWaiting {
		return svcErr.ErrNotInQueue
	}
	return s.queueRepo.Delete(ctx, userID)
}

// ConfirmMatch is the commit protocol for the scheduler path: both
// participants hold WAITING rows and must flip together. The conditional
// update and the room insert share one transaction, so a partial flip
// (fewer than two rows changed) rolls back and surfaces as
// ErrConfirmationRace.
func (s *Service) ConfirmMatch(ctx context.Context, userA, userB uuid.UUID) (*db.Room, error) {
	var room *db.Room
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		queueRepo := repository.NewMatchQueueRepository(tx)
		affected, err := queueRepo.UpdateStatusIf(ctx, []uuid.UUID{userA, userB}, db.StatusWaiting, db.StatusMatched)
		if err != nil {
			return err
		}
		if affected != 2 {
			return svcErr.ErrConfirmationRace
		}

		room, err = repository.NewRoomRepository(tx).Create(ctx, userA, userB)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.appCtx.Logger.Info("match confirmed", "user_a", userA, "user_b", userB, "room", room.RoomID)
	return room, nil
}

// claimInterceptPartner commits an intercept pairing. Only the partner has
// a waiting row; flipping it is the atomic claim, and the room insert
// shares its transaction.
func (s *Service) claimInterceptPartner(ctx context.Context, requester *db.User, partnerID uuid.UUID) (*db.Room, error) {
	var room *db.Room
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		queueRepo := repository.NewMatchQueueRepository(tx)
		affected, err := queueRepo.UpdateStatusIf(ctx, []uuid.UUID{partnerID}, db.StatusWaiting, db.StatusMatched)
		if err != nil {
			return err
		}
		if affected != 1 {
			return svcErr.ErrConfirmationRace
		}

		room, err = repository.NewRoomRepository(tx).Create(ctx, requester.ID, partnerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

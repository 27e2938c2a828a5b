package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/team-sallang/matching-poc/internal/db"
)

// MatchQueueRepository provides data access for waiting entries.
//
// The five FindPhaseNMatch queries implement the progressive relaxation
// table: each filters the WAITING population, orders by created_at and
// returns the oldest eligible candidate. On MySQL the row is claimed with
// FOR UPDATE SKIP LOCKED so concurrent selectors converge on disjoint
// candidates; on dialects without that primitive the conditional status
// update in the confirm protocol is the serialization point.
type MatchQueueRepository struct {
	db *gorm.DB
}

func NewMatchQueueRepository(database *gorm.DB) *MatchQueueRepository {
	return &MatchQueueRepository{db: database}
}

// Enqueue inserts a waiting entry together with its hobby projection rows.
// The projection carries the entry's hobby ids so phase 1 can express set
// overlap in portable SQL.
func (r *MatchQueueRepository) Enqueue(ctx context.Context, entry *db.MatchQueue) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		for _, hobbyID := range entry.HobbyIDs {
			row := db.MatchQueueHobby{UserID: entry.UserID, HobbyID: hobbyID}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a participant's entry and its hobby projection.
func (r *MatchQueueRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&db.MatchQueueHobby{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).Delete(&db.MatchQueue{}).Error
	})
}

// FindByUserID returns the participant's entry, or nil when absent.
func (r *MatchQueueRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*db.MatchQueue, error) {
	var entry db.MatchQueue
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadHobbyIDs(ctx, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindByStatus returns all entries in the given status with hobby ids
// populated. Used by the scheduler sweep.
func (r *MatchQueueRepository) FindByStatus(ctx context.Context, status db.MatchStatus) ([]db.MatchQueue, error) {
	var entries []db.MatchQueue
	if err := r.db.WithContext(ctx).Where("status = ?", status).Find(&entries).Error; err != nil {
		return nil, err
	}
	for i := range entries {
		if err := r.loadHobbyIDs(ctx, &entries[i]); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// FindPhase1Match: opposite gender, tier not excluded, same region, birth
// year within tolerance, at least one shared hobby.
func (r *MatchQueueRepository) FindPhase1Match(
	ctx context.Context,
	userID uuid.UUID,
	gender db.Gender,
	region db.Region,
	birthYearMin, birthYearMax int,
	hobbyIDs []int32,
	excludedTier db.Tier,
) (*db.MatchQueue, error) {
	if len(hobbyIDs) == 0 {
		// Overlap with an empty set is always empty.
		return nil, nil
	}
	query := r.waitingExcept(ctx, userID).
		Where("gender <> ?", gender).
		Where("tier <> ?", excludedTier).
		Where("location = ?", region).
		Where("birth_year BETWEEN ? AND ?", birthYearMin, birthYearMax).
		Where(`EXISTS (
			SELECT 1 FROM match_queue_hobbies h
			WHERE h.user_id = match_queue.user_id
			  AND h.hobby_id IN ?
		)`, hobbyIDs)
	return r.takeOldest(ctx, query)
}

// FindPhase2Match: phase 1 without the hobby overlap requirement.
func (r *MatchQueueRepository) FindPhase2Match(
	ctx context.Context,
	userID uuid.UUID,
	gender db.Gender,
	region db.Region,
	birthYearMin, birthYearMax int,
	excludedTier db.Tier,
) (*db.MatchQueue, error) {
	query := r.waitingExcept(ctx, userID).
		Where("gender <> ?", gender).
		Where("tier <> ?", excludedTier).
		Where("location = ?", region).
		Where("birth_year BETWEEN ? AND ?", birthYearMin, birthYearMax)
	return r.takeOldest(ctx, query)
}

// FindPhase3Match: phase 2 without the region constraint.
func (r *MatchQueueRepository) FindPhase3Match(
	ctx context.Context,
	userID uuid.UUID,
	gender db.Gender,
	birthYearMin, birthYearMax int,
	excludedTier db.Tier,
) (*db.MatchQueue, error) {
	query := r.waitingExcept(ctx, userID).
		Where("gender <> ?", gender).
		Where("tier <> ?", excludedTier).
		Where("birth_year BETWEEN ? AND ?", birthYearMin, birthYearMax)
	return r.takeOldest(ctx, query)
}

// FindPhase4Match: phase 3 without the age constraint.
func (r *MatchQueueRepository) FindPhase4Match(
	ctx context.Context,
	userID uuid.UUID,
	gender db.Gender,
	excludedTier db.Tier,
) (*db.MatchQueue, error) {
	query := r.waitingExcept(ctx, userID).
		Where("gender <> ?", gender).
		Where("tier <> ?", excludedTier)
	return r.takeOldest(ctx, query)
}

// FindPhase5Match: any waiting participant other than the requester.
func (r *MatchQueueRepository) FindPhase5Match(ctx context.Context, userID uuid.UUID) (*db.MatchQueue, error) {
	return r.takeOldest(ctx, r.waitingExcept(ctx, userID))
}

// UpdateStatusIf conditionally flips every listed participant's status from
// oldStatus to newStatus and reports how many rows actually changed. A
// confirmed pair requires exactly 2.
func (r *MatchQueueRepository) UpdateStatusIf(
	ctx context.Context,
	userIDs []uuid.UUID,
	oldStatus, newStatus db.MatchStatus,
) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.MatchQueue{}).
		Where("user_id IN ?", userIDs).
		Where("status = ?", oldStatus).
		Update("status", newStatus)
	return res.RowsAffected, res.Error
}

func (r *MatchQueueRepository) waitingExcept(ctx context.Context, userID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&db.MatchQueue{}).
		Where("status = ?", db.StatusWaiting).
		Where("user_id <> ?", userID)
}

func (r *MatchQueueRepository) takeOldest(ctx context.Context, query *gorm.DB) (*db.MatchQueue, error) {
	if r.db.Dialector.Name() == "mysql" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
	}

	var entry db.MatchQueue
	err := query.Order("created_at").Limit(1).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *MatchQueueRepository) loadHobbyIDs(ctx context.Context, entry *db.MatchQueue) error {
	var ids []int32
	err := r.db.WithContext(ctx).
		Model(&db.MatchQueueHobby{}).
		Where("user_id = ?", entry.UserID).
		Order("hobby_id").
		Pluck("hobby_id", &ids).Error
	if err != nil {
		return err
	}
	entry.HobbyIDs = ids
	return nil
}

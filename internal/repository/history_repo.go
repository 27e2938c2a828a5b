package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/team-sallang/matching-poc/internal/db"
)

// MatchHistoryRepository records fast-path pairings and serves the history
// listing.
type MatchHistoryRepository struct {
	db *gorm.DB
}

func NewMatchHistoryRepository(database *gorm.DB) *MatchHistoryRepository {
	return &MatchHistoryRepository{db: database}
}

// Create appends one history row for a matched pair.
func (r *MatchHistoryRepository) Create(ctx context.Context, userA, userB uuid.UUID) error {
	entry := db.MatchHistory{
		ID:      uuid.New(),
		UserAID: userA,
		UserBID: userB,
	}
	return r.db.WithContext(ctx).Create(&entry).Error
}

// List returns one page of history ordered by matched_at descending.
func (r *MatchHistoryRepository) List(ctx context.Context, page, size int) ([]db.MatchHistory, error) {
	var entries []db.MatchHistory
	err := r.db.WithContext(ctx).
		Order("matched_at DESC").
		Offset(page * size).
		Limit(size).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

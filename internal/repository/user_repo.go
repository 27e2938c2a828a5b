package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/team-sallang/matching-poc/internal/db"
	svcErr "github.com/team-sallang/matching-poc/internal/errors"
)

// UserRepository looks up participant profiles for the intercept matcher
// and queue enqueue.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// FindByID returns the profile for the given participant id.
// Returns ErrUserNotFound for unknown ids.
func (r *UserRepository) FindByID(ctx context.Context, userID uuid.UUID) (*db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// HobbyIDs returns the user's hobby ids ordered ascending.
func (r *UserRepository) HobbyIDs(ctx context.Context, userID uuid.UUID) ([]int32, error) {
	var ids []int32
	err := r.db.WithContext(ctx).
		Model(&db.UserHobby{}).
		Where("user_id = ?", userID).
		Order("hobby_id").
		Pluck("hobby_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

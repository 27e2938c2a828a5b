package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/team-sallang/matching-poc/internal/db"
)

// RoomRepository persists the immutable record created once per committed
// pair.
type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(database *gorm.DB) *RoomRepository {
	return &RoomRepository{db: database}
}

// Create persists a new room for the two participants and returns it.
func (r *RoomRepository) Create(ctx context.Context, user1ID, user2ID uuid.UUID) (*db.Room, error) {
	room := db.Room{
		RoomID:  uuid.New(),
		User1ID: user1ID,
		User2ID: user2ID,
	}
	if err := r.db.WithContext(ctx).Create(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

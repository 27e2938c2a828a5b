package db

import (
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

// Region is the user's home region, used by phase 1-2 candidate queries.
type Region string

const (
	RegionSeoul     Region = "SEOUL"
	RegionGyeonggi  Region = "GYEONGGI"
	RegionIncheon   Region = "INCHEON"
	RegionGangwon   Region = "GANGWON"
	RegionChungnam  Region = "CHUNGNAM"
	RegionDaejeon   Region = "DAEJEON"
	RegionChungbuk  Region = "CHUNGBUK"
	RegionSejong    Region = "SEJONG"
	RegionBusan     Region = "BUSAN"
	RegionUlsan     Region = "ULSAN"
	RegionDaegu     Region = "DAEGU"
	RegionGyeongbuk Region = "GYEONGBUK"
	RegionGyeongnam Region = "GYEONGNAM"
	RegionJeonnam   Region = "JEONNAM"
	RegionGwangju   Region = "GWANGJU"
	RegionJeonbuk   Region = "JEONBUK"
	RegionJeju      Region = "JEJU"
)

// Tier is the score-derived member grade. TierFertilizer members are
// excluded from phase 1-4 candidate queries.
type Tier string

const (
	TierFertilizer Tier = "FERTILIZER"
	TierWilting    Tier = "WILTING"
	TierSprout     Tier = "SPROUT"
	TierPetal      Tier = "PETAL"
	TierFruit      Tier = "FRUIT"
)

// MatchStatus is the state of a match_queue row. Only the confirm protocol
// moves a row from waiting to matched.
type MatchStatus string

const (
	StatusWaiting MatchStatus = "WAITING"
	StatusMatched MatchStatus = "MATCHED"
)

// User profile. Attributes feed the phased candidate predicates.
type User struct {
	ID         uuid.UUID `gorm:"type:char(36);primaryKey"`
	Nickname   string    `gorm:"uniqueIndex;size:50;not null"`
	Gender     Gender    `gorm:"size:10;not null"`
	BirthDate  time.Time `gorm:"not null"`
	Region     Region    `gorm:"size:50;not null"`
	TotalScore int       `gorm:"not null;default:0"`
	Tier       Tier      `gorm:"size:20;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

type Hobby struct {
	ID   int32  `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"uniqueIndex;size:50;not null"`
}

type UserHobby struct {
	UserID  uuid.UUID `gorm:"type:char(36);primaryKey"`
	HobbyID int32     `gorm:"primaryKey"`
}

func (UserHobby) TableName() string { return "user_hobbies" }

// MatchQueue is one waiting entry per participant.
//
// Invariants:
//   - UserID is unique: a participant waits at most once.
//   - CreatedAt is immutable; elapsed wait and FIFO ordering derive from it.
//   - Status flips WAITING -> MATCHED only via UpdateStatusIf.
type MatchQueue struct {
	QueueID   uint64      `gorm:"primaryKey;autoIncrement;column:queue_id"`
	UserID    uuid.UUID   `gorm:"type:char(36);uniqueIndex;not null"`
	Status    MatchStatus `gorm:"size:20;not null;index:idx_match_queue_status"`
	Tier      Tier        `gorm:"size:20"`
	Region    Region      `gorm:"size:50;column:location"`
	BirthYear int         `gorm:"column:birth_year"`
	Gender    Gender      `gorm:"size:10"`
	CreatedAt time.Time   `gorm:"index:idx_match_queue_created_at"`

	// HobbyIDs is loaded from the match_queue_hobbies projection; it is not
	// a column on this table.
	HobbyIDs []int32 `gorm:"-"`
}

func (MatchQueue) TableName() string { return "match_queue" }

// MatchQueueHobby projects a waiting entry's hobby ids into rows so the
// phase-1 overlap predicate works on MySQL and SQLite alike.
type MatchQueueHobby struct {
	UserID  uuid.UUID `gorm:"type:char(36);primaryKey"`
	HobbyID int32     `gorm:"primaryKey"`
}

func (MatchQueueHobby) TableName() string { return "match_queue_hobbies" }

// Room is created exactly once per committed pair. Immutable.
type Room struct {
	RoomID    uuid.UUID `gorm:"type:char(36);primaryKey"`
	User1ID   uuid.UUID `gorm:"type:char(36);not null"`
	User2ID   uuid.UUID `gorm:"type:char(36);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// MatchHistory records a fast-path pairing for the history listing.
type MatchHistory struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserAID   uuid.UUID `gorm:"type:char(36);not null;column:user_a_id"`
	UserBID   uuid.UUID `gorm:"type:char(36);not null;column:user_b_id"`
	MatchedAt time.Time `gorm:"autoCreateTime;index"`
}

func (MatchHistory) TableName() string { return "match_history" }

package db

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var seedHobbies = []string{
	"hiking", "cooking", "gaming", "reading", "running",
	"movies", "travel", "photography", "climbing", "music",
}

var seedRegions = []Region{
	RegionSeoul, RegionGyeonggi, RegionIncheon, RegionBusan,
	RegionDaegu, RegionDaejeon, RegionGwangju, RegionJeju,
}

var seedTiers = []Tier{
	TierFertilizer, TierWilting, TierSprout, TierPetal, TierFruit,
}

// SeedTestData resets the database and populates it with demo users.
//
// Behavior:
//  1. Clears users, hobbies and all matching tables.
//  2. Inserts the hobby catalogue.
//  3. Creates 40 users (20 male, 20 female) spread over regions, birth
//     years 1985-2005 and all tiers, each with 2-4 hobbies.
func SeedTestData(database *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, table := range []string{
		"match_queue_hobbies", "match_queue", "match_history",
		"rooms", "user_hobbies", "users", "hobbies",
	} {
		if err := database.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	hobbies := make([]Hobby, 0, len(seedHobbies))
	for _, name := range seedHobbies {
		hobbies = append(hobbies, Hobby{Name: name})
	}
	if err := database.Create(&hobbies).Error; err != nil {
		return fmt.Errorf("failed to seed hobbies: %w", err)
	}

	for i := 1; i <= 40; i++ {
		gender := GenderMale
		if i > 20 {
			gender = GenderFemale
		}

		birthYear := 1985 + r.Intn(21)
		user := User{
			ID:        uuid.New(),
			Nickname:  fmt.Sprintf("user%d", i),
			Gender:    gender,
			BirthDate: time.Date(birthYear, time.Month(1+r.Intn(12)), 1+r.Intn(28), 0, 0, 0, 0, time.UTC),
			Region:    seedRegions[r.Intn(len(seedRegions))],
			Tier:      seedTiers[r.Intn(len(seedTiers))],
		}
		if err := database.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}

		picked := r.Perm(len(hobbies))[:2+r.Intn(3)]
		for _, idx := range picked {
			uh := UserHobby{UserID: user.ID, HobbyID: hobbies[idx].ID}
			if err := database.Create(&uh).Error; err != nil {
				return fmt.Errorf("failed to seed user hobby: %w", err)
			}
		}
	}

	return nil
}

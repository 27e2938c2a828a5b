package main

import (
	"github.com/team-sallang/matching-poc/internal/config"
	"github.com/team-sallang/matching-poc/internal/db"
	"github.com/team-sallang/matching-poc/internal/logger"
)

// Seeds the database with demo users and hobbies for local testing.
func main() {
	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.L()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	if err := db.SeedTestData(database); err != nil {
		log.Error("failed to seed", "err", err)
		return
	}

	log.Info("seed complete")
}

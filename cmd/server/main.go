package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/team-sallang/matching-poc/internal/app"
	"github.com/team-sallang/matching-poc/internal/cache"
	"github.com/team-sallang/matching-poc/internal/config"
	"github.com/team-sallang/matching-poc/internal/db"
	"github.com/team-sallang/matching-poc/internal/logger"
	"github.com/team-sallang/matching-poc/internal/server"
	"github.com/team-sallang/matching-poc/internal/service/match"
	"github.com/team-sallang/matching-poc/internal/service/queue"
	"github.com/team-sallang/matching-poc/internal/worker"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	appCtx := app.New(database, redisCache, log)

	matchSvc := match.NewService(appCtx)
	queueSvc := queue.NewService(appCtx, cfg.Matching.Debounce)

	// Background matching paths
	scheduler := worker.NewScheduler(appCtx, matchSvc, cfg.Matching.SchedulerInterval)
	scheduler.Start()

	fastPath := worker.NewFastPathWorker(
		appCtx,
		cfg.Matching.WorkerTick,
		cfg.Matching.TopCandidates,
		cfg.Matching.QueueTimeout,
	)
	fastPath.Start()

	router := server.NewRouter(appCtx, queueSvc, matchSvc)

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting http server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server failed", "err", err)
		}
	}()

	// Block until shutdown signal; in-flight ticks finish before exit.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	scheduler.Stop()
	fastPath.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	log.Info("server stopped")
}

package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/chairmanhq/chairman-server/internal/config"
	"github.com/chairmanhq/chairman-server/internal/database"
	"github.com/chairmanhq/chairman-server/internal/handler"
	"github.com/chairmanhq/chairman-server/internal/middleware"
	"github.com/chairmanhq/chairman-server/internal/queue"
	"github.com/chairmanhq/chairman-server/internal/repository"
	"github.com/chairmanhq/chairman-server/internal/router"
	"github.com/chairmanhq/chairman-server/internal/scheduler"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatalf("migrate: %v", err)
	}
	cancel()

	// Repositories and the scheduler core.
	apptRepo := repository.NewAppointmentRepo(db)
	serviceRepo := repository.NewServiceRepo(db)
	clientRepo := repository.NewClientRepo(db)
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	sched := scheduler.New(db, apptRepo, serviceRepo)

	// Handlers.
	authH := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	apptH := handler.NewAppointmentHandler(sched)
	clientH := handler.NewClientHandler(clientRepo)
	serviceH := handler.NewServiceHandler(serviceRepo)

	// Redis is optional; with no client the cache and rate limiter become
	// pass-throughs.
	rdb := config.NewRedisClient()
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	limitMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	// Booking events are consumed in the background; the consumer keeps
	// reconnecting on its own, so a failure here only logs.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("queue consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterSchedule(e, apptH, clientH, serviceH, cfg.JWTSecret, limitMW, cacheMW)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

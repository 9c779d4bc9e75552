package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ravi1548/Transport-Facility/config"
	"github.com/Ravi1548/Transport-Facility/internal/cache"
	"github.com/Ravi1548/Transport-Facility/internal/domain"
	"github.com/Ravi1548/Transport-Facility/internal/email"
	"github.com/Ravi1548/Transport-Facility/internal/kafka"
	"github.com/Ravi1548/Transport-Facility/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// The worker consumes ride notifications and keeps the open-rides
// cache warm for the current service date.
func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Rides.OpenRidesCacheTTL)*time.Second)
	rideRepo := repository.NewRideRepository(pool)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, logger)
	defer consumer.Close()

	emailSender := email.NewSender()

	go func() {
		if err := consumer.Consume(ctx, emailSender.Send); err != nil {
			logger.Warn("consumer stopped", zap.Error(err))
		}
	}()

	refreshTicker := time.NewTicker(time.Duration(cfg.Worker.CacheRefreshMinutes) * time.Minute)
	defer refreshTicker.Stop()

	for {
		select {
		case <-refreshTicker.C:
			day := domain.DayOf(time.Now())
			rides, err := rideRepo.ListOpenByDate(ctx, day)
			if err != nil {
				logger.Warn("refresh open rides", zap.Error(err))
				continue
			}
			if err := redisCache.SetOpenRides(ctx, day, rides); err != nil {
				logger.Warn("warm open rides cache", zap.Error(err))
			}
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		}
	}
}

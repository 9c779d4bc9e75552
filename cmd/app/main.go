package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ravi1548/Transport-Facility/api"
	"github.com/Ravi1548/Transport-Facility/config"
	"github.com/Ravi1548/Transport-Facility/internal/auth"
	"github.com/Ravi1548/Transport-Facility/internal/bootstrap"
	"github.com/Ravi1548/Transport-Facility/internal/cache"
	"github.com/Ravi1548/Transport-Facility/internal/kafka"
	"github.com/Ravi1548/Transport-Facility/internal/repository"
	"github.com/Ravi1548/Transport-Facility/internal/service/ledger"
	"github.com/Ravi1548/Transport-Facility/internal/service/matcher"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

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
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	rideRepo := repository.NewRideRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	employeeRepo := repository.NewEmployeeRepository(pool)

	ledgerService := ledger.NewLedgerService(
		rideRepo,
		redisCache,
		producer,
		logger,
		ledger.WithRideTopic(cfg.Kafka.RideEventsTopic),
	)
	matcherService := matcher.NewMatcherService(
		rideRepo,
		bookingRepo,
		redisCache,
		producer,
		logger,
		matcher.WithRideTopic(cfg.Kafka.RideEventsTopic),
		matcher.WithLockTTL(time.Duration(cfg.Rides.ReserveLockTTLSecs)*time.Second),
	)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)

	authHandler := api.NewAuthHandler(tokens, employeeRepo)
	rideHandler := api.NewRideHandler(ledgerService, matcherService, cfg.Rides.SearchWindowMinutes, time.Now)
	bookingHandler := api.NewBookingHandler(matcherService, time.Now)

	if err := bootstrap.Run(ctx, cfg, logger, tokens, authHandler, rideHandler, bookingHandler); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

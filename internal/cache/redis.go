package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ravi1548/Transport-Facility/config"
	"github.com/Ravi1548/Transport-Facility/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client       *redis.Client
	openRidesTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, openRidesTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:       redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		openRidesTTL: openRidesTTL,
	}
}

func (c *RedisCache) GetOpenRides(ctx context.Context, day domain.Day) ([]domain.Ride, error) {
	data, err := c.client.Get(ctx, openRidesKey(day)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var rides []domain.Ride
	if err := json.Unmarshal(data, &rides); err != nil {
		return nil, err
	}
	return rides, nil
}

func (c *RedisCache) SetOpenRides(ctx context.Context, day domain.Day, rides []domain.Ride) error {
	payload, err := json.Marshal(rides)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, openRidesKey(day), payload, c.openRidesTTL).Err()
}

func (c *RedisCache) InvalidateOpenRides(ctx context.Context, day domain.Day) error {
	return c.client.Del(ctx, openRidesKey(day)).Err()
}

// AcquireRideLock serializes reserve/cancel on one ride: the
// read-modify-write runs under a short-lived SetNX lock so two writers
// cannot interleave on the same ride.
func (c *RedisCache) AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, rideLockKey(rideID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseRideLock(ctx context.Context, rideID string) error {
	return c.client.Del(ctx, rideLockKey(rideID)).Err()
}

func openRidesKey(day domain.Day) string {
	return fmt.Sprintf("cache:rides:open:%s", day)
}

func rideLockKey(rideID string) string {
	return fmt.Sprintf("lock:ride:%s", rideID)
}

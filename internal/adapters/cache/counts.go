// Package cache provides the Redis-backed attendance count cache.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const countKeyPrefix = "gatekeeper:event_count:"

// CountsCache stores per-event active-participant counts with a short TTL.
// Counts are advisory only, the database remains authoritative.
type CountsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCountsCache(client *redis.Client, ttl time.Duration) *CountsCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CountsCache{client: client, ttl: ttl}
}

// NewRedisClient creates a Redis client with sane pool defaults.
func NewRedisClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})
}

func (c *CountsCache) Get(ctx context.Context, eventID string) (int, bool, error) {
	val, err := c.client.Get(ctx, countKeyPrefix+eventID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get count: %w", err)
	}
	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("parse count: %w", err)
	}
	return count, true, nil
}

func (c *CountsCache) Set(ctx context.Context, eventID string, count int) error {
	if err := c.client.Set(ctx, countKeyPrefix+eventID, count, c.ttl).Err(); err != nil {
		return fmt.Errorf("set count: %w", err)
	}
	return nil
}

func (c *CountsCache) Invalidate(ctx context.Context, eventID string) error {
	if err := c.client.Del(ctx, countKeyPrefix+eventID).Err(); err != nil {
		return fmt.Errorf("invalidate count: %w", err)
	}
	return nil
}

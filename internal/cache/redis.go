package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/KidOfCoding/TripManagement/internal/config"
	"github.com/KidOfCoding/TripManagement/internal/models"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when a key is not cached.
var ErrMiss = errors.New("cache miss")

// StatsCache caches the period stats of one account. Entries are tied to the
// local day the periods were computed from, so a new day always misses.
type StatsCache interface {
	GetStats(ctx context.Context, accountID, day string) (*models.TripStats, error)
	SetStats(ctx context.Context, accountID, day string, stats models.TripStats) error
	InvalidateStats(ctx context.Context, accountID string) error
}

// RedisCache stores JSON values in Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, cfg config.RedisConfig) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisCacheWithClient(rdb, cfg.StatsTTL), nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

// statsKey is a hash per account with one field per day, so invalidation is a
// single DEL whatever day was cached.
func statsKey(accountID string) string {
	return "trips:stats:" + accountID
}

func (r *RedisCache) GetStats(ctx context.Context, accountID, day string) (*models.TripStats, error) {
	data, err := r.client.HGet(ctx, statsKey(accountID), day).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}

	var stats models.TripStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SetStats replaces whatever day was cached for the account.
func (r *RedisCache) SetStats(ctx context.Context, accountID, day string, stats models.TripStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	key := statsKey(accountID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, day, data)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	return err
}

func (r *RedisCache) InvalidateStats(ctx context.Context, accountID string) error {
	return r.client.Del(ctx, statsKey(accountID)).Err()
}

// IncrWindow increments key and starts its expiry on the first hit.
func (r *RedisCache) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, err
		}
	}
	return count, nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

// Noop is used when Redis is not configured. Every read misses.
type Noop struct{}

func (Noop) GetStats(context.Context, string, string) (*models.TripStats, error) { return nil, ErrMiss }
func (Noop) SetStats(context.Context, string, string, models.TripStats) error    { return nil }
func (Noop) InvalidateStats(context.Context, string) error                       { return nil }

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"cleanstreet-be/models"
)

// StatsCache holds the last computed dashboard counters. Get reports a miss
// as nil stats along with the cache generation it observed; Set only stores
// when no Invalidate has happened since that generation, so counts computed
// before a write can never overwrite the invalidation.
type StatsCache interface {
	Get(ctx context.Context) (*models.IssueStats, int64, error)
	Set(ctx context.Context, gen int64, stats models.IssueStats) error
	Invalidate(ctx context.Context) error
}

// RedisStatsCache stores the counters as one JSON value with a TTL, next to
// a generation counter under key:gen that every Invalidate bumps.
type RedisStatsCache struct {
	client *redis.Client
	key    string
	genKey string
	ttl    time.Duration
}

func NewRedisStatsCache(client *redis.Client, key string, ttl time.Duration) *RedisStatsCache {
	return &RedisStatsCache{client: client, key: key, genKey: key + ":gen", ttl: ttl}
}

func (c *RedisStatsCache) Get(ctx context.Context) (*models.IssueStats, int64, error) {
	vals, err := c.client.MGet(ctx, c.key, c.genKey).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("get stats: %w", err)
	}
	gen, err := parseGeneration(vals[1])
	if err != nil {
		return nil, 0, err
	}

	raw, ok := vals[0].(string)
	if !ok {
		return nil, gen, nil
	}
	var stats models.IssueStats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return nil, gen, fmt.Errorf("unmarshal stats: %w", err)
	}
	return &stats, gen, nil
}

// Set writes stats if the generation is still gen. A lost race is not an
// error; the next read recomputes.
func (c *RedisStatsCache) Set(ctx context.Context, gen int64, stats models.IssueStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		v, err := tx.Get(ctx, c.genKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		current, err := parseGeneration(v)
		if err != nil {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key, raw, c.ttl)
			return nil
		})
		return err
	}, c.genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("set stats: %w", err)
	}
	return nil
}

func (c *RedisStatsCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey)
		pipe.Del(ctx, c.key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate stats: %w", err)
	}
	return nil
}

// parseGeneration reads a generation counter; absent means zero.
func parseGeneration(v any) (int64, error) {
	switch v := v.(type) {
	case nil:
		return 0, nil
	case string:
		if v == "" {
			return 0, nil
		}
		gen, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse stats generation: %w", err)
		}
		return gen, nil
	default:
		return 0, fmt.Errorf("unexpected stats generation %T", v)
	}
}

// NopStatsCache never hits; used when Redis is not configured.
type NopStatsCache struct{}

func (NopStatsCache) Get(context.Context) (*models.IssueStats, int64, error) { return nil, 0, nil }
func (NopStatsCache) Set(context.Context, int64, models.IssueStats) error    { return nil }
func (NopStatsCache) Invalidate(context.Context) error                       { return nil }

// Package cache holds read-through caches for records that never change once
// written. Zones qualify: there is no update path for them.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"parkilite/internal/domain"
)

const (
	defaultDialTimeout  = 5 * time.Second
	defaultReadTimeout  = 3 * time.Second
	defaultWriteTimeout = 3 * time.Second

	zoneKeyPrefix = "parkilite:zone:"
)

// NewRedisClient returns a go-redis client after a successful PING.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("redis: addr is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  defaultDialTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return client, nil
}

// RedisZoneCache stores zones as JSON. Redis failures are logged and treated
// as misses; the database stays the source of truth.
type RedisZoneCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisZoneCache(client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *RedisZoneCache {
	return &RedisZoneCache{client: client, ttl: ttl, logger: logger}
}

func zoneKey(id int) string {
	return fmt.Sprintf("%s%d", zoneKeyPrefix, id)
}

func (c *RedisZoneCache) Get(ctx context.Context, id int) (*domain.Zone, bool) {
	raw, err := c.client.Get(ctx, zoneKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("zone cache read failed", zap.Int("zone_id", id), zap.Error(err))
		}
		return nil, false
	}
	var zone domain.Zone
	if err := json.Unmarshal(raw, &zone); err != nil {
		c.logger.Warn("zone cache entry corrupt", zap.Int("zone_id", id), zap.Error(err))
		return nil, false
	}
	return &zone, true
}

func (c *RedisZoneCache) Set(ctx context.Context, zone *domain.Zone) {
	raw, err := json.Marshal(zone)
	if err != nil {
		c.logger.Warn("zone cache encode failed", zap.Int("zone_id", zone.ID), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, zoneKey(zone.ID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("zone cache write failed", zap.Int("zone_id", zone.ID), zap.Error(err))
	}
}

// NopZoneCache is used when no Redis address is configured.
type NopZoneCache struct{}

func (NopZoneCache) Get(context.Context, int) (*domain.Zone, bool) { return nil, false }

func (NopZoneCache) Set(context.Context, *domain.Zone) {}

package tokens

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCachedStore wraps a durable Store with a Redis read-through cache,
// following internal/wallet/cache/redis_cache.go in the reference
// exchange backend (RedisWalletCache): a Cmdable, a logger, a key prefix,
// and a TTL, with cache misses falling through to the source of truth
// and populating the cache on the way back.
type RedisCachedStore struct {
	next   Store
	client redis.Cmdable
	log    *zap.Logger
	prefix string
	ttl    time.Duration
}

func NewRedisCachedStore(next Store, client redis.Cmdable, log *zap.Logger, prefix string, ttl time.Duration) *RedisCachedStore {
	return &RedisCachedStore{next: next, client: client, log: log, prefix: prefix, ttl: ttl}
}

func (c *RedisCachedStore) cacheKey(chainID int64, address string) string {
	return c.prefix + ":" + strconv.FormatInt(chainID, 10) + ":" + address
}

func (c *RedisCachedStore) Get(ctx context.Context, chainID int64, address string) (*Record, error) {
	key := c.cacheKey(chainID, address)
	data, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var rec Record
		if jerr := json.Unmarshal([]byte(data), &rec); jerr == nil {
			return &rec, nil
		}
		c.log.Warn("failed to unmarshal cached token record", zap.String("key", key))
	} else if err != redis.Nil {
		c.log.Warn("redis get failed, falling back to store", zap.Error(err), zap.String("key", key))
	}

	rec, err := c.next.Get(ctx, chainID, address)
	if err != nil || rec == nil {
		return rec, err
	}
	if data, merr := json.Marshal(rec); merr == nil {
		if serr := c.client.Set(ctx, key, data, c.ttl).Err(); serr != nil {
			c.log.Warn("failed to populate token cache", zap.Error(serr), zap.String("key", key))
		}
	}
	return rec, nil
}

func (c *RedisCachedStore) Put(ctx context.Context, rec Record) error {
	if err := c.next.Put(ctx, rec); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil
	}
	if err := c.client.Set(ctx, c.cacheKey(rec.ChainID, rec.Address), data, c.ttl).Err(); err != nil {
		c.log.Warn("failed to populate token cache on put", zap.Error(err))
	}
	return nil
}

func (c *RedisCachedStore) List(ctx context.Context, chainID int64) ([]Record, error) {
	return c.next.List(ctx, chainID)
}

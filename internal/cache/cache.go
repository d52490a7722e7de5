package cache

import (
	"context"
	"encoding/json" // JSON encoding/decoding
	"fmt"
	"time"

	"github.com/redis/go-redis/v9" // Redis client
)

// Cache is a strictly-advisory read accelerator over redis. Misses and redis
// failures are never fatal; the relational store stays the source of truth.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a Cache with the given default TTL.
func New(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// Get retrieves a value and unmarshals it into dest. The boolean reports
// whether the key existed.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err
	}
	return true, json.Unmarshal([]byte(val), dest)
}

// Set stores a value under key with the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

// Delete removes a single key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// DeleteByPattern removes every key matching a glob pattern, e.g.
// "donations:user:123:*". Used by the donation worker to invalidate all
// paginated entries for a user after a write.
func (c *Cache) DeleteByPattern(ctx context.Context, pattern string) error {
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("delete %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

// Key builders shared by the API handlers and the worker's invalidation pass.

func WalletKey(userID string) string {
	return "wallet:user:" + userID
}

func DonationHistoryPattern(userID string) string {
	return "donations:user:" + userID + ":*"
}

func DonationHistoryKey(userID string, page, size int) string {
	return fmt.Sprintf("donations:user:%s:page:%d:size:%d", userID, page, size)
}

func TxHistoryPattern(userID string) string {
	return "txhistory:user:" + userID + ":*"
}

func TxHistoryKey(userID string, page, size int) string {
	return fmt.Sprintf("txhistory:user:%s:page:%d:size:%d", userID, page, size)
}

func DonationCountKey(donorID, beneficiaryID string) string {
	return "donations:count:" + donorID + ":" + beneficiaryID
}

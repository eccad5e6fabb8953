// Package cache holds synthesized question audio in Redis with a short TTL,
// keyed by session and question index. The cache is optional: an unconfigured
// address yields a nil *DB, and all methods on a nil receiver are no-ops, so
// callers never branch on whether caching is enabled.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/intervue/interview-service/config"
)

const keyPrefix = "intervue:"

type DB struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to Redis, or returns (nil, nil) when no address is configured.
func New(cfg *config.Config) (*DB, error) {
	if cfg.Cache.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.Addr,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("could not connect to cache at %s: %w", cfg.Cache.Addr, err)
	}
	return &DB{rdb: rdb, ttl: cfg.Cache.AudioTTL}, nil
}

func audioKey(sessionID string, questionIndex int) string {
	return fmt.Sprintf("%saudio:%s:%d", keyPrefix, sessionID, questionIndex)
}

// SaveAudio stores synthesized question audio under the session's current
// question index.
func (db *DB) SaveAudio(ctx context.Context, sessionID string, questionIndex int, data []byte) error {
	if db == nil {
		return nil
	}
	return db.rdb.Set(ctx, audioKey(sessionID, questionIndex), data, db.ttl).Err()
}

// LoadAudio returns cached audio, or (nil, nil) on a miss.
func (db *DB) LoadAudio(ctx context.Context, sessionID string, questionIndex int) ([]byte, error) {
	if db == nil {
		return nil, nil
	}
	data, err := db.rdb.Get(ctx, audioKey(sessionID, questionIndex)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not load cached audio: %w", err)
	}
	return data, nil
}

// CleanSession removes all cached audio for a session.
func (db *DB) CleanSession(ctx context.Context, sessionID string) (int64, error) {
	if db == nil {
		return 0, nil
	}
	pattern := fmt.Sprintf("%saudio:%s:*", keyPrefix, sessionID)
	var keys []string
	iter := db.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	return db.rdb.Del(ctx, keys...).Result()
}

func (db *DB) Ping(ctx context.Context) error {
	if db == nil {
		return nil
	}
	return db.rdb.Ping(ctx).Err()
}

func (db *DB) Close() error {
	if db == nil {
		return nil
	}
	return db.rdb.Close()
}

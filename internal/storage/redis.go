// Package storage provides the snapshot store implementations: Redis for
// hosts already running one, a flat JSON file matching the original game's
// save format, and an in-memory mock for tests.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/npc-memory/pkg/memory"
)

// RedisStore persists memory snapshots as a JSON value under a prefixed
// key.
type RedisStore struct {
	client *redis.Client
	key    string
	logger *slog.Logger
}

// Ensure RedisStore implements memory.Store
var _ memory.Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed snapshot store. saveKey
// distinguishes save slots; it defaults to "default".
func NewRedisStore(redisURL string, saveKey string, logger *slog.Logger) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})
	if saveKey == "" {
		saveKey = "default"
	}
	return &RedisStore{
		client: rdb,
		key:    "npcmemory:" + saveKey,
		logger: logger,
	}
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

func (r *RedisStore) SaveSnapshot(ctx context.Context, snap *memory.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		r.logger.Error("Failed to marshal snapshot", "key", r.key, "error", err)
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := r.client.Set(ctx, r.key, string(data), 0).Err(); err != nil {
		r.logger.Error("Failed to save snapshot", "key", r.key, "error", err)
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (r *RedisStore) LoadSnapshot(ctx context.Context) (*memory.Snapshot, error) {
	cmd := r.client.Get(ctx, r.key)
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			r.logger.Debug("No snapshot found", "key", r.key)
			return nil, nil
		}
		r.logger.Error("Failed to load snapshot", "key", r.key, "error", err)
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	data := cmd.Val()
	if data == "" {
		return nil, nil
	}

	var snap memory.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		r.logger.Error("Failed to unmarshal snapshot", "key", r.key, "error", err)
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Package redis provides a Redis-backed checkpoint store. Checkpoints are
// stored as JSON values with a per-session set index.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smallnest/deepresearch/store"
)

// RedisCheckpointStore implements store.CheckpointStore using Redis
type RedisCheckpointStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ store.CheckpointStore = (*RedisCheckpointStore)(nil)

// RedisOptions configuration for the Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "deepresearch:"
	TTL      time.Duration // Expiration for checkpoints, default 0 (no expiration)
}

// NewRedisCheckpointStore creates a new Redis checkpoint store
func NewRedisCheckpointStore(opts RedisOptions) *RedisCheckpointStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "deepresearch:"
	}

	return &RedisCheckpointStore{
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
	}
}

func (s *RedisCheckpointStore) checkpointKey(id string) string {
	return fmt.Sprintf("%scheckpoint:%s", s.prefix, id)
}

func (s *RedisCheckpointStore) sessionKey(id string) string {
	return fmt.Sprintf("%ssession:%s:checkpoints", s.prefix, id)
}

// Save stores a checkpoint
func (s *RedisCheckpointStore) Save(ctx context.Context, checkpoint *store.Checkpoint) error {
	data, err := json.Marshal(checkpoint)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.checkpointKey(checkpoint.ID), data, s.ttl)

	if checkpoint.SessionID != "" {
		sessKey := s.sessionKey(checkpoint.SessionID)
		pipe.SAdd(ctx, sessKey, checkpoint.ID)
		if s.ttl > 0 {
			pipe.Expire(ctx, sessKey, s.ttl)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save checkpoint to redis: %w", err)
	}

	return nil
}

// Load retrieves a checkpoint by ID
func (s *RedisCheckpointStore) Load(ctx context.Context, checkpointID string) (*store.Checkpoint, error) {
	data, err := s.client.Get(ctx, s.checkpointKey(checkpointID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("checkpoint not found: %s", checkpointID)
		}
		return nil, fmt.Errorf("failed to load checkpoint from redis: %w", err)
	}

	var checkpoint store.Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}

	return &checkpoint, nil
}

// List returns all checkpoints for a session, ordered by version
func (s *RedisCheckpointStore) List(ctx context.Context, sessionID string) ([]*store.Checkpoint, error) {
	checkpointIDs, err := s.client.SMembers(ctx, s.sessionKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints for session %s: %w", sessionID, err)
	}

	if len(checkpointIDs) == 0 {
		return []*store.Checkpoint{}, nil
	}

	keys := make([]string, 0, len(checkpointIDs))
	for _, id := range checkpointIDs {
		keys = append(keys, s.checkpointKey(id))
	}

	// MGet returns nil for expired members, which we skip.
	results, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch checkpoints: %w", err)
	}

	var checkpoints []*store.Checkpoint
	for _, result := range results {
		strData, ok := result.(string)
		if !ok {
			continue
		}

		var checkpoint store.Checkpoint
		if err := json.Unmarshal([]byte(strData), &checkpoint); err != nil {
			continue
		}
		checkpoints = append(checkpoints, &checkpoint)
	}

	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].Version < checkpoints[j].Version
	})
	return checkpoints, nil
}

// Delete removes a checkpoint
func (s *RedisCheckpointStore) Delete(ctx context.Context, checkpointID string) error {
	checkpoint, err := s.Load(ctx, checkpointID)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.checkpointKey(checkpointID))
	if checkpoint.SessionID != "" {
		pipe.SRem(ctx, s.sessionKey(checkpoint.SessionID), checkpointID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	return nil
}

// Clear removes all checkpoints for a session
func (s *RedisCheckpointStore) Clear(ctx context.Context, sessionID string) error {
	sessKey := s.sessionKey(sessionID)
	checkpointIDs, err := s.client.SMembers(ctx, sessKey).Result()
	if err != nil {
		return fmt.Errorf("failed to get checkpoints for clearing: %w", err)
	}

	if len(checkpointIDs) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, id := range checkpointIDs {
		pipe.Del(ctx, s.checkpointKey(id))
	}
	pipe.Del(ctx, sessKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear checkpoints: %w", err)
	}

	return nil
}

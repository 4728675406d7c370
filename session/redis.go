package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key prefix for sessions
	defaultKeyPrefix = "contractbot:session:"
	// Default TTL for session keys (24 hours)
	defaultTTL = 24 * time.Hour
)

// RedisStore implements Store using Redis with optimistic locking.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisStore creates a new Redis-based session store.
func NewRedisStore(client *redis.Client, ttl time.Duration, prefix string) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{
		client: client,
		ttl:    ttl,
		prefix: prefix,
	}
}

// Create implements Store.
// Creates a new session with Version set to 1 and sets TTL.
func (s *RedisStore) Create(ctx context.Context, data *State) error {
	now := time.Now()
	data.CreatedAt = now
	data.UpdatedAt = now
	data.Version = 1

	val, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, s.key(data.ID), val, s.ttl).Err()
}

// Get implements Store.
// Returns nil if the session is not found (not an error).
// Refreshes TTL on every read.
func (s *RedisStore) Get(ctx context.Context, id string) (*State, error) {
	key := s.key(id)
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}

	var data State
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return nil, err
	}
	if data.Answers == nil {
		data.Answers = make(map[string]string)
	}

	// TTL refresh failure only shortens the session's life.
	_ = s.client.Expire(ctx, key, s.ttl).Err()

	return &data, nil
}

// Update implements Store.
// Implements optimistic locking using Redis WATCH/MULTI/EXEC.
func (s *RedisStore) Update(ctx context.Context, data *State) error {
	key := s.key(data.ID)

	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var stored State
		if err := json.Unmarshal([]byte(val), &stored); err != nil {
			return err
		}

		if stored.Version != data.Version {
			return ErrVersionConflict
		}

		next := data.Clone()
		next.Version++
		next.UpdatedAt = time.Now()

		newVal, err := json.Marshal(next)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newVal, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}

		data.Version = next.Version
		data.UpdatedAt = next.UpdatedAt
		return nil
	}, key)
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// key constructs the Redis key for a session ID.
func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

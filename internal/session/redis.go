package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository keeps snapshots in Redis under prefix+id. Every save and
// load refreshes the key's TTL, so idle sessions expire on their own.
type RedisRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisRepository wraps client. A non-positive ttl stores keys without
// expiry.
func NewRedisRepository(client *redis.Client, prefix string, ttl time.Duration) *RedisRepository {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisRepository{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisRepository) key(id string) string {
	return r.prefix + id
}

func (r *RedisRepository) claimKey(id string) string {
	return r.prefix + id + ":simulating"
}

// Ping checks the connection.
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Load implements Repository.
func (r *RedisRepository) Load(ctx context.Context, id string) (Snapshot, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load session %s: %w", id, err)
	}

	if r.ttl > 0 {
		if err := r.client.Expire(ctx, r.key(id), r.ttl).Err(); err != nil {
			return Snapshot{}, fmt.Errorf("refresh session %s: %w", id, err)
		}
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return snap, nil
}

// Save implements Repository.
func (r *RedisRepository) Save(ctx context.Context, id string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", id, err)
	}
	if err := r.client.Set(ctx, r.key(id), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}
	return nil
}

// Delete implements Repository.
func (r *RedisRepository) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, r.key(id)).Result()
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// Claim implements Claimer with SETNX. The ttl frees the flag when the
// holder dies before releasing it.
func (r *RedisRepository) Claim(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.claimKey(id), time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim session %s: %w", id, err)
	}
	return ok, nil
}

// Claimed implements Claimer.
func (r *RedisRepository) Claimed(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, r.claimKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("check claim on session %s: %w", id, err)
	}
	return n > 0, nil
}

// Release implements Claimer.
func (r *RedisRepository) Release(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.claimKey(id)).Err(); err != nil {
		return fmt.Errorf("release session %s: %w", id, err)
	}
	return nil
}

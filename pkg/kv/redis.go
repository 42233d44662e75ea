package kv

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Redis is a slot storage backed by Redis. Slots are stored under
// "{prefix}:{slot}" keys so several applications can share one instance.
type Redis struct {
	client redis.UniversalClient
	opts   *redisOptions
}

// RedisOption configures the Redis slot storage.
type RedisOption func(*redisOptions)

type redisOptions struct {
	prefix string
}

func defaultRedisOptions() *redisOptions {
	return &redisOptions{prefix: "gatherly"}
}

// WithPrefix sets the key prefix for all slots.
// Default: "gatherly".
func WithPrefix(prefix string) RedisOption {
	return func(o *redisOptions) {
		o.prefix = prefix
	}
}

// NewRedis creates a Redis-backed slot storage.
// The client should be obtained from Open or MustOpen.
//
// Example:
//
//	client := kv.MustOpen(ctx, os.Getenv("REDIS_URL"))
//	store := kv.NewRedis(client, kv.WithPrefix("gatherly"))
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	o := defaultRedisOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Redis{client: client, opts: o}
}

// Load returns the payload of a slot.
func (r *Redis) Load(ctx context.Context, slot string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(slot)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Save replaces the payload of a slot. Slots never expire in Redis;
// entry lifetimes are managed by the cache layer above.
func (r *Redis) Save(ctx context.Context, slot string, data []byte) error {
	return r.client.Set(ctx, r.key(slot), data, 0).Err()
}

// Remove deletes a slot.
func (r *Redis) Remove(ctx context.Context, slot string) error {
	return r.client.Del(ctx, r.key(slot)).Err()
}

// Slots lists existing slot names using SCAN, which does not block the server.
func (r *Redis) Slots(ctx context.Context) ([]string, error) {
	pattern := r.opts.prefix + ":*"
	var (
		cursor uint64
		names  []string
	)

	for {
		keys, nextCursor, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			names = append(names, strings.TrimPrefix(key, r.opts.prefix+":"))
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return names, nil
}

// key returns the full Redis key for a slot.
func (r *Redis) key(slot string) string {
	return r.opts.prefix + ":" + slot
}

var _ Storage = (*Redis)(nil)

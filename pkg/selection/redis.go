package selection

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Sternrassler/artsel/pkg/artwork"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key of the redis SET holding the selection.
const DefaultRedisKey = "artsel:selection"

// RedisStore keeps the selection in a redis SET.
type RedisStore struct {
	redis *redis.Client
	key   string
}

// NewRedisStore creates a store on key (DefaultRedisKey if empty).
func NewRedisStore(redisClient *redis.Client, key string) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{
		redis: redisClient,
		key:   key,
	}
}

// Key returns the redis key of the SET.
func (r *RedisStore) Key() string {
	return r.key
}

func (r *RedisStore) Has(ctx context.Context, id artwork.ID) (bool, error) {
	ok, err := r.redis.SIsMember(ctx, r.key, int(id)).Result()
	if err != nil {
		return false, fmt.Errorf("redis sismember: %w", err)
	}
	return ok, nil
}

func (r *RedisStore) HasMany(ctx context.Context, ids []artwork.ID) ([]bool, error) {
	if len(ids) == 0 {
		return []bool{}, nil
	}
	res, err := r.redis.SMIsMember(ctx, r.key, members(ids)...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smismember: %w", err)
	}
	return res, nil
}

func (r *RedisStore) Add(ctx context.Context, id artwork.ID) error {
	return r.AddMany(ctx, []artwork.ID{id})
}

func (r *RedisStore) AddMany(ctx context.Context, ids []artwork.ID) error {
	if len(ids) == 0 {
		return nil
	}
	added, err := r.redis.SAdd(ctx, r.key, members(ids)...).Result()
	if err != nil {
		return fmt.Errorf("redis sadd: %w", err)
	}
	recordMutation("redis", "add", int(added))
	return nil
}

func (r *RedisStore) Remove(ctx context.Context, id artwork.ID) error {
	return r.RemoveMany(ctx, []artwork.ID{id})
}

func (r *RedisStore) RemoveMany(ctx context.Context, ids []artwork.ID) error {
	if len(ids) == 0 {
		return nil
	}
	removed, err := r.redis.SRem(ctx, r.key, members(ids)...).Result()
	if err != nil {
		return fmt.Errorf("redis srem: %w", err)
	}
	recordMutation("redis", "remove", int(removed))
	return nil
}

func (r *RedisStore) All(ctx context.Context) (Set, error) {
	raw, err := r.redis.SMembers(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	set := make(Set, len(raw))
	for _, m := range raw {
		id, err := strconv.Atoi(m)
		if err != nil {
			return nil, fmt.Errorf("parse selection member %q: %w", m, err)
		}
		set[artwork.ID(id)] = struct{}{}
	}
	return set, nil
}

func (r *RedisStore) Len(ctx context.Context) (int, error) {
	n, err := r.redis.SCard(ctx, r.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis scard: %w", err)
	}
	return int(n), nil
}

func members(ids []artwork.ID) []interface{} {
	out := make([]interface{}, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

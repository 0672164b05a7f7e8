package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"SecretSanta/internal/domain"
	"SecretSanta/internal/ports"
)

const redisKeyPrefix = "secretsanta:product:"

// RedisStore keeps YAML-encoded records under prefixed keys without expiry.
type RedisStore struct {
	client *redis.Client
}

var _ ports.ProductCache = (*RedisStore)(nil)

// NewRedisStore connects to addr.
func NewRedisStore(addr string) *RedisStore {
	return NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: addr}))
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get loads the record for key; redis.Nil is a miss.
func (s *RedisStore) Get(ctx context.Context, key domain.CacheKey) (domain.ProductRecord, bool, error) {
	raw, err := s.client.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.ProductRecord{}, false, nil
	}
	if err != nil {
		return domain.ProductRecord{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var record domain.ProductRecord
	if err := yaml.Unmarshal([]byte(raw), &record); err != nil {
		return domain.ProductRecord{}, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return record, true, nil
}

// Put stores the record for key.
func (s *RedisStore) Put(ctx context.Context, key domain.CacheKey, record domain.ProductRecord) error {
	raw, err := yaml.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, redisKey(key), string(raw), 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func redisKey(key domain.CacheKey) string {
	return redisKeyPrefix + key.String()
}

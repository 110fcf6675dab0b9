package cartstate

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/autoimport-storefront/pkg/redis"
)

type redisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CartKey(name string) string
	Ping(ctx context.Context) error
}

// RedisStore keeps state in redis under the namespaced cart key, without expiry.
type RedisStore struct {
	client redisClient
}

func NewRedisStore(client redisClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.client.CartKey(key))
	if errors.Is(err, redis.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(val), nil
}

func (s *RedisStore) Save(ctx context.Context, key string, payload []byte) error {
	return s.client.Set(ctx, s.client.CartKey(key), string(payload), 0)
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

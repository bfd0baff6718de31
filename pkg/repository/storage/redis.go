package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eduardlon/torresbarber/pkg/domain/persist"
	"github.com/eduardlon/torresbarber/pkg/utils/errs"
)

// RedisStorage keeps the persisted subset in a single redis string.
type RedisStorage struct {
	cli *redis.Client
	ttl time.Duration
}

// NewRedisStorage accepts a redis:// url. A zero ttl keeps the key forever.
func NewRedisStorage(url, password string, ttl time.Duration) (*RedisStorage, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, errs.New("failed to parse redis url").Wrap(err)
	}
	if password != "" {
		opt.Password = password
	}
	return &RedisStorage{cli: redis.NewClient(opt), ttl: ttl}, nil
}

func (r *RedisStorage) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := r.cli.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persist.ErrNotFound
		}
		return nil, errs.New("failed to get state from redis").Arg("key", key).Wrap(err)
	}
	return data, nil
}

func (r *RedisStorage) Save(ctx context.Context, key string, data []byte) error {
	if err := r.cli.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return errs.New("failed to save state to redis").Arg("key", key).Wrap(err)
	}
	return nil
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	return r.cli.Ping(ctx).Err()
}

func (r *RedisStorage) Close() error {
	return r.cli.Close()
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "poker:rooms"

// redisStore keeps the room list as one JSON string, with the time of the
// last save next to it.
type redisStore struct {
	client redis.Cmdable
	closer func() error
	key    string
}

func newRedisStore(cfg ServiceConfig) *redisStore {
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	s := newRedisStoreWithClient(client, cfg.RedisKey)
	s.closer = client.Close
	return s
}

// newRedisStoreWithClient wraps an existing client; the caller owns it.
func newRedisStoreWithClient(client redis.Cmdable, key string) *redisStore {
	if key == "" {
		key = defaultRedisKey
	}
	return &redisStore{client: client, key: key}
}

func (s *redisStore) savedAtKey() string {
	return s.key + ":saved_at"
}

func (s *redisStore) Load(ctx context.Context) ([]RoomRecord, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis: failed to read %s: %w", s.key, err)
	}

	return decodeRecords(data)
}

func (s *redisStore) Save(ctx context.Context, records []RoomRecord) error {
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key, data, 0)
	pipe.Set(ctx, s.savedAtKey(), time.Now().Unix(), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: failed to save %s: %w", s.key, err)
	}
	return nil
}

func (s *redisStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

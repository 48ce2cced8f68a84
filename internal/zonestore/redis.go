package zonestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/pkg/types"
)

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// RedisStore keeps the polygon document under one redis key.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects and pings the server. A failed ping is returned so
// the caller can fall back or exit.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	if opts.Key == "" {
		opts.Key = "zone:polygon"
	}
	logger.Info("ZoneStore", "connecting to redis at %s (db %d)", opts.Addr, opts.DB)

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return &RedisStore{client: client, key: opts.Key}, nil
}

func (s *RedisStore) Load(ctx context.Context) (types.Polygon, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return decode(data)
}

func (s *RedisStore) Save(ctx context.Context, poly types.Polygon) error {
	data, err := encode(poly)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	logger.Debug("ZoneStore", "saved %d vertices to redis key %s", len(poly), s.key)
	return nil
}

func (s *RedisStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

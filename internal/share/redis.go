package share

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/amaumene/festplan/internal/models"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "share:"

// RedisBackend keeps each share as a JSON value under share:<id>
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend connects to redis and checks the connection
func NewRedisBackend(ctx context.Context, addr, password string, db int) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &RedisBackend{client: client}, nil
}

// NewRedisBackendFromClient wraps an existing client
func NewRedisBackendFromClient(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func shareKey(id string) string {
	return keyPrefix + id
}

// Load reads a share by id
func (b *RedisBackend) Load(ctx context.Context, id string) (*models.SharedSchedule, error) {
	data, err := b.client.Get(ctx, shareKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("share %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var schedule models.SharedSchedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		return nil, fmt.Errorf("failed to decode share %s: %w", id, err)
	}
	return &schedule, nil
}

// Save writes a share without expiry
func (b *RedisBackend) Save(ctx context.Context, schedule *models.SharedSchedule) error {
	data, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("failed to encode share %s: %w", schedule.ID, err)
	}
	return b.client.Set(ctx, shareKey(schedule.ID), data, 0).Err()
}

// Count scans the share keys
func (b *RedisBackend) Count(ctx context.Context) (int, error) {
	n := 0
	iter := b.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, err
	}
	return n, nil
}

// Close closes the client
func (b *RedisBackend) Close() error {
	return b.client.Close()
}

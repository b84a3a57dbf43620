package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisMedium stores each key as a plain Redis string. When channel is set,
// every write is published so RedisWatchers in other processes see it.
type RedisMedium struct {
	client  *redis.Client
	channel string
	origin  string
}

func NewRedisMedium(client *redis.Client, channel, origin string) *RedisMedium {
	return &RedisMedium{client: client, channel: channel, origin: origin}
}

func (m *RedisMedium) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := m.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	} else if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return val, true, nil
}

func (m *RedisMedium) Set(ctx context.Context, key, value string) error {
	if err := m.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return m.publish(ctx, key)
}

func (m *RedisMedium) Delete(ctx context.Context, key string) error {
	if err := m.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return m.publish(ctx, key)
}

func (m *RedisMedium) publish(ctx context.Context, key string) error {
	if m.channel == "" {
		return nil
	}
	if err := m.client.Publish(ctx, m.channel, encodeChange(m.origin, key)).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

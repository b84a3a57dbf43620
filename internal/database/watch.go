package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/lib/pq"
)

// RedisWatcher reports keys written by other processes through Redis pub/sub.
type RedisWatcher struct {
	client  *redis.Client
	channel string
	origin  string
}

func NewRedisWatcher(client *redis.Client, channel, origin string) *RedisWatcher {
	return &RedisWatcher{client: client, channel: channel, origin: origin}
}

// Watch blocks until ctx is done, calling emit for every foreign write.
func (w *RedisWatcher) Watch(ctx context.Context, emit func(key string)) error {
	sub := w.client.Subscribe(ctx, w.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", w.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if key, ok := foreignKey(msg.Payload, w.origin); ok {
				emit(key)
			}
		}
	}
}

// PostgresWatcher reports keys written by other processes through
// LISTEN/NOTIFY on the channel DB.Channel notifies.
type PostgresWatcher struct {
	connStr string
	channel string
	origin  string
}

func NewPostgresWatcher(connStr, channel, origin string) *PostgresWatcher {
	return &PostgresWatcher{connStr: connStr, channel: channel, origin: origin}
}

func (w *PostgresWatcher) Watch(ctx context.Context, emit func(key string)) error {
	listener := pq.NewListener(w.connStr, 10*time.Second, time.Minute, nil)
	defer listener.Close()

	if err := listener.Listen(w.channel); err != nil {
		return fmt.Errorf("listen %s: %w", w.channel, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-listener.Notify:
			// nil after a reconnect; notifications sent meanwhile are lost
			if n == nil {
				continue
			}
			if key, ok := foreignKey(n.Extra, w.origin); ok {
				emit(key)
			}
		case <-time.After(90 * time.Second):
			go listener.Ping()
		}
	}
}

func foreignKey(payload, self string) (string, bool) {
	origin, key, ok := decodeChange(payload)
	if !ok || origin == self {
		return "", false
	}
	return key, true
}

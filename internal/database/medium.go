package database

import (
	"context"
	"strings"
)

// Medium is a durable key-value store holding one whole JSON document per
// key. Writes replace the entire value.
type Medium interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Change payloads travel as "<origin>|<key>" so a process can ignore the
// notifications caused by its own writes.
func encodeChange(origin, key string) string {
	return origin + "|" + key
}

func decodeChange(payload string) (origin, key string, ok bool) {
	origin, key, ok = strings.Cut(payload, "|")
	if !ok || key == "" {
		return "", "", false
	}
	return origin, key, true
}

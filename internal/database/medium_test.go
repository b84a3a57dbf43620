package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryMedium(t *testing.T) {
	m := NewMemoryMedium()
	ctx := context.Background()

	_, ok, err := m.Get(ctx, "cq_users")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, m.Set(ctx, "cq_users", "[]"))
	val, ok, err := m.Get(ctx, "cq_users")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", val)

	assert.NoError(t, m.Delete(ctx, "cq_users"))
	_, ok, _ = m.Get(ctx, "cq_users")
	assert.False(t, ok)
}

func TestForeignKey(t *testing.T) {
	key, ok := foreignKey("proc-2|cq_results", "proc-1")
	assert.True(t, ok)
	assert.Equal(t, "cq_results", key)

	_, ok = foreignKey("proc-1|cq_results", "proc-1")
	assert.False(t, ok, "own writes are dropped")

	_, ok = foreignKey("garbage", "proc-1")
	assert.False(t, ok)

	_, ok = foreignKey("proc-2|", "proc-1")
	assert.False(t, ok)
}

package database

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
)

func TestRedisMediumGet(t *testing.T) {
	client, mock := redismock.NewClientMock()
	m := NewRedisMedium(client, "", "proc-1")

	mock.ExpectGet("cq_subjects").SetVal(`[{"id":"html"}]`)

	val, ok, err := m.Get(context.Background(), "cq_subjects")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"html"}]`, val)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisMediumGetMissing(t *testing.T) {
	client, mock := redismock.NewClientMock()
	m := NewRedisMedium(client, "", "proc-1")

	mock.ExpectGet("cq_results").RedisNil()

	val, ok, err := m.Get(context.Background(), "cq_results")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, val)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisMediumGetError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	m := NewRedisMedium(client, "", "proc-1")

	mock.ExpectGet("cq_users").SetErr(errors.New("READONLY"))

	_, ok, err := m.Get(context.Background(), "cq_users")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisMediumSetPublishes(t *testing.T) {
	client, mock := redismock.NewClientMock()
	m := NewRedisMedium(client, "cq_changes", "proc-1")

	mock.ExpectSet("cq_users", "[]", 0).SetVal("OK")
	mock.ExpectPublish("cq_changes", "proc-1|cq_users").SetVal(1)

	assert.NoError(t, m.Set(context.Background(), "cq_users", "[]"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisMediumSetWithoutChannel(t *testing.T) {
	client, mock := redismock.NewClientMock()
	m := NewRedisMedium(client, "", "proc-1")

	mock.ExpectSet("cq_initialized", "true", 0).SetVal("OK")

	assert.NoError(t, m.Set(context.Background(), "cq_initialized", "true"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisMediumDelete(t *testing.T) {
	client, mock := redismock.NewClientMock()
	m := NewRedisMedium(client, "cq_changes", "proc-1")

	mock.ExpectDel("cq_questions").SetVal(1)
	mock.ExpectPublish("cq_changes", "proc-1|cq_questions").SetVal(0)

	assert.NoError(t, m.Delete(context.Background(), "cq_questions"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

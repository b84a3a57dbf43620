package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codequiz/internal/models"
)

func TestRestore_RoundTrip(t *testing.T) {
	src := seeded(t)
	ctx := context.Background()
	alice, _, _ := src.store.CreateUser(ctx, "alice", "a")
	require.NoError(t, src.store.AddResult(ctx, src.store.NewResult(alice, "css", models.Hard, 4, 5, 0)))

	before, err := src.store.Snapshot(ctx)
	require.NoError(t, err)
	raw, err := json.Marshal(models.Backup{AppName: models.AppName, LastUpdated: testNow, Data: before})
	require.NoError(t, err)

	dst := seeded(t)
	_, _, _ = dst.store.CreateUser(ctx, "someone-else", "x")
	require.NoError(t, dst.store.RestoreBackup(ctx, raw))

	after, err := dst.store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRestoreBackup_Invalid(t *testing.T) {
	env := seeded(t)
	ctx := context.Background()

	for _, raw := range []string{`nope`, `{"appName":"CodeQuiz"}`, `{"users":[],"settings":{"questionsPerQuiz":0,"timePerQuiz":1}}`} {
		err := env.store.RestoreBackup(ctx, []byte(raw))
		assert.ErrorIs(t, err, ErrInvalidSnapshot, raw)
	}
	users, _ := env.store.GetUsers(ctx)
	assert.Len(t, users, 1)
	assert.Zero(t, *env.changes)
}

func TestHydrate_OnlyPresentFields(t *testing.T) {
	env := seeded(t)
	ctx := context.Background()

	incoming := []models.User{{ID: "u9", Username: "zed", CreatedAt: testNow}}
	require.NoError(t, env.store.Hydrate(ctx, models.SyncPatch{Users: incoming}))
	assert.Equal(t, 1, *env.changes)

	users, _ := env.store.GetUsers(ctx)
	assert.Equal(t, incoming, users)
	settings, _ := env.store.GetSettings(ctx)
	assert.Equal(t, DefaultSettings(), settings)
	qs, _ := env.store.GetQuestions(ctx)
	assert.Len(t, qs, 105)

	require.NoError(t, env.store.Hydrate(ctx, models.SyncPatch{Settings: &models.QuizSettings{QuestionsPerQuiz: 2, TimePerQuiz: 2}}))
	users, _ = env.store.GetUsers(ctx)
	assert.Equal(t, incoming, users)
	settings, _ = env.store.GetSettings(ctx)
	assert.Equal(t, 2, settings.QuestionsPerQuiz)
}

func TestSyncData(t *testing.T) {
	env := seeded(t)
	doc, err := env.store.SyncData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.AppName, doc.AppName)
	assert.Equal(t, testNow, doc.LastUpdated)
	assert.Len(t, doc.Users, 1)
	assert.NotNil(t, doc.Results)
}

func TestClear_ThenBootstrapRecoversFromSnapshot(t *testing.T) {
	env := seeded(t)
	ctx := context.Background()
	_, _, err := env.store.CreateUser(ctx, "alice", "a")
	require.NoError(t, err)
	before, err := env.store.Snapshot(ctx)
	require.NoError(t, err)

	require.NoError(t, env.store.Clear(ctx))
	_, ok, _ := env.medium.Get(ctx, "cq_initialized")
	assert.False(t, ok)
	users, _ := env.store.GetUsers(ctx)
	assert.Empty(t, users)

	src := &stubSource{payload: &Payload{
		Users:     before.Users,
		Questions: before.Questions,
		Results:   before.Results,
		Settings:  &before.Settings,
		Subjects:  before.Subjects,
	}}
	res, err := env.store.Bootstrap(ctx, src, time.Second)
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, res.Source)

	after, _ := env.store.Snapshot(ctx)
	assert.Equal(t, before, after)
}

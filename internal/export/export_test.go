package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codequiz/internal/database"
	"codequiz/internal/events"
	"codequiz/internal/logger"
	"codequiz/internal/models"
	"codequiz/internal/services"
)

var now = time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

func newStore() *services.Store {
	bus := events.NewBus("cq_", logger.Discard())
	return services.NewStore(database.NewMemoryMedium(), bus, "cq_", logger.Discard(),
		services.WithClock(func() time.Time { return now }))
}

func sampleStats() []models.UserStats {
	admin := models.User{ID: "admin-1", Username: "admin", Password: "admin123", IsAdmin: true, CreatedAt: now}
	quoted := models.User{ID: "u2", Username: "قاسم", Password: `a,b"c`, CreatedAt: now.Add(time.Hour)}
	guest := models.User{ID: "g1", Username: "Guest_AB12", IsGuest: true, CreatedAt: now}
	results := []models.QuizResult{
		{ID: "r1", UserID: "u2", Subject: "css", Difficulty: models.Hard, Score: 3, Total: 4, Percentage: 75, Date: now.Add(2 * time.Hour), TimeTaken: 42},
	}
	return services.ComputeUserStats([]models.User{admin, quoted, guest}, results)
}

func TestUsersCSV(t *testing.T) {
	out, err := UsersCSV(sampleStats())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("\xef\xbb\xbf")), "BOM prefix")

	text := string(out)
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "\ufeffUsername,Password,Role,Type,Registered,Total Quizzes,Avg Score %,Best Score %,Total Correct,Total Questions,Last Active", lines[0])
	assert.Equal(t, "admin,admin123,Admin,Registered,2025-06-01 12:30:00,0,0,0,0,0,N/A", lines[1])
	assert.Equal(t, `قاسم,"a,b""c",User,Registered,2025-06-01 13:30:00,1,75,75,3,4,2025-06-01 14:30:00`, lines[2])
	assert.Equal(t, "Guest_AB12,(none),User,Guest,2025-06-01 12:30:00,0,0,0,0,0,N/A", lines[3])
}

func TestUsersCSV_ParsesBack(t *testing.T) {
	out, err := UsersCSV(sampleStats())
	require.NoError(t, err)

	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(out, []byte("\ufeff"))))
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, `a,b"c`, records[2][1])
	for _, rec := range records {
		assert.Len(t, rec, 11)
	}
}

func TestResultsCSV(t *testing.T) {
	users := []models.User{{ID: "u1", Username: "alice"}}
	results := []models.QuizResult{
		{UserID: "u1", Username: "stale", Subject: "html", Difficulty: models.Easy, Score: 9, Total: 10, Percentage: 90, TimeTaken: 61, Date: now},
		{UserID: "gone", Username: "bob", Subject: "css", Difficulty: models.Medium, Score: 1, Total: 2, Percentage: 50, TimeTaken: 5, Date: now},
		{UserID: "gone", Subject: "python", Difficulty: models.Hard, Total: 3, Date: now},
	}

	out, err := ResultsCSV(results, users)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(strings.TrimPrefix(string(out), "\ufeff"), "\n"), "\n")
	assert.Equal(t, []string{
		"Username,Subject,Difficulty,Score,Total,Percentage,Time (seconds),Date",
		"alice,html,easy,9,10,90%,61,2025-06-01 12:30:00",
		"bob,css,medium,1,2,50%,5,2025-06-01 12:30:00",
		"Unknown,python,hard,0,3,0%,0,2025-06-01 12:30:00",
	}, lines)
}

func TestUsersReport(t *testing.T) {
	out, err := UsersReport(sampleStats())
	require.NoError(t, err)
	assert.NotContains(t, string(out), `"admin-1"`, "user ids are not exported")
	assert.Contains(t, string(out), "\n  {\n    \"username\": \"admin\"")

	var reports []UserReport
	require.NoError(t, json.Unmarshal(out, &reports))
	require.Len(t, reports, 3)
	assert.Equal(t, "Admin", reports[0].Role)
	assert.Equal(t, "Guest", reports[2].Type)
	assert.Equal(t, "(none)", reports[2].Password)
	require.Len(t, reports[1].Results, 1)
	assert.Equal(t, 42, reports[1].Results[0].TimeTaken)
	assert.Equal(t, 75, reports[1].Stats.BestScore)
	assert.NotNil(t, reports[0].Results)
}

func TestFullBackup_RestoresIntoFreshStore(t *testing.T) {
	ctx := context.Background()
	src := newStore()
	_, err := src.Bootstrap(ctx, nil, time.Second)
	require.NoError(t, err)
	alice, _, err := src.CreateUser(ctx, "alice", `p,w"d`)
	require.NoError(t, err)
	require.NoError(t, src.AddResult(ctx, src.NewResult(alice, "javascript", models.Medium, 6, 8, 3*time.Minute)))

	before, err := src.Snapshot(ctx)
	require.NoError(t, err)
	out, err := FullBackup(before, now)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "{\n  \"appName\": \"CodeQuiz\",\n  \"lastUpdated\": \"2025-06-01T12:30:00Z\","))
	assert.NotContains(t, string(out), "description")

	dst := newStore()
	require.NoError(t, dst.RestoreBackup(ctx, out))
	after, err := dst.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestLiveSnapshot_BootstrapsFreshStore(t *testing.T) {
	ctx := context.Background()
	src := newStore()
	_, err := src.Bootstrap(ctx, nil, time.Second)
	require.NoError(t, err)
	_, _, err = src.CreateUser(ctx, "alice", "a")
	require.NoError(t, err)
	data, err := src.Snapshot(ctx)
	require.NoError(t, err)

	out, err := LiveSnapshot(data, now)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"description": "`+LiveDescription+`"`)

	path := filepath.Join(t.TempDir(), LiveFileName)
	require.NoError(t, os.WriteFile(path, out, 0o644))

	dst := newStore()
	res, err := dst.Bootstrap(ctx, services.FileSource{Path: path}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, services.SourceRemote, res.Source)
	assert.Equal(t, 2, res.Users)

	_, ok, err := dst.FindUser(ctx, "alice", "a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSyncDocument(t *testing.T) {
	out, err := SyncDocument(models.SyncFile{AppName: models.AppName, LastUpdated: now, Users: []models.User{}, Results: []models.QuizResult{}, Settings: models.QuizSettings{QuestionsPerQuiz: 10, TimePerQuiz: 10}})
	require.NoError(t, err)
	assert.NotContains(t, string(out), `"questions"`)
	assert.NotContains(t, string(out), `"subjects"`)
	assert.Contains(t, string(out), `"users": []`)
}

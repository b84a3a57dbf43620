package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codequiz/internal/models"
)

func TestPlanQuiz_SubjectConfigWins(t *testing.T) {
	env := seeded(t)
	ctx := context.Background()
	require.NoError(t, env.store.SaveSettings(ctx, models.QuizSettings{QuestionsPerQuiz: 20, TimePerQuiz: 30}))

	n, m := 5, 7
	_, err := env.store.UpdateSubject(ctx, "css", SubjectPatch{QuestionsPerQuiz: &n, TimePerQuiz: &m})
	require.NoError(t, err)

	plan, err := env.store.PlanQuiz(ctx, "css", models.Easy, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, plan.QuestionCount)
	assert.Equal(t, 7*time.Minute, plan.TimeLimit)

	plan, err = env.store.PlanQuiz(ctx, models.CombinedSubject, models.Easy, nil)
	require.NoError(t, err)
	assert.Equal(t, 20, plan.QuestionCount, "unknown subjects use the global settings")
	assert.Equal(t, 30*time.Minute, plan.TimeLimit)
}

func TestPlanQuiz_CustomAveragesSelection(t *testing.T) {
	env := seeded(t)
	ctx := context.Background()

	n, m := 5, 5
	_, err := env.store.UpdateSubject(ctx, "css", SubjectPatch{QuestionsPerQuiz: &n, TimePerQuiz: &m})
	require.NoError(t, err)

	plan, err := env.store.PlanQuiz(ctx, CustomSubject, models.Easy, []string{"html", "css", "nope"})
	require.NoError(t, err)
	assert.Equal(t, 8, plan.QuestionCount, "mean of 10 and 5 rounds half up")
	assert.Equal(t, 8*time.Minute, plan.TimeLimit)
	assert.Equal(t, []string{"html", "css", "nope"}, plan.SelectedSubjects)
}

func TestStartQuiz(t *testing.T) {
	env := seeded(t)
	ctx := context.Background()

	plan, qs, err := env.store.StartQuiz(ctx, "python", models.Medium, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, plan.QuestionCount)
	assert.NotEmpty(t, qs)
	assert.LessOrEqual(t, len(qs), 10)
	for _, q := range qs {
		assert.Equal(t, "python", q.Subject)
		assert.Equal(t, models.Medium, q.Difficulty)
	}

	_, qs, err = env.store.StartQuiz(ctx, CustomSubject, models.Hard, []string{"html", "csharp"})
	require.NoError(t, err)
	for _, q := range qs {
		assert.Contains(t, []string{"html", "csharp"}, q.Subject)
	}

	_, _, err = env.store.StartQuiz(ctx, "cobol", models.Easy, nil)
	assert.ErrorIs(t, err, ErrNoQuestions)
}

func TestComputeUserStats(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	users := []models.User{
		{ID: "u1", Username: "alice", CreatedAt: t0},
		{ID: "u2", Username: "bob", CreatedAt: t0.Add(time.Hour)},
	}
	results := []models.QuizResult{
		{ID: "r1", UserID: "u1", Score: 1, Total: 3, Percentage: 33, Date: t0.Add(2 * time.Hour)},
		{ID: "r2", UserID: "u1", Score: 3, Total: 3, Percentage: 100, Date: t0.Add(4 * time.Hour)},
		{ID: "r3", UserID: "u1", Score: 2, Total: 3, Percentage: 67, Date: t0.Add(3 * time.Hour)},
		{ID: "r4", UserID: "ghost", Score: 1, Total: 1, Percentage: 100, Date: t0},
	}

	stats := ComputeUserStats(users, results)
	require.Len(t, stats, 2)

	alice := stats[0]
	assert.Equal(t, "alice", alice.User.Username)
	assert.Equal(t, 3, alice.TotalQuizzes)
	assert.Equal(t, 67, alice.AvgScore)
	assert.Equal(t, 100, alice.BestScore)
	assert.Equal(t, 6, alice.TotalCorrect)
	assert.Equal(t, 9, alice.TotalQuestions)
	assert.Equal(t, t0.Add(4*time.Hour), alice.LastActive)
	assert.Equal(t, []string{"r2", "r3", "r1"}, []string{alice.Results[0].ID, alice.Results[1].ID, alice.Results[2].ID})

	bob := stats[1]
	assert.Zero(t, bob.TotalQuizzes)
	assert.Zero(t, bob.AvgScore)
	assert.Equal(t, t0.Add(time.Hour), bob.LastActive)
	assert.NotNil(t, bob.Results)
}

func TestGetAllUserStats(t *testing.T) {
	env := seeded(t)
	ctx := context.Background()
	alice, _, _ := env.store.CreateUser(ctx, "alice", "a")
	require.NoError(t, env.store.AddResult(ctx, env.store.NewResult(alice, "html", models.Easy, 7, 10, 95*time.Second)))

	stats, err := env.store.GetAllUserStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, 70, stats[1].AvgScore)
	assert.Equal(t, 95, stats[1].Results[0].TimeTaken)
	assert.Equal(t, "alice", stats[1].Results[0].Username)

	mine, err := env.store.GetUserResults(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	none, _ := env.store.GetUserResults(ctx, AdminID)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestNewResult_ZeroTotal(t *testing.T) {
	env := newTestEnv(t)
	r := env.store.NewResult(models.User{ID: "u1"}, "css", models.Easy, 0, 0, 0)
	assert.Zero(t, r.Percentage)
	assert.Equal(t, testNow, r.Date)
}

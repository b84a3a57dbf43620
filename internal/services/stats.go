package services

import (
	"sort"

	"codequiz/internal/models"
)

// ComputeUserStats aggregates results per user, in user order. Each user's
// results come back newest first; LastActive falls back to the registration
// time for users without results.
func ComputeUserStats(users []models.User, results []models.QuizResult) []models.UserStats {
	byUser := make(map[string][]models.QuizResult, len(users))
	for _, r := range results {
		byUser[r.UserID] = append(byUser[r.UserID], r)
	}

	stats := make([]models.UserStats, 0, len(users))
	for _, u := range users {
		rs := byUser[u.ID]
		if rs == nil {
			rs = []models.QuizResult{}
		}
		st := models.UserStats{
			User:         u,
			TotalQuizzes: len(rs),
			LastActive:   u.CreatedAt,
			Results:      rs,
		}
		if len(rs) > 0 {
			sort.SliceStable(rs, func(i, j int) bool { return rs[i].Date.After(rs[j].Date) })
			sum := 0
			for _, r := range rs {
				sum += r.Percentage
				st.BestScore = max(st.BestScore, r.Percentage)
				st.TotalCorrect += r.Score
				st.TotalQuestions += r.Total
			}
			st.AvgScore = models.Round(float64(sum) / float64(len(rs)))
			st.LastActive = rs[0].Date
		}
		stats = append(stats, st)
	}
	return stats
}

package export

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"codequiz/internal/models"
)

// bom lets spreadsheet tools detect UTF-8 in non-ASCII usernames.
const bom = "\ufeff"

// DateLayout is how timestamps appear in CSV cells, always in UTC.
const DateLayout = "2006-01-02 15:04:05"

var (
	usersHeader   = []string{"Username", "Password", "Role", "Type", "Registered", "Total Quizzes", "Avg Score %", "Best Score %", "Total Correct", "Total Questions", "Last Active"}
	resultsHeader = []string{"Username", "Subject", "Difficulty", "Score", "Total", "Percentage", "Time (seconds)", "Date"}
)

func UsersCSV(stats []models.UserStats) ([]byte, error) {
	rows := make([][]string, 0, len(stats)+1)
	rows = append(rows, usersHeader)
	for _, s := range stats {
		lastActive := "N/A"
		if s.TotalQuizzes > 0 {
			lastActive = formatDate(s.LastActive)
		}
		rows = append(rows, []string{
			s.User.Username,
			passwordLabel(s.User),
			roleLabel(s.User),
			typeLabel(s.User),
			formatDate(s.User.CreatedAt),
			strconv.Itoa(s.TotalQuizzes),
			strconv.Itoa(s.AvgScore),
			strconv.Itoa(s.BestScore),
			strconv.Itoa(s.TotalCorrect),
			strconv.Itoa(s.TotalQuestions),
			lastActive,
		})
	}
	return writeCSV(rows)
}

// ResultsCSV lists every result. The username comes from the current user
// list, then from the name stamped on the result, then "Unknown".
func ResultsCSV(results []models.QuizResult, users []models.User) ([]byte, error) {
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}

	rows := make([][]string, 0, len(results)+1)
	rows = append(rows, resultsHeader)
	for _, r := range results {
		name := names[r.UserID]
		if name == "" {
			name = r.Username
		}
		if name == "" {
			name = "Unknown"
		}
		rows = append(rows, []string{
			name,
			r.Subject,
			string(r.Difficulty),
			strconv.Itoa(r.Score),
			strconv.Itoa(r.Total),
			strconv.Itoa(r.Percentage) + "%",
			strconv.Itoa(r.TimeTaken),
			formatDate(r.Date),
		})
	}
	return writeCSV(rows)
}

func writeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(bom)
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

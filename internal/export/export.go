// Package export renders store state into the downloadable formats. Every
// function is pure: callers pass the data in and write the bytes out.
package export

import (
	"encoding/json"
	"time"

	"codequiz/internal/models"
)

// LiveDescription marks a snapshot meant to be served as the bootstrap
// fallback file.
const LiveDescription = "Live fallback data: place this file as live.json next to index.html"

const (
	BackupFileName  = "codequiz-full-backup.json"
	LiveFileName    = "live.json"
	UsersJSONName   = "codequiz-users-data.json"
	UsersCSVName    = "codequiz-users.csv"
	ResultsCSVName  = "codequiz-results.csv"
	SyncFileName    = "codequiz-data.json"
	JSONContentType = "application/json; charset=utf-8"
	CSVContentType  = "text/csv; charset=utf-8"
)

// FullBackup renders every collection, pretty-printed. The output restores
// through Store.RestoreBackup.
func FullBackup(data models.Data, now time.Time) ([]byte, error) {
	return indent(models.Backup{
		AppName:     models.AppName,
		LastUpdated: now.UTC(),
		Data:        data,
	})
}

// LiveSnapshot is FullBackup plus a description; it is the document
// bootstrap fetches as its fallback.
func LiveSnapshot(data models.Data, now time.Time) ([]byte, error) {
	return indent(models.Backup{
		AppName:     models.AppName,
		Description: LiveDescription,
		LastUpdated: now.UTC(),
		Data:        data,
	})
}

// SyncDocument renders the file written by the file-sync adapter.
func SyncDocument(doc models.SyncFile) ([]byte, error) {
	return indent(doc)
}

type UserReport struct {
	Username   string         `json:"username"`
	Password   string         `json:"password"`
	Role       string         `json:"role"`
	Type       string         `json:"type"`
	Registered time.Time      `json:"registered"`
	Stats      ReportStats    `json:"stats"`
	Results    []ReportResult `json:"results"`
}

type ReportStats struct {
	TotalQuizzes   int       `json:"totalQuizzes"`
	AvgScore       int       `json:"avgScore"`
	BestScore      int       `json:"bestScore"`
	TotalCorrect   int       `json:"totalCorrect"`
	TotalQuestions int       `json:"totalQuestions"`
	LastActive     time.Time `json:"lastActive"`
}

type ReportResult struct {
	Subject    string            `json:"subject"`
	Difficulty models.Difficulty `json:"difficulty"`
	Score      int               `json:"score"`
	Total      int               `json:"total"`
	Percentage int               `json:"percentage"`
	TimeTaken  int               `json:"timeTaken"`
	Date       time.Time         `json:"date"`
}

// Report projects user stats for humans; user ids are left out.
func Report(stats []models.UserStats) []UserReport {
	out := make([]UserReport, 0, len(stats))
	for _, s := range stats {
		r := UserReport{
			Username:   s.User.Username,
			Password:   passwordLabel(s.User),
			Role:       roleLabel(s.User),
			Type:       typeLabel(s.User),
			Registered: s.User.CreatedAt,
			Stats: ReportStats{
				TotalQuizzes:   s.TotalQuizzes,
				AvgScore:       s.AvgScore,
				BestScore:      s.BestScore,
				TotalCorrect:   s.TotalCorrect,
				TotalQuestions: s.TotalQuestions,
				LastActive:     s.LastActive,
			},
			Results: make([]ReportResult, 0, len(s.Results)),
		}
		for _, res := range s.Results {
			r.Results = append(r.Results, ReportResult{
				Subject:    res.Subject,
				Difficulty: res.Difficulty,
				Score:      res.Score,
				Total:      res.Total,
				Percentage: res.Percentage,
				TimeTaken:  res.TimeTaken,
				Date:       res.Date,
			})
		}
		out = append(out, r)
	}
	return out
}

// UsersReport renders Report as pretty-printed JSON.
func UsersReport(stats []models.UserStats) ([]byte, error) {
	return indent(Report(stats))
}

func indent(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func passwordLabel(u models.User) string {
	if u.Password == "" {
		return "(none)"
	}
	return u.Password
}

func roleLabel(u models.User) string {
	if u.IsAdmin {
		return "Admin"
	}
	return "User"
}

func typeLabel(u models.User) string {
	if u.IsGuest {
		return "Guest"
	}
	return "Registered"
}

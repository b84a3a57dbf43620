package models

import (
	"encoding/json"
	"math"
	"time"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// CombinedSubject selects questions from every subject.
const CombinedSubject = "combined"

// AppName is stamped into every exported snapshot.
const AppName = "CodeQuiz"

type User struct {
	ID        string    `json:"id" validate:"required"`
	Username  string    `json:"username" validate:"required"`
	Password  string    `json:"password"`
	IsAdmin   bool      `json:"isAdmin"`
	IsGuest   bool      `json:"isGuest,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Question struct {
	ID            string     `json:"id" validate:"required"`
	Subject       string     `json:"subject" validate:"required"`
	Difficulty    Difficulty `json:"difficulty" validate:"oneof=easy medium hard"`
	Question      string     `json:"question"`
	Options       []string   `json:"options" validate:"min=1"`
	CorrectAnswer int        `json:"correctAnswer"`
}

type SubjectConfig struct {
	ID               string `json:"id" validate:"required"`
	Name             string `json:"name" validate:"required"`
	Icon             string `json:"icon"`
	Gradient         string `json:"gradient"`
	Description      string `json:"description"`
	QuestionsPerQuiz int    `json:"questionsPerQuiz" validate:"gte=1"`
	TimePerQuiz      int    `json:"timePerQuiz" validate:"gte=1"`
}

type QuizResult struct {
	ID         string     `json:"id" validate:"required"`
	UserID     string     `json:"userId" validate:"required"`
	Username   string     `json:"username,omitempty"`
	Subject    string     `json:"subject"`
	Difficulty Difficulty `json:"difficulty"`
	Score      int        `json:"score" validate:"gte=0"`
	Total      int        `json:"total" validate:"gte=0"`
	Percentage int        `json:"percentage"`
	Date       time.Time  `json:"date"`
	TimeTaken  int        `json:"timeTaken"`
}

// Results written by older builds may lack a percentage; derive it so
// statistics stay meaningful.
func (r *QuizResult) UnmarshalJSON(data []byte) error {
	type Alias QuizResult
	aux := &struct {
		Percentage *int `json:"percentage"`
		*Alias
	}{
		Alias: (*Alias)(r),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Percentage != nil {
		r.Percentage = *aux.Percentage
	} else {
		r.Percentage = Percentage(r.Score, r.Total)
	}
	return nil
}

type QuizSettings struct {
	QuestionsPerQuiz int `json:"questionsPerQuiz" validate:"gte=1"`
	TimePerQuiz      int `json:"timePerQuiz" validate:"gte=1"`
}

type UserStats struct {
	User           User         `json:"user"`
	TotalQuizzes   int          `json:"totalQuizzes"`
	AvgScore       int          `json:"avgScore"`
	BestScore      int          `json:"bestScore"`
	TotalCorrect   int          `json:"totalCorrect"`
	TotalQuestions int          `json:"totalQuestions"`
	LastActive     time.Time    `json:"lastActive"`
	Results        []QuizResult `json:"results"`
}

// Data is the full state owned by the store.
type Data struct {
	Users     []User          `json:"users"`
	Questions []Question      `json:"questions"`
	Results   []QuizResult    `json:"results"`
	Settings  QuizSettings    `json:"settings"`
	Subjects  []SubjectConfig `json:"subjects"`
}

// Backup is the full backup and live fallback file format.
type Backup struct {
	AppName     string    `json:"appName"`
	Description string    `json:"description,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`
	Data
}

// SyncFile is what the file-sync adapter writes. Questions and subjects are
// not part of it.
type SyncFile struct {
	AppName     string       `json:"appName"`
	LastUpdated time.Time    `json:"lastUpdated"`
	Users       []User       `json:"users"`
	Results     []QuizResult `json:"results"`
	Settings    QuizSettings `json:"settings"`
}

// Round matches half-up rounding of non-negative scores.
func Round(v float64) int {
	return int(math.Floor(v + 0.5))
}

func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return Round(float64(score) / float64(total) * 100)
}

// SyncPatch is a partially present sync file. Nil fields were absent and
// must be left untouched.
type SyncPatch struct {
	Users    []User        `json:"users"`
	Results  []QuizResult  `json:"results"`
	Settings *QuizSettings `json:"settings"`
}

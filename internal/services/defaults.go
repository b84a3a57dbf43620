package services

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"codequiz/internal/models"
)

// AdminID is the id of the account seeded by a default bootstrap.
const AdminID = "admin-1"

//go:embed data/questions.json
var questionBankJSON []byte

var questionBank = sync.OnceValues(func() ([]models.Question, error) {
	var qs []models.Question
	if err := json.Unmarshal(questionBankJSON, &qs); err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}
	return qs, nil
})

// QuestionBank returns a fresh copy of the built-in questions.
func QuestionBank() []models.Question {
	qs, err := questionBank()
	if err != nil {
		// the bank is compiled in; failing to decode it is a build defect
		panic(err)
	}
	out := make([]models.Question, len(qs))
	for i, q := range qs {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}

func DefaultSubjects() []models.SubjectConfig {
	return []models.SubjectConfig{
		{ID: "html", Name: "HTML", Icon: "🌐", Gradient: "from-orange-500 to-red-500", Description: "Markup & Structure", QuestionsPerQuiz: 10, TimePerQuiz: 10},
		{ID: "css", Name: "CSS", Icon: "🎨", Gradient: "from-blue-500 to-cyan-500", Description: "Styling & Layout", QuestionsPerQuiz: 10, TimePerQuiz: 10},
		{ID: "javascript", Name: "JavaScript", Icon: "⚡", Gradient: "from-yellow-500 to-amber-500", Description: "Logic & Interactivity", QuestionsPerQuiz: 10, TimePerQuiz: 10},
		{ID: "python", Name: "Python", Icon: "🐍", Gradient: "from-green-500 to-emerald-500", Description: "General Purpose", QuestionsPerQuiz: 10, TimePerQuiz: 10},
		{ID: "csharp", Name: "C#", Icon: "💎", Gradient: "from-purple-500 to-violet-500", Description: "Object-Oriented", QuestionsPerQuiz: 10, TimePerQuiz: 10},
	}
}

func DefaultSettings() models.QuizSettings {
	return models.QuizSettings{QuestionsPerQuiz: 10, TimePerQuiz: 10}
}

func DefaultAdmin(now time.Time) models.User {
	return models.User{
		ID:        AdminID,
		Username:  "admin",
		Password:  "admin123",
		IsAdmin:   true,
		CreatedAt: now.UTC(),
	}
}

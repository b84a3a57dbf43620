package services

import (
	"context"
	"time"

	"codequiz/internal/models"
)

// CustomSubject marks a quiz drawn from a hand-picked set of subjects.
const CustomSubject = "custom"

// QuizPlan is the sizing and timing of a quiz about to start.
type QuizPlan struct {
	Subject          string            `json:"subject"`
	Difficulty       models.Difficulty `json:"difficulty"`
	SelectedSubjects []string          `json:"selectedSubjects,omitempty"`
	QuestionCount    int               `json:"questionCount"`
	TimeLimit        time.Duration     `json:"timeLimit"`
}

// PlanQuiz resolves question count and time limit. A subject's own config
// wins over the global settings; a custom quiz uses the rounded mean of its
// selected subjects.
func (s *Store) PlanQuiz(ctx context.Context, subject string, difficulty models.Difficulty, selected []string) (QuizPlan, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return QuizPlan{}, err
	}
	plan := QuizPlan{
		Subject:       subject,
		Difficulty:    difficulty,
		QuestionCount: settings.QuestionsPerQuiz,
		TimeLimit:     time.Duration(settings.TimePerQuiz) * time.Minute,
	}

	if subject == CustomSubject && len(selected) > 0 {
		plan.SelectedSubjects = selected
		count, minutes, n := 0, 0, 0
		for _, id := range selected {
			cfg, ok, err := s.GetSubjectConfig(ctx, id)
			if err != nil {
				return QuizPlan{}, err
			}
			if !ok {
				continue
			}
			count += cfg.QuestionsPerQuiz
			minutes += cfg.TimePerQuiz
			n++
		}
		if n > 0 {
			plan.QuestionCount = models.Round(float64(count) / float64(n))
			plan.TimeLimit = time.Duration(models.Round(float64(minutes)/float64(n))) * time.Minute
		}
		return plan, nil
	}

	cfg, ok, err := s.GetSubjectConfig(ctx, subject)
	if err != nil {
		return QuizPlan{}, err
	}
	if ok {
		plan.QuestionCount = cfg.QuestionsPerQuiz
		plan.TimeLimit = time.Duration(cfg.TimePerQuiz) * time.Minute
	}
	return plan, nil
}

// StartQuiz plans a quiz and draws its questions. It returns ErrNoQuestions
// when nothing matches, since an empty quiz must not start.
func (s *Store) StartQuiz(ctx context.Context, subject string, difficulty models.Difficulty, selected []string) (QuizPlan, []models.Question, error) {
	plan, err := s.PlanQuiz(ctx, subject, difficulty, selected)
	if err != nil {
		return QuizPlan{}, nil, err
	}
	var qs []models.Question
	if plan.SelectedSubjects != nil {
		qs, err = s.GetCustomQuizQuestions(ctx, plan.SelectedSubjects, difficulty, plan.QuestionCount)
	} else {
		qs, err = s.GetQuizQuestions(ctx, subject, difficulty, plan.QuestionCount)
	}
	if err != nil {
		return QuizPlan{}, nil, err
	}
	if len(qs) == 0 {
		return plan, nil, ErrNoQuestions
	}
	return plan, qs, nil
}

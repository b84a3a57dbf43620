package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"codequiz/internal/models"
	"codequiz/internal/shuffle"
)

func (s *Store) GetQuestions(ctx context.Context) ([]models.Question, error) {
	qs, err := load(ctx, s, s.keys.Questions, emptyOf[models.Question])
	return nonNil(qs), err
}

func (s *Store) SaveQuestions(ctx context.Context, questions []models.Question) error {
	return s.mutate(func() error {
		return s.put(ctx, s.keys.Questions, "questions", nonNil(questions))
	})
}

// AddQuestion stores q with its options shuffled; CorrectAnswer follows the
// correct option to its new position.
func (s *Store) AddQuestion(ctx context.Context, q models.Question) (models.Question, error) {
	added, err := s.AddQuestions(ctx, []models.Question{q})
	if err != nil {
		return models.Question{}, err
	}
	return added[0], nil
}

// AddQuestions validates every question, shuffles each one's options and
// appends them in one write. Nothing is stored if any question is invalid.
func (s *Store) AddQuestions(ctx context.Context, incoming []models.Question) ([]models.Question, error) {
	prepared := make([]models.Question, 0, len(incoming))
	for i, q := range incoming {
		if q.ID == "" {
			q.ID = "q-" + uuid.NewString()
		}
		if err := models.Validate(q); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		prepared = append(prepared, shuffleOptions(q))
	}

	err := s.mutate(func() error {
		qs, err := s.GetQuestions(ctx)
		if err != nil {
			return err
		}
		return s.put(ctx, s.keys.Questions, "questions", append(qs, prepared...))
	})
	if err != nil {
		return nil, err
	}
	return prepared, nil
}

func shuffleOptions(q models.Question) models.Question {
	options, mapping := shuffle.WithMapping(q.Options)
	q.Options = options
	q.CorrectAnswer = shuffle.Relocate(mapping, q.CorrectAnswer)
	return q
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	return s.mutate(func() error {
		qs, err := s.GetQuestions(ctx)
		if err != nil {
			return err
		}
		qs = slices.DeleteFunc(qs, func(q models.Question) bool { return q.ID == id })
		return s.put(ctx, s.keys.Questions, "questions", qs)
	})
}

// GetQuizQuestions returns up to count questions of one subject and
// difficulty in random order. The subject "combined" matches all subjects.
func (s *Store) GetQuizQuestions(ctx context.Context, subject string, difficulty models.Difficulty, count int) ([]models.Question, error) {
	return s.pickQuestions(ctx, count, func(q models.Question) bool {
		return (subject == models.CombinedSubject || q.Subject == subject) && q.Difficulty == difficulty
	})
}

// GetCustomQuizQuestions is GetQuizQuestions over several subjects.
func (s *Store) GetCustomQuizQuestions(ctx context.Context, subjectIDs []string, difficulty models.Difficulty, count int) ([]models.Question, error) {
	return s.pickQuestions(ctx, count, func(q models.Question) bool {
		return slices.Contains(subjectIDs, q.Subject) && q.Difficulty == difficulty
	})
}

// CountCustomQuizQuestions reports how many questions a custom quiz could draw from.
func (s *Store) CountCustomQuizQuestions(ctx context.Context, subjectIDs []string, difficulty models.Difficulty) (int, error) {
	qs, err := s.GetQuestions(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, q := range qs {
		if slices.Contains(subjectIDs, q.Subject) && q.Difficulty == difficulty {
			n++
		}
	}
	return n, nil
}

func (s *Store) pickQuestions(ctx context.Context, count int, match func(models.Question) bool) ([]models.Question, error) {
	qs, err := s.GetQuestions(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]models.Question, 0, len(qs))
	for _, q := range qs {
		if match(q) {
			filtered = append(filtered, q)
		}
	}
	filtered = shuffle.Slice(filtered)
	return filtered[:max(0, min(count, len(filtered)))], nil
}

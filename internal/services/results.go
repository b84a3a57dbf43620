package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"codequiz/internal/models"
)

func (s *Store) GetResults(ctx context.Context) ([]models.QuizResult, error) {
	rs, err := load(ctx, s, s.keys.Results, emptyOf[models.QuizResult])
	return nonNil(rs), err
}

func (s *Store) SaveResults(ctx context.Context, results []models.QuizResult) error {
	return s.mutate(func() error {
		return s.put(ctx, s.keys.Results, "results", nonNil(results))
	})
}

// AddResult appends a finished quiz. Results are never edited afterwards.
func (s *Store) AddResult(ctx context.Context, r models.QuizResult) error {
	if err := models.Validate(r); err != nil {
		return err
	}
	return s.mutate(func() error {
		rs, err := s.GetResults(ctx)
		if err != nil {
			return err
		}
		return s.put(ctx, s.keys.Results, "results", append(rs, r))
	})
}

// NewResult builds the record of a finished quiz for user.
func (s *Store) NewResult(user models.User, subject string, difficulty models.Difficulty, score, total int, timeTaken time.Duration) models.QuizResult {
	return models.QuizResult{
		ID:         "result-" + uuid.NewString(),
		UserID:     user.ID,
		Username:   user.Username,
		Subject:    subject,
		Difficulty: difficulty,
		Score:      score,
		Total:      total,
		Percentage: models.Percentage(score, total),
		Date:       s.now().UTC(),
		TimeTaken:  int(timeTaken / time.Second),
	}
}

func (s *Store) GetUserResults(ctx context.Context, userID string) ([]models.QuizResult, error) {
	rs, err := s.GetResults(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.QuizResult{}
	for _, r := range rs {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) GetSettings(ctx context.Context) (models.QuizSettings, error) {
	return load(ctx, s, s.keys.Settings, DefaultSettings)
}

// SaveSettings overwrites the global settings record.
func (s *Store) SaveSettings(ctx context.Context, settings models.QuizSettings) error {
	if err := models.Validate(settings); err != nil {
		return err
	}
	return s.mutate(func() error {
		return s.put(ctx, s.keys.Settings, "settings", settings)
	})
}

// GetAllUserStats aggregates every user's results on demand.
func (s *Store) GetAllUserStats(ctx context.Context) ([]models.UserStats, error) {
	users, err := s.GetUsers(ctx)
	if err != nil {
		return nil, err
	}
	results, err := s.GetResults(ctx)
	if err != nil {
		return nil, err
	}
	return ComputeUserStats(users, results), nil
}

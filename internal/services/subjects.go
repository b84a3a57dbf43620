package services

import (
	"context"
	"slices"

	"codequiz/internal/models"
)

// SubjectPatch carries the fields UpdateSubject should overwrite; nil fields
// are left alone.
type SubjectPatch struct {
	Name             *string `json:"name,omitempty"`
	Icon             *string `json:"icon,omitempty"`
	Gradient         *string `json:"gradient,omitempty"`
	Description      *string `json:"description,omitempty"`
	QuestionsPerQuiz *int    `json:"questionsPerQuiz,omitempty"`
	TimePerQuiz      *int    `json:"timePerQuiz,omitempty"`
}

func (p SubjectPatch) apply(cfg models.SubjectConfig) models.SubjectConfig {
	if p.Name != nil {
		cfg.Name = *p.Name
	}
	if p.Icon != nil {
		cfg.Icon = *p.Icon
	}
	if p.Gradient != nil {
		cfg.Gradient = *p.Gradient
	}
	if p.Description != nil {
		cfg.Description = *p.Description
	}
	if p.QuestionsPerQuiz != nil {
		cfg.QuestionsPerQuiz = *p.QuestionsPerQuiz
	}
	if p.TimePerQuiz != nil {
		cfg.TimePerQuiz = *p.TimePerQuiz
	}
	return cfg
}

// GetSubjects falls back to the default subject list when none are stored.
func (s *Store) GetSubjects(ctx context.Context) ([]models.SubjectConfig, error) {
	subjects, err := load(ctx, s, s.keys.Subjects, DefaultSubjects)
	return nonNil(subjects), err
}

func (s *Store) SaveSubjects(ctx context.Context, subjects []models.SubjectConfig) error {
	return s.mutate(func() error {
		return s.put(ctx, s.keys.Subjects, "subjects", nonNil(subjects))
	})
}

func (s *Store) GetSubjectConfig(ctx context.Context, id string) (models.SubjectConfig, bool, error) {
	subjects, err := s.GetSubjects(ctx)
	if err != nil {
		return models.SubjectConfig{}, false, err
	}
	for _, cfg := range subjects {
		if cfg.ID == id {
			return cfg, true, nil
		}
	}
	return models.SubjectConfig{}, false, nil
}

// AddSubject appends subject unless its id is taken, in which case ok is false.
func (s *Store) AddSubject(ctx context.Context, subject models.SubjectConfig) (bool, error) {
	if err := models.Validate(subject); err != nil {
		return false, err
	}
	added := false
	err := s.mutate(func() error {
		subjects, err := s.GetSubjects(ctx)
		if err != nil {
			return err
		}
		if slices.ContainsFunc(subjects, func(c models.SubjectConfig) bool { return c.ID == subject.ID }) {
			return nil
		}
		added = true
		return s.put(ctx, s.keys.Subjects, "subjects", append(subjects, subject))
	})
	return added && err == nil, err
}

// UpdateSubject merges patch into the subject with the given id. ok is false
// when there is no such subject.
func (s *Store) UpdateSubject(ctx context.Context, id string, patch SubjectPatch) (bool, error) {
	found := false
	err := s.mutate(func() error {
		subjects, err := s.GetSubjects(ctx)
		if err != nil {
			return err
		}
		idx := slices.IndexFunc(subjects, func(c models.SubjectConfig) bool { return c.ID == id })
		if idx < 0 {
			return nil
		}
		updated := patch.apply(subjects[idx])
		if err := models.Validate(updated); err != nil {
			return err
		}
		subjects[idx] = updated
		found = true
		return s.put(ctx, s.keys.Subjects, "subjects", subjects)
	})
	return found && err == nil, err
}

// RemoveSubject deletes the subject and every question filed under it.
func (s *Store) RemoveSubject(ctx context.Context, id string) error {
	return s.mutate(func() error {
		subjects, err := s.GetSubjects(ctx)
		if err != nil {
			return err
		}
		qs, err := s.GetQuestions(ctx)
		if err != nil {
			return err
		}
		subjects = slices.DeleteFunc(subjects, func(c models.SubjectConfig) bool { return c.ID == id })
		qs = slices.DeleteFunc(qs, func(q models.Question) bool { return q.Subject == id })
		if err := s.put(ctx, s.keys.Subjects, "subjects", subjects); err != nil {
			return err
		}
		return s.put(ctx, s.keys.Questions, "questions", qs)
	})
}

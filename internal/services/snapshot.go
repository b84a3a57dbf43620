package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"codequiz/internal/models"
)

// Snapshot reads all five collections.
func (s *Store) Snapshot(ctx context.Context) (models.Data, error) {
	var (
		d   models.Data
		err error
	)
	if d.Users, err = s.GetUsers(ctx); err != nil {
		return models.Data{}, err
	}
	if d.Questions, err = s.GetQuestions(ctx); err != nil {
		return models.Data{}, err
	}
	if d.Results, err = s.GetResults(ctx); err != nil {
		return models.Data{}, err
	}
	if d.Settings, err = s.GetSettings(ctx); err != nil {
		return models.Data{}, err
	}
	if d.Subjects, err = s.GetSubjects(ctx); err != nil {
		return models.Data{}, err
	}
	return d, nil
}

// Restore replaces every collection with data.
func (s *Store) Restore(ctx context.Context, data models.Data) error {
	if err := models.Validate(data.Settings); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return s.mutate(func() error {
		return s.writeAll(ctx, data)
	})
}

// RestoreBackup parses a full backup document and restores it. A document
// without a users list is rejected and the store is left as it was.
func (s *Store) RestoreBackup(ctx context.Context, raw []byte) error {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if p.Users == nil {
		return fmt.Errorf("%w: missing users", ErrInvalidSnapshot)
	}
	data := models.Data{
		Users:     p.Users,
		Questions: p.Questions,
		Results:   p.Results,
		Settings:  DefaultSettings(),
		Subjects:  p.Subjects,
	}
	if p.Settings != nil {
		data.Settings = *p.Settings
	}
	if data.Subjects == nil {
		data.Subjects = DefaultSubjects()
	}
	return s.Restore(ctx, data)
}

// SyncData builds the document the file-sync adapter writes.
func (s *Store) SyncData(ctx context.Context) (models.SyncFile, error) {
	users, err := s.GetUsers(ctx)
	if err != nil {
		return models.SyncFile{}, err
	}
	results, err := s.GetResults(ctx)
	if err != nil {
		return models.SyncFile{}, err
	}
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return models.SyncFile{}, err
	}
	return models.SyncFile{
		AppName:     models.AppName,
		LastUpdated: s.now().UTC(),
		Users:       users,
		Results:     results,
		Settings:    settings,
	}, nil
}

// Hydrate overwrites the collections present in p and leaves the others.
func (s *Store) Hydrate(ctx context.Context, p models.SyncPatch) error {
	return s.mutate(func() error {
		if p.Users != nil {
			if err := s.put(ctx, s.keys.Users, "users", p.Users); err != nil {
				return err
			}
		}
		if p.Results != nil {
			if err := s.put(ctx, s.keys.Results, "results", p.Results); err != nil {
				return err
			}
		}
		if p.Settings != nil {
			return s.put(ctx, s.keys.Settings, "settings", *p.Settings)
		}
		return nil
	})
}

// Now is the store's clock, shared with formatters that stamp exports.
func (s *Store) Now() time.Time { return s.now() }

// Clear deletes every collection and the initialized flag, leaving the
// medium as a wiped browser profile would. The next Bootstrap rebuilds it.
func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(func() error {
		for _, key := range []string{s.keys.Users, s.keys.Questions, s.keys.Results, s.keys.Settings, s.keys.Subjects, s.keys.Initialized} {
			if err := s.medium.Delete(ctx, key); err != nil {
				return err
			}
		}
		return nil
	})
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"codequiz/internal/models"
)

// Payload is the part of a fallback snapshot bootstrap cares about. Nil
// fields were absent from the document.
type Payload struct {
	Users     []models.User          `json:"users"`
	Questions []models.Question      `json:"questions"`
	Results   []models.QuizResult    `json:"results"`
	Settings  *models.QuizSettings   `json:"settings"`
	Subjects  []models.SubjectConfig `json:"subjects"`
}

// SnapshotSource fetches a fallback snapshot from somewhere outside the medium.
type SnapshotSource interface {
	Fetch(ctx context.Context) (*Payload, error)
}

// HTTPSource fetches the snapshot with an uncached GET.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (h HTTPSource) Fetch(ctx context.Context) (*Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-cache, no-store")
	req.Header.Set("Pragma", "no-cache")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: status %d", h.URL, resp.StatusCode)
	}
	var p Payload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode %s: %w", h.URL, err)
	}
	return &p, nil
}

// FileSource reads the snapshot from a local file.
type FileSource struct {
	Path string
}

func (f FileSource) Fetch(_ context.Context) (*Payload, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Path, err)
	}
	return &p, nil
}

const (
	SourceExisting = "existing"
	SourceRemote   = "remote"
	SourceDefaults = "defaults"
)

type BootstrapResult struct {
	Source string `json:"source"`
	Users  int    `json:"users"`
}

// Bootstrap hydrates an empty medium once. If the initialized flag is set it
// only makes sure a subjects list exists. Otherwise it tries src (bounded by
// timeout); a snapshot with at least one user wins, anything else (no source,
// fetch error, bad status, bad JSON, no users) seeds the built-in defaults.
// The two are never merged.
func (s *Store) Bootstrap(ctx context.Context, src SnapshotSource, timeout time.Duration) (BootstrapResult, error) {
	s.mu.Lock()
	result, err := s.bootstrap(ctx, src, timeout)
	s.mu.Unlock()
	if err != nil {
		return BootstrapResult{}, err
	}
	s.metrics.Bootstraps.WithLabelValues(result.Source).Inc()
	if result.Source != SourceExisting {
		s.bus.Notify()
	}
	return result, nil
}

func (s *Store) bootstrap(ctx context.Context, src SnapshotSource, timeout time.Duration) (BootstrapResult, error) {
	_, initialized, err := s.medium.Get(ctx, s.keys.Initialized)
	if err != nil {
		return BootstrapResult{}, err
	}
	if initialized {
		if _, ok, err := s.medium.Get(ctx, s.keys.Subjects); err != nil {
			return BootstrapResult{}, err
		} else if !ok {
			if err := s.put(ctx, s.keys.Subjects, "subjects", DefaultSubjects()); err != nil {
				return BootstrapResult{}, err
			}
		}
		return BootstrapResult{Source: SourceExisting}, nil
	}

	payload := s.fetchSnapshot(ctx, src, timeout)

	var (
		result BootstrapResult
		data   models.Data
	)
	if payload != nil {
		data = models.Data{
			Users:     payload.Users,
			Questions: payload.Questions,
			Results:   payload.Results,
			Settings:  DefaultSettings(),
			Subjects:  payload.Subjects,
		}
		if len(data.Questions) == 0 {
			data.Questions = QuestionBank()
		}
		if data.Results == nil {
			data.Results = []models.QuizResult{}
		}
		if payload.Settings != nil {
			data.Settings = *payload.Settings
		}
		if data.Subjects == nil {
			data.Subjects = DefaultSubjects()
		}
		result = BootstrapResult{Source: SourceRemote, Users: len(data.Users)}
	} else {
		data = models.Data{
			Users:     []models.User{DefaultAdmin(s.now())},
			Questions: QuestionBank(),
			Results:   []models.QuizResult{},
			Settings:  DefaultSettings(),
			Subjects:  DefaultSubjects(),
		}
		result = BootstrapResult{Source: SourceDefaults, Users: 1}
	}

	if err := s.writeAll(ctx, data); err != nil {
		return BootstrapResult{}, err
	}
	if err := s.medium.Set(ctx, s.keys.Initialized, "true"); err != nil {
		return BootstrapResult{}, err
	}
	s.log.WithFields(logrus.Fields{"source": result.Source, "users": result.Users}).Info("store bootstrapped")
	return result, nil
}

func (s *Store) fetchSnapshot(ctx context.Context, src SnapshotSource, timeout time.Duration) *Payload {
	if src == nil {
		return nil
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	p, err := src.Fetch(ctx)
	if err != nil {
		s.log.WithError(err).Info("no fallback snapshot, using defaults")
		return nil
	}
	if len(p.Users) == 0 {
		s.log.Info("fallback snapshot has no users, using defaults")
		return nil
	}
	s.log.WithField("users", len(p.Users)).Info("loaded fallback snapshot")
	return p
}

// writeAll replaces all five collections. Callers hold s.mu.
func (s *Store) writeAll(ctx context.Context, data models.Data) error {
	if err := s.put(ctx, s.keys.Users, "users", nonNil(data.Users)); err != nil {
		return err
	}
	if err := s.put(ctx, s.keys.Questions, "questions", nonNil(data.Questions)); err != nil {
		return err
	}
	if err := s.put(ctx, s.keys.Results, "results", nonNil(data.Results)); err != nil {
		return err
	}
	if err := s.put(ctx, s.keys.Settings, "settings", data.Settings); err != nil {
		return err
	}
	return s.put(ctx, s.keys.Subjects, "subjects", nonNil(data.Subjects))
}

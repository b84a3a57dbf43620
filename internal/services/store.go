package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"codequiz/internal/database"
	"codequiz/internal/events"
	"codequiz/internal/metrics"
)

var (
	ErrNoQuestions     = errors.New("no questions match the quiz filter")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// Keys names the medium keys of the five collections and the bootstrap flag.
type Keys struct {
	Users       string
	Questions   string
	Results     string
	Settings    string
	Subjects    string
	Initialized string
}

func NewKeys(prefix string) Keys {
	return Keys{
		Users:       prefix + "users",
		Questions:   prefix + "questions",
		Results:     prefix + "results",
		Settings:    prefix + "settings",
		Subjects:    prefix + "subjects",
		Initialized: prefix + "initialized",
	}
}

// Store owns users, questions, subjects, results and settings. Every
// collection is one JSON document on the medium; mutations read the whole
// document, change it in memory, write it back and then notify the bus.
type Store struct {
	medium  database.Medium
	bus     *events.Bus
	keys    Keys
	metrics *metrics.Metrics
	log     *logrus.Entry
	now     func() time.Time

	// serializes read-modify-write cycles issued by this process
	mu sync.Mutex
}

type Option func(*Store)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(medium database.Medium, bus *events.Bus, prefix string, log *logrus.Entry, opts ...Option) *Store {
	s := &Store{
		medium: medium,
		bus:    bus,
		keys:   NewKeys(prefix),
		log:    log.WithField("component", "store"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop()
	}
	return s
}

func (s *Store) Keys() Keys { return s.keys }

// Subscribe registers a change callback on the store's bus.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	return s.bus.Subscribe(fn)
}

// mutate runs fn under the store lock and notifies subscribers after a
// successful write. Subscribers run outside the lock so they may read the
// store.
func (s *Store) mutate(fn func() error) error {
	s.mu.Lock()
	err := fn()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.bus.Notify()
	return nil
}

func load[T any](ctx context.Context, s *Store, key string, def func() T) (T, error) {
	var v T
	raw, ok, err := s.medium.Get(ctx, key)
	if err != nil {
		return v, err
	}
	if !ok {
		return def(), nil
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", key, err)
	}
	return v, nil
}

func (s *Store) put(ctx context.Context, key, collection string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.medium.Set(ctx, key, string(data)); err != nil {
		return err
	}
	s.metrics.Mutations.WithLabelValues(collection).Inc()
	return nil
}

func emptyOf[T any]() []T { return []T{} }

// nonNil keeps a stored JSON null from surfacing as a nil collection.
func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// Package filesync mirrors users, results and settings to a file outside the
// store so they survive the medium being wiped.
//
// Two strategies share the Adapter contract. With a Picker the adapter holds
// a live handle: Connect and Load adopt a file and every debounced change is
// written to it. Without one only manual Download and LoadUploaded work;
// Connect, Load and SyncNow return ErrUnsupported and DebouncedSync does
// nothing.
package filesync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"codequiz/internal/export"
	"codequiz/internal/logger"
	"codequiz/internal/metrics"
	"codequiz/internal/models"
)

var (
	ErrNotConnected   = errors.New("no sync file connected")
	ErrSyncInProgress = errors.New("sync already in progress")
	ErrCancelled      = errors.New("file selection cancelled")
	ErrUnsupported    = errors.New("live file handles are not supported")
	ErrInvalidFile    = errors.New("invalid sync file")
)

// DefaultDebounce is the quiet period before a burst of changes is written.
const DefaultDebounce = 500 * time.Millisecond

// Store is the part of the store the adapter reads from and hydrates.
type Store interface {
	SyncData(ctx context.Context) (models.SyncFile, error)
	Hydrate(ctx context.Context, p models.SyncPatch) error
	Now() time.Time
}

// Status is a point-in-time view of the adapter. LastSync is nil until the
// first successful write or load.
type Status struct {
	Supported bool       `json:"supported"`
	Connected bool       `json:"connected"`
	FileName  string     `json:"fileName,omitempty"`
	LastSync  *time.Time `json:"lastSync"`
}

type Adapter interface {
	Status() Status
	Connect(ctx context.Context, name string) error
	Load(ctx context.Context, name string) error
	SyncNow(ctx context.Context) error
	Disconnect()
	DebouncedSync()
	Download(ctx context.Context, w io.Writer) error
	LoadUploaded(ctx context.Context, r io.Reader) error
	Close()
}

type Option func(*options)

type options struct {
	debounce time.Duration
	onStatus func(Status)
	metrics  *metrics.Metrics
	log      *logrus.Entry
}

func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.debounce = d }
}

// WithStatusCallback registers fn to run after every status change.
func WithStatusCallback(fn func(Status)) Option {
	return func(o *options) { o.onStatus = fn }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithLogger(log *logrus.Entry) Option {
	return func(o *options) { o.log = log }
}

// New probes for live-handle support: a non-nil picker selects the handle
// strategy, nil selects the manual one.
func New(store Store, picker Picker, opts ...Option) Adapter {
	o := options{debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = metrics.Nop()
	}
	if o.log == nil {
		o.log = logger.Discard()
	}
	c := &core{
		store:    store,
		onStatus: o.onStatus,
		metrics:  o.metrics,
		log:      o.log.WithField("component", "filesync"),
	}
	if picker == nil {
		return &manualAdapter{core: c}
	}
	c.status.Supported = true
	return &handleAdapter{core: c, picker: picker, debounce: o.debounce}
}

// core holds what both strategies share: status bookkeeping and the
// serialization of the sync document.
type core struct {
	store    Store
	onStatus func(Status)
	metrics  *metrics.Metrics
	log      *logrus.Entry

	statusMu sync.Mutex
	status   Status
}

func (c *core) Status() Status {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	return c.status
}

func (c *core) setStatus(fn func(*Status)) {
	c.statusMu.Lock()
	fn(&c.status)
	st := c.status
	c.statusMu.Unlock()
	if c.onStatus != nil {
		c.onStatus(st)
	}
}

func (c *core) stamp() *time.Time {
	t := c.store.Now().UTC()
	return &t
}

func (c *core) document(ctx context.Context) ([]byte, error) {
	doc, err := c.store.SyncData(ctx)
	if err != nil {
		return nil, err
	}
	return export.SyncDocument(doc)
}

func (c *core) Download(ctx context.Context, w io.Writer) error {
	data, err := c.document(ctx)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// hydrate applies a sync file. Only users, results and settings are read;
// a key that is absent or null leaves that collection alone. Nothing is
// written if the document does not parse or its settings are invalid.
func (c *core) hydrate(ctx context.Context, data []byte) error {
	var doc struct {
		Users    []models.User        `json:"users"`
		Results  []models.QuizResult  `json:"results"`
		Settings *models.QuizSettings `json:"settings"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	if doc.Settings != nil {
		if err := models.Validate(*doc.Settings); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}
	}
	return c.store.Hydrate(ctx, models.SyncPatch{
		Users:    doc.Users,
		Results:  doc.Results,
		Settings: doc.Settings,
	})
}

func readUpload(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}

package filesync

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"codequiz/internal/export"
)

// handleAdapter keeps a live handle. Status starts disconnected in every
// process since handles are never persisted.
type handleAdapter struct {
	*core
	picker   Picker
	debounce time.Duration

	mu      sync.Mutex
	handle  Handle
	syncing bool
	timer   *time.Timer
	closed  bool
}

// Connect asks the picker for a target file, adopts it and writes the
// current state to it right away. A failed first write is logged; the
// adapter stays connected and the next change retries.
func (a *handleAdapter) Connect(ctx context.Context, name string) error {
	if name == "" {
		name = export.SyncFileName
	}
	h, err := a.picker.PickSave(ctx, name)
	if err != nil {
		return err
	}
	a.adopt(h)
	a.setStatus(func(s *Status) {
		s.Connected = true
		s.FileName = h.Name()
		s.LastSync = nil
	})
	if err := a.SyncNow(ctx); err != nil {
		a.log.WithError(err).WithField("file", h.Name()).Warn("initial sync failed")
	}
	return nil
}

// Load reads an existing sync file into the store and adopts it for later
// writes.
func (a *handleAdapter) Load(ctx context.Context, name string) error {
	h, err := a.picker.PickOpen(ctx, name)
	if err != nil {
		return err
	}
	data, err := h.Read(ctx)
	if err != nil {
		return err
	}
	if err := a.hydrate(ctx, data); err != nil {
		return err
	}
	a.adopt(h)
	a.setStatus(func(s *Status) {
		s.Connected = true
		s.FileName = h.Name()
		s.LastSync = a.stamp()
	})
	a.log.WithField("file", h.Name()).Info("loaded sync file")
	return nil
}

func (a *handleAdapter) adopt(h Handle) {
	a.mu.Lock()
	a.handle = h
	a.mu.Unlock()
}

// SyncNow writes users, results and settings to the connected file. Only
// one write runs at a time; an overlapping call gets ErrSyncInProgress.
func (a *handleAdapter) SyncNow(ctx context.Context) error {
	a.mu.Lock()
	h := a.handle
	switch {
	case h == nil:
		a.mu.Unlock()
		return ErrNotConnected
	case a.syncing:
		a.mu.Unlock()
		return ErrSyncInProgress
	}
	a.syncing = true
	a.mu.Unlock()

	err := a.write(ctx, h)

	a.mu.Lock()
	a.syncing = false
	current := a.handle == h
	a.mu.Unlock()

	if err != nil {
		a.metrics.SyncWrites.WithLabelValues("error").Inc()
		return err
	}
	a.metrics.SyncWrites.WithLabelValues("ok").Inc()
	if current {
		a.setStatus(func(s *Status) {
			s.Connected = true
			s.LastSync = a.stamp()
		})
	}
	return nil
}

func (a *handleAdapter) write(ctx context.Context, h Handle) error {
	data, err := a.document(ctx)
	if err != nil {
		return err
	}
	return h.Write(ctx, data)
}

// Disconnect drops the handle. The file itself is left in place.
func (a *handleAdapter) Disconnect() {
	a.mu.Lock()
	a.handle = nil
	a.stopTimer()
	a.mu.Unlock()
	a.setStatus(func(s *Status) {
		s.Connected = false
		s.FileName = ""
		s.LastSync = nil
	})
}

// DebouncedSync schedules SyncNow after the quiet period, restarting the
// timer if one is pending. It does nothing while disconnected.
func (a *handleAdapter) DebouncedSync() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.handle == nil || a.closed {
		return
	}
	a.stopTimer()
	a.timer = time.AfterFunc(a.debounce, a.flush)
}

func (a *handleAdapter) flush() {
	err := a.SyncNow(context.Background())
	switch {
	case err == nil, errors.Is(err, ErrNotConnected):
	case errors.Is(err, ErrSyncInProgress):
		// the running write may predate the latest change
		a.DebouncedSync()
	default:
		a.log.WithError(err).WithFields(logrus.Fields{"debounce": a.debounce}).Error("file sync failed")
	}
}

// stopTimer cancels a pending flush. Callers hold a.mu.
func (a *handleAdapter) stopTimer() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// LoadUploaded hydrates the store from an uploaded file. The live handle,
// if any, is kept.
func (a *handleAdapter) LoadUploaded(ctx context.Context, r io.Reader) error {
	data, err := readUpload(r)
	if err != nil {
		return err
	}
	if err := a.hydrate(ctx, data); err != nil {
		return err
	}
	a.setStatus(func(s *Status) { s.LastSync = a.stamp() })
	return nil
}

// Close stops the debounce timer; later DebouncedSync calls are ignored.
func (a *handleAdapter) Close() {
	a.mu.Lock()
	a.closed = true
	a.stopTimer()
	a.mu.Unlock()
}

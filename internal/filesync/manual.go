package filesync

import (
	"context"
	"io"
)

// manualAdapter serves environments without file handles. Sync happens only
// when someone downloads or uploads the file, so it never reports itself as
// connected; a successful upload still records LastSync.
type manualAdapter struct {
	*core
}

func (m *manualAdapter) Connect(context.Context, string) error { return ErrUnsupported }

func (m *manualAdapter) Load(context.Context, string) error { return ErrUnsupported }

func (m *manualAdapter) SyncNow(context.Context) error { return ErrUnsupported }

func (m *manualAdapter) Disconnect() {}

func (m *manualAdapter) DebouncedSync() {}

func (m *manualAdapter) Close() {}

func (m *manualAdapter) LoadUploaded(ctx context.Context, r io.Reader) error {
	data, err := readUpload(r)
	if err != nil {
		return err
	}
	if err := m.hydrate(ctx, data); err != nil {
		return err
	}
	m.setStatus(func(s *Status) {
		s.Connected = false
		s.LastSync = m.stamp()
	})
	return nil
}

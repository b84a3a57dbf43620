package filesync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Handle is an open target the adapter can read and overwrite.
type Handle interface {
	Name() string
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// Picker chooses files. An empty name or a dismissed prompt yields
// ErrCancelled.
type Picker interface {
	PickSave(ctx context.Context, name string) (Handle, error)
	PickOpen(ctx context.Context, name string) (Handle, error)
}

// DirPicker picks files by name inside one directory.
type DirPicker struct {
	dir string
}

func NewDirPicker(dir string) (*DirPicker, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sync dir: %w", err)
	}
	return &DirPicker{dir: dir}, nil
}

func (p *DirPicker) PickSave(ctx context.Context, name string) (Handle, error) {
	path, err := p.resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	return &fileHandle{path: path}, nil
}

func (p *DirPicker) PickOpen(ctx context.Context, name string) (Handle, error) {
	path, err := p.resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s does not exist", ErrCancelled, name)
	}
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrCancelled, name)
	}
	return &fileHandle{path: path}, nil
}

// resolve keeps name inside the picker's directory.
func (p *DirPicker) resolve(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrCancelled
	}
	base := filepath.Base(filepath.Clean(string(filepath.Separator) + name))
	if base == string(filepath.Separator) || base == "." {
		return "", fmt.Errorf("%w: bad file name %q", ErrCancelled, name)
	}
	return filepath.Join(p.dir, base), nil
}

type fileHandle struct {
	path string
}

func (h *fileHandle) Name() string { return filepath.Base(h.path) }

func (h *fileHandle) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(h.path)
}

// Write replaces the file through a temp file and rename, so readers never
// see a half-written document.
func (h *fileHandle) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(h.path), "."+filepath.Base(h.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", h.Name(), err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", h.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", h.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", h.Name(), err)
	}
	if err := os.Rename(tmp.Name(), h.path); err != nil {
		return fmt.Errorf("write %s: %w", h.Name(), err)
	}
	return nil
}

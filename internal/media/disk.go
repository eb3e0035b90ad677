package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore keeps uploaded files in a single directory.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the directory files are written to.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Save writes r to name, failing with ErrPayloadTooLarge when more than
// MaxUploadBytes arrive. A partially written file is removed.
func (s *DiskStore) Save(ctx context.Context, name string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(name)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create media file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, MaxUploadBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > MaxUploadBytes {
		err = ErrPayloadTooLarge
	}
	if err != nil {
		os.Remove(path)
		if errors.Is(err, ErrPayloadTooLarge) {
			return err
		}
		return fmt.Errorf("failed to write media file: %w", err)
	}
	return nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *DiskStore) Remove(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove media file: %w", err)
	}
	return nil
}

func (s *DiskStore) path(name string) (string, error) {
	name = strings.TrimPrefix(name, URLPrefix)
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid media name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

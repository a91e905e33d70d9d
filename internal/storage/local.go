package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// VideoRoute is the HTTP path prefix under which LocalStorage files are served.
const VideoRoute = "/videos/"

// Compile-time check that LocalStorage implements Storage.
var _ Storage = (*LocalStorage)(nil)

// LocalStorage implements the Storage interface using a local directory.
// Files are expected to be served by the HTTP layer under VideoRoute.
type LocalStorage struct {
	dir           string
	publicBaseURL string
}

// NewLocalStorage creates a new LocalStorage instance.
// If dir is empty, a "videogen" directory under os.TempDir() is used.
// The directory is created if it doesn't exist.
func NewLocalStorage(dir, publicBaseURL string) (*LocalStorage, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "videogen")
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create video directory: %w", err)
	}

	return &LocalStorage{
		dir:           dir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// Dir returns the directory path.
func (s *LocalStorage) Dir() string {
	return s.dir
}

// Save writes data to a new file in the directory and returns its public URL.
func (s *LocalStorage) Save(ctx context.Context, pattern string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	f, err := os.CreateTemp(s.dir, pattern)
	if err != nil {
		return "", fmt.Errorf("create video file: %w", err)
	}

	fileName := f.Name()
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(fileName)
		return "", fmt.Errorf("write video file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(fileName)
		return "", fmt.Errorf("close video file: %w", err)
	}

	return s.publicBaseURL + VideoRoute + filepath.Base(fileName), nil
}

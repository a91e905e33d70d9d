// Package storage provides persistence for generated videos that providers return
// as raw bytes instead of a hosted URL. It defines the Storage interface (port) and
// implementations for a local directory served over HTTP and for S3.
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for publishing generated video files.
type Storage interface {
	// Save writes data under a unique name derived from the pattern and returns the
	// public URL of the stored object. A "*" in pattern is replaced by a random string.
	Save(ctx context.Context, pattern string, data io.Reader) (url string, err error)
}

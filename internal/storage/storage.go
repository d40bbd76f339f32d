package storage

import (
	"context"
	"io"
)

// Package storage contains the filesystem sink uploads are written into.
// Implementations stream through io.Writer; nothing is buffered in memory.

// Sink is the destination side of an upload: a directory namespace plus writable files.
// Implementations must be safe for concurrent use. No locking is applied per path, so two
// writers of the same path race and the last one to write wins.
type Sink interface {
	// EnsureDir creates dir and every missing parent. An existing directory is not an error.
	EnsureDir(ctx context.Context, dir string) error
	// Create opens path for writing, creating it or truncating existing content.
	Create(ctx context.Context, path string) (io.WriteCloser, error)
}

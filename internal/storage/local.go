package storage

import (
	"context"
	"fmt"
	"io"
	"os"
)

const (
	defaultDirPerm  os.FileMode = 0o755
	defaultFilePerm os.FileMode = 0o644
)

// localSink implements Sink on top of the operating system's filesystem.
// It is safe for concurrent use by multiple goroutines.
type localSink struct {
	dirPerm  os.FileMode
	filePerm os.FileMode
}

// NewLocal returns a Sink that writes to the local filesystem with 0755 directories and 0644 files.
func NewLocal() Sink {
	return &localSink{dirPerm: defaultDirPerm, filePerm: defaultFilePerm}
}

// EnsureDir creates dir recursively.
func (s *localSink) EnsureDir(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir == "" {
		return fmt.Errorf("empty directory path")
	}
	return os.MkdirAll(dir, s.dirPerm)
}

// Create opens path with O_TRUNC, so a second upload under the same name replaces the first.
func (s *localSink) Create(ctx context.Context, path string) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, s.filePerm)
}

package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

type MockSink struct {
	mock.Mock
}

func (m *MockSink) EnsureDir(ctx context.Context, dir string) error {
	args := m.Called(ctx, dir)
	return args.Error(0)
}

func (m *MockSink) Create(ctx context.Context, path string) (io.WriteCloser, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

// BufferWriteCloser is an in-memory io.WriteCloser for sink tests.
type BufferWriteCloser struct {
	Data     []byte
	Closed   bool
	WriteErr error
	CloseErr error
}

func (b *BufferWriteCloser) Write(p []byte) (int, error) {
	if b.WriteErr != nil {
		return 0, b.WriteErr
	}
	b.Data = append(b.Data, p...)
	return len(p), nil
}

func (b *BufferWriteCloser) Close() error {
	b.Closed = true
	return b.CloseErr
}

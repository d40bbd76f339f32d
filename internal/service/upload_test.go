package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"uploadapi/internal/model"
	"uploadapi/internal/storage"
	storeMocks "uploadapi/internal/storage/mocks"
)

func envelopeFor(t *testing.T, filename, name, content string) *Envelope {
	t.Helper()
	env, err := NewEnvelope(stringPart(filename, content), []byte(`{"name":"`+name+`"}`), model.DefaultMaxPartBytes)
	require.NoError(t, err)
	return env
}

// failingReader yields prefix, then err.
func failingReader(prefix string, err error) io.ReadCloser {
	return io.NopCloser(io.MultiReader(strings.NewReader(prefix), errReader{err}))
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func TestUploadService_Ingest(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		env        func(t *testing.T) *Envelope
		setupMocks func(mSink *storeMocks.MockSink) *storeMocks.BufferWriteCloser
		wantErr    error
		wantErrMsg string
		want       *model.UploadOutcome
		wantData   string
	}{
		{
			name: "happy path",
			env: func(t *testing.T) *Envelope {
				return envelopeFor(t, "clip.mp4", "clip.mp4", "0123456789")
			},
			setupMocks: func(mSink *storeMocks.MockSink) *storeMocks.BufferWriteCloser {
				w := &storeMocks.BufferWriteCloser{}
				mSink.On("EnsureDir", mock.Anything, "uploads").Return(nil)
				mSink.On("Create", mock.Anything, filepath.Join("uploads", "clip.mp4")).Return(w, nil)
				return w
			},
			want:     &model.UploadOutcome{Name: "clip.mp4", Path: filepath.Join("uploads", "clip.mp4"), Size: 10},
			wantData: "0123456789",
		},
		{
			name: "directory unavailable",
			env: func(t *testing.T) *Envelope {
				return envelopeFor(t, "clip.mp4", "clip", "data")
			},
			setupMocks: func(mSink *storeMocks.MockSink) *storeMocks.BufferWriteCloser {
				mSink.On("EnsureDir", mock.Anything, "uploads").Return(errors.New("permission denied"))
				return nil
			},
			wantErr:    ErrStorageUnavailable,
			wantErrMsg: "permission denied",
		},
		{
			name: "destination unavailable",
			env: func(t *testing.T) *Envelope {
				return envelopeFor(t, "clip.mp4", "clip", "data")
			},
			setupMocks: func(mSink *storeMocks.MockSink) *storeMocks.BufferWriteCloser {
				mSink.On("EnsureDir", mock.Anything, "uploads").Return(nil)
				mSink.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("read-only file system"))
				return nil
			},
			wantErr:    ErrStorageUnavailable,
			wantErrMsg: "read-only file system",
		},
		{
			name: "write fails mid copy",
			env: func(t *testing.T) *Envelope {
				return envelopeFor(t, "clip.mp4", "clip", "data")
			},
			setupMocks: func(mSink *storeMocks.MockSink) *storeMocks.BufferWriteCloser {
				w := &storeMocks.BufferWriteCloser{WriteErr: errors.New("disk full")}
				mSink.On("EnsureDir", mock.Anything, "uploads").Return(nil)
				mSink.On("Create", mock.Anything, mock.Anything).Return(w, nil)
				return w
			},
			wantErr:    ErrCopyFailed,
			wantErrMsg: "disk full",
		},
		{
			name: "close fails after copy",
			env: func(t *testing.T) *Envelope {
				return envelopeFor(t, "clip.mp4", "clip", "data")
			},
			setupMocks: func(mSink *storeMocks.MockSink) *storeMocks.BufferWriteCloser {
				w := &storeMocks.BufferWriteCloser{CloseErr: errors.New("flush failed")}
				mSink.On("EnsureDir", mock.Anything, "uploads").Return(nil)
				mSink.On("Create", mock.Anything, mock.Anything).Return(w, nil)
				return w
			},
			wantErr:    ErrCopyFailed,
			wantErrMsg: "flush failed",
		},
		{
			name: "source cannot be opened",
			env: func(t *testing.T) *Envelope {
				p := NewFilePart("clip.mp4", 4, func() (io.ReadCloser, error) {
					return nil, errors.New("temp file gone")
				})
				return &Envelope{File: p, Metadata: model.Metadata{Name: "clip"}}
			},
			setupMocks: func(mSink *storeMocks.MockSink) *storeMocks.BufferWriteCloser {
				w := &storeMocks.BufferWriteCloser{}
				mSink.On("EnsureDir", mock.Anything, "uploads").Return(nil)
				mSink.On("Create", mock.Anything, mock.Anything).Return(w, nil)
				return w
			},
			wantErr:    ErrCopyFailed,
			wantErrMsg: "temp file gone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mSink := new(storeMocks.MockSink)
			w := tt.setupMocks(mSink)
			svc := NewUploadService(mSink, UploadOptions{})

			out, err := svc.Ingest(ctx, tt.env(t))

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
				assert.Nil(t, out)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, out)
				assert.Equal(t, tt.wantData, string(w.Data))
			}
			if w != nil {
				assert.True(t, w.Closed, "destination must be closed")
			}
			mSink.AssertExpectations(t)
		})
	}
}

func TestUploadService_NilEnvelope(t *testing.T) {
	svc := NewUploadService(new(storeMocks.MockSink), UploadOptions{})
	_, err := svc.Ingest(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEnvelopeRequired)
}

func TestUploadService_CreatesDirectoryAndCopiesContent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	svc := NewUploadService(storage.NewLocal(), UploadOptions{Dir: dir, BufferSize: 7})

	content := strings.Repeat("abcdefghij", 1000)
	out, err := svc.Ingest(context.Background(), envelopeFor(t, "clip.mp4", "clip.mp4", content))
	require.NoError(t, err)

	assert.Equal(t, "Uploaded file clip.mp4, with size: 10000", out.Message())
	assert.Equal(t, filepath.Join(dir, "clip.mp4"), out.Path)

	got, err := os.ReadFile(out.Path)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))

	// The directory already exists now; a second call must not trip over it.
	_, err = svc.Ingest(context.Background(), envelopeFor(t, "other.mp4", "other", "x"))
	assert.NoError(t, err)
}

func TestUploadService_DirectoryBlocked(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("not a dir"), 0o644))
	dir := filepath.Join(blocker, "uploads")

	svc := NewUploadService(storage.NewLocal(), UploadOptions{Dir: dir})
	out, err := svc.Ingest(context.Background(), envelopeFor(t, "clip.mp4", "clip", "data"))

	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Nil(t, out)
	_, statErr := os.Stat(filepath.Join(dir, "clip.mp4"))
	assert.Error(t, statErr, "no destination file may be created")
}

// Same-name uploads are not idempotent: the later one replaces the earlier one.
func TestUploadService_SameFilenameOverwrites(t *testing.T) {
	dir := t.TempDir()
	svc := NewUploadService(storage.NewLocal(), UploadOptions{Dir: dir})

	_, err := svc.Ingest(context.Background(), envelopeFor(t, "clip.mp4", "first", "the first and longer upload"))
	require.NoError(t, err)
	out, err := svc.Ingest(context.Background(), envelopeFor(t, "clip.mp4", "second", "second"))
	require.NoError(t, err)
	assert.Equal(t, int64(6), out.Size)

	got, err := os.ReadFile(filepath.Join(dir, "clip.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

// Concurrent same-name uploads race on one path with no error reported to either caller.
func TestUploadService_ConcurrentSameFilename(t *testing.T) {
	dir := t.TempDir()
	svc := NewUploadService(storage.NewLocal(), UploadOptions{Dir: dir, BufferSize: 4})

	envs := []*Envelope{
		envelopeFor(t, "race.bin", "race", strings.Repeat("a", 4096)),
		envelopeFor(t, "race.bin", "race", strings.Repeat("b", 4096)),
	}
	var wg sync.WaitGroup
	errs := make([]error, len(envs))
	for i, env := range envs {
		wg.Add(1)
		go func(i int, env *Envelope) {
			defer wg.Done()
			_, errs[i] = svc.Ingest(context.Background(), env)
		}(i, env)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	info, err := os.Stat(filepath.Join(dir, "race.bin"))
	require.NoError(t, err)
	assert.LessOrEqual(t, info.Size(), int64(4096))
}

// A failed copy leaves a partial destination file behind; there is no cleanup step.
func TestUploadService_CopyFailureLeavesPartialFile(t *testing.T) {
	dir := t.TempDir()
	svc := NewUploadService(storage.NewLocal(), UploadOptions{Dir: dir})

	p := NewFilePart("clip.mp4", 100, func() (io.ReadCloser, error) {
		return failingReader("partial", errors.New("connection reset")), nil
	})
	out, err := svc.Ingest(context.Background(), &Envelope{File: p, Metadata: model.Metadata{Name: "clip"}})

	assert.ErrorIs(t, err, ErrCopyFailed)
	assert.Nil(t, out)

	got, readErr := os.ReadFile(filepath.Join(dir, "clip.mp4"))
	require.NoError(t, readErr)
	assert.Equal(t, "partial", string(got))
}

func TestUploadService_CanceledDuringCopy(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	var transitions []State
	svc := NewUploadService(storage.NewLocal(), UploadOptions{
		Dir: dir,
		OnTransition: func(_, to State) {
			transitions = append(transitions, to)
			if to == StateCopyInProgress {
				cancel()
			}
		},
	})

	_, err := svc.Ingest(ctx, envelopeFor(t, "clip.mp4", "clip", "data"))
	assert.ErrorIs(t, err, ErrCopyFailed)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []State{StateDirectoryEnsured, StateDestinationOpened, StateCopyInProgress, StateFailed}, transitions)
}

func TestUploadService_ReportsCopiedSize(t *testing.T) {
	dir := t.TempDir()
	svc := NewUploadService(storage.NewLocal(), UploadOptions{Dir: dir})

	p := NewFilePart("clip.mp4", 999, func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader([]byte("12345"))), nil
	})
	out, err := svc.Ingest(context.Background(), &Envelope{File: p, Metadata: model.Metadata{Name: "clip"}})
	require.NoError(t, err)
	assert.Equal(t, int64(5), out.Size)
}

func TestUploadService_StateSequence(t *testing.T) {
	var transitions [][2]State
	svc := NewUploadService(storage.NewLocal(), UploadOptions{
		Dir: t.TempDir(),
		OnTransition: func(from, to State) {
			transitions = append(transitions, [2]State{from, to})
		},
	})

	_, err := svc.Ingest(context.Background(), envelopeFor(t, "clip.mp4", "clip", "data"))
	require.NoError(t, err)
	assert.Equal(t, [][2]State{
		{StateStart, StateDirectoryEnsured},
		{StateDirectoryEnsured, StateDestinationOpened},
		{StateDestinationOpened, StateCopyInProgress},
		{StateCopyInProgress, StateCompleted},
	}, transitions)
}

func TestUploadService_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	root := t.TempDir()
	svc := NewUploadService(storage.NewLocal(), UploadOptions{Dir: root, Metrics: m})
	_, err = svc.Ingest(context.Background(), envelopeFor(t, "a.bin", "a", "12345"))
	require.NoError(t, err)

	blocker := filepath.Join(root, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	bad := NewUploadService(storage.NewLocal(), UploadOptions{Dir: filepath.Join(blocker, "x"), Metrics: m})
	_, err = bad.Ingest(context.Background(), envelopeFor(t, "b.bin", "b", "1"))
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.ingests.WithLabelValues(resultCompleted)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ingests.WithLabelValues(resultStorageUnavailable)))
	assert.Equal(t, float64(5), testutil.ToFloat64(m.bytes))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "registering twice on one registry must fail")
}

func TestState(t *testing.T) {
	assert.Equal(t, "directory_ensured", StateDirectoryEnsured.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.True(t, StateCompleted.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateCopyInProgress.Terminal())

	assert.True(t, canAdvance(StateStart, StateDirectoryEnsured))
	assert.True(t, canAdvance(StateDestinationOpened, StateFailed))
	assert.False(t, canAdvance(StateStart, StateCopyInProgress))
	assert.False(t, canAdvance(StateCompleted, StateFailed))
}

func TestCopyChunked(t *testing.T) {
	var dst bytes.Buffer
	n, err := copyChunked(context.Background(), &dst, strings.NewReader("hello world"), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)
	assert.Equal(t, "hello world", dst.String())

	n, err = copyChunked(context.Background(), &dst, failingReader("abc", io.ErrUnexpectedEOF), 2)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, int64(3), n)
}

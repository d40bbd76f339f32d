package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"uploadapi/internal/model"
	"uploadapi/internal/storage"
)

const (
	// DefaultUploadDir is the directory uploads land in when none is configured.
	DefaultUploadDir = "uploads"
	// DefaultCopyBufferSize is the chunk size of the copy loop.
	DefaultCopyBufferSize = 32 * 1024

	tracerName = "uploadapi/internal/service"
)

// UploadService defines the ingest use case for multipart uploads.
type UploadService interface {
	// Ingest copies the envelope's file part into the upload directory.
	// - The directory is created on demand; an existing one is reused.
	// - The destination is <dir>/<filename>; an existing file is overwritten without locking.
	// - A failed copy leaves whatever was written so far on disk. There is no temp-name-then-rename step.
	// - The reported size is the number of bytes actually copied, not the part's declared size.
	Ingest(ctx context.Context, env *Envelope) (*model.UploadOutcome, error)
}

// UploadOptions configures an UploadService. Zero values fall back to defaults.
type UploadOptions struct {
	Dir        string
	BufferSize int
	Logger     *slog.Logger
	Metrics    *Metrics
	// OnTransition, when set, is called after every state change of every ingest.
	OnTransition func(from, to State)
}

type uploadService struct {
	sink         storage.Sink
	dir          string
	bufSize      int
	log          *slog.Logger
	metrics      *Metrics
	tracer       trace.Tracer
	onTransition func(from, to State)
}

// NewUploadService constructs the UploadService backed by the given sink.
func NewUploadService(sink storage.Sink, opts UploadOptions) UploadService {
	s := &uploadService{
		sink:         sink,
		dir:          opts.Dir,
		bufSize:      opts.BufferSize,
		log:          opts.Logger,
		metrics:      opts.Metrics,
		tracer:       otel.Tracer(tracerName),
		onTransition: opts.OnTransition,
	}
	if s.dir == "" {
		s.dir = DefaultUploadDir
	}
	if s.bufSize <= 0 {
		s.bufSize = DefaultCopyBufferSize
	}
	if s.log == nil {
		s.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// ingestRun tracks one pass through the pipeline.
type ingestRun struct {
	svc   *uploadService
	span  trace.Span
	state State
}

func (r *ingestRun) advance(to State) {
	if !canAdvance(r.state, to) {
		// Programming error inside this package; keep the run consistent and loud.
		r.svc.log.Error("invalid_ingest_transition", "from", r.state.String(), "to", to.String())
		to = StateFailed
	}
	from := r.state
	r.state = to
	r.span.AddEvent(to.String())
	if r.svc.onTransition != nil {
		r.svc.onTransition(from, to)
	}
}

// fail moves the run to Failed and returns err wrapped under kind.
func (r *ingestRun) fail(kind error, result string, copied int64, err error) error {
	r.advance(StateFailed)
	r.span.RecordError(err)
	r.span.SetStatus(codes.Error, kind.Error())
	r.svc.metrics.observe(result, copied)
	return fmt.Errorf("%w: %w", kind, err)
}

func (s *uploadService) Ingest(ctx context.Context, env *Envelope) (*model.UploadOutcome, error) {
	if env == nil {
		return nil, ErrEnvelopeRequired
	}

	ctx, span := s.tracer.Start(ctx, "UploadService.Ingest", trace.WithAttributes(
		attribute.String("upload.filename", env.File.Filename),
		attribute.Int64("upload.declared_size", env.File.Size),
	))
	defer span.End()

	run := &ingestRun{svc: s, span: span, state: StateStart}
	log := s.log.With("filename", env.File.Filename, "name", env.Metadata.Name)

	if err := s.sink.EnsureDir(ctx, s.dir); err != nil {
		log.Error("upload_dir_unavailable", "dir", s.dir, "error", err)
		return nil, run.fail(ErrStorageUnavailable, resultStorageUnavailable, 0, fmt.Errorf("ensure dir %s: %w", s.dir, err))
	}
	run.advance(StateDirectoryEnsured)

	path := filepath.Join(s.dir, env.File.Filename)
	dst, err := s.sink.Create(ctx, path)
	if err != nil {
		log.Error("upload_destination_unavailable", "path", path, "error", err)
		return nil, run.fail(ErrStorageUnavailable, resultStorageUnavailable, 0, fmt.Errorf("create %s: %w", path, err))
	}
	run.advance(StateDestinationOpened)

	src, err := env.File.Open()
	if err != nil {
		_ = dst.Close()
		log.Error("upload_source_unavailable", "error", err)
		return nil, run.fail(ErrCopyFailed, resultCopyFailed, 0, fmt.Errorf("open file part: %w", err))
	}
	defer src.Close()

	run.advance(StateCopyInProgress)
	written, err := copyChunked(ctx, dst, src, s.bufSize)
	if closeErr := dst.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close %s: %w", path, closeErr)
	}
	if err != nil {
		log.Error("upload_copy_failed", "path", path, "written", written, "error", err)
		return nil, run.fail(ErrCopyFailed, resultCopyFailed, written, err)
	}

	if written != env.File.Size {
		log.Warn("upload_size_mismatch", "declared", env.File.Size, "copied", written)
	}

	run.advance(StateCompleted)
	span.SetAttributes(attribute.Int64("upload.copied_size", written))
	s.metrics.observe(resultCompleted, written)
	log.Info("upload_completed", "path", path, "size", written)

	return &model.UploadOutcome{
		Name: env.Metadata.Name,
		Path: path,
		Size: written,
	}, nil
}

// copyChunked streams src into dst one buffer at a time, checking ctx between chunks
// so a dropped request stops the copy at the next boundary.
func copyChunked(ctx context.Context, dst io.Writer, src io.Reader, bufSize int) (int64, error) {
	buf := make([]byte, bufSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, rerr := src.Read(buf)
		if n > 0 {
			wn, werr := dst.Write(buf[:n])
			written += int64(wn)
			if werr != nil {
				return written, werr
			}
			if wn != n {
				return written, io.ErrShortWrite
			}
		}
		if errors.Is(rerr, io.EOF) {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

package service

import "errors"

// Envelope errors are client errors: the request is rejected before anything touches the sink.
var (
	ErrMissingFile      = errors.New("file part is required")
	ErrMissingMetadata  = errors.New("json part is required")
	ErrInvalidMetadata  = errors.New("invalid metadata")
	ErrPartTooLarge     = errors.New("part too large")
	ErrMissingFilename  = errors.New("file part has no filename")
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrEnvelopeRequired = errors.New("envelope is required")
)

// Pipeline errors are server errors and are never retried.
var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrCopyFailed         = errors.New("copy failed")
)

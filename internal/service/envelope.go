package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"uploadapi/internal/model"
)

// FilePart is the file half of an upload envelope. Its bytes live in transient
// storage owned by the multipart parser until the request ends.
type FilePart struct {
	// Filename is the client-declared name, used verbatim as the destination name.
	Filename string
	// Size is the byte count reported by the multipart parser.
	Size int64

	open func() (io.ReadCloser, error)
}

// NewFilePart builds a FilePart around an arbitrary opener.
func NewFilePart(filename string, size int64, open func() (io.ReadCloser, error)) FilePart {
	return FilePart{Filename: filename, Size: size, open: open}
}

// PartFromHeader wraps a parsed multipart file header.
func PartFromHeader(fh *multipart.FileHeader) FilePart {
	return FilePart{
		Filename: fh.Filename,
		Size:     fh.Size,
		open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// Open returns a reader over the part's transient storage.
func (p FilePart) Open() (io.ReadCloser, error) {
	if p.open == nil {
		return nil, fmt.Errorf("file part %q has no backing storage", p.Filename)
	}
	return p.open()
}

// Envelope is a validated pair of file part and metadata.
// Both halves are present and well-formed, or NewEnvelope fails.
type Envelope struct {
	File     FilePart
	Metadata model.Metadata
}

// NewEnvelope validates the two parts of an upload. file is nil when the request
// had no "file" part and rawMetadata is nil when it had no "json" part.
//
// Checks run in a fixed order and the first failure wins: presence, part ceiling,
// filename, then metadata.
func NewEnvelope(file *FilePart, rawMetadata []byte, maxPartBytes int64) (*Envelope, error) {
	if file == nil {
		return nil, ErrMissingFile
	}
	if rawMetadata == nil {
		return nil, ErrMissingMetadata
	}
	if maxPartBytes > 0 && file.Size > maxPartBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d bytes", ErrPartTooLarge, file.Size, maxPartBytes)
	}
	if err := ValidateFilename(file.Filename); err != nil {
		return nil, err
	}

	meta, err := parseMetadata(rawMetadata)
	if err != nil {
		return nil, err
	}

	return &Envelope{File: *file, Metadata: meta}, nil
}

// ValidateFilename rejects names that would escape the upload directory.
// Anything else is accepted as-is.
func ValidateFilename(name string) error {
	if name == "" {
		return ErrMissingFilename
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return fmt.Errorf("%w: %q contains a path separator or NUL", ErrInvalidFilename, name)
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q contains ..", ErrInvalidFilename, name)
	}
	return nil
}

func parseMetadata(raw []byte) (model.Metadata, error) {
	var meta model.Metadata
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&meta); err != nil {
		return model.Metadata{}, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	if dec.More() {
		return model.Metadata{}, fmt.Errorf("%w: trailing data after JSON value", ErrInvalidMetadata)
	}
	if meta.Name == "" {
		return model.Metadata{}, fmt.Errorf("%w: name is required", ErrInvalidMetadata)
	}
	return meta, nil
}

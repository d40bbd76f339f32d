package model

import "fmt"

// DefaultMaxPartBytes is the default ceiling for a single multipart file part (100 MB).
const DefaultMaxPartBytes = int64(100 * 1024 * 1024)

// Metadata is the JSON document carried by the "json" part of an upload.
type Metadata struct {
	Name string `json:"name"`
}

// UploadOutcome describes a file that was fully copied into the upload directory.
// It is only produced after the copy completed; failed uploads never yield one.
type UploadOutcome struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Message is the plain-text confirmation returned to the client.
func (o UploadOutcome) Message() string {
	return fmt.Sprintf("Uploaded file %s, with size: %d", o.Name, o.Size)
}

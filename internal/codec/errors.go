package codec

import (
	"errors"
	"fmt"
)

// ErrMalformedPayload is matched by every MalformedPayloadError.
var ErrMalformedPayload = errors.New("malformed payload")

// MalformedPayloadError reports a body whose length does not match the record size.
type MalformedPayloadError struct {
	Expected int
	Actual   int
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("invalid payload size: expected %d bytes, got %d", e.Expected, e.Actual)
}

func (e *MalformedPayloadError) Unwrap() error { return ErrMalformedPayload }

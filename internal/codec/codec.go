// Package codec turns fully buffered request bodies into typed values.
//
// A Decoder is registered per target type and invoked by the route that needs
// it; there is no global registry. Decode failures are typed so callers can tell
// them apart from transport errors.
package codec

import (
	"bytes"

	"github.com/gofiber/fiber/v2"
)

// Decoder converts a complete body into a value of type T.
type Decoder[T any] interface {
	Decode(b []byte) (T, error)
}

// DecoderFunc adapts a plain function to the Decoder interface.
type DecoderFunc[T any] func(b []byte) (T, error)

// Decode calls f(b).
func (f DecoderFunc[T]) Decode(b []byte) (T, error) {
	return f(b)
}

// FromBody buffers the whole request body and runs d over it.
// The body is copied out of the request first because fasthttp reuses its buffers
// once the handler returns.
func FromBody[T any](c *fiber.Ctx, d Decoder[T]) (T, error) {
	body := bytes.Clone(c.Request().Body())
	if body == nil {
		body = []byte{}
	}
	return d.Decode(body)
}

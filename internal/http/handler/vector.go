package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"uploadapi/internal/codec"
)

// DecodeVector decodes a 24-byte big-endian body into a vector and echoes it as text.
//
// @Summary  Decode a binary vector
// @Accept   application/octet-stream
// @Produce  plain
// @Success  200 {string} string "1, 2, 3"
// @Failure  400 {object} errorPayload
// @Router   /vectors [post]
func DecodeVector() fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := codec.FromBody(c, codec.Vector3DDecoder)
		if err != nil {
			var mp *codec.MalformedPayloadError
			if errors.As(err, &mp) {
				return writeError(c, fiber.StatusBadRequest, "MALFORMED_PAYLOAD", mp.Error())
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendString(v.String())
	}
}

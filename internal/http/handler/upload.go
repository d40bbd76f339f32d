package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"uploadapi/internal/service"
)

// maxMetadataBytes caps a "json" part that arrives as a file rather than a form value.
const maxMetadataBytes = 1 << 20

// UploadVideo accepts a multipart body with a "file" part and a "json" metadata part
// and copies the file into the upload directory.
//
// @Summary  Upload a file with JSON metadata
// @Accept   multipart/form-data
// @Produce  plain
// @Param    file formData file   true "file to store"
// @Param    json formData string true "metadata, e.g. {\"name\":\"clip.mp4\"}"
// @Success  200 {string} string "Uploaded file clip.mp4, with size: 1024"
// @Failure  400 {object} errorPayload
// @Failure  413 {object} errorPayload
// @Failure  500 {object} errorPayload
// @Router   /videos [post]
func UploadVideo(svc service.UploadService, maxPartBytes int64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_MULTIPART", "request must be multipart/form-data")
		}

		file := filePart(form)

		meta, err := metadataPart(form)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_METADATA", "json part could not be read")
		}

		env, err := service.NewEnvelope(file, meta, maxPartBytes)
		if err != nil {
			return writeEnvelopeError(c, err)
		}

		out, err := svc.Ingest(c.UserContext(), env)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendString(out.Message())
	}
}

// filePart returns the "file" part, or nil when the form has none. A "file" part sent
// without a filename is parsed as a plain value; it is surfaced as a part with an
// empty name so the envelope reports the missing filename instead of a missing part.
func filePart(form *multipart.Form) *service.FilePart {
	if fhs := form.File["file"]; len(fhs) > 0 {
		p := service.PartFromHeader(fhs[0])
		return &p
	}
	if vs := form.Value["file"]; len(vs) > 0 {
		p := service.NewFilePart("", int64(len(vs[0])), nil)
		return &p
	}
	return nil
}

// metadataPart returns the raw "json" part, or nil when the form has none.
// Clients may send it as a plain field or as a file part with its own content type.
func metadataPart(form *multipart.Form) ([]byte, error) {
	if vs := form.Value["json"]; len(vs) > 0 {
		return []byte(vs[0]), nil
	}
	fhs := form.File["json"]
	if len(fhs) == 0 {
		return nil, nil
	}

	f, err := fhs[0].Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, maxMetadataBytes+1))
	if err != nil {
		return nil, err
	}
	if len(raw) > maxMetadataBytes {
		return nil, fmt.Errorf("json part exceeds %d bytes", maxMetadataBytes)
	}
	return raw, nil
}

func writeEnvelopeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrMissingFile):
		return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
	case errors.Is(err, service.ErrMissingMetadata):
		return writeError(c, fiber.StatusBadRequest, "METADATA_REQUIRED", "json metadata is required")
	case errors.Is(err, service.ErrPartTooLarge):
		return writeError(c, fiber.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", err.Error())
	case errors.Is(err, service.ErrMissingFilename):
		return writeError(c, fiber.StatusBadRequest, "FILENAME_REQUIRED", "file part must declare a filename")
	case errors.Is(err, service.ErrInvalidFilename):
		return writeError(c, fiber.StatusBadRequest, "INVALID_FILENAME", err.Error())
	case errors.Is(err, service.ErrInvalidMetadata):
		return writeError(c, fiber.StatusBadRequest, "INVALID_METADATA", err.Error())
	default:
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "bad request")
	}
}

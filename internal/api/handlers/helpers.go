package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"fintrack/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// maxReceiptBytes is the upload ceiling for receipt files.
const maxReceiptBytes = 5 * 1024 * 1024

var allowedReceiptTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

func getUserID(c *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := c.Locals("userID").(string)
	if !ok {
		return uuid.Nil, errors.New("missing user ID in context")
	}
	return uuid.Parse(raw)
}

func parseIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}

// readReceipt reads and validates the "receipt" multipart field. A missing
// field is not an error: the returned upload is nil.
func readReceipt(c *fiber.Ctx) (*service.Upload, error) {
	fileHeader, err := c.FormFile("receipt")
	if err != nil {
		return nil, nil
	}
	return openReceipt(fileHeader)
}

func openReceipt(fileHeader *multipart.FileHeader) (*service.Upload, error) {
	if fileHeader.Size > maxReceiptBytes {
		return nil, service.ErrFileTooLarge
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	if len(data) > maxReceiptBytes {
		return nil, service.ErrFileTooLarge
	}

	// Sniff the content instead of trusting the declared type.
	mimeType := http.DetectContentType(data)
	if !allowedReceiptTypes[mimeType] {
		return nil, service.ErrUnsupportedFile
	}

	return &service.Upload{
		Data:     data,
		MimeType: mimeType,
		Filename: fileHeader.Filename,
	}, nil
}

package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers any record the caller does not own or that does
	// not exist. Ownership failures are indistinguishable from absence.
	ErrNotFound = errors.New("record not found")

	ErrUserExists         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrConversionUnavailable means a PDF was uploaded but no renderer is
	// usable in this process. Retrying the same upload will not help.
	ErrConversionUnavailable = errors.New("PDF conversion is not available, please upload an image of the receipt or install PDF rendering support")

	ErrUnsupportedFile = errors.New("unsupported file type, expected JPEG, PNG, WebP or PDF")
	ErrFileTooLarge    = errors.New("file exceeds the 5 MB upload limit")
)

// Pipeline stage names, used to tag failures with where they happened.
const (
	StageStaged     = "staged"
	StageRasterized = "rasterized"
	StageCompressed = "compressed"
	StageExtracted  = "extracted"
	StageNormalized = "normalized"
	StagePersisted  = "persisted"
)

// StageError wraps a receipt pipeline failure with the stage it occurred in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("receipt pipeline failed at %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

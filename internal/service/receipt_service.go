package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"fintrack/internal/currency"
	"fintrack/internal/document"
	"fintrack/internal/storage"
	"fintrack/internal/vision"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Rasterizer renders a PDF into a single image. ToImage is best effort:
// failures are reported as false, only Probe distinguishes "renderer is
// missing" from "this document failed".
type Rasterizer interface {
	Probe() document.Capability
	ToImage(ctx context.Context, pdfPath, outPath string) bool
}

type Compressor interface {
	Compress(ctx context.Context, sourcePath, destinationPath string) error
}

type Extractor interface {
	Extract(ctx context.Context, imagePath string) (*vision.ExtractionResult, error)
}

type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, fromCurrency string) (*currency.ConversionResult, error)
}

// Upload is a receipt file as received from the transport layer.
type Upload struct {
	Data     []byte
	MimeType string
	Filename string
}

func (u Upload) IsPDF() bool { return u.MimeType == "application/pdf" }

// Mode selects whether a processed receipt is also written to durable
// storage or only analyzed.
type Mode int

const (
	ModeAnalyze Mode = iota
	ModePersist
)

// ReceiptResult is the outcome of a successful pipeline run. StoragePath is
// set only in persist mode.
type ReceiptResult struct {
	Extraction  *vision.ExtractionResult
	Conversion  *currency.ConversionResult
	StoragePath *string
}

type ReceiptService struct {
	rasterizer  Rasterizer
	compressor  Compressor
	extractor   Extractor
	converter   Converter
	store       storage.Storage
	scratchBase string
	logger      *zap.Logger
}

func NewReceiptService(
	rasterizer Rasterizer,
	compressor Compressor,
	extractor Extractor,
	converter Converter,
	store storage.Storage,
	scratchBase string,
	logger *zap.Logger,
) *ReceiptService {
	return &ReceiptService{
		rasterizer:  rasterizer,
		compressor:  compressor,
		extractor:   extractor,
		converter:   converter,
		store:       store,
		scratchBase: scratchBase,
		logger:      logger,
	}
}

// Process runs the full receipt pipeline: stage the upload in a scratch
// directory, rasterize PDFs, compress, extract the purchase with the vision
// model and normalize the amount into the base currency. In persist mode
// the original PDF (or the compressed image) is also written to durable
// storage. Scratch files are removed on every path, success or failure.
func (s *ReceiptService) Process(ctx context.Context, upload Upload, mode Mode) (*ReceiptResult, error) {
	if upload.IsPDF() && !s.rasterizer.Probe().Available() {
		return nil, ErrConversionUnavailable
	}

	scratch, err := newScratchDir(s.scratchBase)
	if err != nil {
		return nil, &StageError{Stage: StageStaged, Err: err}
	}
	defer scratch.Cleanup(s.logger)

	originalPath := scratch.Join("original" + extForMime(upload.MimeType))
	if err := os.WriteFile(originalPath, upload.Data, 0o644); err != nil {
		return nil, &StageError{Stage: StageStaged, Err: err}
	}

	imagePath := originalPath
	if upload.IsPDF() {
		imagePath = scratch.Join("converted.jpg")
		if !s.rasterizer.ToImage(ctx, originalPath, imagePath) {
			return nil, &StageError{Stage: StageRasterized, Err: document.ErrRenderFailed}
		}
	}

	analysisPath := scratch.Join("compressed" + filepath.Ext(imagePath))
	if err := s.compressor.Compress(ctx, imagePath, analysisPath); err != nil {
		s.logger.Error("Receipt compression failed", zap.Error(err))
		return nil, &StageError{Stage: StageCompressed, Err: err}
	}

	extraction, err := s.extractor.Extract(ctx, analysisPath)
	if err != nil {
		return nil, &StageError{Stage: StageExtracted, Err: err}
	}

	conversion, err := s.converter.Convert(ctx, extraction.Amount, extraction.Currency)
	if err != nil {
		return nil, &StageError{Stage: StageNormalized, Err: err}
	}

	result := &ReceiptResult{
		Extraction: extraction,
		Conversion: conversion,
	}

	if mode == ModePersist {
		key, err := s.persist(ctx, upload, analysisPath)
		if err != nil {
			return nil, &StageError{Stage: StagePersisted, Err: err}
		}
		result.StoragePath = &key
	}

	return result, nil
}

// Store writes the upload to durable storage without analyzing it, for
// expenses created with an explicit amount. Images are compressed first,
// PDFs are stored as uploaded.
func (s *ReceiptService) Store(ctx context.Context, upload Upload) (string, error) {
	scratch, err := newScratchDir(s.scratchBase)
	if err != nil {
		return "", &StageError{Stage: StageStaged, Err: err}
	}
	defer scratch.Cleanup(s.logger)

	originalPath := scratch.Join("original" + extForMime(upload.MimeType))
	if err := os.WriteFile(originalPath, upload.Data, 0o644); err != nil {
		return "", &StageError{Stage: StageStaged, Err: err}
	}

	storePath := originalPath
	if !upload.IsPDF() {
		compressedPath := scratch.Join("compressed" + filepath.Ext(originalPath))
		if err := s.compressor.Compress(ctx, originalPath, compressedPath); err != nil {
			s.logger.Warn("Receipt compression failed, storing original", zap.Error(err))
		} else {
			storePath = compressedPath
		}
	}

	key, err := s.save(ctx, storePath, extForMime(upload.MimeType))
	if err != nil {
		return "", &StageError{Stage: StagePersisted, Err: err}
	}
	return key, nil
}

// Remove deletes a previously stored receipt. Missing objects are ignored.
func (s *ReceiptService) Remove(ctx context.Context, key string) error {
	return s.store.Delete(ctx, key)
}

// persist chooses what survives: the original bytes for a PDF, so nothing
// is lost to rasterization, and the compressed image otherwise.
func (s *ReceiptService) persist(ctx context.Context, upload Upload, compressedPath string) (string, error) {
	if upload.IsPDF() {
		key := receiptKey(".pdf")
		if err := s.store.Save(ctx, key, upload.Data); err != nil {
			return "", err
		}
		return key, nil
	}
	return s.save(ctx, compressedPath, extForMime(upload.MimeType))
}

func (s *ReceiptService) save(ctx context.Context, path, ext string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	key := receiptKey(ext)
	if err := s.store.Save(ctx, key, data); err != nil {
		return "", err
	}
	return key, nil
}

func receiptKey(ext string) string {
	return "receipts/" + uuid.NewString() + ext
}

func extForMime(mimeType string) string {
	switch mimeType {
	case "application/pdf":
		return ".pdf"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// scratchDir is a per-upload working directory. Cleanup may be called any
// number of times; only the first removes anything.
type scratchDir struct {
	path string
	once sync.Once
}

func newScratchDir(base string) (*scratchDir, error) {
	if base == "" {
		base = os.TempDir()
	}
	path := filepath.Join(base, "receipt_"+uuid.NewString())
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	return &scratchDir{path: path}, nil
}

func (d *scratchDir) Join(name string) string {
	return filepath.Join(d.path, name)
}

func (d *scratchDir) Cleanup(logger *zap.Logger) {
	d.once.Do(func() {
		if err := os.RemoveAll(d.path); err != nil {
			logger.Warn("Failed to remove scratch directory",
				zap.String("path", d.path),
				zap.Error(err),
			)
		}
	})
}

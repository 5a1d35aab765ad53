package document

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"

	"github.com/gen2brain/go-fitz"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// probePDF is a minimal one-page document used to verify the PDF renderer
// actually works in this process before committing to the PDF branch.
const probePDF = "%PDF-1.4\n" +
	"1 0 obj<</Type/Catalog/Pages 2 0 R>>endobj\n" +
	"2 0 obj<</Type/Pages/Kids[3 0 R]/Count 1>>endobj\n" +
	"3 0 obj<</Type/Page/Parent 2 0 R/MediaBox[0 0 72 72]>>endobj\n" +
	"trailer<</Root 1 0 R/Size 4>>\n" +
	"%%EOF\n"

// Capability is the result of probing for PDF rendering support.
type Capability struct {
	available bool
	reason    string
}

func (c Capability) Available() bool { return c.available }
func (c Capability) Reason() string  { return c.reason }

// NewCapability builds a Capability value, mainly so other packages can fake
// a prober.
func NewCapability(available bool, reason string) Capability {
	return Capability{available: available, reason: reason}
}

// Rasterizer converts multi-page PDFs into a single raster image suitable
// for vision-model input. Its contract is best effort: render and stitch
// failures are logged and surface as false, not as errors.
type Rasterizer struct {
	stitcher Stitcher
	logger   *zap.Logger

	probeOnce sync.Once
	probed    Capability
}

func NewRasterizer(logger *zap.Logger) *Rasterizer {
	return &Rasterizer{
		stitcher: pickStitcher(),
		logger:   logger,
	}
}

// Probe checks once whether the renderer can open a PDF in this process.
// Callers must treat Unavailable as terminal and non-retryable, distinct
// from a render failure.
func (r *Rasterizer) Probe() Capability {
	r.probeOnce.Do(func() {
		doc, err := fitz.NewFromMemory([]byte(probePDF))
		if err != nil {
			r.probed = Capability{reason: err.Error()}
			return
		}
		doc.Close()
		r.probed = Capability{available: true}
	})
	return r.probed
}

// ToImage renders the PDF at pdfPath into a single JPEG at outPath.
// Multi-page documents are rendered page by page into a temporary directory
// and stitched vertically; the intermediates are removed whether or not
// stitching succeeds.
func (r *Rasterizer) ToImage(ctx context.Context, pdfPath, outPath string) bool {
	if !r.Probe().Available() {
		r.logger.Warn("PDF rendering not available", zap.String("reason", r.Probe().Reason()))
		return false
	}

	if err := ctx.Err(); err != nil {
		r.logger.Warn("PDF conversion canceled", zap.Error(err))
		return false
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		r.logger.Error("Failed to open PDF", zap.String("file", pdfPath), zap.Error(err))
		return false
	}
	defer doc.Close()

	pageCount := doc.NumPage()

	if pageCount <= 1 {
		if err := r.renderPage(doc, 0, outPath); err != nil {
			r.logger.Error("Failed to render PDF page", zap.String("file", pdfPath), zap.Error(err))
			return false
		}
		return r.validateOutput(outPath)
	}

	if r.stitcher == nil {
		r.logger.Error("Cannot stitch multi-page PDF", zap.Error(ErrNoStitchBackend))
		return false
	}

	tempDir := filepath.Join(filepath.Dir(outPath), "pdf_pages_"+uuid.NewString())
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		r.logger.Error("Failed to create page directory", zap.Error(err))
		return false
	}
	defer os.RemoveAll(tempDir)

	pagePaths := make([]string, 0, pageCount)
	for page := 0; page < pageCount; page++ {
		pagePath := filepath.Join(tempDir, fmt.Sprintf("page_%d.jpg", page+1))
		if err := r.renderPage(doc, page, pagePath); err != nil {
			r.logger.Error("Failed to render PDF page",
				zap.String("file", pdfPath),
				zap.Int("page", page+1),
				zap.Error(err),
			)
			return false
		}
		pagePaths = append(pagePaths, pagePath)
	}

	if err := r.stitcher.Stitch(pagePaths, outPath); err != nil {
		r.logger.Error("Failed to stitch PDF pages",
			zap.String("backend", r.stitcher.Name()),
			zap.Error(err),
		)
		return false
	}

	return r.validateOutput(outPath)
}

func (r *Rasterizer) renderPage(doc *fitz.Document, page int, outPath string) error {
	img, err := doc.Image(page)
	if err != nil {
		return fmt.Errorf("rendering page %d: %w", page+1, err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating page image: %w", err)
	}
	defer out.Close()

	return jpeg.Encode(out, img, &jpeg.Options{Quality: jpegQuality})
}

// validateOutput enforces the size and resolution ceilings on the produced
// image. Violations are logged with the actual numbers and surface as false.
func (r *Rasterizer) validateOutput(outPath string) bool {
	if err := CheckImageLimits(outPath); err != nil {
		r.logger.Error("Rasterized image exceeds limits", zap.String("file", outPath), zap.Error(err))
		return false
	}
	return true
}

// CheckImageLimits returns an ImageTooLargeError when the image at path
// exceeds the byte or megapixel ceiling.
func CheckImageLimits(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat image: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	var megapixels float64
	if cfg, _, err := image.DecodeConfig(f); err == nil {
		megapixels = float64(cfg.Width) * float64(cfg.Height) / 1e6
	}

	if info.Size() > MaxImageBytes || megapixels > MaxImageMegapixels {
		return &ImageTooLargeError{SizeBytes: info.Size(), Megapixels: megapixels}
	}
	return nil
}

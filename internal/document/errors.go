package document

import (
	"errors"
	"fmt"
)

// ErrNoStitchBackend means neither image backend can stitch pages.
var ErrNoStitchBackend = errors.New("no image backend available for stitching")

// ErrRenderFailed means a PDF could not be turned into an image. The
// per-page cause stays in the logs; callers get one error.
var ErrRenderFailed = errors.New("failed to convert PDF receipt to an image")

// Ceilings for images handed to the vision extractor. The byte ceiling sits
// below the provider's nominal 4 MiB cap to leave room for base64 expansion.
const (
	MaxImageBytes      = 3 * 1024 * 1024
	MaxImageMegapixels = 33.0
)

// ImageTooLargeError reports the actual size so the caller can suggest a
// remedy (fewer pages, lower resolution).
type ImageTooLargeError struct {
	SizeBytes  int64
	Megapixels float64
}

func (e *ImageTooLargeError) Error() string {
	if e.SizeBytes > MaxImageBytes {
		return fmt.Sprintf("image is too large (%.1fMB, maximum 3MB); try a PDF with fewer pages or lower resolution",
			float64(e.SizeBytes)/1024/1024)
	}
	return fmt.Sprintf("image resolution is too high (%.1f megapixels, maximum 33); try a PDF with fewer pages or lower resolution",
		e.Megapixels)
}

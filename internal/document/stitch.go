package document

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png" // register PNG decoder for stitch input
	"os"

	"github.com/disintegration/imaging"
)

const jpegQuality = 85

// Stitcher combines per-page images into one tall composite: pages stacked
// top to bottom, canvas width equal to the widest page, white fill behind
// narrower pages.
type Stitcher interface {
	Name() string
	Available() bool
	Stitch(pagePaths []string, outPath string) error
}

// pickStitcher returns the first available backend, preferring the imaging
// library over the standard-library fallback.
func pickStitcher() Stitcher {
	for _, s := range []Stitcher{&imagingStitcher{}, &drawStitcher{}} {
		if s.Available() {
			return s
		}
	}
	return nil
}

type imagingStitcher struct{}

func (s *imagingStitcher) Name() string    { return "imaging" }
func (s *imagingStitcher) Available() bool { return true }

func (s *imagingStitcher) Stitch(pagePaths []string, outPath string) error {
	if len(pagePaths) == 0 {
		return fmt.Errorf("stitch: no page images")
	}

	pages := make([]image.Image, 0, len(pagePaths))
	maxWidth, totalHeight := 0, 0
	for _, path := range pagePaths {
		img, err := imaging.Open(path)
		if err != nil {
			return fmt.Errorf("stitch: opening page %s: %w", path, err)
		}
		bounds := img.Bounds()
		if bounds.Dx() > maxWidth {
			maxWidth = bounds.Dx()
		}
		totalHeight += bounds.Dy()
		pages = append(pages, img)
	}

	canvas := imaging.New(maxWidth, totalHeight, color.White)
	y := 0
	for _, img := range pages {
		canvas = imaging.Paste(canvas, img, image.Pt(0, y))
		y += img.Bounds().Dy()
	}

	return imaging.Save(canvas, outPath, imaging.JPEGQuality(jpegQuality))
}

type drawStitcher struct{}

func (s *drawStitcher) Name() string    { return "draw" }
func (s *drawStitcher) Available() bool { return true }

func (s *drawStitcher) Stitch(pagePaths []string, outPath string) error {
	if len(pagePaths) == 0 {
		return fmt.Errorf("stitch: no page images")
	}

	pages := make([]image.Image, 0, len(pagePaths))
	maxWidth, totalHeight := 0, 0
	for _, path := range pagePaths {
		img, err := decodeImage(path)
		if err != nil {
			return fmt.Errorf("stitch: decoding page %s: %w", path, err)
		}
		bounds := img.Bounds()
		if bounds.Dx() > maxWidth {
			maxWidth = bounds.Dx()
		}
		totalHeight += bounds.Dy()
		pages = append(pages, img)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, maxWidth, totalHeight))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	y := 0
	for _, img := range pages {
		h := img.Bounds().Dy()
		w := img.Bounds().Dx()
		draw.Draw(canvas, image.Rect(0, y, w, y+h), img, img.Bounds().Min, draw.Over)
		y += h
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("stitch: creating output: %w", err)
	}
	defer out.Close()

	return jpeg.Encode(out, canvas, &jpeg.Options{Quality: jpegQuality})
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

// Package ela implements error-level analysis: an image is recompressed as
// JPEG at a fixed quality and compared pixel by pixel with the original.
// Regions edited after the last save recompress differently and raise the
// mean deviation.
package ela

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/webp"

	"pratyaksh/internal/domain"
)

// Quality is the JPEG quality used for the recompressed copy.
const Quality = 90

var ErrEmptyImage = errors.New("image has no pixels")

// Result holds the deviation between an image and its recompressed copy on
// the 0-255 channel scale.
type Result struct {
	Mean float64
	Max  uint8
}

type Analyzer struct {
	quality int
}

func New() *Analyzer { return &Analyzer{quality: Quality} }

// Analyze returns the mean absolute per-channel deviation for media.
func (a *Analyzer) Analyze(ctx context.Context, media domain.MediaReference) (float64, error) {
	res, err := a.AnalyzeFile(ctx, media.Path)
	if err != nil {
		return 0, err
	}
	return res.Mean, nil
}

func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open media: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return Result{}, fmt.Errorf("decode image: %w", err)
	}
	return a.Compare(ctx, img)
}

// Compare recompresses img in memory and measures the difference.
func (a *Analyzer) Compare(ctx context.Context, img image.Image) (Result, error) {
	b := img.Bounds()
	if b.Empty() {
		return Result{}, ErrEmptyImage
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: a.quality}); err != nil {
		return Result{}, fmt.Errorf("recompress: %w", err)
	}
	resaved, err := jpeg.Decode(&buf)
	if err != nil {
		return Result{}, fmt.Errorf("decode recompressed: %w", err)
	}

	rb := resaved.Bounds()
	var (
		sum  uint64
		peak uint8
	)
	for y := 0; y < b.Dy(); y++ {
		if y%64 == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}
		for x := 0; x < b.Dx(); x++ {
			r1, g1, b1, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			r2, g2, b2, _ := resaved.At(rb.Min.X+x, rb.Min.Y+y).RGBA()
			for _, d := range [3]uint8{absDiff(r1, r2), absDiff(g1, g2), absDiff(b1, b2)} {
				sum += uint64(d)
				if d > peak {
					peak = d
				}
			}
		}
	}

	n := uint64(b.Dx()) * uint64(b.Dy()) * 3
	return Result{Mean: float64(sum) / float64(n), Max: peak}, nil
}

// absDiff compares two 16-bit color channels at 8-bit precision.
func absDiff(a, b uint32) uint8 {
	a8, b8 := uint8(a>>8), uint8(b>>8)
	if a8 > b8 {
		return a8 - b8
	}
	return b8 - a8
}

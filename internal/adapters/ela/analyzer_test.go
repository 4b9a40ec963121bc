package ela

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pratyaksh/internal/domain"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func noisy(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	seed := uint32(7)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			seed = seed*1664525 + 1013904223
			img.Set(x, y, color.RGBA{R: uint8(seed >> 24), G: uint8(seed >> 16), B: uint8(seed >> 8), A: 255})
		}
	}
	return img
}

func TestCompare_FlatImageBarelyDeviates(t *testing.T) {
	res, err := New().Compare(context.Background(), solid(64, 64, color.RGBA{R: 40, G: 120, B: 200, A: 255}))
	require.NoError(t, err)
	assert.Less(t, res.Mean, 2.0)
}

func TestCompare_NoiseDeviatesMore(t *testing.T) {
	a := New()
	flat, err := a.Compare(context.Background(), solid(64, 64, color.Gray{Y: 128}))
	require.NoError(t, err)
	noise, err := a.Compare(context.Background(), noisy(64, 64))
	require.NoError(t, err)

	assert.Greater(t, noise.Mean, flat.Mean)
	assert.Greater(t, noise.Mean, 5.0)
	assert.GreaterOrEqual(t, float64(noise.Max), noise.Mean)
	assert.LessOrEqual(t, noise.Mean, 255.0)
}

func TestCompare_Empty(t *testing.T) {
	_, err := New().Compare(context.Background(), image.NewRGBA(image.Rect(0, 0, 0, 0)))
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestCompare_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Compare(ctx, noisy(16, 16))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyze_PNGFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, noisy(32, 32)))
	require.NoError(t, f.Close())

	score, err := New().Analyze(context.Background(), domain.MediaReference{Path: path})
	require.NoError(t, err)
	assert.Greater(t, score, 0.0)
}

func TestAnalyze_NotAnImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.jpg")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o600))

	_, err := New().Analyze(context.Background(), domain.MediaReference{Path: path})
	assert.Error(t, err)
}

package gifgen

import (
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int, c color.Color, mod time.Time) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	in := t.TempDir()
	out := t.TempDir()
	base := time.Date(2025, 6, 28, 3, 55, 0, 0, time.UTC)

	// b is older than a, so it comes first
	writePNG(t, filepath.Join(in, "a.png"), 20, 10, color.White, base.Add(time.Minute))
	writePNG(t, filepath.Join(in, "b.png"), 20, 10, color.Black, base)
	writePNG(t, filepath.Join(in, "c.png"), 40, 20, color.White, base.Add(2*time.Minute))

	frames, err := Frames(filepath.Join(in, "*.png"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(in, "b.png"),
		filepath.Join(in, "a.png"),
		filepath.Join(in, "c.png"),
	}, frames)

	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	path, err := Generate(Options{
		Pattern:   filepath.Join(in, "*.png"),
		OutputDir: out,
		Duration:  200,
		Now:       now,
	})
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))
	assert.Equal(t, filepath.Join(out, "20250701", "1751371200.gif"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	anim, err := gif.DecodeAll(f)
	require.NoError(t, err)
	require.Len(t, anim.Image, 3)
	assert.Equal(t, []int{20, 20, 20}, anim.Delay)
	assert.Equal(t, 0, anim.LoopCount)
	for _, img := range anim.Image {
		assert.Equal(t, 20, img.Bounds().Dx())
		assert.Equal(t, 10, img.Bounds().Dy())
	}

	r, g, b, _ := anim.Image[0].At(0, 0).RGBA()
	assert.Zero(t, r+g+b)
}

func TestGenerateErrors(t *testing.T) {
	t.Parallel()

	_, err := Generate(Options{Pattern: "*.png", OutputDir: filepath.Join(t.TempDir(), "missing")})
	assert.ErrorContains(t, err, "does not exist")

	_, err = Generate(Options{Pattern: filepath.Join(t.TempDir(), "*.png"), OutputDir: t.TempDir()})
	assert.ErrorIs(t, err, ErrNoFrames)
}

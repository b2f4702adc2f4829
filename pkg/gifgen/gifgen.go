// Package gifgen assembles animated GIFs from image frames.
package gifgen

import (
	"errors"
	"fmt"
	"image"
	"image/color/palette"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fendo/catmlib/pkg/logging"
	"golang.org/x/image/draw"
)

var logger logging.Logger = logging.Discard()

func SetLogger(l logging.Logger) {
	logger = l
}

var ErrNoFrames = errors.New("no input frames match the pattern")

type Options struct {
	// Pattern is a glob of input frames.
	Pattern   string
	OutputDir string
	// Duration is the display time of one frame in milliseconds.
	Duration int
	Now      time.Time
}

type frame struct {
	path    string
	modTime time.Time
}

// Frames returns the files matching pattern ordered by modification time,
// then name.
func Frames(pattern string) ([]string, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	frames := make([]frame, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			continue
		}
		frames = append(frames, frame{path: p, modTime: info.ModTime()})
	}
	sort.SliceStable(frames, func(i, j int) bool {
		if !frames[i].modTime.Equal(frames[j].modTime) {
			return frames[i].modTime.Before(frames[j].modTime)
		}
		return frames[i].path < frames[j].path
	})

	out := make([]string, len(frames))
	for i, f := range frames {
		out[i] = f.path
	}
	return out, nil
}

// Generate writes OutputDir/YYYYMMDD/<unix seconds>.gif and returns its
// absolute path.
func Generate(opts Options) (string, error) {
	info, err := os.Stat(opts.OutputDir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("output directory %s does not exist", opts.OutputDir)
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Duration <= 0 {
		opts.Duration = 200
	}

	files, err := Frames(opts.Pattern)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", ErrNoFrames
	}

	anim := &gif.GIF{LoopCount: 0}
	delay := int(math.Round(float64(opts.Duration) / 10))
	var size image.Rectangle
	for i, f := range files {
		img, err := decode(f)
		if err != nil {
			return "", err
		}
		if i == 0 {
			size = image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy())
		}
		anim.Image = append(anim.Image, toPaletted(img, size))
		anim.Delay = append(anim.Delay, delay)
	}
	logger.Info(fmt.Sprintf("Read %d frames", len(files)), "gifgen")

	dir := filepath.Join(opts.OutputDir, opts.Now.Format("20060102"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating %s: %w", dir, err)
	}
	out := filepath.Join(dir, fmt.Sprintf("%d.gif", opts.Now.Unix()))

	w, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("error creating %s: %w", out, err)
	}
	if err := gif.EncodeAll(w, anim); err != nil {
		w.Close()
		return "", fmt.Errorf("error encoding %s: %w", out, err)
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return filepath.Abs(out)
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", path, err)
	}
	return img, nil
}

// toPaletted scales img to size when needed and dithers it onto the Plan 9
// palette.
func toPaletted(img image.Image, size image.Rectangle) *image.Paletted {
	src := img
	if img.Bounds().Dx() != size.Dx() || img.Bounds().Dy() != size.Dy() {
		scaled := image.NewRGBA(size)
		draw.CatmullRom.Scale(scaled, size, img, img.Bounds(), draw.Src, nil)
		src = scaled
	}
	dst := image.NewPaletted(size, palette.Plan9)
	draw.FloydSteinberg.Draw(dst, size, src, src.Bounds().Min)
	return dst
}

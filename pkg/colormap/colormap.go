// Package colormap provides the named colour maps used by the pad and
// detector plots.
package colormap

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
)

// Stop is one control point of a piecewise linear colour map.
type Stop struct {
	At    float64
	Color color.RGBA
}

// Segmented is a piecewise linear palette.ColorMap.
type Segmented struct {
	stops    []Stop
	min, max float64
	alpha    float64
}

func NewSegmented(stops []Stop) *Segmented {
	return &Segmented{stops: stops, min: 0, max: 1, alpha: 1}
}

func (s *Segmented) At(v float64) (color.Color, error) {
	switch {
	case math.IsNaN(v):
		return nil, palette.ErrNaN
	case v < s.min:
		return nil, palette.ErrUnderflow
	case v > s.max:
		return nil, palette.ErrOverflow
	}
	f := 0.0
	if s.max > s.min {
		f = (v - s.min) / (s.max - s.min)
	}

	for i := 1; i < len(s.stops); i++ {
		lo, hi := s.stops[i-1], s.stops[i]
		if f > hi.At && i < len(s.stops)-1 {
			continue
		}
		t := 0.0
		if hi.At > lo.At {
			t = (f - lo.At) / (hi.At - lo.At)
		}
		return color.NRGBA{
			R: lerp(lo.Color.R, hi.Color.R, t),
			G: lerp(lo.Color.G, hi.Color.G, t),
			B: lerp(lo.Color.B, hi.Color.B, t),
			A: uint8(math.Round(s.alpha * 255)),
		}, nil
	}
	return s.stops[0].Color, nil
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

func (s *Segmented) Max() float64 { return s.max }
func (s *Segmented) Min() float64 { return s.min }
func (s *Segmented) SetMax(v float64) { s.max = v }
func (s *Segmented) SetMin(v float64) { s.min = v }
func (s *Segmented) Alpha() float64 { return s.alpha }
func (s *Segmented) SetAlpha(alpha float64) { s.alpha = alpha }

// Palette samples n colours evenly between Min and Max.
func (s *Segmented) Palette(n int) palette.Palette {
	return Sample(s, n)
}

// Reversed returns the same map with its stops mirrored.
func (s *Segmented) Reversed() *Segmented {
	stops := make([]Stop, len(s.stops))
	for i, st := range s.stops {
		stops[len(s.stops)-1-i] = Stop{At: 1 - st.At, Color: st.Color}
	}
	return NewSegmented(stops)
}

type colors []color.Color

func (c colors) Colors() []color.Color { return c }

// Sample takes n evenly spaced colours from a colour map, including both ends.
func Sample(cm palette.ColorMap, n int) palette.Palette {
	out := make(colors, n)
	lo, hi := cm.Min(), cm.Max()
	for i := 0; i < n; i++ {
		v := lo
		if n > 1 {
			v = lo + (hi-lo)*float64(i)/float64(n-1)
		}
		c, err := cm.At(v)
		if err != nil {
			c = color.Black
		}
		out[i] = c
	}
	return out
}

var viridisHex = []string{
	"#440154", "#482878", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

func viridis() *Segmented {
	stops := make([]Stop, len(viridisHex))
	for i, h := range viridisHex {
		c, _ := ParseHex(h)
		stops[i] = Stop{At: float64(i) / float64(len(viridisHex)-1), Color: c}
	}
	return NewSegmented(stops)
}

func terrain() *Segmented {
	return NewSegmented([]Stop{
		{0.00, color.RGBA{51, 51, 153, 255}},
		{0.15, color.RGBA{0, 153, 255, 255}},
		{0.25, color.RGBA{0, 204, 102, 255}},
		{0.50, color.RGBA{255, 255, 153, 255}},
		{0.75, color.RGBA{128, 92, 84, 255}},
		{1.00, color.RGBA{255, 255, 255, 255}},
	})
}

func blues() *Segmented {
	return NewSegmented([]Stop{
		{0.0, color.RGBA{247, 251, 255, 255}},
		{0.5, color.RGBA{107, 174, 214, 255}},
		{1.0, color.RGBA{8, 48, 107, 255}},
	})
}

func heat() *Segmented {
	return NewSegmented([]Stop{
		{0.000, color.RGBA{10, 0, 0, 255}},
		{0.365, color.RGBA{255, 0, 0, 255}},
		{0.746, color.RGBA{255, 255, 0, 255}},
		{1.000, color.RGBA{255, 255, 255, 255}},
	})
}

// Get returns a colour map by name. A "_r" suffix reverses segmented maps.
func Get(name string) (palette.ColorMap, error) {
	reversed := strings.HasSuffix(name, "_r")
	base := strings.TrimSuffix(name, "_r")

	var seg *Segmented
	switch base {
	case "viridis":
		seg = viridis()
	case "terrain":
		seg = terrain()
	case "blues", "Blues":
		seg = blues()
	case "heat", "hot":
		seg = heat()
	case "blackbody":
		if reversed {
			break
		}
		cm := moreland.BlackBody()
		cm.SetMin(0)
		cm.SetMax(1)
		return cm, nil
	case "bluered":
		if reversed {
			break
		}
		cm := moreland.SmoothBlueRed()
		cm.SetMin(0)
		cm.SetMax(1)
		return cm, nil
	}
	if seg == nil {
		return nil, fmt.Errorf("unknown colour map %q", name)
	}
	if reversed {
		seg = seg.Reversed()
	}
	return seg, nil
}

// ParseHex parses "#rrggbb" or "#rgb".
func ParseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// MustHex is ParseHex for constant colours.
func MustHex(s string) color.RGBA {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex formats a colour as "#rrggbb".
func Hex(c color.Color) string {
	r, g, b := rgb8(c)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// RGB formats a colour as "rgb(r,g,b)".
func RGB(c color.Color) string {
	r, g, b := rgb8(c)
	return fmt.Sprintf("rgb(%d,%d,%d)", r, g, b)
}

func rgb8(c color.Color) (uint8, uint8, uint8) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return n.R, n.G, n.B
}

package dataforming

import (
	"io"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// HistogramFromPoints expands (x, count) pairs into raw samples.
func HistogramFromPoints(x, y []int) []int {
	var out []int
	for i := 0; i < len(x) && i < len(y); i++ {
		for k := 0; k < y[i]; k++ {
			out = append(out, x[i])
		}
	}
	return out
}

// FindPeaks returns the strict interior local maxima of data.
func FindPeaks[T int | float64](data []T) (int, []int) {
	if len(data) < 3 {
		return 0, []int{}
	}
	indices := []int{}
	for i := 1; i < len(data)-1; i++ {
		if data[i] > data[i-1] && data[i] > data[i+1] {
			indices = append(indices, i)
		}
	}
	return len(indices), indices
}

// RebinHistogram sums every run of n bins. A trailing partial run is kept.
func RebinHistogram(data []float64, n int) []float64 {
	if n <= 1 {
		return append([]float64(nil), data...)
	}
	out := make([]float64, 0, (len(data)+n-1)/n)
	for i := 0; i < len(data); i += n {
		end := min(i+n, len(data))
		out = append(out, floats.Sum(data[i:end]))
	}
	return out
}

// TransformList maps bin indices back to channels.
func TransformList(indices []int, coef, offset int) []int {
	out := make([]int, len(indices))
	for i, v := range indices {
		out[i] = v*coef + offset
	}
	return out
}

// GaussianFilter1D smooths data with a normalised Gaussian kernel of
// radius int(4*sigma+0.5). Edges are mirrored including the edge sample.
func GaussianFilter1D(data []float64, sigma float64) []float64 {
	out := make([]float64, len(data))
	if sigma <= 0 || len(data) == 0 {
		copy(out, data)
		return out
	}

	radius := int(4*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	for i := -radius; i <= radius; i++ {
		kernel[i+radius] = math.Exp(-0.5 * float64(i*i) / (sigma * sigma))
	}
	floats.Scale(1/floats.Sum(kernel), kernel)

	n := len(data)
	for i := range data {
		var acc float64
		for k := -radius; k <= radius; k++ {
			acc += kernel[k+radius] * data[reflect(i+k, n)]
		}
		out[i] = acc
	}
	return out
}

// reflect maps an index onto [0, n) with (d c b a | a b c d | d c b a).
func reflect(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}

// TerminalRebin averages data into bins chunks, padding with zeros when
// there are fewer samples than bins.
func TerminalRebin(data []float64, bins int) []float64 {
	n := len(data)
	if bins >= n {
		out := make([]float64, bins)
		copy(out, data)
		return out
	}
	size := float64(n) / float64(bins)
	out := make([]float64, bins)
	for i := 0; i < bins; i++ {
		start := int(float64(i) * size)
		end := int(float64(i+1) * size)
		if end <= start {
			end = start + 1
		}
		out[i] = floats.Sum(data[start:end]) / float64(end-start)
	}
	return out
}

// NormalizeHeights scales data so the maximum is height.
func NormalizeHeights(data []float64, height int) []int {
	out := make([]int, len(data))
	if len(data) == 0 {
		return out
	}
	m := floats.Max(data)
	if m == 0 {
		return out
	}
	for i, v := range data {
		out[i] = int(math.RoundToEven(v / m * float64(height)))
	}
	return out
}

// DrawTerminalHistogram prints a column chart of data with '.' marks.
func DrawTerminalHistogram(w io.Writer, data []int, height int) error {
	var b strings.Builder
	for level := height; level > 0; level-- {
		b.Reset()
		for _, v := range data {
			if v >= level {
				b.WriteByte('.')
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

// IntsToFloats converts counts for the float helpers.
func IntsToFloats(v []int) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

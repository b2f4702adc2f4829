package viewer

import (
	"errors"
	"fmt"
	"math"

	"github.com/fendo/catmlib/pkg/colormap"
	"gonum.org/v1/gonum/floats"
)

var ErrColorFormat = errors.New("color format must be 'hex' or 'rgb'")

// ColorList bins values by integer steps from floor(min) to ceil(max) and
// assigns each bin an evenly sampled colour of cmap.
func ColorList(values []float64, cmap, format string) ([]int, []string, error) {
	if format != "hex" && format != "rgb" {
		return nil, nil, ErrColorFormat
	}
	if len(values) == 0 {
		return []int{}, []string{}, nil
	}

	cm, err := colormap.Get(cmap)
	if err != nil {
		return nil, nil, err
	}

	vmin := int(math.Floor(floats.Min(values)))
	vmax := int(math.Ceil(floats.Max(values)))
	bins := make([]int, 0, vmax-vmin+1)
	for b := vmin; b <= vmax; b++ {
		bins = append(bins, b)
	}

	colors := make([]string, len(bins))
	for i, c := range colormap.Sample(cm, len(bins)).Colors() {
		if format == "hex" {
			colors[i] = colormap.Hex(c)
		} else {
			colors[i] = colormap.RGB(c)
		}
	}
	return bins, colors, nil
}

// ColorArray looks up the colour of bin int(v) for every value.
func ColorArray(values []float64, bins []int, colors []string) ([]string, error) {
	index := make(map[int]int, len(bins))
	for i, b := range bins {
		if _, ok := index[b]; !ok {
			index[b] = i
		}
	}

	out := make([]string, len(values))
	for i, v := range values {
		k, ok := index[int(v)]
		if !ok || k >= len(colors) {
			return nil, fmt.Errorf("no colour bin for value %v", v)
		}
		out[i] = colors[k]
	}
	return out, nil
}

package readoutpad

import (
	"fmt"
	"image/color"
	"strconv"

	"github.com/fendo/catmlib/pkg/colormap"
	"golang.org/x/exp/slices"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	ModeHit = "hit"
	ModeMap = "map"
)

var (
	PadColor       = colormap.MustHex("#d3d3d3")
	HighlightColor = colormap.MustHex("#33b5b1")
	TrackColor     = color.RGBA{R: 255, A: 255}
)

// Track is a straight line x = Slope*y + Intercept on the plot plane, drawn
// between YMin and YMax.
type Track struct {
	Slope     float64
	Intercept float64
	YMin      float64
	YMax      float64
	Width     vg.Length
	Color     color.Color
}

type ShowOptions struct {
	Plane string
	// Mode "hit" highlights Ref, "map" fills every pad with ColorMap.
	Mode      string
	Ref       []int
	ColorMap  []color.Color
	CheckID   bool
	CheckData []string
	CheckSize vg.Length
	Tracks    []Track
	XRange    [2]float64
	YRange    [2]float64
	Width     vg.Length
	Height    vg.Length
	Title     string
}

func axisName(i int) string {
	return string("xyz"[i])
}

func (a *PadArray) padFill(i int, opts ShowOptions) color.Color {
	switch opts.Mode {
	case ModeMap:
		if i < len(opts.ColorMap) && opts.ColorMap[i] != nil {
			return opts.ColorMap[i]
		}
	default:
		if slices.Contains(opts.Ref, a.IDs[i]) {
			return HighlightColor
		}
	}
	return PadColor
}

// Plot draws the projection of every pad on opts.Plane.
func (a *PadArray) Plot(opts ShowOptions) (*plot.Plot, error) {
	if opts.Plane == "" {
		opts.Plane = "xz"
	}
	i1, i2 := PlaneIndices(opts.Plane)

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = axisName(i1) + " position [mm]"
	p.Y.Label.Text = axisName(i2) + " position [mm]"

	for i := range a.Pads {
		xs, ys := a.Projected(i, opts.Plane)
		pts := make(plotter.XYs, len(xs))
		for k := range xs {
			pts[k] = plotter.XY{X: xs[k], Y: ys[k]}
		}
		poly, err := plotter.NewPolygon(pts)
		if err != nil {
			return nil, fmt.Errorf("pad %d: %w", a.IDs[i], err)
		}
		poly.Color = a.padFill(i, opts)
		poly.LineStyle = draw.LineStyle{Color: color.Black, Width: vg.Points(0.5)}
		p.Add(poly)
	}

	if opts.CheckID || len(opts.CheckData) > 0 {
		labels, err := a.labels(opts, i1, i2)
		if err != nil {
			return nil, err
		}
		p.Add(labels)
	}

	for _, tr := range opts.Tracks {
		line, err := plotter.NewLine(plotter.XYs{
			{X: tr.Slope*tr.YMin + tr.Intercept, Y: tr.YMin},
			{X: tr.Slope*tr.YMax + tr.Intercept, Y: tr.YMax},
		})
		if err != nil {
			return nil, err
		}
		line.LineStyle.Color = TrackColor
		line.LineStyle.Width = vg.Points(2)
		if tr.Color != nil {
			line.LineStyle.Color = tr.Color
		}
		if tr.Width > 0 {
			line.LineStyle.Width = tr.Width
		}
		p.Add(line)
	}

	if opts.XRange[0] != opts.XRange[1] {
		p.X.Min, p.X.Max = opts.XRange[0], opts.XRange[1]
	}
	if opts.YRange[0] != opts.YRange[1] {
		p.Y.Min, p.Y.Max = opts.YRange[0], opts.YRange[1]
	}
	return p, nil
}

func (a *PadArray) labels(opts ShowOptions, i1, i2 int) (*plotter.Labels, error) {
	xyl := plotter.XYLabels{
		XYs:    make(plotter.XYs, len(a.Centers)),
		Labels: make([]string, len(a.Centers)),
	}
	for i, c := range a.Centers {
		xyl.XYs[i] = plotter.XY{X: c[i1], Y: c[i2]}
		if i < len(opts.CheckData) {
			xyl.Labels[i] = opts.CheckData[i]
		} else {
			xyl.Labels[i] = strconv.Itoa(a.IDs[i])
		}
	}
	labels, err := plotter.NewLabels(xyl)
	if err != nil {
		return nil, err
	}
	size := opts.CheckSize
	if size == 0 {
		size = vg.Points(5)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = text.XCenter
		labels.TextStyle[i].YAlign = text.YCenter
		labels.TextStyle[i].Font.Size = size
	}
	return labels, nil
}

// CanvasSize returns a canvas size keeping the plotted ranges at equal
// aspect. A zero width defaults to 6 inches.
func CanvasSize(p *plot.Plot, width vg.Length) (vg.Length, vg.Length) {
	if width == 0 {
		width = 6 * vg.Inch
	}
	dx := p.X.Max - p.X.Min
	dy := p.Y.Max - p.Y.Min
	if dx <= 0 || dy <= 0 {
		return width, width
	}
	h := vg.Length(float64(width) * dy / dx)
	// room for the title and the axis labels
	h += vg.Inch / 2
	return width, h
}

// Save renders the pad array to path. The image format follows the extension.
func (a *PadArray) Save(path string, opts ShowOptions) error {
	p, err := a.Plot(opts)
	if err != nil {
		return err
	}
	w, h := opts.Width, opts.Height
	if h == 0 {
		w, h = CanvasSize(p, w)
	}
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("error saving pad plot %s: %w", path, err)
	}
	return nil
}

package simulator

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/fendo/catmlib/pkg/colormap"
	"github.com/fendo/catmlib/pkg/readoutpad"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	ModeTrack    = "track"
	ModeIonized  = "ionized"
	ModeDiffused = "diffused"
)

var (
	trackLineColor  = colormap.MustHex("#483d8b")
	electronColor   = colormap.MustHex("#ee82ee")
	diffusedOpacity = 0.25
)

func project(points []readoutpad.Vec3, plane string) plotter.XYs {
	i1, i2 := readoutpad.PlaneIndices(plane)
	xys := make(plotter.XYs, len(points))
	for i, p := range points {
		xys[i] = plotter.XY{X: p[i1], Y: p[i2]}
	}
	return xys
}

// chargeColors colours every pad by its charge relative to the largest one.
// It returns nil when no pad has charge.
func chargeColors(charges []float64) ([]color.Color, error) {
	if len(charges) == 0 {
		return nil, nil
	}
	top := floats.Max(charges)
	if top <= 0 {
		return nil, nil
	}
	out := make([]color.Color, len(charges))
	for i, q := range charges {
		c, err := ValueToColor(math.Max(q, 0) / top)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// TrackPlot draws the pads coloured by charge with the simulated track on
// plane. Mode ionized adds the electron points, mode diffused the diffused
// points.
func TrackPlot(sim *TrackSimulator, plane, mode string) (*plot.Plot, error) {
	cmap, err := chargeColors(sim.Pad.Charges)
	if err != nil {
		return nil, err
	}
	opts := readoutpad.ShowOptions{Plane: plane, Title: sim.BeamInfo}
	if cmap != nil {
		opts.Mode = readoutpad.ModeMap
		opts.ColorMap = cmap
	}
	p, err := sim.Pad.Plot(opts)
	if err != nil {
		return nil, err
	}

	var points []readoutpad.Vec3
	alpha := 1.0
	switch mode {
	case ModeTrack:
	case ModeIonized:
		points = sim.ElectronPoints
	case ModeDiffused:
		points = sim.DiffusedPoints
		alpha = diffusedOpacity
	default:
		return nil, fmt.Errorf("unknown track plot mode %q", mode)
	}

	if len(points) > 0 {
		sc, err := plotter.NewScatter(project(points, plane))
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = color.NRGBA{R: electronColor.R, G: electronColor.G, B: electronColor.B, A: uint8(alpha * 255)}
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(1)
		p.Add(sc)
	}
	if len(sim.TrackPoints) > 1 {
		line, err := plotter.NewLine(project(sim.TrackPoints, plane))
		if err != nil {
			return nil, err
		}
		line.LineStyle.Color = trackLineColor
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
	}
	return p, nil
}

// grid2D counts points on a regular nx by ny grid for a heat map.
type grid2D struct {
	counts   [][]float64
	xmin, dx float64
	ymin, dy float64
	nx, ny   int
}

func newGrid2D(xs, ys []float64, nx, ny int) *grid2D {
	g := &grid2D{nx: nx, ny: ny, counts: make([][]float64, ny)}
	for r := range g.counts {
		g.counts[r] = make([]float64, nx)
	}
	xmin, xmax := rangeOf(xs)
	ymin, ymax := rangeOf(ys)
	g.xmin, g.dx = xmin, (xmax-xmin)/float64(nx)
	g.ymin, g.dy = ymin, (ymax-ymin)/float64(ny)
	for i := range xs {
		c := binIndex(xs[i], xmin, g.dx, nx)
		r := binIndex(ys[i], ymin, g.dy, ny)
		g.counts[r][c]++
	}
	return g
}

// rangeOf widens a degenerate range to one unit.
func rangeOf(v []float64) (float64, float64) {
	if len(v) == 0 {
		return 0, 1
	}
	lo, hi := floats.Min(v), floats.Max(v)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	return lo, hi
}

func binIndex(v, lo, width float64, n int) int {
	i := int((v - lo) / width)
	return min(max(i, 0), n-1)
}

func (g *grid2D) Dims() (int, int)   { return g.nx, g.ny }
func (g *grid2D) Z(c, r int) float64 { return g.counts[r][c] }
func (g *grid2D) X(c int) float64    { return g.xmin + (float64(c)+0.5)*g.dx }
func (g *grid2D) Y(r int) float64    { return g.ymin + (float64(r)+0.5)*g.dy }

func heatMap(xs, ys []float64, xlabel, ylabel string) (*plot.Plot, error) {
	cmap, err := colormap.Get("Blues")
	if err != nil {
		return nil, err
	}
	p := plot.New()
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	if len(xs) == 0 {
		return p, nil
	}
	g := newGrid2D(xs, ys, 30, 30)
	cmap.SetMin(0)
	cmap.SetMax(1)
	p.Add(plotter.NewHeatMap(g, cmap.Palette(64)))
	return p, nil
}

// MCParameterPlot shows the drawn Monte Carlo parameters as four 2D
// histograms: (x, y), (y, z), (z, x) and (theta, phi).
func MCParameterPlot(params []MCParameter) ([][]*plot.Plot, error) {
	col := func(i int) []float64 {
		out := make([]float64, len(params))
		for k, p := range params {
			out[k] = p[i]
		}
		return out
	}
	names := []string{"x position [mm]", "y position [mm]", "z position [mm]", "theta [deg]", "phi [deg]"}
	pairs := [][2]int{{0, 1}, {1, 2}, {2, 0}, {3, 4}}

	plots := make([][]*plot.Plot, 2)
	for k, pr := range pairs {
		p, err := heatMap(col(pr[0]), col(pr[1]), names[pr[0]], names[pr[1]])
		if err != nil {
			return nil, err
		}
		plots[k/2] = append(plots[k/2], p)
	}
	return plots, nil
}

func finite(v []float64) plotter.Values {
	out := make(plotter.Values, 0, len(v))
	for _, x := range v {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out
}

func histogram(values []float64, bins int, logY bool, xlabel string) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = xlabel
	p.Y.Label.Text = "counts"
	v := finite(values)
	if len(v) == 0 {
		return p, nil
	}
	h, err := plotter.NewHist(v, bins)
	if err != nil {
		return nil, err
	}
	h.FillColor = trackLineColor
	if logY {
		h.LogY = true
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	p.Add(h)
	return p, nil
}

// multiplicityHistogram uses unit bins centred on 0..14.
func multiplicityHistogram(m []int) *plot.Plot {
	p := plot.New()
	p.X.Label.Text = "multiplicity"
	p.Y.Label.Text = "counts"
	bins := make([]plotter.HistogramBin, 15)
	for i := range bins {
		bins[i] = plotter.HistogramBin{Min: float64(i) - 0.5, Max: float64(i) + 0.5}
	}
	for _, n := range m {
		if n >= 0 && n < len(bins) {
			bins[n].Weight++
		}
	}
	p.Add(&plotter.Histogram{
		Bins:      bins,
		Width:     1,
		FillColor: trackLineColor,
		LineStyle: plotter.DefaultLineStyle,
	})
	p.X.Min, p.X.Max = -0.5, 14.5
	return p
}

// PositionChargePlot arranges the position, charge, resolution and
// multiplicity histograms of a run in three rows of two.
func PositionChargePlot(a Analysis) ([][]*plot.Plot, error) {
	specs := []struct {
		values []float64
		bins   int
		log    bool
		label  string
	}{
		{a.XPos, 100, false, "x position [mm]"},
		{a.XPosThreshold, 100, false, "x position with threshold [mm]"},
		{a.OriginalCharge, 400, true, "pad charge [pC]"},
		{a.CutCharge, 400, true, "pad charge with threshold [pC]"},
		{a.Resolution, 100, false, "x position difference [mm]"},
	}
	plots := make([][]*plot.Plot, 3)
	for k, s := range specs {
		p, err := histogram(s.values, s.bins, s.log, s.label)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.label, err)
		}
		plots[k/2] = append(plots[k/2], p)
	}
	plots[2] = append(plots[2], multiplicityHistogram(a.Multiplicity))
	return plots, nil
}

func PositionChargeTitle(opts Options) string {
	return fmt.Sprintf("Simulation Result @ gain:%g, diffusion gain:%d, diffusion:%g, threshold:%g",
		opts.Gain, opts.DiffusionGain, opts.Diffusion, opts.Threshold)
}

// SaveGrid renders a grid of plots with an optional title to path.
func SaveGrid(path string, plots [][]*plot.Plot, title string, w, h vg.Length) error {
	if len(plots) == 0 || len(plots[0]) == 0 {
		return fmt.Errorf("nothing to draw in %s", path)
	}
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	if format == "" {
		format = "png"
	}
	c, err := draw.NewFormattedCanvas(w, h, format)
	if err != nil {
		return fmt.Errorf("error creating canvas for %s: %w", path, err)
	}
	dc := draw.New(c)

	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      len(plots[0]),
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	if title != "" {
		tiles.PadTop = vg.Inch / 2
		style := text.Style{
			Color:   color.Black,
			Font:    font.From(plot.DefaultFont, vg.Points(14)),
			XAlign:  text.XCenter,
			YAlign:  text.YTop,
			Handler: plot.DefaultTextHandler,
		}
		dc.FillText(style, vg.Point{X: w / 2, Y: h - vg.Points(6)}, title)
	}

	canvases := plot.Align(plots, tiles, dc)
	for r := range plots {
		for col, p := range plots[r] {
			if p != nil {
				p.Draw(canvases[r][col])
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", path, err)
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	return f.Close()
}

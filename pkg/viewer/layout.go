package viewer

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/fendo/catmlib/pkg/colormap"
	"github.com/fendo/catmlib/pkg/readoutpad"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	FillColor   = colormap.MustHex("#d3d3d3")
	EdgeColor   = colormap.MustHex("#a9a9a9")
	RecoilColor = colormap.MustHex("#B844A0")
	BeamColor   = colormap.MustHex("#36797A")
)

const (
	ssdDepth  = 8.0
	ssdMargin = 15.0
	ssdPlaneX = 255.0
	beamPlane = -255.0
)

// Detectors groups the three CAT-M pad arrays drawn by the views. Any of
// them may be nil.
type Detectors struct {
	Beam   *readoutpad.PadArray
	Recoil *readoutpad.PadArray
	SSD    *readoutpad.PadArray
}

// DefaultDetectors builds the three CAT-M arrays.
func DefaultDetectors() (Detectors, error) {
	beam, err := readoutpad.BeamTPCArray()
	if err != nil {
		return Detectors{}, err
	}
	recoil, err := readoutpad.RecoilTPCArray()
	if err != nil {
		return Detectors{}, err
	}
	ssd, err := readoutpad.SSDArray()
	if err != nil {
		return Detectors{}, err
	}
	return Detectors{Beam: beam, Recoil: recoil, SSD: ssd}, nil
}

// legend keeps the first entry of every label.
type legend struct {
	names  []string
	thumbs []plot.Thumbnailer
	seen   map[string]bool
}

func (l *legend) add(name string, th plot.Thumbnailer) {
	if name == "" {
		return
	}
	if l.seen == nil {
		l.seen = make(map[string]bool)
	}
	if l.seen[name] {
		return
	}
	l.seen[name] = true
	l.names = append(l.names, name)
	l.thumbs = append(l.thumbs, th)
}

func newPanel(xr, yr [2]float64, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.X.Min, p.X.Max = xr[0], xr[1]
	p.Y.Min, p.Y.Max = yr[0], yr[1]
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	return p
}

// fixRange restores the panel limits after plotters widened them.
func fixRange(p *plot.Plot, xr, yr [2]float64) {
	p.X.Min, p.X.Max = xr[0], xr[1]
	p.Y.Min, p.Y.Max = yr[0], yr[1]
}

func fill(p *plot.Plot, xs, ys []float64, c color.Color) (*plotter.Polygon, error) {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}
	poly, err := plotter.NewPolygon(pts)
	if err != nil {
		return nil, err
	}
	poly.Color = c
	poly.LineStyle = draw.LineStyle{Color: EdgeColor, Width: vg.Points(0.5)}
	p.Add(poly)
	return poly, nil
}

func padXZ(pad *readoutpad.PadArray, i int) ([]float64, []float64) {
	return pad.Projected(i, "xz")
}

// ssdXZ returns the rectangle an SSD strip occupies in the side panels.
// Upper layer strips face outward, lower layer strips inward.
func ssdXZ(pad *readoutpad.PadArray, i int) ([]float64, []float64) {
	zlo, zhi := pad.Pads[i][0][2], pad.Pads[i][0][2]
	for _, v := range pad.Pads[i] {
		zlo = min(zlo, v[2])
		zhi = max(zhi, v[2])
	}
	id := pad.IDs[i]
	x0, dx := -ssdPlaneX, -ssdDepth
	switch {
	case id < 24:
	case id < 48:
		dx = ssdDepth
	case id < 72:
		x0, dx = ssdPlaneX, -ssdDepth
	default:
		x0, dx = ssdPlaneX, ssdDepth
	}
	return []float64{x0, x0 + dx, x0 + dx, x0}, []float64{zlo, zlo, zhi, zhi}
}

func drawLine(p *plot.Plot, xs, ys []float64, c color.Color, width vg.Length) (*plotter.Line, error) {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Color = withAlpha(c, 0.5)
	line.LineStyle.Width = width
	p.Add(line)
	return line, nil
}

func withAlpha(c color.Color, a float64) color.Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = uint8(a * 255)
	return n
}

// grid is the 2x3 layout shared by the 2D views: the SSD side panels, the
// recoil TPC on top of the beam TPC in the middle.
type grid struct {
	width, height vg.Length
	title         string
	top           *plot.Plot
	bottom        *plot.Plot
	left          *plot.Plot
	right         *plot.Plot
	legend        *legend
}

func newGrid(title string) *grid {
	g := &grid{
		width:  12 * vg.Inch,
		height: 10 * vg.Inch,
		title:  title,
		legend: &legend{},
	}
	zr := [2]float64{-170, 230}
	g.top = newPanel([2]float64{-160, 160}, zr, "", "")
	g.bottom = newPanel([2]float64{-160, 160}, [2]float64{beamPlane - ssdMargin, beamPlane + ssdMargin}, "X position [mm]", "")
	g.left = newPanel([2]float64{-ssdPlaneX - ssdMargin, -ssdPlaneX + ssdMargin}, zr, "", "Z position [mm]")
	g.right = newPanel([2]float64{ssdPlaneX - ssdMargin, ssdPlaneX + ssdMargin}, zr, "", "")
	return g
}

func (g *grid) panels() []*plot.Plot {
	return []*plot.Plot{g.top, g.bottom, g.left, g.right}
}

func (g *grid) fixRanges() {
	zr := [2]float64{-170, 230}
	fixRange(g.top, [2]float64{-160, 160}, zr)
	fixRange(g.bottom, [2]float64{-160, 160}, [2]float64{beamPlane - ssdMargin, beamPlane + ssdMargin})
	fixRange(g.left, [2]float64{-ssdPlaneX - ssdMargin, -ssdPlaneX + ssdMargin}, zr)
	fixRange(g.right, [2]float64{ssdPlaneX - ssdMargin, ssdPlaneX + ssdMargin}, zr)
}

// drawBase fills every pad of the detectors in the background colour.
func (g *grid) drawBase(det Detectors) error {
	if det.Recoil != nil {
		for i := range det.Recoil.Pads {
			xs, ys := padXZ(det.Recoil, i)
			if _, err := fill(g.top, xs, ys, FillColor); err != nil {
				return err
			}
		}
	}
	if det.Beam != nil {
		for i := range det.Beam.Pads {
			xs, ys := padXZ(det.Beam, i)
			if _, err := fill(g.bottom, xs, ys, FillColor); err != nil {
				return err
			}
		}
	}
	if det.SSD != nil {
		for i := range det.SSD.Pads {
			if _, err := g.fillSSD(det.SSD, i, FillColor); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *grid) fillSSD(pad *readoutpad.PadArray, i int, c color.Color) (*plotter.Polygon, error) {
	xs, ys := ssdXZ(pad, i)
	if pad.IDs[i] < 48 {
		return fill(g.left, xs, ys, c)
	}
	return fill(g.right, xs, ys, c)
}

func titleStyle(size vg.Length) text.Style {
	return text.Style{
		Color:   color.Black,
		Font:    font.From(plot.DefaultFont, size),
		XAlign:  text.XCenter,
		YAlign:  text.YTop,
		Handler: plot.DefaultTextHandler,
	}
}

// Save renders the grid. The image format follows the file extension.
func (g *grid) Save(path string) error {
	g.fixRanges()

	format := strings.TrimPrefix(filepath.Ext(path), ".")
	if format == "" {
		format = "png"
	}
	c, err := draw.NewFormattedCanvas(g.width, g.height, format)
	if err != nil {
		return fmt.Errorf("error creating canvas for %s: %w", path, err)
	}
	dc := draw.New(c)

	band := vg.Length(0)
	if g.title != "" {
		band += vg.Inch / 2
		dc.FillText(titleStyle(vg.Points(14)), vg.Point{X: g.width / 2, Y: g.height - vg.Points(6)}, g.title)
	}
	if len(g.legend.names) > 0 {
		lg := plot.NewLegend()
		lg.Top = true
		for i, name := range g.legend.names {
			lg.Add(name, g.legend.thumbs[i])
		}
		rows := vg.Length(len(g.legend.names)) * vg.Points(12)
		lc := draw.Canvas{
			Canvas: dc.Canvas,
			Rectangle: vg.Rectangle{
				Min: vg.Point{X: g.width / 3, Y: g.height - band - rows},
				Max: vg.Point{X: g.width * 2 / 3, Y: g.height - band},
			},
		}
		lg.Draw(lc)
		band += rows
	}

	// width ratios 0.5 : 2 : 0.5, height ratios 5 : 0.375
	cols := []float64{0.5, 2, 0.5}
	rows := []float64{5, 0.375}
	avail := g.height - band
	x0 := vg.Length(0)
	x1 := g.width * vg.Length(cols[0]/3)
	x2 := x1 + g.width*vg.Length(cols[1]/3)
	yb := avail * vg.Length(rows[1]/(rows[0]+rows[1]))
	// the bottom panel needs room for its tick labels
	yb = max(yb, vg.Inch)

	cell := func(left, right, bottom, top vg.Length) draw.Canvas {
		return draw.Canvas{
			Canvas:    dc.Canvas,
			Rectangle: vg.Rectangle{Min: vg.Point{X: left, Y: bottom}, Max: vg.Point{X: right, Y: top}},
		}
	}
	g.left.Draw(cell(x0, x1, yb, avail))
	g.top.Draw(cell(x1, x2, yb, avail))
	g.right.Draw(cell(x2, g.width, yb, avail))
	g.bottom.Draw(cell(x1, x2, 0, yb))

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

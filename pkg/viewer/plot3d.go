package viewer

import (
	"fmt"
	"image/color"
	"math"

	"github.com/fendo/catmlib/pkg/readoutpad"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	elevation = 50.0
	azimuth   = 230.0
	shadowY   = -99.0
)

var translucentGray = color.NRGBA{R: 128, G: 128, B: 128, A: 77}

// projection maps detector coordinates to the screen. The 3D axes are
// (Z, X, Y) of the detector, viewed orthographically.
type projection struct {
	sinAz, cosAz float64
	sinEl, cosEl float64
}

func newProjection(elev, azim float64) projection {
	el := elev * math.Pi / 180
	az := azim * math.Pi / 180
	return projection{
		sinAz: math.Sin(az), cosAz: math.Cos(az),
		sinEl: math.Sin(el), cosEl: math.Cos(el),
	}
}

func (p projection) point(v readoutpad.Vec3) plotter.XY {
	a, b, c := v[2], v[0], v[1]
	return plotter.XY{
		X: -a*p.sinAz + b*p.cosAz,
		Y: -(a*p.cosAz+b*p.sinAz)*p.sinEl + c*p.cosEl,
	}
}

func (p projection) polygon(vs []readoutpad.Vec3) plotter.XYs {
	out := make(plotter.XYs, len(vs))
	for i, v := range vs {
		out[i] = p.point(v)
	}
	return out
}

// Points is a set of hits in detector coordinates.
type Points struct {
	X, Y, Z []float64
	Label   string
	Color   color.Color
}

type Trajectory3DOptions struct {
	Hits       []Points
	Tracks     []Line
	RecoilHits []int
	BeamHits   []int
	SSDHits    []int
	Title      string
	Width      vg.Length
	Height     vg.Length
}

// Plot3DTrajectory draws the detectors, hits and tracks in a fixed 3D view
// (elevation 50, azimuth 230) and saves it to path.
func Plot3DTrajectory(det Detectors, opts Trajectory3DOptions, path string) error {
	proj := newProjection(elevation, azimuth)
	p := plot.New()
	p.Title.Text = opts.Title
	p.HideAxes()

	if err := drawBox(p, proj, det); err != nil {
		return err
	}

	arrays := []struct {
		pad  *readoutpad.PadArray
		hits []int
		c    color.Color
	}{
		{det.Beam, opts.BeamHits, BeamColor},
		{det.Recoil, opts.RecoilHits, RecoilColor},
		{det.SSD, opts.SSDHits, RecoilColor},
	}
	for _, a := range arrays {
		if a.pad == nil {
			continue
		}
		for i := range a.pad.Pads {
			if err := addPolygon(p, proj.polygon(a.pad.Pads[i]), translucentGray); err != nil {
				return err
			}
		}
	}
	for _, a := range arrays {
		for _, id := range a.hits {
			if a.pad == nil || a.pad.Index(id) < 0 {
				return fmt.Errorf("hit pad %d does not exist", id)
			}
			if err := addPolygon(p, proj.polygon(a.pad.Pads[a.pad.Index(id)]), a.c); err != nil {
				return err
			}
		}
	}

	for i, tr := range opts.Tracks {
		c := tr.Color
		if c == nil {
			c = RecoilColor
			if i%2 == 1 {
				c = BeamColor
			}
		}
		track := make(plotter.XYs, len(tr.X))
		shadow := make(plotter.XYs, len(tr.X))
		for k := range tr.X {
			track[k] = proj.point(readoutpad.Vec3{tr.X[k], tr.Y[k], tr.Z[k]})
			shadow[k] = proj.point(readoutpad.Vec3{tr.X[k], shadowY, tr.Z[k]})
		}
		line, err := plotter.NewLine(track)
		if err != nil {
			return err
		}
		line.LineStyle.Color = c
		line.LineStyle.Width = vg.Points(1)
		p.Add(line)
		if tr.Label != "" {
			p.Legend.Add(tr.Label, line)
		}

		sl, err := plotter.NewLine(shadow)
		if err != nil {
			return err
		}
		sl.LineStyle.Color = c
		sl.LineStyle.Width = vg.Points(1)
		sl.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(1), vg.Points(1), vg.Points(1)}
		p.Add(sl)
	}

	for _, h := range opts.Hits {
		pts := make(plotter.XYs, len(h.X))
		for k := range h.X {
			pts[k] = proj.point(readoutpad.Vec3{h.X[k], h.Y[k], h.Z[k]})
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Color = h.Color
		if sc.GlyphStyle.Color == nil {
			sc.GlyphStyle.Color = RecoilColor
		}
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
		if h.Label != "" {
			p.Legend.Add(h.Label, sc)
		}
	}
	p.Legend.Top = true

	w, hgt := opts.Width, opts.Height
	if w == 0 || hgt == 0 {
		w, hgt = 8*vg.Inch, 6*vg.Inch
	}
	if err := p.Save(w, hgt, path); err != nil {
		return fmt.Errorf("error saving 3d view %s: %w", path, err)
	}
	return nil
}

func addPolygon(p *plot.Plot, pts plotter.XYs, c color.Color) error {
	poly, err := plotter.NewPolygon(pts)
	if err != nil {
		return err
	}
	poly.Color = c
	poly.LineStyle = draw.LineStyle{Color: c, Width: vg.Points(0.3)}
	p.Add(poly)
	return nil
}

// drawBox outlines the bounding box of the detectors and labels its axes.
func drawBox(p *plot.Plot, proj projection, det Detectors) error {
	lo := readoutpad.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := readoutpad.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, pad := range []*readoutpad.PadArray{det.Beam, det.Recoil, det.SSD} {
		if pad == nil || pad.Len() == 0 {
			continue
		}
		for axis := 0; axis < 3; axis++ {
			l, h := pad.Bounds(axis)
			lo[axis] = min(lo[axis], l)
			hi[axis] = max(hi[axis], h)
		}
	}
	if math.IsInf(lo[0], 1) {
		return nil
	}

	edges := [][2]readoutpad.Vec3{
		{{lo[0], lo[1], lo[2]}, {lo[0], lo[1], hi[2]}},
		{{lo[0], lo[1], lo[2]}, {hi[0], lo[1], lo[2]}},
		{{lo[0], lo[1], lo[2]}, {lo[0], hi[1], lo[2]}},
	}
	names := []string{"Z position [mm]", "X position [mm]", "Y position [mm]"}
	labels := plotter.XYLabels{}
	for i, e := range edges {
		line, err := plotter.NewLine(plotter.XYs{proj.point(e[0]), proj.point(e[1])})
		if err != nil {
			return err
		}
		line.LineStyle.Color = color.Black
		line.LineStyle.Width = vg.Points(0.5)
		p.Add(line)
		labels.XYs = append(labels.XYs, proj.point(e[1]))
		labels.Labels = append(labels.Labels, names[i])
	}
	l, err := plotter.NewLabels(labels)
	if err != nil {
		return err
	}
	p.Add(l)
	return nil
}

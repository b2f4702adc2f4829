package circuit

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// diagramUnit is the drawn height of one component.
const diagramUnit = 2.0

var JunctionColor = color.Gray{Y: 128}

type DiagramOptions struct {
	// Values labels components with their value, otherwise with the name.
	Values bool
	// ParallelLength is the wire length between parallel branches.
	ParallelLength float64
	Title          string
}

// sketch is a pen moving over the diagram plane, starting at the origin and
// drawing components downwards.
type sketch struct {
	here   plotter.XY
	wires  []plotter.XYs
	dots   plotter.XYs
	labels plotter.XYLabels
}

func (s *sketch) line(dx, dy float64) {
	to := plotter.XY{X: s.here.X + dx, Y: s.here.Y + dy}
	s.wires = append(s.wires, plotter.XYs{s.here, to})
	s.here = to
}

func (s *sketch) path(pts ...plotter.XY) {
	s.wires = append(s.wires, plotter.XYs(pts))
}

// component draws c from here to one unit below and leaves the pen there.
func (s *sketch) component(c *Component, label string) {
	x, y := s.here.X, s.here.Y
	top, bottom := y-diagramUnit/4, y-3*diagramUnit/4
	s.dots = append(s.dots, s.here)

	switch c.Kind {
	case Capacitor:
		mid := (top + bottom) / 2
		gap := diagramUnit / 20
		s.path(plotter.XY{X: x, Y: y}, plotter.XY{X: x, Y: mid + gap})
		s.path(plotter.XY{X: x - 0.4, Y: mid + gap}, plotter.XY{X: x + 0.4, Y: mid + gap})
		s.path(plotter.XY{X: x - 0.4, Y: mid - gap}, plotter.XY{X: x + 0.4, Y: mid - gap})
		s.path(plotter.XY{X: x, Y: mid - gap}, plotter.XY{X: x, Y: y - diagramUnit})
	case Inductor:
		const humps, samples = 4, 8
		r := (top - bottom) / (2 * humps)
		pts := plotter.XYs{{X: x, Y: y}, {X: x, Y: top}}
		for h := 0; h < humps; h++ {
			cy := top - r - 2*r*float64(h)
			for k := 1; k <= samples; k++ {
				theta := math.Pi/2 - math.Pi*float64(k)/samples
				pts = append(pts, plotter.XY{X: x + r*math.Cos(theta), Y: cy + r*math.Sin(theta)})
			}
		}
		pts = append(pts, plotter.XY{X: x, Y: y - diagramUnit})
		s.path(pts...)
	default:
		const steps = 6
		pts := plotter.XYs{{X: x, Y: y}, {X: x, Y: top}}
		for k := 1; k < steps; k++ {
			dx := 0.2
			if k%2 == 0 {
				dx = -dx
			}
			pts = append(pts, plotter.XY{X: x + dx, Y: top - (top-bottom)*float64(k)/steps})
		}
		pts = append(pts, plotter.XY{X: x, Y: bottom}, plotter.XY{X: x, Y: y - diagramUnit})
		s.path(pts...)
	}

	s.labels.XYs = append(s.labels.XYs, plotter.XY{X: x + 0.35, Y: y - diagramUnit/2})
	s.labels.Labels = append(s.labels.Labels, label)
	s.here = plotter.XY{X: x, Y: y - diagramUnit}
}

func (s *sketch) ground() {
	s.line(0, -diagramUnit/8)
	x, y := s.here.X, s.here.Y
	for k, half := range []float64{0.3, 0.2, 0.1} {
		yy := y - 0.1*float64(k)
		s.path(plotter.XY{X: x - half, Y: yy}, plotter.XY{X: x + half, Y: yy})
	}
}

// layout walks the connections in order. The first component of a pair is
// drawn where the pen is if it has not been drawn yet. Components that no
// connection reaches are drawn last, in series. It returns the top of every
// component by index.
func layout(a *Array, opts DiagramOptions) (*sketch, map[int]plotter.XY) {
	length := opts.ParallelLength
	if length <= 0 {
		length = diagramUnit
	}
	s := &sketch{}
	placed := make(map[int]plotter.XY)
	label := func(c *Component) string {
		if opts.Values {
			return c.Title()
		}
		return c.Name
	}
	place := func(i int) {
		placed[i] = s.here
		s.component(a.components[i], label(a.components[i]))
	}
	ensure := func(i int) {
		if _, ok := placed[i]; !ok {
			place(i)
		}
	}

	for _, c := range a.connections {
		switch c.Type {
		case ConnSeries:
			ensure(c.Pair[0])
			place(c.Pair[1])
		case ConnParallel:
			ensure(c.Pair[0])
			back := s.here
			s.here = placed[c.Pair[0]]
			s.line(length, 0)
			place(c.Pair[1])
			s.line(-length, 0)
			s.here = back
		case ConnOpenParallel:
			ensure(c.Pair[0])
			ref := placed[c.Pair[0]]
			s.here = plotter.XY{X: ref.X + c.OffsetX, Y: ref.Y + c.OffsetY}
			s.line(length, 0)
			place(c.Pair[1])
		case ConnCloseParallel:
			ensure(c.Pair[0])
			place(c.Pair[1])
			for k := 0; k < c.Skip; k++ {
				s.line(0, -diagramUnit)
			}
			s.line(-length, 0)
		case ConnDown:
			s.line(0, -diagramUnit)
		}
	}
	for i := range a.components {
		ensure(i)
	}
	s.ground()
	return s, placed
}

// Diagram draws the array as a schematic ending at ground.
func Diagram(a *Array, opts DiagramOptions) (*plot.Plot, error) {
	if a == nil || len(a.components) == 0 {
		return nil, errors.New("array has no components")
	}
	s, _ := layout(a, opts)

	p := plot.New()
	p.Title.Text = opts.Title
	p.HideAxes()

	xmin, xmax, ymin, ymax := math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)
	for _, w := range s.wires {
		line, err := plotter.NewLine(w)
		if err != nil {
			return nil, err
		}
		line.LineStyle = draw.LineStyle{Color: color.Black, Width: vg.Points(1)}
		p.Add(line)
		for _, pt := range w {
			xmin, xmax = math.Min(xmin, pt.X), math.Max(xmax, pt.X)
			ymin, ymax = math.Min(ymin, pt.Y), math.Max(ymax, pt.Y)
		}
	}

	dots, err := plotter.NewScatter(s.dots)
	if err != nil {
		return nil, err
	}
	dots.GlyphStyle = draw.GlyphStyle{Color: JunctionColor, Radius: vg.Points(2), Shape: draw.CircleGlyph{}}
	p.Add(dots)

	labels, err := plotter.NewLabels(s.labels)
	if err != nil {
		return nil, err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = text.XLeft
		labels.TextStyle[i].YAlign = text.YCenter
		labels.TextStyle[i].Font.Size = vg.Points(8)
	}
	p.Add(labels)

	// labels sit right of their component
	p.X.Min, p.X.Max = xmin-0.5, xmax+2.5
	p.Y.Min, p.Y.Max = ymin-0.5, ymax+0.5
	return p, nil
}

// DiagramSize keeps one diagram unit at scale on the canvas.
func DiagramSize(p *plot.Plot, scale vg.Length) (vg.Length, vg.Length) {
	if scale == 0 {
		scale = vg.Inch / 2
	}
	w := vg.Length(p.X.Max-p.X.Min) * scale
	h := vg.Length(p.Y.Max-p.Y.Min)*scale + vg.Inch/2
	return w, h
}

// SaveDiagram draws a single array to path.
func SaveDiagram(path string, a *Array, opts DiagramOptions) error {
	p, err := Diagram(a, opts)
	if err != nil {
		return err
	}
	w, h := DiagramSize(p, 0)
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("error saving diagram %s: %w", path, err)
	}
	return nil
}

// SaveStageDiagrams draws the array of every stage side by side, titled by
// the stage netlists.
func SaveStageDiagrams(path string, stages []*Stage, opts DiagramOptions) (err error) {
	row := make([]*plot.Plot, 0, len(stages))
	var w, h vg.Length
	for _, st := range stages {
		o := opts
		o.Title = st.Netlist.Title
		p, err := Diagram(st.Array, o)
		if err != nil {
			return fmt.Errorf("stage %q: %w", st.Netlist.Title, err)
		}
		pw, ph := DiagramSize(p, 0)
		w += pw
		h = max(h, ph)
		row = append(row, p)
	}
	if len(row) == 0 {
		return fmt.Errorf("nothing to draw in %s", path)
	}
	// room for the titles
	w += vg.Inch * vg.Length(len(row))

	format := strings.TrimPrefix(filepath.Ext(path), ".")
	if format == "" {
		format = "png"
	}
	c, err := draw.NewFormattedCanvas(w, h, format)
	if err != nil {
		return fmt.Errorf("error creating canvas for %s: %w", path, err)
	}
	tiles := draw.Tiles{Rows: 1, Cols: len(row), PadX: vg.Millimeter * 4}
	canvases := plot.Align([][]*plot.Plot{row}, tiles, draw.New(c))
	for i, p := range row {
		p.Draw(canvases[0][i])
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	if _, err := c.WriteTo(f); err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	return nil
}

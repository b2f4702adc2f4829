package viewer

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot/vg"
)

// Category is a labelled group of pad ids drawn in one colour.
type Category struct {
	Label string
	IDs   []int
	Color color.Color
}

type CategoryOptions struct {
	Recoil []Category
	Beam   []Category
	SSD    []Category
	Legend bool
	Title  string
}

// Plot2DCategories draws the XZ view of the detectors with each category
// highlighted and saves it to path.
func Plot2DCategories(det Detectors, opts CategoryOptions, path string) error {
	if opts.Title == "" {
		opts.Title = "Map file checker (Cobo, AsAd, AGET, Channel), [-1] = all"
	}
	g := newGrid(opts.Title)
	if err := g.drawBase(det); err != nil {
		return err
	}

	if det.Recoil != nil {
		for _, cat := range opts.Recoil {
			if err := g.highlight(cat, func(i int) error {
				xs, ys := padXZ(det.Recoil, i)
				poly, err := fill(g.top, xs, ys, categoryColor(cat, RecoilColor))
				if err == nil && opts.Legend {
					g.legend.add(cat.Label, poly)
				}
				return err
			}, det.Recoil.Index); err != nil {
				return err
			}
		}
	}
	if det.Beam != nil {
		for _, cat := range opts.Beam {
			if err := g.highlight(cat, func(i int) error {
				xs, ys := padXZ(det.Beam, i)
				poly, err := fill(g.bottom, xs, ys, categoryColor(cat, BeamColor))
				if err == nil && opts.Legend {
					g.legend.add(cat.Label, poly)
				}
				return err
			}, det.Beam.Index); err != nil {
				return err
			}
		}
	}
	if det.SSD != nil {
		for _, cat := range opts.SSD {
			if err := g.highlight(cat, func(i int) error {
				poly, err := g.fillSSD(det.SSD, i, categoryColor(cat, colorSSD))
				if err == nil && opts.Legend {
					g.legend.add(cat.Label, poly)
				}
				return err
			}, det.SSD.Index); err != nil {
				return err
			}
		}
	}
	return g.Save(path)
}

var colorSSD = color.RGBA{R: 0x5c, G: 0xa3, B: 0xef, A: 255}

func categoryColor(cat Category, fallback color.Color) color.Color {
	if cat.Color != nil {
		return cat.Color
	}
	return fallback
}

func (g *grid) highlight(cat Category, paint func(int) error, index func(int) int) error {
	for _, id := range cat.IDs {
		i := index(id)
		if i < 0 {
			return fmt.Errorf("category %q: pad %d does not exist", cat.Label, id)
		}
		if err := paint(i); err != nil {
			return err
		}
	}
	return nil
}

// Line is a track in detector coordinates.
type Line struct {
	X, Y, Z []float64
	Label   string
	Color   color.Color
}

// TrajectoryOptions selects the hit pads per detector. Tracks are drawn on
// every panel in XZ.
type TrajectoryOptions struct {
	RecoilHits []int
	BeamHits   []int
	SSDHits    []int
	Tracks     []Line
	HitColors  [3]color.Color
	Title      string
}

func (o TrajectoryOptions) hitColor(i int, fallback color.Color) color.Color {
	if o.HitColors[i] != nil {
		return o.HitColors[i]
	}
	return fallback
}

// Plot2DTrajectory draws hit patterns and tracks on the XZ view and saves
// it to path.
func Plot2DTrajectory(det Detectors, opts TrajectoryOptions, path string) error {
	g := newGrid(opts.Title)
	if err := g.drawBase(det); err != nil {
		return err
	}

	hits := []struct {
		label string
		ids   []int
		color color.Color
	}{
		{"Hit Pattern (RecoilTPC&SSD)", opts.RecoilHits, opts.hitColor(0, RecoilColor)},
		{"Hit Pattern (BeamTPC)", opts.BeamHits, opts.hitColor(1, BeamColor)},
		{"Hit Pattern (RecoilTPC&SSD)", opts.SSDHits, opts.hitColor(2, RecoilColor)},
	}

	for k, h := range hits {
		for _, id := range h.ids {
			var err error
			switch k {
			case 0:
				if det.Recoil == nil || det.Recoil.Index(id) < 0 {
					return fmt.Errorf("recoil pad %d does not exist", id)
				}
				xs, ys := padXZ(det.Recoil, det.Recoil.Index(id))
				poly, ferr := fill(g.top, xs, ys, h.color)
				g.legend.add(h.label, poly)
				err = ferr
			case 1:
				if det.Beam == nil || det.Beam.Index(id) < 0 {
					return fmt.Errorf("beam pad %d does not exist", id)
				}
				xs, ys := padXZ(det.Beam, det.Beam.Index(id))
				poly, ferr := fill(g.bottom, xs, ys, h.color)
				g.legend.add(h.label, poly)
				err = ferr
			case 2:
				if det.SSD == nil || det.SSD.Index(id) < 0 {
					return fmt.Errorf("ssd strip %d does not exist", id)
				}
				_, err = g.fillSSD(det.SSD, det.SSD.Index(id), h.color)
			}
			if err != nil {
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
		for _, panel := range g.panels() {
			line, err := drawLine(panel, tr.X, tr.Z, c, vg.Points(2))
			if err != nil {
				return err
			}
			g.legend.add(tr.Label, line)
		}
	}
	return g.Save(path)
}

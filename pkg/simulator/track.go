package simulator

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/fendo/catmlib/pkg/colormap"
	"github.com/fendo/catmlib/pkg/readoutpad"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

var ErrValueRange = errors.New("value outside [0, 1]")

// MCParameter is one Monte Carlo track: start x, y, z in mm and theta, phi
// in degrees.
type MCParameter [5]float64

// TrackSimulator follows a straight track through the gas, ionises it and
// drifts the electrons with diffusion onto the pads.
type TrackSimulator struct {
	BeamInfo string
	// DEdX in MeV/mm, W in eV.
	DEdX float64
	W    float64
	Gain float64
	PC   float64
	Qe   float64

	Pad *readoutpad.PadArray

	TrackPoints    []readoutpad.Vec3
	ElectronPoints []readoutpad.Vec3
	ElectronFactor int
	DiffusedPoints []readoutpad.Vec3
	MCParams       []MCParameter

	rng *rand.Rand
}

func NewTrackSimulator(pad *readoutpad.PadArray, seed uint64) *TrackSimulator {
	return &TrackSimulator{
		BeamInfo: "136Xe@100[MeV/u] in D2gas@40[kPa]",
		DEdX:     0.0708,
		W:        37,
		Gain:     100,
		PC:       1e12,
		Qe:       1.602e-19,
		Pad:      pad,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func direction(theta, phi float64) readoutpad.Vec3 {
	t := theta * math.Pi / 180
	p := phi * math.Pi / 180
	return readoutpad.Vec3{math.Sin(t) * math.Cos(p), math.Sin(t) * math.Sin(p), math.Cos(t)}
}

func trackPoints(start readoutpad.Vec3, theta, phi, zRange float64, points int) ([]readoutpad.Vec3, float64) {
	v := direction(theta, phi)
	tmax := zRange / v[2]
	if points < 1 {
		points = 1
	}
	ts := make([]float64, points)
	if points == 1 {
		ts[0] = 0
	} else {
		floats.Span(ts, 0, tmax)
	}
	out := make([]readoutpad.Vec3, points)
	for i, t := range ts {
		out[i] = readoutpad.Vec3{start[0] + v[0]*t, start[1] + v[1]*t, start[2] + v[2]*t}
	}
	return out, math.Abs(tmax) * floats.Norm(v[:], 2)
}

// GenerateTrack samples points equally spaced in time until the track has
// advanced zRange along z.
func (s *TrackSimulator) GenerateTrack(start readoutpad.Vec3, theta, phi, zRange float64, points int) {
	s.TrackPoints, _ = trackPoints(start, theta, phi, zRange, points)
}

// MonteCarloTrack draws n parameter sets around params. dist and width are
// comma lists with one entry per parameter; dist entries are null, gaus or
// uniform.
func (s *TrackSimulator) MonteCarloTrack(n int, params MCParameter, dist, width string) error {
	if n <= 0 {
		return fmt.Errorf("number of tracks must be positive, got %d", n)
	}
	kinds := strings.Split(dist, ",")
	widths := strings.Split(width, ",")
	if len(kinds) != len(params) || len(widths) != len(params) {
		return fmt.Errorf("expected %d distributions and widths, got %d and %d", len(params), len(kinds), len(widths))
	}

	samplers := make([]func() float64, len(params))
	for i := range params {
		w, err := strconv.ParseFloat(strings.TrimSpace(widths[i]), 64)
		if err != nil {
			return fmt.Errorf("invalid width %q: %w", widths[i], err)
		}
		v := params[i]
		switch strings.TrimSpace(kinds[i]) {
		case "null":
			samplers[i] = func() float64 { return v }
		case "gaus":
			d := distuv.Normal{Mu: v, Sigma: w, Src: s.rng}
			samplers[i] = d.Rand
		case "uniform":
			d := distuv.Uniform{Min: v - w, Max: v + w, Src: s.rng}
			samplers[i] = d.Rand
		default:
			return fmt.Errorf("unknown distribution %q", kinds[i])
		}
	}

	s.MCParams = make([]MCParameter, n)
	for j := range s.MCParams {
		for i, draw := range samplers {
			s.MCParams[j][i] = draw()
		}
	}
	return nil
}

// GenerateIonizedElectrons places the electron points along the track. Each
// point stands for ElectronFactor electrons.
func (s *TrackSimulator) GenerateIonizedElectrons(start readoutpad.Vec3, theta, phi, zRange float64, points int) {
	pts, length := trackPoints(start, theta, phi, zRange, points)
	s.ElectronPoints = pts
	electrons := int(s.DEdX * 10e6 * length / s.W)
	s.ElectronFactor = electrons / len(pts)
}

// DiffusePoints replaces every electron point with gain samples of a 2D
// normal spread sigma on plane. The third coordinate is kept. A zero sigma
// repeats each point gain times.
func (s *TrackSimulator) DiffusePoints(plane string, gain int, sigma float64) error {
	i1, i2 := readoutpad.PlaneIndices(plane)
	if len(plane) != 2 || i1 == i2 {
		return fmt.Errorf("invalid plane %q", plane)
	}
	if gain <= 0 {
		return fmt.Errorf("diffusion gain must be positive, got %d", gain)
	}
	if sigma < 0 || math.IsNaN(sigma) {
		return fmt.Errorf("invalid diffusion sigma %g", sigma)
	}
	s.DiffusedPoints = make([]readoutpad.Vec3, 0, len(s.ElectronPoints)*gain)
	if sigma == 0 {
		for _, p := range s.ElectronPoints {
			for k := 0; k < gain; k++ {
				s.DiffusedPoints = append(s.DiffusedPoints, p)
			}
		}
		return nil
	}

	cov := mat.NewSymDense(2, []float64{sigma, 0, 0, sigma})
	normal, ok := distmv.NewNormal([]float64{0, 0}, cov, s.rng)
	if !ok {
		return fmt.Errorf("invalid diffusion sigma %g", sigma)
	}

	sample := make([]float64, 2)
	for _, p := range s.ElectronPoints {
		for k := 0; k < gain; k++ {
			normal.Rand(sample)
			q := p
			q[i1] += sample[0]
			q[i2] += sample[1]
			s.DiffusedPoints = append(s.DiffusedPoints, q)
		}
	}
	return nil
}

// CountPadElectrons stores in Pad.Charges the number of diffused points that
// fall inside each pad's xz projection.
func (s *TrackSimulator) CountPadElectrons() {
	s.Pad.ResetCharges()
	for i := range s.Pad.Pads {
		xs, zs := s.Pad.Projected(i, "xz")
		xmin, xmax := floats.Min(xs), floats.Max(xs)
		zmin, zmax := floats.Min(zs), floats.Max(zs)
		for _, p := range s.DiffusedPoints {
			if p[0] < xmin || p[0] > xmax || p[2] < zmin || p[2] > zmax {
				continue
			}
			if s.Pad.Contains(i, "xz", p[0], p[2]) {
				s.Pad.Charges[i]++
			}
		}
	}
}

// PadCharge converts the electron counts into charge in pC.
func (s *TrackSimulator) PadCharge(diffusionGain int) {
	scale := float64(s.ElectronFactor) * s.Gain * s.Qe * s.PC / float64(diffusionGain)
	for i := range s.Pad.Charges {
		s.Pad.Charges[i] *= scale
	}
}

// ValueToColor maps a normalised charge onto the reversed terrain map.
func ValueToColor(v float64) (color.Color, error) {
	if v < 0 || v > 1 || math.IsNaN(v) {
		return nil, fmt.Errorf("%w: %g", ErrValueRange, v)
	}
	cmap, err := colormap.Get("terrain_r")
	if err != nil {
		return nil, err
	}
	return cmap.At(v)
}

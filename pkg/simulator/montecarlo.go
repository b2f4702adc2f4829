package simulator

import (
	"errors"
	"fmt"
	"math"

	"github.com/fendo/catmlib/pkg/readoutpad"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Options drive a Monte Carlo run over one pad layout.
type Options struct {
	NumTracks       int
	StartY          float64
	Theta           float64
	Phi             float64
	MCDistribution  string
	MCWidth         string
	Gain            float64
	DiffusionGain   int
	Diffusion       float64
	Threshold       float64
	GlobalThreshold float64
	ElectronPoints  int
	Seed            uint64
}

func DefaultOptions() Options {
	return Options{
		NumTracks:       1,
		StartY:          19.8,
		MCDistribution:  "gaus,gaus,null,gaus,gaus",
		MCWidth:         "5,5,5,10,10",
		Gain:            60,
		DiffusionGain:   20,
		Diffusion:       0.5,
		Threshold:       0.2,
		GlobalThreshold: 0.2,
		ElectronPoints:  100,
		Seed:            1,
	}
}

// zRange is the drift length that crosses every pad plus 1 mm on each side.
func zRange(pad *readoutpad.PadArray) (float64, float64) {
	zmin, zmax := pad.Bounds(2)
	return zmin - 1, zmax - zmin + 2
}

// InitTrackSimulator draws the Monte Carlo parameters around the pad centre
// and simulates the first track on it.
func InitTrackSimulator(pad *readoutpad.PadArray, opts Options) (*TrackSimulator, error) {
	if pad.Len() == 0 {
		return nil, errors.New("pad array is empty")
	}
	sim := NewTrackSimulator(pad, opts.Seed)
	sim.Gain = opts.Gain

	xs := make([]float64, pad.Len())
	for i, c := range pad.Centers {
		xs[i] = c[0]
	}
	zStart, dz := zRange(pad)
	start := MCParameter{stat.Mean(xs, nil), opts.StartY, zStart, opts.Theta, opts.Phi}

	if err := sim.MonteCarloTrack(opts.NumTracks, start, opts.MCDistribution, opts.MCWidth); err != nil {
		return nil, err
	}
	if err := sim.runTrack(sim.MCParams[0], dz, opts.ElectronPoints, opts.DiffusionGain, opts.Diffusion); err != nil {
		return nil, err
	}
	logger.Info(fmt.Sprintf("Track simulator ready: %d tracks, z range %.2f mm", len(sim.MCParams), dz), "simulator")
	return sim, nil
}

func (s *TrackSimulator) runTrack(p MCParameter, dz float64, points, diffusionGain int, diffusion float64) error {
	start := readoutpad.Vec3{p[0], p[1], p[2]}
	s.GenerateTrack(start, p[3], p[4], dz, points)
	s.GenerateIonizedElectrons(start, p[3], p[4], dz, points)
	if err := s.DiffusePoints("xz", diffusionGain, diffusion); err != nil {
		return err
	}
	s.CountPadElectrons()
	s.PadCharge(diffusionGain)
	return nil
}

// XPosition is the charge weighted mean x of the pads, NaN without charge.
func XPosition(centers []readoutpad.Vec3, charge []float64) float64 {
	total := floats.Sum(charge)
	if total == 0 {
		return math.NaN()
	}
	var sum float64
	for i, q := range charge {
		sum += centers[i][0] * q
	}
	return sum / total
}

// SimulatePadCharge runs every Monte Carlo track and returns the x position
// and the pad charges of each.
func SimulatePadCharge(sim *TrackSimulator, gain float64, diffusionGain int, diffusion float64, points int) ([]float64, [][]float64, error) {
	sim.Gain = gain
	_, dz := zRange(sim.Pad)
	xpos := make([]float64, len(sim.MCParams))
	charges := make([][]float64, len(sim.MCParams))
	for k, p := range sim.MCParams {
		if err := sim.runTrack(p, dz, points, diffusionGain, diffusion); err != nil {
			return nil, nil, fmt.Errorf("track %d: %w", k, err)
		}
		charges[k] = append([]float64(nil), sim.Pad.Charges...)
		xpos[k] = XPosition(sim.Pad.Centers, charges[k])
	}
	return xpos, charges, nil
}

// PadChargeThreshold zeroes every charge at or below thr and recomputes the
// x positions.
func PadChargeThreshold(centers []readoutpad.Vec3, charge [][]float64, thr float64) ([]float64, [][]float64) {
	xpos := make([]float64, len(charge))
	cut := make([][]float64, len(charge))
	for k, row := range charge {
		cut[k] = make([]float64, len(row))
		for i, q := range row {
			if q > thr {
				cut[k][i] = q
			}
		}
		xpos[k] = XPosition(centers, cut[k])
	}
	return xpos, cut
}

// Analysis summarises a Monte Carlo run.
type Analysis struct {
	// Non-zero pad charges before and after the threshold.
	OriginalCharge []float64
	CutCharge      []float64
	XPos           []float64
	XPosThreshold  []float64
	Resolution     []float64
	// Multiplicity is the number of pads above the global threshold per track.
	Multiplicity []int
}

func nonZero(charge [][]float64) []float64 {
	var out []float64
	for _, row := range charge {
		for _, q := range row {
			if q != 0 {
				out = append(out, q)
			}
		}
	}
	return out
}

func AnalyzePositions(centers []readoutpad.Vec3, xpos []float64, charge [][]float64, opts Options) Analysis {
	xthr, cut := PadChargeThreshold(centers, charge, opts.Threshold)

	a := Analysis{
		OriginalCharge: nonZero(charge),
		CutCharge:      nonZero(cut),
		XPos:           xpos,
		XPosThreshold:  xthr,
		Resolution:     make([]float64, len(xpos)),
		Multiplicity:   make([]int, len(charge)),
	}
	for k := range xpos {
		a.Resolution[k] = xpos[k] - xthr[k]
	}
	for k, row := range charge {
		for _, q := range row {
			if q > opts.GlobalThreshold {
				a.Multiplicity[k]++
			}
		}
	}
	return a
}

package simulator

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/fendo/catmlib/pkg/readoutpad"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"
)

func TestTrialArrays(t *testing.T) {
	t.Parallel()

	tests := []struct {
		version int
		pads    int
	}{
		{0, 22},
		{1, 22},
		{2, 60},
	}
	for _, tt := range tests {
		pad, err := TrialBeamTPCArray(tt.version)
		require.NoError(t, err)
		assert.Equal(t, tt.pads, pad.Len())
		assert.Equal(t, tt.pads-1, pad.IDs[pad.Len()-1])
	}

	_, err := TrialBeamTPCArray(3)
	assert.Error(t, err)
	_, err = TrialArray("recoiltpc", 0)
	assert.Error(t, err)
	pad, err := TrialArray(BeamTPCType, 1)
	require.NoError(t, err)
	assert.Equal(t, 22, pad.Len())
}

func TestTrialShift(t *testing.T) {
	t.Parallel()

	original, err := OriginalBeamTPCArray()
	require.NoError(t, err)
	shifted, err := OneFourthShiftBeamTPCArray()
	require.NoError(t, err)

	assert.InDelta(t, 0, original.Centers[0][0], 1e-9)
	assert.InDelta(t, 5/math.Sqrt(3)/2, original.Centers[0][2], 1e-9)

	// the first row is shared, the second moves by a quarter pitch
	assert.InDelta(t, original.Centers[3][0], shifted.Centers[3][0], 1e-9)
	assert.InDelta(t, original.Centers[11][0]+1.25, shifted.Centers[11][0], 1e-9)
	assert.InDelta(t, original.Centers[11][2], shifted.Centers[11][2], 1e-9)

	ch60, err := Beam60chArray()
	require.NoError(t, err)
	assert.InDelta(t, 1.5*1.5-15.75, ch60.Centers[0][0], 1e-9)
}

func TestGenerateTrack(t *testing.T) {
	t.Parallel()

	sim := NewTrackSimulator(readoutpad.NewPadArray(), 1)
	sim.GenerateTrack(readoutpad.Vec3{1, 2, 3}, 0, 0, 10, 11)
	require.Len(t, sim.TrackPoints, 11)
	assert.Equal(t, readoutpad.Vec3{1, 2, 3}, sim.TrackPoints[0])
	assert.InDelta(t, 13, sim.TrackPoints[10][2], 1e-9)
	assert.InDelta(t, 4, sim.TrackPoints[1][2], 1e-9)

	sim.GenerateIonizedElectrons(readoutpad.Vec3{}, 0, 0, 10, 100)
	assert.Len(t, sim.ElectronPoints, 100)
	electrons := 0.0708 * 10e6 * 10 / 37
	assert.Equal(t, int(electrons)/100, sim.ElectronFactor)
}

func TestMonteCarloTrack(t *testing.T) {
	t.Parallel()

	params := MCParameter{1, 2, 3, 4, 5}
	sim := NewTrackSimulator(readoutpad.NewPadArray(), 7)
	require.NoError(t, sim.MonteCarloTrack(50, params, "null,uniform,gaus,null,null", "1,0.5,2,1,1"))
	require.Len(t, sim.MCParams, 50)
	for _, p := range sim.MCParams {
		assert.Equal(t, 1.0, p[0])
		assert.GreaterOrEqual(t, p[1], 1.5)
		assert.LessOrEqual(t, p[1], 2.5)
		assert.Equal(t, 5.0, p[4])
	}

	other := NewTrackSimulator(readoutpad.NewPadArray(), 7)
	require.NoError(t, other.MonteCarloTrack(50, params, "null,uniform,gaus,null,null", "1,0.5,2,1,1"))
	assert.Equal(t, sim.MCParams, other.MCParams)

	assert.Error(t, sim.MonteCarloTrack(1, params, "null,null", "1,1,1,1,1"))
	assert.Error(t, sim.MonteCarloTrack(1, params, "null,null,null,null,poisson", "1,1,1,1,1"))
	assert.Error(t, sim.MonteCarloTrack(1, params, "null,null,null,null,null", "1,1,1,1,x"))

	for _, n := range []int{0, -1} {
		err := sim.MonteCarloTrack(n, params, "null,null,null,null,null", "1,1,1,1,1")
		assert.EqualError(t, err, fmt.Sprintf("number of tracks must be positive, got %d", n))
	}
}

func TestDiffuseAndCount(t *testing.T) {
	t.Parallel()

	pad, err := OriginalBeamTPCArray()
	require.NoError(t, err)
	sim := NewTrackSimulator(pad, 3)
	sim.ElectronPoints = []readoutpad.Vec3{{0, 7, 0}, {5, 7, 0}}
	require.NoError(t, sim.DiffusePoints("xz", 10, 0.1))
	require.Len(t, sim.DiffusedPoints, 20)
	for _, p := range sim.DiffusedPoints {
		assert.Equal(t, 7.0, p[1])
	}
	assert.Error(t, sim.DiffusePoints("x", 10, 0.1))
	assert.Error(t, sim.DiffusePoints("xz", 10, -0.1))
	assert.Error(t, sim.DiffusePoints("xz", -1, 0.1))

	require.NoError(t, sim.DiffusePoints("xz", 3, 0))
	assert.Equal(t, []readoutpad.Vec3{{0, 7, 0}, {0, 7, 0}, {0, 7, 0}, {5, 7, 0}, {5, 7, 0}, {5, 7, 0}}, sim.DiffusedPoints)

	sim.DiffusedPoints = []readoutpad.Vec3{pad.Centers[0], pad.Centers[0], pad.Centers[5], {500, 0, 500}}
	sim.CountPadElectrons()
	assert.Equal(t, 2.0, pad.Charges[0])
	assert.Equal(t, 1.0, pad.Charges[5])
	assert.Equal(t, 3.0, sum(pad.Charges))

	sim.ElectronFactor = 10
	sim.PadCharge(20)
	assert.InDelta(t, 2*10*100*1.602e-19*1e12/20, pad.Charges[0], 1e-12)
}

func sum(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s
}

func TestValueToColor(t *testing.T) {
	t.Parallel()

	_, err := ValueToColor(0.5)
	assert.NoError(t, err)
	_, err = ValueToColor(1.5)
	assert.ErrorIs(t, err, ErrValueRange)
	_, err = ValueToColor(-0.1)
	assert.ErrorIs(t, err, ErrValueRange)
}

func TestChargeAnalysis(t *testing.T) {
	t.Parallel()

	centers := []readoutpad.Vec3{{0, 0, 0}, {2, 0, 0}, {4, 0, 0}}
	assert.True(t, math.IsNaN(XPosition(centers, []float64{0, 0, 0})))
	assert.InDelta(t, 1.0, XPosition(centers, []float64{1, 1, 0}), 1e-12)

	charge := [][]float64{{0.1, 1, 1}, {0, 0, 0.3}}
	xthr, cut := PadChargeThreshold(centers, charge, 0.2)
	assert.Equal(t, [][]float64{{0, 1, 1}, {0, 0, 0.3}}, cut)
	if diff := cmp.Diff([]float64{3, 4}, xthr, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("threshold positions (-want +got):\n%s", diff)
	}

	xpos := []float64{XPosition(centers, charge[0]), XPosition(centers, charge[1])}
	opts := DefaultOptions()
	opts.Threshold = 0.2
	opts.GlobalThreshold = 0.5
	a := AnalyzePositions(centers, xpos, charge, opts)
	assert.Equal(t, []float64{0.1, 1, 1, 0.3}, a.OriginalCharge)
	assert.Equal(t, []float64{1, 1, 0.3}, a.CutCharge)
	assert.Equal(t, []int{2, 0}, a.Multiplicity)
	assert.InDelta(t, 6/2.1-3, a.Resolution[0], 1e-12)
	assert.InDelta(t, 0, a.Resolution[1], 1e-12)
}

func TestSimulation(t *testing.T) {
	t.Parallel()

	pad, err := OriginalBeamTPCArray()
	require.NoError(t, err)
	opts := DefaultOptions()
	opts.NumTracks = 3
	opts.ElectronPoints = 20
	opts.DiffusionGain = 5

	sim, err := InitTrackSimulator(pad, opts)
	require.NoError(t, err)
	assert.Len(t, sim.MCParams, 3)
	assert.Len(t, sim.TrackPoints, 20)
	assert.Len(t, sim.DiffusedPoints, 100)

	xpos, charges, err := SimulatePadCharge(sim, 120, opts.DiffusionGain, opts.Diffusion, opts.ElectronPoints)
	require.NoError(t, err)
	assert.Len(t, xpos, 3)
	require.Len(t, charges, 3)
	assert.Len(t, charges[0], 22)

	a := AnalyzePositions(pad.Centers, xpos, charges, opts)
	assert.Len(t, a.Multiplicity, 3)

	dir := t.TempDir()
	mc, err := MCParameterPlot(sim.MCParams)
	require.NoError(t, err)
	require.NoError(t, SaveGrid(filepath.Join(dir, "mc.png"), mc, "", 8*vg.Inch, 8*vg.Inch))

	pc, err := PositionChargePlot(a)
	require.NoError(t, err)
	require.Len(t, pc, 3)
	require.NoError(t, SaveGrid(filepath.Join(dir, "pc.png"), pc, PositionChargeTitle(opts), 8*vg.Inch, 10*vg.Inch))

	for _, mode := range []string{ModeTrack, ModeIonized, ModeDiffused} {
		p, err := TrackPlot(sim, "xz", mode)
		require.NoError(t, err)
		require.NoError(t, p.Save(4*vg.Inch, 4*vg.Inch, filepath.Join(dir, mode+".png")))
	}
	_, err = TrackPlot(sim, "xz", "beam")
	assert.Error(t, err)

	for _, name := range []string{"mc.png", "pc.png", "track.png"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	_, err = InitTrackSimulator(readoutpad.NewPadArray(), opts)
	assert.Error(t, err)
}

func TestInitTrackSimulatorOptions(t *testing.T) {
	t.Parallel()

	pad, err := OriginalBeamTPCArray()
	require.NoError(t, err)

	tests := []struct {
		name    string
		tracks  int
		sigma   float64
		wantErr string
	}{
		{name: "zero tracks", tracks: 0, sigma: 0.5, wantErr: "number of tracks must be positive, got 0"},
		{name: "negative tracks", tracks: -1, sigma: 0.5, wantErr: "number of tracks must be positive, got -1"},
		{name: "negative diffusion", tracks: 1, sigma: -0.5, wantErr: "invalid diffusion sigma -0.5"},
		{name: "no diffusion", tracks: 2, sigma: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.NumTracks = tt.tracks
			opts.Diffusion = tt.sigma
			opts.ElectronPoints = 10
			opts.DiffusionGain = 4

			sim, err := InitTrackSimulator(pad, opts)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, sim.MCParams, tt.tracks)
			require.Len(t, sim.DiffusedPoints, 40)
			for i, p := range sim.DiffusedPoints {
				assert.Equal(t, sim.ElectronPoints[i/4], p)
			}
		})
	}
}

//go:build hdf5

package h5out

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/fendo/catmlib/pkg/readoutpad"
	"github.com/fendo/catmlib/pkg/simulator"
	"github.com/jmbenlloch/go-hdf5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readDims(t *testing.T, f *hdf5.File, name string) []uint {
	t.Helper()
	dset, err := f.OpenDataset(name)
	require.NoError(t, err)
	defer dset.Close()
	space := dset.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	require.NoError(t, err)
	return dims
}

func TestWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.h5")
	w, err := NewWriter(path, 4)
	require.NoError(t, err)

	pad := readoutpad.NewPadArray()
	shape, err := readoutpad.GenerateRegularNPolygon(3, 4.74, 90)
	require.NoError(t, err)
	pad.AddBasePad(shape)
	require.NoError(t, pad.AddPads(readoutpad.Vec3{}, 0, 0, 0, 0, 0))
	require.NoError(t, pad.AddPads(readoutpad.Vec3{2.5, 0, 0}, 0, 0, 180, 0, 1))

	require.NoError(t, w.WriteRunInfo(RunInfo{RunID: "run-1", PadType: "beamtpc", NumTracks: 3, Gain: 120}))
	require.NoError(t, w.WriteMCParameters([]simulator.MCParameter{{1, 2, 3, 4, 5}, {6, 7, 8, 9, 10}}))
	require.NoError(t, w.WriteMCParameters([]simulator.MCParameter{{1, 1, 1, 1, 1}}))
	require.NoError(t, w.WritePads(pad))
	for k := 0; k < 3; k++ {
		require.NoError(t, w.WriteCharge([]float64{float64(k), 1}))
	}
	require.NoError(t, w.WritePositions(simulator.Analysis{
		XPos:          []float64{1, 2, 3},
		XPosThreshold: []float64{1, 2, 3},
		Resolution:    []float64{0, 0, 0},
		Multiplicity:  []int{1, 2, 0},
	}))
	assert.Equal(t, 3, w.TrackCounter)
	require.NoError(t, w.Close())

	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []uint{1}, readDims(t, f, "Run/runInfo"))
	assert.Equal(t, []uint{3}, readDims(t, f, "Simulation/mcParams"))
	assert.Equal(t, []uint{2}, readDims(t, f, "Pads/geometry"))
	assert.Equal(t, []uint{3, 2}, readDims(t, f, "Simulation/charge"))
	assert.Equal(t, []uint{3}, readDims(t, f, "Simulation/positions"))

	dset, err := f.OpenDataset("Simulation/charge")
	require.NoError(t, err)
	defer dset.Close()
	charge := make([]float64, 6)
	require.NoError(t, dset.Read(&charge))
	assert.Equal(t, []float64{0, 1, 1, 1, 2, 1}, charge)

	info, err := f.OpenDataset("Run/runInfo")
	require.NoError(t, err)
	defer info.Close()
	rows := make([]runInfoHDF5, 1)
	require.NoError(t, info.Read(&rows))
	assert.Equal(t, "run-1", string(bytes.TrimRight(rows[0].runID[:], "\x00")))
	assert.Equal(t, int32(3), rows[0].numTracks)
}

func TestNewWriterError(t *testing.T) {
	_, err := NewWriter(filepath.Join(t.TempDir(), "missing", "sim.h5"), 0)
	var openErr *ErrOpenFile
	assert.ErrorAs(t, err, &openErr)
}

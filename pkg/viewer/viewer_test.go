package viewer

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/fendo/catmlib/pkg/readoutpad"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindNearestIndex(t *testing.T) {
	t.Parallel()

	assert.Equal(t, -1, FindNearestIndex(nil, 1))
	assert.Equal(t, 2, FindNearestIndex([]float64{0, 1, 2.1, 5}, 2.4))
	// ties resolve to the first index
	assert.Equal(t, 0, FindNearestIndex([]float64{1, 3}, 2))
}

func TestDipoleTrack(t *testing.T) {
	t.Parallel()

	ts := []float64{0, math.Pi / 2}
	x, y, z := DipoleTrack(readoutpad.Vec3{1, 2, 0}, readoutpad.Vec3{0, 0, 0}, 1, ts)

	opt := cmpopts.EquateApprox(0, 1e-12)
	assert.True(t, cmp.Equal([]float64{0, 1}, x, opt), x)
	assert.True(t, cmp.Equal([]float64{0, math.Pi}, y, opt), y)
	assert.True(t, cmp.Equal([]float64{0, -1}, z, opt), z)
}

func TestUnitVector(t *testing.T) {
	t.Parallel()

	u, err := UnitVector(readoutpad.Vec3{3, 0, 4})
	require.NoError(t, err)
	assert.InDelta(t, 0.6, u[0], 1e-12)
	assert.InDelta(t, 0.8, u[2], 1e-12)

	_, err = UnitVector(readoutpad.Vec3{})
	assert.ErrorIs(t, err, ErrZeroComponent)
}

func TestExtrapolatedPosition(t *testing.T) {
	t.Parallel()

	got, err := ExtrapolatedPosition(readoutpad.Vec3{0, 0, 0}, readoutpad.Vec3{1, 2, 4}, 8, 2)
	require.NoError(t, err)
	assert.Equal(t, readoutpad.Vec3{2, 4, 8}, got)

	_, err = ExtrapolatedPosition(readoutpad.Vec3{}, readoutpad.Vec3{0, 1, 1}, 3, 0)
	assert.ErrorIs(t, err, ErrZeroComponent)

	_, err = ExtrapolatedPosition(readoutpad.Vec3{}, readoutpad.Vec3{1, 1, 1}, 3, 3)
	assert.ErrorIs(t, err, ErrInvalidAxis)
}

func TestColorList(t *testing.T) {
	t.Parallel()

	bins, colors, err := ColorList([]float64{0.2, 3.7}, "viridis", "hex")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, bins)
	require.Len(t, colors, 5)
	assert.Equal(t, "#440154", colors[0])
	assert.Equal(t, "#fde725", colors[4])

	_, rgb, err := ColorList([]float64{1}, "viridis", "rgb")
	require.NoError(t, err)
	assert.Equal(t, []string{"rgb(68,1,84)"}, rgb)

	_, _, err = ColorList([]float64{1}, "viridis", "hsv")
	assert.ErrorIs(t, err, ErrColorFormat)

	bins, colors, err = ColorList(nil, "viridis", "hex")
	require.NoError(t, err)
	assert.Empty(t, bins)
	assert.Empty(t, colors)
}

func TestColorArray(t *testing.T) {
	t.Parallel()

	bins := []int{0, 1, 2}
	colors := []string{"#000000", "#111111", "#222222"}

	got, err := ColorArray([]float64{1.9, 0, 2}, bins, colors)
	require.NoError(t, err)
	assert.Equal(t, []string{"#111111", "#000000", "#222222"}, got)

	_, err = ColorArray([]float64{5}, bins, colors)
	assert.Error(t, err)
}

func TestSSDPanels(t *testing.T) {
	t.Parallel()

	ssd, err := readoutpad.SSDArray()
	require.NoError(t, err)

	tests := []struct {
		id   int
		want []float64
	}{
		{0, []float64{-255, -263, -263, -255}},
		{30, []float64{-255, -247, -247, -255}},
		{50, []float64{255, 247, 247, 255}},
		{80, []float64{255, 263, 263, 255}},
	}
	for _, tt := range tests {
		xs, ys := ssdXZ(ssd, ssd.Index(tt.id))
		assert.Equal(t, tt.want, xs, "id %d", tt.id)
		assert.Less(t, ys[0], ys[2])
	}
}

func TestProjectionOrigin(t *testing.T) {
	t.Parallel()

	proj := newProjection(elevation, azimuth)
	assert.Equal(t, 0.0, proj.point(readoutpad.Vec3{}).X)

	up := proj.point(readoutpad.Vec3{0, 1, 0})
	assert.InDelta(t, math.Cos(50*math.Pi/180), up.Y, 1e-12)
}

func TestViewsRender(t *testing.T) {
	t.Parallel()

	det, err := DefaultDetectors()
	require.NoError(t, err)
	dir := t.TempDir()

	cat := filepath.Join(dir, "categories.png")
	require.NoError(t, Plot2DCategories(det, CategoryOptions{
		Recoil: []Category{{Label: "cobo 0", IDs: []int{0, 1, 2}}},
		Beam:   []Category{{Label: "beam", IDs: []int{3}}},
		SSD:    []Category{{Label: "ssd", IDs: []int{10, 60}}},
		Legend: true,
		Title:  "catm readpad view at XZ plane",
	}, cat))

	tracks := []Line{{
		X:     []float64{0, 10},
		Y:     []float64{-99, -99},
		Z:     []float64{-250, 200},
		Label: "Track (Beam Particle)",
	}}
	traj := filepath.Join(dir, "trajectory.png")
	require.NoError(t, Plot2DTrajectory(det, TrajectoryOptions{
		RecoilHits: []int{5},
		BeamHits:   []int{0},
		Tracks:     tracks,
	}, traj))

	view := filepath.Join(dir, "view3d.png")
	require.NoError(t, Plot3DTrajectory(Detectors{Beam: det.Beam}, Trajectory3DOptions{
		BeamHits: []int{1},
		Tracks:   tracks,
		Hits:     []Points{{X: []float64{0}, Y: []float64{-99}, Z: []float64{-250}, Label: "hit"}},
	}, view))

	for _, p := range []string{cat, traj, view} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	err = Plot2DCategories(det, CategoryOptions{Beam: []Category{{IDs: []int{999}}}}, cat)
	assert.Error(t, err)
}

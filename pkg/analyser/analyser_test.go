package analyser

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type peak struct {
	amplitude, mean, sigma float64
}

func writeSPE(t *testing.T, dir, name string, channels int, peaks ...peak) string {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "$SPEC_ID:\n%s\n$DATE_MEA:\n01/30/2025 10:52:52\n$DATA:\n0 %d\n", name, channels-1)
	for c := 0; c < channels; c++ {
		var v float64
		for _, p := range peaks {
			v += gaussian(float64(c), p.amplitude, p.mean, p.sigma)
		}
		fmt.Fprintf(&b, "%d\n", int(math.Round(v)))
	}
	b.WriteString("$ROI:\n0\n")
	path := filepath.Join(dir, name+".spe")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestFindPeak(t *testing.T) {
	t.Parallel()

	path := writeSPE(t, t.TempDir(), "two", 512, peak{500, 100, 8}, peak{1000, 300, 8})

	tests := []struct {
		name string
		opts PeakOptions
		want []int
	}{
		{"smoothed", PeakOptions{Smooth: 1, CountsThreshold: 5}, []int{100, 300}},
		{"rebinned", PeakOptions{Rebin: 10, CountsThreshold: 5}, []int{105, 305}},
		{"channel threshold", PeakOptions{Smooth: 1, CountsThreshold: 5, ChannelThreshold: 200}, []int{300}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMultiChannelAnalyzer()
			m.CalibrationPath = path
			require.NoError(t, m.FindPeak(tt.opts, LabelCalibration))
			assert.Equal(t, tt.want, m.Calibration.Peaks)
			for i, idx := range m.Calibration.Peaks {
				assert.Equal(t, m.Calibration.Spectrum.Y[idx], m.Calibration.PeakCounts[i])
			}
		})
	}

	m := NewMultiChannelAnalyzer()
	assert.Error(t, m.FindPeak(PeakOptions{}, "other"))
	m.CalibrationPath = filepath.Join(t.TempDir(), "missing.spe")
	assert.Error(t, m.FindPeak(PeakOptions{}, LabelCalibration))

	m.CalibrationPath = path
	assert.EqualError(t, m.FindPeak(PeakOptions{Rebin: -2}, LabelCalibration), "rebin must not be negative, got -2")
	assert.EqualError(t, m.FindPeak(PeakOptions{Smooth: -1}, LabelCalibration), "smoothing sigma must not be negative, got -1")
	assert.Nil(t, m.Calibration)

	m.DataFiles = []string{path}
	assert.Error(t, m.FindPeak(PeakOptions{Rebin: -2}, LabelData))
	assert.Empty(t, m.Data)
}

func TestFitGaussian(t *testing.T) {
	t.Parallel()

	var x, y []float64
	for c := 220.0; c <= 280; c++ {
		x = append(x, c)
		y = append(y, gaussian(c, 1000, 250, 12))
	}
	p, err := fitGaussian(x, y, [3]float64{1000, 250, 10})
	require.NoError(t, err)
	assert.InDelta(t, 1000, p[0], 0.1)
	assert.InDelta(t, 250, p[1], 0.01)
	assert.InDelta(t, 12, p[2], 0.01)

	_, err = fitGaussian(x[:2], y[:2], [3]float64{1, 1, 1})
	assert.Error(t, err)
}

func calibrated(t *testing.T) *MultiChannelAnalyzer {
	t.Helper()
	inputs := []float64{50, 100, 150, 200}
	var peaks []peak
	for _, in := range inputs {
		peaks = append(peaks, peak{800, 2*in + 10, 6})
	}
	path := writeSPE(t, t.TempDir(), "calibration", 512, peaks...)

	m, err := CheckCalibrationData(path, inputs, PeakOptions{Smooth: 1, CountsThreshold: 5}, 30, 10)
	require.NoError(t, err)
	return m
}

func TestCalibration(t *testing.T) {
	t.Parallel()

	m := calibrated(t)
	require.Len(t, m.Calibration.Fits, 4)
	for i, want := range []float64{110, 210, 310, 410} {
		assert.InDelta(t, want, m.Calibration.Fits[i].Mean, 0.05)
		assert.InDelta(t, 6, m.Calibration.Fits[i].Sigma, 0.05)
		assert.Len(t, m.Calibration.Fits[i].Model, 61)
	}
	assert.InDelta(t, 0.5, m.A, 1e-3)
	assert.InDelta(t, -5, m.B, 0.1)

	a, b := m.A, m.B
	m.InputValues = m.InputValues[:3]
	assert.Error(t, m.CalculateCalibrationParameters())
	assert.Equal(t, a, m.A)
	assert.Equal(t, b, m.B)

	require.NoError(t, m.RemoveFittedPeak(LabelCalibration, []int{9, 0, 2}))
	means := m.Calibration.Means()
	require.Len(t, means, 2)
	assert.InDelta(t, 210, means[0], 0.05)
	assert.InDelta(t, 410, means[1], 0.05)
}

func TestGain(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for i, mean := range []float64{200, 300} {
		writeSPE(t, dir, fmt.Sprintf("fn-%d", 10-i*8), 512, peak{400, mean, 10}, peak{400, mean + 120, 10})
	}

	m := NewMultiChannelAnalyzer()
	m.A, m.B = 0.5, -5
	require.NoError(t, m.SetDataFilePathList(filepath.Join(dir, "fn*.spe")))
	require.Len(t, m.DataFiles, 2)
	assert.Equal(t, "fn-10.spe", filepath.Base(m.DataFiles[0]))
	SortByNumber(m.DataFiles)
	assert.Equal(t, "fn-2.spe", filepath.Base(m.DataFiles[0]))

	require.NoError(t, m.FindPeak(PeakOptions{Smooth: 1, CountsThreshold: 5}, LabelData))
	require.Len(t, m.Data, 2)
	require.NoError(t, m.FitData([][]float64{{30}}, 10))
	require.NoError(t, m.RemoveFittedPeak(LabelData, []int{1}, []int{1}))
	require.Len(t, m.Data[0].Fits, 1)

	require.NoError(t, m.CalculateQmeas())
	require.Len(t, m.Qmeas, 2)
	assert.InDelta(t, -5+0.5*300, m.Qmeas[0], 0.05)
	assert.InDelta(t, -5+0.5*200, m.Qmeas[1], 0.05)
	assert.InDelta(t, 5, m.QmeasErr[0], 0.05)

	m.SetGainParameters(0.2702e6, 1, 26, 0, 300)
	assert.Equal(t, 1.602e-7, m.Qe)
	require.NoError(t, m.CalculateGain())
	primary := 0.2702e6 * 1 * 1.602e-7 / 26
	assert.InDelta(t, m.Qmeas[0]/300/primary, m.Gain[0], 1e-9)
	assert.InDelta(t, m.QmeasErr[1]/300/primary, m.GainErr[1], 1e-9)

	m.Voltages = []float64{390, 380}
	gain, err := m.GainChart(true)
	require.NoError(t, err)
	tiles, err := m.DataChart(false, true, false)
	require.NoError(t, err)
	assert.Len(t, tiles, 2)
	all, err := m.DataChart(true, true, true)
	require.NoError(t, err)

	out := filepath.Join(dir, "gain.html")
	require.NoError(t, SavePage(out, append(append(tiles, all...), gain)...))
	html, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Gain Curve")
	assert.Contains(t, string(html), "fn-2, FID:0, HID:0")
}

func TestCalibrationCharts(t *testing.T) {
	t.Parallel()

	m := calibrated(t)
	spectrum, err := m.CalibrationChart(false)
	require.NoError(t, err)
	line, err := m.CalibrationLineChart()
	require.NoError(t, err)
	hist, err := HistogramChart(m.CalibrationPath, true)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "calibration.html")
	require.NoError(t, SavePage(out, spectrum, line, hist))
	html, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Input Values vs Fitted Values")
	assert.Contains(t, string(html), "FID:3")
}

func TestExtractNumber(t *testing.T) {
	t.Parallel()

	files := []string{"a-10.spe", "b.spe", "a-2.spe", "a-1.spe"}
	SortByNumber(files)
	assert.Equal(t, []string{"a-1.spe", "a-2.spe", "a-10.spe", "b.spe"}, files)
	assert.True(t, math.IsInf(ExtractNumber("run.txt"), 1))

	m := NewMultiChannelAnalyzer()
	assert.Error(t, m.SetDataFilePathList("["))
	assert.Error(t, m.CalculateQmeas())
	assert.Error(t, m.CalculateGain())
}

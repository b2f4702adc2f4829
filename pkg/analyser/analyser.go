// Package analyser finds and fits peaks in multi-channel analyser spectra,
// calibrates channels against reference inputs and turns fitted peaks into
// detector gain.
package analyser

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/fendo/catmlib/pkg/config"
	"github.com/fendo/catmlib/pkg/dataforming"
	"github.com/fendo/catmlib/pkg/logging"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

var logger logging.Logger = logging.Discard()

func SetLogger(l logging.Logger) {
	logger = l
}

const (
	LabelCalibration = "calib"
	LabelData        = "data"
)

type PeakOptions struct {
	Rebin            int
	Smooth           float64
	ChannelThreshold int
	CountsThreshold  int
}

// Validate rejects options the peak search cannot map back onto channels.
func (o PeakOptions) Validate() error {
	if o.Rebin < 0 {
		return fmt.Errorf("rebin must not be negative, got %d", o.Rebin)
	}
	if o.Smooth < 0 || math.IsNaN(o.Smooth) {
		return fmt.Errorf("smoothing sigma must not be negative, got %g", o.Smooth)
	}
	return nil
}

// Fit is a Gaussian fitted around one peak. X and Data are the points in the
// fit window, Model the fitted curve on X.
type Fit struct {
	X         []float64
	Data      []float64
	Model     []float64
	Amplitude float64
	Mean      float64
	Sigma     float64
}

// Dataset is one spectrum with its peaks and fits.
type Dataset struct {
	Path       string
	Spectrum   *dataforming.Spectrum
	Peaks      []int
	PeakCounts []int
	Fits       []Fit
}

func (d *Dataset) Means() []float64 {
	out := make([]float64, len(d.Fits))
	for i, f := range d.Fits {
		out[i] = f.Mean
	}
	return out
}

func (d *Dataset) Sigmas() []float64 {
	out := make([]float64, len(d.Fits))
	for i, f := range d.Fits {
		out[i] = f.Sigma
	}
	return out
}

type MultiChannelAnalyzer struct {
	// dEdX in eV/mm, DL in mm, W in eV, Qe in pC and Cg in V/pC.
	DEdX float64
	DL   float64
	W    float64
	Qe   float64
	Cg   float64

	// Calibration maps a fitted channel to charge as B + A*channel.
	A float64
	B float64

	CalibrationPath string
	InputValues     []float64
	Calibration     *Dataset

	DataFiles []string
	Data      []*Dataset
	Voltages  []float64

	Qmeas    []float64
	QmeasErr []float64
	Gain     []float64
	GainErr  []float64
}

func NewMultiChannelAnalyzer() *MultiChannelAnalyzer {
	return &MultiChannelAnalyzer{
		DEdX: 1e6,
		DL:   12,
		W:    26,
		Qe:   1.602e-7,
		Cg:   1,
		A:    1,
		B:    0,
	}
}

// FromConfiguration takes the gain constants from the mca section.
func FromConfiguration(c config.MCA) *MultiChannelAnalyzer {
	m := NewMultiChannelAnalyzer()
	m.SetGainParameters(c.DEdX, c.DL, c.W, c.Qe, c.Cg)
	return m
}

// SetGainParameters overrides the gain constants. Zero values are ignored.
func (m *MultiChannelAnalyzer) SetGainParameters(dedx, dl, w, qe, cg float64) {
	for _, p := range []struct {
		dst *float64
		v   float64
	}{{&m.DEdX, dedx}, {&m.DL, dl}, {&m.W, w}, {&m.Qe, qe}, {&m.Cg, cg}} {
		if p.v != 0 {
			*p.dst = p.v
		}
	}
}

func prepare(spectrum *dataforming.Spectrum, opts PeakOptions) []float64 {
	data := dataforming.IntsToFloats(spectrum.Y)
	if opts.ChannelThreshold > 0 {
		for i := 0; i < opts.ChannelThreshold && i < len(data); i++ {
			data[i] = 0
		}
	}
	if opts.CountsThreshold > 0 {
		for i, v := range data {
			if v <= float64(opts.CountsThreshold) {
				data[i] = 0
			}
		}
	}
	if opts.Rebin != 0 {
		data = dataforming.RebinHistogram(data, opts.Rebin)
	}
	if opts.Smooth != 0 {
		data = dataforming.GaussianFilter1D(data, opts.Smooth)
	}
	return data
}

func findPeaks(d *Dataset, opts PeakOptions) {
	_, indices := dataforming.FindPeaks(prepare(d.Spectrum, opts))
	if opts.Rebin != 0 {
		indices = dataforming.TransformList(indices, opts.Rebin, opts.Rebin/2)
	}
	n := len(d.Spectrum.Y)
	d.Peaks = d.Peaks[:0]
	d.PeakCounts = d.PeakCounts[:0]
	for _, idx := range indices {
		if idx >= n {
			idx = n - 1
		}
		d.Peaks = append(d.Peaks, idx)
		d.PeakCounts = append(d.PeakCounts, d.Spectrum.Y[idx])
	}
}

func loadDataset(path string, opts PeakOptions) (*Dataset, error) {
	spectrum, err := dataforming.ReadSPEFile(path)
	if err != nil {
		return nil, err
	}
	d := &Dataset{Path: path, Spectrum: spectrum}
	findPeaks(d, opts)
	return d, nil
}

// FindPeak reads the calibration spectrum or every data file, depending on
// label, and locates their peaks.
func (m *MultiChannelAnalyzer) FindPeak(opts PeakOptions, label string) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	verbose := config.GetConfiguration().Verbosity > 0
	switch label {
	case LabelCalibration:
		d, err := loadDataset(m.CalibrationPath, opts)
		if err != nil {
			return err
		}
		m.Calibration = d
		if verbose {
			logger.Info(fmt.Sprintf("(calibration) number of peak: %d, index of peak: %v", len(d.Peaks), d.Peaks), "analyser")
		}
	case LabelData:
		m.Data = m.Data[:0]
		for i, path := range m.DataFiles {
			d, err := loadDataset(path, opts)
			if err != nil {
				return err
			}
			m.Data = append(m.Data, d)
			if verbose {
				logger.Info(fmt.Sprintf("(data) %d number of peak: %d, index of peak: %v", i, len(d.Peaks), d.Peaks), "analyser")
			}
		}
	default:
		return fmt.Errorf("unknown label %q", label)
	}
	return nil
}

func gaussian(x, amplitude, mean, sigma float64) float64 {
	d := (x - mean) / sigma
	return amplitude * math.Exp(-0.5*d*d)
}

// fitGaussian minimises the unit-weight squared residuals of a Gaussian,
// starting from p0 = (amplitude, mean, sigma).
func fitGaussian(x, y []float64, p0 [3]float64) ([3]float64, error) {
	if len(x) < 3 {
		return p0, fmt.Errorf("need at least 3 points to fit a gaussian, got %d", len(x))
	}
	chi2 := func(p []float64) float64 {
		if p[2] == 0 {
			return math.Inf(1)
		}
		var s float64
		for i := range x {
			r := y[i] - gaussian(x[i], p[0], p[1], p[2])
			s += r * r
		}
		return s
	}
	problem := optimize.Problem{
		Func: chi2,
		Grad: func(grad, p []float64) {
			fd.Gradient(grad, chi2, p, &fd.Settings{Formula: fd.Central})
		},
	}
	settings := &optimize.Settings{
		GradientThreshold: 1e-8,
		Converger:         &optimize.FunctionConverge{Absolute: 1e-12, Relative: 1e-12, Iterations: 100},
	}
	result, err := optimize.Minimize(problem, p0[:], settings, &optimize.BFGS{})
	if result == nil {
		return p0, err
	}
	if err != nil && !(result.F < chi2(p0[:])) {
		return p0, fmt.Errorf("gaussian fit: %w", err)
	}
	return [3]float64{result.X[0], result.X[1], math.Abs(result.X[2])}, nil
}

func fitPeak(d *Dataset, peak int, width, sigma0 float64) (Fit, error) {
	center := float64(d.Spectrum.X[peak])
	var fit Fit
	for i, xv := range d.Spectrum.X {
		x := float64(xv)
		if x >= center-width && x <= center+width {
			fit.X = append(fit.X, x)
			fit.Data = append(fit.Data, float64(d.Spectrum.Y[i]))
		}
	}
	p, err := fitGaussian(fit.X, fit.Data, [3]float64{float64(d.Spectrum.Y[peak]), center, sigma0})
	if err != nil {
		return fit, fmt.Errorf("%s peak at %g: %w", d.Path, center, err)
	}
	fit.Amplitude, fit.Mean, fit.Sigma = p[0], p[1], p[2]
	fit.Model = make([]float64, len(fit.X))
	for i, x := range fit.X {
		fit.Model[i] = gaussian(x, fit.Amplitude, fit.Mean, fit.Sigma)
	}
	return fit, nil
}

func fitDataset(d *Dataset, widths []float64, sigma0 float64) error {
	d.Fits = d.Fits[:0]
	for i, peak := range d.Peaks {
		fit, err := fitPeak(d, peak, widths[i%len(widths)], sigma0)
		if err != nil {
			return err
		}
		d.Fits = append(d.Fits, fit)
	}
	return nil
}

func (m *MultiChannelAnalyzer) FitCalibrationData(width, sigma0 float64) error {
	if m.Calibration == nil {
		return errors.New("calibration peaks have not been searched")
	}
	return fitDataset(m.Calibration, []float64{width}, sigma0)
}

// FitData fits every data file. widths[j%len(widths)] is used for file j and
// cycles over its peaks.
func (m *MultiChannelAnalyzer) FitData(widths [][]float64, sigma0 float64) error {
	if len(widths) == 0 {
		return errors.New("no fit width given")
	}
	for j, d := range m.Data {
		w := widths[j%len(widths)]
		if len(w) == 0 {
			return fmt.Errorf("no fit width given for file %d", j)
		}
		if err := fitDataset(d, w, sigma0); err != nil {
			return err
		}
	}
	return nil
}

// CalculateCalibrationParameters fits input = p0 + p1*mean weighted by the
// relative peak width and inverts it into A and B.
func (m *MultiChannelAnalyzer) CalculateCalibrationParameters() error {
	if m.Calibration == nil {
		return errors.New("calibration data have not been fitted")
	}
	means := m.Calibration.Means()
	sigmas := m.Calibration.Sigmas()
	if len(means) != len(m.InputValues) {
		return fmt.Errorf("found %d calibration peaks for %d input values", len(means), len(m.InputValues))
	}
	weights := make([]float64, len(means))
	for i := range means {
		e := sigmas[i] / means[i]
		weights[i] = 1 / (e * e)
	}
	p0, p1 := stat.LinearRegression(m.InputValues, means, weights, false)
	if p1 == 0 || math.IsNaN(p1) {
		return errors.New("calibration slope is zero")
	}
	m.B = -p0 / p1
	m.A = 1 / p1
	logger.Info(fmt.Sprintf("calibration: %.3f + %.3f x", m.B, m.A), "analyser")
	return nil
}

func removeIndices[T any](s []T, indices []int) []T {
	sorted := append([]int(nil), indices...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	for _, idx := range sorted {
		if idx >= 0 && idx < len(s) {
			s = append(s[:idx], s[idx+1:]...)
		}
	}
	return s
}

// RemoveFittedPeak drops fitted peaks. The calibration takes the first index
// list, data take one list per file.
func (m *MultiChannelAnalyzer) RemoveFittedPeak(label string, indices ...[]int) error {
	switch label {
	case LabelCalibration:
		if m.Calibration == nil || len(indices) == 0 {
			return nil
		}
		m.Calibration.Fits = removeIndices(m.Calibration.Fits, indices[0])
	case LabelData:
		for i, d := range m.Data {
			if i >= len(indices) {
				break
			}
			d.Fits = removeIndices(d.Fits, indices[i])
		}
	default:
		return fmt.Errorf("unknown label %q", label)
	}
	return nil
}

// SetDataFilePathList replaces the data files with the lexically sorted
// matches of pattern.
func (m *MultiChannelAnalyzer) SetDataFilePathList(pattern string) error {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}
	sort.Strings(files)
	m.DataFiles = files
	return nil
}

func (m *MultiChannelAnalyzer) AddDataFilePathList(pattern string) error {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}
	sort.Strings(files)
	m.DataFiles = append(m.DataFiles, files...)
	return nil
}

func (m *MultiChannelAnalyzer) CheckDataFile() {
	for _, f := range m.DataFiles {
		logger.Info(f, "analyser")
	}
}

var fileNumber = regexp.MustCompile(`-(\d+)\.spe$`)

// ExtractNumber returns the run number of names like fn-12.spe, or +Inf.
func ExtractNumber(path string) float64 {
	match := fileNumber.FindStringSubmatch(path)
	if match == nil {
		return math.Inf(1)
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return math.Inf(1)
	}
	return float64(n)
}

// SortByNumber orders files by ExtractNumber, keeping ties in place.
func SortByNumber(files []string) {
	sort.SliceStable(files, func(i, j int) bool {
		return ExtractNumber(files[i]) < ExtractNumber(files[j])
	})
}

func (m *MultiChannelAnalyzer) CalculateQmeas() error {
	m.Qmeas = m.Qmeas[:0]
	m.QmeasErr = m.QmeasErr[:0]
	for _, d := range m.Data {
		for _, f := range d.Fits {
			m.Qmeas = append(m.Qmeas, m.B+m.A*f.Mean)
			m.QmeasErr = append(m.QmeasErr, m.A*f.Sigma)
		}
	}
	if len(m.Qmeas) == 0 {
		return errors.New("measured values are empty")
	}
	return nil
}

func (m *MultiChannelAnalyzer) CalculateGain() error {
	if len(m.Qmeas) == 0 {
		return errors.New("measured values are empty")
	}
	primary := m.DEdX * m.DL * m.Qe / m.W
	m.Gain = make([]float64, len(m.Qmeas))
	m.GainErr = make([]float64, len(m.Qmeas))
	for i := range m.Qmeas {
		m.Gain[i] = (m.Qmeas[i] / m.Cg) / primary
		m.GainErr[i] = (m.QmeasErr[i] / m.Cg) / primary
	}
	return nil
}

// CheckCalibrationData runs the whole calibration chain on one file.
func CheckCalibrationData(path string, inputs []float64, opts PeakOptions, width, sigma0 float64) (*MultiChannelAnalyzer, error) {
	m := NewMultiChannelAnalyzer()
	m.CalibrationPath = path
	m.InputValues = inputs
	if err := m.FindPeak(opts, LabelCalibration); err != nil {
		return nil, err
	}
	if err := m.FitCalibrationData(width, sigma0); err != nil {
		return nil, err
	}
	if err := m.CalculateCalibrationParameters(); err != nil {
		return m, err
	}
	return m, nil
}

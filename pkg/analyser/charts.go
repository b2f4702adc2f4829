package analyser

import (
	"errors"
	"fmt"
	"os"

	"github.com/fendo/catmlib/pkg/dataforming"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	chartWidth  = "900px"
	chartHeight = "550px"
)

func yAxis(name string, logY bool) opts.YAxis {
	axis := opts.YAxis{Name: name, NameLocation: "middle", NameGap: 45}
	if logY {
		axis.Type = "log"
	}
	return axis
}

func globalOptions(title, xName, yName string, logY bool) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: xName, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(yAxis(yName, logY)),
	}
}

// Zero counts are dropped on a log axis.
func barPoints(x, y []float64, logY bool) []opts.BarData {
	out := make([]opts.BarData, 0, len(x))
	for i := range x {
		if logY && y[i] <= 0 {
			continue
		}
		out = append(out, opts.BarData{Value: []interface{}{x[i], y[i]}})
	}
	return out
}

func linePoints(x, y []float64) []opts.LineData {
	out := make([]opts.LineData, len(x))
	for i := range x {
		out[i] = opts.LineData{Value: []interface{}{x[i], y[i]}}
	}
	return out
}

func spectrumXY(s *dataforming.Spectrum) ([]float64, []float64) {
	return dataforming.IntsToFloats(s.X), dataforming.IntsToFloats(s.Y)
}

func spectrumChart(title string, s *dataforming.Spectrum, fits []Fit, label func(int, Fit) string, logY bool) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOptions(title, "Channel", "Counts", logY)...)
	x, y := spectrumXY(s)
	bar.AddSeries("mca data", barPoints(x, y, logY))
	if len(fits) == 0 {
		return bar
	}
	line := charts.NewLine()
	for i, f := range fits {
		line.AddSeries(label(i, f), linePoints(f.X, f.Model), charts.WithItemStyleOpts(opts.ItemStyle{Color: "red"}))
	}
	bar.Overlap(line)
	return bar
}

// CalibrationChart shows the calibration spectrum with its fitted peaks.
func (m *MultiChannelAnalyzer) CalibrationChart(logY bool) (*charts.Bar, error) {
	if m.Calibration == nil {
		return nil, errors.New("calibration data have not been read")
	}
	return spectrumChart(m.Calibration.Spectrum.Name, m.Calibration.Spectrum, m.Calibration.Fits, func(i int, f Fit) string {
		return fmt.Sprintf("FID:%d, (%3.2f, %3.2f)", i, f.Mean, f.Sigma)
	}, logY), nil
}

// CalibrationLineChart plots the input values against the fitted means and
// the calibration line through them.
func (m *MultiChannelAnalyzer) CalibrationLineChart() (*charts.Scatter, error) {
	if m.Calibration == nil || len(m.Calibration.Fits) == 0 {
		return nil, errors.New("calibration data have not been fitted")
	}
	means := m.Calibration.Means()
	if len(means) != len(m.InputValues) {
		return nil, fmt.Errorf("found %d calibration peaks for %d input values", len(means), len(m.InputValues))
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(globalOptions("Input Values vs Fitted Values", "Fitted value", "Input values", false)...)
	points := make([]opts.ScatterData, len(means))
	for i := range means {
		points[i] = opts.ScatterData{Value: []interface{}{means[i], m.InputValues[i]}}
	}
	scatter.AddSeries("fitted data plot", points)

	fitted := make([]float64, len(means))
	for i, x := range means {
		fitted[i] = m.B + m.A*x
	}
	line := charts.NewLine()
	line.AddSeries(fmt.Sprintf("%.3f+%.3fx", m.B, m.A), linePoints(means, fitted), charts.WithItemStyleOpts(opts.ItemStyle{Color: "red"}))
	scatter.Overlap(line)
	return scatter, nil
}

// DataChart draws the data files with their fits, either all fit windows in
// one chart or one chart per file.
func (m *MultiChannelAnalyzer) DataChart(allInOne, drawFits, logY bool) ([]components.Charter, error) {
	if len(m.Data) == 0 {
		return nil, errors.New("no data files have been read")
	}
	if !allInOne {
		out := make([]components.Charter, 0, len(m.Data))
		for _, d := range m.Data {
			var fits []Fit
			if drawFits {
				fits = d.Fits
			}
			out = append(out, spectrumChart(d.Spectrum.Name, d.Spectrum, fits, func(_ int, f Fit) string {
				return fmt.Sprintf("mean:%3.2f, sigma:%3.2f", f.Mean, f.Sigma)
			}, logY))
		}
		return out, nil
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOptions("All Data Plot", "Channel", "Counts", logY)...)
	line := charts.NewLine()
	for i, d := range m.Data {
		for j, f := range d.Fits {
			bar.AddSeries(fmt.Sprintf("%s, FID:%d, HID:%d", d.Spectrum.Name, i, j), barPoints(f.X, f.Data, logY))
			if drawFits {
				line.AddSeries(fmt.Sprintf("FID:%d, HID:%d, (%3.2f, %3.2f)", i, j, f.Mean, f.Sigma), linePoints(f.X, f.Model),
					charts.WithItemStyleOpts(opts.ItemStyle{Color: "black"}))
			}
		}
	}
	if drawFits {
		bar.Overlap(line)
	}
	return []components.Charter{bar}, nil
}

// HistogramChart draws a single SPE file.
func HistogramChart(path string, logY bool) (*charts.Bar, error) {
	s, err := dataforming.ReadSPEFile(path)
	if err != nil {
		return nil, err
	}
	return spectrumChart(s.Name, s, nil, nil, logY), nil
}

// ErrorBarChart plots each series with dashed lines one error above and
// below it.
func ErrorBarChart(title, xTitle, yTitle string, xs, ys, errs [][]float64, labels []string, logY bool) (*charts.Line, error) {
	if len(xs) != len(ys) || len(xs) != len(errs) || len(xs) != len(labels) {
		return nil, errors.New("error bar series have different lengths")
	}
	line := charts.NewLine()
	line.SetGlobalOptions(globalOptions(title, xTitle, yTitle, logY)...)
	for k := range xs {
		if len(xs[k]) != len(ys[k]) || len(xs[k]) != len(errs[k]) {
			return nil, fmt.Errorf("series %s has mismatched point counts", labels[k])
		}
		upper := make([]float64, len(ys[k]))
		lower := make([]float64, len(ys[k]))
		for i := range ys[k] {
			upper[i] = ys[k][i] + errs[k][i]
			lower[i] = ys[k][i] - errs[k][i]
		}
		dashed := charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"})
		line.AddSeries(labels[k], linePoints(xs[k], ys[k]))
		line.AddSeries(labels[k]+" +err", linePoints(xs[k], upper), dashed)
		line.AddSeries(labels[k]+" -err", linePoints(xs[k], lower), dashed)
	}
	return line, nil
}

// GainChart is the gain curve against the applied voltages.
func (m *MultiChannelAnalyzer) GainChart(logY bool) (*charts.Line, error) {
	if len(m.Gain) != len(m.Voltages) {
		return nil, fmt.Errorf("have %d gain values for %d voltages", len(m.Gain), len(m.Voltages))
	}
	return ErrorBarChart("Gain Curve", "Voltage [V]", "Gain",
		[][]float64{m.Voltages}, [][]float64{m.Gain}, [][]float64{m.GainErr}, []string{"fitted data plot"}, logY)
}

// SavePage renders charts into one HTML page.
func SavePage(path string, items ...components.Charter) (err error) {
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(items...)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return page.Render(f)
}

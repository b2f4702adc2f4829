package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/fendo/catmlib/pkg/analyser"
	"github.com/fendo/catmlib/pkg/config"
	"github.com/fendo/catmlib/pkg/dataforming"
	"github.com/fendo/catmlib/pkg/logging"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/spf13/cobra"
)

var logger logging.Logger

var (
	configFile       string
	calibration      string
	inputs           []float64
	dataGlob         string
	voltages         []float64
	rebin            int
	smooth           float64
	countsThreshold  int
	channelThreshold int
	width            float64
	sigma            float64
	output           string
	logY             bool
	tiled            bool
)

var rootCmd = &cobra.Command{
	Use:   "mcagain",
	Short: "MCA calibration and gain analysis",
	Long: `Calibrate the MCA channels with a pulser spectrum of known inputs, then fit
the peaks of the data spectra and convert them into gain. The spectra,
fits, calibration line and gain curve are written to one HTML page.

Examples:
  mcagain --calibration calibration.spe --inputs 52,84,113,145,175,205,240,270,300
  mcagain --calibration calibration.spe --inputs 52,84,113 \
          --data "fn*.spe" --voltages 375,380,385 --rebin 100 --smooth 0.75 -o gain.html`,
	Args:          cobra.NoArgs,
	RunE:          runGain,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	logger = logging.New(os.Stdout, os.Stderr, slog.LevelInfo)
	analyser.SetLogger(logger)
	dataforming.SetLogger(logger)

	f := rootCmd.Flags()
	f.StringVarP(&configFile, "config", "c", "", "configuration file path")
	f.StringVar(&calibration, "calibration", "", "calibration SPE file")
	f.Float64SliceVar(&inputs, "inputs", nil, "input values of the calibration peaks")
	f.StringVar(&dataGlob, "data", "", "glob of data SPE files")
	f.Float64SliceVar(&voltages, "voltages", nil, "applied voltage of each data file")
	f.IntVar(&rebin, "rebin", 0, "bins merged before peak search (default from configuration)")
	f.Float64Var(&smooth, "smooth", 0, "gaussian smoothing sigma (default from configuration)")
	f.IntVar(&countsThreshold, "counts-threshold", 0, "counts at or below are ignored (default from configuration)")
	f.IntVar(&channelThreshold, "channel-threshold", 0, "channels below are ignored")
	f.Float64Var(&width, "width", 0, "fit half width in channels (default from configuration)")
	f.Float64Var(&sigma, "sigma", 0, "initial sigma of the fits (default from configuration)")
	f.StringVarP(&output, "output", "o", "mca.html", "HTML output")
	f.BoolVar(&logY, "log", false, "log scale counts")
	f.BoolVar(&tiled, "tiled", false, "draw one chart per data file")
}

func overlay(cmd *cobra.Command, c *config.MCA) {
	if cmd.Flags().Changed("rebin") {
		c.Rebin = rebin
	}
	if cmd.Flags().Changed("smooth") {
		c.Smooth = smooth
	}
	if cmd.Flags().Changed("counts-threshold") {
		c.CountsThreshold = countsThreshold
	}
	if cmd.Flags().Changed("channel-threshold") {
		c.ChannelThreshold = channelThreshold
	}
	if cmd.Flags().Changed("width") {
		c.FitWidth = width
	}
	if cmd.Flags().Changed("sigma") {
		c.InitialSigma = sigma
	}
}

func runGain(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfiguration(configFile)
	if err != nil {
		return fmt.Errorf("error reading configuration file: %w", err)
	}
	overlay(cmd, &cfg.MCA)
	config.SetConfiguration(cfg)
	if cfg.Verbosity > 0 {
		config.PrintConfiguration(cfg, logger)
	}
	if calibration == "" {
		return errors.New("a calibration file is required")
	}

	opts := analyser.PeakOptions{
		Rebin:            cfg.MCA.Rebin,
		Smooth:           cfg.MCA.Smooth,
		ChannelThreshold: cfg.MCA.ChannelThreshold,
		CountsThreshold:  cfg.MCA.CountsThreshold,
	}
	mca := analyser.FromConfiguration(cfg.MCA)
	mca.CalibrationPath = calibration
	mca.InputValues = inputs
	if err := mca.FindPeak(opts, analyser.LabelCalibration); err != nil {
		return err
	}
	if err := mca.FitCalibrationData(cfg.MCA.FitWidth, cfg.MCA.InitialSigma); err != nil {
		return err
	}

	var charts []components.Charter
	spectrum, err := mca.CalibrationChart(logY)
	if err != nil {
		return err
	}
	charts = append(charts, spectrum)
	if err := mca.CalculateCalibrationParameters(); err != nil {
		logger.Error(fmt.Sprintf("calibration skipped: %v", err))
	} else {
		line, err := mca.CalibrationLineChart()
		if err != nil {
			return err
		}
		charts = append(charts, line)
	}

	if dataGlob != "" {
		if err := mca.SetDataFilePathList(dataGlob); err != nil {
			return err
		}
		analyser.SortByNumber(mca.DataFiles)
		mca.CheckDataFile()
		mca.Voltages = voltages
		if err := mca.FindPeak(opts, analyser.LabelData); err != nil {
			return err
		}
		if err := mca.FitData([][]float64{{cfg.MCA.FitWidth}}, cfg.MCA.InitialSigma); err != nil {
			return err
		}
		data, err := mca.DataChart(!tiled, true, logY)
		if err != nil {
			return err
		}
		charts = append(charts, data...)

		if err := mca.CalculateQmeas(); err != nil {
			return err
		}
		if err := mca.CalculateGain(); err != nil {
			return err
		}
		for i, g := range mca.Gain {
			logger.Info(fmt.Sprintf("peak %d: gain %.2f +- %.2f", i, g, mca.GainErr[i]), "mcagain")
		}
		if len(mca.Voltages) > 0 {
			gain, err := mca.GainChart(logY)
			if err != nil {
				return err
			}
			charts = append(charts, gain)
		}
	}

	if err := analyser.SavePage(output, charts...); err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("Saved %s", output), "mcagain")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

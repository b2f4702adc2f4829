package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fendo/catmlib/pkg/config"
	"github.com/fendo/catmlib/pkg/h5out"
	"github.com/fendo/catmlib/pkg/logging"
	"github.com/fendo/catmlib/pkg/simulator"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

var logger logging.Logger

var (
	configFile         string
	padType            string
	padVersion         int
	numTracks          int
	gemGain            float64
	diffusionGain      int
	diffusionValue     float64
	globalThreshold    float64
	threshold          float64
	flagTrackExample   bool
	flagMCParameter    bool
	flagPositionCharge bool
	outputDir          string
	hdf5File           string
	seed               uint64
)

var rootCmd = &cobra.Command{
	Use:   "simtrack",
	Short: "Monte Carlo track and pad charge simulation",
	Long: `Simulate beam tracks crossing a trial beam TPC: ionisation, diffusion and
pad charge, then the reconstructed x position with and without a charge
threshold.

Examples:
  simtrack -t beamtpc -v 1 -n 1000 --flag-position-charge
  simtrack -n 100 --flag-track-example --flag-mc-parameter --output-dir plots
  simtrack --config sim.json --hdf5 run.h5`,
	Args:          cobra.NoArgs,
	RunE:          runSimulation,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	logger = logging.New(os.Stdout, os.Stderr, slog.LevelInfo)
	simulator.SetLogger(logger)
	h5out.SetLogger(logger)

	f := rootCmd.Flags()
	f.StringVarP(&configFile, "config", "c", "", "configuration file path")
	f.StringVarP(&padType, "pad-type", "t", simulator.BeamTPCType, "trial pad type")
	f.IntVarP(&padVersion, "pad-version", "v", 0, "trial pad version")
	f.IntVarP(&numTracks, "nmax", "n", 1, "number of tracks")
	f.Float64VarP(&gemGain, "gem-gain", "g", 120, "GEM gain")
	f.IntVarP(&diffusionGain, "diffusion-gain", "d", 20, "diffused samples per electron point")
	f.Float64Var(&diffusionValue, "diffusion-value", 0.5, "diffusion width [mm]")
	f.Float64Var(&globalThreshold, "global-threshold-value", 0.2, "charge threshold of the multiplicity [pC]")
	f.Float64Var(&threshold, "threshold", 0.2, "charge threshold of the x position [pC]")
	f.BoolVar(&flagTrackExample, "flag-track-example", false, "draw the first track")
	f.BoolVar(&flagMCParameter, "flag-mc-parameter", false, "draw the Monte Carlo parameters")
	f.BoolVar(&flagPositionCharge, "flag-position-charge", false, "draw the position and charge histograms")
	f.StringVar(&outputDir, "output-dir", ".", "plot directory")
	f.StringVar(&hdf5File, "hdf5", "", "HDF5 output file")
	f.Uint64Var(&seed, "seed", 1, "random seed")
}

// applyFlags overlays the flags given on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Configuration) {
	s := &cfg.Simulation
	set := func(name string, apply func()) {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	set("pad-type", func() { s.PadType = padType })
	set("pad-version", func() { s.PadVersion = padVersion })
	set("nmax", func() { s.NumTracks = numTracks })
	set("gem-gain", func() { s.GEMGain = gemGain })
	set("diffusion-gain", func() { s.DiffusionGain = diffusionGain })
	set("diffusion-value", func() { s.DiffusionValue = diffusionValue })
	set("global-threshold-value", func() { s.GlobalThreshold = globalThreshold })
	set("threshold", func() { s.Threshold = threshold })
	set("seed", func() { s.Seed = seed })
	set("output-dir", func() { cfg.Output.PlotDir = outputDir })
	set("hdf5", func() { cfg.Output.FileOut = hdf5File })
}

func simulationOptions(s config.Simulation) simulator.Options {
	opts := simulator.DefaultOptions()
	opts.NumTracks = s.NumTracks
	opts.StartY = s.StartY
	opts.Theta = s.Theta
	opts.Phi = s.Phi
	opts.MCDistribution = s.MCDistribution
	opts.MCWidth = s.MCWidth
	opts.Gain = s.GEMGain
	opts.DiffusionGain = s.DiffusionGain
	opts.Diffusion = s.DiffusionValue
	opts.Threshold = s.Threshold
	opts.GlobalThreshold = s.GlobalThreshold
	opts.ElectronPoints = s.ElectronPoints
	opts.Seed = s.Seed
	return opts
}

func saveGrid(cfg config.Output, name, title string, plots [][]*plot.Plot) error {
	path := filepath.Join(cfg.PlotDir, name)
	w := vg.Length(cfg.ImageWidth) * vg.Inch * vg.Length(len(plots[0]))
	h := vg.Length(cfg.ImageHeight) * vg.Inch * vg.Length(len(plots))
	if err := simulator.SaveGrid(path, plots, title, w, h); err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("Saved %s", path), "simtrack")
	return nil
}

func trackExample(sim *simulator.TrackSimulator) ([][]*plot.Plot, error) {
	row := make([]*plot.Plot, 0, 3)
	for _, mode := range []string{simulator.ModeTrack, simulator.ModeIonized, simulator.ModeDiffused} {
		p, err := simulator.TrackPlot(sim, "xz", mode)
		if err != nil {
			return nil, err
		}
		row = append(row, p)
	}
	return [][]*plot.Plot{row}, nil
}

func writeHDF5(cfg config.Configuration, runID string, sim *simulator.TrackSimulator, charges [][]float64, a simulator.Analysis) (err error) {
	w, err := h5out.NewWriter(cfg.Output.FileOut, cfg.Output.CompressionLevel)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, w.Close())
	}()

	s := cfg.Simulation
	info := h5out.RunInfo{
		RunID:           runID,
		PadType:         s.PadType,
		PadVersion:      s.PadVersion,
		NumTracks:       len(sim.MCParams),
		Gain:            s.GEMGain,
		DiffusionGain:   s.DiffusionGain,
		Diffusion:       s.DiffusionValue,
		Threshold:       s.Threshold,
		GlobalThreshold: s.GlobalThreshold,
		Seed:            s.Seed,
	}
	if err := w.WriteRunInfo(info); err != nil {
		return err
	}
	if err := w.WriteMCParameters(sim.MCParams); err != nil {
		return err
	}
	if err := w.WritePads(sim.Pad); err != nil {
		return err
	}
	for _, q := range charges {
		if err := w.WriteCharge(q); err != nil {
			return err
		}
	}
	if err := w.WritePositions(a); err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("Wrote %d tracks to %s", w.TrackCounter, cfg.Output.FileOut), "simtrack")
	return nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfiguration(configFile)
	if err != nil {
		return fmt.Errorf("error reading configuration file: %w", err)
	}
	applyFlags(cmd, &cfg)
	config.SetConfiguration(cfg)
	if cfg.Verbosity > 0 {
		config.PrintConfiguration(cfg, logger)
	}

	runID := uuid.New().String()
	logger.Info(fmt.Sprintf("Run %s", runID), "simtrack")

	pad, err := simulator.TrialArray(cfg.Simulation.PadType, cfg.Simulation.PadVersion)
	if err != nil {
		return err
	}
	opts := simulationOptions(cfg.Simulation)
	sim, err := simulator.InitTrackSimulator(pad, opts)
	if err != nil {
		return err
	}

	if flagTrackExample {
		plots, err := trackExample(sim)
		if err != nil {
			return err
		}
		if err := saveGrid(cfg.Output, "track_example.png", sim.BeamInfo, plots); err != nil {
			return err
		}
	}
	if flagMCParameter {
		plots, err := simulator.MCParameterPlot(sim.MCParams)
		if err != nil {
			return err
		}
		if err := saveGrid(cfg.Output, "mc_parameter.png", "", plots); err != nil {
			return err
		}
	}

	xpos, charges, err := simulator.SimulatePadCharge(sim, opts.Gain, opts.DiffusionGain, opts.Diffusion, opts.ElectronPoints)
	if err != nil {
		return err
	}
	analysis := simulator.AnalyzePositions(pad.Centers, xpos, charges, opts)

	if flagPositionCharge {
		plots, err := simulator.PositionChargePlot(analysis)
		if err != nil {
			return err
		}
		if err := saveGrid(cfg.Output, "position_charge.png", simulator.PositionChargeTitle(opts), plots); err != nil {
			return err
		}
	}

	if cfg.Output.FileOut != "" {
		return writeHDF5(cfg, runID, sim, charges, analysis)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

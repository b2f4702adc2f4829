package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fendo/catmlib/pkg/config"
	"github.com/fendo/catmlib/pkg/logging"
	"github.com/fendo/catmlib/pkg/mapping"
	"github.com/fendo/catmlib/pkg/readoutpad"
	"github.com/fendo/catmlib/pkg/viewer"
	"github.com/spf13/cobra"
)

var logger logging.Logger

var (
	configFile string
	output     string
	mapFile    string
	detector   string
	run        int
	cobo       int
	asad       int
	aget       int
	channel    int
	legend     bool
)

var rootCmd = &cobra.Command{
	Use:   "catmview",
	Short: "Draw the CAT-M readout view",
	Long: `Draw the recoil TPC, beam TPC and SSD readout on the XZ plane.

With a channel map, the pads matching the cobo, asad, aget and channel
filters of the selected detector are highlighted. A filter of -1 matches
everything.

Examples:
  catmview -o view.png
  catmview --map recoil.tsv --detector recoil-tpc --cobo 0 --asad 1
  catmview --config catm.json --run 120 --detector beam-tpc`,
	Args:          cobra.NoArgs,
	RunE:          runView,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	logger = logging.New(os.Stdout, os.Stderr, slog.LevelInfo)
	mapping.SetLogger(logger)

	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "configuration file path")
	rootCmd.Flags().StringVarP(&output, "output", "o", "catmview.png", "output image path")
	rootCmd.Flags().StringVarP(&mapFile, "map", "m", "", "channel map file (id cobo asad aget channel)")
	rootCmd.Flags().StringVarP(&detector, "detector", "d", readoutpad.RecoilTPC, "detector of the channel map (recoil-tpc, beam-tpc, ssd)")
	rootCmd.Flags().IntVarP(&run, "run", "r", 0, "load the channel map of this run from the database (default from configuration)")
	rootCmd.Flags().IntVar(&cobo, "cobo", -1, "cobo filter")
	rootCmd.Flags().IntVar(&asad, "asad", -1, "asad filter")
	rootCmd.Flags().IntVar(&aget, "aget", -1, "aget filter")
	rootCmd.Flags().IntVar(&channel, "channel", -1, "channel filter")
	rootCmd.Flags().BoolVarP(&legend, "legend", "l", false, "draw the legend")
}

// applyDefaults fills the run and detector flags left unset from the
// database section of the configuration.
func applyDefaults(cmd *cobra.Command, cfg config.Configuration) {
	if !cmd.Flags().Changed("run") && cfg.Database.Run > 0 {
		run = cfg.Database.Run
	}
	if !cmd.Flags().Changed("detector") && cfg.Database.Detector != "" && run > 0 {
		detector = cfg.Database.Detector
	}
}

func loadEntries(cfg config.Configuration) ([]mapping.Entry, error) {
	if run > 0 {
		db, err := mapping.ConnectToDatabase(cfg.Database.Driver, cfg.Database.User, cfg.Database.Passwd, cfg.Database.Host, cfg.Database.DBName)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return mapping.LoadChannelMap(db, detector, run)
	}
	return mapping.ReadMapFile(mapFile)
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfiguration(configFile)
	if err != nil {
		return fmt.Errorf("error reading configuration file: %w", err)
	}
	config.SetConfiguration(cfg)
	if cfg.Verbosity > 0 {
		config.PrintConfiguration(cfg, logger)
	}
	applyDefaults(cmd, cfg)

	det, err := viewer.DefaultDetectors()
	if err != nil {
		return err
	}

	opts := viewer.CategoryOptions{Legend: legend}
	if mapFile == "" && run == 0 {
		opts.Title = "catm readpad view at XZ plane"
		if err := viewer.Plot2DCategories(det, opts, output); err != nil {
			return err
		}
		logger.Info(fmt.Sprintf("Saved %s", output), "catmview")
		return nil
	}

	entries, err := loadEntries(cfg)
	if err != nil {
		return err
	}
	ids := mapping.PadIDs(entries, mapping.MatchingIndices(entries, cobo, asad, aget, channel))
	logger.Info(fmt.Sprintf("%d of %d pads match", len(ids), len(entries)), "catmview")

	cat := viewer.Category{
		Label: fmt.Sprintf("%s (%d, %d, %d, %d)", detector, cobo, asad, aget, channel),
		IDs:   ids,
	}
	switch detector {
	case readoutpad.RecoilTPC:
		opts.Recoil = []viewer.Category{cat}
	case readoutpad.BeamTPC:
		opts.Beam = []viewer.Category{cat}
	case readoutpad.SSD:
		opts.SSD = []viewer.Category{cat}
	default:
		return fmt.Errorf("detector %q does not exist", detector)
	}
	if err := viewer.Plot2DCategories(det, opts, output); err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("Saved %s", output), "catmview")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

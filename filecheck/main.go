package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/fendo/catmlib/pkg/config"
	"github.com/fendo/catmlib/pkg/dataforming"
	"github.com/fendo/catmlib/pkg/logging"
	"github.com/fendo/catmlib/pkg/mapping"
	"github.com/fendo/catmlib/pkg/xcfg"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var logger logging.Logger

var (
	speDraw    bool
	drawHeight int
	output     string
	depth      int
	configFile string
	store      bool
	detector   string
	minRun     int
	maxRun     int
)

var rootCmd = &cobra.Command{
	Use:   "filecheck <type> <path>",
	Short: "Inspect SPE, TOML, XCFG and channel map files",
	Long: `Inspect an input file. Types:
  spe   MCA spectrum summary, optionally drawn in the terminal
  toml  dump of every key
  xcfg  GET electronics tree, optionally converted to the threshold TSV
  map   pad to channel map summary, optionally stored in the database

Examples:
  filecheck spe calibration.spe -s --draw-height 15
  filecheck toml run.toml
  filecheck xcfg CoBo.xcfg --depth 2 -o thresholds.tsv
  filecheck map recoil.tsv --store --config catm.json --min-run 100 --max-run 200`,
	Args:          cobra.ExactArgs(2),
	RunE:          runCheck,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	logger = logging.New(os.Stdout, os.Stderr, slog.LevelInfo)
	dataforming.SetLogger(logger)
	mapping.SetLogger(logger)

	rootCmd.Flags().BoolVarP(&speDraw, "spe-draw", "s", false, "draw the spectrum in the terminal")
	rootCmd.Flags().IntVar(&drawHeight, "draw-height", 10, "maximum height of the terminal histogram")
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "threshold TSV written from an xcfg file")
	rootCmd.Flags().IntVar(&depth, "depth", 1, "xcfg tree depth to print")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "configuration file path")
	rootCmd.Flags().BoolVar(&store, "store", false, "store the channel map in the database")
	rootCmd.Flags().StringVarP(&detector, "detector", "d", "", "detector name of the stored map (default from configuration)")
	rootCmd.Flags().IntVar(&minRun, "min-run", 0, "first run of the stored map")
	rootCmd.Flags().IntVar(&maxRun, "max-run", 0, "last run of the stored map")
}

func runCheck(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	switch kind, path := args[0], args[1]; kind {
	case "spe":
		return checkSPE(w, path)
	case "toml":
		doc, err := dataforming.ReadTOMLFile(path)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "=== TOML Config Dump ===")
		return doc.Dump(w)
	case "xcfg":
		return checkXCFG(w, path)
	case "map":
		return checkMap(w, path)
	default:
		return fmt.Errorf("file type %q does not exist", kind)
	}
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

func checkSPE(w io.Writer, path string) error {
	spe, err := dataforming.ReadSPEFile(path)
	if err != nil {
		return err
	}
	if len(spe.X) < 2 {
		return fmt.Errorf("%s has %d channels", path, len(spe.X))
	}
	maxIndex := 0
	for i, v := range spe.Y {
		if v > spe.Y[maxIndex] {
			maxIndex = i
		}
	}
	fmt.Fprintf(w, "x range : [%d : %d ], bin number : %d, bin width :%d\n", spe.X[0], spe.X[len(spe.X)-1], len(spe.X), spe.X[1]-spe.X[0])
	fmt.Fprintf(w, "maximum value : %d, index : %d\n", spe.Y[maxIndex], maxIndex)

	if !speDraw {
		return nil
	}
	rebinned := dataforming.TerminalRebin(dataforming.IntsToFloats(spe.Y), terminalWidth())
	return dataforming.DrawTerminalHistogram(w, dataforming.NormalizeHeights(rebinned, drawHeight), drawHeight)
}

func checkXCFG(w io.Writer, path string) error {
	if output != "" {
		if err := xcfg.WriteText(path, output); err != nil {
			return err
		}
		logger.Info(fmt.Sprintf("Wrote %s", output), "filecheck")
	}
	root, err := xcfg.ReadTree(path)
	if err != nil {
		return err
	}
	if err := xcfg.PrintTree(w, root, depth); err != nil {
		return err
	}
	entries, err := xcfg.ThresholdMap(root)
	if err != nil {
		logger.Info(fmt.Sprintf("no threshold summary: %v", err), "filecheck")
		return nil
	}
	return xcfg.SummarizeThresholds(w, entries)
}

type electronics struct {
	cobo, asad, aget int
}

func checkMap(w io.Writer, path string) error {
	entries, err := mapping.ReadMapFile(path)
	if err != nil {
		return err
	}
	keys := make([]electronics, len(entries))
	for i, e := range entries {
		keys[i] = electronics{e.Cobo, e.AsAd, e.Aget}
	}
	groups := xcfg.ClassifyIndices(keys)
	sorted := make([]electronics, 0, len(groups))
	for k := range groups {
		sorted = append(sorted, k)
	}
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.cobo != b.cobo {
			return a.cobo < b.cobo
		}
		if a.asad != b.asad {
			return a.asad < b.asad
		}
		return a.aget < b.aget
	})
	fmt.Fprintf(w, "pads : %d\n", len(entries))
	for _, k := range sorted {
		fmt.Fprintf(w, "cobo %d, asad %d, aget %d : %d channels\n", k.cobo, k.asad, k.aget, len(groups[k]))
	}
	for _, name := range []string{"cobo", "asad", "aget", "channel"} {
		col, err := mapping.Column(entries, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s : %v\n", name, xcfg.SortedKeys(xcfg.ClassifyIndices(col)))
	}

	if !store {
		return nil
	}
	cfg, err := config.LoadConfiguration(configFile)
	if err != nil {
		return fmt.Errorf("error reading configuration file: %w", err)
	}
	if detector == "" {
		detector = cfg.Database.Detector
	}
	if maxRun < minRun {
		return fmt.Errorf("invalid run range %d-%d", minRun, maxRun)
	}
	db, err := mapping.ConnectToDatabase(cfg.Database.Driver, cfg.Database.User, cfg.Database.Passwd, cfg.Database.Host, cfg.Database.DBName)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := mapping.CreateSchema(db); err != nil {
		return err
	}
	if err := mapping.StoreChannelMap(db, detector, entries, minRun, maxRun); err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("Stored %d pads of %s for runs %d-%d", len(entries), detector, minRun, maxRun), "filecheck")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

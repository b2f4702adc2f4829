package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fendo/catmlib/pkg/logging"
	"github.com/fendo/catmlib/pkg/readoutpad"
	"github.com/spf13/cobra"
)

var logger logging.Logger

var (
	padName string
	plane   string
	output  string
	checkID bool
)

var rootCmd = &cobra.Command{
	Use:   "padview",
	Short: "Draw the pad layout of one CAT-M detector",
	Long: `Draw the pads of the recoil TPC, the beam TPC or the SSD projected on a
plane.

Examples:
  padview --pad beam-tpc --plane xz
  padview --pad ssd --plane yz -o ssd.png`,
	Args:          cobra.NoArgs,
	RunE:          runPadView,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	logger = logging.New(os.Stdout, os.Stderr, slog.LevelInfo)

	rootCmd.Flags().StringVarP(&padName, "pad", "p", readoutpad.RecoilTPC, "pad type (beam-tpc, recoil-tpc or ssd)")
	rootCmd.Flags().StringVar(&plane, "plane", "xz", "projection plane")
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "output image path (default <pad>_<plane>.png)")
	rootCmd.Flags().BoolVar(&checkID, "check-id", false, "draw the pad ids")
}

func runPadView(cmd *cobra.Command, args []string) error {
	pad, err := readoutpad.DetectorArray(padName)
	if err != nil {
		return err
	}
	if output == "" {
		output = fmt.Sprintf("%s_%s.png", padName, plane)
	}
	opts := readoutpad.ShowOptions{Plane: plane, CheckID: checkID, Title: padName}
	if err := pad.Save(output, opts); err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("Saved %d pads to %s", pad.Len(), output), "padview")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

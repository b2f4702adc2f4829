package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fendo/catmlib/pkg/logging"
	"github.com/fendo/catmlib/pkg/readoutpad"
	"github.com/fendo/catmlib/pkg/simulator"
	"github.com/spf13/cobra"
)

var logger logging.Logger

var (
	padType    string
	padVersion int
	padPlane   string
	output     string
)

var rootCmd = &cobra.Command{
	Use:   "checktrialpad",
	Short: "Draw a trial beam TPC pad layout",
	Long: `Draw one of the trial beam TPC layouts used by the track simulation.

Versions: 0 original, 1 one-fourth shift, 2 60 channels.

Examples:
  checktrialpad -t beamtpc -v 2 -p xz`,
	Args:          cobra.NoArgs,
	RunE:          runCheck,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	logger = logging.New(os.Stdout, os.Stderr, slog.LevelInfo)
	simulator.SetLogger(logger)

	rootCmd.Flags().StringVarP(&padType, "pad-type", "t", simulator.BeamTPCType, "trial pad type")
	rootCmd.Flags().IntVarP(&padVersion, "pad-version", "v", 0, "trial pad version")
	rootCmd.Flags().StringVarP(&padPlane, "pad-plane", "p", "xz", "projection plane")
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "output image path (default trialpad_<type>_v<version>.png)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	pad, err := simulator.TrialArray(padType, padVersion)
	if err != nil {
		return err
	}
	if output == "" {
		output = fmt.Sprintf("trialpad_%s_v%d.png", padType, padVersion)
	}
	opts := readoutpad.ShowOptions{
		Plane:   padPlane,
		CheckID: true,
		Title:   fmt.Sprintf("%s version %d", padType, padVersion),
	}
	if err := pad.Save(output, opts); err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("Saved %d pads to %s", pad.Len(), output), "checktrialpad")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

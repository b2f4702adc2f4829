package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fendo/catmlib/pkg/gifgen"
	"github.com/fendo/catmlib/pkg/logging"
	"github.com/spf13/cobra"
)

var logger logging.Logger

var duration int

var rootCmd = &cobra.Command{
	Use:   "generategif <pattern> <outdir>",
	Short: "Assemble image frames into an animated GIF",
	Long: `Assemble the frames matching a glob into a looping GIF written to
<outdir>/YYYYMMDD/<unix time>.gif. Frames are ordered by modification time.

Examples:
  generategif "plots/*.png" ./gif
  generategif "frames/track_*.png" . --duration 100`,
	Args:          cobra.ExactArgs(2),
	RunE:          runGenerate,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	logger = logging.New(os.Stdout, os.Stderr, slog.LevelInfo)
	gifgen.SetLogger(logger)

	rootCmd.Flags().IntVarP(&duration, "duration", "d", 200, "display time of one frame in ms")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	path, err := gifgen.Generate(gifgen.Options{
		Pattern:   args[0],
		OutputDir: args[1],
		Duration:  duration,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

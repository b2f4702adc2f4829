package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/fendo/catmlib/pkg/circuit"
	"github.com/fendo/catmlib/pkg/config"
	"github.com/fendo/catmlib/pkg/logging"
	"github.com/spf13/cobra"
)

const (
	typeVoltage   = "voltage"
	typeCondition = "condition"
)

var logger logging.Logger

var (
	configFile  string
	setType     string
	resistors   []float64
	voltages    []float64
	conditions  []float64
	ngspicePath string
	pressure    float64
	diagram     string
)

var rootCmd = &cobra.Command{
	Use:   "setvoltage",
	Short: "Voltage setting of the double mini TPC and double THGEM chain",
	Long: `Simulate the high voltage chain of two mini TPCs read by two THGEMs with
ngspice.

With --type voltage the source voltages are applied and the resulting
fields are printed. With --type condition the target fields and GEM
voltages are turned into source voltages, searching the two field cage
sources numerically.

Examples:
  setvoltage --type voltage --voltages=-1400,-583,-480,-440,-40
  setvoltage --type condition --conditions=-1,400,-1,400,-1 --pressure 0.2
  setvoltage --type voltage --diagram chain.png`,
	Args:          cobra.NoArgs,
	RunE:          runSetVoltage,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	logger = logging.New(os.Stdout, os.Stderr, slog.LevelInfo)
	circuit.SetLogger(logger)

	f := rootCmd.Flags()
	f.StringVarP(&configFile, "config", "c", "", "configuration file path")
	f.StringVarP(&setType, "type", "t", typeCondition, "setting type (voltage or condition)")
	f.Float64SliceVar(&resistors, "resistors", []float64{1, 10, 10, 10}, "pull-down resistors [MΩ]")
	f.Float64SliceVar(&voltages, "voltages", []float64{-1400, -583, -480, -440, -40}, "source voltages [V]")
	f.Float64SliceVar(&conditions, "conditions", []float64{-1, 400, -1, 400, -1}, "fields [kV/cm/atm] and GEM voltages [V]")
	f.StringVar(&ngspicePath, "ngspice", "", "ngspice binary (default from configuration)")
	f.Float64VarP(&pressure, "pressure", "p", 0, "gas pressure [atm] (default from configuration)")
	f.StringVar(&diagram, "diagram", "", "draw the circuit of every stage to this image")
}

func report(setting *circuit.VoltageSetting) error {
	readings, err := setting.SourceVoltageCurrent()
	if err != nil {
		return err
	}
	for _, r := range readings {
		logger.Info(fmt.Sprintf("stage %d %s: %s", r.Stage, r.Node, r), "setvoltage")
	}
	if err := setting.CalculateFieldStrength(); err != nil {
		return err
	}
	for _, c := range setting.Conditions() {
		logger.Info(c.String(), "setvoltage")
	}
	return nil
}

func reversed(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[len(v)-1-i] = x
	}
	return out
}

func runSetVoltage(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfiguration(configFile)
	if err != nil {
		return fmt.Errorf("error reading configuration file: %w", err)
	}
	config.SetConfiguration(cfg)
	if ngspicePath == "" {
		ngspicePath = cfg.Circuit.Ngspice
	}
	if pressure == 0 {
		pressure = cfg.Circuit.Pressure
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stages, err := circuit.DoubleMiniTPCDoubleTHGEM(resistors)
	if err != nil {
		return err
	}
	for _, s := range stages {
		s.Netlist.Temperature = cfg.Circuit.Temperature
	}
	if diagram != "" {
		if err := circuit.SaveStageDiagrams(diagram, stages, circuit.DiagramOptions{Values: true}); err != nil {
			return err
		}
		logger.Info(fmt.Sprintf("Saved %s", diagram), "setvoltage")
	}
	setting := circuit.NewVoltageSetting(stages, circuit.DefaultSpaces(), pressure, &circuit.Ngspice{Binary: ngspicePath})

	switch setType {
	case typeVoltage:
		sources, err := circuit.SourcesFromList(stages, voltages)
		if err != nil {
			return err
		}
		if err := setting.SetVoltages(ctx, sources); err != nil {
			return err
		}
	case typeCondition:
		if err := setting.SetCondition(conditions); err != nil {
			return err
		}
		trial := setting.EstimateTrialInputVoltage()
		logger.Info(fmt.Sprintf("trial input voltages: %.2f", reversed(trial)), "setvoltage")
		sources, err := circuit.SourcesFromList(stages, reversed(trial))
		if err != nil {
			return err
		}
		if err := setting.SetVoltages(ctx, sources); err != nil {
			return err
		}
		if _, err := setting.SearchFirstStageVoltages(ctx); err != nil {
			return err
		}
	default:
		return fmt.Errorf("setting type %q does not exist", setType)
	}

	if err := setting.SimulateAllStages(ctx); err != nil {
		return err
	}
	return report(setting)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

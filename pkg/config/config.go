package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fendo/catmlib/pkg/logging"
)

type Simulation struct {
	PadType         string  `json:"pad_type"`
	PadVersion      int     `json:"pad_version"`
	NumTracks       int     `json:"num_tracks"`
	GEMGain         float64 `json:"gem_gain"`
	DiffusionGain   int     `json:"diffusion_gain"`
	DiffusionValue  float64 `json:"diffusion_value"`
	Threshold       float64 `json:"threshold"`
	GlobalThreshold float64 `json:"global_threshold"`
	StartY          float64 `json:"start_y"`
	Theta           float64 `json:"theta"`
	Phi             float64 `json:"phi"`
	MCDistribution  string  `json:"mc_distribution"`
	MCWidth         string  `json:"mc_width"`
	ElectronPoints  int     `json:"electron_points"`
	Seed            uint64  `json:"seed"`
}

type Database struct {
	Driver   string `json:"driver"`
	Host     string `json:"host"`
	User     string `json:"user"`
	Passwd   string `json:"pass"`
	DBName   string `json:"dbname"`
	Detector string `json:"detector"`
	Run      int    `json:"run"`
}

type Output struct {
	FileOut          string  `json:"file_out"`
	CompressionLevel int     `json:"compression_level"`
	PlotDir          string  `json:"plot_dir"`
	ImageWidth       float64 `json:"image_width"`
	ImageHeight      float64 `json:"image_height"`
}

type MCA struct {
	Rebin            int     `json:"rebin"`
	Smooth           float64 `json:"smooth"`
	ChannelThreshold int     `json:"channel_threshold"`
	CountsThreshold  int     `json:"counts_threshold"`
	FitWidth         float64 `json:"fit_width"`
	InitialSigma     float64 `json:"initial_sigma"`
	DEdX             float64 `json:"dedx"`
	DL               float64 `json:"dl"`
	W                float64 `json:"w"`
	Qe               float64 `json:"qe"`
	Cg               float64 `json:"cg"`
}

type Circuit struct {
	Ngspice     string  `json:"ngspice"`
	Pressure    float64 `json:"pressure"`
	Temperature float64 `json:"temperature"`
}

type Configuration struct {
	Verbosity  int        `json:"verbosity"`
	Simulation Simulation `json:"simulation"`
	Database   Database   `json:"database"`
	Output     Output     `json:"output"`
	MCA        MCA        `json:"mca"`
	Circuit    Circuit    `json:"circuit"`
}

var configuration = Default()

func GetConfiguration() Configuration {
	return configuration
}

func SetConfiguration(config Configuration) {
	configuration = config
}

func Default() Configuration {
	var config Configuration

	config.Verbosity = 0

	config.Simulation.PadType = "beamtpc"
	config.Simulation.PadVersion = 0
	config.Simulation.NumTracks = 1
	config.Simulation.GEMGain = 120
	config.Simulation.DiffusionGain = 20
	config.Simulation.DiffusionValue = 0.5
	config.Simulation.Threshold = 0.2
	config.Simulation.GlobalThreshold = 0.2
	config.Simulation.StartY = 19.8
	config.Simulation.MCDistribution = "gaus,gaus,null,gaus,gaus"
	config.Simulation.MCWidth = "5,5,5,10,10"
	config.Simulation.ElectronPoints = 100
	config.Simulation.Seed = 1

	config.Database.Driver = "mysql"
	config.Database.Host = "localhost"
	config.Database.User = "catmreader"
	config.Database.Passwd = "readonly"
	config.Database.DBName = "CATM"
	config.Database.Detector = "recoil-tpc"

	config.Output.CompressionLevel = 4
	config.Output.PlotDir = "."
	config.Output.ImageWidth = 6
	config.Output.ImageHeight = 5

	config.MCA.Rebin = 20
	config.MCA.Smooth = 1
	config.MCA.CountsThreshold = 50
	config.MCA.FitWidth = 30
	config.MCA.InitialSigma = 10
	config.MCA.DEdX = 1e6
	config.MCA.DL = 12
	config.MCA.W = 26
	config.MCA.Qe = 1.602e-7
	config.MCA.Cg = 1

	config.Circuit.Ngspice = "ngspice"
	config.Circuit.Pressure = 0.2
	config.Circuit.Temperature = 25

	return config
}

// LoadConfiguration returns the defaults overlaid with the JSON file, if any.
func LoadConfiguration(filename string) (Configuration, error) {
	config := Default()
	if filename == "" {
		return config, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, fmt.Errorf("error parsing configuration %s: %w", filename, err)
	}
	return config, nil
}

func PrintConfiguration(config Configuration, logger logging.Logger) {
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Pad type: %s", config.Simulation.PadType), "config")
	logger.Info(fmt.Sprintf("Pad version: %d", config.Simulation.PadVersion), "config")
	logger.Info(fmt.Sprintf("Number of tracks: %d", config.Simulation.NumTracks), "config")
	logger.Info(fmt.Sprintf("GEM gain: %g", config.Simulation.GEMGain), "config")
	logger.Info(fmt.Sprintf("Diffusion gain: %d", config.Simulation.DiffusionGain), "config")
	logger.Info(fmt.Sprintf("Diffusion value: %g", config.Simulation.DiffusionValue), "config")
	logger.Info(fmt.Sprintf("Threshold: %g", config.Simulation.Threshold), "config")
	logger.Info(fmt.Sprintf("Global threshold: %g", config.Simulation.GlobalThreshold), "config")
	logger.Info(fmt.Sprintf("Start y: %g", config.Simulation.StartY), "config")
	logger.Info(fmt.Sprintf("MC distribution: %s", config.Simulation.MCDistribution), "config")
	logger.Info(fmt.Sprintf("MC width: %s", config.Simulation.MCWidth), "config")
	logger.Info(fmt.Sprintf("Seed: %d", config.Simulation.Seed), "config")
	logger.Info(fmt.Sprintf("DB driver: %s", config.Database.Driver), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Database.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.Database.DBName), "config")
	logger.Info(fmt.Sprintf("Detector: %s", config.Database.Detector), "config")
	logger.Info(fmt.Sprintf("Run: %d", config.Database.Run), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.Output.FileOut), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.Output.CompressionLevel), "config")
	logger.Info(fmt.Sprintf("Plot directory: %s", config.Output.PlotDir), "config")
	logger.Info(fmt.Sprintf("MCA rebin: %d", config.MCA.Rebin), "config")
	logger.Info(fmt.Sprintf("MCA smooth: %g", config.MCA.Smooth), "config")
	logger.Info(fmt.Sprintf("MCA counts threshold: %d", config.MCA.CountsThreshold), "config")
	logger.Info(fmt.Sprintf("MCA fit width: %g", config.MCA.FitWidth), "config")
	logger.Info(fmt.Sprintf("Ngspice: %s", config.Circuit.Ngspice), "config")
	logger.Info(fmt.Sprintf("Pressure: %g", config.Circuit.Pressure), "config")
}

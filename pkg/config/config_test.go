package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordLogger struct {
	messages []string
}

func (r *recordLogger) Info(message string, module string) {
	r.messages = append(r.messages, module+": "+message)
}

func (r *recordLogger) Error(message string) {}

func TestLoadConfigurationDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfiguration("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "beamtpc", cfg.Simulation.PadType)
	assert.Equal(t, 120.0, cfg.Simulation.GEMGain)
	assert.Equal(t, "gaus,gaus,null,gaus,gaus", cfg.Simulation.MCDistribution)
	assert.Equal(t, 0.2, cfg.Circuit.Pressure)
}

func TestLoadConfigurationOverlay(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catm.json")
	content := `{"verbosity": 2, "simulation": {"num_tracks": 500, "seed": 7}, "database": {"driver": "sqlite", "dbname": "map.db"}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfiguration(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Verbosity)
	assert.Equal(t, 500, cfg.Simulation.NumTracks)
	assert.Equal(t, uint64(7), cfg.Simulation.Seed)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "map.db", cfg.Database.DBName)
	// untouched fields keep their defaults
	assert.Equal(t, 20, cfg.Simulation.DiffusionGain)
	assert.Equal(t, "localhost", cfg.Database.Host)
}

func TestLoadConfigurationErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadConfiguration(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{verbosity"), 0o644))
	_, err = LoadConfiguration(path)
	assert.ErrorContains(t, err, "error parsing configuration")
}

func TestPrintConfiguration(t *testing.T) {
	t.Parallel()

	rec := &recordLogger{}
	PrintConfiguration(Default(), rec)
	require.NotEmpty(t, rec.messages)
	assert.Contains(t, rec.messages, "config: Pad type: beamtpc")
	assert.Contains(t, rec.messages, "config: Ngspice: ngspice")
}

func TestSetConfiguration(t *testing.T) {
	cfg := Default()
	cfg.Verbosity = 3
	SetConfiguration(cfg)
	defer SetConfiguration(Default())
	assert.Equal(t, 3, GetConfiguration().Verbosity)
}

// Package h5out writes Monte Carlo track simulation results to HDF5.
//
// Layout:
//
//	/Run/runInfo          one row of run settings
//	/Simulation/mcParams  drawn track parameters
//	/Simulation/charge    [track, pad] charge in pC
//	/Simulation/positions reconstructed x per track
//	/Pads/geometry        pad id and centre
package h5out

import (
	"errors"
	"fmt"

	"github.com/fendo/catmlib/pkg/logging"
	"github.com/fendo/catmlib/pkg/readoutpad"
	"github.com/fendo/catmlib/pkg/simulator"
	"github.com/jmbenlloch/go-hdf5"
)

var logger logging.Logger = logging.Discard()

func SetLogger(l logging.Logger) {
	logger = l
}

// RunInfo describes the settings of one simulation run.
type RunInfo struct {
	RunID           string
	PadType         string
	PadVersion      int
	NumTracks       int
	Gain            float64
	DiffusionGain   int
	Diffusion       float64
	Threshold       float64
	GlobalThreshold float64
	Seed            uint64
}

type Writer struct {
	File            *hdf5.File
	Filename        string
	Compression     int
	RunGroup        *hdf5.Group
	SimGroup        *hdf5.Group
	PadGroup        *hdf5.Group
	RunInfoTable    *hdf5.Dataset
	MCParamsTable   *hdf5.Dataset
	PadsTable       *hdf5.Dataset
	PositionsTable  *hdf5.Dataset
	ChargeArray     *hdf5.Dataset
	TrackCounter    int
	positionCounter int
	mcCounter       int
}

func NewWriter(filename string, compression int) (*Writer, error) {
	hdf5.SetStringLength(STRLEN)

	logger.Info(fmt.Sprintf("Creating file: %s", filename), "h5out")
	w := &Writer{Filename: filename, Compression: compression}
	var err error
	if w.File, err = openFile(filename); err != nil {
		return nil, err
	}

	groups := []struct {
		name string
		dst  **hdf5.Group
	}{
		{"Run", &w.RunGroup},
		{"Simulation", &w.SimGroup},
		{"Pads", &w.PadGroup},
	}
	for _, g := range groups {
		if *g.dst, err = createGroup(w.File, g.name); err != nil {
			return nil, errors.Join(err, w.Close())
		}
	}

	tables := []struct {
		group *hdf5.Group
		name  string
		dtype interface{}
		dst   **hdf5.Dataset
	}{
		{w.RunGroup, "runInfo", runInfoHDF5{}, &w.RunInfoTable},
		{w.SimGroup, "mcParams", mcParameterHDF5{}, &w.MCParamsTable},
		{w.SimGroup, "positions", positionHDF5{}, &w.PositionsTable},
		{w.PadGroup, "geometry", padHDF5{}, &w.PadsTable},
	}
	for _, t := range tables {
		if *t.dst, err = createTable(t.group, t.name, t.dtype, compression); err != nil {
			return nil, errors.Join(err, w.Close())
		}
	}
	return w, nil
}

func (w *Writer) WriteRunInfo(info RunInfo) error {
	entry := []runInfoHDF5{{
		runID:           convertToHdf5String(info.RunID),
		padType:         convertToHdf5String(info.PadType),
		padVersion:      int32(info.PadVersion),
		numTracks:       int32(info.NumTracks),
		gain:            info.Gain,
		diffusionGain:   int32(info.DiffusionGain),
		diffusion:       info.Diffusion,
		threshold:       info.Threshold,
		globalThreshold: info.GlobalThreshold,
		seed:            info.Seed,
	}}
	if err := writeArrayToTable(w.RunInfoTable, &entry, 0); err != nil {
		return fmt.Errorf("error writing run info: %w", err)
	}
	return nil
}

func (w *Writer) WriteMCParameters(params []simulator.MCParameter) error {
	entries := make([]mcParameterHDF5, len(params))
	for i, p := range params {
		entries[i] = mcParameterHDF5{
			track: int32(w.mcCounter + i),
			x:     p[0],
			y:     p[1],
			z:     p[2],
			theta: p[3],
			phi:   p[4],
		}
	}
	if err := writeArrayToTable(w.MCParamsTable, &entries, w.mcCounter); err != nil {
		return fmt.Errorf("error writing MC parameters: %w", err)
	}
	w.mcCounter += len(entries)
	return nil
}

func (w *Writer) WritePads(pad *readoutpad.PadArray) error {
	entries := make([]padHDF5, pad.Len())
	for i, c := range pad.Centers {
		entries[i] = padHDF5{padID: int32(pad.IDs[i]), x: c[0], y: c[1], z: c[2]}
	}
	if err := writeArrayToTable(w.PadsTable, &entries, 0); err != nil {
		return fmt.Errorf("error writing pad geometry: %w", err)
	}
	return nil
}

// WriteCharge appends the pad charges of the next track. The array is sized
// by the first call.
func (w *Writer) WriteCharge(charge []float64) error {
	if w.ChargeArray == nil {
		dset, err := create2dArray(w.SimGroup, "charge", len(charge), w.Compression)
		if err != nil {
			return err
		}
		w.ChargeArray = dset
	}
	row := append([]float64(nil), charge...)
	if err := write2dArray(w.ChargeArray, &row, w.TrackCounter); err != nil {
		return fmt.Errorf("error writing charge of track %d: %w", w.TrackCounter, err)
	}
	w.TrackCounter++
	return nil
}

func (w *Writer) WritePositions(a simulator.Analysis) error {
	entries := make([]positionHDF5, len(a.XPos))
	for i := range a.XPos {
		entries[i] = positionHDF5{
			track:         int32(w.positionCounter + i),
			xpos:          a.XPos[i],
			xposThreshold: a.XPosThreshold[i],
			resolution:    a.Resolution[i],
		}
		if i < len(a.Multiplicity) {
			entries[i].multiplicity = int32(a.Multiplicity[i])
		}
	}
	if err := writeArrayToTable(w.PositionsTable, &entries, w.positionCounter); err != nil {
		return fmt.Errorf("error writing positions: %w", err)
	}
	w.positionCounter += len(entries)
	return nil
}

type closer interface {
	Close() error
}

func (w *Writer) Close() error {
	logger.Info(fmt.Sprintf("Closing file %s", w.Filename), "h5out")
	var errs []error

	resources := []struct {
		name string
		c    closer
	}{
		{"run info table", datasetCloser(w.RunInfoTable)},
		{"MC parameter table", datasetCloser(w.MCParamsTable)},
		{"positions table", datasetCloser(w.PositionsTable)},
		{"pad geometry table", datasetCloser(w.PadsTable)},
		{"charge array", datasetCloser(w.ChargeArray)},
		{"run group", groupCloser(w.RunGroup)},
		{"simulation group", groupCloser(w.SimGroup)},
		{"pads group", groupCloser(w.PadGroup)},
	}
	for _, r := range resources {
		if r.c == nil {
			continue
		}
		if err := r.c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s: %w", r.name, err))
		}
	}
	if w.File != nil {
		if err := w.File.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing file: %w", err))
		}
	}
	return errors.Join(errs...)
}

// datasetCloser and groupCloser keep nil pointers out of the closer
// interface.
func datasetCloser(d *hdf5.Dataset) closer {
	if d == nil {
		return nil
	}
	return d
}

func groupCloser(g *hdf5.Group) closer {
	if g == nil {
		return nil
	}
	return g
}

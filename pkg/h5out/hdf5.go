package h5out

import (
	"fmt"

	"github.com/jmbenlloch/go-hdf5"
)

const STRLEN = 40

func convertToHdf5String(s string) [STRLEN]byte {
	var byteArray [STRLEN]byte
	copy(byteArray[:], s)
	return byteArray
}

type runInfoHDF5 struct {
	runID           [STRLEN]byte
	padType         [STRLEN]byte
	padVersion      int32
	numTracks       int32
	gain            float64
	diffusionGain   int32
	diffusion       float64
	threshold       float64
	globalThreshold float64
	seed            uint64
}

type mcParameterHDF5 struct {
	track int32
	x     float64
	y     float64
	z     float64
	theta float64
	phi   float64
}

type padHDF5 struct {
	padID int32
	x     float64
	y     float64
	z     float64
}

type positionHDF5 struct {
	track         int32
	xpos          float64
	xposThreshold float64
	resolution    float64
	multiplicity  int32
}

func openFile(fname string) (*hdf5.File, error) {
	f, err := hdf5.CreateFile(fname, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, &ErrOpenFile{Filename: fname, Err: err}
	}
	return f, nil
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		return nil, &ErrCreateGroup{GroupName: groupName, Err: err}
	}
	return g, nil
}

func chunkedPropList(chunks []uint, compression int) (*hdf5.PropList, error) {
	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, err
	}
	if err := plist.SetChunk(chunks); err != nil {
		plist.Close()
		return nil, err
	}
	if compression > 0 {
		if err := plist.SetDeflate(compression); err != nil {
			plist.Close()
			return nil, err
		}
	}
	return plist, nil
}

// create2dArray makes a [unlimited, columns] array of doubles.
func create2dArray(group *hdf5.Group, name string, columns, compression int) (*hdf5.Dataset, error) {
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	space, err := hdf5.CreateSimpleDataspace([]uint{0, uint(columns)}, []uint{uint(unlimitedDims), uint(columns)})
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer space.Close()

	plist, err := chunkedPropList([]uint{1, uint(columns)}, compression)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer plist.Close()

	dset, err := group.CreateDatasetWith(name, hdf5.T_NATIVE_DOUBLE, space, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

func createTable(group *hdf5.Group, name string, datatype interface{}, compression int) (*hdf5.Dataset, error) {
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	space, err := hdf5.CreateSimpleDataspace([]uint{0}, []uint{uint(unlimitedDims)})
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer space.Close()

	plist, err := chunkedPropList([]uint{1024}, compression)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer plist.Close()

	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: fmt.Errorf("could not create a dtype: %w", err)}
	}

	dset, err := group.CreateDatasetWith(name, dtype, space, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

// writeArrayToTable appends data after the first rows entries of dataset.
func writeArrayToTable[T any](dataset *hdf5.Dataset, data *[]T, rows int) error {
	length := uint(len(*data))
	if length == 0 {
		return nil
	}
	dataspace, err := hdf5.CreateSimpleDataspace([]uint{length}, nil)
	if err != nil {
		return err
	}
	defer dataspace.Close()

	if err := dataset.Resize([]uint{uint(rows) + length}); err != nil {
		return fmt.Errorf("error extending table: %w", err)
	}
	filespace := dataset.Space()
	defer filespace.Close()

	if err := filespace.SelectHyperslab([]uint{uint(rows)}, nil, []uint{length}, nil); err != nil {
		return err
	}
	return dataset.WriteSubset(data, dataspace, filespace)
}

// write2dArray stores one row of an extendable [rows, columns] array.
func write2dArray(dataset *hdf5.Dataset, data *[]float64, row int) error {
	columns := uint(len(*data))
	if err := dataset.Resize([]uint{uint(row) + 1, columns}); err != nil {
		return fmt.Errorf("error extending array: %w", err)
	}
	filespace := dataset.Space()
	defer filespace.Close()

	count := []uint{1, columns}
	if err := filespace.SelectHyperslab([]uint{uint(row), 0}, nil, count, nil); err != nil {
		return err
	}
	dataspace, err := hdf5.CreateSimpleDataspace(count, nil)
	if err != nil {
		return err
	}
	defer dataspace.Close()

	return dataset.WriteSubset(data, dataspace, filespace)
}

package fadc

import (
	"fmt"
	"strings"

	"github.com/jmbenlloch/go-hdf5"
)

// eventHDF5 is a row of /Run/events.
type eventHDF5 struct {
	evt_number      uint32
	trigger_number  uint32
	trigger_pattern uint32
	data_length     uint32
	trigger_time    uint64
	latch_time      uint64
	run_number      uint16
	trigger_type    uint8
	module_id       uint8
}

// runInfoHDF5 is a row of /Run/runInfo, one per run setting.
type runInfoHDF5 struct {
	param [STRLEN]byte
	value uint64
}

// featureHDF5 is a row of /Features/events.
type featureHDF5 struct {
	evt_number      uint32
	trigger_number  uint32
	trigger_pattern uint32
	trigger_type    uint8
	failed          uint8
	trigger_time    uint64
	latch_time      uint64
	charge          [NumChannels]float64
	pulse_height    [NumChannels]float64
	pulse_time      [NumChannels]float64
}

const STRLEN = 32

func convertToHdf5String(s string) [STRLEN]byte {
	var byteArray [STRLEN]byte
	copy(byteArray[:], s)
	return byteArray
}

func convertFromHdf5String(b [STRLEN]byte) string {
	return strings.TrimRight(string(b[:]), "\x00")
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

// createWaveformArray creates the [event, channel, sample] array, unlimited
// along the event axis, chunked one event at a time.
func createWaveformArray(group *hdf5.Group, name string, nChannels int, nSamples int, compression int) (*hdf5.Dataset, error) {
	dims := []uint{0, uint(nChannels), uint(nSamples)}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims), uint(nChannels), uint(nSamples)}
	chunks := []uint{1, uint(nChannels), uint(nSamples)}

	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer fileSpace.Close()

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer plist.Close()
	if err := plist.SetChunk(chunks); err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	if err := plist.SetDeflate(compression); err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}

	dset, err := group.CreateDatasetWith(name, hdf5.T_NATIVE_UINT16, fileSpace, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

func createTable(group *hdf5.Group, name string, datatype interface{}, compression int) (*hdf5.Dataset, error) {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer fileSpace.Close()

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer plist.Close()
	if err := plist.SetChunk([]uint{1024}); err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	if err := plist.SetDeflate(compression); err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}

	// create the memory data type
	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}

	dset, err := group.CreateDatasetWith(name, dtype, fileSpace, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

func writeEntryToTable[T any](dataset *hdf5.Dataset, data T) error {
	array := []T{data}
	return writeArrayToTable(dataset, &array)
}

// writeArrayToTable appends data at the end of a 1-d table.
func writeArrayToTable[T any](dataset *hdf5.Dataset, data *[]T) error {
	length := uint(len(*data))
	if length == 0 {
		return nil
	}
	dataspace, err := hdf5.CreateSimpleDataspace([]uint{length}, nil)
	if err != nil {
		return err
	}
	defer dataspace.Close()

	rows, err := datasetRows(dataset)
	if err != nil {
		return err
	}
	if err := dataset.Resize([]uint{rows + length}); err != nil {
		return err
	}
	filespace := dataset.Space()
	defer filespace.Close()

	if err := filespace.SelectHyperslab([]uint{rows}, nil, []uint{length}, nil); err != nil {
		return err
	}
	return dataset.WriteSubset(data, dataspace, filespace)
}

// writeWaveforms appends one [channel, sample] block to a waveform array.
func writeWaveforms(dataset *hdf5.Dataset, data *[]uint16, nChannels int, nSamples int) error {
	evtCounter, err := datasetRows(dataset)
	if err != nil {
		return err
	}
	newsize := []uint{evtCounter + 1, uint(nChannels), uint(nSamples)}
	if err := dataset.Resize(newsize); err != nil {
		return err
	}
	filespace := dataset.Space()
	defer filespace.Close()

	start := []uint{evtCounter, 0, 0}
	count := []uint{1, uint(nChannels), uint(nSamples)}
	if err := filespace.SelectHyperslab(start, nil, count, nil); err != nil {
		return err
	}

	dataspace, err := hdf5.CreateSimpleDataspace(count, nil)
	if err != nil {
		return err
	}
	defer dataspace.Close()

	return dataset.WriteSubset(data, dataspace, filespace)
}

// datasetRows returns the current extent of the first axis.
func datasetRows(dataset *hdf5.Dataset) (uint, error) {
	space := dataset.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return 0, err
	}
	return dims[0], nil
}

// readTable reads a whole 1-d table.
func readTable[T any](dataset *hdf5.Dataset) ([]T, error) {
	nRows, err := datasetRows(dataset)
	if err != nil {
		return nil, err
	}
	// The slice MUST be allocated with its final length, HDF5 writes
	// directly into its memory
	rows := make([]T, nRows)
	if len(rows) == 0 {
		return rows, nil
	}
	if err := dataset.Read(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// readWaveforms reads the block of one event from a waveform array.
func readWaveforms(dataset *hdf5.Dataset, evt uint, nChannels uint, nSamples uint) ([]uint16, error) {
	filespace := dataset.Space()
	defer filespace.Close()

	start := []uint{evt, 0, 0}
	count := []uint{1, nChannels, nSamples}
	if err := filespace.SelectHyperslab(start, nil, count, nil); err != nil {
		return nil, err
	}
	memspace, err := hdf5.CreateSimpleDataspace(count, nil)
	if err != nil {
		return nil, err
	}
	defer memspace.Close()

	data := make([]uint16, nChannels*nSamples)
	if err := dataset.ReadSubset(&data, memspace, filespace); err != nil {
		return nil, fmt.Errorf("error reading waveforms of event %d: %w", evt, err)
	}
	return data, nil
}

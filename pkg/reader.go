package fadc

import (
	"errors"
	"fmt"

	"github.com/jmbenlloch/go-hdf5"
)

// Reader gives access to a file written by Writer.
type Reader struct {
	File         *hdf5.File
	Filename     string
	RunGroup     *hdf5.Group
	RDGroup      *hdf5.Group
	EventTable   *hdf5.Dataset
	RunInfoTable *hdf5.Dataset
	// Nil for runs whose events carry no samples
	Waveforms *hdf5.Dataset
}

func OpenReader(filename string) (*Reader, error) {
	r := &Reader{Filename: filename}
	var err error
	if r.File, err = hdf5.OpenFile(filename, hdf5.F_ACC_RDONLY); err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	if r.RunGroup, err = r.File.OpenGroup("Run"); err != nil {
		return nil, errors.Join(&ErrOpenFile{Filename: filename + ":/Run", Err: err}, r.Close())
	}
	if r.RDGroup, err = r.File.OpenGroup("RD"); err != nil {
		return nil, errors.Join(&ErrOpenFile{Filename: filename + ":/RD", Err: err}, r.Close())
	}
	if r.EventTable, err = r.RunGroup.OpenDataset("events"); err != nil {
		return nil, errors.Join(&ErrOpenFile{Filename: filename + ":/Run/events", Err: err}, r.Close())
	}
	if r.RunInfoTable, err = r.RunGroup.OpenDataset("runInfo"); err != nil {
		return nil, errors.Join(&ErrOpenFile{Filename: filename + ":/Run/runInfo", Err: err}, r.Close())
	}
	if r.RDGroup.LinkExists("waveforms") {
		if r.Waveforms, err = r.RDGroup.OpenDataset("waveforms"); err != nil {
			return nil, errors.Join(&ErrOpenFile{Filename: filename + ":/RD/waveforms", Err: err}, r.Close())
		}
	}
	return r, nil
}

func (r *Reader) ReadSettings() (RunSettings, error) {
	rows, err := readTable[runInfoHDF5](r.RunInfoTable)
	if err != nil {
		return RunSettings{}, fmt.Errorf("error reading run settings: %w", err)
	}
	return settingsFromRows(rows), nil
}

// ReadEvents loads every event of the file, waveforms included.
func (r *Reader) ReadEvents() ([]EventRecord, error) {
	rows, err := readTable[eventHDF5](r.EventTable)
	if err != nil {
		return nil, fmt.Errorf("error reading events: %w", err)
	}

	var nChannels, nSamples uint
	if r.Waveforms != nil {
		space := r.Waveforms.Space()
		dims, _, err := space.SimpleExtentDims()
		space.Close()
		if err != nil {
			return nil, fmt.Errorf("error reading waveforms shape: %w", err)
		}
		if dims[0] != uint(len(rows)) || dims[1] != NumChannels {
			return nil, fmt.Errorf("waveforms shape %v does not match %d events", dims, len(rows))
		}
		nChannels, nSamples = dims[1], dims[2]
	}

	events := make([]EventRecord, len(rows))
	for i, row := range rows {
		event := EventRecord{
			DataLength:     row.data_length,
			RunNumber:      row.run_number,
			TriggerType:    row.trigger_type,
			TriggerNumber:  row.trigger_number,
			TriggerTime:    row.trigger_time,
			ModuleID:       row.module_id,
			LocalTNum:      row.evt_number,
			TriggerPattern: row.trigger_pattern,
			LatchTime:      row.latch_time,
		}
		var data []uint16
		if r.Waveforms != nil {
			if data, err = readWaveforms(r.Waveforms, uint(i), nChannels, nSamples); err != nil {
				return nil, err
			}
		}
		n := int(nSamples)
		for ch := 0; ch < NumChannels; ch++ {
			if data == nil {
				event.Waveforms[ch] = []uint16{}
				continue
			}
			event.Waveforms[ch] = data[ch*n : (ch+1)*n : (ch+1)*n]
		}
		events[i] = event
	}
	return events, nil
}

func (r *Reader) Close() error {
	var errs []error
	if r.Waveforms != nil {
		if err := r.Waveforms.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing waveforms: %w", err))
		}
	}
	if r.EventTable != nil {
		if err := r.EventTable.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing event table: %w", err))
		}
	}
	if r.RunInfoTable != nil {
		if err := r.RunInfoTable.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing run info table: %w", err))
		}
	}
	if r.RDGroup != nil {
		if err := r.RDGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing RD group: %w", err))
		}
	}
	if r.RunGroup != nil {
		if err := r.RunGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing run group: %w", err))
		}
	}
	if r.File != nil {
		if err := r.File.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing file: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ReadFeatureFile loads the features stored by FeatureWriter.
func ReadFeatureFile(filename string) ([]EventFeatures, error) {
	f, err := hdf5.OpenFile(filename, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	defer f.Close()
	g, err := f.OpenGroup("Features")
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename + ":/Features", Err: err}
	}
	defer g.Close()
	table, err := g.OpenDataset("events")
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename + ":/Features/events", Err: err}
	}
	defer table.Close()

	rows, err := readTable[featureHDF5](table)
	if err != nil {
		return nil, fmt.Errorf("error reading features: %w", err)
	}
	features := make([]EventFeatures, len(rows))
	for i, row := range rows {
		feature := EventFeatures{
			LocalTNum:      row.evt_number,
			TriggerNumber:  row.trigger_number,
			TriggerType:    row.trigger_type,
			TriggerPattern: row.trigger_pattern,
			TriggerTime:    row.trigger_time,
			LatchTime:      row.latch_time,
			Error:          row.failed != 0,
		}
		for ch := range feature.Channels {
			feature.Channels[ch] = PulseFeature{
				Charge:      row.charge[ch],
				PulseHeight: row.pulse_height[ch],
				PulseTime:   row.pulse_time[ch],
			}
		}
		features[i] = feature
	}
	return features, nil
}

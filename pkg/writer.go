package fadc

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/jmbenlloch/go-hdf5"
)

// Writer stores the decoded events of a run in an HDF5 file. It is an
// EventSink.
type Writer struct {
	File         *hdf5.File
	Filename     string
	Compression  int
	FirstEvt     bool
	NumSamples   int
	RunGroup     *hdf5.Group
	RDGroup      *hdf5.Group
	EventTable   *hdf5.Dataset
	RunInfoTable *hdf5.Dataset
	Waveforms    *hdf5.Dataset
	EvtCounter   int
}

func NewWriter(filename string, compression int) (*Writer, error) {
	message := fmt.Sprintf("Creating file: %s", filename)
	logger.Info(message, "hdf5writer")

	w := &Writer{Filename: filename, Compression: compression}
	var err error
	if w.File, err = openFile(filename); err != nil {
		return nil, err
	}
	if w.RunGroup, err = createGroup(w.File, "Run"); err != nil {
		return nil, errors.Join(err, w.Close())
	}
	if w.RDGroup, err = createGroup(w.File, "RD"); err != nil {
		return nil, errors.Join(err, w.Close())
	}
	if w.EventTable, err = createTable(w.RunGroup, "events", eventHDF5{}, compression); err != nil {
		return nil, errors.Join(err, w.Close())
	}
	if w.RunInfoTable, err = createTable(w.RunGroup, "runInfo", runInfoHDF5{}, compression); err != nil {
		return nil, errors.Join(err, w.Close())
	}
	return w, nil
}

// WriteSettings stores the run settings in /Run/runInfo.
func (w *Writer) WriteSettings(settings RunSettings) error {
	return writeSettings(w.RunInfoTable, settings)
}

// Accept appends an event. The first event fixes the number of samples per
// channel of the file.
func (w *Writer) Accept(event EventRecord) error {
	nSamples := len(event.Waveforms[0])
	for ch := 1; ch < NumChannels; ch++ {
		if len(event.Waveforms[ch]) != nSamples {
			return fmt.Errorf("event %d channel %d has %d samples, channel 1 has %d: %w",
				event.LocalTNum, ch+1, len(event.Waveforms[ch]), nSamples, ErrSampleCountMismatch)
		}
	}

	if !w.FirstEvt {
		w.NumSamples = nSamples
		// Zero sized chunks are not allowed
		if nSamples > 0 {
			var err error
			w.Waveforms, err = createWaveformArray(w.RDGroup, "waveforms", NumChannels, nSamples, w.Compression)
			if err != nil {
				return err
			}
		}
		w.FirstEvt = true
	} else if nSamples != w.NumSamples {
		return fmt.Errorf("event %d has %d samples, file has %d: %w",
			event.LocalTNum, nSamples, w.NumSamples, ErrSampleCountMismatch)
	}

	row := eventHDF5{
		evt_number:      event.LocalTNum,
		trigger_number:  event.TriggerNumber,
		trigger_pattern: event.TriggerPattern,
		data_length:     event.DataLength,
		trigger_time:    event.TriggerTime,
		latch_time:      event.LatchTime,
		run_number:      event.RunNumber,
		trigger_type:    event.TriggerType,
		module_id:       event.ModuleID,
	}
	if err := writeEntryToTable(w.EventTable, row); err != nil {
		return fmt.Errorf("error writing event %d: %w", event.LocalTNum, err)
	}

	if w.Waveforms != nil {
		data := make([]uint16, NumChannels*nSamples)
		for ch, waveform := range event.Waveforms {
			copy(data[ch*nSamples:], waveform)
		}
		if err := writeWaveforms(w.Waveforms, &data, NumChannels, nSamples); err != nil {
			return fmt.Errorf("error writing waveforms of event %d: %w", event.LocalTNum, err)
		}
	}

	w.EvtCounter++
	return nil
}

func (w *Writer) Close() error {
	message := fmt.Sprintf("Closing file %s (%d events)", w.Filename, w.EvtCounter)
	logger.Info(message, "hdf5writer")
	var errs []error

	if w.Waveforms != nil {
		if err := w.Waveforms.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing waveforms: %w", err))
		}
	}
	if w.EventTable != nil {
		if err := w.EventTable.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing event table: %w", err))
		}
	}
	if w.RunInfoTable != nil {
		if err := w.RunInfoTable.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing run info table: %w", err))
		}
	}
	if w.RDGroup != nil {
		if err := w.RDGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing RD group: %w", err))
		}
	}
	if w.RunGroup != nil {
		if err := w.RunGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing run group: %w", err))
		}
	}
	if w.File != nil {
		if err := w.File.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing file: %w", err))
		}
	}
	return errors.Join(errs...)
}

// FeatureWriter stores the output of the production stage.
type FeatureWriter struct {
	File          *hdf5.File
	Filename      string
	RunGroup      *hdf5.Group
	FeaturesGroup *hdf5.Group
	RunInfoTable  *hdf5.Dataset
	EventTable    *hdf5.Dataset
}

func NewFeatureWriter(filename string, compression int) (*FeatureWriter, error) {
	message := fmt.Sprintf("Creating file: %s", filename)
	logger.Info(message, "hdf5writer")

	w := &FeatureWriter{Filename: filename}
	var err error
	if w.File, err = openFile(filename); err != nil {
		return nil, err
	}
	if w.RunGroup, err = createGroup(w.File, "Run"); err != nil {
		return nil, errors.Join(err, w.Close())
	}
	if w.FeaturesGroup, err = createGroup(w.File, "Features"); err != nil {
		return nil, errors.Join(err, w.Close())
	}
	if w.RunInfoTable, err = createTable(w.RunGroup, "runInfo", runInfoHDF5{}, compression); err != nil {
		return nil, errors.Join(err, w.Close())
	}
	if w.EventTable, err = createTable(w.FeaturesGroup, "events", featureHDF5{}, compression); err != nil {
		return nil, errors.Join(err, w.Close())
	}
	return w, nil
}

func (w *FeatureWriter) WriteSettings(settings RunSettings) error {
	return writeSettings(w.RunInfoTable, settings)
}

func (w *FeatureWriter) WriteFeatures(features []EventFeatures) error {
	// The array MUST be allocated at creation, HDF5 reads it in place
	rows := make([]featureHDF5, len(features))
	for i, f := range features {
		row := featureHDF5{
			evt_number:      f.LocalTNum,
			trigger_number:  f.TriggerNumber,
			trigger_pattern: f.TriggerPattern,
			trigger_type:    f.TriggerType,
			trigger_time:    f.TriggerTime,
			latch_time:      f.LatchTime,
		}
		if f.Error {
			row.failed = 1
		}
		for ch, pulse := range f.Channels {
			row.charge[ch] = pulse.Charge
			row.pulse_height[ch] = pulse.PulseHeight
			row.pulse_time[ch] = pulse.PulseTime
		}
		rows[i] = row
	}
	if err := writeArrayToTable(w.EventTable, &rows); err != nil {
		return fmt.Errorf("error writing features: %w", err)
	}
	return nil
}

func (w *FeatureWriter) Close() error {
	var errs []error
	if w.EventTable != nil {
		if err := w.EventTable.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing features table: %w", err))
		}
	}
	if w.RunInfoTable != nil {
		if err := w.RunInfoTable.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing run info table: %w", err))
		}
	}
	if w.FeaturesGroup != nil {
		if err := w.FeaturesGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing features group: %w", err))
		}
	}
	if w.RunGroup != nil {
		if err := w.RunGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing run group: %w", err))
		}
	}
	if w.File != nil {
		if err := w.File.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing file: %w", err))
		}
	}
	return errors.Join(errs...)
}

// writeSettings stores one row per setting, named after its json tag.
func writeSettings(table *hdf5.Dataset, settings RunSettings) error {
	t := reflect.TypeOf(settings)
	v := reflect.ValueOf(settings)
	entries := make([]runInfoHDF5, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		entry := runInfoHDF5{param: convertToHdf5String(t.Field(i).Tag.Get("json"))}
		switch f := v.Field(i); f.Kind() {
		case reflect.Int:
			entry.value = uint64(f.Int())
		case reflect.Uint64:
			entry.value = f.Uint()
		}
		entries[i] = entry
	}
	if err := writeArrayToTable(table, &entries); err != nil {
		return fmt.Errorf("error writing run settings: %w", err)
	}
	return nil
}

// settingsFromRows rebuilds the settings stored by writeSettings. Missing
// settings keep their default value.
func settingsFromRows(rows []runInfoHDF5) RunSettings {
	values := make(map[string]uint64, len(rows))
	for _, row := range rows {
		values[convertFromHdf5String(row.param)] = row.value
	}

	settings := DefaultRunSettings()
	t := reflect.TypeOf(settings)
	v := reflect.ValueOf(&settings).Elem()
	for i := 0; i < t.NumField(); i++ {
		value, ok := values[t.Field(i).Tag.Get("json")]
		if !ok {
			continue
		}
		switch f := v.Field(i); f.Kind() {
		case reflect.Int:
			f.SetInt(int64(value))
		case reflect.Uint64:
			f.SetUint(value)
		}
	}
	return settings
}

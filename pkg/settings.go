package fadc

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

type Polarity uint8

const (
	Negative Polarity = 0
	Positive Polarity = 1
)

func (p Polarity) String() string {
	switch p {
	case Negative:
		return "Negative"
	case Positive:
		return "Positive"
	default:
		return "Unknown"
	}
}

// ParsePolarity converts a stored polarity code. Only 0 and 1 are accepted.
func ParsePolarity(value uint64) (Polarity, error) {
	switch value {
	case 0:
		return Negative, nil
	case 1:
		return Positive, nil
	}
	return Negative, &ConfigError{Field: "polarity", Reason: fmt.Sprintf("must be 0 or 1, got %d", value)}
}

// RunSettings are the module parameters of a run. They are fixed before the
// run starts and stored with the data.
type RunSettings struct {
	SID                     int    `json:"sid"`
	SamplingRate            uint64 `json:"sampling_rate"`
	RecordingLength         uint64 `json:"recording_length"`
	CoincidenceWidth        uint64 `json:"coincidence_width"`
	TriggerLookupTable      uint64 `json:"trigger_lookup_table"`
	PedestalTriggerInterval uint64 `json:"pedestal_trigger_interval"`
	Prescale                uint64 `json:"prescale"`
	ADCOffset               uint64 `json:"adc_offset"`
	WaveformDelay           uint64 `json:"waveform_delay"`
	Threshold               uint64 `json:"threshold"`
	Polarity                uint64 `json:"polarity"`
	PeakSumWidth            uint64 `json:"peak_sum_width"`
	ADCMode                 uint64 `json:"adc_mode"`
	PulseCountThreshold     uint64 `json:"pulse_count_threshold"`
	PulseCountInterval      uint64 `json:"pulse_count_interval"`
	PulseWidthThreshold     uint64 `json:"pulse_width_threshold"`
	TriggerDeadtime         uint64 `json:"trigger_deadtime"`
	TriggerMode             uint64 `json:"trigger_mode"`
	TriggerEnable           uint64 `json:"trigger_enable"`
}

func DefaultRunSettings() RunSettings {
	return RunSettings{
		SID:                     1,
		SamplingRate:            1,
		RecordingLength:         8,
		CoincidenceWidth:        1000,
		TriggerLookupTable:      0xFFFE,
		PedestalTriggerInterval: 0,
		Prescale:                1,
		ADCOffset:               3500,
		WaveformDelay:           200,
		Threshold:               50,
		Polarity:                0,
		PeakSumWidth:            2,
		ADCMode:                 1,
		PulseCountThreshold:     1,
		PulseCountInterval:      1000,
		PulseWidthThreshold:     100,
		TriggerDeadtime:         0,
		TriggerMode:             1,
		TriggerEnable:           1,
	}
}

func (s *RunSettings) fields() map[string]*uint64 {
	return map[string]*uint64{
		"sampling_rate":             &s.SamplingRate,
		"recording_length":          &s.RecordingLength,
		"coincidence_width":         &s.CoincidenceWidth,
		"trigger_lookup_table":      &s.TriggerLookupTable,
		"pedestal_trigger_interval": &s.PedestalTriggerInterval,
		"prescale":                  &s.Prescale,
		"adc_offset":                &s.ADCOffset,
		"waveform_delay":            &s.WaveformDelay,
		"threshold":                 &s.Threshold,
		"polarity":                  &s.Polarity,
		"peak_sum_width":            &s.PeakSumWidth,
		"adc_mode":                  &s.ADCMode,
		"pulse_count_threshold":     &s.PulseCountThreshold,
		"pulse_count_interval":      &s.PulseCountInterval,
		"pulse_width_threshold":     &s.PulseWidthThreshold,
		"trigger_deadtime":          &s.TriggerDeadtime,
		"trigger_mode":              &s.TriggerMode,
		"trigger_enable":            &s.TriggerEnable,
	}
}

// ParseRunSettings reads "key = value" lines on top of the defaults. Blank
// lines, lines starting with '#', lines without '=' and unknown keys are
// skipped.
func ParseRunSettings(r io.Reader) (RunSettings, error) {
	settings := DefaultRunSettings()
	fields := settings.fields()

	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if key == "sid" {
			sid, err := strconv.Atoi(value)
			if err != nil {
				return settings, &ConfigError{Field: key, Reason: fmt.Sprintf("line %d: %v", lineNumber, err)}
			}
			settings.SID = sid
			continue
		}
		field, ok := fields[key]
		if !ok {
			continue
		}
		parsed, err := parseUnsigned(value)
		if err != nil {
			return settings, &ConfigError{Field: key, Reason: fmt.Sprintf("line %d: %v", lineNumber, err)}
		}
		*field = parsed
	}
	if err := scanner.Err(); err != nil {
		return settings, fmt.Errorf("error reading run settings: %w", err)
	}
	return settings, nil
}

func parseUnsigned(value string) (uint64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseUint(value[2:], 16, 64)
	}
	return strconv.ParseUint(value, 10, 64)
}

func LoadRunSettings(filename string) (RunSettings, error) {
	file, err := os.Open(filename)
	if err != nil {
		return DefaultRunSettings(), &ErrOpenFile{Filename: filename, Err: err}
	}
	defer file.Close()
	return ParseRunSettings(file)
}

func (s RunSettings) Validate() error {
	if _, err := ParsePolarity(s.Polarity); err != nil {
		return err
	}
	if s.SamplingRate == 0 {
		return &ConfigError{Field: "sampling_rate", Reason: "must be at least 1"}
	}
	return nil
}

// TimePerSample is the sampling period in ns. The module samples at 500 MHz
// divided by the sampling rate setting.
func (s RunSettings) TimePerSample() float64 {
	return 2.0 * float64(s.SamplingRate)
}

// RecordingWindow is the waveform length in ns.
func (s RunSettings) RecordingWindow() uint64 {
	return 128 * s.RecordingLength
}

func (s RunSettings) LogSummary(l Logger) {
	polarity, err := ParsePolarity(s.Polarity)
	polarityName := polarity.String()
	if err != nil {
		polarityName = "Invalid"
	}
	l.Info(fmt.Sprintf("SID: %d", s.SID), "settings")
	l.Info(fmt.Sprintf("Recording length (rl=%d): %d ns", s.RecordingLength, s.RecordingWindow()), "settings")
	l.Info(fmt.Sprintf("Sampling rate divisor: %d (%.1f ns/sample)", s.SamplingRate, s.TimePerSample()), "settings")
	l.Info(fmt.Sprintf("Coincidence width: %d ns", s.CoincidenceWidth), "settings")
	l.Info(fmt.Sprintf("Threshold: %d (ADC counts)", s.Threshold), "settings")
	l.Info(fmt.Sprintf("Polarity: %s", polarityName), "settings")
	l.Info(fmt.Sprintf("Trigger mode: %d, enable: 0x%x, lookup table: 0x%x", s.TriggerMode, s.TriggerEnable, s.TriggerLookupTable), "settings")
}

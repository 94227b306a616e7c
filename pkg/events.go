package fadc

const NumChannels = 4

type EventRecord struct {
	DataLength     uint32
	RunNumber      uint16
	TriggerType    uint8
	TriggerNumber  uint32
	TriggerTime    uint64
	ModuleID       uint8
	LocalTNum      uint32
	TriggerPattern uint32
	LatchTime      uint64
	// One waveform per channel, samples in time order. All channels have
	// the same length.
	Waveforms [NumChannels][]uint16
}

// NumSamples returns the number of samples per channel implied by DataLength.
// It is negative for lengths too short to hold the header.
func (e EventRecord) NumSamples() int {
	return numSamples(e.DataLength)
}

func numSamples(dataLength uint32) int {
	return (int(dataLength)*4 - HeaderBytes) / SampleGroupBytes
}

// PulseFeature holds the quantities extracted from one channel of one event.
type PulseFeature struct {
	Charge      float64
	PulseHeight float64
	PulseTime   float64
}

// EventFeatures is the production output for one event.
type EventFeatures struct {
	LocalTNum      uint32
	TriggerNumber  uint32
	TriggerType    uint8
	TriggerPattern uint32
	TriggerTime    uint64
	LatchTime      uint64
	Channels       [NumChannels]PulseFeature
	Error          bool
}

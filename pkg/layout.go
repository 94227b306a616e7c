package fadc

// Packet layout of the FADC500 readout. The module streams its 32-bit bus one
// byte lane at a time, so every logical byte of a header value sits 4 bytes
// after the previous one, least significant lane first.

const (
	MinDataLength    = 32
	MaxDataLength    = 16384
	HeaderBytes      = 128
	SampleGroupBytes = 8
	WordBytes        = 4

	// Timestamps are fine*FineTimeUnit + coarse*CoarseTimeUnit.
	FineTimeUnit   = 8
	CoarseTimeUnit = 1000
)

// laneField is an unsigned value assembled from byte lanes.
type laneField struct {
	name  string
	lanes []int
	mask  uint64
}

// timeField is a two-resolution timestamp: one fine byte and a coarse value
// spread over several lanes.
type timeField struct {
	name   string
	fine   int
	coarse laneField
}

var (
	fieldDataLength     = laneField{name: "data_length", lanes: []int{0, 4, 8, 12}}
	fieldRunNumber      = laneField{name: "run_number", lanes: []int{16, 20}}
	fieldTriggerType    = laneField{name: "trigger_type", lanes: []int{24}, mask: 0x0F}
	fieldTriggerNumber  = laneField{name: "trigger_number", lanes: []int{28, 32, 36, 40}}
	fieldModuleID       = laneField{name: "module_id", lanes: []int{60}}
	fieldLocalTNum      = laneField{name: "local_tnum", lanes: []int{68, 72, 76, 80}}
	fieldTriggerPattern = laneField{name: "trigger_pattern", lanes: []int{84, 88, 92, 96}}

	fieldTriggerTime = timeField{
		name:   "trigger_time",
		fine:   44,
		coarse: laneField{name: "trigger_time_coarse", lanes: []int{48, 52, 56}},
	}
	fieldLatchTime = timeField{
		name:   "latch_time",
		fine:   100,
		coarse: laneField{name: "latch_time_coarse", lanes: []int{104, 108, 112, 116, 120, 124}},
	}
)

func (f laneField) read(p []byte) uint64 {
	var value uint64
	for i, lane := range f.lanes {
		value |= uint64(p[lane]) << (8 * i)
	}
	if f.mask != 0 {
		value &= f.mask
	}
	return value
}

func (f laneField) write(p []byte, value uint64) {
	if f.mask != 0 {
		value &= f.mask
	}
	for i, lane := range f.lanes {
		p[lane] = byte(value >> (8 * i))
	}
}

// maxValue is the largest value the lanes can carry.
func (f laneField) maxValue() uint64 {
	if f.mask != 0 {
		return f.mask
	}
	return 1<<(8*len(f.lanes)) - 1
}

// Timestamp is the raw two-resolution time as found on the wire.
type Timestamp struct {
	Fine   uint8
	Coarse uint64
}

func (t Timestamp) Value() uint64 {
	return uint64(t.Fine)*FineTimeUnit + t.Coarse*CoarseTimeUnit
}

// SplitTimestamp returns the canonical fine/coarse pair for a combined time
// value. It fails when the value is not a multiple of the fine unit within a
// coarse tick.
func SplitTimestamp(value uint64) (Timestamp, bool) {
	rest := value % CoarseTimeUnit
	if rest%FineTimeUnit != 0 {
		return Timestamp{}, false
	}
	return Timestamp{Fine: uint8(rest / FineTimeUnit), Coarse: value / CoarseTimeUnit}, true
}

func (f timeField) read(p []byte) uint64 {
	return Timestamp{Fine: p[f.fine], Coarse: f.coarse.read(p)}.Value()
}

func (f timeField) write(p []byte, t Timestamp) {
	p[f.fine] = t.Fine
	f.coarse.write(p, t.Coarse)
}

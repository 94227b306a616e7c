package fadc

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// recordingLogger keeps every message for inspection.
type recordingLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (l *recordingLogger) Info(message string, module string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, fmt.Sprintf("[%s] %s", module, message))
}

func (l *recordingLogger) Error(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, message)
}

func (l *recordingLogger) Errors() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.errors...)
}

// useLogger installs l as the package logger for the duration of the test.
func useLogger(t *testing.T, l Logger) {
	t.Helper()
	SetLogger(l)
	t.Cleanup(func() { SetLogger(nil) })
}

// testEvent builds an event with nSamples distinct samples per channel.
func testEvent(localTNum uint32, nSamples int) EventRecord {
	event := EventRecord{
		DataLength:     uint32(MinDataLength + 2*nSamples),
		RunNumber:      0x1234,
		TriggerType:    3,
		TriggerNumber:  0xA1B2C3D4,
		TriggerTime:    5*FineTimeUnit + 123456*CoarseTimeUnit,
		ModuleID:       7,
		LocalTNum:      localTNum,
		TriggerPattern: 0x0F0F,
		LatchTime:      17*FineTimeUnit + 987654321*CoarseTimeUnit,
	}
	for ch := range event.Waveforms {
		waveform := make([]uint16, nSamples)
		for i := range waveform {
			waveform[i] = uint16(ch*1000 + i)
		}
		event.Waveforms[ch] = waveform
	}
	return event
}

func encodeEvent(t *testing.T, event EventRecord) []byte {
	t.Helper()
	packet, err := EncodePacket(event)
	require.NoError(t, err)
	return packet
}

// frame concatenates packets and pads them with zeros to whole units.
func frame(unitBytes int, packets ...[]byte) []byte {
	var data []byte
	for _, p := range packets {
		data = append(data, p...)
	}
	if rest := len(data) % unitBytes; rest != 0 {
		data = append(data, make([]byte, unitBytes-rest)...)
	}
	return data
}

package fadc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessEventsKeepsOrder(t *testing.T) {
	params := AnalysisParams{Polarity: Negative, PedestalSamples: 5, NSigma: 2, TimePerSample: 2}

	events := make([]EventRecord, 250)
	for i := range events {
		events[i] = testEvent(uint32(i), 10)
		events[i].Waveforms[1] = []uint16{100, 100, 100, 100, 100, 20, 20, 20, 100, 100}
	}

	for _, numWorkers := range []int{0, 1, 4} {
		features := ProcessEvents(events, params, numWorkers)
		require.Len(t, features, len(events))
		for i, f := range features {
			assert.Equal(t, uint32(i), f.LocalTNum)
			assert.Equal(t, 240.0, f.Channels[1].Charge)
			assert.False(t, f.Error)
		}
	}
}

func TestProcessEventsEmpty(t *testing.T) {
	assert.Empty(t, ProcessEvents(nil, AnalysisParams{PedestalSamples: 1}, 3))
}

package fadc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func featuresWithCh0(pulses ...PulseFeature) []EventFeatures {
	features := make([]EventFeatures, len(pulses))
	for i, p := range pulses {
		features[i].LocalTNum = uint32(i)
		features[i].Channels[0] = p
	}
	return features
}

func TestSummarizeFeatures(t *testing.T) {
	features := featuresWithCh0(
		PulseFeature{Charge: 100, PulseHeight: 10, PulseTime: 40},
		PulseFeature{Charge: 300, PulseHeight: 30, PulseTime: 60},
		PulseFeature{}, // no pulse
		PulseFeature{Charge: 20000, PulseHeight: 90, PulseTime: 80},
	)
	failed := EventFeatures{Error: true}
	failed.Channels[0] = PulseFeature{Charge: 5000, PulseHeight: 500, PulseTime: 1}
	features = append(features, failed)

	summaries := SummarizeFeatures(features)
	ch0 := summaries[0]
	assert.Equal(t, 3, ch0.Pulses)
	assert.InDelta(t, 20400.0/3, ch0.ChargeMean, 1e-9)
	assert.InDelta(t, 130.0/3, ch0.HeightMean, 1e-9)
	assert.InDelta(t, 60.0, ch0.TimeMean, 1e-9)
	assert.InDelta(t, 20.0, ch0.TimeStdDev, 1e-9)

	require.Len(t, ch0.ChargeDividers, ChargeHistogramBins+1)
	require.Len(t, ch0.ChargeHistogram, ChargeHistogramBins)
	assert.Equal(t, 0.0, ch0.ChargeDividers[0])
	assert.Equal(t, 10000.0, ch0.ChargeDividers[ChargeHistogramBins])
	// bins are 50 wide, the 20000 charge is out of range
	assert.Equal(t, 1.0, ch0.ChargeHistogram[2])
	assert.Equal(t, 1.0, ch0.ChargeHistogram[6])
	var total float64
	for _, c := range ch0.ChargeHistogram {
		total += c
	}
	assert.Equal(t, 2.0, total)

	for ch := 1; ch < NumChannels; ch++ {
		assert.Zero(t, summaries[ch].Pulses)
		assert.Zero(t, summaries[ch].ChargeMean)
		assert.Len(t, summaries[ch].ChargeHistogram, ChargeHistogramBins)
	}
}

func TestMeanStdDev(t *testing.T) {
	mean, std := meanStdDev(nil)
	assert.Zero(t, mean)
	assert.Zero(t, std)

	mean, std = meanStdDev([]float64{7})
	assert.Equal(t, 7.0, mean)
	assert.Zero(t, std)

	mean, std = meanStdDev([]float64{100, 300})
	assert.Equal(t, 200.0, mean)
	assert.InDelta(t, 100*math.Sqrt2, std, 1e-9)
}

func TestLogFeatureSummary(t *testing.T) {
	l := &recordingLogger{}
	summaries := SummarizeFeatures(featuresWithCh0(PulseFeature{Charge: 240, PulseHeight: 80, PulseTime: 10}))
	LogFeatureSummary(summaries, l)
	require.Len(t, l.infos, NumChannels)
	assert.Equal(t, "[production] Ch 1: 1 pulses, charge 240.0 +- 0.0, height 80.0 +- 0.0, time 10.0 +- 0.0 ns", l.infos[0])
}

package fadc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPulseFeatureNegativePulse(t *testing.T) {
	waveform := []uint16{100, 100, 100, 100, 100, 20, 20, 20, 100, 100}

	feature := ExtractPulseFeature(waveform, Negative, 5, 2, 4)
	assert.Equal(t, 240.0, feature.Charge)
	assert.Equal(t, 80.0, feature.PulseHeight)
	assert.Equal(t, 5*4.0, feature.PulseTime)
}

func TestExtractPulseFeaturePositivePulse(t *testing.T) {
	waveform := []uint16{100, 100, 100, 100, 100, 150, 250, 180, 100, 100}

	feature := ExtractPulseFeature(waveform, Positive, 5, 3, 2)
	// window [4, 8): baseline sample, 150, 250, 180
	assert.Equal(t, 0.0+50+150+80, feature.Charge)
	assert.Equal(t, 150.0, feature.PulseHeight)
	assert.Equal(t, 6*2.0, feature.PulseTime)

	// wrong polarity never crosses
	assert.Equal(t, PulseFeature{}, ExtractPulseFeature(waveform, Negative, 5, 3, 2))
}

func TestExtractPulseFeatureFlatWaveform(t *testing.T) {
	waveform := make([]uint16, 200)
	for i := range waveform {
		waveform[i] = 3500
	}
	assert.Equal(t, PulseFeature{}, ExtractPulseFeature(waveform, Negative, 50, 5, 2))
	assert.Equal(t, PulseFeature{}, ExtractPulseFeature(waveform, Positive, 50, 5, 2))
}

func TestExtractPulseFeatureShortWaveform(t *testing.T) {
	waveform := []uint16{100, 100, 20}
	assert.Equal(t, PulseFeature{}, ExtractPulseFeature(waveform, Negative, 5, 2, 2))
	assert.Equal(t, PulseFeature{}, ExtractPulseFeature(nil, Negative, 5, 2, 2))
	assert.Equal(t, PulseFeature{}, ExtractPulseFeature(waveform, Negative, 0, 2, 2))
}

func TestExtractPulseFeatureOpenWindow(t *testing.T) {
	waveform := []uint16{100, 100, 100, 100, 60, 40, 30}

	feature := ExtractPulseFeature(waveform, Negative, 4, 1, 1)
	// window [3, 7) runs to the end
	assert.Equal(t, 0.0+40+60+70, feature.Charge)
	assert.Equal(t, 70.0, feature.PulseHeight)
	assert.Equal(t, 6.0, feature.PulseTime)
}

func TestExtractPulseFeatureFirstWindowOnly(t *testing.T) {
	waveform := []uint16{100, 100, 100, 100, 50, 100, 10, 10, 100}

	feature := ExtractPulseFeature(waveform, Negative, 4, 1, 1)
	assert.Equal(t, 50.0, feature.Charge)
	assert.Equal(t, 50.0, feature.PulseHeight)
	assert.Equal(t, 4.0, feature.PulseTime)
}

func TestExtractPulseFeatureNoisyPedestal(t *testing.T) {
	// mean 100, rms 2: threshold at 90 for n_sigma 5
	waveform := []uint16{98, 102, 98, 102, 95, 91, 89, 85, 95, 100}

	feature := ExtractPulseFeature(waveform, Negative, 4, 5, 2)
	// 89 trips, window [5, 8)
	assert.InDelta(t, 9+11+15, feature.Charge, 1e-9)
	assert.InDelta(t, 15, feature.PulseHeight, 1e-9)
	assert.Equal(t, 7*2.0, feature.PulseTime)
}

func TestExtractPulseFeatureIsIdempotent(t *testing.T) {
	waveform := []uint16{3500, 3501, 3499, 3500, 3502, 3498, 3000, 2500, 2800, 3400, 3500}
	first := ExtractPulseFeature(waveform, Negative, 6, 3, 2)
	second := ExtractPulseFeature(waveform, Negative, 6, 3, 2)
	assert.Equal(t, first, second)
	assert.False(t, math.IsNaN(first.Charge))
	assert.Greater(t, first.PulseHeight, 0.0)
}

func TestExtractEventFeatures(t *testing.T) {
	event := testEvent(9, 10)
	event.Waveforms[0] = []uint16{100, 100, 100, 100, 100, 20, 20, 20, 100, 100}
	params := AnalysisParams{Polarity: Negative, PedestalSamples: 5, NSigma: 2, TimePerSample: 2}

	features := ExtractEventFeatures(event, params)
	assert.Equal(t, event.LocalTNum, features.LocalTNum)
	assert.Equal(t, event.TriggerNumber, features.TriggerNumber)
	assert.Equal(t, event.TriggerType, features.TriggerType)
	assert.Equal(t, event.TriggerPattern, features.TriggerPattern)
	assert.Equal(t, event.TriggerTime, features.TriggerTime)
	assert.Equal(t, event.LatchTime, features.LatchTime)
	assert.Equal(t, PulseFeature{Charge: 240, PulseHeight: 80, PulseTime: 10}, features.Channels[0])
	assert.False(t, features.Error)
}

func TestNewAnalysisParams(t *testing.T) {
	settings := DefaultRunSettings()
	settings.SamplingRate = 4
	settings.Polarity = 1

	params, err := NewAnalysisParams(settings, 30, 4)
	require.NoError(t, err)
	assert.Equal(t, AnalysisParams{Polarity: Positive, PedestalSamples: 30, NSigma: 4, TimePerSample: 8}, params)

	settings.Polarity = 2
	_, err = NewAnalysisParams(settings, 30, 4)
	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "polarity", configErr.Field)

	settings = DefaultRunSettings()
	settings.SamplingRate = 0
	_, err = NewAnalysisParams(settings, 30, 4)
	require.ErrorAs(t, err, &configErr, "a zero sampling rate would zero every pulse time")
	assert.Equal(t, "sampling_rate", configErr.Field)

	_, err = NewAnalysisParams(DefaultRunSettings(), 0, 4)
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "pedestal_samples", configErr.Field)

	_, err = NewAnalysisParams(DefaultRunSettings(), 10, -1)
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "n_sigma", configErr.Field)
}

package fadc

import (
	"fmt"
	"math"
)

// AnalysisParams configures the pulse feature extraction of a run.
type AnalysisParams struct {
	Polarity        Polarity
	PedestalSamples int
	NSigma          float64
	TimePerSample   float64 // ns
}

const (
	DefaultPedestalSamples = 50
	DefaultNSigma          = 5.0
)

// NewAnalysisParams derives the extraction parameters from the settings the
// run was taken with.
func NewAnalysisParams(settings RunSettings, pedestalSamples int, nSigma float64) (AnalysisParams, error) {
	if err := settings.Validate(); err != nil {
		return AnalysisParams{}, err
	}
	polarity, err := ParsePolarity(settings.Polarity)
	if err != nil {
		return AnalysisParams{}, err
	}
	if pedestalSamples <= 0 {
		return AnalysisParams{}, &ConfigError{Field: "pedestal_samples", Reason: fmt.Sprintf("must be positive, got %d", pedestalSamples)}
	}
	if nSigma < 0 || math.IsNaN(nSigma) {
		return AnalysisParams{}, &ConfigError{Field: "n_sigma", Reason: fmt.Sprintf("must not be negative, got %v", nSigma)}
	}
	return AnalysisParams{
		Polarity:        polarity,
		PedestalSamples: pedestalSamples,
		NSigma:          nSigma,
		TimePerSample:   settings.TimePerSample(),
	}, nil
}

// ExtractPulseFeature measures the first pulse of a waveform.
//
// The baseline and noise are the mean and RMS of the first pedestalSamples
// samples. A pulse starts one sample before the first sample past
// baseline -/+ nSigma*rms (depending on polarity) and ends at the first
// sample back inside it, or at the end of the waveform. Charge is the
// baseline-subtracted sum over the pulse, height the distance of the extremum
// to the baseline and time the extremum position. Waveforms without a
// crossing, or shorter than the pedestal window, give a zero feature.
func ExtractPulseFeature(waveform []uint16, polarity Polarity, pedestalSamples int, nSigma float64, timePerSample float64) PulseFeature {
	if pedestalSamples <= 0 || len(waveform) < pedestalSamples {
		return PulseFeature{}
	}

	var sum, sum2 float64
	for _, sample := range waveform[:pedestalSamples] {
		value := float64(sample)
		sum += value
		sum2 += value * value
	}
	baseline := sum / float64(pedestalSamples)
	// Rounding can make a flat pedestal slightly negative
	variance := math.Max(0, sum2/float64(pedestalSamples)-baseline*baseline)
	rms := math.Sqrt(variance)

	negative := polarity == Negative
	threshold := baseline + nSigma*rms
	if negative {
		threshold = baseline - nSigma*rms
	}

	startIdx, endIdx := -1, -1
	for s := pedestalSamples; s < len(waveform); s++ {
		value := float64(waveform[s])
		above := value > threshold
		if negative {
			above = value < threshold
		}
		if above && startIdx == -1 {
			startIdx = max(0, s-1)
		}
		if !above && startIdx != -1 {
			endIdx = s
			break
		}
	}
	if startIdx == -1 {
		return PulseFeature{}
	}
	if endIdx == -1 {
		endIdx = len(waveform)
	}

	var charge float64
	peakIdx := startIdx
	peakValue := float64(waveform[startIdx])
	for s := startIdx; s < endIdx; s++ {
		value := float64(waveform[s])
		if negative {
			charge += baseline - value
			if value < peakValue {
				peakValue, peakIdx = value, s
			}
		} else {
			charge += value - baseline
			if value > peakValue {
				peakValue, peakIdx = value, s
			}
		}
	}

	return PulseFeature{
		Charge:      charge,
		PulseHeight: math.Abs(peakValue - baseline),
		PulseTime:   float64(peakIdx) * timePerSample,
	}
}

func ExtractEventFeatures(event EventRecord, params AnalysisParams) EventFeatures {
	features := EventFeatures{
		LocalTNum:      event.LocalTNum,
		TriggerNumber:  event.TriggerNumber,
		TriggerType:    event.TriggerType,
		TriggerPattern: event.TriggerPattern,
		TriggerTime:    event.TriggerTime,
		LatchTime:      event.LatchTime,
	}
	for ch, waveform := range event.Waveforms {
		features.Channels[ch] = ExtractPulseFeature(waveform, params.Polarity,
			params.PedestalSamples, params.NSigma, params.TimePerSample)
	}
	return features
}

package fadc

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	ChargeHistogramBins = 200
	ChargeHistogramMin  = 0.0
	ChargeHistogramMax  = 10000.0
)

// ChannelSummary aggregates the pulses of one channel over a run. Only
// pulses with a positive height are included.
type ChannelSummary struct {
	Pulses       int
	ChargeMean   float64
	ChargeStdDev float64
	HeightMean   float64
	HeightStdDev float64
	TimeMean     float64
	TimeStdDev   float64
	// Counts of positive charges in ChargeHistogramBins equal bins over
	// [ChargeHistogramMin, ChargeHistogramMax).
	ChargeHistogram []float64
	ChargeDividers  []float64
}

func SummarizeFeatures(features []EventFeatures) [NumChannels]ChannelSummary {
	var summaries [NumChannels]ChannelSummary
	for ch := 0; ch < NumChannels; ch++ {
		var charges, heights, times []float64
		for _, f := range features {
			if f.Error || f.Channels[ch].PulseHeight <= 0 {
				continue
			}
			charges = append(charges, f.Channels[ch].Charge)
			heights = append(heights, f.Channels[ch].PulseHeight)
			times = append(times, f.Channels[ch].PulseTime)
		}

		summary := ChannelSummary{Pulses: len(charges)}
		summary.ChargeMean, summary.ChargeStdDev = meanStdDev(charges)
		summary.HeightMean, summary.HeightStdDev = meanStdDev(heights)
		summary.TimeMean, summary.TimeStdDev = meanStdDev(times)
		summary.ChargeDividers, summary.ChargeHistogram = chargeHistogram(charges)
		summaries[ch] = summary
	}
	return summaries
}

func meanStdDev(x []float64) (float64, float64) {
	switch len(x) {
	case 0:
		return 0, 0
	case 1:
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}

func chargeHistogram(charges []float64) ([]float64, []float64) {
	dividers := make([]float64, ChargeHistogramBins+1)
	floats.Span(dividers, ChargeHistogramMin, ChargeHistogramMax)

	inRange := make([]float64, 0, len(charges))
	for _, c := range charges {
		if c > ChargeHistogramMin && c < ChargeHistogramMax {
			inRange = append(inRange, c)
		}
	}
	if len(inRange) == 0 {
		return dividers, make([]float64, ChargeHistogramBins)
	}
	sort.Float64s(inRange)
	return dividers, stat.Histogram(nil, dividers, inRange, nil)
}

func LogFeatureSummary(summaries [NumChannels]ChannelSummary, l Logger) {
	for ch, s := range summaries {
		message := fmt.Sprintf("Ch %d: %d pulses, charge %.1f +- %.1f, height %.1f +- %.1f, time %.1f +- %.1f ns",
			ch+1, s.Pulses, s.ChargeMean, s.ChargeStdDev, s.HeightMean, s.HeightStdDev, s.TimeMean, s.TimeStdDev)
		l.Info(message, "production")
	}
}

package fadc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavePlots(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plots")
	features := featuresWithCh0(
		PulseFeature{Charge: 240, PulseHeight: 80, PulseTime: 10},
		PulseFeature{Charge: 410, PulseHeight: 95, PulseTime: 14},
		PulseFeature{Charge: 120, PulseHeight: 40, PulseTime: 12},
	)

	files, err := SavePlots(features, dir)
	require.NoError(t, err)
	require.Len(t, files, 2*NumChannels)
	assert.Equal(t, filepath.Join(dir, "charge_ch1.png"), files[0])
	assert.Equal(t, filepath.Join(dir, "height_vs_time_ch1.png"), files[1])

	for _, f := range files {
		info, err := os.Stat(f)
		require.NoError(t, err)
		assert.Positive(t, info.Size(), f)
	}
}

func TestChargeHistogramMatchesSummary(t *testing.T) {
	features := featuresWithCh0(
		PulseFeature{Charge: 240, PulseHeight: 80, PulseTime: 10},
		PulseFeature{Charge: 245, PulseHeight: 85, PulseTime: 10},
		PulseFeature{Charge: 9990, PulseHeight: 95, PulseTime: 14},
		PulseFeature{Charge: 20000, PulseHeight: 99, PulseTime: 14},
	)
	charges := []float64{240, 245, 9990, 20000}

	hist := newChargeHistogram(charges)
	require.Len(t, hist.Bins, ChargeHistogramBins)
	assert.Equal(t, ChargeHistogramMin, hist.Bins[0].Min)
	assert.Equal(t, ChargeHistogramMax, hist.Bins[ChargeHistogramBins-1].Max)
	assert.Equal(t, 50.0, hist.Width)

	xmin, xmax, _, ymax := hist.DataRange()
	assert.Equal(t, ChargeHistogramMin, xmin, "range does not follow the data")
	assert.Equal(t, ChargeHistogramMax, xmax)
	assert.Equal(t, 2.0, ymax)

	summary := SummarizeFeatures(features)[0]
	for i, bin := range hist.Bins {
		assert.Equal(t, summary.ChargeHistogram[i], bin.Weight, "bin %d", i)
	}
}

func TestChargeHistogramEmpty(t *testing.T) {
	hist := newChargeHistogram(nil)
	require.Len(t, hist.Bins, ChargeHistogramBins)
	for _, bin := range hist.Bins {
		assert.Zero(t, bin.Weight)
	}
}

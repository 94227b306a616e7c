package fadc

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SavePlots writes, per channel, the charge distribution and the pulse height
// versus time scatter of the pulses found in features. It returns the files
// written.
func SavePlots(features []EventFeatures, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating plots directory: %w", err)
	}

	var files []string
	for ch := 0; ch < NumChannels; ch++ {
		var charges []float64
		heightVsTime := make(plotter.XYs, 0, len(features))
		for _, f := range features {
			pulse := f.Channels[ch]
			if f.Error || pulse.PulseHeight <= 0 {
				continue
			}
			charges = append(charges, pulse.Charge)
			heightVsTime = append(heightVsTime, plotter.XY{X: pulse.PulseTime, Y: pulse.PulseHeight})
		}

		chargeFile := filepath.Join(dir, fmt.Sprintf("charge_ch%d.png", ch+1))
		if err := saveChargePlot(charges, ch, chargeFile); err != nil {
			return files, err
		}
		files = append(files, chargeFile)

		scatterFile := filepath.Join(dir, fmt.Sprintf("height_vs_time_ch%d.png", ch+1))
		if err := saveHeightVsTimePlot(heightVsTime, ch, scatterFile); err != nil {
			return files, err
		}
		files = append(files, scatterFile)
	}
	return files, nil
}

func saveChargePlot(charges []float64, ch int, filename string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Charge Distribution Ch %d", ch+1)
	p.X.Label.Text = "Charge (arb. unit)"
	p.Y.Label.Text = "Entries"
	p.Add(newChargeHistogram(charges))
	p.Add(plotter.NewGrid())

	if err := p.Save(8*vg.Inch, 5*vg.Inch, filename); err != nil {
		return fmt.Errorf("error saving %s: %w", filename, err)
	}
	return nil
}

// newChargeHistogram bins charges like SummarizeFeatures, so the plot shows
// the same fixed range whatever the data.
func newChargeHistogram(charges []float64) *plotter.Histogram {
	dividers, counts := chargeHistogram(charges)
	bins := make([]plotter.HistogramBin, len(counts))
	for i, count := range counts {
		bins[i] = plotter.HistogramBin{Min: dividers[i], Max: dividers[i+1], Weight: count}
	}
	return &plotter.Histogram{
		Bins:      bins,
		Width:     dividers[1] - dividers[0],
		FillColor: color.Gray{Y: 128},
		LineStyle: plotter.DefaultLineStyle,
	}
}

func saveHeightVsTimePlot(points plotter.XYs, ch int, filename string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Height vs Time Ch %d", ch+1)
	p.X.Label.Text = "Pulse Time (ns)"
	p.Y.Label.Text = "Pulse Height (ADC)"

	if len(points) > 0 {
		scatter, err := plotter.NewScatter(points)
		if err != nil {
			return fmt.Errorf("error building scatter for channel %d: %w", ch+1, err)
		}
		scatter.GlyphStyle.Radius = vg.Points(1)
		p.Add(scatter)
	}
	p.Add(plotter.NewGrid())

	if err := p.Save(8*vg.Inch, 5*vg.Inch, filename); err != nil {
		return fmt.Errorf("error saving %s: %w", filename, err)
	}
	return nil
}

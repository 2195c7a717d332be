package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
)

// PlotRow draws a density row as an ASCII chart, resampled to width columns.
func PlotRow(row []float64, width, height int, caption string) string {
	if len(row) == 0 {
		return ""
	}
	return asciigraph.Plot(resample(row, width),
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// PlotSeries draws several curves on shared axes.
func PlotSeries(series [][]float64, width, height int, caption string) string {
	data := make([][]float64, 0, len(series))
	for _, s := range series {
		if len(s) > 0 {
			data = append(data, resample(s, width))
		}
	}
	if len(data) == 0 {
		return ""
	}
	colors := []asciigraph.AnsiColor{asciigraph.Blue, asciigraph.Green, asciigraph.Red, asciigraph.Yellow, asciigraph.Magenta}
	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors[:min(len(data), len(colors))]...),
	)
}

// resample keeps the peak of every bucket so narrow packets stay visible.
func resample(v []float64, n int) []float64 {
	if n <= 0 || len(v) <= n {
		return v
	}
	out := make([]float64, n)
	for i := range out {
		lo := i * len(v) / n
		hi := max(lo+1, (i+1)*len(v)/n)
		peak := v[lo]
		for _, x := range v[lo:hi] {
			peak = max(peak, x)
		}
		out[i] = peak
	}
	return out
}

// Summary formats a one line description of a frame.
func Summary(step int, norm, reflected, transmitted float64) string {
	return fmt.Sprintf("step %-7d norm %.4f  R %.4f  T %.4f", step, norm, reflected, transmitted)
}

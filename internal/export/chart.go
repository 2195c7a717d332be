package export

import (
	"bytes"
	"image"
	"image/png"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	densityColor   = drawing.Color{R: 31, G: 119, B: 180, A: 255}
	potentialColor = drawing.Color{R: 255, G: 127, B: 14, A: 255}
	black          = drawing.Color{R: 0, G: 0, B: 0, A: 255}

	statePalette = []drawing.Color{
		{R: 31, G: 119, B: 180, A: 255},
		{R: 44, G: 160, B: 44, A: 255},
		{R: 214, G: 39, B: 40, A: 255},
		{R: 148, G: 103, B: 189, A: 255},
		{R: 140, G: 86, B: 75, A: 255},
		{R: 227, G: 119, B: 194, A: 255},
		{R: 23, G: 190, B: 207, A: 255},
	}
)

// renderImage rasterises a chart through the PNG renderer.
func renderImage(graph chart.Chart) (image.Image, error) {
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return png.Decode(&buf)
}

func clamp(values []float64, lo, hi float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		switch {
		case v < lo || math.IsNaN(v):
			out[i] = lo
		case v > hi:
			out[i] = hi
		default:
			out[i] = v
		}
	}
	return out
}

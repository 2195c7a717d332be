package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/wavesim/internal/dynamo"
	"github.com/san-kum/wavesim/internal/viz"
)

// CanvasToSVG converts a Braille canvas to SVG, one circle per raised dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff00">
`, width, height, width, height)

	r := scale * 0.4
	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if !canvas.IsSet(col*2+dx, row*4+dy) {
						continue
					}
					cx := (float64(col*2+dx) + 0.5) * scale
					cy := (float64(row*4+dy) + 0.5) * scale
					fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, r)
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

type SVGOptions struct {
	Width, Height int
	// Fixed axis ranges. An empty range is fitted to the data with 10% padding.
	XMin, XMax float64
	YMin, YMax float64
}

type bounds struct {
	x0, x1, y0, y1 float64
}

func fit(x []float64, ys [][]float64, opts SVGOptions) bounds {
	b := bounds{opts.XMin, opts.XMax, opts.YMin, opts.YMax}
	if b.x1 <= b.x0 {
		b.x0, b.x1 = pad(x)
	}
	if b.y1 <= b.y0 {
		var all []float64
		for _, y := range ys {
			all = append(all, y...)
		}
		b.y0, b.y1 = pad(all)
	}
	return b
}

func pad(v []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		lo, hi = math.Min(lo, x), math.Max(hi, x)
	}
	if lo > hi {
		return 0, 1
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	return lo - 0.1*span, hi + 0.1*span
}

// path writes an SVG path through (x[i], y[i]) mapped into a w by h box.
// Values outside the y range are pinned to its edges.
func path(sb *strings.Builder, x, y []float64, b bounds, w, h int, stroke string) {
	fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, stroke)
	for i := range x {
		v := math.Max(b.y0, math.Min(b.y1, y[i]))
		if math.IsNaN(y[i]) {
			v = b.y0
		}
		px := (x[i] - b.x0) / (b.x1 - b.x0) * float64(w)
		py := float64(h) - (v-b.y0)/(b.y1-b.y0)*float64(h)
		if i == 0 {
			fmt.Fprintf(sb, "M%.1f,%.1f", px, py)
		} else {
			fmt.Fprintf(sb, " L%.1f,%.1f", px, py)
		}
	}
	sb.WriteString("\"/>\n")
}

// FrameSVG draws a density row and, when v is non nil, the potential.
func FrameSVG(g *dynamo.Grid, row []float64, v dynamo.Potential, opts SVGOptions) string {
	if len(row) < 2 || len(row) != g.Len() {
		return ""
	}
	w, h := opts.Width, opts.Height
	if w <= 0 {
		w = 600
	}
	if h <= 0 {
		h = 300
	}

	ys := [][]float64{row}
	if v != nil {
		ys = append(ys, v)
	}
	b := fit(g.X, ys, opts)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#ffffff"/>
`, w, h, w, h)
	if v != nil {
		path(&sb, g.X, v, b, w, h, "#ff7f0e")
	}
	path(&sb, g.X, row, b, w, h, "#1f77b4")
	sb.WriteString("</svg>\n")
	return sb.String()
}

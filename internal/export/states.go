package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/san-kum/wavesim/internal/dynamo"
)

// StatePlot selects what is drawn for each eigenstate.
type StatePlot int

const (
	// PlotDensity draws psi^2 raised by the state energy.
	PlotDensity StatePlot = iota
	// PlotAmplitude draws psi raised by the state energy.
	PlotAmplitude
)

func ParseStatePlot(name string) (StatePlot, error) {
	switch name {
	case "", "density":
		return PlotDensity, nil
	case "amplitude":
		return PlotAmplitude, nil
	}
	return 0, fmt.Errorf("%w: unknown state plot %q", dynamo.ErrInvalidConfig, name)
}

type StatesOptions struct {
	Title  string
	Plot   StatePlot
	Width  int
	Height int
}

func (o StatesOptions) withDefaults() StatesOptions {
	if o.Title == "" {
		o.Title = "États stationnaires"
	}
	if o.Width <= 0 {
		o.Width = 1000
	}
	if o.Height <= 0 {
		o.Height = 600
	}
	return o
}

// StatesChart builds the stationary state chart: every state offset by its
// energy and the potential as a dashed line.
func StatesChart(g *dynamo.Grid, v dynamo.Potential, states []dynamo.Eigenstate, opts StatesOptions) chart.Chart {
	opts = opts.withDefaults()

	series := make([]chart.Series, 0, len(states)+1)
	for i, st := range states {
		y := make([]float64, len(st.Psi))
		for j, p := range st.Psi {
			if opts.Plot == PlotAmplitude {
				y[j] = p + st.Energy
			} else {
				y[j] = p*p + st.Energy
			}
		}
		series = append(series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("État n=%d (E = %.2f)", i+1, st.Energy),
			XValues: g.X,
			YValues: y,
			Style: chart.Style{
				StrokeColor: statePalette[i%len(statePalette)],
				StrokeWidth: 1.5,
			},
		})
	}
	series = append(series, chart.ContinuousSeries{
		Name:    "Potentiel V(x)",
		XValues: g.X,
		YValues: v,
		Style: chart.Style{
			StrokeColor:     black,
			StrokeWidth:     1.5,
			StrokeDashArray: []float64{6, 4},
		},
	})

	graph := chart.Chart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  "x",
			Style: chart.Style{FontSize: 10},
		},
		YAxis: chart.YAxis{
			Name:  "Énergie / Densité de probabilité",
			Style: chart.Style{FontSize: 10},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph
}

// WriteStatesPNG renders the stationary state chart as PNG.
func WriteStatesPNG(w io.Writer, g *dynamo.Grid, v dynamo.Potential, states []dynamo.Eigenstate, opts StatesOptions) error {
	if len(states) == 0 {
		return fmt.Errorf("%w: no stationary states to plot", dynamo.ErrInvalidConfig)
	}
	graph := StatesChart(g, v, states, opts)
	return graph.Render(chart.PNG, w)
}

// SaveStatesPNG writes the chart to dir/name, creating dir, and returns the
// path written.
func SaveStatesPNG(dir, name string, g *dynamo.Grid, v dynamo.Potential, states []dynamo.Eigenstate, opts StatesOptions) (string, error) {
	path, err := outputPath(dir, name)
	if err != nil {
		return "", err
	}
	err = createWith(path, func(w io.Writer) error {
		return WriteStatesPNG(w, g, v, states, opts)
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// createWith writes path through fn. A partly written file is removed.
func createWith(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("render %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

func outputPath(dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	return filepath.Join(dir, name), nil
}

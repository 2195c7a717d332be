package export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"log/slog"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/san-kum/wavesim/internal/dynamo"
)

// Animation renders sampled frames one at a time. Frames are pulled by index,
// so rendering never mutates simulation state.
type Animation struct {
	Grid      *dynamo.Grid
	Potential dynamo.Potential
	Frames    *dynamo.Frames
	Title     string
	XMin      float64
	XMax      float64
	YMin      float64
	YMax      float64
	FPS       int
	// Dt converts frame steps to time for the label; zero hides it.
	Dt     float64
	Width  int
	Height int
}

func (a *Animation) size() (int, int) {
	w, h := a.Width, a.Height
	if w <= 0 {
		w = 640
	}
	if h <= 0 {
		h = 480
	}
	return w, h
}

func (a *Animation) xRange() (float64, float64) {
	if a.XMax > a.XMin {
		return a.XMin, a.XMax
	}
	n := a.Grid.Len()
	return a.Grid.X[0], a.Grid.X[n-1]
}

// Chart builds the chart for frame j.
func (a *Animation) Chart(j int) chart.Chart {
	w, h := a.size()
	xmin, xmax := a.xRange()

	graph := chart.Chart{
		Title:  a.Title,
		Width:  w,
		Height: h,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  "x",
			Range: &chart.ContinuousRange{Min: xmin, Max: xmax},
		},
		YAxis: chart.YAxis{
			Name:  "Densité de probabilité de présence",
			Range: &chart.ContinuousRange{Min: a.YMin, Max: a.YMax},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Densité",
				XValues: a.Grid.X,
				YValues: clamp(a.Frames.Row(j), a.YMin, a.YMax),
				Style:   chart.Style{StrokeColor: densityColor, StrokeWidth: 2},
			},
			chart.ContinuousSeries{
				Name:    "Potentiel",
				XValues: a.Grid.X,
				YValues: clamp(a.Potential, a.YMin, a.YMax),
				Style:   chart.Style{StrokeColor: potentialColor, StrokeWidth: 1.5},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph
}

// RenderFrame rasterises frame j and stamps its step label.
func (a *Animation) RenderFrame(j int) (*image.RGBA, error) {
	img, err := renderImage(a.Chart(j))
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", j, err)
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, image.Point{}, draw.Src)
	addLabel(rgba, 10, 20, a.label(j), color.Black)
	return rgba, nil
}

func (a *Animation) label(j int) string {
	step := a.Frames.Steps[j]
	if step < 0 {
		return fmt.Sprintf("frame %d", j)
	}
	if a.Dt > 0 {
		return fmt.Sprintf("step %d  t = %.2e", step, float64(step)*a.Dt)
	}
	return fmt.Sprintf("step %d", step)
}

func addLabel(img *image.RGBA, x, y int, label string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(label)
}

// Delay returns the per frame delay in hundredths of a second.
func (a *Animation) Delay() int {
	fps := a.FPS
	if fps <= 0 {
		fps = 10
	}
	return max(1, 100/fps)
}

// Encode renders every frame slot, in parallel, and writes a GIF that plays
// once.
func (a *Animation) Encode(w io.Writer) error {
	if a.Frames == nil || a.Frames.Len() == 0 {
		return fmt.Errorf("%w: no frames to animate", dynamo.ErrInvalidConfig)
	}
	if len(a.Potential) != a.Grid.Len() || a.Frames.Cols != a.Grid.Len() {
		return fmt.Errorf("%w: frames, potential and grid disagree", dynamo.ErrDimensionMismatch)
	}

	start := time.Now()
	n := a.Frames.Len()
	images := make([]*image.Paletted, n)
	errs := make([]error, n)

	dynamo.ParallelFor(n, 4, func(lo, hi int) {
		for j := lo; j < hi; j++ {
			img, err := a.RenderFrame(j)
			if err != nil {
				errs[j] = err
				continue
			}
			p := image.NewPaletted(img.Bounds(), palette.Plan9)
			draw.Draw(p, p.Bounds(), img, image.Point{}, draw.Src)
			images[j] = p
		}
	})
	if err := errors.Join(errs...); err != nil {
		return err
	}

	anim := gif.GIF{LoopCount: -1}
	delay := a.Delay()
	for _, img := range images {
		anim.Image = append(anim.Image, img)
		anim.Delay = append(anim.Delay, delay)
	}
	slog.Debug("animation rendered", "frames", n, "elapsed", time.Since(start))
	return gif.EncodeAll(w, &anim)
}

// Save writes the animation to dir/name, creating dir, and returns the path.
func (a *Animation) Save(dir, name string) (string, error) {
	path, err := outputPath(dir, name)
	if err != nil {
		return "", err
	}
	if err := createWith(path, a.Encode); err != nil {
		return "", err
	}
	return path, nil
}

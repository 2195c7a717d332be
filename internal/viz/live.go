package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/wavesim/internal/analysis"
	"github.com/san-kum/wavesim/internal/dynamo"
)

const (
	width  = 80
	height = 24
)

type TickMsg time.Time

// PlayerConfig describes what the player shows. Frames are read, never
// written.
type PlayerConfig struct {
	Title     string
	Grid      *dynamo.Grid
	Potential dynamo.Potential
	Frames    *dynamo.Frames
	Dt        float64
	YMin      float64
	YMax      float64
	FPS       int
	// OnSnapshot is called with the current canvas when 's' is pressed.
	OnSnapshot func(c *Canvas, frame int) (string, error)
}

// Model replays sampled density frames in the terminal.
type Model struct {
	cfg       PlayerConfig
	canvas    *Canvas
	playHead  int
	count     int
	running   bool
	showHelp  bool
	norms     []float64
	splits    []analysis.Split
	status    string
	tickEvery time.Duration
}

func NewModel(cfg PlayerConfig) Model {
	if cfg.FPS <= 0 {
		cfg.FPS = 10
	}
	if cfg.YMax <= cfg.YMin {
		cfg.YMin, cfg.YMax = -6, 12
	}

	// only frames that were filled are worth replaying
	count := cfg.Frames.Filled()
	if count == 0 {
		count = cfg.Frames.Len()
	}
	norms := make([]float64, count)
	splits := make([]analysis.Split, count)
	for k := 0; k < count; k++ {
		row := cfg.Frames.Row(k)
		norms[k] = analysis.Norm(cfg.Grid, row)
		splits[k] = analysis.SplitPotential(cfg.Grid, cfg.Potential, row)
	}

	return Model{
		cfg:       cfg,
		canvas:    NewCanvas(width, height),
		count:     count,
		running:   true,
		norms:     norms,
		splits:    splits,
		tickEvery: time.Second / time.Duration(cfg.FPS),
	}
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.tickEvery, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Frame returns the current play head.
func (m Model) Frame() int { return m.playHead }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "space":
			m.running = !m.running
		case "r":
			m.playHead = 0
			m.running = true
		case "[", "left", "h":
			m.scrub(-1)
		case "]", "right", "l":
			m.scrub(1)
		case "home":
			m.playHead = 0
		case "end":
			m.playHead = m.count - 1
		case "?":
			m.showHelp = !m.showHelp
		case "t":
			names := ThemeNames()
			for i, name := range names {
				if name == CurrentTheme.Name {
					SetTheme(names[(i+1)%len(names)])
					break
				}
			}
		case "s":
			m.snapshot()
		}
	case TickMsg:
		if m.running {
			if m.playHead < m.count-1 {
				m.playHead++
			} else {
				m.running = false
			}
		}
		return m, m.tick()
	}
	return m, nil
}

// scrub moves the play head and pauses playback.
func (m *Model) scrub(dir int) {
	m.running = false
	m.playHead = max(0, min(m.count-1, m.playHead+dir))
}

func (m *Model) snapshot() {
	if m.cfg.OnSnapshot == nil {
		return
	}
	m.draw()
	path, err := m.cfg.OnSnapshot(m.canvas, m.playHead)
	if err != nil {
		m.status = "snapshot failed: " + err.Error()
		return
	}
	m.status = "saved " + path
}

// project maps (x, y) in data space to canvas sub-pixels.
func (m *Model) project(x, y float64) (int, int) {
	cw, ch := m.canvas.Width*2, m.canvas.Height*4
	g := m.cfg.Grid
	x0, x1 := g.X[0], g.X[g.Len()-1]
	y = math.Max(m.cfg.YMin, math.Min(m.cfg.YMax, y))
	if math.IsNaN(y) {
		y = m.cfg.YMin
	}
	px := int((x - x0) / (x1 - x0) * float64(cw-1))
	py := int((m.cfg.YMax - y) / (m.cfg.YMax - m.cfg.YMin) * float64(ch-1))
	return px, py
}

func (m *Model) drawCurve(y []float64) {
	g := m.cfg.Grid
	prevX, prevY := m.project(g.X[0], y[0])
	for j := 1; j < len(y); j++ {
		px, py := m.project(g.X[j], y[j])
		if px != prevX || py != prevY {
			m.canvas.DrawLine(prevX, prevY, px, py)
		}
		prevX, prevY = px, py
	}
}

func (m *Model) draw() {
	m.canvas.Clear()
	if m.count == 0 {
		return
	}
	_, axis := m.project(m.cfg.Grid.X[0], 0)
	for x := 0; x < m.canvas.Width*2; x += 4 {
		m.canvas.Set(x, axis)
	}
	m.drawCurve(m.cfg.Potential)
	m.drawCurve(m.cfg.Frames.Row(m.playHead))
}

func (m Model) View() string {
	m.draw()
	st := newStyles(CurrentTheme)

	canvasView := st.canvas.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(st.header.Render(m.cfg.Title) + "\n")

	status := st.running.Render("PLAYING")
	if !m.running {
		status = st.paused.Render("PAUSED")
	}
	s.WriteString(status + "\n\n")

	if m.count == 0 {
		s.WriteString(st.label.Render("no frames") + "\n")
		return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.stats.Render(s.String()))
	}

	step := m.cfg.Frames.Steps[m.playHead]
	progress := float64(m.playHead+1) / float64(m.count)
	s.WriteString(ProgressBar(progress, 30) + "\n\n")
	s.WriteString(st.label.Render("Frame") + st.value.Render(fmt.Sprintf("%d / %d", m.playHead+1, m.count)) + "\n")
	s.WriteString(st.label.Render("Step") + st.value.Render(fmt.Sprintf("%d", step)) + "\n")
	if m.cfg.Dt > 0 {
		s.WriteString(st.label.Render("Time") + st.value.Render(fmt.Sprintf("%.3e", float64(step)*m.cfg.Dt)) + "\n")
	}
	split := m.splits[m.playHead]
	s.WriteString(st.label.Render("Norm") + st.value.Render(fmt.Sprintf("%.4f", m.norms[m.playHead])) + "\n")
	s.WriteString(st.label.Render("Reflected") + st.value.Render(fmt.Sprintf("%.4f", split.Reflected)) + "\n")
	s.WriteString(st.label.Render("Inside") + st.value.Render(fmt.Sprintf("%.4f", split.Inside)) + "\n")
	s.WriteString(st.label.Render("Transmitted") + st.value.Render(fmt.Sprintf("%.4f", split.Transmitted)) + "\n")

	if m.playHead > 0 {
		chart := asciigraph.Plot(m.norms[:m.playHead+1], asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Norm"))
		s.WriteString("\n" + st.graph.Render(chart) + "\n")
	}
	if m.status != "" {
		s.WriteString("\n" + st.value.Render(m.status) + "\n")
	}
	s.WriteString(st.help.Render("\n" + Separator(30) + "\nSP:Pause R:Restart Q:Quit\n[ ]:Scrub T:Theme S:Snapshot ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.stats.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space     - Pause/Resume playback   ║
║  R         - Restart from frame 0    ║
║  Q         - Quit                    ║
║  [ / Left  - Previous frame          ║
║  ] / Right - Next frame              ║
║  Home/End  - First/last frame        ║
║  S         - Save canvas snapshot    ║
║  T         - Cycle themes            ║
║  ?         - Toggle this help        ║
╚══════════════════════════════════════╝`

// Play runs the player until the user quits.
func Play(cfg PlayerConfig) error {
	_, err := tea.NewProgram(NewModel(cfg), tea.WithAltScreen()).Run()
	return err
}

package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/d33fur/caso/internal/sim"
)

const (
	canvasWidth  = 60
	canvasHeight = 20
	frameRate    = 30
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model replays the trajectory of one finished run.
type Model struct {
	title     string
	res       *sim.Result
	xs        []float64
	steps     []float64
	head      int
	playing   bool
	component int
	phase     bool
	showHelp  bool
	canvas    *Canvas
}

func NewModel(title string, res *sim.Result) Model {
	traj := res.Trajectory
	steps := make([]float64, 0, max(0, len(traj)-1))
	for i := 1; i < len(traj); i++ {
		steps = append(steps, traj[i].X-traj[i-1].X)
	}
	return Model{
		title:   title,
		res:     res,
		xs:      traj.Xs(),
		steps:   steps,
		playing: true,
		phase:   traj.Dim() >= 2,
		canvas:  NewCanvas(canvasWidth, canvasHeight),
	}
}

// Run opens the browser on the terminal and blocks until the user quits.
func Run(title string, res *sim.Result) error {
	_, err := tea.NewProgram(NewModel(title, res), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) last() int { return len(m.res.Trajectory) - 1 }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if m.head == m.last() {
				m.head = 0
			}
			m.playing = !m.playing
		case "[", "left", "h":
			m.playing = false
			m.head = max(0, m.head-1)
		case "]", "right", "l":
			m.playing = false
			m.head = min(m.last(), m.head+1)
		case "home", "g":
			m.head = 0
		case "end", "G":
			m.head = m.last()
		case "tab":
			if dim := m.res.Trajectory.Dim(); dim > 0 {
				m.component = (m.component + 1) % dim
			}
		case "p":
			m.phase = !m.phase && m.res.Trajectory.Dim() >= 2
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.playing {
			if m.head < m.last() {
				m.head++
			}
			if m.head >= m.last() {
				m.playing = false
			}
		}
		return m, tick()
	}
	return m, nil
}

// pair returns the components drawn by the phase portrait.
func (m Model) pair() (int, int) {
	dim := m.res.Trajectory.Dim()
	return m.component, (m.component + 1) % dim
}

func (m Model) draw() string {
	m.canvas.Clear()
	traj := m.res.Trajectory
	if len(traj) == 0 {
		return m.canvas.String()
	}

	var xs, ys []float64
	if m.phase {
		i, j := m.pair()
		xs, ys = traj.Component(i), traj.Component(j)
	} else {
		xs, ys = m.xs, traj.Component(m.component)
	}

	// Bounds come from the full run so the picture does not rescale while
	// replaying.
	b := BoundsOf(xs, ys)
	m.canvas.Polyline(b, xs[:m.head+1], ys[:m.head+1])
	m.canvas.Marker(b, xs[m.head], ys[m.head])
	return m.canvas.String()
}

func (m Model) View() string {
	traj := m.res.Trajectory
	if len(traj) == 0 {
		return "empty trajectory\n"
	}
	p := traj[m.head]

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")
	if m.playing {
		s.WriteString(statusPlaying.Render("PLAYING"))
	} else {
		s.WriteString(statusPaused.Render("PAUSED"))
	}
	fmt.Fprintf(&s, "  %s %d/%d\n\n", ProgressBar(float64(m.head)/float64(max(1, m.last())), 20), m.head, m.last())

	s.WriteString(labelStyle.Render("method") + valueStyle.Render(m.res.Method) + "\n")
	s.WriteString(labelStyle.Render("x") + valueStyle.Render(fmt.Sprintf("%.6g", p.X)) + "\n")
	for i, v := range p.Y {
		line := labelStyle.Render(fmt.Sprintf("y%d", i)) + valueStyle.Render(fmt.Sprintf("%.6g", v))
		if i == m.component {
			line = activeStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		s.WriteString(line + "\n")
	}

	st := m.res.Stats
	s.WriteString("\n")
	s.WriteString(labelStyle.Render("accepted") + valueStyle.Render(fmt.Sprintf("%d", st.Accepted)) + "\n")
	s.WriteString(labelStyle.Render("rejected") + valueStyle.Render(fmt.Sprintf("%d", st.Rejected)) + "\n")
	s.WriteString(labelStyle.Render("rhs evals") + valueStyle.Render(fmt.Sprintf("%d", st.Evaluations)) + "\n")
	s.WriteString(labelStyle.Render("h range") + valueStyle.Render(fmt.Sprintf("%.3g .. %.3g", st.MinH, st.MaxH)) + "\n")
	if len(m.steps) > 0 {
		s.WriteString(labelStyle.Render("h (log)") + Sparkline(m.steps, 30) + "\n")
	}

	if m.head > 0 {
		values := traj.Component(m.component)[:m.head+1]
		chart := asciigraph.Plot(values, asciigraph.Height(5), asciigraph.Width(36),
			asciigraph.Caption(fmt.Sprintf("y%d", m.component)))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	s.WriteString(helpStyle.Render("SP:Play [ ]:Step TAB:Component P:Phase ?:Help Q:Quit"))

	var plotTitle string
	if m.phase {
		i, j := m.pair()
		plotTitle = fmt.Sprintf("y%d vs y%d", j, i)
	} else {
		plotTitle = fmt.Sprintf("y%d vs x", m.component)
	}
	left := canvasStyle.Render(plotTitle + "\n" + m.draw())
	main := lipgloss.JoinHorizontal(lipgloss.Top, left, statsStyle.Render(s.String()))

	if m.showHelp {
		return helpOverlay + "\n" + main
	}
	return main
}

const helpOverlay = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Play/Pause replay        ║
║  [ / ]    - Step back/forward        ║
║  Home/End - First/last point         ║
║  Tab      - Cycle component          ║
║  P        - Phase portrait / series  ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
`

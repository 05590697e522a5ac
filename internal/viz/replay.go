package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/pmacsim/internal/engine"
)

const (
	maxSpeed     = 512
	defaultWidth = 60
	frameRate    = time.Second / 30
)

// TickMsg advances playback by one frame.
type TickMsg time.Time

// ReplayModel plays back a finished run.
type ReplayModel struct {
	res     *engine.Result
	title   string
	cursor  int
	speed   int
	running bool
	window  int
	stride  int
	theme   Theme
	styles  styles
}

// NewReplayModel starts playback of res from its first sample.
func NewReplayModel(res *engine.Result, title string) ReplayModel {
	stride := res.Config.ControlStride()
	window := stride * 10
	if n := res.Series.Len(); window > n {
		window = n
	}
	return ReplayModel{
		res:     res,
		title:   title,
		speed:   max(stride/10, 1),
		running: true,
		window:  max(window, 1),
		stride:  stride,
		theme:   ThemeCyberpunk,
		styles:  stylesFor(ThemeCyberpunk),
	}
}

// WithTheme returns a copy of m drawn with t.
func (m ReplayModel) WithTheme(t Theme) ReplayModel {
	m.theme = t
	m.styles = stylesFor(t)
	return m
}

func (m ReplayModel) Cursor() int       { return m.cursor }
func (m ReplayModel) Speed() int        { return m.speed }
func (m ReplayModel) Running() bool     { return m.running }
func (m ReplayModel) ThemeName() string { return m.theme.Name }

func tick() tea.Cmd {
	return tea.Tick(frameRate, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m ReplayModel) Init() tea.Cmd {
	return tick()
}

func (m ReplayModel) last() int {
	if n := m.res.Series.Len(); n > 0 {
		return n - 1
	}
	return 0
}

func (m ReplayModel) seek(i int) ReplayModel {
	if i < 0 {
		i = 0
	}
	if i > m.last() {
		i = m.last()
	}
	m.cursor = i
	return m
}

func (m ReplayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "+", "=":
			if m.speed < maxSpeed {
				m.speed *= 2
			}
		case "-", "_":
			if m.speed > 1 {
				m.speed /= 2
			}
		case "[":
			m = m.seek(m.cursor - m.stride)
		case "]":
			m = m.seek(m.cursor + m.stride)
		case "home", "r":
			m = m.seek(0)
		case "end":
			m = m.seek(m.last())
		case "t":
			m.theme = NextTheme(m.theme)
			m.styles = stylesFor(m.theme)
		}

	case TickMsg:
		if m.running {
			m = m.seek(m.cursor + m.speed)
			if m.cursor == m.last() {
				m.running = false
			}
		}
		return m, tick()
	}

	return m, nil
}

func (m ReplayModel) View() string {
	s := m.res.Series
	if s.Len() == 0 {
		return m.styles.header.Render(m.title) + "\n\nno samples recorded\n"
	}

	start := m.cursor - m.window + 1
	if start < 0 {
		start = 0
	}
	end := m.cursor + 1

	ne0 := m.res.Config.NE0
	density := make([]float64, end-start)
	for i := range density {
		density[i] = s.Density[start+i] / ne0
	}

	field := asciigraph.Plot(padded(s.BField[start:end]),
		asciigraph.Height(8),
		asciigraph.Width(defaultWidth),
		asciigraph.Caption("B-Field (T)"),
	)
	plasma := asciigraph.Plot(padded(density),
		asciigraph.Height(8),
		asciigraph.Width(defaultWidth),
		asciigraph.Caption("n_e / N_e0"),
	)
	graphs := m.styles.graph.Render(field + "\n\n" + plasma)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.header.Render(m.title),
		lipgloss.JoinHorizontal(lipgloss.Top, graphs, m.stats()),
		m.styles.help.Render("space pause | +/- speed | [ ] step | home/end | t theme | q quit"),
	)
}

func (m ReplayModel) stats() string {
	s := m.res.Series
	i := m.cursor
	row := func(label, value string) string {
		return m.styles.label.Render(label) + m.styles.value.Render(value)
	}

	status := m.styles.clear.Render("GUIDANCE CLEAR")
	if s.Blackout[i] > 0 {
		status = m.styles.blocked.Render("BLACKOUT")
	}
	state := "playing"
	if !m.running {
		state = m.styles.paused.Render("paused")
	}

	lines := []string{
		status,
		"",
		row("t", fmt.Sprintf("%.4f s", s.T[i])),
		row("step", fmt.Sprintf("%d / %d", i, m.last())),
		row("B-field", fmt.Sprintf("%.3f T", s.BField[i])),
		row("n_e", fmt.Sprintf("%.3e m^-3", s.Density[i])),
		row("AI command", fmt.Sprintf("%.3f", s.Command[i])),
		row("power", fmt.Sprintf("%.1f kW", s.Power[i]/1e3)),
		"",
		row("speed", fmt.Sprintf("%dx", m.speed)),
		row("state", state),
		row("theme", m.theme.Name),
	}
	return m.styles.stats.Render(strings.Join(lines, "\n"))
}

// padded keeps asciigraph happy with single-sample windows.
func padded(data []float64) []float64 {
	if len(data) == 1 {
		return []float64{data[0], data[0]}
	}
	return data
}

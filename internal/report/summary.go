// Package report renders finished runs: the one-line summary, a styled
// terminal block, ASCII panels and a six-panel PNG figure.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/san-kum/pmacsim/internal/engine"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ffff"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(18)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	clearStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	blackoutStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))
)

// SummaryLine is the fixed-precision single-line report of a run.
func SummaryLine(m engine.Metrics) string {
	return fmt.Sprintf("nₑ Reduction: %.1f%% | Guidance Clear: %.1f%% | Blackout: %.3fs | Peak Power: %.0f kW | CEP: %g m",
		m.DensityReduction, m.GuidanceClear, m.BlackoutTime, m.PeakPower/1e3, m.CEP)
}

// Status classifies a run by its final guidance state.
func Status(res *engine.Result, threshold float64) string {
	if res.Metrics.DensityReduction >= threshold {
		return "GUIDANCE CLEAR"
	}
	return "BLACKOUT"
}

// Block renders a styled multi-line summary for terminals.
func Block(title string, res *engine.Result) string {
	m := res.Metrics
	var s strings.Builder

	s.WriteString(titleStyle.Render(strings.ToUpper(title)) + "\n\n")

	status := Status(res, res.Config.GuidanceThreshold)
	if status == "BLACKOUT" {
		s.WriteString(blackoutStyle.Render(status) + "\n\n")
	} else {
		s.WriteString(clearStyle.Render(status) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("seed", fmt.Sprintf("%d", res.Seed))
	row("steps", humanize.Comma(int64(res.Series.Len())))
	row("nₑ reduction", fmt.Sprintf("%.1f%%", m.DensityReduction))
	row("guidance clear", fmt.Sprintf("%.1f%%", m.GuidanceClear))
	row("blackout", fmt.Sprintf("%.3fs", m.BlackoutTime))
	row("peak power", humanize.SIWithDigits(m.PeakPower, 1, "W"))
	row("CEP", fmt.Sprintf("%g m", m.CEP))

	if len(m.Extra) > 0 {
		s.WriteString("\n")
		names := make([]string, 0, len(m.Extra))
		for name := range m.Extra {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			row(name, formatExtra(name, m.Extra[name]))
		}
	}

	return panelStyle.Render(s.String())
}

func formatExtra(name string, v float64) string {
	switch name {
	case "energy_kj":
		return humanize.SIWithDigits(v*1e3, 2, "J")
	case "windows":
		return humanize.Comma(int64(v))
	case "command_saturation", "blackout_regime":
		return fmt.Sprintf("%.1f%%", v*100)
	}
	return fmt.Sprintf("%.4f", v)
}

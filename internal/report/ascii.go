package report

import (
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/pmacsim/internal/engine"
)

// Panel is one time-series view shared by the ASCII and PNG renderers.
type Panel struct {
	Title  string
	Series [][]float64
	Names  []string
}

// Panels extracts the six standard views of a run.
func Panels(res *engine.Result) []Panel {
	s := res.Series
	cfg := res.Config

	density := make([]float64, s.Len())
	phase := make([]float64, s.Len())
	powerKW := make([]float64, s.Len())
	for i := range density {
		density[i] = s.Density[i] / cfg.NE0
		phase[i] = math.Mod(s.T[i], cfg.TWindow) / cfg.TWindow
		powerKW[i] = s.Power[i] / 1e3
	}

	return []Panel{
		{Title: "B-Field (T)", Series: [][]float64{s.BField}, Names: []string{"B-Field"}},
		{Title: "Plasma n_e / N_e0", Series: [][]float64{density}, Names: []string{"n_e/N_e0"}},
		{Title: "PMAC Windows (cycle phase)", Series: [][]float64{phase}, Names: []string{"phase"}},
		{Title: "Guidance", Series: [][]float64{s.GuidanceClear, s.Blackout}, Names: []string{"Guidance Clear", "Blackout"}},
		{Title: "AI Command", Series: [][]float64{s.Command}, Names: []string{"AI Command"}},
		{Title: "Power (kW)", Series: [][]float64{powerKW}, Names: []string{"Power"}},
	}
}

var panelColors = []asciigraph.AnsiColor{asciigraph.Green, asciigraph.Red}

// ASCIIPanels renders every panel with asciigraph, one below the other.
func ASCIIPanels(res *engine.Result, width, height int) string {
	if res.Series.Len() == 0 {
		return ""
	}

	var sb strings.Builder
	for _, p := range Panels(res) {
		opts := []asciigraph.Option{
			asciigraph.Height(height),
			asciigraph.Width(width),
			asciigraph.Caption(p.Title),
		}
		var graph string
		if len(p.Series) > 1 {
			opts = append(opts, asciigraph.SeriesColors(panelColors[:len(p.Series)]...))
			graph = asciigraph.PlotMany(p.Series, opts...)
		} else {
			graph = asciigraph.Plot(p.Series[0], opts...)
		}
		sb.WriteString(graph)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

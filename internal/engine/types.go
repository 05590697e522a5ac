package engine

import (
	"fmt"

	"github.com/san-kum/pmacsim/internal/config"
)

// Sample is one grid step as seen by metrics and observers.
type Sample struct {
	Index         int
	T             float64
	Dt            float64
	TInCycle      float64
	BField        float64
	Density       float64
	Power         float64
	GuidanceClear float64
	Blackout      float64
	Command       float64
	Commanded     bool
}

// NewWindow reports whether this step opens a drive-cycle window.
func (s Sample) NewWindow() bool { return s.TInCycle < s.Dt }

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s Sample)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(s Sample)

func (f ObserverFunc) OnStep(s Sample) { f(s) }

// Series holds one value per grid index for every simulated signal.
type Series struct {
	T             []float64
	BField        []float64
	Density       []float64
	Power         []float64
	GuidanceClear []float64
	Blackout      []float64
	Command       []float64
}

func newSeries(times []float64, ne0 float64) *Series {
	n := len(times)
	s := &Series{
		T:             times,
		BField:        make([]float64, n),
		Density:       make([]float64, n),
		Power:         make([]float64, n),
		GuidanceClear: make([]float64, n),
		Blackout:      make([]float64, n),
		Command:       make([]float64, n),
	}
	for i := range s.Density {
		s.Density[i] = ne0
	}
	return s
}

func (s *Series) Len() int { return len(s.T) }

// Column names used by every export of a Series.
var Columns = []string{"t", "B_field", "n_e", "guidance_clear", "blackout", "ai_command", "power"}

// Column returns the named series, or nil for an unknown name.
func (s *Series) Column(name string) []float64 {
	switch name {
	case "t":
		return s.T
	case "B_field":
		return s.BField
	case "n_e":
		return s.Density
	case "guidance_clear":
		return s.GuidanceClear
	case "blackout":
		return s.Blackout
	case "ai_command":
		return s.Command
	case "power":
		return s.Power
	}
	return nil
}

// SeriesFromColumns rebuilds a Series from named columns of equal length.
func SeriesFromColumns(cols map[string][]float64) (*Series, error) {
	n := -1
	for _, name := range Columns {
		c, ok := cols[name]
		if !ok {
			return nil, fmt.Errorf("engine: missing column %q", name)
		}
		if n >= 0 && len(c) != n {
			return nil, fmt.Errorf("engine: column %q has %d rows, want %d", name, len(c), n)
		}
		n = len(c)
	}
	return &Series{
		T:             cols["t"],
		BField:        cols["B_field"],
		Density:       cols["n_e"],
		Power:         cols["power"],
		GuidanceClear: cols["guidance_clear"],
		Blackout:      cols["blackout"],
		Command:       cols["ai_command"],
	}, nil
}

type Metrics struct {
	DensityReduction float64            `json:"n_e_reduction"`
	GuidanceClear    float64            `json:"guidance_clear"`
	ClearTime        float64            `json:"clear_time"`
	BlackoutTime     float64            `json:"blackout_time"`
	PeakPower        float64            `json:"peak_power"`
	CEP              float64            `json:"cep"`
	Extra            map[string]float64 `json:"extra,omitempty"`
}

type Result struct {
	Config  *config.Config
	Seed    int64
	Series  *Series
	Metrics Metrics
}

package metrics

import "github.com/san-kum/pmacsim/internal/engine"

// Energy integrates coil power over the run, in kJ.
type Energy struct {
	name   string
	joules float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy_kj"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(s engine.Sample) {
	e.joules += s.Power * s.Dt
}

func (e *Energy) Value() float64 {
	return e.joules / 1e3
}

func (e *Energy) Reset() {
	e.joules = 0
}

// Windows counts drive-cycle windows opened during the run.
type Windows struct {
	name  string
	count int
}

func NewWindows() *Windows {
	return &Windows{name: "windows"}
}

func (w *Windows) Name() string { return w.name }

func (w *Windows) Observe(s engine.Sample) {
	if s.NewWindow() {
		w.count++
	}
}

func (w *Windows) Value() float64 { return float64(w.count) }

func (w *Windows) Reset() { w.count = 0 }

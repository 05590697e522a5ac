// Package engine drives the PMAC recurrence over a fixed time grid.
//
// An Engine moves through NotStarted -> Running -> MetricsComputed ->
// Reported. Run performs the first two transitions; reporting sinks read the
// finished Result and call MarkReported.
package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/pmacsim/internal/coil"
	"github.com/san-kum/pmacsim/internal/config"
	"github.com/san-kum/pmacsim/internal/controller"
	"github.com/san-kum/pmacsim/internal/plasma"
)

type Phase int

const (
	NotStarted Phase = iota
	Running
	MetricsComputed
	Reported
)

func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case MetricsComputed:
		return "metrics_computed"
	case Reported:
		return "reported"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

type Option func(*options)

type options struct {
	simTime float64
	rng     *rand.Rand
}

// WithSimTime overrides the configured total simulated duration.
func WithSimTime(d float64) Option {
	return func(o *options) { o.simTime = d }
}

// WithRand supplies the controller noise source instead of seeding one from
// the configuration.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

type Engine struct {
	cfg        *config.Config
	coil       *coil.Coil
	plasma     *plasma.Plasma
	controller *controller.Controller
	series     *Series
	metrics    []Metric
	observers  []Observer
	phase      Phase
	result     *Result
}

// New validates cfg and builds the grid. The configuration is copied, so
// later changes to cfg do not affect the engine.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	cfg = cfg.Clone()
	if o.simTime != 0 {
		cfg.SimTime = o.simTime
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := o.rng
	if rng == nil {
		rng = rand.New(rand.NewSource(cfg.Seed))
	}

	return &Engine{
		cfg:        cfg,
		coil:       coil.New(cfg),
		plasma:     plasma.New(cfg),
		controller: controller.New(cfg, rng),
		series:     newSeries(TimeGrid(cfg.SimTime, cfg.Dt), cfg.NE0),
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}, nil
}

// TimeGrid returns the uniform samples i*dt lying in [0, simTime).
func TimeGrid(simTime, dt float64) []float64 {
	n := int(math.Ceil(simTime / dt))
	for n > 0 && float64(n-1)*dt >= simTime {
		n--
	}
	if n < 0 {
		n = 0
	}
	t := make([]float64, n)
	for i := range t {
		t[i] = float64(i) * dt
	}
	return t
}

func (e *Engine) AddMetric(m Metric)     { e.metrics = append(e.metrics, m) }
func (e *Engine) AddObserver(o Observer) { e.observers = append(e.observers, o) }

func (e *Engine) Phase() Phase           { return e.phase }
func (e *Engine) Config() *config.Config { return e.cfg.Clone() }
func (e *Engine) Coil() *coil.Coil       { return e.coil }
func (e *Engine) Plasma() *plasma.Plasma { return e.plasma }

// Run sweeps the grid once and computes metrics. Cancelling ctx aborts the
// sweep; the engine then stays Running and has no result.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if e.phase != NotStarted {
		return nil, ErrAlreadyRun
	}
	e.phase = Running

	for _, m := range e.metrics {
		m.Reset()
	}

	cfg := e.cfg
	s := e.series
	stride := cfg.ControlStride()
	carry := cfg.Controller.CommandPolicy == config.CommandCarryForward
	last := 0.0
	windows := 0

	logrus.Debugf("pmac run: %d steps, dt=%g, stride=%d, cycle=%s, seed=%d",
		s.Len(), cfg.Dt, stride, cfg.CyclePhase, cfg.Seed)

	for i, t := range s.T {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		tInCycle := math.Mod(t, cfg.TWindow)
		if tInCycle < cfg.Dt || cfg.CyclePhase == config.CycleRamp {
			s.BField[i] = e.coil.RampField(tInCycle)
		} else {
			s.BField[i] = e.coil.RampField(cfg.TWindow)
		}
		if tInCycle < cfg.Dt {
			windows++
			logrus.Debugf("drive window %d opens at t=%.4fs (step %d)", windows, t, i)
		}

		commanded := i%stride == 0
		if commanded {
			last = e.controller.ControlLoop(t)
			s.Command[i] = last
		} else if carry {
			s.Command[i] = last
		}

		if i > 0 {
			s.Density[i] = e.plasma.DensityReduction(s.Density[i-1], s.BField[i])
		}

		s.Power[i] = e.coil.PowerConsumption(t)

		if e.plasma.ReductionPercent(s.Density[i]) >= cfg.GuidanceThreshold {
			s.GuidanceClear[i] = 1
		}
		s.Blackout[i] = 1 - s.GuidanceClear[i]

		sample := Sample{
			Index:         i,
			T:             t,
			Dt:            cfg.Dt,
			TInCycle:      tInCycle,
			BField:        s.BField[i],
			Density:       s.Density[i],
			Power:         s.Power[i],
			GuidanceClear: s.GuidanceClear[i],
			Blackout:      s.Blackout[i],
			Command:       s.Command[i],
			Commanded:     commanded,
		}
		for _, m := range e.metrics {
			m.Observe(sample)
		}
		for _, obs := range e.observers {
			obs.OnStep(sample)
		}
	}

	m := CalculateMetrics(s, cfg)
	if len(e.metrics) > 0 {
		m.Extra = make(map[string]float64, len(e.metrics))
		for _, metric := range e.metrics {
			m.Extra[metric.Name()] = metric.Value()
		}
	}

	e.result = &Result{Config: cfg.Clone(), Seed: cfg.Seed, Series: s, Metrics: m}
	e.phase = MetricsComputed

	logrus.Infof("pmac run complete: reduction=%.1f%% clear=%.1f%% windows=%d",
		m.DensityReduction, m.GuidanceClear, windows)

	return e.result, nil
}

// CalculateMetrics derives the summary metrics from a finished series.
func CalculateMetrics(s *Series, cfg *config.Config) Metrics {
	m := Metrics{CEP: cfg.CEPTarget}
	if s.Len() == 0 {
		m.BlackoutTime = cfg.SimTime
		return m
	}

	m.DensityReduction = (1 - s.Density[s.Len()-1]/cfg.NE0) * 100
	m.ClearTime = floats.Sum(s.GuidanceClear) * cfg.Dt
	m.BlackoutTime = cfg.SimTime - m.ClearTime
	m.GuidanceClear = m.ClearTime / cfg.SimTime * 100
	m.PeakPower = floats.Max(s.Power)
	return m
}

// Result returns the finished run.
func (e *Engine) Result() (*Result, error) {
	if e.result == nil {
		return nil, ErrNotRun
	}
	return e.result, nil
}

// MarkReported records that a sink consumed the result. Repeated calls are
// no-ops.
func (e *Engine) MarkReported() error {
	switch e.phase {
	case MetricsComputed, Reported:
		e.phase = Reported
		return nil
	}
	return ErrNotRun
}

// Package controller implements the sampled density-feedback controller.
//
// Two sensor policies are supported. SensorModulated draws a baseline array
// once and perturbs it with noise scaled by sin(2*pi*t) on every read.
// SensorRedraw draws an independent array on every read. Both share the same
// decision rule: a clipped, gain-scaled normalized density error.
package controller

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/pmacsim/internal/config"
)

type Controller struct {
	NE0            float64
	Gain           float64
	Sensors        int
	BaselineSpread float64
	NoiseSpread    float64
	Policy         string

	rng      *rand.Rand
	baseline []float64
}

// New builds a controller drawing all sensor noise from rng. The modulated
// policy consumes Sensors draws from rng here, before the first read.
func New(cfg *config.Config, rng *rand.Rand) *Controller {
	c := &Controller{
		NE0:            cfg.NE0,
		Gain:           cfg.Controller.Gain,
		Sensors:        cfg.Controller.Sensors,
		BaselineSpread: cfg.Controller.BaselineSpread,
		NoiseSpread:    cfg.Controller.NoiseSpread,
		Policy:         cfg.Controller.SensorPolicy,
		rng:            rng,
	}
	if c.Policy == config.SensorModulated {
		c.baseline = c.normal(c.NE0, c.NE0*c.BaselineSpread)
	}
	return c
}

func (c *Controller) normal(mean, stddev float64) []float64 {
	out := make([]float64, c.Sensors)
	for i := range out {
		out[i] = mean + stddev*c.rng.NormFloat64()
	}
	return out
}

// baselineCopy returns a copy of the fixed sensor baseline, nil under
// SensorRedraw.
func (c *Controller) baselineCopy() []float64 {
	if c.baseline == nil {
		return nil
	}
	out := make([]float64, len(c.baseline))
	copy(out, c.baseline)
	return out
}

// SensorRead samples the density sensors at time t.
func (c *Controller) SensorRead(t float64) []float64 {
	if c.Policy == config.SensorRedraw {
		return c.normal(c.NE0, c.NE0*c.BaselineSpread)
	}
	noise := c.normal(0, c.NE0*c.NoiseSpread)
	floats.Scale(math.Sin(2*math.Pi*t), noise)
	floats.Add(noise, c.baseline)
	return noise
}

// Decide maps a sensor vector to a command in [0, 1].
func (c *Controller) Decide(sensors []float64) float64 {
	if len(sensors) == 0 {
		return 0
	}
	mean := stat.Mean(sensors, nil)
	errNorm := (c.NE0 - mean) / c.NE0
	return clip(errNorm*c.Gain, 0, 1)
}

func (c *Controller) ControlLoop(t float64) float64 {
	return c.Decide(c.SensorRead(t))
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Package coil models the YBCO drive coils: the field ramp at the start of a
// drive cycle and the electrical power drawn to sustain it.
package coil

import (
	"math"

	"github.com/san-kum/pmacsim/internal/config"
)

type Coil struct {
	BMax     float64
	RampTime float64
	Power    float64
	Mu0      float64
	Turns    int
	Count    int
}

func New(cfg *config.Config) *Coil {
	return &Coil{
		BMax:     cfg.BMax,
		RampTime: cfg.CoilRampTime,
		Power:    cfg.CoilPower,
		Mu0:      cfg.Mu0,
		Turns:    cfg.CoilTurns,
		Count:    cfg.NumCoils,
	}
}

// RampField is the field strength tInCycle seconds into a drive cycle: a
// linear ramp to BMax over RampTime, then held at BMax.
func (c *Coil) RampField(tInCycle float64) float64 {
	return c.BMax * math.Min(tInCycle/c.RampTime, 1.0)
}

// PowerConsumption scales rated power by the squared normalized field at t.
func (c *Coil) PowerConsumption(t float64) float64 {
	b := c.RampField(t) / c.BMax
	return c.Power * b * b
}

// CoilCurrent converts a field strength to the winding current in kA.
func (c *Coil) CoilCurrent(field float64) float64 {
	return field / (c.Mu0 * float64(c.Turns)) * 1e-3
}

// Package plasma holds the electron-density relaxation model.
package plasma

import (
	"math"

	"github.com/san-kum/pmacsim/internal/config"
)

type Plasma struct {
	Alpha             float64
	Window            float64
	Mu0               float64
	NE0               float64
	BlackoutThreshold float64
}

func New(cfg *config.Config) *Plasma {
	return &Plasma{
		Alpha:             cfg.AlphaYBCO,
		Window:            cfg.TWindow,
		Mu0:               cfg.Mu0,
		NE0:               cfg.NE0,
		BlackoutThreshold: cfg.BlackoutThreshold,
	}
}

// DecayFactor is the fraction of density surviving one exposure to field.
func (p *Plasma) DecayFactor(field float64) float64 {
	return math.Exp(-p.Alpha * field * field * p.Window / p.Mu0)
}

// DensityReduction advances density by one step under field.
func (p *Plasma) DensityReduction(prev, field float64) float64 {
	return prev * p.DecayFactor(field)
}

// BlackoutCondition reports whether density is still high enough to block
// communications.
func (p *Plasma) BlackoutCondition(density float64) bool {
	return density/p.NE0 > p.BlackoutThreshold
}

// ReductionPercent is the reduction of density relative to baseline.
func (p *Plasma) ReductionPercent(density float64) float64 {
	return (1 - density/p.NE0) * 100
}

package metrics

import (
	"github.com/san-kum/pmacsim/internal/engine"
	"github.com/san-kum/pmacsim/internal/plasma"
)

// BlackoutRegime is the fraction of steps in which normalized density stays
// above the communications-blackout threshold. It is independent of the
// guidance-clear classification, which uses a reduction percentage.
type BlackoutRegime struct {
	name       string
	plasma     *plasma.Plasma
	violations int
	samples    int
}

func NewBlackoutRegime(p *plasma.Plasma) *BlackoutRegime {
	return &BlackoutRegime{
		name:   "blackout_regime",
		plasma: p,
	}
}

func (b *BlackoutRegime) Name() string {
	return b.name
}

func (b *BlackoutRegime) Observe(s engine.Sample) {
	b.samples++
	if b.plasma.BlackoutCondition(s.Density) {
		b.violations++
	}
}

func (b *BlackoutRegime) Value() float64 {
	if b.samples == 0 {
		return 0
	}
	return float64(b.violations) / float64(b.samples)
}

func (b *BlackoutRegime) Reset() {
	b.violations = 0
	b.samples = 0
}

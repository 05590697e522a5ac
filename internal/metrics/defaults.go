package metrics

import (
	"github.com/san-kum/pmacsim/internal/engine"
	"github.com/san-kum/pmacsim/internal/plasma"
)

// Defaults returns a fresh set of the accumulators every CLI run records.
func Defaults(p *plasma.Plasma) []engine.Metric {
	return []engine.Metric{
		NewControlEffort(),
		NewCommandSaturation(),
		NewEnergy(),
		NewWindows(),
		NewBlackoutRegime(p),
	}
}

package metrics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/pmacsim/internal/engine"
)

// ControlEffort is the mean controller command over the steps on which the
// controller actually ran. Steps filled by the command policy are ignored.
type ControlEffort struct {
	commands []float64
}

func NewControlEffort() *ControlEffort { return &ControlEffort{} }

func (*ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(s engine.Sample) {
	if s.Commanded {
		c.commands = append(c.commands, s.Command)
	}
}

func (c *ControlEffort) Value() float64 {
	if len(c.commands) == 0 {
		return 0
	}
	return stat.Mean(c.commands, nil)
}

func (c *ControlEffort) Reset() { c.commands = c.commands[:0] }

// CommandSaturation is the fraction of controller decisions clipped at full
// command.
type CommandSaturation struct {
	decisions int
	saturated int
}

func NewCommandSaturation() *CommandSaturation { return &CommandSaturation{} }

func (*CommandSaturation) Name() string { return "command_saturation" }

func (c *CommandSaturation) Observe(s engine.Sample) {
	if !s.Commanded {
		return
	}
	c.decisions++
	if s.Command >= 1 {
		c.saturated++
	}
}

func (c *CommandSaturation) Value() float64 {
	if c.decisions == 0 {
		return 0
	}
	return float64(c.saturated) / float64(c.decisions)
}

func (c *CommandSaturation) Reset() { c.decisions, c.saturated = 0, 0 }

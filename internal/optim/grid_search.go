// Package optim searches configuration parameters for the best run.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/pmacsim/internal/config"
	"github.com/san-kum/pmacsim/internal/engine"
)

var ErrNoCandidate = errors.New("optim: no valid parameter combination")

// Setters maps tunable parameter names to their config fields.
var Setters = map[string]func(*config.Config, float64){
	"b_max":          func(c *config.Config, v float64) { c.BMax = v },
	"t_window":       func(c *config.Config, v float64) { c.TWindow = v },
	"alpha_ybco":     func(c *config.Config, v float64) { c.AlphaYBCO = v },
	"coil_ramp_time": func(c *config.Config, v float64) { c.CoilRampTime = v },
	"coil_power":     func(c *config.Config, v float64) { c.CoilPower = v },
	"control_loop":   func(c *config.Config, v float64) { c.ControlLoop = v },
	"gain":           func(c *config.Config, v float64) { c.Controller.Gain = v },
}

func ParamNames() []string {
	names := make([]string, 0, len(Setters))
	for name := range Setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Objective scores a run; lower is better.
type Objective func(m engine.Metrics) float64

// MaxGuidanceClear prefers runs with the most guidance-clear time.
func MaxGuidanceClear(m engine.Metrics) float64 { return -m.GuidanceClear }

// MinPeakPower prefers runs drawing the least peak power.
func MinPeakPower(m engine.Metrics) float64 { return m.PeakPower }

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d params but %d ranges", len(params), len(ranges))
	}
	for _, p := range params {
		if _, ok := Setters[p]; !ok {
			return nil, fmt.Errorf("optim: unknown parameter %q (available: %v)", p, ParamNames())
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Search runs every combination on top of base and returns the one with the
// lowest objective. Combinations that fail validation are skipped.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, objective Objective) (map[string]float64, float64, error) {
	best := math.Inf(1)
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, 0, make(map[string]float64), base, objective, &best, &bestParams)
	if err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, ErrNoCandidate
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	objective Objective,
	best *float64,
	bestParams *map[string]float64,
) error {
	if depth == len(g.paramNames) {
		cfg := base.Clone()
		for name, v := range current {
			Setters[name](cfg, v)
		}

		eng, err := engine.New(cfg)
		if err != nil {
			logrus.Debugf("skipping %v: %v", current, err)
			return nil
		}
		result, err := eng.Run(ctx)
		if err != nil {
			return err
		}

		val := objective(result.Metrics)
		if val < *best {
			*best = val
			*bestParams = make(map[string]float64, len(current))
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, base, objective, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}

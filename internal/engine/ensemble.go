package engine

import (
	"context"
	"fmt"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/pmacsim/internal/config"
)

// Ensemble runs one configuration under consecutive seeds. Each run owns its
// engine, so runs proceed in parallel without shared state.
type Ensemble struct {
	cfg       *config.Config
	numRuns   int
	seedStart int64
	metrics   func() []Metric
}

// NewEnsemble prepares numRuns runs seeded seedStart, seedStart+1, ...
// metrics, if non-nil, supplies fresh accumulators for each run.
func NewEnsemble(cfg *config.Config, numRuns int, seedStart int64, metrics func() []Metric) *Ensemble {
	return &Ensemble{cfg: cfg.Clone(), numRuns: numRuns, seedStart: seedStart, metrics: metrics}
}

func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	if e.numRuns < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrNoRuns, e.numRuns)
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfgCopy := e.cfg.Clone()
			cfgCopy.Seed = e.seedStart + int64(idx)

			eng, err := New(cfgCopy)
			if err != nil {
				errs[idx] = err
				return
			}
			if e.metrics != nil {
				for _, m := range e.metrics() {
					eng.AddMetric(m)
				}
			}
			results[idx], errs[idx] = eng.Run(ctx)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// Summary aggregates headline metrics across ensemble members.
type Summary struct {
	Runs                int
	ReductionMean       float64
	ReductionStdDev     float64
	GuidanceClearMean   float64
	GuidanceClearStdDev float64
	CommandEffortMean   float64
	MinGuidanceClear    float64
	MaxGuidanceClear    float64
}

func Summarize(results []*Result) Summary {
	s := Summary{Runs: len(results)}
	if len(results) == 0 {
		return s
	}

	reduction := make([]float64, len(results))
	clearPct := make([]float64, len(results))
	effort := make([]float64, len(results))
	for i, r := range results {
		reduction[i] = r.Metrics.DensityReduction
		clearPct[i] = r.Metrics.GuidanceClear
		effort[i] = r.Metrics.Extra["control_effort"]
	}

	s.ReductionMean, s.ReductionStdDev = stat.MeanStdDev(reduction, nil)
	s.GuidanceClearMean, s.GuidanceClearStdDev = stat.MeanStdDev(clearPct, nil)
	s.CommandEffortMean = stat.Mean(effort, nil)
	s.MinGuidanceClear = floats.Min(clearPct)
	s.MaxGuidanceClear = floats.Max(clearPct)
	if len(results) == 1 {
		s.ReductionStdDev, s.GuidanceClearStdDev = 0, 0
	}
	return s
}

package plasma

import (
	"math"
	"testing"

	"github.com/san-kum/pmacsim/internal/config"
)

func TestDensityReductionClosedForm(t *testing.T) {
	cfg := config.DefaultConfig()
	p := New(cfg)

	prev := 1e16
	got := p.DensityReduction(prev, 2.0)
	expected := prev * math.Exp(-0.023*4*0.18/(4*math.Pi*1e-7))

	if got != expected {
		t.Errorf("DensityReduction = %g, want %g", got, expected)
	}
	if got/prev > 1e-6 {
		t.Errorf("expected near-total reduction, residual fraction %g", got/prev)
	}
}

func TestDensityReductionWeakField(t *testing.T) {
	cfg := config.DefaultConfig()
	p := New(cfg)

	field := 1e-3
	expected := 1e16 * math.Exp(-cfg.AlphaYBCO*field*field*cfg.TWindow/cfg.Mu0)
	got := p.DensityReduction(1e16, field)
	if math.Abs(got-expected)/expected > 1e-12 {
		t.Errorf("DensityReduction = %g, want %g", got, expected)
	}
	if p.DensityReduction(1e16, 0) != 1e16 {
		t.Error("zero field must leave density unchanged")
	}
}

func TestDensityReductionMonotonic(t *testing.T) {
	p := New(config.DefaultConfig())

	prev := p.DensityReduction(1e16, 0)
	for i := 1; i <= 100; i++ {
		field := float64(i) * 1e-5
		next := p.DensityReduction(1e16, field)
		if next > prev {
			t.Fatalf("density increased with field %g: %g > %g", field, next, prev)
		}
		prev = next
	}
}

func TestBlackoutCondition(t *testing.T) {
	p := New(config.DefaultConfig())

	tests := []struct {
		density float64
		want    bool
	}{
		{1e16, true},
		{0.5e16, true},
		{0.32e16, false},
		{0.1e16, false},
		{0, false},
	}
	for _, tt := range tests {
		if got := p.BlackoutCondition(tt.density); got != tt.want {
			t.Errorf("BlackoutCondition(%g) = %v, want %v", tt.density, got, tt.want)
		}
	}
}

func TestReductionPercent(t *testing.T) {
	p := New(config.DefaultConfig())
	if got := p.ReductionPercent(1e16); got != 0 {
		t.Errorf("expected 0%%, got %v", got)
	}
	if got := p.ReductionPercent(0); got != 100 {
		t.Errorf("expected 100%%, got %v", got)
	}
	if got := p.ReductionPercent(0.32e16); math.Abs(got-68) > 1e-9 {
		t.Errorf("expected 68%%, got %v", got)
	}
}

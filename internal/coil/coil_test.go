package coil

import (
	"math"
	"testing"

	"github.com/san-kum/pmacsim/internal/config"
)

func TestRampField(t *testing.T) {
	c := New(config.DefaultConfig())

	tests := []struct {
		t        float64
		expected float64
	}{
		{0, 0},
		{0.013, 1.0},
		{0.026, 2.0},
		{0.1, 2.0},
		{0.18, 2.0},
	}

	for _, tt := range tests {
		if got := c.RampField(tt.t); math.Abs(got-tt.expected) > 1e-12 {
			t.Errorf("RampField(%v) = %v, want %v", tt.t, got, tt.expected)
		}
	}
}

func TestRampFieldMonotonic(t *testing.T) {
	c := New(config.DefaultConfig())
	prev := -1.0
	for i := 0; i <= 400; i++ {
		b := c.RampField(float64(i) * 1e-4)
		if b < prev {
			t.Fatalf("ramp decreased at step %d: %v < %v", i, b, prev)
		}
		prev = b
	}
}

func TestPowerConsumption(t *testing.T) {
	cfg := config.DefaultConfig()
	c := New(cfg)

	if got := c.PowerConsumption(0); got != 0 {
		t.Errorf("expected zero power at t=0, got %v", got)
	}
	if got := c.PowerConsumption(0.013); math.Abs(got-cfg.CoilPower/4) > 1e-6 {
		t.Errorf("expected quarter power at half ramp, got %v", got)
	}
	for _, tt := range []float64{0.026, 0.5, 10} {
		if got := c.PowerConsumption(tt); math.Abs(got-cfg.CoilPower) > 1e-6 {
			t.Errorf("expected rated power at t=%v, got %v", tt, got)
		}
	}
}

func TestCoilCurrent(t *testing.T) {
	cfg := config.DefaultConfig()
	c := New(cfg)

	expected := 2.0 / (cfg.Mu0 * 12) * 1e-3
	if got := c.CoilCurrent(2.0); math.Abs(got-expected) > 1e-9 {
		t.Errorf("CoilCurrent(2) = %v, want %v", got, expected)
	}
	if c.CoilCurrent(0) != 0 {
		t.Error("expected zero current for zero field")
	}
}

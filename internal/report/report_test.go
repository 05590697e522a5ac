package report

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/pmacsim/internal/config"
	"github.com/san-kum/pmacsim/internal/engine"
)

func testResult(t *testing.T) *engine.Result {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.SimTime = 0.4
	cfg.Seed = 3

	eng, err := engine.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	res, err := eng.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestSummaryLine(t *testing.T) {
	m := engine.Metrics{
		DensityReduction: 99.99,
		GuidanceClear:    72.345,
		BlackoutTime:     0.5531,
		PeakPower:        120e3,
		CEP:              0.13,
	}
	want := "nₑ Reduction: 100.0% | Guidance Clear: 72.3% | Blackout: 0.553s | Peak Power: 120 kW | CEP: 0.13 m"
	if got := SummaryLine(m); got != want {
		t.Errorf("SummaryLine() =\n%q\nwant\n%q", got, want)
	}
}

func TestStatus(t *testing.T) {
	res := &engine.Result{Metrics: engine.Metrics{DensityReduction: 70}}
	if got := Status(res, 68); got != "GUIDANCE CLEAR" {
		t.Errorf("expected clear, got %s", got)
	}
	res.Metrics.DensityReduction = 10
	if got := Status(res, 68); got != "BLACKOUT" {
		t.Errorf("expected blackout, got %s", got)
	}
}

func TestBlock(t *testing.T) {
	res := testResult(t)
	res.Metrics.Extra = map[string]float64{"energy_kj": 40, "windows": 3, "control_effort": 0.25}

	out := Block("pmac", res)
	for _, want := range []string{"PMAC", "GUIDANCE CLEAR", "peak power", "120 kW", "energy_kj", "40 kJ", "control_effort", "0.2500"} {
		if !strings.Contains(out, want) {
			t.Errorf("block missing %q:\n%s", want, out)
		}
	}
}

func TestBlockShowsSaturation(t *testing.T) {
	res := testResult(t)
	res.Metrics.Extra = map[string]float64{"command_saturation": 0.125, "blackout_regime": 0.5}

	out := Block("pmac", res)
	for _, want := range []string{"command_saturation", "12.5%", "blackout_regime", "50.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("block missing %q:\n%s", want, out)
		}
	}
}

func TestPanels(t *testing.T) {
	res := testResult(t)
	panels := Panels(res)
	if len(panels) != 6 {
		t.Fatalf("expected 6 panels, got %d", len(panels))
	}
	for _, p := range panels {
		if len(p.Series) != len(p.Names) {
			t.Errorf("%s: %d series but %d names", p.Title, len(p.Series), len(p.Names))
		}
		for _, s := range p.Series {
			if len(s) != res.Series.Len() {
				t.Errorf("%s: series length %d, want %d", p.Title, len(s), res.Series.Len())
			}
		}
	}
	if panels[1].Series[0][0] != 1 {
		t.Errorf("normalized density should start at 1, got %v", panels[1].Series[0][0])
	}
}

func TestASCIIPanels(t *testing.T) {
	res := testResult(t)
	out := ASCIIPanels(res, 60, 6)
	for _, caption := range []string{"B-Field", "Plasma", "PMAC Windows", "Guidance", "AI Command", "Power"} {
		if !strings.Contains(out, caption) {
			t.Errorf("ascii output missing caption %q", caption)
		}
	}

	empty := &engine.Result{Config: res.Config, Series: &engine.Series{}}
	if ASCIIPanels(empty, 60, 6) != "" {
		t.Error("expected empty output for empty run")
	}
}

func TestWritePNG(t *testing.T) {
	res := testResult(t)

	var buf bytes.Buffer
	if err := WritePNG(&buf, res, 8, 6); err != nil {
		t.Fatalf("write png: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("output is not a PNG")
	}
}

func TestSavePNG(t *testing.T) {
	res := testResult(t)
	path := filepath.Join(t.TempDir(), "plots", "run.png")

	if err := SavePNG(path, res, 8, 6); err != nil {
		t.Fatalf("save png: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("empty png file")
	}
}

func TestFigureEmptyRun(t *testing.T) {
	res := &engine.Result{Config: config.DefaultConfig(), Series: &engine.Series{}}
	if _, err := Figure(res); !errors.Is(err, ErrNoSamples) {
		t.Errorf("expected ErrNoSamples, got %v", err)
	}
}

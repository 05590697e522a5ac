package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/pmacsim/internal/config"
	"github.com/san-kum/pmacsim/internal/engine"
	"github.com/san-kum/pmacsim/internal/storage"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	logrus.SetLevel(logrus.WarnLevel)
	return out.String(), err
}

func TestRunSavesAndLists(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "run", "--data", dir, "--time", "0.1", "--seed", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "run id: pmac_")
	assert.Contains(t, out, "nₑ Reduction: 100.0%")
	assert.Contains(t, out, "GUIDANCE CLEAR")
	assert.Contains(t, out, "peak coil current: 132.6 kA")

	runs, err := storage.New(dir).List()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, int64(5), runs[0].Seed)
	assert.Equal(t, 1000, runs[0].Steps)

	out, err = execute(t, "list", "--data", dir)
	require.NoError(t, err)
	assert.Contains(t, out, runs[0].ID)

	out, err = execute(t, "export-csv", "--data", dir, runs[0].ID)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "t,B_field,n_e,guidance_clear,blackout,ai_command,power", lines[0])
	assert.Len(t, lines, 1001)

	out, err = execute(t, "show", "--data", dir, runs[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Guidance Clear")
}

func TestRunWithoutSave(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "run", "--data", dir, "--time", "0.05", "--save=false", "--cycle-phase", "ramp")
	require.NoError(t, err)
	assert.NotContains(t, out, "run id:")

	runs, err := storage.New(dir).List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRunRejectsInvalidFlags(t *testing.T) {
	_, err := execute(t, "run", "--data", t.TempDir(), "--dt", "0", "--save=false")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = execute(t, "run", "--preset", "nope", "--save=false")
	assert.ErrorContains(t, err, "unknown preset")

	_, err = execute(t, "list", "--log", "loud")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestConfigFileLayering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pmac.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sim_time: 0.2\nseed: 11\ncycle_phase: ramp\n"), 0644))

	root := newRootCmd()
	runCmd, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	require.NoError(t, runCmd.ParseFlags([]string{"--config", path, "--time", "0.3"}))

	cfg, err := buildConfig(runCmd)
	require.NoError(t, err)
	assert.Equal(t, 0.3, cfg.SimTime)
	assert.Equal(t, int64(11), cfg.Seed)
	assert.Equal(t, config.CycleRamp, cfg.CyclePhase)
	assert.Equal(t, config.DefaultDt, cfg.Dt)
}

func TestSweep(t *testing.T) {
	out, err := execute(t, "sweep", "--time", "0.05", "--runs", "3", "--seed-start", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "3 runs in")
	assert.Contains(t, out, "guidance clear:")
	for _, s := range []string{"10", "11", "12"} {
		assert.Contains(t, out, s)
	}

	_, err = execute(t, "sweep", "--time", "0.05", "--runs", "0")
	assert.ErrorIs(t, err, engine.ErrNoRuns)
}

func TestPresetsAndConfigCommands(t *testing.T) {
	out, err := execute(t, "presets")
	require.NoError(t, err)
	for _, name := range config.ListPresets() {
		assert.Contains(t, out, name)
	}

	out, err = execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "guidance_threshold: 68")
	assert.Contains(t, out, "command_policy: latched-zero")
}

func TestReplayRejectsUnknownTheme(t *testing.T) {
	_, err := execute(t, "replay", "--data", t.TempDir(), "--theme", "neon", "pmac_0_missing")
	assert.ErrorContains(t, err, "unknown theme: neon")
}

func TestShowMissingRun(t *testing.T) {
	_, err := execute(t, "show", "--data", t.TempDir(), "pmac_0_missing")
	assert.ErrorIs(t, err, storage.ErrRunNotFound)
}

func TestTune(t *testing.T) {
	out, err := execute(t, "tune", "--time", "0.1", "--seed", "2",
		"--param", "coil_power=150e3,90e3", "--objective", "power")
	require.NoError(t, err)
	assert.Contains(t, out, "coil_power: 90000")

	_, err = execute(t, "tune", "--time", "0.1", "--param", "coil_power")
	assert.ErrorContains(t, err, "want name=v1,v2")

	_, err = execute(t, "tune", "--time", "0.1")
	assert.ErrorContains(t, err, "--param is required")
}

func TestFigureOnlyWhenRequested(t *testing.T) {
	cwd := t.TempDir()
	t.Chdir(cwd)
	dir := filepath.Join(cwd, "data")

	out, err := execute(t, "run", "--data", dir, "--time", "0.05", "--seed", "4")
	require.NoError(t, err)
	assert.NotContains(t, out, "figure:")
	entries, err := os.ReadDir(cwd)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, ".png", filepath.Ext(e.Name()), "unexpected figure %s", e.Name())
	}

	runs, err := storage.New(dir).List()
	require.NoError(t, err)
	require.Len(t, runs, 1)

	fig := filepath.Join(cwd, "replot.png")
	out, err = execute(t, "png", "--data", dir, "-o", fig, runs[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "figure: "+fig)
	_, err = os.Stat(fig)
	assert.NoError(t, err)

	fig = filepath.Join(cwd, "inline.png")
	out, err = execute(t, "run", "--data", dir, "--time", "0.05", "--save=false", "--png", fig)
	require.NoError(t, err)
	assert.Contains(t, out, "figure: "+fig)
	_, err = os.Stat(fig)
	assert.NoError(t, err)
}

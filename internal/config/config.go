package config

import (
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMu0               = 4 * math.Pi * 1e-7
	DefaultAlphaYBCO         = 0.023
	DefaultBMax              = 2.0
	DefaultTWindow           = 0.180
	DefaultNE0               = 1e16
	DefaultMach              = 6.1
	DefaultCEPTarget         = 0.13
	DefaultCoilRampTime      = 0.026
	DefaultCoilPower         = 120e3
	DefaultCoilMass          = 21.1
	DefaultCoilTurns         = 12
	DefaultNumCoils          = 6
	DefaultSensorFreq        = 64e9
	DefaultControlLoop       = 0.019
	DefaultSimTime           = 2.0
	DefaultDt                = 1e-4
	DefaultGuidanceThreshold = 68.0
	DefaultBlackoutThreshold = 0.32
	DefaultGain              = 1.2
	DefaultSensors           = 64
	DefaultBaselineSpread    = 0.05
	DefaultNoiseSpread       = 0.02
)

// Sensor sampling policies.
const (
	SensorModulated = "modulated"
	SensorRedraw    = "redraw"
)

// Command series policies between controller invocations.
const (
	CommandLatchedZero  = "latched-zero"
	CommandCarryForward = "carry-forward"
)

// Field evaluation inside a drive-cycle window.
const (
	CycleHold = "hold"
	CycleRamp = "ramp"
)

type Config struct {
	Mu0               float64          `yaml:"mu0"`
	AlphaYBCO         float64          `yaml:"alpha_ybco"`
	BMax              float64          `yaml:"b_max"`
	TWindow           float64          `yaml:"t_window"`
	NE0               float64          `yaml:"n_e0"`
	Mach              float64          `yaml:"mach"`
	CEPTarget         float64          `yaml:"cep_target"`
	CoilRampTime      float64          `yaml:"coil_ramp_time"`
	CoilPower         float64          `yaml:"coil_power"`
	CoilMass          float64          `yaml:"coil_mass"`
	CoilTurns         int              `yaml:"coil_turns"`
	NumCoils          int              `yaml:"num_coils"`
	SensorFreq        float64          `yaml:"sensor_freq"`
	ControlLoop       float64          `yaml:"control_loop"`
	SimTime           float64          `yaml:"sim_time"`
	Dt                float64          `yaml:"dt"`
	GuidanceThreshold float64          `yaml:"guidance_threshold"`
	BlackoutThreshold float64          `yaml:"blackout_threshold"`
	Seed              int64            `yaml:"seed"`
	CyclePhase        string           `yaml:"cycle_phase"`
	Controller        ControllerConfig `yaml:"controller"`
}

type ControllerConfig struct {
	Gain           float64 `yaml:"gain"`
	Sensors        int     `yaml:"sensors"`
	BaselineSpread float64 `yaml:"baseline_spread"`
	NoiseSpread    float64 `yaml:"noise_spread"`
	SensorPolicy   string  `yaml:"sensor_policy"`
	CommandPolicy  string  `yaml:"command_policy"`
}

func DefaultConfig() *Config {
	return &Config{
		Mu0:               DefaultMu0,
		AlphaYBCO:         DefaultAlphaYBCO,
		BMax:              DefaultBMax,
		TWindow:           DefaultTWindow,
		NE0:               DefaultNE0,
		Mach:              DefaultMach,
		CEPTarget:         DefaultCEPTarget,
		CoilRampTime:      DefaultCoilRampTime,
		CoilPower:         DefaultCoilPower,
		CoilMass:          DefaultCoilMass,
		CoilTurns:         DefaultCoilTurns,
		NumCoils:          DefaultNumCoils,
		SensorFreq:        DefaultSensorFreq,
		ControlLoop:       DefaultControlLoop,
		SimTime:           DefaultSimTime,
		Dt:                DefaultDt,
		GuidanceThreshold: DefaultGuidanceThreshold,
		BlackoutThreshold: DefaultBlackoutThreshold,
		CyclePhase:        CycleHold,
		Controller: ControllerConfig{
			Gain:           DefaultGain,
			Sensors:        DefaultSensors,
			BaselineSpread: DefaultBaselineSpread,
			NoiseSpread:    DefaultNoiseSpread,
			SensorPolicy:   SensorModulated,
			CommandPolicy:  CommandLatchedZero,
		},
	}
}

// Load reads a YAML file on top of the defaults, so partial files are valid.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns an independent copy. Config has no reference fields.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// ControlStride is the number of grid steps between controller invocations.
func (c *Config) ControlStride() int {
	stride := int(math.Round(c.ControlLoop / c.Dt))
	if stride < 1 {
		return 1
	}
	return stride
}

// Validate checks every invariant the engine relies on.
func (c *Config) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"mu0", c.Mu0},
		{"alpha_ybco", c.AlphaYBCO},
		{"b_max", c.BMax},
		{"t_window", c.TWindow},
		{"n_e0", c.NE0},
		{"mach", c.Mach},
		{"cep_target", c.CEPTarget},
		{"coil_ramp_time", c.CoilRampTime},
		{"coil_power", c.CoilPower},
		{"coil_mass", c.CoilMass},
		{"coil_turns", float64(c.CoilTurns)},
		{"num_coils", float64(c.NumCoils)},
		{"sensor_freq", c.SensorFreq},
		{"control_loop", c.ControlLoop},
		{"sim_time", c.SimTime},
		{"dt", c.Dt},
		{"controller.gain", c.Controller.Gain},
		{"controller.sensors", float64(c.Controller.Sensors)},
		{"controller.baseline_spread", c.Controller.BaselineSpread},
		{"controller.noise_spread", c.Controller.NoiseSpread},
	}
	for _, p := range positive {
		if math.IsNaN(p.value) || math.IsInf(p.value, 0) || p.value <= 0 {
			return newConfigError(p.name, p.value, "must be positive and finite")
		}
	}

	if c.Dt >= c.TWindow {
		return newConfigError("dt", c.Dt, "must be smaller than t_window")
	}
	if c.Dt >= c.ControlLoop {
		return newConfigError("dt", c.Dt, "must be smaller than control_loop")
	}
	if c.GuidanceThreshold <= 0 || c.GuidanceThreshold > 100 {
		return newConfigError("guidance_threshold", c.GuidanceThreshold, "must be in (0, 100]")
	}
	if c.BlackoutThreshold <= 0 || c.BlackoutThreshold >= 1 {
		return newConfigError("blackout_threshold", c.BlackoutThreshold, "must be in (0, 1)")
	}

	switch c.CyclePhase {
	case CycleHold, CycleRamp:
	default:
		return newConfigError("cycle_phase", c.CyclePhase, "unknown cycle phase")
	}
	switch c.Controller.SensorPolicy {
	case SensorModulated, SensorRedraw:
	default:
		return newConfigError("controller.sensor_policy", c.Controller.SensorPolicy, "unknown sensor policy")
	}
	switch c.Controller.CommandPolicy {
	case CommandLatchedZero, CommandCarryForward:
	default:
		return newConfigError("controller.command_policy", c.Controller.CommandPolicy, "unknown command policy")
	}
	return nil
}

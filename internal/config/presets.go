package config

import "sort"

var Presets = map[string]func(*Config){
	"baseline": func(c *Config) {},
	"short": func(c *Config) {
		c.SimTime = 0.5
	},
	"long": func(c *Config) {
		c.SimTime = 10.0
	},
	"fine": func(c *Config) {
		c.Dt = 1e-5
		c.SimTime = 0.5
	},
	"ramp": func(c *Config) {
		c.CyclePhase = CycleRamp
	},
	"carry": func(c *Config) {
		c.Controller.CommandPolicy = CommandCarryForward
	},
	"redraw": func(c *Config) {
		c.Controller.SensorPolicy = SensorRedraw
	},
}

// GetPreset returns the default configuration with the named preset applied,
// or nil if no such preset exists.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

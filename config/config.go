// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Sim       SimConfig       `yaml:"sim"`
	Cone      ConeConfig      `yaml:"cone"`
	Movement  MovementConfig  `yaml:"movement"`
	Wander    WanderConfig    `yaml:"wander"`
	School    SchoolConfig    `yaml:"school"`
	Arena     ArenaConfig     `yaml:"arena"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimConfig holds the tick clock and population size.
type SimConfig struct {
	DT       float64 `yaml:"dt"`        // Seconds per tick
	Agents   int     `yaml:"agents"`    // Number of agents spawned at start
	MaxTicks int     `yaml:"max_ticks"` // 0 = unlimited
	Workers  int     `yaml:"workers"`   // 0 = GOMAXPROCS
}

// ConeConfig holds the collision cone parameters.
type ConeConfig struct {
	SampleCount  int     `yaml:"sample_count"`  // Probes in the cone, at least 2
	TurnFraction float64 `yaml:"turn_fraction"` // Azimuthal step (golden ratio)
	TraceLength  float64 `yaml:"trace_length"`  // Probe reach
}

// MovementConfig holds speed and acceleration bounds.
type MovementConfig struct {
	MinSpeed         float64 `yaml:"min_speed"`
	MaxSpeed         float64 `yaml:"max_speed"`
	DefaultSpeed     float64 `yaml:"default_speed"`
	MaxAcceleration  float64 `yaml:"max_acceleration"`
	AccelerationStep float64 `yaml:"acceleration_step"`
	PitchStep        float64 `yaml:"pitch_step"` // Max wander pitch rate (deg/s)
	YawStep          float64 `yaml:"yaw_step"`   // Max wander yaw rate (deg/s)
}

// WanderConfig holds the idle-wander timer settings.
type WanderConfig struct {
	Direction            bool    `yaml:"direction"`              // Start direction wander on spawn
	Acceleration         bool    `yaml:"acceleration"`           // Start acceleration wander on spawn (dormant by default)
	DirectionDelayMin    float64 `yaml:"direction_delay_min"`    // Seconds
	DirectionDelayMax    float64 `yaml:"direction_delay_max"`    // Seconds
	AccelerationDelayMin float64 `yaml:"acceleration_delay_min"` // Seconds
	AccelerationDelayMax float64 `yaml:"acceleration_delay_max"` // Seconds
	ZeroChanceOutOf      int     `yaml:"zero_chance_out_of"`     // Pitch/yaw reset to 0 with chance 1/N
}

// SchoolConfig holds agent spawning parameters.
type SchoolConfig struct {
	GroupName   string  `yaml:"group_name"`
	SpawnRadius float64 `yaml:"spawn_radius"` // Agents spawn inside this sphere around the arena centre
	BodyRadius  float64 `yaml:"body_radius"`  // Agents are obstacles of this radius to each other
}

// ArenaConfig holds the tank geometry and reef generation parameters.
type ArenaConfig struct {
	Width         float64         `yaml:"width"`
	Depth         float64         `yaml:"depth"`
	Height        float64         `yaml:"height"`
	WallThickness float64         `yaml:"wall_thickness"`
	Reef          ReefConfig      `yaml:"reef"`
	Triggers      []TriggerConfig `yaml:"triggers"`
}

// ReefConfig holds procedural obstacle placement parameters.
type ReefConfig struct {
	Spacing     float64 `yaml:"spacing"`      // Lattice spacing for noise samples
	NoiseScale  float64 `yaml:"noise_scale"`  // Noise frequency per world unit
	Threshold   float64 `yaml:"threshold"`    // Place rock where normalized noise exceeds this
	MinRadius   float64 `yaml:"min_radius"`
	MaxRadius   float64 `yaml:"max_radius"`
	ClearRadius float64 `yaml:"clear_radius"` // Keep a bubble of open water around the centre
}

// TriggerConfig describes a non-blocking volume (e.g. a feeding zone).
type TriggerConfig struct {
	Name   string     `yaml:"name"`
	Center [3]float64 `yaml:"center"`
	Radius float64    `yaml:"radius"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	TicksPerWindow int        // Telemetry.StatsWindow / Sim.DT
	ArenaCenter    [3]float64 // Centre of the tank
	Corrections    []string   // Values clipped during validation
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Defaults returns a fresh copy of the embedded defaults.
func Defaults() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.validate()
	cfg.computeDerived()

	return cfg, nil
}

// validate clips values that would break the simulation. Each correction is
// recorded in Derived.Corrections so callers can log them.
func (c *Config) validate() {
	c.Derived.Corrections = c.Derived.Corrections[:0]
	note := func(format string, args ...any) {
		c.Derived.Corrections = append(c.Derived.Corrections, fmt.Sprintf(format, args...))
	}

	if c.Sim.DT <= 0 {
		note("sim.dt %g <= 0, using 1/60", c.Sim.DT)
		c.Sim.DT = 1.0 / 60.0
	}
	if c.Sim.Agents < 0 {
		note("sim.agents %d < 0, using 0", c.Sim.Agents)
		c.Sim.Agents = 0
	}
	if c.Cone.SampleCount < 2 {
		note("cone.sample_count %d < 2, using 2", c.Cone.SampleCount)
		c.Cone.SampleCount = 2
	}
	if c.Cone.TraceLength <= 0 {
		note("cone.trace_length %g <= 0, using 500", c.Cone.TraceLength)
		c.Cone.TraceLength = 500
	}
	if c.Movement.MinSpeed > c.Movement.MaxSpeed {
		note("movement.min_speed %g > max_speed %g, swapping", c.Movement.MinSpeed, c.Movement.MaxSpeed)
		c.Movement.MinSpeed, c.Movement.MaxSpeed = c.Movement.MaxSpeed, c.Movement.MinSpeed
	}
	if c.Wander.DirectionDelayMin > c.Wander.DirectionDelayMax {
		note("wander.direction_delay_min > max, swapping")
		c.Wander.DirectionDelayMin, c.Wander.DirectionDelayMax = c.Wander.DirectionDelayMax, c.Wander.DirectionDelayMin
	}
	if c.Wander.AccelerationDelayMin > c.Wander.AccelerationDelayMax {
		note("wander.acceleration_delay_min > max, swapping")
		c.Wander.AccelerationDelayMin, c.Wander.AccelerationDelayMax = c.Wander.AccelerationDelayMax, c.Wander.AccelerationDelayMin
	}
	if c.Wander.ZeroChanceOutOf < 1 {
		note("wander.zero_chance_out_of %d < 1, using 1", c.Wander.ZeroChanceOutOf)
		c.Wander.ZeroChanceOutOf = 1
	}
	if c.Arena.Reef.MinRadius > c.Arena.Reef.MaxRadius {
		c.Arena.Reef.MinRadius, c.Arena.Reef.MaxRadius = c.Arena.Reef.MaxRadius, c.Arena.Reef.MinRadius
	}
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	ticks := int(math.Round(c.Telemetry.StatsWindow / c.Sim.DT))
	if ticks < 1 {
		ticks = 1
	}
	c.Derived.TicksPerWindow = ticks
	c.Derived.ArenaCenter = [3]float64{c.Arena.Width / 2, c.Arena.Depth / 2, c.Arena.Height / 2}

	if c.School.GroupName == "" {
		c.School.GroupName = "Default"
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

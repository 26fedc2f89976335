package steering

import (
	"fmt"
	"math"

	"github.com/pthm-cable/schooling/config"
)

const (
	// MinSampleCount is the smallest cone that still yields distinct directions.
	MinSampleCount = 2
	// MinWanderDelay keeps self-rescheduling wander events from firing in a
	// tight loop within one clock advance.
	MinWanderDelay = 0.01
)

// Params is the per-agent configuration surface. It may be replaced at runtime
// through Agent.SetParams.
type Params struct {
	// Collision cone
	SampleCount  int
	TurnFraction float64
	TraceLength  float64

	// Movement
	MinSpeed         float64
	MaxSpeed         float64
	DefaultSpeed     float64
	MaxAcceleration  float64
	AccelerationStep float64
	PitchStep        float64
	YawStep          float64

	// Wander timing
	DirectionWander      bool
	AccelerationWander   bool
	DirectionDelayMin    float64
	DirectionDelayMax    float64
	AccelerationDelayMin float64
	AccelerationDelayMax float64
	ZeroChanceOutOf      int

	// GroupName tags the agent for external grouping only.
	GroupName string
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	return Params{
		SampleCount:          12,
		TurnFraction:         1.6180339,
		TraceLength:          500,
		MinSpeed:             30,
		MaxSpeed:             1000,
		DefaultSpeed:         400,
		MaxAcceleration:      100,
		AccelerationStep:     20,
		PitchStep:            30,
		YawStep:              60,
		DirectionWander:      true,
		AccelerationWander:   false,
		DirectionDelayMin:    0.2,
		DirectionDelayMax:    0.6,
		AccelerationDelayMin: 0.3,
		AccelerationDelayMax: 1.0,
		ZeroChanceOutOf:      3,
		GroupName:            "Default",
	}
}

// ParamsFromConfig builds Params from the loaded configuration.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		SampleCount:          cfg.Cone.SampleCount,
		TurnFraction:         cfg.Cone.TurnFraction,
		TraceLength:          cfg.Cone.TraceLength,
		MinSpeed:             cfg.Movement.MinSpeed,
		MaxSpeed:             cfg.Movement.MaxSpeed,
		DefaultSpeed:         cfg.Movement.DefaultSpeed,
		MaxAcceleration:      cfg.Movement.MaxAcceleration,
		AccelerationStep:     cfg.Movement.AccelerationStep,
		PitchStep:            cfg.Movement.PitchStep,
		YawStep:              cfg.Movement.YawStep,
		DirectionWander:      cfg.Wander.Direction,
		AccelerationWander:   cfg.Wander.Acceleration,
		DirectionDelayMin:    cfg.Wander.DirectionDelayMin,
		DirectionDelayMax:    cfg.Wander.DirectionDelayMax,
		AccelerationDelayMin: cfg.Wander.AccelerationDelayMin,
		AccelerationDelayMax: cfg.Wander.AccelerationDelayMax,
		ZeroChanceOutOf:      cfg.Wander.ZeroChanceOutOf,
		GroupName:            cfg.School.GroupName,
	}
}

// Validate clips out-of-range values in place and returns a description of
// every correction made. It never fails.
func (p *Params) Validate() []string {
	var fixes []string
	note := func(format string, args ...any) {
		fixes = append(fixes, fmt.Sprintf(format, args...))
	}

	if p.SampleCount < MinSampleCount {
		note("sample count %d below %d", p.SampleCount, MinSampleCount)
		p.SampleCount = MinSampleCount
	}
	if p.TraceLength < 0 {
		note("negative trace length %g", p.TraceLength)
		p.TraceLength = -p.TraceLength
	}
	if p.MinSpeed > p.MaxSpeed {
		note("min speed %g above max speed %g", p.MinSpeed, p.MaxSpeed)
		p.MinSpeed, p.MaxSpeed = p.MaxSpeed, p.MinSpeed
	}
	if p.DefaultSpeed < p.MinSpeed || p.DefaultSpeed > p.MaxSpeed {
		note("default speed %g outside [%g, %g]", p.DefaultSpeed, p.MinSpeed, p.MaxSpeed)
		p.DefaultSpeed = clampFloat(p.DefaultSpeed, p.MinSpeed, p.MaxSpeed)
	}
	if p.MaxAcceleration < 0 {
		note("negative max acceleration %g", p.MaxAcceleration)
		p.MaxAcceleration = -p.MaxAcceleration
	}
	if p.AccelerationStep < 0 {
		note("negative acceleration step %g", p.AccelerationStep)
		p.AccelerationStep = -p.AccelerationStep
	}
	if p.PitchStep < 0 {
		note("negative pitch step %g", p.PitchStep)
		p.PitchStep = -p.PitchStep
	}
	if p.YawStep < 0 {
		note("negative yaw step %g", p.YawStep)
		p.YawStep = -p.YawStep
	}
	if p.DirectionDelayMin > p.DirectionDelayMax {
		note("direction delay bounds inverted")
		p.DirectionDelayMin, p.DirectionDelayMax = p.DirectionDelayMax, p.DirectionDelayMin
	}
	if p.AccelerationDelayMin > p.AccelerationDelayMax {
		note("acceleration delay bounds inverted")
		p.AccelerationDelayMin, p.AccelerationDelayMax = p.AccelerationDelayMax, p.AccelerationDelayMin
	}
	if p.DirectionDelayMin < MinWanderDelay {
		note("direction delay %g below %g", p.DirectionDelayMin, MinWanderDelay)
		p.DirectionDelayMin = MinWanderDelay
		p.DirectionDelayMax = math.Max(p.DirectionDelayMax, MinWanderDelay)
	}
	if p.AccelerationDelayMin < MinWanderDelay {
		note("acceleration delay %g below %g", p.AccelerationDelayMin, MinWanderDelay)
		p.AccelerationDelayMin = MinWanderDelay
		p.AccelerationDelayMax = math.Max(p.AccelerationDelayMax, MinWanderDelay)
	}
	if p.ZeroChanceOutOf < 1 {
		note("zero chance %d below 1", p.ZeroChanceOutOf)
		p.ZeroChanceOutOf = 1
	}
	return fixes
}

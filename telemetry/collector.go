package telemetry

import "math"

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	avoids        int
	clears        int
	noDirection   int
	queryFailures int
	wanderEvents  int
	collisions    int
	triggerEnters int
	escapes       int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	// Rounded so a dt like 0.016666667 still gives whole windows.
	ticksPerWindow := int32(math.Round(windowDurationSec / dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// Record folds an event into the current window.
func (c *Collector) Record(ev Event) {
	n := ev.Count
	if n <= 0 {
		n = 1
	}
	switch ev.Type {
	case EventAvoid:
		c.avoids += n
	case EventClear:
		c.clears += n
	case EventNoDirection:
		c.noDirection += n
	case EventQueryFailure:
		c.queryFailures += n
	case EventWander:
		c.wanderEvents += n
	case EventCollision:
		c.collisions += n
	case EventTriggerEnter:
		c.triggerEnters += n
	case EventEscape:
		c.escapes += n
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Sample is the school state observed at flush time.
type Sample struct {
	Agents    int
	Avoiding  int       // agents currently steering around something
	Speeds    []float64 // one per agent
	TurnRates []float64 // |(pitch, yaw)| per agent, deg/s
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, sample Sample) WindowStats {
	elapsed := float64(currentTick-c.windowStartTick) * c.dt

	var avoidRate, collisionRate, failureRate float64
	if agentSec := elapsed * float64(sample.Agents); agentSec > 0 {
		avoidRate = float64(c.avoids) / agentSec
		collisionRate = float64(c.collisions) / agentSec
	}
	if decisions := c.avoids + c.clears + c.noDirection; decisions > 0 {
		failureRate = float64(c.noDirection) / float64(decisions)
	}

	speed := Summarize(sample.Speeds)
	turn := Summarize(sample.TurnRates)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Agents:   sample.Agents,
		Avoiding: sample.Avoiding,

		Avoids:        c.avoids,
		Clears:        c.clears,
		NoDirection:   c.noDirection,
		QueryFailures: c.queryFailures,
		WanderEvents:  c.wanderEvents,

		Collisions:    c.collisions,
		TriggerEnters: c.triggerEnters,
		Escapes:       c.escapes,

		AvoidRate:     avoidRate,
		CollisionRate: collisionRate,
		FailureRate:   failureRate,

		SpeedMean: speed.Mean,
		SpeedStd:  speed.Std,
		SpeedP10:  speed.P10,
		SpeedP50:  speed.P50,
		SpeedP90:  speed.P90,

		TurnMean: turn.Mean,
		TurnP90:  turn.P90,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.avoids = 0
	c.clears = 0
	c.noDirection = 0
	c.queryFailures = 0
	c.wanderEvents = 0
	c.collisions = 0
	c.triggerEnters = 0
	c.escapes = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}

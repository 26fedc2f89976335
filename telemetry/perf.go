package telemetry

import (
	"log/slog"
	"time"
)

// Phase is one stage of a school step.
type Phase int

// Step phases in execution order.
const (
	PhaseBodies Phase = iota
	PhaseSteering
	PhaseApply
	PhaseContacts
	PhaseTelemetry

	numPhases
)

var phaseNames = [numPhases]string{"bodies", "steering", "apply", "contacts", "telemetry"}

func (p Phase) String() string {
	if p < 0 || p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// perfSample holds timing for one tick.
type perfSample struct {
	tick   time.Duration
	phases [numPhases]time.Duration
	agents int
}

// PerfCollector times step phases over a rolling window of ticks.
type PerfCollector struct {
	samples     []perfSample
	writeIndex  int
	sampleCount int

	current    perfSample
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{samples: make([]perfSample, windowSize)}
}

// StartTick begins timing a new tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.current = perfSample{}
	p.inPhase = false
}

// StartPhase ends the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = phase
	p.inPhase = true
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase {
		p.current.phases[p.phase] += now.Sub(p.phaseStart)
	}
}

// EndTick records the tick. agents is the school size this tick, used for the
// per-agent steering cost.
func (p *PerfCollector) EndTick(agents int) {
	now := time.Now()
	p.closePhase(now)
	p.inPhase = false

	p.current.tick = now.Sub(p.tickStart)
	p.current.agents = agents

	p.samples[p.writeIndex] = p.current
	p.writeIndex = (p.writeIndex + 1) % len(p.samples)
	if p.sampleCount < len(p.samples) {
		p.sampleCount++
	}
}

// PerfStats aggregates the window.
type PerfStats struct {
	AvgTick time.Duration
	MinTick time.Duration
	MaxTick time.Duration

	PhaseAvg [numPhases]time.Duration
	PhasePct [numPhases]float64 // share of the average tick, 0-100

	// SteeringPerAgent is the average steering phase divided by school size.
	SteeringPerAgent time.Duration

	TicksPerSecond float64
	Samples        int
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	out := PerfStats{Samples: p.sampleCount}
	if p.sampleCount == 0 {
		return out
	}

	var total time.Duration
	var phaseSum [numPhases]time.Duration
	agentSum := 0
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.tick
		if i == 0 || s.tick < out.MinTick {
			out.MinTick = s.tick
		}
		if s.tick > out.MaxTick {
			out.MaxTick = s.tick
		}
		for ph, d := range s.phases {
			phaseSum[ph] += d
		}
		agentSum += s.agents
	}

	n := time.Duration(p.sampleCount)
	out.AvgTick = total / n
	for ph := range phaseSum {
		out.PhaseAvg[ph] = phaseSum[ph] / n
		if out.AvgTick > 0 {
			out.PhasePct[ph] = float64(out.PhaseAvg[ph]) / float64(out.AvgTick) * 100
		}
	}
	if agentSum > 0 {
		out.SteeringPerAgent = phaseSum[PhaseSteering] / time.Duration(agentSum)
	}
	if out.AvgTick > 0 {
		out.TicksPerSecond = float64(time.Second) / float64(out.AvgTick)
	}
	return out
}

// LogStats logs the window at info level. Phases under 0.1% are omitted.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTick.Microseconds(),
		"max_tick_us", s.MaxTick.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
		"steering_ns_per_agent", s.SteeringPerAgent.Nanoseconds(),
	}
	for ph := Phase(0); ph < numPhases; ph++ {
		if pct := s.PhasePct[ph]; pct > 0.1 {
			attrs = append(attrs, ph.String()+"_pct", int(pct*10)/10.0)
		}
	}
	slog.Info("perf", attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	RunID              string  `csv:"run_id"`
	WindowEnd          int32   `csv:"window_end"`
	AvgTickUS          int64   `csv:"avg_tick_us"`
	MinTickUS          int64   `csv:"min_tick_us"`
	MaxTickUS          int64   `csv:"max_tick_us"`
	TicksPerSec        float64 `csv:"ticks_per_sec"`
	SteeringNSPerAgent int64   `csv:"steering_ns_per_agent"`
	BodiesPct          float64 `csv:"bodies_pct"`
	SteeringPct        float64 `csv:"steering_pct"`
	ApplyPct           float64 `csv:"apply_pct"`
	ContactsPct        float64 `csv:"contacts_pct"`
	TelemetryPct       float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:          windowEnd,
		AvgTickUS:          s.AvgTick.Microseconds(),
		MinTickUS:          s.MinTick.Microseconds(),
		MaxTickUS:          s.MaxTick.Microseconds(),
		TicksPerSec:        s.TicksPerSecond,
		SteeringNSPerAgent: s.SteeringPerAgent.Nanoseconds(),
		BodiesPct:          s.PhasePct[PhaseBodies],
		SteeringPct:        s.PhasePct[PhaseSteering],
		ApplyPct:           s.PhasePct[PhaseApply],
		ContactsPct:        s.PhasePct[PhaseContacts],
		TelemetryPct:       s.PhasePct[PhaseTelemetry],
	}
}

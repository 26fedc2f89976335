package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseBodies)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseSteering)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick(4)
	}

	stats := pc.Stats()

	if stats.AvgTick <= 0 {
		t.Error("expected positive average tick duration")
	}
	if stats.PhaseAvg[PhaseBodies] <= 0 {
		t.Error("expected bodies phase to be tracked")
	}
	if stats.PhaseAvg[PhaseSteering] <= 0 {
		t.Error("expected steering phase to be tracked")
	}
	if stats.PhaseAvg[PhaseApply] != 0 {
		t.Error("expected untouched phase to stay zero")
	}
	if want := stats.PhaseAvg[PhaseSteering] / 4; stats.SteeringPerAgent != want {
		t.Errorf("steering per agent = %v, want %v", stats.SteeringPerAgent, want)
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseApply)
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase(PhaseSteering)
		time.Sleep(500 * time.Microsecond)
		pc.EndTick(1)
	}

	stats := pc.Stats()
	if stats.PhasePct[PhaseSteering] <= stats.PhasePct[PhaseApply] {
		t.Errorf("expected steering (%v%%) > apply (%v%%)",
			stats.PhasePct[PhaseSteering], stats.PhasePct[PhaseApply])
	}
	if stats.PhasePct[PhaseSteering] > 100 {
		t.Errorf("phase share above 100%%: %v", stats.PhasePct[PhaseSteering])
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	stats := NewPerfCollector(10).Stats()
	if stats.AvgTick != 0 || stats.Samples != 0 || stats.SteeringPerAgent != 0 {
		t.Errorf("expected zero stats for empty collector, got %+v", stats)
	}
}

func TestPerfCollector_NoAgents(t *testing.T) {
	pc := NewPerfCollector(3)
	pc.StartTick()
	pc.StartPhase(PhaseSteering)
	pc.EndTick(0)

	if got := pc.Stats().SteeringPerAgent; got != 0 {
		t.Errorf("expected zero per-agent cost with no agents, got %v", got)
	}
}

func TestPerfCollector_SampleCountCapped(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 3; i++ {
		pc.StartTick()
		pc.EndTick(1)
	}
	if got := pc.Stats().Samples; got != 3 {
		t.Errorf("expected 3 samples, got %d", got)
	}

	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.EndTick(1)
	}
	if got := pc.Stats().Samples; got != 5 {
		t.Errorf("expected samples capped at window size 5, got %d", got)
	}
}

func TestPhaseString(t *testing.T) {
	tests := map[Phase]string{
		PhaseBodies:    "bodies",
		PhaseSteering:  "steering",
		PhaseTelemetry: "telemetry",
		Phase(42):      "unknown",
	}
	for ph, want := range tests {
		if got := ph.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", int(ph), got, want)
		}
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	var stats PerfStats
	stats.AvgTick = 1500 * time.Microsecond
	stats.MinTick = time.Millisecond
	stats.MaxTick = 2 * time.Millisecond
	stats.TicksPerSecond = 666.6
	stats.SteeringPerAgent = 2500 * time.Nanosecond
	stats.PhasePct[PhaseSteering] = 80
	stats.PhasePct[PhaseApply] = 15
	stats.PhasePct[PhaseTelemetry] = 5

	row := stats.ToCSV(600)

	if row.WindowEnd != 600 {
		t.Errorf("expected window_end 600, got %d", row.WindowEnd)
	}
	if row.AvgTickUS != 1500 || row.MinTickUS != 1000 || row.MaxTickUS != 2000 {
		t.Errorf("unexpected tick timings: %+v", row)
	}
	if row.SteeringNSPerAgent != 2500 {
		t.Errorf("expected 2500ns per agent, got %d", row.SteeringNSPerAgent)
	}
	if row.SteeringPct != 80 || row.ApplyPct != 15 || row.TelemetryPct != 5 {
		t.Errorf("unexpected phase percentages: %+v", row)
	}
	if row.BodiesPct != 0 {
		t.Errorf("expected untracked phase to be 0, got %v", row.BodiesPct)
	}
}

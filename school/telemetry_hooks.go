package school

import (
	"math"

	"github.com/pthm-cable/schooling/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (s *School) flushTelemetry() {
	if !s.collector.ShouldFlush(s.tick) {
		return
	}

	sample := s.sampleSchool()

	stats := s.collector.Flush(s.tick, sample)
	stats.RunID = s.output.RunID()
	perfStats := s.perf.Stats()

	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if s.output != nil {
		if err := s.output.WriteTelemetry(stats); err != nil {
			s.log.Error("failed to write telemetry", "error", err)
		}
		if err := s.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			s.log.Error("failed to write perf", "error", err)
		}
	}

	bookmarks := s.bookmarks.Check(stats)
	for _, bm := range bookmarks {
		if s.logStats {
			bm.LogBookmark()
		}

		if s.output != nil {
			if err := s.output.WriteBookmark(bm); err != nil {
				s.log.Error("failed to write bookmark", "error", err)
			}
		}

		if s.output != nil || s.snapshotDir != "" {
			s.saveSnapshot(&bm)
		}
	}
}

// WriteAgentSummary writes every agent's lifetime stats to the output's
// agents.csv. It is a no-op without an output manager.
func (s *School) WriteAgentSummary() error {
	if s.output == nil {
		return nil
	}

	rows := make([]telemetry.AgentSummary, 0, len(s.agents))
	query := s.fishFilter.Query()
	for query.Next() {
		_, _, _, fish, _ := query.Get()
		s.lifetimes.UpdateAge(fish.ID, s.tick, s.cfg.Sim.DT)
		if ls := s.lifetimes.Get(fish.ID); ls != nil {
			rows = append(rows, ls.Summary(fish.ID, fish.Group, s.tick))
		}
	}
	return s.output.WriteAgents(rows)
}

// sampleSchool collects speed and turn-rate distributions and refreshes ages.
func (s *School) sampleSchool() telemetry.Sample {
	sample := telemetry.Sample{
		Speeds:    make([]float64, 0, len(s.agents)),
		TurnRates: make([]float64, 0, len(s.agents)),
	}

	query := s.fishFilter.Query()
	for query.Next() {
		_, motion, st, fish, _ := query.Get()

		sample.Agents++
		if st.Avoiding {
			sample.Avoiding++
		}
		sample.Speeds = append(sample.Speeds, motion.Speed)
		sample.TurnRates = append(sample.TurnRates, math.Hypot(motion.Pitch, motion.Yaw))

		s.lifetimes.UpdateAge(fish.ID, s.tick, s.cfg.Sim.DT)
	}

	return sample
}

// SaveSnapshot writes the current state to dir and returns the file path.
func (s *School) SaveSnapshot(dir string) (string, error) {
	return telemetry.SaveSnapshot(s.Snapshot(nil), dir)
}

// saveSnapshot writes a bookmark snapshot into the run output and the
// snapshot directory, whichever are set.
func (s *School) saveSnapshot(bookmark *telemetry.Bookmark) {
	snap := s.Snapshot(bookmark)

	if s.output != nil {
		path, err := s.output.WriteSnapshot(snap)
		if err != nil {
			s.log.Error("failed to save snapshot", "error", err)
		} else {
			s.log.Info("snapshot saved", "path", path, "tick", s.tick)
		}
	}

	if s.snapshotDir != "" {
		path, err := telemetry.SaveSnapshot(snap, s.snapshotDir)
		if err != nil {
			s.log.Error("failed to save snapshot", "error", err)
			return
		}
		s.log.Info("snapshot saved", "path", path, "tick", s.tick)
	}
}

// Snapshot builds a snapshot from the current state.
func (s *School) Snapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	size := s.arena.Size()
	snapshot := &telemetry.Snapshot{
		Version:   telemetry.SnapshotVersion,
		RunID:     s.output.RunID(),
		RNGSeed:   s.seed,
		ArenaSize: [3]float64(size),
		Tick:      s.tick,
		Agents:    make([]telemetry.AgentState, 0, len(s.agents)),
		Bookmark:  bookmark,
	}

	query := s.fishFilter.Query()
	for query.Next() {
		tr, motion, st, fish, _ := query.Get()

		var lifetime *telemetry.LifetimeStatsJSON
		if ls := s.lifetimes.Get(fish.ID); ls != nil {
			lifetime = ls.ToJSON()
		}

		state := telemetry.AgentState{
			ID:           fish.ID,
			Group:        fish.Group,
			Position:     [3]float64(tr.Position),
			Orientation:  [4]float64{tr.Orientation.W, tr.Orientation.V[0], tr.Orientation.V[1], tr.Orientation.V[2]},
			Speed:        motion.Speed,
			Acceleration: motion.Acceleration,
			Pitch:        motion.Pitch,
			Yaw:          motion.Yaw,
			Outcome:      st.Outcome.String(),
			Avoiding:     st.Avoiding,
			Lifetime:     lifetime,
		}
		if st.HasTarget {
			target := [3]float64(st.Target)
			state.Target = &target
		}

		snapshot.Agents = append(snapshot.Agents, state)
	}

	return snapshot
}

// Result summarises a run for parameter search and end-of-run logging.
type Result struct {
	Ticks      int32
	Agents     int
	SimSeconds float64
	Totals     Totals

	CollisionRate float64 // collision onsets per agent-second
	FailureRate   float64 // fraction of decisions with no free direction
	AvoidRate     float64 // avoid decisions per agent-second
}

// Summary reports run-wide totals and rates.
func (s *School) Summary() Result {
	r := Result{
		Ticks:      s.tick,
		Agents:     len(s.agents),
		SimSeconds: float64(s.tick) * s.cfg.Sim.DT,
		Totals:     s.totals,
	}
	if agentSec := r.SimSeconds * float64(r.Agents); agentSec > 0 {
		r.CollisionRate = float64(s.totals.Collisions) / agentSec
		r.AvoidRate = float64(s.totals.Avoids) / agentSec
	}
	if decisions := s.totals.Avoids + s.totals.Clears + s.totals.NoDirection; decisions > 0 {
		r.FailureRate = float64(s.totals.NoDirection) / float64(decisions)
	}
	return r
}

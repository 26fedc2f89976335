package school

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/schooling/arena"
	"github.com/pthm-cable/schooling/config"
	"github.com/pthm-cable/schooling/steering"
	"github.com/pthm-cable/schooling/telemetry"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig(agents int) *config.Config {
	cfg := config.Defaults()
	cfg.Sim.Agents = agents
	return cfg
}

// openArena is a walled tank with no reef.
func openArena(cfg *config.Config) *arena.World {
	w := arena.NewWorld(mgl64.Vec3{cfg.Arena.Width, cfg.Arena.Depth, cfg.Arena.Height}, 1000)
	w.AddWalls(cfg.Arena.WallThickness)
	return w
}

// tinyConfig is a 200-unit cube with everyone spawning at its centre.
func tinyConfig(agents int) *config.Config {
	cfg := newTestConfig(agents)
	cfg.Arena.Width, cfg.Arena.Depth, cfg.Arena.Height = 200, 200, 200
	cfg.Derived.ArenaCenter = [3]float64{100, 100, 100}
	cfg.School.SpawnRadius = 0
	return cfg
}

func positions(s *School) map[uint32]mgl64.Vec3 {
	out := make(map[uint32]mgl64.Vec3, len(s.agents))
	for id, a := range s.agents {
		out[id] = a.Position
	}
	return out
}

func TestNewSpawnsInsideSpawnSphere(t *testing.T) {
	cfg := newTestConfig(20)
	s := New(cfg, Options{Seed: 1, Logger: quietLogger(), Arena: openArena(cfg)})
	defer s.Close()

	require.Equal(t, 20, s.Len())

	center := mgl64.Vec3(cfg.Derived.ArenaCenter)
	count := 0
	query := s.fishFilter.Query()
	for query.Next() {
		tr, motion, _, fish, _ := query.Get()
		count++
		assert.LessOrEqual(t, tr.Position.Sub(center).Len(), cfg.School.SpawnRadius+1e-9)
		assert.Equal(t, cfg.Movement.DefaultSpeed, motion.Speed)
		assert.Equal(t, cfg.School.GroupName, fish.Group)

		a, ok := s.Agent(fish.ID)
		require.True(t, ok)
		assert.Equal(t, tr.Position, a.Position)
		dir, _ := a.Wander().Running()
		assert.True(t, dir, "direction wander armed on spawn")
	}
	assert.Equal(t, 20, count)
}

func TestStepAdvancesAgents(t *testing.T) {
	cfg := newTestConfig(20)
	s := New(cfg, Options{Seed: 2, Logger: quietLogger(), Arena: openArena(cfg)})
	defer s.Close()

	before := positions(s)
	for i := 0; i < 60; i++ {
		s.Step()
	}
	assert.Equal(t, int32(60), s.Tick())

	for id, p := range positions(s) {
		assert.Greater(t, p.Sub(before[id]).Len(), 0.0, "agent %d did not move", id)
	}

	r := s.Summary()
	assert.Equal(t, 20*60, r.Totals.Avoids+r.Totals.Clears+r.Totals.NoDirection,
		"one decision per agent per tick")
	assert.InDelta(t, 1.0, r.SimSeconds, 1e-6)
	assert.Positive(t, r.Totals.WanderEvents)
	assert.Zero(t, r.Totals.QueryFailures)
}

func TestParallelMatchesSerial(t *testing.T) {
	const agents = parallelThreshold + 16

	run := func(workers, threshold int) map[uint32]mgl64.Vec3 {
		cfg := newTestConfig(agents)
		cfg.Sim.Workers = workers
		s := New(cfg, Options{Seed: 7, Logger: quietLogger()})
		defer s.Close()
		s.parallel.threshold = threshold

		for i := 0; i < 120; i++ {
			s.Step()
		}
		return positions(s)
	}

	serial := run(1, maxThreshold)
	parallel := run(4, parallelThreshold)

	require.Len(t, parallel, agents)
	for id, p := range serial {
		assert.Less(t, p.Sub(parallel[id]).Len(), 1e-9, "agent %d diverged: %v vs %v", id, p, parallel[id])
	}
}

func TestCollisionCountsOnsetOnce(t *testing.T) {
	cfg := tinyConfig(1)
	cfg.Arena.Width, cfg.Arena.Depth, cfg.Arena.Height = 2000, 2000, 2000
	cfg.Derived.ArenaCenter = [3]float64{1000, 1000, 1000}

	w := arena.NewWorld(mgl64.Vec3{2000, 2000, 2000}, 500)
	w.AddSphere(arena.KindRock, mgl64.Vec3{1000, 1000, 1000}, 100)

	s := New(cfg, Options{Seed: 3, Logger: quietLogger(), Arena: w})
	defer s.Close()

	// Spawned inside the rock; a few ticks cannot carry it out.
	for i := 0; i < 5; i++ {
		s.Step()
	}

	assert.Equal(t, 1, s.Summary().Totals.Collisions)

	query := s.fishFilter.Query()
	for query.Next() {
		_, _, st, fish, contact := query.Get()
		assert.True(t, contact.Colliding)
		assert.Equal(t, 1, contact.Collisions)
		assert.Equal(t, int32(0), contact.LastTick)
		assert.True(t, st.Avoiding, "agent inside a rock is avoiding")
		assert.Equal(t, 1, s.lifetimes.Get(fish.ID).Collisions)
	}
}

func TestEscapeReturnsToSpawn(t *testing.T) {
	cfg := tinyConfig(1)
	w := arena.NewWorld(mgl64.Vec3{200, 200, 200}, 100)

	s := New(cfg, Options{Seed: 4, Logger: quietLogger(), Arena: w})
	defer s.Close()

	for i := 0; i < 60; i++ {
		s.Step()
		for _, a := range s.agents {
			require.True(t, w.InBounds(a.Position), "tick %d: agent outside the tank at %v", i, a.Position)
		}
	}

	assert.GreaterOrEqual(t, s.Summary().Totals.Escapes, 1)
}

func TestTriggerEntry(t *testing.T) {
	cfg := tinyConfig(1)
	cfg.Arena.Width, cfg.Arena.Depth, cfg.Arena.Height = 2000, 2000, 2000
	cfg.Derived.ArenaCenter = [3]float64{1000, 1000, 1000}

	w := arena.NewWorld(mgl64.Vec3{2000, 2000, 2000}, 500)
	w.AddTrigger("feeding_zone", mgl64.Vec3{1000, 1000, 1000}, 300)

	s := New(cfg, Options{Seed: 5, Logger: quietLogger(), Arena: w})
	defer s.Close()

	for i := 0; i < 10; i++ {
		s.Step()
	}

	r := s.Summary()
	assert.Equal(t, 1, r.Totals.TriggerEnters, "entry counted once while inside")
	assert.Zero(t, r.Totals.Collisions, "triggers do not block")
	assert.Zero(t, r.Totals.Avoids, "triggers never cause avoidance")
}

func TestTelemetryWindowsAndOutput(t *testing.T) {
	cfg := newTestConfig(10)
	cfg.Telemetry.StatsWindow = 1.0

	dir := filepath.Join(t.TempDir(), "out")
	om, err := telemetry.NewOutputManager(dir)
	require.NoError(t, err)

	var windows []telemetry.WindowStats
	s := New(cfg, Options{
		Seed:          6,
		Logger:        quietLogger(),
		Arena:         openArena(cfg),
		Output:        om,
		StatsCallback: func(ws telemetry.WindowStats) { windows = append(windows, ws) },
	})
	defer s.Close()

	require.NoError(t, s.Run(context.Background(), 120))
	require.NoError(t, s.WriteAgentSummary())
	require.NoError(t, om.Close())

	require.Len(t, windows, 2)
	assert.Equal(t, int32(60), windows[0].WindowEndTick)
	assert.Equal(t, int32(120), windows[1].WindowEndTick)
	for _, ws := range windows {
		assert.Equal(t, om.RunID(), ws.RunID)
		assert.Equal(t, 10, ws.Agents)
		assert.Equal(t, 10*60, ws.Avoids+ws.Clears+ws.NoDirection)
		assert.GreaterOrEqual(t, ws.SpeedMean, cfg.Movement.MinSpeed)
		assert.LessOrEqual(t, ws.SpeedMean, cfg.Movement.MaxSpeed)
	}

	for _, name := range []string{telemetry.TelemetryFile, telemetry.PerfFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	f, err := os.Open(filepath.Join(dir, telemetry.AgentFile))
	require.NoError(t, err)
	defer f.Close()

	var agents []telemetry.AgentSummary
	require.NoError(t, gocsv.UnmarshalFile(f, &agents))
	require.Len(t, agents, 10)
	for _, row := range agents {
		assert.Equal(t, om.RunID(), row.RunID)
		assert.Equal(t, int32(120), row.Tick)
		assert.InDelta(t, 2.0, row.AgeSec, 1e-6)
		assert.Positive(t, row.Distance)
		assert.GreaterOrEqual(t, row.PeakSpeed, row.MeanSpeed-1e-9)
	}
}

func TestBookmarkSnapshotsLandInOutput(t *testing.T) {
	cfg := newTestConfig(2)
	dir := t.TempDir()
	om, err := telemetry.NewOutputManager(dir)
	require.NoError(t, err)
	defer om.Close()

	s := New(cfg, Options{Seed: 12, Logger: quietLogger(), Arena: openArena(cfg), Output: om})
	defer s.Close()
	s.Step()

	bm := telemetry.Bookmark{Type: telemetry.BookmarkCalmWaters, Tick: s.Tick()}
	s.saveSnapshot(&bm)

	snap, err := telemetry.LoadSnapshot(filepath.Join(dir, telemetry.SnapshotDir, "snapshot_1_calm_waters.json"))
	require.NoError(t, err)
	assert.Equal(t, om.RunID(), snap.RunID)
	assert.Len(t, snap.Agents, 2)
}

func TestSnapshotRoundTrip(t *testing.T) {
	cfg := newTestConfig(5)
	s := New(cfg, Options{Seed: 8, Logger: quietLogger(), Arena: openArena(cfg)})
	defer s.Close()

	for i := 0; i < 30; i++ {
		s.Step()
	}

	path, err := s.SaveSnapshot(t.TempDir())
	require.NoError(t, err)

	snap, err := telemetry.LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, int32(30), snap.Tick)
	assert.Equal(t, int64(8), snap.RNGSeed)
	require.Len(t, snap.Agents, 5)

	for _, st := range snap.Agents {
		a, ok := s.Agent(st.ID)
		require.True(t, ok)
		assert.Equal(t, [3]float64(a.Position), st.Position)
		require.NotNil(t, st.Lifetime)
		assert.Positive(t, st.Lifetime.Distance)
	}
}

func TestSetParamsReachesEveryAgent(t *testing.T) {
	cfg := newTestConfig(6)
	s := New(cfg, Options{Seed: 9, Logger: quietLogger(), Arena: openArena(cfg)})
	defer s.Close()

	p := s.Params()
	p.SampleCount = 1 // clipped to the minimum
	p.TraceLength = 800
	s.SetParams(p)

	assert.Equal(t, steering.MinSampleCount, s.Params().SampleCount)
	for id, a := range s.agents {
		assert.Equal(t, steering.MinSampleCount, a.Params().SampleCount, "agent %d", id)
		assert.Equal(t, 800.0, a.Params().TraceLength, "agent %d", id)
	}
}

func TestRunHonoursCancel(t *testing.T) {
	cfg := newTestConfig(3)
	s := New(cfg, Options{Seed: 10, Logger: quietLogger(), Arena: openArena(cfg)})
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), s.Tick())
}

func TestDebugDrawForcesSerial(t *testing.T) {
	cfg := newTestConfig(parallelThreshold + 1)
	draw := &steering.RecordingDraw{}
	s := New(cfg, Options{Seed: 11, Logger: quietLogger(), Arena: openArena(cfg), Draw: draw})
	defer s.Close()

	s.Step()

	assert.Equal(t, maxThreshold, s.parallel.threshold)
	assert.False(t, s.parallel.running, "worker pool never started")
	assert.GreaterOrEqual(t, len(draw.Lines()), parallelThreshold+1, "at least one ahead probe per agent")
}

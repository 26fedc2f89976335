// Package school hosts a population of steering agents in an arena, backed by
// an ark ECS world, and drives them tick by tick with telemetry.
package school

import (
	"context"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/schooling/arena"
	"github.com/pthm-cable/schooling/components"
	"github.com/pthm-cable/schooling/config"
	"github.com/pthm-cable/schooling/steering"
	"github.com/pthm-cable/schooling/telemetry"
)

// Options configures a School beyond what the config file holds.
type Options struct {
	Seed        int64
	SnapshotDir string // Bookmark snapshots are written here when set
	LogStats    bool   // Log window and perf stats at info level
	Logger      *slog.Logger

	// Draw receives every probe line. A shared sink is not safe for
	// concurrent use, so setting it runs steering single-threaded.
	Draw steering.DebugDraw

	// Arena overrides the arena built from config.
	Arena *arena.World

	StatsCallback func(telemetry.WindowStats)
	Output        *telemetry.OutputManager
}

// School holds the complete simulation state.
type School struct {
	cfg    *config.Config
	params steering.Params
	world  *ecs.World
	rng    *rand.Rand
	seed   int64
	log    *slog.Logger
	draw   steering.DebugDraw

	fishMapper *ecs.Map5[
		components.Transform,
		components.Motion,
		components.Steering,
		components.Fish,
		components.Contact,
	]
	fishFilter *ecs.Filter5[
		components.Transform,
		components.Motion,
		components.Steering,
		components.Fish,
		components.Contact,
	]

	transformMap *ecs.Map1[components.Transform]
	motionMap    *ecs.Map1[components.Motion]
	steeringMap  *ecs.Map1[components.Steering]
	contactMap   *ecs.Map1[components.Contact]

	// Agent storage (per fish by ID)
	agents  map[uint32]*steering.Agent
	ignores map[uint32]steering.IgnoreSet

	arena       *arena.World
	bodies      []arena.Body
	bodiesDirty bool

	parallel *parallelState

	// Telemetry
	collector     *telemetry.Collector
	perf          *telemetry.PerfCollector
	bookmarks     *telemetry.BookmarkDetector
	lifetimes     *telemetry.LifetimeTracker
	output        *telemetry.OutputManager
	snapshotDir   string
	logStats      bool
	statsCallback func(telemetry.WindowStats)
	totals        Totals

	// State
	tick   int32
	nextID uint32
}

// New builds the arena (unless one is supplied), spawns cfg.Sim.Agents agents
// inside the spawn sphere and starts their wander timers.
func New(cfg *config.Config, opts Options) *School {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	draw := opts.Draw
	if draw == nil {
		draw = steering.NopDraw{}
	}

	world := ecs.NewWorld()

	s := &School{
		cfg:     cfg,
		params:  steering.ParamsFromConfig(cfg),
		world:   world,
		rng:     rand.New(rand.NewSource(opts.Seed)),
		seed:    opts.Seed,
		log:     log,
		draw:    draw,
		agents:  make(map[uint32]*steering.Agent),
		ignores: make(map[uint32]steering.IgnoreSet),
		nextID:  1,
		fishMapper: ecs.NewMap5[
			components.Transform,
			components.Motion,
			components.Steering,
			components.Fish,
			components.Contact,
		](world),
		fishFilter: ecs.NewFilter5[
			components.Transform,
			components.Motion,
			components.Steering,
			components.Fish,
			components.Contact,
		](world),
		transformMap: ecs.NewMap1[components.Transform](world),
		motionMap:    ecs.NewMap1[components.Motion](world),
		steeringMap:  ecs.NewMap1[components.Steering](world),
		contactMap:   ecs.NewMap1[components.Contact](world),

		collector:     telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Sim.DT),
		perf:          telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		bookmarks:     telemetry.NewBookmarkDetector(10),
		lifetimes:     telemetry.NewLifetimeTracker(),
		output:        opts.Output,
		snapshotDir:   opts.SnapshotDir,
		logStats:      opts.LogStats,
		statsCallback: opts.StatsCallback,
	}

	if fixes := s.params.Validate(); len(fixes) > 0 {
		log.Warn("steering params corrected", "corrections", fixes)
	}

	s.arena = opts.Arena
	if s.arena == nil {
		s.arena = arena.Build(cfg, opts.Seed, log)
	}

	s.parallel = newParallelState(cfg.Sim.Workers)
	if opts.Draw != nil {
		s.parallel.threshold = maxThreshold
	}

	s.spawnSchool()
	return s
}

// Step advances the simulation by one tick.
func (s *School) Step() {
	dt := s.cfg.Sim.DT
	s.perf.StartTick()

	s.perf.StartPhase(telemetry.PhaseBodies)
	if s.bodiesDirty {
		s.refreshBodies()
	}

	s.perf.StartPhase(telemetry.PhaseSteering)
	s.updateSteering(dt)

	s.perf.StartPhase(telemetry.PhaseApply)
	s.applyIntents()

	s.perf.StartPhase(telemetry.PhaseContacts)
	s.refreshBodies()
	s.updateContacts()

	s.tick++

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.flushTelemetry()

	s.perf.EndTick(len(s.agents))
}

// Run steps until maxTicks ticks have run (0 = no limit) or ctx is done.
// It returns ctx.Err() when cancelled.
func (s *School) Run(ctx context.Context, maxTicks int) error {
	for maxTicks <= 0 || int(s.tick) < maxTicks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		s.Step()
	}
	return nil
}

// SetParams replaces the steering parameters of every agent.
func (s *School) SetParams(p steering.Params) {
	if fixes := p.Validate(); len(fixes) > 0 {
		s.log.Warn("steering params corrected", "corrections", fixes)
	}
	s.params = p
	for _, a := range s.agents {
		a.SetParams(p)
	}
	s.log.Info("steering params updated",
		"sample_count", p.SampleCount,
		"trace_length", p.TraceLength,
		"pitch_step", p.PitchStep,
		"yaw_step", p.YawStep,
	)
}

// Params returns the steering parameters shared by the school.
func (s *School) Params() steering.Params {
	return s.params
}

// Tick returns the number of ticks run so far.
func (s *School) Tick() int32 {
	return s.tick
}

// Arena returns the arena the school swims in.
func (s *School) Arena() *arena.World {
	return s.arena
}

// Agent returns the agent with the given fish id.
func (s *School) Agent(id uint32) (*steering.Agent, bool) {
	a, ok := s.agents[id]
	return a, ok
}

// Len returns the number of agents.
func (s *School) Len() int {
	return len(s.agents)
}

// Close stops the worker pool and every agent's wander timers.
func (s *School) Close() {
	if s.parallel != nil {
		s.parallel.stopWorkers()
	}
	for _, a := range s.agents {
		a.Stop()
	}
}

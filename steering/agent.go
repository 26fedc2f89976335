package steering

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
)

// Deps are the collaborators injected into an Agent. Only World may be nil
// with meaningful effect (every probe is then clear); the others fall back to
// sensible defaults.
type Deps struct {
	World  WorldQuery
	Ignore IgnoreSet
	Draw   DebugDraw
	Policy SteeringPolicy // Defaults to a HeadingSelector on Rng
	Rng    RandomSource   // Defaults to a source seeded with the agent id
	Clock  Clock          // Defaults to an agent-owned ManualClock advanced by Tick
	Log    *slog.Logger
}

// Counters tracks per-agent decision totals since creation.
type Counters struct {
	Clear       int
	Avoid       int
	NoDirection int
}

// Agent is a single steering agent: it owns its kinematic state and runs the
// ahead/cone/heading pipeline, rotation, speed and position integration each
// tick.
type Agent struct {
	ID EntityID

	Position     mgl64.Vec3
	Orientation  mgl64.Quat
	Speed        float64
	Acceleration float64

	// Angular rate commands in degrees per second.
	Pitch float64
	Yaw   float64
	Roll  float64

	lastAvoidance mgl64.Vec3
	hasLast       bool
	avoiding      bool

	params   Params
	cone     *ConeSampler
	caster   *ProbeCaster
	policy   SteeringPolicy
	clock    Clock
	ownClock *ManualClock
	wander   *WanderScheduler
	log      *slog.Logger

	probes   ProbeResults
	outcome  Outcome
	counters Counters
	started  bool
}

// NewAgent creates an agent at the origin facing +X at its default speed.
// Params are validated; corrections are logged at warn level.
func NewAgent(id EntityID, params Params, deps Deps) *Agent {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("agent", uint64(id))

	rng := deps.Rng
	if rng == nil {
		rng = NewRandomSource(int64(id))
	}
	policy := deps.Policy
	if policy == nil {
		policy = NewHeadingSelector(rng)
	}

	a := &Agent{
		ID:          id,
		Orientation: mgl64.QuatIdent(),
		policy:      policy,
		log:         log,
	}

	if deps.Clock != nil {
		a.clock = deps.Clock
	} else {
		a.ownClock = NewManualClock()
		a.clock = a.ownClock
	}

	if fixes := params.Validate(); len(fixes) > 0 {
		log.Warn("steering params corrected", "corrections", fixes)
	}
	a.params = params
	a.Speed = params.DefaultSpeed

	ignore := NewIgnoreSet(id)
	for other := range deps.Ignore {
		ignore[other] = struct{}{}
	}

	a.cone = NewConeSampler(params.TurnFraction)
	a.caster = NewProbeCaster(deps.World, ignore, deps.Draw, log)
	a.wander = NewWanderScheduler(a.clock, rng, a, params, log)
	return a
}

// Start arms the wander events enabled in Params. Acceleration wander stays
// dormant unless AccelerationWander is set.
func (a *Agent) Start() {
	a.started = true
	a.syncWander()
}

// Stop cancels any pending wander events.
func (a *Agent) Stop() {
	a.started = false
	a.wander.Stop()
}

func (a *Agent) syncWander() {
	dir, accel := a.wander.Running()
	switch {
	case a.params.DirectionWander && !dir:
		a.wander.StartDirection()
	case !a.params.DirectionWander && dir:
		a.wander.StopDirection()
	}
	switch {
	case a.params.AccelerationWander && !accel:
		a.wander.StartAcceleration()
	case !a.params.AccelerationWander && accel:
		a.wander.StopAcceleration()
	}
}

// Tick advances the agent by dt seconds and returns the steering decision made
// this tick.
func (a *Agent) Tick(dt float64) Decision {
	d := a.UpdateDirection()
	if a.ownClock != nil {
		a.ownClock.Advance(dt)
	}
	a.ApplyDirectionalOffset(dt)
	a.UpdateSpeed()
	a.UpdateLocation(dt)
	return d
}

// UpdateDirection casts the ahead probe and, when blocked, the cone, then lets
// the policy choose a heading. Avoidance overrides pitch and yaw; roll is
// never touched.
func (a *Agent) UpdateDirection() Decision {
	forward := a.Forward()
	a.probes.Reset()

	blocked, _ := a.caster.CastAhead(a.Position, forward, a.params.TraceLength)
	if blocked {
		dirs := a.cone.Directions(a.params.SampleCount)
		a.caster.CastCone(a.Position, forward, dirs, a.params.TraceLength, &a.probes)
	}

	d := a.policy.Decide(PolicyInput{
		Origin:       a.Position,
		Orientation:  a.Orientation,
		AheadBlocked: blocked,
		Probes:       a.probes,
		Last:         a.lastAvoidance,
		HasLast:      a.hasLast,
	})
	a.applyDecision(d)
	return d
}

func (a *Agent) applyDecision(d Decision) {
	a.outcome = d.Outcome

	switch d.Outcome {
	case OutcomeClear:
		a.counters.Clear++
		a.lastAvoidance, a.hasLast = mgl64.Vec3{}, false
		a.avoiding = false
		a.Pitch, a.Yaw = 0, 0

	case OutcomeAvoid:
		a.counters.Avoid++
		a.lastAvoidance, a.hasLast = d.Target, true
		a.avoiding = true
		a.Pitch, a.Yaw = d.Pitch, d.Yaw
		a.caster.Draw().Line(a.Position, d.Target, ColorSelected)

	case OutcomeNoDirection:
		a.counters.NoDirection++
		a.avoiding = true
		a.log.Debug("no avoidance direction found",
			"position", a.Position,
			"sample_count", a.params.SampleCount,
		)
	}
}

// SetDirection steers toward target, given relative to the agent's position
// in its local frame.
func (a *Agent) SetDirection(target mgl64.Vec3) {
	a.Yaw, a.Pitch = YawPitchFromVector(target)
}

// ApplyDirectionalOffset rotates the orientation in local space by
// (pitch, yaw, roll) * dt degrees.
func (a *Agent) ApplyDirectionalOffset(dt float64) {
	delta := RotatorQuat(a.Pitch*dt, a.Yaw*dt, a.Roll*dt)
	a.Orientation = a.Orientation.Mul(delta).Normalize()
}

// UpdateSpeed applies acceleration and clamps speed to [MinSpeed, MaxSpeed].
func (a *Agent) UpdateSpeed() {
	a.Speed = clampFloat(a.Speed+a.Acceleration, a.params.MinSpeed, a.params.MaxSpeed)
}

// UpdateLocation moves the agent along its forward vector.
func (a *Agent) UpdateLocation(dt float64) {
	a.Position = a.Position.Add(a.Forward().Mul(a.Speed * dt))
}

// Forward returns the agent's forward unit vector.
func (a *Agent) Forward() mgl64.Vec3 {
	return Forward(a.Orientation)
}

// SetParams hot-edits the configuration. Values are validated and the speed
// and acceleration are re-clamped to the new bounds.
func (a *Agent) SetParams(p Params) {
	if fixes := p.Validate(); len(fixes) > 0 {
		a.log.Warn("steering params corrected", "corrections", fixes)
	}
	a.params = p
	a.cone.SetTurnFraction(p.TurnFraction)
	a.wander.SetParams(p)
	a.Speed = clampFloat(a.Speed, p.MinSpeed, p.MaxSpeed)
	a.Acceleration = clampFloat(a.Acceleration, -p.MaxAcceleration, p.MaxAcceleration)
	if a.started {
		a.syncWander()
	}
}

// Params returns the active configuration.
func (a *Agent) Params() Params {
	return a.params
}

// Group returns the agent's group tag.
func (a *Agent) Group() string {
	return a.params.GroupName
}

// SetWanderDirection implements Wanderer. It is ignored while avoiding.
func (a *Agent) SetWanderDirection(pitch, yaw float64) {
	if !a.avoiding {
		a.Pitch, a.Yaw = pitch, yaw
	}
}

// SetAcceleration implements Wanderer.
func (a *Agent) SetAcceleration(accel float64) {
	a.Acceleration = accel
}

// AccelerationValue implements Wanderer.
func (a *Agent) AccelerationValue() float64 {
	return a.Acceleration
}

// LastAvoidance returns the previous avoidance point, if any.
func (a *Agent) LastAvoidance() (mgl64.Vec3, bool) {
	return a.lastAvoidance, a.hasLast
}

// Avoiding reports whether the last ahead probe was blocked.
func (a *Agent) Avoiding() bool {
	return a.avoiding
}

// Outcome returns the most recent decision outcome.
func (a *Agent) Outcome() Outcome {
	return a.outcome
}

// Probes returns the cone results of the most recent blocked tick. The slices
// are reused on the next tick.
func (a *Agent) Probes() ProbeResults {
	return a.probes
}

// Counters returns decision totals.
func (a *Agent) Counters() Counters {
	return a.counters
}

// QueryFailures returns how many world queries failed and were treated as clear.
func (a *Agent) QueryFailures() int {
	return a.caster.Failures()
}

// Wander returns the agent's wander scheduler.
func (a *Agent) Wander() *WanderScheduler {
	return a.wander
}

// Cone returns the agent's cone sampler.
func (a *Agent) Cone() *ConeSampler {
	return a.cone
}

// Clock returns the agent-owned clock, or nil if an external clock was injected.
func (a *Agent) Clock() *ManualClock {
	return a.ownClock
}

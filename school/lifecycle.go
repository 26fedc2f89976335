package school

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/schooling/arena"
	"github.com/pthm-cable/schooling/components"
	"github.com/pthm-cable/schooling/steering"
	"github.com/pthm-cable/schooling/telemetry"
)

// Initial facing stays within this pitch of level, in degrees.
const maxSpawnPitch = 30.0

// Totals are run-wide event counts.
type Totals struct {
	Avoids        int
	Clears        int
	NoDirection   int
	QueryFailures int
	WanderEvents  int
	Collisions    int
	TriggerEnters int
	Escapes       int
}

// spawnSchool creates the starting agents.
func (s *School) spawnSchool() {
	for i := 0; i < s.cfg.Sim.Agents; i++ {
		s.spawnAgent(s.randomSpawnPoint(), s.randomFacing())
	}
	s.bodiesDirty = true
	s.log.Info("school spawned",
		"agents", len(s.agents),
		"group", s.params.GroupName,
		"seed", s.seed,
	)
}

// spawnAgent creates a started agent and its ECS entity.
func (s *School) spawnAgent(pos mgl64.Vec3, orientation mgl64.Quat) ecs.Entity {
	id := s.nextID
	s.nextID++

	agent := steering.NewAgent(steering.EntityID(id), s.params, steering.Deps{
		World: s.arena,
		Draw:  s.draw,
		Rng:   steering.NewRandomSource(s.seed + int64(id)),
		Log:   s.log,
	})
	agent.Position = pos
	agent.Orientation = orientation
	agent.Start()
	s.agents[id] = agent
	s.ignores[id] = steering.NewIgnoreSet(steering.EntityID(id))

	tr := components.Transform{Position: pos, Orientation: orientation}
	motion := components.Motion{Speed: agent.Speed}
	st := components.Steering{}
	fish := components.Fish{ID: id, Group: agent.Group(), SpawnTick: s.tick}
	contact := components.Contact{}

	entity := s.fishMapper.NewEntity(&tr, &motion, &st, &fish, &contact)

	s.lifetimes.Register(id, s.tick)
	return entity
}

// randomSpawnPoint returns a uniform point inside the spawn sphere.
func (s *School) randomSpawnPoint() mgl64.Vec3 {
	center := mgl64.Vec3(s.cfg.Derived.ArenaCenter)
	r := s.cfg.School.SpawnRadius
	if r <= 0 {
		return center
	}
	for {
		p := mgl64.Vec3{
			s.rng.Float64()*2 - 1,
			s.rng.Float64()*2 - 1,
			s.rng.Float64()*2 - 1,
		}
		if p.LenSqr() <= 1 {
			return center.Add(p.Mul(r))
		}
	}
}

// randomFacing returns a level-ish orientation with a random yaw.
func (s *School) randomFacing() mgl64.Quat {
	yaw := s.rng.Float64()*360 - 180
	pitch := (s.rng.Float64()*2 - 1) * maxSpawnPitch
	return steering.RotatorQuat(pitch, yaw, 0)
}

// refreshBodies publishes agent positions to the arena as dynamic obstacles.
func (s *School) refreshBodies() {
	s.bodies = s.bodies[:0]

	query := s.fishFilter.Query()
	for query.Next() {
		tr, _, _, fish, _ := query.Get()
		s.bodies = append(s.bodies, arena.Body{
			ID:     steering.EntityID(fish.ID),
			Center: tr.Position,
			Radius: s.cfg.School.BodyRadius,
		})
	}

	s.arena.SetBodies(s.bodies)
	s.bodiesDirty = false
}

// applyIntents writes agent state back to ECS components and records events
// (single-threaded, preserves determinism).
func (s *School) applyIntents() {
	for i, snap := range s.parallel.snapshots {
		in := &s.parallel.intents[i]
		a := snap.Agent

		tr := s.transformMap.Get(snap.Entity)
		motion := s.motionMap.Get(snap.Entity)
		st := s.steeringMap.Get(snap.Entity)
		if tr == nil || motion == nil || st == nil {
			continue
		}

		tr.Position = a.Position
		tr.Orientation = a.Orientation

		motion.Speed = a.Speed
		motion.Acceleration = a.Acceleration
		motion.Pitch = a.Pitch
		motion.Yaw = a.Yaw
		motion.Roll = a.Roll

		st.Outcome = in.Decision.Outcome
		st.Avoiding = a.Avoiding()
		st.Target, st.HasTarget = a.LastAvoidance()

		switch in.Decision.Outcome {
		case steering.OutcomeAvoid:
			s.record(telemetry.NewDecisionEvent(telemetry.EventAvoid, s.tick, snap.ID))
		case steering.OutcomeNoDirection:
			s.record(telemetry.NewDecisionEvent(telemetry.EventNoDirection, s.tick, snap.ID))
		default:
			s.record(telemetry.NewDecisionEvent(telemetry.EventClear, s.tick, snap.ID))
		}
		if in.Wander > 0 {
			s.record(telemetry.NewCountEvent(telemetry.EventWander, s.tick, snap.ID, in.Wander))
		}
		if in.QueryFailures > 0 {
			s.record(telemetry.NewCountEvent(telemetry.EventQueryFailure, s.tick, snap.ID, in.QueryFailures))
		}

		s.lifetimes.UpdateMotion(snap.ID, a.Position.Sub(snap.Prev).Len(), a.Speed)
	}
}

// updateContacts handles escapes, collision onsets and trigger entries.
func (s *School) updateContacts() {
	radius := s.cfg.School.BodyRadius

	query := s.fishFilter.Query()
	for query.Next() {
		tr, _, _, fish, contact := query.Get()

		agent := s.agents[fish.ID]
		if agent == nil {
			continue
		}

		if !s.arena.InBounds(tr.Position) {
			s.returnToSpawn(agent, tr)
			contact.Escapes++
			s.record(telemetry.Event{Type: telemetry.EventEscape, Tick: s.tick, AgentID: fish.ID, Count: 1})
		}

		other, colliding := s.arena.Collides(tr.Position, radius, s.ignores[fish.ID])
		if colliding && !contact.Colliding {
			contact.Collisions++
			contact.LastTick = s.tick
			s.record(telemetry.NewCollisionEvent(s.tick, fish.ID, uint64(other)))
		}
		contact.Colliding = colliding

		triggers := s.arena.TriggersAt(tr.Position)
		inTrigger := len(triggers) > 0
		if inTrigger && !contact.InTrigger {
			s.record(telemetry.NewTriggerEvent(s.tick, fish.ID, triggers[0]))
		}
		contact.InTrigger = inTrigger
	}
}

// returnToSpawn moves an agent that left the tank back into the spawn sphere.
func (s *School) returnToSpawn(agent *steering.Agent, tr *components.Transform) {
	from := tr.Position
	agent.Position = s.randomSpawnPoint()
	agent.Orientation = s.randomFacing()
	tr.Position = agent.Position
	tr.Orientation = agent.Orientation
	s.bodiesDirty = true

	s.log.Debug("agent left the tank, respawned",
		"agent", uint64(agent.ID),
		"from", from,
		"to", agent.Position,
		"tick", s.tick,
	)
}

// record feeds an event to the window collector, the lifetime tracker and the
// run totals.
func (s *School) record(ev telemetry.Event) {
	s.collector.Record(ev)
	s.lifetimes.RecordEvent(ev)

	n := ev.Count
	if n <= 0 {
		n = 1
	}
	switch ev.Type {
	case telemetry.EventAvoid:
		s.totals.Avoids += n
	case telemetry.EventClear:
		s.totals.Clears += n
	case telemetry.EventNoDirection:
		s.totals.NoDirection += n
	case telemetry.EventQueryFailure:
		s.totals.QueryFailures += n
	case telemetry.EventWander:
		s.totals.WanderEvents += n
	case telemetry.EventCollision:
		s.totals.Collisions += n
	case telemetry.EventTriggerEnter:
		s.totals.TriggerEnters += n
	case telemetry.EventEscape:
		s.totals.Escapes += n
	}
}

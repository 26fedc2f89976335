// Package components defines ECS components for the schooling simulation.
package components

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/schooling/steering"
)

// Transform is an agent's pose in arena space.
type Transform struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// Motion mirrors the agent's kinematic state after its last tick.
type Motion struct {
	Speed        float64
	Acceleration float64
	Pitch        float64 // deg/s
	Yaw          float64 // deg/s
	Roll         float64 // deg/s
}

// Steering holds the most recent avoidance decision.
type Steering struct {
	Outcome   steering.Outcome
	Avoiding  bool
	Target    mgl64.Vec3 // Valid when HasTarget
	HasTarget bool
}

// Fish identifies an agent and its group.
type Fish struct {
	ID        uint32
	Group     string
	SpawnTick int32
}

// Contact tracks overlap with blocking obstacles and trigger volumes.
type Contact struct {
	Colliding  bool  // Overlapping a blocking obstacle this tick
	Collisions int   // Collision onsets since spawn
	LastTick   int32 // Tick of the last collision onset
	InTrigger  bool
	Escapes    int // Times the agent left the tank and was returned
}

// Package telemetry provides steering health tracking, bookmarking, and snapshots.
package telemetry

// EventType identifies telemetry events.
type EventType uint8

const (
	EventAvoid EventType = iota
	EventClear
	EventNoDirection
	EventCollision
	EventQueryFailure
	EventWander
	EventTriggerEnter
	EventEscape
)

// String returns the event name.
func (t EventType) String() string {
	switch t {
	case EventAvoid:
		return "avoid"
	case EventClear:
		return "clear"
	case EventNoDirection:
		return "no_direction"
	case EventCollision:
		return "collision"
	case EventQueryFailure:
		return "query_failure"
	case EventWander:
		return "wander"
	case EventTriggerEnter:
		return "trigger_enter"
	case EventEscape:
		return "escape"
	}
	return "unknown"
}

// Event represents a single telemetry event.
type Event struct {
	Type    EventType
	Tick    int32
	AgentID uint32

	// Optional fields depending on event type
	Count  int    // occurrences folded into this event (query failures, wander)
	Other  uint64 // entity hit (collision)
	Target string // trigger name
}

// NewDecisionEvent creates an avoid, clear or no-direction event.
func NewDecisionEvent(t EventType, tick int32, agentID uint32) Event {
	return Event{Type: t, Tick: tick, AgentID: agentID, Count: 1}
}

// NewCollisionEvent creates a collision onset event.
func NewCollisionEvent(tick int32, agentID uint32, other uint64) Event {
	return Event{Type: EventCollision, Tick: tick, AgentID: agentID, Count: 1, Other: other}
}

// NewCountEvent creates an event carrying several occurrences at once.
func NewCountEvent(t EventType, tick int32, agentID uint32, n int) Event {
	return Event{Type: t, Tick: tick, AgentID: agentID, Count: n}
}

// NewTriggerEvent creates a trigger entry event.
func NewTriggerEvent(tick int32, agentID uint32, name string) Event {
	return Event{Type: EventTriggerEnter, Tick: tick, AgentID: agentID, Count: 1, Target: name}
}

package telemetry

// LifetimeStats tracks per-agent statistics since spawn.
type LifetimeStats struct {
	SpawnTick int32
	AgeSec    float64

	// Steering
	Avoids      int
	NoDirection int

	// Contacts
	Collisions    int
	TriggerEnters int
	Escapes       int

	// Motion
	Distance  float64
	PeakSpeed float64
}

// LifetimeTracker manages per-agent lifetime statistics.
type LifetimeTracker struct {
	stats map[uint32]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint32]*LifetimeStats),
	}
}

// Register creates lifetime stats for a new agent.
func (lt *LifetimeTracker) Register(agentID uint32, spawnTick int32) {
	lt.stats[agentID] = &LifetimeStats{SpawnTick: spawnTick}
}

// Get returns the lifetime stats for an agent, or nil if not found.
func (lt *LifetimeTracker) Get(agentID uint32) *LifetimeStats {
	return lt.stats[agentID]
}

// Remove removes an agent's stats and returns them.
func (lt *LifetimeTracker) Remove(agentID uint32) *LifetimeStats {
	stats := lt.stats[agentID]
	delete(lt.stats, agentID)
	return stats
}

// RecordEvent folds an event into the owning agent's stats.
func (lt *LifetimeTracker) RecordEvent(ev Event) {
	s := lt.stats[ev.AgentID]
	if s == nil {
		return
	}
	n := ev.Count
	if n <= 0 {
		n = 1
	}
	switch ev.Type {
	case EventAvoid:
		s.Avoids += n
	case EventNoDirection:
		s.NoDirection += n
	case EventCollision:
		s.Collisions += n
	case EventTriggerEnter:
		s.TriggerEnters += n
	case EventEscape:
		s.Escapes += n
	}
}

// UpdateMotion adds distance travelled this tick and tracks peak speed.
func (lt *LifetimeTracker) UpdateMotion(agentID uint32, distance, speed float64) {
	if s := lt.stats[agentID]; s != nil {
		s.Distance += distance
		if speed > s.PeakSpeed {
			s.PeakSpeed = speed
		}
	}
}

// UpdateAge updates the age based on current tick.
func (lt *LifetimeTracker) UpdateAge(agentID uint32, currentTick int32, dt float64) {
	if s := lt.stats[agentID]; s != nil {
		s.AgeSec = float64(currentTick-s.SpawnTick) * dt
	}
}

// All returns all tracked stats (for snapshots).
func (lt *LifetimeTracker) All() map[uint32]*LifetimeStats {
	return lt.stats
}

// Count returns the number of tracked agents.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}

// Totals sums collisions and direction failures over all tracked agents.
func (lt *LifetimeTracker) Totals() (collisions, noDirection int) {
	for _, s := range lt.stats {
		collisions += s.Collisions
		noDirection += s.NoDirection
	}
	return collisions, noDirection
}

// AgentSummary is one agents.csv row: an agent's lifetime as of Tick.
type AgentSummary struct {
	RunID     string  `csv:"run_id"`
	Tick      int32   `csv:"tick"`
	AgentID   uint32  `csv:"agent_id"`
	Group     string  `csv:"group"`
	SpawnTick int32   `csv:"spawn_tick"`
	AgeSec    float64 `csv:"age_sec"`

	Avoids        int `csv:"avoids"`
	NoDirection   int `csv:"no_direction"`
	Collisions    int `csv:"collisions"`
	TriggerEnters int `csv:"trigger_enters"`
	Escapes       int `csv:"escapes"`

	Distance  float64 `csv:"distance"`
	MeanSpeed float64 `csv:"mean_speed"`
	PeakSpeed float64 `csv:"peak_speed"`
}

// Summary flattens the stats into an agents.csv row.
func (s *LifetimeStats) Summary(agentID uint32, group string, tick int32) AgentSummary {
	row := AgentSummary{
		Tick:          tick,
		AgentID:       agentID,
		Group:         group,
		SpawnTick:     s.SpawnTick,
		AgeSec:        s.AgeSec,
		Avoids:        s.Avoids,
		NoDirection:   s.NoDirection,
		Collisions:    s.Collisions,
		TriggerEnters: s.TriggerEnters,
		Escapes:       s.Escapes,
		Distance:      s.Distance,
		PeakSpeed:     s.PeakSpeed,
	}
	if s.AgeSec > 0 {
		row.MeanSpeed = s.Distance / s.AgeSec
	}
	return row
}

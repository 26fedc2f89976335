package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the school state at one tick.
type Snapshot struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id,omitempty"`
	RNGSeed int64  `json:"rng_seed"`

	ArenaSize [3]float64 `json:"arena_size"`

	Tick int32 `json:"tick"`

	Agents []AgentState `json:"agents"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// AgentState holds one agent's complete state.
type AgentState struct {
	ID    uint32 `json:"id"`
	Group string `json:"group"`

	// Pose
	Position    [3]float64 `json:"position"`
	Orientation [4]float64 `json:"orientation"` // w, x, y, z

	// Motion
	Speed        float64 `json:"speed"`
	Acceleration float64 `json:"acceleration"`
	Pitch        float64 `json:"pitch"`
	Yaw          float64 `json:"yaw"`

	// Steering
	Outcome  string      `json:"outcome"`
	Avoiding bool        `json:"avoiding"`
	Target   *[3]float64 `json:"target,omitempty"`

	Lifetime *LifetimeStatsJSON `json:"lifetime,omitempty"`
}

// LifetimeStatsJSON is the JSON-serializable form of LifetimeStats.
type LifetimeStatsJSON struct {
	SpawnTick     int32   `json:"spawn_tick"`
	AgeSec        float64 `json:"age_sec"`
	Avoids        int     `json:"avoids"`
	NoDirection   int     `json:"no_direction"`
	Collisions    int     `json:"collisions"`
	TriggerEnters int     `json:"trigger_enters"`
	Escapes       int     `json:"escapes"`
	Distance      float64 `json:"distance"`
	PeakSpeed     float64 `json:"peak_speed"`
}

// ToJSON converts LifetimeStats to its JSON form.
func (ls *LifetimeStats) ToJSON() *LifetimeStatsJSON {
	if ls == nil {
		return nil
	}
	return &LifetimeStatsJSON{
		SpawnTick:     ls.SpawnTick,
		AgeSec:        ls.AgeSec,
		Avoids:        ls.Avoids,
		NoDirection:   ls.NoDirection,
		Collisions:    ls.Collisions,
		TriggerEnters: ls.TriggerEnters,
		Escapes:       ls.Escapes,
		Distance:      ls.Distance,
		PeakSpeed:     ls.PeakSpeed,
	}
}

// FromJSON converts the JSON form back to LifetimeStats.
func (lsj *LifetimeStatsJSON) FromJSON() *LifetimeStats {
	if lsj == nil {
		return nil
	}
	return &LifetimeStats{
		SpawnTick:     lsj.SpawnTick,
		AgeSec:        lsj.AgeSec,
		Avoids:        lsj.Avoids,
		NoDirection:   lsj.NoDirection,
		Collisions:    lsj.Collisions,
		TriggerEnters: lsj.TriggerEnters,
		Escapes:       lsj.Escapes,
		Distance:      lsj.Distance,
		PeakSpeed:     lsj.PeakSpeed,
	}
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}

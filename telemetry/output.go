package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"github.com/pthm-cable/schooling/config"
)

// Files and directories a run writes, relative to the output directory.
const (
	TelemetryFile = "telemetry.csv"
	PerfFile      = "perf.csv"
	BookmarkFile  = "bookmarks.csv"
	AgentFile     = "agents.csv"
	ConfigFile    = "config.yaml"
	SnapshotDir   = "snapshots"
)

// csvStream appends gocsv rows to one file. The header goes out with the
// first non-empty write.
type csvStream struct {
	name   string
	file   *os.File
	header bool
}

func openStream(dir, name string) (*csvStream, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvStream{name: name, file: f}, nil
}

// append writes rows, which must be a slice of csv-tagged structs.
func (s *csvStream) append(rows any) error {
	var err error
	if s.header {
		err = gocsv.MarshalWithoutHeaders(rows, s.file)
	} else {
		err = gocsv.Marshal(rows, s.file)
		s.header = err == nil
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", s.name, err)
	}
	return nil
}

// OutputManager collects everything one run leaves on disk: window telemetry,
// phase timings, bookmarks, per-agent lifetimes, bookmark snapshots and the
// config the run used. Every row carries the run id.
//
// All methods are no-ops on a nil manager, so callers never check whether
// output is enabled.
type OutputManager struct {
	dir   string
	runID string

	telemetry *csvStream
	perf      *csvStream
	bookmarks *csvStream
	agents    *csvStream
}

// NewOutputManager creates dir and opens the run's CSV files.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir, runID: uuid.NewString()}
	for _, s := range []struct {
		name string
		dst  **csvStream
	}{
		{TelemetryFile, &om.telemetry},
		{PerfFile, &om.perf},
		{BookmarkFile, &om.bookmarks},
		{AgentFile, &om.agents},
	} {
		stream, err := openStream(dir, s.name)
		if err != nil {
			om.Close()
			return nil, err
		}
		*s.dst = stream
	}

	return om, nil
}

// WriteConfig saves the run's configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, ConfigFile))
}

// WriteTelemetry appends a window to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	stats.RunID = om.runID
	return om.telemetry.append([]WindowStats{stats})
}

// WritePerf appends the phase timings for the window ending at windowEnd.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	rec := stats.ToCSV(windowEnd)
	rec.RunID = om.runID
	return om.perf.append([]PerfStatsCSV{rec})
}

// WriteBookmark appends a bookmark to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	b.RunID = om.runID
	return om.bookmarks.append([]Bookmark{b})
}

// WriteAgents appends one lifetime row per agent to agents.csv.
func (om *OutputManager) WriteAgents(rows []AgentSummary) error {
	if om == nil || len(rows) == 0 {
		return nil
	}
	for i := range rows {
		rows[i].RunID = om.runID
	}
	return om.agents.append(rows)
}

// WriteSnapshot saves snap under the snapshots directory and returns its path.
func (om *OutputManager) WriteSnapshot(snap *Snapshot) (string, error) {
	if om == nil {
		return "", nil
	}
	snap.RunID = om.runID
	return SaveSnapshot(snap, filepath.Join(om.dir, SnapshotDir))
}

// RunID returns the identifier stamped on every row written by this manager.
func (om *OutputManager) RunID() string {
	if om == nil {
		return ""
	}
	return om.runID
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes every open file and returns the first error.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var firstErr error
	for _, s := range []*csvStream{om.telemetry, om.perf, om.bookmarks, om.agents} {
		if s == nil {
			continue
		}
		if err := s.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

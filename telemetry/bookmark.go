package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkCollisionSpike   BookmarkType = "collision_spike"
	BookmarkAvoidanceStorm   BookmarkType = "avoidance_storm"
	BookmarkDirectionFailure BookmarkType = "direction_failure"
	BookmarkCalmWaters       BookmarkType = "calm_waters"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	RunID       string       `csv:"run_id" json:"-"`
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        int32        `csv:"tick" json:"tick"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// Thresholds for bookmark detection.
const (
	spikeFactor         = 2.0
	minSpikeCollisions  = 3
	minStormAvoidRate   = 0.5 // avoid decisions per agent-second
	failureRateTrigger  = 0.05
	minFailures         = 3
	calmWindowsRequired = 5
	calmMaxCV2          = 0.04 // squared coefficient of variation, CV < 0.2
)

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	failing          bool // last window already raised a direction failure
	calmWindowsCount int  // consecutive collision-free windows with steady avoidance
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < calmWindowsRequired {
		historySize = calmWindowsRequired
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkCollisionSpike(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkAvoidanceStorm(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkCalmWaters(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	// Failures are worth flagging even in the first window.
	if b := bd.checkDirectionFailure(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkCollisionSpike(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 || stats.Collisions < minSpikeCollisions {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.CollisionRate
	}
	avg := total / float64(len(history))

	// A spike out of a clean history counts too.
	if avg == 0 || stats.CollisionRate > avg*spikeFactor {
		desc := fmt.Sprintf("%d collisions, rate %.3f (average %.3f)", stats.Collisions, stats.CollisionRate, avg)
		return &Bookmark{
			Type:        BookmarkCollisionSpike,
			Tick:        stats.WindowEndTick,
			Description: desc,
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkAvoidanceStorm(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 || stats.AvoidRate < minStormAvoidRate {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.AvoidRate
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	if stats.AvoidRate > avg*spikeFactor {
		return &Bookmark{
			Type:        BookmarkAvoidanceStorm,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Avoid rate %.2f is %.1fx average (%.2f)", stats.AvoidRate, stats.AvoidRate/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkDirectionFailure(stats WindowStats) *Bookmark {
	failing := stats.NoDirection >= minFailures && stats.FailureRate > failureRateTrigger
	defer func() { bd.failing = failing }()

	// Only the first window of a failing run raises a bookmark.
	if !failing || bd.failing {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkDirectionFailure,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d decisions found no free direction (%.0f%%)", stats.NoDirection, stats.FailureRate*100),
	}
}

func (bd *BookmarkDetector) checkCalmWaters(stats WindowStats) *Bookmark {
	if stats.Agents == 0 || stats.Collisions > 0 || stats.NoDirection > 0 {
		bd.calmWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	// Check variance of the avoid rate in recent windows
	recent := history[len(history)-4:]
	var sum float64
	for _, h := range recent {
		sum += h.AvoidRate
	}
	mean := sum / 4

	var variance float64
	for _, h := range recent {
		d := h.AvoidRate - mean
		variance += d * d
	}
	variance /= 4

	cv2 := 0.0
	if mean > 0 {
		cv2 = variance / (mean * mean)
	}

	if cv2 < calmMaxCV2 {
		bd.calmWindowsCount++
	} else {
		bd.calmWindowsCount = 0
	}

	if bd.calmWindowsCount == calmWindowsRequired { // trigger exactly once
		return &Bookmark{
			Type:        BookmarkCalmWaters,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d agents collision-free over %d windows", stats.Agents, calmWindowsRequired),
		}
	}
	return nil
}

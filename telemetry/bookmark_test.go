package telemetry

import (
	"testing"
)

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_CollisionSpike(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{
			WindowEndTick: int32(i * 300),
			Agents:        48,
			Collisions:    1,
			CollisionRate: 0.004,
		})
	}

	spike := WindowStats{
		WindowEndTick: 1500,
		Agents:        48,
		Collisions:    6,
		CollisionRate: 0.025,
	}
	if !hasBookmark(bd.Check(spike), BookmarkCollisionSpike) {
		t.Error("expected collision_spike bookmark")
	}
}

func TestBookmarkDetector_CollisionSpikeNeedsEnoughCollisions(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 300), Agents: 48})
	}

	// A single stray bump out of a clean history is not a spike
	stray := WindowStats{WindowEndTick: 1500, Agents: 48, Collisions: 1, CollisionRate: 0.004}
	if hasBookmark(bd.Check(stray), BookmarkCollisionSpike) {
		t.Error("unexpected collision_spike bookmark")
	}
}

func TestBookmarkDetector_AvoidanceStorm(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 300), Agents: 48, AvoidRate: 0.4})
	}

	storm := WindowStats{WindowEndTick: 1500, Agents: 48, AvoidRate: 1.2}
	if !hasBookmark(bd.Check(storm), BookmarkAvoidanceStorm) {
		t.Error("expected avoidance_storm bookmark")
	}
}

func TestBookmarkDetector_DirectionFailure(t *testing.T) {
	bd := NewBookmarkDetector(10)

	failing := WindowStats{WindowEndTick: 300, Agents: 48, NoDirection: 10, FailureRate: 0.2}

	// Raised on the first window of a failing run, even with no history
	if !hasBookmark(bd.Check(failing), BookmarkDirectionFailure) {
		t.Error("expected direction_failure bookmark")
	}

	failing.WindowEndTick = 600
	if hasBookmark(bd.Check(failing), BookmarkDirectionFailure) {
		t.Error("direction_failure should not repeat while still failing")
	}

	bd.Check(WindowStats{WindowEndTick: 900, Agents: 48})

	failing.WindowEndTick = 1200
	if !hasBookmark(bd.Check(failing), BookmarkDirectionFailure) {
		t.Error("expected direction_failure bookmark after recovery")
	}
}

func TestBookmarkDetector_CalmWaters(t *testing.T) {
	bd := NewBookmarkDetector(10)

	triggered := 0
	for i := 0; i < 15; i++ {
		bookmarks := bd.Check(WindowStats{
			WindowEndTick: int32(i * 300),
			Agents:        48,
			AvoidRate:     0.5,
		})
		if hasBookmark(bookmarks, BookmarkCalmWaters) {
			triggered++
		}
	}

	if triggered != 1 {
		t.Errorf("expected calm_waters exactly once, got %d", triggered)
	}
}

func TestBookmarkDetector_CalmWatersResetByCollision(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 15; i++ {
		stats := WindowStats{WindowEndTick: int32(i * 300), Agents: 48, AvoidRate: 0.5}
		// A collision every fourth window keeps the streak below five
		if i%4 == 3 {
			stats.Collisions = 1
		}
		if hasBookmark(bd.Check(stats), BookmarkCalmWaters) {
			t.Fatalf("unexpected calm_waters at window %d", i)
		}
	}
}

package steering

import (
	"container/heap"
)

// TimerHandle identifies a scheduled callback. The zero handle is never issued.
type TimerHandle uint64

// Clock schedules one-shot callbacks on the simulation timeline.
type Clock interface {
	// ScheduleOnce runs fn after delay seconds of simulation time.
	ScheduleOnce(delay float64, fn func()) TimerHandle
	// Cancel drops a pending callback. Unknown, fired or zero handles are ignored.
	Cancel(h TimerHandle)
}

// ManualClock is a cooperative Clock driven by Advance. Callbacks run on the
// goroutine calling Advance, in deadline order (ties in scheduling order).
// It is not safe for concurrent use; give each agent its own clock.
type ManualClock struct {
	now     float64
	nextID  TimerHandle
	seq     uint64
	queue   timerQueue
	pending map[TimerHandle]*timer
}

type timer struct {
	handle   TimerHandle
	deadline float64
	seq      uint64
	fn       func()
	index    int
}

// NewManualClock creates a clock at time zero.
func NewManualClock() *ManualClock {
	return &ManualClock{
		pending: make(map[TimerHandle]*timer),
	}
}

// Now returns the current simulation time in seconds.
func (c *ManualClock) Now() float64 {
	return c.now
}

// Pending returns the number of scheduled callbacks.
func (c *ManualClock) Pending() int {
	return len(c.pending)
}

// ScheduleOnce implements Clock. Negative delays fire on the next Advance.
func (c *ManualClock) ScheduleOnce(delay float64, fn func()) TimerHandle {
	if delay < 0 {
		delay = 0
	}
	c.nextID++
	c.seq++
	t := &timer{
		handle:   c.nextID,
		deadline: c.now + delay,
		seq:      c.seq,
		fn:       fn,
	}
	heap.Push(&c.queue, t)
	c.pending[t.handle] = t
	return t.handle
}

// Cancel implements Clock.
func (c *ManualClock) Cancel(h TimerHandle) {
	t, ok := c.pending[h]
	if !ok {
		return
	}
	heap.Remove(&c.queue, t.index)
	delete(c.pending, h)
}

// Advance moves time forward by dt and fires every callback whose deadline has
// been reached, including ones scheduled by callbacks fired during this call.
// Returns the number of callbacks fired.
// Now() inside a callback reads the callback's own deadline, so a callback
// that reschedules itself keeps its cadence whatever dt is.
func (c *ManualClock) Advance(dt float64) int {
	target := c.now
	if dt > 0 {
		target += dt
	}
	fired := 0
	for c.queue.Len() > 0 && c.queue[0].deadline <= target {
		t := heap.Pop(&c.queue).(*timer)
		delete(c.pending, t.handle)
		if t.deadline > c.now {
			c.now = t.deadline
		}
		t.fn()
		fired++
	}
	c.now = target
	return fired
}

// timerQueue is a min-heap ordered by deadline then scheduling order.
type timerQueue []*timer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].deadline != q[j].deadline {
		return q[i].deadline < q[j].deadline
	}
	return q[i].seq < q[j].seq
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	t := x.(*timer)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}

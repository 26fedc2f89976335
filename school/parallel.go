package school

import (
	"math"
	"runtime"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/schooling/steering"
)

// parallelThreshold is the minimum agent count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

// maxThreshold disables the worker pool.
const maxThreshold = math.MaxInt

// fishSnapshot captures what the apply phase needs about one agent.
type fishSnapshot struct {
	Entity ecs.Entity
	ID     uint32
	Agent  *steering.Agent
	Prev   mgl64.Vec3
}

// intent captures the outcome of one agent tick, applied after the parallel phase.
type intent struct {
	Decision      steering.Decision
	Wander        int // wander events fired during the tick
	QueryFailures int // world queries that failed during the tick
}

// workChunk represents a range of agents for a worker to process.
type workChunk struct {
	start, end int
	dt         float64
}

// parallelState holds resources for parallel steering.
type parallelState struct {
	snapshots  []fishSnapshot
	intents    []intent
	numWorkers int
	threshold  int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newParallelState(workers int) *parallelState {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &parallelState{
		numWorkers: workers,
		threshold:  parallelThreshold,
		snapshots:  make([]fishSnapshot, 0, 512),
		intents:    make([]intent, 0, 512),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(s *School) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(s)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker(s *School) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			s.computeChunk(chunk.start, chunk.end, chunk.dt)
			p.doneChan <- struct{}{}
		}
	}
}

// updateSteering ticks every agent. Agents only mutate themselves and the
// arena is read-only here, so chunks run concurrently.
func (s *School) updateSteering(dt float64) {
	// Phase A: Build snapshots (single-threaded)
	s.parallel.snapshots = s.parallel.snapshots[:0]

	query := s.fishFilter.Query()
	for query.Next() {
		entity := query.Entity()
		tr, _, _, fish, _ := query.Get()

		agent, ok := s.agents[fish.ID]
		if !ok {
			continue
		}

		s.parallel.snapshots = append(s.parallel.snapshots, fishSnapshot{
			Entity: entity,
			ID:     fish.ID,
			Agent:  agent,
			Prev:   tr.Position,
		})
	}

	n := len(s.parallel.snapshots)
	if n == 0 {
		return
	}

	if cap(s.parallel.intents) < n {
		s.parallel.intents = make([]intent, n)
	}
	s.parallel.intents = s.parallel.intents[:n]

	// Phase B: Compute - choose single or parallel based on agent count
	if n < s.parallel.threshold || s.parallel.numWorkers < 2 {
		s.computeChunk(0, n, dt)
	} else {
		s.computeParallel(n, dt)
	}
}

// computeParallel dispatches work to the worker pool.
func (s *School) computeParallel(n int, dt float64) {
	if !s.parallel.running {
		s.parallel.startWorkers(s)
	}

	numWorkers := s.parallel.numWorkers
	chunkSize := (n + numWorkers - 1) / numWorkers

	chunksDispatched := 0
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		s.parallel.workChan <- workChunk{start: start, end: end, dt: dt}
		chunksDispatched++
	}

	for i := 0; i < chunksDispatched; i++ {
		<-s.parallel.doneChan
	}
}

// computeChunk ticks a range of agents.
func (s *School) computeChunk(i0, i1 int, dt float64) {
	for i := i0; i < i1; i++ {
		snap := &s.parallel.snapshots[i]
		in := &s.parallel.intents[i]
		a := snap.Agent

		dirBefore, accelBefore := a.Wander().Events()
		failuresBefore := a.QueryFailures()

		in.Decision = a.Tick(dt)

		dirAfter, accelAfter := a.Wander().Events()
		in.Wander = (dirAfter - dirBefore) + (accelAfter - accelBefore)
		in.QueryFailures = a.QueryFailures() - failuresBefore
	}
}

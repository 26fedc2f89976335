package main

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/pthm-cable/schooling/config"
	"github.com/pthm-cable/schooling/school"
)

// failurePenalty weighs the no-direction fraction against the collision rate.
const failurePenalty = 2.0

// FitnessEvaluator runs schools with candidate parameters and scores them.
// Lower is better.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int32
	seeds      []int64
	baseConfig *config.Config

	mu          sync.Mutex
	bestFitness float64
	last        school.Result
}

// NewFitnessEvaluator creates an evaluator over the given seeds.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		bestFitness: 1e9,
	}
}

// Evaluate runs one school per seed in parallel and returns the mean fitness.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]school.Result, len(fe.seeds))

	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(i int, seed int64) {
			defer wg.Done()
			results[i] = fe.runSimulation(x, seed)
		}(i, seed)
	}
	wg.Wait()

	var total float64
	var mean school.Result
	for _, r := range results {
		total += computeFitness(r)
		mean.CollisionRate += r.CollisionRate
		mean.FailureRate += r.FailureRate
		mean.AvoidRate += r.AvoidRate
	}
	n := float64(len(results))
	fitness := total / n
	mean.CollisionRate /= n
	mean.FailureRate /= n
	mean.AvoidRate /= n

	fe.mu.Lock()
	fe.last = mean
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
	}
	fe.mu.Unlock()

	return fitness
}

// runSimulation runs a single school to maxTicks.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) school.Result {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	// Seeds already run concurrently.
	cfg.Sim.Workers = 1

	s := school.New(cfg, school.Options{
		Seed:   seed,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	defer s.Close()

	_ = s.Run(context.Background(), int(fe.maxTicks))
	return s.Summary()
}

// copyConfig returns a copy of the base config that is safe to modify.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Arena.Triggers = append([]config.TriggerConfig(nil), fe.baseConfig.Arena.Triggers...)
	cfg.Derived.Corrections = nil
	return &cfg
}

// computeFitness scores a run: collisions per agent-second plus a penalty for
// ticks where no direction was free.
func computeFitness(r school.Result) float64 {
	return r.CollisionRate + failurePenalty*r.FailureRate
}

// Last returns the mean rates of the most recent evaluation.
func (fe *FitnessEvaluator) Last() school.Result {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last
}

// BestFitness returns the lowest fitness seen so far.
func (fe *FitnessEvaluator) BestFitness() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestFitness
}

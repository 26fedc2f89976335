package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated steering statistics for a time window.
type WindowStats struct {
	RunID           string  `csv:"run_id"`
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	Agents   int `csv:"agents"`
	Avoiding int `csv:"avoiding"`

	// Decisions during window
	Avoids        int `csv:"avoids"`
	Clears        int `csv:"clears"`
	NoDirection   int `csv:"no_direction"`
	QueryFailures int `csv:"query_failures"`
	WanderEvents  int `csv:"wander_events"`

	// Contacts during window
	Collisions    int `csv:"collisions"`
	TriggerEnters int `csv:"trigger_enters"`
	Escapes       int `csv:"escapes"`

	// Rates per agent-second
	AvoidRate     float64 `csv:"avoid_rate"`
	CollisionRate float64 `csv:"collision_rate"`
	// Fraction of decisions that found no free direction
	FailureRate float64 `csv:"failure_rate"`

	// Speed distribution (sampled at window end)
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`

	// Turn rate magnitude in deg/s (sampled at window end)
	TurnMean float64 `csv:"turn_mean"`
	TurnP90  float64 `csv:"turn_p90"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Distribution summarises a sample.
type Distribution struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// Summarize calculates mean, population standard deviation and percentiles.
// The input is not modified.
func Summarize(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}

	mean, std := stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return Distribution{
		Mean: mean,
		Std:  std,
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("run_id", s.RunID),
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("agents", s.Agents),
		slog.Int("avoiding", s.Avoiding),
		slog.Int("avoids", s.Avoids),
		slog.Int("clears", s.Clears),
		slog.Int("no_direction", s.NoDirection),
		slog.Int("query_failures", s.QueryFailures),
		slog.Int("wander_events", s.WanderEvents),
		slog.Int("collisions", s.Collisions),
		slog.Int("trigger_enters", s.TriggerEnters),
		slog.Int("escapes", s.Escapes),
		slog.Float64("avoid_rate", s.AvoidRate),
		slog.Float64("collision_rate", s.CollisionRate),
		slog.Float64("failure_rate", s.FailureRate),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("speed_p10", s.SpeedP10),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("turn_mean", s.TurnMean),
		slog.Float64("turn_p90", s.TurnP90),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"agents", s.Agents,
		"avoiding", s.Avoiding,
		"avoids", s.Avoids,
		"clears", s.Clears,
		"no_direction", s.NoDirection,
		"query_failures", s.QueryFailures,
		"wander_events", s.WanderEvents,
		"collisions", s.Collisions,
		"trigger_enters", s.TriggerEnters,
		"escapes", s.Escapes,
		"avoid_rate", s.AvoidRate,
		"collision_rate", s.CollisionRate,
		"failure_rate", s.FailureRate,
		"speed_mean", s.SpeedMean,
		"speed_p50", s.SpeedP50,
		"turn_mean", s.TurnMean,
	)
}

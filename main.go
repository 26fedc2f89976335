package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/pthm-cable/schooling/config"
	"github.com/pthm-cable/schooling/school"
	"github.com/pthm-cable/schooling/telemetry"
)

// newLogger returns a JSON logger on stdout or a console logger on stderr.
func newLogger(format string) *slog.Logger {
	if format == "console" {
		handler := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
			ReportTimestamp: true,
			TimeFormat:      time.TimeOnly,
			Level:           charmlog.InfoLevel,
		})
		return slog.New(handler)
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	logFormat := flag.String("log-format", "json", "Log format: json or console")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for bookmark snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = run until interrupted)")
	agents := flag.Int("agents", 0, "Number of agents (0 = use config)")

	flag.Parse()

	logger := newLogger(*logFormat)
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	for _, c := range cfg.Derived.Corrections {
		slog.Warn("config corrected", "detail", c)
	}
	if *agents > 0 {
		cfg.Sim.Agents = *agents
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	var output *telemetry.OutputManager
	if *outputDir != "" {
		var err error
		output, err = telemetry.NewOutputManager(*outputDir)
		if err != nil {
			slog.Error("failed to create output directory", "error", err)
			os.Exit(1)
		}
		defer output.Close()

		if err := output.WriteConfig(cfg); err != nil {
			slog.Error("failed to write config snapshot", "error", err)
		}
		slog.Info("writing telemetry", "dir", output.Dir(), "run_id", output.RunID())
	}

	s := school.New(cfg, school.Options{
		Seed:        rngSeed,
		SnapshotDir: *snapshotDir,
		LogStats:    *logStats,
		Logger:      logger,
		Output:      output,
	})
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting simulation",
		"seed", rngSeed,
		"agents", cfg.Sim.Agents,
		"max_ticks", *maxTicks,
		"workers", cfg.Sim.Workers,
	)

	start := time.Now()
	err := s.Run(ctx, *maxTicks)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
	if errors.Is(err, context.Canceled) {
		slog.Info("interrupted", "tick", s.Tick())
	}

	if err := s.WriteAgentSummary(); err != nil {
		slog.Error("failed to write agent summary", "error", err)
	}

	r := s.Summary()
	slog.Info("run complete",
		"ticks", r.Ticks,
		"sim_seconds", r.SimSeconds,
		"wall", time.Since(start).Round(time.Millisecond),
		"collisions", r.Totals.Collisions,
		"no_direction", r.Totals.NoDirection,
		"escapes", r.Totals.Escapes,
		"collision_rate", r.CollisionRate,
		"failure_rate", r.FailureRate,
		"avoid_rate", r.AvoidRate,
	)
}

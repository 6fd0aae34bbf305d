package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ecosysx/terrarium/config"
	"github.com/ecosysx/terrarium/world"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Snapshot the effective config next to the CSV output
	if *outputDir != "" {
		if err := cfg.WriteYAML(filepath.Join(*outputDir, "config.yaml")); err != nil {
			slog.Error("failed to snapshot config", "error", err)
			os.Exit(1)
		}
	}

	w, err := world.New(cfg, world.Options{
		Seed:      rngSeed,
		OutputDir: *outputDir,
		LogStats:  *logStats,
	})
	if err != nil {
		slog.Error("failed to create world", "error", err)
		os.Exit(1)
	}
	defer w.Close()

	slog.Info("starting simulation",
		"seed", rngSeed,
		"population", w.Population(),
		"max_ticks", *maxTicks,
	)

	for {
		w.Step()

		if w.Population() == 0 {
			slog.Info("population extinct", "tick", w.Tick())
			return
		}
		if *maxTicks > 0 && w.Tick() >= *maxTicks {
			slog.Info("max ticks reached", "tick", w.Tick())
			return
		}
	}
}

// owiz CLI - exercises the runtime's memory substrate with a synthetic
// interpreter workload and reports heap statistics.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/chazu/owiz/config"
	"github.com/chazu/owiz/gc"
	"github.com/chazu/owiz/history"
	"github.com/chazu/owiz/logging"
	"github.com/chazu/owiz/machine"
)

func main() {
	configDir := flag.String("config", "", "Directory containing owiz.toml (default: search upwards from the working directory)")
	verbosity := flag.Int("v", 0, "Log verbosity (overrides owiz.toml)")
	logFile := flag.String("log", "", "Log file (overrides owiz.toml)")
	iterations := flag.Int("n", 100000, "Number of simulated calls")
	depth := flag.Int("depth", 16, "Maximum simulated call depth")
	stackSize := flag.Int("stack-size", 0, "Call stack slots (overrides owiz.toml)")
	full := flag.Bool("full", false, "Run a full collection before reporting")
	verboseGC := flag.Bool("verbose-gc", false, "Report every collection at info level")
	statsFile := flag.String("stats", "", "Write the final heap statistics to this file as CBOR")
	statsDB := flag.String("stats-db", "", "Append the final heap statistics to this SQLite database")
	label := flag.String("label", "churn", "Label recorded with -stats-db")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: owiz [options]\n\n")
		fmt.Fprintf(os.Stderr, "Runs a synthetic call/allocate workload against a fresh machine and prints heap statistics.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  owiz -n 1000000 -full             # Long run, full collection at the end\n")
		fmt.Fprintf(os.Stderr, "  owiz -stats-db runs.db -label ci  # Record the run in a history database\n")
	}
	flag.Parse()

	cfg, err := loadConfig(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "v":
			cfg.Log.Verbosity = *verbosity
		case "log":
			cfg.Log.File = *logFile
		case "stack-size":
			cfg.Stack.Size = *stackSize
		case "verbose-gc":
			cfg.Memory.Verbose = *verboseGC
		}
	})

	logging.Init(cfg.Log.Verbosity, cfg.Log.File)
	logging.FlushOnSignals()

	if err := run(cfg, *iterations, *depth, *full, *statsFile, *statsDB, *label); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logging.Exit(1)
	}
	logging.Exit(0)
}

func loadConfig(dir string) (config.Config, error) {
	if dir != "" {
		c, err := config.Load(dir)
		if err != nil {
			return config.Config{}, err
		}
		return *c, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return config.Config{}, err
	}
	c, err := config.FindAndLoad(wd)
	if err != nil {
		return config.Config{}, err
	}
	if c == nil {
		return config.Default(), nil
	}
	return *c, nil
}

func run(cfg config.Config, iterations, depth int, full bool, statsFile, statsDB, label string) error {
	m, err := machine.New(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	w := newWorkload(m, depth)
	if err := w.Run(iterations); err != nil {
		return err
	}
	if full {
		m.GC(true)
	}

	st := m.Heap.Stats()
	printStats(m, w, st)

	if statsFile != "" {
		data, err := gc.EncodeStats(st)
		if err != nil {
			return err
		}
		if err := os.WriteFile(statsFile, data, 0644); err != nil {
			return fmt.Errorf("cannot write %s: %w", statsFile, err)
		}
	}
	if statsDB != "" {
		ctx := context.Background()
		db, err := history.Open(ctx, statsDB)
		if err != nil {
			return err
		}
		defer db.Close()
		if _, err := db.Record(ctx, m.ID, label, st); err != nil {
			return err
		}
		sum, err := db.Summarize(ctx, m.ID)
		if err != nil {
			return err
		}
		fmt.Printf("Recorded snapshot %d for machine %s\n", sum.Snapshots, m.ID)
	}
	return nil
}

func printStats(m *machine.Machine, w *workload, st gc.Stats) {
	fmt.Printf("Machine %s\n", m.ID)
	fmt.Printf("  calls:            %d (max depth %d, %d frame records)\n", w.calls, w.maxDepth, m.Stack.FrameAllocations())
	fmt.Printf("  stack overflows:  %d\n", w.overflows)
	fmt.Printf("  symbols:          %d\n", m.Symbols.Len())
	fmt.Printf("  collections:      %d (%d fast, %d full)\n", st.Collections, st.FastCollections, st.FullCollections)
	fmt.Printf("  allocated:        %d B total, %d B live in %d objects\n", st.TotalAllocated, st.Allocated, st.Objects())
	fmt.Printf("  freed:            %d B\n", st.TotalFreed)
	fmt.Printf("  threshold:        %d B (limit %d B)\n", st.Threshold, st.AllocateMax)
	fmt.Printf("  last collection:  %s, %d B freed in %s\n", st.LastType, st.LastFreed, st.LastPause)
}

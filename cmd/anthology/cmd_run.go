package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/anthology/internal/config"
	"github.com/talgya/anthology/internal/engine"
	"github.com/talgya/anthology/internal/knowledge"
	"github.com/talgya/anthology/internal/persistence"
)

type runOptions struct {
	ticks       uint64
	seed        int64
	interval    time.Duration
	dbPath      string
	noDB        bool
	snapshotDir string
}

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run <world-file>",
		Short: "Run a world until every agent is content, the tick limit or Ctrl+C",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := root.settings
			if cmd.Flags().Changed("seed") {
				s.Seed = opts.seed
			}
			if cmd.Flags().Changed("interval") {
				s.TickInterval = opts.interval
			}
			if cmd.Flags().Changed("db") {
				s.DBPath = opts.dbPath
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWorld(ctx, cmd, args[0], s, opts)
		},
	}
	cmd.Flags().Uint64Var(&opts.ticks, "ticks", 0, "stop after this many ticks (0 = unbounded)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed (0 = random)")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "wall-clock time per tick (0 = as fast as possible)")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "SQLite history database")
	cmd.Flags().BoolVar(&opts.noDB, "no-db", false, "run without a history database")
	cmd.Flags().StringVar(&opts.snapshotDir, "snapshot-dir", "", "write a compressed snapshot here on exit")
	return cmd
}

func runWorld(ctx context.Context, cmd *cobra.Command, worldPath string, s config.Settings, opts *runOptions) error {
	w, err := config.Load(worldPath)
	if err != nil {
		return err
	}
	m, err := config.Build(w)
	if err != nil {
		return err
	}
	sim, err := engine.NewSimulation(m.Catalog, m.Graph, m.Agents, s.EngineConfig())
	if err != nil {
		return err
	}

	var (
		db      *persistence.DB
		history engine.History
		runID   string
	)
	if !opts.noDB {
		db, err = persistence.Open(s.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		runID, err = db.BeginRun(ctx, sim.Seed, worldPath)
		if err != nil {
			return err
		}
		history = db
	}

	orch := engine.NewOrchestrator(sim, knowledge.NewRecorder(), history)
	if err := orch.Init(ctx); err != nil {
		return err
	}

	save := func(reason string) {
		if db == nil {
			return
		}
		// The run context may already be cancelled on shutdown.
		if err := db.SaveWorldState(context.WithoutCancel(ctx), sim); err != nil {
			slog.Error("save failed", "reason", reason, "error", err)
		}
	}

	eng := engine.NewEngine(sim)
	eng.Interval = s.TickInterval
	eng.MaxTicks = opts.ticks
	eng.OnTick = func(tick uint64) {
		if err := orch.Observe(ctx, 1); err != nil {
			slog.Warn("observe failed", "tick", tick, "error", err)
		}
		if s.SaveEvery > 0 && tick%s.SaveEvery == 0 {
			save("autosave")
		}
	}
	eng.OnDay = func(tick uint64) {
		slog.Info("day complete", "sim_time", engine.SimTime(tick), "content", sim.Snapshot().Stats.Content)
	}

	save("initial")
	if err := eng.Run(ctx); err != nil {
		return err
	}
	save("final")

	snap := sim.Snapshot()
	if opts.snapshotDir != "" {
		path := filepath.Join(opts.snapshotDir, fmt.Sprintf("tick-%d.json.zst", snap.Tick))
		if err := persistence.WriteSnapshot(path, persistence.CaptureSnapshot(sim, runID)); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		slog.Info("snapshot written", "path", path)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Stopped at tick %d (%s), seed %d\n", snap.Tick, engine.SimTime(snap.Tick), snap.Seed)
	fmt.Fprintf(out, "Decisions %d, executed %d, arrivals %d, deadlocks %d, content %d/%d\n",
		snap.Stats.Decisions, snap.Stats.Executed, snap.Stats.Arrivals,
		snap.Stats.Deadlocks, snap.Stats.Content, len(snap.Agents))
	fmt.Fprintf(out, "Average motives: %s\n", formatMotives(sim.MotiveAverages()))
	fmt.Fprintf(out, "Busiest locations: %s\n", strings.Join(sim.Crowded(3), ", "))
	if totals := sim.ActionTotals(); len(totals) > 0 {
		fmt.Fprintf(out, "Completed actions: %s\n", formatCounts(totals))
	}
	if runID != "" {
		fmt.Fprintf(out, "Run %s saved to %s\n", runID, s.DBPath)
	}
	return nil
}

// formatCounts renders counts as name×n, most frequent first.
func formatCounts(counts map[string]int) string {
	names := make([]string, 0, len(counts))
	for k := range counts {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, fmt.Sprintf("%s×%d", k, counts[k]))
	}
	return strings.Join(parts, ", ")
}

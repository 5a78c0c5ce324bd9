package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/talgya/anthology/internal/persistence"
)

type historyOptions struct {
	dbPath string
	run    string
	agent  string
	agents bool
}

func newHistoryCommand(root *rootOptions) *cobra.Command {
	opts := &historyOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs, or show one agent's logged changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := root.settings.DBPath
			if cmd.Flags().Changed("db") {
				path = opts.dbPath
			}
			db, err := persistence.Open(path)
			if err != nil {
				return err
			}
			defer db.Close()
			return showHistory(cmd, db, opts)
		},
	}
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "SQLite history database")
	cmd.Flags().StringVar(&opts.run, "run", "", "run ID (default: the latest run)")
	cmd.Flags().StringVar(&opts.agent, "agent", "", "print the change log of this agent")
	cmd.Flags().BoolVar(&opts.agents, "agents", false, "print the agent state of the last save")
	return cmd
}

func showHistory(cmd *cobra.Command, db *persistence.DB, opts *historyOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	runs, err := db.Runs(ctx)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	switch {
	case opts.agents:
		rows, err := db.LoadAgents(ctx)
		if err != nil {
			return fmt.Errorf("load agents: %w", err)
		}
		for _, r := range rows {
			var motives map[string]float64
			if err := json.Unmarshal([]byte(r.MotivesJSON), &motives); err != nil {
				return fmt.Errorf("decode motives of %q: %w", r.Name, err)
			}
			fmt.Fprintf(out, "%-12s %-10s %-16s %-9s %s\n",
				r.Name, r.Location, r.CurrentAction, r.State, formatMotives(motives))
		}
		return nil

	case opts.agent != "":
		run := opts.run
		if run == "" {
			if len(runs) == 0 {
				return fmt.Errorf("no runs recorded")
			}
			run = runs[len(runs)-1].ID
		}
		recs, err := db.NPCHistory(ctx, run, opts.agent)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s in run %s: %d changes\n", opts.agent, run, len(recs))
		for _, r := range recs {
			where := r.Location
			if r.Destination != "" {
				where += "→" + r.Destination
			}
			fmt.Fprintf(out, "  %6d %-10s %-16s %s\n", r.Tick, where, r.CurrentAction, formatMotives(r.Motives))
		}
		return nil
	}

	for _, r := range runs {
		fmt.Fprintf(out, "%s  seed %-20d %s  %s\n", r.ID, r.Seed, r.StartedAt, r.World)
	}
	fmt.Fprintf(out, "%d runs\n", len(runs))
	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/talgya/anthology/internal/engine"
	"github.com/talgya/anthology/internal/persistence"
	"github.com/talgya/anthology/internal/social"
)

func newSnapshotCommand() *cobra.Command {
	var (
		asJSON     bool
		headerOnly bool
	)
	cmd := &cobra.Command{
		Use:   "snapshot <file.json.zst>",
		Short: "Show the contents of a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if headerOnly {
				h, err := persistence.ReadSnapshotHeader(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "version %d, run %s, tick %d, seed %d, %d agents\n",
					h.Version, h.Run, h.Tick, h.Seed, h.Agents)
				return nil
			}

			sf, err := persistence.ReadSnapshot(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(sf)
			}
			printSnapshot(cmd, sf)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the decoded snapshot as JSON")
	cmd.Flags().BoolVar(&headerOnly, "header", false, "print only the header")
	return cmd
}

func printSnapshot(cmd *cobra.Command, sf persistence.SnapshotFile) {
	out := cmd.OutOrStdout()
	s := sf.Snapshot
	fmt.Fprintf(out, "Tick %d (%s), seed %d, run %s\n", s.Tick, engine.SimTime(s.Tick), s.Seed, sf.Header.Run)
	for _, a := range s.Agents {
		where := a.CurrentLocation
		if a.Destination != "" {
			where += "→" + a.Destination
		}
		fmt.Fprintf(out, "  %-12s %-10s %-16s %s\n", a.Name, where, a.CurrentAction, formatMotives(a.Motives))
		if types := social.SortedTypes(a.Relationships); len(types) > 0 {
			fmt.Fprintf(out, "  %-12s relationships: %s\n", "", strings.Join(types, ", "))
		}
		if len(a.Recent) > 0 {
			done := make([]string, 0, len(a.Recent))
			for _, m := range a.Recent {
				done = append(done, fmt.Sprintf("%s@%s", m.Action, m.Location))
			}
			fmt.Fprintf(out, "  %-12s recently: %s\n", "", strings.Join(done, ", "))
		}
	}
	fmt.Fprintf(out, "%d events retained\n", len(sf.Events))
}

// formatMotives renders motives as name=value pairs in name order.
func formatMotives(m map[string]float64) string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, fmt.Sprintf("%s=%g", k, m[k]))
	}
	return strings.Join(parts, " ")
}

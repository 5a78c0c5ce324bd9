package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/talgya/anthology/internal/actions"
	"github.com/talgya/anthology/internal/agents"
	"github.com/talgya/anthology/internal/config"
	"github.com/talgya/anthology/internal/entropy"
	"github.com/talgya/anthology/internal/world"
)

type generateOptions struct {
	locations     int
	agents        int
	actions       int
	relationships int
	seed          int64
	out           string
}

func newGenerateCommand(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a random world file for stress runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			seed := opts.seed
			if !cmd.Flags().Changed("seed") {
				seed = root.settings.Seed
			}
			return generateWorld(cmd, entropy.SeedOrRandom(seed), opts)
		},
	}
	cmd.Flags().IntVar(&opts.locations, "locations", world.DefaultGenConfig().Locations, "number of locations")
	cmd.Flags().IntVar(&opts.agents, "agents", 10, "number of agents")
	cmd.Flags().IntVar(&opts.actions, "actions", 30, "number of primary actions")
	cmd.Flags().IntVar(&opts.relationships, "relationships", 0, "random relationships to draw between agents")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed (0 = random)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "world.yaml", "output file (.yaml, .yml or .json)")
	return cmd
}

func generateWorld(cmd *cobra.Command, seed int64, opts *generateOptions) error {
	gc := world.DefaultGenConfig()
	gc.Locations = opts.locations
	gc.Seed = seed
	nodes, err := world.GenerateLocations(gc)
	if err != nil {
		return err
	}
	g, err := world.Build(nodes)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	ag, err := agents.NewSpawner(seed).Spawn(agents.SpawnConfig{
		Count:         opts.agents,
		Seed:          seed,
		Relationships: opts.relationships,
	}, names)
	if err != nil {
		return err
	}

	m := &config.Model{
		Motives: actions.GeneratedMotives,
		Catalog: actions.GeneratePrimary(opts.actions, seed),
		Graph:   g,
		Agents:  ag,
	}
	if err := config.Save(opts.out, config.Export(m)); err != nil {
		return err
	}
	slog.Info("world generated", "seed", seed, "path", opts.out)
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d locations, %d agents, %d actions to %s (seed %d)\n",
		g.Len(), len(ag), m.Catalog.Len()-2, opts.out, seed)
	fmt.Fprintf(cmd.OutOrStdout(), "Tags: %s\n", formatCounts(world.TagCounts(nodes)))
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/talgya/anthology/internal/config"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <world-file>",
		Short: "Check a world file or paths file without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := config.Load(args[0])
			if err != nil {
				return err
			}
			m, err := config.Build(w)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d motives, %d actions, %d agents, %d locations)\n",
				args[0], len(m.Motives), m.Catalog.Len(), len(m.Agents), m.Graph.Len())
			return nil
		},
	}
}

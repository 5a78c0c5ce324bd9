// Command anthology runs the NPC motive simulation.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/anthology/internal/config"
)

// rootOptions are shared by every subcommand.
type rootOptions struct {
	settingsPath string
	logLevel     string

	settings config.Settings
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "anthology",
		Short:         "Motive-driven NPC simulation over a location graph",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&opts.settingsPath, "settings", "anthology.yaml", "runtime settings file (optional)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the settings log level (debug|info|warn|error)")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		s, err := config.LoadSettings(opts.settingsPath)
		if err != nil {
			return err
		}
		if opts.logLevel != "" {
			s.LogLevel = opts.logLevel
		}
		opts.settings = s
		installLogger(cmd.ErrOrStderr(), s)
		return nil
	}

	cmd.AddCommand(
		newRunCommand(opts),
		newGenerateCommand(opts),
		newValidateCommand(),
		newSnapshotCommand(),
		newHistoryCommand(opts),
	)
	return cmd
}

func installLogger(w io.Writer, s config.Settings) {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: s.SlogLevel(),
	}))
	slog.SetDefault(logger)
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// ABOUTME: refgraph command line entry point
// ABOUTME: Wires configuration, logging and the extract and query commands

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/prateek/refgraph"
	"github.com/prateek/refgraph/internal/config"
	"github.com/prateek/refgraph/internal/logging"
)

type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:          "refgraph",
		Short:        "Extract and query object reference graphs",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Config file path")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Log format (text, json)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the refgraph version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "refgraph %s\n", refgraph.Version)
		},
	}

	rootCmd.AddCommand(
		newExtractCmd(&flags),
		newPathsCmd(&flags),
		newCyclesCmd(&flags),
		newRetainedCmd(&flags),
		newStatsCmd(&flags),
		versionCmd,
	)
	return rootCmd
}

// setup loads configuration, applies flag overrides and builds the logger.
// Logs go to the command's error stream.
func setup(cmd *cobra.Command, flags *globalFlags) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	for _, warning := range cfg.Validate() {
		logger.Warn("config", slog.String("warning", warning))
	}
	return cfg, logger, nil
}

// Command treemap builds and serves the Montréal tree timeline.
//
// Subcommands:
//
//	combine   merge raw CSV extracts into the consolidated dataset
//	serve     serve the map page, dataset, and year-query API
//	validate  check a consolidated dataset against its invariants
//	genmock   generate deterministic mock extracts for tests and demos
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"montreal-tree-map/internal/config"
	"montreal-tree-map/internal/observability"
)

var rootCmd = &cobra.Command{
	Use:           "treemap",
	Short:         "Montréal tree timeline: normalizer and viewer",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "treemap:", err)
		os.Exit(1)
	}
}

// setup loads the shared config and builds the logger from it.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, observability.NewLogger(cfg.LogLevel, cfg.LogFormat), nil
}

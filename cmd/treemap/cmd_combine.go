package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"montreal-tree-map/internal/adapter/csvfile"
	"montreal-tree-map/internal/config"
	"montreal-tree-map/internal/observability"
	"montreal-tree-map/internal/pipeline"
)

var (
	combineOut     string
	combineColumns string
)

var combineCmd = &cobra.Command{
	Use:   "combine [flags] source.csv [source.csv ...]",
	Short: "Merge raw tree CSV extracts into the consolidated dataset",
	Long: `Combine reads the open-data CSV extracts in the order given, validates
every row (planting year, coordinates, duplicates), and writes one
consolidated GeoJSON dataset. Rejected rows are counted per reason and
reported; they never abort the run. A missing or unreadable source does.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCombine,
}

func init() {
	combineCmd.Flags().StringVarP(&combineOut, "out", "o", "", "output path (default: DATASET_PATH)")
	combineCmd.Flags().StringVar(&combineColumns, "columns", "", "YAML column mapping (default: Montréal open-data headers)")
	rootCmd.AddCommand(combineCmd)
}

func runCombine(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	metrics := observability.NewMetrics()

	mapping := config.DefaultColumns()
	if combineColumns != "" {
		mapping, err = config.LoadColumns(combineColumns)
		if err != nil {
			return err
		}
	}

	out := combineOut
	if out == "" {
		out = cfg.DatasetPath
	}

	sources := make([]pipeline.RowSource, 0, len(args))
	for _, path := range args {
		sources = append(sources, csvfile.New(path, mapping))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(sources, pipeline.NewTransformer(), pipeline.NewFileLoader(out), logger, metrics)
	report, err := p.Run(ctx)
	if err != nil {
		return err
	}

	report.Log(logger)
	logger.Info("dataset written", "path", out, "records", report.Records)
	return nil
}

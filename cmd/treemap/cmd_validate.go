package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/spf13/cobra"

	"montreal-tree-map/internal/adapter/csvfile"
	"montreal-tree-map/internal/config"
	"montreal-tree-map/internal/dataset"
	"montreal-tree-map/internal/domain"
	"montreal-tree-map/internal/observability"
	"montreal-tree-map/internal/pipeline"
	"montreal-tree-map/internal/viewer"
)

var (
	validateDataset string
	validateColumns string
)

var validateCmd = &cobra.Command{
	Use:   "validate --dataset trees_combined.json [source.csv ...]",
	Short: "Check a consolidated dataset against its invariants",
	Long: `Validate verifies a consolidated dataset: record invariants (years in
range, coordinates plausible, ids unique), metadata consistency, and the
year index. When the original source CSVs are given, it additionally
re-runs the normalization in memory and checks the dataset matches.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateDataset, "dataset", "", "path to the consolidated dataset (default: DATASET_PATH)")
	validateCmd.Flags().StringVar(&validateColumns, "columns", "", "YAML column mapping for the source CSVs")
	rootCmd.AddCommand(validateCmd)
}

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	path := validateDataset
	if path == "" {
		path = cfg.DatasetPath
	}

	result, err := dataset.Load(path)
	if err != nil {
		return err
	}

	fmt.Println("=== Tree Dataset Validation ===")
	fmt.Println()

	phases := []*phase{
		validateRecords(result),
		validateMetadata(result),
		validateYearIndex(result),
	}

	if len(args) > 0 {
		mapping := config.DefaultColumns()
		if validateColumns != "" {
			mapping, err = config.LoadColumns(validateColumns)
			if err != nil {
				return err
			}
		}
		p, err := validateSourceParity(cmd.Context(), args, mapping, result, logger)
		if err != nil {
			return err
		}
		phases = append(phases, p)
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}
	fmt.Printf("\nRecords: %d (skipped features: %d)\n", len(result.Records), result.Skipped)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if !allPassed {
		return fmt.Errorf("validation failed")
	}
	fmt.Println("\nAll validations passed.")
	return nil
}

// validateRecords checks the per-record invariants every consolidated
// dataset must satisfy.
func validateRecords(result dataset.LoadResult) *phase {
	p := &phase{name: "Phase 1: Record invariants"}

	seen := make(map[string]int, len(result.Records))
	for i, rec := range result.Records {
		if rec.ID == "" {
			p.errorf("record %d: empty id", i)
		} else if prev, dup := seen[rec.ID]; dup {
			p.errorf("record %d: duplicate id %q (first at %d)", i, rec.ID, prev)
		} else {
			seen[rec.ID] = i
		}

		if rec.PlantedYear < domain.MinPlantedYear || rec.PlantedYear > domain.MaxPlantedYear {
			p.errorf("record %d (%s): planted_year %d outside [%d, %d]", i, rec.ID, rec.PlantedYear, domain.MinPlantedYear, domain.MaxPlantedYear)
		}
		if math.Abs(rec.Latitude) < 10 || math.Abs(rec.Longitude) < 10 {
			p.errorf("record %d (%s): null-sentinel coordinates (%g, %g)", i, rec.ID, rec.Latitude, rec.Longitude)
		} else if rec.Latitude < domain.MinLatitude || rec.Latitude > domain.MaxLatitude ||
			rec.Longitude < domain.MinLongitude || rec.Longitude > domain.MaxLongitude {
			p.errorf("record %d (%s): coordinates (%g, %g) outside Montréal box", i, rec.ID, rec.Latitude, rec.Longitude)
		}
		if rec.Species == "" {
			p.errorf("record %d (%s): empty species", i, rec.ID)
		}
	}
	return p
}

// validateMetadata cross-checks the metadata block against the features.
func validateMetadata(result dataset.LoadResult) *phase {
	p := &phase{name: "Phase 2: Metadata consistency"}

	meta := result.Metadata
	if meta == nil {
		p.errorf("dataset has no metadata block")
		return p
	}

	if meta.TotalTrees != len(result.Records)+result.Skipped {
		p.errorf("total_trees %d != %d features", meta.TotalTrees, len(result.Records)+result.Skipped)
	}

	speciesSet := make(map[string]bool, len(meta.Species))
	for _, s := range meta.Species {
		speciesSet[s] = true
	}
	for i, rec := range result.Records {
		if !speciesSet[rec.Species] {
			p.errorf("record %d (%s): species %q missing from metadata list", i, rec.ID, rec.Species)
		}
	}

	if len(result.Records) > 0 {
		minYear, maxYear := result.Records[0].PlantedYear, result.Records[0].PlantedYear
		for _, rec := range result.Records[1:] {
			minYear = min(minYear, rec.PlantedYear)
			maxYear = max(maxYear, rec.PlantedYear)
		}
		if meta.YearRange.Min == nil || *meta.YearRange.Min != minYear {
			p.errorf("year_range.min does not match records (want %d)", minYear)
		}
		if meta.YearRange.Max == nil || *meta.YearRange.Max != maxYear {
			p.errorf("year_range.max does not match records (want %d)", maxYear)
		}
	}
	return p
}

// validateYearIndex builds the viewer index and checks the cumulative
// query is monotonic and accounts for every record.
func validateYearIndex(result dataset.LoadResult) *phase {
	p := &phase{name: "Phase 3: Year index"}

	store := viewer.New(result.Records, result.Metadata)

	total := 0
	for _, y := range store.Years() {
		total += store.YearCount(y)
	}
	if total != store.Len() {
		p.errorf("year counts sum to %d, want %d", total, store.Len())
	}

	prev := 0
	for _, y := range store.Years() {
		n := len(store.Query(y, viewer.ModeCumulative))
		if n < prev {
			p.errorf("cumulative count shrank at year %d: %d < %d", y, n, prev)
		}
		prev = n
	}
	if minYear, maxYear, ok := store.YearRange(); ok {
		if n := len(store.Query(maxYear, viewer.ModeCumulative)); n != store.Len() {
			p.errorf("cumulative query at %d returns %d of %d records", maxYear, n, store.Len())
		}
		if n := len(store.Query(minYear-1, viewer.ModeCumulative)); n != 0 {
			p.errorf("cumulative query before %d returns %d records", minYear, n)
		}
	}
	return p
}

// validateSourceParity re-runs the normalization in memory and compares
// the resulting record sequence with the dataset on disk.
func validateSourceParity(ctx context.Context, paths []string, mapping config.ColumnMapping, result dataset.LoadResult, logger *slog.Logger) (*phase, error) {
	p := &phase{name: "Phase 4: Source parity"}

	sources := make([]pipeline.RowSource, 0, len(paths))
	for _, path := range paths {
		sources = append(sources, csvfile.New(path, mapping))
	}

	var captured dataset.FeatureCollection
	loader := loaderFunc(func(fc dataset.FeatureCollection) error {
		captured = fc
		return nil
	})

	pl := pipeline.New(sources, pipeline.NewTransformer(), loader, logger, observability.NewMetricsForTesting())
	report, err := pl.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("re-run normalization: %w", err)
	}

	if report.Records != len(result.Records) {
		p.errorf("sources produce %d records, dataset has %d", report.Records, len(result.Records))
		return p, nil
	}

	// Roundtrip through the wire encoding so property types match what
	// Load produced from disk.
	encoded, err := dataset.Encode(captured)
	if err != nil {
		return nil, err
	}
	rerun, err := dataset.Decode(encoded)
	if err != nil {
		return nil, err
	}
	for i, rec := range rerun.Records {
		if rec.ID != result.Records[i].ID {
			p.errorf("record %d: id mismatch: sources %q, dataset %q", i, rec.ID, result.Records[i].ID)
		}
	}
	return p, nil
}

type loaderFunc func(dataset.FeatureCollection) error

func (f loaderFunc) Load(fc dataset.FeatureCollection) error { return f(fc) }

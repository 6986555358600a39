package main

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"montreal-tree-map/internal/adapter/csvfile"
	"montreal-tree-map/internal/config"
	"montreal-tree-map/internal/domain"
	"montreal-tree-map/internal/observability"
	"montreal-tree-map/internal/pipeline"
)

var (
	genmockOutDir   string
	genmockFiles    int
	genmockRows     int
	genmockSeed     int64
	genmockExpected bool
)

var genmockCmd = &cobra.Command{
	Use:   "genmock",
	Short: "Generate deterministic mock CSV extracts",
	Long: `Genmock writes mock open-data extracts shaped like the Ville de
Montréal tree CSVs, including a sprinkling of the real feed's defects
(sentinel years, null-island coordinates, missing dates, ragged rows).
Output is deterministic for a given seed. With --expected it also runs
the normalizer over the generated files and writes the consolidated
dataset they should produce, with a frozen generated_at timestamp.`,
	Args: cobra.NoArgs,
	RunE: runGenmock,
}

func init() {
	genmockCmd.Flags().StringVar(&genmockOutDir, "out-dir", "testdata/mock", "directory for the generated extracts")
	genmockCmd.Flags().IntVar(&genmockFiles, "files", 3, "number of extract files")
	genmockCmd.Flags().IntVar(&genmockRows, "rows", 200, "data rows per file")
	genmockCmd.Flags().Int64Var(&genmockSeed, "seed", 42, "random seed")
	genmockCmd.Flags().BoolVar(&genmockExpected, "expected", false, "also write the expected consolidated dataset")
	rootCmd.AddCommand(genmockCmd)
}

var mockSpecies = []string{
	"Norway maple", "Silver maple", "Honeylocust", "Littleleaf linden",
	"Green ash", "Hackberry", "Northern red oak", "American elm",
	"Ginkgo", "Siberian elm",
}

var mockBoroughs = []string{
	"Rosemont - La Petite-Patrie", "Le Plateau-Mont-Royal",
	"Villeray-Saint-Michel - Parc-Extension", "Mercier - Hochelaga-Maisonneuve",
	"Côte-des-Neiges - Notre-Dame-de-Grâce", "Ahuntsic - Cartierville",
}

func runGenmock(cmd *cobra.Command, args []string) error {
	_, logger, err := setup()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(genmockOutDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	rng := rand.New(rand.NewSource(genmockSeed))
	paths := make([]string, 0, genmockFiles)
	for i := 0; i < genmockFiles; i++ {
		path := filepath.Join(genmockOutDir, fmt.Sprintf("arbres-part-%d.csv", i+1))
		if err := writeMockExtract(path, genmockRows, rng); err != nil {
			return err
		}
		paths = append(paths, path)
		logger.Info("mock extract written", "path", path, "rows", genmockRows)
	}

	if !genmockExpected {
		return nil
	}

	// Freeze the clock so the expected dataset is reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	sources := make([]pipeline.RowSource, 0, len(paths))
	for _, path := range paths {
		sources = append(sources, csvfile.New(path, config.DefaultColumns()))
	}
	expectedPath := filepath.Join(genmockOutDir, "expected_combined.json")
	p := pipeline.New(sources, pipeline.NewTransformer(), pipeline.NewFileLoader(expectedPath), logger, observability.NewMetricsForTesting())
	report, err := p.Run(cmd.Context())
	if err != nil {
		return err
	}
	logger.Info("expected dataset written", "path", expectedPath, "records", report.Records)
	return nil
}

// writeMockExtract writes one CSV in the open-data shape. Roughly one row
// in twenty carries a defect the normalizer must reject.
func writeMockExtract(path string, rows int, rng *rand.Rand) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Essence_en", "Date_Plantation", "Latitude", "Longitude", "Arrond_Nom"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := 0; i < rows; i++ {
		species := mockSpecies[rng.Intn(len(mockSpecies))]
		borough := mockBoroughs[rng.Intn(len(mockBoroughs))]
		year := 1960 + rng.Intn(65)
		date := fmt.Sprintf("%04d-%02d-%02dT00:00:00", year, 1+rng.Intn(12), 1+rng.Intn(28))
		lat := fmt.Sprintf("%.6f", 45.42+rng.Float64()*0.25)
		lon := fmt.Sprintf("%.6f", -73.95+rng.Float64()*0.55)

		switch rng.Intn(20) {
		case 0:
			date = "0205-01-01T00:00:00" // mis-keyed year sentinel
		case 1:
			lat, lon = "0", "0"
		case 2:
			date = ""
		case 3:
			// Ragged row, one short of the header.
			if err := w.Write([]string{species, date, lat, lon}); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
			continue
		}

		if err := w.Write([]string{species, date, lat, lon, borough}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

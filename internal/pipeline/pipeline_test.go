package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"montreal-tree-map/internal/dataset"
	"montreal-tree-map/internal/domain"
	"montreal-tree-map/internal/observability"
	"montreal-tree-map/internal/pipeline"
)

// --- mocks ---

type mockSource struct {
	name      string
	rows      []domain.RawTreeRow
	shortRows int
	err       error
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) Read() ([]domain.RawTreeRow, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.rows, m.shortRows, nil
}

type memLoader struct {
	loaded *dataset.FeatureCollection
	err    error
}

func (m *memLoader) Load(fc dataset.FeatureCollection) error {
	if m.err != nil {
		return m.err
	}
	m.loaded = &fc
	return nil
}

func row(species, date, lat, lon string) domain.RawTreeRow {
	return domain.RawTreeRow{Species: species, PlantedDate: date, Lat: lat, Lon: lon}
}

func newPipeline(sources []pipeline.RowSource, loader pipeline.Loader) *pipeline.Pipeline {
	return pipeline.New(sources, pipeline.NewTransformer(), loader, slog.Default(), observability.NewMetricsForTesting())
}

func freezeClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC),
	))
	t.Cleanup(func() { domain.SetClock(nil) })
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	freezeClock(t)
	src := &mockSource{
		name: "arbres-part-1.csv",
		rows: []domain.RawTreeRow{
			row("Norway Maple", "2010-05-14T00:00:00", "45.5123", "-73.5567"),
			row("Maple", "205", "45.5", "-73.6"),      // sentinel year artifact
			row("Oak", "1999", "0", "0"),              // null-sentinel coordinates
			row("Elm", "2010", "45.51", "-73.55"),     // accepted
			row("Ash", "not a date", "45.5", "-73.5"), // unparseable year
		},
		shortRows: 1,
	}
	loader := &memLoader{}

	report, err := newPipeline([]pipeline.RowSource{src}, loader).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, report.RowsRead)
	assert.Equal(t, 2, report.Accepted)
	assert.Equal(t, 2, report.Records)
	assert.Equal(t, 4, report.TotalRejected())
	assert.Equal(t, 1, report.Rejected[domain.RejectShortRow])
	assert.Equal(t, 1, report.Rejected[domain.RejectYearSentinel])
	assert.Equal(t, 1, report.Rejected[domain.RejectCoordZero])
	assert.Equal(t, 1, report.Rejected[domain.RejectYearInvalid])

	require.NotNil(t, loader.loaded)
	require.Len(t, loader.loaded.Features, 2)
	// Ordering pinned to row order.
	assert.Equal(t, "Norway Maple", loader.loaded.Features[0].Properties["species"])
	assert.Equal(t, "Elm", loader.loaded.Features[1].Properties["species"])
}

func TestPipeline_Run_SourceOrderPinned(t *testing.T) {
	freezeClock(t)
	first := &mockSource{name: "a.csv", rows: []domain.RawTreeRow{row("Elm", "2001", "45.51", "-73.55")}}
	second := &mockSource{name: "b.csv", rows: []domain.RawTreeRow{row("Oak", "2002", "45.52", "-73.56")}}
	loader := &memLoader{}

	_, err := newPipeline([]pipeline.RowSource{first, second}, loader).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, loader.loaded.Features, 2)
	assert.Equal(t, "Elm", loader.loaded.Features[0].Properties["species"])
	assert.Equal(t, "Oak", loader.loaded.Features[1].Properties["species"])
}

func TestPipeline_Run_DisjointSourcesAggregate(t *testing.T) {
	freezeClock(t)
	sources := make([]pipeline.RowSource, 0, 7)
	perSource := []int{3, 1, 4, 1, 5, 2, 6}
	for i, n := range perSource {
		src := &mockSource{name: string(rune('a'+i)) + ".csv"}
		for j := 0; j < n; j++ {
			// Distinct coordinates keep synthesized IDs disjoint.
			lat := 45.50 + float64(i)*0.01 + float64(j)*0.001
			src.rows = append(src.rows, domain.RawTreeRow{
				Species:     "Elm",
				PlantedDate: "2010",
				Lat:         formatFloat(lat),
				Lon:         "-73.55",
			})
		}
		sources = append(sources, src)
	}
	loader := &memLoader{}

	report, err := newPipeline(sources, loader).Run(context.Background())
	require.NoError(t, err)

	total := 0
	for _, sr := range report.Sources {
		total += sr.Accepted
	}
	assert.Equal(t, 22, total)
	assert.Equal(t, 22, report.Records)
	assert.Len(t, loader.loaded.Features, 22)
}

func TestPipeline_Run_DuplicatesAcrossSources(t *testing.T) {
	freezeClock(t)
	same := row("Elm", "2010", "45.51", "-73.55")
	first := &mockSource{name: "a.csv", rows: []domain.RawTreeRow{same}}
	second := &mockSource{name: "b.csv", rows: []domain.RawTreeRow{same}}
	loader := &memLoader{}

	report, err := newPipeline([]pipeline.RowSource{first, second}, loader).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Records)
	assert.Equal(t, 1, report.Rejected[domain.RejectDuplicateID])
}

func TestPipeline_Run_Idempotent(t *testing.T) {
	freezeClock(t)
	rows := []domain.RawTreeRow{
		row("Elm", "2010", "45.51", "-73.55"),
		row("Oak", "1999", "45.52", "-73.56"),
	}

	var outputs [][]byte
	for i := 0; i < 2; i++ {
		loader := &memLoader{}
		_, err := newPipeline([]pipeline.RowSource{&mockSource{name: "a.csv", rows: rows}}, loader).Run(context.Background())
		require.NoError(t, err)
		data, err := dataset.Encode(*loader.loaded)
		require.NoError(t, err)
		outputs = append(outputs, data)
	}

	assert.Equal(t, outputs[0], outputs[1])
}

func TestPipeline_Run_SourceErrorIsFatal(t *testing.T) {
	failing := &mockSource{name: "arbres-part-3.csv", err: errors.New("open source: no such file")}
	loader := &memLoader{}

	_, err := newPipeline([]pipeline.RowSource{failing}, loader).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arbres-part-3.csv")
	assert.Nil(t, loader.loaded)
}

func TestPipeline_Run_LoaderErrorIsFatal(t *testing.T) {
	freezeClock(t)
	src := &mockSource{name: "a.csv", rows: []domain.RawTreeRow{row("Elm", "2010", "45.51", "-73.55")}}
	loader := &memLoader{err: errors.New("disk full")}

	_, err := newPipeline([]pipeline.RowSource{src}, loader).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write consolidated dataset")
}

func TestPipeline_Run_ContextCancelled(t *testing.T) {
	src := &mockSource{name: "a.csv", rows: []domain.RawTreeRow{row("Elm", "2010", "45.51", "-73.55")}}
	loader := &memLoader{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newPipeline([]pipeline.RowSource{src}, loader).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, loader.loaded)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

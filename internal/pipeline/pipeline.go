package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"montreal-tree-map/internal/dataset"
	"montreal-tree-map/internal/domain"
	"montreal-tree-map/internal/observability"
)

// RowSource yields raw rows from one input extract. Read returns the rows
// in file order plus the count of ragged rows it had to skip.
type RowSource interface {
	Name() string
	Read() ([]domain.RawTreeRow, int, error)
}

// Transformer converts a raw row into a validated record. A *domain.
// RejectError return drops the row; any other error is treated the same
// but logged at warning level since it signals a bug, not bad data.
type Transformer interface {
	Transform(row domain.RawTreeRow) (domain.TreeRecord, error)
}

// Loader writes the consolidated dataset.
type Loader interface {
	Load(fc dataset.FeatureCollection) error
}

// Pipeline runs the extract-validate-consolidate pass over all sources.
type Pipeline struct {
	sources     []RowSource
	transformer Transformer
	loader      Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// New creates a Pipeline over the given sources, processed in order.
func New(sources []RowSource, t Transformer, l Loader, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		sources:     sources,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
	}
}

// Run executes one batch pass: every source, in order, row by row.
// A failing source or loader aborts the run; a failing row is counted
// under its rejection reason and skipped. The returned report carries the
// per-source and total counts either way.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := newReport()
	seenIDs := make(map[string]bool)
	var records []domain.TreeRecord

	p.logger.Info("combine started", "sources", len(p.sources))

	for _, src := range p.sources {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		accepted, err := p.processSource(src, report, seenIDs)
		if err != nil {
			return report, fmt.Errorf("source %s: %w", src.Name(), err)
		}
		records = append(records, accepted...)
		p.metrics.SourcesProcessed.Inc()
	}

	fc := dataset.Build(records)
	if err := p.loader.Load(fc); err != nil {
		return report, fmt.Errorf("write consolidated dataset: %w", err)
	}
	report.Records = len(records)

	p.metrics.CombineDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("combine finished",
		"rows_read", report.RowsRead,
		"accepted", report.Accepted,
		"rejected", report.TotalRejected(),
		"records", report.Records,
		"duration", time.Since(start).Round(time.Millisecond).String(),
	)
	return report, nil
}

// processSource reads one source and validates its rows in order.
func (p *Pipeline) processSource(src RowSource, report *Report, seenIDs map[string]bool) ([]domain.TreeRecord, error) {
	rows, shortRows, err := src.Read()
	if err != nil {
		return nil, err
	}

	sr := &SourceReport{Name: src.Name(), Rejected: make(map[domain.RejectReason]int)}
	sr.count(domain.RejectShortRow, shortRows)
	sr.RowsRead = shortRows + len(rows)

	var accepted []domain.TreeRecord
	for _, row := range rows {
		rec, err := p.transformer.Transform(row)
		if err != nil {
			sr.count(rejectReasonOf(err), 1)
			p.logRowError(row, err)
			continue
		}
		if seenIDs[rec.ID] {
			sr.count(domain.RejectDuplicateID, 1)
			continue
		}
		seenIDs[rec.ID] = true
		accepted = append(accepted, rec)
		sr.Accepted++
	}

	report.add(sr)
	p.observeSource(sr)
	p.logger.Info("source processed",
		"source", sr.Name,
		"rows", sr.RowsRead,
		"accepted", sr.Accepted,
		"rejected", sr.TotalRejected(),
	)
	return accepted, nil
}

func (p *Pipeline) logRowError(row domain.RawTreeRow, err error) {
	var rejectErr *domain.RejectError
	if errors.As(err, &rejectErr) {
		p.logger.Debug("row rejected", "source", row.Source, "line", row.Line, "reason", rejectErr.Reason, "detail", rejectErr.Detail)
		return
	}
	p.logger.Warn("row transform failed", "source", row.Source, "line", row.Line, "error", err)
}

func (p *Pipeline) observeSource(sr *SourceReport) {
	p.metrics.RowsRead.Add(float64(sr.RowsRead))
	p.metrics.RowsAccepted.Add(float64(sr.Accepted))
	for reason, n := range sr.Rejected {
		p.metrics.RowsRejected.WithLabelValues(string(reason)).Add(float64(n))
	}
}

func rejectReasonOf(err error) domain.RejectReason {
	var rejectErr *domain.RejectError
	if errors.As(err, &rejectErr) {
		return rejectErr.Reason
	}
	return domain.RejectReason("transform_error")
}

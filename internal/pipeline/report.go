package pipeline

import (
	"log/slog"

	"montreal-tree-map/internal/domain"
)

// SourceReport carries the per-source counts shown to the operator.
type SourceReport struct {
	Name     string
	RowsRead int
	Accepted int
	Rejected map[domain.RejectReason]int
}

func (sr *SourceReport) count(reason domain.RejectReason, n int) {
	if n == 0 {
		return
	}
	sr.Rejected[reason] += n
}

// TotalRejected sums the source's rejections over all reasons.
func (sr *SourceReport) TotalRejected() int {
	total := 0
	for _, n := range sr.Rejected {
		total += n
	}
	return total
}

// Report aggregates counts across the whole run. Counts are for operator
// visibility only; nothing consumes them programmatically.
type Report struct {
	Sources  []*SourceReport
	RowsRead int
	Accepted int
	Rejected map[domain.RejectReason]int
	Records  int // records written to the consolidated dataset
}

func newReport() *Report {
	return &Report{Rejected: make(map[domain.RejectReason]int)}
}

func (r *Report) add(sr *SourceReport) {
	r.Sources = append(r.Sources, sr)
	r.RowsRead += sr.RowsRead
	r.Accepted += sr.Accepted
	for reason, n := range sr.Rejected {
		r.Rejected[reason] += n
	}
}

// TotalRejected sums rejections over all reasons.
func (r *Report) TotalRejected() int {
	total := 0
	for _, n := range r.Rejected {
		total += n
	}
	return total
}

// Log emits the rejection breakdown in a stable reason order.
func (r *Report) Log(logger *slog.Logger) {
	for _, reason := range domain.RejectReasons {
		if n := r.Rejected[reason]; n > 0 {
			logger.Info("rejections", "reason", string(reason), "count", n)
		}
	}
}

package analysis

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/visloom/internal/frame"
	"github.com/KaramelBytes/visloom/internal/metrics"
)

// Profiler computes Profiles for tables.
type Profiler struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
	workers int
}

// Option configures a Profiler.
type Option func(*Profiler)

func WithLogger(l *zap.Logger) Option { return func(p *Profiler) { p.logger = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(p *Profiler) { p.metrics = m } }

// WithWorkers bounds per-column concurrency; 0 means one goroutine per column.
func WithWorkers(n int) Option { return func(p *Profiler) { p.workers = n } }

func NewProfiler(opts ...Option) *Profiler {
	p := &Profiler{workers: 4}
	for _, o := range opts {
		o(p)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	p.logger = p.logger.Named("profiler")
	return p
}

// Profile runs statistics, structure inference, type classification and the data model.
// preAggregated overrides inference when non-nil.
func (p *Profiler) Profile(ctx context.Context, t frame.Table, preAggregated *bool) (*Profile, error) {
	start := time.Now()
	st, err := ComputeStats(ctx, t, p.workers)
	if err != nil {
		return nil, fmt.Errorf("compute stats: %w", err)
	}
	prof := &Profile{
		Rows:    t.RowCount(),
		Columns: t.ColumnNames(),
		Stats:   st,
	}
	if preAggregated != nil {
		prof.PreAggregated = *preAggregated
	} else {
		prof.PreAggregated = InferPreAggregated(t)
	}
	prof.DataTypeLookup, prof.Advisories = ComputeDataType(t, st, prof.PreAggregated)
	prof.DataType = GroupByType(prof.Columns, prof.DataTypeLookup)
	prof.DataModel, prof.DataModelLookup = ComputeDataModel(prof.DataType)

	elapsed := time.Since(start)
	p.metrics.ObserveProfile(elapsed)
	for _, a := range prof.Advisories {
		p.logger.Warn("profiling advisory", zap.String("advisory", a))
	}
	p.logger.Debug("profiled table",
		zap.Int("rows", prof.Rows),
		zap.Int("columns", len(prof.Columns)),
		zap.Bool("pre_aggregated", prof.PreAggregated),
		zap.Duration("elapsed", elapsed))
	return prof, nil
}

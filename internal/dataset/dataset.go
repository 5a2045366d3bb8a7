// Package dataset wraps a table with its cached profile, intent and
// recommendations, and keeps those caches honest across mutations.
package dataset

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/visloom/internal/action"
	"github.com/KaramelBytes/visloom/internal/analysis"
	"github.com/KaramelBytes/visloom/internal/executor"
	"github.com/KaramelBytes/visloom/internal/export"
	"github.com/KaramelBytes/visloom/internal/frame"
	"github.com/KaramelBytes/visloom/internal/history"
	"github.com/KaramelBytes/visloom/internal/intent"
	"github.com/KaramelBytes/visloom/internal/metrics"
	"github.com/KaramelBytes/visloom/internal/vis"
)

// Dataset is a table plus everything derived from it. All reads of derived
// state go through Metadata, CurrentVis or Recommendations, which recompute
// whatever the freshness flags mark stale.
type Dataset struct {
	mu sync.Mutex

	id         uuid.UUID
	name       string
	table      frame.Table
	profiler   *analysis.Profiler
	dispatcher *action.Dispatcher
	logger     *zap.Logger
	metrics    *metrics.Metrics
	topK       int
	opts       []Option

	state   tracker
	preAgg  *bool
	profile *analysis.Profile

	terms   []vis.Term
	intent  []vis.Clause
	current *vis.Collection

	recs     *action.Result
	messages []string

	// prev is the dataset this one was derived from. It is consumed by the
	// next recommendation read and then cleared.
	prev       *Dataset
	history    *history.History
	plotConfig vis.PlotConfig
}

// Option configures a Dataset. Options are inherited by derived datasets.
type Option func(*Dataset)

func WithName(name string) Option { return func(d *Dataset) { d.name = name } }

func WithProfiler(p *analysis.Profiler) Option { return func(d *Dataset) { d.profiler = p } }

func WithDispatcher(disp *action.Dispatcher) Option {
	return func(d *Dataset) { d.dispatcher = disp }
}

func WithLogger(l *zap.Logger) Option { return func(d *Dataset) { d.logger = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(d *Dataset) { d.metrics = m } }

// WithTopK caps the ranked action collections; 0 keeps action.DefaultTopK.
func WithTopK(k int) Option { return func(d *Dataset) { d.topK = k } }

// New wraps t. Nothing is computed until the first read.
func New(t frame.Table, opts ...Option) *Dataset {
	d := &Dataset{
		id:      uuid.New(),
		table:   t,
		opts:    opts,
		history: history.New(nil),
	}
	for _, o := range opts {
		o(d)
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	if d.profiler == nil {
		d.profiler = analysis.NewProfiler(analysis.WithLogger(d.logger), analysis.WithMetrics(d.metrics))
	}
	if d.dispatcher == nil {
		d.dispatcher = action.NewDispatcher(action.WithLogger(d.logger), action.WithMetrics(d.metrics))
	}
	d.logger = d.logger.Named("dataset").With(zap.String("dataset_id", d.id.String()))
	return d
}

func (d *Dataset) ID() uuid.UUID { return d.id }

func (d *Dataset) Name() string { return d.name }

// Table returns the wrapped table. Mutating it directly bypasses tracking;
// call Invalidate afterwards.
func (d *Dataset) Table() frame.Table { return d.table }

// History returns the mutation log, chained to the parent's for derived datasets.
func (d *Dataset) History() *history.History {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.history
}

// Freshness returns a snapshot of the cache flags.
func (d *Dataset) Freshness() FreshnessFlags {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.snapshot()
}

// Messages returns the advisories attached to the last recommendation run.
func (d *Dataset) Messages() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.messages...)
}

// Metadata returns the profile, recomputing it when stale.
func (d *Dataset) Metadata(ctx context.Context) (*analysis.Profile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.refreshMetadata(ctx); err != nil {
		return nil, err
	}
	return d.profile, nil
}

func (d *Dataset) refreshMetadata(ctx context.Context) error {
	if d.state.metadataFresh() && d.profile != nil {
		return nil
	}
	prof, err := d.profiler.Profile(ctx, d.table, d.preAgg)
	if err != nil {
		return fmt.Errorf("profile dataset: %w", err)
	}
	d.profile = prof
	d.current = nil
	d.state.metadataComputed()
	return nil
}

// Invalidate marks the profile and recommendations stale.
func (d *Dataset) Invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.invalidate()
}

func (d *Dataset) invalidate() {
	d.state.invalidate()
	d.profile = nil
	d.current = nil
	d.recs = nil
	d.metrics.Invalidation()
}

func (d *Dataset) expireRecs() {
	d.state.expireRecs()
	d.current = nil
	d.recs = nil
}

// SetPreAggregated overrides pre-aggregation inference.
func (d *Dataset) SetPreAggregated(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.preAgg = &on
	d.invalidate()
}

// ClearPreAggregated returns to inferring pre-aggregation from the table.
func (d *Dataset) ClearPreAggregated() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.preAgg = nil
	d.invalidate()
}

// SetIntent parses, validates and compiles terms against the current
// profile. On error the previous intent is kept.
func (d *Dataset) SetIntent(ctx context.Context, terms ...vis.Term) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.refreshMetadata(ctx); err != nil {
		return err
	}
	clauses, current, err := d.compile(ctx, terms)
	if err != nil {
		return err
	}
	d.expireRecs()
	d.terms = copyTerms(terms)
	d.intent = clauses
	d.current = current
	d.logger.Debug("intent set", zap.Int("clauses", len(clauses)), zap.Int("current_vis", current.Len()))
	return nil
}

// SetIntentAsVis uses the bound clauses of v as the new intent.
func (d *Dataset) SetIntentAsVis(ctx context.Context, v *vis.Vis) error {
	terms := make([]vis.Term, 0, len(v.Clauses))
	for _, c := range v.Clauses {
		terms = append(terms, c.Copy())
	}
	return d.SetIntent(ctx, terms...)
}

// ClearIntent removes every intent clause.
func (d *Dataset) ClearIntent() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.terms, d.intent = nil, nil
	d.expireRecs()
}

// Intent returns a deep copy of the validated intent.
func (d *Dataset) Intent() []vis.Clause {
	d.mu.Lock()
	defer d.mu.Unlock()
	return vis.CopyClauses(d.intent)
}

// CurrentVis returns the executed visualizations of the intent.
func (d *Dataset) CurrentVis(ctx context.Context) (*vis.Collection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentVis(ctx)
}

func (d *Dataset) currentVis(ctx context.Context) (*vis.Collection, error) {
	if err := d.refreshMetadata(ctx); err != nil {
		return nil, err
	}
	if d.current != nil {
		return d.current, nil
	}
	clauses, current, err := d.compile(ctx, d.terms)
	if err != nil {
		return nil, err
	}
	d.intent, d.current = clauses, current
	return current, nil
}

// compile runs terms through the intent pipeline against the fresh profile
// and executes the result.
func (d *Dataset) compile(ctx context.Context, terms []vis.Term) ([]vis.Clause, *vis.Collection, error) {
	clauses, err := intent.Parse(terms...)
	if err != nil {
		return nil, nil, err
	}
	if clauses, err = intent.Validate(d.table, clauses); err != nil {
		return nil, nil, err
	}
	col, err := intent.CompileTerms(d.table, d.profile, terms...)
	if err != nil {
		return nil, nil, err
	}
	if err := executor.Execute(ctx, d.table, d.profile, col); err != nil {
		return nil, nil, fmt.Errorf("execute current vis: %w", err)
	}
	col.SetPlotConfig(d.plotConfig)
	return clauses, col, nil
}

// source is the frozen state recommendations are computed from.
type source struct {
	table   frame.Table
	profile *analysis.Profile
	intent  []vis.Clause
	current *vis.Collection
}

func (d *Dataset) snapshot(ctx context.Context) (source, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.source(ctx)
}

func (d *Dataset) source(ctx context.Context) (source, error) {
	current, err := d.currentVis(ctx)
	if err != nil {
		return source{}, err
	}
	return source{table: d.table, profile: d.profile, intent: vis.CopyClauses(d.intent), current: current}, nil
}

// Recommendations returns the ranked recommendations, recomputing them when
// the metadata, intent or plot config changed since the last read. The
// first read after Head or Tail shows the dataset it was derived from.
func (d *Dataset) Recommendations(ctx context.Context) (*action.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.recommendations(ctx)
}

func (d *Dataset) recommendations(ctx context.Context) (*action.Result, error) {
	if err := d.refreshMetadata(ctx); err != nil {
		return nil, err
	}
	if d.state.recsFresh() && d.recs != nil {
		return d.recs, nil
	}

	var (
		src  source
		msgs []string
		err  error
	)
	if prev := d.prev; prev != nil {
		d.prev = nil
		op := "a change"
		if ev, ok := d.history.Last(); ok {
			op = ev.Name
		}
		msgs = append(msgs, fmt.Sprintf("visualizing the previous version of the dataset before you applied `%s`.", op))
		src, err = prev.snapshot(ctx)
	} else {
		src, err = d.source(ctx)
	}
	if err != nil {
		return nil, err
	}
	for _, col := range src.profile.IDColumns() {
		msgs = append(msgs, fmt.Sprintf("`%s` is not visualized since it resembles an ID field.", col))
	}

	res, err := d.dispatcher.Dispatch(ctx, action.Input{
		Table:      src.table,
		Profile:    src.profile,
		Intent:     src.intent,
		CurrentVis: src.current,
		TopK:       d.topK,
	})
	if err != nil {
		return nil, fmt.Errorf("dispatch actions: %w", err)
	}
	res.Messages = append(msgs, res.Messages...)
	for _, rec := range res.Recommendations {
		rec.Collection.SetPlotConfig(d.plotConfig)
	}
	for _, m := range res.Messages {
		d.logger.Warn("recommendation advisory", zap.String("message", m))
	}
	d.recs = res
	d.messages = res.Messages
	d.state.recsComputed()
	d.logger.Debug("recommendations computed",
		zap.Int("recommendations", len(res.Recommendations)),
		zap.Int("invoked", len(res.Invoked)))
	return res, nil
}

// SetPlotConfig installs fn on every rendered spec. Recommendations are
// recomputed on the next read.
func (d *Dataset) SetPlotConfig(fn vis.PlotConfig) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.plotConfig = fn
	d.expireRecs()
}

func (d *Dataset) ClearPlotConfig() { d.SetPlotConfig(nil) }

// Exported maps a selection of recommendation indices back to collections.
func (d *Dataset) Exported(ctx context.Context, sel export.Selection) (*export.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	recs, err := d.recommendations(ctx)
	if err != nil {
		return nil, err
	}
	current, err := d.currentVis(ctx)
	if err != nil {
		return nil, err
	}
	res, err := export.Select(sel, current, recs)
	if err != nil {
		return nil, err
	}
	if res.Warning != "" {
		d.logger.Warn("export selection", zap.String("warning", res.Warning))
	}
	return res, nil
}

func copyTerms(terms []vis.Term) []vis.Term {
	out := make([]vis.Term, len(terms))
	for i, t := range terms {
		switch x := t.(type) {
		case vis.Clause:
			out[i] = x.Copy()
		case *vis.Vis:
			out[i] = x.Copy()
		default:
			out[i] = t
		}
	}
	return out
}

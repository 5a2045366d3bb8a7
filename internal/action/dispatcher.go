package action

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/visloom/internal/metrics"
)

// Dispatcher plans and runs actions for a dataset snapshot.
type Dispatcher struct {
	parallel bool
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithParallel runs the planned actions concurrently.
func WithParallel(on bool) Option { return func(d *Dispatcher) { d.parallel = on } }

// WithTimeout bounds each action; an action that runs out of time is dropped.
func WithTimeout(t time.Duration) Option { return func(d *Dispatcher) { d.timeout = t } }

func WithLogger(l *zap.Logger) Option { return func(d *Dispatcher) { d.logger = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(d *Dispatcher) { d.metrics = m } }

func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{}
	for _, o := range opts {
		o(d)
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	d.logger = d.logger.Named("dispatch")
	return d
}

// Result is the outcome of one dispatch.
type Result struct {
	// Recommendations in plan order, empty collections removed.
	Recommendations []Recommendation
	Invoked         []Kind
	Messages        []string
}

// Lookup finds a recommendation by action name.
func (r *Result) Lookup(action string) (Recommendation, bool) {
	for _, rec := range r.Recommendations {
		if rec.Action == action {
			return rec, true
		}
	}
	return Recommendation{}, false
}

// Plan lists the actions for the input's shape.
func Plan(in Input) []Kind {
	if in.Profile.PreAggregated {
		var kinds []Kind
		if in.Table.ColumnAxisName() != "" {
			kinds = append(kinds, RowGroups)
		}
		if in.Table.IndexName() != "" {
			kinds = append(kinds, ColumnGroups)
		}
		return kinds
	}
	switch in.CurrentVis.Len() {
	case 0:
		return []Kind{Correlation, Distribution, Occurrence, Temporal}
	case 1:
		return []Kind{Enhance, Filter, Generalize}
	default:
		return []Kind{CurrentVis}
	}
}

type outcome struct {
	rec     Recommendation
	dropped string
}

// Dispatch runs the planned actions. Results land in plan order whatever
// the completion order. An action that fails or exceeds the timeout is
// dropped with a message; only cancellation of ctx aborts the dispatch.
func (d *Dispatcher) Dispatch(ctx context.Context, in Input) (*Result, error) {
	kinds := Plan(in)
	slots := make([]outcome, len(kinds))
	run := func(ctx context.Context, i int) error {
		o, err := d.runOne(ctx, kinds[i], in)
		if err != nil {
			return err
		}
		slots[i] = o
		return nil
	}

	if d.parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i := range kinds {
			i := i
			g.Go(func() error { return run(gctx, i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range kinds {
			if err := run(ctx, i); err != nil {
				return nil, err
			}
		}
	}

	res := &Result{Invoked: kinds}
	for i, o := range slots {
		if o.dropped != "" {
			res.Messages = append(res.Messages, o.dropped)
			continue
		}
		if o.rec.Collection.Len() == 0 {
			d.logger.Debug("empty recommendation", zap.Stringer("action", kinds[i]))
			continue
		}
		d.metrics.Recommendation(o.rec.Action)
		res.Recommendations = append(res.Recommendations, o.rec)
	}
	return res, nil
}

func (d *Dispatcher) runOne(ctx context.Context, k Kind, in Input) (outcome, error) {
	h, ok := handlers[k]
	if !ok {
		return outcome{}, fmt.Errorf("no handler for %s", k)
	}
	actx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	start := time.Now()
	rec, err := h(actx, in)
	elapsed := time.Since(start)
	d.metrics.ObserveAction(k.String(), elapsed)
	if err != nil {
		if ctx.Err() != nil {
			return outcome{}, fmt.Errorf("action %s: %w", k, err)
		}
		reason := "error"
		msg := fmt.Sprintf("%s recommendations were skipped: %v", k, err)
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
			msg = fmt.Sprintf("%s recommendations were skipped after exceeding the %s time limit.", k, d.timeout)
		}
		d.metrics.DropAction(k.String(), reason)
		d.logger.Warn("action dropped", zap.Stringer("action", k), zap.String("reason", reason), zap.Error(err))
		return outcome{dropped: msg}, nil
	}
	d.logger.Debug("action finished",
		zap.Stringer("action", k),
		zap.Int("candidates", rec.Collection.Len()),
		zap.Duration("elapsed", elapsed))
	return rec.withKind(k), nil
}

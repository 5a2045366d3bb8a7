package action

import (
	"context"

	"github.com/KaramelBytes/visloom/internal/analysis"
	"github.com/KaramelBytes/visloom/internal/vis"
)

const (
	minCorrelationRows  = 5
	minDistributionRows = 5
	minTemporalRows     = 3
)

func correlation(ctx context.Context, in Input) (Recommendation, error) {
	rec := newRecommendation(Correlation, "Show relationships between two quantitative attributes.")
	if in.Profile.Rows < minCorrelationRows {
		return rec, nil
	}
	clauses := append([]vis.Clause{
		{Attribute: vis.Wildcard, DataModel: analysis.Measure},
		{Attribute: vis.Wildcard, DataModel: analysis.Measure},
	}, in.filters()...)
	col, err := build(ctx, in, clauses)
	if err != nil {
		return rec, err
	}
	// keep one orientation of every measure pair
	seen := map[[2]string]bool{}
	for _, v := range col.Items() {
		m := v.ByRole(analysis.Measure)
		if len(m) < 2 {
			continue
		}
		a, b := m[0].Attribute, m[1].Attribute
		if seen[[2]string{b, a}] {
			v.Score = vis.InvalidScore
			continue
		}
		seen[[2]string{a, b}] = true
	}
	rec.Collection = col.TopK(in.topK())
	return rec, nil
}

func univariate(ctx context.Context, in Input, rec Recommendation, c vis.Clause) (Recommendation, error) {
	col, err := build(ctx, in, append([]vis.Clause{c}, in.filters()...))
	if err != nil {
		return rec, err
	}
	col.Sort(true, true)
	rec.Collection = col
	return rec, nil
}

func distribution(ctx context.Context, in Input) (Recommendation, error) {
	rec := newRecommendation(Distribution, "Show univariate histograms of quantitative attributes.")
	if in.Profile.Rows < minDistributionRows {
		return rec, nil
	}
	return univariate(ctx, in, rec, vis.Clause{
		Attribute: vis.Wildcard,
		DataType:  analysis.Quantitative,
		Exclude:   []string{analysis.RecordCountColumn},
	})
}

func occurrence(ctx context.Context, in Input) (Recommendation, error) {
	rec := newRecommendation(Occurrence, "Show frequency of occurrence for categorical attributes.")
	return univariate(ctx, in, rec, vis.Clause{Attribute: vis.Wildcard, DataType: analysis.Nominal})
}

func temporal(ctx context.Context, in Input) (Recommendation, error) {
	rec := newRecommendation(Temporal, "Show trends over time-related attributes.")
	if in.Profile.Rows < minTemporalRows {
		return rec, nil
	}
	return univariate(ctx, in, rec, vis.Clause{Attribute: vis.Wildcard, DataType: analysis.Temporal})
}

package action

import (
	"context"

	"github.com/KaramelBytes/visloom/internal/analysis"
	"github.com/KaramelBytes/visloom/internal/executor"
	"github.com/KaramelBytes/visloom/internal/frame"
	"github.com/KaramelBytes/visloom/internal/vis"
)

// defaultAxisName labels an unnamed axis.
const defaultAxisName = "index"

// rowGroups draws every row of a rollup as a bar chart across its columns.
// Scores are left at zero so the table's own order is kept.
func rowGroups(ctx context.Context, in Input) (Recommendation, error) {
	rec := newRecommendation(RowGroups, "Shows every row of the table as a bar chart across its columns.")
	t := in.Table
	if t.IndexLevels() > 1 {
		return rec, nil
	}
	dim := t.ColumnAxisName()
	if dim == "" {
		dim = defaultAxisName
	}
	var cols []string
	for _, c := range t.ColumnNames() {
		if t.ColumnStorageType(c) != frame.Generic {
			cols = append(cols, c)
		}
	}
	labels := t.IndexValues()
	for r := 0; r < t.RowCount(); r++ {
		if err := ctx.Err(); err != nil {
			return rec, err
		}
		label := frame.Format(labels[r])
		x := make([]any, len(cols))
		y := make([]any, len(cols))
		for i, c := range cols {
			x[i] = c
			y[i] = t.ColumnValues(c)[r]
		}
		rec.Collection.Append(&vis.Vis{
			Mark: vis.Bar,
			Clauses: []vis.Clause{
				{Attribute: dim, Channel: vis.X, DataType: analysis.Nominal, DataModel: analysis.Dimension},
				{Attribute: label, Channel: vis.Y, DataType: analysis.Quantitative, DataModel: analysis.Measure, Aggregation: vis.NoAggregation},
			},
			Data: vis.NewData(vis.Series{Name: dim, Values: x}, vis.Series{Name: label, Values: y}),
		})
	}
	return rec, nil
}

// columnGroups draws every non-text column of a rollup against the row index.
// Scores are left at zero so the table's own order is kept.
func columnGroups(ctx context.Context, in Input) (Recommendation, error) {
	rec := newRecommendation(ColumnGroups, "Shows charts of possible visualizations with respect to the column-wise index.")
	t := in.Table
	if t.IndexLevels() > 1 {
		return rec, nil
	}
	idx := t.IndexName()
	if idx == "" {
		idx = defaultAxisName
	}
	for _, c := range t.ColumnNames() {
		if t.ColumnStorageType(c) == frame.Generic || c == defaultAxisName {
			continue
		}
		if err := ctx.Err(); err != nil {
			return rec, err
		}
		v := &vis.Vis{
			Mark: vis.Bar,
			Clauses: []vis.Clause{
				{Attribute: idx, Channel: vis.X, DataType: analysis.Nominal, DataModel: analysis.Dimension, Aggregation: vis.NoAggregation},
				{Attribute: c, Channel: vis.Y, DataType: analysis.Quantitative, DataModel: analysis.Measure, Aggregation: vis.NoAggregation},
			},
		}
		if t.IndexName() == "" {
			v.Data = vis.NewData(vis.Series{Name: idx, Values: t.IndexValues()}, vis.Series{Name: c, Values: t.ColumnValues(c)})
		} else if err := executor.ExecuteVis(t, in.Profile, v); err != nil {
			return rec, err
		}
		rec.Collection.Append(v)
	}
	return rec, nil
}

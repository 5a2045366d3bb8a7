package action

import (
	"context"
	"fmt"
	"slices"

	"github.com/KaramelBytes/visloom/internal/analysis"
	"github.com/KaramelBytes/visloom/internal/frame"
	"github.com/KaramelBytes/visloom/internal/vis"
)

const (
	maxEnhanceAttributes    = 2
	maxGeneralizeAttributes = 4
	maxFilterCardinality    = 30
)

func enhance(ctx context.Context, in Input) (Recommendation, error) {
	attrs := in.attributes()
	var rec Recommendation
	switch n := len(attrs); {
	case n > maxEnhanceAttributes:
		return newRecommendation(Enhance, "Too many attributes in the intent to add another."), nil
	case n == 2:
		rec = newRecommendation(Enhance, fmt.Sprintf("Further breaking down current %s intent by additional attribute.", in.describeIntent()))
	case n == 1:
		rec = newRecommendation(Enhance, fmt.Sprintf("Augmenting current %s intent with additional attribute.", in.describeIntent()))
	default:
		rec = newRecommendation(Enhance, "Adding an attribute to the current intent.")
	}
	clauses := append(in.filters(), attrs...)
	clauses = append(clauses, vis.Clause{Attribute: vis.Wildcard})
	col, err := build(ctx, in, clauses)
	if err != nil {
		return rec, err
	}
	rec.Collection = col.TopK(in.topK())
	return rec, nil
}

func filter(ctx context.Context, in Input) (Recommendation, error) {
	if in.CurrentVis.Len() == 0 {
		return newRecommendation(Filter, ""), nil
	}
	base := in.CurrentVis.At(0).Attributes()
	onAxis := make(map[string]bool, len(base))
	for _, c := range base {
		onAxis[c.Attribute] = true
	}
	with := func(f vis.Clause) []vis.Clause {
		return append(vis.CopyClauses(base), f)
	}

	var rec Recommendation
	var candidates [][]vis.Clause
	if filters := in.filters(); len(filters) > 0 {
		f := filters[0]
		rec = newRecommendation(Filter, fmt.Sprintf("Changing the %s filter to an alternative value.", f.Attribute))
		if inverse, ok := complement[f.FilterOp]; ok && in.Profile.DataTypeLookup[f.Attribute] == analysis.Quantitative {
			rec.Description = fmt.Sprintf("Changing the %s filter to an alternative inequality operation.", f.Attribute)
			candidates = append(candidates, with(vis.Clause{Attribute: f.Attribute, FilterOp: inverse, Value: f.Value}))
		} else {
			for _, u := range in.Profile.UniqueValues[f.Attribute] {
				if frame.Equal(u, f.Value) {
					continue
				}
				candidates = append(candidates, with(vis.Clause{Attribute: f.Attribute, FilterOp: "=", Value: u}))
			}
		}
	} else {
		rec = newRecommendation(Filter, fmt.Sprintf("Applying filters to the %s intent.", in.describeIntent()))
		for _, col := range in.Profile.Columns {
			uv, enumerated := in.Profile.UniqueValues[col]
			if !enumerated || onAxis[col] || in.Profile.Cardinality[col] >= maxFilterCardinality {
				continue
			}
			for _, u := range uv {
				candidates = append(candidates, with(vis.Clause{Attribute: col, FilterOp: "=", Value: u}))
			}
		}
	}

	col := vis.NewCollection()
	for _, clauses := range candidates {
		c, err := build(ctx, in, clauses)
		if err != nil {
			return rec, err
		}
		col.Append(c.Items()...)
	}
	rec.Collection = col.TopK(in.topK())
	return rec, nil
}

var complement = map[string]string{">": "<=", "<": ">=", ">=": "<", "<=": ">"}

func generalize(ctx context.Context, in Input) (Recommendation, error) {
	attrs := in.attributes()
	filters := in.filters()
	rec := newRecommendation(Generalize, fmt.Sprintf("Remove an attribute or filter from %s.", in.describeIntent()))
	if len(attrs) < 1 || len(attrs) > maxGeneralizeAttributes {
		return rec, nil
	}
	col := vis.NewCollection()
	if len(attrs) > 1 {
		for i := range attrs {
			clauses := append(vis.CopyClauses(filters), slices.Delete(vis.CopyClauses(attrs), i, i+1)...)
			c, err := build(ctx, in, clauses)
			if err != nil {
				return rec, err
			}
			col.Append(c.Items()...)
		}
	}
	if in.CurrentVis.Len() > 0 {
		current := in.CurrentVis.At(0)
		for _, f := range filters {
			var clauses []vis.Clause
			for _, c := range current.Clauses {
				if c.IsFilter() && c.Attribute == f.Attribute && frame.Equal(c.Value, f.Value) {
					continue
				}
				clauses = append(clauses, c.Copy())
			}
			c, err := build(ctx, in, clauses)
			if err != nil {
				return rec, err
			}
			for _, v := range c.Items() {
				v.Title = "Overall"
			}
			col.Append(c.Items()...)
		}
	}
	col.RemoveDuplicates()
	col.Sort(true, true)
	rec.Collection = col
	return rec, nil
}

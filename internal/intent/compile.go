package intent

import (
	"errors"
	"slices"

	"github.com/KaramelBytes/visloom/internal/analysis"
	"github.com/KaramelBytes/visloom/internal/frame"
	"github.com/KaramelBytes/visloom/internal/vis"
)

// DefaultBinSize is used for histograms without an explicit bin size.
const DefaultBinSize = 10

// sortThreshold is the bar count above which bars are ordered by value.
const sortThreshold = 5

// CompileTerms parses, validates and compiles a user intent. A single
// compiled *vis.Vis is returned as is.
func CompileTerms(t frame.Table, p *analysis.Profile, terms ...vis.Term) (*vis.Collection, error) {
	for _, term := range terms {
		v, ok := term.(*vis.Vis)
		if !ok || v == nil || v.Mark == "" {
			continue
		}
		if len(terms) > 1 {
			return nil, invalid(v.String(), ErrUnsupportedIntent, "a compiled vis cannot be combined with other terms")
		}
		return vis.NewCollection(v.Copy()), nil
	}
	clauses, err := Parse(terms...)
	if err != nil {
		return nil, err
	}
	clauses, err = Validate(t, clauses)
	if err != nil {
		return nil, err
	}
	return Compile(p, clauses)
}

// Compile expands validated clauses into one Vis per combination of
// wildcard and alternative choices, then picks marks and channels.
// An empty intent compiles to an empty collection. Combinations that
// cannot be encoded are skipped; if none can, ErrUnsupportedIntent is
// returned.
func Compile(p *analysis.Profile, clauses []vis.Clause) (*vis.Collection, error) {
	out := vis.NewCollection()
	if len(clauses) == 0 {
		return out, nil
	}
	options := make([][]vis.Clause, len(clauses))
	for i, c := range clauses {
		opts, err := expand(p, c)
		if err != nil {
			return nil, err
		}
		if len(opts) == 0 {
			return out, nil
		}
		options[i] = opts
	}
	var unsupported error
	for _, combo := range product(options) {
		if !distinct(combo) {
			continue
		}
		v := vis.New(clauses...)
		v.Clauses = combo
		if err := encode(p, v); err != nil {
			if errors.Is(err, ErrUnsupportedIntent) {
				unsupported = err
				continue
			}
			return nil, err
		}
		out.Append(v)
	}
	if out.Len() == 0 && unsupported != nil {
		return nil, unsupported
	}
	return out, nil
}

// expand lists the concrete clauses a single clause stands for.
func expand(p *analysis.Profile, c vis.Clause) ([]vis.Clause, error) {
	var out []vis.Clause
	if c.IsFilter() {
		values := c.Values
		if len(values) == 0 {
			if isWildcard(c.Value) {
				uv, ok := p.UniqueValues[c.Attribute]
				if !ok {
					return nil, invalid(c.String(), ErrUnsupportedIntent, "values of %q cannot be enumerated", c.Attribute)
				}
				values = uv
			} else {
				values = []any{c.Value}
			}
		}
		for _, v := range values {
			o := c.Copy()
			o.Values = nil
			o.Value = v
			bindTypes(&o, p)
			out = append(out, o)
		}
		return out, nil
	}

	var names []string
	switch {
	case len(c.Attributes) > 0:
		names = c.Attributes
	case c.Attribute == vis.Wildcard:
		for _, col := range p.Columns {
			st := p.DataTypeLookup[col]
			if st == analysis.ID || slices.Contains(c.Exclude, col) {
				continue
			}
			if c.DataType != "" && st != c.DataType {
				continue
			}
			if c.DataModel != "" && p.DataModelLookup[col] != c.DataModel {
				continue
			}
			names = append(names, col)
		}
	default:
		names = []string{c.Attribute}
	}
	for _, n := range names {
		o := c.Copy()
		o.Attributes = nil
		o.Exclude = nil
		o.Attribute = n
		if c.Attribute == vis.Wildcard || len(c.Attributes) > 0 {
			o.DataType, o.DataModel = "", ""
		}
		bindTypes(&o, p)
		out = append(out, o)
	}
	return out, nil
}

func product(options [][]vis.Clause) [][]vis.Clause {
	combos := [][]vis.Clause{nil}
	for _, opts := range options {
		next := make([][]vis.Clause, 0, len(combos)*len(opts))
		for _, prefix := range combos {
			for _, o := range opts {
				combo := make([]vis.Clause, len(prefix), len(prefix)+1)
				copy(combo, prefix)
				next = append(next, append(combo, o.Copy()))
			}
		}
		combos = next
	}
	return combos
}

// distinct rejects combinations that repeat an attribute or carry more
// than one temporal clause. Filters are not attributes of the Vis and may
// name a column that is also on an axis.
func distinct(combo []vis.Clause) bool {
	seen := make(map[string]bool, len(combo))
	temporal := 0
	for _, c := range combo {
		if c.IsFilter() {
			continue
		}
		if seen[c.Attribute] {
			return false
		}
		seen[c.Attribute] = true
		if c.DataType == analysis.Temporal {
			temporal++
		}
	}
	return temporal < 2
}

func countClause() vis.Clause {
	return vis.Clause{
		Attribute:   vis.Record,
		DataType:    analysis.Quantitative,
		DataModel:   analysis.Measure,
		Aggregation: vis.Count,
	}
}

// encode picks the mark from the number of dimensions and measures and
// binds channels, honoring explicit channel assignments. Record is not
// counted as a measure; it becomes the count axis when one is needed.
// A filter-only Vis keeps an empty mark.
func encode(p *analysis.Profile, v *vis.Vis) error {
	var dims, msrs, filters []vis.Clause
	count := countClause()
	for _, c := range v.Clauses {
		switch {
		case c.IsFilter():
			filters = append(filters, c)
		case c.Attribute == vis.Record:
			count = c
			if count.Aggregation == vis.DefaultAggregation {
				count.Aggregation = vis.Count
			}
		case c.DataModel == analysis.Measure:
			msrs = append(msrs, c)
		default:
			dims = append(dims, c)
		}
	}
	var auto []vis.Clause // in x, y, color order
	switch nd, nm := len(dims), len(msrs); {
	case nd == 0 && nm == 1:
		m := msrs[0]
		if m.BinSize == 0 {
			m.BinSize = DefaultBinSize
		}
		m.Aggregation = vis.NoAggregation
		v.Mark = vis.Histogram
		auto = []vis.Clause{m, count}
	case nd == 1 && nm <= 1:
		if nm == 0 {
			msrs = append(msrs, count)
		}
		var x, y vis.Clause
		v.Mark, x, y = lineOrBar(p, dims[0], msrs[0])
		auto = []vis.Clause{x, y}
	case nd == 2 && nm <= 1:
		dim, color := dims[0], dims[1]
		if p.Cardinality[dims[0].Attribute] < p.Cardinality[dims[1].Attribute] {
			dim, color = dims[1], dims[0]
		}
		if nm == 0 {
			msrs = append(msrs, count)
		}
		var x, y vis.Clause
		v.Mark, x, y = lineOrBar(p, dim, msrs[0])
		auto = []vis.Clause{x, y, color}
	case nd == 0 && nm == 2:
		v.Mark = vis.Scatter
		auto = []vis.Clause{unaggregated(msrs[0]), unaggregated(msrs[1])}
	case nd == 1 && nm == 2:
		v.Mark = vis.Scatter
		auto = []vis.Clause{unaggregated(msrs[0]), unaggregated(msrs[1]), dims[0]}
	case nd == 0 && nm == 3:
		v.Mark = vis.Scatter
		auto = []vis.Clause{unaggregated(msrs[0]), unaggregated(msrs[1]), unaggregated(msrs[2])}
	case nd == 0 && nm == 0:
		return nil
	default:
		return invalid(v.String(), ErrUnsupportedIntent, "cannot encode %d dimensions with %d measures", nd, nm)
	}

	bound, err := bindChannels(v, auto)
	if err != nil {
		return err
	}
	v.Clauses = append(bound, filters...)
	v.MinMax = map[string]analysis.MinMax{}
	for _, c := range bound {
		if mm, ok := p.MinMax[c.Attribute]; ok {
			v.MinMax[c.Attribute] = mm
		}
	}
	return nil
}

func unaggregated(c vis.Clause) vis.Clause {
	c.Aggregation = vis.NoAggregation
	return c
}

func lineOrBar(p *analysis.Profile, dim, msr vis.Clause) (vis.Mark, vis.Clause, vis.Clause) {
	if msr.Aggregation == vis.DefaultAggregation {
		msr.Aggregation = vis.Mean
	}
	if dim.DataType == analysis.Temporal || dim.DataType == analysis.Ordinal {
		return vis.Line, dim, msr
	}
	if p.Cardinality[dim.Attribute] > sortThreshold {
		dim.Sort = "descending"
	}
	return vis.Bar, dim, msr
}

// bindChannels gives explicitly assigned clauses their channel and fills the
// remaining channels with the automatic choices in order.
func bindChannels(v *vis.Vis, auto []vis.Clause) ([]vis.Clause, error) {
	channels := []vis.Channel{vis.X, vis.Y, vis.Color}
	result := make(map[vis.Channel]vis.Clause, len(channels))
	for _, ch := range channels {
		var specified []vis.Clause
		for _, c := range auto {
			if c.Channel == ch {
				specified = append(specified, c)
			}
		}
		switch len(specified) {
		case 0:
		case 1:
			result[ch] = specified[0]
			auto = slices.DeleteFunc(auto, func(c vis.Clause) bool { return c.Attribute == specified[0].Attribute })
		default:
			return nil, invalid(v.String(), ErrUnsupportedIntent, "more than one attribute on channel %s", ch)
		}
	}
	for _, ch := range channels {
		if _, ok := result[ch]; ok || len(auto) == 0 {
			continue
		}
		c := auto[0]
		auto = auto[1:]
		c.Channel = ch
		result[ch] = c
	}
	out := make([]vis.Clause, 0, len(result))
	for _, ch := range channels {
		if c, ok := result[ch]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

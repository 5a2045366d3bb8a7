// Package executor binds processed data to compiled Vis: it filters rows,
// groups and aggregates bar and line charts, bins histograms and extracts
// scatter points.
package executor

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/KaramelBytes/visloom/internal/analysis"
	"github.com/KaramelBytes/visloom/internal/frame"
	"github.com/KaramelBytes/visloom/internal/vis"
)

// ScatterSampleCap bounds the points kept for one scatter plot.
const ScatterSampleCap = 10000

// Execute fills the Data of every member of col.
func Execute(ctx context.Context, t frame.Table, p *analysis.Profile, col *vis.Collection) error {
	for _, v := range col.Items() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := ExecuteVis(t, p, v); err != nil {
			return err
		}
	}
	return nil
}

// ExecuteVis computes the data a Vis is drawn from. A Vis without a mark gets empty data.
func ExecuteVis(t frame.Table, p *analysis.Profile, v *vis.Vis) error {
	rows := FilterRows(t, v.Filters())
	var err error
	switch v.Mark {
	case vis.Bar, vis.Line:
		v.Data, err = aggregate(t, p, v, rows)
	case vis.Histogram:
		v.Data, err = bin(t, v, rows)
	case vis.Scatter:
		v.Data, err = points(t, v, rows)
	default:
		v.Data = vis.NewData()
	}
	if err != nil {
		return fmt.Errorf("execute %s: %w", v, err)
	}
	return nil
}

// FilterRows returns the positions of rows matching every filter.
func FilterRows(t frame.Table, filters []vis.Clause) []int {
	n := t.RowCount()
	cols := make([][]any, len(filters))
	for i, f := range filters {
		cols[i] = values(t, f.Attribute)
	}
	out := make([]int, 0, n)
	for r := 0; r < n; r++ {
		keep := true
		for i, f := range filters {
			var cell any
			if r < len(cols[i]) {
				cell = cols[i][r]
			}
			if !Match(cell, f.FilterOp, f.Value) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, r)
		}
	}
	return out
}

// Match applies one filter operator to a cell. Missing cells only satisfy "!=".
func Match(cell any, op string, value any) bool {
	if cell == nil {
		return op == "!="
	}
	switch op {
	case "=":
		return frame.Equal(cell, value)
	case "!=":
		return !frame.Equal(cell, value)
	}
	c, ok := frame.Compare(cell, value)
	if !ok {
		return false
	}
	switch op {
	case "<":
		return c < 0
	case ">":
		return c > 0
	case "<=":
		return c <= 0
	case ">=":
		return c >= 0
	}
	return false
}

func values(t frame.Table, name string) []any {
	if slices.Contains(t.ColumnNames(), name) {
		return t.ColumnValues(name)
	}
	if name != "" && name == t.IndexName() {
		return t.IndexValues()
	}
	return nil
}

type group struct {
	keys []any
	vals []float64
	rows int
}

func aggregate(t frame.Table, p *analysis.Profile, v *vis.Vis, rows []int) (*vis.Data, error) {
	x, okX := v.ByChannel(vis.X)
	y, okY := v.ByChannel(vis.Y)
	if !okX || !okY {
		return nil, fmt.Errorf("bar and line charts need x and y")
	}
	dim, msr := x, y
	if x.DataModel == analysis.Measure && y.DataModel != analysis.Measure {
		dim, msr = y, x
	}
	keyAttrs := []string{dim.Attribute}
	if c, ok := v.ByChannel(vis.Color); ok {
		keyAttrs = append(keyAttrs, c.Attribute)
	}

	if msr.Aggregation == vis.NoAggregation {
		series := []vis.Series{{Name: dim.Attribute}, {Name: msr.Attribute}}
		dv, mv := values(t, dim.Attribute), values(t, msr.Attribute)
		for _, r := range rows {
			series[0].Values = append(series[0].Values, dv[r])
			series[1].Values = append(series[1].Values, mv[r])
		}
		return vis.NewData(series...), nil
	}

	keyCols := make([][]any, len(keyAttrs))
	for i, a := range keyAttrs {
		keyCols[i] = values(t, a)
	}
	var msrCol []any
	if msr.Attribute != vis.Record {
		msrCol = values(t, msr.Attribute)
	}
	groups := map[string]*group{}
	var order []string
	add := func(keys []any) *group {
		k := groupKey(keys)
		g, ok := groups[k]
		if !ok {
			g = &group{keys: keys}
			groups[k] = g
			order = append(order, k)
		}
		return g
	}
	for _, r := range rows {
		keys := make([]any, len(keyCols))
		missing := false
		for i, col := range keyCols {
			keys[i] = col[r]
			missing = missing || keys[i] == nil
		}
		if missing {
			continue
		}
		g := add(keys)
		g.rows++
		if msrCol != nil {
			if f, ok := frame.ToFloat(msrCol[r]); ok {
				g.vals = append(g.vals, f)
			}
		}
	}
	// zero-fill categories absent after filtering
	for _, keys := range combinations(p, keyAttrs) {
		add(keys)
	}

	keyed := make([]*group, 0, len(order))
	for _, k := range order {
		keyed = append(keyed, groups[k])
	}
	sort.SliceStable(keyed, func(i, j int) bool { return lessKeys(keyed[i].keys, keyed[j].keys) })

	series := make([]vis.Series, len(keyAttrs)+1)
	for i, a := range keyAttrs {
		series[i].Name = a
	}
	series[len(keyAttrs)].Name = msr.Attribute
	type row struct {
		keys []any
		val  float64
	}
	out := make([]row, len(keyed))
	for i, g := range keyed {
		out[i] = row{keys: g.keys, val: reduce(msr.Aggregation, g)}
	}
	if dim.Sort == "descending" && len(keyAttrs) == 1 {
		sort.SliceStable(out, func(i, j int) bool { return out[i].val > out[j].val })
	}
	for _, r := range out {
		for i, k := range r.keys {
			series[i].Values = append(series[i].Values, k)
		}
		series[len(keyAttrs)].Values = append(series[len(keyAttrs)].Values, r.val)
	}
	return vis.NewData(series...), nil
}

func reduce(agg vis.Aggregation, g *group) float64 {
	if agg == vis.Count {
		if g.vals != nil {
			return float64(len(g.vals))
		}
		return float64(g.rows)
	}
	if len(g.vals) == 0 {
		return 0
	}
	switch agg {
	case vis.Sum:
		s := 0.0
		for _, f := range g.vals {
			s += f
		}
		return s
	case vis.Min:
		return slices.Min(g.vals)
	case vis.Max:
		return slices.Max(g.vals)
	default:
		s := 0.0
		for _, f := range g.vals {
			s += f
		}
		return s / float64(len(g.vals))
	}
}

// combinations lists every key tuple over the profiled unique values.
// Attributes without enumerated values contribute nothing.
func combinations(p *analysis.Profile, attrs []string) [][]any {
	out := [][]any{nil}
	for _, a := range attrs {
		uv, ok := p.UniqueValues[a]
		if !ok {
			return nil
		}
		next := make([][]any, 0, len(out)*len(uv))
		for _, prefix := range out {
			for _, u := range uv {
				keys := append(append([]any(nil), prefix...), u)
				next = append(next, keys)
			}
		}
		out = next
	}
	return out
}

func groupKey(keys []any) string {
	s := ""
	for _, k := range keys {
		s += frame.Key(k) + "\x1f"
	}
	return s
}

func lessKeys(a, b []any) bool {
	for i := range a {
		c, ok := frame.Compare(a[i], b[i])
		if !ok {
			c = compareText(frame.Format(a[i]), frame.Format(b[i]))
		}
		if c != 0 {
			return c < 0
		}
	}
	return false
}

func compareText(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// bin counts rows per equal-width bin over the column's overall range.
func bin(t frame.Table, v *vis.Vis, rows []int) (*vis.Data, error) {
	x, ok := v.ByChannel(vis.X)
	if !ok {
		return nil, fmt.Errorf("histogram needs x")
	}
	bins := x.BinSize
	if bins <= 0 {
		bins = 10
	}
	col := values(t, x.Attribute)
	var data []float64
	for _, r := range rows {
		if f, ok := frame.ToFloat(col[r]); ok {
			data = append(data, f)
		}
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	if mm, ok := v.MinMax[x.Attribute]; ok {
		lo, hi = mm.Min, mm.Max
	} else {
		for _, f := range data {
			lo, hi = math.Min(lo, f), math.Max(hi, f)
		}
	}
	if len(data) == 0 && math.IsInf(lo, 1) {
		return vis.NewData(vis.Series{Name: x.Attribute}, vis.Series{Name: vis.Record}), nil
	}
	if hi == lo {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(bins)
	counts := make([]any, bins)
	starts := make([]any, bins)
	tally := make([]int64, bins)
	for _, f := range data {
		if f < lo || f > hi {
			continue
		}
		i := int((f - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		tally[i]++
	}
	for i := range tally {
		starts[i] = lo + float64(i)*width
		counts[i] = tally[i]
	}
	return vis.NewData(vis.Series{Name: x.Attribute, Values: starts}, vis.Series{Name: vis.Record, Values: counts}), nil
}

func points(t frame.Table, v *vis.Vis, rows []int) (*vis.Data, error) {
	var attrs []string
	for _, ch := range []vis.Channel{vis.X, vis.Y, vis.Color} {
		if c, ok := v.ByChannel(ch); ok {
			attrs = append(attrs, c.Attribute)
		}
	}
	if len(attrs) < 2 {
		return nil, fmt.Errorf("scatter needs x and y")
	}
	cols := make([][]any, len(attrs))
	for i, a := range attrs {
		cols[i] = values(t, a)
	}
	kept := make([]int, 0, len(rows))
	for _, r := range rows {
		complete := true
		for _, col := range cols {
			if col[r] == nil {
				complete = false
				break
			}
		}
		if complete {
			kept = append(kept, r)
		}
	}
	if len(kept) > ScatterSampleCap {
		stride := float64(len(kept)) / ScatterSampleCap
		sampled := make([]int, ScatterSampleCap)
		for i := range sampled {
			sampled[i] = kept[int(float64(i)*stride)]
		}
		kept = sampled
	}
	series := make([]vis.Series, len(attrs))
	for i, a := range attrs {
		series[i].Name = a
		series[i].Values = make([]any, len(kept))
		for j, r := range kept {
			series[i].Values[j] = cols[i][r]
		}
	}
	return vis.NewData(series...), nil
}

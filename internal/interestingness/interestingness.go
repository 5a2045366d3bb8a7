// Package interestingness scores executed Vis so collections can be ranked.
package interestingness

import (
	"math"
	"sort"

	"github.com/KaramelBytes/visloom/internal/analysis"
	"github.com/KaramelBytes/visloom/internal/executor"
	"github.com/KaramelBytes/visloom/internal/frame"
	"github.com/KaramelBytes/visloom/internal/vis"
)

const (
	minScatterPoints  = 10
	maxColorGroups    = 40
	twoDimensionScore = 0.15
	threeMeasureScore = 0.1
	unevenDiscount    = 0.9
)

// Score rates an executed Vis. vis.InvalidScore marks it as not worth showing.
func Score(t frame.Table, p *analysis.Profile, v *vis.Vis) float64 {
	dims := v.ByRole(analysis.Dimension)
	msrs := v.ByRole(analysis.Measure)
	filters := v.Filters()
	size := v.Data.Len()

	switch nd, nm, nf := len(dims), len(msrs), len(filters); {
	case nd == 1 && nm <= 1:
		if size < 2 {
			return vis.InvalidScore
		}
		y := measureColumn(v)
		switch nf {
		case 0:
			return unevenness(p, v, dims[0].Attribute, y)
		case 1:
			return deviationFromOverall(t, p, v, filters, y)
		}
	case nd == 0 && nm == 1:
		if size < 2 {
			return vis.InvalidScore
		}
		switch nf {
		case 0:
			return math.Abs(skewness(v.Data.Floats(vis.Record)))
		case 1:
			return deviationFromOverall(t, p, v, filters, vis.Record)
		}
	case nd == 0 && nm == 2:
		if size < minScatterPoints {
			return vis.InvalidScore
		}
		sig := 1.0
		if nf == 1 && p.Rows > 0 {
			sig = float64(len(executor.FilterRows(t, filters))) / float64(p.Rows)
		}
		return sig * monotonicity(v, msrs[0].Attribute, msrs[1].Attribute)
	case nd == 1 && nm == 2:
		if size < minScatterPoints {
			return vis.InvalidScore
		}
		c, ok := v.ByChannel(vis.Color)
		if !ok {
			return vis.InvalidScore
		}
		if card := p.Cardinality[c.Attribute]; card > 0 && card < maxColorGroups {
			return 1 / float64(card)
		}
		return vis.InvalidScore
	case nd == 0 && nm == 3:
		return threeMeasureScore
	case nd == 2 && nm <= 1:
		return twoDimensionScore
	}
	return vis.InvalidScore
}

// measureColumn names the aggregated value column of a bar or line chart.
func measureColumn(v *vis.Vis) string {
	for _, c := range v.Attributes() {
		if c.DataModel == analysis.Measure {
			return c.Attribute
		}
	}
	return vis.Record
}

// unevenness is the distance of the normalized bar heights from a uniform
// distribution, discounted by the number of categories.
func unevenness(p *analysis.Profile, v *vis.Vis, dim, msr string) float64 {
	vals := normalized(v.Data.Column(msr))
	card := p.Cardinality[dim]
	if card == 0 {
		card = len(vals)
	}
	flat := make([]float64, len(vals))
	for i := range flat {
		flat[i] = 1 / float64(card)
	}
	return math.Pow(unevenDiscount, float64(card)) * euclidean(vals, flat)
}

// deviationFromOverall compares a filtered chart with the same chart over
// all rows, weighted by the share of rows the filter keeps.
func deviationFromOverall(t frame.Table, p *analysis.Profile, v *vis.Vis, filters []vis.Clause, msr string) float64 {
	filtered := v.Data.Column(msr)
	total := 0.0
	for _, x := range filtered {
		if f, ok := frame.ToFloat(x); ok {
			total += f
		}
	}
	if total == 0 {
		return 0
	}
	overall := v.Copy()
	overall.Clauses = overall.Attributes()
	if err := executor.ExecuteVis(t, p, overall); err != nil {
		return vis.InvalidScore
	}
	keyCols := keyColumns(v)
	a := alignByKey(overall.Data, keyCols, msr)
	b := alignByKey(v.Data, keyCols, msr)
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	va := make([]any, len(keys))
	vb := make([]any, len(keys))
	for i, k := range keys {
		va[i], vb[i] = a[k], b[k]
	}

	sig := 1.0
	if p.Rows > 0 {
		sig = float64(len(executor.FilterRows(t, filters))) / float64(p.Rows)
	}
	rankSig := 1.0
	if v.Mark == vis.Bar && len(keys) > 0 {
		ra, rb := ranks(floats(va)), ranks(floats(vb))
		changed := 0
		for i := 0; i < len(keys)-1; i++ {
			if ra[i] != rb[i] {
				changed++
			}
		}
		rankSig = float64(1+changed) / float64(len(keys))
	}
	return sig * rankSig * euclidean(normalized(va), normalized(vb))
}

func keyColumns(v *vis.Vis) []string {
	var out []string
	for _, c := range v.Attributes() {
		if c.DataModel != analysis.Measure || c.BinSize > 0 {
			out = append(out, c.Attribute)
		}
	}
	return out
}

func alignByKey(d *vis.Data, keyCols []string, msr string) map[string]any {
	out := make(map[string]any, d.Len())
	vals := d.Column(msr)
	for i := 0; i < d.Len(); i++ {
		k := ""
		for _, kc := range keyCols {
			k += frame.Key(d.Column(kc)[i]) + "\x1f"
		}
		out[k] = vals[i]
	}
	return out
}

// monotonicity is the absolute Spearman rank correlation of two measures.
func monotonicity(v *vis.Vis, a, b string) float64 {
	if a == b {
		return vis.InvalidScore
	}
	xs, ys := pairs(v.Data, a, b)
	r := spearman(xs, ys)
	if math.IsNaN(r) {
		return vis.InvalidScore
	}
	return math.Abs(r)
}

func pairs(d *vis.Data, a, b string) ([]float64, []float64) {
	ca, cb := d.Column(a), d.Column(b)
	var xs, ys []float64
	for i := range ca {
		x, okX := frame.ToFloat(ca[i])
		y, okY := frame.ToFloat(cb[i])
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	return xs, ys
}

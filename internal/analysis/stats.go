package analysis

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/visloom/internal/frame"
)

// IndexKey is the name under which a non-integer row index is profiled.
func IndexKey(t frame.Table) string {
	if n := t.IndexName(); n != "" {
		return n
	}
	return "index"
}

type columnStats struct {
	name    string
	unique  []any
	card    int
	minMax  *MinMax
	summary *NumSummary
}

// ComputeStats profiles every column independently with up to workers goroutines.
// Results are merged in column declaration order.
func ComputeStats(ctx context.Context, t frame.Table, workers int) (Stats, error) {
	names := t.ColumnNames()
	slots := make([]columnStats, len(names))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = profileColumn(name, t.ColumnStorageType(name), t.ColumnValues(name))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	st := Stats{
		UniqueValues: make(map[string][]any, len(names)+1),
		Cardinality:  make(map[string]int, len(names)+1),
		MinMax:       make(map[string]MinMax),
		Summaries:    make(map[string]NumSummary),
	}
	for _, cs := range slots {
		if cs.unique != nil {
			st.UniqueValues[cs.name] = cs.unique
		}
		st.Cardinality[cs.name] = cs.card
		if cs.minMax != nil {
			st.MinMax[cs.name] = *cs.minMax
		}
		if cs.summary != nil {
			st.Summaries[cs.name] = *cs.summary
		}
	}
	if t.IndexStorageType() != frame.Integer {
		key := IndexKey(t)
		u := uniqueOf(t.IndexValues())
		st.UniqueValues[key] = u
		st.Cardinality[key] = len(u)
	}
	return st, nil
}

func profileColumn(name string, typ frame.StorageType, values []any) columnStats {
	cs := columnStats{name: name}
	if typ == frame.Float {
		cs.card = HighCardinality
	} else {
		cs.unique = uniqueOf(values)
		cs.card = len(cs.unique)
	}
	if typ == frame.Float || typ == frame.Integer {
		nums := make([]float64, 0, len(values))
		for _, v := range values {
			if f, ok := frame.ToFloat(v); ok {
				nums = append(nums, f)
			}
		}
		if len(nums) > 0 {
			mm := MinMax{Min: math.Inf(1), Max: math.Inf(-1)}
			for _, f := range nums {
				mm.Min = math.Min(mm.Min, f)
				mm.Max = math.Max(mm.Max, f)
			}
			cs.minMax = &mm
			s := summarize(nums)
			cs.summary = &s
		}
	}
	return cs
}

// uniqueOf returns distinct non-missing values in first-seen order.
func uniqueOf(values []any) []any {
	seen := make(map[string]struct{}, len(values))
	out := make([]any, 0)
	for _, v := range values {
		if v == nil {
			continue
		}
		k := frame.Key(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

// summarize uses Welford's update for mean and variance.
func summarize(vals []float64) NumSummary {
	var n int
	var mean, m2 float64
	for _, x := range vals {
		n++
		d := x - mean
		mean += d / float64(n)
		m2 += d * (x - mean)
	}
	s := NumSummary{Count: n, Mean: mean}
	if n > 1 {
		s.Std = math.Sqrt(m2 / float64(n-1))
	}
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	s.Median = quantile(cp, 0.5)
	return s
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

package analysis

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/visloom/internal/frame"
)

func ints(vals ...int) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = int64(v)
	}
	return out
}

func repeatInts(n int, f func(i int) int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = int64(f(i))
	}
	return out
}

func boolPtr(b bool) *bool { return &b }

func TestComputeStats(t *testing.T) {
	f := frame.MustNew(
		frame.Column{Name: "n", Type: frame.Integer, Values: ints(3, 1, 3, 2)},
		frame.Column{Name: "x", Type: frame.Float, Values: []any{1.5, nil, -2.0, 4.0}},
		frame.Column{Name: "s", Type: frame.Generic, Values: []any{"b", "a", "b", nil}},
	)
	st, err := ComputeStats(context.Background(), f, 2)
	require.NoError(t, err)

	assert.Equal(t, []any{int64(3), int64(1), int64(2)}, st.UniqueValues["n"])
	assert.Equal(t, 3, st.Cardinality["n"])
	assert.Equal(t, MinMax{Min: 1, Max: 3}, st.MinMax["n"])

	assert.Equal(t, HighCardinality, st.Cardinality["x"])
	_, enumerated := st.UniqueValues["x"]
	assert.False(t, enumerated, "float columns skip unique enumeration")
	assert.Equal(t, MinMax{Min: -2, Max: 4}, st.MinMax["x"])

	assert.Equal(t, []any{"b", "a"}, st.UniqueValues["s"])
	_, hasRange := st.MinMax["s"]
	assert.False(t, hasRange)
}

func TestComputeStatsProfilesNonIntegerIndex(t *testing.T) {
	f := frame.MustNew(frame.Column{Name: "v", Type: frame.Integer, Values: ints(1, 2, 3)})
	_, err := f.WithIndex(frame.Index{Name: "region", Type: frame.Generic, Values: []any{"n", "s", "n"}})
	require.NoError(t, err)

	st, err := ComputeStats(context.Background(), f, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Cardinality["region"])

	lookup, _ := ComputeDataType(f, st, false)
	assert.Equal(t, Nominal, lookup["region"])
}

func TestComputeStatsCanceled(t *testing.T) {
	f := frame.MustNew(frame.Column{Name: "v", Type: frame.Integer, Values: ints(1)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ComputeStats(ctx, f, 1)
	require.ErrorIs(t, err, context.Canceled)
}

func TestIntegerClassification(t *testing.T) {
	cases := []struct {
		name   string
		col    string
		values []any
		preAgg bool
		want   SemanticType
	}{
		{"low cardinality is nominal", "grade", repeatInts(20, func(i int) int { return i % 5 }), false, Nominal},
		{"ratio above threshold is quantitative", "score", repeatInts(20, func(i int) int { return i % 15 }), false, Quantitative},
		{"pre-aggregated unique is nominal", "year_bucket", repeatInts(20, func(i int) int { return i * 3 }), true, Nominal},
		{"evenly spaced run is id", "row", repeatInts(600, func(i int) int { return i + 1 }), false, ID},
		{"named id with many values", "customer_id", repeatInts(600, func(i int) int { return (i * 7919) % 1000 }), false, ID},
		{"small unique run stays quantitative", "a", ints(1, 2, 3, 4, 5), false, Quantitative},
		{"named id under the cardinality gate stays quantitative", "id", repeatInts(100, func(i int) int { return i + 1 }), false, Quantitative},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := frame.MustNew(frame.Column{Name: tc.col, Type: frame.Integer, Values: tc.values})
			st, err := ComputeStats(context.Background(), f, 0)
			require.NoError(t, err)
			lookup, _ := ComputeDataType(f, st, tc.preAgg)
			assert.Equal(t, tc.want, lookup[tc.col])
		})
	}
}

func TestTemporalAdvisories(t *testing.T) {
	f := frame.MustNew(
		frame.Column{Name: "date", Type: frame.Generic, Values: []any{"2024-01-01", "2024-01-02"}},
		frame.Column{Name: "when", Type: frame.Datetime, Values: []any{time.Now(), time.Now()}},
	)
	st, err := ComputeStats(context.Background(), f, 0)
	require.NoError(t, err)
	lookup, adv := ComputeDataType(f, st, false)
	assert.Equal(t, Temporal, lookup["date"])
	assert.Equal(t, Temporal, lookup["when"])
	require.Len(t, adv, 1)
	assert.True(t, strings.HasPrefix(adv[0], "attribute 'date' may be temporal"), adv[0])

	g := frame.MustNew(
		frame.Column{Name: "Year", Type: frame.Integer, Values: ints(2020, 2021)},
		frame.Column{Name: "2024-05-01", Type: frame.Float, Values: []any{1.0, 2.0}},
	)
	st, err = ComputeStats(context.Background(), g, 0)
	require.NoError(t, err)
	lookup, adv = ComputeDataType(g, st, false)
	assert.Equal(t, Temporal, lookup["Year"])
	assert.Equal(t, Temporal, lookup["2024-05-01"], "timestamp-like names are temporal")
	require.Len(t, adv, 1)
	assert.True(t, strings.HasPrefix(adv[0], "attributes [Year, 2024-05-01] may be temporal"), adv[0])
}

func TestComputeDataModel(t *testing.T) {
	lookup := map[string]SemanticType{
		"q1": Quantitative, "n1": Nominal, "t1": Temporal, "o1": Ordinal, "id": ID, "q2": Quantitative,
	}
	groups := GroupByType([]string{"q1", "n1", "t1", "o1", "id", "q2"}, lookup)
	model, rev := ComputeDataModel(groups)
	assert.Equal(t, []string{"q1", "q2"}, model[Measure])
	assert.Equal(t, []string{"o1", "n1", "t1"}, model[Dimension])
	assert.Equal(t, Measure, rev["q2"])
	assert.Equal(t, Dimension, rev["t1"])
	_, modeled := rev["id"]
	assert.False(t, modeled)
}

func TestInferPreAggregated(t *testing.T) {
	big := func(n int) *frame.Frame {
		return frame.MustNew(frame.Column{Name: "v", Type: frame.Integer, Values: repeatInts(n, func(i int) int { return i })})
	}
	assert.True(t, InferPreAggregated(big(10)), "ten rows or fewer")
	assert.False(t, InferPreAggregated(big(50)))

	labeled := big(50)
	labels := make([]any, 50)
	for i := range labels {
		labels[i] = fmt.Sprintf("r%d", i)
	}
	_, err := labeled.WithIndex(frame.Index{Name: "k", Type: frame.Generic, Values: labels})
	require.NoError(t, err)
	assert.True(t, InferPreAggregated(labeled), "labeled index under 100 rows")

	counted := big(200)
	require.NoError(t, counted.SetColumn(frame.Column{Name: RecordCountColumn, Type: frame.Integer, Values: repeatInts(200, func(int) int { return 1 })}))
	assert.True(t, InferPreAggregated(counted))
}

func TestProfileIdempotentAndOverride(t *testing.T) {
	f := frame.MustNew(
		frame.Column{Name: "a", Type: frame.Integer, Values: ints(1, 2, 3, 4, 5)},
		frame.Column{Name: "b", Type: frame.Integer, Values: ints(0, 1, 5, 10, 15)},
	)
	p := NewProfiler()
	first, err := p.Profile(context.Background(), f, boolPtr(false))
	require.NoError(t, err)
	second, err := p.Profile(context.Background(), f, boolPtr(false))
	require.NoError(t, err)

	assert.Equal(t, first.DataTypeLookup, second.DataTypeLookup)
	assert.Equal(t, first.Cardinality, second.Cardinality)
	assert.Equal(t, first.UniqueValues, second.UniqueValues)
	assert.Equal(t, first.MinMax, second.MinMax)
	assert.Equal(t, Quantitative, first.DataTypeLookup["a"])
	assert.Equal(t, Quantitative, first.DataTypeLookup["b"])
	assert.False(t, first.PreAggregated)

	inferred, err := p.Profile(context.Background(), f, nil)
	require.NoError(t, err)
	assert.True(t, inferred.PreAggregated)
	assert.Equal(t, Nominal, inferred.DataTypeLookup["a"], "unique integers in a rollup are categories")
}

func TestProfileMarkdown(t *testing.T) {
	f := frame.MustNew(
		frame.Column{Name: "date", Type: frame.Generic, Values: []any{"2024-01-01", "2024-01-02", "2024-01-03"}},
		frame.Column{Name: "plot", Type: frame.Generic, Values: []any{"A1", "A1", "B3"}},
		frame.Column{Name: "alpha", Type: frame.Float, Values: []any{12.5, 11.8, 10.2}},
	)
	prof, err := NewProfiler().Profile(context.Background(), f, nil)
	require.NoError(t, err)
	md := prof.Markdown("hop_harvest.csv")
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: hop_harvest.csv",
		"Rows: 3",
		"- plot: nominal (dimension), cardinality: 2",
		"values: A1 | B3",
		"- alpha: quantitative (measure), cardinality: high, range: [10.2, 12.5]",
		"[NOTES]",
	} {
		assert.Contains(t, md, want)
	}
}

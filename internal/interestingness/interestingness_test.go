package interestingness

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/visloom/internal/analysis"
	"github.com/KaramelBytes/visloom/internal/executor"
	"github.com/KaramelBytes/visloom/internal/frame"
	"github.com/KaramelBytes/visloom/internal/intent"
	"github.com/KaramelBytes/visloom/internal/vis"
)

func table(t *testing.T, n int) (*frame.Frame, *analysis.Profile) {
	t.Helper()
	region := make([]any, n)
	x := make([]any, n)
	y := make([]any, n)
	for i := 0; i < n; i++ {
		region[i] = []string{"n", "s", "e"}[i%3]
		x[i] = float64(i)
		y[i] = float64(i*i) + 0.5
	}
	f := frame.MustNew(
		frame.Column{Name: "region", Type: frame.Generic, Values: region},
		frame.Column{Name: "x", Type: frame.Float, Values: x},
		frame.Column{Name: "y", Type: frame.Float, Values: y},
	)
	no := false
	p, err := analysis.NewProfiler().Profile(context.Background(), f, &no)
	require.NoError(t, err)
	return f, p
}

func scored(t *testing.T, f *frame.Frame, p *analysis.Profile, terms ...vis.Term) *vis.Vis {
	t.Helper()
	col, err := intent.CompileTerms(f, p, terms...)
	require.NoError(t, err)
	require.Equal(t, 1, col.Len())
	v := col.At(0)
	require.NoError(t, executor.ExecuteVis(f, p, v))
	v.Score = Score(f, p, v)
	return v
}

func TestScoreBarUnevenness(t *testing.T) {
	f, p := table(t, 7)
	v := scored(t, f, p, vis.Shorthand("region"))
	// counts e=2 n=3 s=2 against a uniform 1/3 each, discounted by 0.9^3
	want := math.Pow(0.9, 3) * math.Sqrt(2*math.Pow(2.0/7-1.0/3, 2)+math.Pow(3.0/7-1.0/3, 2))
	assert.InDelta(t, want, v.Score, 1e-9)
}

func TestScoreBarDeviationFromOverall(t *testing.T) {
	f, p := table(t, 12)
	v := scored(t, f, p, vis.Shorthand("region"), vis.Shorthand("y"), vis.Shorthand("x>5"))
	assert.Greater(t, v.Score, 0.0)

	same := scored(t, f, p, vis.Shorthand("region"), vis.Shorthand("y"), vis.Shorthand("x>=0"))
	assert.InDelta(t, 0, same.Score, 1e-12, "a filter keeping every row deviates by nothing")
}

func TestScoreTooLittleData(t *testing.T) {
	f := frame.MustNew(
		frame.Column{Name: "k", Type: frame.Generic, Values: []any{"a", "a"}},
		frame.Column{Name: "m", Type: frame.Float, Values: []any{1.0, 2.0}},
	)
	no := false
	p, err := analysis.NewProfiler().Profile(context.Background(), f, &no)
	require.NoError(t, err)
	assert.Equal(t, vis.InvalidScore, scored(t, f, p, vis.Shorthand("k")).Score)

	g, gp := table(t, 9)
	assert.Equal(t, vis.InvalidScore, scored(t, g, gp, vis.Shorthand("x"), vis.Shorthand("y")).Score,
		"scatter plots need ten points")
}

func TestScoreScatterMonotonicity(t *testing.T) {
	f, p := table(t, 20)
	v := scored(t, f, p, vis.Shorthand("x"), vis.Shorthand("y"))
	assert.InDelta(t, 1.0, v.Score, 1e-12)

	g, gp := table(t, 40)
	filtered := scored(t, g, gp, vis.Shorthand("x"), vis.Shorthand("y"), vis.Shorthand("region=n"))
	assert.InDelta(t, 14.0/40, filtered.Score, 1e-12)

	colored := scored(t, f, p, vis.Shorthand("x"), vis.Shorthand("y"), vis.Shorthand("region"))
	assert.InDelta(t, 1.0/3, colored.Score, 1e-12)
}

func TestScoreHistogramSkew(t *testing.T) {
	f, p := table(t, 20)
	v := scored(t, f, p, vis.Shorthand("y"))
	assert.Equal(t, vis.Histogram, v.Mark)
	assert.Greater(t, v.Score, 0.0)
}

func TestScoreFixedShapes(t *testing.T) {
	f := frame.MustNew(
		frame.Column{Name: "a", Type: frame.Generic, Values: []any{"p", "q", "p", "q"}},
		frame.Column{Name: "b", Type: frame.Generic, Values: []any{"u", "u", "v", "v"}},
	)
	no := false
	p, err := analysis.NewProfiler().Profile(context.Background(), f, &no)
	require.NoError(t, err)
	assert.Equal(t, 0.15, scored(t, f, p, vis.Shorthand("a"), vis.Shorthand("b")).Score)
	assert.Equal(t, vis.InvalidScore, Score(f, p, &vis.Vis{}))
}

func TestStatsHelpers(t *testing.T) {
	assert.Equal(t, []float64{1.5, 1.5, 3}, ranks([]float64{2, 2, 5}))
	assert.InDelta(t, -1.0, spearman([]float64{1, 2, 3}, []float64{9, 4, 1}), 1e-12)
	assert.True(t, math.IsNaN(spearman([]float64{1, 1, 1}, []float64{1, 2, 3})))
	assert.InDelta(t, 0, skewness([]float64{1, 2, 3}), 1e-12)
	assert.Greater(t, skewness([]float64{1, 1, 1, 10}), 0.0)
	assert.Equal(t, vis.InvalidScore, monotonicity(&vis.Vis{Data: vis.NewData()}, "a", "a"))
}

package vis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/visloom/internal/analysis"
)

func bar(x, y string, score float64) *Vis {
	return &Vis{
		Mark: Bar,
		Clauses: []Clause{
			{Attribute: x, Channel: X, DataType: analysis.Nominal, DataModel: analysis.Dimension},
			{Attribute: y, Channel: Y, DataType: analysis.Quantitative, DataModel: analysis.Measure, Aggregation: Mean},
		},
		Score: score,
	}
}

func TestSortDropsInvalidAndIsStable(t *testing.T) {
	a, b, c, d := bar("a", "m", 0.5), bar("b", "m", InvalidScore), bar("c", "m", 0.5), bar("d", "m", 0.9)
	col := NewCollection(a, b, c, d)
	col.Sort(true, true)
	assert.Equal(t, []*Vis{d, a, c}, col.Items())

	col = NewCollection(a, b, c, d)
	col.Sort(false, false)
	assert.Equal(t, []*Vis{b, a, c, d}, col.Items())
}

func TestTopKBottomKLeaveReceiverAlone(t *testing.T) {
	col := NewCollection(bar("a", "m", 0.2), bar("b", "m", 0.9), bar("c", "m", InvalidScore), bar("d", "m", 0.4))
	assert.Equal(t, []float64{0.9, 0.4}, col.TopK(2).Scores())
	assert.Equal(t, []float64{0.2, 0.4, 0.9}, col.BottomK(10).Scores())
	assert.Equal(t, 0, col.TopK(0).Len())
	assert.Equal(t, []float64{0.2, 0.9, InvalidScore, 0.4}, col.Scores())
}

func TestNormalizeScore(t *testing.T) {
	col := NewCollection(bar("a", "m", 2), bar("b", "m", 1), bar("c", "m", InvalidScore))
	col.NormalizeScore(false)
	assert.Equal(t, []float64{1, 0.5, InvalidScore}, col.Scores())

	col = NewCollection(bar("a", "m", 2), bar("b", "m", 1))
	col.NormalizeScore(true)
	assert.Equal(t, []float64{0, 0.5}, col.Scores())

	zero := NewCollection(bar("a", "m", 0), bar("b", "m", 0))
	zero.NormalizeScore(false)
	assert.Equal(t, []float64{0, 0}, zero.Scores())

	NewCollection().NormalizeScore(false)
}

func TestRemoveDuplicates(t *testing.T) {
	first := bar("a", "m", 0.1)
	same := bar("a", "m", 0.7)
	same.Clauses[0], same.Clauses[1] = same.Clauses[1], same.Clauses[0]
	other := bar("a", "m", 0.3)
	other.Clauses = append(other.Clauses, Clause{Attribute: "k", FilterOp: "=", Value: "v"})

	col := NewCollection(first, same, other)
	col.RemoveDuplicates()
	assert.Equal(t, []*Vis{first, other}, col.Items())
}

func TestCopyIsDeep(t *testing.T) {
	v := bar("a", "m", 0.1)
	v.Clauses[0].Exclude = []string{"z"}
	cp := v.Copy()
	cp.Clauses[0].Attribute = "changed"
	cp.Clauses[0].Exclude[0] = "y"
	assert.Equal(t, "a", v.Clauses[0].Attribute)
	assert.Equal(t, "z", v.Clauses[0].Exclude[0])
}

func TestVisString(t *testing.T) {
	v := bar("Origin", "Horsepower", 0.5)
	v.Clauses = append(v.Clauses, Clause{Attribute: "Cylinders", FilterOp: "=", Value: int64(4)})
	assert.Equal(t, "<Vis  (x: Origin, y: MEAN(Horsepower) -- [Cylinders=4]) mark: bar, score: 0.5 >", v.String())
}

func TestCollectionString(t *testing.T) {
	hist := &Vis{Mark: Histogram, Score: 0.25, Clauses: []Clause{
		{Attribute: "Weight", Channel: X, BinSize: 10},
		{Attribute: Record, Channel: Y, Aggregation: Count},
	}}
	col := NewCollection(bar("Origin", "Horsepower", 0.5), hist)
	want := "[<Vis  (x: Origin     , y: MEAN(Horsepower)) mark: bar      , score: 0.50 >,\n" +
		" <Vis  (x: BIN(Weight), y: COUNT(Record)   ) mark: histogram, score: 0.25 >]"
	assert.Equal(t, want, col.String())
	assert.Equal(t, "[]", NewCollection().String())
}

func TestSpecRendering(t *testing.T) {
	v := bar("Origin", "Horsepower", 0.5)
	v.Clauses = append(v.Clauses, Clause{Attribute: "Cylinders", FilterOp: ">", Value: int64(4)})
	v.Data = NewData(Series{Name: "Origin", Values: []any{"USA"}}, Series{Name: "Horsepower", Values: []any{120.0}})

	s, err := v.Spec()
	require.NoError(t, err)
	assert.Equal(t, "bar", s.Mark)
	assert.Equal(t, Encoding{Attribute: "Horsepower", Type: "quantitative", Aggregation: "mean"}, s.Encodings["y"])
	assert.Equal(t, &FilterSpec{Attribute: "Cylinders", Operator: ">", Value: int64(4)}, s.Filter)
	assert.Equal(t, []map[string]any{{"Origin": "USA", "Horsepower": 120.0}}, s.Values)
}

func TestPlotConfigPanicIsRecovered(t *testing.T) {
	ok, bad := bar("a", "m", 1), bar("b", "m", 1)
	col := NewCollection(ok, bad)
	col.SetPlotConfig(func(s Spec) Spec {
		s.Title = "configured"
		return s
	})
	bad.SetPlotConfig(func(Spec) Spec { panic("boom") })

	specs, err := col.Specs()
	require.ErrorIs(t, err, ErrPlotConfig)
	require.Len(t, specs, 2)
	assert.Equal(t, "configured", specs[0].Title)
	assert.Empty(t, specs[1].Title)

	col.ClearPlotConfig()
	_, err = col.Specs()
	assert.NoError(t, err)
}

func TestDataPadsAndConverts(t *testing.T) {
	d := NewData(Series{Name: "k", Values: []any{"a", "b"}}, Series{Name: "n", Values: []any{int64(1)}})
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, []any{int64(1), nil}, d.Column("n"))
	assert.Equal(t, []float64{1}, d.Floats("n"))
	var empty *Data
	assert.Equal(t, 0, empty.Len())
}

package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/visloom/internal/action"
	"github.com/KaramelBytes/visloom/internal/vis"
)

func scatter(x, y string, score float64) *vis.Vis {
	return &vis.Vis{
		Mark:  vis.Scatter,
		Score: score,
		Clauses: []vis.Clause{
			{Attribute: x, Channel: vis.X, Aggregation: vis.NoAggregation},
			{Attribute: y, Channel: vis.Y, Aggregation: vis.NoAggregation},
		},
	}
}

func bar(dim string, score float64) *vis.Vis {
	return &vis.Vis{
		Mark:  vis.Bar,
		Score: score,
		Clauses: []vis.Clause{
			{Attribute: dim, Channel: vis.X},
			{Attribute: vis.Record, Channel: vis.Y, Aggregation: vis.Count},
		},
	}
}

func fixture() (*vis.Collection, *action.Result) {
	current := vis.NewCollection(bar("Origin", 0.4))
	recs := &action.Result{Recommendations: []action.Recommendation{
		{Kind: action.Correlation, Action: "Correlation", Collection: vis.NewCollection(
			scatter("Horsepower", "Weight", 0.9),
			scatter("Horsepower", "Acceleration", 0.7),
			scatter("Weight", "Acceleration", 0.5),
		)},
		{Kind: action.Occurrence, Action: "Occurrence", Collection: vis.NewCollection(
			bar("Origin", 0.6),
			bar("Brand", 0.3),
		)},
	}}
	return current, recs
}

func TestSelectNamedTabs(t *testing.T) {
	current, recs := fixture()
	res, err := Select(Selection{"Correlation": {0, 2}, "Occurrence": {1}}, current, recs)
	require.NoError(t, err)
	assert.Nil(t, res.Collection)
	require.Len(t, res.Tabs, 2)
	assert.Equal(t, 2, res.Tabs["Correlation"].Len())
	assert.Equal(t, 1, res.Tabs["Occurrence"].Len())
	assert.Same(t, recs.Recommendations[0].Collection.At(2), res.Tabs["Correlation"].At(1))
	assert.Equal(t, 3, res.Len())
}

func TestSelectEmpty(t *testing.T) {
	current, recs := fixture()
	res, err := Select(Selection{}, current, recs)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
	assert.Equal(t, "no visualization selected to export", res.Warning)
}

func TestSelectCurrentVis(t *testing.T) {
	current, recs := fixture()
	res, err := Select(Selection{CurrentVisKey: {0}}, current, recs)
	require.NoError(t, err)
	assert.Same(t, current, res.Collection)
	assert.Equal(t, CurrentVisLabel, res.Action)

	res, err = Select(Selection{CurrentVisKey: {0}, "Occurrence": {0}}, current, recs)
	require.NoError(t, err)
	assert.Same(t, current, res.Tabs[CurrentVisLabel])
	assert.Equal(t, 1, res.Tabs["Occurrence"].Len())
}

func TestSelectSingleAction(t *testing.T) {
	current, recs := fixture()
	res, err := Select(Selection{"Occurrence": {1, 0}}, current, recs)
	require.NoError(t, err)
	require.Equal(t, 2, res.Collection.Len())
	assert.Equal(t, "Occurrence", res.Action)
	assert.Equal(t, 0.3, res.Collection.At(0).Score)
}

func TestSelectErrors(t *testing.T) {
	current, recs := fixture()
	_, err := Select(Selection{"Temporal": {0}}, current, recs)
	require.ErrorIs(t, err, ErrUnknownAction)

	_, err = Select(Selection{"Occurrence": {2}}, current, recs)
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = Select(Selection{"Correlation": {0}, "Occurrence": {-1}}, current, recs)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestBundleRoundTrip(t *testing.T) {
	current, recs := fixture()
	res, err := Select(Selection{CurrentVisKey: nil, "Correlation": {1}}, current, recs)
	require.NoError(t, err)

	b := NewBundle("cars.csv", res)
	assert.Equal(t, 2, b.Count())
	path := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, b.Write(path))

	got, err := LoadBundle(path)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, "cars.csv", got.Source)
	require.Len(t, got.Current, 1)
	assert.Equal(t, "bar", got.Current[0].Mark)
	assert.Equal(t, "count", got.Current[0].Encodings["y"].Aggregation)
	require.Len(t, got.Tabs["Correlation"], 1)
	assert.Equal(t, "Acceleration", got.Tabs["Correlation"][0].Encodings["y"].Attribute)
	assert.True(t, b.CreatedAt.Equal(got.CreatedAt))
}

func TestBundlePlotConfigPanicBecomesWarning(t *testing.T) {
	current, recs := fixture()
	recs.Recommendations[1].Collection.SetPlotConfig(func(vis.Spec) vis.Spec { panic("bad config") })
	res, err := Select(Selection{"Occurrence": {0}}, current, recs)
	require.NoError(t, err)

	b := NewBundle("cars.csv", res)
	require.Len(t, b.Tabs["Occurrence"], 1)
	assert.Equal(t, "bar", b.Tabs["Occurrence"][0].Mark)
	require.Len(t, b.Warnings, 1)
	assert.Contains(t, b.Warnings[0], "plot config failed")
}

// Package action holds the recommendation strategies and the dispatcher
// that picks which of them run for a dataset.
package action

import (
	"context"
	"fmt"
	"strings"

	"github.com/KaramelBytes/visloom/internal/analysis"
	"github.com/KaramelBytes/visloom/internal/executor"
	"github.com/KaramelBytes/visloom/internal/frame"
	"github.com/KaramelBytes/visloom/internal/intent"
	"github.com/KaramelBytes/visloom/internal/interestingness"
	"github.com/KaramelBytes/visloom/internal/vis"
)

// Kind identifies one recommendation strategy.
type Kind int

const (
	Correlation Kind = iota
	Distribution
	Occurrence
	Temporal
	Enhance
	Filter
	Generalize
	CurrentVis
	RowGroups
	ColumnGroups
)

// DefaultTopK caps the collections of ranked actions.
const DefaultTopK = 15

type handler func(ctx context.Context, in Input) (Recommendation, error)

var names = map[Kind]string{
	Correlation:  "Correlation",
	Distribution: "Distribution",
	Occurrence:   "Occurrence",
	Temporal:     "Temporal",
	Enhance:      "Enhance",
	Filter:       "Filter",
	Generalize:   "Generalize",
	CurrentVis:   "Current Vis",
	RowGroups:    "Row Groups",
	ColumnGroups: "Column Groups",
}

// handlers is the closed set of strategies; adding one means adding a Kind
// and a row here.
var handlers = map[Kind]handler{
	Correlation:  correlation,
	Distribution: distribution,
	Occurrence:   occurrence,
	Temporal:     temporal,
	Enhance:      enhance,
	Filter:       filter,
	Generalize:   generalize,
	CurrentVis:   currentVis,
	RowGroups:    rowGroups,
	ColumnGroups: columnGroups,
}

func (k Kind) String() string {
	if n, ok := names[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps an action name back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range names {
		if strings.EqualFold(n, name) {
			return k, true
		}
	}
	return 0, false
}

// Input is the frozen state an action reads.
type Input struct {
	Table      frame.Table
	Profile    *analysis.Profile
	Intent     []vis.Clause
	CurrentVis *vis.Collection
	TopK       int
}

func (in Input) topK() int {
	if in.TopK > 0 {
		return in.TopK
	}
	return DefaultTopK
}

func (in Input) filters() []vis.Clause {
	var out []vis.Clause
	for _, c := range in.Intent {
		if c.IsFilter() {
			out = append(out, c.Copy())
		}
	}
	return out
}

// attributes returns the intent's attribute clauses, excluding Record.
func (in Input) attributes() []vis.Clause {
	var out []vis.Clause
	for _, c := range in.Intent {
		if !c.IsFilter() && c.Attribute != vis.Record {
			out = append(out, c.Copy())
		}
	}
	return out
}

// describeIntent renders the intent as "a, b, c=v".
func (in Input) describeIntent() string {
	var parts []string
	for _, c := range in.attributes() {
		parts = append(parts, c.String())
	}
	for _, c := range in.filters() {
		parts = append(parts, c.FilterString())
	}
	return strings.Join(parts, ", ")
}

// Recommendation is one action's ranked output.
type Recommendation struct {
	Kind        Kind
	Action      string
	Description string
	Collection  *vis.Collection
}

func newRecommendation(k Kind, description string) Recommendation {
	return Recommendation{Kind: k, Action: k.String(), Description: description, Collection: vis.NewCollection()}
}

// Spec renders the recommendation for a renderer.
func (r Recommendation) Spec() (vis.RecommendationSpec, error) {
	specs, err := r.Collection.Specs()
	return vis.RecommendationSpec{Action: r.Action, Description: r.Description, Specs: specs}, err
}

// build compiles clauses, executes every candidate and scores it.
func build(ctx context.Context, in Input, clauses []vis.Clause) (*vis.Collection, error) {
	col, err := intent.Compile(in.Profile, clauses)
	if err != nil {
		return nil, err
	}
	return col, score(ctx, in, col)
}

func score(ctx context.Context, in Input, col *vis.Collection) error {
	if err := executor.Execute(ctx, in.Table, in.Profile, col); err != nil {
		return err
	}
	for _, v := range col.Items() {
		v.Score = interestingness.Score(in.Table, in.Profile, v)
	}
	return nil
}

func currentVis(ctx context.Context, in Input) (Recommendation, error) {
	rec := newRecommendation(CurrentVis, "Shows a vis collection defined by the intent.")
	col := vis.NewCollection()
	for _, v := range in.CurrentVis.Items() {
		col.Append(v.Copy())
	}
	if err := score(ctx, in, col); err != nil {
		return rec, err
	}
	col.Sort(true, true)
	rec.Collection = col
	return rec, nil
}

func (r Recommendation) withKind(k Kind) outcome {
	if r.Collection == nil {
		r.Collection = vis.NewCollection()
	}
	r.Kind, r.Action = k, k.String()
	return outcome{rec: r}
}

package vis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/visloom/internal/analysis"
	"github.com/KaramelBytes/visloom/internal/frame"
)

// Mark is the chart type of a Vis.
type Mark string

const (
	Histogram Mark = "histogram"
	Bar       Mark = "bar"
	Line      Mark = "line"
	Scatter   Mark = "scatter"
)

// InvalidScore marks a Vis that should not be displayed.
const InvalidScore = -1.0

// Term is one element of a user intent: a Shorthand string, a Clause or a full *Vis.
type Term interface{ isTerm() }

// Shorthand is an intent term in text form, such as "Horsepower",
// "Origin|Cylinders", "Origin=USA" or "?".
type Shorthand string

func (Shorthand) isTerm() {}

// PlotConfig rewrites a rendered spec. It runs on every Spec call.
type PlotConfig func(Spec) Spec

// Vis is one data-bound visualization candidate.
type Vis struct {
	Mark    Mark
	Clauses []Clause // channel-bound attributes followed by filters
	Intent  []Clause // what the Vis was compiled from
	Score   float64
	Title   string
	MinMax  map[string]analysis.MinMax
	Data    *Data

	plotConfig PlotConfig
}

func (*Vis) isTerm() {}

// New returns an unbound Vis for an intent; compile it to fill the rest.
func New(intent ...Clause) *Vis {
	return &Vis{Intent: copyClauses(intent)}
}

// Copy returns an independent Vis sharing the immutable Data.
func (v *Vis) Copy() *Vis {
	out := *v
	out.Clauses = copyClauses(v.Clauses)
	out.Intent = copyClauses(v.Intent)
	if v.MinMax != nil {
		out.MinMax = make(map[string]analysis.MinMax, len(v.MinMax))
		for k, mm := range v.MinMax {
			out.MinMax[k] = mm
		}
	}
	return &out
}

// Filters returns the filter clauses.
func (v *Vis) Filters() []Clause {
	var out []Clause
	for _, c := range v.Clauses {
		if c.IsFilter() {
			out = append(out, c)
		}
	}
	return out
}

// Attributes returns the non-filter clauses.
func (v *Vis) Attributes() []Clause {
	var out []Clause
	for _, c := range v.Clauses {
		if !c.IsFilter() {
			out = append(out, c)
		}
	}
	return out
}

// ByChannel returns the attribute clause bound to ch.
func (v *Vis) ByChannel(ch Channel) (Clause, bool) {
	for _, c := range v.Clauses {
		if !c.IsFilter() && c.Channel == ch {
			return c, true
		}
	}
	return Clause{}, false
}

// ByRole returns the attribute clauses with the given data model, skipping Record.
func (v *Vis) ByRole(role analysis.Role) []Clause {
	var out []Clause
	for _, c := range v.Clauses {
		if !c.IsFilter() && c.DataModel == role && c.Attribute != Record {
			out = append(out, c)
		}
	}
	return out
}

// ByType returns the attribute clauses with the given semantic type.
func (v *Vis) ByType(st analysis.SemanticType) []Clause {
	var out []Clause
	for _, c := range v.Clauses {
		if !c.IsFilter() && c.DataType == st && c.Attribute != Record {
			out = append(out, c)
		}
	}
	return out
}

// SetPlotConfig installs a spec rewrite hook; nil clears it.
func (v *Vis) SetPlotConfig(fn PlotConfig) { v.plotConfig = fn }

// Key identifies a Vis structurally: mark, channel bindings and filters.
func (v *Vis) Key() string {
	var attrs, filters []string
	for _, c := range v.Clauses {
		if c.IsFilter() {
			filters = append(filters, c.Attribute+c.FilterOp+frame.Key(c.Value))
			continue
		}
		attrs = append(attrs, fmt.Sprintf("%s:%s:%s:%d", c.Channel, c.Attribute, c.Aggregation, c.BinSize))
	}
	sort.Strings(attrs)
	sort.Strings(filters)
	return string(v.Mark) + "|" + strings.Join(attrs, ",") + "|" + strings.Join(filters, ",")
}

func (v *Vis) String() string {
	var filter *Clause
	var channels, extra []string
	for i, c := range v.Clauses {
		if c.IsFilter() {
			filter = &v.Clauses[i]
			continue
		}
		entry := string(c.Channel) + ": " + c.Label()
		switch c.Channel {
		case X:
			channels = append([]string{entry}, channels...)
		case NoChannel:
			extra = append(extra, entry)
		default:
			channels = append(channels, entry)
		}
	}
	enc := strings.Join(append(channels, extra...), ", ")
	if filter != nil {
		return fmt.Sprintf("<Vis  (%s -- [%s]) mark: %s, score: %v >", enc, filter.FilterString(), v.Mark, v.Score)
	}
	return fmt.Sprintf("<Vis  (%s) mark: %s, score: %v >", enc, v.Mark, v.Score)
}

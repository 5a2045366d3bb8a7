package vis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/visloom/internal/analysis"
	"github.com/KaramelBytes/visloom/internal/frame"
)

// Channel is a visual encoding slot.
type Channel string

const (
	NoChannel Channel = ""
	X         Channel = "x"
	Y         Channel = "y"
	Color     Channel = "color"
)

// Aggregation is applied to a measure grouped by dimensions.
// The zero value means "let the compiler decide"; NoAggregation disables it.
type Aggregation string

const (
	DefaultAggregation Aggregation = ""
	NoAggregation      Aggregation = "none"
	Mean               Aggregation = "mean"
	Sum                Aggregation = "sum"
	Count              Aggregation = "count"
	Min                Aggregation = "min"
	Max                Aggregation = "max"
)

// Aggregated reports whether a concrete aggregation is set.
func (a Aggregation) Aggregated() bool { return a != DefaultAggregation && a != NoAggregation }

const (
	// Wildcard as an attribute or filter value expands over every candidate.
	Wildcard = "?"
	// Record is the synthetic measure counted by count aggregations.
	Record = "Record"
)

// FilterOps are the supported filter operators.
var FilterOps = []string{"=", "!=", "<", ">", "<=", ">="}

// Clause is one term of an intent: an attribute with optional encoding
// hints, or a filter when FilterOp is set.
type Clause struct {
	Attribute   string
	Attributes  []string // alternatives expanded one per Vis
	Channel     Channel
	DataType    analysis.SemanticType
	DataModel   analysis.Role
	Aggregation Aggregation
	BinSize     int
	Sort        string
	FilterOp    string
	Value       any
	Values      []any // alternative filter values expanded one per Vis
	Exclude     []string
}

func (Clause) isTerm() {}

// IsFilter reports whether the clause restricts rows.
func (c Clause) IsFilter() bool { return c.FilterOp != "" }

// Copy returns a deep copy.
func (c Clause) Copy() Clause {
	out := c
	out.Attributes = append([]string(nil), c.Attributes...)
	out.Values = append([]any(nil), c.Values...)
	out.Exclude = append([]string(nil), c.Exclude...)
	return out
}

// Label is the channel label used in summaries: AGG(attr), BIN(attr) or attr.
func (c Clause) Label() string {
	switch {
	case c.Aggregation.Aggregated():
		return strings.ToUpper(string(c.Aggregation)) + "(" + c.Attribute + ")"
	case c.BinSize > 0:
		return "BIN(" + c.Attribute + ")"
	default:
		return c.Attribute
	}
}

// FilterString renders a filter as attr<op>value.
func (c Clause) FilterString() string {
	return c.Attribute + c.FilterOp + frame.Format(c.Value)
}

func (c Clause) String() string {
	if c.IsFilter() {
		if len(c.Values) > 0 {
			vals := make([]string, len(c.Values))
			for i, v := range c.Values {
				vals[i] = frame.Format(v)
			}
			return c.Attribute + c.FilterOp + strings.Join(vals, "|")
		}
		return c.FilterString()
	}
	if len(c.Attributes) > 0 {
		return strings.Join(c.Attributes, "|")
	}
	var b strings.Builder
	b.WriteString(c.Label())
	if c.Channel != NoChannel {
		b.WriteString(fmt.Sprintf(" @%s", c.Channel))
	}
	return b.String()
}

func copyClauses(in []Clause) []Clause {
	if in == nil {
		return nil
	}
	out := make([]Clause, len(in))
	for i, c := range in {
		out[i] = c.Copy()
	}
	return out
}

// CopyClauses deep-copies an intent.
func CopyClauses(in []Clause) []Clause { return copyClauses(in) }

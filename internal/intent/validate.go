package intent

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/visloom/internal/analysis"
	"github.com/KaramelBytes/visloom/internal/frame"
	"github.com/KaramelBytes/visloom/internal/vis"
)

// Validate resolves attribute names against the table, case-insensitively
// when there is no exact match, checks operators and coerces filter values
// to the column's storage type. The input is not modified.
func Validate(t frame.Table, clauses []vis.Clause) ([]vis.Clause, error) {
	cols := t.ColumnNames()
	if name := t.IndexName(); name != "" && !slices.Contains(cols, name) {
		cols = append(cols, name)
	}
	out := make([]vis.Clause, len(clauses))
	for i, in := range clauses {
		c := in.Copy()
		label := c.String()
		if c.IsFilter() && !slices.Contains(vis.FilterOps, c.FilterOp) {
			return nil, invalid(label, ErrMalformedClause, "operator %q is not one of %s", c.FilterOp, strings.Join(vis.FilterOps, " "))
		}
		if c.Attribute == "" && len(c.Attributes) == 0 {
			return nil, invalid(label, ErrMalformedClause, "no attribute")
		}
		if c.Attribute != "" && c.Attribute != vis.Wildcard && c.Attribute != vis.Record {
			name, ok := resolve(cols, c.Attribute)
			if !ok {
				return nil, invalid(label, ErrUnknownAttribute, "%q is not a column", c.Attribute)
			}
			c.Attribute = name
		}
		for j, a := range c.Attributes {
			name, ok := resolve(cols, a)
			if !ok {
				return nil, invalid(label, ErrUnknownAttribute, "%q is not a column", a)
			}
			c.Attributes[j] = name
		}
		if c.IsFilter() {
			if c.Attribute == vis.Wildcard || c.Attribute == vis.Record {
				return nil, invalid(label, ErrUnsupportedIntent, "filters need a concrete attribute")
			}
			st := storageOf(t, c.Attribute)
			if !(isWildcard(c.Value) && len(c.Values) == 0) {
				var err error
				if len(c.Values) > 0 {
					for j, v := range c.Values {
						if c.Values[j], err = coerce(v, st); err != nil {
							return nil, invalid(label, ErrMalformedClause, "%v", err)
						}
					}
				} else if c.Value, err = coerce(c.Value, st); err != nil {
					return nil, invalid(label, ErrMalformedClause, "%v", err)
				}
			}
		}
		if c.Channel != vis.NoChannel && c.Channel != vis.X && c.Channel != vis.Y && c.Channel != vis.Color {
			return nil, invalid(label, ErrMalformedClause, "unknown channel %q", c.Channel)
		}
		switch c.Aggregation {
		case vis.DefaultAggregation, vis.NoAggregation, vis.Mean, vis.Sum, vis.Count, vis.Min, vis.Max:
		default:
			return nil, invalid(label, ErrMalformedClause, "unknown aggregation %q", c.Aggregation)
		}
		out[i] = c
	}
	return out, nil
}

func resolve(cols []string, name string) (string, bool) {
	if slices.Contains(cols, name) {
		return name, true
	}
	for _, c := range cols {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}

func storageOf(t frame.Table, name string) frame.StorageType {
	if name == t.IndexName() && !slices.Contains(t.ColumnNames(), name) {
		return t.IndexStorageType()
	}
	return t.ColumnStorageType(name)
}

func isWildcard(v any) bool {
	s, ok := v.(string)
	return ok && s == vis.Wildcard
}

// coerce converts shorthand text or decoded YAML scalars to the column's
// value representation.
func coerce(v any, st frame.StorageType) (any, error) {
	switch x := v.(type) {
	case int:
		v = int64(x)
	case float32:
		v = float64(x)
	}
	s, isText := v.(string)
	switch st {
	case frame.Integer:
		if isText {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return n, nil
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not a number", s)
			}
			return f, nil
		}
		if f, ok := frame.ToFloat(v); ok {
			if f == float64(int64(f)) {
				return int64(f), nil
			}
			return f, nil
		}
	case frame.Float:
		if isText {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not a number", s)
			}
			return f, nil
		}
		if f, ok := frame.ToFloat(v); ok {
			return f, nil
		}
	case frame.Datetime:
		if isText {
			ts, ok := frame.ParseTime(s)
			if !ok {
				return nil, fmt.Errorf("%q is not a date", s)
			}
			return ts, nil
		}
		if _, ok := v.(time.Time); ok {
			return v, nil
		}
	default:
		if isText {
			return s, nil
		}
		return frame.Format(v), nil
	}
	return nil, fmt.Errorf("cannot use %v as %s", v, st)
}

// bindTypes fills DataType and DataModel from the profile. Identifier
// columns named explicitly are treated as nominal dimensions.
func bindTypes(c *vis.Clause, p *analysis.Profile) {
	if c.Attribute == vis.Record {
		if c.DataType == "" {
			c.DataType = analysis.Quantitative
		}
		if c.DataModel == "" {
			c.DataModel = analysis.Measure
		}
		return
	}
	if c.DataType == "" {
		c.DataType = p.DataTypeLookup[c.Attribute]
	}
	if c.DataType == analysis.ID {
		c.DataType = analysis.Nominal
	}
	if c.DataModel == "" {
		if c.DataType == analysis.Quantitative {
			c.DataModel = analysis.Measure
		} else {
			c.DataModel = analysis.Dimension
		}
	}
}

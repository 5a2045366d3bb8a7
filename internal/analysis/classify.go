package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/KaramelBytes/visloom/internal/frame"
)

var temporalNames = map[string]bool{"month": true, "year": true, "day": true, "date": true, "time": true}

var idNamePattern = regexp.MustCompile(`(?i)(^id$|^id[_\s-]|[_\s-]id$|[a-z]Id$|[a-z]ID$)`)

// ComputeDataType classifies every column. The first matching rule wins:
// temporal name, float, integer heuristic, generic, datetime.
// It also returns advisories for temporal columns not stored as datetimes.
func ComputeDataType(t frame.Table, st Stats, preAggregated bool) (map[string]SemanticType, []string) {
	rows := t.RowCount()
	lookup := make(map[string]SemanticType, len(t.ColumnNames())+1)
	for _, name := range t.ColumnNames() {
		typ := t.ColumnStorageType(name)
		switch {
		case isTemporalName(name):
			lookup[name] = Temporal
		case typ == frame.Float:
			lookup[name] = Quantitative
		case typ == frame.Integer:
			lookup[name] = classifyInteger(name, t.ColumnValues(name), st.Cardinality[name], rows, preAggregated)
		case typ == frame.Generic:
			lookup[name] = Nominal
		case typ == frame.Datetime:
			lookup[name] = Temporal
		}
	}
	if t.IndexStorageType() != frame.Integer && t.IndexName() != "" {
		lookup[t.IndexName()] = Nominal
	}

	var notDatetime []string
	for _, name := range t.ColumnNames() {
		if lookup[name] == Temporal && t.ColumnStorageType(name) != frame.Datetime {
			notDatetime = append(notDatetime, name)
		}
	}
	var advisories []string
	switch len(notDatetime) {
	case 0:
	case 1:
		advisories = append(advisories, fmt.Sprintf(
			"attribute '%s' may be temporal; convert it to a datetime column (for example with --parse-dates) so it is visualized accurately",
			notDatetime[0]))
	default:
		advisories = append(advisories, fmt.Sprintf(
			"attributes [%s] may be temporal; convert them to datetime columns (for example with --parse-dates) so they are visualized accurately",
			strings.Join(notDatetime, ", ")))
	}
	return lookup, advisories
}

func classifyInteger(name string, values []any, card, rows int, preAggregated bool) SemanticType {
	switch {
	case preAggregated && card == rows:
		return Nominal
	case rows > 0 && float64(card)/float64(rows) < 0.4 && card < 10:
		return Nominal
	case IsIDLike(name, values, card, rows):
		return ID
	default:
		return Quantitative
	}
}

// isTemporalName reports whether a column name is itself a timestamp or a calendar word.
func isTemporalName(name string) bool {
	if temporalNames[strings.ToLower(name)] {
		return true
	}
	_, ok := frame.ParseTime(strings.TrimSpace(name))
	return ok
}

// IsIDLike reports whether an integer column behaves like a row identifier.
// Only high-cardinality columns qualify, so small rollups keep their numbers.
// Beyond that the values must be almost all unique or an evenly spaced run.
// Columns named like identifiers need fewer unique values.
func IsIDLike(name string, values []any, card, rows int) bool {
	if card <= 500 || rows == 0 {
		return false
	}
	uniqueShare := 0.98
	if idNamePattern.MatchString(name) {
		uniqueShare = 0.75
	}
	almostUnique := float64(card) >= uniqueShare*float64(rows)
	return almostUnique || evenlySpaced(values)
}

func evenlySpaced(values []any) bool {
	if len(values) < 2 {
		return true
	}
	prev, ok := frame.ToFloat(values[0])
	if !ok {
		return false
	}
	var step float64
	for i := 1; i < len(values); i++ {
		cur, ok := frame.ToFloat(values[i])
		if !ok {
			return false
		}
		d := cur - prev
		if i == 1 {
			step = d
		} else if d != step {
			return false
		}
		prev = cur
	}
	return step != 0
}

// GroupByType lists columns per semantic type in TypeOrder, each in column order.
// A profiled index name is appended after the columns.
func GroupByType(columns []string, lookup map[string]SemanticType) map[SemanticType][]string {
	out := make(map[SemanticType][]string, len(TypeOrder))
	for _, st := range TypeOrder {
		out[st] = nil
	}
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		seen[c] = true
		if st, ok := lookup[c]; ok {
			out[st] = append(out[st], c)
		}
	}
	for c, st := range lookup {
		if !seen[c] {
			out[st] = append(out[st], c)
		}
	}
	return out
}

// ComputeDataModel derives measures (quantitative) and dimensions
// (ordinal, then nominal, then temporal) plus the reverse lookup.
func ComputeDataModel(dataType map[SemanticType][]string) (map[Role][]string, map[string]Role) {
	model := map[Role][]string{
		Measure:   append([]string(nil), dataType[Quantitative]...),
		Dimension: nil,
	}
	model[Dimension] = append(model[Dimension], dataType[Ordinal]...)
	model[Dimension] = append(model[Dimension], dataType[Nominal]...)
	model[Dimension] = append(model[Dimension], dataType[Temporal]...)
	lookup := make(map[string]Role)
	for role, cols := range model {
		for _, c := range cols {
			lookup[c] = role
		}
	}
	return model, lookup
}

// InferPreAggregated guesses whether the table is already a rollup.
func InferPreAggregated(t frame.Table) bool {
	rows := t.RowCount()
	pre := (t.IndexLevels() != 1 || t.IndexStorageType() != frame.Integer) && rows < 100
	for _, c := range t.ColumnNames() {
		if c == RecordCountColumn {
			pre = true
		}
	}
	if rows <= 10 {
		pre = true
	}
	return pre
}

package analysis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/visloom/internal/frame"
)

const maxListedValues = 8

// Markdown renders a compact profile suitable for terminals or standalone docs.
func (p *Profile) Markdown(name string) string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", p.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(p.Columns)))
	b.WriteString(fmt.Sprintf("Pre-aggregated: %t\n\n", p.PreAggregated))

	b.WriteString("[SCHEMA]\n")
	for _, c := range p.Columns {
		st := p.DataTypeLookup[c]
		b.WriteString(fmt.Sprintf("- %s: %s", safeName(c), st))
		if role, ok := p.DataModelLookup[c]; ok {
			b.WriteString(fmt.Sprintf(" (%s)", role))
		}
		card := p.Cardinality[c]
		if card == HighCardinality {
			b.WriteString(", cardinality: high")
		} else {
			b.WriteString(fmt.Sprintf(", cardinality: %d", card))
		}
		if mm, ok := p.MinMax[c]; ok {
			b.WriteString(fmt.Sprintf(", range: [%.4g, %.4g]", mm.Min, mm.Max))
		}
		if s, ok := p.Summaries[c]; ok && s.Count > 1 {
			b.WriteString(fmt.Sprintf(", mean: %.4g, std: %.4g, median: %.4g", s.Mean, s.Std, s.Median))
		}
		if st == Nominal || st == Ordinal {
			if vals := p.UniqueValues[c]; len(vals) > 0 {
				b.WriteString(", values: ")
				b.WriteString(listValues(vals))
			}
		}
		b.WriteString("\n")
	}

	if ids := p.IDColumns(); len(ids) > 0 {
		b.WriteString("\n[IDENTIFIERS]\n")
		for _, c := range ids {
			b.WriteString(fmt.Sprintf("- %s\n", safeName(c)))
		}
	}
	if len(p.Advisories) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range p.Advisories {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func listValues(vals []any) string {
	n := len(vals)
	if n > maxListedValues {
		n = maxListedValues
	}
	parts := make([]string, 0, n+1)
	for _, v := range vals[:n] {
		parts = append(parts, safeVal(frame.Format(v)))
	}
	if len(vals) > n {
		parts = append(parts, fmt.Sprintf("… (+%d)", len(vals)-n))
	}
	return strings.Join(parts, " | ")
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

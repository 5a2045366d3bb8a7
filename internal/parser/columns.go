package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/visloom/internal/frame"
)

var missingTokens = map[string]bool{
	"": true, "NA": true, "N/A": true, "n/a": true, "NaN": true, "nan": true,
	"null": true, "NULL": true, "None": true, "#N/A": true,
}

// buildFrame types every column from its raw cells and assembles a frame.
func buildFrame(header []string, rows [][]string, opt Options) (*frame.Frame, []string, error) {
	names := dedupeHeader(header)
	cols := make([]frame.Column, len(names))
	var warnings []string
	for j, name := range names {
		raw := make([]string, len(rows))
		for i, r := range rows {
			if j < len(r) {
				raw[i] = strings.TrimSpace(r[j])
			}
		}
		typ, vals := typeColumn(raw, opt)
		cols[j] = frame.Column{Name: name, Type: typ, Values: vals}
	}
	if opt.IndexColumn == "" {
		f, err := frame.New(cols...)
		return f, warnings, err
	}
	var idx *frame.Column
	rest := make([]frame.Column, 0, len(cols))
	for i := range cols {
		if cols[i].Name == opt.IndexColumn {
			idx = &cols[i]
			continue
		}
		rest = append(rest, cols[i])
	}
	f, err := frame.New(rest...)
	if err != nil {
		return nil, nil, err
	}
	if idx == nil {
		warnings = append(warnings, fmt.Sprintf("index column %q not found; using row positions", opt.IndexColumn))
		return f, warnings, nil
	}
	if _, err := f.WithIndex(frame.Index{Name: idx.Name, Type: idx.Type, Values: idx.Values}); err != nil {
		return nil, nil, err
	}
	return f, warnings, nil
}

func dedupeHeader(header []string) []string {
	seen := map[string]int{}
	out := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		out[i] = name
	}
	return out
}

// typeColumn picks the narrowest storage type for the cells:
// integer, then float (integers with gaps become float), then datetime when enabled, then generic.
func typeColumn(raw []string, opt Options) (frame.StorageType, []any) {
	allInt, allNum, allTime := true, true, opt.ParseDates
	missing := 0
	for _, s := range raw {
		if missingTokens[s] {
			missing++
			continue
		}
		if allInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				allInt = false
			}
		}
		if allNum && !allInt {
			if _, ok := parseNumeric(s, opt); !ok {
				allNum = false
			}
		}
		if allTime {
			if _, ok := frame.ParseTime(s); !ok {
				allTime = false
			}
		}
	}
	vals := make([]any, len(raw))
	if missing == len(raw) {
		return frame.Float, vals
	}
	switch {
	case allInt && missing == 0:
		for i, s := range raw {
			n, _ := strconv.ParseInt(s, 10, 64)
			vals[i] = n
		}
		return frame.Integer, vals
	case allInt || allNum:
		for i, s := range raw {
			if missingTokens[s] {
				continue
			}
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				vals[i] = float64(n)
				continue
			}
			f, _ := parseNumeric(s, opt)
			vals[i] = f
		}
		return frame.Float, vals
	case allTime:
		for i, s := range raw {
			if missingTokens[s] {
				continue
			}
			t, _ := frame.ParseTime(s)
			vals[i] = t
		}
		return frame.Datetime, vals
	default:
		for i, s := range raw {
			if missingTokens[s] {
				continue
			}
			vals[i] = s
		}
		return frame.Generic, vals
	}
}

func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(s)
	if strings.Contains(raw, "%") {
		raw = strings.ReplaceAll(raw, "%", "")
	}
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		if cpos >= 0 && dpos >= 0 {
			if cpos > dpos {
				dec = ','
				thou = '.'
			} else {
				dec = '.'
				thou = ','
			}
		} else if cpos >= 0 {
			dec = ','
		} else {
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	// reject words ParseFloat would accept
	lower := strings.ToLower(raw)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

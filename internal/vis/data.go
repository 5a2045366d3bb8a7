package vis

import "github.com/KaramelBytes/visloom/internal/frame"

// Series is one named column of a Vis's processed data.
type Series struct {
	Name   string
	Values []any
}

// Data is the small columnar table a Vis is drawn from.
type Data struct {
	names  []string
	values map[string][]any
	rows   int
}

// NewData builds Data from equally long series. Shorter series are padded with nil.
func NewData(series ...Series) *Data {
	d := &Data{values: make(map[string][]any, len(series))}
	for _, s := range series {
		if len(s.Values) > d.rows {
			d.rows = len(s.Values)
		}
	}
	for _, s := range series {
		vals := make([]any, d.rows)
		copy(vals, s.Values)
		if _, dup := d.values[s.Name]; !dup {
			d.names = append(d.names, s.Name)
		}
		d.values[s.Name] = vals
	}
	return d
}

// Len is the row count; a nil Data has none.
func (d *Data) Len() int {
	if d == nil {
		return 0
	}
	return d.rows
}

// Names returns the column names in insertion order.
func (d *Data) Names() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.names...)
}

// Column returns the values of name, or nil.
func (d *Data) Column(name string) []any {
	if d == nil {
		return nil
	}
	return d.values[name]
}

// Floats returns the numeric values of name, skipping cells that are not numbers.
func (d *Data) Floats(name string) []float64 {
	col := d.Column(name)
	out := make([]float64, 0, len(col))
	for _, v := range col {
		if f, ok := frame.ToFloat(v); ok {
			out = append(out, f)
		}
	}
	return out
}

// Rows returns the data as records keyed by column name.
func (d *Data) Rows() []map[string]any {
	out := make([]map[string]any, d.Len())
	for i := range out {
		row := make(map[string]any, len(d.names))
		for _, n := range d.names {
			row[n] = d.values[n][i]
		}
		out[i] = row
	}
	return out
}

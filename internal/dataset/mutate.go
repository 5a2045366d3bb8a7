package dataset

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/KaramelBytes/visloom/internal/frame"
	"github.com/KaramelBytes/visloom/internal/history"
)

// mutate forwards a structural change to the table, records it and marks
// every cache stale before returning.
func (d *Dataset) mutate(name string, args []any, kwargs map[string]any, fn func(frame.Mutable) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.table.(frame.Mutable)
	if !ok {
		return fmt.Errorf("%s: %w", name, frame.ErrReadOnly)
	}
	if err := fn(m); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	d.history.Append(name, args, kwargs)
	d.invalidate()
	d.logger.Debug("dataset mutated", zap.String("op", name))
	return nil
}

// SetColumn adds or replaces a column.
func (d *Dataset) SetColumn(col frame.Column) error {
	return d.mutate("set_column", []any{col.Name}, nil, func(m frame.Mutable) error {
		return m.SetColumn(col)
	})
}

func (d *Dataset) DropColumn(name string) error {
	return d.mutate("drop_column", []any{name}, nil, func(m frame.Mutable) error {
		return m.DropColumn(name)
	})
}

// Rename renames columns by old name → new name.
func (d *Dataset) Rename(mapping map[string]string) error {
	kwargs := make(map[string]any, len(mapping))
	for k, v := range mapping {
		kwargs[k] = v
	}
	return d.mutate("rename", nil, kwargs, func(m frame.Mutable) error {
		return m.Rename(mapping)
	})
}

func (d *Dataset) SetValue(name string, row int, v any) error {
	return d.mutate("set_value", []any{name, row, v}, nil, func(m frame.Mutable) error {
		return m.SetValue(name, row, v)
	})
}

// FilterRows keeps the rows for which keep returns true.
func (d *Dataset) FilterRows(keep func(row int) bool) error {
	return d.mutate("filter_rows", nil, nil, func(m frame.Mutable) error {
		m.FilterRows(keep)
		return nil
	})
}

func (d *Dataset) SetColumnAxisName(name string) error {
	return d.mutate("set_column_axis_name", []any{name}, nil, func(m frame.Mutable) error {
		m.SetColumnAxisName(name)
		return nil
	})
}

// Head returns a dataset over the first n rows. Its first recommendation
// read shows this dataset instead.
func (d *Dataset) Head(n int) *Dataset {
	return d.derive("head", n, (*frame.Frame).Head)
}

// Tail returns a dataset over the last n rows, like Head.
func (d *Dataset) Tail(n int) *Dataset {
	return d.derive("tail", n, (*frame.Frame).Tail)
}

func (d *Dataset) derive(op string, n int, slice func(*frame.Frame, int) *frame.Frame) *Dataset {
	d.mu.Lock()
	defer d.mu.Unlock()
	f, ok := d.table.(*frame.Frame)
	if !ok {
		f = frame.FromTable(d.table)
	}
	child := New(slice(f, n), d.opts...)
	child.prev = d
	child.history = history.New(d.history)
	child.history.Append(op, nil, map[string]any{"n": n})
	child.terms = copyTerms(d.terms)
	child.plotConfig = d.plotConfig
	if d.preAgg != nil {
		on := *d.preAgg
		child.preAgg = &on
	}
	return child
}

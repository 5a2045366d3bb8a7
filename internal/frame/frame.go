package frame

import (
	"errors"
	"fmt"
	"time"
)

// StorageType is the physical representation of a column's values.
type StorageType int

const (
	Generic StorageType = iota
	Integer
	Float
	Datetime
)

func (s StorageType) String() string {
	switch s {
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Datetime:
		return "datetime"
	default:
		return "generic"
	}
}

// Table is the read contract every storage backend satisfies.
// Values are int64, float64, string, time.Time or nil for missing cells.
type Table interface {
	RowCount() int
	ColumnNames() []string
	ColumnStorageType(name string) StorageType
	ColumnValues(name string) []any
	IndexStorageType() StorageType
	IndexName() string
	IndexLevels() int
	IndexValues() []any
	ColumnAxisName() string
}

// Mutable is implemented by tables that accept in-place structural mutation.
type Mutable interface {
	Table
	SetColumn(col Column) error
	DropColumn(name string) error
	Rename(mapping map[string]string) error
	SetValue(name string, row int, v any) error
	FilterRows(keep func(row int) bool)
	SetColumnAxisName(name string)
}

var (
	ErrColumnNotFound = errors.New("column not found")
	ErrLengthMismatch = errors.New("column length mismatch")
	ErrReadOnly       = errors.New("table is read-only")
)

// Column is a named, typed sequence of values.
type Column struct {
	Name   string
	Type   StorageType
	Values []any
}

// Index describes the row labels. A nil index means a 0..n-1 integer range.
type Index struct {
	Name   string
	Type   StorageType
	Levels int
	Values []any
}

// Frame is the in-memory Table.
type Frame struct {
	names      []string
	cols       map[string]*Column
	rows       int
	index      *Index
	columnAxis string
}

// New builds a frame from columns; all columns must have the same length.
func New(cols ...Column) (*Frame, error) {
	f := &Frame{cols: make(map[string]*Column, len(cols))}
	for i, c := range cols {
		if i == 0 {
			f.rows = len(c.Values)
		} else if len(c.Values) != f.rows {
			return nil, fmt.Errorf("column %q has %d values, want %d: %w", c.Name, len(c.Values), f.rows, ErrLengthMismatch)
		}
		if _, dup := f.cols[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		cc := c
		cc.Values = normalizeAll(c.Values)
		f.names = append(f.names, c.Name)
		f.cols[c.Name] = &cc
	}
	return f, nil
}

// MustNew is New for fixtures; it panics on error.
func MustNew(cols ...Column) *Frame {
	f, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return f
}

// WithIndex attaches row labels and returns the receiver.
func (f *Frame) WithIndex(idx Index) (*Frame, error) {
	if len(idx.Values) != f.rows {
		return nil, fmt.Errorf("index has %d values, want %d: %w", len(idx.Values), f.rows, ErrLengthMismatch)
	}
	if idx.Levels <= 0 {
		idx.Levels = 1
	}
	cp := idx
	cp.Values = normalizeAll(idx.Values)
	f.index = &cp
	return f, nil
}

func (f *Frame) RowCount() int { return f.rows }

func (f *Frame) ColumnNames() []string { return append([]string(nil), f.names...) }

func (f *Frame) ColumnStorageType(name string) StorageType {
	if c, ok := f.cols[name]; ok {
		return c.Type
	}
	return Generic
}

// ColumnValues returns the column's values; callers must not modify the slice.
func (f *Frame) ColumnValues(name string) []any {
	if c, ok := f.cols[name]; ok {
		return c.Values
	}
	return nil
}

func (f *Frame) IndexStorageType() StorageType {
	if f.index == nil {
		return Integer
	}
	return f.index.Type
}

func (f *Frame) IndexName() string {
	if f.index == nil {
		return ""
	}
	return f.index.Name
}

func (f *Frame) IndexLevels() int {
	if f.index == nil {
		return 1
	}
	return f.index.Levels
}

func (f *Frame) IndexValues() []any {
	if f.index == nil {
		out := make([]any, f.rows)
		for i := range out {
			out[i] = int64(i)
		}
		return out
	}
	return f.index.Values
}

func (f *Frame) ColumnAxisName() string { return f.columnAxis }

func (f *Frame) SetColumnAxisName(name string) { f.columnAxis = name }

// SetColumn adds a column or replaces an existing one in place.
func (f *Frame) SetColumn(col Column) error {
	if len(f.names) > 0 && len(col.Values) != f.rows {
		return fmt.Errorf("column %q has %d values, want %d: %w", col.Name, len(col.Values), f.rows, ErrLengthMismatch)
	}
	if len(f.names) == 0 {
		f.rows = len(col.Values)
	}
	cc := col
	cc.Values = normalizeAll(col.Values)
	if _, ok := f.cols[col.Name]; !ok {
		f.names = append(f.names, col.Name)
	}
	f.cols[col.Name] = &cc
	return nil
}

func (f *Frame) DropColumn(name string) error {
	if _, ok := f.cols[name]; !ok {
		return fmt.Errorf("drop %q: %w", name, ErrColumnNotFound)
	}
	delete(f.cols, name)
	for i, n := range f.names {
		if n == name {
			f.names = append(f.names[:i], f.names[i+1:]...)
			break
		}
	}
	return nil
}

// Rename renames columns; unknown source names are an error and nothing changes.
func (f *Frame) Rename(mapping map[string]string) error {
	for from, to := range mapping {
		if _, ok := f.cols[from]; !ok {
			return fmt.Errorf("rename %q: %w", from, ErrColumnNotFound)
		}
		if _, renamed := mapping[to]; !renamed && to != from && f.cols[to] != nil {
			return fmt.Errorf("rename %q: column %q already exists", from, to)
		}
	}
	next := make(map[string]*Column, len(f.cols))
	for i, n := range f.names {
		c := f.cols[n]
		if to, ok := mapping[n]; ok {
			c.Name = to
			f.names[i] = to
		}
		next[c.Name] = c
	}
	f.cols = next
	return nil
}

// SetValue assigns one cell. The column's storage type is widened when needed.
func (f *Frame) SetValue(name string, row int, v any) error {
	c, ok := f.cols[name]
	if !ok {
		return fmt.Errorf("set %q: %w", name, ErrColumnNotFound)
	}
	if row < 0 || row >= f.rows {
		return fmt.Errorf("set %q: row %d out of range [0,%d)", name, row, f.rows)
	}
	v = normalize(v)
	c.Values[row] = v
	c.Type = widen(c.Type, v)
	return nil
}

// FilterRows keeps the rows for which keep returns true.
func (f *Frame) FilterRows(keep func(row int) bool) {
	var rows []int
	for i := 0; i < f.rows; i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	f.take(rows)
}

// Head returns a copy holding the first n rows.
func (f *Frame) Head(n int) *Frame {
	out := f.Clone()
	if n < 0 {
		n = 0
	}
	if n > f.rows {
		n = f.rows
	}
	out.take(seq(0, n))
	return out
}

// Tail returns a copy holding the last n rows.
func (f *Frame) Tail(n int) *Frame {
	out := f.Clone()
	if n < 0 {
		n = 0
	}
	if n > f.rows {
		n = f.rows
	}
	out.take(seq(f.rows-n, f.rows))
	return out
}

// Clone deep-copies the frame structure; values themselves are immutable.
func (f *Frame) Clone() *Frame {
	out := &Frame{
		names:      append([]string(nil), f.names...),
		cols:       make(map[string]*Column, len(f.cols)),
		rows:       f.rows,
		columnAxis: f.columnAxis,
	}
	for n, c := range f.cols {
		cc := *c
		cc.Values = append([]any(nil), c.Values...)
		out.cols[n] = &cc
	}
	if f.index != nil {
		idx := *f.index
		idx.Values = append([]any(nil), f.index.Values...)
		out.index = &idx
	}
	return out
}

func (f *Frame) take(rows []int) {
	for _, c := range f.cols {
		vals := make([]any, len(rows))
		for i, r := range rows {
			vals[i] = c.Values[r]
		}
		c.Values = vals
	}
	if f.index != nil {
		vals := make([]any, len(rows))
		for i, r := range rows {
			vals[i] = f.index.Values[r]
		}
		f.index.Values = vals
	} else if !isRange(rows) {
		// keep original row labels once the range is no longer 0..n-1
		vals := make([]any, len(rows))
		for i, r := range rows {
			vals[i] = int64(r)
		}
		f.index = &Index{Type: Integer, Levels: 1, Values: vals}
	}
	f.rows = len(rows)
}

func isRange(rows []int) bool {
	for i, r := range rows {
		if r != i {
			return false
		}
	}
	return true
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}

func widen(t StorageType, v any) StorageType {
	switch v.(type) {
	case nil:
		if t == Integer {
			return Float
		}
		return t
	case int64:
		return t
	case float64:
		if t == Integer {
			return Float
		}
		return t
	case time.Time:
		if t == Datetime {
			return t
		}
		return Generic
	default:
		if t == Generic {
			return t
		}
		return Generic
	}
}

// InferStorageType picks the narrowest storage type that holds every value.
func InferStorageType(values []any) StorageType {
	sawInt, sawFloat, sawTime, sawOther, sawNil := false, false, false, false, false
	for _, v := range values {
		switch v.(type) {
		case nil:
			sawNil = true
		case int64:
			sawInt = true
		case float64:
			sawFloat = true
		case time.Time:
			sawTime = true
		default:
			sawOther = true
		}
	}
	switch {
	case sawOther:
		return Generic
	case sawTime && !sawInt && !sawFloat:
		return Datetime
	case sawTime:
		return Generic
	case sawFloat || (sawInt && sawNil):
		return Float
	case sawInt:
		return Integer
	default:
		return Generic
	}
}

// FromTable materializes any Table into a mutable in-memory Frame.
func FromTable(t Table) *Frame {
	if f, ok := t.(*Frame); ok {
		return f.Clone()
	}
	f := &Frame{cols: map[string]*Column{}, rows: t.RowCount(), columnAxis: t.ColumnAxisName()}
	for _, n := range t.ColumnNames() {
		f.names = append(f.names, n)
		f.cols[n] = &Column{Name: n, Type: t.ColumnStorageType(n), Values: normalizeAll(t.ColumnValues(n))}
	}
	if t.IndexName() != "" || t.IndexStorageType() != Integer || t.IndexLevels() > 1 {
		f.index = &Index{
			Name:   t.IndexName(),
			Type:   t.IndexStorageType(),
			Levels: t.IndexLevels(),
			Values: normalizeAll(t.IndexValues()),
		}
	}
	return f
}

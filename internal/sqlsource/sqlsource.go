// Package sqlsource reads a database table into a read-only frame.Table.
package sqlsource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/visloom/internal/frame"
)

var (
	ErrUnknownDriver = errors.New("unknown sql driver")
	ErrTableNotFound = errors.New("table not found")
)

// Options selects the database table to load.
type Options struct {
	// Driver is sqlite, postgres (pgx) or sqlserver (mssql).
	Driver string
	DSN    string
	// Table may be schema-qualified for postgres and sqlserver.
	Table string
	// MaxRows limits rows loaded; 0 means unlimited.
	MaxRows int
	Logger  *zap.Logger
}

// Table is a materialized database table. It has no mutation methods, so
// datasets over it reject in-place changes.
type Table struct {
	frame.Table
	name     string
	warnings []string
}

func (t *Table) Name() string { return t.name }

// Warnings lists non-fatal load problems such as row truncation.
func (t *Table) Warnings() []string { return append([]string(nil), t.warnings...) }

type column struct {
	name     string
	declared string
}

// Open connects, reads the table's column metadata and loads its rows.
func Open(ctx context.Context, opt Options) (*Table, error) {
	d, err := dialectFor(opt.Driver)
	if err != nil {
		return nil, err
	}
	logger := opt.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("sqlsource").With(zap.String("driver", d.driver), zap.String("table", opt.Table))

	db, err := sql.Open(d.driver, opt.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping %s: %w", d.driver, err)
	}

	start := time.Now()
	cols, err := d.columns(ctx, db, opt.Table)
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", opt.Table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%s: %w", opt.Table, ErrTableNotFound)
	}
	t, err := load(ctx, db, d, opt, cols)
	if err != nil {
		return nil, err
	}
	for _, w := range t.warnings {
		logger.Warn("sql load warning", zap.String("warning", w))
	}
	logger.Info("loaded sql table",
		zap.Int("rows", t.RowCount()),
		zap.Int("columns", len(cols)),
		zap.Duration("elapsed", time.Since(start)))
	return t, nil
}

func load(ctx context.Context, db *sql.DB, d dialect, opt Options, cols []column) (*Table, error) {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.quote(c.name)
	}
	limit := 0
	if opt.MaxRows > 0 {
		limit = opt.MaxRows + 1
	}
	query := d.selectAll(strings.Join(quoted, ", "), d.quoteTable(opt.Table), limit)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", opt.Table, err)
	}
	defer rows.Close()

	raw := make([][]any, len(cols))
	n := 0
	truncated := false
	for rows.Next() {
		if opt.MaxRows > 0 && n == opt.MaxRows {
			truncated = true
			break
		}
		cells := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", n+1, err)
		}
		for i, v := range cells {
			raw[i] = append(raw[i], v)
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	fcols := make([]frame.Column, len(cols))
	for i, c := range cols {
		values := raw[i]
		if values == nil {
			values = []any{}
		}
		st, known := storageFor(c.declared)
		typ, vals := typeColumn(st, known, values)
		fcols[i] = frame.Column{Name: c.name, Type: typ, Values: vals}
	}
	f, err := frame.New(fcols...)
	if err != nil {
		return nil, err
	}
	t := &Table{Table: f, name: opt.Table}
	if truncated {
		t.warnings = append(t.warnings, fmt.Sprintf("processed only the first %d rows due to MaxRows", opt.MaxRows))
	}
	return t, nil
}

// storageFor maps a declared SQL type to a storage type. An empty
// declaration (sqlite) is inferred from the values.
func storageFor(declared string) (frame.StorageType, bool) {
	t := strings.ToLower(strings.TrimSpace(declared))
	switch {
	case t == "":
		return frame.Generic, false
	case strings.Contains(t, "interval"), strings.Contains(t, "point"):
		return frame.Generic, true
	case strings.Contains(t, "int"):
		return frame.Integer, true
	case strings.Contains(t, "real"), strings.Contains(t, "floa"), strings.Contains(t, "doub"),
		strings.Contains(t, "numeric"), strings.Contains(t, "decimal"), strings.Contains(t, "money"):
		return frame.Float, true
	case strings.Contains(t, "date"), strings.Contains(t, "time"):
		return frame.Datetime, true
	default:
		return frame.Generic, true
	}
}

// typeColumn converts scanned cells to frame values. Integer columns with
// NULLs widen to float; cells that do not fit the declared type demote the
// column to generic text.
func typeColumn(st frame.StorageType, known bool, cells []any) (frame.StorageType, []any) {
	if !known {
		vals := make([]any, len(cells))
		for i, c := range cells {
			vals[i] = scalar(c)
		}
		st = frame.InferStorageType(vals)
		if st == frame.Float {
			for i, v := range vals {
				if n, ok := v.(int64); ok {
					vals[i] = float64(n)
				}
			}
		}
		return st, vals
	}
	vals := make([]any, len(cells))
	sawNil := false
	for i, c := range cells {
		if c == nil {
			sawNil = true
			continue
		}
		v, ok := convert(scalar(c), st)
		if !ok {
			return frame.Generic, texts(cells)
		}
		vals[i] = v
	}
	if st == frame.Integer && sawNil {
		for i, v := range vals {
			if n, ok := v.(int64); ok {
				vals[i] = float64(n)
			}
		}
		return frame.Float, vals
	}
	return st, vals
}

// scalar flattens driver values to int64, float64, string, time.Time or nil.
func scalar(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int32:
		return int64(x)
	case int16:
		return int64(x)
	case int8:
		return int64(x)
	case int:
		return int64(x)
	case float32:
		return float64(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return v
	}
}

func convert(v any, st frame.StorageType) (any, bool) {
	switch st {
	case frame.Integer:
		switch x := v.(type) {
		case int64:
			return x, true
		case float64:
			if x == float64(int64(x)) {
				return int64(x), true
			}
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
			return n, err == nil
		}
		return nil, false
	case frame.Float:
		if s, ok := v.(string); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			return f, err == nil
		}
		if _, ok := v.(time.Time); ok {
			return nil, false
		}
		return frame.ToFloat(v)
	case frame.Datetime:
		switch x := v.(type) {
		case time.Time:
			return x, true
		case string:
			return frame.ParseTime(x)
		}
		return nil, false
	default:
		if _, ok := v.(string); ok {
			return v, true
		}
		return frame.Format(v), true
	}
}

func texts(cells []any) []any {
	out := make([]any, len(cells))
	for i, c := range cells {
		if c != nil {
			out[i] = frame.Format(scalar(c))
		}
	}
	return out
}

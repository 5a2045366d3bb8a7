package sqlsource

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/visloom/internal/frame"
)

func seed(t *testing.T) string {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "cars.db")
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	defer db.Close()
	for _, stmt := range []string{
		`CREATE TABLE cars (origin TEXT, cylinders INTEGER, horsepower REAL, doors INT, price NUMERIC, built DATE, misc)`,
		`INSERT INTO cars VALUES ('USA', 8, 130.0, 4, '2000.50', '2024-01-02', 1)`,
		`INSERT INTO cars VALUES ('Japan', 4, 88.5, NULL, '1500', '2024-01-03', 2)`,
		`INSERT INTO cars VALUES ('Europe', 4, NULL, 2, '1750.25', '2024-01-04', 3)`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return dsn
}

func TestOpenSQLite(t *testing.T) {
	tbl, err := Open(context.Background(), Options{Driver: "sqlite", DSN: seed(t), Table: "cars"})
	require.NoError(t, err)

	assert.Equal(t, "cars", tbl.Name())
	assert.Equal(t, 3, tbl.RowCount())
	assert.Equal(t, []string{"origin", "cylinders", "horsepower", "doors", "price", "built", "misc"}, tbl.ColumnNames())
	assert.Equal(t, frame.Generic, tbl.ColumnStorageType("origin"))
	assert.Equal(t, frame.Integer, tbl.ColumnStorageType("cylinders"))
	assert.Equal(t, []any{int64(8), int64(4), int64(4)}, tbl.ColumnValues("cylinders"))
	assert.Equal(t, frame.Float, tbl.ColumnStorageType("horsepower"))
	assert.Nil(t, tbl.ColumnValues("horsepower")[2])
	assert.Equal(t, frame.Float, tbl.ColumnStorageType("doors"), "integer column with NULL widens to float")
	assert.Equal(t, []any{4.0, nil, 2.0}, tbl.ColumnValues("doors"))
	assert.Equal(t, frame.Float, tbl.ColumnStorageType("price"))
	assert.InDelta(t, 2000.5, tbl.ColumnValues("price")[0], 1e-9)
	assert.Equal(t, frame.Integer, tbl.ColumnStorageType("misc"), "undeclared columns are inferred")

	assert.Equal(t, frame.Datetime, tbl.ColumnStorageType("built"))
	built, ok := tbl.ColumnValues("built")[0].(time.Time)
	require.True(t, ok)
	assert.True(t, built.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)), built)

	assert.Empty(t, tbl.Warnings())
	_, mutable := any(tbl).(frame.Mutable)
	assert.False(t, mutable)
}

func TestOpenSQLiteMaxRows(t *testing.T) {
	tbl, err := Open(context.Background(), Options{Driver: "sqlite3", DSN: seed(t), Table: "cars", MaxRows: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.RowCount())
	assert.Equal(t, []string{"processed only the first 2 rows due to MaxRows"}, tbl.Warnings())
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()
	_, err := Open(ctx, Options{Driver: "oracle", DSN: "x", Table: "t"})
	require.ErrorIs(t, err, ErrUnknownDriver)

	_, err = Open(ctx, Options{Driver: "sqlite", DSN: seed(t), Table: "trucks"})
	require.ErrorIs(t, err, ErrTableNotFound)
}

func TestQuoting(t *testing.T) {
	cases := []struct {
		driver string
		table  string
		want   string
	}{
		{"sqlite", `we"ird`, `"we""ird"`},
		{"postgres", "sales.orders", `"sales"."orders"`},
		{"pgx", `a"b`, `"a""b"`},
		{"mssql", "dbo.Order]s", "[dbo].[Order]]s]"},
	}
	for _, tc := range cases {
		d, err := dialectFor(tc.driver)
		require.NoError(t, err)
		assert.Equal(t, tc.want, d.quoteTable(tc.table), tc.driver)
	}

	d, _ := dialectFor("sqlserver")
	assert.Equal(t, "SELECT TOP (5) [a] FROM [t]", d.selectAll("[a]", "[t]", 5))
	schema, name := d.split("orders")
	assert.Equal(t, "dbo", schema)
	assert.Equal(t, "orders", name)

	d, _ = dialectFor("postgresql")
	assert.Equal(t, `SELECT "a" FROM "t" LIMIT 5`, d.selectAll(`"a"`, `"t"`, 5))
}

func TestStorageFor(t *testing.T) {
	cases := map[string]frame.StorageType{
		"BIGINT":                   frame.Integer,
		"smallint":                 frame.Integer,
		"double precision":         frame.Float,
		"numeric(10,2)":            frame.Float,
		"money":                    frame.Float,
		"timestamp with time zone": frame.Datetime,
		"datetime2":                frame.Datetime,
		"interval":                 frame.Generic,
		"varchar":                  frame.Generic,
		"bit":                      frame.Generic,
	}
	for decl, want := range cases {
		got, known := storageFor(decl)
		assert.True(t, known)
		assert.Equal(t, want, got, decl)
	}
	_, known := storageFor("")
	assert.False(t, known)
}

func TestTypeColumnDemotesUnparseable(t *testing.T) {
	typ, vals := typeColumn(frame.Datetime, true, []any{"2024-01-01", "soon", nil})
	assert.Equal(t, frame.Generic, typ)
	assert.Equal(t, []any{"2024-01-01", "soon", nil}, vals)
}

package sqlsource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"
)

// dialect captures what differs between the supported databases.
type dialect struct {
	driver        string
	defaultSchema string
	quote         func(name string) string
	columns       func(ctx context.Context, db *sql.DB, table string) ([]column, error)
	selectAll     func(cols, table string, limit int) string
}

func dialectFor(driver string) (dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return sqliteDialect, nil
	case "pgx", "postgres", "postgresql":
		return postgresDialect, nil
	case "sqlserver", "mssql":
		return sqlserverDialect, nil
	default:
		return dialect{}, fmt.Errorf("%q: %w", driver, ErrUnknownDriver)
	}
}

// quoteTable quotes each part of a possibly schema-qualified name.
func (d dialect) quoteTable(table string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = d.quote(p)
	}
	return strings.Join(parts, ".")
}

func (d dialect) split(table string) (schema, name string) {
	if i := strings.LastIndex(table, "."); i >= 0 {
		return table[:i], table[i+1:]
	}
	return d.defaultSchema, table
}

func limitClause(cols, table string, limit int) string {
	q := fmt.Sprintf("SELECT %s FROM %s", cols, table)
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	return q
}

var sqliteDialect = dialect{
	driver: "sqlite",
	quote: func(name string) string {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	},
	selectAll: limitClause,
}

var postgresDialect = dialect{
	driver:        "pgx",
	defaultSchema: "public",
	quote:         func(name string) string { return pgx.Identifier{name}.Sanitize() },
	selectAll:     limitClause,
}

var sqlserverDialect = dialect{
	driver:        "sqlserver",
	defaultSchema: "dbo",
	quote: func(name string) string {
		return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
	},
	selectAll: func(cols, table string, limit int) string {
		if limit > 0 {
			return fmt.Sprintf("SELECT TOP (%d) %s FROM %s", limit, cols, table)
		}
		return fmt.Sprintf("SELECT %s FROM %s", cols, table)
	},
}

func init() {
	sqliteDialect.columns = func(ctx context.Context, db *sql.DB, table string) ([]column, error) {
		rows, err := db.QueryContext(ctx, "PRAGMA table_info("+sqliteDialect.quote(table)+")")
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		var out []column
		for rows.Next() {
			var (
				cid     int
				c       column
				notNull int
				dflt    sql.NullString
				pk      int
			)
			if err := rows.Scan(&cid, &c.name, &c.declared, &notNull, &dflt, &pk); err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return out, rows.Err()
	}
	postgresDialect.columns = informationSchema(postgresDialect,
		`SELECT column_name, data_type FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2 ORDER BY ordinal_position`)
	sqlserverDialect.columns = informationSchema(sqlserverDialect,
		`SELECT COLUMN_NAME, DATA_TYPE FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2 ORDER BY ORDINAL_POSITION`)
}

func informationSchema(d dialect, query string) func(context.Context, *sql.DB, string) ([]column, error) {
	return func(ctx context.Context, db *sql.DB, table string) ([]column, error) {
		schema, name := d.split(table)
		rows, err := db.QueryContext(ctx, query, schema, name)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		var out []column
		for rows.Next() {
			var c column
			if err := rows.Scan(&c.name, &c.declared); err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return out, rows.Err()
	}
}

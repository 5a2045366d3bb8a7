package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/visloom/internal/action"
	"github.com/KaramelBytes/visloom/internal/analysis"
	"github.com/KaramelBytes/visloom/internal/dataset"
	"github.com/KaramelBytes/visloom/internal/frame"
	"github.com/KaramelBytes/visloom/internal/intent"
	"github.com/KaramelBytes/visloom/internal/parser"
	"github.com/KaramelBytes/visloom/internal/sqlsource"
	"github.com/KaramelBytes/visloom/internal/vis"
)

// Data source flags shared by every data command.
var (
	srcDelimiter   string
	srcDecimal     string
	srcThousands   string
	srcMaxRows     int
	srcSheetName   string
	srcSheetIndex  int
	srcParseDates  bool
	srcIndexColumn string
	srcSQLDriver   string
	srcSQLDSN      string
	srcSQLTable    string
	srcPreAgg      bool
)

// Intent and dispatch flags shared by recommend and export.
var (
	recIntents    []string
	recIntentFile string
	recTopK       int
	recParallel   bool
	recTimeout    time.Duration
)

func addSourceFlags(c *cobra.Command) {
	c.Flags().StringVar(&srcDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|' (auto-detect if omitted)")
	c.Flags().StringVar(&srcDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	c.Flags().StringVar(&srcThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	c.Flags().IntVar(&srcMaxRows, "max-rows", 0, "maximum rows to load (0 = config max_rows)")
	c.Flags().StringVar(&srcSheetName, "sheet-name", "", "XLSX: sheet name to load")
	c.Flags().IntVar(&srcSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	c.Flags().BoolVar(&srcParseDates, "parse-dates", false, "convert all-date text columns to datetimes (overrides config)")
	c.Flags().StringVar(&srcIndexColumn, "index-col", "", "column to use as the row index")
	c.Flags().StringVar(&srcSQLDriver, "sql-driver", "", "SQL driver: sqlite | postgres | sqlserver (default from config)")
	c.Flags().StringVar(&srcSQLDSN, "sql-dsn", "", "SQL data source name (default from config)")
	c.Flags().StringVar(&srcSQLTable, "sql-table", "", "SQL table to load instead of a file")
	c.Flags().BoolVar(&srcPreAgg, "pre-aggregated", false, "treat the table as already aggregated (inferred if omitted)")
}

func addIntentFlags(c *cobra.Command) {
	c.Flags().StringArrayVarP(&recIntents, "intent", "i", nil, "intent clause shorthand, e.g. 'Horsepower' or 'Origin=USA' (repeatable)")
	c.Flags().StringVar(&recIntentFile, "intent-file", "", "YAML file with intent clauses")
	c.Flags().IntVar(&recTopK, "top-k", 0, "cap for ranked collections (0 = config top_k)")
	c.Flags().BoolVar(&recParallel, "parallel", false, "run recommendation actions concurrently (overrides config)")
	c.Flags().DurationVar(&recTimeout, "action-timeout", 0, "per-action time limit, e.g. 2s (overrides config)")
}

func loaderOptions(c *cobra.Command) (parser.Options, error) {
	conf := loadedConfig()
	opt := parser.DefaultOptions()
	if conf.MaxRows > 0 {
		opt.MaxRows = conf.MaxRows
	}
	if srcMaxRows > 0 {
		opt.MaxRows = srcMaxRows
	}
	opt.Delimiter = conf.DelimiterRune()
	switch srcDelimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case ";":
		opt.Delimiter = ';'
	case "|":
		opt.Delimiter = '|'
	case "\t", "tab":
		opt.Delimiter = '\t'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", srcDelimiter)
	}
	// Locale separators
	switch strings.ToLower(strings.TrimSpace(srcDecimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", srcDecimal)
	}
	switch strings.ToLower(strings.TrimSpace(srcThousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", srcThousands)
	}
	opt.ParseDates = conf.ParseDates
	if c.Flags().Changed("parse-dates") {
		opt.ParseDates = srcParseDates
	}
	opt.IndexColumn = srcIndexColumn
	opt.SheetName = srcSheetName
	opt.SheetIndex = srcSheetIndex
	return opt, nil
}

// loadTable reads the file argument, or the SQL table named by flags.
// It returns the table, a display name and loader warnings.
func loadTable(ctx context.Context, c *cobra.Command, args []string) (frame.Table, string, []string, error) {
	conf := loadedConfig()
	if srcSQLTable != "" {
		if len(args) > 0 {
			return nil, "", nil, errors.New("pass either a file or --sql-table, not both")
		}
		driver, dsn := conf.SQLDriver, conf.SQLDSN
		if srcSQLDriver != "" {
			driver = srcSQLDriver
		}
		if srcSQLDSN != "" {
			dsn = srcSQLDSN
		}
		if driver == "" || dsn == "" {
			return nil, "", nil, errors.New("--sql-table needs --sql-driver and --sql-dsn (or sql_driver/sql_dsn in config)")
		}
		maxRows := conf.MaxRows
		if srcMaxRows > 0 {
			maxRows = srcMaxRows
		}
		t, err := sqlsource.Open(ctx, sqlsource.Options{
			Driver:  driver,
			DSN:     dsn,
			Table:   srcSQLTable,
			MaxRows: maxRows,
			Logger:  logger,
		})
		if err != nil {
			return nil, "", nil, err
		}
		return t, srcSQLTable, t.Warnings(), nil
	}
	if len(args) != 1 {
		return nil, "", nil, errors.New("a data file or --sql-table is required")
	}
	opt, err := loaderOptions(c)
	if err != nil {
		return nil, "", nil, err
	}
	res, err := parser.ParseFile(args[0], opt)
	if err != nil {
		return nil, "", nil, err
	}
	return res.Frame, filepath.Base(args[0]), res.Warnings, nil
}

// openDataset loads the source and wraps it with the configured profiler
// and dispatcher. Loader warnings are printed to stderr.
func openDataset(ctx context.Context, c *cobra.Command, args []string) (*dataset.Dataset, error) {
	t, name, warnings, err := loadTable(ctx, c, args)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		fmt.Fprintf(c.ErrOrStderr(), "⚠ Warning: %s\n", w)
	}
	conf := loadedConfig()
	topK := conf.TopK
	if recTopK > 0 {
		topK = recTopK
	}
	parallel := conf.ParallelActions
	if f := c.Flags().Lookup("parallel"); f != nil && f.Changed {
		parallel = recParallel
	}
	timeout := conf.ActionTimeout()
	if f := c.Flags().Lookup("action-timeout"); f != nil && f.Changed {
		timeout = recTimeout
	}
	d := dataset.New(t,
		dataset.WithName(name),
		dataset.WithLogger(logger),
		dataset.WithTopK(topK),
		dataset.WithProfiler(analysis.NewProfiler(
			analysis.WithLogger(logger),
			analysis.WithWorkers(conf.ProfileWorkers))),
		dataset.WithDispatcher(action.NewDispatcher(
			action.WithLogger(logger),
			action.WithParallel(parallel),
			action.WithTimeout(timeout))),
	)
	if c.Flags().Changed("pre-aggregated") {
		d.SetPreAggregated(srcPreAgg)
	}
	logger.Debug("dataset opened", zap.String("name", name), zap.Int("rows", t.RowCount()))
	return d, nil
}

// intentTerms gathers --intent shorthands and --intent-file clauses.
func intentTerms() ([]vis.Term, error) {
	var terms []vis.Term
	if recIntentFile != "" {
		fromFile, err := intent.LoadFile(recIntentFile)
		if err != nil {
			return nil, err
		}
		terms = append(terms, fromFile...)
	}
	for _, s := range recIntents {
		terms = append(terms, vis.Shorthand(s))
	}
	return terms, nil
}

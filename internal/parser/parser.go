package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/visloom/internal/frame"
)

// Options controls how tabular files are loaded into frames.
type Options struct {
	// MaxRows limits data rows loaded; 0 means unlimited.
	MaxRows int
	// Delimiter for CSV. If 0, sniffs among ',', ';', '\t', '|'.
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// ParseDates converts columns whose every cell is a date into datetime storage.
	ParseDates bool
	// IndexColumn promotes the named column to the row index.
	IndexColumn string
	// XLSX sheet selection; SheetIndex is 1-based and used when SheetName is empty.
	SheetName  string
	SheetIndex int
}

// DefaultOptions returns reasonable defaults for loading.
func DefaultOptions() Options {
	return Options{MaxRows: 100000, SheetIndex: 1}
}

// Result is a loaded frame plus loader warnings.
type Result struct {
	Name     string
	Frame    *frame.Frame
	Rows     int // data rows seen in the source
	Warnings []string
}

// Parser loads one tabular file format.
type Parser interface {
	CanParse(filename string) bool
	Parse(path string, opt Options) (*Result, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// ParseFile selects a parser based on filename and loads the file into a frame.
func ParseFile(path string, opt Options) (*Result, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	for _, p := range registry {
		if p.CanParse(path) {
			res, err := p.Parse(path, opt)
			if err != nil {
				return nil, err
			}
			if res.Name == "" {
				res.Name = filepath.Base(path)
			}
			return res, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported)
}

func init() {
	Register(csvParser{})
	Register(xlsxParser{})
}

// ErrUnsupported indicates a format is not supported yet.
var ErrUnsupported = errors.New("unsupported table format")

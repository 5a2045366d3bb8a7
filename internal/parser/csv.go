package parser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

type csvParser struct{}

func (csvParser) CanParse(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv")
}

func (csvParser) Parse(path string, opt Options) (*Result, error) {
	return ParseCSVFile(path, opt)
}

// ParseCSVFile loads a delimited text file into a frame.
func ParseCSVFile(path string, opt Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	br := bufio.NewReader(f)
	delim := opt.Delimiter
	if delim == 0 {
		first, _ := br.Peek(4096)
		delim = sniffDelimiter(path, string(first))
	}
	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv has no header row")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = append([]string(nil), header...)

	res := &Result{}
	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", res.Rows+2, err)
		}
		res.Rows++
		if opt.MaxRows > 0 && len(rows) >= opt.MaxRows {
			continue
		}
		rows = append(rows, rec)
	}
	if opt.MaxRows > 0 && res.Rows > opt.MaxRows {
		res.Warnings = append(res.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", opt.MaxRows, res.Rows))
	}
	fr, warns, err := buildFrame(header, rows, opt)
	if err != nil {
		return nil, err
	}
	res.Frame = fr
	res.Warnings = append(res.Warnings, warns...)
	return res, nil
}

// sniffDelimiter prefers the filename, then the most frequent candidate in the header line.
func sniffDelimiter(path, head string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	line := head
	if i := strings.IndexByte(head, '\n'); i >= 0 {
		line = head[:i]
	}
	best, bestN := ',', 0
	for _, c := range []rune{',', ';', '\t', '|'} {
		if n := strings.Count(line, string(c)); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}

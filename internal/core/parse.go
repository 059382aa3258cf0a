package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseFile reads a CSV file with a name,email,age header and returns its data rows.
// The whole file is loaded before returning.
func ParseFile(path string) ([]RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, parseError("open file", 0, err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads CSV data with a name,email,age header from r.
// A leading UTF-8 BOM is ignored and empty lines are skipped. Quotes inside
// unquoted cells are kept literally so the Validator, not the parser, rejects
// them. Rows of blank cells are returned as-is for the same reason.
func Parse(r io.Reader) ([]RawRecord, error) {
	cr := csv.NewReader(NewBOMSkippingReader(r))
	cr.Comma = ','
	cr.FieldsPerRecord = 0 // every record must match the header width
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, parseError("empty file", 0, nil)
	}
	if err != nil {
		return nil, parseError("invalid csv header", 0, err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var rows []RawRecord
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, parseError(fmt.Sprintf("invalid csv at line %d", pe.Line), 0, pe.Err)
			}
			return nil, parseError("invalid csv", 0, err)
		}
		rows = append(rows, RawRecord(rec))
	}

	return rows, nil
}

// checkHeader requires exactly the expected columns, in order, ignoring case and padding.
func checkHeader(header []string) error {
	if len(header) != len(Columns) {
		return parseError(fmt.Sprintf("header has %d columns, expected %s",
			len(header), strings.Join(Columns, ",")), 0, nil)
	}
	for i, want := range Columns {
		if !strings.EqualFold(CleanCell(header[i]), want) {
			return parseError(fmt.Sprintf("column %d is %q, expected %q", i+1, CleanCell(header[i]), want), 0, nil)
		}
	}
	return nil
}

// CleanCell trims whitespace and stray quotes left by spreadsheet exports.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"`)
	return strings.TrimSpace(s)
}

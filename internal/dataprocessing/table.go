package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedTable is returned when the payload is neither CSV nor an xlsx workbook
	ErrUnsupportedTable = errors.New("unsupported table format")

	// ErrLegacyWorkbook is returned for BIFF .xls workbooks. It matches
	// ErrUnsupportedTable; only OOXML workbooks are decoded.
	ErrLegacyWorkbook = fmt.Errorf("%w: legacy .xls workbook", ErrUnsupportedTable)
)

// TableFormat is the tabular container detected from content
type TableFormat string

const (
	TableCSV  TableFormat = "csv"
	TableXLSX TableFormat = "xlsx"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectTableFormat sniffs the payload and reports which decoder applies.
// File names are never consulted: exchanges have shipped CSV content under
// spreadsheet extensions and the other way round.
func DetectTableFormat(data []byte) (TableFormat, error) {
	mt := mimetype.Detect(data)
	switch {
	case mt.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"),
		mt.Is("application/zip"):
		return TableXLSX, nil
	case strings.HasPrefix(mt.String(), "text/"):
		return TableCSV, nil
	}
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("application/vnd.ms-excel") || m.Is("application/x-ole-storage") {
			return "", ErrLegacyWorkbook
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedTable, mt.String())
}

// DecodeTable parses CSV or xlsx bytes into ordered rows.
// The first row is the header. Only the first sheet of a workbook is read.
func DecodeTable(data []byte) ([]Row, error) {
	format, err := DetectTableFormat(data)
	if err != nil {
		return nil, err
	}

	var records [][]string
	switch format {
	case TableXLSX:
		records, err = readWorkbook(data)
	default:
		records, err = readCSV(data)
	}
	if err != nil {
		return nil, err
	}
	return rowsFromRecords(records), nil
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func readWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnsupportedTable)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func rowsFromRecords(records [][]string) []Row {
	if len(records) == 0 {
		return []Row{}
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(Row, len(header))
		for i, cell := range rec {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if v, ok := cellValue(cell); ok {
				row[header[i]] = v
			}
		}
		if len(row) == 0 {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// cellValue types a raw cell. Numeric text becomes decimal.Decimal,
// anything else stays a trimmed string. Blank cells are dropped.
// Zero-padded codes such as "004567" stay text so no digits are lost.
func cellValue(cell string) (any, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, false
	}
	if looksNumeric(cell) && !zeroPadded(cell) {
		if d, err := decimal.NewFromString(cell); err == nil {
			return d, true
		}
	}
	return cell, true
}

func looksNumeric(s string) bool {
	digits := 0
	for i, c := range s {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
		case (c == '-' || c == '+') && i == 0:
		default:
			return false
		}
	}
	return digits > 0
}

func zeroPadded(s string) bool {
	return len(s) > 1 && s[0] == '0' && s[1] >= '0' && s[1] <= '9'
}

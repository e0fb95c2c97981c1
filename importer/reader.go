package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/warp/payroll-engine/generic"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// MaxXLSRows bounds how many rows are read from a legacy .xls workbook.
const MaxXLSRows = 100000

// ReadRows reads the first worksheet of an uploaded file as a grid of cell
// strings. The format is chosen by file extension: .xls (BIFF), .csv/.tsv/
// .txt (delimited text, UTF-8 or UTF-16 with BOM), anything else as xlsx.
func ReadRows(reader io.Reader, filename string) ([][]string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	var rows [][]string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xls":
		rows, err = readXLS(data)
	case ".csv", ".txt":
		rows, err = readDelimited(data, ',')
	case ".tsv":
		rows, err = readDelimited(data, '\t')
	default:
		rows, err = readXLSX(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", generic.ErrInvalidSheet, filename, err)
	}
	rows = trimRows(rows)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", generic.ErrEmptySheet, filename)
	}
	return rows, nil
}

func readXLS(data []byte) (rows [][]string, err error) {
	// The BIFF decoder panics on some truncated files.
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("corrupt xls: %v", r)
		}
	}()

	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if workbook.NumSheets() == 0 {
		return nil, fmt.Errorf("no worksheet found")
	}
	return workbook.ReadAllCells(MaxXLSRows), nil
}

func readXLSX(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no worksheet found")
	}
	return file.GetRows(sheetName)
}

func readDelimited(data []byte, comma rune) ([][]string, error) {
	// Decode UTF-16 (with BOM detection) into UTF-8; a UTF-8 BOM is dropped.
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	r := csv.NewReader(transform.NewReader(bytes.NewReader(data), decoder))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// trimRows trims cells and drops fully blank rows.
func trimRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		blank := true
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
			if row[i] != "" {
				blank = false
			}
		}
		if !blank {
			out = append(out, row)
		}
	}
	return out
}

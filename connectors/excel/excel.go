// Package excel reads uploaded emissions reports into raw tables.
// Spreadsheets are read from their first sheet; CSV files go through the csv connector.
package excel

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	ccsv "emissions-stats/connectors/csv"
	"emissions-stats/domain/emissions"

	"github.com/xuri/excelize/v2"
)

// Read parses an xlsx workbook. Cells are read raw so numbers keep full precision
// regardless of the sheet's number formats.
func Read(r io.Reader, aliases map[string][]string) (emissions.RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return emissions.RawTable{}, &emissions.ValidationError{Reason: fmt.Sprintf("unreadable workbook: %v", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return emissions.RawTable{}, &emissions.ValidationError{Reason: "workbook has no sheets"}
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return emissions.RawTable{}, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	// the header is the first non-blank row
	start := 0
	for start < len(rows) && blank(rows[start]) {
		start++
	}
	if start == len(rows) {
		return emissions.RawTable{}, &emissions.ValidationError{Reason: "sheet has no header row"}
	}
	idx, err := ccsv.ResolveHeaders(rows[start], aliases)
	if err != nil {
		return emissions.RawTable{}, err
	}
	return ccsv.ToRawTable(rows[start+1:], idx), nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ReadUpload picks the reader from the file extension.
func ReadUpload(name string, r io.Reader, aliases map[string][]string) (emissions.RawTable, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return Read(r, aliases)
	case ".csv":
		return ccsv.Read(r, aliases)
	}
	return emissions.RawTable{}, &emissions.ValidationError{Reason: fmt.Sprintf("unsupported file type %q", filepath.Ext(name))}
}

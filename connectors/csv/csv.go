package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"emissions-stats/domain/emissions"
)

// ResolveHeaders maps each canonical column to its index in headers, using the
// configured aliases. Headers are compared trimmed and lower-cased.
func ResolveHeaders(headers []string, aliases map[string][]string) (map[string]int, error) {
	idx := indexMap(headers)
	res := map[string]int{}
	var missing []string
	for _, col := range emissions.RequiredColumns {
		found := false
		for _, a := range append([]string{col}, aliases[col]...) {
			if i, ok := idx[strings.TrimSpace(strings.ToLower(a))]; ok {
				res[col] = i
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &emissions.ValidationError{Missing: missing}
	}
	return res, nil
}

func indexMap(headers []string) map[string]int {
	m := map[string]int{}
	for i, h := range headers {
		h = strings.TrimPrefix(h, "\ufeff")
		key := strings.TrimSpace(strings.ToLower(h))
		if _, dup := m[key]; !dup {
			m[key] = i
		}
	}
	return m
}

// ToRawTable applies resolved header indexes to string rows. Blank rows are skipped;
// short rows yield nil for the missing cells.
func ToRawTable(rows [][]string, idx map[string]int) emissions.RawTable {
	t := emissions.RawTable{Columns: append([]string(nil), emissions.RequiredColumns...)}
	for _, rec := range rows {
		if isBlank(rec) {
			continue
		}
		row := emissions.RawRow{}
		for col, i := range idx {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = nil
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Read parses a CSV upload whose first row is the header.
func Read(r io.Reader, aliases map[string][]string) (emissions.RawTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return emissions.RawTable{}, &emissions.ValidationError{Reason: "csv file has no header row"}
		}
		return emissions.RawTable{}, parseError("header", err)
	}
	idx, err := ResolveHeaders(head, aliases)
	if err != nil {
		return emissions.RawTable{}, err
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return emissions.RawTable{}, parseError("rows", err)
	}
	return ToRawTable(rows, idx), nil
}

// parseError reports malformed CSV as a validation failure; other read errors pass through wrapped.
func parseError(part string, err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &emissions.ValidationError{Reason: fmt.Sprintf("malformed csv %s: %v", part, perr)}
	}
	return fmt.Errorf("read csv %s: %w", part, err)
}

// WriteGroupRows writes grouping engine rows as CSV.
// Headers: year, sector, name, sector_first, rank, co2 sum/mean/max/min, count, energy sum/mean
func WriteGroupRows(w io.Writer, rows []emissions.GroupRow) error {
	cw := csv.NewWriter(w)
	headers := []string{"year", "sector", "name", "sector_first", "rank", "co2_emissions_sum", "co2_emissions_mean", "co2_emissions_max", "co2_emissions_min", "count", "energy_consumption_sum", "energy_consumption_mean"}
	if err := cw.Write(headers); err != nil {
		return err
	}
	for _, r := range rows {
		rank := ""
		if r.Rank > 0 {
			rank = strconv.Itoa(r.Rank)
		}
		row := []string{
			r.Year,
			r.Sector,
			r.Company,
			r.SectorFirst,
			rank,
			formatFloat(r.CO2Sum),
			formatFloat(r.CO2Mean),
			formatFloat(r.CO2Max),
			formatFloat(r.CO2Min),
			strconv.Itoa(r.Count),
			formatFloat(r.EnergySum),
			formatFloat(r.EnergyMean),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTiersCSV writes the per-year tier totals into path.
func WriteTiersCSV(path string, tiers []emissions.TierBucket) error {
	return writeFile(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"year", "co2_high", "co2_medium", "co2_low", "energy_high", "energy_medium", "energy_low"}); err != nil {
			return err
		}
		for _, t := range tiers {
			row := []string{
				t.Year,
				formatFloat(t.CO2High),
				formatFloat(t.CO2Medium),
				formatFloat(t.CO2Low),
				formatFloat(t.EnergyHigh),
				formatFloat(t.EnergyMedium),
				formatFloat(t.EnergyLow),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteSectorsCSV writes one row per year with one column per sector, holding CO2 totals.
func WriteSectorsCSV(path string, sectors []string, years []emissions.SectorYear) error {
	return writeSectorTable(path, sectors, years, func(y emissions.SectorYear) map[string]float64 { return y.Totals })
}

// WriteSectorEnergyCSV is WriteSectorsCSV for energy consumption totals.
func WriteSectorEnergyCSV(path string, sectors []string, years []emissions.SectorYear) error {
	return writeSectorTable(path, sectors, years, func(y emissions.SectorYear) map[string]float64 { return y.Energy })
}

func writeSectorTable(path string, sectors []string, years []emissions.SectorYear, values func(emissions.SectorYear) map[string]float64) error {
	cols := append([]string(nil), sectors...)
	sort.Strings(cols)
	return writeFile(path, func(w *csv.Writer) error {
		if err := w.Write(append([]string{"year"}, cols...)); err != nil {
			return err
		}
		for _, y := range years {
			totals := values(y)
			row := []string{y.Year}
			for _, s := range cols {
				row = append(row, formatFloat(totals[s]))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeFile creates path and its parent directory, runs fill and reports flush and close failures.
func writeFile(path string, fill func(w *csv.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	w := csv.NewWriter(f)
	if err := fill(w); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

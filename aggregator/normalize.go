package aggregator

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"emissions-stats/domain/emissions"

	lo "github.com/samber/lo"
)

// Normalize turns a resolved raw table into typed records.
// Rows with an unusable year, energy or CO2 value are dropped and counted,
// not reported as errors. A table without any usable row yields ErrEmptyDataset.
func Normalize(t emissions.RawTable) ([]emissions.Record, int, error) {
	cols := lo.SliceToMap(t.Columns, func(c string) (string, struct{}) { return c, struct{}{} })
	var missing []string
	for _, c := range emissions.RequiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, 0, &emissions.ValidationError{Missing: missing}
	}

	out := make([]emissions.Record, 0, len(t.Rows))
	dropped := 0
	for i, row := range t.Rows {
		rec, reason := normalizeRow(row)
		if reason != "" {
			dropped++
			slog.Debug("normalize.row.dropped", "row", i, "reason", reason)
			continue
		}
		out = append(out, rec)
	}
	if len(out) == 0 {
		return nil, dropped, emissions.ErrEmptyDataset
	}
	return out, dropped, nil
}

func normalizeRow(row emissions.RawRow) (emissions.Record, string) {
	co2, ok := toFloat(row[emissions.ColumnCO2])
	if !ok {
		return emissions.Record{}, "co2"
	}
	year, ok := toYear(row[emissions.ColumnYear])
	if !ok {
		return emissions.Record{}, "year"
	}
	energy, ok := toFloat(row[emissions.ColumnEnergy])
	if !ok {
		return emissions.Record{}, "energy"
	}
	return emissions.Record{
		Company:           toLabel(row[emissions.ColumnCompany]),
		Sector:            toLabel(row[emissions.ColumnSector]),
		Year:              year,
		EnergyConsumption: energy,
		CO2Emissions:      co2,
	}, ""
}

// toFloat coerces a raw cell to a finite float64.
func toFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		p, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = p
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toYear accepts integral numbers only; 2020.0 is a year, 2020.5 is not.
func toYear(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func toLabel(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

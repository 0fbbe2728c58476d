package aggregator

import (
	"sort"
	"strings"

	"emissions-stats/domain/emissions"

	lo "github.com/samber/lo"
)

// GroupKey selects the dimensions rows are grouped by.
type GroupKey string

const (
	ByYear        GroupKey = "year"
	BySector      GroupKey = "sector"
	ByCompany     GroupKey = "company"
	BySectorYear  GroupKey = "sector,year"
	ByCompanyYear GroupKey = "company,year"
)

// ParseGroupKey accepts a comma separated dimension list in any order.
func ParseGroupKey(s string) (GroupKey, error) {
	parts := lo.Map(strings.Split(s, ","), func(p string, _ int) string { return strings.ToLower(strings.TrimSpace(p)) })
	sort.Strings(parts)
	switch strings.Join(parts, ",") {
	case "year":
		return ByYear, nil
	case "sector":
		return BySector, nil
	case "company":
		return ByCompany, nil
	case "sector,year":
		return BySectorYear, nil
	case "company,year":
		return ByCompanyYear, nil
	}
	return "", &emissions.ValidationError{Reason: "unknown group key " + s}
}

func (k GroupKey) hasYear() bool { return k == ByYear || k == BySectorYear || k == ByCompanyYear }
func (k GroupKey) hasSector() bool { return k == BySector || k == BySectorYear }
func (k GroupKey) hasCompany() bool { return k == ByCompany || k == ByCompanyYear }

// dims lists the record columns the key groups by.
func (k GroupKey) dims() []string {
	var out []string
	if k.hasYear() {
		out = append(out, emissions.ColumnYear)
	}
	if k.hasSector() {
		out = append(out, emissions.ColumnSector)
	}
	if k.hasCompany() {
		out = append(out, emissions.ColumnCompany)
	}
	return out
}

type groupID struct {
	year    int
	sector  string
	company string
}

// Group computes sum/mean/max/min/count aggregates for every distinct key.
// Rows are ordered by year, then sector, then company.
func Group(records []emissions.Record, key GroupKey) ([]emissions.GroupRow, error) {
	if _, err := ParseGroupKey(string(key)); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, emissions.ErrEmptyDataset
	}

	grouped := lo.GroupBy(records, func(r emissions.Record) groupID {
		var id groupID
		if key.hasYear() {
			id.year = r.Year
		}
		if key.hasSector() {
			id.sector = r.Sector
		}
		if key.hasCompany() {
			id.company = r.Company
		}
		return id
	})

	ids := lo.Keys(grouped)
	sort.Slice(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		if a.year != b.year {
			return a.year < b.year
		}
		if a.sector != b.sector {
			return a.sector < b.sector
		}
		return a.company < b.company
	})

	dims := key.dims()
	out := make([]emissions.GroupRow, 0, len(ids))
	for _, id := range ids {
		rs := grouped[id]
		co2 := lo.Map(rs, func(r emissions.Record, _ int) float64 { return r.CO2Emissions })
		energy := lo.Map(rs, func(r emissions.Record, _ int) float64 { return r.EnergyConsumption })
		n := float64(len(rs))
		row := emissions.GroupRow{
			Sector:    id.sector,
			Company:   id.company,
			Dims:      dims,
			CO2Sum:    lo.Sum(co2),
			CO2Max:    lo.Max(co2),
			CO2Min:    lo.Min(co2),
			Count:     len(rs),
			EnergySum: lo.Sum(energy),
		}
		row.CO2Mean = row.CO2Sum / n
		row.EnergyMean = row.EnergySum / n
		if key.hasYear() {
			row.Year = emissions.YearLabel(id.year)
		}
		if key == ByCompany {
			sectors := lo.Uniq(lo.Map(rs, func(r emissions.Record, _ int) string { return r.Sector }))
			sort.Strings(sectors)
			row.SectorFirst = sectors[0]
		}
		out = append(out, row)
	}
	if key == ByCompany {
		rankByEmissions(out)
	}
	return out, nil
}

// rankByEmissions assigns 1-based ranks by descending CO2 sum, ties by name.
func rankByEmissions(rows []emissions.GroupRow) {
	order := lo.Range(len(rows))
	sort.SliceStable(order, func(i, j int) bool {
		a, b := rows[order[i]], rows[order[j]]
		if a.CO2Sum != b.CO2Sum {
			return a.CO2Sum > b.CO2Sum
		}
		return a.Company < b.Company
	})
	for rank, i := range order {
		rows[i].Rank = rank + 1
	}
}

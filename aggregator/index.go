package aggregator

import (
	"sort"

	"emissions-stats/domain/emissions"

	lo "github.com/samber/lo"
)

// CompanyYearTotal is a company's summed records for one year.
type CompanyYearTotal struct {
	Year        int
	Company     string
	Emissions   float64
	Consumption float64
	// Sectors is the sorted set of sectors the company reported that year.
	Sectors []string
}

// PrimarySector is the representative sector: the lexicographically smallest one touched.
func (t CompanyYearTotal) PrimarySector() string {
	if len(t.Sectors) == 0 {
		return ""
	}
	return t.Sectors[0]
}

// CompanyYearIndex is the immutable (year, company) fold of a batch.
// Build it with BuildIndex; all projections only read from it.
type CompanyYearIndex struct {
	years  []int
	byYear map[int][]CompanyYearTotal
}

type companyYearKey struct {
	year    int
	company string
}

// BuildIndex sums every record into its (year, company) total.
func BuildIndex(records []emissions.Record) CompanyYearIndex {
	grouped := lo.GroupBy(records, func(r emissions.Record) companyYearKey {
		return companyYearKey{year: r.Year, company: r.Company}
	})

	idx := CompanyYearIndex{byYear: make(map[int][]CompanyYearTotal)}
	for k, rs := range grouped {
		t := CompanyYearTotal{
			Year:        k.year,
			Company:     k.company,
			Emissions:   lo.SumBy(rs, func(r emissions.Record) float64 { return r.CO2Emissions }),
			Consumption: lo.SumBy(rs, func(r emissions.Record) float64 { return r.EnergyConsumption }),
			Sectors:     lo.Uniq(lo.Map(rs, func(r emissions.Record, _ int) string { return r.Sector })),
		}
		sort.Strings(t.Sectors)
		idx.byYear[k.year] = append(idx.byYear[k.year], t)
	}
	for y, ts := range idx.byYear {
		sort.Slice(ts, func(i, j int) bool { return ts[i].Company < ts[j].Company })
		idx.years = append(idx.years, y)
	}
	sort.Ints(idx.years)
	return idx
}

// Years returns the years present in the batch, ascending.
func (idx CompanyYearIndex) Years() []int {
	return append([]int(nil), idx.years...)
}

// Companies returns the year's totals ordered by company name. The slice is shared; do not modify it.
func (idx CompanyYearIndex) Companies(year int) []CompanyYearTotal {
	return idx.byYear[year]
}

// Sectors returns the sorted union of every sector seen in any year.
func (idx CompanyYearIndex) Sectors() []string {
	var all []string
	for _, ts := range idx.byYear {
		for _, t := range ts {
			all = append(all, t.Sectors...)
		}
	}
	all = lo.Uniq(all)
	sort.Strings(all)
	return all
}

// CompanyNames returns every distinct company name, unordered.
func (idx CompanyYearIndex) CompanyNames() []string {
	var all []string
	for _, ts := range idx.byYear {
		all = append(all, lo.Map(ts, func(t CompanyYearTotal, _ int) string { return t.Company })...)
	}
	return lo.Uniq(all)
}

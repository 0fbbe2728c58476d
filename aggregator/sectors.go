package aggregator

import (
	"emissions-stats/domain/emissions"

	lo "github.com/samber/lo"
)

// RollupSectors sums each year's company emissions and energy per sector. A
// company that reported several sectors in a year contributes its full totals
// to each of them, so a year's sector sum can exceed its company sum.
//
// Every year carries every sector of the batch, zero when absent that year.
func RollupSectors(idx CompanyYearIndex) []emissions.SectorYear {
	all := idx.Sectors()
	years := idx.Years()
	out := make([]emissions.SectorYear, 0, len(years))
	for _, year := range years {
		totals := lo.SliceToMap(all, func(s string) (string, float64) { return s, 0 })
		energy := lo.SliceToMap(all, func(s string) (string, float64) { return s, 0 })
		for _, t := range idx.Companies(year) {
			for _, s := range t.Sectors {
				totals[s] += t.Emissions
				energy[s] += t.Consumption
			}
		}
		out = append(out, emissions.SectorYear{Year: emissions.YearLabel(year), Totals: totals, Energy: energy})
	}
	return out
}

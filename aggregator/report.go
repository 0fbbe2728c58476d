// Package aggregator derives per-year tiers, sector totals and grouped
// summaries from the records of one upload batch.
package aggregator

import (
	"sort"

	"emissions-stats/domain/emissions"

	lo "github.com/samber/lo"
)

// Aggregate builds the full report of one batch. The records are only read.
func Aggregate(info emissions.FileInfo, records []emissions.Record) (*emissions.Report, error) {
	if len(records) == 0 {
		return nil, emissions.ErrEmptyDataset
	}
	idx := BuildIndex(records)

	tiers, err := ClassifyTiers(idx)
	if err != nil {
		return nil, err
	}

	return &emissions.Report{
		FileInfo:  info,
		Tiers:     tiers,
		Sectors:   RollupSectors(idx),
		Companies: CompaniesByYear(idx),
		Metadata:  BuildMetadata(idx),
	}, nil
}

// CompaniesByYear lists each year's companies by name with their representative sector.
func CompaniesByYear(idx CompanyYearIndex) []emissions.CompanyYear {
	return lo.Map(idx.Years(), func(year int, _ int) emissions.CompanyYear {
		entries := lo.Map(idx.Companies(year), func(t CompanyYearTotal, _ int) emissions.CompanyEntry {
			return emissions.CompanyEntry{
				Name:        t.Company,
				Emissions:   t.Emissions,
				Consumption: t.Consumption,
				Sector:      t.PrimarySector(),
			}
		})
		return emissions.CompanyYear{Year: emissions.YearLabel(year), Companies: entries}
	})
}

func BuildMetadata(idx CompanyYearIndex) emissions.Metadata {
	names := idx.CompanyNames()
	NaturalSort(names)
	return emissions.Metadata{
		Years:        lo.Map(idx.Years(), func(y int, _ int) string { return emissions.YearLabel(y) }),
		Sectors:      idx.Sectors(),
		CompanyCount: len(names),
		CompanyList:  names,
	}
}

// Summarize computes the figures returned right after an upload.
func Summarize(fileID int64, records []emissions.Record, dropped int) emissions.UploadSummary {
	s := emissions.UploadSummary{
		FileID:      fileID,
		RecordCount: len(records),
		DroppedRows: dropped,
		Top5CO2:     []emissions.TopEmitter{},
	}
	if len(records) == 0 {
		return s
	}
	s.TotalCO2 = lo.SumBy(records, func(r emissions.Record) float64 { return r.CO2Emissions })
	s.AvgEnergy = lo.SumBy(records, func(r emissions.Record) float64 { return r.EnergyConsumption }) / float64(len(records))

	sorted := append([]emissions.Record(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CO2Emissions > sorted[j].CO2Emissions })
	s.Top5CO2 = lo.Map(lo.Slice(sorted, 0, 5), func(r emissions.Record, _ int) emissions.TopEmitter {
		return emissions.TopEmitter{Name: r.Company, CO2Emissions: r.CO2Emissions}
	})
	return s
}

package aggregator

import (
	"errors"
	"math"
	"sort"

	"emissions-stats/domain/emissions"

	lo "github.com/samber/lo"
)

type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

var (
	errNoValues   = errors.New("percentile of empty sample")
	errPercentile = errors.New("percentile outside 0..100")
)

// Percentile returns the p-th percentile (0..100) of values using linear
// interpolation between the closest order statistics.
func Percentile(values []float64, p float64) (float64, error) {
	if len(values) == 0 {
		return 0, errNoValues
	}
	if p < 0 || p > 100 || math.IsNaN(p) {
		return 0, errPercentile
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	rank := p / 100 * float64(len(sorted)-1)
	floor, ceil := math.Floor(rank), math.Ceil(rank)
	lower, upper := sorted[int(floor)], sorted[int(ceil)]
	return lower + (upper-lower)*(rank-floor), nil
}

// Classify places a value against the year's thresholds. The high branch is
// checked first and both comparisons are inclusive.
func Classify(value, p50, p75 float64) Tier {
	if value >= p75 {
		return TierHigh
	}
	if value >= p50 {
		return TierMedium
	}
	return TierLow
}

// ClassifyTiers buckets every company's yearly totals into high/medium/low per metric.
func ClassifyTiers(idx CompanyYearIndex) ([]emissions.TierBucket, error) {
	years := idx.Years()
	out := make([]emissions.TierBucket, 0, len(years))
	for _, year := range years {
		totals := idx.Companies(year)
		co2 := lo.Map(totals, func(t CompanyYearTotal, _ int) float64 { return t.Emissions })
		energy := lo.Map(totals, func(t CompanyYearTotal, _ int) float64 { return t.Consumption })

		co2P50, co2P75, err := thresholds(year, "co2", co2)
		if err != nil {
			return nil, err
		}
		enP50, enP75, err := thresholds(year, "energy", energy)
		if err != nil {
			return nil, err
		}

		b := emissions.TierBucket{Year: emissions.YearLabel(year)}
		for _, t := range totals {
			switch Classify(t.Emissions, co2P50, co2P75) {
			case TierHigh:
				b.CO2High += t.Emissions
			case TierMedium:
				b.CO2Medium += t.Emissions
			default:
				b.CO2Low += t.Emissions
			}
			switch Classify(t.Consumption, enP50, enP75) {
			case TierHigh:
				b.EnergyHigh += t.Consumption
			case TierMedium:
				b.EnergyMedium += t.Consumption
			default:
				b.EnergyLow += t.Consumption
			}
		}
		out = append(out, b)
	}
	return out, nil
}

func thresholds(year int, metric string, values []float64) (float64, float64, error) {
	p50, err := Percentile(values, 50)
	if err != nil {
		return 0, 0, &emissions.ComputationError{Year: year, Op: metric + " p50", Err: err}
	}
	p75, err := Percentile(values, 75)
	if err != nil {
		return 0, 0, &emissions.ComputationError{Year: year, Op: metric + " p75", Err: err}
	}
	return p50, p75, nil
}

package aggregator

import (
	"math"
	"testing"

	"emissions-stats/domain/emissions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(company, sector string, year int, energy, co2 float64) emissions.Record {
	return emissions.Record{Company: company, Sector: sector, Year: year, EnergyConsumption: energy, CO2Emissions: co2}
}

func TestPercentileLinear(t *testing.T) {
	tests := []struct {
		values []float64
		p      float64
		want   float64
	}{
		{[]float64{10, 5, 1}, 75, 7.5},
		{[]float64{10, 5, 1}, 50, 5},
		{[]float64{1, 2, 3, 4}, 50, 2.5},
		{[]float64{1, 2, 3, 4}, 75, 3.25},
		{[]float64{42}, 75, 42},
		{[]float64{3, 3}, 50, 3},
	}
	for _, tt := range tests {
		got, err := Percentile(tt.values, tt.p)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-9, "p%v of %v", tt.p, tt.values)
	}
}

func TestPercentileEmpty(t *testing.T) {
	_, err := Percentile(nil, 50)
	assert.Error(t, err)
}

func TestPercentileOutOfRange(t *testing.T) {
	for _, p := range []float64{-1, 100.5, 150, math.NaN()} {
		_, err := Percentile([]float64{1, 2, 3}, p)
		assert.Error(t, err, "p%v", p)
	}
	got, err := Percentile([]float64{1, 2, 3}, 100)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)
	got, err = Percentile([]float64{1, 2, 3}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestPercentileDoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	_, err := Percentile(values, 50)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestClassifyInclusiveBounds(t *testing.T) {
	assert.Equal(t, TierHigh, Classify(7.5, 5, 7.5))
	assert.Equal(t, TierMedium, Classify(5, 5, 7.5))
	assert.Equal(t, TierLow, Classify(4.99, 5, 7.5))
}

func TestClassifyTiersScenario(t *testing.T) {
	idx := BuildIndex([]emissions.Record{
		rec("A", "Energy", 2020, 100, 10),
		rec("B", "Energy", 2020, 50, 5),
		rec("C", "Tech", 2020, 10, 1),
	})
	tiers, err := ClassifyTiers(idx)
	require.NoError(t, err)
	require.Len(t, tiers, 1)

	assert.Equal(t, emissions.TierBucket{
		Year:         "2020",
		CO2High:      10,
		CO2Medium:    5,
		CO2Low:       1,
		EnergyHigh:   100,
		EnergyMedium: 50,
		EnergyLow:    10,
	}, tiers[0])
}

func TestClassifyTiersSingleCompanyIsHigh(t *testing.T) {
	tiers, err := ClassifyTiers(BuildIndex([]emissions.Record{rec("Solo", "S", 2021, 30, 3)}))
	require.NoError(t, err)
	require.Len(t, tiers, 1)
	assert.Equal(t, 3.0, tiers[0].CO2High)
	assert.Equal(t, 30.0, tiers[0].EnergyHigh)
	assert.Zero(t, tiers[0].CO2Low)
	assert.Zero(t, tiers[0].EnergyLow)
}

func TestClassifyTiersEqualValuesShareTier(t *testing.T) {
	tiers, err := ClassifyTiers(BuildIndex([]emissions.Record{
		rec("A", "S", 2020, 8, 4),
		rec("B", "S", 2020, 8, 4),
	}))
	require.NoError(t, err)
	assert.Equal(t, 8.0, tiers[0].CO2High)
	assert.Zero(t, tiers[0].CO2Medium)
	assert.Equal(t, 16.0, tiers[0].EnergyHigh)
}

func TestClassifyTiersPartitionsEachYear(t *testing.T) {
	records := []emissions.Record{
		rec("A", "S1", 2019, 12, 3.5),
		rec("A", "S2", 2019, 4, 1.25),
		rec("B", "S1", 2019, 7, 9),
		rec("C", "S3", 2019, 1, 0),
		rec("D", "S3", 2019, 30, 2),
		rec("A", "S1", 2020, 5, 5),
		rec("E", "S2", 2020, 6, 6),
		rec("F", "S2", 2020, 7, 7),
	}
	idx := BuildIndex(records)
	tiers, err := ClassifyTiers(idx)
	require.NoError(t, err)
	require.Len(t, tiers, 2)

	for i, year := range idx.Years() {
		var co2, energy float64
		for _, c := range idx.Companies(year) {
			co2 += c.Emissions
			energy += c.Consumption
		}
		b := tiers[i]
		assert.Equal(t, emissions.YearLabel(year), b.Year)
		assert.InDelta(t, co2, b.CO2High+b.CO2Medium+b.CO2Low, 1e-9)
		assert.InDelta(t, energy, b.EnergyHigh+b.EnergyMedium+b.EnergyLow, 1e-9)
	}
}

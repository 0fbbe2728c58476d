package csv

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"emissions-stats/domain/emissions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var aliases = map[string][]string{
	emissions.ColumnCompany: {"nome da empresa"},
	emissions.ColumnCO2:     {"co2"},
}

func TestResolveHeaders(t *testing.T) {
	idx, err := ResolveHeaders([]string{"\ufeffYear", " Nome da Empresa ", "sector", "CO2", "energy_consumption"}, aliases)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		emissions.ColumnYear:    0,
		emissions.ColumnCompany: 1,
		emissions.ColumnSector:  2,
		emissions.ColumnCO2:     3,
		emissions.ColumnEnergy:  4,
	}, idx)
}

func TestResolveHeadersMissing(t *testing.T) {
	_, err := ResolveHeaders([]string{"company", "year"}, nil)
	var verr *emissions.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{emissions.ColumnSector, emissions.ColumnEnergy, emissions.ColumnCO2}, verr.Missing)
	assert.Contains(t, verr.Error(), "sector")
}

func TestReadSkipsBlankAndShortRows(t *testing.T) {
	data := "company,sector,year,energy_consumption,co2\n" +
		"A,Energy,2020,100,10\n" +
		",,,,\n" +
		"B,Tech,2021\n"
	table, err := Read(strings.NewReader(data), aliases)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "10", table.Rows[0][emissions.ColumnCO2])
	assert.Equal(t, "B", table.Rows[1][emissions.ColumnCompany])
	assert.Nil(t, table.Rows[1][emissions.ColumnCO2])
}

func TestReadEmptyFile(t *testing.T) {
	_, err := Read(strings.NewReader(""), aliases)
	var verr *emissions.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestReadMalformedIsValidationError(t *testing.T) {
	data := "company,sector,year,energy_consumption,co2\nA,\"Ene\"rgy,2020,1,1\n"
	_, err := Read(strings.NewReader(data), aliases)
	var verr *emissions.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "malformed csv rows")
}

func TestWriteGroupRows(t *testing.T) {
	var buf bytes.Buffer
	err := WriteGroupRows(&buf, []emissions.GroupRow{
		{Company: "Acme", SectorFirst: "Energy", Rank: 1, CO2Sum: 24, CO2Mean: 8, CO2Max: 10, CO2Min: 6, Count: 3, EnergySum: 200, EnergyMean: 66.5},
		{Year: "2020", CO2Sum: 1.5, Count: 1},
	})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, ",,Acme,Energy,1,24,8,10,6,3,200,66.5", lines[1])
	assert.Equal(t, "2020,,,,,1.5,0,0,0,1,0,0", lines[2])
}

func TestWriteSectorsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "sectors.csv")
	err := WriteSectorsCSV(path, []string{"Tech", "Energy"}, []emissions.SectorYear{
		{Year: "2020", Totals: map[string]float64{"Energy": 15, "Tech": 1}},
	})
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "year,Energy,Tech\n2020,15,1\n", string(b))
}

func TestWriteSectorEnergyCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sectors_energy.csv")
	err := WriteSectorEnergyCSV(path, []string{"Energy", "Tech"}, []emissions.SectorYear{
		{Year: "2020", Totals: map[string]float64{"Energy": 15}, Energy: map[string]float64{"Energy": 150, "Tech": 10}},
	})
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "year,Energy,Tech\n2020,150,10\n", string(b))
}

func TestWriteTiersCSVReportsCreateFailure(t *testing.T) {
	dir := t.TempDir()
	// a directory sitting where the file should go
	require.NoError(t, os.Mkdir(filepath.Join(dir, "tiers.csv"), 0o755))
	assert.Error(t, WriteTiersCSV(filepath.Join(dir, "tiers.csv"), nil))
}

func TestWriteTiersCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiers.csv")
	require.NoError(t, WriteTiersCSV(path, []emissions.TierBucket{{Year: "2020", CO2High: 10, CO2Medium: 5, CO2Low: 1}}))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "year,co2_high,co2_medium,co2_low,energy_high,energy_medium,energy_low\n2020,10,5,1,0,0,0\n", string(b))
}

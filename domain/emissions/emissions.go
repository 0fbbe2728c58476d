package emissions

import (
	"encoding/json"
	"strconv"
	"time"
)

// Canonical column names of an uploaded table, after header resolution.
const (
	ColumnCompany = "company"
	ColumnSector  = "sector"
	ColumnYear    = "year"
	ColumnEnergy  = "energy_consumption"
	ColumnCO2     = "co2_emissions"
)

// RequiredColumns lists every column a batch table must carry.
var RequiredColumns = []string{ColumnCompany, ColumnSector, ColumnYear, ColumnEnergy, ColumnCO2}

// Record is one row of an uploaded batch (energy in MWh, CO2 in tonnes).
type Record struct {
	Company           string  `json:"name"`
	Sector            string  `json:"sector"`
	Year              int     `json:"year"`
	EnergyConsumption float64 `json:"energy_consumption"`
	CO2Emissions      float64 `json:"co2_emissions"`
}

// StoredRecord is a Record as persisted, tagged with its batch.
type StoredRecord struct {
	ID     int64 `json:"id"`
	FileID int64 `json:"file_id"`
	Record
}

// RawRow maps a canonical column name to the value read from the source table.
type RawRow map[string]any

// RawTable is a source table whose headers were already resolved to canonical names.
type RawTable struct {
	Columns []string
	Rows    []RawRow
}

// FileInfo describes one upload batch.
type FileInfo struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	UploadDate time.Time `json:"upload_date"`
}

// GroupRow is one aggregate row of the grouping engine. Dims names the key
// fields the rows were grouped by (ColumnYear, ColumnSector, ColumnCompany);
// only those key fields are written to JSON, even when their value is empty.
type GroupRow struct {
	Year        string
	Sector      string
	Company     string
	Dims        []string
	SectorFirst string
	Rank        int
	CO2Sum      float64
	CO2Mean     float64
	CO2Max      float64
	CO2Min      float64
	Count       int
	EnergySum   float64
	EnergyMean  float64
}

type groupRowJSON struct {
	Year        *string `json:"year,omitempty"`
	Sector      *string `json:"sector,omitempty"`
	Company     *string `json:"name,omitempty"`
	SectorFirst *string `json:"sector_first,omitempty"`
	Rank        int     `json:"rank,omitempty"`
	CO2Sum      float64 `json:"co2_emissions_sum"`
	CO2Mean     float64 `json:"co2_emissions_mean"`
	CO2Max      float64 `json:"co2_emissions_max"`
	CO2Min      float64 `json:"co2_emissions_min"`
	Count       int     `json:"count"`
	EnergySum   float64 `json:"energy_consumption_sum"`
	EnergyMean  float64 `json:"energy_consumption_mean"`
}

// HasDim reports whether column is one of the row's grouping dimensions.
func (g GroupRow) HasDim(column string) bool {
	for _, d := range g.Dims {
		if d == column {
			return true
		}
	}
	return false
}

func (g GroupRow) MarshalJSON() ([]byte, error) {
	out := groupRowJSON{
		Rank:       g.Rank,
		CO2Sum:     g.CO2Sum,
		CO2Mean:    g.CO2Mean,
		CO2Max:     g.CO2Max,
		CO2Min:     g.CO2Min,
		Count:      g.Count,
		EnergySum:  g.EnergySum,
		EnergyMean: g.EnergyMean,
	}
	if g.HasDim(ColumnYear) {
		out.Year = &g.Year
	}
	if g.HasDim(ColumnSector) {
		out.Sector = &g.Sector
	}
	if g.HasDim(ColumnCompany) {
		out.Company = &g.Company
	}
	// ranked rows are per-company rows, which always carry their first sector
	if g.Rank > 0 {
		out.SectorFirst = &g.SectorFirst
	}
	return json.Marshal(out)
}

// TierBucket holds the per-year tier totals (sums, not counts).
type TierBucket struct {
	Year         string  `json:"year"`
	CO2High      float64 `json:"co2_high"`
	CO2Medium    float64 `json:"co2_medium"`
	CO2Low       float64 `json:"co2_low"`
	EnergyHigh   float64 `json:"energy_high"`
	EnergyMedium float64 `json:"energy_medium"`
	EnergyLow    float64 `json:"energy_low"`
}

// SectorYear carries one year of sector totals. It marshals flat, one CO2 field
// per sector; Energy holds the matching consumption totals and stays out of JSON.
type SectorYear struct {
	Year   string
	Totals map[string]float64
	Energy map[string]float64
}

func (s SectorYear) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(s.Totals)+1)
	for k, v := range s.Totals {
		m[k] = v
	}
	// the year key always wins over a sector literally named "year"
	m["year"] = s.Year
	return json.Marshal(m)
}

// CompanyEntry is a company's yearly totals with its representative sector.
type CompanyEntry struct {
	Name        string  `json:"name"`
	Emissions   float64 `json:"emissions"`
	Consumption float64 `json:"consumption"`
	Sector      string  `json:"sector"`
}

type CompanyYear struct {
	Year      string         `json:"year"`
	Companies []CompanyEntry `json:"companies"`
}

type Metadata struct {
	Years        []string `json:"years"`
	Sectors      []string `json:"sectors"`
	CompanyCount int      `json:"company_count"`
	CompanyList  []string `json:"company_list"`
}

// Report is the assembled analytics response for one batch.
type Report struct {
	FileInfo  FileInfo      `json:"file_info"`
	Tiers     []TierBucket  `json:"tiers"`
	Sectors   []SectorYear  `json:"sectors"`
	Companies []CompanyYear `json:"companies"`
	Metadata  Metadata      `json:"metadata"`
}

// TopEmitter is an entry of the upload summary's top five list.
type TopEmitter struct {
	Name         string  `json:"name"`
	CO2Emissions float64 `json:"co2_emissions"`
}

// UploadSummary is returned once a batch has been stored.
type UploadSummary struct {
	FileID      int64        `json:"file_id"`
	RecordCount int          `json:"record_count"`
	DroppedRows int          `json:"dropped_rows"`
	TotalCO2    float64      `json:"total_co2"`
	AvgEnergy   float64      `json:"avg_energy"`
	Top5CO2     []TopEmitter `json:"top_5_co2"`
}

// YearLabel renders a year the way it appears in output keys.
func YearLabel(year int) string { return strconv.Itoa(year) }

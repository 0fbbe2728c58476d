package config

import "emissions-stats/domain/emissions"

// Config represents the structure of config.yml used by the tool.
type Config struct {
	Server struct {
		Addr      string `yaml:"addr"`
		UIDir     string `yaml:"ui_dir"`
		MaxUpload string `yaml:"max_upload"` // echo body limit, e.g. "20M"
	} `yaml:"server"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	// Columns maps each canonical column to the header spellings accepted for it.
	Columns map[string][]string `yaml:"columns"`
}

// DefaultColumns covers English headers and those of the Portuguese
// report template. Matching is done on trimmed lower-case headers.
var DefaultColumns = map[string][]string{
	emissions.ColumnCompany: {"company", "company_name", "name", "nome da empresa", "empresa"},
	emissions.ColumnSector:  {"sector", "setor"},
	emissions.ColumnYear:    {"year", "ano"},
	emissions.ColumnEnergy:  {"energy_consumption", "energy", "consumption", "consumo (kwh)", "consumo (mwh)", "consumo"},
	emissions.ColumnCO2:     {"co2_emissions", "co2", "emissions", "emissões co₂ (t)", "emissoes co2 (t)", "emissões co2 (t)"},
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	c := &Config{}
	c.Server.Addr = ":8080"
	c.Server.UIDir = "./ui/dist"
	c.Server.MaxUpload = "20M"
	c.Storage.Path = "./data/emissions.db"
	c.Log.Level = "info"
	c.Columns = map[string][]string{}
	for k, v := range DefaultColumns {
		c.Columns[k] = append([]string(nil), v...)
	}
	return c
}

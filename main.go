package main

import (
	cmdfiles "emissions-stats/command/files"
	cmdimport "emissions-stats/command/import"
	cmdreport "emissions-stats/command/report"
	cmdweb "emissions-stats/command/web"
	"emissions-stats/connectors/config"
	"fmt"
	"log/slog"
	"os"
)

// Emissions report aggregator.
// Usage:
//   go run . import -file report.xlsx [-name q1] [-db ./data/emissions.db]
//   go run . report -id 1 [-group company] [-out report.json] [-csv ./out]
//   go run . files
//   go run . web [-addr :8080] [-ui ./ui/dist]
// Notes:
// - Rows missing a year, an energy value or a CO2 value are dropped at import.
// - Reports carry per-year percentile tiers, sector totals, per-company totals and metadata.

const usage = "usage: emissions-stats import -file <xlsx|csv> [-name <label>] | report -id <n> [-group <keys>] [-out <file>] [-csv <dir>] | files | web [-addr :8080] [-ui ./ui/dist]\n" +
	"all commands accept -db <sqlite path>\nENV: set CONFIG_PATH to point to a YAML config file (default ./config.yml)"

func main() {
	args := os.Args
	level := slog.LevelInfo
	if cfg, err := config.LoadFromEnv(); err == nil {
		level = config.LogLevel(cfg)
	}
	// Initialize slog logger (text to stderr)
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))

	if len(args) > 1 {
		sub := args[1]
		rest := append([]string{}, args[2:]...)
		var run func([]string) error
		switch sub {
		case "import":
			run = cmdimport.Run
		case "report":
			run = cmdreport.Run
		case "files":
			run = cmdfiles.Run
		case "web":
			run = cmdweb.Run
		}
		if run != nil {
			if err := run(rest); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}
	}
	fmt.Fprintln(os.Stderr, usage)
	os.Exit(2)
}

package report

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"emissions-stats/aggregator"
	"emissions-stats/connectors/config"
	ccsv "emissions-stats/connectors/csv"
	"emissions-stats/connectors/sqlite"
	"emissions-stats/domain/emissions"
)

// RecordReader loads one stored batch.
type RecordReader interface {
	GetBatch(ctx context.Context, id int64) (emissions.FileInfo, error)
	Records(ctx context.Context, fileID int64) ([]emissions.StoredRecord, error)
}

// Build loads a batch and assembles its report.
func Build(ctx context.Context, store RecordReader, id int64) (*emissions.Report, error) {
	info, err := store.GetBatch(ctx, id)
	if err != nil {
		return nil, err
	}
	recs, err := store.Records(ctx, id)
	if err != nil {
		return nil, err
	}
	return aggregator.Aggregate(info, sqlite.Plain(recs))
}

// GroupBatch loads a batch and runs the grouping engine over it.
func GroupBatch(ctx context.Context, store RecordReader, id int64, key aggregator.GroupKey) ([]emissions.GroupRow, error) {
	recs, err := store.Records(ctx, id)
	if err != nil {
		return nil, err
	}
	return aggregator.Group(sqlite.Plain(recs), key)
}

// Run executes the report subcommand.
//
// Usage:
//
//	emissions-stats report -id <n> [-group <key>] [-out <path>] [-csv <dir>] [-db <path>]
//
// Without -group the full report is written as JSON; with -group the grouping
// rows are written as CSV. -csv additionally writes tiers.csv, sectors.csv
// (CO2 per sector) and sectors_energy.csv.
func Run(args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	id := fs.Int64("id", 0, "batch id")
	group := fs.String("group", "", "grouping: year|sector|company|sector,year|company,year")
	out := fs.String("out", "", "output file (default stdout)")
	csvDir := fs.String("csv", "", "directory for tiers.csv and sectors.csv (optional)")
	dbPath := fs.String("db", "", "sqlite database path (overrides storage.path)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return fmt.Errorf("report: -id is required")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}
	store, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store %s: %w", cfg.Storage.Path, err)
	}
	defer store.Close()

	var w io.Writer = os.Stdout
	if *out != "" {
		if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
			return err
		}
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	ctx := context.Background()
	if *group != "" {
		key, err := aggregator.ParseGroupKey(*group)
		if err != nil {
			return err
		}
		rows, err := GroupBatch(ctx, store, *id, key)
		if err != nil {
			return err
		}
		if err := ccsv.WriteGroupRows(w, rows); err != nil {
			return err
		}
		slog.Info("report.done", "id", *id, "group", string(key), "rows", len(rows))
		return nil
	}

	rep, err := Build(ctx, store, *id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return err
	}
	if *csvDir != "" {
		if err := ccsv.WriteTiersCSV(filepath.Join(*csvDir, "tiers.csv"), rep.Tiers); err != nil {
			return err
		}
		if err := ccsv.WriteSectorsCSV(filepath.Join(*csvDir, "sectors.csv"), rep.Metadata.Sectors, rep.Sectors); err != nil {
			return err
		}
		if err := ccsv.WriteSectorEnergyCSV(filepath.Join(*csvDir, "sectors_energy.csv"), rep.Metadata.Sectors, rep.Sectors); err != nil {
			return err
		}
	}
	slog.Info("report.done", "id", *id, "years", len(rep.Metadata.Years), "companies", rep.Metadata.CompanyCount)
	return nil
}

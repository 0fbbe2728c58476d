package cmdimport

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
	"emissions-stats/connectors/excel"
	"emissions-stats/connectors/sqlite"
	"emissions-stats/domain/emissions"
)

// BatchWriter persists a normalized batch.
type BatchWriter interface {
	CreateBatch(ctx context.Context, name string, records []emissions.Record) (emissions.FileInfo, error)
}

// Ingest reads an uploaded report, normalizes it and stores it as a new batch.
// Nothing is stored when the table is invalid or holds no usable row.
func Ingest(ctx context.Context, store BatchWriter, name string, r io.Reader, aliases map[string][]string) (emissions.UploadSummary, error) {
	table, err := excel.ReadUpload(name, r, aliases)
	if err != nil {
		return emissions.UploadSummary{}, err
	}
	records, dropped, err := aggregator.Normalize(table)
	if err != nil {
		slog.Warn("ingest.normalize.error", "file", name, "rows", len(table.Rows), "dropped", dropped, "error", err)
		return emissions.UploadSummary{DroppedRows: dropped}, err
	}
	info, err := store.CreateBatch(ctx, name, records)
	if err != nil {
		return emissions.UploadSummary{}, fmt.Errorf("store batch %s: %w", name, err)
	}
	slog.Info("ingest.done", "file", name, "file_id", info.ID, "records", len(records), "dropped", dropped)
	return aggregator.Summarize(info.ID, records, dropped), nil
}

// Run executes the import subcommand: -file <path> [-name <label>] [-db <path>].
func Run(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	file := fs.String("file", "", "spreadsheet (.xlsx) or .csv report to import")
	name := fs.String("name", "", "batch label (defaults to the file name)")
	dbPath := fs.String("db", "", "sqlite database path (overrides storage.path)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		slog.Error("import.validation.error", "reason", "missing file")
		return fmt.Errorf("missing required -file")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}
	if *name == "" {
		*name = filepath.Base(*file)
	}

	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	store, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store %s: %w", cfg.Storage.Path, err)
	}
	defer store.Close()

	slog.Info("import.start", "file", *file, "name", *name, "db", cfg.Storage.Path)
	summary, err := Ingest(context.Background(), store, *name, f, cfg.Columns)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

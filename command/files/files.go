package files

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"emissions-stats/connectors/config"
	"emissions-stats/connectors/sqlite"
	"emissions-stats/domain/emissions"
)

// Run lists stored batches: files [-db <path>].
func Run(args []string) error {
	fs := flag.NewFlagSet("files", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	dbPath := fs.String("db", "", "sqlite database path (overrides storage.path)")
	if err := fs.Parse(args); err != nil {
		return err
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

	list, err := store.ListBatches(context.Background())
	if err != nil {
		return err
	}
	return write(os.Stdout, list)
}

func write(out io.Writer, list []emissions.FileInfo) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tUPLOADED")
	for _, f := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\n", f.ID, f.Name, f.UploadDate.UTC().Format(time.RFC3339))
	}
	return w.Flush()
}

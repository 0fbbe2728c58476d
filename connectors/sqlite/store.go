// Package sqlite persists upload batches and their emission records.
//
// Batches are append-only: a batch is created with all its records in one
// transaction and can only be deleted as a whole.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"emissions-stats/domain/emissions"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned for an unknown batch id.
var ErrNotFound = errors.New("batch not found")

const schema = `
CREATE TABLE IF NOT EXISTS uploaded_files (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	file_name   TEXT NOT NULL,
	upload_date TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS company_emissions (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id            INTEGER NOT NULL REFERENCES uploaded_files(id) ON DELETE CASCADE,
	name               TEXT NOT NULL,
	sector             TEXT NOT NULL,
	energy_consumption REAL NOT NULL,
	co2_emissions      REAL NOT NULL,
	year               INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_company_emissions_file ON company_emissions(file_id);
`

// Store is a SQLite-backed batch repository. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates (if needed) and migrates the database at path.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// CreateBatch stores a new batch with all its records.
func (s *Store) CreateBatch(ctx context.Context, name string, records []emissions.Record) (emissions.FileInfo, error) {
	info := emissions.FileInfo{Name: name, UploadDate: s.now().UTC().Truncate(time.Second)}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return info, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO uploaded_files (file_name, upload_date) VALUES (?, ?)`,
		name, info.UploadDate.Format(time.RFC3339))
	if err != nil {
		return info, fmt.Errorf("insert file: %w", err)
	}
	if info.ID, err = res.LastInsertId(); err != nil {
		return info, err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO company_emissions
		(file_id, name, sector, energy_consumption, co2_emissions, year) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return info, err
	}
	defer stmt.Close()
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, info.ID, r.Company, r.Sector, r.EnergyConsumption, r.CO2Emissions, r.Year); err != nil {
			return info, fmt.Errorf("insert record: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return info, err
	}
	return info, nil
}

// ListBatches returns every batch, newest first.
func (s *Store) ListBatches(ctx context.Context) ([]emissions.FileInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, file_name, upload_date FROM uploaded_files ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []emissions.FileInfo{}
	for rows.Next() {
		info, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// GetBatch returns the batch with id or ErrNotFound.
func (s *Store) GetBatch(ctx context.Context, id int64) (emissions.FileInfo, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, file_name, upload_date FROM uploaded_files WHERE id = ?`, id)
	info, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return info, fmt.Errorf("batch %d: %w", id, ErrNotFound)
	}
	return info, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(sc scanner) (emissions.FileInfo, error) {
	var info emissions.FileInfo
	var date string
	if err := sc.Scan(&info.ID, &info.Name, &date); err != nil {
		return info, err
	}
	t, err := time.Parse(time.RFC3339, date)
	if err != nil {
		return info, fmt.Errorf("batch %d upload_date: %w", info.ID, err)
	}
	info.UploadDate = t
	return info, nil
}

// Records returns a batch's records in upload order.
func (s *Store) Records(ctx context.Context, fileID int64) ([]emissions.StoredRecord, error) {
	if _, err := s.GetBatch(ctx, fileID); err != nil {
		return nil, err
	}
	return s.queryRecords(ctx, `WHERE file_id = ?`, fileID)
}

// AllRecords returns the records of every batch.
func (s *Store) AllRecords(ctx context.Context) ([]emissions.StoredRecord, error) {
	return s.queryRecords(ctx, ``)
}

func (s *Store) queryRecords(ctx context.Context, where string, args ...any) ([]emissions.StoredRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, file_id, name, sector, energy_consumption, co2_emissions, year
		FROM company_emissions `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []emissions.StoredRecord{}
	for rows.Next() {
		var r emissions.StoredRecord
		if err := rows.Scan(&r.ID, &r.FileID, &r.Company, &r.Sector, &r.EnergyConsumption, &r.CO2Emissions, &r.Year); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteBatch removes a batch and its records.
func (s *Store) DeleteBatch(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM company_emissions WHERE file_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM uploaded_files WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("batch %d: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

// Plain strips the storage ids from records before aggregation.
func Plain(rs []emissions.StoredRecord) []emissions.Record {
	out := make([]emissions.Record, len(rs))
	for i, r := range rs {
		out[i] = r.Record
	}
	return out
}
